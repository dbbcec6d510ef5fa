package usecase

import (
	"context"
	"time"

	"github.com/juju/errors"
	"github.com/tilinna/clock"

	"learningplatform/services/learning-service/internal/application"
	"learningplatform/services/learning-service/internal/domain"
	"learningplatform/services/learning-service/internal/platform/logger"
)

// ErrCourseInfoMissing means the course service left out a course that a
// stored lesson refers to.
var ErrCourseInfoMissing = errors.New("lessons: course info missing from course service answer")

type LessonUseCase struct {
	clock   clock.Clock
	repo    application.LessonRepository
	courses application.CourseGateway
	log     *logger.Logger
}

func NewLessonUseCase(clk clock.Clock, repo application.LessonRepository, courses application.CourseGateway, log *logger.Logger) *LessonUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &LessonUseCase{
		clock:   clk,
		repo:    repo,
		courses: courses,
		log:     log.With("component", "LessonUseCase"),
	}
}

// AddUserLessons enrolls the user in every purchased course the course service
// still knows about. Either all lessons are stored or none.
func (uc *LessonUseCase) AddUserLessons(ctx context.Context, userID int64, courseIDs []int64) error {
	// 1. Course summaries for the purchase
	infos, err := uc.courses.GetSimpleInfoList(ctx, distinct(courseIDs))
	if err != nil {
		return errors.Trace(err)
	}
	if len(infos) == 0 {
		uc.log.Error("no course info for purchased courses, lessons not added", "userId", userID, "courseIds", courseIDs)
		return nil
	}

	// 2. One lesson per returned course
	now := uc.clock.Now()
	lessons := make([]domain.Lesson, 0, len(infos))
	for _, info := range infos {
		lesson := domain.Lesson{
			UserID:     userID,
			CourseID:   info.ID,
			Status:     domain.LessonNotStarted,
			CreateTime: now,
		}
		if info.ValidDuration != nil && *info.ValidDuration > 0 {
			expire := AddMonths(now, *info.ValidDuration)
			lesson.ExpireTime = &expire
		}
		lessons = append(lessons, lesson)
	}

	// 3. Single transaction
	if err := uc.repo.InsertBatch(ctx, lessons); err != nil {
		return errors.Trace(err)
	}

	uc.log.Info("lessons added", "userId", userID, "requested", len(courseIDs), "added", len(lessons))
	return nil
}

func (uc *LessonUseCase) RemoveInvalidCourses(ctx context.Context, userID, courseID int64) error {
	return errors.Trace(uc.repo.DeleteByUserAndCourse(ctx, userID, courseID))
}

// RemoveInvalidCoursesFromMQ drops the lessons of refunded courses.
func (uc *LessonUseCase) RemoveInvalidCoursesFromMQ(ctx context.Context, userID int64, courseIDs []int64) error {
	if err := uc.repo.DeleteByUserAndCourses(ctx, userID, distinct(courseIDs)); err != nil {
		return errors.Trace(err)
	}
	uc.log.Info("lessons removed", "userId", userID, "courseIds", courseIDs)
	return nil
}

func (uc *LessonUseCase) QueryMyLessons(ctx context.Context, userID int64, q domain.PageQuery) (domain.Page[domain.LessonView], error) {
	q = q.Normalize()

	// 1. Page of lessons, latest studied first
	lessons, total, err := uc.repo.ListByUser(ctx, userID, q)
	if err != nil {
		return domain.Page[domain.LessonView]{}, errors.Trace(err)
	}
	if len(lessons) == 0 {
		return domain.EmptyPage[domain.LessonView](q, total), nil
	}

	// 2. Course info for the distinct courses on this page, in one call
	courseIDs := make([]int64, 0, len(lessons))
	for _, l := range lessons {
		courseIDs = append(courseIDs, l.CourseID)
	}
	infos, err := uc.courses.GetSimpleInfoList(ctx, distinct(courseIDs))
	if err != nil {
		return domain.Page[domain.LessonView]{}, errors.Trace(err)
	}
	byID := make(map[int64]domain.CourseSimpleInfo, len(infos))
	for _, info := range infos {
		byID[info.ID] = info
	}

	// 3. Join
	views := make([]domain.LessonView, 0, len(lessons))
	for _, l := range lessons {
		info, ok := byID[l.CourseID]
		if !ok {
			return domain.Page[domain.LessonView]{}, errors.Annotatef(ErrCourseInfoMissing, "course %d", l.CourseID)
		}
		view := domain.NewLessonView(l)
		view.CourseName = info.Name
		view.CourseCoverURL = info.CoverURL
		view.Sections = info.SectionNum
		views = append(views, view)
	}

	return domain.NewPage(q, total, views), nil
}

// QueryNowLearning returns nil when the user is not studying anything or the
// course is gone from the course service.
func (uc *LessonUseCase) QueryNowLearning(ctx context.Context, userID int64) (*domain.LessonView, error) {
	lesson, err := uc.repo.FindLatestLearning(ctx, userID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if lesson == nil {
		return nil, nil
	}

	course, err := uc.courses.GetCourseInfoByID(ctx, lesson.CourseID, false, false)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if course == nil {
		return nil, nil
	}

	view := domain.NewLessonView(*lesson)
	view.CourseName = course.Name
	view.CourseCoverURL = course.CoverURL
	view.Sections = course.SectionNum

	amount, err := uc.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	view.CourseAmount = amount

	if lesson.LatestSectionID != nil {
		catas, err := uc.courses.BatchQueryCatalogue(ctx, []int64{*lesson.LatestSectionID})
		if err != nil {
			return nil, errors.Trace(err)
		}
		if len(catas) > 0 {
			index := catas[0].CIndex
			view.LatestSectionName = catas[0].Name
			view.LatestSectionIndex = &index
		}
	}

	return &view, nil
}

func (uc *LessonUseCase) QueryCourseStatus(ctx context.Context, userID, courseID int64) (*domain.LessonView, error) {
	lesson, err := uc.repo.FindByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if lesson == nil {
		return nil, nil
	}
	view := domain.NewLessonView(*lesson)
	return &view, nil
}

// QueryCourseValid returns the lesson id when the user holds the course and the
// course is currently published, nil otherwise.
func (uc *LessonUseCase) QueryCourseValid(ctx context.Context, userID, courseID int64) (*int64, error) {
	lesson, err := uc.repo.FindByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if lesson == nil {
		return nil, nil
	}

	infos, err := uc.courses.GetSimpleInfoList(ctx, []int64{courseID})
	if err != nil {
		return nil, errors.Trace(err)
	}
	var info *domain.CourseSimpleInfo
	for i := range infos {
		if infos[i].ID == courseID {
			info = &infos[i]
			break
		}
	}
	if info == nil || !info.Status.Published() {
		return nil, nil
	}

	id := lesson.ID
	return &id, nil
}

// CountLearningLessonByCourse counts the learners whose enrollment has not lapsed.
func (uc *LessonUseCase) CountLearningLessonByCourse(ctx context.Context, courseID int64) (int64, error) {
	count, err := uc.repo.CountByCourseExcludingStatus(ctx, courseID, domain.LessonExpired)
	return count, errors.Trace(err)
}

// AddMonths adds n calendar months to t. A day that does not exist in the
// target month is clamped to its last day, so Jan 31 + 1 month is Feb 28 (or 29).
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first); day > last {
		day = last
	}
	return first.AddDate(0, 0, day-1)
}

func daysIn(firstOfMonth time.Time) int {
	return firstOfMonth.AddDate(0, 1, -1).Day()
}

func distinct(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

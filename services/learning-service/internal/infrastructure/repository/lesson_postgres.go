package repository

import (
	"context"

	"github.com/juju/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"learningplatform/services/learning-service/internal/domain"
)

type LessonRepository struct {
	db *gorm.DB
}

func NewLessonRepository(db *gorm.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

func (r *LessonRepository) byUser(ctx context.Context, userID int64) *gorm.DB {
	return r.db.WithContext(ctx).Model(&domain.Lesson{}).Where("user_id = ?", userID)
}

// InsertBatch stores all lessons in one transaction. Rows whose (user, course)
// pair already exists are skipped, so a redelivered payment event is harmless.
func (r *LessonRepository) InsertBatch(ctx context.Context, lessons []domain.Lesson) error {
	if len(lessons) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).Create(&lessons).Error
	})
	return errors.Trace(err)
}

// FindByUserAndCourse returns nil when the user holds no lesson for the course.
func (r *LessonRepository) FindByUserAndCourse(ctx context.Context, userID, courseID int64) (*domain.Lesson, error) {
	var lesson domain.Lesson
	err := r.byUser(ctx, userID).
		Where("course_id = ?", courseID).
		Take(&lesson).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &lesson, nil
}

// FindLatestLearning returns the LEARNING lesson touched most recently.
func (r *LessonRepository) FindLatestLearning(ctx context.Context, userID int64) (*domain.Lesson, error) {
	var lessons []domain.Lesson
	err := r.byUser(ctx, userID).
		Where("status = ?", domain.LessonLearning).
		Order("latest_learn_time IS NULL").
		Order("latest_learn_time DESC").
		Limit(1).
		Find(&lessons).Error
	if err != nil {
		return nil, errors.Trace(err)
	}
	if len(lessons) == 0 {
		return nil, nil
	}
	return &lessons[0], nil
}

// ListByUser pages through a user's lessons, most recently studied first.
// Lessons never studied come last.
func (r *LessonRepository) ListByUser(ctx context.Context, userID int64, q domain.PageQuery) ([]domain.Lesson, int64, error) {
	q = q.Normalize()

	var total int64
	if err := r.byUser(ctx, userID).Count(&total).Error; err != nil {
		return nil, 0, errors.Trace(err)
	}

	var lessons []domain.Lesson
	if total == 0 || int64(q.Offset()) >= total {
		return lessons, total, nil
	}

	err := r.byUser(ctx, userID).
		Order("latest_learn_time IS NULL").
		Order("latest_learn_time DESC").
		Order("id DESC").
		Offset(q.Offset()).
		Limit(q.PageSize).
		Find(&lessons).Error
	if err != nil {
		return nil, 0, errors.Trace(err)
	}
	return lessons, total, nil
}

func (r *LessonRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.byUser(ctx, userID).Count(&count).Error
	return count, errors.Trace(err)
}

func (r *LessonRepository) CountByCourseExcludingStatus(ctx context.Context, courseID int64, excluded domain.LessonStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Lesson{}).
		Where("course_id = ? AND status <> ?", courseID, excluded).
		Count(&count).Error
	return count, errors.Trace(err)
}

func (r *LessonRepository) DeleteByUserAndCourse(ctx context.Context, userID, courseID int64) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Delete(&domain.Lesson{}).Error
	return errors.Trace(err)
}

func (r *LessonRepository) DeleteByUserAndCourses(ctx context.Context, userID int64, courseIDs []int64) error {
	if len(courseIDs) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id IN ?", userID, courseIDs).
		Delete(&domain.Lesson{}).Error
	return errors.Trace(err)
}

// UpdateStatus is the single-field write used by the progress side of the platform.
func (r *LessonRepository) UpdateStatus(ctx context.Context, id int64, status domain.LessonStatus) error {
	err := r.db.WithContext(ctx).Model(&domain.Lesson{}).
		Where("id = ?", id).
		Update("status", status).Error
	return errors.Trace(err)
}

package repository

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"learningplatform/services/learning-service/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Lesson{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

func ptrTime(t time.Time) *time.Time { return &t }

func seed(t *testing.T, db *gorm.DB, lessons ...domain.Lesson) []domain.Lesson {
	t.Helper()
	for i := range lessons {
		require.NoError(t, db.Create(&lessons[i]).Error)
	}
	return lessons
}

func TestLessonRepository_InsertBatch(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewLessonRepository(db)

	expire := time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC)
	err := repo.InsertBatch(ctx, []domain.Lesson{
		{UserID: 42, CourseID: 7, ExpireTime: &expire},
		{UserID: 42, CourseID: 9},
	})
	require.NoError(t, err)

	l7, err := repo.FindByUserAndCourse(ctx, 42, 7)
	require.NoError(t, err)
	require.NotNil(t, l7)
	assert.Equal(t, domain.LessonNotStarted, l7.Status)
	require.NotNil(t, l7.ExpireTime)
	assert.True(t, expire.Equal(*l7.ExpireTime))

	l9, err := repo.FindByUserAndCourse(ctx, 42, 9)
	require.NoError(t, err)
	require.NotNil(t, l9)
	assert.Nil(t, l9.ExpireTime)
}

func TestLessonRepository_InsertBatch_SkipsExistingPairs(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewLessonRepository(db)

	require.NoError(t, repo.InsertBatch(ctx, []domain.Lesson{{UserID: 1, CourseID: 10}}))
	require.NoError(t, repo.InsertBatch(ctx, []domain.Lesson{{UserID: 1, CourseID: 10}, {UserID: 1, CourseID: 11}}))

	count, err := repo.CountByUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestLessonRepository_InsertBatch_RollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewLessonRepository(db)

	existing := seed(t, db, domain.Lesson{UserID: 1, CourseID: 4})[0]

	err := repo.InsertBatch(ctx, []domain.Lesson{
		{UserID: 2, CourseID: 5},
		{ID: existing.ID, UserID: 3, CourseID: 6},
	})
	require.Error(t, err)

	for _, userID := range []int64{2, 3} {
		count, err := repo.CountByUser(ctx, userID)
		require.NoError(t, err)
		assert.Zero(t, count, "user %d", userID)
	}
	count, err := repo.CountByUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestLessonRepository_InsertBatch_Empty(t *testing.T) {
	repo := NewLessonRepository(newTestDB(t))

	assert.NoError(t, repo.InsertBatch(context.Background(), nil))
}

func TestLessonRepository_FindByUserAndCourse_NotFound(t *testing.T) {
	repo := NewLessonRepository(newTestDB(t))

	lesson, err := repo.FindByUserAndCourse(context.Background(), 1, 2)
	assert.NoError(t, err)
	assert.Nil(t, lesson)
}

func TestLessonRepository_FindLatestLearning(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewLessonRepository(db)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seeded := seed(t, db,
		domain.Lesson{UserID: 5, CourseID: 1, Status: domain.LessonLearning, LatestLearnTime: ptrTime(base)},
		domain.Lesson{UserID: 5, CourseID: 2, Status: domain.LessonLearning, LatestLearnTime: ptrTime(base.Add(time.Hour))},
		domain.Lesson{UserID: 5, CourseID: 3, Status: domain.LessonFinished, LatestLearnTime: ptrTime(base.Add(2 * time.Hour))},
		domain.Lesson{UserID: 6, CourseID: 4, Status: domain.LessonLearning, LatestLearnTime: ptrTime(base.Add(3 * time.Hour))},
	)

	lesson, err := repo.FindLatestLearning(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, lesson)
	assert.Equal(t, seeded[1].ID, lesson.ID)

	lesson, err = repo.FindLatestLearning(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, lesson)
}

func TestLessonRepository_ListByUser(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewLessonRepository(db)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seed(t, db,
		domain.Lesson{UserID: 5, CourseID: 1, LatestLearnTime: ptrTime(base)},
		domain.Lesson{UserID: 5, CourseID: 2},
		domain.Lesson{UserID: 5, CourseID: 3, LatestLearnTime: ptrTime(base.Add(time.Hour))},
		domain.Lesson{UserID: 9, CourseID: 1},
	)

	lessons, total, err := repo.ListByUser(ctx, 5, domain.PageQuery{PageNo: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, lessons, 2)
	assert.Equal(t, int64(3), lessons[0].CourseID)
	assert.Equal(t, int64(1), lessons[1].CourseID)

	lessons, total, err = repo.ListByUser(ctx, 5, domain.PageQuery{PageNo: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, lessons, 1)
	assert.Equal(t, int64(2), lessons[0].CourseID)

	lessons, total, err = repo.ListByUser(ctx, 5, domain.PageQuery{PageNo: 5, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Empty(t, lessons)
}

func TestLessonRepository_ListByUser_HugePageNo(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewLessonRepository(db)

	seed(t, db,
		domain.Lesson{UserID: 5, CourseID: 1},
		domain.Lesson{UserID: 5, CourseID: 2},
	)

	for _, pageNo := range []int{math.MaxInt64 / 10, math.MaxInt} {
		lessons, total, err := repo.ListByUser(ctx, 5, domain.PageQuery{PageNo: pageNo, PageSize: 20})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Empty(t, lessons)
	}
}

func TestLessonRepository_CountByCourseExcludingStatus(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewLessonRepository(db)

	seed(t, db,
		domain.Lesson{UserID: 1, CourseID: 3, Status: domain.LessonExpired},
		domain.Lesson{UserID: 2, CourseID: 3, Status: domain.LessonLearning},
		domain.Lesson{UserID: 3, CourseID: 3},
		domain.Lesson{UserID: 3, CourseID: 4},
	)

	count, err := repo.CountByCourseExcludingStatus(ctx, 3, domain.LessonExpired)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestLessonRepository_Delete(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewLessonRepository(db)

	seed(t, db,
		domain.Lesson{UserID: 1, CourseID: 1},
		domain.Lesson{UserID: 1, CourseID: 2},
		domain.Lesson{UserID: 1, CourseID: 3},
		domain.Lesson{UserID: 2, CourseID: 1},
	)

	require.NoError(t, repo.DeleteByUserAndCourse(ctx, 1, 1))
	require.NoError(t, repo.DeleteByUserAndCourse(ctx, 1, 1))

	require.NoError(t, repo.DeleteByUserAndCourses(ctx, 1, []int64{2, 3, 99}))
	require.NoError(t, repo.DeleteByUserAndCourses(ctx, 1, []int64{2, 3, 99}))

	count, err := repo.CountByUser(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = repo.CountByUser(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestLessonRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewLessonRepository(db)

	seeded := seed(t, db, domain.Lesson{UserID: 1, CourseID: 1})

	require.NoError(t, repo.UpdateStatus(ctx, seeded[0].ID, domain.LessonFinished))

	lesson, err := repo.FindByUserAndCourse(ctx, 1, 1)
	require.NoError(t, err)
	require.NotNil(t, lesson)
	assert.Equal(t, domain.LessonFinished, lesson.Status)
}

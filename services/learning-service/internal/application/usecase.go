package application

import (
	"context"

	"learningplatform/services/learning-service/internal/domain"
)

// LessonRepository is the lesson store the use cases read and write.
type LessonRepository interface {
	InsertBatch(ctx context.Context, lessons []domain.Lesson) error
	FindByUserAndCourse(ctx context.Context, userID, courseID int64) (*domain.Lesson, error)
	FindLatestLearning(ctx context.Context, userID int64) (*domain.Lesson, error)
	ListByUser(ctx context.Context, userID int64, q domain.PageQuery) ([]domain.Lesson, int64, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)
	CountByCourseExcludingStatus(ctx context.Context, courseID int64, excluded domain.LessonStatus) (int64, error)
	DeleteByUserAndCourse(ctx context.Context, userID, courseID int64) error
	DeleteByUserAndCourses(ctx context.Context, userID int64, courseIDs []int64) error
}

// CourseGateway reaches the course and catalogue services.
type CourseGateway interface {
	GetSimpleInfoList(ctx context.Context, courseIDs []int64) ([]domain.CourseSimpleInfo, error)
	GetCourseInfoByID(ctx context.Context, courseID int64, withCatalogue, withTeachers bool) (*domain.CourseFullInfo, error)
	BatchQueryCatalogue(ctx context.Context, sectionIDs []int64) ([]domain.CataSimpleInfo, error)
}

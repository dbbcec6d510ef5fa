package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"

	"learningplatform/services/learning-service/internal/domain"
)

type RepositoryMock struct {
	mock.Mock
}

func (m *RepositoryMock) InsertBatch(ctx context.Context, lessons []domain.Lesson) error {
	return m.Called(ctx, lessons).Error(0)
}

func (m *RepositoryMock) FindByUserAndCourse(ctx context.Context, userID, courseID int64) (*domain.Lesson, error) {
	args := m.Called(ctx, userID, courseID)
	return args.Get(0).(*domain.Lesson), args.Error(1)
}

func (m *RepositoryMock) FindLatestLearning(ctx context.Context, userID int64) (*domain.Lesson, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(*domain.Lesson), args.Error(1)
}

func (m *RepositoryMock) ListByUser(ctx context.Context, userID int64, q domain.PageQuery) ([]domain.Lesson, int64, error) {
	args := m.Called(ctx, userID, q)
	return args.Get(0).([]domain.Lesson), args.Get(1).(int64), args.Error(2)
}

func (m *RepositoryMock) CountByUser(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *RepositoryMock) CountByCourseExcludingStatus(ctx context.Context, courseID int64, excluded domain.LessonStatus) (int64, error) {
	args := m.Called(ctx, courseID, excluded)
	return args.Get(0).(int64), args.Error(1)
}

func (m *RepositoryMock) DeleteByUserAndCourse(ctx context.Context, userID, courseID int64) error {
	return m.Called(ctx, userID, courseID).Error(0)
}

func (m *RepositoryMock) DeleteByUserAndCourses(ctx context.Context, userID int64, courseIDs []int64) error {
	return m.Called(ctx, userID, courseIDs).Error(0)
}

type CourseGatewayMock struct {
	mock.Mock
}

func (m *CourseGatewayMock) GetSimpleInfoList(ctx context.Context, courseIDs []int64) ([]domain.CourseSimpleInfo, error) {
	args := m.Called(ctx, courseIDs)
	return args.Get(0).([]domain.CourseSimpleInfo), args.Error(1)
}

func (m *CourseGatewayMock) GetCourseInfoByID(ctx context.Context, courseID int64, withCatalogue, withTeachers bool) (*domain.CourseFullInfo, error) {
	args := m.Called(ctx, courseID, withCatalogue, withTeachers)
	return args.Get(0).(*domain.CourseFullInfo), args.Error(1)
}

func (m *CourseGatewayMock) BatchQueryCatalogue(ctx context.Context, sectionIDs []int64) ([]domain.CataSimpleInfo, error) {
	args := m.Called(ctx, sectionIDs)
	return args.Get(0).([]domain.CataSimpleInfo), args.Error(1)
}

package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/juju/errors"

	"learningplatform/services/learning-service/internal/domain"
	"learningplatform/services/learning-service/internal/infrastructure/gateway"
	"learningplatform/services/learning-service/internal/middleware"
	"learningplatform/services/learning-service/internal/platform/logger"
)

// LessonService is the read and invalidation side of the lesson use case.
type LessonService interface {
	QueryMyLessons(ctx context.Context, userID int64, q domain.PageQuery) (domain.Page[domain.LessonView], error)
	QueryNowLearning(ctx context.Context, userID int64) (*domain.LessonView, error)
	QueryCourseStatus(ctx context.Context, userID, courseID int64) (*domain.LessonView, error)
	RemoveInvalidCourses(ctx context.Context, userID, courseID int64) error
	QueryCourseValid(ctx context.Context, userID, courseID int64) (*int64, error)
	CountLearningLessonByCourse(ctx context.Context, courseID int64) (int64, error)
}

type LessonHandler struct {
	lessons LessonService
	log     *logger.Logger
}

func NewLessonHandler(lessons LessonService, log *logger.Logger) *LessonHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &LessonHandler{lessons: lessons, log: log.With("component", "LessonHandler")}
}

// GET /lessons/page
func (h *LessonHandler) QueryMyLessons(c *gin.Context) {
	var q domain.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := h.lessons.QueryMyLessons(c, middleware.CurrentUser(c), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GET /lessons/now
func (h *LessonHandler) QueryNowLearning(c *gin.Context) {
	view, err := h.lessons.QueryNowLearning(c, middleware.CurrentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GET /lessons/:courseId
func (h *LessonHandler) QueryCourseStatus(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}
	view, err := h.lessons.QueryCourseStatus(c, middleware.CurrentUser(c), courseID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// DELETE /lessons/:courseId
func (h *LessonHandler) DeleteInvalidCourse(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}
	if err := h.lessons.RemoveInvalidCourses(c, middleware.CurrentUser(c), courseID); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// GET /lessons/:courseId/valid
func (h *LessonHandler) QueryCourseValid(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}
	lessonID, err := h.lessons.QueryCourseValid(c, middleware.CurrentUser(c), courseID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, lessonID)
}

// GET /lessons/:courseId/count
func (h *LessonHandler) CountLearningLessonByCourse(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}
	count, err := h.lessons.CountLearningLessonByCourse(c, courseID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, count)
}

func courseIDParam(c *gin.Context) (int64, bool) {
	courseID, err := strconv.ParseInt(c.Param("courseId"), 10, 64)
	if err != nil || courseID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course id"})
		return 0, false
	}
	return courseID, true
}

func (h *LessonHandler) fail(c *gin.Context, err error) {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		h.log.Warn("course service unavailable", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "course service unavailable"})
		return
	}
	h.log.Error("request failed", "path", c.FullPath(), "error", errors.ErrorStack(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"learningplatform/services/learning-service/internal/middleware"
)

const serviceName = "learning-service"

// NewRouter mounts the lessons API. limiter may be nil.
func NewRouter(lessonHandler *LessonHandler, verifier middleware.TokenVerifier, limiter *middleware.RateLimiter, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), otelgin.Middleware(serviceName))

	config := cors.DefaultConfig()
	if len(allowedOrigins) > 0 {
		config.AllowOrigins = allowedOrigins
		config.AllowCredentials = true
	} else {
		config.AllowAllOrigins = true
	}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.AllowMethods = []string{"GET", "DELETE", "OPTIONS"}
	r.Use(cors.New(config))

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	lessons := r.Group("/lessons")
	lessons.Use(middleware.AuthMiddleware(verifier))
	{
		lessons.GET("/page", lessonHandler.QueryMyLessons)
		lessons.GET("/now", lessonHandler.QueryNowLearning)
		lessons.GET("/:courseId", lessonHandler.QueryCourseStatus)
		lessons.GET("/:courseId/valid", lessonHandler.QueryCourseValid)
		lessons.GET("/:courseId/count", lessonHandler.CountLearningLessonByCourse)

		remove := []gin.HandlerFunc{lessonHandler.DeleteInvalidCourse}
		if limiter != nil {
			remove = append([]gin.HandlerFunc{limiter.Limit("lesson_delete", 30, time.Minute)}, remove...)
		}
		lessons.DELETE("/:courseId", remove...)
	}

	return r
}

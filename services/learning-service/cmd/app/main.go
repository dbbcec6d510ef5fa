package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tilinna/clock"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"learningplatform/services/learning-service/config"
	"learningplatform/services/learning-service/internal/application"
	"learningplatform/services/learning-service/internal/application/usecase"
	"learningplatform/services/learning-service/internal/domain"
	"learningplatform/services/learning-service/internal/infrastructure/cache"
	"learningplatform/services/learning-service/internal/infrastructure/gateway"
	"learningplatform/services/learning-service/internal/infrastructure/mq"
	"learningplatform/services/learning-service/internal/infrastructure/repository"
	"learningplatform/services/learning-service/internal/infrastructure/security"
	"learningplatform/services/learning-service/internal/middleware"
	"learningplatform/services/learning-service/internal/platform/logger"
	"learningplatform/services/learning-service/internal/platform/tracing"
	handlers "learningplatform/services/learning-service/internal/transport/http"
	mq_listener "learningplatform/services/learning-service/internal/transport/mq"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 1. Config
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Logger
	logg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Tracing
	shutdownTracing, err := tracing.Init(ctx, logg, tracing.Config{
		Enabled:     cfg.OtelEnabled,
		ServiceName: "learning-service",
		Environment: cfg.LogMode,
		Endpoint:    cfg.OtelEndpoint,
	})
	if err != nil {
		logg.Fatal("Failed to init tracing", "error", err)
	}

	// 4. Database
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		logg.Fatal("Failed to connect to DB", "error", err)
	}
	logg.Info("Running migrations...")
	if err := db.AutoMigrate(&domain.Lesson{}); err != nil {
		logg.Fatal("Failed to migrate DB", "error", err)
	}

	// 5. Redis
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logg.Fatal("Failed to connect to Redis", "error", err)
	}
	defer rdb.Close()

	// 6. Course service client
	courseClient, conn, err := gateway.NewCourseClient(cfg.CourseSvcUrl)
	if err != nil {
		logg.Fatal("Failed to connect to Course Service", "error", err)
	}
	defer conn.Close()
	logg.Info("Course Service client ready", "target", cfg.CourseSvcUrl)

	var courses application.CourseGateway = courseClient
	if cfg.CourseCacheTTL > 0 {
		courses = cache.NewCourseGateway(courseClient, rdb, cfg.CourseCacheTTL, logg)
	}

	// 7. Layers
	lessonRepo := repository.NewLessonRepository(db)
	lessons := usecase.NewLessonUseCase(clock.Realtime(), lessonRepo, courses, logg)

	// 8. Order events
	subscriber := mq.NewSubscriber(rdb, logg, mq.Options{
		Consumer:  cfg.StreamConsumer,
		Block:     cfg.StreamBlock,
		ClaimIdle: cfg.StreamClaim,
	})
	mq_listener.NewLessonChangeListener(lessons, logg).Register(subscriber)

	// 9. Router
	router := handlers.NewRouter(
		handlers.NewLessonHandler(lessons, logg),
		security.NewTokenVerifier(cfg.JWTAccessKey),
		middleware.NewRateLimiter(rdb),
		cfg.Origins(),
	)
	srv := &http.Server{
		Addr:              cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// 10. Run until a signal arrives or a component fails
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logg.Info("Learning Service running", "addr", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return subscriber.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logg.Warn("HTTP shutdown", "error", err)
		}
		return shutdownTracing(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error("Learning Service stopped", "error", err)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/edunest/tutorhub-api/api/swagger"
	"github.com/edunest/tutorhub-api/internal/handler"
	"github.com/edunest/tutorhub-api/internal/middleware"
	"github.com/edunest/tutorhub-api/internal/repository"
	"github.com/edunest/tutorhub-api/internal/service"
	"github.com/edunest/tutorhub-api/pkg/cache"
	"github.com/edunest/tutorhub-api/pkg/config"
	"github.com/edunest/tutorhub-api/pkg/database"
	"github.com/edunest/tutorhub-api/pkg/logger"
	corsmiddleware "github.com/edunest/tutorhub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edunest/tutorhub-api/pkg/middleware/requestid"
	"github.com/edunest/tutorhub-api/pkg/storage"
)

// @title TutorHub API
// @version 0.1.0
// @description Scheduling and status engine for the tutoring platform
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, dashboard cache disabled", "error", err)
		redisClient = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Repositories.
	tutorRepo := repository.NewTutorRepository(db)
	programRepo := repository.NewProgramRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	meetingRepo := repository.NewMeetingRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	attemptRepo := repository.NewQuizAttemptRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close()

	// Services.
	metricsSvc := service.NewMetricsService(nil)
	tutorSvc := service.NewTutorService(tutorRepo, nil, logr)
	programSvc := service.NewProgramService(programRepo, nil, logr)
	sectionSvc := service.NewSectionService(sectionRepo, programRepo, metricsSvc, cfg.Scheduling.SuggestionThresholdPct, nil, logr)
	meetingSvc := service.NewMeetingService(meetingRepo, tutorRepo, sectionRepo, metricsSvc, nil, logr, nil)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, sectionRepo, nil, logr, nil)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, submissionRepo, nil, logr, nil)
	quizSvc := service.NewQuizService(quizRepo, attemptRepo, nil, logr, nil)
	dashboardSvc := service.NewDashboardService(statsRepo, cacheRepo, cfg.Dashboard.CacheTTL, logr, nil)

	var reportSvc *service.ReportService
	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init report storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		reportSvc = service.NewReportService(reportRepo, reportRepo, store, signer, metricsSvc, service.ReportServiceConfig{
			WorkerConcurrency: cfg.Reports.WorkerConcurrency,
			WorkerRetries:     cfg.Reports.WorkerRetries,
			DownloadBasePath:  cfg.APIPrefix + "/export",
		}, nil, logr, nil)
		reportSvc.Start(ctx)
		defer reportSvc.Stop()
	}

	// Handlers.
	tutorHandler := handler.NewTutorHandler(tutorSvc)
	programHandler := handler.NewProgramHandler(programSvc)
	sectionHandler := handler.NewSectionHandler(sectionSvc)
	meetingHandler := handler.NewMeetingHandler(meetingSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	quizHandler := handler.NewQuizHandler(quizSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		tutors := api.Group("/tutors")
		tutors.GET("", tutorHandler.List)
		tutors.POST("", tutorHandler.Create)
		tutors.GET("/:id", tutorHandler.Get)
		tutors.GET("/:id/availability", tutorHandler.Availability)
		tutors.PUT("/:id/availability", tutorHandler.SetAvailability)
		tutors.GET("/:id/meetings", meetingHandler.TutorSchedule)

		programs := api.Group("/programs")
		programs.GET("", programHandler.List)
		programs.POST("", programHandler.Create)
		programs.GET("/:id", programHandler.Get)
		programs.PUT("/:id", programHandler.Update)

		sections := api.Group("/sections")
		sections.GET("", sectionHandler.List)
		sections.POST("", sectionHandler.Create)
		sections.GET("/suggestions", sectionHandler.Suggestions)
		sections.GET("/:id", sectionHandler.Get)
		sections.POST("/:id/archive", sectionHandler.Archive)
		sections.GET("/:id/assignments", assignmentHandler.ListForStudent)
		sections.GET("/:id/assignments/stats", assignmentHandler.Stats)
		sections.GET("/:id/quizzes", quizHandler.ListForStudent)

		meetings := api.Group("/meetings")
		meetings.GET("", meetingHandler.List)
		meetings.POST("", meetingHandler.Create)
		meetings.POST("/feasibility", meetingHandler.Feasibility)
		meetings.PUT("/:id", meetingHandler.Update)
		meetings.POST("/:id/cancel", meetingHandler.Cancel)

		enrollments := api.Group("/enrollments")
		enrollments.GET("", enrollmentHandler.List)
		enrollments.POST("", enrollmentHandler.Create)
		enrollments.GET("/:id", enrollmentHandler.Get)
		enrollments.POST("/:id/withdraw", enrollmentHandler.Withdraw)

		assignments := api.Group("/assignments")
		assignments.POST("", assignmentHandler.Create)
		assignments.POST("/:id/publish", assignmentHandler.Publish)
		assignments.POST("/:id/submissions", assignmentHandler.Submit)

		api.POST("/submissions/:id/grade", assignmentHandler.Grade)

		quizzes := api.Group("/quizzes")
		quizzes.POST("", quizHandler.Create)
		quizzes.POST("/:id/attempts", quizHandler.StartAttempt)
		quizzes.POST("/:id/attempts/submit", quizHandler.SubmitAttempt)

		if cfg.Dashboard.Enabled {
			api.GET("/dashboard/overview", dashboardHandler.Overview)
		}

		if reportSvc != nil {
			reportHandler := handler.NewReportHandler(reportSvc)
			reports := api.Group("/reports")
			reports.POST("/generate", reportHandler.Generate)
			reports.GET("", reportHandler.List)
			reports.GET("/:id", reportHandler.Status)
			api.GET("/export/:token", reportHandler.Download)
		}
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

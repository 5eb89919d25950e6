package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/campus-timetable-api/api/swagger"
	"github.com/noah-isme/campus-timetable-api/internal/engine"
	"github.com/noah-isme/campus-timetable-api/internal/handler"
	"github.com/noah-isme/campus-timetable-api/internal/middleware"
	"github.com/noah-isme/campus-timetable-api/internal/repository"
	"github.com/noah-isme/campus-timetable-api/internal/service"
	"github.com/noah-isme/campus-timetable-api/pkg/cache"
	"github.com/noah-isme/campus-timetable-api/pkg/config"
	"github.com/noah-isme/campus-timetable-api/pkg/database"
	"github.com/noah-isme/campus-timetable-api/pkg/jobs"
	"github.com/noah-isme/campus-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-timetable-api/pkg/middleware/requestid"
	"github.com/noah-isme/campus-timetable-api/pkg/storage"
)

// @title Campus Timetable API
// @version 0.1.0
// @description Weekly class-schedule generation and constraint validation
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	var runStore service.RunStore
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		defer client.Close() //nolint:errcheck
		runStore = service.NewRedisRunStore(client, cfg.Planner.ProposalTTL)
	}

	subjectRepo := repository.NewSubjectRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	cohortRepo := repository.NewCohortRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	plannerSvc := service.NewPlannerService(
		subjectRepo,
		teacherRepo,
		roomRepo,
		cohortRepo,
		sessionRepo,
		db,
		engine.New(logr),
		runStore,
		metricsSvc,
		validate,
		logr,
		cfg.Planner,
	)

	runner := jobs.NewRunner(func(ctx context.Context, job jobs.RunJob) error {
		return plannerSvc.ExecuteRun(ctx, job.RunID)
	}, jobs.RunnerConfig{
		Workers:    cfg.Planner.AsyncWorkers,
		MaxRetries: cfg.Planner.AsyncRetries,
		Logger:     logr,
	})
	runner.Start(context.Background())
	defer runner.Stop()

	referenceSvc := service.NewReferenceService(subjectRepo, teacherRepo, roomRepo, cohortRepo, sessionRepo, logr)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		files, err := storage.NewExportDir(cfg.Exports.Dir)
		if err != nil {
			logr.Sugar().Fatalw("failed to prepare exports directory", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SigningKey, cfg.Exports.DownloadTTL)
		exportSvc = service.NewExportService(sessionRepo, cohortRepo, teacherRepo, roomRepo, files, signer, logr, cfg.Exports, cfg.Planner)

		go func() {
			ticker := time.NewTicker(6 * time.Hour)
			defer ticker.Stop()
			for range ticker.C {
				exportSvc.Cleanup()
			}
		}()
	}

	plannerHandler := handler.NewPlannerHandler(plannerSvc, runner)
	referenceHandler := handler.NewReferenceHandler(referenceSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
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
		api.POST("/planning-runs", plannerHandler.Generate)
		api.GET("/planning-runs/:id", plannerHandler.GetRun)
		api.POST("/planning-runs/:id/commit", plannerHandler.Commit)
		api.POST("/schedules/validate", plannerHandler.Validate)

		api.GET("/subjects", referenceHandler.ListSubjects)
		api.GET("/teachers", referenceHandler.ListTeachers)
		api.GET("/rooms", referenceHandler.ListRooms)
		api.GET("/cohorts", referenceHandler.ListCohorts)
		api.GET("/sessions", referenceHandler.ListSessions)

		if exportSvc != nil {
			exportHandler := handler.NewExportHandler(exportSvc)
			api.POST("/exports", exportHandler.Export)
			api.GET("/exports/download", exportHandler.Download)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/schedcore/timetable-api/api/swagger"
	"github.com/schedcore/timetable-api/internal/handler"
	"github.com/schedcore/timetable-api/internal/middleware"
	"github.com/schedcore/timetable-api/internal/repository"
	"github.com/schedcore/timetable-api/internal/semester"
	"github.com/schedcore/timetable-api/internal/service"
	"github.com/schedcore/timetable-api/pkg/cache"
	"github.com/schedcore/timetable-api/pkg/config"
	"github.com/schedcore/timetable-api/pkg/database"
	"github.com/schedcore/timetable-api/pkg/logger"
	corsmiddleware "github.com/schedcore/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/schedcore/timetable-api/pkg/middleware/requestid"
)

// @title Timetable API
// @version 1.0.0
// @description Recurring two-week timetable with lazy materialization and rescheduling
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

	calendar, err := semester.NewCalendar(cfg.Semester.StartDate, cfg.Semester.EndDate)
	if err != nil {
		logr.Sugar().Fatalw("invalid semester configuration", "error", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	cacheSvc := service.NewCacheService(nil, metricsSvc, cfg.Schedule.CacheTTL, logr, false)
	if cfg.Schedule.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			// The schedule cache is an accelerator, not a dependency.
			logr.Sugar().Warnw("redis unavailable, schedule cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Schedule.CacheTTL, logr, true)
		}
	}

	validate := validator.New()

	templateRepo := repository.NewTemplateRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	optionRepo := repository.NewOptionRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	professorRepo := repository.NewProfessorRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	courseRepo := repository.NewCourseRepository(db)

	schedulerSvc := service.NewSchedulerService(templateRepo, sessionRepo, roomRepo, professorRepo, calendar, cacheSvc, metricsSvc, logr)
	rescheduleSvc := service.NewRescheduleService(templateRepo, sessionRepo, optionRepo, professorRepo, db, calendar, cacheSvc, metricsSvc, validate, logr)
	catalogSvc := service.NewCatalogService(roomRepo, professorRepo, groupRepo, courseRepo, templateRepo, validate, logr)
	exportSvc := service.NewExportService(schedulerSvc, nil, nil, logr)

	scheduleHandler := handler.NewScheduleHandler(schedulerSvc)
	sessionHandler := handler.NewSessionHandler(rescheduleSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

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
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/schedule", scheduleHandler.Range)
		api.GET("/schedule/day/:date", scheduleHandler.Day)
		api.GET("/schedule/week/:week", scheduleHandler.Week)
		api.GET("/schedule/month/:month", scheduleHandler.Month)

		api.GET("/sessions/:id/options", sessionHandler.Options)
		api.POST("/sessions/:id/reschedule", sessionHandler.Reschedule)
		api.POST("/sessions/:id/substitute", sessionHandler.Substitute)

		api.GET("/rooms", catalogHandler.ListRooms)
		api.PATCH("/rooms/:id", catalogHandler.RenameRoom)
		api.GET("/rooms/available", scheduleHandler.AvailableRooms)
		api.GET("/professors", catalogHandler.ListProfessors)
		api.PATCH("/professors/:id", catalogHandler.RenameProfessor)
		api.GET("/professors/available", scheduleHandler.AvailableProfessors)
		api.GET("/groups", catalogHandler.ListGroups)
		api.PATCH("/groups/:id", catalogHandler.RenameGroup)
		api.GET("/courses", catalogHandler.ListCourses)
		api.PATCH("/courses/:id", catalogHandler.RenameCourse)
		api.GET("/templates", catalogHandler.ListTemplates)

		if cfg.Exports.Enabled {
			api.GET("/export/schedule", exportHandler.Schedule)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting",
		"addr", addr,
		"env", cfg.Env,
		"semester_start", cfg.Semester.StartDate.Format(time.DateOnly),
		"semester_end", cfg.Semester.EndDate.Format(time.DateOnly),
	)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

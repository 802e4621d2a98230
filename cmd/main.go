package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lshigami/Markhor/config"
	"github.com/lshigami/Markhor/database"
	studentctrl "github.com/lshigami/Markhor/internal/controller/student"
	teacherctrl "github.com/lshigami/Markhor/internal/controller/teacher"
	"github.com/lshigami/Markhor/internal/logger"
	"github.com/lshigami/Markhor/internal/model"
	"github.com/lshigami/Markhor/internal/queue"
	"github.com/lshigami/Markhor/internal/repository"
	"github.com/lshigami/Markhor/internal/service"
	"github.com/lshigami/Markhor/internal/worker"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func main() {
	logger.Init()

	app := fx.New(
		// Core application components
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			queue.NewRedisClient,
			NewGinEngine,
			func(db *gorm.DB) repository.TxManager { return db },
		),

		// Repositories layer
		fx.Provide(
			repository.NewUserRepository,
			repository.NewAssignmentRepository,
			repository.NewRubricRepository,
			repository.NewSubmissionRepository,
			repository.NewGradeRepository,
			repository.NewSnapshotRepository,
			repository.NewAppealRepository,
			repository.NewNotificationRepository,
			repository.NewAuditLogRepository,
		),

		// Services layer
		fx.Provide(
			service.NewObjectStorageService,
			service.NewGeminiLLMService,
			service.NewGeminiExtractionProvider,
			service.NewAnonymizationService,
			service.NewAuditLogService,
			service.NewSendgridChannel,
			service.NewNotificationService,
			service.NewScoringService,
			service.NewSubmissionPipelineService,
			service.NewReviewService,
			service.NewPublishService,
			service.NewAppealService,
		),

		// Background processing
		fx.Provide(
			queue.NewProducer,
			func(p *queue.Producer) service.SubmissionEnqueuer { return p },
			func(cfg *config.Config) *worker.Pool { return worker.NewPool(cfg.Pipeline.Workers) },
			queue.NewConsumer,
		),

		// API controllers layer
		fx.Provide(
			studentctrl.NewSubmissionController,
			teacherctrl.NewGradingController,
		),

		fx.Invoke(AutoMigrateDB),
		fx.Invoke(RegisterRoutesAndStartServer),
		fx.Invoke(StartBackgroundWorkers),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewGinEngine() *gin.Engine {
	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	return r
}

// RegisterRoutesAndStartServer configures API routes and manages the
// HTTP server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	submissionCtrl *studentctrl.SubmissionController,
	gradingCtrl *teacherctrl.GradingController,
) {
	api := router.Group("/api/v1")
	{
		submissions := api.Group("/submissions")
		submissions.POST("", submissionCtrl.CreateSubmission)
		submissions.GET("/:id", submissionCtrl.GetSubmission)
		submissions.GET("/:id/result", submissionCtrl.GetResult)
		submissions.GET("/:id/snapshots", submissionCtrl.GetSnapshots)
		submissions.POST("/:id/appeals", submissionCtrl.CreateAppeal)
		submissions.GET("/:id/appeals", submissionCtrl.GetAppeals)

		api.GET("/students/:student_id/submissions", submissionCtrl.GetMySubmissions)
		api.GET("/users/:user_id/notifications", submissionCtrl.GetMyNotifications)
	}

	teacherAPI := router.Group("/api/v1/teacher")
	{
		teacherAPI.GET("/assignments/:assignment_id/submissions", gradingCtrl.GetSubmissionsByAssignment)
		teacherAPI.GET("/submissions/:id/grade", gradingCtrl.GetGrade)
		teacherAPI.PUT("/submissions/:id/review", gradingCtrl.ReviewGrade)
		teacherAPI.POST("/submissions/:id/publish", gradingCtrl.PublishGrade)
		teacherAPI.GET("/appeals/pending", gradingCtrl.GetPendingAppeals)
		teacherAPI.PUT("/appeals/:id/resolve", gradingCtrl.ResolveAppeal)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Markhor grading API server starting on port %s", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

// StartBackgroundWorkers runs the worker pool, the submission queue
// consumer and the notification retry sweep for the process lifetime.
func StartBackgroundWorkers(
	lc fx.Lifecycle,
	pool *worker.Pool,
	consumer *queue.Consumer,
	notifications service.NotificationService,
) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			pool.Start(ctx)
			go consumer.Run(ctx)
			go notifications.RunSweep(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			pool.Stop()
			return nil
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.User{},
		&model.Assignment{},
		&model.Rubric{},
		&model.Submission{},
		&model.Grade{},
		&model.GradeSnapshot{},
		&model.Appeal{},
		&model.NotificationAttempt{},
		&model.AuditLog{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}

package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"procurement-backend/internal/enhancements"
	"procurement-backend/internal/feedback"
	"procurement-backend/internal/insights"
	"procurement-backend/internal/queue"
	"procurement-backend/internal/reasoning"
	openai "procurement-backend/internal/reasoning/openai"
	"procurement-backend/internal/shared/config"
	"procurement-backend/internal/shared/server"
	"procurement-backend/internal/shared/storage/db"
	"procurement-backend/internal/shared/storage/object"
	localstore "procurement-backend/internal/shared/storage/object/local"
	s3store "procurement-backend/internal/shared/storage/object/s3"
	"procurement-backend/internal/workerproc"
)

// App holds shared dependencies for the API server and the worker.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client

	Source       insights.Source
	Reasoner     reasoning.Client
	JobTracker   *enhancements.Tracker
	BulkService  *enhancements.BulkService
	DeepService  *enhancements.DeepService
	FeedbackRepo feedback.Repo
	FeedbackSvc  *feedback.Service
	Archiver     *workerproc.Archiver

	InsightHandler     *insights.Handler
	EnhancementHandler *enhancements.Handler
	FeedbackHandler    *feedback.Handler
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:             app.Config,
		InsightHandler:     app.InsightHandler,
		EnhancementHandler: app.EnhancementHandler,
		FeedbackHandler:    app.FeedbackHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context) (queue.Client, error) {
	if strings.TrimSpace(os.Getenv("PI_SQS_QUEUE_URL")) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx)
}

func buildServices(app *App) error {
	cfg := app.Config

	var source insights.Source
	if strings.TrimSpace(cfg.AnalyticsAPIURL) != "" {
		httpSource, err := insights.NewHTTPSource(cfg.AnalyticsAPIURL, cfg.AnalyticsAPIKey)
		if err != nil {
			return err
		}
		source = httpSource
	} else {
		source = insights.NewMemorySource()
		log.Printf("bootstrap: ANALYTICS_API_URL empty; insight source starts empty")
	}

	var reasoner reasoning.Client
	if cfg.ReasoningProvider == "openai" {
		apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
		if apiKey != "" {
			client, err := openai.NewClient(apiKey, cfg.ReasoningModel)
			if err != nil {
				return err
			}
			reasoner = client
		} else {
			log.Printf("bootstrap: OPENAI_API_KEY empty; enhancement endpoints will refuse requests")
		}
	}

	var feedbackRepo feedback.Repo
	if app.DB != nil {
		feedbackRepo = &feedback.PGRepo{DB: app.DB}
	} else {
		feedbackRepo = feedback.NewMemoryRepo()
	}

	tracker := enhancements.NewTracker()

	app.Source = source
	app.Reasoner = reasoner
	app.JobTracker = tracker
	app.BulkService = enhancements.NewBulkService(tracker, reasoner, app.Store, app.Queue, cfg.InsightSetVersion)
	app.DeepService = enhancements.NewDeepService(tracker, reasoner, app.Store, app.Queue)
	app.FeedbackRepo = feedbackRepo
	app.FeedbackSvc = feedback.NewService(feedbackRepo)
	app.Archiver = workerproc.NewArchiver(app.Store)

	app.InsightHandler = insights.NewHandler(source)
	app.EnhancementHandler = enhancements.NewHandler(tracker, app.BulkService, app.DeepService, source, cfg.PollLimitWindow)
	app.FeedbackHandler = feedback.NewHandler(app.FeedbackSvc, source)

	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

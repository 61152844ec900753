package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"tat-backend/internal/analyses"
	"tat-backend/internal/llm"
	openai "tat-backend/internal/llm/openai"
	"tat-backend/internal/participants"
	"tat-backend/internal/reports"
	"tat-backend/internal/services/health"
	"tat-backend/internal/sessions"
	"tat-backend/internal/shared/config"
	"tat-backend/internal/shared/server"
	"tat-backend/internal/shared/storage/db"
)

// App holds shared dependencies built once at startup.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB

	ParticipantsRepo participants.Repo
	SessionsRepo     sessions.Repo
	AnalysesRepo     analyses.Repo

	ParticipantsService *participants.Service
	SessionsService     *sessions.Service
	AnalysesService     *analyses.Service
	ReportsService      *reports.Service
	Sweeper             *sessions.Sweeper
}

// Build prepares shared dependencies and the HTTP router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, DB: sqlDB}
	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:             cfg,
		Health:             health.NewService(sqlDB),
		ParticipantHandler: participants.NewHandler(app.ParticipantsService, app.SessionsService),
		SessionHandler:     sessions.NewHandler(app.SessionsService),
		AnalysisHandler:    analyses.NewHandler(app.AnalysesService),
		ReportHandler:      reports.NewHandler(app.ReportsService),
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

func buildServices(app *App) error {
	cfg := app.Config

	if app.DB != nil {
		app.ParticipantsRepo = &participants.PGRepo{DB: app.DB}
		app.SessionsRepo = &sessions.PGRepo{DB: app.DB}
		app.AnalysesRepo = &analyses.PGRepo{DB: app.DB}
	} else {
		app.ParticipantsRepo = participants.NewMemoryRepo()
		app.SessionsRepo = sessions.NewMemoryRepo()
		app.AnalysesRepo = analyses.NewMemoryRepo()
	}

	llmClient, err := buildLLM(cfg)
	if err != nil {
		return err
	}

	app.ParticipantsService = &participants.Service{Repo: app.ParticipantsRepo}
	app.SessionsService = &sessions.Service{
		Repo:          app.SessionsRepo,
		TotalImages:   cfg.TotalImages,
		MinStoryChars: cfg.MinStoryChars,
	}
	app.AnalysesService = &analyses.Service{
		Repo:         app.AnalysesRepo,
		Sessions:     app.SessionsRepo,
		Participants: app.ParticipantsRepo,
		LLM:          llmClient,
		Provider:     cfg.LLMProvider,
		Model:        cfg.LLMModel,
		Language:     cfg.AnalysisLanguage,
		Retry: analyses.RetryPolicy{
			MaxAttempts: cfg.LLMMaxAttempts,
			BaseDelay:   cfg.LLMRetryBaseDelay,
		},
		DegradedConfidence: cfg.DegradedConfidence,
	}
	app.ReportsService = &reports.Service{
		Sessions:     app.SessionsRepo,
		Participants: app.ParticipantsRepo,
		Analyses:     app.AnalysesRepo,
	}
	app.Sweeper = &sessions.Sweeper{
		Repo:     app.SessionsRepo,
		Timeout:  cfg.SessionTimeout,
		Interval: cfg.SweepInterval,
	}
	return nil
}

func buildLLM(cfg config.Config) (llm.Client, error) {
	if cfg.LLMProvider == "openai" && cfg.OpenAIAPIKey != "" {
		return openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel, cfg.LLMTimeout)
	}
	log.Printf("bootstrap: no LLM provider configured; analysis requests will fail until one is set")
	return llm.PlaceholderClient{}, nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

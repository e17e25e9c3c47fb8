package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/228Labs/negotiator/negotiator/config"
	"github.com/228Labs/negotiator/negotiator/controllers"
	"github.com/228Labs/negotiator/negotiator/routes"
	"github.com/228Labs/negotiator/negotiator/services/llm"
	"github.com/228Labs/negotiator/negotiator/services/negotiation"
	"github.com/228Labs/negotiator/negotiator/services/prompts"
	"github.com/228Labs/negotiator/negotiator/services/recording"
	"github.com/228Labs/negotiator/negotiator/sources/psql"
	"github.com/228Labs/negotiator/negotiator/sources/psql/dao"
	"github.com/228Labs/negotiator/negotiator/utils/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func main() {
	logging.InitLogger()
	cfg := config.LoadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := psql.NewDatabase(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("database connection error", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	persona, err := prompts.LoadPersona(cfg.PersonaFile)
	if err != nil {
		logging.ErrorLogger.Error("persona load error", zap.Error(err))
		os.Exit(1)
	}

	negotiationDAO := dao.NewNegotiationDAO(db.DB)
	messageDAO := dao.NewMessageDAO(db.DB)
	negotiationService := negotiation.NewService(db.DB, negotiationDAO, messageDAO, persona)

	var provider prompts.Provider = prompts.NewTemplateProvider(persona)
	if cfg.PromptsBaseURL != "" {
		provider = prompts.NewRegistryProvider(cfg.PromptsBaseURL, cfg.PromptsAPIKey)
	}

	var recorder recording.Recorder = recording.NopRecorder{}
	if cfg.RecorderBaseURL != "" {
		recorder = recording.NewHTTPRecorder(cfg.RecorderBaseURL, cfg.RecorderAPIKey)
	}
	if cfg.MinIOEndpoint != "" {
		archive, err := recording.NewTranscriptArchive(cfg)
		if err != nil {
			logging.ErrorLogger.Error("minio connection error", zap.Error(err))
			os.Exit(1)
		}
		recorder = recording.MultiRecorder{recorder, archive}
	}

	client := llm.NewClient(cfg)
	llmService := llm.NewService(
		negotiationService,
		provider,
		client.ChatCompletion,
		recorder,
		cfg.PromptsProjectID,
		cfg.PromptName,
		cfg.PromptsEnvironment,
	)

	negotiationCtrl := controllers.NewNegotiationController(negotiationService, llmService)
	healthCtrl := controllers.NewHealthController()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Mount("/negotiation", routes.NegotiationRoutes(negotiationCtrl))
	r.Mount("/negotiations", routes.OutcomeRoutes(negotiationCtrl))
	r.Mount("/health", routes.HealthRoutes(healthCtrl))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
		}
	}()
	logging.AppLogger.Info("negotiator listening", zap.String("port", cfg.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
	}
	logging.AppLogger.Info("server shutdown complete")
}

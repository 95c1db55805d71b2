package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"charbooth/internal/chat"
	"charbooth/internal/config"
	"charbooth/internal/engine"
	"charbooth/internal/httpserver"
	"charbooth/internal/persona"
	"charbooth/internal/prompt"
	"charbooth/internal/session"

	"log/slog"

	"github.com/joho/godotenv"
)

func main() {
	// .env удобен при локальной разработке; в проде его нет
	_ = godotenv.Load()

	cfg, err := config.LoadBackend()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.LogLevel)

	personas, err := persona.Load(cfg.PersonasPath)
	if err != nil {
		log.Fatalf("failed to load personas: %v", err)
	}

	store := session.NewMemoryStore(cfg.SessionTTL)
	sweeper, err := session.NewSweeper(store, cfg.SweepSchedule, logger)
	if err != nil {
		log.Fatalf("failed to init session sweeper: %v", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	eng, err := engine.New(cfg, logger)
	if err != nil {
		log.Fatalf("failed to init generation engine: %v", err)
	}

	var resolver chat.Resolver
	switch cfg.PromptResolver {
	case config.ResolverPersona:
		resolver = chat.NewPersonaResolver(personas)
	default:
		resolver = chat.NewAutoResolver(prompt.NewRegistry(), prompt.RandomQuestion)
	}

	service := chat.NewService(chat.ServiceConfig{
		Store:    store,
		Engine:   eng,
		Resolver: resolver,
		Personas: personas,
		Defaults: engine.Params{
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			TopP:        cfg.TopP,
		},
		HistoryMax: cfg.HistoryMaxTurns,
		Logger:     logger,
	})

	router := httpserver.NewRouter(httpserver.RouterDeps{
		Logger:     logger,
		Store:      store,
		Chat:       service,
		Engine:     eng,
		SessionTTL: cfg.SessionTTL,
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // генерация может быть долгой
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server starting",
			slog.String("addr", cfg.HTTPAddr),
			slog.String("engine", eng.Kind()),
			slog.String("resolver", string(cfg.PromptResolver)),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

func newLogger(level string) *slog.Logger {
	slogLevel := slog.LevelInfo
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel}))
}

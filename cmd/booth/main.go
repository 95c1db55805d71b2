package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"charbooth/internal/booth"
	"charbooth/internal/config"

	"log/slog"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Локальный цикл будки: реплики посетителя читаются построчно со
// стандартного ввода вместо микрофона, ответы озвучиваются мок-TTS.
func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadBooth()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.LogLevel)

	client := booth.NewClient(booth.ClientConfig{
		BaseURL:        cfg.BackendURL,
		MaxRetries:     cfg.MaxRetries,
		RetryDelay:     cfg.RetryDelay,
		RequestTimeout: cfg.RequestTimeout,
	}, booth.SessionDescriptor{
		SessionID:   uuid.New(),
		BoothID:     cfg.BoothID,
		Personality: cfg.Personality,
		Mode:        cfg.Mode,
	}, logger)

	controller := booth.NewController(booth.ControllerConfig{
		Client:      client,
		TTS:         booth.NewMockTTS(),
		Personality: cfg.Personality,
		HasWebcam:   cfg.HasWebcam,
		HasKeypad:   cfg.HasKeypad,
		Logger:      logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := controller.Pickup(ctx); err != nil {
		logger.Error("pickup failed", slog.String("error", err.Error()))
		_ = controller.Hangup(context.Background())
		os.Exit(1)
	}
	fmt.Println("Booth is listening. Type a line and press Enter; Ctrl+D hangs up.")

	asr := booth.NewLineRecognizer(os.Stdin)
	for {
		text, err := asr.Transcribe(ctx, nil, 16000)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Error("input failed", slog.String("error", err.Error()))
			}
			break
		}
		if text == "" || ctx.Err() != nil {
			if ctx.Err() != nil {
				break
			}
			continue
		}

		reply, err := controller.Utterance(ctx, text)
		if err != nil {
			logger.Error("turn failed", slog.String("error", err.Error()))
			break
		}
		fmt.Printf("%s: %s\n", cfg.Personality, reply)
	}

	// Отбой всегда: сессия снимается, буферы очищаются
	if err := controller.Hangup(context.Background()); err != nil {
		logger.Error("hangup failed", slog.String("error", err.Error()))
	}
	logger.Info("booth stopped")
}

func newLogger(level string) *slog.Logger {
	slogLevel := slog.LevelInfo
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel}))
}

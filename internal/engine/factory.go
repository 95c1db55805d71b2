package engine

import (
	"fmt"
	"log/slog"

	"charbooth/internal/config"
	"charbooth/internal/transport"
)

// New создаёт движок генерации по конфигурации процесса.
func New(cfg config.Backend, logger *slog.Logger) (Engine, error) {
	switch cfg.Engine {
	case config.EngineEcho:
		return NewEcho(), nil
	case config.EngineOllama:
		httpClient := transport.NewHTTPClient(cfg.EngineTimeout)
		return NewOllama(cfg.OllamaBaseURL, cfg.OllamaModel, httpClient, logger), nil
	case config.EngineOpenAI:
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel), nil
	default:
		return nil, fmt.Errorf("unknown engine type %q", cfg.Engine)
	}
}

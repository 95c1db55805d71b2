package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

// EngineType определяет, какой движок генерации использовать.
type EngineType string

const (
	EngineEcho   EngineType = "echo"
	EngineOllama EngineType = "ollama"
	EngineOpenAI EngineType = "openai"
)

// ResolverType определяет стратегию выбора системного промпта.
type ResolverType string

const (
	ResolverAuto    ResolverType = "auto"
	ResolverPersona ResolverType = "persona"
)

// Backend конфигурация серверного процесса.
type Backend struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Сессии
	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"10m"`
	HistoryMaxTurns int           `env:"HISTORY_MAX_TURNS" envDefault:"8"`
	SweepSchedule   string        `env:"SWEEP_SCHEDULE" envDefault:"@every 1m"`

	// Выбор промпта
	PromptResolver ResolverType `env:"PROMPT_RESOLVER" envDefault:"auto"`
	PersonasPath   string       `env:"PERSONAS_PATH"`

	// Генерация
	Engine      EngineType `env:"ENGINE" envDefault:"echo"`
	MaxTokens   int        `env:"MAX_TOKENS" envDefault:"180"`
	Temperature float32    `env:"TEMPERATURE" envDefault:"0.8"`
	TopP        float32    `env:"TOP_P" envDefault:"0.9"`

	// Ollama
	OllamaBaseURL string `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`
	OllamaModel   string `env:"OLLAMA_MODEL" envDefault:"llama3.1:8b"`

	// OpenAI-совместимый сервер (в т.ч. OpenRouter, ollama /v1)
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	OpenAIModel   string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`

	// Таймаут исходящих запросов к движку генерации.
	EngineTimeout time.Duration `env:"ENGINE_TIMEOUT" envDefault:"60s"`
}

// Booth конфигурация клиента будки.
type Booth struct {
	BackendURL  string `env:"BACKEND_URL" envDefault:"http://localhost:8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	BoothID     string `env:"BOOTH_ID" envDefault:"booth-01"`
	Personality string `env:"PERSONALITY" envDefault:"trickster"`
	Mode        string `env:"MODE" envDefault:"chat"`

	// Политика повторов: MaxRetries попыток с фиксированной паузой RetryDelay.
	MaxRetries     int           `env:"MAX_RETRIES" envDefault:"3"`
	RetryDelay     time.Duration `env:"RETRY_DELAY" envDefault:"1s"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	// Возможности будки, влияют на автономный выбор шаблона.
	HasWebcam bool `env:"HAS_WEBCAM" envDefault:"false"`
	HasKeypad bool `env:"HAS_KEYPAD" envDefault:"false"`
}

// LoadBackend читает конфигурацию сервера из переменных окружения.
func LoadBackend() (Backend, error) {
	var cfg Backend
	if err := env.Parse(&cfg); err != nil {
		return Backend{}, fmt.Errorf("parse backend config: %w", err)
	}
	if cfg.HistoryMaxTurns < 1 {
		return Backend{}, fmt.Errorf("HISTORY_MAX_TURNS must be positive, got %d", cfg.HistoryMaxTurns)
	}
	return cfg, nil
}

// LoadBooth читает конфигурацию будки из переменных окружения.
func LoadBooth() (Booth, error) {
	var cfg Booth
	if err := env.Parse(&cfg); err != nil {
		return Booth{}, fmt.Errorf("parse booth config: %w", err)
	}
	return cfg, nil
}

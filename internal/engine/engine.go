package engine

import (
	"context"
	"errors"
)

// Роли сообщений в контексте модели.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message одно сообщение контекста генерации.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage учёт токенов, возвращаемый движком. Для локальных движков
// значения могут быть приблизительными.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Params параметры генерации одного ответа.
type Params struct {
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// Engine движок генерации текста. Вызов блокирующий и не отменяемый
// на стороне модели: он либо завершается, либо обрывается по таймауту
// транспорта через ctx.
type Engine interface {
	// Generate возвращает текст ответа и учёт токенов.
	Generate(ctx context.Context, systemPrompt string, messages []Message, params Params) (string, Usage, error)

	// Kind короткое имя типа движка для диагностики ("echo", "ollama", ...).
	Kind() string
}

// ModelLister опционально реализуется движками, умеющими перечислять модели.
type ModelLister interface {
	Models(ctx context.Context) ([]string, error)
	CurrentModel() string
}

// ModelSwitcher опционально реализуется движками с переключаемой моделью.
type ModelSwitcher interface {
	SwitchModel(name string) error
}

// ErrEmptyResponse модель вернула пустой ответ.
var ErrEmptyResponse = errors.New("empty response from model")

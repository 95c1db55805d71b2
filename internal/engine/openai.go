package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/sashabaranov/go-openai"
)

// OpenAI движок для любого OpenAI-совместимого сервера: сам OpenAI,
// OpenRouter, ollama с включённым /v1 и т.п. Базовый URL настраивается.
type OpenAI struct {
	client *openai.Client

	mu    sync.RWMutex
	model string
}

// NewOpenAI создаёт движок. baseURL пустой — официальный API.
func NewOpenAI(apiKey, baseURL, model string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (o *OpenAI) Kind() string { return "openai" }

// CurrentModel возвращает активную модель.
func (o *OpenAI) CurrentModel() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.model
}

// SwitchModel переключает активную модель.
func (o *OpenAI) SwitchModel(name string) error {
	if name == "" {
		return fmt.Errorf("model name is empty")
	}
	o.mu.Lock()
	o.model = name
	o.mu.Unlock()
	return nil
}

func (o *OpenAI) Generate(ctx context.Context, systemPrompt string, messages []Message, params Params) (string, Usage, error) {
	oaMsgs := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if systemPrompt != "" {
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	for _, m := range messages {
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.CurrentModel(),
		Messages:    oaMsgs,
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
		TopP:        params.TopP,
	})
	if err != nil {
		return "", Usage{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", Usage{}, ErrEmptyResponse
	}

	usage := Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	return resp.Choices[0].Message.Content, usage, nil
}

// Models возвращает список моделей сервера.
func (o *OpenAI) Models(ctx context.Context) ([]string, error) {
	list, err := o.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	names := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		names = append(names, m.ID)
	}
	return names, nil
}

package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"charbooth/internal/retry"
)

// Ollama движок-прокси: пересылает запросы генерации внешнему серверу
// Ollama по HTTP. Модель можно переключать на лету.
type Ollama struct {
	baseURL    string
	httpClient *http.Client
	policy     retry.Policy
	logger     *slog.Logger

	mu    sync.RWMutex
	model string
}

// NewOllama создаёт прокси-движок для сервера Ollama.
func NewOllama(baseURL, model string, httpClient *http.Client, logger *slog.Logger) *Ollama {
	return &Ollama{
		baseURL:    baseURL,
		httpClient: httpClient,
		policy:     retry.DefaultPolicy(),
		logger:     logger,
		model:      model,
	}
}

func (o *Ollama) Kind() string { return "ollama" }

// CurrentModel возвращает активную модель.
func (o *Ollama) CurrentModel() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.model
}

// SwitchModel переключает активную модель.
func (o *Ollama) SwitchModel(name string) error {
	if name == "" {
		return fmt.Errorf("model name is empty")
	}
	o.mu.Lock()
	o.model = name
	o.mu.Unlock()
	return nil
}

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []Message     `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	NumPredict  int     `json:"num_predict"`
	Temperature float32 `json:"temperature"`
	TopP        float32 `json:"top_p"`
}

type ollamaChatResponse struct {
	Message         Message `json:"message"`
	PromptEvalCount int     `json:"prompt_eval_count"`
	EvalCount       int     `json:"eval_count"`
}

func (o *Ollama) Generate(ctx context.Context, systemPrompt string, messages []Message, params Params) (string, Usage, error) {
	full := make([]Message, 0, len(messages)+1)
	if systemPrompt != "" {
		full = append(full, Message{Role: RoleSystem, Content: systemPrompt})
	}
	full = append(full, messages...)

	reqBody := ollamaChatRequest{
		Model:    o.CurrentModel(),
		Messages: full,
		Stream:   false,
		Options: ollamaOptions{
			NumPredict:  params.MaxTokens,
			Temperature: params.Temperature,
			TopP:        params.TopP,
		},
	}
	buf, err := json.Marshal(reqBody)
	if err != nil {
		return "", Usage{}, fmt.Errorf("marshal chat request: %w", err)
	}

	resp, body, err := retry.DoHTTP(ctx, o.policy, o.logger, func(ctx context.Context) (*http.Response, []byte, error) {
		return o.post(ctx, "/api/chat", buf)
	})
	if err != nil {
		return "", Usage{}, fmt.Errorf("ollama chat: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", Usage{}, fmt.Errorf("ollama chat: unexpected status %d: %s", resp.StatusCode, body)
	}

	var parsed ollamaChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", Usage{}, fmt.Errorf("decode chat response: %w", err)
	}
	if parsed.Message.Content == "" {
		return "", Usage{}, ErrEmptyResponse
	}

	usage := Usage{
		PromptTokens:     parsed.PromptEvalCount,
		CompletionTokens: parsed.EvalCount,
		TotalTokens:      parsed.PromptEvalCount + parsed.EvalCount,
	}
	return parsed.Message.Content, usage, nil
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Models возвращает список моделей, доступных на сервере Ollama.
func (o *Ollama) Models(ctx context.Context) ([]string, error) {
	resp, body, err := retry.DoHTTP(ctx, o.policy, o.logger, func(ctx context.Context) (*http.Response, []byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
		if err != nil {
			return nil, nil, fmt.Errorf("build tags request: %w", err)
		}
		return o.do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("ollama tags: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama tags: unexpected status %d: %s", resp.StatusCode, body)
	}

	var parsed ollamaTagsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode tags response: %w", err)
	}
	names := make([]string, 0, len(parsed.Models))
	for _, m := range parsed.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

func (o *Ollama) post(ctx context.Context, path string, payload []byte) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return o.do(req)
}

func (o *Ollama) do(req *http.Request) (*http.Response, []byte, error) {
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, fmt.Errorf("read response: %w", err)
	}
	return resp, body, nil
}

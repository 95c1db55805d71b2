package engine

import (
	"context"
	"strings"
)

// Echo отладочный движок: возвращает последнее сообщение пользователя
// с префиксом. Полезен для прогона всей цепочки без настоящей модели.
type Echo struct{}

// NewEcho создаёт echo-движок.
func NewEcho() *Echo {
	return &Echo{}
}

func (e *Echo) Kind() string { return "echo" }

func (e *Echo) Generate(ctx context.Context, systemPrompt string, messages []Message, params Params) (string, Usage, error) {
	var lastUser string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			lastUser = messages[i].Content
			break
		}
	}

	text := strings.TrimSpace("[echo] " + lastUser)
	completion := len(strings.Fields(text))
	usage := Usage{
		PromptTokens:     0,
		CompletionTokens: completion,
		TotalTokens:      completion,
	}
	return text, usage, nil
}

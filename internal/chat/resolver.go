package chat

import (
	"errors"
	"fmt"

	"charbooth/internal/engine"
	"charbooth/internal/persona"
	"charbooth/internal/prompt"
)

// ErrUnknownPersonality запрошенная персона не зарегистрирована.
var ErrUnknownPersonality = errors.New("unknown personality")

// Resolved результат выбора системного промпта для одного хода.
// Нулевые параметры генерации означают "использовать дефолты процесса".
type Resolved struct {
	SystemPrompt string
	Mode         string
	Params       engine.Params
}

// Resolver стратегия выбора системного промпта. Две реализации:
// статическая персона и автономный выбор шаблона по тексту. Стратегии
// взаимоисключающие и настраиваются при старте процесса.
type Resolver interface {
	Resolve(userText, personality, mode string, feats prompt.Features) (Resolved, error)
}

// PersonaResolver статическая стратегия: системный промпт берётся из
// персоны (уже дополненной guardrails), режим дописывается суффиксом
// [MODE=<mode>].
type PersonaResolver struct {
	personas *persona.Registry
}

// NewPersonaResolver создаёт статическую стратегию.
func NewPersonaResolver(personas *persona.Registry) *PersonaResolver {
	return &PersonaResolver{personas: personas}
}

func (r *PersonaResolver) Resolve(userText, personality, mode string, feats prompt.Features) (Resolved, error) {
	p, ok := r.personas.Get(personality)
	if !ok {
		return Resolved{}, fmt.Errorf("%w: %s", ErrUnknownPersonality, personality)
	}

	systemPrompt := p.SystemPrompt
	if mode != "" {
		systemPrompt = fmt.Sprintf("%s\n\n[MODE=%s]", systemPrompt, mode)
	}
	return Resolved{SystemPrompt: systemPrompt, Mode: mode}, nil
}

// AutoResolver автономная стратегия: шаблон выбирается скорингом текста
// пользователя. Когда выбран режим-ловушка "questions", в промпт
// подмешивается один случайный вопрос из кураторского списка.
type AutoResolver struct {
	registry *prompt.Registry
	question func() string
}

// NewAutoResolver создаёт автономную стратегию. question может быть nil,
// тогда вопрос не подмешивается (удобно в тестах).
func NewAutoResolver(registry *prompt.Registry, question func() string) *AutoResolver {
	return &AutoResolver{registry: registry, question: question}
}

func (r *AutoResolver) Resolve(userText, personality, mode string, feats prompt.Features) (Resolved, error) {
	tpl := r.registry.Select(userText, feats)

	systemPrompt := tpl.SystemPrompt
	if tpl.Name == prompt.FallbackName && r.question != nil {
		systemPrompt = fmt.Sprintf("%s\n\nAsk this question: %s", systemPrompt, r.question())
	}

	return Resolved{
		SystemPrompt: systemPrompt,
		Mode:         tpl.Name,
		Params: engine.Params{
			MaxTokens:   tpl.MaxTokens,
			Temperature: tpl.Temperature,
		},
	}, nil
}

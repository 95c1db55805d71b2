package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"charbooth/internal/engine"
	"charbooth/internal/persona"
	"charbooth/internal/prompt"
	"charbooth/internal/session"
)

// apologyReply деградированный ответ при сбое движка генерации.
// Посетитель не должен видеть техническую ошибку.
const apologyReply = "Oh my, the booth's magic flickered for a moment! Give me that one more time, friend."

// Scene подсказка от камеры будки, добавляемая к контексту хода.
type Scene struct {
	Caption string   `json:"caption"`
	Tags    []string `json:"tags"`
}

// GenerateInput вход одного хода генерации.
type GenerateInput struct {
	SessionID   uuid.UUID
	UserText    string
	Personality string // переопределение персоны сессии, опционально
	Mode        string // переопределение режима сессии, опционально
	Features    prompt.Features
	Scene       *Scene
}

// Result результат хода: ответ, учёт токенов и фактически выбранный режим.
type Result struct {
	Text         string
	Personality  string
	Usage        engine.Usage
	SelectedMode string
}

// Service собирает контекст модели, вызывает движок генерации и ведёт
// историю сессии. Хранилище, движок и стратегия промпта внедряются
// при создании.
type Service struct {
	store      session.Store
	engine     engine.Engine
	resolver   Resolver
	personas   *persona.Registry
	defaults   engine.Params
	historyMax int
	logger     *slog.Logger
	now        func() time.Time
}

// ServiceConfig зависимости и настройки сервиса генерации.
type ServiceConfig struct {
	Store      session.Store
	Engine     engine.Engine
	Resolver   Resolver
	Personas   *persona.Registry
	Defaults   engine.Params
	HistoryMax int
	Logger     *slog.Logger
}

// NewService создаёт сервис генерации.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		store:      cfg.Store,
		engine:     cfg.Engine,
		resolver:   cfg.Resolver,
		personas:   cfg.Personas,
		defaults:   cfg.Defaults,
		historyMax: cfg.HistoryMax,
		logger:     cfg.Logger,
		now:        time.Now,
	}
}

// Generate выполняет один ход диалога.
//
// Конкурентные ходы одной сессии сериализуются блокировкой хранилища на
// всё время обработки, чтобы порядок реплик и усечение истории оставались
// согласованными. Ходы разных сессий идут независимо.
//
// Сбой движка генерации не роняет ход: возвращается деградированный
// ответ-извинение с нулевым учётом токенов. Явно наружу отдаются только
// session.ErrNotFound и ErrUnknownPersonality.
func (s *Service) Generate(ctx context.Context, in GenerateInput) (Result, error) {
	release := s.store.LockSession(in.SessionID)
	defer release()

	sess, found, err := s.store.Get(ctx, in.SessionID)
	if err != nil {
		return Result{}, fmt.Errorf("get session: %w", err)
	}
	if !found {
		return Result{}, session.ErrNotFound
	}

	// Переопределения действуют только на текущий ход
	personality := sess.Personality
	if in.Personality != "" {
		personality = in.Personality
	}
	mode := sess.Mode
	if in.Mode != "" {
		mode = in.Mode
	}
	if _, ok := s.personas.Get(personality); !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownPersonality, personality)
	}

	// Вся история сессии по порядку, затем новая реплика пользователя
	messages := make([]engine.Message, 0, len(sess.Turns)+1)
	for _, turn := range sess.Turns {
		messages = append(messages, engine.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, engine.Message{Role: engine.RoleUser, Content: in.UserText})

	resolved, err := s.resolver.Resolve(in.UserText, personality, mode, in.Features)
	if err != nil {
		return Result{}, err
	}

	systemPrompt := resolved.SystemPrompt
	if in.Scene != nil && in.Scene.Caption != "" {
		systemPrompt = fmt.Sprintf("%s\n\n[Scene: %s]", systemPrompt, sceneLine(in.Scene))
	}

	params := s.resolveParams(resolved.Params)

	text, usage, err := s.engine.Generate(ctx, systemPrompt, messages, params)
	if err != nil {
		// Деградируем в извинение вместо жёсткого сбоя хода
		s.logger.Error("generation engine failed",
			slog.String("session_id", in.SessionID.String()),
			slog.String("engine", s.engine.Kind()),
			slog.String("error", err.Error()),
		)
		text = apologyReply
		usage = engine.Usage{}
	}

	now := s.now()
	newTurns := []session.Turn{
		{Role: session.RoleUser, Content: in.UserText, Timestamp: now},
		{Role: session.RoleAssistant, Content: text, Timestamp: now},
	}
	if err := s.store.AppendTurn(ctx, in.SessionID, newTurns...); err != nil {
		// Ответ уже получен; проблему с историей логируем и продолжаем
		s.logger.Error("failed to append turns",
			slog.String("session_id", in.SessionID.String()),
			slog.String("error", err.Error()),
		)
	} else if err := s.store.TruncateHistory(ctx, in.SessionID, s.historyMax); err != nil {
		s.logger.Error("failed to truncate history",
			slog.String("session_id", in.SessionID.String()),
			slog.String("error", err.Error()),
		)
	}

	return Result{
		Text:         text,
		Personality:  personality,
		Usage:        usage,
		SelectedMode: resolved.Mode,
	}, nil
}

// resolveParams накладывает переопределения шаблона на дефолты процесса.
func (s *Service) resolveParams(overrides engine.Params) engine.Params {
	params := s.defaults
	if overrides.MaxTokens > 0 {
		params.MaxTokens = overrides.MaxTokens
	}
	if overrides.Temperature > 0 {
		params.Temperature = overrides.Temperature
	}
	if overrides.TopP > 0 {
		params.TopP = overrides.TopP
	}
	return params
}

func sceneLine(sc *Scene) string {
	if len(sc.Tags) == 0 {
		return sc.Caption
	}
	return fmt.Sprintf("%s (%s)", sc.Caption, strings.Join(sc.Tags, ", "))
}

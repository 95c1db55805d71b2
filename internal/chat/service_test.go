package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"charbooth/internal/engine"
	"charbooth/internal/persona"
	"charbooth/internal/prompt"
	"charbooth/internal/session"
)

// stubEngine управляемый движок для тестов сервиса.
type stubEngine struct {
	text  string
	usage engine.Usage
	err   error

	calls        int
	systemPrompt string
	messages     []engine.Message
	params       engine.Params
}

func (e *stubEngine) Kind() string { return "stub" }

func (e *stubEngine) Generate(ctx context.Context, systemPrompt string, messages []engine.Message, params engine.Params) (string, engine.Usage, error) {
	e.calls++
	e.systemPrompt = systemPrompt
	e.messages = append([]engine.Message(nil), messages...)
	e.params = params
	if e.err != nil {
		return "", engine.Usage{}, e.err
	}
	return e.text, e.usage, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, eng engine.Engine, resolver Resolver) (*Service, *session.MemoryStore) {
	t.Helper()
	store := session.NewMemoryStore(10 * time.Minute)
	personas, err := persona.Load("")
	if err != nil {
		t.Fatalf("load personas: %v", err)
	}
	svc := NewService(ServiceConfig{
		Store:      store,
		Engine:     eng,
		Resolver:   resolver,
		Personas:   personas,
		Defaults:   engine.Params{MaxTokens: 180, Temperature: 0.8, TopP: 0.9},
		HistoryMax: 8,
		Logger:     discardLogger(),
	})
	return svc, store
}

func startSession(t *testing.T, store session.Store) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, created, err := store.CreateIfAbsent(context.Background(), session.Session{
		ID:          id,
		BoothID:     "booth-01",
		Personality: "trickster",
		Mode:        "chat",
	})
	if err != nil || !created {
		t.Fatalf("start session: created=%v err=%v", created, err)
	}
	return id
}

func TestGenerateHappyPath(t *testing.T) {
	eng := &stubEngine{text: "What walks on four legs?", usage: engine.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}}
	svc, store := newTestService(t, eng, NewAutoResolver(prompt.NewRegistry(), nil))
	id := startSession(t, store)

	res, err := svc.Generate(context.Background(), GenerateInput{
		SessionID: id,
		UserText:  "Give me a riddle",
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if res.Text != "What walks on four legs?" {
		t.Fatalf("unexpected reply: %q", res.Text)
	}
	if res.Personality != "trickster" {
		t.Fatalf("unexpected personality: %q", res.Personality)
	}
	if res.SelectedMode != "riddles" {
		t.Fatalf("expected riddles mode, got %q", res.SelectedMode)
	}
	if res.Usage.TotalTokens != 15 {
		t.Fatalf("unexpected usage: %+v", res.Usage)
	}

	// В контекст ушла одна свежая реплика пользователя
	if len(eng.messages) != 1 || eng.messages[0].Content != "Give me a riddle" {
		t.Fatalf("unexpected engine messages: %+v", eng.messages)
	}

	// Обе реплики записаны в сессию
	sess, found, _ := store.Get(context.Background(), id)
	if !found || len(sess.Turns) != 2 {
		t.Fatalf("expected 2 turns, found=%v turns=%d", found, len(sess.Turns))
	}
	if sess.Turns[0].Role != session.RoleUser || sess.Turns[1].Role != session.RoleAssistant {
		t.Fatalf("unexpected turn roles: %+v", sess.Turns)
	}
}

func TestGenerateHistoryOrder(t *testing.T) {
	eng := &stubEngine{text: "reply"}
	svc, store := newTestService(t, eng, NewAutoResolver(prompt.NewRegistry(), nil))
	id := startSession(t, store)

	for i := 0; i < 3; i++ {
		if _, err := svc.Generate(context.Background(), GenerateInput{
			SessionID: id,
			UserText:  fmt.Sprintf("message %d", i),
		}); err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
	}

	// Третий вызов: в контексте 4 реплики истории + новая пользовательская
	if len(eng.messages) != 5 {
		t.Fatalf("expected 5 context messages, got %d", len(eng.messages))
	}
	if eng.messages[0].Content != "message 0" || eng.messages[4].Content != "message 2" {
		t.Fatalf("history out of order: %+v", eng.messages)
	}
}

func TestGenerateSessionNotFound(t *testing.T) {
	svc, _ := newTestService(t, &stubEngine{text: "x"}, NewAutoResolver(prompt.NewRegistry(), nil))

	_, err := svc.Generate(context.Background(), GenerateInput{
		SessionID: uuid.New(),
		UserText:  "hello",
	})
	if !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGenerateAfterRelease(t *testing.T) {
	svc, store := newTestService(t, &stubEngine{text: "x"}, NewAutoResolver(prompt.NewRegistry(), nil))
	id := startSession(t, store)

	if err := store.Release(context.Background(), id); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, found, _ := store.Get(context.Background(), id); found {
		t.Fatalf("released session must be absent")
	}

	_, err := svc.Generate(context.Background(), GenerateInput{SessionID: id, UserText: "hello"})
	if !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after release, got %v", err)
	}
}

func TestGenerateUnknownPersonality(t *testing.T) {
	svc, store := newTestService(t, &stubEngine{text: "x"}, NewAutoResolver(prompt.NewRegistry(), nil))
	id := startSession(t, store)

	_, err := svc.Generate(context.Background(), GenerateInput{
		SessionID:   id,
		UserText:    "hello",
		Personality: "nobody",
	})
	if !errors.Is(err, ErrUnknownPersonality) {
		t.Fatalf("expected ErrUnknownPersonality, got %v", err)
	}
}

func TestGenerateEngineFailureDegrades(t *testing.T) {
	eng := &stubEngine{err: errors.New("model exploded")}
	svc, store := newTestService(t, eng, NewAutoResolver(prompt.NewRegistry(), nil))
	id := startSession(t, store)

	res, err := svc.Generate(context.Background(), GenerateInput{SessionID: id, UserText: "hello there"})
	if err != nil {
		t.Fatalf("engine failure must not fail the turn: %v", err)
	}
	if res.Text != apologyReply {
		t.Fatalf("expected apology reply, got %q", res.Text)
	}
	if res.Usage != (engine.Usage{}) {
		t.Fatalf("expected zeroed usage, got %+v", res.Usage)
	}

	// Извинение тоже попадает в историю
	sess, _, _ := store.Get(context.Background(), id)
	if len(sess.Turns) != 2 || sess.Turns[1].Content != apologyReply {
		t.Fatalf("apology must be recorded: %+v", sess.Turns)
	}
}

func TestGenerateTruncatesHistory(t *testing.T) {
	eng := &stubEngine{text: "ok"}
	svc, store := newTestService(t, eng, NewAutoResolver(prompt.NewRegistry(), nil))
	svc.historyMax = 4
	id := startSession(t, store)

	const k = 5
	for i := 0; i < k; i++ {
		if _, err := svc.Generate(context.Background(), GenerateInput{
			SessionID: id,
			UserText:  fmt.Sprintf("turn %d", i),
		}); err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
	}

	sess, _, _ := store.Get(context.Background(), id)
	if len(sess.Turns) != 4 {
		t.Fatalf("expected history capped at 4 turns, got %d", len(sess.Turns))
	}
	// Остались ровно самые свежие реплики в исходном порядке
	if sess.Turns[0].Content != "turn 3" || sess.Turns[1].Content != "ok" ||
		sess.Turns[2].Content != "turn 4" || sess.Turns[3].Content != "ok" {
		t.Fatalf("unexpected retained turns: %+v", sess.Turns)
	}
}

func TestGenerateSceneInSystemPrompt(t *testing.T) {
	eng := &stubEngine{text: "nice scarf"}
	svc, store := newTestService(t, eng, NewAutoResolver(prompt.NewRegistry(), nil))
	id := startSession(t, store)

	_, err := svc.Generate(context.Background(), GenerateInput{
		SessionID: id,
		UserText:  "hi there",
		Scene:     &Scene{Caption: "person in a red scarf", Tags: []string{"red", "indoor"}},
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !strings.Contains(eng.systemPrompt, "[Scene: person in a red scarf (red, indoor)]") {
		t.Fatalf("scene hint missing from system prompt")
	}
}

func TestGenerateParamsFromTemplateOverride(t *testing.T) {
	reg := prompt.NewEmptyRegistry()
	reg.Register(prompt.Template{
		Name:        "short",
		Keywords:    []string{"quick"},
		MaxTokens:   50,
		Temperature: 0.3,
	})
	reg.Register(prompt.Template{Name: prompt.FallbackName})

	eng := &stubEngine{text: "ok"}
	svc, store := newTestService(t, eng, NewAutoResolver(reg, nil))
	id := startSession(t, store)

	if _, err := svc.Generate(context.Background(), GenerateInput{SessionID: id, UserText: "quick one"}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	// Переопределения шаблона, TopP остаётся процессным
	if eng.params.MaxTokens != 50 || eng.params.Temperature != 0.3 || eng.params.TopP != 0.9 {
		t.Fatalf("unexpected params: %+v", eng.params)
	}

	// Шаблон без переопределений даёт дефолты процесса
	if _, err := svc.Generate(context.Background(), GenerateInput{SessionID: id, UserText: "zzzqq"}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if eng.params.MaxTokens != 180 || eng.params.Temperature != 0.8 {
		t.Fatalf("expected process defaults, got %+v", eng.params)
	}
}

func TestPersonaResolver(t *testing.T) {
	personas, err := persona.Load("")
	if err != nil {
		t.Fatalf("load personas: %v", err)
	}
	r := NewPersonaResolver(personas)

	resolved, err := r.Resolve("hello", "trickster", "riddles", prompt.Features{})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !strings.HasSuffix(resolved.SystemPrompt, "[MODE=riddles]") {
		t.Fatalf("mode suffix missing: %q", resolved.SystemPrompt)
	}
	if resolved.Mode != "riddles" {
		t.Fatalf("unexpected mode: %q", resolved.Mode)
	}

	// Без режима суффикс не добавляется
	resolved, err = r.Resolve("hello", "trickster", "", prompt.Features{})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if strings.Contains(resolved.SystemPrompt, "[MODE=") {
		t.Fatalf("unexpected mode suffix: %q", resolved.SystemPrompt)
	}

	if _, err := r.Resolve("hello", "nobody", "", prompt.Features{}); !errors.Is(err, ErrUnknownPersonality) {
		t.Fatalf("expected ErrUnknownPersonality, got %v", err)
	}
}

func TestAutoResolverInjectsQuestion(t *testing.T) {
	r := NewAutoResolver(prompt.NewRegistry(), func() string {
		return "What made you smile today?"
	})

	// Бессмыслица уводит в режим questions
	resolved, err := r.Resolve("zzzqq flibber", "", "", prompt.Features{})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if resolved.Mode != prompt.FallbackName {
		t.Fatalf("expected fallback mode, got %q", resolved.Mode)
	}
	if !strings.Contains(resolved.SystemPrompt, "Ask this question: What made you smile today?") {
		t.Fatalf("question not injected: %q", resolved.SystemPrompt)
	}

	// В остальных режимах вопрос не подмешивается
	resolved, _ = r.Resolve("give me a riddle", "", "", prompt.Features{})
	if strings.Contains(resolved.SystemPrompt, "Ask this question") {
		t.Fatalf("question must only be injected in questions mode")
	}
}

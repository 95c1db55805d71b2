package booth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"charbooth/internal/engine"
)

// ErrSessionNotFound бэкенд не знает сессию даже после повторного старта.
var ErrSessionNotFound = errors.New("session not found on backend")

// ValidationError бэкенд отклонил запрос как некорректный (400-класс).
// Такие ошибки не повторяются.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("backend rejected request: %s (%s)", e.Message, e.Code)
}

// ServerError бэкенд ответил 5xx после исчерпания повторов.
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("backend server error: status %d: %s", e.StatusCode, e.Body)
}

// SessionDescriptor кэшируемое описание сессии. Используется и для
// первичного старта, и для прозрачного пересоздания после 404.
type SessionDescriptor struct {
	SessionID   uuid.UUID
	BoothID     string
	Personality string
	Mode        string
}

// ClientConfig настройки устойчивого клиента будки.
type ClientConfig struct {
	BaseURL        string
	MaxRetries     int
	RetryDelay     time.Duration
	RequestTimeout time.Duration
}

// Client обёртка над тремя вызовами бэкенда с политикой повторов.
//
// Сетевые ошибки и 5xx повторяются до MaxRetries раз с фиксированной
// паузой RetryDelay. Ответ 404 на generate лечится ровно одним
// автоматическим start с кэшированным дескриптором и одним повтором
// generate; повторный 404 отдаётся как ErrSessionNotFound.
type Client struct {
	rc     *resty.Client
	desc   SessionDescriptor
	logger *slog.Logger
}

// NewClient создаёт клиента бэкенда для одной сессии будки.
func NewClient(cfg ClientConfig, desc SessionDescriptor, logger *slog.Logger) *Client {
	rc := resty.New()
	rc.SetBaseURL(cfg.BaseURL)
	rc.SetTimeout(cfg.RequestTimeout)
	rc.SetRetryCount(cfg.MaxRetries)
	rc.SetRetryWaitTime(cfg.RetryDelay)
	rc.SetRetryMaxWaitTime(cfg.RetryDelay)
	rc.AddRetryCondition(func(r *resty.Response, err error) bool {
		// Повторяем сетевые сбои и 5xx; 4xx-класс не повторяется
		return err != nil || r.StatusCode() >= http.StatusInternalServerError
	})

	return &Client{rc: rc, desc: desc, logger: logger}
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type startRequest struct {
	SessionID   string `json:"session_id"`
	BoothID     string `json:"booth_id"`
	Personality string `json:"personality"`
	Mode        string `json:"mode"`
}

// StartResult ответ бэкенда на начало сессии.
type StartResult struct {
	SessionID        string `json:"session_id"`
	Created          bool   `json:"created"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

// Scene подсказка от камеры, вкладываемая в запрос генерации.
type Scene struct {
	Caption string   `json:"caption"`
	Tags    []string `json:"tags"`
}

type features struct {
	Webcam bool `json:"webcam"`
	Keypad bool `json:"keypad"`
}

type generateRequest struct {
	SessionID string    `json:"session_id"`
	UserText  string    `json:"user_text"`
	Scene     *Scene    `json:"scene,omitempty"`
	Features  *features `json:"features,omitempty"`
}

// GenerateResult ответ бэкенда на один ход генерации.
type GenerateResult struct {
	Text         string       `json:"text"`
	Personality  string       `json:"personality"`
	Usage        engine.Usage `json:"usage"`
	SelectedMode string       `json:"selected_mode"`
}

type releaseRequest struct {
	SessionID string `json:"session_id"`
}

// Start создаёт (или идемпотентно подтверждает) сессию на бэкенде.
func (c *Client) Start(ctx context.Context) (StartResult, error) {
	var out StartResult
	var envelope errorEnvelope

	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(startRequest{
			SessionID:   c.desc.SessionID.String(),
			BoothID:     c.desc.BoothID,
			Personality: c.desc.Personality,
			Mode:        c.desc.Mode,
		}).
		SetResult(&out).
		SetError(&envelope).
		Post("/session/start")
	if err != nil {
		return StartResult{}, fmt.Errorf("start session: %w", err)
	}
	if err := classifyStatus(resp, &envelope); err != nil {
		return StartResult{}, err
	}
	return out, nil
}

// Generate отправляет реплику посетителя и возвращает ответ персонажа.
// Истёкшая на бэкенде сессия пересоздаётся прозрачно для вызывающего.
func (c *Client) Generate(ctx context.Context, userText string, scene *Scene, webcam, keypad bool) (GenerateResult, error) {
	out, status, err := c.generateOnce(ctx, userText, scene, webcam, keypad)
	if err != nil {
		return GenerateResult{}, err
	}
	if status != http.StatusNotFound {
		return out, nil
	}

	// Бэкенд потерял сессию: пересоздаём по кэшированному дескриптору
	// и повторяем ровно один раз.
	c.logger.Warn("session expired on backend, restarting",
		slog.String("session_id", c.desc.SessionID.String()),
	)
	if _, err := c.Start(ctx); err != nil {
		return GenerateResult{}, fmt.Errorf("restart session: %w", err)
	}

	out, status, err = c.generateOnce(ctx, userText, scene, webcam, keypad)
	if err != nil {
		return GenerateResult{}, err
	}
	if status == http.StatusNotFound {
		return GenerateResult{}, ErrSessionNotFound
	}
	return out, nil
}

// generateOnce одна попытка generate (с повторами resty внутри).
// Статус 404 возвращается вызывающему для протокола восстановления.
func (c *Client) generateOnce(ctx context.Context, userText string, scene *Scene, webcam, keypad bool) (GenerateResult, int, error) {
	var out GenerateResult
	var envelope errorEnvelope

	req := generateRequest{
		SessionID: c.desc.SessionID.String(),
		UserText:  userText,
		Scene:     scene,
	}
	if webcam || keypad {
		req.Features = &features{Webcam: webcam, Keypad: keypad}
	}

	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&envelope).
		Post("/generate")
	if err != nil {
		return GenerateResult{}, 0, fmt.Errorf("generate: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return GenerateResult{}, http.StatusNotFound, nil
	}
	if err := classifyStatus(resp, &envelope); err != nil {
		return GenerateResult{}, 0, err
	}
	return out, resp.StatusCode(), nil
}

// Release снимает сессию на бэкенде. Будка в любом случае завершает
// цикл, поэтому сбой только логируется.
func (c *Client) Release(ctx context.Context) {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(releaseRequest{SessionID: c.desc.SessionID.String()}).
		Post("/session/release")
	if err != nil {
		c.logger.Warn("session release failed",
			slog.String("session_id", c.desc.SessionID.String()),
			slog.String("error", err.Error()),
		)
		return
	}
	if resp.IsError() {
		c.logger.Warn("session release rejected",
			slog.String("session_id", c.desc.SessionID.String()),
			slog.Int("status", resp.StatusCode()),
		)
	}
}

// classifyStatus переводит неуспешные статусы в типизированные ошибки.
func classifyStatus(resp *resty.Response, envelope *errorEnvelope) error {
	switch {
	case resp.IsSuccess():
		return nil
	case resp.StatusCode() >= http.StatusInternalServerError:
		return &ServerError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	default:
		return &ValidationError{
			Code:    envelope.Error.Code,
			Message: envelope.Error.Message,
		}
	}
}

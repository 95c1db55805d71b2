package booth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ControllerConfig зависимости цикла обслуживания будки.
type ControllerConfig struct {
	Client      *Client
	TTS         Synthesizer
	Vision      Vision // nil, если камеры нет
	Personality string
	HasWebcam   bool
	HasKeypad   bool
	Logger      *slog.Logger
}

// Controller ведёт один цикл обслуживания посетителя через конечный
// автомат: снятие трубки, слушание, обработка, ответ, отбой. Ошибки
// валидации и исчерпанные повторы переводят автомат в ERROR; отбой
// всегда снимает сессию на бэкенде и очищает локальные буферы.
type Controller struct {
	machine *Machine
	client  *Client
	tts     Synthesizer
	vision  Vision

	personality string
	hasWebcam   bool
	hasKeypad   bool
	logger      *slog.Logger

	clips []Clip // буфер озвученных ответов текущего цикла
}

// NewController создаёт контроллер в состоянии IDLE.
func NewController(cfg ControllerConfig) *Controller {
	return &Controller{
		machine:     NewMachine(),
		client:      cfg.Client,
		tts:         cfg.TTS,
		vision:      cfg.Vision,
		personality: cfg.Personality,
		hasWebcam:   cfg.HasWebcam,
		hasKeypad:   cfg.HasKeypad,
		logger:      cfg.Logger,
	}
}

// State текущее состояние автомата будки.
func (c *Controller) State() State {
	return c.machine.Current()
}

// Clips буфер ответов текущего цикла.
func (c *Controller) Clips() []Clip {
	return c.clips
}

// Pickup начинает цикл: посетитель снял трубку, сессия стартует.
func (c *Controller) Pickup(ctx context.Context) error {
	if err := c.machine.TransitionTo(StatePickup); err != nil {
		return err
	}

	res, err := c.client.Start(ctx)
	if err != nil {
		c.fail("session start failed", err)
		return err
	}
	c.logger.Info("session started",
		slog.String("session_id", res.SessionID),
		slog.Bool("created", res.Created),
		slog.Int("expires_in_seconds", res.ExpiresInSeconds),
	)

	return c.machine.TransitionTo(StateListening)
}

// Utterance обрабатывает одну распознанную реплику посетителя:
// LISTENING → PROCESSING → SPEAKING → LISTENING. Возвращает текст
// ответа персонажа.
func (c *Controller) Utterance(ctx context.Context, userText string) (string, error) {
	if err := c.machine.TransitionTo(StateProcessing); err != nil {
		return "", err
	}

	var scene *Scene
	if c.vision != nil {
		captured, err := c.vision.Capture(ctx)
		if err != nil {
			// Камера не критична для хода
			c.logger.Warn("vision capture failed", slog.String("error", err.Error()))
		} else if captured.Caption != "" {
			scene = &Scene{Caption: captured.Caption, Tags: captured.Tags}
		}
	}

	res, err := c.client.Generate(ctx, userText, scene, c.hasWebcam, c.hasKeypad)
	if err != nil {
		c.fail("generate failed", err)
		return "", err
	}

	if err := c.machine.TransitionTo(StateSpeaking); err != nil {
		return "", err
	}

	clip, err := c.tts.Synthesize(ctx, res.Text, res.Personality)
	if err != nil {
		c.fail("speech synthesis failed", err)
		return "", fmt.Errorf("synthesize reply: %w", err)
	}
	c.clips = append(c.clips, clip)

	if err := c.machine.TransitionTo(StateListening); err != nil {
		return "", err
	}
	return res.Text, nil
}

// Hangup завершает цикл: сессия снимается (лучшим усилием), буферы
// очищаются, автомат возвращается в IDLE.
func (c *Controller) Hangup(ctx context.Context) error {
	if err := c.machine.TransitionTo(StateHangup); err != nil {
		return err
	}

	c.client.Release(ctx)
	c.clips = nil

	return c.machine.TransitionTo(StateIdle)
}

// fail переводит автомат в ERROR с логированием причины.
func (c *Controller) fail(msg string, err error) {
	c.logger.Error(msg,
		slog.String("error", err.Error()),
		slog.String("state", string(c.machine.Current())),
	)
	if terr := c.machine.Fail(); terr != nil {
		var invalid *InvalidTransitionError
		if !errors.As(terr, &invalid) || invalid.From != StateError {
			c.logger.Error("failed to enter error state", slog.String("error", terr.Error()))
		}
	}
}

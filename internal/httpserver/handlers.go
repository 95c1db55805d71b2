package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"charbooth/internal/chat"
	"charbooth/internal/engine"
	"charbooth/internal/prompt"
	"charbooth/internal/session"
)

// handlers обработчики HTTP-поверхности бэкенда будки.
type handlers struct {
	logger     *slog.Logger
	store      session.Store
	chat       *chat.Service
	engine     engine.Engine
	sessionTTL time.Duration
}

type startRequest struct {
	SessionID   string `json:"session_id"`
	BoothID     string `json:"booth_id"`
	Personality string `json:"personality"`
	Mode        string `json:"mode"`
}

type startResponse struct {
	SessionID        string `json:"session_id"`
	Created          bool   `json:"created"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

type sceneRequest struct {
	Caption string   `json:"caption"`
	Tags    []string `json:"tags"`
}

type featuresRequest struct {
	Webcam bool `json:"webcam"`
	Keypad bool `json:"keypad"`
}

type generateRequest struct {
	SessionID   string           `json:"session_id"`
	UserText    string           `json:"user_text"`
	Personality string           `json:"personality,omitempty"`
	Mode        string           `json:"mode,omitempty"`
	Scene       *sceneRequest    `json:"scene,omitempty"`
	Features    *featuresRequest `json:"features,omitempty"`
}

type generateResponse struct {
	Text         string       `json:"text"`
	Personality  string       `json:"personality"`
	Usage        engine.Usage `json:"usage"`
	SelectedMode string       `json:"selected_mode,omitempty"`
}

type releaseRequest struct {
	SessionID string `json:"session_id"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type modelsResponse struct {
	Models       []string `json:"models"`
	CurrentModel string   `json:"current_model"`
	EngineType   string   `json:"engine_type"`
}

type modelSwitchRequest struct {
	ModelName string `json:"model_name"`
}

type modelSwitchResponse struct {
	Success   bool   `json:"success"`
	ModelName string `json:"model_name"`
	Message   string `json:"message"`
}

type modelCurrentResponse struct {
	CurrentModel string `json:"current_model"`
	EngineType   string `json:"engine_type"`
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *handlers) sessionStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	id, ok := parseSessionID(req.SessionID)
	if !ok {
		WriteJSONError(w, http.StatusBadRequest, "invalid_session_id", "session_id must be a UUIDv4")
		return
	}

	stored, created, err := h.store.CreateIfAbsent(r.Context(), session.Session{
		ID:          id,
		BoothID:     req.BoothID,
		Personality: req.Personality,
		Mode:        req.Mode,
		TTL:         h.sessionTTL,
	})
	if err != nil {
		h.logger.Error("session start failed", slog.String("error", err.Error()))
		WriteJSONError(w, http.StatusInternalServerError, "internal_error", "failed to start session")
		return
	}

	WriteJSON(w, http.StatusOK, startResponse{
		SessionID:        stored.ID.String(),
		Created:          created,
		ExpiresInSeconds: int(h.sessionTTL.Seconds()),
	})
}

func (h *handlers) generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	id, ok := parseSessionID(req.SessionID)
	if !ok {
		WriteJSONError(w, http.StatusBadRequest, "invalid_session_id", "session_id must be a UUIDv4")
		return
	}

	in := chat.GenerateInput{
		SessionID:   id,
		UserText:    req.UserText,
		Personality: req.Personality,
		Mode:        req.Mode,
	}
	if req.Features != nil {
		in.Features = prompt.Features{Webcam: req.Features.Webcam, Keypad: req.Features.Keypad}
	}
	if req.Scene != nil {
		in.Scene = &chat.Scene{Caption: req.Scene.Caption, Tags: req.Scene.Tags}
	}

	res, err := h.chat.Generate(r.Context(), in)
	switch {
	case errors.Is(err, session.ErrNotFound):
		WriteJSONError(w, http.StatusNotFound, "session_not_found", "session absent or expired")
		return
	case errors.Is(err, chat.ErrUnknownPersonality):
		WriteJSONError(w, http.StatusBadRequest, "unknown_personality", "requested personality is not registered")
		return
	case err != nil:
		h.logger.Error("generate failed", slog.String("error", err.Error()))
		WriteJSONError(w, http.StatusInternalServerError, "internal_error", "generation failed")
		return
	}

	WriteJSON(w, http.StatusOK, generateResponse{
		Text:         res.Text,
		Personality:  res.Personality,
		Usage:        res.Usage,
		SelectedMode: res.SelectedMode,
	})
}

func (h *handlers) sessionRelease(w http.ResponseWriter, r *http.Request) {
	var req releaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	id, ok := parseSessionID(req.SessionID)
	if !ok {
		WriteJSONError(w, http.StatusBadRequest, "invalid_session_id", "session_id must be a UUIDv4")
		return
	}

	if err := h.store.Release(r.Context(), id); err != nil {
		h.logger.Error("session release failed", slog.String("error", err.Error()))
		WriteJSONError(w, http.StatusInternalServerError, "internal_error", "failed to release session")
		return
	}

	WriteJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *handlers) models(w http.ResponseWriter, r *http.Request) {
	resp := modelsResponse{
		Models:     []string{},
		EngineType: h.engine.Kind(),
	}
	if lister, ok := h.engine.(engine.ModelLister); ok {
		models, err := lister.Models(r.Context())
		if err != nil {
			h.logger.Error("model listing failed", slog.String("error", err.Error()))
			WriteJSONError(w, http.StatusBadGateway, "engine_unavailable", "failed to list models")
			return
		}
		resp.Models = models
		resp.CurrentModel = lister.CurrentModel()
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (h *handlers) modelSwitch(w http.ResponseWriter, r *http.Request) {
	var req modelSwitchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if req.ModelName == "" {
		WriteJSONError(w, http.StatusBadRequest, "invalid_request", "model_name is required")
		return
	}

	switcher, ok := h.engine.(engine.ModelSwitcher)
	if !ok {
		WriteJSONError(w, http.StatusBadRequest, "model_switch_unsupported",
			"engine "+h.engine.Kind()+" does not support model switching")
		return
	}

	if err := switcher.SwitchModel(req.ModelName); err != nil {
		h.logger.Error("model switch failed",
			slog.String("model", req.ModelName),
			slog.String("error", err.Error()),
		)
		WriteJSONError(w, http.StatusBadRequest, "model_switch_failed", err.Error())
		return
	}

	h.logger.Info("model switched", slog.String("model", req.ModelName))
	WriteJSON(w, http.StatusOK, modelSwitchResponse{
		Success:   true,
		ModelName: req.ModelName,
		Message:   "model switched",
	})
}

func (h *handlers) modelCurrent(w http.ResponseWriter, r *http.Request) {
	resp := modelCurrentResponse{EngineType: h.engine.Kind()}
	if lister, ok := h.engine.(engine.ModelLister); ok {
		resp.CurrentModel = lister.CurrentModel()
	}
	WriteJSON(w, http.StatusOK, resp)
}

// parseSessionID принимает только UUID четвёртой версии.
func parseSessionID(raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil || id.Version() != 4 {
		return uuid.UUID{}, false
	}
	return id, true
}

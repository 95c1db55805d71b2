package httpserver

import (
	"net/http"
	"time"

	"charbooth/internal/chat"
	"charbooth/internal/engine"
	"charbooth/internal/middleware"
	"charbooth/internal/session"

	"log/slog"

	"github.com/go-chi/chi/v5"
)

type RouterDeps struct {
	Logger     *slog.Logger
	Store      session.Store
	Chat       *chat.Service
	Engine     engine.Engine
	SessionTTL time.Duration
}

// NewRouter собирает chi-роутер с общими middleware.
func NewRouter(deps RouterDeps) http.Handler {
	h := &handlers{
		logger:     deps.Logger,
		store:      deps.Store,
		chat:       deps.Chat,
		engine:     deps.Engine,
		sessionTTL: deps.SessionTTL,
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recover(deps.Logger))
	r.Use(middleware.Logging(deps.Logger))

	r.Get("/healthz", h.health)

	r.Post("/session/start", h.sessionStart)
	r.Post("/generate", h.generate)
	r.Post("/session/release", h.sessionRelease)

	r.Get("/models", h.models)
	r.Post("/models/switch", h.modelSwitch)
	r.Get("/models/current", h.modelCurrent)

	return r
}

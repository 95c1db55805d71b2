package booth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

type backendCounters struct {
	start    atomic.Int32
	generate atomic.Int32
	release  atomic.Int32
}

func newFakeBackend(t *testing.T, counters *backendCounters, generateStatus func(call int32) int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/session/start":
			counters.start.Add(1)
			writeJSON(w, http.StatusOK, StartResult{Created: true, ExpiresInSeconds: 600})
		case "/generate":
			call := counters.generate.Add(1)
			status := http.StatusOK
			if generateStatus != nil {
				status = generateStatus(call)
			}
			if status != http.StatusOK {
				writeJSON(w, status, map[string]any{
					"error": map[string]string{"code": "server_error", "message": "boom"},
				})
				return
			}
			var req generateRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			writeJSON(w, http.StatusOK, GenerateResult{
				Text:         "reply to: " + req.UserText,
				Personality:  "trickster",
				SelectedMode: "conversation",
			})
		case "/session/release":
			counters.release.Add(1)
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newTestController(baseURL string, vision Vision) *Controller {
	client := NewClient(ClientConfig{
		BaseURL:        baseURL,
		MaxRetries:     0,
		RetryDelay:     5 * time.Millisecond,
		RequestTimeout: 2 * time.Second,
	}, testDescriptor(), testLogger())

	return NewController(ControllerConfig{
		Client:      client,
		TTS:         NewMockTTS(),
		Vision:      vision,
		Personality: "trickster",
		Logger:      testLogger(),
	})
}

func TestControllerVisitorCycle(t *testing.T) {
	var counters backendCounters
	srv := newFakeBackend(t, &counters, nil)
	defer srv.Close()

	c := newTestController(srv.URL, nil)
	ctx := context.Background()

	if err := c.Pickup(ctx); err != nil {
		t.Fatalf("Pickup failed: %v", err)
	}
	if c.State() != StateListening {
		t.Fatalf("expected LISTENING after pickup, got %s", c.State())
	}

	reply, err := c.Utterance(ctx, "tell me something")
	if err != nil {
		t.Fatalf("Utterance failed: %v", err)
	}
	if reply != "reply to: tell me something" {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if c.State() != StateListening {
		t.Fatalf("expected LISTENING after reply, got %s", c.State())
	}
	if len(c.Clips()) != 1 {
		t.Fatalf("expected one buffered clip, got %d", len(c.Clips()))
	}

	if err := c.Hangup(ctx); err != nil {
		t.Fatalf("Hangup failed: %v", err)
	}
	if c.State() != StateIdle {
		t.Fatalf("expected IDLE after hangup, got %s", c.State())
	}
	if c.Clips() != nil {
		t.Fatalf("hangup must clear buffered clips")
	}
	if counters.release.Load() != 1 {
		t.Fatalf("hangup must release the session, got %d calls", counters.release.Load())
	}
}

func TestControllerEntersErrorOnHardFailure(t *testing.T) {
	var counters backendCounters
	srv := newFakeBackend(t, &counters, func(call int32) int {
		return http.StatusInternalServerError
	})
	defer srv.Close()

	c := newTestController(srv.URL, nil)
	ctx := context.Background()

	if err := c.Pickup(ctx); err != nil {
		t.Fatalf("Pickup failed: %v", err)
	}
	if _, err := c.Utterance(ctx, "hello"); err == nil {
		t.Fatalf("expected hard failure from exhausted retries")
	}
	if c.State() != StateError {
		t.Fatalf("expected ERROR state, got %s", c.State())
	}

	// Из ошибки будка выходит только через отбой
	if err := c.Hangup(ctx); err != nil {
		t.Fatalf("Hangup from ERROR failed: %v", err)
	}
	if c.State() != StateIdle {
		t.Fatalf("expected IDLE after hangup, got %s", c.State())
	}
}

func TestControllerFoldsSceneIntoRequest(t *testing.T) {
	var gotScene *Scene
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/session/start":
			writeJSON(w, http.StatusOK, StartResult{Created: true})
		case "/generate":
			var req generateRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			gotScene = req.Scene
			writeJSON(w, http.StatusOK, GenerateResult{Text: "seen", Personality: "trickster"})
		case "/session/release":
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		}
	}))
	defer srv.Close()

	vision := &StaticVision{Scene: VisionScene{
		Caption: "visitor in a red scarf",
		Tags:    []string{"red", "indoor"},
	}}
	c := newTestController(srv.URL, vision)
	ctx := context.Background()

	if err := c.Pickup(ctx); err != nil {
		t.Fatalf("Pickup failed: %v", err)
	}
	if _, err := c.Utterance(ctx, "how do I look"); err != nil {
		t.Fatalf("Utterance failed: %v", err)
	}

	if gotScene == nil || gotScene.Caption != "visitor in a red scarf" {
		t.Fatalf("scene not folded into request: %+v", gotScene)
	}
}

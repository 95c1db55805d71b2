package retry

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type recordSleeper struct {
	delays []time.Duration
}

func (s *recordSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

func testPolicy(sleep *recordSleeper, maxAttempts int) Policy {
	return Policy{
		BaseDelay:      500 * time.Millisecond,
		MaxDelay:       8 * time.Second,
		Multiplier:     2.0,
		MaxAttempts:    maxAttempts,
		JitterFraction: 0.30,
		Sleep:          sleep.Sleep,
		Now:            time.Now,
		Rand:           func() float64 { return 0.5 },
	}
}

func doRequest(t *testing.T, client *http.Client, url string) func(ctx context.Context) (*http.Response, []byte, error) {
	t.Helper()
	return func(ctx context.Context) (*http.Response, []byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
		if err != nil {
			return nil, nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, nil, err
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return resp, nil, err
		}
		return resp, body, nil
	}
}

func TestDoHTTPSuccessNoRetry(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(server.Close)

	sleep := &recordSleeper{}
	resp, body, err := DoHTTP(context.Background(), testPolicy(sleep, 3), nil, doRequest(t, server.Client(), server.URL))
	if err != nil {
		t.Fatalf("DoHTTP failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if string(body) != `{"ok":true}` {
		t.Fatalf("unexpected body: %s", body)
	}
	if calls != 1 || len(sleep.delays) != 0 {
		t.Fatalf("expected single call without sleeps, calls=%d sleeps=%d", calls, len(sleep.delays))
	}
}

func TestDoHTTPRetries5xxThenSucceeds(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("done"))
	}))
	t.Cleanup(server.Close)

	sleep := &recordSleeper{}
	resp, body, err := DoHTTP(context.Background(), testPolicy(sleep, 4), nil, doRequest(t, server.Client(), server.URL))
	if err != nil {
		t.Fatalf("DoHTTP failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK || string(body) != "done" {
		t.Fatalf("unexpected result: %d %s", resp.StatusCode, body)
	}
	if calls != 3 || len(sleep.delays) != 2 {
		t.Fatalf("expected 3 calls with 2 sleeps, got calls=%d sleeps=%d", calls, len(sleep.delays))
	}
	// Экспоненциальный рост: вторая задержка больше первой (Rand фиксирован)
	if sleep.delays[1] <= sleep.delays[0] {
		t.Fatalf("expected growing backoff, got %v then %v", sleep.delays[0], sleep.delays[1])
	}
}

func TestDoHTTPExhausted(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("rate limit"))
	}))
	t.Cleanup(server.Close)

	sleep := &recordSleeper{}
	_, _, err := DoHTTP(context.Background(), testPolicy(sleep, 2), nil, doRequest(t, server.Client(), server.URL))
	if err == nil {
		t.Fatalf("expected error, got nil")
	}

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %T: %v", err, err)
	}
	if exhausted.Attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", exhausted.Attempts)
	}
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected wrapped 429 status error, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestDoHTTPRetryAfterSeconds(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	sleep := &recordSleeper{}
	_, _, err := DoHTTP(context.Background(), testPolicy(sleep, 3), nil, doRequest(t, server.Client(), server.URL))
	if err != nil {
		t.Fatalf("DoHTTP failed: %v", err)
	}
	if len(sleep.delays) != 1 || sleep.delays[0] != 2*time.Second {
		t.Fatalf("Retry-After must override backoff, got %v", sleep.delays)
	}
}

func TestDoHTTPDoesNotRetry4xx(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("bad request"))
	}))
	t.Cleanup(server.Close)

	sleep := &recordSleeper{}
	resp, _, err := DoHTTP(context.Background(), testPolicy(sleep, 3), nil, doRequest(t, server.Client(), server.URL))
	if err != nil {
		t.Fatalf("4xx is not a transport error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 passed through, got %d", resp.StatusCode)
	}
	if calls != 1 {
		t.Fatalf("400 must not be retried, got %d calls", calls)
	}
}

func TestDoHTTPContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sleep := &recordSleeper{}
	_, _, err := DoHTTP(ctx, testPolicy(sleep, 3), nil, func(ctx context.Context) (*http.Response, []byte, error) {
		t.Fatalf("do must not be called with canceled context")
		return nil, nil, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestJitterRange(t *testing.T) {
	p := withDefaults(Policy{
		BaseDelay:      time.Second,
		JitterFraction: 0.30,
		Rand:           func() float64 { return 0.0 },
	})
	// Rand=0 даёт нижнюю границу: 1s * (1 - 0.30)
	if got := p.jitterDelay(time.Second); got != 700*time.Millisecond {
		t.Fatalf("expected 700ms at lower jitter bound, got %v", got)
	}

	p.Rand = func() float64 { return 1.0 }
	if got := p.jitterDelay(time.Second); got != 1300*time.Millisecond {
		t.Fatalf("expected 1300ms at upper jitter bound, got %v", got)
	}
}

package routes

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/chatstore-backend/internal/bot"
	"github.com/angelmondragon/chatstore-backend/pkg/config"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubUpdateHandler struct {
	handled int
}

func (s *stubUpdateHandler) HandleUpdate(context.Context, bot.Update) error {
	s.handled++
	return nil
}

func newTestRouter(t *testing.T, dbErr, redisErr error) (http.Handler, *stubUpdateHandler) {
	t.Helper()
	cfg := &config.Config{
		App: config.AppConfig{Env: "test"},
		Bot: config.BotConfig{WebhookSecret: "hook-secret"},
	}
	handler := &stubUpdateHandler{}
	registry := prometheus.NewRegistry()
	router := NewRouter(cfg, nil, stubPinger{err: dbErr}, stubPinger{err: redisErr}, handler, registry)
	return router, handler
}

func TestHealthEndpoints(t *testing.T) {
	router, _ := newTestRouter(t, nil, nil)

	for _, path := range []string{"/health/live", "/health/ready"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, w.Code)
		}
		if got := w.Header().Get("X-ChatStore-Env"); got != "test" {
			t.Fatalf("%s: missing env header, got %q", path, got)
		}
	}
}

func TestReadyFailsWhenDependencyIsDown(t *testing.T) {
	router, _ := newTestRouter(t, nil, fmt.Errorf("connection refused"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when redis is down, got %d", w.Code)
	}
}

func TestWebhookRouteIsWired(t *testing.T) {
	router, handler := newTestRouter(t, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook",
		strings.NewReader(`{"update_id":1,"from":{"id":42},"text":"hi"}`))
	req.Header.Set("X-Webhook-Secret", "hook-secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if handler.handled != 1 {
		t.Fatalf("expected the update to reach the handler, got %d", handler.handled)
	}
}

func TestMetricsEndpointScrapes(t *testing.T) {
	router, _ := newTestRouter(t, nil, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

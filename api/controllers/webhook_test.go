package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/chatstore-backend/internal/bot"
	pkgerrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
	"github.com/angelmondragon/chatstore-backend/pkg/types"
)

const testSecret = "hook-secret"

type recordingHandler struct {
	updates []bot.Update
	err     error
}

func (h *recordingHandler) HandleUpdate(_ context.Context, upd bot.Update) error {
	h.updates = append(h.updates, upd)
	return h.err
}

func postWebhook(t *testing.T, handler http.HandlerFunc, secret, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook", strings.NewReader(body))
	if secret != "" {
		req.Header.Set("X-Webhook-Secret", secret)
	}
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestWebhookRejectsBadSecret(t *testing.T) {
	h := &recordingHandler{}
	handler := Webhook(h, testSecret, nil)

	w := postWebhook(t, handler, "wrong", `{"update_id":1,"from":{"id":42}}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	w = postWebhook(t, handler, "", `{"update_id":1,"from":{"id":42}}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("missing secret header must be rejected, got %d", w.Code)
	}
	if len(h.updates) != 0 {
		t.Fatalf("rejected requests must not reach the router")
	}
}

func TestWebhookClassifiesUpdateKinds(t *testing.T) {
	h := &recordingHandler{}
	handler := Webhook(h, testSecret, nil)

	cases := []struct {
		body string
		kind bot.UpdateKind
	}{
		{`{"update_id":1,"from":{"id":42,"display_name":"ann"},"text":"hello"}`, bot.UpdateKindText},
		{`{"update_id":2,"from":{"id":42},"button_id":"cart"}`, bot.UpdateKindButton},
		{`{"update_id":3,"from":{"id":42},"photo_ref":"file/1.jpg"}`, bot.UpdateKindPhoto},
	}
	for _, tc := range cases {
		w := postWebhook(t, handler, testSecret, tc.body)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s, got %d", tc.body, w.Code)
		}
	}

	if len(h.updates) != 3 {
		t.Fatalf("expected 3 dispatched updates, got %d", len(h.updates))
	}
	for i, tc := range cases {
		if h.updates[i].Kind != tc.kind {
			t.Fatalf("update %d: expected kind %s, got %s", i, tc.kind, h.updates[i].Kind)
		}
		if h.updates[i].PlatformID != 42 {
			t.Fatalf("update %d: wrong platform id %d", i, h.updates[i].PlatformID)
		}
	}
}

func TestWebhookRejectsMalformedPayload(t *testing.T) {
	h := &recordingHandler{}
	handler := Webhook(h, testSecret, nil)

	w := postWebhook(t, handler, testSecret, `{"update_id":0}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing fields, got %d", w.Code)
	}

	w = postWebhook(t, handler, testSecret, `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for broken json, got %d", w.Code)
	}
}

func TestWebhookSurfacesHandlerErrors(t *testing.T) {
	h := &recordingHandler{err: pkgerrors.New(pkgerrors.CodeDependency, "redis down")}
	handler := Webhook(h, testSecret, nil)

	w := postWebhook(t, handler, testSecret, `{"update_id":1,"from":{"id":42},"text":"hi"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for infra failure, got %d", w.Code)
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeDependency) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
}

package chatapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
)

func TestSendMessagePostsPayload(t *testing.T) {
	var got SendMessageRequest
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if r.URL.Path != "/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "tok-123")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	req := SendMessageRequest{
		PlatformID: 42,
		Text:       "Your order is confirmed.",
		Buttons:    [][]Button{{{ID: "orders", Label: "My orders"}}},
	}
	if err := client.SendMessage(context.Background(), req); err != nil {
		t.Fatalf("send message: %v", err)
	}

	if auth != "Bearer tok-123" {
		t.Fatalf("unexpected auth header %q", auth)
	}
	if got.PlatformID != 42 || got.Text != req.Text {
		t.Fatalf("unexpected payload %+v", got)
	}
	if len(got.Buttons) != 1 || got.Buttons[0][0].ID != "orders" {
		t.Fatalf("buttons not carried: %+v", got.Buttons)
	}
}

func TestSendMessageMapsAPIFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "chat blocked", http.StatusForbidden)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "tok-123")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	err = client.SendMessage(context.Background(), SendMessageRequest{PlatformID: 42, Text: "hi"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestSendFileValidation(t *testing.T) {
	client, err := NewClient("http://chat.local", "tok-123")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	err = client.SendFile(context.Background(), SendFileRequest{PlatformID: 42})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient("", "tok"); err == nil {
		t.Fatal("expected error for missing base url")
	}
	if _, err := NewClient("http://chat.local", " "); err == nil {
		t.Fatal("expected error for missing token")
	}
}

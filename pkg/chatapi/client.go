package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
)

const responseBodyReadLimit int64 = 1024

var errTokenRequired = errors.New("chat api token is required")

// Button is one tappable option attached to a message. The platform echoes
// the ID back inside the webhook update when the user taps it.
type Button struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// SendMessageRequest is one outbound message, optionally with a button
// keyboard laid out in rows.
type SendMessageRequest struct {
	PlatformID int64      `json:"platform_id"`
	Text       string     `json:"text"`
	Buttons    [][]Button `json:"buttons,omitempty"`
}

// SendFileRequest delivers a stored file by its platform reference.
type SendFileRequest struct {
	PlatformID int64  `json:"platform_id"`
	FileRef    string `json:"file_ref"`
	Caption    string `json:"caption,omitempty"`
}

// Client wraps the chat platform's outbound message API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient builds a chat API client for the given base URL and token.
func NewClient(baseURL, token string, opts ...Option) (*Client, error) {
	trimmedURL := strings.TrimSpace(baseURL)
	if trimmedURL == "" {
		return nil, errors.New("chat api base url is required")
	}
	trimmedToken := strings.TrimSpace(token)
	if trimmedToken == "" {
		return nil, errTokenRequired
	}

	client := &Client{
		baseURL:    strings.TrimRight(trimmedURL, "/"),
		token:      trimmedToken,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return client, nil
}

// SendMessage posts one text message, with an optional button keyboard.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) error {
	if req.PlatformID == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "platform id is required")
	}
	if strings.TrimSpace(req.Text) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "message text is required")
	}
	return c.post(ctx, "messages", req)
}

// SendFile delivers a previously stored file to the user.
func (c *Client) SendFile(ctx context.Context, req SendFileRequest) error {
	if req.PlatformID == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "platform id is required")
	}
	if strings.TrimSpace(req.FileRef) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "file ref is required")
	}
	return c.post(ctx, "files", req)
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "chat api client not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal chat api request")
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(path, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build chat api request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute chat api request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(
			pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			"chat api request failed",
		)
	}
	return nil
}

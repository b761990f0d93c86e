package client

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

	"github.com/google/uuid"

	"github.com/yungbote/coursetrack-backend/internal/tracker"
)

type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration

	HTTPClient *http.Client
}

// Client calls the tracking API on behalf of one learner. Requests are never retried.
type Client struct {
	baseURL    string
	token      string
	timeout    time.Duration
	httpClient *http.Client
}

var _ tracker.API = (*Client)(nil)

func New(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("baseURL required")
	}
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		return nil, errors.New("token required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{baseURL: baseURL, token: token, timeout: timeout, httpClient: hc}, nil
}

// HTTPError is a non-2xx response. Code is the server's stable error code when present.
type HTTPError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("http %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

type startSessionRequest struct {
	LessonID string `json:"lesson_id"`
}

type startSessionResponse struct {
	SessionID uuid.UUID `json:"session_id"`
}

type endSessionRequest struct {
	TotalActiveSeconds int `json:"total_active_seconds"`
	TotalIdleSeconds   int `json:"total_idle_seconds"`
}

type eventBatchRequest struct {
	SessionID string          `json:"session_id"`
	LessonID  string          `json:"lesson_id"`
	Events    []tracker.Event `json:"events"`
}

type progressResponse struct {
	Completed bool `json:"completed"`
}

func (c *Client) StartSession(ctx context.Context, lessonID uuid.UUID) (uuid.UUID, error) {
	var resp startSessionResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/sessions", startSessionRequest{LessonID: lessonID.String()}, &resp); err != nil {
		return uuid.Nil, err
	}
	if resp.SessionID == uuid.Nil {
		return uuid.Nil, errors.New("empty session_id")
	}
	return resp.SessionID, nil
}

func (c *Client) EndSession(ctx context.Context, sessionID uuid.UUID, activeSeconds, idleSeconds int) error {
	path := "/api/sessions/" + sessionID.String() + "/end"
	return c.doJSON(ctx, http.MethodPatch, path, endSessionRequest{
		TotalActiveSeconds: activeSeconds,
		TotalIdleSeconds:   idleSeconds,
	}, nil)
}

func (c *Client) SendEvents(ctx context.Context, sessionID, lessonID uuid.UUID, events []tracker.Event) error {
	if len(events) == 0 {
		return nil
	}
	return c.doJSON(ctx, http.MethodPost, "/api/events/batch", eventBatchRequest{
		SessionID: sessionID.String(),
		LessonID:  lessonID.String(),
		Events:    events,
	}, nil)
}

func (c *Client) ReportProgress(ctx context.Context, r tracker.ProgressReport) (bool, error) {
	var resp progressResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/progress", r, &resp); err != nil {
		return false, err
	}
	return resp.Completed, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	_ = resp.Body.Close()
	if readErr != nil {
		return readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseHTTPError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func parseHTTPError(status int, raw []byte) error {
	var env struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	herr := &HTTPError{StatusCode: status}
	if err := json.Unmarshal(raw, &env); err == nil && env.Error.Message != "" {
		herr.Message = env.Error.Message
		herr.Code = env.Error.Code
		return herr
	}
	herr.Message = strings.TrimSpace(string(raw))
	if herr.Message == "" {
		herr.Message = http.StatusText(status)
	}
	return herr
}

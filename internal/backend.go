package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SessionBackend is the capability interface over the external
// conversational subsystem. The router never inspects session internals;
// it only holds the opaque ids this interface hands out.
type SessionBackend interface {
	// Create starts a new conversational session and returns its id.
	Create(ctx context.Context) (string, error)

	// Invoke sends text to a session and returns its reply. This may
	// block for a long time (model inference); callers must pass a
	// cancellable context and must not hold directory locks across it.
	Invoke(ctx context.Context, sessionID, text string) (string, error)

	// Status reports the transient run state of a session.
	Status(ctx context.Context, sessionID string) (SessionStatus, error)

	// Reset discards a session's context on the backend.
	Reset(ctx context.Context, sessionID string) error
}

// AgentClient talks to the agent process over its REST API.
type AgentClient struct {
	baseURL string
	client  *http.Client
}

// NewAgentClient creates a client for the agent REST API at baseURL.
// timeout bounds every request except Invoke, which is bounded only by
// the caller's context since replies may take minutes.
func NewAgentClient(baseURL string, timeout time.Duration) *AgentClient {
	return &AgentClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type createSessionResponse struct {
	ID string `json:"id"`
}

type invokeRequest struct {
	Text string `json:"text"`
}

type invokeResponse struct {
	Reply string `json:"reply"`
}

type sessionStatusResponse struct {
	State    string `json:"state"`
	LogBytes int64  `json:"log_bytes"`
}

// Create implements SessionBackend.
func (a *AgentClient) Create(ctx context.Context) (string, error) {
	var out createSessionResponse
	if err := a.do(ctx, http.MethodPost, "/sessions", nil, &out, a.client); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", &ExternalUnavailableError{Subsystem: "agent", Err: fmt.Errorf("empty session id")}
	}
	return out.ID, nil
}

// Invoke implements SessionBackend. The request deliberately bypasses the
// client timeout: inference latency is unbounded and cancellation is the
// caller's job via ctx.
func (a *AgentClient) Invoke(ctx context.Context, sessionID, text string) (string, error) {
	var out invokeResponse
	path := "/sessions/" + url.PathEscape(sessionID) + "/messages"
	untimed := &http.Client{Transport: a.client.Transport}
	if err := a.do(ctx, http.MethodPost, path, invokeRequest{Text: text}, &out, untimed); err != nil {
		return "", err
	}
	return out.Reply, nil
}

// Status implements SessionBackend.
func (a *AgentClient) Status(ctx context.Context, sessionID string) (SessionStatus, error) {
	var out sessionStatusResponse
	path := "/sessions/" + url.PathEscape(sessionID)
	if err := a.do(ctx, http.MethodGet, path, nil, &out, a.client); err != nil {
		return SessionStatus{}, err
	}
	state := SessionIdle
	if out.State == string(SessionRunning) {
		state = SessionRunning
	}
	return SessionStatus{State: state, LogBytes: out.LogBytes}, nil
}

// Reset implements SessionBackend.
func (a *AgentClient) Reset(ctx context.Context, sessionID string) error {
	path := "/sessions/" + url.PathEscape(sessionID)
	return a.do(ctx, http.MethodDelete, path, nil, nil, a.client)
}

// do issues one JSON request against the agent API. Transport and HTTP
// failures are wrapped as ExternalUnavailableError so they render as a
// transient condition at the chat surface.
func (a *AgentClient) do(ctx context.Context, method, path string, in, out interface{}, client *http.Client) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return &ExternalUnavailableError{Subsystem: "agent", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ExternalUnavailableError{
			Subsystem: "agent",
			Err:       fmt.Errorf("unexpected status %d on %s %s", resp.StatusCode, method, path),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ExternalUnavailableError{Subsystem: "agent", Err: fmt.Errorf("bad response body: %w", err)}
	}
	return nil
}

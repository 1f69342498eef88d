package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/mmcdole/cinetrack/internal/domain"
)

const (
	defaultTimeout    = 30 * time.Second
	maxRetries        = 3
	baseRetryDelay    = 500 * time.Millisecond
	maxReconnectDelay = 30 * time.Second
)

// Snapshot is the message pushed over the library WebSocket
type Snapshot struct {
	Type    string         `json:"type"`
	Entries []domain.Entry `json:"entries"`
}

// ErrorResponse is the error body returned by the collection server
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RemoteBackend implements domain.Backend against a collection server.
// REST calls perform writes; a WebSocket delivers snapshots, including
// changes made by other sessions of the same user.
type RemoteBackend struct {
	baseURL    string
	token      string
	httpClient *http.Client
	dialer     *websocket.Dialer
	logger     *slog.Logger
}

// NewRemoteBackend creates a backend for the collection at baseURL
func NewRemoteBackend(baseURL, token string, logger *slog.Logger) *RemoteBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// doRequest performs an authenticated request against the collection API.
// Server errors (5xx) are retried with exponential backoff.
func (r *RemoteBackend) doRequest(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	reqURL := r.baseURL + path

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if attempt > 0 {
			delay := baseRetryDelay * time.Duration(1<<(attempt-1)) // 500ms, 1s, 2s
			r.logger.Debug("retrying request", "attempt", attempt, "delay", delay, "url", reqURL)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+r.token)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		r.logger.Debug("collection request", "method", method, "url", reqURL, "attempt", attempt)

		resp, err := r.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.logger.Error("collection request failed", "error", err)
			return nil, domain.ErrServerOffline
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode == http.StatusUnauthorized {
			return nil, domain.ErrAuthFailed
		}

		if resp.StatusCode >= 500 && resp.StatusCode < 600 {
			lastErr = fmt.Errorf("server error: %d - %s", resp.StatusCode, decodeErrorMessage(respBody))
			r.logger.Warn("collection server error, will retry",
				"status", resp.StatusCode,
				"attempt", attempt,
				"maxRetries", maxRetries,
				"path", path,
			)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			r.logger.Error("collection request error", "status", resp.StatusCode, "body", string(respBody))
			return nil, fmt.Errorf("unexpected status code: %d: %s", resp.StatusCode, decodeErrorMessage(respBody))
		}

		return respBody, nil
	}

	r.logger.Error("collection request failed after retries", "error", lastErr, "url", reqURL)
	return nil, lastErr
}

func decodeErrorMessage(body []byte) string {
	var er ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Message != "" {
		return er.Message
	}
	return strings.TrimSpace(string(body))
}

func (r *RemoteBackend) Load(ctx context.Context) ([]domain.Entry, error) {
	body, err := r.doRequest(ctx, http.MethodGet, "/api/v1/library", nil)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse library: %w", err)
	}
	if snap.Entries == nil {
		snap.Entries = []domain.Entry{}
	}
	return snap.Entries, nil
}

func (r *RemoteBackend) Put(ctx context.Context, e domain.Entry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode entry: %w", err)
	}
	_, err = r.doRequest(ctx, http.MethodPut, "/api/v1/library/"+url.PathEscape(e.ID), payload)
	return err
}

func (r *RemoteBackend) Delete(ctx context.Context, id string) error {
	_, err := r.doRequest(ctx, http.MethodDelete, "/api/v1/library/"+url.PathEscape(id), nil)
	return err
}

// Watch streams snapshots from the server. The first connection must
// succeed; later disconnects are retried with backoff until ctx is done.
func (r *RemoteBackend) Watch(ctx context.Context, fn func([]domain.Entry)) error {
	wsURL, err := r.wsURL()
	if err != nil {
		return err
	}

	conn, err := r.dial(ctx, wsURL)
	if err != nil {
		return err
	}

	delay := baseRetryDelay
	for {
		err := r.readSnapshots(ctx, conn, fn)
		if ctx.Err() != nil {
			return nil
		}
		r.logger.Warn("library stream disconnected, reconnecting", "error", err, "delay", delay)

		for {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil
			}
			delay = min(delay*2, maxReconnectDelay)

			conn, err = r.dial(ctx, wsURL)
			if err == nil {
				delay = baseRetryDelay
				break
			}
			if errors.Is(err, domain.ErrAuthFailed) {
				return err
			}
			if ctx.Err() != nil {
				return nil
			}
			r.logger.Debug("reconnect failed", "error", err, "delay", delay)
		}
	}
}

func (r *RemoteBackend) wsURL() (string, error) {
	u, err := url.Parse(r.baseURL + "/api/v1/library/ws")
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.String(), nil
}

func (r *RemoteBackend) dial(ctx context.Context, wsURL string) (*websocket.Conn, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+r.token)

	conn, resp, err := r.dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, domain.ErrAuthFailed
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Error("library stream dial failed", "error", err)
		return nil, domain.ErrServerOffline
	}
	return conn, nil
}

// readSnapshots delivers snapshots from conn until it fails or ctx is done
func (r *RemoteBackend) readSnapshots(ctx context.Context, conn *websocket.Conn, fn func([]domain.Entry)) error {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var snap Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			r.logger.Warn("malformed snapshot", "error", err)
			continue
		}
		if snap.Entries == nil {
			snap.Entries = []domain.Entry{}
		}
		fn(snap.Entries)
	}
}

func (r *RemoteBackend) Close() error {
	r.httpClient.CloseIdleConnections()
	return nil
}

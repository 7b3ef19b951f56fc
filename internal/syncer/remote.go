package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mediconsult/mediconsult-api/internal/model"
	"github.com/mediconsult/mediconsult-api/pkg/circuitbreaker"
)

// Remote is the server side of the sync protocol. The caller's identity rides
// on the transport (bearer token); role scoping happens server-side.
type Remote interface {
	PushBatch(ctx context.Context, req *model.PushRequest) (*model.PushResponse, error)
	PullSince(ctx context.Context, sinceMillis int64) (*model.PullResponse, error)
}

// TransportError wraps network-level failures, distinct from domain errors:
// the affected entities stay pending or failed, never assumed synced.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("sync %s transport failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPRemote talks to the sync endpoints of the booking server. A circuit
// breaker guards the transport so a dead server fails fast instead of
// stalling every entity group on its own timeout.
type HTTPRemote struct {
	baseURL string
	token   string
	client  *http.Client
	breaker *circuitbreaker.CircuitBreaker
}

func NewHTTPRemote(baseURL, token string, timeout time.Duration) *HTTPRemote {
	return &HTTPRemote{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "sync-remote",
			MaxFailures: 3,
			Timeout:     15 * time.Second,
		}),
	}
}

// envelope mirrors the server's response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (r *HTTPRemote) PushBatch(ctx context.Context, req *model.PushRequest) (*model.PushResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode push batch: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/api/v1/sync/push", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build push request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+r.token)

	var resp model.PushResponse
	if err := r.do(httpReq, "push", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *HTTPRemote) PullSince(ctx context.Context, sinceMillis int64) (*model.PullResponse, error) {
	url := fmt.Sprintf("%s/api/v1/sync/pull?since=%d", r.baseURL, sinceMillis)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build pull request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+r.token)

	var resp model.PullResponse
	if err := r.do(httpReq, "pull", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *HTTPRemote) do(req *http.Request, op string, out interface{}) error {
	var httpResp *http.Response
	err := r.breaker.Execute(func() error {
		var doErr error
		httpResp, doErr = r.client.Do(req)
		return doErr
	})
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("malformed response: %w", err)}
	}
	if httpResp.StatusCode != http.StatusOK || !env.Success {
		message := httpResp.Status
		if env.Error != nil {
			message = env.Error.Message
		}
		return fmt.Errorf("sync %s rejected: %s", op, message)
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("malformed response payload: %w", err)}
	}
	return nil
}

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"duck-storefront/internal/util"

	"go.uber.org/zap"
)

// Result is the explicit outcome of a status-bearing backend call.
// Success is only ever an explicit 200; a missing status is a failure.
type Result struct {
	Status int
	Err    error
}

// OK reports an explicit success
func (r Result) OK() bool {
	return r.Status == http.StatusOK && r.Err == nil
}

// Client talks JSON over HTTP to the inventory/account backend
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a backend client
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     util.GetLogger(),
	}
}

// response is a raw backend reply
type response struct {
	status int
	body   []byte
}

// hasBody reports whether the backend returned a JSON value other than null
func (r *response) hasBody() bool {
	trimmed := bytes.TrimSpace(r.body)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func (r *response) decode(op string, out interface{}) error {
	if err := json.Unmarshal(r.body, out); err != nil {
		return &StatusError{Op: op, Status: r.status, Kind: fmt.Errorf("%w: undecodable body: %v", ErrServerFault, err)}
	}
	return nil
}

// do issues one request. Transport failures come back as a StatusError wrapping ErrTransport.
func (c *Client) do(ctx context.Context, op, method, path string, payload interface{}) (*response, error) {
	ctx, span := util.StartSpan(ctx, "Gateway."+op)
	defer span.End()

	start := time.Now()
	status := 0
	defer func() {
		util.GatewayRequestDuration.WithLabelValues(op, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	}()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	util.InjectTrace(ctx, req.Header)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		util.FailSpan(span, err)
		c.logger.Warn("Backend call failed",
			zap.String("op", op),
			zap.String("path", path),
			zap.Error(err))
		return nil, &StatusError{Op: op, Kind: fmt.Errorf("%w: %v", ErrTransport, err)}
	}
	defer resp.Body.Close()

	status = resp.StatusCode
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		util.FailSpan(span, err)
		return nil, &StatusError{Op: op, Status: status, Kind: fmt.Errorf("%w: %v", ErrTransport, err)}
	}

	c.logger.Debug("Backend call",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status))

	return &response{status: status, body: raw}, nil
}

// exec runs a call whose only output is its status
func (c *Client) exec(ctx context.Context, op, method, path string, payload interface{}, kinds statusKinds) Result {
	resp, err := c.do(ctx, op, method, path, payload)
	if err != nil {
		return Result{Err: err}
	}
	return Result{Status: resp.status, Err: classify(op, resp.status, kinds)}
}

// fetch runs a call that decodes a 200 body into out
func (c *Client) fetch(ctx context.Context, op, method, path string, payload, out interface{}, kinds statusKinds) Result {
	resp, err := c.do(ctx, op, method, path, payload)
	if err != nil {
		return Result{Err: err}
	}
	if err := classify(op, resp.status, kinds); err != nil {
		return Result{Status: resp.status, Err: err}
	}
	if !resp.hasBody() {
		return Result{Status: resp.status, Err: &StatusError{Op: op, Status: resp.status, Kind: fmt.Errorf("%w: empty body", ErrServerFault)}}
	}
	if err := resp.decode(op, out); err != nil {
		return Result{Status: resp.status, Err: err}
	}
	return Result{Status: resp.status}
}

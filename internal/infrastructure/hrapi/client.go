package hrapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hrm-gateway/internal/domain"
	"github.com/hrm-gateway/internal/pkg/id"
	"github.com/hrm-gateway/internal/pkg/retry"
)

// Client issues JSON requests against the upstream HR API. It owns the
// request timeout and the bounded retry policy; caching is not its
// concern and lives entirely in the querycache layer.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    retry.Backoff
	logger     *slog.Logger
}

// Options configures a Client. Zero values fall back to the defaults the
// upstream API is deployed with (10s timeout, 3 retries).
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	HTTPClient *http.Client
	Backoff    retry.Backoff
	Logger     *slog.Logger
}

func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	} else if maxRetries == 0 {
		maxRetries = 3
	}
	backoff := opts.Backoff
	if backoff == nil {
		backoff = retry.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		maxRetries: maxRetries,
		backoff:    backoff,
		logger:     logger,
	}
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) put(ctx context.Context, path string, payload, out any) error {
	return c.do(ctx, http.MethodPut, path, payload, out)
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	return c.do(ctx, http.MethodPost, path, payload, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// do runs one upstream call with bounded exponential retry. POST is never
// retried: creation endpoints are not idempotent. Other 4xx responses are
// never retried either, only network failures and 429/5xx.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s %s payload: %w", method, path, err)
		}
		body = b
	}

	// One correlation id per logical call; retries reuse it so the
	// upstream API can tie the attempts together.
	requestID := id.New()

	for attempt := 0; ; attempt++ {
		err := c.doOnce(ctx, method, path, requestID, body, out)
		if err == nil {
			return nil
		}
		if method == http.MethodPost || attempt >= c.maxRetries || !domain.IsRetryable(err) {
			return err
		}
		c.logger.Warn("retrying upstream call",
			"method", method, "path", path, "request_id", requestID,
			"attempt", attempt+1, "error", err)
		if waitErr := retry.Sleep(ctx, c.backoff.Next(attempt+1)); waitErr != nil {
			return &domain.NetworkError{Op: method + " " + path, Err: waitErr}
		}
	}
}

func (c *Client) doOnce(ctx context.Context, method, path, requestID string, body []byte, out any) error {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok := TokenFromContext(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.NetworkError{Op: op, Err: err}
	}
	respBody, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return &domain.NetworkError{Op: op, Err: readErr}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &domain.ServerError{Status: resp.StatusCode, Detail: decodeDetail(respBody)}
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

// decodeDetail pulls a human-readable message out of an error body. The
// upstream API uses {"detail": ...}; {"error"} and {"message"} are
// accepted for proxies in between.
func decodeDetail(body []byte) string {
	var parsed struct {
		Detail  string `json:"detail"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		for _, s := range []string{parsed.Detail, parsed.Error, parsed.Message} {
			if strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return strings.TrimSpace(string(body))
}

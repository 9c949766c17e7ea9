// Package streamclient consumes the batch backtest event stream over HTTP.
package streamclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"

	apimodels "github.com/yourusername/cryptodash-backtest/internal/api/models"
)

const streamPath = "/api/v1/backtests/stream"

// Config holds configuration for the stream client
type Config struct {
	BaseURL        string
	MaxRetries     int
	RetryWaitMin   time.Duration
	RetryWaitMax   time.Duration
	ConnectTimeout time.Duration
}

// DefaultConfig returns recommended defaults
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:        baseURL,
		MaxRetries:     3,
		RetryWaitMin:   200 * time.Millisecond,
		RetryWaitMax:   5 * time.Second,
		ConnectTimeout: 30 * time.Second,
	}
}

// ClientEvent is one decoded server-sent event
type ClientEvent struct {
	Kind string
	Data json.RawMessage
}

// Decode unmarshals the event payload into v
func (e ClientEvent) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}

// APIError is a request the server refused before streaming
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d %s: %s", e.Status, e.Code, e.Message)
}

// Client streams batch backtests from a remote server
type Client struct {
	http    *retryablehttp.Client
	baseURL string
}

// New creates a stream client. Retries only cover establishing the stream;
// a stream that breaks midway is reported, not resumed.
func New(cfg Config, logger *logrus.Logger) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.CheckRetry = connectRetryPolicy()
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	// streams are long lived; only the wait for response headers is bounded
	retryClient.HTTPClient.Timeout = 0
	if transport, ok := retryClient.HTTPClient.Transport.(*http.Transport); ok {
		transport.ResponseHeaderTimeout = cfg.ConnectTimeout
	}
	if logger != nil {
		retryClient.Logger = logrus.NewEntry(logger).WithField("component", "streamclient")
	} else {
		retryClient.Logger = nil
	}

	return &Client{
		http:    retryClient,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// Stream posts req and calls fn for every event until the stream ends, fn
// returns an error, or ctx is cancelled. Cancelling ctx disconnects, which
// stops the server run.
func (c *Client) Stream(ctx context.Context, req apimodels.BacktestRequest, fn func(ClientEvent) error) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+streamPath, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}
	return ReadEvents(resp.Body, fn)
}

// ReadEvents parses a text/event-stream body
func ReadEvents(r io.Reader, fn func(ClientEvent) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var kind string
	var data []string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if kind == "" && len(data) == 0 {
				continue
			}
			if kind == "" {
				kind = "message"
			}
			if err := fn(ClientEvent{Kind: kind, Data: json.RawMessage(strings.Join(data, "\n"))}); err != nil {
				return err
			}
			kind, data = "", nil
		case strings.HasPrefix(line, ":"):
			// comment
		case strings.HasPrefix(line, "event:"):
			kind = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stream interrupted: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Code: "http_error", Message: http.StatusText(resp.StatusCode)}
	var body apimodels.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err == nil && body.Error.Code != "" {
		apiErr.Code = body.Error.Code
		apiErr.Message = body.Error.Message
	}
	return apiErr
}

// connectRetryPolicy retries network failures and transient gateway answers
func connectRetryPolicy() retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return true, nil
		}
		switch resp.StatusCode {
		case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusGatewayTimeout:
			return true, nil
		}
		return false, nil
	}
}

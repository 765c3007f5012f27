package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rickgao/gift-heatmap/internal/version"
)

// Defaults for Client.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRetries   = 3
	DefaultRetryWait    = time.Second
	DefaultRetryMaxWait = 5 * time.Second
	SendImagePath       = "/api/send-image"
)

// SendError is a non-2xx response from the send-image endpoint.
type SendError struct {
	StatusCode int
	Message    string
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send image: status %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the request should be retried.
func (e *SendError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// SendRequest is the body of a send-image call.
type SendRequest struct {
	ID    string `json:"id"`
	Image string `json:"image"`
}

// Client sends images to the send-image endpoint.
type Client struct {
	client *resty.Client
	logger *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.SetTimeout(d)
	}
}

// WithRetries sets the retry count and the backoff bounds.
func WithRetries(max int, wait, maxWait time.Duration) ClientOption {
	return func(c *Client) {
		c.client.SetRetryCount(max)
		c.client.SetRetryWaitTime(wait)
		c.client.SetRetryMaxWaitTime(maxWait)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	rc := resty.New()
	rc.SetBaseURL(baseURL)
	rc.SetHeader("Accept", "application/json")
	rc.SetHeader("User-Agent", version.UserAgent())
	rc.SetTimeout(DefaultTimeout)
	rc.SetRetryCount(DefaultMaxRetries)
	rc.SetRetryWaitTime(DefaultRetryWait)
	rc.SetRetryMaxWaitTime(DefaultRetryMaxWait)

	c := &Client{client: rc, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}

	rc.AddRetryCondition(func(resp *resty.Response, err error) bool {
		if err != nil || resp == nil {
			return true
		}
		return (&SendError{StatusCode: resp.StatusCode()}).IsRetryable()
	})
	rc.AddRetryHook(func(resp *resty.Response, err error) {
		if resp == nil {
			c.logger.Debug("retrying send image", "error", err)
			return
		}
		c.logger.Debug("retrying send image",
			"attempt", resp.Request.Attempt,
			"status", resp.StatusCode(),
			"error", err,
		)
	})
	return c
}

// Send posts a base64-encoded image for userID. 4xx responses are not retried.
func (c *Client) Send(ctx context.Context, userID, base64Image string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(SendRequest{ID: userID, Image: base64Image}).
		Post(SendImagePath)
	if err != nil {
		return fmt.Errorf("send image: %w", err)
	}
	if resp.IsError() {
		return &SendError{StatusCode: resp.StatusCode(), Message: http.StatusText(resp.StatusCode())}
	}

	c.logger.Info("image sent", "user_id", userID, "attempts", resp.Request.Attempt)
	return nil
}

// Package apiclient is a JSON-over-HTTP client for the fraud scoring API.
//
// Every request carries a JSON content type, runs under an explicit
// timeout, and treats non-2xx responses as failures. Failures are logged,
// reported to the configured notifier as a user-facing error banner, and
// returned to the caller.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/fraudguard/internal/notify"
	"github.com/JonMunkholm/fraudguard/internal/perf"
)

const (
	DefaultTimeout    = 10 * time.Second
	DefaultHealthPath = "/api/health"
	DefaultDetectPath = "/detect"

	// FailureMessage is the banner text shown when a request fails.
	FailureMessage = "Failed to fetch data. Please try again."

	maxErrorBody = 4 << 10
)

// Notifier receives the error banner for failed requests.
// *notify.Center implements it.
type Notifier interface {
	Error(message string) notify.Banner
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: HTTP %d", e.Method, e.URL, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// Options configures a single request.
type Options struct {
	Method  string
	Headers map[string]string
	Body    any
	// Timeout overrides the client timeout when > 0.
	Timeout time.Duration
	// Notifier overrides the client notifier for this call.
	Notifier Notifier
}

// Client issues JSON requests against a base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	healthPath string
	detectPath string
	notifier   Notifier
	logger     *slog.Logger
	tracker    *perf.Tracker
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the default per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHealthPath sets the path probed by Health.
func WithHealthPath(p string) Option {
	return func(c *Client) {
		if p != "" {
			c.healthPath = p
		}
	}
}

// WithDetectPath sets the path Predict posts to.
func WithDetectPath(p string) Option {
	return func(c *Client) {
		if p != "" {
			c.detectPath = p
		}
	}
}

// WithNotifier sets the default notifier for failures.
func WithNotifier(n Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTracker times every request under "api <METHOD> <path>".
func WithTracker(t *perf.Tracker) Option {
	return func(c *Client) { c.tracker = t }
}

// New creates a client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		healthPath: DefaultHealthPath,
		detectPath: DefaultDetectPath,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Fetch sends a request to url (absolute, or relative to the base URL) and
// decodes a JSON response into dst when dst is non-nil.
func (c *Client) Fetch(ctx context.Context, url string, opts Options, dst any) error {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	full := c.resolve(url)

	err := c.do(ctx, method, full, opts, dst)
	if err != nil {
		c.logger.ErrorContext(ctx, "API request failed", "method", method, "url", full, "error", err)
		n := opts.Notifier
		if n == nil {
			n = c.notifier
		}
		if n != nil {
			n.Error(FailureMessage)
		}
	}
	return err
}

func (c *Client) do(ctx context.Context, method, url string, opts Options, dst any) error {
	timeout := c.timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if opts.Body != nil {
		raw, err := json.Marshal(opts.Body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	var start time.Time
	if c.tracker != nil {
		start = c.tracker.Now()
	}
	resp, err := c.httpClient.Do(req)
	if c.tracker != nil {
		c.tracker.Since("api "+method+" "+req.URL.Path, start)
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if dst == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Health probes the health path. It does not raise a banner; callers
// decide how to surface an unhealthy API.
func (c *Client) Health(ctx context.Context) error {
	err := c.do(ctx, http.MethodGet, c.resolve(c.healthPath), Options{}, nil)
	if err != nil {
		c.logger.WarnContext(ctx, "API health check failed", "error", err)
	}
	return err
}

// CheckHealth makes Client usable as a health checker.
func (c *Client) CheckHealth(ctx context.Context) error { return c.Health(ctx) }

func (c *Client) resolve(url string) string {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	if !strings.HasPrefix(url, "/") {
		url = "/" + url
	}
	return c.baseURL + url
}

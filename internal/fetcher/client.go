package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/ahcview/pkg/metrics"
)

const (
	sessionCookie = "REVEL_SESSION"
	loginMarker   = "ログイン"
	maxBodyBytes  = 256 << 20
)

// Request kinds used as metric labels.
const (
	kindContests = "contests"
	kindHome     = "home"
	kindResults  = "results"
	kindExtended = "extended"
)

// Client performs paced GET requests against the upstream sites.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	session   string
}

// ClientOption applies a configuration option to the Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithSession attaches the login cookie value to authenticated requests.
func WithSession(value string) ClientOption {
	return func(c *Client) {
		c.session = value
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a client allowing one request per interval. A zero
// interval disables pacing.
func NewClient(interval, timeout time.Duration, opts ...ClientOption) *Client {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	c := &Client{
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadSession reads the login cookie value from a JSON file of the form
// {"REVEL_SESSION": "..."}.
func LoadSession(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSession, err)
	}
	var cookies map[string]any
	if err := json.Unmarshal(data, &cookies); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSession, err)
	}
	value, _ := cookies[sessionCookie].(string)
	if value == "" {
		return "", fmt.Errorf("%w: %s missing from %s", ErrSession, sessionCookie, path)
	}
	return value, nil
}

// CheckLogin fetches the home page with the session cookie and fails with
// ErrNotLoggedIn when the page still offers a login link.
func (c *Client) CheckLogin(ctx context.Context, homeURL string) error {
	body, err := c.get(ctx, kindHome, homeURL, true)
	if err != nil {
		return err
	}
	if strings.Contains(string(body), loginMarker) {
		return ErrNotLoggedIn
	}
	return nil
}

// GetJSON fetches url and decodes its JSON body into v. A leading BOM or
// whitespace is tolerated.
func (c *Client) GetJSON(ctx context.Context, kind, url string, authenticated bool, v any) error {
	start := time.Now()
	body, err := c.get(ctx, kind, url, authenticated)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(trimPreamble(string(body))), v); err != nil {
		metrics.RecordFetchRequest(kind, metrics.OutcomeMalformed, float64(time.Since(start).Milliseconds()))
		return fmt.Errorf("%w: %s: %v", ErrDecode, url, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, kind, url string, authenticated bool) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if authenticated && c.session != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: c.session})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordFetchRequest(kind, metrics.OutcomeError, float64(time.Since(start).Milliseconds()))
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	elapsed := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordFetchRequest(kind, metrics.OutcomeError, elapsed)
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		outcome := metrics.OutcomeError
		if resp.StatusCode == http.StatusNotFound {
			outcome = metrics.OutcomeMissing
		}
		metrics.RecordFetchRequest(kind, outcome, elapsed)
		return nil, fmt.Errorf("%w: %s returned %d", ErrStatus, url, resp.StatusCode)
	}
	metrics.RecordFetchRequest(kind, metrics.OutcomeOK, elapsed)
	return body, nil
}

func trimPreamble(s string) string {
	return strings.TrimLeft(s, "\ufeff \n\r\t")
}

package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var (
	ErrNotFound     = errors.New("yahoo: symbol not found")
	ErrUnauthorized = errors.New("yahoo: unauthorized")
)

const maxResponseSizeBytes = 4 << 20

type Config struct {
	BaseURL           string        `envconfig:"BASE_URL" split_words:"true" default:"https://query2.finance.yahoo.com"`
	CookieURL         string        `envconfig:"COOKIE_URL" split_words:"true" default:"https://fc.yahoo.com"`
	UserAgent         string        `envconfig:"USER_AGENT" split_words:"true" default:"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"`
	Timeout           time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"15s"`
	RequestsPerSecond float64       `envconfig:"REQUESTS_PER_SECOND" split_words:"true" default:"2"`
	Burst             int           `envconfig:"BURST" split_words:"true" default:"4"`
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// Client talks to the public Yahoo Finance chart and quoteSummary endpoints.
type Client struct {
	baseURL    string
	cookieURL  string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter

	mu    sync.Mutex
	crumb string
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("yahoo base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid yahoo base url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		baseURL:   baseURL,
		cookieURL: strings.TrimSpace(cfg.CookieURL),
		userAgent: strings.TrimSpace(cfg.UserAgent),
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		limiter: rate.NewLimiter(limit, burst),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.httpClient.Jar == nil {
		c.httpClient.Jar = jar
	}

	return c, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	raw, status, err := c.get(ctx, endpoint)
	if err != nil {
		return err
	}

	switch {
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: status=%d", ErrUnauthorized, status)
	case status < http.StatusOK || status >= http.StatusMultipleChoices:
		return fmt.Errorf("yahoo http status=%d body=%s", status, truncate(raw, 256))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode yahoo response: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build yahoo request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json,text/plain,*/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("execute yahoo request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read yahoo response: %w", err)
	}
	return raw, resp.StatusCode, nil
}

// ensureCrumb primes the session cookie and fetches the crumb required by
// quoteSummary. The crumb is cached until a request is rejected.
func (c *Client) ensureCrumb(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.crumb != "" {
		return c.crumb, nil
	}

	if c.cookieURL != "" {
		// fc.yahoo.com answers 404 but still sets the session cookie.
		if _, _, err := c.get(ctx, c.cookieURL); err != nil {
			return "", fmt.Errorf("prime yahoo cookie: %w", err)
		}
	}

	raw, status, err := c.get(ctx, c.baseURL+"/v1/test/getcrumb")
	if err != nil {
		return "", fmt.Errorf("fetch yahoo crumb: %w", err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("%w: crumb status=%d", ErrUnauthorized, status)
	}

	crumb := strings.TrimSpace(string(raw))
	if crumb == "" || strings.ContainsAny(crumb, "<{") {
		return "", fmt.Errorf("%w: invalid crumb", ErrUnauthorized)
	}
	c.crumb = crumb
	return crumb, nil
}

func (c *Client) resetCrumb() {
	c.mu.Lock()
	c.crumb = ""
	c.mu.Unlock()
}

func truncate(raw []byte, n int) string {
	if len(raw) <= n {
		return string(raw)
	}
	return string(raw[:n]) + "..."
}

// Package recommend calls the external recommendation endpoint with a
// reader's history.
package recommend

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/bookmate/bookmate-server/internal/domain"
	"github.com/bookmate/bookmate-server/internal/ratelimit"
)

const (
	defaultRPS     = 1.0
	defaultBurst   = 3
	defaultTimeout = 20 * time.Second

	maxResponseBytes = 1 << 20
)

// Options configures a Client.
type Options struct {
	URL     string
	Timeout time.Duration
	Logger  *slog.Logger
}

// Client is a rate-limited recommendation client.
type Client struct {
	http     *http.Client
	limiter  *ratelimit.Limiter
	logger   *slog.Logger
	endpoint string
	host     string
}

// New creates a client. An empty URL yields a client whose Fetch always
// returns ErrDisabled.
func New(opts Options) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	c := &Client{
		http:     &http.Client{Timeout: opts.Timeout},
		limiter:  ratelimit.New(defaultRPS, defaultBurst),
		logger:   opts.Logger,
		endpoint: opts.URL,
	}
	if opts.URL != "" {
		u, err := url.Parse(opts.URL)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("parse recommendation url %q: invalid", opts.URL)
		}
		c.host = u.Host
	}
	return c, nil
}

// Enabled reports whether an endpoint is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.endpoint != ""
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// Shutdown lets the injector close the client.
func (c *Client) Shutdown() error {
	c.Close()
	return nil
}

type request struct {
	ReadingHistory []*domain.Book `json:"reading_history"`
}

type response struct {
	Recommendations []domain.Recommendation `json:"recommendations"`
	TopGenres       []string                `json:"top_genres"`
	TopAuthors      []string                `json:"top_authors"`
}

// Fetch posts the history and returns the service's answer. Missing
// response fields come back as empty lists.
func (c *Client) Fetch(ctx context.Context, history []*domain.Book) (*domain.Recommendations, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	if history == nil {
		history = []*domain.Book{}
	}
	payload, err := json.Marshal(request{ReadingHistory: history})
	if err != nil {
		return nil, fmt.Errorf("encode history: %w", err)
	}

	body, err := c.do(ctx, payload)
	if err != nil {
		return nil, err
	}

	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	out := &domain.Recommendations{
		Items:      make([]domain.Recommendation, 0, len(resp.Recommendations)),
		TopGenres:  nonNil(resp.TopGenres),
		TopAuthors: nonNil(resp.TopAuthors),
	}
	for _, r := range resp.Recommendations {
		r.Description = toMarkdown(r.Description)
		out.Items = append(out.Items, r)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx, c.host); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "BookMate/1.0")

	c.logger.Debug("recommendation request", "host", c.host, "bytes", len(payload))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusBadRequest:
		return nil, ErrBadRequest
	case resp.StatusCode >= 500:
		return nil, ErrServer
	default:
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Package websearch adapts public search engines to collect.Searcher.
package websearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AlosedAG/contract-finder/internal/collect"
	"github.com/AlosedAG/contract-finder/internal/models"
	"github.com/AlosedAG/contract-finder/pkg/utils"
)

// Provider names accepted by New.
const (
	ProviderDuckDuckGo = "duckduckgo"
	ProviderBing       = "bing"
	ProviderStatic     = "static"
)

// DefaultUserAgent mimics a desktop browser; the HTML endpoints serve
// challenge pages to unknown agents more eagerly.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// ErrChallenge marks a CAPTCHA or bot-check page in place of results.
var ErrChallenge = errors.New("search challenge page")

// Config selects and tunes a search provider.
type Config struct {
	Provider   string        `yaml:"provider"`    // default: duckduckgo
	BaseURL    string        `yaml:"base_url"`    // default: the provider's public endpoint
	StaticPath string        `yaml:"static_path"` // results fixture for the static provider
	Interval   time.Duration `yaml:"interval"`    // default: 3s between queries
	Burst      int           `yaml:"burst"`       // default: 1
	Timeout    time.Duration `yaml:"timeout"`     // default: 20s
	UserAgent  string        `yaml:"user_agent"`
	MaxResults int           `yaml:"max_results"` // default: 30 per query
}

// DefaultConfig returns the default search configuration.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderDuckDuckGo,
		Interval:   3 * time.Second,
		Burst:      1,
		Timeout:    20 * time.Second,
		UserAgent:  DefaultUserAgent,
		MaxResults: 30,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.Provider == "" {
		c.Provider = d.Provider
	}
	if c.Interval == 0 {
		c.Interval = d.Interval
	}
	if c.Burst <= 0 {
		c.Burst = d.Burst
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	if c.MaxResults <= 0 {
		c.MaxResults = d.MaxResults
	}
}

// Option configures an adapter built by New.
type Option func(*options)

type options struct {
	http      *http.Client
	challenge ChallengeHandler
	logger    *zap.Logger
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.http = hc
	}
}

// WithChallengeHandler sets who clears challenge pages.
func WithChallengeHandler(h ChallengeHandler) Option {
	return func(o *options) {
		o.challenge = h
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = utils.OrNop(l)
	}
}

// New builds the configured provider, wrapped in a rate limiter when an
// interval is set. A negative interval disables throttling.
func New(cfg Config, opts ...Option) (collect.Searcher, error) {
	cfg.ApplyDefaults()
	o := &options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	if o.http == nil {
		o.http = &http.Client{Timeout: cfg.Timeout}
	}

	var s collect.Searcher
	switch strings.ToLower(cfg.Provider) {
	case ProviderDuckDuckGo:
		s = NewDuckDuckGo(cfg, o)
	case ProviderBing:
		s = NewBing(cfg, o)
	case ProviderStatic:
		static, err := LoadStatic(cfg.StaticPath)
		if err != nil {
			return nil, err
		}
		return static, nil
	default:
		return nil, fmt.Errorf("unknown search provider %q", cfg.Provider)
	}
	if cfg.Interval > 0 {
		s = NewThrottled(s, cfg.Interval, cfg.Burst)
	}
	return s, nil
}

// client is the HTTP plumbing shared by the engine adapters.
type client struct {
	cfg  Config
	opts *options
}

// get fetches pageURL and classifies the response: 429 and 403 are rate
// limits, challenge pages are ErrChallenge.
func (c *client) get(ctx context.Context, pageURL, accept string, challenge func(status int, body []byte) bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.opts.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: HTTP 429", models.ErrRateLimited)
	case challenge(resp.StatusCode, body):
		return nil, ErrChallenge
	case resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: HTTP 403", models.ErrRateLimited)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("search HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body[:min(len(body), 200)])))
	}
	return body, nil
}

// fetchResults runs get, letting the challenge handler clear one challenge
// page before retrying. Without a handler a challenge is a rate limit.
func (c *client) fetchResults(ctx context.Context, q models.SearchQuery, pageURL, accept string, challenge func(int, []byte) bool) ([]byte, error) {
	body, err := c.get(ctx, pageURL, accept, challenge)
	if !errors.Is(err, ErrChallenge) {
		return body, err
	}
	if c.opts.challenge == nil {
		return nil, fmt.Errorf("%w: %w", models.ErrRateLimited, ErrChallenge)
	}
	c.opts.logger.Warn("search challenge page, waiting for resolution",
		zap.String("query", q.Text),
		zap.String("url", pageURL))
	if err := c.opts.challenge.Resolve(ctx, q, pageURL); err != nil {
		return nil, fmt.Errorf("%w: challenge not resolved: %w", models.ErrRateLimited, err)
	}
	body, err = c.get(ctx, pageURL, accept, challenge)
	if errors.Is(err, ErrChallenge) {
		return nil, fmt.Errorf("%w: %w", models.ErrRateLimited, err)
	}
	return body, err
}

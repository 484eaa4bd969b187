// Package fetch checks that result links resolve and downloads evidence documents.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AlosedAG/contract-finder/internal/models"
	"github.com/AlosedAG/contract-finder/pkg/utils"
)

// DefaultUserAgent is sent with every request; some agenda portals refuse unknown clients.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 contractfinder/1.0"

var (
	// ErrNotDocument is returned when a download is not a document format.
	ErrNotDocument = errors.New("not a document")
	// ErrTooLarge is returned when a download exceeds the size cap.
	ErrTooLarge = errors.New("document too large")
)

// Config holds HTTP limits.
type Config struct {
	Timeout     time.Duration `yaml:"timeout"`     // default: 10s
	UserAgent   string        `yaml:"user_agent"`  // default: DefaultUserAgent
	MaxBytes    int64         `yaml:"max_bytes"`   // default: 25 MiB
	Concurrency int           `yaml:"concurrency"` // default: 5
}

// DefaultConfig returns the default fetch configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:     10 * time.Second,
		UserAgent:   DefaultUserAgent,
		MaxBytes:    25 << 20,
		Concurrency: 5,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = d.MaxBytes
	}
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
}

// Document is a downloaded evidence file.
type Document struct {
	URL         string
	FinalURL    string
	ContentType string
	Ext         string
	Body        []byte
}

// Client validates links and downloads documents. Safe for concurrent use.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = utils.OrNop(l)
	}
}

// New creates a Client.
func New(cfg Config, opts ...Option) *Client {
	cfg.ApplyDefaults()
	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Validate checks that rawURL answers. HEAD is tried first; servers that
// reject HEAD get a GET whose body is discarded. 403 counts as reachable
// because many portals refuse scripted clients but serve browsers.
func (c *Client) Validate(ctx context.Context, rawURL string) models.Validation {
	resp, err := c.do(ctx, http.MethodHead, rawURL)
	if err == nil && headRejected(resp.StatusCode) {
		resp.Body.Close()
		resp, err = c.do(ctx, http.MethodGet, rawURL)
	}
	if err != nil {
		return models.Validation{Reason: failureReason(err)}
	}
	defer resp.Body.Close()

	v := models.Validation{
		StatusCode:  resp.StatusCode,
		ContentType: mediaType(resp.Header.Get("Content-Type")),
	}
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		v.Reachable = true
		v.Reason = "OK"
	case resp.StatusCode == http.StatusForbidden:
		v.Reachable = true
		v.Reason = "Forbidden (may still work)"
	case resp.StatusCode == http.StatusNotFound:
		v.Reason = "Not Found"
	default:
		v.Reason = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
	return v
}

// ValidateAll validates urls with bounded concurrency. Results are index-aligned
// with urls. Once ctx is done no new checks start; unchecked slots are marked.
func (c *Client) ValidateAll(ctx context.Context, urls []string) []models.Validation {
	out := make([]models.Validation, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)
	for i, u := range urls {
		if gctx.Err() != nil {
			out[i] = models.Validation{Reason: "cancelled"}
			continue
		}
		g.Go(func() error {
			out[i] = c.Validate(gctx, u)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Download fetches rawURL, refusing non-document content and bodies over the size cap.
func (c *Client) Download(ctx context.Context, rawURL string) (*Document, error) {
	resp, err := c.do(ctx, http.MethodGet, rawURL)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: HTTP %d", rawURL, resp.StatusCode)
	}
	ct := mediaType(resp.Header.Get("Content-Type"))
	ext := strings.ToLower(path.Ext(resp.Request.URL.Path))
	if !IsDocument(ct, ext) {
		return nil, fmt.Errorf("download %s: %w: %s", rawURL, ErrNotDocument, ct)
	}
	if resp.ContentLength > c.cfg.MaxBytes {
		return nil, fmt.Errorf("download %s: %w (%d bytes)", rawURL, ErrTooLarge, resp.ContentLength)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("download %s: read body: %w", rawURL, err)
	}
	if int64(len(body)) > c.cfg.MaxBytes {
		return nil, fmt.Errorf("download %s: %w", rawURL, ErrTooLarge)
	}

	c.logger.Debug("downloaded document",
		zap.String("url", rawURL),
		zap.String("content_type", ct),
		zap.Int("bytes", len(body)))

	return &Document{
		URL:         rawURL,
		FinalURL:    resp.Request.URL.String(),
		ContentType: ct,
		Ext:         ext,
		Body:        body,
	}, nil
}

func (c *Client) do(ctx context.Context, method, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/pdf,application/vnd.openxmlformats-officedocument.*;q=0.9,text/html;q=0.8,*/*;q=0.5")
	return c.http.Do(req)
}

func headRejected(status int) bool {
	return status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented
}

var documentTypes = []string{
	"pdf", "msword", "officedocument", "opendocument", "rtf", "octet-stream",
	"ms-excel", "text/html", "text/plain", "application/xhtml",
}

var documentExts = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".odt": true, ".rtf": true, ".txt": true, ".htm": true, ".html": true,
}

// IsDocument reports whether a response with the given media type and URL
// extension is worth extracting.
func IsDocument(contentType, ext string) bool {
	if documentExts[ext] {
		return true
	}
	for _, t := range documentTypes {
		if strings.Contains(contentType, t) {
			return true
		}
	}
	return false
}

func mediaType(header string) string {
	ct, _, _ := strings.Cut(header, ";")
	return strings.ToLower(strings.TrimSpace(ct))
}

func failureReason(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return "Timeout"
	case strings.Contains(err.Error(), "x509") || strings.Contains(err.Error(), "tls"):
		return "SSL Error"
	default:
		return "Connection Error"
	}
}

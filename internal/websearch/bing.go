package websearch

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/AlosedAG/contract-finder/internal/models"
	"github.com/AlosedAG/contract-finder/pkg/utils"
)

const bingURL = "https://www.bing.com/search"

// Bing reads Bing's RSS results format.
type Bing struct {
	client
}

// NewBing creates a Bing adapter.
func NewBing(cfg Config, o *options) *Bing {
	if cfg.BaseURL == "" {
		cfg.BaseURL = bingURL
	}
	return &Bing{client{cfg: cfg, opts: o}}
}

// Search implements collect.Searcher.
func (b *Bing) Search(ctx context.Context, q models.SearchQuery) ([]models.RawResult, error) {
	params := url.Values{
		"q":      {q.Text},
		"format": {"rss"},
		"count":  {fmt.Sprint(b.cfg.MaxResults)},
	}
	pageURL := b.cfg.BaseURL + "?" + params.Encode()
	body, err := b.fetchResults(ctx, q, pageURL, "application/rss+xml, application/xml;q=0.9, */*;q=0.1", bingChallenge)
	if err != nil {
		return nil, fmt.Errorf("bing: %w", err)
	}
	results, err := ParseBingRSS(body)
	if err != nil {
		return nil, fmt.Errorf("bing: %w", err)
	}
	if len(results) > b.cfg.MaxResults {
		results = results[:b.cfg.MaxResults]
	}
	return results, nil
}

// bingChallenge recognizes an HTML captcha page returned instead of RSS.
func bingChallenge(_ int, body []byte) bool {
	head := bytes.ToLower(body[:min(len(body), 2048)])
	return bytes.Contains(head, []byte("<html")) && bytes.Contains(bytes.ToLower(body), []byte("captcha"))
}

// ParseBingRSS converts an RSS results feed into raw results.
func ParseBingRSS(feedXML []byte) ([]models.RawResult, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(feedXML))
	if err != nil {
		return nil, fmt.Errorf("parse results feed: %w", err)
	}
	results := make([]models.RawResult, 0, len(feed.Items))
	for _, it := range feed.Items {
		link := strings.TrimSpace(it.Link)
		if link == "" {
			continue
		}
		results = append(results, models.RawResult{
			Title:   utils.CollapseSpace(it.Title),
			URL:     link,
			Snippet: utils.CollapseSpace(it.Description),
		})
	}
	return results, nil
}

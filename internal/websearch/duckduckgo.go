package websearch

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/AlosedAG/contract-finder/internal/collect"
	"github.com/AlosedAG/contract-finder/internal/models"
	"github.com/AlosedAG/contract-finder/pkg/utils"
)

const duckDuckGoURL = "https://html.duckduckgo.com/html/"

// DuckDuckGo scrapes the DuckDuckGo HTML results page.
type DuckDuckGo struct {
	client
}

// NewDuckDuckGo creates a DuckDuckGo adapter.
func NewDuckDuckGo(cfg Config, o *options) *DuckDuckGo {
	if cfg.BaseURL == "" {
		cfg.BaseURL = duckDuckGoURL
	}
	return &DuckDuckGo{client{cfg: cfg, opts: o}}
}

// Search implements collect.Searcher.
func (d *DuckDuckGo) Search(ctx context.Context, q models.SearchQuery) ([]models.RawResult, error) {
	pageURL := d.cfg.BaseURL + "?" + url.Values{"q": {q.Text}}.Encode()
	body, err := d.fetchResults(ctx, q, pageURL, "text/html,application/xhtml+xml", ddgChallenge)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: %w", err)
	}
	results, err := ParseDuckDuckGo(body)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: %w", err)
	}
	if len(results) > d.cfg.MaxResults {
		results = results[:d.cfg.MaxResults]
	}
	return results, nil
}

// ddgChallenge recognizes the bot-check page, served with 202 or inline.
func ddgChallenge(status int, body []byte) bool {
	if status == http.StatusAccepted {
		return true
	}
	return bytes.Contains(body, []byte("anomaly-modal")) || bytes.Contains(body, []byte("challenge-form"))
}

// ParseDuckDuckGo extracts organic results from a DuckDuckGo HTML page.
// Ads are skipped and redirect links are unwrapped.
func ParseDuckDuckGo(page []byte) ([]models.RawResult, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}

	var results []models.RawResult
	var walk func(n *html.Node, ad bool)
	walk = func(n *html.Node, ad bool) {
		if n.Type == html.ElementNode {
			cls := attr(n, "class")
			if hasClass(cls, "result--ad") {
				ad = true
			}
			switch {
			case !ad && n.Data == "a" && hasClass(cls, "result__a"):
				results = append(results, models.RawResult{
					Title: utils.CollapseSpace(text(n)),
					URL:   resultURL(attr(n, "href")),
				})
				return
			case !ad && hasClass(cls, "result__snippet") && len(results) > 0:
				last := &results[len(results)-1]
				if last.Snippet == "" {
					last.Snippet = utils.CollapseSpace(text(n))
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, ad)
		}
	}
	walk(doc, false)

	out := results[:0]
	for _, r := range results {
		if r.URL != "" {
			out = append(out, r)
		}
	}
	return out, nil
}

func resultURL(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	href = collect.Unwrap(href)
	if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
		return ""
	}
	return href
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(classes, want string) bool {
	for _, c := range strings.Fields(classes) {
		if c == want {
			return true
		}
	}
	return false
}

func text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// Package evidence keeps the text of extracted evidence documents in a Bleve
// full-text index so it can be searched after the run that found it.
package evidence

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/AlosedAG/contract-finder/internal/models"
)

// DefaultLimit caps search hits when the query sets no limit.
const DefaultLimit = 20

// Query selects evidence documents. Empty filter fields match everything.
type Query struct {
	Text           string
	Company        string
	Classification models.DocumentClassification
	Source         string
	Limit          int
	// Fuzzy tolerates typos in Text, up to two edits per term.
	Fuzzy bool
}

// Index is a Bleve-backed evidence index. It is safe for concurrent use.
type Index struct {
	index bleve.Index
}

// Open creates or opens an index at path. An empty path keeps the index in
// memory. If the mapping below changes, remove the index directory to rebuild.
func Open(path string) (*Index, error) {
	im := newMapping()
	if path == "" {
		index, err := bleve.NewMemOnly(im)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory evidence index: %w", err)
		}
		return &Index{index: index}, nil
	}
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open evidence index: %w", openErr)
		}
		return &Index{index: index}, nil
	}
	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create evidence index: %w", err)
	}
	return &Index{index: index}, nil
}

func newMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	// Standard analyzer: lowercase and tokenize without stemming, so vendor and
	// product names match exactly.
	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", text)
	docMapping.AddFieldMappingsAt("title", text)

	keyword := bleve.NewKeywordFieldMapping()
	for _, f := range []string{"run_id", "url", "path", "company", "product", "classification", "location", "source"} {
		docMapping.AddFieldMappingsAt(f, keyword)
	}
	docMapping.AddFieldMappingsAt("indexed_at", bleve.NewDateTimeFieldMapping())

	im.AddDocumentMapping("evidence", docMapping)
	im.DefaultType = "evidence"
	im.DefaultMapping = docMapping
	return im
}

// Add indexes doc, replacing any document with the same ID.
func (x *Index) Add(ctx context.Context, doc models.EvidenceDocument) error {
	if doc.ID == "" {
		return fmt.Errorf("evidence document has no id")
	}
	if doc.IndexedAt.IsZero() {
		doc.IndexedAt = time.Now()
	}
	fields := map[string]interface{}{
		"run_id":         doc.RunID,
		"url":            doc.URL,
		"path":           doc.Path,
		"title":          doc.Title,
		"company":        strings.ToLower(doc.Company),
		"product":        strings.ToLower(doc.Product),
		"classification": string(doc.Classification),
		"location":       doc.Location,
		"source":         doc.Source,
		"content":        doc.Content,
		"indexed_at":     doc.IndexedAt,
	}
	if err := x.index.Index(doc.ID, fields); err != nil {
		return fmt.Errorf("index evidence %s: %w", doc.ID, err)
	}
	return nil
}

// Search runs q and returns hits ordered by relevance, each with highlighted
// fragments of the matching text.
func (x *Index) Search(ctx context.Context, q Query) ([]models.EvidenceHit, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	req := bleve.NewSearchRequest(buildQuery(q))
	req.Size = limit
	req.Fields = []string{"title", "url", "path", "classification", "location"}
	if strings.TrimSpace(q.Text) != "" {
		req.Highlight = bleve.NewHighlightWithStyle("html")
		req.Highlight.AddField("content")
	}
	res, err := x.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("evidence search failed: %w", err)
	}

	hits := make([]models.EvidenceHit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, models.EvidenceHit{
			ID:             h.ID,
			Score:          h.Score,
			URL:            field(h.Fields, "url"),
			Path:           field(h.Fields, "path"),
			Title:          field(h.Fields, "title"),
			Classification: models.DocumentClassification(field(h.Fields, "classification")),
			Location:       field(h.Fields, "location"),
			Fragments:      h.Fragments["content"],
		})
	}
	return hits, nil
}

func buildQuery(q Query) blevequery.Query {
	var must []blevequery.Query
	if text := strings.TrimSpace(q.Text); text != "" {
		must = append(must, textQuery(text, q.Fuzzy))
	}
	for f, v := range map[string]string{
		"company":        strings.ToLower(strings.TrimSpace(q.Company)),
		"classification": string(q.Classification),
		"source":         q.Source,
	} {
		if v == "" {
			continue
		}
		tq := bleve.NewTermQuery(v)
		tq.SetField(f)
		must = append(must, tq)
	}
	switch len(must) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return must[0]
	default:
		return bleve.NewConjunctionQuery(must...)
	}
}

// textQuery matches text in the content or, weighted higher, the title.
func textQuery(text string, fuzzy bool) blevequery.Query {
	var parts []blevequery.Query
	for _, f := range []struct {
		name  string
		boost float64
	}{{"content", 1}, {"title", 2}} {
		if !fuzzy {
			mq := bleve.NewMatchQuery(text)
			mq.SetField(f.name)
			mq.SetBoost(f.boost)
			parts = append(parts, mq)
			continue
		}
		for _, term := range strings.Fields(strings.ToLower(text)) {
			fq := bleve.NewFuzzyQuery(term)
			fq.SetFuzziness(2)
			fq.SetField(f.name)
			fq.SetBoost(f.boost)
			parts = append(parts, fq)
		}
	}
	return bleve.NewDisjunctionQuery(parts...)
}

func field(fields map[string]interface{}, name string) string {
	if s, ok := fields[name].(string); ok {
		return s
	}
	return ""
}

// Delete removes a document.
func (x *Index) Delete(ctx context.Context, id string) error {
	return x.index.Delete(id)
}

// Count returns the number of indexed documents.
func (x *Index) Count() (uint64, error) {
	return x.index.DocCount()
}

// Close closes the index.
func (x *Index) Close() error {
	return x.index.Close()
}

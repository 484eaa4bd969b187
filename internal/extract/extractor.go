// Package extract turns downloaded documents into plain text.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNoText is returned when a document parsed but held no usable text,
	// typically a scanned image-only PDF.
	ErrNoText = errors.New("no extractable text")
	// ErrUnavailable is returned when no extractor is configured.
	ErrUnavailable = errors.New("text extraction unavailable")
)

// DefaultMaxPages bounds how many PDF pages are read.
const DefaultMaxPages = 15

// TextExtractor extracts text from document bytes. ext includes the leading dot.
type TextExtractor interface {
	ExtractBytes(content []byte, ext string) (string, error)
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMaxPages limits how many PDF pages are read. Zero or negative means no limit.
func WithMaxPages(n int) Option {
	return func(e *Extractor) {
		e.maxPages = n
	}
}

// Extractor extracts plain text from PDF, Office and text documents.
type Extractor struct {
	maxPages int
}

// NewExtractor returns a new Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{maxPages: DefaultMaxPages}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract reads the file at path and returns its text content.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, strings.ToLower(filepath.Ext(path)))
}

// ExtractBytes extracts text from content based on the given extension,
// sniffing the content when the extension is empty or misleading.
// Whitespace-only output yields ErrNoText.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	var (
		text string
		err  error
	)
	switch DetectExt(content, "", ext) {
	case ".pdf":
		text, err = extractPDF(content, e.maxPages)
	case ".docx":
		text, err = extractDOCX(content)
	case ".xlsx":
		text, err = extractExcel(content)
	case ".html", ".htm":
		text, err = extractHTML(content)
	case ".txt", ".md", ".csv", "":
		text, err = extractPlain(content)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}

// ErrUnsupported is returned for formats this extractor cannot read.
var ErrUnsupported = errors.New("unsupported format")

var (
	pdfMagic  = []byte("%PDF-")
	zipMagic  = []byte("PK\x03\x04")
	htmlMagic = [][]byte{[]byte("<!doctype html"), []byte("<html")}
)

// DetectExt picks the document format from magic bytes, then the response
// content type, then the URL or file extension.
func DetectExt(content []byte, contentType, ext string) string {
	ext = strings.ToLower(ext)
	head := bytes.TrimSpace(content[:min(len(content), 512)])
	switch {
	case bytes.HasPrefix(head, pdfMagic):
		return ".pdf"
	case bytes.HasPrefix(head, zipMagic):
		if ext == ".xlsx" || strings.Contains(contentType, "spreadsheet") {
			return ".xlsx"
		}
		if ext == ".docx" || strings.Contains(contentType, "wordprocessing") || ext == "" {
			return ".docx"
		}
		return ext
	}
	lower := bytes.ToLower(head)
	for _, m := range htmlMagic {
		if bytes.HasPrefix(lower, m) {
			return ".html"
		}
	}
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "pdf"):
		return ".pdf"
	case strings.Contains(ct, "html"):
		return ".html"
	case strings.HasPrefix(ct, "text/plain"):
		return ".txt"
	}
	return ext
}

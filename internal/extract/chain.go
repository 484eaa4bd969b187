package extract

import (
	"errors"
	"strings"

	"github.com/lu4p/cat"
)

// Chain tries each extractor in order and returns the first non-empty text.
type Chain struct {
	extractors []TextExtractor
}

// NewChain creates a Chain.
func NewChain(extractors ...TextExtractor) *Chain {
	return &Chain{extractors: extractors}
}

// Default returns the primary extractor backed by the cat fallback.
func Default(opts ...Option) *Chain {
	return NewChain(NewExtractor(opts...), CatExtractor{})
}

// ExtractBytes implements TextExtractor. It returns ErrUnavailable when the
// chain is empty and ErrNoText when every extractor came back empty.
func (c *Chain) ExtractBytes(content []byte, ext string) (string, error) {
	if len(c.extractors) == 0 {
		return "", ErrUnavailable
	}
	var errs []error
	for _, e := range c.extractors {
		text, err := e.ExtractBytes(content, ext)
		if err == nil {
			return text, nil
		}
		errs = append(errs, err)
	}
	for _, err := range errs {
		if !errors.Is(err, ErrNoText) && !errors.Is(err, ErrUnsupported) {
			return "", errors.Join(errs...)
		}
	}
	if allIs(errs, ErrUnsupported) {
		return "", errors.Join(errs...)
	}
	return "", ErrNoText
}

func allIs(errs []error, target error) bool {
	for _, err := range errs {
		if !errors.Is(err, target) {
			return false
		}
	}
	return true
}

// CatExtractor reads RTF, ODT and DOCX through lu4p/cat.
type CatExtractor struct{}

// ExtractBytes implements TextExtractor.
func (CatExtractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch ext {
	case ".rtf", ".odt", ".docx", "":
	default:
		return "", ErrUnsupported
	}
	text, err := cat.FromBytes(content)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}


package scraper

import (
	"errors"
	"fmt"

	"github.com/aluiziolira/go-scrape-opinions/browser"
	"github.com/aluiziolira/go-scrape-opinions/translate"
)

// ExtractionFieldError indicates a single field strategy found nothing.
type ExtractionFieldError struct {
	Field    string
	Strategy string
	Err      error
}

func (e ExtractionFieldError) Error() string {
	return fmt.Errorf("field %s via %s: %w", e.Field, e.Strategy, e.Err).Error()
}

func (e ExtractionFieldError) Unwrap() error {
	return e.Err
}

// ElementParseError indicates a candidate element was skipped.
type ElementParseError struct {
	Index int
	Err   error
}

func (e ElementParseError) Error() string {
	return fmt.Errorf("candidate %d: %w", e.Index, e.Err).Error()
}

func (e ElementParseError) Unwrap() error {
	return e.Err
}

// ImageFetchError indicates a cover image could not be stored.
type ImageFetchError struct {
	URL string
	Err error
}

func (e ImageFetchError) Error() string {
	return fmt.Errorf("image %s: %w", e.URL, e.Err).Error()
}

func (e ImageFetchError) Unwrap() error {
	return e.Err
}

// ExtractionError indicates the page could not be loaded or queried at all.
type ExtractionError struct {
	Stage string
	Err   error
}

func (e ExtractionError) Error() string {
	return fmt.Errorf("extraction %s: %w", e.Stage, e.Err).Error()
}

func (e ExtractionError) Unwrap() error {
	return e.Err
}

var errEmptyTitle = errors.New("no title found")

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var initErr *browser.DriverInitError
	if errors.As(err, &initErr) {
		return "driver_init"
	}
	var extraction ExtractionError
	if errors.As(err, &extraction) {
		return "extraction"
	}
	var element ElementParseError
	if errors.As(err, &element) {
		return "element_parse"
	}
	var field ExtractionFieldError
	if errors.As(err, &field) {
		return "extraction_field"
	}
	var image ImageFetchError
	if errors.As(err, &image) {
		return "image_fetch"
	}
	var translation translate.TranslationError
	if errors.As(err, &translation) {
		return "translation"
	}
	return "other"
}

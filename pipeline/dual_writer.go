// Package pipeline collects session results and exports them as CSV or JSON.
package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/aluiziolira/go-scrape-opinions/models"
)

// MultiWriter fans every write out to several writers in order.
type MultiWriter struct {
	writers []OutputWriter
	names   []string
	mu      sync.Mutex
}

// NewDualWriter writes CSV to csvFilename and JSONL to jsonFilename.
func NewDualWriter(csvFilename, jsonFilename string) (*MultiWriter, error) {
	if filepath.Clean(csvFilename) == filepath.Clean(jsonFilename) {
		return nil, fmt.Errorf("dual output needs two files, got %s twice", csvFilename)
	}

	csvWriter, err := NewCSVWriter(csvFilename)
	if err != nil {
		return nil, fmt.Errorf("create CSV writer: %w", err)
	}

	jsonWriter, err := NewJSONWriter(jsonFilename)
	if err != nil {
		csvWriter.Close()
		return nil, fmt.Errorf("create JSON writer: %w", err)
	}

	return &MultiWriter{
		writers: []OutputWriter{csvWriter, jsonWriter},
		names:   []string{csvFilename, jsonFilename},
	}, nil
}

// Write stops at the first failing writer.
func (mw *MultiWriter) Write(records []models.ArticleRecord) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	for i, w := range mw.writers {
		if err := w.Write(records); err != nil {
			return fmt.Errorf("write %s: %w", mw.names[i], err)
		}
	}
	return nil
}

// Close closes every writer and joins their errors.
func (mw *MultiWriter) Close() error {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	var errs []error
	for i, w := range mw.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", mw.names[i], err))
		}
	}
	return errors.Join(errs...)
}

func (mw *MultiWriter) Validate() error {
	var errs []error
	for i, w := range mw.writers {
		if err := w.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("validate %s: %w", mw.names[i], err))
		}
	}
	return errors.Join(errs...)
}

// Paths lists the output files in write order.
func (mw *MultiWriter) Paths() []string {
	out := make([]string, len(mw.names))
	copy(out, mw.names)
	return out
}

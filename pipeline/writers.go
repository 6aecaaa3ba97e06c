package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aluiziolira/go-scrape-opinions/models"
)

// OutputWriter defines the interface for exporting article records.
type OutputWriter interface {
	Write(records []models.ArticleRecord) error
	Close() error
	Validate() error
}

// NewWriter returns the writer for format ("csv", "json" or "dual"). The
// dual writer derives its JSON path from filename.
func NewWriter(format, filename string) (OutputWriter, error) {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONWriter(filename)
	case "csv":
		return NewCSVWriter(filename)
	case "dual":
		return NewDualWriter(filename, dualJSONPath(filename))
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// dualJSONPath swaps the extension of filename for .jsonl, or appends .jsonl
// when filename already ends in .jsonl.
func dualJSONPath(filename string) string {
	if strings.EqualFold(filepath.Ext(filename), ".jsonl") {
		return filename + ".jsonl"
	}
	return strings.TrimSuffix(filename, filepath.Ext(filename)) + ".jsonl"
}

// Records flattens session results into export rows, in the given order.
func Records(runID string, results []models.SessionResult) []models.ArticleRecord {
	var out []models.ArticleRecord
	for _, result := range results {
		if result.Empty() {
			out = append(out, models.ArticleRecord{
				RunID:        runID,
				Session:      result.Name,
				SessionError: result.Err,
				FinishedAt:   result.FinishedAt,
			})
			continue
		}
		for i, article := range result.Articles {
			out = append(out, models.ArticleRecord{
				RunID:           runID,
				Session:         result.Name,
				Index:           i + 1,
				OriginalTitle:   article.OriginalTitle,
				TranslatedTitle: article.TranslatedTitle,
				Content:         article.Content,
				ImagePath:       article.ImagePath,
				SessionError:    result.Err,
				FinishedAt:      result.FinishedAt,
			})
		}
	}
	return out
}

// Export writes every stored result through w.
func Export(w OutputWriter, runID string, store *ResultStore) (int, error) {
	records := Records(runID, store.Snapshot())
	if err := w.Write(records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// CSVWriter writes records to CSV.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
}

// NewCSVWriter initialises a CSV writer and writes the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}

	writer := csv.NewWriter(f)
	header := []string{"run_id", "session", "index", "original_title", "translated_title", "content", "image_path", "session_error", "finished_at"}
	if err := writer.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flush csv header: %w", err)
	}

	return &CSVWriter{
		file:   f,
		writer: writer,
	}, nil
}

// Write appends records to the CSV output.
func (cw *CSVWriter) Write(records []models.ArticleRecord) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	for _, rec := range records {
		row := []string{
			rec.RunID,
			rec.Session,
			strconv.Itoa(rec.Index),
			rec.OriginalTitle,
			rec.TranslatedTitle,
			rec.Content,
			rec.ImagePath,
			rec.SessionError,
			rec.FinishedAt.Format(time.RFC3339),
		}
		if err := cw.writer.Write(row); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// Close flushes and closes the file handle.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cw.file.Close()
}

// Validate ensures the file has content besides the header.
func (cw *CSVWriter) Validate() error {
	info, err := cw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat csv file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("csv file is empty")
	}
	return nil
}

// JSONWriter writes newline-delimited JSON records.
type JSONWriter struct {
	file    *os.File
	writer  *bufio.Writer
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewJSONWriter initialises the JSON writer.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create json file: %w", err)
	}

	buffer := bufio.NewWriter(f)
	return &JSONWriter{
		file:    f,
		writer:  buffer,
		encoder: json.NewEncoder(buffer),
	}, nil
}

// Write appends records in JSONL format.
func (jw *JSONWriter) Write(records []models.ArticleRecord) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	for _, rec := range records {
		if err := jw.encoder.Encode(rec); err != nil {
			return fmt.Errorf("encode json record: %w", err)
		}
	}

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}

	return nil
}

// Close flushes buffers and closes the underlying file.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return jw.file.Close()
}

// Validate ensures the JSON file has data.
func (jw *JSONWriter) Validate() error {
	info, err := jw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat json file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("json file is empty")
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}

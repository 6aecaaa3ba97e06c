package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aluiziolira/go-scrape-opinions/models"
)

var finished = time.Date(2025, 11, 4, 13, 9, 13, 0, time.UTC)

func sampleResults() []models.SessionResult {
	return []models.SessionResult{
		{
			Name: "Local_Chrome",
			Articles: []models.Article{
				{OriginalTitle: "El gato", TranslatedTitle: "The cat", Content: "Uno, dos.", ImagePath: "article_images_Local_Chrome/article_1.jpg"},
				{OriginalTitle: "El perro", TranslatedTitle: "The dog", Content: "Tres."},
			},
			FinishedAt: finished,
		},
		{Name: "iPhone", Err: "driver init iPhone: grid unreachable", FinishedAt: finished},
	}
}

func TestRecordsFlattensSessions(t *testing.T) {
	records := Records("run-1", sampleResults())
	if len(records) != 3 {
		t.Fatalf("records=%d, want 3", len(records))
	}
	if records[1].Index != 2 || records[1].TranslatedTitle != "The dog" || records[1].Session != "Local_Chrome" {
		t.Fatalf("unexpected record: %+v", records[1])
	}
	empty := records[2]
	if empty.Index != 0 || empty.Session != "iPhone" || empty.SessionError == "" || empty.OriginalTitle != "" {
		t.Fatalf("unexpected empty-session record: %+v", empty)
	}
	for _, rec := range records {
		if rec.RunID != "run-1" {
			t.Fatalf("run id=%q, want run-1", rec.RunID)
		}
	}
}

func TestCSVWriterWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "articles.csv")

	writer, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("create csv writer: %v", err)
	}
	if err := writer.Write(Records("run-1", sampleResults())); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if err := writer.Validate(); err != nil {
		t.Fatalf("validate csv: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close csv: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows=%d, want 4", len(rows))
	}
	if rows[0][0] != "run_id" || rows[0][3] != "original_title" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][2] != "1" || rows[1][5] != "Uno, dos." {
		t.Fatalf("unexpected first row: %v", rows[1])
	}
	if rows[3][8] != "2025-11-04T13:09:13Z" {
		t.Fatalf("finished_at=%q", rows[3][8])
	}
}

func TestJSONWriterWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "articles.jsonl")

	writer, err := NewJSONWriter(path)
	if err != nil {
		t.Fatalf("create json writer: %v", err)
	}
	if err := writer.Write(Records("run-1", sampleResults())); err != nil {
		t.Fatalf("write json: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close json: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open json: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var decoded []models.ArticleRecord
	for scanner.Scan() {
		var rec models.ArticleRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("invalid json line: %v", err)
		}
		decoded = append(decoded, rec)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan json: %v", err)
	}
	if len(decoded) != 3 {
		t.Fatalf("json lines=%d, want 3", len(decoded))
	}
	if decoded[0].ImagePath == "" || decoded[1].ImagePath != "" {
		t.Fatalf("image paths=%q/%q", decoded[0].ImagePath, decoded[1].ImagePath)
	}
}

func TestNewWriterDual(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "articles.csv")

	w, err := NewWriter("dual", csvPath)
	if err != nil {
		t.Fatalf("create dual writer: %v", err)
	}
	store := NewResultStore()
	for _, r := range sampleResults() {
		if err := store.Put(r); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	n, err := Export(w, "run-2", store)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if n != 3 {
		t.Fatalf("exported=%d, want 3", n)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close dual: %v", err)
	}

	if info, err := os.Stat(csvPath); err != nil || info.Size() == 0 {
		t.Fatalf("csv file missing or empty")
	}
	if info, err := os.Stat(filepath.Join(dir, "articles.jsonl")); err != nil || info.Size() == 0 {
		t.Fatalf("json file missing or empty")
	}
}

func TestNewWriterDualKeepsFilesApart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jsonl")

	w, err := NewWriter("dual", path)
	if err != nil {
		t.Fatalf("create dual writer: %v", err)
	}
	mw, ok := w.(*MultiWriter)
	if !ok {
		t.Fatalf("writer type %T, want *MultiWriter", w)
	}
	paths := mw.Paths()
	if len(paths) != 2 || paths[0] == paths[1] {
		t.Fatalf("paths=%v, want two distinct files", paths)
	}
	if paths[1] != path+".jsonl" {
		t.Fatalf("json path=%q", paths[1])
	}

	if err := w.Write(Records("run-3", sampleResults())); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	head, err := os.ReadFile(paths[0])
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if !strings.HasPrefix(string(head), "run_id,session,") {
		t.Fatalf("csv file overwritten: %q", head)
	}
}

func TestNewDualWriterRejectsSamePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if _, err := NewDualWriter(path, path); err == nil {
		t.Fatalf("expected error for identical paths")
	}
}

func TestNewWriterRejectsUnknownFormat(t *testing.T) {
	if _, err := NewWriter("xml", filepath.Join(t.TempDir(), "out.xml")); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

package models

import "time"

// ArticleRecord is one exported row: an article flattened with its session.
// A session that produced nothing is exported as a single row with Index 0.
type ArticleRecord struct {
	RunID           string    `csv:"run_id" json:"run_id"`
	Session         string    `csv:"session" json:"session"`
	Index           int       `csv:"index" json:"index"`
	OriginalTitle   string    `csv:"original_title" json:"original_title,omitempty"`
	TranslatedTitle string    `csv:"translated_title" json:"translated_title,omitempty"`
	Content         string    `csv:"content" json:"content,omitempty"`
	ImagePath       string    `csv:"image_path" json:"image_path,omitempty"`
	SessionError    string    `csv:"session_error" json:"session_error,omitempty"`
	FinishedAt      time.Time `csv:"finished_at" json:"finished_at"`
}

// RunSummary holds the overall result of a run across all sessions.
type RunSummary struct {
	RunID     string
	StartTime time.Time
	EndTime   time.Time
	Sessions  int
	Failed    int
	Empty     int
	Articles  int
}

// Summarize aggregates session results into a RunSummary.
func Summarize(runID string, start, end time.Time, results []SessionResult) RunSummary {
	s := RunSummary{RunID: runID, StartTime: start, EndTime: end, Sessions: len(results)}
	for _, r := range results {
		switch {
		case r.Err != "":
			s.Failed++
		case r.Empty():
			s.Empty++
		}
		s.Articles += len(r.Articles)
	}
	return s
}

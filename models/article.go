// Package models defines data structures for the scraper.
package models

import (
	"sort"
	"time"
)

// Article is one opinion piece extracted from a listing page.
type Article struct {
	OriginalTitle   string `csv:"original_title" json:"original_title"`
	Content         string `csv:"content" json:"content"`
	ImagePath       string `csv:"image_path" json:"image_path,omitempty"`
	TranslatedTitle string `csv:"translated_title" json:"translated_title"`
}

// HasImage reports whether a cover image was stored locally.
func (a Article) HasImage() bool {
	return a.ImagePath != ""
}

// WordFrequency maps lowercase tokens to their occurrence counts.
type WordFrequency map[string]int

// WordCount is a single WordFrequency entry.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Ranked returns the entries ordered by descending count, then by word.
func (wf WordFrequency) Ranked() []WordCount {
	out := make([]WordCount, 0, len(wf))
	for word, count := range wf {
		out = append(out, WordCount{Word: word, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	return out
}

// SessionResult holds everything one session produced.
type SessionResult struct {
	Name       string        `json:"name"`
	Articles   []Article     `json:"articles"`
	Repeated   WordFrequency `json:"repeated"`
	Err        string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Empty reports whether the session produced no articles.
func (r SessionResult) Empty() bool {
	return len(r.Articles) == 0
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (r SessionResult) Clone() SessionResult {
	out := r
	out.Articles = make([]Article, len(r.Articles))
	copy(out.Articles, r.Articles)
	out.Repeated = make(WordFrequency, len(r.Repeated))
	for k, v := range r.Repeated {
		out.Repeated[k] = v
	}
	return out
}

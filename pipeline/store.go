package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aluiziolira/go-scrape-opinions/models"
)

var (
	// ErrDuplicateSession is returned when a session publishes twice.
	ErrDuplicateSession = errors.New("pipeline: session already published")
)

// ResultStore maps session names to their results. Put may be called from
// many goroutines; each name is written at most once.
type ResultStore struct {
	mu      sync.Mutex
	results map[string]models.SessionResult
}

// NewResultStore returns an empty store.
func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[string]models.SessionResult)}
}

// Put stores an independent copy of result under result.Name.
func (s *ResultStore) Put(result models.SessionResult) error {
	snapshot := result.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[snapshot.Name]; ok {
		return fmt.Errorf("%s: %w", snapshot.Name, ErrDuplicateSession)
	}
	s.results[snapshot.Name] = snapshot
	return nil
}

// Get returns a copy of the result stored for name.
func (s *ResultStore) Get(name string) (models.SessionResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, ok := s.results[name]
	if !ok {
		return models.SessionResult{}, false
	}
	return result.Clone(), true
}

// Len returns the number of stored sessions.
func (s *ResultStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

// Names returns the stored session names, sorted.
func (s *ResultStore) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.results))
	for name := range s.results {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns copies of every stored result ordered by name.
func (s *ResultStore) Snapshot() []models.SessionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SessionResult, 0, len(s.results))
	for _, result := range s.results {
		out = append(out, result.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

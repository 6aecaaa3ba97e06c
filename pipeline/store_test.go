package pipeline

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/aluiziolira/go-scrape-opinions/models"
)

func TestResultStoreRejectsDuplicates(t *testing.T) {
	store := NewResultStore()
	if err := store.Put(models.SessionResult{Name: "A"}); err != nil {
		t.Fatalf("first put: %v", err)
	}
	err := store.Put(models.SessionResult{Name: "A", Err: "second"})
	if !errors.Is(err, ErrDuplicateSession) {
		t.Fatalf("err=%v, want ErrDuplicateSession", err)
	}
	got, _ := store.Get("A")
	if got.Err != "" {
		t.Fatalf("first write must win, got %+v", got)
	}
}

func TestResultStoreReturnsIndependentCopies(t *testing.T) {
	store := NewResultStore()
	result := models.SessionResult{
		Name:     "A",
		Articles: []models.Article{{OriginalTitle: "Uno"}},
		Repeated: models.WordFrequency{"the": 3},
	}
	if err := store.Put(result); err != nil {
		t.Fatalf("put: %v", err)
	}

	result.Articles[0].OriginalTitle = "mutated"
	result.Repeated["the"] = 99

	got, ok := store.Get("A")
	if !ok {
		t.Fatalf("missing result")
	}
	if got.Articles[0].OriginalTitle != "Uno" || got.Repeated["the"] != 3 {
		t.Fatalf("store shares memory with caller: %+v", got)
	}

	got.Articles[0].OriginalTitle = "changed again"
	again, _ := store.Get("A")
	if again.Articles[0].OriginalTitle != "Uno" {
		t.Fatalf("Get must return a copy")
	}
}

func TestResultStoreConcurrentPut(t *testing.T) {
	store := NewResultStore()
	const sessions = 32

	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("session-%02d", i)
			if err := store.Put(models.SessionResult{Name: name}); err != nil {
				t.Errorf("put %s: %v", name, err)
			}
		}(i)
	}
	wg.Wait()

	if store.Len() != sessions {
		t.Fatalf("len=%d, want %d", store.Len(), sessions)
	}
	names := store.Names()
	if names[0] != "session-00" || names[sessions-1] != "session-31" {
		t.Fatalf("names not sorted: %v", names)
	}
	snapshot := store.Snapshot()
	if len(snapshot) != sessions || snapshot[5].Name != "session-05" {
		t.Fatalf("unexpected snapshot order")
	}
}

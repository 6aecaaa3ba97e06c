package translate

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aluiziolira/go-scrape-opinions/config"
	"github.com/jarcoal/httpmock"
)

const endpoint = "https://translate.example.test/translate_a/single"

func TestGoogleTranslate(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodGet, endpoint, func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("User-Agent") != "test-agent" {
			return httpmock.NewStringResponse(http.StatusForbidden, ""), nil
		}
		q := req.URL.Query()
		if q.Get("sl") != "es" || q.Get("tl") != "en" || q.Get("client") != "gtx" {
			return httpmock.NewStringResponse(http.StatusBadRequest, ""), nil
		}
		if q.Get("q") != "La guerra. El precio." {
			return httpmock.NewStringResponse(http.StatusBadRequest, ""), nil
		}
		return httpmock.NewStringResponse(http.StatusOK,
			`[[["The war. ","La guerra. ",null,null,10],["The price.","El precio.",null,null,10]],null,"es"]`), nil
	})

	g := NewGoogle(endpoint, "test-agent", time.Second)
	g.WithTransport(transport)

	got, err := g.Translate(context.Background(), "La guerra. El precio.", "es", "en")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if got != "The war. The price." {
		t.Fatalf("translated = %q", got)
	}
}

func TestGoogleTranslateErrors(t *testing.T) {
	tests := []struct {
		name      string
		responder httpmock.Responder
	}{
		{name: "rate limited", responder: httpmock.NewStringResponder(http.StatusTooManyRequests, "")},
		{name: "malformed body", responder: httpmock.NewStringResponder(http.StatusOK, "<html>")},
		{name: "empty payload", responder: httpmock.NewStringResponder(http.StatusOK, "[]")},
		{name: "no segments", responder: httpmock.NewStringResponder(http.StatusOK, "[[]]")},
		{name: "network", responder: httpmock.NewErrorResponder(errors.New("connection reset"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := httpmock.NewMockTransport()
			transport.RegisterResponder(http.MethodGet, endpoint, tt.responder)
			g := NewGoogle(endpoint, "test-agent", time.Second)
			g.WithTransport(transport)

			if _, err := g.Translate(context.Background(), "Hola", "es", "en"); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestGoogleTranslateBlankText(t *testing.T) {
	transport := httpmock.NewMockTransport()
	g := NewGoogle(endpoint, "test-agent", time.Second)
	g.WithTransport(transport)

	got, err := g.Translate(context.Background(), "  ", "es", "en")
	if err != nil || got != "  " {
		t.Fatalf("blank text = %q, %v", got, err)
	}
	if calls := transport.GetTotalCallCount(); calls != 0 {
		t.Fatalf("blank text issued %d requests", calls)
	}
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *recordingObserver) ObserveTranslation(outcome string) {
	o.mu.Lock()
	o.outcomes = append(o.outcomes, outcome)
	o.mu.Unlock()
}

func noSleep(sleeps *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*sleeps = append(*sleeps, d)
		return nil
	}
}

func TestRetryingFallsBackToOriginal(t *testing.T) {
	calls := 0
	failing := Func(func(context.Context, string, string, string) (string, error) {
		calls++
		return "", errors.New("quota exceeded")
	})

	observer := &recordingObserver{}
	r := NewRetrying(failing, 3, time.Second, observer)
	var sleeps []time.Duration
	r.sleep = noSleep(&sleeps)

	got, err := r.Translate(context.Background(), "Titular original", "es", "en")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if got != "Titular original" {
		t.Fatalf("fallback = %q, want original title", got)
	}
	if calls != 3 {
		t.Fatalf("attempts = %d, want 3", calls)
	}
	if len(sleeps) != 2 || sleeps[0] != time.Second || sleeps[1] != time.Second {
		t.Fatalf("sleeps = %v, want two 1s pauses between attempts", sleeps)
	}
	want := []string{"failure", "failure", "failure", "fallback"}
	if len(observer.outcomes) != len(want) {
		t.Fatalf("outcomes = %v, want %v", observer.outcomes, want)
	}
	for i := range want {
		if observer.outcomes[i] != want[i] {
			t.Fatalf("outcomes = %v, want %v", observer.outcomes, want)
		}
	}
}

func TestRetryingLogsWithContextLogger(t *testing.T) {
	failing := Func(func(context.Context, string, string, string) (string, error) {
		return "", errors.New("quota exceeded")
	})

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil)).With(slog.String("session", "Windows_Chrome"))
	ctx := WithLogger(context.Background(), logger)

	r := NewRetrying(failing, 2, 0, nil)
	if _, err := r.Translate(ctx, "Titular", "es", "en"); err != nil {
		t.Fatalf("translate: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("log lines = %d, want 2:\n%s", len(lines), buf.String())
	}
	for _, line := range lines {
		if !strings.Contains(line, `"session":"Windows_Chrome"`) || !strings.Contains(line, `"msg":"translation failed"`) {
			t.Fatalf("retry warning missing session attribute: %s", line)
		}
	}
}

func TestRetryingRecoversOnSecondAttempt(t *testing.T) {
	calls := 0
	flaky := Func(func(_ context.Context, text, _, _ string) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("timeout")
		}
		return "Translated " + text, nil
	})

	r := NewRetrying(flaky, 3, time.Second, nil)
	var sleeps []time.Duration
	r.sleep = noSleep(&sleeps)

	got, err := r.Translate(context.Background(), "x", "es", "en")
	if err != nil || got != "Translated x" {
		t.Fatalf("translate = %q, %v", got, err)
	}
	if calls != 2 || len(sleeps) != 1 {
		t.Fatalf("calls=%d sleeps=%d, want 2/1", calls, len(sleeps))
	}
}

func TestRetryingStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	failing := Func(func(context.Context, string, string, string) (string, error) {
		calls++
		cancel()
		return "", errors.New("boom")
	})

	r := NewRetrying(failing, 3, time.Second, nil)
	got, err := r.Translate(ctx, "original", "es", "en")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if got != "original" || calls != 1 {
		t.Fatalf("got=%q calls=%d", got, calls)
	}
}

func TestCachedServesRepeatsAndSkipsFailures(t *testing.T) {
	calls := 0
	next := Func(func(_ context.Context, text, _, _ string) (string, error) {
		calls++
		if text == "bad" {
			return "", errors.New("nope")
		}
		return "EN:" + text, nil
	})

	c, err := NewCached(next, 8)
	if err != nil {
		t.Fatalf("new cached: %v", err)
	}

	for i := 0; i < 3; i++ {
		got, err := c.Translate(context.Background(), "hola", "es", "en")
		if err != nil || got != "EN:hola" {
			t.Fatalf("translate = %q, %v", got, err)
		}
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}

	if _, err := c.Translate(context.Background(), "hola", "es", "fr"); err != nil {
		t.Fatalf("translate fr: %v", err)
	}
	if calls != 2 {
		t.Fatalf("different target language must miss the cache")
	}

	if _, err := c.Translate(context.Background(), "bad", "es", "en"); err == nil {
		t.Fatalf("expected error")
	}
	if c.Len() != 2 {
		t.Fatalf("cache len = %d, failures must not be cached", c.Len())
	}
}

func TestCachedRejectsInvalidSize(t *testing.T) {
	if _, err := NewCached(Func(nil), 0); err == nil {
		t.Fatalf("expected error for zero size")
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.TranslateEndpoint = endpoint
	cfg.TranslateBackoff = 0

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodGet, endpoint,
		httpmock.NewStringResponder(http.StatusOK, `[[["Opinion","Opinión",null,null,10]]]`))

	r, err := FromConfig(cfg, nil, transport)
	if err != nil {
		t.Fatalf("from config: %v", err)
	}

	for i := 0; i < 2; i++ {
		got, err := r.Translate(context.Background(), "Opinión", cfg.SourceLang, cfg.TargetLang)
		if err != nil || got != "Opinion" {
			t.Fatalf("translate = %q, %v", got, err)
		}
	}
	if calls := transport.GetTotalCallCount(); calls != 1 {
		t.Fatalf("http calls = %d, want 1 (second served from cache)", calls)
	}
}

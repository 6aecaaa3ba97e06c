package translate

import (
	"context"
	"log/slog"
	"time"
)

// Observer is notified about translation attempts. scraper.Metrics
// implements it.
type Observer interface {
	ObserveTranslation(outcome string)
}

type loggerKey struct{}

// WithLogger attaches logger to ctx so retry warnings carry the caller's
// attributes.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

func loggerFrom(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// Retrying retries a Translator with a fixed backoff and falls back to the
// original text once every attempt has failed.
type Retrying struct {
	next     Translator
	attempts int
	backoff  time.Duration
	observer Observer
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewRetrying wraps next. attempts below one are treated as one.
func NewRetrying(next Translator, attempts int, backoff time.Duration, observer Observer) *Retrying {
	if attempts < 1 {
		attempts = 1
	}
	return &Retrying{
		next:     next,
		attempts: attempts,
		backoff:  backoff,
		observer: observer,
		sleep:    sleepContext,
	}
}

// Translate never fails because of the wrapped translator: after the last
// failed attempt it returns text unchanged with a nil error. Only context
// cancellation is reported, still alongside the original text.
func (r *Retrying) Translate(ctx context.Context, text, source, target string) (string, error) {
	for attempt := 1; attempt <= r.attempts; attempt++ {
		translated, err := r.next.Translate(ctx, text, source, target)
		if err == nil {
			r.observe("success")
			return translated, nil
		}

		r.observe("failure")
		loggerFrom(ctx).Warn("translation failed",
			slog.Int("attempt", attempt),
			slog.Any("error", TranslationError{Attempt: attempt, Err: err}),
		)
		if ctx.Err() != nil {
			return text, ctx.Err()
		}
		if attempt < r.attempts {
			if err := r.sleep(ctx, r.backoff); err != nil {
				return text, err
			}
		}
	}

	r.observe("fallback")
	return text, nil
}

func (r *Retrying) observe(outcome string) {
	if r.observer != nil {
		r.observer.ObserveTranslation(outcome)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

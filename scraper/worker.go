package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aluiziolira/go-scrape-opinions/browser"
	"github.com/aluiziolira/go-scrape-opinions/config"
	"github.com/aluiziolira/go-scrape-opinions/models"
	"github.com/aluiziolira/go-scrape-opinions/parser"
	"github.com/aluiziolira/go-scrape-opinions/pipeline"
	"github.com/aluiziolira/go-scrape-opinions/translate"
)

// State is a step in a session's lifecycle.
type State int

const (
	StateInit State = iota
	StateDriverAcquired
	StateExtracted
	StateTranslated
	StatePublished
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateDriverAcquired:
		return "driver_acquired"
	case StateExtracted:
		return "extracted"
	case StateTranslated:
		return "translated"
	case StatePublished:
		return "published"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Worker runs one session end to end: acquire a driver, extract, translate,
// count repeated words, publish, release.
type Worker struct {
	cfg        *config.Config
	opener     browser.Opener
	extractor  *Extractor
	translator translate.Translator
	metrics    *Metrics
	logger     *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewWorker wires a worker. A nil logger falls back to slog.Default().
func NewWorker(cfg *config.Config, opener browser.Opener, extractor *Extractor, translator translate.Translator, metrics *Metrics, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		cfg:        cfg,
		opener:     opener,
		extractor:  extractor,
		translator: translator,
		metrics:    metrics,
		logger:     logger,
		sleep:      sleepContext,
	}
}

// Run executes the session and publishes exactly one result into store, even
// when the session fails. The driver, once acquired, is always closed. The
// returned trace lists the states the session went through.
func (w *Worker) Run(ctx context.Context, store *pipeline.ResultStore, session models.SessionConfig) (trace []State) {
	logger := w.logger.With(slog.String("session", session.Name))
	started := time.Now()
	result := models.SessionResult{Name: session.Name, StartedAt: started}
	published := false

	step := func(to State) {
		if len(trace) > 0 {
			logger.Debug("session state",
				slog.String("from", trace[len(trace)-1].String()),
				slog.String("to", to.String()),
			)
		}
		trace = append(trace, to)
	}
	fail := func(err error) {
		step(StateFailed)
		w.metrics.IncError(err)
		logger.Error("session failed", slog.Any("error", err))
		result.Err = err.Error()
		w.publish(logger, store, result, "failed")
		published = true
	}

	step(StateInit)
	defer func() {
		if r := recover(); r != nil && !published {
			fail(fmt.Errorf("panic: %v", r))
		}
		step(StateClosed)
		w.metrics.ObserveSession(time.Since(started))
	}()

	page, err := w.opener.Open(ctx, session)
	if err != nil {
		fail(err)
		return trace
	}
	defer w.release(logger, page)
	step(StateDriverAcquired)
	logger.Info("driver initialised", slog.String("target", string(session.Target.Kind())))

	articles, err := w.scrape(ctx, page, session.Name, logger)
	if err != nil {
		fail(err)
		return trace
	}
	step(StateExtracted)

	result.Articles = w.translateTitles(ctx, articles, logger)
	step(StateTranslated)

	titles := make([]string, len(result.Articles))
	for i, article := range result.Articles {
		titles[i] = article.TranslatedTitle
	}
	result.Repeated = parser.CountWords(titles, w.cfg.RepeatThreshold)

	outcome := "success"
	if len(result.Articles) == 0 {
		outcome = "empty"
	}
	w.publish(logger, store, result, outcome)
	published = true
	step(StatePublished)
	return trace
}

// scrape loads the listing page, lets lazy content settle and extracts the
// articles.
func (w *Worker) scrape(ctx context.Context, page browser.Session, session string, logger *slog.Logger) ([]models.Article, error) {
	if err := page.Navigate(ctx, w.cfg.TargetURL); err != nil {
		return nil, ExtractionError{Stage: "navigate", Err: err}
	}

	if !page.WaitFor(ctx, browser.ElementPresent(w.cfg.LanguageXPath), w.cfg.LanguageWait) {
		logger.Warn("could not verify page language", slog.String("xpath", w.cfg.LanguageXPath))
	}

	for i := 0; i < w.cfg.SettleIterations; i++ {
		if err := page.ScrollFraction(ctx, w.cfg.SettleFraction); err != nil {
			logger.Warn("scroll failed", slog.Int("iteration", i+1), slog.Any("error", err))
		}
		if err := w.sleep(ctx, w.cfg.SettlePause); err != nil {
			return nil, ExtractionError{Stage: "settle", Err: err}
		}
	}

	return w.extractor.Extract(ctx, page, session, logger)
}

// translateTitles returns an independent copy of articles with translated
// titles, falling back to the original title on failure.
func (w *Worker) translateTitles(ctx context.Context, articles []models.Article, logger *slog.Logger) []models.Article {
	ctx = translate.WithLogger(ctx, logger)
	out := make([]models.Article, len(articles))
	for i, article := range articles {
		translated, err := w.translator.Translate(ctx, article.OriginalTitle, w.cfg.SourceLang, w.cfg.TargetLang)
		if err != nil || translated == "" {
			if err != nil {
				logger.Warn("translation failed", slog.Int("index", i+1), slog.Any("error", err))
			}
			translated = article.OriginalTitle
		}
		article.TranslatedTitle = translated
		out[i] = article
	}
	return out
}

func (w *Worker) publish(logger *slog.Logger, store *pipeline.ResultStore, result models.SessionResult, outcome string) {
	result.FinishedAt = time.Now()
	if err := store.Put(result); err != nil {
		logger.Error("publish result", slog.Any("error", err))
		return
	}
	w.metrics.IncSession(outcome)
	logger.Info("stored session result",
		slog.Int("articles", len(result.Articles)),
		slog.String("outcome", outcome),
	)
}

func (w *Worker) release(logger *slog.Logger, page browser.Session) {
	if err := page.Close(); err != nil {
		logger.Warn("driver close failed", slog.Any("error", err))
		return
	}
	logger.Info("driver closed")
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

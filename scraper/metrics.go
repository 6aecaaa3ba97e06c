package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for a scraping run.
type Metrics struct {
	Registry          *prometheus.Registry
	SessionsTotal     *prometheus.CounterVec
	SessionDuration   prometheus.Histogram
	ArticlesTotal     prometheus.Counter
	CandidatesSkipped prometheus.Counter
	TranslationsTotal *prometheus.CounterVec
	ImageFetchesTotal *prometheus.CounterVec
	ErrorsTotal       *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	sessions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_sessions_total",
			Help: "Browser sessions finished, by outcome.",
		},
		[]string{"outcome"},
	)
	sessionDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_session_duration_seconds",
			Help:    "Wall time of one session from driver acquisition to release.",
			Buckets: []float64{1, 5, 10, 20, 30, 60, 120, 300},
		},
	)
	articles := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_articles_extracted_total",
			Help: "Total number of articles accepted by the extractor.",
		},
	)
	skipped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_candidates_skipped_total",
			Help: "Candidate elements skipped for lack of a title or a parse error.",
		},
	)
	translations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_translation_attempts_total",
			Help: "Translation attempts by outcome (success, failure, fallback).",
		},
		[]string{"outcome"},
	)
	images := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_image_fetches_total",
			Help: "Cover image downloads by result.",
		},
		[]string{"result"},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "Total number of scraper errors by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(sessions, sessionDuration, articles, skipped, translations, images, errorsTotal)

	return &Metrics{
		Registry:          registry,
		SessionsTotal:     sessions,
		SessionDuration:   sessionDuration,
		ArticlesTotal:     articles,
		CandidatesSkipped: skipped,
		TranslationsTotal: translations,
		ImageFetchesTotal: images,
		ErrorsTotal:       errorsTotal,
	}
}

// IncSession counts a finished session.
func (m *Metrics) IncSession(outcome string) {
	if m == nil {
		return
	}
	m.SessionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveSession records a session's wall time.
func (m *Metrics) ObserveSession(d time.Duration) {
	if m == nil {
		return
	}
	m.SessionDuration.Observe(d.Seconds())
}

// AddArticles increments the accepted articles counter.
func (m *Metrics) AddArticles(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ArticlesTotal.Add(float64(n))
}

// IncSkipped counts a skipped candidate element.
func (m *Metrics) IncSkipped() {
	if m == nil {
		return
	}
	m.CandidatesSkipped.Inc()
}

// ObserveTranslation counts one translation attempt outcome.
func (m *Metrics) ObserveTranslation(outcome string) {
	if m == nil {
		return
	}
	m.TranslationsTotal.WithLabelValues(outcome).Inc()
}

// IncImage counts an image download result.
func (m *Metrics) IncImage(result string) {
	if m == nil {
		return
	}
	m.ImageFetchesTotal.WithLabelValues(result).Inc()
}

// IncError increments the errors counter for the error's type label.
func (m *Metrics) IncError(err error) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorTypeLabel(err)).Inc()
}

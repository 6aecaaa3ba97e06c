package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aluiziolira/go-scrape-opinions/browser"
	"github.com/aluiziolira/go-scrape-opinions/config"
	"github.com/aluiziolira/go-scrape-opinions/models"
	"github.com/aluiziolira/go-scrape-opinions/parser"
)

// fieldStrategy is one way of reading a field from a candidate element. An
// empty value or an error means the field is absent for this strategy.
type fieldStrategy struct {
	name    string
	extract func(browser.Element) (string, error)
}

// Extractor turns candidate elements into article records.
type Extractor struct {
	cfg     *config.Config
	images  ImageFetcher
	metrics *Metrics

	title   []fieldStrategy
	content []fieldStrategy
}

// NewExtractor builds an extractor. images may be nil to skip downloads.
func NewExtractor(cfg *config.Config, images ImageFetcher, metrics *Metrics) *Extractor {
	e := &Extractor{cfg: cfg, images: images, metrics: metrics}

	for _, selector := range cfg.TitleSelectors {
		e.title = append(e.title, fieldStrategy{
			name:    "heading " + selector,
			extract: childText(selector),
		})
	}
	e.title = append(e.title, fieldStrategy{name: "inner text first line", extract: firstLineOfInnerText})

	e.content = []fieldStrategy{
		{name: "paragraphs", extract: joinedChildText(cfg.ParagraphSelector)},
		{name: "visible text", extract: func(el browser.Element) (string, error) { return el.Text() }},
		{name: "inner text", extract: func(el browser.Element) (string, error) { return el.InnerText() }},
	}
	return e
}

// Extract queries the settled page for candidates and parses them.
func (e *Extractor) Extract(ctx context.Context, page browser.Session, session string, logger *slog.Logger) ([]models.Article, error) {
	candidates, err := page.FindAll(ctx, e.cfg.CandidateSelector, e.cfg.MaxCandidates)
	if err != nil {
		return nil, ExtractionError{Stage: "find candidates", Err: err}
	}
	logger.Info("found candidate articles", slog.Int("count", len(candidates)))
	return e.ExtractFrom(ctx, session, candidates, logger), nil
}

// ExtractFrom scans at most MaxCandidates elements and accepts at most
// MaxArticles of them, in order. Elements without a title are skipped and do
// not count toward the cap.
func (e *Extractor) ExtractFrom(ctx context.Context, session string, candidates []browser.Element, logger *slog.Logger) []models.Article {
	if len(candidates) > e.cfg.MaxCandidates {
		candidates = candidates[:e.cfg.MaxCandidates]
	}

	articles := make([]models.Article, 0, e.cfg.MaxArticles)
	for idx, el := range candidates {
		if len(articles) >= e.cfg.MaxArticles || ctx.Err() != nil {
			break
		}

		article, err := e.parseCandidate(ctx, session, idx, el, len(articles)+1, logger)
		if err != nil {
			e.metrics.IncSkipped()
			if errors.Is(err, errEmptyTitle) {
				logger.Debug("skipping candidate without title", slog.Int("candidate", idx))
				continue
			}
			e.metrics.IncError(err)
			logger.Warn("error parsing article", slog.Any("error", err))
			continue
		}

		articles = append(articles, article)
		logger.Info("processed article",
			slog.Int("index", len(articles)),
			slog.String("title", parser.Truncate(article.OriginalTitle, 50)),
		)
	}

	e.metrics.AddArticles(len(articles))
	return articles
}

func (e *Extractor) parseCandidate(ctx context.Context, session string, idx int, el browser.Element, number int, logger *slog.Logger) (article models.Article, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ElementParseError{Index: idx, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	title := firstPresent("title", el, e.title, logger)
	if title == "" {
		return models.Article{}, ElementParseError{Index: idx, Err: errEmptyTitle}
	}

	article = models.Article{
		OriginalTitle: title,
		Content:       firstPresent("content", el, e.content, logger),
		ImagePath:     e.storeImage(ctx, session, el, number, logger),
	}
	if err := parser.ValidateArticle(&article); err != nil {
		return models.Article{}, ElementParseError{Index: idx, Err: err}
	}
	return article, nil
}

// storeImage downloads the element's first image when its source is an
// absolute http(s) URL. Failures leave the path empty.
func (e *Extractor) storeImage(ctx context.Context, session string, el browser.Element, number int, logger *slog.Logger) string {
	if e.images == nil {
		return ""
	}

	img, err := el.Find(e.cfg.ImageSelector)
	if err != nil {
		return ""
	}
	src, err := img.Attr("src")
	if err != nil || !parser.IsAbsoluteHTTP(src) {
		return ""
	}
	src = strings.TrimSpace(src)

	dest := ImagePath(e.cfg.ImageRoot, session, number)
	if err := e.images.Fetch(ctx, src, dest); err != nil {
		fetchErr := ImageFetchError{URL: src, Err: err}
		e.metrics.IncImage("failure")
		e.metrics.IncError(fetchErr)
		logger.Warn("failed saving image", slog.Any("error", fetchErr))
		return ""
	}
	e.metrics.IncImage("success")
	return dest
}

// firstPresent runs strategies in order and returns the first non-blank
// value, trimmed.
func firstPresent(field string, el browser.Element, strategies []fieldStrategy, logger *slog.Logger) string {
	for _, s := range strategies {
		value, err := s.extract(el)
		if err != nil {
			logger.Debug("field strategy failed",
				slog.Any("error", ExtractionFieldError{Field: field, Strategy: s.name, Err: err}),
			)
			continue
		}
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
	return ""
}

func childText(selector string) func(browser.Element) (string, error) {
	return func(el browser.Element) (string, error) {
		child, err := el.Find(selector)
		if err != nil {
			return "", err
		}
		return child.Text()
	}
}

func joinedChildText(selector string) func(browser.Element) (string, error) {
	return func(el browser.Element) (string, error) {
		children, err := el.FindAll(selector)
		if err != nil {
			return "", err
		}
		texts := make([]string, 0, len(children))
		for _, child := range children {
			text, err := child.Text()
			if err != nil {
				return "", err
			}
			texts = append(texts, text)
		}
		return parser.JoinNonEmpty(texts), nil
	}
}

func firstLineOfInnerText(el browser.Element) (string, error) {
	raw, err := el.InnerText()
	if err != nil {
		return "", err
	}
	return parser.FirstLine(raw), nil
}

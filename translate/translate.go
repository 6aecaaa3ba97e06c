// Package translate wraps a text translation service with bounded retries and
// a shared cache.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aluiziolira/go-scrape-opinions/config"
	"github.com/gocolly/colly/v2"
)

// Translator converts text from one language to another.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Func adapts a plain function to Translator.
type Func func(ctx context.Context, text, source, target string) (string, error)

func (f Func) Translate(ctx context.Context, text, source, target string) (string, error) {
	return f(ctx, text, source, target)
}

// TranslationError reports one failed translation attempt.
type TranslationError struct {
	Attempt int
	Err     error
}

func (e TranslationError) Error() string {
	return fmt.Errorf("translation attempt %d: %w", e.Attempt, e.Err).Error()
}

func (e TranslationError) Unwrap() error {
	return e.Err
}

// FromConfig assembles the translation chain: the Google client behind a
// shared cache, retried with a fixed backoff. A nil rt keeps the default
// transport.
func FromConfig(cfg *config.Config, observer Observer, rt http.RoundTripper) (*Retrying, error) {
	google := NewGoogle(cfg.TranslateEndpoint, cfg.UserAgent, cfg.Timeout)
	if rt != nil {
		google.WithTransport(rt)
	}

	var next Translator = google
	if cfg.TranslateCacheSize > 0 {
		cached, err := NewCached(google, cfg.TranslateCacheSize)
		if err != nil {
			return nil, err
		}
		next = cached
	}
	return NewRetrying(next, cfg.TranslateAttempts, cfg.TranslateBackoff, observer), nil
}

// Google calls the public Google Translate web endpoint through a colly
// collector.
type Google struct {
	endpoint  string
	collector *colly.Collector
}

// NewGoogle builds a client for endpoint.
func NewGoogle(endpoint, userAgent string, timeout time.Duration) *Google {
	collector := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
		colly.MaxBodySize(1<<20),
	)
	collector.SetRequestTimeout(timeout)
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})
	return &Google{endpoint: endpoint, collector: collector}
}

// WithTransport swaps the HTTP transport.
func (g *Google) WithTransport(rt http.RoundTripper) {
	g.collector.WithTransport(rt)
}

// Translate is safe for concurrent use: each call runs on its own clone of
// the base collector.
func (g *Google) Translate(ctx context.Context, text, source, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", source)
	params.Set("tl", target)
	params.Set("dt", "t")
	params.Set("q", text)

	c := g.collector.Clone()
	var body []byte
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	if err := c.Visit(g.endpoint + "?" + params.Encode()); err != nil {
		return "", fmt.Errorf("request: %w", err)
	}
	if body == nil {
		return "", fmt.Errorf("request: no response body")
	}
	return decodeGoogle(body)
}

// decodeGoogle extracts the translated segments from the nested array
// response: [[["translated","original",...],...],...].
func decodeGoogle(body []byte) (string, error) {
	var payload []json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("decode response: empty payload")
	}

	var segments [][]json.RawMessage
	if err := json.Unmarshal(payload[0], &segments); err != nil {
		return "", fmt.Errorf("decode segments: %w", err)
	}

	var b strings.Builder
	for _, segment := range segments {
		if len(segment) == 0 {
			continue
		}
		var part string
		if err := json.Unmarshal(segment[0], &part); err != nil {
			continue
		}
		b.WriteString(part)
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("decode response: no translated text")
	}
	return b.String(), nil
}

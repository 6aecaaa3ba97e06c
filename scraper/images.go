package scraper

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aluiziolira/go-scrape-opinions/config"
	"github.com/gocolly/colly/v2"
)

// ImageFetcher stores the bytes behind url at dest.
type ImageFetcher interface {
	Fetch(ctx context.Context, url, dest string) error
}

// ImageDir is the per-session image directory under root.
func ImageDir(root, session string) string {
	safe := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, session)
	return filepath.Join(root, "article_images_"+safe)
}

// ImagePath is the file for the index-th (1-based) accepted article.
func ImagePath(root, session string, index int) string {
	return filepath.Join(ImageDir(root, session), fmt.Sprintf("article_%d.jpg", index))
}

// CollyImageFetcher downloads images synchronously with a colly collector.
type CollyImageFetcher struct {
	collector *colly.Collector
}

// NewImageFetcher builds a fetcher that honours cfg's user agent and timeout.
func NewImageFetcher(cfg *config.Config) *CollyImageFetcher {
	collector := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
		colly.MaxBodySize(20*1024*1024),
	)
	collector.SetRequestTimeout(cfg.Timeout)
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})
	return &CollyImageFetcher{collector: collector}
}

// WithTransport swaps the HTTP transport.
func (f *CollyImageFetcher) WithTransport(rt http.RoundTripper) {
	f.collector.WithTransport(rt)
}

// Fetch is safe for concurrent use: each call runs on its own clone of the
// base collector.
func (f *CollyImageFetcher) Fetch(ctx context.Context, url, dest string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	c := f.collector.Clone()
	var saveErr error
	saved := false
	c.OnResponse(func(r *colly.Response) {
		saved = true
		saveErr = r.Save(dest)
	})

	if err := c.Visit(url); err != nil {
		return err
	}
	if !saved {
		return fmt.Errorf("no response body")
	}
	return saveErr
}

package browser

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
)

// newCollector builds the colly collector shared by static sessions.
func newCollector(userAgent string, timeout time.Duration) *colly.Collector {
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(timeout)
	c.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})
	return c
}

// StaticSession loads pages over plain HTTP and queries the returned markup.
// Scripts never run, so lazy-loaded content stays unloaded.
type StaticSession struct {
	collector *colly.Collector

	mu     sync.Mutex
	doc    *document
	closed bool
}

func newStaticSession(base *colly.Collector) *StaticSession {
	return &StaticSession{collector: base}
}

func (s *StaticSession) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.isClosed() {
		return ErrSessionClosed
	}

	c := s.collector.Clone()
	var body []byte
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	if err := c.Visit(url); err != nil {
		return fmt.Errorf("visit %s: %w", url, err)
	}

	doc, err := parseDocument(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
	return nil
}

func (s *StaticSession) WaitFor(ctx context.Context, cond Condition, _ time.Duration) bool {
	doc, err := s.current()
	if err != nil || ctx.Err() != nil {
		return false
	}
	ok, err := doc.matches(cond.XPath)
	return err == nil && ok
}

func (s *StaticSession) FindAll(ctx context.Context, selector string, limit int) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := s.current()
	if err != nil {
		return nil, err
	}
	return doc.findAll(selector, limit), nil
}

func (s *StaticSession) ExecuteScript(context.Context, string) error {
	return ErrScriptUnsupported
}

// ScrollFraction is a no-op: a static document has nothing left to load.
func (s *StaticSession) ScrollFraction(ctx context.Context, _ float64) error {
	return ctx.Err()
}

func (s *StaticSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.doc = nil
	return nil
}

func (s *StaticSession) current() (*document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.doc == nil {
		return nil, ErrNotNavigated
	}
	return s.doc, nil
}

func (s *StaticSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

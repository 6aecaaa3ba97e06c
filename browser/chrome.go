package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromeSession drives a local headless Chrome through the DevTools protocol.
// Element queries run against an outerHTML snapshot taken at FindAll time.
type ChromeSession struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration

	closeOnce sync.Once
}

func openChrome(ctx context.Context, userAgent string, timeout time.Duration) (*ChromeSession, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.DisableGPU,
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(userAgent),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// An empty Run starts the browser so launch failures surface here.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	return &ChromeSession{
		ctx: browserCtx,
		cancel: func() {
			browserCancel()
			allocCancel()
		},
		timeout: timeout,
	}, nil
}

func (s *ChromeSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.ctx.Err() != nil {
		return ErrSessionClosed
	}
	runCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, s.timeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (s *ChromeSession) WaitFor(ctx context.Context, cond Condition, timeout time.Duration) bool {
	return s.run(ctx, timeout, chromedp.WaitReady(cond.XPath, chromedp.BySearch)) == nil
}

func (s *ChromeSession) FindAll(ctx context.Context, selector string, limit int) ([]Element, error) {
	var markup string
	if err := s.run(ctx, s.timeout, chromedp.OuterHTML("html", &markup, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("snapshot page: %w", err)
	}
	doc, err := parseDocument([]byte(markup))
	if err != nil {
		return nil, err
	}
	return doc.findAll(selector, limit), nil
}

func (s *ChromeSession) ExecuteScript(ctx context.Context, script string) error {
	return s.run(ctx, s.timeout, chromedp.Evaluate(script, nil))
}

func (s *ChromeSession) ScrollFraction(ctx context.Context, fraction float64) error {
	return s.ExecuteScript(ctx, scrollScript(fraction))
}

func (s *ChromeSession) Close() error {
	s.closeOnce.Do(s.cancel)
	return nil
}

// Package browser adapts browser automation backends to a small session API
// used by the scraper.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNoSuchElement      = errors.New("browser: no such element")
	ErrSessionClosed      = errors.New("browser: session closed")
	ErrNotNavigated       = errors.New("browser: no page loaded")
	ErrScriptUnsupported  = errors.New("browser: scripts not supported by this session")
	ErrMissingCredentials = errors.New("browser: remote grid credentials missing")
)

// DriverInitError reports that a session could not be acquired.
type DriverInitError struct {
	Session string
	Err     error
}

func (e *DriverInitError) Error() string {
	return fmt.Sprintf("driver init %s: %v", e.Session, e.Err)
}

func (e *DriverInitError) Unwrap() error {
	return e.Err
}

// Condition is a page predicate expressed as an XPath that must match at
// least one node.
type Condition struct {
	Description string
	XPath       string
}

// ElementPresent builds a Condition satisfied once xpath matches.
func ElementPresent(xpath string) Condition {
	return Condition{Description: "element present " + xpath, XPath: xpath}
}

// Session is one live browser (or browser-like) session.
type Session interface {
	Navigate(ctx context.Context, url string) error
	// WaitFor blocks until cond holds or timeout elapses. It returns false on
	// timeout instead of failing.
	WaitFor(ctx context.Context, cond Condition, timeout time.Duration) bool
	// FindAll returns at most limit elements matching the CSS selector. A
	// limit <= 0 means no bound.
	FindAll(ctx context.Context, selector string, limit int) ([]Element, error)
	ExecuteScript(ctx context.Context, script string) error
	ScrollFraction(ctx context.Context, fraction float64) error
	// Close releases the session. Calling it more than once is safe.
	Close() error
}

// Element is a node inside a loaded page.
type Element interface {
	// Find returns the first descendant matching selector, or ErrNoSuchElement.
	Find(selector string) (Element, error)
	FindAll(selector string) ([]Element, error)
	// Text is the rendered text with whitespace normalised per line.
	Text() (string, error)
	// InnerText is the raw text content with line breaks preserved.
	InnerText() (string, error)
	Attr(name string) (string, error)
}

func scrollScript(fraction float64) string {
	return fmt.Sprintf("window.scrollTo(0, document.body.scrollHeight * %g);", fraction)
}

func bound[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

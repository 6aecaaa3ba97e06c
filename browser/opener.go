package browser

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aluiziolira/go-scrape-opinions/config"
	"github.com/aluiziolira/go-scrape-opinions/models"
	"github.com/gocolly/colly/v2"
)

// Opener acquires a Session for a SessionConfig.
type Opener interface {
	Open(ctx context.Context, cfg models.SessionConfig) (Session, error)
}

// DefaultOpener picks the backend from the session's target variant.
type DefaultOpener struct {
	cfg       *config.Config
	collector *colly.Collector
}

// NewOpener builds an opener for cfg.
func NewOpener(cfg *config.Config) *DefaultOpener {
	return &DefaultOpener{
		cfg:       cfg,
		collector: newCollector(cfg.UserAgent, cfg.Timeout),
	}
}

// WithTransport swaps the HTTP transport used by static sessions.
func (o *DefaultOpener) WithTransport(rt http.RoundTripper) {
	o.collector.WithTransport(rt)
}

// Open returns a *DriverInitError when the session cannot be acquired.
func (o *DefaultOpener) Open(ctx context.Context, cfg models.SessionConfig) (Session, error) {
	var (
		session Session
		err     error
	)

	switch cfg.Target.(type) {
	case models.LocalTarget:
		session, err = openChrome(ctx, o.cfg.UserAgent, o.cfg.Timeout)
	case models.StaticTarget:
		session = newStaticSession(o.collector)
	case models.RemoteDesktopTarget, models.RemoteMobileTarget:
		session, err = openRemote(cfg, o.cfg.RemoteHubURL, o.cfg.Credentials, o.cfg.ImplicitWait)
	default:
		err = fmt.Errorf("unsupported target %T", cfg.Target)
	}

	if err != nil {
		return nil, &DriverInitError{Session: cfg.Name, Err: err}
	}
	return session, nil
}

package browser

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aluiziolira/go-scrape-opinions/config"
	"github.com/aluiziolira/go-scrape-opinions/models"
	"github.com/tebeka/selenium"
)

// Capabilities maps a session onto the remote grid's capability keys. A
// mobile target adds device and real_mobile; a desktop target carries the OS
// and browser version.
func Capabilities(cfg models.SessionConfig) (selenium.Capabilities, error) {
	caps := selenium.Capabilities{
		"name":                     cfg.Name,
		"browserstack.local":       "false",
		"browserstack.debug":       "true",
		"browserstack.console":     "verbose",
		"browserstack.networkLogs": "true",
	}

	switch t := cfg.Target.(type) {
	case models.RemoteDesktopTarget:
		setIfPresent(caps, "os", t.OS)
		setIfPresent(caps, "os_version", t.OSVersion)
		setIfPresent(caps, "browser", t.Browser)
		setIfPresent(caps, "browserName", t.Browser)
		setIfPresent(caps, "browser_version", t.BrowserVersion)
	case models.RemoteMobileTarget:
		setIfPresent(caps, "device", t.Device)
		setIfPresent(caps, "os_version", t.OSVersion)
		setIfPresent(caps, "browser", t.Browser)
		setIfPresent(caps, "browserName", t.Browser)
		caps["real_mobile"] = "true"
	default:
		return nil, fmt.Errorf("session %s: target %T is not remote", cfg.Name, cfg.Target)
	}
	return caps, nil
}

func setIfPresent(caps selenium.Capabilities, key, value string) {
	if value != "" {
		caps[key] = value
	}
}

// HubURL embeds the credentials into the grid endpoint.
func HubURL(hub string, creds config.Credentials) (string, error) {
	if !creds.Complete() {
		return "", ErrMissingCredentials
	}
	hub = strings.TrimPrefix(strings.TrimPrefix(hub, "https://"), "http://")
	return "https://" + url.UserPassword(creds.Username, creds.AccessKey).String() + "@" + hub, nil
}

// RemoteSession drives a browser on a WebDriver grid.
type RemoteSession struct {
	wd selenium.WebDriver

	closeOnce sync.Once
	closeErr  error
}

func openRemote(cfg models.SessionConfig, hub string, creds config.Credentials, implicitWait time.Duration) (*RemoteSession, error) {
	caps, err := Capabilities(cfg)
	if err != nil {
		return nil, err
	}
	endpoint, err := HubURL(hub, creds)
	if err != nil {
		return nil, err
	}

	wd, err := selenium.NewRemote(caps, endpoint)
	if err != nil {
		return nil, fmt.Errorf("start remote session: %w", err)
	}
	if implicitWait > 0 {
		if err := wd.SetImplicitWaitTimeout(implicitWait); err != nil {
			slog.Warn("could not set implicit wait",
				slog.String("session", cfg.Name),
				slog.Any("error", err),
			)
		}
	}
	return &RemoteSession{wd: wd}, nil
}

func (s *RemoteSession) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.wd.Get(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (s *RemoteSession) WaitFor(ctx context.Context, cond Condition, timeout time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	err := s.wd.WaitWithTimeout(func(wd selenium.WebDriver) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		found, err := wd.FindElements(selenium.ByXPATH, cond.XPath)
		if err != nil {
			return false, nil
		}
		return len(found) > 0, nil
	}, timeout)
	return err == nil
}

func (s *RemoteSession) FindAll(ctx context.Context, selector string, limit int) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	found, err := s.wd.FindElements(selenium.ByCSSSelector, selector)
	if err != nil {
		return nil, fmt.Errorf("find %q: %w", selector, err)
	}
	return wrapRemote(bound(found, limit)), nil
}

func (s *RemoteSession) ExecuteScript(ctx context.Context, script string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.wd.ExecuteScript(script, nil)
	return err
}

func (s *RemoteSession) ScrollFraction(ctx context.Context, fraction float64) error {
	return s.ExecuteScript(ctx, scrollScript(fraction))
}

func (s *RemoteSession) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.wd.Quit()
	})
	return s.closeErr
}

type remoteElement struct {
	el selenium.WebElement
}

func wrapRemote(found []selenium.WebElement) []Element {
	out := make([]Element, len(found))
	for i, el := range found {
		out[i] = &remoteElement{el: el}
	}
	return out
}

func (e *remoteElement) Find(selector string) (Element, error) {
	el, err := e.el.FindElement(selenium.ByCSSSelector, selector)
	if err != nil {
		return nil, fmt.Errorf("%q: %w: %v", selector, ErrNoSuchElement, err)
	}
	return &remoteElement{el: el}, nil
}

func (e *remoteElement) FindAll(selector string) ([]Element, error) {
	found, err := e.el.FindElements(selenium.ByCSSSelector, selector)
	if err != nil {
		return nil, err
	}
	return wrapRemote(found), nil
}

func (e *remoteElement) Text() (string, error) {
	return e.el.Text()
}

func (e *remoteElement) InnerText() (string, error) {
	return e.el.GetAttribute("innerText")
}

func (e *remoteElement) Attr(name string) (string, error) {
	return e.el.GetAttribute(name)
}

package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/shinych/webmirror/internal/model"
)

// Session is one headless Chrome instance.
type Session struct {
	logger *slog.Logger

	pageTimeout time.Duration
	pageWait    time.Duration

	allocCtx     context.Context
	allocCancel  context.CancelFunc
	browserCtx   context.Context
	browserClose context.CancelFunc
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithPageTimeout bounds how long one page may take to render.
func WithPageTimeout(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.pageTimeout = d
		}
	}
}

// WithPageWait adds a fixed settle delay after the document becomes ready,
// giving scripts time to populate the page.
func WithPageWait(d time.Duration) SessionOption {
	return func(s *Session) {
		if d >= 0 {
			s.pageWait = d
		}
	}
}

// NewSession creates an unstarted session. A nil logger falls back to
// slog.Default.
func NewSession(logger *slog.Logger, opts ...SessionOption) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		logger:      logger,
		pageTimeout: 60 * time.Second,
		pageWait:    2 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetPageWait updates the settle delay. Worker processes call this when
// the orchestrator's INIT message carries a wait.
func (s *Session) SetPageWait(d time.Duration) {
	if d >= 0 {
		s.pageWait = d
	}
}

// Start launches the browser process.
func (s *Session) Start(ctx context.Context) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Headless,
	)
	s.allocCtx, s.allocCancel = chromedp.NewExecAllocator(ctx, opts...)
	s.browserCtx, s.browserClose = chromedp.NewContext(s.allocCtx)

	// Force the browser to actually start so a broken Chrome install
	// fails here instead of on the first page.
	if err := chromedp.Run(s.browserCtx); err != nil {
		s.Close()
		return fmt.Errorf("start browser: %w", err)
	}
	return nil
}

// Close tears the browser down.
func (s *Session) Close() error {
	if s.browserClose != nil {
		s.browserClose()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
	return nil
}

// SetCookies installs session cookies into the browser.
func (s *Session) SetCookies(ctx context.Context, cookies []model.Cookie) error {
	if len(cookies) == 0 {
		return nil
	}
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		params = append(params, &network.CookieParam{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
			Secure: c.Secure,
		})
	}
	return chromedp.Run(s.browserCtx, network.SetCookies(params))
}

// CaptureCookies reads the browser's current cookies, typically once after
// discovery so they can be broadcast read-only to the workers.
func (s *Session) CaptureCookies(ctx context.Context) ([]model.Cookie, error) {
	var out []model.Cookie
	err := chromedp.Run(s.browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := network.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		for _, c := range cookies {
			out = append(out, model.Cookie{
				Name:   c.Name,
				Value:  c.Value,
				Domain: c.Domain,
				Path:   c.Path,
				Secure: c.Secure,
			})
		}
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("capture cookies: %w", err)
	}
	return out, nil
}

// navigate opens a page in a fresh tab and waits for it to settle. The
// returned cancel func closes the tab.
func (s *Session) navigate(url string) (context.Context, context.CancelFunc, error) {
	tabCtx, tabCancel := chromedp.NewContext(s.browserCtx)
	timeoutCtx, timeoutCancel := context.WithTimeout(tabCtx, s.pageTimeout)
	cancel := func() {
		timeoutCancel()
		tabCancel()
	}

	actions := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	}
	if s.pageWait > 0 {
		actions = append(actions, chromedp.Sleep(s.pageWait))
	}
	if err := chromedp.Run(timeoutCtx, actions...); err != nil {
		cancel()
		return nil, nil, fmt.Errorf("navigate %s: %w", url, err)
	}
	return timeoutCtx, cancel, nil
}

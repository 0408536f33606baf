// internal/browser/session.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uiflow/internal/flow"
)

const (
	defaultNavigationTimeout = 60 * time.Second
	defaultElementTimeout    = 10 * time.Second
)

// focusCheckJS reports whether some element other than the body has focus.
const focusCheckJS = `(() => { const el = document.activeElement; return !!el && el !== document.body && el !== document.documentElement; })()`

// Session is a single Chrome tab. It implements flow.Session.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger

	navigationTimeout time.Duration
	elementTimeout    time.Duration

	onClose   func()
	closeOnce sync.Once
	closeErr  error
}

var _ flow.Session = (*Session)(nil)

func newSession(ctx context.Context, cancel context.CancelFunc, navTimeout, elemTimeout time.Duration, logger *zap.Logger) *Session {
	if navTimeout <= 0 {
		navTimeout = defaultNavigationTimeout
	}
	if elemTimeout <= 0 {
		elemTimeout = defaultElementTimeout
	}
	id := uuid.NewString()
	return &Session{
		id:                id,
		ctx:               ctx,
		cancel:            cancel,
		logger:            logger.With(zap.String("session_id", id)),
		navigationTimeout: navTimeout,
		elementTimeout:    elemTimeout,
	}
}

// ID returns the unique identifier of the session.
func (s *Session) ID() string { return s.id }

// run executes actions in the tab, bounded by the caller's context and timeout.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	opCtx, opCancel := CombineContext(s.ctx, ctx)
	defer opCancel()

	runCtx, runCancel := context.WithTimeout(opCtx, timeout)
	defer runCancel()

	return chromedp.Run(runCtx, actions...)
}

// elementError classifies a failed element operation. A timeout that was not
// caused by the caller means the selector never matched.
func (s *Session) elementError(ctx context.Context, selector string, timeout time.Duration, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() == nil && s.ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %q did not appear within %s", flow.ErrElementNotFound, selector, timeout)
	}
	return fmt.Errorf("%w: %q: %w", flow.ErrSession, selector, err)
}

// Navigate loads rawURL and waits for the load event.
func (s *Session) Navigate(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" {
		return fmt.Errorf("%w: invalid url %q", flow.ErrNavigation, rawURL)
	}

	s.logger.Debug("Navigating to URL.", zap.String("url", rawURL))
	if err := s.run(ctx, s.navigationTimeout, chromedp.Navigate(rawURL)); err != nil {
		if ctx.Err() != nil || s.ctx.Err() != nil {
			return fmt.Errorf("%w: navigation to %s canceled: %w", flow.ErrSession, rawURL, err)
		}
		return fmt.Errorf("%w: %s: %w", flow.ErrNavigation, rawURL, err)
	}
	return nil
}

// SetValue replaces the content of the first element matching selector by
// clearing it and typing value, so the page sees real input events.
func (s *Session) SetValue(ctx context.Context, selector, value string) error {
	s.logger.Debug("Setting value.", zap.String("selector", selector), zap.Int("length", len(value)))
	err := s.run(ctx, s.elementTimeout,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
	return s.elementError(ctx, selector, s.elementTimeout, err)
}

// Click scrolls the first match into view and clicks it.
func (s *Session) Click(ctx context.Context, selector string) error {
	s.logger.Debug("Clicking element.", zap.String("selector", selector))
	err := s.run(ctx, s.elementTimeout,
		chromedp.ScrollIntoView(selector, chromedp.ByQuery),
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	)
	return s.elementError(ctx, selector, s.elementTimeout, err)
}

// SendKeys dispatches key to whichever element currently has focus.
func (s *Session) SendKeys(ctx context.Context, key string) error {
	seq, err := keySequence(key)
	if err != nil {
		return err
	}

	var focused bool
	if err := s.run(ctx, s.elementTimeout, chromedp.Evaluate(focusCheckJS, &focused)); err != nil {
		return fmt.Errorf("%w: check focus: %w", flow.ErrSession, err)
	}
	if !focused {
		return fmt.Errorf("%w: no element has focus to receive %s", flow.ErrElementNotFound, key)
	}

	s.logger.Debug("Sending key.", zap.String("key", key))
	if err := s.run(ctx, s.elementTimeout, chromedp.KeyEvent(seq)); err != nil {
		return fmt.Errorf("%w: send %s: %w", flow.ErrSession, key, err)
	}
	return nil
}

// Text returns the rendered text of the first element matching selector.
func (s *Session) Text(ctx context.Context, selector string) (string, error) {
	var text string
	err := s.run(ctx, s.elementTimeout,
		chromedp.WaitReady(selector, chromedp.ByQuery),
		chromedp.Text(selector, &text, chromedp.ByQuery),
	)
	if err != nil {
		return "", s.elementError(ctx, selector, s.elementTimeout, err)
	}
	return text, nil
}

// WaitVisible blocks until selector is visible or timeout elapses.
func (s *Session) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	err := s.run(ctx, timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
	return s.elementError(ctx, selector, timeout, err)
}

// Screenshot captures the current viewport as PNG.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	capture := chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().WithFormat(page.CaptureScreenshotFormatPng).Do(ctx)
		return err
	})
	if err := s.run(ctx, s.navigationTimeout, capture); err != nil {
		return nil, fmt.Errorf("%w: capture screenshot: %w", flow.ErrSession, err)
	}
	return buf, nil
}

// Close shuts the tab down. It is safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.logger.Debug("Closing session.")

		done := make(chan error, 1)
		go func() { done <- chromedp.Cancel(s.ctx) }()

		select {
		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				s.closeErr = fmt.Errorf("%w: close tab: %w", flow.ErrSession, err)
			}
		case <-ctx.Done():
			s.closeErr = fmt.Errorf("%w: close tab: %w", flow.ErrSession, ctx.Err())
		}

		// Release the context regardless of how the graceful close went.
		s.cancel()
		if s.onClose != nil {
			s.onClose()
		}
	})
	return s.closeErr
}

// internal/browser/launcher.go
package browser

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uiflow/internal/config"
	"github.com/xkilldash9x/uiflow/internal/flow"
)

const defaultLaunchTimeout = 60 * time.Second

var remoteSchemes = map[string]bool{"ws": true, "wss": true, "http": true, "https": true}

// Launcher opens chromedp sessions, either against a local Chrome it starts
// itself or a remote DevTools endpoint. It implements flow.Launcher.
type Launcher struct {
	browserCfg config.BrowserConfig
	runnerCfg  config.RunnerConfig
	logger     *zap.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc

	sessions map[string]*Session
	mu       sync.Mutex
	wg       sync.WaitGroup

	// Initialization is deferred until the first session is requested.
	initOnce sync.Once
	initErr  error
}

var _ flow.Launcher = (*Launcher)(nil)

// NewLauncher creates a launcher. No browser is started until Open is called.
func NewLauncher(browserCfg config.BrowserConfig, runnerCfg config.RunnerConfig, logger *zap.Logger) *Launcher {
	return &Launcher{
		browserCfg: browserCfg,
		runnerCfg:  runnerCfg,
		logger:     logger.Named("browser"),
		sessions:   make(map[string]*Session),
	}
}

func (l *Launcher) initialize() error {
	l.initOnce.Do(func() {
		// The allocator outlives any single request, so it hangs off Background.
		if l.browserCfg.RemoteURL != "" {
			u, err := url.Parse(l.browserCfg.RemoteURL)
			if err != nil || !remoteSchemes[u.Scheme] {
				l.initErr = fmt.Errorf("%w: invalid remote browser url %q", flow.ErrSession, l.browserCfg.RemoteURL)
				return
			}
			l.logger.Info("Connecting to remote browser.", zap.String("url", l.browserCfg.RemoteURL))
			l.allocCtx, l.allocCancel = chromedp.NewRemoteAllocator(context.Background(), l.browserCfg.RemoteURL)
			return
		}
		l.logger.Info("Using local browser.",
			zap.Bool("headless", l.browserCfg.Headless),
			zap.String("exec_path", l.browserCfg.ExecPath),
		)
		l.allocCtx, l.allocCancel = chromedp.NewExecAllocator(context.Background(), allocatorOptions(l.browserCfg)...)
	})
	return l.initErr
}

// Open starts a new tab and returns it as a session.
func (l *Launcher) Open(ctx context.Context) (flow.Session, error) {
	if err := l.initialize(); err != nil {
		return nil, err
	}

	tabCtx, tabCancel := chromedp.NewContext(l.allocCtx,
		chromedp.WithLogf(l.logger.Sugar().Debugf),
		chromedp.WithErrorf(l.logger.Sugar().Debugf),
	)

	if err := l.start(ctx, tabCtx, tabCancel); err != nil {
		return nil, fmt.Errorf("%w: start browser: %w", flow.ErrSession, err)
	}

	// A remote browser was launched by someone else, so its flags cannot carry the user agent.
	if l.browserCfg.RemoteURL != "" && l.browserCfg.UserAgent != "" {
		if err := chromedp.Run(tabCtx, emulation.SetUserAgentOverride(l.browserCfg.UserAgent)); err != nil {
			tabCancel()
			return nil, fmt.Errorf("%w: set user agent: %w", flow.ErrSession, err)
		}
	}

	s := newSession(tabCtx, tabCancel, l.runnerCfg.NavigationTimeout, l.runnerCfg.ElementTimeout, l.logger)

	l.wg.Add(1)
	s.onClose = func() {
		l.mu.Lock()
		delete(l.sessions, s.ID())
		l.mu.Unlock()
		l.wg.Done()
		l.logger.Debug("Session removed.", zap.String("session_id", s.ID()))
	}

	l.mu.Lock()
	l.sessions[s.ID()] = s
	l.mu.Unlock()

	l.logger.Info("New session created.", zap.String("session_id", s.ID()))
	return s, nil
}

// start allocates the browser and target behind tabCtx. The first chromedp.Run
// on a context owns the browser's lifetime, so it must not carry a deadline;
// the launch timeout is enforced by canceling the tab instead.
func (l *Launcher) start(ctx context.Context, tabCtx context.Context, tabCancel context.CancelFunc) error {
	timeout := l.browserCfg.LaunchTimeout
	if timeout <= 0 {
		timeout = defaultLaunchTimeout
	}

	done := make(chan error, 1)
	go func() { done <- chromedp.Run(tabCtx) }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			tabCancel()
		}
		return err
	case <-timer.C:
		tabCancel()
		<-done
		return fmt.Errorf("browser did not start within %s", timeout)
	case <-ctx.Done():
		tabCancel()
		<-done
		return ctx.Err()
	}
}

// Shutdown closes every open session and stops the allocator.
func (l *Launcher) Shutdown(ctx context.Context) error {
	l.mu.Lock()
	open := make([]*Session, 0, len(l.sessions))
	for _, s := range l.sessions {
		open = append(open, s)
	}
	l.mu.Unlock()

	for _, s := range open {
		if err := s.Close(ctx); err != nil {
			l.logger.Warn("Failed to close session during shutdown.", zap.String("session_id", s.ID()), zap.Error(err))
		}
	}

	waitDone := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(waitDone)
	}()

	var err error
	select {
	case <-waitDone:
	case <-ctx.Done():
		err = fmt.Errorf("timed out waiting for sessions to close: %w", ctx.Err())
	}

	if l.allocCancel != nil {
		l.allocCancel()
	}
	l.logger.Info("Browser launcher shut down.")
	return err
}

// OpenSessions reports how many sessions are currently live.
func (l *Launcher) OpenSessions() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sessions)
}

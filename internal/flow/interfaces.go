// internal/flow/interfaces.go
package flow

import (
	"context"
	"time"
)

// Session is a live browser tab driven by the runner. Element operations act
// on the first element matching the CSS selector.
type Session interface {
	Navigate(ctx context.Context, url string) error
	SetValue(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	// SendKeys dispatches a canonical key (see NormalizeKey) to the focused element.
	SendKeys(ctx context.Context, key string) error
	Text(ctx context.Context, selector string) (string, error)
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	// Screenshot returns the current viewport encoded as PNG.
	Screenshot(ctx context.Context) ([]byte, error)
	Close(ctx context.Context) error
}

// Launcher opens browser sessions.
type Launcher interface {
	Open(ctx context.Context) (Session, error)
}

// LauncherFunc adapts a function to the Launcher interface.
type LauncherFunc func(ctx context.Context) (Session, error)

func (f LauncherFunc) Open(ctx context.Context) (Session, error) { return f(ctx) }

// InputProvider supplies test input values by key, replacing in-page prompt dialogs.
type InputProvider interface {
	Input(key string) (string, error)
}

// Clock blocks the calling goroutine. Wait actions go through it so tests can
// substitute a fake.
type Clock interface {
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }

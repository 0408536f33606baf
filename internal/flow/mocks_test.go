package flow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
)

// -- Session Mock --

// MockSession mocks the Session interface.
type MockSession struct {
	mock.Mock
}

func (m *MockSession) Navigate(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

func (m *MockSession) SetValue(ctx context.Context, selector, value string) error {
	args := m.Called(ctx, selector, value)
	return args.Error(0)
}

func (m *MockSession) Click(ctx context.Context, selector string) error {
	args := m.Called(ctx, selector)
	return args.Error(0)
}

func (m *MockSession) SendKeys(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockSession) Text(ctx context.Context, selector string) (string, error) {
	args := m.Called(ctx, selector)
	return args.String(0), args.Error(1)
}

func (m *MockSession) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	args := m.Called(ctx, selector, timeout)
	return args.Error(0)
}

func (m *MockSession) Screenshot(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockSession) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// -- Launcher Helpers --

// countingLauncher hands out a fixed session and records how often it was asked.
type countingLauncher struct {
	mu      sync.Mutex
	session Session
	err     error
	opens   int
}

func (l *countingLauncher) Open(ctx context.Context) (Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.opens++
	if l.err != nil {
		return nil, l.err
	}
	return l.session, nil
}

func (l *countingLauncher) Opens() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opens
}

// -- Fake Clock --

type fakeClock struct {
	mu    sync.Mutex
	slept []time.Duration
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slept = append(c.slept, d)
}

func (c *fakeClock) Slept() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.slept...)
}

// blockingClock parks Sleep until released so tests can observe a running flow.
type blockingClock struct {
	entered chan struct{}
	release chan struct{}
}

func (c *blockingClock) Sleep(time.Duration) {
	close(c.entered)
	<-c.release
}

// -- Fake Page --

// fakePage is an in-memory Session. Setting a value also updates the element's
// displayed text, and click handlers can mutate the page.
type fakePage struct {
	mu       sync.Mutex
	url      string
	elements map[string]bool
	texts    map[string]string
	focused  string
	keys     []string
	onClick  map[string]func(p *fakePage)
	shot     []byte
	closed   int
}

func newFakePage(selectors ...string) *fakePage {
	p := &fakePage{
		elements: make(map[string]bool),
		texts:    make(map[string]string),
		onClick:  make(map[string]func(p *fakePage)),
		shot:     []byte("\x89PNG fake"),
	}
	for _, s := range selectors {
		p.elements[s] = true
	}
	return p
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if url == "" {
		return fmt.Errorf("%w: empty url", ErrNavigation)
	}
	p.url = url
	return nil
}

func (p *fakePage) SetValue(ctx context.Context, selector, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.elements[selector] {
		return fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	p.texts[selector] = value
	p.focused = selector
	return nil
}

func (p *fakePage) Click(ctx context.Context, selector string) error {
	p.mu.Lock()
	if !p.elements[selector] {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	p.focused = selector
	handler := p.onClick[selector]
	p.mu.Unlock()

	if handler != nil {
		handler(p)
	}
	return nil
}

func (p *fakePage) SendKeys(ctx context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.focused == "" {
		return fmt.Errorf("%w: no focused element", ErrElementNotFound)
	}
	p.keys = append(p.keys, key)
	return nil
}

func (p *fakePage) Text(ctx context.Context, selector string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.elements[selector] {
		return "", fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return p.texts[selector], nil
}

func (p *fakePage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.elements[selector] {
		return fmt.Errorf("%w: %s not visible after %s", ErrElementNotFound, selector, timeout)
	}
	return nil
}

func (p *fakePage) Screenshot(ctx context.Context) ([]byte, error) {
	return p.shot, nil
}

func (p *fakePage) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return nil
}

// addElement makes selector resolvable with the given text. Used from click handlers.
func (p *fakePage) addElement(selector, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.elements[selector] = true
	p.texts[selector] = text
}

func (p *fakePage) text(selector string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.texts[selector]
}

// internal/flow/runner.go
package flow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
)

// State is the lifecycle phase of a Runner.
type State string

const (
	StateNotStarted State = "NOT_STARTED"
	StateRunning    State = "RUNNING"
	StateCompleted  State = "COMPLETED"
	StateFailed     State = "FAILED"
)

// ErrRunnerBusy is returned when Run is called while another flow is executing.
var ErrRunnerBusy = errors.New("runner is already executing a flow")

const defaultCloseTimeout = 10 * time.Second

// StepResult records the outcome of one executed action.
type StepResult struct {
	Index    int           `json:"index"`
	Action   Action        `json:"action"`
	Duration time.Duration `json:"duration"`
	Text     string        `json:"text,omitempty"`
	Err      error         `json:"-"`
}

// Result is the outcome of a single flow run.
type Result struct {
	RunID       string       `json:"run_id"`
	Flow        string       `json:"flow"`
	State       State        `json:"state"`
	Steps       []StepResult `json:"steps"`
	Texts       []string     `json:"texts,omitempty"`
	Screenshots []string     `json:"screenshots,omitempty"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
	Err         error        `json:"-"`
}

// Text returns the most recently extracted text, or "" if nothing was extracted.
func (r *Result) Text() string {
	if len(r.Texts) == 0 {
		return ""
	}
	return r.Texts[len(r.Texts)-1]
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock replaces the clock used by Wait actions.
func WithClock(c Clock) Option {
	return func(r *Runner) { r.clock = c }
}

// WithInputs sets the provider consulted by SetInput actions.
func WithInputs(p InputProvider) Option {
	return func(r *Runner) { r.inputs = p }
}

// WithOutputDir makes relative screenshot paths resolve under dir.
func WithOutputDir(dir string) Option {
	return func(r *Runner) { r.outputDir = dir }
}

// WithCloseTimeout bounds how long releasing the session may take.
func WithCloseTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.closeTimeout = d
		}
	}
}

// Runner executes flows one action at a time against a session it opens and
// owns for the duration of the run. The first failing action aborts the flow.
type Runner struct {
	launcher     Launcher
	logger       *zap.Logger
	clock        Clock
	inputs       InputProvider
	outputDir    string
	closeTimeout time.Duration

	mu    sync.Mutex
	state State
}

// NewRunner creates a runner that opens sessions through launcher.
func NewRunner(launcher Launcher, logger *zap.Logger, opts ...Option) *Runner {
	r := &Runner{
		launcher:     launcher,
		logger:       logger.Named("runner"),
		clock:        RealClock(),
		closeTimeout: defaultCloseTimeout,
		state:        StateNotStarted,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State reports the runner's current lifecycle phase.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Run executes f and returns its result. On failure the returned error is an
// *ActionError and the result's State is StateFailed.
func (r *Runner) Run(ctx context.Context, f Flow) (*Result, error) {
	r.mu.Lock()
	if r.state == StateRunning {
		r.mu.Unlock()
		return nil, ErrRunnerBusy
	}
	r.state = StateRunning
	r.mu.Unlock()

	res := &Result{
		RunID:     uuid.NewString(),
		Flow:      f.Name,
		StartedAt: time.Now(),
	}
	log := r.logger.With(zap.String("run_id", res.RunID), zap.String("flow", f.Name))
	log.Info("Flow started.", zap.Int("actions", len(f.Actions)))

	err := r.execute(ctx, f, res, log)

	res.FinishedAt = time.Now()
	res.State = StateCompleted
	if err != nil {
		res.State = StateFailed
		res.Err = err
		log.Error("Flow failed.", zap.Error(err), zap.Duration("elapsed", res.FinishedAt.Sub(res.StartedAt)))
	} else {
		log.Info("Flow completed.", zap.Duration("elapsed", res.FinishedAt.Sub(res.StartedAt)))
	}
	r.setState(res.State)
	return res, err
}

func (r *Runner) execute(ctx context.Context, f Flow, res *Result, log *zap.Logger) error {
	// Reject the whole flow before any browser work if an action is malformed.
	for i, a := range f.Actions {
		if err := a.Validate(); err != nil {
			return newActionError(i, a, err)
		}
	}

	var session Session
	defer func() {
		if session != nil {
			r.closeSession(session, log)
		}
	}()

	for i, a := range f.Actions {
		if err := ctx.Err(); err != nil {
			return newActionError(i, a, fmt.Errorf("%w: flow canceled: %w", ErrSession, err))
		}

		// The session is opened lazily so an empty flow never touches the browser.
		if session == nil {
			s, err := r.launcher.Open(ctx)
			if err != nil {
				return newActionError(i, a, fmt.Errorf("%w: open session: %w", ErrSession, err))
			}
			session = s
		}

		log.Debug("Executing action.", zap.Int("index", i), zap.Stringer("action", a))
		start := time.Now()
		text, err := r.perform(ctx, session, a, res, log)
		step := StepResult{Index: i, Action: a, Duration: time.Since(start), Text: text, Err: err}
		res.Steps = append(res.Steps, step)

		if err != nil {
			return newActionError(i, a, err)
		}
	}
	return nil
}

func (r *Runner) perform(ctx context.Context, s Session, a Action, res *Result, log *zap.Logger) (string, error) {
	switch a.Kind {
	case KindNavigate:
		return "", s.Navigate(ctx, a.URL)

	case KindSetValue:
		return "", s.SetValue(ctx, a.Selector, a.Value)

	case KindSetInput:
		if r.inputs == nil {
			return "", fmt.Errorf("%w: no input provider configured for %q", ErrInput, a.InputKey)
		}
		value, err := r.inputs.Input(a.InputKey)
		if err != nil {
			return "", err
		}
		return "", s.SetValue(ctx, a.Selector, value)

	case KindClick:
		return "", s.Click(ctx, a.Selector)

	case KindPressKey:
		key, err := NormalizeKey(a.Key)
		if err != nil {
			return "", err
		}
		return "", s.SendKeys(ctx, key)

	case KindWait:
		// Fixed sleep for page synchronization; deliberately ignores ctx.
		if a.Duration > 0 {
			r.clock.Sleep(a.Duration)
		}
		return "", nil

	case KindWaitVisible:
		return "", s.WaitVisible(ctx, a.Selector, a.Duration)

	case KindExtractText:
		text, err := s.Text(ctx, a.Selector)
		if err != nil {
			return "", err
		}
		res.Texts = append(res.Texts, text)
		log.Info("Extracted text.", zap.String("selector", a.Selector), zap.Int("length", len(text)))
		return text, nil

	case KindScreenshot:
		data, err := s.Screenshot(ctx)
		if err != nil {
			return "", err
		}
		path, err := r.writeArtifact(a.Path, data)
		if err != nil {
			return "", err
		}
		res.Screenshots = append(res.Screenshots, path)
		return "", nil

	default:
		return "", fmt.Errorf("%w: unknown action kind %q", ErrInvalidAction, a.Kind)
	}
}

// writeArtifact stores data at path, creating parent directories. Relative
// paths land under the configured output directory.
func (r *Runner) writeArtifact(path string, data []byte) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("%w: resolve %s: %w", ErrIO, path, err)
	}
	if !filepath.IsAbs(expanded) && r.outputDir != "" {
		expanded = filepath.Join(r.outputDir, expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return "", fmt.Errorf("%w: create directory for %s: %w", ErrIO, expanded, err)
	}
	if err := os.WriteFile(expanded, data, 0o644); err != nil {
		return "", fmt.Errorf("%w: write %s: %w", ErrIO, expanded, err)
	}
	return expanded, nil
}

func (r *Runner) closeSession(s Session, log *zap.Logger) {
	// The run context may already be canceled; closing must still happen.
	ctx, cancel := context.WithTimeout(context.Background(), r.closeTimeout)
	defer cancel()
	if err := s.Close(ctx); err != nil {
		log.Warn("Failed to close browser session.", zap.Error(err))
	}
}

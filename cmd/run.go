// cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uiflow/internal/browser"
	"github.com/xkilldash9x/uiflow/internal/config"
	"github.com/xkilldash9x/uiflow/internal/flow"
)

// inputEnvPrefix is the environment prefix consulted for test inputs.
const inputEnvPrefix = "UIFLOW_INPUT_"

// sessionLauncher is a flow.Launcher that also owns browser resources.
type sessionLauncher interface {
	flow.Launcher
	Shutdown(ctx context.Context) error
}

// newLauncher is a variable so tests can run flows without a browser.
var newLauncher = func(cfg *config.Config, logger *zap.Logger) sessionLauncher {
	return browser.NewLauncher(cfg.Browser, cfg.Runner, logger)
}

// runSummary is the JSON form of a flow result.
type runSummary struct {
	RunID       string     `json:"run_id"`
	Flow        string     `json:"flow"`
	State       flow.State `json:"state"`
	Texts       []string   `json:"texts,omitempty"`
	Screenshots []string   `json:"screenshots,omitempty"`
	DurationMs  int64      `json:"duration_ms"`
	ErrorKind   string     `json:"error_kind,omitempty"`
	Error       string     `json:"error,omitempty"`
}

func summarize(res *flow.Result) runSummary {
	s := runSummary{
		RunID:       res.RunID,
		Flow:        res.Flow,
		State:       res.State,
		Texts:       res.Texts,
		Screenshots: res.Screenshots,
		DurationMs:  res.FinishedAt.Sub(res.StartedAt).Milliseconds(),
	}
	if res.Err != nil {
		s.Error = res.Err.Error()
		var actionErr *flow.ActionError
		if errors.As(res.Err, &actionErr) {
			s.ErrorKind = string(actionErr.Kind)
		}
	}
	return s
}

func newRunCmd(state *cliState) *cobra.Command {
	var (
		inputs  map[string]string
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "run [flow|file...]",
		Short: "Run built-in flows or flow definition files",
		Long: `Runs each named flow in order, each in its own browser session.
Arguments ending in .yaml, .yml, .json or .toml are loaded as flow files;
anything else must name a built-in flow (see "uiflow list").

Extracted text is printed to stdout, one line per extraction.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flows, err := resolveFlows(args)
			if err != nil {
				return err
			}

			cfg, logger := state.cfg, state.logger
			launcher := newLauncher(cfg, logger)
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg))
				defer cancel()
				if err := launcher.Shutdown(ctx); err != nil {
					logger.Warn("Browser shutdown incomplete.", zap.Error(err))
				}
			}()

			providers := flow.ChainInputs{
				flow.MapInputs(inputs),
				flow.NewFoldedInputs(cfg.Inputs),
				flow.NewEnvInputs(inputEnvPrefix),
				flow.DefaultInputs,
			}
			runner := flow.NewRunner(launcher, logger,
				flow.WithInputs(providers),
				flow.WithOutputDir(cfg.Runner.OutputDir),
				flow.WithCloseTimeout(cfg.Runner.CloseTimeout),
			)

			return runFlows(cmd.Context(), runner, flows, cmd.OutOrStdout(), jsonOut)
		},
	}

	cmd.Flags().StringToStringVarP(&inputs, "input", "i", nil, "test input as key=value (repeatable)")
	cmd.Flags().Bool("headless", true, "run the browser without a window")
	cmd.Flags().String("remote-url", "", "DevTools URL of an already running browser")
	cmd.Flags().String("output-dir", "", "directory for relative screenshot paths")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print run summaries as JSON instead of extracted text")
	return cmd
}

func resolveFlows(args []string) ([]flow.Flow, error) {
	flows := make([]flow.Flow, 0, len(args))
	for _, arg := range args {
		var (
			f   flow.Flow
			err error
		)
		if flow.IsFlowFile(arg) {
			f, err = flow.LoadFile(arg)
		} else {
			f, err = flow.Builtin(arg)
		}
		if err != nil {
			return nil, err
		}
		flows = append(flows, f)
	}
	return flows, nil
}

// runFlows executes flows one after another. A failed flow does not stop the
// ones after it unless the context is canceled.
func runFlows(ctx context.Context, runner *flow.Runner, flows []flow.Flow, out io.Writer, jsonOut bool) error {
	var errs []error
	summaries := make([]runSummary, 0, len(flows))

	for _, f := range flows {
		res, err := runner.Run(ctx, f)
		if err != nil {
			errs = append(errs, fmt.Errorf("flow %s: %w", f.Name, err))
		}
		if res != nil {
			summaries = append(summaries, summarize(res))
			if !jsonOut {
				for _, text := range res.Texts {
					fmt.Fprintln(out, text)
				}
			}
		}
		if ctx.Err() != nil {
			break
		}
	}

	if jsonOut {
		enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summaries); err != nil {
			errs = append(errs, fmt.Errorf("failed to write summary: %w", err))
		}
	}
	return errors.Join(errs...)
}

func shutdownTimeout(cfg *config.Config) time.Duration {
	if cfg.Runner.CloseTimeout > 0 {
		return cfg.Runner.CloseTimeout
	}
	return 10 * time.Second
}

// internal/browser/launcher_test.go
package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/uiflow/internal/config"
	"github.com/xkilldash9x/uiflow/internal/flow"
)

func TestLauncher_InvalidRemoteURL(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Browser.RemoteURL = "ftp://devtools.local:9222"
	l := NewLauncher(cfg.Browser, cfg.Runner, zaptest.NewLogger(t))

	_, err := l.Open(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, flow.ErrSession)

	// The failure is sticky; a second attempt does not retry.
	_, err = l.Open(context.Background())
	assert.ErrorIs(t, err, flow.ErrSession)
	assert.NoError(t, l.Shutdown(context.Background()))
}

func TestLauncher_ShutdownWithoutSessions(t *testing.T) {
	cfg := config.NewDefaultConfig()
	l := NewLauncher(cfg.Browser, cfg.Runner, zaptest.NewLogger(t))

	assert.Zero(t, l.OpenSessions())
	assert.NoError(t, l.Shutdown(context.Background()))
}

// findChrome returns a usable Chrome binary or skips the test.
func findChrome(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser integration test in short mode")
	}
	if p := os.Getenv("CHROME_PATH"); p != "" {
		return p
	}
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	t.Skip("no Chrome binary found; set CHROME_PATH to run browser integration tests")
	return ""
}

const searchPage = `<!doctype html>
<html><body>
<input id="q" type="text">
<button id="go" onclick="document.getElementById('result').textContent = document.getElementById('q').value + '-result'">Go</button>
<div id="result"></div>
</body></html>`

func TestLauncher_RunsFlowAgainstRealBrowser(t *testing.T) {
	chrome := findChrome(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, searchPage)
	}))
	defer srv.Close()

	cfg := config.NewDefaultConfig()
	cfg.Browser.ExecPath = chrome
	cfg.Runner.ElementTimeout = 5 * time.Second
	logger := zaptest.NewLogger(t)

	// chromedp may log from its own goroutines after the test returns.
	launcher := NewLauncher(cfg.Browser, cfg.Runner, zap.NewNop())
	defer launcher.Shutdown(context.Background())

	outDir := t.TempDir()
	runner := flow.NewRunner(launcher, logger, flow.WithOutputDir(outDir))

	res, err := runner.Run(context.Background(), flow.New("search",
		flow.Navigate(srv.URL),
		flow.SetValue("#q", "term"),
		flow.Click("#go"),
		flow.Wait(100),
		flow.ExtractText("#result"),
		flow.Screenshot("shot.png"),
	))
	require.NoError(t, err)

	assert.Equal(t, flow.StateCompleted, res.State)
	assert.Equal(t, "term-result", res.Text())
	assert.FileExists(t, filepath.Join(outDir, "shot.png"))
	assert.Zero(t, launcher.OpenSessions(), "runner closes the session it opened")
}

func TestLauncher_MissingElementIsClassified(t *testing.T) {
	chrome := findChrome(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, searchPage)
	}))
	defer srv.Close()

	cfg := config.NewDefaultConfig()
	cfg.Browser.ExecPath = chrome
	cfg.Runner.ElementTimeout = 500 * time.Millisecond
	logger := zaptest.NewLogger(t)

	launcher := NewLauncher(cfg.Browser, cfg.Runner, zap.NewNop())
	defer launcher.Shutdown(context.Background())

	res, err := flow.NewRunner(launcher, logger).Run(context.Background(), flow.New("missing",
		flow.Navigate(srv.URL),
		flow.Click("#does-not-exist"),
		flow.ExtractText("#result"),
	))

	require.Error(t, err)
	assert.ErrorIs(t, err, flow.ErrElementNotFound)
	assert.Equal(t, flow.StateFailed, res.State)
	assert.Len(t, res.Steps, 2)
}

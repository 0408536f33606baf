// internal/browser/options_test.go
package browser

import (
	"runtime"
	"testing"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/uiflow/internal/config"
)

func TestAllocatorFlags(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		cfg := config.NewDefaultConfig().Browser
		flags := allocatorFlags(cfg, "darwin")

		assert.Equal(t, false, flags["enable-automation"], "automation infobar should be disabled")
		assert.Equal(t, true, flags["headless"])
		assert.Equal(t, true, flags["disable-gpu"])
		assert.Equal(t, false, flags["ignore-certificate-errors"])
		assert.Equal(t, "AutomationControlled", flags["disable-blink-features"])
		assert.NotContains(t, flags, "no-sandbox", "sandbox flags are linux only")
	})

	t.Run("HeadedBrowser", func(t *testing.T) {
		flags := allocatorFlags(config.BrowserConfig{Headless: false}, "darwin")
		assert.Equal(t, false, flags["headless"])
		assert.Equal(t, false, flags["disable-gpu"])
	})

	t.Run("IgnoreTLSErrors", func(t *testing.T) {
		flags := allocatorFlags(config.BrowserConfig{IgnoreTLSErrors: true}, "darwin")
		assert.Equal(t, true, flags["ignore-certificate-errors"])
	})

	t.Run("LinuxContainerFlags", func(t *testing.T) {
		flags := allocatorFlags(config.BrowserConfig{}, "linux")
		assert.Equal(t, true, flags["no-sandbox"])
		assert.Equal(t, true, flags["disable-dev-shm-usage"])
		assert.Equal(t, true, flags["disable-setuid-sandbox"])
	})

	t.Run("CustomArgs", func(t *testing.T) {
		cfg := config.BrowserConfig{
			Headless: true,
			Args:     []string{"--lang=de-DE", "mute-audio", "--headless=new", " ", "--no-sandbox=false"},
		}
		flags := allocatorFlags(cfg, "linux")

		assert.Equal(t, "de-DE", flags["lang"])
		assert.Equal(t, true, flags["mute-audio"])
		assert.Equal(t, "new", flags["headless"], "explicit args override computed flags")
		assert.Equal(t, "false", flags["no-sandbox"])
		assert.NotContains(t, flags, "")
	})
}

func TestAllocatorOptions(t *testing.T) {
	cfg := config.NewDefaultConfig().Browser
	base := len(chromedp.DefaultExecAllocatorOptions)

	opts := allocatorOptions(cfg)
	// Defaults, one option per flag, and the window size.
	assert.Len(t, opts, base+len(allocatorFlags(cfg, runtime.GOOS))+1)

	cfg.ExecPath = "/opt/chrome/chrome"
	cfg.UserAgent = "uiflow-test"
	withExtras := allocatorOptions(cfg)
	assert.Len(t, withExtras, len(opts)+2)

	cfg.WindowWidth = 0
	assert.Len(t, allocatorOptions(cfg), len(opts)+1, "window size is skipped when unset")
}

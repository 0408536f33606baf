// internal/browser/keys.go
package browser

import (
	"fmt"
	"unicode/utf8"

	"github.com/chromedp/chromedp/kb"

	"github.com/xkilldash9x/uiflow/internal/flow"
)

// keySequences maps canonical flow key names to the runes chromedp dispatches.
var keySequences = map[string]string{
	flow.KeyEnter:      kb.Enter,
	flow.KeyTab:        kb.Tab,
	flow.KeyEscape:     kb.Escape,
	flow.KeyBackspace:  kb.Backspace,
	flow.KeyDelete:     kb.Delete,
	flow.KeySpace:      " ",
	flow.KeyArrowUp:    kb.ArrowUp,
	flow.KeyArrowDown:  kb.ArrowDown,
	flow.KeyArrowLeft:  kb.ArrowLeft,
	flow.KeyArrowRight: kb.ArrowRight,
	flow.KeyHome:       kb.Home,
	flow.KeyEnd:        kb.End,
	flow.KeyPageUp:     kb.PageUp,
	flow.KeyPageDown:   kb.PageDown,
}

// keySequence converts a canonical key into what chromedp.KeyEvent expects.
// Single printable characters pass through.
func keySequence(key string) (string, error) {
	if seq, ok := keySequences[key]; ok {
		return seq, nil
	}
	if utf8.RuneCountInString(key) == 1 {
		return key, nil
	}
	return "", fmt.Errorf("%w: no key mapping for %q", flow.ErrInvalidAction, key)
}

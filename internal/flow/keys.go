// internal/flow/keys.go
package flow

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Canonical names for the non-printable keys a flow may press.
const (
	KeyEnter      = "ENTER"
	KeyTab        = "TAB"
	KeyEscape     = "ESCAPE"
	KeyBackspace  = "BACKSPACE"
	KeyDelete     = "DELETE"
	KeySpace      = "SPACE"
	KeyArrowUp    = "ARROW_UP"
	KeyArrowDown  = "ARROW_DOWN"
	KeyArrowLeft  = "ARROW_LEFT"
	KeyArrowRight = "ARROW_RIGHT"
	KeyHome       = "HOME"
	KeyEnd        = "END"
	KeyPageUp     = "PAGE_UP"
	KeyPageDown   = "PAGE_DOWN"
)

var keyAliases = map[string]string{
	"ENTER":       KeyEnter,
	"RETURN":      KeyEnter,
	"TAB":         KeyTab,
	"ESCAPE":      KeyEscape,
	"ESC":         KeyEscape,
	"BACKSPACE":   KeyBackspace,
	"BACK_SPACE":  KeyBackspace,
	"DELETE":      KeyDelete,
	"SPACE":       KeySpace,
	"ARROW_UP":    KeyArrowUp,
	"UP_ARROW":    KeyArrowUp,
	"ARROWUP":     KeyArrowUp,
	"ARROW_DOWN":  KeyArrowDown,
	"DOWN_ARROW":  KeyArrowDown,
	"ARROWDOWN":   KeyArrowDown,
	"ARROW_LEFT":  KeyArrowLeft,
	"LEFT_ARROW":  KeyArrowLeft,
	"ARROWLEFT":   KeyArrowLeft,
	"ARROW_RIGHT": KeyArrowRight,
	"RIGHT_ARROW": KeyArrowRight,
	"ARROWRIGHT":  KeyArrowRight,
	"HOME":        KeyHome,
	"END":         KeyEnd,
	"PAGE_UP":     KeyPageUp,
	"PAGEUP":      KeyPageUp,
	"PAGE_DOWN":   KeyPageDown,
	"PAGEDOWN":    KeyPageDown,
}

// NormalizeKey maps a key name to its canonical form. Named keys are case
// insensitive; a single printable character is returned unchanged.
func NormalizeKey(key string) (string, error) {
	if utf8.RuneCountInString(key) == 1 && key != " " {
		return key, nil
	}
	name := strings.ToUpper(strings.TrimSpace(key))
	name = strings.ReplaceAll(name, "-", "_")
	if canonical, ok := keyAliases[name]; ok {
		return canonical, nil
	}
	if key == " " {
		return KeySpace, nil
	}
	return "", fmt.Errorf("%w: unsupported key %q", ErrInvalidAction, key)
}

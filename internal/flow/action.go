// internal/flow/action.go
package flow

import (
	"fmt"
	"strings"
	"time"
)

// ActionKind identifies which browser operation an Action performs.
type ActionKind string

const (
	KindNavigate    ActionKind = "NAVIGATE"     // Loads a URL.
	KindSetValue    ActionKind = "SET_VALUE"    // Replaces the value of an input.
	KindSetInput    ActionKind = "SET_INPUT"    // SetValue with a value from the InputProvider.
	KindClick       ActionKind = "CLICK"        // Clicks an element.
	KindPressKey    ActionKind = "PRESS_KEY"    // Sends a key to the focused element.
	KindWait        ActionKind = "WAIT"         // Fixed, non-cancellable pause.
	KindWaitVisible ActionKind = "WAIT_VISIBLE" // Polls until a selector is visible.
	KindExtractText ActionKind = "EXTRACT_TEXT" // Reads the text of an element.
	KindScreenshot  ActionKind = "SCREENSHOT"   // Captures the viewport to a file.
)

// Action is one declarative step of a Flow. Only the fields relevant to Kind
// are set; use the constructors rather than building it by hand.
type Action struct {
	Kind     ActionKind    `json:"kind"`
	URL      string        `json:"url,omitempty"`
	Selector string        `json:"selector,omitempty"`
	Value    string        `json:"value,omitempty"`
	InputKey string        `json:"input_key,omitempty"`
	Key      string        `json:"key,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Path     string        `json:"path,omitempty"`
}

func Navigate(url string) Action {
	return Action{Kind: KindNavigate, URL: url}
}

func SetValue(selector, value string) Action {
	return Action{Kind: KindSetValue, Selector: selector, Value: value}
}

// SetInput fills selector with the test input registered under inputKey.
func SetInput(selector, inputKey string) Action {
	return Action{Kind: KindSetInput, Selector: selector, InputKey: inputKey}
}

func Click(selector string) Action {
	return Action{Kind: KindClick, Selector: selector}
}

// PressKey sends key (see NormalizeKey for accepted names) to the focused element.
func PressKey(key string) Action {
	return Action{Kind: KindPressKey, Key: key}
}

// Wait pauses the flow for ms milliseconds.
func Wait(ms int) Action {
	return Action{Kind: KindWait, Duration: time.Duration(ms) * time.Millisecond}
}

// WaitVisible waits up to timeoutMs milliseconds for selector to become visible.
func WaitVisible(selector string, timeoutMs int) Action {
	return Action{Kind: KindWaitVisible, Selector: selector, Duration: time.Duration(timeoutMs) * time.Millisecond}
}

func ExtractText(selector string) Action {
	return Action{Kind: KindExtractText, Selector: selector}
}

func Screenshot(path string) Action {
	return Action{Kind: KindScreenshot, Path: path}
}

// Validate checks the action is structurally complete. It does not touch a browser.
func (a Action) Validate() error {
	switch a.Kind {
	case KindNavigate:
		if strings.TrimSpace(a.URL) == "" {
			return fmt.Errorf("%w: %s requires a url", ErrInvalidAction, a.Kind)
		}
	case KindSetValue, KindClick, KindExtractText:
		if strings.TrimSpace(a.Selector) == "" {
			return fmt.Errorf("%w: %s requires a selector", ErrInvalidAction, a.Kind)
		}
	case KindSetInput:
		if strings.TrimSpace(a.Selector) == "" || strings.TrimSpace(a.InputKey) == "" {
			return fmt.Errorf("%w: %s requires a selector and an input key", ErrInvalidAction, a.Kind)
		}
	case KindPressKey:
		if _, err := NormalizeKey(a.Key); err != nil {
			return err
		}
	case KindWait:
		if a.Duration < 0 {
			return fmt.Errorf("%w: %s duration cannot be negative", ErrInvalidAction, a.Kind)
		}
	case KindWaitVisible:
		if strings.TrimSpace(a.Selector) == "" {
			return fmt.Errorf("%w: %s requires a selector", ErrInvalidAction, a.Kind)
		}
		if a.Duration <= 0 {
			return fmt.Errorf("%w: %s requires a positive timeout", ErrInvalidAction, a.Kind)
		}
	case KindScreenshot:
		if strings.TrimSpace(a.Path) == "" {
			return fmt.Errorf("%w: %s requires a path", ErrInvalidAction, a.Kind)
		}
	default:
		return fmt.Errorf("%w: unknown action kind %q", ErrInvalidAction, a.Kind)
	}
	return nil
}

// String renders the action for logs.
func (a Action) String() string {
	switch a.Kind {
	case KindNavigate:
		return fmt.Sprintf("%s(%s)", a.Kind, a.URL)
	case KindSetValue:
		return fmt.Sprintf("%s(%s, %q)", a.Kind, a.Selector, a.Value)
	case KindSetInput:
		return fmt.Sprintf("%s(%s, input:%s)", a.Kind, a.Selector, a.InputKey)
	case KindPressKey:
		return fmt.Sprintf("%s(%s)", a.Kind, a.Key)
	case KindWait:
		return fmt.Sprintf("%s(%dms)", a.Kind, a.Duration.Milliseconds())
	case KindWaitVisible:
		return fmt.Sprintf("%s(%s, %dms)", a.Kind, a.Selector, a.Duration.Milliseconds())
	case KindScreenshot:
		return fmt.Sprintf("%s(%s)", a.Kind, a.Path)
	default:
		return fmt.Sprintf("%s(%s)", a.Kind, a.Selector)
	}
}

// Flow is an ordered, static sequence of actions describing one UI scenario.
type Flow struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Actions     []Action `json:"actions"`
}

// New builds a Flow from literal actions.
func New(name string, actions ...Action) Flow {
	return Flow{Name: name, Actions: actions}
}

// Validate checks every action and reports the first invalid one by index.
func (f Flow) Validate() error {
	for i, a := range f.Actions {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("flow %q action %d: %w", f.Name, i, err)
		}
	}
	return nil
}

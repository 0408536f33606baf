// internal/flow/action_test.go
package flow

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAction_Constructors(t *testing.T) {
	assert.Equal(t, Action{Kind: KindNavigate, URL: "https://a.test"}, Navigate("https://a.test"))
	assert.Equal(t, Action{Kind: KindSetValue, Selector: "#q", Value: "v"}, SetValue("#q", "v"))
	assert.Equal(t, Action{Kind: KindSetInput, Selector: "#q", InputKey: "k"}, SetInput("#q", "k"))
	assert.Equal(t, Action{Kind: KindWait, Duration: 1500 * time.Millisecond}, Wait(1500))
	assert.Equal(t, Action{Kind: KindWaitVisible, Selector: "#r", Duration: 2 * time.Second}, WaitVisible("#r", 2000))
	assert.Equal(t, Action{Kind: KindScreenshot, Path: "out.png"}, Screenshot("out.png"))
}

func TestAction_Validate(t *testing.T) {
	tests := []struct {
		name    string
		action  Action
		wantErr bool
	}{
		{"navigate", Navigate("https://a.test"), false},
		{"navigate without url", Navigate("  "), true},
		{"set value", SetValue("#q", ""), false},
		{"set value without selector", SetValue("", "x"), true},
		{"set input", SetInput("#q", "key"), false},
		{"set input without key", SetInput("#q", ""), true},
		{"click without selector", Click(""), true},
		{"press named key", PressKey("Enter"), false},
		{"press printable key", PressKey("x"), false},
		{"press unknown key", PressKey("HYPERSPACE"), true},
		{"zero wait", Wait(0), false},
		{"negative wait", Wait(-1), true},
		{"wait visible", WaitVisible("#r", 100), false},
		{"wait visible without timeout", WaitVisible("#r", 0), true},
		{"extract text without selector", ExtractText(""), true},
		{"screenshot without path", Screenshot(""), true},
		{"unknown kind", Action{Kind: "HOVER", Selector: "#a"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.action.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidAction)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "NAVIGATE(https://a.test)", Navigate("https://a.test").String())
	assert.Equal(t, `SET_VALUE(#q, "term")`, SetValue("#q", "term").String())
	assert.Equal(t, "WAIT(250ms)", Wait(250).String())
	assert.Equal(t, "CLICK(#go)", Click("#go").String())
	assert.Equal(t, "SET_INPUT(#q, input:video_query)", SetInput("#q", "video_query").String())
}

func TestFlow_ValidateReportsIndex(t *testing.T) {
	f := New("broken", Navigate("https://a.test"), Click("#ok"), ExtractText(""))
	err := f.Validate()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidAction)
	assert.Contains(t, err.Error(), `flow "broken" action 2`)
	assert.NoError(t, New("empty").Validate())
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindNavigationError, Classify(fmt.Errorf("wrapped: %w", ErrNavigation)))
	assert.Equal(t, KindElementNotFoundError, Classify(ErrElementNotFound))
	assert.Equal(t, KindIOError, Classify(fmt.Errorf("%w: disk full", ErrIO)))
	assert.Equal(t, KindInputError, Classify(ErrInput))
	assert.Equal(t, KindInvalidActionError, Classify(ErrInvalidAction))
	assert.Equal(t, KindSessionError, Classify(errors.New("boom")))
}

func TestActionError(t *testing.T) {
	cause := fmt.Errorf("%w: #missing", ErrElementNotFound)
	err := newActionError(3, Click("#missing"), cause)

	assert.Equal(t, KindElementNotFoundError, err.Kind)
	assert.ErrorIs(t, err, ErrElementNotFound)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrNavigation)
	assert.Contains(t, err.Error(), "action 3 CLICK(#missing) failed (ElementNotFoundError)")

	// Unclassified causes still match the session sentinel.
	plain := newActionError(0, Navigate("https://a.test"), errors.New("socket closed"))
	assert.ErrorIs(t, plain, ErrSession)
}

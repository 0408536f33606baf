// internal/flow/file.go
package flow

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// fileSpec mirrors a flow definition file. Each entry of Actions must set
// exactly one field.
type fileSpec struct {
	Name        string       `mapstructure:"name"`
	Description string       `mapstructure:"description"`
	Actions     []actionSpec `mapstructure:"actions"`
}

type actionSpec struct {
	Navigate    *string          `mapstructure:"navigate"`
	SetValue    *valueSpec       `mapstructure:"set_value"`
	SetInput    *inputSpec       `mapstructure:"set_input"`
	Click       *string          `mapstructure:"click"`
	PressKey    *string          `mapstructure:"press_key"`
	Wait        *int             `mapstructure:"wait"`
	WaitVisible *waitVisibleSpec `mapstructure:"wait_visible"`
	ExtractText *string          `mapstructure:"extract_text"`
	Screenshot  *string          `mapstructure:"screenshot"`
}

type valueSpec struct {
	Selector string `mapstructure:"selector"`
	Value    string `mapstructure:"value"`
}

type inputSpec struct {
	Selector string `mapstructure:"selector"`
	Key      string `mapstructure:"key"`
}

type waitVisibleSpec struct {
	Selector  string `mapstructure:"selector"`
	TimeoutMs int    `mapstructure:"timeout_ms"`
}

// IsFlowFile reports whether arg names a flow definition file rather than a built-in.
func IsFlowFile(arg string) bool {
	switch strings.ToLower(filepath.Ext(arg)) {
	case ".yaml", ".yml", ".json", ".toml":
		return true
	}
	return false
}

// LoadFile reads a flow definition from a YAML, JSON or TOML file. The flow
// name defaults to the file name without its extension.
func LoadFile(path string) (Flow, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return Flow{}, fmt.Errorf("could not resolve flow file path %s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigFile(expanded)
	if err := v.ReadInConfig(); err != nil {
		return Flow{}, fmt.Errorf("could not read flow file %s: %w", expanded, err)
	}

	f, err := decode(v)
	if err != nil {
		return Flow{}, fmt.Errorf("flow file %s: %w", expanded, err)
	}
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(expanded), filepath.Ext(expanded))
	}
	return f, nil
}

// Decode reads a flow definition from r in the given format ("yaml", "json", "toml").
func Decode(r io.Reader, format string) (Flow, error) {
	v := viper.New()
	v.SetConfigType(format)
	if err := v.ReadConfig(r); err != nil {
		return Flow{}, fmt.Errorf("could not parse flow definition: %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (Flow, error) {
	var spec fileSpec
	if err := v.Unmarshal(&spec, func(c *mapstructure.DecoderConfig) {
		c.ErrorUnused = true
	}); err != nil {
		return Flow{}, fmt.Errorf("%w: %w", ErrInvalidAction, err)
	}

	f := Flow{Name: spec.Name, Description: spec.Description}
	for i, as := range spec.Actions {
		a, err := as.toAction()
		if err != nil {
			return Flow{}, fmt.Errorf("action %d: %w", i, err)
		}
		f.Actions = append(f.Actions, a)
	}
	if err := f.Validate(); err != nil {
		return Flow{}, err
	}
	return f, nil
}

func (s actionSpec) toAction() (Action, error) {
	var found []Action
	if s.Navigate != nil {
		found = append(found, Navigate(*s.Navigate))
	}
	if s.SetValue != nil {
		found = append(found, SetValue(s.SetValue.Selector, s.SetValue.Value))
	}
	if s.SetInput != nil {
		found = append(found, SetInput(s.SetInput.Selector, s.SetInput.Key))
	}
	if s.Click != nil {
		found = append(found, Click(*s.Click))
	}
	if s.PressKey != nil {
		found = append(found, PressKey(*s.PressKey))
	}
	if s.Wait != nil {
		if err := checkMillis("wait", *s.Wait); err != nil {
			return Action{}, err
		}
		found = append(found, Wait(*s.Wait))
	}
	if s.WaitVisible != nil {
		if err := checkMillis("wait_visible timeout_ms", s.WaitVisible.TimeoutMs); err != nil {
			return Action{}, err
		}
		found = append(found, WaitVisible(s.WaitVisible.Selector, s.WaitVisible.TimeoutMs))
	}
	if s.ExtractText != nil {
		found = append(found, ExtractText(*s.ExtractText))
	}
	if s.Screenshot != nil {
		found = append(found, Screenshot(*s.Screenshot))
	}

	if len(found) != 1 {
		return Action{}, fmt.Errorf("%w: each action needs exactly one kind, found %d", ErrInvalidAction, len(found))
	}
	return found[0], nil
}

// maxMillis is the largest millisecond count a time.Duration can hold.
const maxMillis = math.MaxInt64 / int64(time.Millisecond)

// checkMillis rejects values that would overflow when converted to a Duration.
func checkMillis(field string, ms int) error {
	if int64(ms) > maxMillis {
		return fmt.Errorf("%w: %s of %dms is out of range (max %dms)", ErrInvalidAction, field, ms, maxMillis)
	}
	return nil
}

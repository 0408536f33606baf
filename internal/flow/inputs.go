// internal/flow/inputs.go
package flow

import (
	"fmt"
	"os"
	"strings"
)

// MapInputs serves inputs from a static map.
type MapInputs map[string]string

func (m MapInputs) Input(key string) (string, error) {
	if v, ok := m[key]; ok {
		return v, nil
	}
	return "", fmt.Errorf("%w: no value for %q", ErrInput, key)
}

// FoldedInputs serves inputs from a map whose keys are matched without regard
// to case. Config files go through viper, which lower-cases map keys.
type FoldedInputs map[string]string

// NewFoldedInputs copies m with lower-cased keys.
func NewFoldedInputs(m map[string]string) FoldedInputs {
	folded := make(FoldedInputs, len(m))
	for k, v := range m {
		folded[strings.ToLower(k)] = v
	}
	return folded
}

func (f FoldedInputs) Input(key string) (string, error) {
	if v, ok := f[strings.ToLower(key)]; ok {
		return v, nil
	}
	return "", fmt.Errorf("%w: no value for %q", ErrInput, key)
}

// EnvInputs reads inputs from environment variables named Prefix + upper-cased key.
type EnvInputs struct {
	Prefix string
	lookup func(string) (string, bool)
}

// NewEnvInputs returns a provider backed by the process environment.
func NewEnvInputs(prefix string) EnvInputs {
	return EnvInputs{Prefix: prefix, lookup: os.LookupEnv}
}

func (e EnvInputs) Input(key string) (string, error) {
	lookup := e.lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	name := e.Prefix + strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(key))
	if v, ok := lookup(name); ok {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s is not set", ErrInput, name)
}

// ChainInputs asks each provider in turn and returns the first value found.
type ChainInputs []InputProvider

func (c ChainInputs) Input(key string) (string, error) {
	for _, p := range c {
		if p == nil {
			continue
		}
		if v, err := p.Input(key); err == nil {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: no provider has a value for %q", ErrInput, key)
}

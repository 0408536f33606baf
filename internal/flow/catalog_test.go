// internal/flow/catalog_test.go
package flow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinNames(t *testing.T) {
	assert.Equal(t, []string{"saucedemo-checkout", "youtube-description", "youtube-search"}, BuiltinNames())
}

func TestBuiltins_AreValid(t *testing.T) {
	for _, name := range BuiltinNames() {
		f, err := Builtin(name)
		require.NoError(t, err)
		assert.Equal(t, name, f.Name)
		assert.NotEmpty(t, f.Description)
		assert.NotEmpty(t, f.Actions)
		assert.NoError(t, f.Validate(), name)
		assert.Equal(t, KindNavigate, f.Actions[0].Kind, "%s starts by loading a page", name)
	}
}

func TestBuiltin_ReturnsFreshCopy(t *testing.T) {
	a, err := Builtin("saucedemo-checkout")
	require.NoError(t, err)
	a.Actions[0] = Click("#mutated")

	b, err := Builtin("saucedemo-checkout")
	require.NoError(t, err)
	assert.Equal(t, KindNavigate, b.Actions[0].Kind)
}

func TestBuiltin_Unknown(t *testing.T) {
	_, err := Builtin("does-not-exist")
	assert.Error(t, err)
}

func TestBuiltin_DescriptionFlowAgainstFakePage(t *testing.T) {
	f, err := Builtin("youtube-description")
	require.NoError(t, err)

	page := newFakePage(`input[name="search_query"]`, "#video-title")
	page.onClick["#video-title"] = func(p *fakePage) {
		p.addElement("#description", "about "+p.text(`input[name="search_query"]`))
	}
	clock := &fakeClock{}
	runner, _ := newTestRunner(t, page, WithClock(clock), WithInputs(DefaultInputs))

	res, err := runner.Run(context.Background(), f)
	require.NoError(t, err)

	assert.Equal(t, "about Fireship", res.Text())
	assert.Equal(t, []string{KeyEnter}, page.keys)
	assert.Len(t, clock.Slept(), 2)
}

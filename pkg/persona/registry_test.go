package persona

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_LoadsBuiltins(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, 10, r.Count())

	names := r.Names()
	assert.Contains(t, names, "designer")
	assert.Contains(t, names, "a11y")
	assert.Contains(t, names, "privacy")
	assert.Contains(t, names, "flow")
}

func TestBuiltins_AreWellFormed(t *testing.T) {
	seen := make(map[string]bool)
	for _, p := range Builtins() {
		assert.NotEmpty(t, p.ID)
		assert.NotEmpty(t, p.Name)
		assert.NotEmpty(t, p.Focus)
		assert.NotEmpty(t, p.System)
		assert.Contains(t, p.System, "[P1]", "persona %s should carry the output contract", p.ID)

		assert.False(t, seen[p.ID], "duplicate persona id: %s", p.ID)
		seen[p.ID] = true
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewEmptyRegistry()

	require.NoError(t, r.Register(Persona{ID: "brand", Name: "Brand Reviewer", Focus: "brand", System: "x"}))
	assert.Equal(t, 1, r.Count())

	p, ok := r.Get("brand")
	require.True(t, ok)
	assert.Equal(t, "Brand Reviewer", p.Name)
}

func TestRegistry_RegisterRejectsInvalid(t *testing.T) {
	r := NewEmptyRegistry()

	assert.Error(t, r.Register(Persona{Name: "no id", System: "x"}))
	assert.Error(t, r.Register(Persona{ID: "no-prompt"}))

	require.NoError(t, r.Register(Persona{ID: "dup", System: "x"}))
	assert.Error(t, r.Register(Persona{ID: "dup", System: "y"}))
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Unregister("designer"))
	assert.Equal(t, 9, r.Count())

	_, ok := r.Get("designer")
	assert.False(t, ok)

	assert.Error(t, r.Unregister("designer"))
}

func TestRegistry_ListKeepsOrder(t *testing.T) {
	r := NewEmptyRegistry()
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, r.Register(Persona{ID: id, System: "x"}))
	}

	list := r.List()
	require.Len(t, list, 3)
	assert.Equal(t, "c", list[0].ID)
	assert.Equal(t, "a", list[1].ID)
	assert.Equal(t, "b", list[2].ID)
}

func TestRegistry_FindByFocus(t *testing.T) {
	r := NewRegistry()

	matched := r.FindByFocus("accessibility")
	require.Len(t, matched, 1)
	assert.Equal(t, "a11y", matched[0].ID)

	assert.True(t, r.HasFocus("accessibility"))
	assert.False(t, r.HasFocus("no-such-tag"))
}

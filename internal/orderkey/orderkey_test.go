package orderkey

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyBetween_Bounds(t *testing.T) {
	tests := []struct {
		name string
		lo   string
		hi   string
	}{
		{"only high", "", "a0"},
		{"only low", "a0", ""},
		{"adjacent integers", "a1", "a2"},
		{"wide gap", "a1", "az"},
		{"across integer lengths", "az", "b00"},
		{"negative to positive", "Zz", "a0"},
		{"shared fraction prefix", "a0V", "a0W"},
		{"low fraction longer than high", "a1V9", "a1W"},
		{"high carries fraction", "", "a0V"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := KeyBetween(tt.lo, tt.hi)
			require.NoError(t, err)
			require.NoError(t, Validate(key))
			if tt.lo != "" {
				assert.Greater(t, key, tt.lo)
			}
			if tt.hi != "" {
				assert.Less(t, key, tt.hi)
			}
		})
	}
}

func TestKeyBetween_FirstChild(t *testing.T) {
	key, err := KeyBetween("", "")
	require.NoError(t, err)
	assert.Equal(t, First(), key, "empty sibling group gets a stable key")
}

func TestKeyBetween_Errors(t *testing.T) {
	tests := []struct {
		name string
		lo   string
		hi   string
	}{
		{"equal keys", "a0", "a0"},
		{"inverted keys", "a1", "a0"},
		{"trailing zero fraction low", "a1V0", "a2"},
		{"trailing zero fraction high", "a1", "a2V0"},
		{"bad head", "!0", ""},
		{"bad digit", "a!", ""},
		{"truncated integer part", "b0", ""},
		{"nothing below the minimum key", "", smallestInteger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := KeyBetween(tt.lo, tt.hi)
			assert.Error(t, err)
		})
	}
}

// Repeated insertion at the same spot must keep producing strictly
// intermediate keys well past the per-digit gap.
func TestKeyBetween_RepeatedInsertionAbove(t *testing.T) {
	lo, hi := "a1", "a2"
	for i := 0; i < 50; i++ {
		key, err := KeyBetween(lo, hi)
		require.NoError(t, err)
		require.Greater(t, key, lo)
		require.Less(t, key, hi)
		lo = key
	}
}

func TestKeyBetween_RepeatedInsertionBelow(t *testing.T) {
	lo, hi := "a1", "a2"
	for i := 0; i < 50; i++ {
		key, err := KeyBetween(lo, hi)
		require.NoError(t, err)
		require.Greater(t, key, lo)
		require.Less(t, key, hi)
		hi = key
	}
}

// Appending at the tail, the way sibling creation does, must stay sorted and
// keep keys short.
func TestKeyBetween_AppendSequence(t *testing.T) {
	var keys []string
	last := ""
	for i := 0; i < 200; i++ {
		key, err := KeyBetween(last, "")
		require.NoError(t, err)
		keys = append(keys, key)
		last = key
	}

	assert.True(t, sort.StringsAreSorted(keys))
	for _, k := range keys {
		assert.LessOrEqual(t, len(k), 3, "append growth must stay logarithmic")
	}
}

func TestKeyBetween_PrependSequence(t *testing.T) {
	var keys []string
	first := ""
	for i := 0; i < 200; i++ {
		key, err := KeyBetween("", first)
		require.NoError(t, err)
		keys = append([]string{key}, keys...)
		first = key
	}

	assert.True(t, sort.StringsAreSorted(keys))
}

func TestIntegerCarry(t *testing.T) {
	tests := []struct{ in, want string }{
		{"a0", "a1"},
		{"az", "b00"},
		{"bzz", "c000"},
		{"Zz", "a0"},
	}
	for _, tt := range tests {
		got, err := incrementInteger(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	down := []struct{ in, want string }{
		{"a1", "a0"},
		{"a0", "Zz"},
		{"b00", "az"},
		{"Z0", "Yzz"},
	}
	for _, tt := range down {
		got, err := decrementInteger(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestValidate(t *testing.T) {
	assert.Error(t, Validate(""))
	assert.Error(t, Validate("a1V0"))
	assert.Error(t, Validate("a "))
	assert.NoError(t, Validate("a0"))
	assert.NoError(t, Validate("Zz"))
	assert.NoError(t, Validate("a1V"))
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter(t *testing.T) {
	tests := []struct {
		name       string
		advertised Set
		denylist   Set
		want       []string
	}{
		{"removes denied", NewSet("a", "b", "c"), NewSet("b"), []string{"a", "c"}},
		{"empty denylist", NewSet("a", "b", "c"), NewSet(), []string{"a", "b", "c"}},
		{"nil denylist", NewSet("a"), nil, []string{"a"}},
		{"empty advertised", NewSet(), NewSet("b"), []string{}},
		{"everything denied", NewSet("x"), NewSet("x", "y"), []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(tt.advertised, tt.denylist)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Sorted())
		})
	}
}

func TestFilter_DoesNotMutateInputs(t *testing.T) {
	advertised := NewSet("a", "b")
	deny := NewSet("b")

	_ = Filter(advertised, deny)

	assert.Equal(t, []string{"a", "b"}, advertised.Sorted())
	assert.Equal(t, []string{"b"}, deny.Sorted())
}

func TestFilter_DefaultDenylist(t *testing.T) {
	advertised := NewSet("llama-3.1-70b-versatile", "mixtral-8x7b-32768", "llama-guard-3-8b", "gemma2-9b-it")

	got := Filter(advertised, NewSet(DefaultDenylist...))

	assert.Equal(t, []string{"gemma2-9b-it", "llama-3.1-70b-versatile"}, got.Sorted())
}

func TestNewSet_SkipsBlank(t *testing.T) {
	s := NewSet("a", " ", "", " b ")
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains("b"))
}

func TestSelect(t *testing.T) {
	got, err := Select(NewSet("b", "a"), "b")
	require.NoError(t, err)
	assert.Equal(t, "b", got)

	got, err = Select(NewSet("c", "a"), "missing")
	require.NoError(t, err)
	assert.Equal(t, "a", got)

	_, err = Select(NewSet(), "a")
	require.ErrorIs(t, err, ErrNoAllowedModels)
}

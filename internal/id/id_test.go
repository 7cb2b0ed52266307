package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for i := 0; i < count; i++ {
		got, err := Generate("test")
		require.NoError(t, err)
		assert.False(t, ids[got], "ID should be unique: %s", got)
		ids[got] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	got, err := Generate("crd")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "crd-"))
	// prefix + dash + 21-char nanoid
	assert.Len(t, got, len("crd")+1+21)
}

func TestMustGenerate(t *testing.T) {
	got := MustGenerate("brd")
	assert.True(t, strings.HasPrefix(got, "brd-"))
}

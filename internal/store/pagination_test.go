package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginationValidate(t *testing.T) {
	p := PaginationParams{}
	p.Validate()
	assert.Equal(t, 50, p.Limit)

	p = PaginationParams{Limit: 9999}
	p.Validate()
	assert.Equal(t, 500, p.Limit)

	p = PaginationParams{Limit: 25}
	p.Validate()
	assert.Equal(t, 25, p.Limit)
}

func TestCursorRoundTrip(t *testing.T) {
	cursor := EncodeCursor("2026-03-10T09:00:00Z|act-abc")
	require.NotEmpty(t, cursor)

	key, err := DecodeCursor(cursor)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10T09:00:00Z|act-abc", key)

	key, err = DecodeCursor("")
	require.NoError(t, err)
	assert.Empty(t, key)

	_, err = DecodeCursor("%%%not-base64%%%")
	assert.Error(t, err)
}

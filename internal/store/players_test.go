package store

import (
	"errors"
	"testing"

	"tombola/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePlayers(t *testing.T) {
	data := []byte(`[
		// a comment
		{ name: "Alice", email: "alice@example.com" },
		[
			{ id: "bob", name: "Bob", disambiguation: "uncle", phone: 33612345678 },
			{ name: "Carol", participate: false, },
		],
	]`)

	records, err := DecodePlayers(data)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Alice", records[0].Name)
	assert.Equal(t, "alice@example.com", records[0].Email)
	assert.Nil(t, records[0].Participate)

	require.True(t, records[1].IsGroup())
	require.Len(t, records[1].Group, 2)
	assert.Equal(t, "bob", records[1].Group[0].ID)
	assert.Equal(t, "33612345678", records[1].Group[0].Phone)
	require.NotNil(t, records[1].Group[1].Participate)
	assert.False(t, *records[1].Group[1].Participate)
}

func TestDecodePlayersInvalid(t *testing.T) {
	tests := map[string]string{
		"not an array":  `{ name: "Alice" }`,
		"scalar entry":  `[ 42 ]`,
		"nameless":      `[ { email: "x@example.com" } ]`,
		"broken syntax": `[ { name: `,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodePlayers([]byte(data))
			require.Error(t, err)
		})
	}

	_, err := DecodePlayers([]byte(`[ [ 42 ] ]`))
	assert.True(t, errors.Is(err, models.ErrInvalidRecord))
}

package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoomID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id, err := NewRoomID()
		require.NoError(t, err)
		assert.Len(t, id, roomIDLength)
		for _, c := range id {
			assert.Contains(t, roomIDChars, string(c))
		}
		assert.False(t, seen[id], "generated a duplicate in 1000 draws")
		seen[id] = true
	}
}

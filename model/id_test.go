package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateID(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := MustGenerateID()
		require.True(t, IsValidID(id))

		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}

	require.False(t, IsValidID(""))
	require.False(t, IsValidID("not-an-id"))
}

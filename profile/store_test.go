package profile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateAlias(t *testing.T) {
	for _, alias := range []string{"abc", "anon_user-1", "Ñandú", "a2345678901234567890"} {
		require.NoError(t, ValidateAlias(alias), alias)
	}

	for _, alias := range []string{"", "ab", "a23456789012345678901", "has space", "semi;colon", "emoji😀x"} {
		require.ErrorIs(t, ValidateAlias(alias), ErrInvalidAlias, alias)
	}
}

func TestUpdate(t *testing.T) {
	u := &Update{}
	require.True(t, u.IsEmpty())
	require.Empty(t, u.Fields())

	alias, image := "new_alias", ""
	u = &Update{Alias: &alias, ProfileImage: &image}
	require.False(t, u.IsEmpty())
	require.Equal(t, []string{"alias", "profile_image"}, u.Fields())
}

package bot

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKnownUsersEvictsOldest(t *testing.T) {
	k := newKnownUsers(2)
	k.add(1)
	k.add(2)
	k.add(2)
	require.True(t, k.known(1))

	k.add(3)
	require.False(t, k.known(1))
	require.True(t, k.known(2))
	require.True(t, k.known(3))

	k.add(4)
	require.False(t, k.known(2))
	require.Len(t, k.set, 2)
}

func TestKnownUsersForget(t *testing.T) {
	k := newKnownUsers(2)
	k.add(1)
	k.forget(1)
	require.False(t, k.known(1))

	k.add(1)
	require.True(t, k.known(1))
}

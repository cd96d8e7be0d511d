package handlers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenState_UniqueHex(t *testing.T) {
	t.Parallel()

	a, err := genState()
	require.NoError(t, err)
	require.Regexp(t, "^[0-9a-f]{32}$", a)

	b, err := genState()
	require.NoError(t, err)
	require.NotEqual(t, a, b, "state одноразовый и не должен повторяться")
}

package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSessionToken(t *testing.T) {
	token, err := newSessionToken()
	require.NoError(t, err)
	// 256 bits, hex-encoded
	require.Len(t, token, 64)

	other, err := newSessionToken()
	require.NoError(t, err)
	require.NotEqual(t, token, other)
}

package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewStamp(t *testing.T) {
	t.Parallel()

	t.Run("produces requested size", func(t *testing.T) {
		stamp, err := NewStamp(32)
		require.NoError(t, err)
		require.Len(t, stamp, 32)
	})

	t.Run("rejects non-positive sizes", func(t *testing.T) {
		_, err := NewStamp(0)
		require.Error(t, err)
	})

	t.Run("two stamps differ", func(t *testing.T) {
		a, err := NewStamp(32)
		require.NoError(t, err)
		b, err := NewStamp(32)
		require.NoError(t, err)
		require.NotEqual(t, a, b)
	})
}

func TestRotateStamp(t *testing.T) {
	t.Parallel()

	t.Run("overwrites in place with a new value", func(t *testing.T) {
		stamp, err := NewStamp(32)
		require.NoError(t, err)

		before := make([]byte, len(stamp))
		copy(before, stamp)

		require.NoError(t, RotateStamp(stamp))
		require.Len(t, stamp, 32)
		require.NotEqual(t, before, stamp)
	})

	t.Run("rejects empty stamps", func(t *testing.T) {
		require.Error(t, RotateStamp(nil))
	})
}

func TestEncodeDecodeStamp(t *testing.T) {
	t.Parallel()

	stamp, err := NewStamp(32)
	require.NoError(t, err)

	decoded, err := DecodeStamp(EncodeStamp(stamp))
	require.NoError(t, err)
	require.Equal(t, stamp, decoded)
}

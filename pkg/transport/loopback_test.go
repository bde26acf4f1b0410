package transport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoopbackReadSide(t *testing.T) {
	l := NewLoopback()
	require.Equal(t, 0, l.BytesAvailable())

	_, err := l.ReadByte()
	require.Equal(t, ErrNoData, err)

	l.Feed(1, 2, 3)
	require.Equal(t, 3, l.BytesAvailable())
	b, err := l.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte(1), b)
	require.Equal(t, 2, l.BytesAvailable())

	require.NoError(t, l.Flush())
	require.Equal(t, 0, l.BytesAvailable())
	require.Equal(t, 1, l.Flushes)
}

func TestLoopbackWriteSide(t *testing.T) {
	l := NewLoopback()

	_, err := l.Write([]byte{0xC8})
	require.Equal(t, ErrClosed, err)

	require.NoError(t, l.Open(420000))
	require.Equal(t, 420000, l.OpenedAt)
	n, err := l.Write([]byte{0xC8, 0x02})
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []byte{0xC8, 0x02}, l.Sent)

	require.NoError(t, l.Close())
	require.Equal(t, 0, l.OpenedAt)
	// Closing again is a no-op.
	require.NoError(t, l.Close())
}

package xbeeapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDeadline = 50 * time.Millisecond

func mkFrame(typ, id byte, data ...byte) Frame {
	return Frame{Type: typ, ID: id, Data: append([]byte(nil), data...)}
}

func TestFrameBufferPushAndFindAndRemove(t *testing.T) {
	buf := NewFrameBuffer(5)
	buf.Push(mkFrame(0x88, 0x01, 'O', 'K'), testDeadline)

	f, ok := buf.FindAndRemove(0x88, 0x01, testDeadline)
	require.True(t, ok)
	assert.Equal(t, byte(0x88), f.Type)
	assert.Equal(t, []byte{'O', 'K'}, f.Data)
	assert.False(t, buf.IsNonEmpty(testDeadline))
}

func TestFrameBufferWildcardID(t *testing.T) {
	buf := NewFrameBuffer(5)
	buf.Push(mkFrame(0x90, NoFrameID, 1), testDeadline)

	f, ok := buf.FindFrame(0x90, testDeadline)
	require.True(t, ok)
	assert.Equal(t, byte(1), f.Data[0])
}

func TestFrameBufferOverflowDropsOldest(t *testing.T) {
	buf := NewFrameBuffer(5)
	for i := byte(1); i <= 6; i++ {
		buf.Push(mkFrame(0x90, NoFrameID, i), testDeadline)
	}
	require.Equal(t, 5, buf.Len(testDeadline))

	for want := byte(2); want <= 6; want++ {
		f, ok := buf.PopOldest(testDeadline)
		require.True(t, ok)
		assert.Equal(t, want, f.Data[0], "frames must survive in insertion order after overflow")
	}
	_, ok := buf.PopOldest(testDeadline)
	assert.False(t, ok)
}

func TestFrameBufferFindAndRemoveIsOrderPreserving(t *testing.T) {
	buf := NewFrameBuffer(5)
	buf.Push(mkFrame(0x90, NoFrameID, 1), testDeadline)
	buf.Push(mkFrame(0x88, 0x05, 2), testDeadline)
	buf.Push(mkFrame(0x90, NoFrameID, 3), testDeadline)

	f, ok := buf.FindAndRemove(0x88, 0x05, testDeadline)
	require.True(t, ok)
	assert.Equal(t, byte(2), f.Data[0])

	first, ok := buf.PopOldest(testDeadline)
	require.True(t, ok)
	assert.Equal(t, byte(1), first.Data[0])
	second, ok := buf.PopOldest(testDeadline)
	require.True(t, ok)
	assert.Equal(t, byte(3), second.Data[0])
}

func TestFrameBufferFlushIsIdempotent(t *testing.T) {
	buf := NewFrameBuffer(5)
	buf.Push(mkFrame(0x88, 0x10, 1), testDeadline)
	buf.Push(mkFrame(0x88, 0x10, 2), testDeadline)
	buf.Push(mkFrame(0x90, NoFrameID, 3), testDeadline)

	buf.Flush(0x88, 0x10, testDeadline)
	assert.Equal(t, 1, buf.Len(testDeadline))

	buf.Flush(0x88, 0x10, testDeadline) // second call: no-op
	assert.Equal(t, 1, buf.Len(testDeadline))
}

func TestFrameBufferNoMatchReturnsFalse(t *testing.T) {
	buf := NewFrameBuffer(5)
	_, ok := buf.FindAndRemove(0x88, 0x01, testDeadline)
	assert.False(t, ok)
}

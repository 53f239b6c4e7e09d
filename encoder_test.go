package xbeeapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksumATCommandFrame(t *testing.T) {
	f := Frame{Type: FrameTypeATCommand, ID: 0x91, Data: []byte{'N', 'I'}}
	sum := int(f.Type) + int(f.ID) + int('N') + int('I')
	want := byte(0xFF - (sum & 0xFF))
	assert.Equal(t, want, checksum(f))
}

func TestChecksumNonIDBearingFrameExcludesID(t *testing.T) {
	withID := Frame{Type: FrameTypeReceive, ID: 0x42, Data: []byte{1, 2, 3}}
	withoutID := Frame{Type: FrameTypeReceive, ID: 0x00, Data: []byte{1, 2, 3}}
	assert.Equal(t, checksum(withoutID), checksum(withID), "Receive frames are not id-bearing; the ID field must not affect the checksum")
}

func TestEncoderSendEmitsExpectedWireBytesForATFrame(t *testing.T) {
	sink := &fakeSink{}
	enc := newEncoder(sink, nil)
	f := makeATFrame([2]byte{'N', 'I'}, nil)

	err := enc.send(f, testDeadline)
	require.NoError(t, err)

	got := sink.bytes()
	want := encodeWireFrame(f)
	assert.Equal(t, want, got)
	assert.Equal(t, byte(0x7E), got[0])
}

func TestEncoderSendEmitsExpectedWireBytesForTxFrame(t *testing.T) {
	sink := &fakeSink{}
	enc := newEncoder(sink, nil)
	f := makeTxFrame(addressBytes(0x0013A20012345678), []byte("hi"))

	err := enc.send(f, testDeadline)
	require.NoError(t, err)

	got := sink.bytes()
	want := encodeWireFrame(f)
	assert.Equal(t, want, got)
	// TX request is id-bearing: the byte after type is the frame ID
	// TX-status later echoes, not the address.
	assert.Equal(t, byte(FrameTypeTxRequest), got[3])
	assert.Equal(t, f.ID, got[4])
}

func TestEncoderSendFailsWhenSinkNeverWritable(t *testing.T) {
	enc := newEncoder(&unwritableSink{}, nil)
	f := makeATFrame([2]byte{'A', 'I'}, nil)

	err := enc.send(f, 5*time.Millisecond)
	assert.ErrorIs(t, err, ErrSendFailed)
}

func TestEncoderSendReturnsErrBusyWhenAlreadyLocked(t *testing.T) {
	sink := &fakeSink{}
	enc := newEncoder(sink, nil)
	enc.mu.Lock()
	defer enc.mu.Unlock()

	err := enc.send(makeATFrame([2]byte{'A', 'I'}, nil), 5*time.Millisecond)
	assert.ErrorIs(t, err, ErrBusy)
}

// unwritableSink never reports writable, exercising the encoder's
// deadline-exceeded path.
type unwritableSink struct{}

func (unwritableSink) Writable() bool       { return false }
func (unwritableSink) WriteByte(byte) error { return nil }

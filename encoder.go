package xbeeapi

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// encoder serializes a Frame to bytes and emits it through a ByteSink,
// guarded by a TX mutex with a per-byte writable-wait timeout.
type encoder struct {
	mu   sync.Mutex
	sink ByteSink
	log  *logrus.Logger
}

func newEncoder(sink ByteSink, log *logrus.Logger) *encoder {
	return &encoder{sink: sink, log: log}
}

// checksum computes 0xFF - ((type + id_if_any + sum(data)) & 0xFF).
func checksum(f Frame) byte {
	sum := int(f.Type)
	if idBearingFrameTypes[f.Type] {
		sum += int(f.ID)
	}
	for _, b := range f.Data {
		sum += int(b)
	}
	return byte(0xFF - (sum & 0xFF))
}

// send emits frame on the wire within deadline. It acquires the TX
// mutex with trylock_for semantics; failure to acquire is reported as
// ErrBusy without emitting any bytes. Once acquired, a budget timer
// covers the whole emission: if the sink never becomes writable before
// the deadline, send marks failure, writes no further bytes of the
// frame, and still releases the mutex cleanly.
func (e *encoder) send(frame Frame, deadline time.Duration) error {
	if !tryLockMutex(&e.mu, deadline) {
		return ErrBusy
	}
	defer e.mu.Unlock()

	cs := checksum(frame)
	hasID := idBearingFrameTypes[frame.Type]

	// The length field on the wire counts every byte between itself and
	// the checksum: type(1) + id(1 if present) + data. The decoder's
	// LenLo/Type states invert this exactly, so this must stay in
	// lockstep with clampNonNegative/feedBody there.
	payloadLen := len(frame.Data)
	wireLen := payloadLen + 1
	if hasID {
		wireLen++
	}

	deadlineAt := time.Now().Add(deadline)
	ok := true

	writeByte := func(b byte) {
		if !ok {
			return
		}
		for time.Now().Before(deadlineAt) && !e.sink.Writable() {
		}
		if !e.sink.Writable() {
			ok = false
			return
		}
		if err := e.sink.WriteByte(b); err != nil {
			ok = false
		}
	}

	writeByte(0x7E)
	writeByte(byte(wireLen >> 8))
	writeByte(byte(wireLen & 0xFF))
	writeByte(frame.Type)
	if hasID {
		writeByte(frame.ID)
	}
	for _, b := range frame.Data {
		writeByte(b)
	}
	writeByte(cs)

	if !ok {
		if e.log != nil {
			e.log.WithField("type", frame.Type).Debug("xbeeapi: send timed out mid-frame")
		}
		return ErrSendFailed
	}
	return nil
}

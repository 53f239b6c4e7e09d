package xbeeapi

import (
	"sync"
	"time"
)

// Frame type codes. Only the types listed in idBearingFrameTypes carry
// a frame-ID byte on the wire; the others (modem status, receive) have
// their first data byte at the position the ID would otherwise occupy.
const (
	FrameTypeTxRequest    = 0x00
	FrameTypeATCommand    = 0x08
	FrameTypeRemoteAT     = 0x17
	FrameTypeATResponse   = 0x88
	FrameTypeTxStatus     = 0x89
	FrameTypeModemStatus  = 0x8A
	FrameTypeRemoteATResp = 0x97
	FrameTypeReceive      = 0x90
)

// idBearingFrameTypes enumerates the frame types whose wire layout
// includes a frame-ID byte immediately after the type byte.
var idBearingFrameTypes = map[byte]bool{
	FrameTypeTxRequest:    true,
	FrameTypeATCommand:    true,
	FrameTypeRemoteAT:     true,
	FrameTypeATResponse:   true,
	FrameTypeTxStatus:     true,
	FrameTypeRemoteATResp: true,
}

// NoFrameID is the wildcard/absent frame-ID value, matching any id on
// a find.
const NoFrameID byte = 0xFF

// Frame is a decoded API message: an 8-bit type, an 8-bit correlation
// tag (NoFrameID for "none"), and a payload bounded by MaxFrameLength.
type Frame struct {
	Type byte
	ID   byte
	Data []byte
}

// Length returns len(Data), mirroring the C-struct `length` field the
// original parser carried explicitly.
func (f Frame) Length() int {
	return len(f.Data)
}

// clone returns a deep copy of f so that callers cannot mutate data
// still owned by the buffer or the staging frame.
func (f Frame) clone() Frame {
	d := make([]byte, len(f.Data))
	copy(d, f.Data)
	return Frame{Type: f.Type, ID: f.ID, Data: d}
}

// Equal reports whether two frames carry the same (type, id, data).
func (f Frame) Equal(other Frame) bool {
	if f.Type != other.Type || f.ID != other.ID || len(f.Data) != len(other.Data) {
		return false
	}
	for i := range f.Data {
		if f.Data[i] != other.Data[i] {
			return false
		}
	}
	return true
}

// FrameBuffer is a bounded FIFO of completed frames. Oldest-at-index-0;
// on overflow the oldest frame is dropped before the new one is
// appended. All operations are guarded by a mutex with a bounded
// acquire — contention is reported as "no match", never as an error,
// since a caller polling with a deadline can't distinguish "nothing
// there yet" from "briefly busy" and shouldn't have to.
type FrameBuffer struct {
	mu       sync.Mutex
	frames   []Frame
	capacity int
}

// NewFrameBuffer returns a FrameBuffer bounded at capacity frames.
func NewFrameBuffer(capacity int) *FrameBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &FrameBuffer{
		frames:   make([]Frame, 0, capacity),
		capacity: capacity,
	}
}

// tryLock attempts to acquire b.mu within deadline, mirroring
// trylock_for semantics from the original RTOS mutex.
func (b *FrameBuffer) tryLock(deadline time.Duration) bool {
	return tryLockMutex(&b.mu, deadline)
}

// Push appends frame to the buffer, dropping the oldest entry first if
// the buffer is already at capacity. Returns false if the mutex could
// not be acquired within deadline — the caller (the coordinator) is
// expected to retry or drop.
func (b *FrameBuffer) Push(frame Frame, deadline time.Duration) bool {
	if !b.tryLock(deadline) {
		return false
	}
	defer b.mu.Unlock()
	if len(b.frames) >= b.capacity {
		b.frames = b.frames[1:]
	}
	b.frames = append(b.frames, frame.clone())
	return true
}

// FindAndRemove scans for the first frame matching frameType and
// (frameID == NoFrameID or frame.ID == frameID), removes it preserving
// order of the remainder, and returns it. ok is false on no match or
// on mutex contention — both are reported identically, since neither
// is actionable differently by the caller.
func (b *FrameBuffer) FindAndRemove(frameType, frameID byte, deadline time.Duration) (frame Frame, ok bool) {
	if !b.tryLock(deadline) {
		return Frame{}, false
	}
	defer b.mu.Unlock()
	for i, f := range b.frames {
		if f.Type == frameType && (frameID == NoFrameID || f.ID == frameID) {
			out := f.clone()
			b.frames = append(b.frames[:i], b.frames[i+1:]...)
			return out, true
		}
	}
	return Frame{}, false
}

// FindFrame matches on type alone, equivalent to FindAndRemove(type,
// NoFrameID).
func (b *FrameBuffer) FindFrame(frameType byte, deadline time.Duration) (Frame, bool) {
	return b.FindAndRemove(frameType, NoFrameID, deadline)
}

// PopOldest removes and returns the frame at index 0, if any.
func (b *FrameBuffer) PopOldest(deadline time.Duration) (Frame, bool) {
	if !b.tryLock(deadline) {
		return Frame{}, false
	}
	defer b.mu.Unlock()
	if len(b.frames) == 0 {
		return Frame{}, false
	}
	out := b.frames[0].clone()
	b.frames = b.frames[1:]
	return out, true
}

// IsNonEmpty reports whether the buffer currently holds any frame.
// Mutex contention is reported as false rather than surfaced as an
// error.
func (b *FrameBuffer) IsNonEmpty(deadline time.Duration) bool {
	if !b.tryLock(deadline) {
		return false
	}
	defer b.mu.Unlock()
	return len(b.frames) > 0
}

// Flush repeatedly removes frames matching (frameType, frameID) until
// none remain. Idempotent: calling Flush twice in a row is equivalent
// to calling it once.
func (b *FrameBuffer) Flush(frameType, frameID byte, deadline time.Duration) {
	for {
		if _, ok := b.FindAndRemove(frameType, frameID, deadline); !ok {
			return
		}
	}
}

// Len reports the current number of buffered frames, for diagnostics
// and tests. If the mutex cannot be acquired within deadline it returns
// -1 rather than zero, so contention is never mistaken for an empty
// buffer.
func (b *FrameBuffer) Len(deadline time.Duration) int {
	if !b.tryLock(deadline) {
		return -1
	}
	defer b.mu.Unlock()
	return len(b.frames)
}

package xbeeapi

// ByteSource is the host-side abstraction over the physical byte-serial
// link's inbound direction. The concrete implementation (e.g.
// transport/serialport) typically runs on real interrupt or goroutine
// delivery; the decoder only relies on the contract below.
//
// Attach/Detach must be atomic with respect to further arrivals: once
// Detach returns, no further calls to the previously attached callback
// may begin. This is the back-pressure primitive the decoder and
// coordinator rely on to hand a completed frame off without a byte
// arriving mid hand-off — it must hold even when the source delivers
// bytes from a real interrupt context.
type ByteSource interface {
	// Attach registers fn to be invoked once per arrived byte. Only one
	// callback may be attached at a time; Attach while one is already
	// registered replaces it.
	Attach(fn func(b byte))

	// Detach removes the current callback, if any. Safe to call when
	// nothing is attached.
	Detach()
}

// ByteSink is the host-side abstraction over the link's outbound
// direction.
type ByteSink interface {
	// Writable reports whether a call to WriteByte would not block.
	Writable() bool

	// WriteByte writes a single byte. Concurrent callers must
	// serialize externally (the encoder does this via its TX mutex).
	WriteByte(b byte) error
}

package xbeeapi

import "errors"

// Error taxonomy for the driver. Framing errors (bad checksum, oversize
// length, lost sync) never surface here — the decoder silently resyncs
// to Idle and only logs. These sentinels cover the remaining categories
// from spec: timeout, resource contention, oversize request and send
// failure.
var (
	// ErrNoMatch is returned when no frame matching (type, id) appeared
	// in the buffer before the caller's deadline.
	ErrNoMatch = errors.New("xbeeapi: no matching frame before deadline")

	// ErrBusy is returned when a mutex could not be acquired within its
	// deadline. Observationally equivalent to a timeout; callers should
	// treat it as transient.
	ErrBusy = errors.New("xbeeapi: resource busy")

	// ErrOversizePayload is returned when a caller-supplied payload
	// exceeds the frame capacity.
	ErrOversizePayload = errors.New("xbeeapi: payload exceeds frame capacity")

	// ErrSendFailed is returned when the per-byte writable-wait budget
	// was exhausted mid-frame. The wire may carry a partial frame; the
	// peer is expected to drop it on checksum mismatch.
	ErrSendFailed = errors.New("xbeeapi: send did not complete before deadline")

	// ErrClosed is returned by operations attempted after Close.
	ErrClosed = errors.New("xbeeapi: driver closed")

	// ErrInvalidAddress is returned by ParseAddress when its input is
	// not exactly 16 hex digits (an optional "0x" prefix aside).
	ErrInvalidAddress = errors.New("xbeeapi: address must be 16 hex digits")

	// ErrInvalidConfig is returned by LoadConfig when a configured
	// value is structurally invalid (not just out of the clamp range,
	// which is silently clamped).
	ErrInvalidConfig = errors.New("xbeeapi: invalid configuration")
)

package xbeeapi

import (
	"encoding/hex"
	"strings"
	"time"
)

const (
	responsePollInterval = 5 * time.Millisecond
	txStatusPollInterval = 7 * time.Millisecond
	preResponseGrace     = 5 * time.Millisecond
)

// awaitFrame polls the buffer for (frameType, frameID) until it finds
// a match or deadline elapses, sleeping pollEvery between attempts.
// This is the minimum-effort port of the original's Timer-based poll
// loop; a condvar signalled by the coordinator would remove the
// latency jitter, but polling is what the original does and is
// preserved here.
func awaitFrame(buf *FrameBuffer, frameType, frameID byte, deadline time.Duration, pollEvery time.Duration, stepTimeout time.Duration) (Frame, bool) {
	start := time.Now()
	for {
		if f, ok := buf.FindAndRemove(frameType, frameID, stepTimeout); ok {
			return f, true
		}
		if time.Since(start) >= deadline {
			return Frame{}, false
		}
		time.Sleep(pollEvery)
	}
}

// Associated reports whether the radio has joined a network. If the
// cached flag is already true it is returned without a round trip;
// otherwise it issues "AT AI" and interprets the response.
func (d *Driver) Associated() (bool, error) {
	if d.closed.Load() {
		return false, ErrClosed
	}
	if d.assoc.Associated() {
		return true, nil
	}
	return d.verifyAssociation()
}

func (d *Driver) verifyAssociation() (bool, error) {
	frame := makeATFrame([2]byte{'A', 'I'}, nil)
	step := d.timeoutDuration()
	d.buf.Flush(frame.Type, frame.ID, step)
	d.assoc.setAssociated(false)

	if err := d.send(frame); err != nil {
		return false, err
	}

	resp, ok := awaitFrame(d.buf, FrameTypeATResponse, frame.ID, 2*step, responsePollInterval, step)
	if !ok {
		return false, ErrNoMatch
	}
	if len(resp.Data) >= 4 && resp.Data[0] == 'A' && resp.Data[1] == 'I' && resp.Data[2] == 0x00 {
		if resp.Data[3] == 0x00 {
			d.assoc.setAssociated(true)
		}
	}
	return d.assoc.Associated(), nil
}

// GetAddress resolves a node identifier to its 64-bit address via
// "AT DN", then "AT DH"/"AT DL". Returns 0 on timeout or an unexpected
// response length, 1 on a non-OK DN status, otherwise the resolved
// 64-bit address.
//
// The DN status check intentionally mirrors a bug preserved from
// original_source/XBeeAPIParser.cpp: `frame.data[0] = 'D'` there is an
// assignment, not a comparison, so the DN status is in practice never
// rejected on that byte alone. See DESIGN.md "Open Questions".
func (d *Driver) GetAddress(nodeIdentifier string) (uint64, error) {
	if d.closed.Load() {
		return 0, ErrClosed
	}
	step := d.timeoutDuration()

	dn := makeATFrame([2]byte{'D', 'N'}, []byte(nodeIdentifier))
	d.buf.Flush(dn.Type, dn.ID, step)
	if err := d.send(dn); err != nil {
		return 0, err
	}
	time.Sleep(preResponseGrace)
	resp, ok := awaitFrame(d.buf, FrameTypeATResponse, dn.ID, 10*step, responsePollInterval, step)
	if !ok || len(resp.Data) != 3 {
		return 0, nil
	}
	// Preserved bug: data[0]='D' is an assignment in the original, so
	// data[0] is never checked; only data[1]=='N' and an OK status byte
	// (data[2]==0x00) decide whether 1 is returned.
	if !(assignAlwaysTrue(&resp.Data[0], 'D') && resp.Data[1] == 'N' && resp.Data[2] == 0x00) {
		return 1, nil
	}

	dh := makeATFrame([2]byte{'D', 'H'}, nil)
	d.buf.Flush(dh.Type, dh.ID, step)
	if err := d.send(dh); err != nil {
		return 0, err
	}
	dhResp, ok := awaitFrame(d.buf, FrameTypeATResponse, dh.ID, 2*step, responsePollInterval, step)
	if !ok || len(dhResp.Data) != 7 {
		return 0, nil
	}
	var address uint64
	for i := 0; i < 4; i++ {
		address = (address << 8) | uint64(dhResp.Data[3+i])
	}

	dl := makeATFrame([2]byte{'D', 'L'}, nil)
	d.buf.Flush(dl.Type, dl.ID, step)
	if err := d.send(dl); err != nil {
		return 0, err
	}
	dlResp, ok := awaitFrame(d.buf, FrameTypeATResponse, dl.ID, 2*step, responsePollInterval, step)
	if !ok || len(dlResp.Data) != 7 {
		return 0, nil
	}
	for i := 0; i < 4; i++ {
		address = (address << 8) | uint64(dlResp.Data[3+i])
	}
	return address, nil
}

// assignAlwaysTrue mirrors `frame.data[0] = 'D'` from the original C++:
// an assignment used where a comparison was intended. It performs the
// assignment and returns true always ('D' is truthy as a nonzero
// char), exactly reproducing the original's behavior rather than
// silently fixing it.
func assignAlwaysTrue(b *byte, v byte) bool {
	*b = v
	return v != 0
}

// LastRSSI issues "AT DB" and returns the RSSI byte, or 0xFF if no
// valid response arrived in time.
func (d *Driver) LastRSSI() (byte, error) {
	if d.closed.Load() {
		return 0xFF, ErrClosed
	}
	step := d.timeoutDuration()
	frame := makeATFrame([2]byte{'D', 'B'}, nil)
	d.buf.Flush(frame.Type, frame.ID, step)
	if err := d.send(frame); err != nil {
		return 0xFF, err
	}
	resp, ok := awaitFrame(d.buf, FrameTypeATResponse, frame.ID, 2*step, responsePollInterval, step)
	if !ok {
		return 0xFF, nil
	}
	if len(resp.Data) == 6 && resp.Data[2] == 'D' && resp.Data[3] == 'B' && resp.Data[4] == 0x00 {
		return resp.Data[5], nil
	}
	return 0xFF, nil
}

// broadcastAddress64 holds the 16-bit literal the original source uses for
// txBroadcast instead of the protocol's 64-bit broadcast address
// 0x000000000000FFFF. The encoder zero-extends an 8-byte address field
// regardless, so the wire bytes end up correct (00 00 00 00 00 00 FF
// FF) despite the narrower literal; preserved bit-exact rather than
// "corrected".
var broadcastAddress64 = addressBytes(0x000000000000FFFF)

func addressBytes(addr uint64) [8]byte {
	var out [8]byte
	for i := 0; i < 8; i++ {
		out[i] = byte(addr >> ((7 - i) * 8))
	}
	return out
}

// ParseAddress decodes a hex-encoded 64-bit radio address, as typed on
// a command line or read from a config value, into the form
// TxAddressed expects. It accepts an optional "0x" prefix and requires
// exactly 16 hex digits (8 bytes); anything else is ErrInvalidAddress,
// since a short or malformed address would otherwise silently encode
// the wrong destination on the wire.
func ParseAddress(s string) (uint64, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != 16 {
		return 0, ErrInvalidAddress
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return 0, ErrInvalidAddress
	}
	var addr uint64
	for _, b := range raw {
		addr = (addr << 8) | uint64(b)
	}
	return addr, nil
}

// TxAddressed sends payload to address as a TX request and awaits its
// TX-status. Returns:
//
//	 0  delivery success
//	-1  payload exceeds MaxFrameLength-9
//	-2  threshold of consecutive failures reached; disassociation forced
//	-3  non-success delivery status below threshold, or timeout
func (d *Driver) TxAddressed(address uint64, payload []byte) (int, error) {
	if d.closed.Load() {
		return -3, ErrClosed
	}
	if len(payload) > d.cfg.MaxFrameLength-9 {
		return -1, ErrOversizePayload
	}
	step := d.timeoutDuration()
	frame := makeTxFrame(addressBytes(address), payload)
	d.buf.Flush(frame.Type, frame.ID, step)
	if err := d.send(frame); err != nil {
		return -3, err
	}
	time.Sleep(txStatusPollInterval)
	resp, ok := awaitFrame(d.buf, FrameTypeTxStatus, frame.ID, 2*step, txStatusPollInterval, step)
	if !ok {
		return -3, ErrNoMatch
	}
	if len(resp.Data) > 0 && resp.Data[0] == 0x00 {
		d.assoc.onTxSuccess()
		return 0, nil
	}
	if d.assoc.onTxFailure() {
		d.forceDisassociate()
		d.assoc.resetFailedTransmits()
		return -2, nil
	}
	return -3, nil
}

// TxBroadcast sends payload to the broadcast address.
func (d *Driver) TxBroadcast(payload []byte) (int, error) {
	var addr uint64
	for i, b := range broadcastAddress64 {
		addr |= uint64(b) << ((7 - i) * 8)
	}
	return d.TxAddressed(addr, payload)
}

// RxPacket retrieves the oldest buffered receive frame (0x90), if any,
// splitting its 64-bit source address from the payload that begins at
// data[11]. Returns 0 if no receive frame is buffered.
func (d *Driver) RxPacket() (payload []byte, address uint64, n int) {
	frame, ok := d.buf.FindFrame(FrameTypeReceive, d.timeoutDuration())
	if !ok {
		return nil, 0, 0
	}
	for i := 0; i < 8 && i < len(frame.Data); i++ {
		address = (address << 8) | uint64(frame.Data[i])
	}
	if len(frame.Data) <= 11 {
		return nil, address, 0
	}
	payload = append([]byte(nil), frame.Data[11:]...)
	return payload, address, len(frame.Data) - 11
}

// forceDisassociate issues "AT DA" and, on an OK response, clears the
// association flag. Called once the consecutive-TX-failure threshold
// is reached.
func (d *Driver) forceDisassociate() {
	step := d.timeoutDuration()
	frame := makeATFrame([2]byte{'D', 'A'}, nil)
	d.buf.Flush(frame.Type, frame.ID, step)
	if err := d.send(frame); err != nil {
		return
	}
	resp, ok := awaitFrame(d.buf, FrameTypeATResponse, frame.ID, 2*step, responsePollInterval, step)
	if !ok {
		return
	}
	if len(resp.Data) >= 3 && resp.Data[0] == 'D' && resp.Data[1] == 'A' && resp.Data[2] == 0x00 {
		d.assoc.setAssociated(false)
	}
}

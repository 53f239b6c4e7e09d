package xbeeapi

import (
	"github.com/sirupsen/logrus"
)

// decoderState enumerates the partial-frame decoder's states as it
// walks the wire format byte by byte: start delimiter, two length
// bytes, frame type, an optional id byte, body, checksum.
type decoderState byte

const (
	stateIdle decoderState = iota
	stateLenHi
	stateLenLo
	stateType
	stateID
	stateBody
	stateComplete
)

// partialFrame is the decoder's staging area. While status ==
// stateComplete, byte arrival MUST be suspended — the decoder never
// writes to a partialFrame after signalling completion until the
// coordinator resets status to stateIdle. This is enforced
// structurally: the decoder detaches ByteSource before setting
// stateComplete, and only the coordinator re-attaches it.
type partialFrame struct {
	status  decoderState
	frame   Frame
	length  int // as currently known; computed ahead of len(frame.Data)
	rcvd    int
	lenByte byte // first length byte, staged across stateLenHi->stateLenLo
}

func (p *partialFrame) reset() {
	p.status = stateIdle
	p.frame = Frame{}
	p.length = 0
	p.rcvd = 0
	p.lenByte = 0
}

// decoder is the byte-at-a-time state machine driven exclusively by
// ByteSource arrival. It must be constant-work per byte and
// allocation-free on the hot path (the Data buffer is pre-sized once
// per frame). It never blocks and never takes a mutex — a UART
// receive interrupt that blocks or contends for a lock will back up
// the hardware FIFO and drop bytes.
type decoder struct {
	pf            partialFrame
	maxFrameLen   int
	source        ByteSource // detached before signalling completion; re-attached by the coordinator
	log           *logrus.Logger
	onComplete    func() // signals the coordinator; must not block
	onModemStatus func(statusByte byte)
}

func newDecoder(maxFrameLen int, source ByteSource, log *logrus.Logger, onComplete func(), onModemStatus func(byte)) *decoder {
	return &decoder{
		maxFrameLen:   maxFrameLen,
		source:        source,
		log:           log,
		onComplete:    onComplete,
		onModemStatus: onModemStatus,
	}
}

// feed advances the decoder by one byte. It is the sole entry point
// called from arrival context, one state transition per incoming
// byte.
func (d *decoder) feed(b byte) {
	pf := &d.pf
	switch pf.status {
	case stateIdle:
		if b == 0x7E {
			pf.status = stateLenHi
		}

	case stateLenHi:
		pf.lenByte = b
		pf.status = stateLenLo

	case stateLenLo:
		pf.length = (int(pf.lenByte)<<8 | int(b)) - 2
		pf.rcvd = 0
		pf.status = stateType

	case stateType:
		pf.frame.Type = b
		if idBearingFrameTypes[b] {
			pf.status = stateID
		} else {
			pf.frame.ID = NoFrameID
			pf.length++
			pf.frame.Data = make([]byte, 0, clampNonNegative(pf.length, d.maxFrameLen))
			pf.status = stateBody
		}

	case stateID:
		pf.frame.ID = b
		pf.frame.Data = make([]byte, 0, clampNonNegative(pf.length, d.maxFrameLen))
		pf.status = stateBody

	case stateBody:
		d.feedBody(b)

	case stateComplete:
		// No-op: arrival should be detached while status is Complete.
	}
}

func (d *decoder) feedBody(b byte) {
	pf := &d.pf
	if pf.length > d.maxFrameLen {
		if d.log != nil {
			d.log.WithField("length", pf.length).Debug("xbeeapi: oversize frame dropped")
		}
		pf.reset()
		return
	}
	if pf.rcvd < pf.length {
		pf.frame.Data = append(pf.frame.Data, b)
		pf.rcvd++
		return
	}

	// b is the checksum byte.
	sum := int(pf.frame.Type)
	if idBearingFrameTypes[pf.frame.Type] {
		sum += int(pf.frame.ID)
	}
	for _, db := range pf.frame.Data {
		sum += int(db)
	}
	sum &= 0xFF

	if (sum+int(b))&0xFF != 0xFF {
		if d.log != nil {
			d.log.WithFields(logrus.Fields{
				"type": pf.frame.Type,
				"calc": 0xFF - sum,
				"got":  b,
			}).Debug("xbeeapi: checksum mismatch, frame dropped")
		}
		pf.reset()
		return
	}

	if pf.frame.Type == FrameTypeModemStatus {
		var statusByte byte
		if len(pf.frame.Data) > 0 {
			statusByte = pf.frame.Data[0]
		}
		if d.onModemStatus != nil {
			d.onModemStatus(statusByte)
		}
		pf.reset()
		return
	}

	// Detach before publishing completion: the coordinator will read and
	// reset pf from its own goroutine, and arrival must not race that.
	// Only the coordinator re-attaches, once it has finished with pf.
	if d.source != nil {
		d.source.Detach()
	}
	pf.status = stateComplete
	if d.onComplete != nil {
		d.onComplete()
	}
}

func clampNonNegative(n, max int) int {
	if n < 0 {
		return 0
	}
	if n > max {
		return max
	}
	return n
}

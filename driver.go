package xbeeapi

import (
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Driver is the full-duplex frame engine: bytes flow from a ByteSource
// through the decoder into the frame buffer via the coordinator;
// application calls flow through the correlator to the encoder and a
// ByteSink. It is a single long-lived object — the coordinator
// goroutine and the attached decoder callback both close over a
// stable *Driver for the object's whole lifetime.
type Driver struct {
	cfg Config
	log *logrus.Logger

	source ByteSource
	sink   ByteSink

	buf   *FrameBuffer
	dec   *decoder
	enc   *encoder
	coord *coordinator
	assoc *associationState
	alert *alertSignal

	timeout            atomic.Int64 // time.Duration, nanoseconds
	maxFailedTransmits atomic.Int32

	nextFrameID atomic.Uint32 // fallback allocator, used only if a caller wants one

	closed atomic.Bool
}

// New constructs a Driver over source/sink without starting it. Call
// Open to attach the decoder to source and start the coordinator.
func New(source ByteSource, sink ByteSink, cfg Config) *Driver {
	cfg = cfg.clamp()
	log := newLogger(cfg)

	d := &Driver{
		cfg:    cfg,
		log:    log,
		source: source,
		sink:   sink,
		buf:    NewFrameBuffer(cfg.MaxIncomingFrames),
		alert:  newAlertSignal(),
	}
	d.assoc = newAssociationState(cfg.MaxFailedTransmits, log)
	d.timeout.Store(int64(cfg.Timeout))
	d.maxFailedTransmits.Store(int32(cfg.MaxFailedTransmits))
	d.enc = newEncoder(sink, log)
	d.dec = newDecoder(cfg.MaxFrameLength, source, log, nil, d.assoc.onModemStatus)
	d.coord = newCoordinator(d.buf, d.dec, source, log, cfg.Timeout, func(Frame) { d.alert.fire() })
	d.dec.onComplete = d.coord.notify

	return d
}

// Open starts the coordinator goroutine and attaches the decoder to
// the byte source, arming the receive path. It is idempotent only in
// the sense that calling it twice starts two coordinator goroutines;
// callers should call it exactly once.
func (d *Driver) Open() {
	go d.coord.run()
	d.source.Attach(d.dec.feed)
}

// Close stops the coordinator and detaches the byte source. After
// Close, Associated, GetAddress, LastRSSI, TxAddressed and TxBroadcast
// return ErrClosed; RxPacket has no error result and only reports what
// is still buffered.
func (d *Driver) Close() {
	if !d.closed.CompareAndSwap(false, true) {
		return
	}
	d.source.Detach()
	d.coord.stopAndWait()
}

func (d *Driver) timeoutDuration() time.Duration {
	return time.Duration(d.timeout.Load())
}

// SetTimeout configures the single-step deadline, clamped to
// [1ms, 5s). Composite operations (Associated, GetAddress,
// TxAddressed, ...) multiply this value internally.
func (d *Driver) SetTimeout(t time.Duration) {
	if t <= 0 {
		return
	}
	if t < minTimeout {
		t = minTimeout
	}
	if t >= maxTimeout {
		t = maxTimeout - time.Millisecond
	}
	d.timeout.Store(int64(t))
}

// SetMaxFailedTransmits configures the consecutive-failure threshold,
// clamped to [1,19].
func (d *Driver) SetMaxFailedTransmits(n int) {
	d.maxFailedTransmits.Store(int32(clampMaxFailedTransmits(n)))
	d.assoc.setMaxFailedTransmits(n)
}

// RegisterAlert installs ch to receive a non-blocking notification
// whenever a new frame is published to the buffer. Pass nil to clear.
func (d *Driver) RegisterAlert(ch chan struct{}) {
	d.alert.Register(ch)
}

// Readable reports whether the frame buffer currently holds any frame.
func (d *Driver) Readable() bool {
	return d.buf.IsNonEmpty(d.timeoutDuration())
}

// GetOldestFrame pops the oldest buffered frame, if any.
func (d *Driver) GetOldestFrame() (Frame, bool) {
	return d.buf.PopOldest(d.timeoutDuration())
}

// send serializes and transmits frame within the single-step timeout.
func (d *Driver) send(frame Frame) error {
	if d.closed.Load() {
		return ErrClosed
	}
	return d.enc.send(frame, d.timeoutDuration())
}

// makeATFrame builds a local AT-command frame. The frame-ID is a
// deterministic function of the command bytes: (cmd[0]+cmd[1]) mod
// 256. This makes flush-before-send safe without an id allocator,
// since re-issuing the same command always targets the same id.
func makeATFrame(cmd [2]byte, param []byte) Frame {
	data := make([]byte, 0, 2+len(param))
	data = append(data, cmd[0], cmd[1])
	data = append(data, param...)
	return Frame{
		Type: FrameTypeATCommand,
		ID:   byte((int(cmd[0]) + int(cmd[1])) % 256),
		Data: data,
	}
}

// makeTxFrame builds a TX-request frame addressed to a 64-bit address,
// with a single options byte (0x00, no options) ahead of payload. The
// frame-ID is (sum of payload bytes) mod 256.
func makeTxFrame(address [8]byte, payload []byte) Frame {
	id := 0
	for _, b := range payload {
		id = (id + int(b)) % 256
	}
	data := make([]byte, 0, 9+len(payload))
	data = append(data, address[:]...)
	data = append(data, 0x00) // options
	data = append(data, payload...)
	return Frame{
		Type: FrameTypeTxRequest,
		ID:   byte(id),
		Data: data,
	}
}

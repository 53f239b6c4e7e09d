// Package serialport adapts a physical serial port to the xbeeapi
// ByteSource/ByteSink contract, using go.bug.st/serial for the OS-level
// transport.
package serialport

import (
	"sync"

	"go.bug.st/serial"
)

// Port reads a physical serial port one byte at a time on a dedicated
// goroutine and dispatches each byte to the attached callback, and
// writes single bytes out the same port under a mutex.
type Port struct {
	port serial.Port

	attachMu sync.Mutex
	fn       func(byte)

	readLoopDone chan struct{}
	closeOnce    sync.Once
	closeErr     error
}

// Open opens name (e.g. "/dev/ttyUSB0", "COM3") at baud 8N1 and starts
// the read loop. The returned Port's byte arrival runs on an ordinary
// goroutine, not a true interrupt, but is attached/detached under the
// same mutex discipline the decoder requires.
func Open(name string, baud int) (*Port, error) {
	sp, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, err
	}
	p := &Port{
		port:         sp,
		readLoopDone: make(chan struct{}),
	}
	go p.readLoop()
	return p, nil
}

func (p *Port) readLoop() {
	defer close(p.readLoopDone)
	buf := make([]byte, 1)
	for {
		n, err := p.port.Read(buf)
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}
		p.attachMu.Lock()
		fn := p.fn
		p.attachMu.Unlock()
		if fn != nil {
			fn(buf[0])
		}
	}
}

// Attach implements xbeeapi.ByteSource.
func (p *Port) Attach(fn func(b byte)) {
	p.attachMu.Lock()
	defer p.attachMu.Unlock()
	p.fn = fn
}

// Detach implements xbeeapi.ByteSource.
func (p *Port) Detach() {
	p.attachMu.Lock()
	defer p.attachMu.Unlock()
	p.fn = nil
}

// Writable implements xbeeapi.ByteSink. go.bug.st/serial writes block
// on the OS, so Writable always reports true; backpressure is handled
// by the write itself blocking within the encoder's budget timer.
func (p *Port) Writable() bool {
	return true
}

// WriteByte implements xbeeapi.ByteSink.
func (p *Port) WriteByte(b byte) error {
	_, err := p.port.Write([]byte{b})
	return err
}

// Close stops the read loop and closes the underlying port. Safe to
// call more than once.
func (p *Port) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.port.Close()
		<-p.readLoopDone
	})
	return p.closeErr
}

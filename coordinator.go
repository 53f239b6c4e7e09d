package xbeeapi

import (
	"time"

	"github.com/sirupsen/logrus"
)

// coordinator bridges the decoder's arrival-context completion signal
// and the buffer's mutex, which may not be acquired from arrival
// context without risking lock contention backing up the receive
// path. It runs on a dedicated goroutine for the driver's lifetime.
type coordinator struct {
	buf       *FrameBuffer
	dec       *decoder
	source    ByteSource
	log       *logrus.Logger
	timeout   time.Duration
	signal    chan struct{}
	stop      chan struct{}
	done      chan struct{}
	onPushed  func(Frame)
}

func newCoordinator(buf *FrameBuffer, dec *decoder, source ByteSource, log *logrus.Logger, timeout time.Duration, onPushed func(Frame)) *coordinator {
	return &coordinator{
		buf:      buf,
		dec:      dec,
		source:   source,
		log:      log,
		timeout:  timeout,
		signal:   make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		onPushed: onPushed,
	}
}

// notify is called from arrival context (via decoder.onComplete). It
// must never block: the channel is buffered 1, and since byte arrival
// stays detached until the coordinator resets the staging frame, at
// most one notification is ever pending.
func (c *coordinator) notify() {
	select {
	case c.signal <- struct{}{}:
	default:
	}
}

// run is the coordinator's main loop: wait for completion, publish the
// staging frame under the buffer mutex with a 5x-timeout deadline,
// fire the alert, reset the staging frame, and re-arm byte arrival.
func (c *coordinator) run() {
	defer close(c.done)
	for {
		select {
		case <-c.stop:
			return
		case <-c.signal:
			c.handOff()
		}
	}
}

func (c *coordinator) handOff() {
	frame := c.dec.pf.frame.clone()
	if !c.buf.Push(frame, 5*c.timeout) {
		if c.log != nil {
			c.log.Debug("xbeeapi: coordinator could not acquire buffer mutex, frame dropped")
		}
	} else if c.onPushed != nil {
		c.onPushed(frame)
	}
	c.dec.pf.reset()
	c.source.Attach(c.dec.feed)
}

func (c *coordinator) stopAndWait() {
	close(c.stop)
	<-c.done
}

package xbeeapi

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// associationState tracks join/liveness. isAssociated and
// failedTransmits are written from multiple contexts (the decoder, on
// modem-status; the correlator, on TX-status and AT AI/DA responses)
// so they are held as atomics rather than behind a lock — reads are
// advisory and self-healing regardless of staleness, so a lock would
// only add contention without adding correctness.
type associationState struct {
	isAssociated       atomic.Bool
	failedTransmits    atomic.Int32
	maxFailedTransmits atomic.Int32
	log                *logrus.Logger
}

func newAssociationState(maxFailedTransmits int, log *logrus.Logger) *associationState {
	a := &associationState{log: log}
	a.maxFailedTransmits.Store(int32(clampMaxFailedTransmits(maxFailedTransmits)))
	return a
}

func clampMaxFailedTransmits(n int) int {
	if n < minMaxFailedTransmits {
		return minMaxFailedTransmits
	}
	if n > maxMaxFailedTransmits {
		return maxMaxFailedTransmits
	}
	return n
}

// onModemStatus applies the inline interpretation the decoder performs
// for a 0x8A frame: data[0] in {0x02,0x06} means joined; anything else
// means not associated.
func (a *associationState) onModemStatus(statusByte byte) {
	switch statusByte {
	case 0x02, 0x06:
		a.setAssociated(true)
		a.failedTransmits.Store(0)
	default:
		a.setAssociated(false)
	}
}

func (a *associationState) setAssociated(v bool) {
	prev := a.isAssociated.Swap(v)
	if prev != v && a.log != nil {
		a.log.WithField("associated", v).Info("xbeeapi: association state changed")
	}
}

// Associated reports the cached association flag without blocking.
func (a *associationState) Associated() bool {
	return a.isAssociated.Load()
}

// onTxSuccess resets the failure counter on a successful delivery
// status (data[0] == 0x00).
func (a *associationState) onTxSuccess() {
	a.failedTransmits.Store(0)
}

// onTxFailure increments the failure counter and reports whether the
// threshold was just reached (caller must then force disassociation
// and reset the counter).
func (a *associationState) onTxFailure() (thresholdReached bool) {
	n := a.failedTransmits.Add(1)
	return n >= a.maxFailedTransmits.Load()
}

func (a *associationState) resetFailedTransmits() {
	a.failedTransmits.Store(0)
}

func (a *associationState) FailedTransmits() int {
	return int(a.failedTransmits.Load())
}

func (a *associationState) setMaxFailedTransmits(n int) {
	a.maxFailedTransmits.Store(int32(clampMaxFailedTransmits(n)))
}

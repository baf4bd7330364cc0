package dragon

import (
	"github.com/dragon-exp/unpacker_go/pkg/calib"
)

// Coinc is a head event and a tail event matched in time.
type Coinc struct {
	Head *Head
	Tail *Tail
	// Head minus tail trigger time
	XTOF float64
}

func NewCoinc() *Coinc {
	c := &Coinc{}
	c.Reset()
	return c
}

func (c *Coinc) Reset() {
	c.Head = nil
	c.Tail = nil
	c.XTOF = NoData
}

// Merge builds the coincidence from already calculated head and tail events.
// Both sides must carry their identifying module.
func (c *Coinc) Merge(head *Head, tail *Tail) error {
	switch {
	case head == nil || !head.Present():
		return c.missing(head, tail, "head")
	case tail == nil || !tail.Present():
		return c.missing(head, tail, "tail")
	}
	c.Head = head
	c.Tail = tail
	c.XTOF = calib.TOF(head.TriggerTime, tail.TriggerTime)
	return nil
}

func (c *Coinc) missing(head *Head, tail *Tail, subsystem string) error {
	err := &CoincidenceError{Subsystem: subsystem, Err: ErrMissingSubsystem}
	if head != nil {
		err.HeadSerial = head.Serial
	}
	if tail != nil {
		err.TailSerial = tail.Serial
	}
	return err
}

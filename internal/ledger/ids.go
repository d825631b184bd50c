package ledger

import "time"

// Clock returns the current time. Tests pin it.
type Clock func() time.Time

// IDAllocator issues expense ids derived from the clock in milliseconds,
// bumped past the last issued id so that two expenses created in the same
// millisecond, or after the clock stepped back, never collide.
type IDAllocator struct {
	clock Clock
	last  int64
}

func NewIDAllocator(clock Clock) *IDAllocator {
	if clock == nil {
		clock = time.Now
	}
	return &IDAllocator{clock: clock}
}

// Next returns a fresh id, strictly greater than any id issued or observed.
func (a *IDAllocator) Next() int64 {
	id := a.clock().UnixMilli()
	if id <= a.last {
		id = a.last + 1
	}
	a.last = id
	return id
}

// Observe records an id that already exists so Next never reissues it.
func (a *IDAllocator) Observe(id int64) {
	if id > a.last {
		a.last = id
	}
}

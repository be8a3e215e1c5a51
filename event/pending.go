// SPDX-License-Identifier: EPL-2.0

package event

// PendingCapacity is the number of future events a Pending can hold.
const PendingCapacity = 256

// Pending holds events whose Timing lies beyond the current tick.
//
// Events are kept sorted by Timing, ties in arrival order. Each Advance
// delivers the ones that fall inside the tick and shifts the rest closer.
// Storage is a fixed array; an Add that does not fit is dropped and counted.
type Pending struct {
	buf     [PendingCapacity]Event
	n       int
	dropped uint64
}

// Len returns the number of held events.
func (p *Pending) Len() int { return p.n }

// Dropped returns how many events were refused for lack of room.
func (p *Pending) Dropped() uint64 { return p.dropped }

// Add inserts e in timing order.
func (p *Pending) Add(e Event) bool {
	if p.n == len(p.buf) {
		p.dropped++
		return false
	}

	i := p.n
	for i > 0 && p.buf[i-1].Timing > e.Timing {
		p.buf[i] = p.buf[i-1]
		i--
	}
	p.buf[i] = e
	p.n++

	return true
}

// Advance hands every event with Timing < frames to h, in timing order,
// then subtracts frames from the timing of the rest.
func (p *Pending) Advance(frames uint32, h Handler) {
	due := 0
	for due < p.n && p.buf[due].Timing < frames {
		h.Handle(p.buf[due])
		due++
	}

	copy(p.buf[:], p.buf[due:p.n])
	p.n -= due

	for i := range p.n {
		p.buf[i].Timing -= frames
	}
}

// Reset drops every held event.
func (p *Pending) Reset() { p.n = 0 }

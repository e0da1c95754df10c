// Package fifo implements the elastic buffer that carries fetched
// framebuffer words from the memory domain to the pixel domain. the write
// side (Push, reset handshake, Tick) is clocked by the memory domain; the
// read side (Pop) by the pixel domain.
package fifo

import (
	"fmt"
)

// Word is one 16-byte beat of the memory bus
type Word [16]uint8

// Capacity covers the largest rounded line pitch: the pitch register is 13
// bits so a line is at most 8192 bytes, or 512 words
const Capacity = 512

// the number of memory-domain ticks the buffer takes to act on a change of
// the reset request line. the delays exist to exercise the controller's
// interlock; real hardware needs them to drain the read side safely
const (
	resetAssertDelay = 2
	resetClearDelay  = 2
)

type Buffer struct {
	entries [Capacity]Word
	head    int
	tail    int
	used    int

	// reset request line, driven by the memory controller
	resetRequest bool

	// the two status bits observed by the memory controller. inReset is true
	// from the point the buffer has acted on an asserted request; clearing is
	// true while the buffer is leaving reset after the request is released
	inReset  bool
	clearing bool

	// ticks remaining in the current handshake phase
	delay int
}

func Create() *Buffer {
	return &Buffer{}
}

// SetReset drives the reset request line
func (b *Buffer) SetReset(request bool) {
	if request != b.resetRequest {
		b.resetRequest = request
		b.delay = 0
	}
}

// InReset is the "busy asserting" status bit: the buffer has entered reset
// and is holding its contents cleared
func (b *Buffer) InReset() bool {
	return b.inReset
}

// Clearing is the "busy clearing" status bit: the buffer is leaving reset but
// is not yet safe to use
func (b *Buffer) Clearing() bool {
	return b.clearing
}

// Idle reports that the buffer is out of reset entirely
func (b *Buffer) Idle() bool {
	return !b.inReset && !b.clearing
}

// Tick advances the reset handshake. called once per memory-domain tick
func (b *Buffer) Tick() {
	if b.resetRequest && !b.inReset {
		b.delay++
		if b.delay >= resetAssertDelay {
			b.inReset = true
			b.clearing = false
			b.head = 0
			b.tail = 0
			b.used = 0
			b.delay = 0
		}
	} else if !b.resetRequest && b.inReset {
		b.clearing = true
		b.delay++
		if b.delay >= resetClearDelay {
			b.inReset = false
			b.clearing = false
			b.delay = 0
		}
	}
}

// Push appends a word on the memory-domain side. returns false if the word
// cannot be accepted, either because the buffer is full or because it is in
// reset; the producer should retry on a later tick
func (b *Buffer) Push(w Word) bool {
	if !b.Idle() || b.used >= Capacity {
		return false
	}
	b.entries[b.tail] = w
	b.tail = (b.tail + 1) % Capacity
	b.used++
	return true
}

// Pop removes the oldest word on the pixel-domain side. returns false if the
// buffer is empty or mid-reset
func (b *Buffer) Pop() (Word, bool) {
	if !b.Idle() || b.used == 0 {
		return Word{}, false
	}
	w := b.entries[b.head]
	b.head = (b.head + 1) % Capacity
	b.used--
	return w, true
}

// Len returns the number of buffered words
func (b *Buffer) Len() int {
	return b.used
}

func (b *Buffer) Label() string {
	return "FIFO"
}

func (b *Buffer) Status() string {
	var state string
	switch {
	case b.inReset:
		state = "in reset"
	case b.clearing:
		state = "clearing"
	default:
		state = "idle"
	}
	return fmt.Sprintf("%s: %s, %d of %d words used, reset request=%v",
		b.Label(), state, b.used, Capacity, b.resetRequest)
}

// Package dram models the framebuffer memory and its burst-read bus. the
// memory controller asserts a burst request and holds it until the bus
// grants; the grant is a one-tick wire. after granting, the memory streams
// one 16-byte beat per memory tick into the elastic buffer.
package dram

import (
	"fmt"
	"strings"

	"github.com/jetsetilly/testvga/hardware/fifo"
)

// BeatSize is the fixed width of one bus beat in bytes
const BeatSize = 16

// MaxBeats is the longest burst the bus accepts
const MaxBeats = 256

// bursts must not cross an address alignment boundary of this size
const PageSize = 4096

// Size of the framebuffer memory
const Size = 512 * 1024

// the number of memory ticks between a request being asserted and the bus
// granting it
const grantLatency = 3

// Burst is one aligned read command. Length uses the zero-based encoding of
// the bus: a Length of 0 means one beat
type Burst struct {
	Addr   uint32
	Length uint32
	ID     uint8
}

// Beats returns the one-based beat count of the burst
func (b Burst) Beats() uint32 {
	return b.Length + 1
}

func (b Burst) String() string {
	return fmt.Sprintf("id=%d addr=%#08x beats=%d", b.ID, b.Addr, b.Beats())
}

type DRAM struct {
	data []uint8

	// the request wire and the grant countdown. request is nil when the wire
	// is deasserted
	request *Burst
	grantCt int

	// grant is a one-tick wire sampled by the controller through Grant()
	grant bool

	// the burst currently being streamed into the elastic buffer
	active      Burst
	beatsLeft   uint32
	streamAddr  uint32
	streaming   bool
	stallStatus bool

	buf *fifo.Buffer

	// the most recently completed bursts, oldest first. for debugging
	Recent []Burst
}

func Create(buf *fifo.Buffer) *DRAM {
	return &DRAM{
		data: make([]uint8, Size),
		buf:  buf,
	}
}

// Reset returns the bus to its idle state. the contents of memory are not
// touched
func (d *DRAM) Reset() {
	d.request = nil
	d.grantCt = 0
	d.grant = false
	d.streaming = false
	d.stallStatus = false
	d.Recent = d.Recent[:0]
}

// Request asserts the burst request wire. the bus contract requires the
// burst to fit the beat limit and to not cross a page boundary; a violation
// is an error for the caller to treat as fatal
func (d *DRAM) Request(b Burst) error {
	if b.Beats() > MaxBeats {
		return fmt.Errorf("dram: burst of %d beats exceeds the bus limit of %d", b.Beats(), MaxBeats)
	}

	last := b.Addr + b.Beats()*BeatSize - 1
	if b.Addr/PageSize != last/PageSize {
		return fmt.Errorf("dram: burst %s crosses a %d-byte boundary", b.String(), PageSize)
	}

	if d.request != nil {
		return fmt.Errorf("dram: burst requested while a request is outstanding")
	}

	d.request = &b
	d.grantCt = grantLatency
	return nil
}

// Grant samples the grant wire. the wire is asserted for exactly one memory
// tick when a request is accepted
func (d *DRAM) Grant() bool {
	return d.grant
}

// Tick advances the bus and any active beat streaming by one memory tick
func (d *DRAM) Tick() {
	d.grant = false

	// grant the outstanding request once the latency has passed and any
	// previous burst has finished streaming
	if d.request != nil && !d.streaming {
		d.grantCt--
		if d.grantCt <= 0 {
			d.grant = true
			d.active = *d.request
			d.beatsLeft = d.active.Beats()
			d.streamAddr = d.active.Addr
			d.streaming = true
			d.request = nil
		}
	}

	if d.streaming {
		var w fifo.Word
		for i := range BeatSize {
			w[i] = d.data[(d.streamAddr+uint32(i))%Size]
		}

		// if the elastic buffer cannot accept the beat, hold it and retry on
		// the next tick
		if !d.buf.Push(w) {
			d.stallStatus = true
			return
		}
		d.stallStatus = false

		d.streamAddr += BeatSize
		d.beatsLeft--
		if d.beatsLeft == 0 {
			d.streaming = false
			d.Recent = append(d.Recent, d.active)
			if len(d.Recent) > 16 {
				d.Recent = d.Recent[1:]
			}
		}
	}
}

// Busy reports whether the bus has an outstanding request or is streaming
func (d *DRAM) Busy() bool {
	return d.request != nil || d.streaming
}

// Poke writes a byte of framebuffer memory directly. a host/debugging
// convenience, not part of the bus
func (d *DRAM) Poke(addr uint32, data uint8) {
	d.data[addr%Size] = data
}

// Peek reads a byte of framebuffer memory directly
func (d *DRAM) Peek(addr uint32) uint8 {
	return d.data[addr%Size]
}

func (d *DRAM) Label() string {
	return "DRAM"
}

func (d *DRAM) Status() string {
	var s strings.Builder
	s.WriteString(fmt.Sprintf("%s: %dKiB", d.Label(), Size/1024))
	if d.streaming {
		s.WriteString(fmt.Sprintf("\nstreaming %s (%d beats left", d.active.String(), d.beatsLeft))
		if d.stallStatus {
			s.WriteString(", stalled")
		}
		s.WriteString(")")
	}
	if d.request != nil {
		s.WriteString(fmt.Sprintf("\npending %s", d.request.String()))
	}
	for _, b := range d.Recent {
		s.WriteString(fmt.Sprintf("\nrecent %s", b.String()))
	}
	return s.String()
}

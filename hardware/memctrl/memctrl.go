// Package memctrl implements the memory-domain controller that turns a
// logical fetch request from the timing generator into one or two aligned
// burst reads. a request that would cross a 4096-byte page boundary is split
// at the boundary. before any burst is issued the elastic buffer is taken
// through its reset handshake so the new scanline never mixes with stale
// words.
package memctrl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jetsetilly/testvga/hardware/crossclock"
	"github.com/jetsetilly/testvga/hardware/dram"
	"github.com/jetsetilly/testvga/hardware/fifo"
)

// Context allows the controller to signal a fatal condition. the conditions
// raised by this package indicate a broken host configuration or a bus
// contract breach; there is no recovery beyond a reset
type Context interface {
	Break(error)
}

// the wrapping error for any errors passed to Context.Break()
var ContextError = errors.New("memctrl")

// Requester is the producer side of the fetch handshake, implemented by the
// timing generator. RequestFlag returns the current state of the request
// toggle; Request returns the payload, which the producer guarantees stable
// from the moment the toggle flips until the next request
type Requester interface {
	RequestFlag() bool
	Request() (addr uint32, words uint32)
}

// Bus is the burst-read interface of the memory system
type Bus interface {
	Request(dram.Burst) error
	Grant() bool
}

type state int

const (
	stateIdle state = iota
	stateAwaitResetAssert
	stateAwaitResetClear
	stateAwaitGrant
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "IDLE"
	case stateAwaitResetAssert:
		return "AWAIT BUFFER RESET"
	case stateAwaitResetClear:
		return "AWAIT BUFFER READY"
	case stateAwaitGrant:
		return "AWAIT GRANT"
	}
	return "UNKNOWN"
}

type Controller struct {
	ctx Context
	src Requester
	buf *fifo.Buffer
	bus Bus

	sync crossclock.Sync

	// a request edge recognised while the state machine is busy is held here
	// until the machine returns to idle
	pending      bool
	pendingAddr  uint32
	pendingWords uint32

	// the captured fetch request being serviced
	addr  uint32
	words uint32

	// derived while waiting for the buffer to enter reset
	lastByte     uint32
	boundaryDist uint32

	// the second half of a split burst, issued after the first is granted
	remainder *dram.Burst

	id    uint8
	state state
}

func Create(ctx Context, src Requester, buf *fifo.Buffer, bus Bus) *Controller {
	c := &Controller{
		ctx: ctx,
		src: src,
		buf: buf,
		bus: bus,
	}
	c.Reset()
	return c
}

func (c *Controller) Reset() {
	c.sync.Reset(c.src.RequestFlag())
	c.pending = false
	c.remainder = nil
	c.state = stateIdle
	c.buf.SetReset(false)
}

// Tick advances the state machine by one memory-domain tick
func (c *Controller) Tick() {
	grant := c.bus.Grant()
	if grant && c.state != stateAwaitGrant {
		c.ctx.Break(fmt.Errorf("%w: bus granted a burst with no request outstanding", ContextError))
		return
	}

	// the synchroniser shifts on every tick regardless of state. the payload
	// is sampled on the cycle the edge is recognised, relying on the producer
	// keeping it stable since the toggle flipped
	if c.sync.Tick(c.src.RequestFlag()) {
		if c.pending {
			c.ctx.Break(fmt.Errorf("%w: fetch request raised before the previous request was consumed", ContextError))
			return
		}
		c.pendingAddr, c.pendingWords = c.src.Request()
		c.pending = true
	}

	switch c.state {
	case stateIdle:
		if c.pending {
			c.pending = false
			c.addr = c.pendingAddr
			c.words = c.pendingWords
			c.buf.SetReset(true)
			c.state = stateAwaitResetAssert
		}

	case stateAwaitResetAssert:
		// the boundary arithmetic is worked out while the buffer is still
		// acknowledging the reset
		c.lastByte = c.addr + c.words*dram.BeatSize - 1
		c.boundaryDist = dram.PageSize - c.addr%dram.PageSize

		if c.buf.InReset() {
			c.buf.SetReset(false)
			c.state = stateAwaitResetClear
		}

	case stateAwaitResetClear:
		if c.buf.Idle() {
			c.issue()
		}

	case stateAwaitGrant:
		if grant {
			if c.remainder != nil {
				r := *c.remainder
				c.remainder = nil
				if err := c.bus.Request(r); err != nil {
					c.ctx.Break(fmt.Errorf("%w: %w", ContextError, err))
					c.state = stateIdle
					return
				}
				// stay in AWAIT GRANT for the second half of the split
			} else {
				c.state = stateIdle
			}
		}
	}
}

// issue decides whether the captured request crosses a page boundary and
// places the first (or only) burst on the bus
func (c *Controller) issue() {
	if c.words == 0 {
		// nothing to fetch. a zero pitch produces this; it is legal, if
		// pointless
		c.state = stateIdle
		return
	}

	crosses := c.addr/dram.PageSize != c.lastByte/dram.PageSize

	if !crosses {
		if c.words > dram.MaxBeats {
			c.ctx.Break(fmt.Errorf("%w: burst of %d beats exceeds the bus limit of %d",
				ContextError, c.words, dram.MaxBeats))
			c.state = stateIdle
			return
		}

		b := dram.Burst{Addr: c.addr, Length: c.words - 1, ID: c.id}
		c.id++
		if err := c.bus.Request(b); err != nil {
			c.ctx.Break(fmt.Errorf("%w: %w", ContextError, err))
			c.state = stateIdle
			return
		}
		c.remainder = nil
		c.state = stateAwaitGrant
		return
	}

	// the distance to the boundary must divide cleanly into beats. if it does
	// not then the pitch or base address configuration is broken and there is
	// nothing sensible the controller can do
	if c.boundaryDist%dram.BeatSize != 0 {
		c.ctx.Break(fmt.Errorf("%w: %d bytes to the page boundary is not a multiple of the beat size",
			ContextError, c.boundaryDist))
		c.state = stateIdle
		return
	}

	first := dram.Burst{Addr: c.addr, Length: c.boundaryDist/dram.BeatSize - 1, ID: c.id}
	c.id++

	leftover := c.words*dram.BeatSize - c.boundaryDist
	rem := dram.Burst{Addr: c.addr + c.boundaryDist, Length: leftover/dram.BeatSize - 1, ID: c.id}
	c.id++

	if first.Beats() > dram.MaxBeats || rem.Beats() > dram.MaxBeats {
		c.ctx.Break(fmt.Errorf("%w: split burst of %d+%d beats exceeds the bus limit of %d",
			ContextError, first.Beats(), rem.Beats(), dram.MaxBeats))
		c.state = stateIdle
		return
	}

	if err := c.bus.Request(first); err != nil {
		c.ctx.Break(fmt.Errorf("%w: %w", ContextError, err))
		c.state = stateIdle
		return
	}
	c.remainder = &rem
	c.state = stateAwaitGrant
}

func (c *Controller) Label() string {
	return "MEMCTRL"
}

func (c *Controller) Status() string {
	var s strings.Builder
	s.WriteString(fmt.Sprintf("%s: %s", c.Label(), c.state.String()))
	if c.state != stateIdle {
		s.WriteString(fmt.Sprintf("\nrequest: addr=%#08x words=%d", c.addr, c.words))
		s.WriteString(fmt.Sprintf("\nlast byte=%#08x boundary in %d bytes", c.lastByte, c.boundaryDist))
	}
	if c.remainder != nil {
		s.WriteString(fmt.Sprintf("\nremainder: %s", c.remainder.String()))
	}
	return s.String()
}

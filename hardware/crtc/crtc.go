// Package crtc implements the pixel-domain timing generator. a free-running
// counter pair produces the horizontal/vertical position from which the
// blanking and sync outputs are derived, and once per active scanline a fetch
// request is raised towards the memory controller.
//
// the generator runs from its active parameter copy. the host writes to the
// shadow copy in the register file and flips the load-mode toggle; the
// generator recognises the synchronised edge and swaps the whole parameter
// set in a single tick.
package crtc

import (
	"fmt"
	"strings"

	"github.com/jetsetilly/testvga/hardware/crossclock"
	"github.com/jetsetilly/testvga/hardware/regs"
	"github.com/jetsetilly/testvga/hardware/spec"
)

// Context is how the timing generator finds its power-on timing
type Context interface {
	Spec() spec.Spec
}

// fetch requests are measured in 16-byte words
const wordSize = 16

// Signals is the output of the timing generator for a single pixel tick
type Signals struct {
	HBlank bool
	VBlank bool
	HSync  bool
	VSync  bool

	// Display is true when both blanking signals are deasserted. X and Y are
	// the zero-based display coordinates and are only meaningful when
	// Display is true
	Display bool
	X       int
	Y       int

	// counter wrap events
	NewLine  bool
	NewFrame bool
}

type CRTC struct {
	ctx  Context
	bank *regs.Bank

	// the active parameter copy and the rounded pitch derived from it. the
	// copy only ever changes wholesale, on a recognised load-mode edge
	active regs.Params
	pitch  uint32

	hcount uint32
	vcount uint32
	frame  int

	loadSync crossclock.Sync

	// the fetch request handshake. the payload is written before the toggle
	// flips and is not touched again until the next request, one scanline
	// later at the earliest
	fetchFlag  crossclock.Flag
	fetchAddr  uint32
	fetchWords uint32
}

func Create(ctx Context, bank *regs.Bank) *CRTC {
	c := &CRTC{
		ctx:  ctx,
		bank: bank,
	}
	c.Reset()
	return c
}

// Reset loads the power-on timing into the active parameter set and places
// both counters at their wrap-pending sentinel, so the first tick of the
// generator starts a fresh frame at (0,0)
func (c *CRTC) Reset() {
	c.active = regs.FromSpec(c.ctx.Spec())
	c.pitch = c.active.RoundedPitch()
	c.hcount = c.active.HTotal
	c.vcount = c.active.VTotal
	c.frame = 0
	c.loadSync.Reset(c.bank.LoadFlag().Peek())
	c.fetchAddr = 0
	c.fetchWords = 0
}

// commit copies the shadow parameters into the active set. all fields swap
// on the same tick; no partial update is ever observable
func (c *CRTC) commit() {
	c.active = c.bank.Shadow()
	c.pitch = c.active.RoundedPitch()
}

// Tick advances the timing generator by one pixel-clock tick
func (c *CRTC) Tick() Signals {
	var sig Signals

	if c.hcount >= c.active.HTotal {
		c.hcount = 0
		sig.NewLine = true
		if c.vcount >= c.active.VTotal {
			c.vcount = 0
			c.frame++
			sig.NewFrame = true
		} else {
			c.vcount++
		}
	} else {
		c.hcount++
	}

	// the display window is the interval (start, start+width]. the bounds are
	// deliberately asymmetric; they must match the fetch and scanout timing
	sig.HBlank = !(c.hcount > c.active.HStart && c.hcount <= c.active.HStart+c.active.HWidth)
	sig.VBlank = !(c.vcount > c.active.VStart && c.vcount <= c.active.VStart+c.active.VWidth)
	sig.Display = !sig.HBlank && !sig.VBlank
	if sig.Display {
		sig.X = int(c.hcount - c.active.HStart - 1)
		sig.Y = int(c.vcount - c.active.VStart - 1)
	}

	// sync engages for the last sync-width positions before the counter
	// wraps. the polarity bit selects active-high or active-low output
	hEnable := c.hcount > c.active.HTotal-c.active.HSyncWidth
	vEnable := c.vcount > c.active.VTotal-c.active.VSyncWidth
	sig.HSync = (c.active.Polarity&spec.HSyncActiveHigh != 0) != !hEnable
	sig.VSync = (c.active.Polarity&spec.VSyncActiveHigh != 0) != !vEnable

	// the fetch request for display line k is raised during the scanline
	// before k is displayed, at the position immediately after the last
	// active pixel. the toggle flips rather than pulses so the memory domain
	// cannot miss it
	if c.hcount == c.active.HStart+c.active.HWidth+1 &&
		c.vcount >= c.active.VStart && c.vcount < c.active.VStart+c.active.VWidth {
		c.fetchAddr = c.active.Base + (c.vcount-c.active.VStart)*c.pitch
		c.fetchWords = c.pitch / wordSize
		c.fetchFlag.Flip()
	}

	// reload the active parameters on an edge of the synchronised load-mode
	// toggle
	if c.loadSync.Tick(c.bank.LoadFlag().Peek()) {
		c.commit()
	}

	return sig
}

// RequestFlag implements the memory controller's Requester interface
func (c *CRTC) RequestFlag() bool {
	return c.fetchFlag.Peek()
}

// Request implements the memory controller's Requester interface
func (c *CRTC) Request() (uint32, uint32) {
	return c.fetchAddr, c.fetchWords
}

// Active returns a copy of the active parameter set
func (c *CRTC) Active() regs.Params {
	return c.active
}

// Pitch returns the active rounded pitch in bytes
func (c *CRTC) Pitch() uint32 {
	return c.pitch
}

// Coords returns the current position of the timing counters
func (c *CRTC) Coords() Coords {
	return Coords{
		Frame:    c.frame,
		Scanline: int(c.vcount),
		Clk:      int(c.hcount),
	}
}

func (c *CRTC) Label() string {
	return "CRTC"
}

func (c *CRTC) Status() string {
	var s strings.Builder
	s.WriteString(fmt.Sprintf("%s: %s\n", c.Label(), c.Coords().String()))
	s.WriteString(fmt.Sprintf("horiz: start=%d width=%d sync=%d total=%d\n",
		c.active.HStart, c.active.HWidth, c.active.HSyncWidth, c.active.HTotal))
	s.WriteString(fmt.Sprintf("vert: start=%d width=%d sync=%d total=%d\n",
		c.active.VStart, c.active.VWidth, c.active.VSyncWidth, c.active.VTotal))
	s.WriteString(fmt.Sprintf("polarity=%#02b base=%#08x pitch=%d\n",
		c.active.Polarity, c.active.Base, c.pitch))
	s.WriteString(fmt.Sprintf("last fetch: addr=%#08x words=%d", c.fetchAddr, c.fetchWords))
	return s.String()
}

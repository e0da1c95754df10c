// Package regs implements the host-facing register file of the display
// controller. the register file holds the shadow copy of the timing
// parameters; the active copy that drives the timing generator lives in the
// crtc package and is only ever updated from the shadow copy in response to
// an edge on the load-mode toggle.
package regs

import (
	"fmt"
	"strings"

	"github.com/jetsetilly/testvga/hardware/crossclock"
	"github.com/jetsetilly/testvga/hardware/spec"
)

// register offsets in the configuration bus address space. registers are
// 32-bit and word aligned. all registers support byte-enabled partial writes
const (
	HorizDisplay = 0x000 // display start [15:0], display width [31:16]
	HorizTiming  = 0x004 // sync width [15:0], total width [31:16]
	VertDisplay  = 0x008
	VertTiming   = 0x00c
	Control      = 0x010 // polarity [1:0], pixel format [7:4]
	BaseAddress  = 0x100
	Pitch        = 0x104 // line pitch in bytes [12:0]
	LoadMode     = 0x108 // any write with byte 0 enabled flips the toggle
)

// the line pitch register holds a 13-bit byte value
const pitchMask = 0x1fff

// Params is one complete copy of the timing/format parameter set. the shadow
// copy is owned by the register file and the active copy by the timing
// generator. a copy is only ever replaced wholesale, never field by field
type Params struct {
	HStart     uint32
	HWidth     uint32
	HSyncWidth uint32
	HTotal     uint32

	VStart     uint32
	VWidth     uint32
	VSyncWidth uint32
	VTotal     uint32

	Polarity uint8

	// the pixel format code is stored but scanout only supports 1bpp
	Format uint8

	Base  uint32
	Pitch uint32
}

// RoundedPitch returns the line pitch rounded up to the next multiple of 16
// bytes. a pitch that is already a multiple of 16 is returned unchanged
func (p Params) RoundedPitch() uint32 {
	return (p.Pitch + 15) &^ 15
}

// FromSpec builds a parameter set from a named timing spec. the pitch is the
// 1bpp line length and the base address is zero
func FromSpec(sp spec.Spec) Params {
	return Params{
		HStart:     sp.HStart,
		HWidth:     sp.HWidth,
		HSyncWidth: sp.HSyncWidth,
		HTotal:     sp.HTotal,
		VStart:     sp.VStart,
		VWidth:     sp.VWidth,
		VSyncWidth: sp.VSyncWidth,
		VTotal:     sp.VTotal,
		Polarity:   sp.Polarity,
		Pitch:      sp.HWidth / 8,
	}
}

type Bank struct {
	shadow Params

	// the load-mode toggle. flipped by the host, synchronised and consumed by
	// the timing generator
	load crossclock.Flag
}

func Create(sp spec.Spec) *Bank {
	b := &Bank{}
	b.Reset(sp)
	return b
}

// Reset returns the shadow registers to the power-on values of the supplied
// timing spec. the load toggle is left untouched; a reset must not register
// as a host load request
func (b *Bank) Reset(sp spec.Spec) {
	b.shadow = FromSpec(sp)
}

// Shadow returns a copy of the current shadow parameter set
func (b *Bank) Shadow() Params {
	return b.shadow
}

// LoadFlag exposes the load-mode toggle for the consumer side of the
// handshake
func (b *Bank) LoadFlag() *crossclock.Flag {
	return &b.load
}

func (b *Bank) Label() string {
	return "REGS"
}

func (b *Bank) String() string {
	var s strings.Builder
	s.WriteString(fmt.Sprintf("%s: load=%v\n", b.Label(), b.load.Peek()))
	s.WriteString(fmt.Sprintf("horiz: start=%d width=%d sync=%d total=%d\n",
		b.shadow.HStart, b.shadow.HWidth, b.shadow.HSyncWidth, b.shadow.HTotal))
	s.WriteString(fmt.Sprintf("vert: start=%d width=%d sync=%d total=%d\n",
		b.shadow.VStart, b.shadow.VWidth, b.shadow.VSyncWidth, b.shadow.VTotal))
	s.WriteString(fmt.Sprintf("polarity=%#02b format=%#x\n", b.shadow.Polarity, b.shadow.Format))
	s.WriteString(fmt.Sprintf("base=%#08x pitch=%d (rounded %d)",
		b.shadow.Base, b.shadow.Pitch, b.shadow.RoundedPitch()))
	return s.String()
}

// peek returns the packed 32-bit view of a register
func (b *Bank) peek(addr uint32) (uint32, error) {
	switch addr {
	case HorizDisplay:
		return b.shadow.HStart | b.shadow.HWidth<<16, nil
	case HorizTiming:
		return b.shadow.HSyncWidth | b.shadow.HTotal<<16, nil
	case VertDisplay:
		return b.shadow.VStart | b.shadow.VWidth<<16, nil
	case VertTiming:
		return b.shadow.VSyncWidth | b.shadow.VTotal<<16, nil
	case Control:
		return uint32(b.shadow.Polarity)&0x03 | uint32(b.shadow.Format)<<4, nil
	case BaseAddress:
		return b.shadow.Base, nil
	case Pitch:
		return b.shadow.Pitch & pitchMask, nil
	case LoadMode:
		// reading the load-mode register returns the current toggle state in
		// bit zero
		if b.load.Peek() {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("not a display controller register (%#04x)", addr)
}

// poke sets a register from its packed 32-bit view
func (b *Bank) poke(addr uint32, data uint32) {
	switch addr {
	case HorizDisplay:
		b.shadow.HStart = data & 0xffff
		b.shadow.HWidth = data >> 16
	case HorizTiming:
		b.shadow.HSyncWidth = data & 0xffff
		b.shadow.HTotal = data >> 16
	case VertDisplay:
		b.shadow.VStart = data & 0xffff
		b.shadow.VWidth = data >> 16
	case VertTiming:
		b.shadow.VSyncWidth = data & 0xffff
		b.shadow.VTotal = data >> 16
	case Control:
		b.shadow.Polarity = uint8(data & 0x03)
		b.shadow.Format = uint8(data>>4) & 0x0f
	case BaseAddress:
		b.shadow.Base = data
	case Pitch:
		b.shadow.Pitch = data & pitchMask
	}
}

// Read returns the 32-bit value of the register at the supplied offset
func (b *Bank) Read(addr uint32) (uint32, error) {
	return b.peek(addr)
}

// Write performs a byte-enabled write to the register at the supplied offset.
// enable selects which bytes of data are merged into the register, byte 0
// being the least significant.
//
// a write to the load-mode register flips the load toggle if byte 0 is
// enabled; the data value is ignored
func (b *Bank) Write(addr uint32, data uint32, enable [4]bool) error {
	if addr == LoadMode {
		if enable[0] {
			b.load.Flip()
		}
		return nil
	}

	v, err := b.peek(addr)
	if err != nil {
		return err
	}

	for i, e := range enable {
		if e {
			shift := i * 8
			v = v&^(0xff<<shift) | data&(0xff<<shift)
		}
	}

	b.poke(addr, v)
	return nil
}

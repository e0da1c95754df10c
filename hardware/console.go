// Package hardware assembles the display controller from its parts and steps
// the clock domains against each other.
//
// the pixel domain and the memory domain are emulated in the same goroutine.
// the memory clock runs faster than the pixel clock and the ratio is not a
// whole number, so a fractional accumulator decides how many memory ticks to
// run before each pixel tick. host register accesses are applied between
// steps, which stands in for the slow configuration bus of the real hardware.
package hardware

import (
	"fmt"

	"github.com/jetsetilly/testvga/gui"
	"github.com/jetsetilly/testvga/hardware/clocks"
	"github.com/jetsetilly/testvga/hardware/crtc"
	"github.com/jetsetilly/testvga/hardware/dram"
	"github.com/jetsetilly/testvga/hardware/fifo"
	"github.com/jetsetilly/testvga/hardware/memctrl"
	"github.com/jetsetilly/testvga/hardware/regs"
	"github.com/jetsetilly/testvga/hardware/scanout"
	"github.com/jetsetilly/testvga/hardware/spec"
)

// Context is the environment the console runs in
type Context interface {
	Break(error)
	Spec() spec.Spec
	UseOverlay() bool
}

type Console struct {
	ctx Context

	Regs    *regs.Bank
	CRTC    *crtc.CRTC
	FIFO    *fifo.Buffer
	DRAM    *dram.DRAM
	MemCtrl *memctrl.Controller
	Scanout *scanout.Scanout

	limit *limiter

	// memory-domain ticks owed to the accumulator. see the package comment
	memTicks float64
	ratio    float64
}

func Create(ctx Context, g *gui.GUI) *Console {
	con := &Console{
		ctx: ctx,
	}

	con.Regs = regs.Create(ctx.Spec())
	con.FIFO = fifo.Create()
	con.DRAM = dram.Create(con.FIFO)
	con.CRTC = crtc.Create(ctx, con.Regs)
	con.MemCtrl = memctrl.Create(ctx, con.CRTC, con.FIFO, con.DRAM)
	con.Scanout = scanout.Create(ctx, g, con.FIFO, con.CRTC, newLimiter(ctx.Spec()))

	con.ratio = clocks.MemoryTicksPerPixel(ctx.Spec().PixelClock)

	return con
}

// Reset returns the whole console to its power-on state. the contents of
// memory are preserved
func (con *Console) Reset() error {
	con.Regs.Reset(con.ctx.Spec())
	con.CRTC.Reset()
	con.MemCtrl.Reset()
	con.DRAM.Reset()
	con.memTicks = 0
	return nil
}

// Step advances the emulation by one pixel tick, running as many memory ticks
// as the clock ratio requires
func (con *Console) Step() (crtc.Signals, error) {
	con.memTicks += con.ratio
	for con.memTicks >= 1 {
		con.MemCtrl.Tick()
		con.DRAM.Tick()
		con.FIFO.Tick()
		con.memTicks--
	}

	sig := con.CRTC.Tick()
	con.Scanout.Tick(sig)

	return sig, nil
}

// Run the console until the hook function returns an error. the hook is
// called after every frame
func (con *Console) Run(hook func() error) error {
	for {
		sig, err := con.Step()
		if err != nil {
			return err
		}

		if sig.NewFrame {
			err = hook()
			if err != nil {
				return err
			}
		}
	}
}

// FillPattern loads the frame buffer with a named test pattern, sized for the
// active timing parameters
func (con *Console) FillPattern(name string) error {
	active := con.CRTC.Active()
	pitch := con.CRTC.Pitch()

	var at func(x, y uint32) bool

	switch name {
	case "STRIPES":
		at = func(x, y uint32) bool { return x%2 == 0 }
	case "CHECKER":
		at = func(x, y uint32) bool { return (x/8+y/8)%2 == 0 }
	case "BORDER":
		at = func(x, y uint32) bool {
			return x == 0 || y == 0 || x == active.HWidth-1 || y == active.VWidth-1
		}
	default:
		return fmt.Errorf("unrecognised pattern: %s", name)
	}

	for y := range active.VWidth {
		for x := range active.HWidth {
			addr := active.Base + y*pitch + x/8
			d := con.DRAM.Peek(addr)
			mask := uint8(0x80) >> (x % 8)
			if at(x, y) {
				d |= mask
			} else {
				d &^= mask
			}
			con.DRAM.Poke(addr, d)
		}
	}

	return nil
}

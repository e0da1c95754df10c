package crtc_test

import (
	"testing"

	"github.com/jetsetilly/testvga/hardware/crtc"
	"github.com/jetsetilly/testvga/hardware/memctrl"
	"github.com/jetsetilly/testvga/hardware/regs"
	"github.com/jetsetilly/testvga/hardware/spec"
	"github.com/jetsetilly/testvga/test"
)

// the timing generator is the fetch producer for the memory controller
var _ memctrl.Requester = (*crtc.CRTC)(nil)

type context struct {
	spc spec.Spec
}

func (c *context) Spec() spec.Spec {
	return c.spc
}

// activeHighVGA is the standard 640x480 timing but with both sync outputs
// active-high, which makes the assertions below read naturally
func activeHighVGA() spec.Spec {
	sp := spec.VGA
	sp.Polarity = spec.HSyncActiveHigh | spec.VSyncActiveHigh
	return sp
}

func createCRTC(sp spec.Spec) (*crtc.CRTC, *regs.Bank) {
	ctx := &context{spc: sp}
	bank := regs.Create(sp)
	return crtc.Create(ctx, bank), bank
}

func TestResetSentinel(t *testing.T) {
	c, _ := createCRTC(spec.VGA)

	// both counters are left wrap-pending by reset so the very first tick
	// starts a new frame at position (0,0)
	sig := c.Tick()
	test.ExpectSuccess(t, sig.NewLine)
	test.ExpectSuccess(t, sig.NewFrame)

	co := c.Coords()
	test.ExpectEquality(t, co.Clk, 0)
	test.ExpectEquality(t, co.Scanline, 0)
}

func TestHorizontalWindow(t *testing.T) {
	c, _ := createCRTC(activeHighVGA())

	// first scanline: hstart=47 hwidth=640 hsync=96 htotal=799
	for clk := 0; clk <= 799; clk++ {
		sig := c.Tick()
		test.ExpectEquality(t, c.Coords().Clk, clk)

		blank := clk <= 47 || clk > 687
		test.ExpectEquality(t, sig.HBlank, blank)

		sync := clk > 703
		test.ExpectEquality(t, sig.HSync, sync)

		if !blank {
			test.ExpectEquality(t, sig.X, clk-48)
		}
	}
}

func TestVerticalWindow(t *testing.T) {
	c, _ := createCRTC(activeHighVGA())

	// vstart=30 vwidth=480 vsync=2 vtotal=524. vblank and vsync are constant
	// across a scanline so sampling once per line is enough
	for line := 0; line <= 524; line++ {
		sig := c.Tick()
		test.ExpectEquality(t, c.Coords().Scanline, line)

		blank := line <= 30 || line > 510
		test.ExpectEquality(t, sig.VBlank, blank)

		sync := line > 522
		test.ExpectEquality(t, sig.VSync, sync)

		for clk := 1; clk <= 799; clk++ {
			c.Tick()
		}
	}
}

func TestSyncPolarity(t *testing.T) {
	hi, _ := createCRTC(activeHighVGA())
	lo, _ := createCRTC(spec.VGA)

	// with inverted polarity bits the sync outputs are exact complements
	for range 2000 {
		a := hi.Tick()
		b := lo.Tick()
		test.ExpectInequality(t, a.HSync, b.HSync)
		test.ExpectInequality(t, a.VSync, b.VSync)
		test.ExpectEquality(t, a.HBlank, b.HBlank)
	}
}

func TestFetchRequestPerScanline(t *testing.T) {
	c, _ := createCRTC(spec.VGA)

	// one request per active display line, raised on the scanline before the
	// line is displayed
	flag := c.RequestFlag()
	var requests int
	var firstAddr uint32
	var firstWords uint32
	for range 800 * 525 {
		c.Tick()
		if c.RequestFlag() != flag {
			flag = c.RequestFlag()
			if requests == 0 {
				firstAddr, firstWords = c.Request()
			}
			requests++
		}
	}
	test.ExpectEquality(t, requests, 480)

	// vga pitch is 80 bytes: five 16-byte words starting at the base address
	test.ExpectEquality(t, firstAddr, 0)
	test.ExpectEquality(t, firstWords, 5)
}

func TestFetchAddressAdvancesByPitch(t *testing.T) {
	c, bank := createCRTC(spec.VGA)

	err := bank.Write(regs.BaseAddress, 0x4000, [4]bool{true, true, true, true})
	test.ExpectSuccess(t, err)
	err = bank.Write(regs.LoadMode, 1, [4]bool{true, true, true, true})
	test.ExpectSuccess(t, err)

	flag := c.RequestFlag()
	var addrs []uint32
	for range 800 * 525 {
		c.Tick()
		if c.RequestFlag() != flag {
			flag = c.RequestFlag()
			addrs = append(addrs, func() uint32 { a, _ := c.Request(); return a }())
			if len(addrs) == 3 {
				break
			}
		}
	}
	test.ExpectEquality(t, len(addrs), 3)
	test.ExpectEquality(t, addrs[0], 0x4000)
	test.ExpectEquality(t, addrs[1], 0x4050)
	test.ExpectEquality(t, addrs[2], 0x40a0)
}

func TestAtomicParameterCommit(t *testing.T) {
	c, bank := createCRTC(spec.VGA)

	// stage new values in the shadow copy. nothing reaches the active copy
	// until the load-mode toggle flips
	err := bank.Write(regs.HorizTiming, 72|1023<<16, [4]bool{true, true, true, true})
	test.ExpectSuccess(t, err)
	err = bank.Write(regs.Pitch, 85, [4]bool{true, true, true, true})
	test.ExpectSuccess(t, err)

	for range 10 {
		c.Tick()
	}
	test.ExpectEquality(t, c.Active().HTotal, spec.VGA.HTotal)
	test.ExpectEquality(t, c.Pitch(), 80)

	err = bank.Write(regs.LoadMode, 1, [4]bool{true, true, true, true})
	test.ExpectSuccess(t, err)

	// the synchroniser recognises the edge on the second tick after the flip
	c.Tick()
	test.ExpectEquality(t, c.Active().HTotal, spec.VGA.HTotal)
	c.Tick()
	test.ExpectEquality(t, c.Active().HTotal, 1023)
	test.ExpectEquality(t, c.Active().HSyncWidth, 72)
	test.ExpectEquality(t, c.Active().Pitch, 85)

	// pitch rounds up to the next multiple of sixteen
	test.ExpectEquality(t, c.Pitch(), 96)
}

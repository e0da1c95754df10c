package hardware_test

import (
	"image/color"
	"testing"

	"github.com/jetsetilly/testvga/gui"
	"github.com/jetsetilly/testvga/hardware"
	"github.com/jetsetilly/testvga/hardware/spec"
	"github.com/jetsetilly/testvga/test"
)

type context struct {
	spc    spec.Spec
	breaks []error
}

func (c *context) Spec() spec.Spec {
	return c.spc
}

func (c *context) UseOverlay() bool {
	return false
}

func (c *context) Break(err error) {
	c.breaks = append(c.breaks, err)
}

// run the whole pipeline for a few frames and check that the display shows
// the contents of memory with no underruns
func TestConsoleScanout(t *testing.T) {
	ctx := &context{spc: spec.VGA}
	g := gui.Create()
	con := hardware.Create(ctx, g)

	err := con.FillPattern("STRIPES")
	test.ExpectSuccess(t, err)

	var img gui.Image
	var pushed bool

	var frames int
	for frames < 3 {
		sig, err := con.Step()
		test.ExpectSuccess(t, err)
		if sig.NewFrame {
			frames++
		}

		// consume pushed frames as a user interface would, keeping the most
		// recent
		select {
		case img = <-g.SetImage:
			pushed = true
		default:
		}
	}

	test.ExpectSuccess(t, pushed)
	test.ExpectEquality(t, len(ctx.breaks), 0)

	test.ExpectEquality(t, img.Main.Bounds().Dx(), 640)
	test.ExpectEquality(t, img.Main.Bounds().Dy(), 480)

	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black := color.RGBA{A: 255}
	magenta := color.RGBA{R: 255, B: 255, A: 255}

	// vertical stripes, and no underrun colour anywhere on a sampled line
	for _, y := range []int{0, 100, 479} {
		test.ExpectEquality(t, img.Main.RGBAAt(0, y), white)
		test.ExpectEquality(t, img.Main.RGBAAt(1, y), black)
		test.ExpectEquality(t, img.Main.RGBAAt(638, y), white)
		test.ExpectEquality(t, img.Main.RGBAAt(639, y), black)
	}
	for x := range 640 {
		test.ExpectInequality(t, img.Main.RGBAAt(x, 240), magenta)
	}
}

// a base address change staged in the shadow registers takes effect for the
// whole of a subsequent frame
func TestConsoleBaseAddressChange(t *testing.T) {
	ctx := &context{spc: spec.VGA}
	g := gui.Create()
	con := hardware.Create(ctx, g)

	// leave the frame buffer at the power-on base empty and fill a second
	// buffer at 0x10000 with all-set pixels
	const base = 0x10000
	for i := range uint32(480 * 80) {
		con.DRAM.Poke(base+i, 0xff)
	}

	err := con.Regs.Write(0x100, base, [4]bool{true, true, true, true})
	test.ExpectSuccess(t, err)
	err = con.Regs.Write(0x108, 1, [4]bool{true, true, true, true})
	test.ExpectSuccess(t, err)

	var img gui.Image
	var frames int
	for frames < 3 {
		sig, err := con.Step()
		test.ExpectSuccess(t, err)
		if sig.NewFrame {
			frames++
		}
		select {
		case img = <-g.SetImage:
		default:
		}
	}

	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	for _, x := range []int{0, 333, 639} {
		test.ExpectEquality(t, img.Main.RGBAAt(x, 240), white)
	}
	test.ExpectEquality(t, len(ctx.breaks), 0)
}

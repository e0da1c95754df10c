package scanout_test

import (
	"image/color"
	"testing"

	"github.com/jetsetilly/testvga/gui"
	"github.com/jetsetilly/testvga/hardware/crtc"
	"github.com/jetsetilly/testvga/hardware/fifo"
	"github.com/jetsetilly/testvga/hardware/regs"
	"github.com/jetsetilly/testvga/hardware/scanout"
	"github.com/jetsetilly/testvga/hardware/spec"
	"github.com/jetsetilly/testvga/test"
)

// a small timing so a whole frame is only 120 ticks. the display window is
// 16x2 with display lines 2 and 3
var testSpec = spec.Spec{
	ID:         "test",
	HStart:     3,
	HWidth:     16,
	HSyncWidth: 2,
	HTotal:     23,
	VStart:     1,
	VWidth:     2,
	VSyncWidth: 1,
	VTotal:     4,
	Polarity:   spec.HSyncActiveHigh | spec.VSyncActiveHigh,
	PixelClock: 1000000,
}

// ticks in one frame of the test timing
const frameTicks = 24 * 5

type context struct {
	spc     spec.Spec
	overlay bool
}

func (c *context) Spec() spec.Spec {
	return c.spc
}

func (c *context) UseOverlay() bool {
	return c.overlay
}

type nolimit struct{}

func (nolimit) Wait() {}

type harness struct {
	g      *gui.GUI
	buf    *fifo.Buffer
	timing *crtc.CRTC
	scan   *scanout.Scanout
}

func createHarness(overlay bool) *harness {
	ctx := &context{spc: testSpec, overlay: overlay}
	h := &harness{
		g:   gui.Create(),
		buf: fifo.Create(),
	}
	h.timing = crtc.Create(ctx, regs.Create(testSpec))
	h.scan = scanout.Create(ctx, h.g, h.buf, h.timing, nolimit{})
	return h
}

func (h *harness) step(ticks int) {
	for range ticks {
		h.scan.Tick(h.timing.Tick())
	}
}

// discardInitialFrame consumes the empty frame pushed on the very first tick,
// when the wrap-pending counters start the first full frame
func (h *harness) discardInitialFrame(t *testing.T) {
	t.Helper()
	h.step(1)
	select {
	case <-h.g.SetImage:
	default:
		t.Fatalf("no initial frame was pushed")
	}
}

func (h *harness) lastFrame(t *testing.T) gui.Image {
	t.Helper()
	select {
	case img := <-h.g.SetImage:
		return img
	default:
		t.Fatalf("no frame was pushed")
	}
	return gui.Image{}
}

func TestSerialiseMSBFirst(t *testing.T) {
	h := createHarness(false)
	h.discardInitialFrame(t)

	// line 0 of the display serialises 0xa5 then zeros. line 1 is all ones
	h.buf.Push(fifo.Word{0xa5})
	w := fifo.Word{}
	for i := range w {
		w[i] = 0xff
	}
	h.buf.Push(w)

	h.step(frameTicks)
	img := h.lastFrame(t)

	test.ExpectEquality(t, img.Main.Bounds().Dx(), 16)
	test.ExpectEquality(t, img.Main.Bounds().Dy(), 2)

	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black := color.RGBA{A: 255}

	// 0xa5 is 10100101
	for x, set := range []bool{true, false, true, false, false, true, false, true} {
		if set {
			test.ExpectEquality(t, img.Main.RGBAAt(x, 0), white)
		} else {
			test.ExpectEquality(t, img.Main.RGBAAt(x, 0), black)
		}
	}

	// the remaining pixels of line 0 come from the zero bytes of the word
	for x := 8; x < 16; x++ {
		test.ExpectEquality(t, img.Main.RGBAAt(x, 0), black)
	}

	for x := range 16 {
		test.ExpectEquality(t, img.Main.RGBAAt(x, 1), white)
	}

	// both words were consumed
	test.ExpectEquality(t, h.buf.Len(), 0)
}

func TestUnderrun(t *testing.T) {
	h := createHarness(false)
	h.discardInitialFrame(t)

	// no words are supplied so every display pixel underruns
	h.step(frameTicks - 1)
	test.ExpectEquality(t, h.scan.Underruns(), 32)

	h.step(1)
	img := h.lastFrame(t)

	magenta := color.RGBA{R: 255, B: 255, A: 255}
	test.ExpectEquality(t, img.Main.RGBAAt(0, 0), magenta)
	test.ExpectEquality(t, img.Main.RGBAAt(15, 1), magenta)

	// the counter resets with the new frame
	test.ExpectEquality(t, h.scan.Underruns(), 0)
}

func TestOverlay(t *testing.T) {
	h := createHarness(true)
	h.discardInitialFrame(t)

	w := fifo.Word{}
	for i := range w {
		w[i] = 0xff
	}
	h.buf.Push(w)
	h.buf.Push(w)

	h.step(frameTicks)
	img := h.lastFrame(t)

	// the debugging frame images the whole raster
	test.ExpectEquality(t, img.Main.Bounds().Dx(), 24)
	test.ExpectEquality(t, img.Main.Bounds().Dy(), 5)

	blue := color.RGBA{B: 255, A: 255}
	grey := color.RGBA{R: 100, G: 100, B: 100, A: 100}
	none := color.RGBA{}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}

	// hsync engages for clk 22 and 23; vsync for the whole of scanline 4
	test.ExpectEquality(t, img.Overlay.RGBAAt(22, 0), blue)
	test.ExpectEquality(t, img.Overlay.RGBAAt(23, 3), blue)
	test.ExpectEquality(t, img.Overlay.RGBAAt(0, 4), blue)

	// plain blanking is grey
	test.ExpectEquality(t, img.Overlay.RGBAAt(0, 0), grey)
	test.ExpectEquality(t, img.Overlay.RGBAAt(3, 2), grey)

	// display pixels appear at their raster position and leave the overlay
	// untouched
	test.ExpectEquality(t, img.Main.RGBAAt(4, 2), white)
	test.ExpectEquality(t, img.Main.RGBAAt(19, 3), white)
	test.ExpectEquality(t, img.Overlay.RGBAAt(4, 2), none)
}

// Package scanout turns the words in the elastic buffer into pixels. during
// the active display window the serialiser shifts the current 16-byte word
// out one bit per pixel tick, most significant bit first. a set bit is a
// white pixel.
//
// if the buffer runs dry while the display is active the missing pixels are
// plotted in the underrun colour. an underrun means the memory side of the
// system is misconfigured or cannot keep up; it is logged but it is not fatal.
package scanout

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/jetsetilly/testvga/gui"
	"github.com/jetsetilly/testvga/hardware/crtc"
	"github.com/jetsetilly/testvga/hardware/fifo"
	"github.com/jetsetilly/testvga/hardware/spec"
	"github.com/jetsetilly/testvga/logger"
)

// Context tells the scanout whether the debugging overlay is wanted
type Context interface {
	UseOverlay() bool
}

type limiter interface {
	Wait()
}

// number of pixels in one buffer word
const wordBits = 8 * 16

var (
	pixelSet      = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	pixelClear    = color.RGBA{A: 255}
	pixelUnderrun = color.RGBA{R: 255, B: 255, A: 255}
)

type frame struct {
	debug bool

	// the offset of the frame image within the raster. for a debugging frame
	// the whole raster is imaged and the offsets are zero
	left int
	top  int

	width  int
	height int

	main    *image.RGBA
	overlay *image.RGBA
}

type Scanout struct {
	ctx    Context
	g      *gui.GUI
	buf    *fifo.Buffer
	timing *crtc.CRTC
	limit  limiter

	currentFrame frame

	// the word being serialised and the index of the next bit to shift out.
	// an index of wordBits means the word is exhausted
	word fifo.Word
	bit  int

	// underruns seen in the current frame
	underruns int
}

func Create(ctx Context, g *gui.GUI, buf *fifo.Buffer, timing *crtc.CRTC, limit limiter) *Scanout {
	s := &Scanout{
		ctx:    ctx,
		g:      g,
		buf:    buf,
		timing: timing,
		limit:  limit,
		bit:    wordBits,
	}
	s.newFrame()
	return s
}

func (s *Scanout) newFrame() {
	active := s.timing.Active()

	s.currentFrame.debug = s.ctx.UseOverlay()
	if s.currentFrame.debug {
		s.currentFrame.left = 0
		s.currentFrame.top = 0
		s.currentFrame.width = int(active.HTotal) + 1
		s.currentFrame.height = int(active.VTotal) + 1
	} else {
		s.currentFrame.left = int(active.HStart) + 1
		s.currentFrame.top = int(active.VStart) + 1
		s.currentFrame.width = int(active.HWidth)
		s.currentFrame.height = int(active.VWidth)
	}

	s.currentFrame.main = image.NewRGBA(image.Rect(0, 0,
		s.currentFrame.width, s.currentFrame.height))
	s.currentFrame.overlay = image.NewRGBA(image.Rect(0, 0,
		s.currentFrame.width, s.currentFrame.height))
}

// PushRender sends the current frame to the user interface. the send is
// non-blocking; if the interface isn't ready the frame is simply dropped
func (s *Scanout) PushRender() {
	co := s.timing.Coords()

	var cursor = [2]int{
		co.Clk - s.currentFrame.left,
		co.Scanline - s.currentFrame.top,
	}

	select {
	case s.g.SetImage <- gui.Image{
		Main:    s.currentFrame.main,
		Overlay: s.currentFrame.overlay,
		ID:      co.ShortString(),
		Cursor:  cursor,
	}:
	default:
	}
}

// Tick processes the output of a single pixel tick from the timing generator
func (s *Scanout) Tick(sig crtc.Signals) {
	if sig.NewFrame {
		s.limit.Wait()
		s.PushRender()

		// it's no longer safe to use that frame in this context. create a
		// new image to use for current frame
		s.newFrame()
		s.underruns = 0
	}

	if sig.NewLine {
		// a partially serialised word does not carry over to the next
		// scanline
		s.bit = wordBits
	}

	co := s.timing.Coords()
	x := co.Clk - s.currentFrame.left
	y := co.Scanline - s.currentFrame.top

	if sig.Display {
		underrun := false
		if s.bit >= wordBits {
			w, ok := s.buf.Pop()
			if ok {
				s.word = w
				s.bit = 0
			} else {
				underrun = true
				if s.underruns == 0 {
					logger.Logf(logger.Allow, "scanout", "buffer underrun at %s", co.ShortString())
				}
				s.underruns++
			}
		}

		if underrun {
			s.currentFrame.main.Set(x, y, pixelUnderrun)
			if s.currentFrame.debug {
				s.currentFrame.overlay.Set(x, y, color.RGBA{R: 255, A: 255})
			}
		} else {
			b := s.word[s.bit>>3]
			if b&(0x80>>(s.bit&0x07)) != 0 {
				s.currentFrame.main.Set(x, y, pixelSet)
			} else {
				s.currentFrame.main.Set(x, y, pixelClear)
			}
			s.bit++
		}

		return
	}

	if s.currentFrame.debug {
		// the sync outputs are polarity-encoded wires. compare against the
		// polarity bits to recover whether the pulse is actually asserted
		active := s.timing.Active()
		hsync := sig.HSync == (active.Polarity&spec.HSyncActiveHigh != 0)
		vsync := sig.VSync == (active.Polarity&spec.VSyncActiveHigh != 0)

		if hsync || vsync {
			s.currentFrame.overlay.Set(x, y, color.RGBA{B: 255, A: 255})
		} else {
			s.currentFrame.overlay.Set(x, y, color.RGBA{R: 100, G: 100, B: 100, A: 100})
		}
	}
}

// Underruns returns the number of buffer underruns in the current frame
func (s *Scanout) Underruns() int {
	return s.underruns
}

// Frame returns the image being plotted
func (s *Scanout) Frame() *image.RGBA {
	return s.currentFrame.main
}

func (s *Scanout) Label() string {
	return "SCANOUT"
}

func (s *Scanout) Status() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s: frame %dx%d", s.Label(),
		s.currentFrame.width, s.currentFrame.height))
	if s.currentFrame.debug {
		b.WriteString(" (overlay)")
	}
	b.WriteString(fmt.Sprintf("\nserialiser: bit %d of %d", s.bit, wordBits))
	b.WriteString(fmt.Sprintf("\nunderruns this frame: %d", s.underruns))
	return b.String()
}

package ebiten

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/jetsetilly/testvga/gui"
	"github.com/jetsetilly/testvga/logger"
	"github.com/jetsetilly/testvga/version"
)

type guiEbiten struct {
	g    *gui.GUI
	geom windowGeometry

	endGui chan bool

	state gui.State

	main    *ebiten.Image
	overlay *ebiten.Image
	cursor  [2]int

	// width/height of incoming image from emulation. not to be confused with window dimensions
	width  int
	height int

	// a simple counter used to implement a fade-in/fade-out effect for the
	// debugging cursor
	cursorFrame int

	// set by the screenshot key and acted on in Draw(), where the composited
	// image is available
	screenshot bool
}

func (eg *guiEbiten) Update() error {
	// deal with quit condition
	select {
	case <-eg.endGui:
		return ebiten.Termination
	default:
	}

	// handle user input
	err := eg.inputKeyboard()
	if err != nil {
		return ebiten.Termination
	}

	// change state if necessary
	select {
	case eg.state = <-eg.g.State:
	default:
	}

	// retrieve any pending images
	select {
	case img := <-eg.g.SetImage:
		eg.cursor = img.Cursor

		if img.Main != nil {
			if eg.main == nil || eg.main.Bounds() != img.Main.Bounds() {
				eg.width = img.Main.Bounds().Dx()
				eg.height = img.Main.Bounds().Dy()
				eg.main = ebiten.NewImage(eg.width, eg.height)
			}
			eg.main.WritePixels(img.Main.Pix)
		}

		if img.Overlay != nil {
			if eg.overlay == nil || eg.overlay.Bounds() != img.Overlay.Bounds() {
				eg.overlay = ebiten.NewImage(eg.width, eg.height)
			}
			eg.overlay.WritePixels(img.Overlay.Pix)
		}

	default:
	}

	return nil
}

func (eg *guiEbiten) Draw(screen *ebiten.Image) {
	eg.cursorFrame++

	if eg.main != nil {
		var op ebiten.DrawImageOptions
		op.Blend = ebiten.BlendSourceOver
		screen.DrawImage(eg.main, &op)

		if eg.overlay != nil {
			var op ebiten.DrawImageOptions
			op.Blend = ebiten.BlendLighter
			screen.DrawImage(eg.overlay, &op)
		}

		// draw cursor if emulation is paused
		if eg.state == gui.StatePaused {
			v := uint8((math.Sin(float64(eg.cursorFrame/10))*0.5 + 0.5) * 255)
			screen.Set(eg.cursor[0], eg.cursor[1], color.RGBA{R: v, G: v, B: v, A: 255})
			screen.Set(eg.cursor[0]+1, eg.cursor[1], color.RGBA{R: v, G: v, B: v, A: 255})
			screen.Set(eg.cursor[0], eg.cursor[1]+1, color.RGBA{R: v, G: v, B: v, A: 255})
			screen.Set(eg.cursor[0]+1, eg.cursor[1]+1, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}

	if eg.screenshot {
		eg.screenshot = false
		err := saveScreenshot(screen)
		if err != nil {
			logger.Log(logger.Allow, "gui", err.Error())
		}
	}

	eg.geom.x, eg.geom.y = ebiten.WindowPosition()
	eg.geom.w, eg.geom.h = ebiten.WindowSize()
}

func (eg *guiEbiten) Layout(width, height int) (int, int) {
	if eg.main != nil {
		return eg.width, eg.height
	}
	return width, height
}

func Launch(endGui chan bool, g *gui.GUI) error {
	ebiten.SetWindowTitle(version.Title())
	ebiten.SetVsyncEnabled(true)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowPosition(10, 10)
	ebiten.SetTPS(ebiten.SyncWithFPS)

	eg := &guiEbiten{
		endGui: endGui,
		g:      g,
		state:  gui.StateRunning,
	}

	// wait for the first state change and a possible quit request
	select {
	case eg.state = <-g.State:
	case <-endGui:
		return nil
	}

	var err error

	eg.geom, err = onWindowOpen()
	if err != nil {
		logger.Log(logger.Allow, "gui", err.Error())
	}

	defer func() {
		err := onWindowClose(eg.geom)
		if err != nil {
			logger.Log(logger.Allow, "gui", err.Error())
			return
		}
	}()

	return ebiten.RunGame(eg)
}

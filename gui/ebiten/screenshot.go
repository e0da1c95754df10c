package ebiten

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/jetsetilly/testvga/logger"
	"github.com/jetsetilly/testvga/resources"
)

// saveScreenshot writes the composited screen to a timestamped PNG in the
// resources directory
func saveScreenshot(screen *ebiten.Image) error {
	dim := screen.Bounds()
	img := image.NewRGBA(dim)
	screen.ReadPixels(img.Pix)

	fn := fmt.Sprintf("screenshot_%s.png", time.Now().Format("20060102_150405"))
	pth, err := resources.JoinPath("screenshots", fn)
	if err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}

	f, err := os.Create(pth)
	if err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}
	defer f.Close()

	err = png.Encode(f, img)
	if err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}

	logger.Logf(logger.Allow, "gui", "screenshot saved to %s", pth)

	return nil
}

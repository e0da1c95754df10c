package ebiten

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/jetsetilly/testvga/gui"
)

func (eg *guiEbiten) inputKeyboard() error {
	var pressed []ebiten.Key
	pressed = inpututil.AppendJustPressedKeys(pressed)

	for _, p := range pressed {
		var cmd []string

		switch p {
		case ebiten.KeyEscape:
			return ebiten.Termination
		case ebiten.KeyF12:
			eg.screenshot = true
		case ebiten.KeySpace:
			// halt a running emulation or step a paused one
			if eg.state == gui.StateRunning {
				cmd = []string{"HALT"}
			} else {
				cmd = []string{"STEP", "FRAME"}
			}
		case ebiten.KeyR:
			cmd = []string{"RUN"}
		}

		if cmd != nil {
			select {
			case eg.g.Commands <- cmd:
			default:
			}
		}
	}

	return nil
}

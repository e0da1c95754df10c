// Package gui defines the communication channels between the emulation and
// the user interface. the emulation pushes rendered frames and state changes;
// the user interface pushes debugger commands back the other way.
//
// all channels are buffered and all sends from the emulation side are
// non-blocking. a slow or absent user interface must never stall the
// emulation.
package gui

import "image"

// State describes what the emulation is doing
type State int

const (
	StateInitialising State = iota
	StatePaused
	StateRunning
	StateEnding
)

// Image is a rendered frame and the debugging information that goes with it
type Image struct {
	Main    *image.RGBA
	Overlay *image.RGBA

	// the coordinates of the frame, used to identify the image
	ID string

	// the raster position at the time the image was pushed. drawn by the user
	// interface when the emulation is paused
	Cursor [2]int
}

type GUI struct {
	SetImage chan Image
	State    chan State

	// commands from the user interface to the debugger. entries are in the
	// same form as commands typed at the debugger prompt
	Commands chan []string
}

func Create() *GUI {
	return &GUI{
		SetImage: make(chan Image, 1),
		State:    make(chan State, 1),
		Commands: make(chan []string, 1),
	}
}

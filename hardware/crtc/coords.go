package crtc

import "fmt"

// Coords is the current position of the timing counters
type Coords struct {
	Frame    int
	Scanline int
	Clk      int
}

func (c Coords) String() string {
	return fmt.Sprintf("frame: %d, scanline: %d, clk: %d", c.Frame, c.Scanline, c.Clk)
}

func (c Coords) ShortString() string {
	return fmt.Sprintf("%d/%03d/%03d", c.Frame, c.Scanline, c.Clk)
}

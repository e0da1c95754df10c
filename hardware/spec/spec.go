package spec

// polarity bits in the polarity register field. a set bit selects an
// active-high sync pulse for that axis
const (
	HSyncActiveHigh = 0x01
	VSyncActiveHigh = 0x02
)

// Spec describes a complete video timing. the values follow the convention of
// the timing counters: a counter runs from 0 to Total inclusive and the
// display window is the interval (Start, Start+Width]. sync is asserted for
// the last SyncWidth positions before the counter wraps
type Spec struct {
	ID string

	HStart     uint32
	HWidth     uint32
	HSyncWidth uint32
	HTotal     uint32

	VStart     uint32
	VWidth     uint32
	VSyncWidth uint32
	VTotal     uint32

	Polarity uint8

	// dot clock in Hz for this timing
	PixelClock float64
}

// Refresh returns the frame rate of the timing in Hz
func (sp Spec) Refresh() float64 {
	return sp.PixelClock / float64((sp.HTotal+1)*(sp.VTotal+1))
}

// VGA is the 640x480@60 timing. it is also the power-on state of the
// controller: the register file resets to these values and timing generation
// begins immediately, before the host has written anything
var VGA = Spec{
	ID:         "VGA",
	HStart:     47,
	HWidth:     640,
	HSyncWidth: 96,
	HTotal:     799,
	VStart:     30,
	VWidth:     480,
	VSyncWidth: 2,
	VTotal:     524,
	Polarity:   0x00,
	PixelClock: 25.175 * 1000000,
}

// SVGA is the 800x600@56 timing
var SVGA = Spec{
	ID:         "SVGA",
	HStart:     127,
	HWidth:     800,
	HSyncWidth: 72,
	HTotal:     1023,
	VStart:     21,
	VWidth:     600,
	VSyncWidth: 2,
	VTotal:     624,
	Polarity:   HSyncActiveHigh | VSyncActiveHigh,
	PixelClock: 36.0 * 1000000,
}

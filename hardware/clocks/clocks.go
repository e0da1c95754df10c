package clocks

const Mhz = 1000000

// the pixel clock is the dot clock of the video timing. the VGA value is the
// classic 25.175Mhz crystal. the SVGA value is the 36Mhz clock of the
// 800x600@56 timing
const (
	VGA_Pixel  = 25.175 * Mhz
	SVGA_Pixel = 36.0 * Mhz
)

// the memory clock drives the burst controller and the write side of the
// elastic buffer. it has no phase or frequency relationship with the pixel
// clock
const Memory = 100.0 * Mhz

// the configuration bus is clocked by the host. the emulation applies host
// register accesses between steps so the precise frequency does not affect
// behaviour, but the value is kept for reference
const Host = 50.0 * Mhz

// MemoryTicksPerPixel returns the number of memory-domain ticks that elapse
// for every pixel-domain tick. the value is fractional and the caller should
// accumulate the remainder rather than truncate it
func MemoryTicksPerPixel(pixelClock float64) float64 {
	return Memory / pixelClock
}

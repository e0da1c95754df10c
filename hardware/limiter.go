package hardware

import (
	"time"

	"github.com/jetsetilly/testvga/hardware/spec"
)

type limiter struct {
	tick *time.Ticker
}

// newLimiter creates a limiter that ticks at the frame rate of the supplied
// timing
func newLimiter(sp spec.Spec) *limiter {
	d := time.Duration(float64(time.Second) / sp.Refresh())
	return &limiter{
		tick: time.NewTicker(d),
	}
}

func (l *limiter) Wait() {
	<-l.tick.C
}

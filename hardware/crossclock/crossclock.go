// Package crossclock implements the toggle handshake used to signal events
// between clock domains. the producer flips a single bit rather than pulsing
// it, meaning a slower consumer clock cannot drop or duplicate the event. the
// consumer samples the bit through a three stage shift register and recognises
// the event exactly once, on the cycle where the two oldest retained samples
// differ.
//
// the handshake is safe provided the producer spaces successive flips by more
// than the consumer's recognition latency of three ticks. both users of the
// package honour this: fetch requests are raised at most once per scanline and
// load-mode flips are host driven.
package crossclock

// Flag is the producer side of the handshake. a Flag must only ever be
// flipped from a single domain
type Flag struct {
	bit bool
}

// Flip signals a new event
func (f *Flag) Flip() {
	f.bit = !f.bit
}

// Peek returns the current state of the flag without consuming anything. used
// by the consumer domain as the input to Sync.Tick()
func (f *Flag) Peek() bool {
	return f.bit
}

// Sync is the consumer side of the handshake. it must only ever be ticked
// from a single domain
type Sync struct {
	stages [3]bool
}

// Reset preloads all stages with the current state of the producer flag. this
// prevents a spurious edge being recognised on the first ticks after a reset
func (s *Sync) Reset(bit bool) {
	s.stages[0] = bit
	s.stages[1] = bit
	s.stages[2] = bit
}

// Tick shifts the sampled bit into the synchroniser and reports whether an
// edge has been recognised on this cycle. any payload associated with the
// event should be sampled by the caller on the same cycle that Tick returns
// true
func (s *Sync) Tick(bit bool) bool {
	s.stages[2] = s.stages[1]
	s.stages[1] = s.stages[0]
	s.stages[0] = bit
	return s.stages[1] != s.stages[2]
}

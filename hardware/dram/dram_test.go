package dram_test

import (
	"testing"

	"github.com/jetsetilly/testvga/hardware/dram"
	"github.com/jetsetilly/testvga/hardware/fifo"
	"github.com/jetsetilly/testvga/test"
)

func TestGrantAndStream(t *testing.T) {
	buf := fifo.Create()
	d := dram.Create(buf)

	for i := range uint32(64) {
		d.Poke(0x1000+i, uint8(i))
	}

	err := d.Request(dram.Burst{Addr: 0x1000, Length: 3})
	test.ExpectSuccess(t, err)

	// grant arrives after the modelled latency and lasts one tick
	var grants int
	for range 10 {
		d.Tick()
		if d.Grant() {
			grants++
		}
	}
	test.ExpectEquality(t, grants, 1)

	// four beats of sixteen bytes, in address order
	test.ExpectEquality(t, buf.Len(), 4)
	for beat := range uint8(4) {
		w, ok := buf.Pop()
		test.ExpectSuccess(t, ok)
		test.ExpectEquality(t, w[0], beat*16)
		test.ExpectEquality(t, w[15], beat*16+15)
	}
	test.ExpectFailure(t, d.Busy())
}

func TestBusContract(t *testing.T) {
	d := dram.Create(fifo.Create())

	// too many beats
	err := d.Request(dram.Burst{Addr: 0, Length: 256})
	test.ExpectFailure(t, err)

	// page boundary crossing
	err = d.Request(dram.Burst{Addr: 0x0ff0, Length: 1})
	test.ExpectFailure(t, err)

	// exactly up to the boundary is fine
	err = d.Request(dram.Burst{Addr: 0x0ff0, Length: 0})
	test.ExpectSuccess(t, err)

	// double request
	err = d.Request(dram.Burst{Addr: 0x2000, Length: 0})
	test.ExpectFailure(t, err)
}

func TestStreamStallsWhenBufferFull(t *testing.T) {
	buf := fifo.Create()
	d := dram.Create(buf)

	// fill the buffer so the stream has nowhere to go
	for range fifo.Capacity {
		buf.Push(fifo.Word{})
	}

	err := d.Request(dram.Burst{Addr: 0, Length: 0})
	test.ExpectSuccess(t, err)

	for range 20 {
		d.Tick()
	}
	test.ExpectSuccess(t, d.Busy())

	// draining one word lets the stalled beat through
	_, _ = buf.Pop()
	d.Tick()
	test.ExpectFailure(t, d.Busy())
}

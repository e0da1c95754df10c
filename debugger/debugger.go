package debugger

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jetsetilly/testvga/gui"
	"github.com/jetsetilly/testvga/hardware"
	"github.com/jetsetilly/testvga/hardware/crtc"
	"github.com/jetsetilly/testvga/hardware/dram"
	"github.com/jetsetilly/testvga/hardware/regs"
	"github.com/jetsetilly/testvga/hardware/spec"
	"github.com/jetsetilly/testvga/logger"
	"github.com/pkg/profile"
)

type input struct {
	s   string
	err error
}

type debugger struct {
	ctx context

	guiQuit chan bool
	sig     chan os.Signal
	input   chan input

	// commands sent from the user interface. entries are handled as if they
	// had been typed at the prompt
	commands chan []string

	state chan gui.State

	console *hardware.Console

	// the file to load into the frame buffer on console reset
	loader string

	// rule for stepping. by default (the field is nil) the step will move
	// forward one pixel tick
	stepRule func(crtc.Signals) bool

	// printing styles
	styles styles
}

func (m *debugger) reset() {
	m.ctx.Reset()

	err := m.console.Reset()
	if err != nil {
		fmt.Println(m.styles.err.Render(err.Error()))
		return
	}

	fmt.Println(m.styles.debugger.Render("console reset"))

	if m.loader != "" {
		err := m.load(m.loader, 0)
		if err != nil {
			fmt.Println(m.styles.err.Render(err.Error()))

			// forget about loader because we now know it doesn't work
			m.loader = ""
		}
	}

	fmt.Println(m.styles.video.Render(m.console.CRTC.Status()))
}

// load copies the contents of a file into the frame buffer at the supplied
// address
func (m *debugger) load(pth string, addr uint32) error {
	d, err := os.ReadFile(pth)
	if err != nil {
		return err
	}
	if addr+uint32(len(d)) > dram.Size {
		return fmt.Errorf("%s does not fit in memory at %#08x", pth, addr)
	}
	for i, b := range d {
		m.console.DRAM.Poke(addr+uint32(i), b)
	}

	fmt.Println(m.styles.debugger.Render(
		fmt.Sprintf("%d bytes loaded at %#08x", len(d), addr),
	))

	return nil
}

func (m *debugger) contextBreaks() error {
	if len(m.ctx.breaks) == 0 {
		return nil
	}

	// breaks have been processed and so are now cleared
	b := m.ctx.breaks
	m.ctx.breaks = nil

	err := b[0]
	for _, e := range b[1:] {
		err = fmt.Errorf("%w\n%w", err, e)
	}

	return err
}

// step advances the emulation according to the current step rule. the step
// rule will be reset after the step has completed
//
// returns true if quit signal has been received
func (m *debugger) step() bool {
	// the number of pixel ticks stepped over
	var ct int

	var done bool
	for !done {
		select {
		case <-m.sig:
			done = true
			continue // for loop
		case <-m.guiQuit:
			return true
		default:
		}

		sig, err := m.console.Step()
		if err != nil {
			fmt.Println(m.styles.err.Render(err.Error()))
			return false
		}

		err = m.contextBreaks()
		if err != nil {
			fmt.Println(m.styles.err.Render(err.Error()))
			return false
		}

		// apply step rule
		if m.stepRule == nil {
			done = true
		} else {
			done = m.stepRule(sig)
		}

		ct++
	}

	m.console.Scanout.PushRender()

	// report how many ticks were stepped if it is more than one
	if ct > 1 {
		fmt.Println(m.styles.debugger.Render(
			fmt.Sprintf("%d ticks stepped", ct),
		))
	}

	fmt.Println(m.styles.video.Render(
		m.console.CRTC.Coords().String(),
	))

	m.stepRule = nil

	return false
}

func (m *debugger) parseStepRule(args []string) bool {
	switch strings.ToUpper(args[0]) {
	case "LINE":
		m.stepRule = func(sig crtc.Signals) bool {
			return sig.NewLine
		}
	case "FRAME":
		m.stepRule = func(sig crtc.Signals) bool {
			return sig.NewFrame
		}
	default:
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			fmt.Println(m.styles.err.Render(
				fmt.Sprintf("cannot use STEP %s", args[0]),
			))
			return false
		}
		var ct int
		m.stepRule = func(sig crtc.Signals) bool {
			ct++
			return ct >= n
		}
	}
	return true
}

// returns true if quit signal has been received
func (m *debugger) run() bool {
	fmt.Println(m.styles.debugger.Render("emulation running"))

	// we measure the number of frames in the time period of the running emulation
	var frameCt int
	var startTime time.Time

	var (
		haltErr    = errors.New("halt")
		contextErr = errors.New("context")
		endRunErr  = errors.New("end run")
		quitErr    = errors.New("quit")
	)

	// hook is called after every frame
	hook := func() error {
		select {
		case <-m.sig:
			return endRunErr
		case <-m.guiQuit:
			return quitErr
		case cmd := <-m.commands:
			if len(cmd) > 0 && strings.ToUpper(cmd[0]) == "HALT" {
				return haltErr
			}
		default:
		}

		frameCt++

		err := m.contextBreaks()
		if err != nil {
			return fmt.Errorf("%w%w", contextErr, err)
		}

		return nil
	}

	startTime = time.Now()

	m.state <- gui.StateRunning
	err := m.console.Run(hook)
	m.state <- gui.StatePaused

	if errors.Is(err, quitErr) {
		return true
	}

	m.console.Scanout.PushRender()

	if errors.Is(err, endRunErr) || errors.Is(err, haltErr) {
		dur := time.Since(startTime).Seconds()
		fmt.Println(m.styles.debugger.Render(
			fmt.Sprintf("%d frames in %.02f seconds (%.02f fps)", frameCt, dur, float64(frameCt)/dur)),
		)
	} else if errors.Is(err, contextErr) {
		s := strings.TrimPrefix(err.Error(), contextErr.Error())
		fmt.Println(m.styles.err.Render(s))
	} else if err != nil {
		fmt.Println(m.styles.err.Render(err.Error()))
	}

	// it's useful to see where the raster stopped at the end of the run
	fmt.Println(m.styles.video.Render(m.console.CRTC.Coords().String()))

	return false
}

// parse a numeric argument. accepts the 0x prefix for hexadecimal
func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("cannot parse value: %s", s)
	}
	return uint32(v), nil
}

// applyPreset stages a timing preset in the shadow registers and flips the
// load-mode toggle, the same way a host driver would program a mode change
func (m *debugger) applyPreset(sp spec.Spec) error {
	all := [4]bool{true, true, true, true}

	for _, w := range []struct {
		addr uint32
		data uint32
	}{
		{regs.HorizDisplay, sp.HStart | sp.HWidth<<16},
		{regs.HorizTiming, sp.HSyncWidth | sp.HTotal<<16},
		{regs.VertDisplay, sp.VStart | sp.VWidth<<16},
		{regs.VertTiming, sp.VSyncWidth | sp.VTotal<<16},
		{regs.Control, uint32(sp.Polarity)},
		{regs.Pitch, sp.HWidth / 8},
		{regs.LoadMode, 1},
	} {
		if err := m.console.Regs.Write(w.addr, w.data, all); err != nil {
			return err
		}
	}

	return nil
}

func (m *debugger) loop() {
	for {
		fmt.Printf("%s> ", m.console.CRTC.Coords().ShortString())

		var cmd []string

		select {
		case input := <-m.input:
			if input.err != nil {
				fmt.Println(m.styles.err.Render(input.err.Error()))
				return
			}
			cmd = strings.Fields(input.s)
			if len(cmd) == 0 {
				cmd = []string{"STEP"}
			}
		case cmd = <-m.commands:
			if len(cmd) == 0 {
				continue
			}
		case <-m.sig:
			fmt.Print("\r")
			return
		case <-m.guiQuit:
			fmt.Print("\n")
			return
		}

		switch strings.ToUpper(cmd[0]) {
		case "R", "RUN":
			if m.run() {
				return
			}
		case "ST", "STEP":
			if len(cmd) > 1 {
				if !m.parseStepRule(cmd[1:]) {
					break // switch
				}
			}
			if m.step() {
				return
			}
		case "HALT":
			// only meaningful while the emulation is running. the running hook
			// deals with it in that case
		case "RESET":
			m.reset()
		case "REGS":
			fmt.Println(m.styles.regs.Render(
				m.console.Regs.String(),
			))
		case "REG":
			if len(cmd) < 2 {
				fmt.Println(m.styles.err.Render(
					"REG requires a register offset",
				))
				break // switch
			}

			addr, err := parseUint32(cmd[1])
			if err != nil {
				fmt.Println(m.styles.err.Render(err.Error()))
				break // switch
			}

			if len(cmd) == 2 {
				data, err := m.console.Regs.Read(addr)
				if err != nil {
					fmt.Println(m.styles.err.Render(err.Error()))
					break // switch
				}
				fmt.Println(m.styles.regs.Render(
					fmt.Sprintf("%#03x = %08x", addr, data),
				))
				break // switch
			}

			data, err := parseUint32(cmd[2])
			if err != nil {
				fmt.Println(m.styles.err.Render(err.Error()))
				break // switch
			}

			err = m.console.Regs.Write(addr, data, [4]bool{true, true, true, true})
			if err != nil {
				fmt.Println(m.styles.err.Render(err.Error()))
			}
		case "PRESET":
			if len(cmd) < 2 {
				fmt.Println(m.styles.err.Render(
					"PRESET requires a timing name: VGA or SVGA",
				))
				break // switch
			}

			var sp spec.Spec
			switch strings.ToUpper(cmd[1]) {
			case "VGA":
				sp = spec.VGA
			case "SVGA":
				sp = spec.SVGA
			default:
				fmt.Println(m.styles.err.Render(
					fmt.Sprintf("unrecognised timing: %s", cmd[1]),
				))
				break // switch
			}

			if sp.ID != "" {
				err := m.applyPreset(sp)
				if err != nil {
					fmt.Println(m.styles.err.Render(err.Error()))
				} else {
					fmt.Println(m.styles.debugger.Render(
						fmt.Sprintf("%s timing staged and load toggle flipped", sp.ID),
					))
				}
			}
		case "CRTC":
			fmt.Println(m.styles.video.Render(
				m.console.CRTC.Status(),
			))
		case "MEMCTRL":
			fmt.Println(m.styles.mem.Render(
				m.console.MemCtrl.Status(),
			))
		case "FIFO":
			fmt.Println(m.styles.mem.Render(
				m.console.FIFO.Status(),
			))
		case "DRAM":
			fmt.Println(m.styles.mem.Render(
				m.console.DRAM.Status(),
			))
		case "SCANOUT":
			fmt.Println(m.styles.video.Render(
				m.console.Scanout.Status(),
			))
		case "VIDEO":
			fmt.Println(m.styles.video.Render(
				m.console.CRTC.Coords().String(),
			))
		case "PEEK":
			if len(cmd) < 2 {
				fmt.Println(m.styles.err.Render(
					"PEEK requires an address",
				))
				break // switch
			}

			addr, err := parseUint32(cmd[1])
			if err != nil {
				fmt.Println(m.styles.err.Render(err.Error()))
				break // switch
			}

			fmt.Println(m.styles.mem.Render(
				fmt.Sprintf("%#08x = %02x", addr, m.console.DRAM.Peek(addr)),
			))
		case "POKE":
			if len(cmd) < 3 {
				fmt.Println(m.styles.err.Render(
					"POKE requires an address and a value",
				))
				break // switch
			}

			addr, err := parseUint32(cmd[1])
			if err != nil {
				fmt.Println(m.styles.err.Render(err.Error()))
				break // switch
			}

			data, err := parseUint32(cmd[2])
			if err != nil {
				fmt.Println(m.styles.err.Render(err.Error()))
				break // switch
			}

			m.console.DRAM.Poke(addr, uint8(data))
		case "DUMP":
			if len(cmd) < 3 {
				fmt.Println(m.styles.err.Render(
					"DUMP requires a 'from' and a 'to' address",
				))
				break // switch
			}

			from, err := parseUint32(cmd[1])
			if err != nil {
				fmt.Println(m.styles.err.Render(err.Error()))
				break // switch
			}

			to, err := parseUint32(cmd[2])
			if err != nil {
				fmt.Println(m.styles.err.Render(err.Error()))
				break // switch
			}

			if to < from {
				fmt.Println(m.styles.err.Render(
					"dump: the 'to' address is less than the 'from' address",
				))
				break // switch
			}

			var column int
			for addr := from; addr <= to; addr++ {
				if column == 0 {
					fmt.Printf("%08x", addr)
				}
				fmt.Printf(" %02x", m.console.DRAM.Peek(addr))
				column++
				if column > 15 {
					fmt.Printf("\n")
					column = 0
				}
			}
			if column != 0 {
				fmt.Printf("\n")
			}
		case "LOAD":
			if len(cmd) < 2 {
				fmt.Println(m.styles.err.Render(
					"LOAD requires a file",
				))
				break // switch
			}

			var addr uint32
			if len(cmd) > 2 {
				var err error
				addr, err = parseUint32(cmd[2])
				if err != nil {
					fmt.Println(m.styles.err.Render(err.Error()))
					break // switch
				}
			}

			err := m.load(cmd[1], addr)
			if err != nil {
				fmt.Println(m.styles.err.Render(err.Error()))
			}
		case "PATTERN":
			name := "STRIPES"
			if len(cmd) > 1 {
				name = strings.ToUpper(cmd[1])
			}
			err := m.console.FillPattern(name)
			if err != nil {
				fmt.Println(m.styles.err.Render(err.Error()))
			} else {
				fmt.Println(m.styles.debugger.Render(
					fmt.Sprintf("%s pattern written to frame buffer", name),
				))
			}
		case "LOG":
			logger.Tail(os.Stdout, -1)
		case "QUIT":
			return
		default:
			fmt.Println(m.styles.err.Render(
				fmt.Sprintf("unrecognised command: %s", strings.Join(cmd, " ")),
			))
		}
	}
}

const programName = "testvga"

func Launch(guiQuit chan bool, g *gui.GUI, args []string) error {
	var loadfile string
	var timing string
	var prof bool
	var overlay bool

	flgs := flag.NewFlagSet(programName, flag.ExitOnError)
	flgs.StringVar(&timing, "spec", "VGA", "video timing on power-on: VGA or SVGA")
	flgs.BoolVar(&prof, "profile", false, "create CPU profile for emulator")
	flgs.BoolVar(&overlay, "overlay", false, "add debugging overlay to display")
	err := flgs.Parse(args)
	if err != nil {
		return err
	}
	args = flgs.Args()

	if len(args) == 1 {
		loadfile = args[0]
	} else if len(args) > 1 {
		return fmt.Errorf("too many arguments to debugger")
	}

	ctx := context{
		requestedSpec: strings.ToUpper(timing),
		useOverlay:    overlay,
	}
	ctx.Reset()

	m := &debugger{
		ctx:      ctx,
		guiQuit:  guiQuit,
		state:    g.State,
		commands: g.Commands,
		sig:      make(chan os.Signal, 1),
		input:    make(chan input, 1),
		loader:   loadfile,
		styles:   newStyles(),
	}
	m.console = hardware.Create(&m.ctx, g)

	signal.Notify(m.sig, syscall.SIGINT)

	go func() {
		r := bufio.NewReader(os.Stdin)
		b := make([]byte, 256)
		for {
			n, err := r.Read(b)
			select {
			case m.input <- input{
				s:   strings.TrimSpace(string(b[:n])),
				err: err,
			}:
			default:
			}
		}
	}()

	// let the user interface know we're ready
	m.state <- gui.StatePaused

	m.reset()

	if prof {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	m.loop()

	return nil
}

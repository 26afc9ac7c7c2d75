// monitor.go - interactive single-key monitor for the machine

/*
(c) 2025 - 2026 BrainWave Project
https://github.com/brain-wave/apb-event-unit
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"io"
	"sync"
)

// Monitor turns single key presses into machine operations: stepping,
// line pokes, control register writes, trace dumps. Everything it
// does to the machine goes through the bus, same as firmware would.
// Output lines are CRLF-terminated so they render correctly with the
// terminal in raw mode.
type Monitor struct {
	mu      sync.Mutex
	machine *Machine
	out     io.Writer
	vcdPath string
}

func NewMonitor(m *Machine, out io.Writer) *Monitor {
	return &Monitor{
		machine: m,
		out:     out,
		vcdPath: "trace.vcd",
	}
}

// SetVCDPath changes where the 'v' key writes its capture.
func (mon *Monitor) SetVCDPath(path string) {
	mon.mu.Lock()
	defer mon.mu.Unlock()
	if path != "" {
		mon.vcdPath = path
	}
}

func (mon *Monitor) printf(format string, args ...interface{}) {
	fmt.Fprintf(mon.out, format+"\r\n", args...)
}

// Banner prints the greeting and key reference.
func (mon *Monitor) Banner() {
	mon.printf("BrainWave sleep unit monitor. '?' for help, 'q' to quit.")
	mon.printStatus()
}

// HandleKey processes one input byte. Returns false when the monitor
// wants to quit.
func (mon *Monitor) HandleKey(b byte) bool {
	mon.mu.Lock()
	defer mon.mu.Unlock()

	m := mon.machine
	bus := m.Bus()

	switch b {
	case 'q', 0x03: // Ctrl-C
		mon.printf("bye")
		return false

	case 's':
		m.Step()
		mon.printStatus()
	case 'n':
		m.Run(10)
		mon.printStatus()
	case 'N':
		m.Run(100)
		mon.printStatus()

	case ' ':
		if m.IsRunning() {
			m.Stop()
			mon.printf("free run stopped")
		} else if err := m.Start(); err != nil {
			mon.printf("free run: %v", err)
		} else {
			mon.printf("free run started (%d ticks/s)", m.Config().FreeRunHz)
		}
		mon.printStatus()

	case 'e':
		bus.Write32(LINE_EVENT, bus.Read32(LINE_EVENT)^1)
		mon.printStatus()
	case 'i':
		bus.Write32(LINE_IRQ, bus.Read32(LINE_IRQ)^1)
		mon.printStatus()
	case 'b':
		bus.Write32(LINE_BUSY, bus.Read32(LINE_BUSY)^1)
		mon.printStatus()
	case 'E':
		bus.Write32(LINE_EVENT_PULSE, 1)
		mon.printf("event pulsed for 1 tick")
	case 'I':
		bus.Write32(LINE_IRQ_PULSE, 1)
		mon.printf("irq pulsed for 1 tick")

	case '1':
		bus.Write32(SLEEP_CTRL, CTRL_SLEEP_ENABLE)
		mon.printf("SLEEP_CTRL <- %02b (sleep request)", bus.Read32(SLEEP_CTRL))
	case '2':
		bus.Write32(SLEEP_CTRL, CTRL_SLEEP_ENABLE|CTRL_EXT_SLEEP_ENABLE)
		mon.printf("SLEEP_CTRL <- %02b (deep sleep request)", bus.Read32(SLEEP_CTRL))
	case '0':
		bus.Write32(SLEEP_CTRL, 0)
		mon.printf("SLEEP_CTRL <- %02b (cleared)", bus.Read32(SLEEP_CTRL))

	case 't':
		mon.printTrace(16)
	case 'v':
		samples := m.Trace().Snapshot()
		if err := WriteVCDFile(mon.vcdPath, samples, m.Config().CtrlClockHz); err != nil {
			mon.printf("vcd: %v", err)
		} else {
			mon.printf("wrote %d samples to %s", len(samples), mon.vcdPath)
		}

	case 'r':
		wasRunning := m.IsRunning()
		if wasRunning {
			m.Stop()
		}
		m.HardReset()
		if wasRunning {
			if err := m.Start(); err != nil {
				mon.printf("free run: %v", err)
			}
		}
		mon.printf("hard reset")
		mon.printStatus()

	case '?', 'h':
		mon.printHelp()

	case '\r', '\n':
		mon.printStatus()
	}
	return true
}

func (mon *Monitor) printStatus() {
	mon.printf("%s", mon.machine.StatusLine())
}

func (mon *Monitor) printHelp() {
	mon.printf("s/n/N       step 1/10/100 ticks")
	mon.printf("space       toggle free run")
	mon.printf("e/i/b       toggle event/irq/busy line level")
	mon.printf("E/I         pulse event/irq for one tick")
	mon.printf("1/2/0       SLEEP_CTRL: sleep req / deep sleep req / clear")
	mon.printf("t           show recent trace")
	mon.printf("v           dump trace to %s", mon.vcdPath)
	mon.printf("r           hard reset")
	mon.printf("enter       show status")
	mon.printf("q           quit")
}

func (mon *Monitor) printTrace(n int) {
	samples := mon.machine.Trace().Window(n)
	if len(samples) == 0 {
		mon.printf("trace empty")
		return
	}
	b := func(v bool) int {
		if v {
			return 1
		}
		return 0
	}
	for _, s := range samples {
		mon.printf("%8d %-9s ctrl=%02b st=%02b cnt=%-5d E%d I%d B%d r%d^%d | f%d g%d s%d x%d m%d%d%d",
			s.Tick, s.State, s.Ctrl, s.Status, s.Counter,
			b(s.Event), b(s.IRQ), b(s.Busy), b(s.RefLevel), b(s.RefEdge),
			b(s.Out.FetchEnable), b(s.Out.CoreClockGate), b(s.Out.CoreSleeping), b(s.Out.CoreExtSleeping),
			b(s.Out.MemGateSmall), b(s.Out.MemGateLarge), b(s.Out.MemSleep))
	}
}

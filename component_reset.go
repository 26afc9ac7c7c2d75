// component_reset.go - Reset() methods for all machine components (hard reset support)

/*
(c) 2025 - 2026 BrainWave Project
https://github.com/brain-wave/apb-event-unit
License: GPLv3 or later
*/

package main

// SleepUnit.Reset restores the controller to its power-on state: RUN,
// counter zero, control register clear, synchronizer history empty.
// Any latched bus write is dropped.
func (u *SleepUnit) Reset() {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.state = StateRun
	u.counter = 0
	u.ctrl = 0
	u.wrValue = 0
	u.wrPend = false
	u.syncer.Reset()
	u.lastIn = SleepInputs{}
	u.lastEdge = false
}

// LineDriver.Reset deasserts all lines and clears pulses and the tick
// counter.
func (ld *LineDriver) Reset() {
	ld.mu.Lock()
	defer ld.mu.Unlock()

	ld.event = false
	ld.irq = false
	ld.busy = false
	ld.eventPulse = 0
	ld.irqPulse = 0
	ld.ticks = 0
}

// RefClockGen.Reset returns the oscillator to phase zero, output low.
func (g *RefClockGen) Reset() {
	g.acc = 0
	g.level = false
}

// TraceRecorder.Reset discards all recorded samples. Capacity is kept.
func (tr *TraceRecorder) Reset() {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	tr.head = 0
	tr.size = 0
}

// Machine.HardReset takes every component back to power-on state. The
// step lock is held throughout so a free-running stepper never sees a
// half-reset machine. I/O mappings survive; they are part of the
// board, not the state.
func (m *Machine) HardReset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.bus.Reset()
	m.unit.Reset()
	m.lines.Reset()
	m.refClk.Reset()
	m.trace.Reset()
	m.tickCount.Store(0)
}

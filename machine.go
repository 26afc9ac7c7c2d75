// machine.go - the BrainWave machine: bus, clocks, sleep unit, lines

/*
(c) 2025 - 2026 BrainWave Project
https://github.com/brain-wave/apb-event-unit
License: GPLv3 or later

Wires the sleep controller, line driver and reference clock generator
onto the memory bus and steps them in lockstep. One Step is one
control clock cycle:

  1. the reference clock generator produces this cycle's level
  2. the line driver is sampled
  3. the sleep unit ticks (consuming any bus write latched since the
     previous cycle)
  4. the line driver burns down pulses and advances its tick count
  5. the committed cycle is recorded into the trace ring

Everything observable, including by scenarios and the monitor, goes
through the bus.
*/

package main

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DEFAULT_TRACE_DEPTH = 4096
	DEFAULT_FREE_RUN_HZ = 200
)

// MachineConfig carries the clock rates and simulation parameters.
// Zero fields take the defaults.
type MachineConfig struct {
	CtrlClockHz   uint64 // machine tick rate being modelled
	RefClockHz    uint64 // slow reference oscillator
	WakeupDelayNS uint64 // per-stage wake-up hold time
	TraceDepth    int    // trace ring capacity in ticks
	FreeRunHz     int    // steps per wall-clock second in free run
}

func (cfg *MachineConfig) applyDefaults() {
	if cfg.CtrlClockHz == 0 {
		cfg.CtrlClockHz = DEFAULT_CTRL_CLOCK_HZ
	}
	if cfg.RefClockHz == 0 {
		cfg.RefClockHz = DEFAULT_REF_CLOCK_HZ
	}
	if cfg.WakeupDelayNS == 0 {
		cfg.WakeupDelayNS = DEFAULT_WAKEUP_DELAY_NS
	}
	if cfg.TraceDepth == 0 {
		cfg.TraceDepth = DEFAULT_TRACE_DEPTH
	}
	if cfg.FreeRunHz == 0 {
		cfg.FreeRunHz = DEFAULT_FREE_RUN_HZ
	}
}

// Machine owns the simulated system. Step may be called directly or
// through the free-run goroutine; both serialize on mu.
type Machine struct {
	mu sync.Mutex

	bus    *MachineBus
	unit   *SleepUnit
	lines  *LineDriver
	refClk *RefClockGen
	trace  *TraceRecorder

	cfg MachineConfig

	tickCount atomic.Uint64

	lifecycle sync.Mutex
	running   atomic.Bool
	stopCh    chan struct{}
	done      chan struct{}
}

// NewMachine builds and wires up the full system. The register blocks
// are mapped here; the bus seals on the first step.
func NewMachine(cfg MachineConfig) (*Machine, error) {
	cfg.applyDefaults()

	unit, err := NewSleepUnit(SleepUnitConfig{
		RefClockHz:    cfg.RefClockHz,
		WakeupDelayNS: cfg.WakeupDelayNS,
	})
	if err != nil {
		return nil, fmt.Errorf("sleep unit: %w", err)
	}
	refClk, err := NewRefClockGen(cfg.CtrlClockHz, cfg.RefClockHz)
	if err != nil {
		return nil, fmt.Errorf("reference clock: %w", err)
	}

	m := &Machine{
		bus:    NewMachineBus(),
		unit:   unit,
		lines:  NewLineDriver(),
		refClk: refClk,
		trace:  NewTraceRecorder(cfg.TraceDepth),
		cfg:    cfg,
	}

	m.bus.MapIO(SLEEP_REGION_BASE, SLEEP_REGION_END, m.unit.HandleRead, m.unit.HandleWrite)
	m.bus.MapIO(LINE_REGION_BASE, LINE_REGION_END, m.lines.HandleRead, m.lines.HandleWrite)

	return m, nil
}

// Step advances the machine one control clock cycle and returns the
// committed sample.
func (m *Machine) Step() TickSample {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stepLocked()
}

func (m *Machine) stepLocked() TickSample {
	m.bus.SealMappings()

	level := m.refClk.Tick()
	event, irq, busy := m.lines.Sample()
	m.unit.Tick(SleepInputs{Event: event, IRQ: irq, Busy: busy, RefLevel: level})
	m.lines.Advance()

	snap := m.unit.Snapshot()
	tick := m.tickCount.Add(1) - 1
	s := TickSample{
		Tick:     tick,
		State:    snap.State,
		Counter:  snap.Counter,
		Ctrl:     snap.Ctrl,
		Status:   snap.Status,
		Event:    event,
		IRQ:      irq,
		Busy:     busy,
		RefLevel: level,
		RefEdge:  snap.Edge,
		Out:      snap.Out,
	}
	m.trace.Record(s)
	return s
}

// Run steps the machine n cycles and returns the last sample.
func (m *Machine) Run(n int) TickSample {
	m.mu.Lock()
	defer m.mu.Unlock()
	var last TickSample
	for i := 0; i < n; i++ {
		last = m.stepLocked()
	}
	return last
}

// Start begins free-running the machine at cfg.FreeRunHz steps per
// wall-clock second. Used by the monitor and the front panel.
func (m *Machine) Start() error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()
	if m.running.Load() {
		return fmt.Errorf("machine already running")
	}

	interval := time.Second / time.Duration(m.cfg.FreeRunHz)
	if interval <= 0 {
		interval = time.Millisecond
	}

	m.stopCh = make(chan struct{})
	m.done = make(chan struct{})
	m.running.Store(true)

	go func(stopCh, done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				m.Step()
			}
		}
	}(m.stopCh, m.done)

	return nil
}

// Stop halts free running and waits for the stepper to exit. Safe to
// call when not running.
func (m *Machine) Stop() {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()
	if !m.running.Load() {
		return
	}
	close(m.stopCh)
	<-m.done
	m.running.Store(false)
}

// IsRunning reports whether the free-run stepper is active.
func (m *Machine) IsRunning() bool {
	return m.running.Load()
}

// TickCount returns the number of cycles executed since power-on or
// the last hard reset.
func (m *Machine) TickCount() uint64 {
	return m.tickCount.Load()
}

func (m *Machine) Bus() *MachineBus      { return m.bus }
func (m *Machine) Unit() *SleepUnit      { return m.unit }
func (m *Machine) Lines() *LineDriver    { return m.lines }
func (m *Machine) Trace() *TraceRecorder { return m.trace }
func (m *Machine) Config() MachineConfig { return m.cfg }

// StatusLine formats a one-line summary of the machine state for the
// monitor and the front panel.
func (m *Machine) StatusLine() string {
	snap := m.unit.Snapshot()
	event, irq, busy := m.lines.Sample()
	b := func(v bool) int {
		if v {
			return 1
		}
		return 0
	}
	return fmt.Sprintf("tick %d  state %-9s  ctrl=%02b status=%02b  delay %d/%d  lines E:%d I:%d B:%d",
		m.tickCount.Load(), snap.State, snap.Ctrl, snap.Status,
		snap.Counter, m.unit.DelayTicks(), b(event), b(irq), b(busy))
}

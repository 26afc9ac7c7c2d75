// sleep_unit.go - sleep/wake controller for the BrainWave core

/*
(c) 2025 - 2026 BrainWave Project
https://github.com/brain-wave/apb-event-unit
License: GPLv3 or later

Cycle-accurate model of the power-management controller that takes the
core through clock-gated sleep and full deep sleep, and sequences the
staged memory wake-up afterwards. One call to Tick is one control
clock cycle.

States:

  RUN        core executing, no gating
  SHUTDOWN   sleep requested, draining outstanding work
  SLEEP      core clock gated, memories powered
  EXT_SLEEP  core clock gated, memories in retention
  WAKEUP_S1  small memory banks restored, timed on the reference clock
  WAKEUP_S2  large memory banks restored, timed on the reference clock

The wake-up stages each hold for DELAY_TICKS rising edges of the slow
reference clock, observed through a glitch-filtering synchronizer. The
wake event line always wins over sleep requests; a wake-up sequence
that has started runs to completion even if the event drops.
*/

package main

import (
	"fmt"
	"sync"
)

// SleepState identifies the controller state. The zero value is RUN.
type SleepState uint8

const (
	StateRun SleepState = iota
	StateShutdown
	StateSleep
	StateExtSleep
	StateWakeupS1
	StateWakeupS2
)

func (s SleepState) String() string {
	switch s {
	case StateRun:
		return "RUN"
	case StateShutdown:
		return "SHUTDOWN"
	case StateSleep:
		return "SLEEP"
	case StateExtSleep:
		return "EXT_SLEEP"
	case StateWakeupS1:
		return "WAKEUP_S1"
	case StateWakeupS2:
		return "WAKEUP_S2"
	default:
		return fmt.Sprintf("SleepState(%d)", uint8(s))
	}
}

// SleepStateFromName maps a state name back to its value. Used by the
// scenario API and the monitor; matching is exact.
func SleepStateFromName(name string) (SleepState, bool) {
	for s := StateRun; s <= StateWakeupS2; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return StateRun, false
}

// SleepInputs are the line levels the controller samples on one tick.
// RefLevel is the raw reference clock level before synchronization.
type SleepInputs struct {
	Event    bool // wake event line
	IRQ      bool // interrupt pending
	Busy     bool // core still has outstanding work
	RefLevel bool // slow reference clock
}

// SleepOutputs are the gating and handshake lines driven by the
// controller. All are pure functions of state, control register and
// current inputs.
type SleepOutputs struct {
	FetchEnable     bool // core may fetch instructions
	CoreClockGate   bool // core clock is gated off
	CoreSleeping    bool // core is in clock-gated sleep
	CoreExtSleeping bool // deep sleep or wake-up sequencing
	MemGateSmall    bool // small memory banks gated
	MemGateLarge    bool // large memory banks gated
	MemSleep        bool // memory retention mode
}

// SleepUnitConfig sets the reference clock rate and the per-stage
// wake-up delay. The delay is given in wall-clock terms and converted
// to reference edges, rounding up so the hold is never shorter than
// asked for.
type SleepUnitConfig struct {
	RefClockHz    uint64
	WakeupDelayNS uint64
}

// SleepSnapshot is a consistent view of the register file and outputs,
// taken under the unit lock.
type SleepSnapshot struct {
	State   SleepState
	Counter uint32
	Ctrl    uint32
	Status  uint32
	Edge    bool // synchronizer reported a reference edge this tick
	Out     SleepOutputs
}

// SleepUnit is the controller itself. Bus handlers and Tick may be
// called from different goroutines; all state is guarded by mu.
type SleepUnit struct {
	mu sync.Mutex

	state      SleepState
	counter    uint32
	delayTicks uint32

	ctrl    uint32
	wrValue uint32
	wrPend  bool

	syncer   ClockSync
	lastIn   SleepInputs
	lastEdge bool
}

// NewSleepUnit validates the config and returns a controller in RUN
// with everything cleared.
func NewSleepUnit(cfg SleepUnitConfig) (*SleepUnit, error) {
	if cfg.RefClockHz == 0 {
		return nil, fmt.Errorf("reference clock rate must be non-zero")
	}
	ticks := (cfg.RefClockHz*cfg.WakeupDelayNS + 999_999_999) / 1_000_000_000
	if ticks > 0xFFFFFFFF {
		return nil, fmt.Errorf("wake-up delay of %d ns needs %d reference edges, exceeds counter width", cfg.WakeupDelayNS, ticks)
	}
	return &SleepUnit{delayTicks: uint32(ticks)}, nil
}

// DelayTicks returns the number of reference edges each wake-up stage
// holds for.
func (u *SleepUnit) DelayTicks() uint32 {
	return u.delayTicks
}

// Tick advances the controller by one control clock cycle. Register
// updates land in a fixed order: the force-clear of consumed request
// bits first, then any bus write latched since the previous tick, so
// a colliding write wins the cycle. The state transition itself is
// computed from the control value registered before either update.
func (u *SleepUnit) Tick(in SleepInputs) {
	u.mu.Lock()
	defer u.mu.Unlock()

	edge := u.syncer.Sample(in.RefLevel)

	pre := stateOutputs(u.state, u.ctrl, in)
	nextCtrl := u.ctrl
	if pre.CoreSleeping || in.Event {
		nextCtrl &^= CTRL_SLEEP_ENABLE
	}
	if pre.CoreExtSleeping || in.Event {
		nextCtrl &^= CTRL_EXT_SLEEP_ENABLE
	}
	if u.wrPend {
		nextCtrl = u.wrValue
		u.wrPend = false
	}

	nextState, nextCount := u.transition(in, edge)

	u.state = nextState
	u.counter = nextCount
	u.ctrl = nextCtrl
	u.lastIn = in
	u.lastEdge = edge
}

// transition computes the next state and delay counter from the
// registered state and control value. Wake events dominate every
// competing condition.
func (u *SleepUnit) transition(in SleepInputs, edge bool) (SleepState, uint32) {
	switch u.state {
	case StateRun:
		if u.ctrl&CTRL_SLEEP_ENABLE != 0 && !in.Event {
			return StateShutdown, 0
		}
		return StateRun, 0

	case StateShutdown:
		if in.Event {
			return StateRun, 0
		}
		if !in.Busy && !in.IRQ {
			return StateSleep, 0
		}
		return StateShutdown, 0

	case StateSleep:
		if in.Event {
			return StateRun, 0
		}
		if in.IRQ {
			return StateShutdown, 0
		}
		if u.ctrl&CTRL_EXT_SLEEP_ENABLE != 0 {
			return StateExtSleep, 0
		}
		return StateSleep, 0

	case StateExtSleep:
		// The delay counter only runs during the wake-up stages;
		// reference edges seen here are not accumulated.
		if in.Event {
			return StateWakeupS1, 0
		}
		return StateExtSleep, 0

	case StateWakeupS1:
		c, done := u.advanceDelay(edge)
		if done {
			return StateWakeupS2, 0
		}
		return StateWakeupS1, c

	case StateWakeupS2:
		c, done := u.advanceDelay(edge)
		if done {
			return StateRun, 0
		}
		return StateWakeupS2, c

	default:
		// Not reachable through any defined transition. Recover to RUN.
		return StateRun, 0
	}
}

// advanceDelay accumulates one reference edge into the stage counter
// and reports whether the stage has held for DELAY_TICKS edges. The
// stored counter never exceeds DELAY_TICKS.
func (u *SleepUnit) advanceDelay(edge bool) (uint32, bool) {
	c := u.counter
	if edge {
		c++
	}
	if c >= u.delayTicks {
		return 0, true
	}
	return c, false
}

// stateOutputs derives the output lines for a state. Combinational:
// the fetch gate and the sleep clock gate also react to the current
// control bits and event line within the state.
func stateOutputs(state SleepState, ctrl uint32, in SleepInputs) SleepOutputs {
	switch state {
	case StateRun:
		return SleepOutputs{
			FetchEnable: !(ctrl&CTRL_SLEEP_ENABLE != 0 && !in.Event),
		}
	case StateShutdown:
		return SleepOutputs{}
	case StateSleep:
		return SleepOutputs{
			CoreClockGate: !in.Event,
			CoreSleeping:  true,
		}
	case StateExtSleep:
		return SleepOutputs{
			CoreClockGate:   true,
			CoreExtSleeping: true,
			MemGateSmall:    true,
			MemGateLarge:    true,
			MemSleep:        true,
		}
	case StateWakeupS1:
		return SleepOutputs{
			CoreClockGate:   true,
			CoreExtSleeping: true,
			MemGateLarge:    true,
			MemSleep:        true,
		}
	case StateWakeupS2:
		return SleepOutputs{
			CoreClockGate:   true,
			CoreExtSleeping: true,
			MemSleep:        true,
		}
	default:
		return SleepOutputs{
			FetchEnable: true,
			MemSleep:    true,
		}
	}
}

// statusBits packs the two architectural status flags.
func statusBits(o SleepOutputs) uint32 {
	var v uint32
	if o.CoreSleeping {
		v |= STATUS_SLEEP
	}
	if o.CoreExtSleeping {
		v |= STATUS_EXT_SLEEP
	}
	return v
}

// State returns the current controller state.
func (u *SleepUnit) State() SleepState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// Counter returns the current wake-up delay count.
func (u *SleepUnit) Counter() uint32 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.counter
}

// Outputs returns the output lines as of the last completed tick.
func (u *SleepUnit) Outputs() SleepOutputs {
	u.mu.Lock()
	defer u.mu.Unlock()
	return stateOutputs(u.state, u.ctrl, u.lastIn)
}

// Snapshot returns a consistent register-file view for tracing.
func (u *SleepUnit) Snapshot() SleepSnapshot {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := stateOutputs(u.state, u.ctrl, u.lastIn)
	return SleepSnapshot{
		State:   u.state,
		Counter: u.counter,
		Ctrl:    u.ctrl,
		Status:  statusBits(out),
		Edge:    u.lastEdge,
		Out:     out,
	}
}

// HandleRead services bus reads against the sleep unit register block.
// Offsets inside the block with no register read as zero.
func (u *SleepUnit) HandleRead(addr uint32) uint32 {
	u.mu.Lock()
	defer u.mu.Unlock()
	switch addr {
	case SLEEP_CTRL:
		// A write latched this cycle reads back immediately even
		// though the FSM will not see it until the next tick.
		if u.wrPend {
			return u.wrValue
		}
		return u.ctrl
	case SLEEP_STATUS:
		return statusBits(stateOutputs(u.state, u.ctrl, u.lastIn))
	default:
		return 0
	}
}

// HandleWrite services bus writes. SLEEP_CTRL writes replace the whole
// register at the end of the current tick; undefined bits are dropped.
// SLEEP_STATUS is read-only and writes to it are ignored.
func (u *SleepUnit) HandleWrite(addr uint32, value uint32) {
	u.mu.Lock()
	defer u.mu.Unlock()
	switch addr {
	case SLEEP_CTRL:
		u.wrValue = value & CTRL_WRITE_MASK
		u.wrPend = true
	}
}

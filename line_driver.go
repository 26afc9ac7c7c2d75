// line_driver.go - stimulus block driving the wake/abort lines

/*
(c) 2025 - 2026 BrainWave Project
https://github.com/brain-wave/apb-event-unit
License: GPLv3 or later
*/

package main

import "sync"

// LineDriver stands in for the SoC-side sources of the event, irq and
// busy lines. Scenarios, the monitor and the front panel drive it
// through its register block; the machine samples it once per tick.
//
// Each line has a level plus an optional pulse: a pulse write of N
// asserts the line for exactly N ticks on top of whatever the level
// is. Pulses are how scenarios model edge-style wake events without
// having to toggle levels by hand.
type LineDriver struct {
	mu sync.Mutex

	event bool
	irq   bool
	busy  bool

	eventPulse uint32
	irqPulse   uint32

	ticks uint64
}

func NewLineDriver() *LineDriver {
	return &LineDriver{}
}

// Sample returns the effective line levels for the current tick.
func (ld *LineDriver) Sample() (event, irq, busy bool) {
	ld.mu.Lock()
	defer ld.mu.Unlock()
	return ld.event || ld.eventPulse > 0, ld.irq || ld.irqPulse > 0, ld.busy
}

// Advance ends the current tick: active pulses burn down by one and
// the tick counter moves on. The machine calls this after the sleep
// unit has sampled, so a pulse of N is seen for exactly N ticks.
func (ld *LineDriver) Advance() {
	ld.mu.Lock()
	defer ld.mu.Unlock()
	if ld.eventPulse > 0 {
		ld.eventPulse--
	}
	if ld.irqPulse > 0 {
		ld.irqPulse--
	}
	ld.ticks++
}

// SetEvent sets the event line level.
func (ld *LineDriver) SetEvent(v bool) {
	ld.mu.Lock()
	defer ld.mu.Unlock()
	ld.event = v
}

// SetIRQ sets the interrupt line level.
func (ld *LineDriver) SetIRQ(v bool) {
	ld.mu.Lock()
	defer ld.mu.Unlock()
	ld.irq = v
}

// SetBusy sets the busy line level.
func (ld *LineDriver) SetBusy(v bool) {
	ld.mu.Lock()
	defer ld.mu.Unlock()
	ld.busy = v
}

// PulseEvent asserts the event line for n ticks.
func (ld *LineDriver) PulseEvent(n uint32) {
	ld.mu.Lock()
	defer ld.mu.Unlock()
	if n > ld.eventPulse {
		ld.eventPulse = n
	}
}

// PulseIRQ asserts the interrupt line for n ticks.
func (ld *LineDriver) PulseIRQ(n uint32) {
	ld.mu.Lock()
	defer ld.mu.Unlock()
	if n > ld.irqPulse {
		ld.irqPulse = n
	}
}

// Ticks returns how many ticks the driver has seen.
func (ld *LineDriver) Ticks() uint64 {
	ld.mu.Lock()
	defer ld.mu.Unlock()
	return ld.ticks
}

func (ld *LineDriver) stateBits() uint32 {
	var v uint32
	if ld.event || ld.eventPulse > 0 {
		v |= LINE_STATE_EVENT
	}
	if ld.irq || ld.irqPulse > 0 {
		v |= LINE_STATE_IRQ
	}
	if ld.busy {
		v |= LINE_STATE_BUSY
	}
	return v
}

// HandleRead services bus reads against the line driver block. The
// level registers read back the effective level, pulses included.
func (ld *LineDriver) HandleRead(addr uint32) uint32 {
	ld.mu.Lock()
	defer ld.mu.Unlock()
	switch addr {
	case LINE_EVENT:
		if ld.event || ld.eventPulse > 0 {
			return 1
		}
		return 0
	case LINE_IRQ:
		if ld.irq || ld.irqPulse > 0 {
			return 1
		}
		return 0
	case LINE_BUSY:
		if ld.busy {
			return 1
		}
		return 0
	case LINE_STATE:
		return ld.stateBits()
	case LINE_TICK_LO:
		return uint32(ld.ticks)
	case LINE_TICK_HI:
		return uint32(ld.ticks >> 32)
	default:
		return 0
	}
}

// HandleWrite services bus writes. Level registers take bit 0, pulse
// registers take a tick count. Everything else in the block ignores
// writes.
func (ld *LineDriver) HandleWrite(addr uint32, value uint32) {
	ld.mu.Lock()
	defer ld.mu.Unlock()
	switch addr {
	case LINE_EVENT:
		ld.event = value&1 != 0
	case LINE_IRQ:
		ld.irq = value&1 != 0
	case LINE_BUSY:
		ld.busy = value&1 != 0
	case LINE_EVENT_PULSE:
		if value > ld.eventPulse {
			ld.eventPulse = value
		}
	case LINE_IRQ_PULSE:
		if value > ld.irqPulse {
			ld.irqPulse = value
		}
	}
}

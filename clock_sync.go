// clock_sync.go - reference clock synchronizer and tick-domain clock model

/*
(c) 2025 - 2026 BrainWave Project
https://github.com/brain-wave/apb-event-unit
License: GPLv3 or later
*/

package main

import "fmt"

// ClockSync carries the slow reference clock into the control clock
// domain through a three-deep sample history and reports rising edges.
// An edge is only reported once the level has been seen high on two
// consecutive samples, so a one-sample glitch never makes it through.
type ClockSync struct {
	hist [3]bool // hist[0] newest
}

// Sample shifts level into the history and reports whether this sample
// completes a rising edge. The pulse is one sample wide: a level that
// stays high reports the edge exactly once.
func (cs *ClockSync) Sample(level bool) bool {
	cs.hist[2] = cs.hist[1]
	cs.hist[1] = cs.hist[0]
	cs.hist[0] = level
	return cs.hist[0] && cs.hist[1] && !cs.hist[2]
}

// Level returns the most recent synchronized sample.
func (cs *ClockSync) Level() bool {
	return cs.hist[0]
}

// Reset clears the sample history.
func (cs *ClockSync) Reset() {
	cs.hist = [3]bool{}
}

// RefClockGen models the slow reference oscillator as seen from the
// control clock domain: each control tick advances a phase accumulator
// and the output level toggles at the reference half-period. Standard
// DDS-style accumulator, exact for any integer ratio.
type RefClockGen struct {
	ctrlHz uint64
	refHz  uint64
	acc    uint64
	level  bool
}

// NewRefClockGen builds a generator producing a refHz square wave
// sampled at ctrlHz. The reference must be at most half the control
// rate or its edges cannot be represented.
func NewRefClockGen(ctrlHz, refHz uint64) (*RefClockGen, error) {
	if ctrlHz == 0 || refHz == 0 {
		return nil, fmt.Errorf("clock rates must be non-zero (ctrl=%d ref=%d)", ctrlHz, refHz)
	}
	if refHz*2 > ctrlHz {
		return nil, fmt.Errorf("reference clock %d Hz too fast for control clock %d Hz", refHz, ctrlHz)
	}
	return &RefClockGen{ctrlHz: ctrlHz, refHz: refHz}, nil
}

// Tick advances one control clock period and returns the reference
// level for this tick.
func (g *RefClockGen) Tick() bool {
	g.acc += 2 * g.refHz
	if g.acc >= g.ctrlHz {
		g.acc -= g.ctrlHz
		g.level = !g.level
	}
	return g.level
}

// Level returns the current reference level without advancing.
func (g *RefClockGen) Level() bool {
	return g.level
}

// trace.go - per-tick signal capture ring

/*
(c) 2025 - 2026 BrainWave Project
https://github.com/brain-wave/apb-event-unit
License: GPLv3 or later
*/

package main

import "sync"

// TickSample is the complete signal picture of one control clock
// cycle, captured after the tick commits.
type TickSample struct {
	Tick    uint64
	State   SleepState
	Counter uint32
	Ctrl    uint32
	Status  uint32

	Event    bool
	IRQ      bool
	Busy     bool
	RefLevel bool
	RefEdge  bool

	Out SleepOutputs
}

// TraceRecorder keeps the most recent ticks in a fixed ring. The
// machine records into it on every step; the monitor, front panel and
// the VCD writer read from it.
type TraceRecorder struct {
	mu   sync.RWMutex
	buf  []TickSample
	head int // next write slot
	size int // valid entries, <= len(buf)
}

// NewTraceRecorder builds a ring holding the last depth ticks.
func NewTraceRecorder(depth int) *TraceRecorder {
	if depth < 1 {
		depth = 1
	}
	return &TraceRecorder{buf: make([]TickSample, depth)}
}

// Depth returns the ring capacity.
func (tr *TraceRecorder) Depth() int {
	return len(tr.buf)
}

// Record appends one sample, overwriting the oldest once full.
func (tr *TraceRecorder) Record(s TickSample) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.buf[tr.head] = s
	tr.head = (tr.head + 1) % len(tr.buf)
	if tr.size < len(tr.buf) {
		tr.size++
	}
}

// Len returns the number of recorded samples.
func (tr *TraceRecorder) Len() int {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return tr.size
}

// Last returns the most recent sample, if any.
func (tr *TraceRecorder) Last() (TickSample, bool) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	if tr.size == 0 {
		return TickSample{}, false
	}
	idx := (tr.head - 1 + len(tr.buf)) % len(tr.buf)
	return tr.buf[idx], true
}

// Window returns up to n of the most recent samples, oldest first.
func (tr *TraceRecorder) Window(n int) []TickSample {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	if n > tr.size {
		n = tr.size
	}
	if n <= 0 {
		return nil
	}
	out := make([]TickSample, n)
	start := (tr.head - n + len(tr.buf)) % len(tr.buf)
	for i := 0; i < n; i++ {
		out[i] = tr.buf[(start+i)%len(tr.buf)]
	}
	return out
}

// Snapshot returns every recorded sample, oldest first.
func (tr *TraceRecorder) Snapshot() []TickSample {
	return tr.Window(tr.Len())
}

// trace_vcd.go - Value Change Dump export of recorded traces

/*
(c) 2025 - 2026 BrainWave Project
https://github.com/brain-wave/apb-event-unit
License: GPLv3 or later

Writes the trace ring out in VCD format so captures can be inspected
in GTKWave or any other waveform viewer next to the RTL they model.
Only changed signals are emitted per timestamp, per the format.
*/

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

type vcdSignal struct {
	name  string
	id    byte
	width int
	value func(s TickSample) uint64
}

func vcdBool(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// The signal set mirrors the controller's port list plus the state and
// counter internals.
func vcdSignals() []vcdSignal {
	return []vcdSignal{
		{"ref_clk", 'a', 1, func(s TickSample) uint64 { return vcdBool(s.RefLevel) }},
		{"ref_edge", 'b', 1, func(s TickSample) uint64 { return vcdBool(s.RefEdge) }},
		{"event", 'c', 1, func(s TickSample) uint64 { return vcdBool(s.Event) }},
		{"irq", 'd', 1, func(s TickSample) uint64 { return vcdBool(s.IRQ) }},
		{"busy", 'e', 1, func(s TickSample) uint64 { return vcdBool(s.Busy) }},
		{"fetch_enable", 'f', 1, func(s TickSample) uint64 { return vcdBool(s.Out.FetchEnable) }},
		{"core_clock_gate", 'g', 1, func(s TickSample) uint64 { return vcdBool(s.Out.CoreClockGate) }},
		{"core_sleeping", 'h', 1, func(s TickSample) uint64 { return vcdBool(s.Out.CoreSleeping) }},
		{"core_ext_sleeping", 'i', 1, func(s TickSample) uint64 { return vcdBool(s.Out.CoreExtSleeping) }},
		{"mem_gate_small", 'j', 1, func(s TickSample) uint64 { return vcdBool(s.Out.MemGateSmall) }},
		{"mem_gate_large", 'k', 1, func(s TickSample) uint64 { return vcdBool(s.Out.MemGateLarge) }},
		{"mem_sleep", 'l', 1, func(s TickSample) uint64 { return vcdBool(s.Out.MemSleep) }},
		{"sleep_ctrl", 'm', 2, func(s TickSample) uint64 { return uint64(s.Ctrl) }},
		{"sleep_status", 'n', 2, func(s TickSample) uint64 { return uint64(s.Status) }},
		{"state", 'o', 3, func(s TickSample) uint64 { return uint64(s.State) }},
		{"delay_count", 'p', 32, func(s TickSample) uint64 { return uint64(s.Counter) }},
	}
}

func vcdEmit(w io.Writer, sig vcdSignal, v uint64) {
	if sig.width == 1 {
		fmt.Fprintf(w, "%d%c\n", v, sig.id)
		return
	}
	fmt.Fprintf(w, "b%s %c\n", strconv.FormatUint(v, 2), sig.id)
}

// WriteVCD renders samples as a VCD stream. ctrlHz fixes the
// timescale: one tick becomes one control clock period, floored to a
// nanosecond for rates above 1 GHz.
func WriteVCD(w io.Writer, samples []TickSample, ctrlHz uint64) error {
	if len(samples) == 0 {
		return fmt.Errorf("no samples to write")
	}
	if ctrlHz == 0 {
		return fmt.Errorf("control clock rate must be non-zero")
	}
	nsPerTick := uint64(1_000_000_000) / ctrlHz
	if nsPerTick == 0 {
		nsPerTick = 1
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "$date\n  %s\n$end\n", time.Now().Format(time.RFC1123))
	fmt.Fprintf(bw, "$version\n  BrainWave apb-event-unit %s\n$end\n", Version)
	fmt.Fprintf(bw, "$timescale %dns $end\n", nsPerTick)
	fmt.Fprintf(bw, "$scope module sleep_unit $end\n")
	signals := vcdSignals()
	for _, sig := range signals {
		if sig.width == 1 {
			fmt.Fprintf(bw, "$var wire 1 %c %s $end\n", sig.id, sig.name)
		} else {
			fmt.Fprintf(bw, "$var wire %d %c %s [%d:0] $end\n", sig.width, sig.id, sig.name, sig.width-1)
		}
	}
	fmt.Fprintf(bw, "$upscope $end\n$enddefinitions $end\n")

	last := make([]uint64, len(signals))
	fmt.Fprintf(bw, "#%d\n$dumpvars\n", samples[0].Tick*nsPerTick)
	for i, sig := range signals {
		v := sig.value(samples[0])
		vcdEmit(bw, sig, v)
		last[i] = v
	}
	fmt.Fprintf(bw, "$end\n")

	for _, s := range samples[1:] {
		stamped := false
		for i, sig := range signals {
			v := sig.value(s)
			if v == last[i] {
				continue
			}
			if !stamped {
				fmt.Fprintf(bw, "#%d\n", s.Tick*nsPerTick)
				stamped = true
			}
			vcdEmit(bw, sig, v)
			last[i] = v
		}
	}
	// Closing timestamp so viewers show the full capture span.
	fmt.Fprintf(bw, "#%d\n", (samples[len(samples)-1].Tick+1)*nsPerTick)

	return bw.Flush()
}

// WriteVCDFile writes samples to path, creating or truncating it.
func WriteVCDFile(path string, samples []TickSample, ctrlHz uint64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteVCD(f, samples, ctrlHz); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestWriteVCDHeader verifies the declaration section: timescale from
// the control clock and one $var per signal.
func TestWriteVCDHeader(t *testing.T) {
	samples := []TickSample{
		{Tick: 0, State: StateRun, Out: SleepOutputs{FetchEnable: true}},
	}

	var buf bytes.Buffer
	if err := WriteVCD(&buf, samples, 50_000_000); err != nil {
		t.Fatalf("WriteVCD failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"$timescale 20ns $end",
		"$scope module sleep_unit $end",
		"$var wire 1 a ref_clk $end",
		"$var wire 1 f fetch_enable $end",
		"$var wire 2 m sleep_ctrl [1:0] $end",
		"$var wire 3 o state [2:0] $end",
		"$var wire 32 p delay_count [31:0] $end",
		"$enddefinitions $end",
		"$dumpvars",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("VCD output missing %q", want)
		}
	}
}

// TestWriteVCDChangeOnly verifies unchanged signals produce no
// emission and unchanged ticks produce no timestamp.
func TestWriteVCDChangeOnly(t *testing.T) {
	samples := []TickSample{
		{Tick: 0, State: StateRun},
		{Tick: 1, State: StateRun, Event: true},
		{Tick: 2, State: StateRun, Event: true},
	}

	var buf bytes.Buffer
	// 1 GHz control clock: one nanosecond per tick, so timestamps
	// equal tick numbers.
	if err := WriteVCD(&buf, samples, 1_000_000_000); err != nil {
		t.Fatalf("WriteVCD failed: %v", err)
	}
	out := buf.String()

	if got := strings.Count(out, "\n1c\n"); got != 1 {
		t.Errorf("event rise emitted %d times, expected 1", got)
	}
	if !strings.Contains(out, "#1\n") {
		t.Error("timestamp for the changed tick missing")
	}
	if strings.Contains(out, "#2\n") {
		t.Error("timestamp emitted for a tick with no changes")
	}
	// Closing timestamp one tick past the last sample.
	if !strings.Contains(out, "#3\n") {
		t.Error("closing timestamp missing")
	}
}

// TestWriteVCDMultiBitValues verifies vector signals use binary
// b-notation.
func TestWriteVCDMultiBitValues(t *testing.T) {
	samples := []TickSample{
		{Tick: 0, State: StateWakeupS2, Ctrl: 3, Counter: 5},
	}

	var buf bytes.Buffer
	if err := WriteVCD(&buf, samples, 1000); err != nil {
		t.Fatalf("WriteVCD failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"b101 o", // StateWakeupS2 = 5
		"b11 m",  // both control bits
		"b101 p", // counter value 5
	} {
		if !strings.Contains(out, want) {
			t.Errorf("VCD output missing %q", want)
		}
	}
}

// TestWriteVCDErrors verifies empty input and a zero clock rate are
// rejected.
func TestWriteVCDErrors(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteVCD(&buf, nil, 1000); err == nil {
		t.Error("WriteVCD accepted an empty sample list")
	}
	if err := WriteVCD(&buf, []TickSample{{}}, 0); err == nil {
		t.Error("WriteVCD accepted a zero control clock rate")
	}
}

// TestWriteVCDSubNanosecondClamp verifies rates above 1 GHz clamp the
// timescale to one nanosecond instead of zero.
func TestWriteVCDSubNanosecondClamp(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteVCD(&buf, []TickSample{{}}, 2_000_000_000); err != nil {
		t.Fatalf("WriteVCD failed: %v", err)
	}
	if !strings.Contains(buf.String(), "$timescale 1ns $end") {
		t.Error("timescale not clamped to 1ns")
	}
}

// TestWriteVCDFileFromMachineRun verifies a recorded machine trace
// lands on disk as a readable VCD file.
func TestWriteVCDFileFromMachineRun(t *testing.T) {
	m := newTestMachine(t)
	m.Bus().Write32(SLEEP_CTRL, CTRL_SLEEP_ENABLE)
	m.Run(8)

	path := filepath.Join(t.TempDir(), "trace.vcd")
	if err := WriteVCDFile(path, m.Trace().Snapshot(), m.Config().CtrlClockHz); err != nil {
		t.Fatalf("WriteVCDFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading VCD back failed: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "$dumpvars") {
		t.Error("written file has no $dumpvars section")
	}
	// The run descends into SLEEP, so the sleeping flag must rise
	// somewhere in the capture.
	if !strings.Contains(out, "\n1h\n") {
		t.Error("core_sleeping never rises in the capture")
	}
}

// TestWriteVCDFileBadPath verifies the error wraps the target path.
func TestWriteVCDFileBadPath(t *testing.T) {
	err := WriteVCDFile(filepath.Join(t.TempDir(), "missing", "trace.vcd"), []TickSample{{}}, 1000)
	if err == nil {
		t.Fatal("WriteVCDFile succeeded on a non-existent directory")
	}
	if !strings.Contains(err.Error(), "trace.vcd") {
		t.Errorf("error %q does not name the target file", err)
	}
}

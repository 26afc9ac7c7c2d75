package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestScenario(t *testing.T) (*ScenarioEnv, *Machine, *bytes.Buffer) {
	t.Helper()
	m, err := NewMachine(MachineConfig{
		CtrlClockHz:   1000,
		RefClockHz:    100,
		WakeupDelayNS: 20_000_000,
	})
	if err != nil {
		t.Fatalf("NewMachine failed: %v", err)
	}
	var out bytes.Buffer
	env := NewScenarioEnv(m, &out)
	t.Cleanup(env.Close)
	return env, m, &out
}

// TestScenarioSleepCycle runs the canonical light-sleep script against
// the register addresses firmware would use.
func TestScenarioSleepCycle(t *testing.T) {
	env, m, _ := newTestScenario(t)

	err := env.RunString(`
write32(0xF0000, 0x1)
step(3)
expect_state("SLEEP")
expect(status() == 1, "status should show sleep")
event(true)
step(1)
expect_state("RUN")
expect(status() == 0, "status should clear on wake")
`)
	if err != nil {
		t.Fatalf("scenario failed: %v", err)
	}
	if got := m.Unit().State(); got != StateRun {
		t.Fatalf("machine state = %v after scenario, expected RUN", got)
	}
}

// TestScenarioRunUntil verifies run_until reports the tick count and
// stops at the requested state.
func TestScenarioRunUntil(t *testing.T) {
	env, m, _ := newTestScenario(t)

	err := env.RunString(`
write32(0xF0000, 0x3)
local n = run_until("EXT_SLEEP", 20)
expect(n == 4, "descent should take 4 ticks, took " .. n)
expect(run_until("EXT_SLEEP") == 0, "already there")
event(true)
run_until("RUN", 200)
event(false)
`)
	if err != nil {
		t.Fatalf("scenario failed: %v", err)
	}
	if got := m.Unit().State(); got != StateRun {
		t.Fatalf("machine state = %v, expected RUN", got)
	}
}

// TestScenarioExpectFailure verifies a failed expectation surfaces as
// an error with the message and tick context.
func TestScenarioExpectFailure(t *testing.T) {
	env, _, _ := newTestScenario(t)

	err := env.RunString(`
step(2)
expect(false, "deliberate failure")
`)
	if err == nil {
		t.Fatal("failing expectation did not error")
	}
	if !strings.Contains(err.Error(), "deliberate failure") {
		t.Errorf("error %q does not carry the message", err)
	}
	if !strings.Contains(err.Error(), "tick 2") {
		t.Errorf("error %q does not carry the tick", err)
	}
}

// TestScenarioExpectStateMismatch verifies expect_state names both
// states in its error.
func TestScenarioExpectStateMismatch(t *testing.T) {
	env, _, _ := newTestScenario(t)

	err := env.RunString(`expect_state("SLEEP")`)
	if err == nil {
		t.Fatal("expect_state passed in the wrong state")
	}
	if !strings.Contains(err.Error(), "SLEEP") || !strings.Contains(err.Error(), "RUN") {
		t.Errorf("error %q does not name expected and actual state", err)
	}
}

// TestScenarioUnknownState verifies run_until and expect_state reject
// names outside the state set.
func TestScenarioUnknownState(t *testing.T) {
	env, _, _ := newTestScenario(t)

	if err := env.RunString(`run_until("NAP", 10)`); err == nil {
		t.Error("run_until accepted an unknown state name")
	}
	if err := env.RunString(`expect_state("NAP")`); err == nil {
		t.Error("expect_state accepted an unknown state name")
	}
}

// TestScenarioRunUntilTimeout verifies the tick bound is enforced.
func TestScenarioRunUntilTimeout(t *testing.T) {
	env, _, _ := newTestScenario(t)

	// Nothing requests sleep, so SLEEP is unreachable.
	err := env.RunString(`run_until("SLEEP", 10)`)
	if err == nil {
		t.Fatal("run_until returned without reaching the state")
	}
	if !strings.Contains(err.Error(), "within 10 ticks") {
		t.Errorf("timeout error = %q", err)
	}
}

// TestScenarioOutputsTable verifies the outputs helper exposes the
// gating lines to scripts.
func TestScenarioOutputsTable(t *testing.T) {
	env, _, _ := newTestScenario(t)

	err := env.RunString(`
write32(0xF0000, 0x1)
step(3)
local o = outputs()
expect(o.core_sleeping, "core_sleeping should be set in SLEEP")
expect(o.core_clock_gate, "clock should be gated in SLEEP")
expect(not o.fetch_enable, "fetch should be disabled in SLEEP")
expect(not o.mem_sleep, "memories stay powered in light sleep")
`)
	if err != nil {
		t.Fatalf("scenario failed: %v", err)
	}
}

// TestScenarioPulseWake verifies a one-tick pulse wakes the unit and
// expires on its own.
func TestScenarioPulseWake(t *testing.T) {
	env, _, _ := newTestScenario(t)

	err := env.RunString(`
write32(0xF0000, 0x1)
run_until("SLEEP", 10)
pulse_event(1)
step(1)
expect_state("RUN")
expect(read32(0xF0100) == 0, "pulse should have expired")
`)
	if err != nil {
		t.Fatalf("scenario failed: %v", err)
	}
}

// TestScenarioCounterAndDelay verifies the wake-up counter helpers
// track a staged wake.
func TestScenarioCounterAndDelay(t *testing.T) {
	env, _, _ := newTestScenario(t)

	err := env.RunString(`
expect(delay_ticks() == 2, "config should give 2 edges per stage")
write32(0xF0000, 0x3)
run_until("EXT_SLEEP", 20)
expect(counter() == 0, "counter parked in EXT_SLEEP")
event(true)
run_until("WAKEUP_S2", 100)
run_until("RUN", 100)
expect(counter() == 0, "counter cleared after wake")
`)
	if err != nil {
		t.Fatalf("scenario failed: %v", err)
	}
}

// TestScenarioResetHelper verifies reset() takes the machine back to
// power-on from inside a script.
func TestScenarioResetHelper(t *testing.T) {
	env, m, _ := newTestScenario(t)

	err := env.RunString(`
write32(0xF0000, 0x3)
run_until("EXT_SLEEP", 20)
reset()
expect_state("RUN")
expect(tick() == 0, "tick counter should clear")
expect(ctrl() == 0, "control register should clear")
`)
	if err != nil {
		t.Fatalf("scenario failed: %v", err)
	}
	if got := m.TickCount(); got != 0 {
		t.Fatalf("TickCount = %d after scripted reset, expected 0", got)
	}
}

// TestScenarioLog verifies log lines reach the configured writer.
func TestScenarioLog(t *testing.T) {
	env, _, out := newTestScenario(t)

	if err := env.RunString(`log("hello from lua")`); err != nil {
		t.Fatalf("scenario failed: %v", err)
	}
	if got := out.String(); got != "[scenario] hello from lua\n" {
		t.Fatalf("log output = %q", got)
	}
}

// TestScenarioDumpVCD verifies a script can export its own trace.
func TestScenarioDumpVCD(t *testing.T) {
	env, _, _ := newTestScenario(t)

	path := filepath.Join(t.TempDir(), "scenario.vcd")
	err := env.RunString(fmt.Sprintf(`
write32(0xF0000, 0x1)
step(5)
dump_vcd(%q)
`, path))
	if err != nil {
		t.Fatalf("scenario failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading dump failed: %v", err)
	}
	if !strings.Contains(string(data), "$dumpvars") {
		t.Error("dumped file has no $dumpvars section")
	}
}

// TestScenarioRunFile verifies scripts load from disk.
func TestScenarioRunFile(t *testing.T) {
	env, _, _ := newTestScenario(t)

	path := filepath.Join(t.TempDir(), "case.lua")
	script := "write32(0xF0000, 0x1)\nstep(3)\nexpect_state(\"SLEEP\")\n"
	if err := os.WriteFile(path, []byte(script), 0644); err != nil {
		t.Fatalf("writing script failed: %v", err)
	}
	if err := env.RunFile(path); err != nil {
		t.Fatalf("RunFile failed: %v", err)
	}
}

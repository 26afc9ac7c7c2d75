// scenario_lua.go - Lua-scripted test scenarios

/*
(c) 2025 - 2026 BrainWave Project
https://github.com/brain-wave/apb-event-unit
License: GPLv3 or later

Scenario scripts drive the machine tick by tick through the same bus
the firmware would use, and assert on what they see. A minimal one:

  write32(0xF0000, 0x1)      -- request sleep
  step(3)
  expect_state("SLEEP")
  event(true)
  step(1)
  expect_state("RUN")
  dump_vcd("out.vcd")

Scripts run in a plain Lua 5.1 environment with the helpers below
registered as globals. expect() and expect_state() raise Lua errors,
which surface as a non-zero exit from scenario mode.
*/

package main

import (
	"fmt"
	"io"

	lua "github.com/yuin/gopher-lua"
)

// ScenarioEnv binds a machine to a Lua interpreter.
type ScenarioEnv struct {
	machine *Machine
	L       *lua.LState
	out     io.Writer
}

// NewScenarioEnv builds the interpreter and registers the scenario
// API. Close it when done.
func NewScenarioEnv(m *Machine, out io.Writer) *ScenarioEnv {
	env := &ScenarioEnv{
		machine: m,
		L:       lua.NewState(),
		out:     out,
	}
	env.register()
	return env
}

// Close shuts down the interpreter.
func (env *ScenarioEnv) Close() {
	env.L.Close()
}

// RunFile executes a scenario script from disk.
func (env *ScenarioEnv) RunFile(path string) error {
	return env.L.DoFile(path)
}

// RunString executes scenario source directly. Used by tests and the
// monitor's one-liner command.
func (env *ScenarioEnv) RunString(src string) error {
	return env.L.DoString(src)
}

func (env *ScenarioEnv) register() {
	L := env.L
	bus := env.machine.Bus()

	setBool := func(addr uint32) lua.LGFunction {
		return func(L *lua.LState) int {
			var v uint32
			if L.CheckBool(1) {
				v = 1
			}
			bus.Write32(addr, v)
			return 0
		}
	}
	pushNum := func(fn func() uint32) lua.LGFunction {
		return func(L *lua.LState) int {
			L.Push(lua.LNumber(fn()))
			return 1
		}
	}

	L.SetGlobal("step", L.NewFunction(func(L *lua.LState) int {
		n := L.OptInt(1, 1)
		if n < 1 {
			n = 1
		}
		s := env.machine.Run(n)
		L.Push(lua.LString(s.State.String()))
		return 1
	}))

	L.SetGlobal("run_until", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		max := L.OptInt(2, 100000)
		want, ok := SleepStateFromName(name)
		if !ok {
			L.RaiseError("unknown state %q", name)
			return 0
		}
		if env.machine.Unit().State() == want {
			L.Push(lua.LNumber(0))
			return 1
		}
		for i := 1; i <= max; i++ {
			if env.machine.Step().State == want {
				L.Push(lua.LNumber(i))
				return 1
			}
		}
		L.RaiseError("state %s not reached within %d ticks", name, max)
		return 0
	}))

	L.SetGlobal("write32", L.NewFunction(func(L *lua.LState) int {
		bus.Write32(uint32(L.CheckInt64(1)), uint32(L.CheckInt64(2)))
		return 0
	}))

	L.SetGlobal("read32", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(bus.Read32(uint32(L.CheckInt64(1)))))
		return 1
	}))

	L.SetGlobal("event", L.NewFunction(setBool(LINE_EVENT)))
	L.SetGlobal("irq", L.NewFunction(setBool(LINE_IRQ)))
	L.SetGlobal("busy", L.NewFunction(setBool(LINE_BUSY)))

	L.SetGlobal("pulse_event", L.NewFunction(func(L *lua.LState) int {
		bus.Write32(LINE_EVENT_PULSE, uint32(L.CheckInt64(1)))
		return 0
	}))

	L.SetGlobal("pulse_irq", L.NewFunction(func(L *lua.LState) int {
		bus.Write32(LINE_IRQ_PULSE, uint32(L.CheckInt64(1)))
		return 0
	}))

	L.SetGlobal("state", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(env.machine.Unit().State().String()))
		return 1
	}))

	L.SetGlobal("counter", L.NewFunction(pushNum(env.machine.Unit().Counter)))
	L.SetGlobal("delay_ticks", L.NewFunction(pushNum(env.machine.Unit().DelayTicks)))
	L.SetGlobal("ctrl", L.NewFunction(pushNum(func() uint32 { return bus.Read32(SLEEP_CTRL) })))
	L.SetGlobal("status", L.NewFunction(pushNum(func() uint32 { return bus.Read32(SLEEP_STATUS) })))

	L.SetGlobal("tick", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(env.machine.TickCount()))
		return 1
	}))

	L.SetGlobal("outputs", L.NewFunction(func(L *lua.LState) int {
		o := env.machine.Unit().Outputs()
		t := L.NewTable()
		L.SetField(t, "fetch_enable", lua.LBool(o.FetchEnable))
		L.SetField(t, "core_clock_gate", lua.LBool(o.CoreClockGate))
		L.SetField(t, "core_sleeping", lua.LBool(o.CoreSleeping))
		L.SetField(t, "core_ext_sleeping", lua.LBool(o.CoreExtSleeping))
		L.SetField(t, "mem_gate_small", lua.LBool(o.MemGateSmall))
		L.SetField(t, "mem_gate_large", lua.LBool(o.MemGateLarge))
		L.SetField(t, "mem_sleep", lua.LBool(o.MemSleep))
		L.Push(t)
		return 1
	}))

	L.SetGlobal("expect", L.NewFunction(func(L *lua.LState) int {
		if !L.CheckBool(1) {
			msg := L.OptString(2, "expectation failed")
			L.RaiseError("%s (tick %d, state %s)", msg, env.machine.TickCount(), env.machine.Unit().State())
		}
		return 0
	}))

	L.SetGlobal("expect_state", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		if _, ok := SleepStateFromName(name); !ok {
			L.RaiseError("unknown state %q", name)
			return 0
		}
		got := env.machine.Unit().State().String()
		if got != name {
			L.RaiseError("expected state %s, got %s (tick %d)", name, got, env.machine.TickCount())
		}
		return 0
	}))

	L.SetGlobal("reset", L.NewFunction(func(L *lua.LState) int {
		env.machine.HardReset()
		return 0
	}))

	L.SetGlobal("dump_vcd", L.NewFunction(func(L *lua.LState) int {
		path := L.CheckString(1)
		samples := env.machine.Trace().Snapshot()
		if err := WriteVCDFile(path, samples, env.machine.Config().CtrlClockHz); err != nil {
			L.RaiseError("dump_vcd: %v", err)
		}
		return 0
	}))

	L.SetGlobal("log", L.NewFunction(func(L *lua.LState) int {
		fmt.Fprintf(env.out, "[scenario] %s\n", L.CheckString(1))
		return 0
	}))
}

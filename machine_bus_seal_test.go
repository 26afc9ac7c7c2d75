package main

import "testing"

func expectPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic, got none")
		}
	}()
	fn()
}

func TestMachineBus_SealPanicsOnLateMapIO(t *testing.T) {
	bus := NewMachineBus()
	bus.SealMappings()

	expectPanic(t, func() {
		bus.MapIO(0xF0200, 0xF02FF, nil, nil)
	})
}

// TestMachineBus_SealedByFirstStep verifies the machine seals its bus
// on the first step, so device wiring after the clock has started is
// caught immediately.
func TestMachineBus_SealedByFirstStep(t *testing.T) {
	m, err := NewMachine(MachineConfig{
		CtrlClockHz: 1000,
		RefClockHz:  100,
	})
	if err != nil {
		t.Fatalf("NewMachine failed: %v", err)
	}
	m.Step()

	expectPanic(t, func() {
		m.Bus().MapIO(0xF0200, 0xF02FF, nil, nil)
	})
}

// TestMachineBus_SealIdempotent verifies sealing twice is harmless.
func TestMachineBus_SealIdempotent(t *testing.T) {
	bus := NewMachineBus()
	bus.SealMappings()
	bus.SealMappings()
}

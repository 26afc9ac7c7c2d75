//go:build headless

package main

import "testing"

// TestHeadlessPanelLifecycle verifies the stub backend satisfies the
// panel contract: start, reconfigure, stop, done signalling.
func TestHeadlessPanelLifecycle(t *testing.T) {
	m, err := NewMachine(MachineConfig{})
	if err != nil {
		t.Fatalf("NewMachine failed: %v", err)
	}

	panel, err := NewPanelOutput(PANEL_BACKEND_EBITEN, m)
	if err != nil {
		t.Fatalf("NewPanelOutput failed: %v", err)
	}
	if panel.IsStarted() {
		t.Fatal("panel reports started before Start")
	}

	if err := panel.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !panel.IsStarted() {
		t.Fatal("panel not started after Start")
	}

	cfg := panel.GetPanelConfig()
	if cfg.Width == 0 || cfg.Height == 0 || cfg.Title == "" {
		t.Fatalf("default config incomplete: %+v", cfg)
	}
	cfg.HistoryTicks = 100
	if err := panel.SetPanelConfig(cfg); err != nil {
		t.Fatalf("SetPanelConfig failed: %v", err)
	}
	if got := panel.GetPanelConfig().HistoryTicks; got != 100 {
		t.Fatalf("HistoryTicks = %d after SetPanelConfig, expected 100", got)
	}

	if err := panel.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	select {
	case <-panel.Done():
	default:
		t.Fatal("Done() not closed after Stop")
	}

	// Stop again must be a no-op.
	if err := panel.Stop(); err != nil {
		t.Fatalf("second Stop failed: %v", err)
	}
}

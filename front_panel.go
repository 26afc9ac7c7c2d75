// front_panel.go - front panel interface and backend selection

/*
(c) 2025 - 2026 BrainWave Project
https://github.com/brain-wave/apb-event-unit
License: GPLv3 or later

The front panel is a logic-analyzer style view of the machine: one
lane per signal, scrolling with the trace ring, with the keyboard
driving the same bus operations the monitor exposes. Backends hide
the windowing details; the headless build swaps in a stub so the
panel code path stays linkable on CI boxes with no display.
*/

package main

import "fmt"

// PanelError provides context when a panel operation fails.
type PanelError struct {
	Operation string // Operation that failed
	Details   string // Human-readable details
	Err       error  // Underlying error, if any
}

func (e *PanelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("panel %s failed: %s: %v", e.Operation, e.Details, e.Err)
	}
	return fmt.Sprintf("panel %s failed: %s", e.Operation, e.Details)
}

// PanelConfig is the backend-independent panel geometry.
type PanelConfig struct {
	Width        int    // window width in pixels
	Height       int    // window height in pixels
	HistoryTicks int    // trace ticks visible across the lane area
	Title        string // window title
}

// PanelOutput is the minimal surface a panel backend must implement.
type PanelOutput interface {
	Start() error
	Stop() error
	IsStarted() bool

	SetPanelConfig(config PanelConfig) error
	GetPanelConfig() PanelConfig

	// Done is closed when the panel window has shut down.
	Done() <-chan struct{}
}

// Predefined panel backend types
const (
	PANEL_BACKEND_EBITEN = iota // Pure Go Ebiten backend
)

// NewPanelOutput creates a panel for the machine using the specified
// backend.
func NewPanelOutput(backend int, m *Machine) (PanelOutput, error) {
	switch backend {
	case PANEL_BACKEND_EBITEN:
		return NewEbitenPanel(m)
	default:
		return nil, &PanelError{
			Operation: "initialization",
			Details:   fmt.Sprintf("unsupported panel backend: %d", backend),
		}
	}
}

//go:build headless

package main

func init() {
	compiledFeatures = append(compiledFeatures, "panel:headless")
}

// HeadlessPanel satisfies PanelOutput without opening a window. Keeps
// the panel code path linkable on display-less build hosts.
type HeadlessPanel struct {
	machine *Machine
	started bool
	config  PanelConfig
	done    chan struct{}
}

func NewEbitenPanel(m *Machine) (PanelOutput, error) {
	return &HeadlessPanel{
		machine: m,
		config: PanelConfig{
			Width:        640,
			Height:       344,
			HistoryTicks: 520,
			Title:        "BrainWave Sleep Unit",
		},
		done: make(chan struct{}),
	}, nil
}

func (h *HeadlessPanel) Start() error {
	h.started = true
	return nil
}

func (h *HeadlessPanel) Stop() error {
	if h.started {
		h.started = false
		close(h.done)
	}
	return nil
}

func (h *HeadlessPanel) IsStarted() bool {
	return h.started
}

func (h *HeadlessPanel) SetPanelConfig(config PanelConfig) error {
	h.config = config
	return nil
}

func (h *HeadlessPanel) GetPanelConfig() PanelConfig {
	return h.config
}

func (h *HeadlessPanel) Done() <-chan struct{} {
	return h.done
}

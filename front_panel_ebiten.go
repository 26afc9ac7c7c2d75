//go:build !headless

// front_panel_ebiten.go - Ebiten front panel backend

/*
(c) 2025 - 2026 BrainWave Project
https://github.com/brain-wave/apb-event-unit
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"image/color"
	"strings"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.design/x/clipboard"
	"golang.org/x/image/font/basicfont"
)

func init() {
	compiledFeatures = append(compiledFeatures, "panel:ebiten")
}

const (
	panelLabelWidth = 110
	panelLaneHeight = 28
	panelBarHeight  = 36
)

// Lane classes pick the trace color.
const (
	laneClock = iota
	laneInput
	laneOutput
)

type panelLane struct {
	name  string
	class int
	value func(s TickSample) bool
}

func panelLanes() []panelLane {
	return []panelLane{
		{"ref_clk", laneClock, func(s TickSample) bool { return s.RefLevel }},
		{"event", laneInput, func(s TickSample) bool { return s.Event }},
		{"irq", laneInput, func(s TickSample) bool { return s.IRQ }},
		{"busy", laneInput, func(s TickSample) bool { return s.Busy }},
		{"fetch_en", laneOutput, func(s TickSample) bool { return s.Out.FetchEnable }},
		{"clk_gate", laneOutput, func(s TickSample) bool { return s.Out.CoreClockGate }},
		{"sleeping", laneOutput, func(s TickSample) bool { return s.Out.CoreSleeping }},
		{"ext_sleep", laneOutput, func(s TickSample) bool { return s.Out.CoreExtSleeping }},
		{"mem_small", laneOutput, func(s TickSample) bool { return s.Out.MemGateSmall }},
		{"mem_large", laneOutput, func(s TickSample) bool { return s.Out.MemGateLarge }},
		{"mem_sleep", laneOutput, func(s TickSample) bool { return s.Out.MemSleep }},
	}
}

// EbitenPanel renders the lanes into a CPU-side RGBA buffer each
// frame and pushes it to the GPU whole. Keyboard input maps onto bus
// operations, mirroring the monitor's key set.
type EbitenPanel struct {
	machine *Machine

	mu      sync.RWMutex
	config  PanelConfig
	running bool
	done    chan struct{}

	lanes       []panelLane
	wave        *ebiten.Image
	frameBuffer []byte
	vsyncChan   chan struct{}

	clipboardOnce sync.Once
	clipboardOK   bool

	flashMsg    string
	flashFrames int
}

// NewEbitenPanel builds a panel over the machine with the default
// geometry. Height follows the lane count.
func NewEbitenPanel(m *Machine) (PanelOutput, error) {
	lanes := panelLanes()
	cfg := PanelConfig{
		Width:        640,
		Height:       len(lanes)*panelLaneHeight + panelBarHeight,
		HistoryTicks: 640 - panelLabelWidth - 10,
		Title:        "BrainWave Sleep Unit",
	}
	return &EbitenPanel{
		machine:   m,
		config:    cfg,
		lanes:     lanes,
		done:      make(chan struct{}),
		vsyncChan: make(chan struct{}, 1),
	}, nil
}

func (ep *EbitenPanel) Start() error {
	ep.mu.Lock()
	if ep.running {
		ep.mu.Unlock()
		return nil
	}
	ep.running = true
	ep.done = make(chan struct{})
	cfg := ep.config
	done := ep.done
	ep.mu.Unlock()

	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetVsyncEnabled(true)

	go func() {
		defer func() {
			ep.mu.Lock()
			ep.running = false
			done := ep.done
			ep.mu.Unlock()
			select {
			case <-done:
			default:
				close(done)
			}
		}()
		if err := ebiten.RunGame(ep); err != nil && err != ebiten.Termination {
			fmt.Printf("Panel error: %v\n", err)
		}
	}()

	// Wait for the first Draw so callers know the window is up.
	select {
	case <-ep.vsyncChan:
	case <-done:
		return &PanelError{Operation: "start", Details: "window failed to open"}
	}
	return nil
}

func (ep *EbitenPanel) Stop() error {
	ep.mu.Lock()
	ep.running = false
	ep.mu.Unlock()
	return nil
}

func (ep *EbitenPanel) IsStarted() bool {
	ep.mu.RLock()
	defer ep.mu.RUnlock()
	return ep.running
}

func (ep *EbitenPanel) Done() <-chan struct{} {
	ep.mu.RLock()
	defer ep.mu.RUnlock()
	return ep.done
}

func (ep *EbitenPanel) SetPanelConfig(config PanelConfig) error {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	if ep.running {
		return &PanelError{Operation: "configuration", Details: "panel already started"}
	}
	if config.Width < panelLabelWidth+64 || config.Height < panelBarHeight+panelLaneHeight {
		return &PanelError{Operation: "configuration",
			Details: fmt.Sprintf("window %dx%d too small", config.Width, config.Height)}
	}
	if config.HistoryTicks <= 0 {
		config.HistoryTicks = config.Width - panelLabelWidth - 10
	}
	if config.Title == "" {
		config.Title = ep.config.Title
	}
	ep.config = config
	ep.wave = nil
	ep.frameBuffer = nil
	return nil
}

func (ep *EbitenPanel) GetPanelConfig() PanelConfig {
	ep.mu.RLock()
	defer ep.mu.RUnlock()
	return ep.config
}

func (ep *EbitenPanel) flash(msg string) {
	ep.flashMsg = msg
	ep.flashFrames = 180
}

func (ep *EbitenPanel) Update() error {
	if ebiten.IsWindowBeingClosed() {
		ep.machine.Stop()
		return ebiten.Termination
	}
	ep.mu.RLock()
	running := ep.running
	ep.mu.RUnlock()
	if !running {
		ep.machine.Stop()
		return ebiten.Termination
	}

	m := ep.machine
	bus := m.Bus()

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyQ), inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		m.Stop()
		return ebiten.Termination

	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		if m.IsRunning() {
			m.Stop()
			ep.flash("free run stopped")
		} else if err := m.Start(); err == nil {
			ep.flash(fmt.Sprintf("free run %d ticks/s", m.Config().FreeRunHz))
		}

	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		m.Step()
	case inpututil.IsKeyJustPressed(ebiten.KeyN):
		m.Run(10)

	case inpututil.IsKeyJustPressed(ebiten.KeyE):
		bus.Write32(LINE_EVENT, bus.Read32(LINE_EVENT)^1)
	case inpututil.IsKeyJustPressed(ebiten.KeyI):
		bus.Write32(LINE_IRQ, bus.Read32(LINE_IRQ)^1)
	case inpututil.IsKeyJustPressed(ebiten.KeyB):
		bus.Write32(LINE_BUSY, bus.Read32(LINE_BUSY)^1)
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		bus.Write32(LINE_EVENT_PULSE, 1)
		ep.flash("event pulse")

	case inpututil.IsKeyJustPressed(ebiten.KeyDigit1):
		bus.Write32(SLEEP_CTRL, CTRL_SLEEP_ENABLE)
		ep.flash("sleep requested")
	case inpututil.IsKeyJustPressed(ebiten.KeyDigit2):
		bus.Write32(SLEEP_CTRL, CTRL_SLEEP_ENABLE|CTRL_EXT_SLEEP_ENABLE)
		ep.flash("deep sleep requested")
	case inpututil.IsKeyJustPressed(ebiten.KeyDigit0):
		bus.Write32(SLEEP_CTRL, 0)
		ep.flash("control cleared")

	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		wasRunning := m.IsRunning()
		if wasRunning {
			m.Stop()
		}
		m.HardReset()
		if wasRunning {
			_ = m.Start()
		}
		ep.flash("hard reset")

	case inpututil.IsKeyJustPressed(ebiten.KeyV):
		samples := m.Trace().Snapshot()
		if err := WriteVCDFile("panel.vcd", samples, m.Config().CtrlClockHz); err != nil {
			ep.flash(fmt.Sprintf("vcd: %v", err))
		} else {
			ep.flash(fmt.Sprintf("wrote %d samples to panel.vcd", len(samples)))
		}

	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		ep.copyTraceToClipboard()
	}

	return nil
}

// copyTraceToClipboard puts the status line and the visible trace
// window on the system clipboard as text.
func (ep *EbitenPanel) copyTraceToClipboard() {
	ep.clipboardOnce.Do(func() {
		ep.clipboardOK = clipboard.Init() == nil
	})
	if !ep.clipboardOK {
		ep.flash("clipboard unavailable")
		return
	}

	var sb strings.Builder
	sb.WriteString(ep.machine.StatusLine())
	sb.WriteString("\n")
	b := func(v bool) int {
		if v {
			return 1
		}
		return 0
	}
	for _, s := range ep.machine.Trace().Window(64) {
		fmt.Fprintf(&sb, "%8d %-9s ctrl=%02b st=%02b cnt=%d E%d I%d B%d f%d g%d s%d x%d m%d%d%d\n",
			s.Tick, s.State, s.Ctrl, s.Status, s.Counter,
			b(s.Event), b(s.IRQ), b(s.Busy),
			b(s.Out.FetchEnable), b(s.Out.CoreClockGate), b(s.Out.CoreSleeping), b(s.Out.CoreExtSleeping),
			b(s.Out.MemGateSmall), b(s.Out.MemGateLarge), b(s.Out.MemSleep))
	}
	clipboard.Write(clipboard.FmtText, []byte(sb.String()))
	ep.flash("trace copied")
}

var (
	panelBG        = color.RGBA{0x10, 0x14, 0x20, 0xFF}
	panelGrid      = color.RGBA{0x28, 0x30, 0x40, 0xFF}
	panelBar       = color.RGBA{0x00, 0x00, 0x00, 0xB4}
	panelLabelCol  = color.RGBA{190, 190, 190, 255}
	panelActiveCol = color.RGBA{0, 220, 90, 255}
	panelLegendCol = color.RGBA{160, 160, 160, 255}
)

func laneColor(class int) [3]byte {
	switch class {
	case laneClock:
		return [3]byte{0x30, 0xC8, 0xFF}
	case laneInput:
		return [3]byte{0xFF, 0xB4, 0x30}
	default:
		return [3]byte{0x00, 0xDC, 0x5A}
	}
}

func (ep *EbitenPanel) Draw(screen *ebiten.Image) {
	ep.mu.Lock()
	cfg := ep.config
	waveW := cfg.Width - panelLabelWidth
	waveH := len(ep.lanes) * panelLaneHeight
	if ep.wave == nil {
		ep.wave = ebiten.NewImage(waveW, waveH)
		ep.frameBuffer = make([]byte, waveW*waveH*4)
	}
	ticks := cfg.HistoryTicks
	if ticks > waveW {
		ticks = waveW
	}
	samples := ep.machine.Trace().Window(ticks)
	ep.rasterizeLanes(samples, waveW, waveH)
	ep.wave.WritePixels(ep.frameBuffer)
	flashMsg := ep.flashMsg
	if ep.flashFrames > 0 {
		ep.flashFrames--
		if ep.flashFrames == 0 {
			ep.flashMsg = ""
		}
	}
	ep.mu.Unlock()

	screen.Fill(panelBG)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(panelLabelWidth, 0)
	screen.DrawImage(ep.wave, op)

	// Lane labels, lit when the signal is currently high.
	var last TickSample
	if len(samples) > 0 {
		last = samples[len(samples)-1]
	}
	face := basicfont.Face7x13
	for i, lane := range ep.lanes {
		y := i*panelLaneHeight + 18
		c := panelLabelCol
		if len(samples) > 0 && lane.value(last) {
			c = panelActiveCol
		}
		text.Draw(screen, lane.name, face, 6, y, c)
		ebitenutil.DrawRect(screen, 0, float64((i+1)*panelLaneHeight-1), float64(cfg.Width), 1, panelGrid)
	}

	// Status bar.
	barY := len(ep.lanes) * panelLaneHeight
	ebitenutil.DrawRect(screen, 0, float64(barY), float64(cfg.Width), panelBarHeight, panelBar)
	status := ep.machine.StatusLine()
	if flashMsg != "" {
		status = status + "   [" + flashMsg + "]"
	}
	text.Draw(screen, status, face, 6, barY+14, panelLabelCol)
	legend := "space run  s/n step  e/i/b lines  p pulse  1/2/0 ctrl  c copy  v vcd  r reset  q quit"
	text.Draw(screen, legend, face, 6, barY+30, panelLegendCol)

	select {
	case ep.vsyncChan <- struct{}{}:
	default:
	}
}

// rasterizeLanes draws the sample window into the RGBA frame buffer,
// newest tick at the right edge. Caller holds mu.
func (ep *EbitenPanel) rasterizeLanes(samples []TickSample, waveW, waveH int) {
	buf := ep.frameBuffer
	for i := 0; i < len(buf); i += 4 {
		buf[i+0] = panelBG.R
		buf[i+1] = panelBG.G
		buf[i+2] = panelBG.B
		buf[i+3] = 0xFF
	}

	setPx := func(x, y int, c [3]byte) {
		if x < 0 || x >= waveW || y < 0 || y >= waveH {
			return
		}
		idx := (y*waveW + x) * 4
		buf[idx+0] = c[0]
		buf[idx+1] = c[1]
		buf[idx+2] = c[2]
		buf[idx+3] = 0xFF
	}

	x0 := waveW - len(samples)
	for li, lane := range ep.lanes {
		c := laneColor(lane.class)
		top := li*panelLaneHeight + 5
		bottom := li*panelLaneHeight + panelLaneHeight - 7
		prevY := -1
		for i, s := range samples {
			x := x0 + i
			y := bottom
			if lane.value(s) {
				y = top
			}
			// Vertical stroke on transitions.
			if prevY >= 0 && prevY != y {
				lo, hi := prevY, y
				if lo > hi {
					lo, hi = hi, lo
				}
				for yy := lo; yy <= hi; yy++ {
					setPx(x, yy, c)
				}
			}
			setPx(x, y, c)
			setPx(x, y+1, c)
			prevY = y
		}
	}
}

func (ep *EbitenPanel) Layout(_, _ int) (int, int) {
	ep.mu.RLock()
	defer ep.mu.RUnlock()
	return ep.config.Width, ep.config.Height
}

// main.go - entry point for the BrainWave sleep unit simulator

/*
(c) 2025 - 2026 BrainWave Project
https://github.com/brain-wave/apb-event-unit
License: GPLv3 or later
*/

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
)

func boilerPlate() {
	fmt.Println("\nBrainWave Sleep Unit - cycle-accurate power management simulator")
	fmt.Println("(c) 2025 - 2026 BrainWave Project")
	fmt.Println("https://github.com/brain-wave/apb-event-unit")
	fmt.Println("License: GPLv3 or later")
	fmt.Println()
}

func dumpVCD(m *Machine, path string) {
	if path == "" {
		return
	}
	samples := m.Trace().Snapshot()
	if err := WriteVCDFile(path, samples, m.Config().CtrlClockHz); err != nil {
		fmt.Printf("Error writing VCD: %v\n", err)
		return
	}
	fmt.Printf("Wrote %d samples to %s\n", len(samples), path)
}

// selectRunMode picks the single run mode from the flag combination.
// No mode flags at all means the interactive monitor.
func selectRunMode(monitor, panel bool, ticks int, scenario string) (string, error) {
	if ticks < 0 {
		return "", fmt.Errorf("-ticks must be positive")
	}
	count := 0
	if monitor {
		count++
	}
	if panel {
		count++
	}
	if ticks > 0 {
		count++
	}
	if scenario != "" {
		count++
	}
	if count > 1 {
		return "", fmt.Errorf("select exactly one of -monitor, -panel, -ticks, or a scenario file")
	}
	switch {
	case panel:
		return "panel", nil
	case ticks > 0:
		return "ticks", nil
	case scenario != "":
		return "scenario", nil
	}
	return "monitor", nil
}

func main() {
	var (
		modeMonitor bool
		modePanel   bool
		ticks       int
		showVersion bool
		vcdPath     string
		ctrlHz      uint64
		refHz       uint64
		delayNS     uint64
		traceDepth  int
		rate        int
	)

	flagSet := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.BoolVar(&modeMonitor, "monitor", false, "Interactive terminal monitor")
	flagSet.BoolVar(&modePanel, "panel", false, "Graphical front panel")
	flagSet.IntVar(&ticks, "ticks", 0, "Batch mode: run N ticks and print final status")
	flagSet.StringVar(&vcdPath, "vcd", "", "Write the captured trace to this VCD file")
	flagSet.Uint64Var(&ctrlHz, "ctrl-hz", DEFAULT_CTRL_CLOCK_HZ, "Control clock rate in Hz")
	flagSet.Uint64Var(&refHz, "ref-hz", DEFAULT_REF_CLOCK_HZ, "Reference clock rate in Hz")
	flagSet.Uint64Var(&delayNS, "delay-ns", DEFAULT_WAKEUP_DELAY_NS, "Wake-up stage delay in nanoseconds")
	flagSet.IntVar(&traceDepth, "trace-depth", DEFAULT_TRACE_DEPTH, "Trace ring capacity in ticks")
	flagSet.IntVar(&rate, "rate", DEFAULT_FREE_RUN_HZ, "Free-run speed in ticks per wall-clock second")
	flagSet.BoolVar(&showVersion, "version", false, "Print version and compiled features")

	flagSet.Usage = func() {
		flagSet.SetOutput(os.Stdout)
		fmt.Println("Usage: ./apb_event_unit [-monitor|-panel|-ticks N|scenario.lua] [options]")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			flagSet.Usage()
			os.Exit(0)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if showVersion {
		printFeatures()
		os.Exit(0)
	}

	boilerPlate()

	scenario := flagSet.Arg(0)
	mode, err := selectRunMode(modeMonitor, modePanel, ticks, scenario)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	m, err := NewMachine(MachineConfig{
		CtrlClockHz:   ctrlHz,
		RefClockHz:    refHz,
		WakeupDelayNS: delayNS,
		TraceDepth:    traceDepth,
		FreeRunHz:     rate,
	})
	if err != nil {
		fmt.Printf("Failed to initialize machine: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("ctrl %d Hz, ref %d Hz, wake-up delay %d ns = %d reference edges per stage\n\n",
		ctrlHz, refHz, delayNS, m.Unit().DelayTicks())

	switch mode {
	case "scenario":
		env := NewScenarioEnv(m, os.Stdout)
		defer env.Close()
		if err := env.RunFile(scenario); err != nil {
			fmt.Printf("Scenario failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Scenario passed: %s\n", scenario)
		fmt.Println(m.StatusLine())
		dumpVCD(m, vcdPath)

	case "ticks":
		m.Run(ticks)
		fmt.Println(m.StatusLine())
		dumpVCD(m, vcdPath)

	case "panel":
		panel, err := NewPanelOutput(PANEL_BACKEND_EBITEN, m)
		if err != nil {
			fmt.Printf("Failed to initialize panel: %v\n", err)
			os.Exit(1)
		}
		if err := panel.Start(); err != nil {
			fmt.Printf("Failed to start panel: %v\n", err)
			os.Exit(1)
		}
		if err := m.Start(); err != nil {
			fmt.Printf("Failed to start machine: %v\n", err)
		}
		<-panel.Done()
		m.Stop()
		dumpVCD(m, vcdPath)

	default:
		mon := NewMonitor(m, os.Stdout)
		mon.SetVCDPath(vcdPath)
		mon.Banner()
		host := NewMonitorHost(mon)
		host.Start()
		<-host.Done()
		host.Stop()
		m.Stop()
	}
}

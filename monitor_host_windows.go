//go:build windows

package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// MonitorHost reads raw stdin and feeds bytes to a Monitor. Only
// instantiated in main.go for interactive use, never in tests.
//
// The Windows console has no nonblocking read, so this variant blocks
// in os.Stdin.Read and relies on the monitor quitting (or process
// exit) to end the loop.
type MonitorHost struct {
	mon          *Monitor
	stopCh       chan struct{}
	done         chan struct{}
	stopped      sync.Once
	fd           int
	oldTermState *term.State
}

// NewMonitorHost creates a host adapter driving mon from stdin.
func NewMonitorHost(mon *Monitor) *MonitorHost {
	return &MonitorHost{
		mon:    mon,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start puts the console in raw mode and begins the key loop in a
// goroutine. The loop ends when the monitor quits or Stop is called;
// either way Done is closed.
func (h *MonitorHost) Start() {
	h.fd = int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "monitor_host: failed to set raw mode: %v\n", err)
		close(h.done)
		return
	}
	h.oldTermState = oldState

	go func() {
		defer close(h.done)
		buf := make([]byte, 1)

		for {
			select {
			case <-h.stopCh:
				return
			default:
			}

			n, err := os.Stdin.Read(buf)
			if n > 0 {
				if !h.mon.HandleKey(buf[0]) {
					return
				}
			}
			if err != nil {
				return
			}
			if n == 0 {
				time.Sleep(5 * time.Millisecond)
			}
		}
	}()
}

// Done is closed when the key loop has exited.
func (h *MonitorHost) Done() <-chan struct{} {
	return h.done
}

// Stop terminates the key loop if still running and restores the
// console to its previous state.
func (h *MonitorHost) Stop() {
	h.stopped.Do(func() {
		close(h.stopCh)
	})
	<-h.done
	if h.oldTermState != nil {
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
	}
}

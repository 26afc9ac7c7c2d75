//go:build !windows

package main

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"
)

// MonitorHost reads raw stdin and feeds bytes to a Monitor. Only
// instantiated in main.go for interactive use, never in tests.
type MonitorHost struct {
	mon          *Monitor
	stopCh       chan struct{}
	done         chan struct{}
	stopped      sync.Once
	fd           int
	nonblockSet  bool
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

// Start puts the terminal in raw mode and begins the key loop in a
// goroutine. The loop ends when the monitor quits or Stop is called;
// either way Done is closed.
func (h *MonitorHost) Start() {
	h.fd = int(os.Stdin.Fd())

	// Raw mode kills OS-level echo and line buffering so single keys
	// arrive immediately.
	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "monitor_host: failed to set raw mode: %v\n", err)
		close(h.done)
		return
	}
	h.oldTermState = oldState

	if err := syscall.SetNonblock(h.fd, true); err != nil {
		fmt.Fprintf(os.Stderr, "monitor_host: failed to set nonblocking stdin: %v\n", err)
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
		close(h.done)
		return
	}
	h.nonblockSet = true

	go func() {
		defer close(h.done)
		buf := make([]byte, 1)

		for {
			select {
			case <-h.stopCh:
				return
			default:
			}

			n, err := syscall.Read(h.fd, buf)
			if n > 0 {
				if !h.mon.HandleKey(buf[0]) {
					return
				}
			}
			if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
				time.Sleep(5 * time.Millisecond)
				continue
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
// terminal to its previous state.
func (h *MonitorHost) Stop() {
	h.stopped.Do(func() {
		close(h.stopCh)
	})
	<-h.done
	if h.nonblockSet {
		_ = syscall.SetNonblock(h.fd, false)
		h.nonblockSet = false
	}
	if h.oldTermState != nil {
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
	}
}

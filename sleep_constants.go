// sleep_constants.go - memory map and register constants for the sleep unit

/*
(c) 2025 - 2026 BrainWave Project
https://github.com/brain-wave/apb-event-unit
License: GPLv3 or later
*/

package main

/*
BrainWave memory map
====================

0x00000 - 0xEFFFF   RAM (scratch, free for scenario use)
0xF0000 - 0xFFFFF   Memory-mapped I/O

Within the I/O window:

0xF0000 - 0xF0007   Sleep unit
0xF0100 - 0xF011F   Line driver (stimulus block)

All registers are 32-bit, word-aligned, little-endian. I/O addresses
with no register behind them read as zero and ignore writes.
*/

const (
	DEFAULT_MEMORY_SIZE = 1 << 20

	IO_REGION_BASE = 0xF0000
	IO_REGION_END  = 0xFFFFF
)

// Sleep unit registers.
const (
	SLEEP_REGION_BASE = 0xF0000
	SLEEP_REGION_END  = 0xF0007

	SLEEP_CTRL   = 0xF0000 // rw: wake/sleep request bits
	SLEEP_STATUS = 0xF0004 // ro: current sleep condition
)

// SLEEP_CTRL bits. Writes replace the whole register; undefined bits
// are dropped and read back as zero.
const (
	CTRL_SLEEP_ENABLE     = 1 << 0 // request clock-gated sleep
	CTRL_EXT_SLEEP_ENABLE = 1 << 1 // from sleep, continue into deep sleep

	CTRL_WRITE_MASK = CTRL_SLEEP_ENABLE | CTRL_EXT_SLEEP_ENABLE
)

// SLEEP_STATUS bits.
const (
	STATUS_SLEEP     = 1 << 0 // core is clock-gated
	STATUS_EXT_SLEEP = 1 << 1 // deep sleep or wake-up sequencing
)

// Line driver registers. The line driver stands in for the SoC-side
// sources of the three wake/abort lines and is how scenarios and the
// monitor poke them.
const (
	LINE_REGION_BASE = 0xF0100
	LINE_REGION_END  = 0xF011F

	LINE_EVENT       = 0xF0100 // rw: wake event line level (bit 0)
	LINE_IRQ         = 0xF0104 // rw: interrupt line level (bit 0)
	LINE_BUSY        = 0xF0108 // rw: core busy line level (bit 0)
	LINE_EVENT_PULSE = 0xF010C // wo: assert event for N ticks
	LINE_IRQ_PULSE   = 0xF0110 // wo: assert irq for N ticks
	LINE_STATE       = 0xF0114 // ro: effective line levels, bits 2..0 = busy/irq/event
	LINE_TICK_LO     = 0xF0118 // ro: driver tick count, low word
	LINE_TICK_HI     = 0xF011C // ro: driver tick count, high word
)

// LINE_STATE bits.
const (
	LINE_STATE_EVENT = 1 << 0
	LINE_STATE_IRQ   = 1 << 1
	LINE_STATE_BUSY  = 1 << 2
)

// Clock defaults. The control clock is the tick rate of the whole
// machine; the reference clock is the always-on slow oscillator the
// wake-up delay counter runs from.
const (
	DEFAULT_CTRL_CLOCK_HZ   = 50_000_000
	DEFAULT_REF_CLOCK_HZ    = 32_768
	DEFAULT_WAKEUP_DELAY_NS = 10_000_000
)

// IsIOAddress reports whether addr falls inside the memory-mapped I/O
// window.
func IsIOAddress(addr uint32) bool {
	return addr >= IO_REGION_BASE && addr <= IO_REGION_END
}

// GetIORegion names the register block an address belongs to, for
// diagnostics and the monitor.
func GetIORegion(addr uint32) string {
	switch {
	case addr >= SLEEP_REGION_BASE && addr <= SLEEP_REGION_END:
		return "sleep"
	case addr >= LINE_REGION_BASE && addr <= LINE_REGION_END:
		return "lines"
	case IsIOAddress(addr):
		return "unmapped-io"
	default:
		return "ram"
	}
}

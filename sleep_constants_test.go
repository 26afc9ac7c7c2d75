package main

import "testing"

// TestIsIOAddressBoundaries verifies the I/O window edges.
func TestIsIOAddressBoundaries(t *testing.T) {
	cases := []struct {
		addr uint32
		want bool
	}{
		{0x00000, false},
		{IO_REGION_BASE - 1, false},
		{IO_REGION_BASE, true},
		{SLEEP_CTRL, true},
		{LINE_TICK_HI, true},
		{IO_REGION_END, true},
		{IO_REGION_END + 1, false},
		{0xFFFFFFFF, false},
	}
	for _, c := range cases {
		if got := IsIOAddress(c.addr); got != c.want {
			t.Errorf("IsIOAddress(0x%05X) = %v, expected %v", c.addr, got, c.want)
		}
	}
}

// TestGetIORegionNames verifies address classification for the
// monitor's benefit.
func TestGetIORegionNames(t *testing.T) {
	cases := []struct {
		addr uint32
		want string
	}{
		{SLEEP_CTRL, "sleep"},
		{SLEEP_STATUS, "sleep"},
		{LINE_EVENT, "lines"},
		{LINE_TICK_HI, "lines"},
		{IO_REGION_BASE + 0x5000, "unmapped-io"},
		{0x1000, "ram"},
	}
	for _, c := range cases {
		if got := GetIORegion(c.addr); got != c.want {
			t.Errorf("GetIORegion(0x%05X) = %q, expected %q", c.addr, got, c.want)
		}
	}
}

// TestRegisterLayout verifies the register addresses sit inside their
// region bounds and are word aligned.
func TestRegisterLayout(t *testing.T) {
	regs := []uint32{
		SLEEP_CTRL, SLEEP_STATUS,
		LINE_EVENT, LINE_IRQ, LINE_BUSY,
		LINE_EVENT_PULSE, LINE_IRQ_PULSE,
		LINE_STATE, LINE_TICK_LO, LINE_TICK_HI,
	}
	for _, r := range regs {
		if r%4 != 0 {
			t.Errorf("register 0x%05X not word aligned", r)
		}
		if !IsIOAddress(r) {
			t.Errorf("register 0x%05X outside the I/O window", r)
		}
	}
	if SLEEP_STATUS > SLEEP_REGION_END {
		t.Error("sleep block overruns its region")
	}
	if LINE_TICK_HI > LINE_REGION_END {
		t.Error("line block overruns its region")
	}
}

// machine_bus.go - memory bus for the BrainWave machine

/*
(c) 2025 - 2026 BrainWave Project
https://github.com/brain-wave/apb-event-unit
License: GPLv3 or later

Unified 32-bit memory bus: a contiguous RAM block plus a page-mapped
I/O window. Register blocks claim address ranges with MapIO and are
dispatched to through a per-page region table; a page bitmap keeps
plain RAM access lock-free. Addresses inside the I/O window that no
register claims read as zero and swallow writes, so probing the map
has no side effects.

Little-endian throughout, matching the modelled hardware. The RAM fast
paths use aligned unsafe stores and assume a little-endian host; see
le_check.go.
*/

package main

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"
	"unsafe"
)

const (
	PAGE_SIZE = 0x100
	PAGE_MASK = 0xFFF00
)

// Bus32 defines the memory operations the machine exposes to devices,
// scenarios and the monitor. Implementations must be safe for
// concurrent use and support memory-mapped I/O.
type Bus32 interface {
	Read8(addr uint32) uint8
	Write8(addr uint32, value uint8)
	Read16(addr uint32) uint16
	Write16(addr uint32, value uint16)
	Read32(addr uint32) uint32
	Write32(addr uint32, value uint32)
	Reset()
	GetMemory() []byte
}

// MachineBus implements Bus32. It owns main memory and the I/O region
// table. The bus itself takes no lock: RAM access is lock-free and
// register handlers serialize internally.
type MachineBus struct {
	memory  []byte
	mapping map[uint32][]IORegion

	// Fast lookup, indexed by (addr >> 8): true if the page has I/O
	// mappings. Stable after SealMappings.
	ioPageBitmap []bool

	// Set once stepping starts; MapIO afterwards is a bug.
	sealed atomic.Bool
}

// IORegion is one claimed address range. The callbacks receive the
// full address, not an offset.
type IORegion struct {
	start   uint32
	end     uint32
	onRead  func(addr uint32) uint32
	onWrite func(addr uint32, value uint32)
}

// NewMachineBus allocates main memory and an empty I/O mapping table.
func NewMachineBus() *MachineBus {
	return &MachineBus{
		memory:       make([]byte, DEFAULT_MEMORY_SIZE),
		mapping:      make(map[uint32][]IORegion),
		ioPageBitmap: make([]bool, DEFAULT_MEMORY_SIZE/PAGE_SIZE),
	}
}

// GetMemory returns a direct reference to the underlying memory slice
// so scenarios and tests can fill RAM without going through the bus.
func (bus *MachineBus) GetMemory() []byte {
	return bus.memory
}

// SealMappings prevents further MapIO calls. Called when stepping
// starts so the page bitmap stays stable on the hot path.
func (bus *MachineBus) SealMappings() {
	bus.sealed.CompareAndSwap(false, true)
}

// MapIO registers a register block over [start, end]. Must happen
// before the machine starts stepping.
func (bus *MachineBus) MapIO(start, end uint32, onRead func(addr uint32) uint32, onWrite func(addr uint32, value uint32)) {
	if bus.sealed.Load() {
		panic(fmt.Sprintf("MapIO called after stepping started (mapping range $%05X-$%05X)", start, end))
	}
	region := IORegion{
		start:   start,
		end:     end,
		onRead:  onRead,
		onWrite: onWrite,
	}

	firstPage := start & PAGE_MASK
	lastPage := end & PAGE_MASK
	for page := firstPage; page <= lastPage; page += PAGE_SIZE {
		bus.mapping[page] = append(bus.mapping[page], region)
		pageIdx := page >> 8
		if pageIdx < uint32(len(bus.ioPageBitmap)) {
			bus.ioPageBitmap[pageIdx] = true
		}
	}
}

func (bus *MachineBus) findIORegion(addr uint32) *IORegion {
	regions, exists := bus.mapping[addr&PAGE_MASK]
	if !exists {
		return nil
	}
	for i := range regions {
		if addr >= regions[i].start && addr <= regions[i].end {
			return &regions[i]
		}
	}
	return nil
}

func (bus *MachineBus) Write32(addr uint32, value uint32) {
	if IsIOAddress(addr) {
		bus.write32IO(addr, value)
		return
	}

	if uint64(addr)+4 > uint64(len(bus.memory)) {
		fmt.Printf("Warning: Write32 to out-of-bounds address 0x%08X\n", addr)
		return
	}

	if !bus.ioPageBitmap[addr>>8] {
		*(*uint32)(unsafe.Pointer(&bus.memory[addr])) = value
		return
	}

	if region := bus.findIORegion(addr); region != nil && region.onWrite != nil {
		region.onWrite(addr, value)
		return
	}
	binary.LittleEndian.PutUint32(bus.memory[addr:addr+4], value)
}

func (bus *MachineBus) write32IO(addr uint32, value uint32) {
	if region := bus.findIORegion(addr); region != nil && region.onWrite != nil {
		region.onWrite(addr, value)
	}
	// Unclaimed I/O addresses swallow the write.
}

func (bus *MachineBus) Read32(addr uint32) uint32 {
	if IsIOAddress(addr) {
		return bus.read32IO(addr)
	}

	if uint64(addr)+4 > uint64(len(bus.memory)) {
		fmt.Printf("Warning: Read32 from out-of-bounds address 0x%08X\n", addr)
		return 0
	}

	if !bus.ioPageBitmap[addr>>8] {
		return *(*uint32)(unsafe.Pointer(&bus.memory[addr]))
	}

	if region := bus.findIORegion(addr); region != nil && region.onRead != nil {
		return region.onRead(addr)
	}
	return binary.LittleEndian.Uint32(bus.memory[addr : addr+4])
}

func (bus *MachineBus) read32IO(addr uint32) uint32 {
	if region := bus.findIORegion(addr); region != nil && region.onRead != nil {
		return region.onRead(addr)
	}
	return 0
}

// Sub-word access is for RAM only. The register blocks are word
// oriented, so 8- and 16-bit transactions inside the I/O window read
// zero and drop writes like any other unclaimed I/O access.

func (bus *MachineBus) Write16(addr uint32, value uint16) {
	if IsIOAddress(addr) {
		return
	}
	if uint64(addr)+2 > uint64(len(bus.memory)) {
		fmt.Printf("Warning: Write16 to out-of-bounds address 0x%08X\n", addr)
		return
	}
	binary.LittleEndian.PutUint16(bus.memory[addr:addr+2], value)
}

func (bus *MachineBus) Read16(addr uint32) uint16 {
	if IsIOAddress(addr) {
		return 0
	}
	if uint64(addr)+2 > uint64(len(bus.memory)) {
		fmt.Printf("Warning: Read16 from out-of-bounds address 0x%08X\n", addr)
		return 0
	}
	return binary.LittleEndian.Uint16(bus.memory[addr : addr+2])
}

func (bus *MachineBus) Write8(addr uint32, value uint8) {
	if IsIOAddress(addr) {
		return
	}
	if addr >= uint32(len(bus.memory)) {
		fmt.Printf("Warning: Write8 to out-of-bounds address 0x%08X\n", addr)
		return
	}
	bus.memory[addr] = value
}

func (bus *MachineBus) Read8(addr uint32) uint8 {
	if IsIOAddress(addr) {
		return 0
	}
	if addr >= uint32(len(bus.memory)) {
		fmt.Printf("Warning: Read8 from out-of-bounds address 0x%08X\n", addr)
		return 0
	}
	return bus.memory[addr]
}

// Reset clears main memory. I/O mappings and the seal survive; the
// register blocks reset themselves.
func (bus *MachineBus) Reset() {
	for i := range bus.memory {
		bus.memory[i] = 0
	}
}

//go:build !(amd64 || arm64 || 386 || arm || riscv64 || loong64 || mipsle || mips64le || ppc64le || wasm)

package main

// The machine bus uses unsafe.Pointer uint32 stores for RAM access,
// which assume little-endian byte order.
var _ = "the machine bus requires a little-endian architecture" + 1

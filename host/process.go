package host

import "io"

// Process is the memory and control-transfer view of the process the core is
// attached to.
type Process interface {
	io.Closer
	Arch() Arch
	PageSize() uint64
	MemAlloc(size uint64, prot MemProt) (MemRegion, error)
	MemFree(addr, size uint64) error
	MemProtect(addr, size uint64, prot MemProt) error
	MemQuery(addr uint64) (MemRegion, error)
	MemRegions() ([]MemRegion, error)
	MemRead(addr, size uint64) ([]byte, error)
	MemWrite(addr uint64, data []byte) error
	FindSymbol(module, name string) (uint64, error)
	Hook(typ HookType, callback any, data any, begin, end uint64) (Hook, error)
}

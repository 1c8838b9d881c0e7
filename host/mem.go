package host

type MemProt int

const (
	MEM_PROT_NONE MemProt = 0
	MEM_PROT_READ MemProt = 1 << (iota - 1)
	MEM_PROT_WRITE
	MEM_PROT_EXEC

	MEM_PROT_ALL = MEM_PROT_READ | MEM_PROT_WRITE | MEM_PROT_EXEC
)

func (p MemProt) Has(flags MemProt) bool {
	return p&flags == flags
}

func (p MemProt) String() string {
	b := []byte("---")
	if p.Has(MEM_PROT_READ) {
		b[0] = 'r'
	}
	if p.Has(MEM_PROT_WRITE) {
		b[1] = 'w'
	}
	if p.Has(MEM_PROT_EXEC) {
		b[2] = 'x'
	}
	return string(b)
}

type MemState int

const (
	MEM_STATE_FREE MemState = iota
	MEM_STATE_RESERVE
	MEM_STATE_COMMIT
)

type MemRegion struct {
	Addr, Size uint64
	Prot       MemProt
	State      MemState
}

func (r MemRegion) End() uint64 {
	return r.Addr + r.Size
}

func (r MemRegion) Contains(addr uint64) bool {
	return addr >= r.Addr && addr < r.End()
}

// Accessible reports whether the region is committed and carries at least one of
// the read, write or execute rights.
func (r MemRegion) Accessible() bool {
	return r.State == MEM_STATE_COMMIT && r.Prot&MEM_PROT_ALL != 0
}

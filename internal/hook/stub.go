package hook

import (
	"sync"

	"github.com/wnxd/mpcore/host"
)

const stubSize = 0x10

// Stubs hands out fixed-size executable slots that hold trampolines. Slots are
// carved from whole pages and recycled on free.
type Stubs struct {
	proc     host.Process
	mu       sync.Mutex
	releases []func() error
	slots    []chan uint64
}

func NewStubs(proc host.Process) *Stubs {
	return &Stubs{proc: proc}
}

func (s *Stubs) grow() error {
	region, err := s.proc.MemAlloc(s.proc.PageSize(), host.MEM_PROT_READ|host.MEM_PROT_EXEC)
	if err != nil {
		return err
	}
	s.releases = append(s.releases, func() error {
		return s.proc.MemFree(region.Addr, region.Size)
	})
	count := region.Size / stubSize
	ch := make(chan uint64, count)
	for addr := region.Addr; addr < region.Addr+count*stubSize; addr += stubSize {
		ch <- addr
	}
	s.slots = append(s.slots, ch)
	return nil
}

func (s *Stubs) Alloc() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		for _, ch := range s.slots {
			select {
			case addr := <-ch:
				return addr, nil
			default:
			}
		}
		if err := s.grow(); err != nil {
			return 0, err
		}
	}
}

func (s *Stubs) Free(addr uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.slots {
		select {
		case ch <- addr:
			return
		default:
		}
	}
}

func (s *Stubs) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.releases) - 1; i >= 0; i-- {
		s.releases[i]()
	}
	s.releases = nil
	s.slots = nil
	return nil
}

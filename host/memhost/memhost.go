// Package memhost is an in-memory host process: paged memory with protection
// and commit state, a symbol table, and a small control-transfer interpreter
// that understands relative jumps, returns and Go-implemented natives.
package memhost

import (
	"encoding/binary"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/wnxd/mpcore/host"
)

const (
	pageSize  = 0x1000
	allocBase = 0x10000000
	maxSteps  = 0x10000

	opJmpRel32 = 0xE9
	opRet      = 0xC3
)

type Native func(frame host.Frame) uint64

type page struct {
	data  []byte
	prot  host.MemProt
	state host.MemState
}

type Host struct {
	mu       sync.Mutex
	arch     host.Arch
	pages    map[uint64]*page
	mapAddr  uint64
	symbols  map[string]uint64
	natives  map[uint64]Native
	hooks    []*codeHook
	maxSteps int
}

type codeHook struct {
	owner      *Host
	callback   host.CodeCallback
	data       any
	begin, end uint64
	closed     atomic.Bool
}

type frame struct {
	args []uint64
	ret  uint64
}

var _ host.Process = (*Host)(nil)

func New() *Host {
	return &Host{
		arch:     host.ARCH_X86,
		pages:    make(map[uint64]*page),
		mapAddr:  allocBase,
		symbols:  make(map[string]uint64),
		natives:  make(map[uint64]Native),
		maxSteps: maxSteps,
	}
}

func (h *Host) Close() error {
	h.mu.Lock()
	clear(h.pages)
	clear(h.natives)
	h.hooks = nil
	h.mu.Unlock()
	return nil
}

func (h *Host) Arch() host.Arch {
	return h.arch
}

func (h *Host) PageSize() uint64 {
	return pageSize
}

// Map commits [addr, addr+size) with prot, page aligned.
func (h *Host) Map(addr, size uint64, prot host.MemProt) error {
	return h.mapPages(addr, size, prot, host.MEM_STATE_COMMIT)
}

// Reserve claims address space without committing it.
func (h *Host) Reserve(addr, size uint64) error {
	return h.mapPages(addr, size, host.MEM_PROT_NONE, host.MEM_STATE_RESERVE)
}

func (h *Host) mapPages(addr, size uint64, prot host.MemProt, state host.MemState) error {
	if size == 0 {
		return host.ErrAddressInvalid
	}
	begin := host.AlignDown(addr, pageSize)
	end := host.Align(addr+size, pageSize)
	h.mu.Lock()
	defer h.mu.Unlock()
	for base := begin; base < end; base += pageSize {
		if _, ok := h.pages[base]; ok {
			return host.ErrAddressInvalid
		}
	}
	for base := begin; base < end; base += pageSize {
		h.pages[base] = &page{data: make([]byte, pageSize), prot: prot, state: state}
	}
	return nil
}

func (h *Host) MemAlloc(size uint64, prot host.MemProt) (host.MemRegion, error) {
	size = host.Align(size, pageSize)
	addr := atomic.AddUint64(&h.mapAddr, size) - size
	if err := h.Map(addr, size, prot); err != nil {
		return host.MemRegion{}, err
	}
	return host.MemRegion{Addr: addr, Size: size, Prot: prot, State: host.MEM_STATE_COMMIT}, nil
}

func (h *Host) MemFree(addr, size uint64) error {
	begin := host.AlignDown(addr, pageSize)
	end := host.Align(addr+size, pageSize)
	h.mu.Lock()
	defer h.mu.Unlock()
	for base := begin; base < end; base += pageSize {
		if _, ok := h.pages[base]; !ok {
			return host.ErrAddressInvalid
		}
	}
	for base := begin; base < end; base += pageSize {
		delete(h.pages, base)
	}
	return nil
}

func (h *Host) MemProtect(addr, size uint64, prot host.MemProt) error {
	begin := host.AlignDown(addr, pageSize)
	end := host.Align(addr+size, pageSize)
	h.mu.Lock()
	defer h.mu.Unlock()
	for base := begin; base < end; base += pageSize {
		p, ok := h.pages[base]
		if !ok || p.state != host.MEM_STATE_COMMIT {
			return host.ErrAddressInvalid
		}
	}
	for base := begin; base < end; base += pageSize {
		h.pages[base].prot = prot
	}
	return nil
}

func (h *Host) MemQuery(addr uint64) (host.MemRegion, error) {
	regions, err := h.MemRegions()
	if err != nil {
		return host.MemRegion{}, err
	}
	for _, region := range regions {
		if region.Contains(addr) {
			return region, nil
		}
	}
	return host.MemRegion{Addr: host.AlignDown(addr, pageSize), Size: pageSize, State: host.MEM_STATE_FREE}, nil
}

func (h *Host) MemRegions() ([]host.MemRegion, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var regions []host.MemRegion
	for _, base := range slices.Sorted(maps.Keys(h.pages)) {
		p := h.pages[base]
		if n := len(regions); n > 0 {
			last := &regions[n-1]
			if last.End() == base && last.Prot == p.prot && last.State == p.state {
				last.Size += pageSize
				continue
			}
		}
		regions = append(regions, host.MemRegion{Addr: base, Size: pageSize, Prot: p.prot, State: p.state})
	}
	return regions, nil
}

func (h *Host) MemRead(addr, size uint64) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.access(addr, size, host.MEM_PROT_READ, nil)
}

func (h *Host) MemWrite(addr uint64, data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.access(addr, uint64(len(data)), host.MEM_PROT_WRITE, data)
	return err
}

// Peek reads committed memory regardless of protection.
func (h *Host) Peek(addr, size uint64) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.access(addr, size, host.MEM_PROT_NONE, nil)
}

// Poke writes committed memory regardless of protection, the way an image
// loader lays out sections before applying final protections.
func (h *Host) Poke(addr uint64, data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.access(addr, uint64(len(data)), host.MEM_PROT_NONE, data)
	return err
}

func (h *Host) access(addr, size uint64, need host.MemProt, src []byte) ([]byte, error) {
	for base := host.AlignDown(addr, pageSize); base < addr+size; base += pageSize {
		p, ok := h.pages[base]
		if !ok {
			return nil, host.ErrAddressInvalid
		} else if p.state != host.MEM_STATE_COMMIT || !p.prot.Has(need) {
			return nil, host.ErrAccessViolation
		}
	}
	var dst []byte
	if src == nil {
		dst = make([]byte, size)
	}
	for off := uint64(0); off < size; {
		cur := addr + off
		p := h.pages[host.AlignDown(cur, pageSize)]
		in := cur % pageSize
		n := min(pageSize-in, size-off)
		if src == nil {
			copy(dst[off:off+n], p.data[in:in+n])
		} else {
			copy(p.data[in:in+n], src[off:off+n])
		}
		off += n
	}
	return dst, nil
}

func (h *Host) DefineSymbol(module, name string, addr uint64) {
	h.mu.Lock()
	h.symbols[module+"!"+name] = addr
	h.mu.Unlock()
}

func (h *Host) FindSymbol(module, name string) (uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if addr, ok := h.symbols[module+"!"+name]; ok {
		return addr, nil
	}
	return 0, host.ErrSymbolNotFound
}

func (h *Host) DefineNative(addr uint64, fn Native) {
	h.mu.Lock()
	h.natives[addr] = fn
	h.mu.Unlock()
}

// DefineFunction lays out prologue at addr followed by a native body, giving
// a function whose first bytes can be spliced like real code.
func (h *Host) DefineFunction(addr uint64, prologue []byte, fn Native) error {
	if err := h.Poke(addr, prologue); err != nil {
		return err
	}
	h.DefineNative(addr+uint64(len(prologue)), fn)
	return nil
}

func (h *Host) Hook(typ host.HookType, callback any, data any, begin, end uint64) (host.Hook, error) {
	if typ != host.HOOK_TYPE_CODE {
		return nil, host.ErrNotImplemented
	}
	cb, ok := callback.(host.CodeCallback)
	if !ok {
		return nil, host.ErrHookCallbackType
	}
	hook := &codeHook{owner: h, callback: cb, data: data, begin: begin, end: end}
	h.mu.Lock()
	h.hooks = append(h.hooks, hook)
	h.mu.Unlock()
	return hook, nil
}

// Call runs the code at addr with args until it returns or a hook finishes
// the call.
func (h *Host) Call(addr uint64, args ...uint64) (uint64, error) {
	f := &frame{args: args}
	pc := addr
	for step := 0; step < h.maxSteps; step++ {
		for _, hook := range h.hooksAt(pc) {
			if hook.closed.Load() {
				continue
			}
			if hook.callback(f, pc, hook.data) == host.HookResult_Done {
				return f.ret, nil
			}
		}
		h.mu.Lock()
		native, ok := h.natives[pc]
		h.mu.Unlock()
		if ok {
			return native(f), nil
		}
		h.mu.Lock()
		op, err := h.access(pc, 1, host.MEM_PROT_EXEC, nil)
		if err == nil && op[0] == opJmpRel32 {
			var rel []byte
			rel, err = h.access(pc+1, 4, host.MEM_PROT_EXEC, nil)
			if err == nil {
				pc = pc + 5 + uint64(int64(int32(binary.LittleEndian.Uint32(rel))))
			}
		}
		h.mu.Unlock()
		if err != nil {
			return 0, err
		}
		switch op[0] {
		case opJmpRel32:
		case opRet:
			return f.ret, nil
		default:
			pc++
		}
	}
	return 0, host.ErrStepLimit
}

func (h *Host) hooksAt(pc uint64) []*codeHook {
	h.mu.Lock()
	defer h.mu.Unlock()
	var hooks []*codeHook
	for _, hook := range h.hooks {
		if pc >= hook.begin && pc < hook.end {
			hooks = append(hooks, hook)
		}
	}
	return hooks
}

func (hook *codeHook) Close() error {
	if hook.closed.Swap(true) {
		return nil
	}
	h := hook.owner
	h.mu.Lock()
	h.hooks = slices.DeleteFunc(h.hooks, func(v *codeHook) bool { return v == hook })
	h.mu.Unlock()
	return nil
}

func (hook *codeHook) Type() host.HookType {
	return host.HOOK_TYPE_CODE
}

func (f *frame) Args() []uint64 {
	return f.args
}

func (f *frame) Arg(i int) uint64 {
	if i < 0 || i >= len(f.args) {
		return 0
	}
	return f.args[i]
}

func (f *frame) Return(value uint64) {
	f.ret = value
}

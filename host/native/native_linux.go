//go:build linux

// Package native exposes the current process as a host.Process on Linux.
package native

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"unsafe"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/wnxd/mpcore/host"
	"golang.org/x/sys/unix"
)

type Process struct {
	pid     int
	log     *logger.Logger
	mu      sync.Mutex
	mapped  map[uint64][]byte
	symbols map[string]uint64
}

var _ host.Process = (*Process)(nil)

func Open() *Process {
	p := &Process{
		pid:     os.Getpid(),
		mapped:  make(map[uint64][]byte),
		symbols: make(map[string]uint64),
	}
	p.log = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("host-%d", p.pid)))
	return p
}

func (p *Process) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for addr, b := range p.mapped {
		if err := unix.Munmap(b); err != nil {
			p.log.Warn("munmap ", fmt.Sprintf("%x", addr), ": ", err)
		}
	}
	clear(p.mapped)
	return nil
}

func (p *Process) Arch() host.Arch {
	switch runtime.GOARCH {
	case "386":
		return host.ARCH_X86
	case "amd64":
		return host.ARCH_X86_64
	case "arm64":
		return host.ARCH_ARM64
	}
	return host.ARCH_UNKNOWN
}

func (p *Process) PageSize() uint64 {
	return uint64(os.Getpagesize())
}

func (p *Process) MemAlloc(size uint64, prot host.MemProt) (host.MemRegion, error) {
	size = host.Align(size, p.PageSize())
	b, err := unix.Mmap(-1, 0, int(size), toUnixProt(prot), unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return host.MemRegion{}, err
	}
	addr := uint64(uintptr(unsafe.Pointer(unsafe.SliceData(b))))
	p.mu.Lock()
	p.mapped[addr] = b
	p.mu.Unlock()
	return host.MemRegion{Addr: addr, Size: size, Prot: prot, State: host.MEM_STATE_COMMIT}, nil
}

func (p *Process) MemFree(addr, size uint64) error {
	p.mu.Lock()
	b, ok := p.mapped[addr]
	delete(p.mapped, addr)
	p.mu.Unlock()
	if !ok {
		return host.ErrAddressInvalid
	}
	return unix.Munmap(b)
}

func (p *Process) MemProtect(addr, size uint64, prot host.MemProt) error {
	page := p.PageSize()
	begin := host.AlignDown(addr, page)
	end := host.Align(addr+size, page)
	b := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(begin))), end-begin)
	return unix.Mprotect(b, toUnixProt(prot))
}

func (p *Process) MemQuery(addr uint64) (host.MemRegion, error) {
	regions, err := p.MemRegions()
	if err != nil {
		return host.MemRegion{}, err
	}
	for _, region := range regions {
		if region.Contains(addr) {
			return region, nil
		}
	}
	page := p.PageSize()
	return host.MemRegion{Addr: host.AlignDown(addr, page), Size: page, State: host.MEM_STATE_FREE}, nil
}

// MemRegions parses /proc/self/maps. Every listed mapping is reported as
// committed.
func (p *Process) MemRegions() ([]host.MemRegion, error) {
	file, err := os.Open("/proc/self/maps")
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var regions []host.MemRegion
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		begin, end, ok := strings.Cut(fields[0], "-")
		if !ok {
			continue
		}
		start, err := strconv.ParseUint(begin, 16, 64)
		if err != nil {
			continue
		}
		stop, err := strconv.ParseUint(end, 16, 64)
		if err != nil {
			continue
		}
		regions = append(regions, host.MemRegion{
			Addr:  start,
			Size:  stop - start,
			Prot:  parsePerms(fields[1]),
			State: host.MEM_STATE_COMMIT,
		})
	}
	return regions, scanner.Err()
}

func (p *Process) MemRead(addr, size uint64) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}
	buf := make([]byte, size)
	local := unix.Iovec{Base: &buf[0]}
	local.SetLen(int(size))
	remote := unix.RemoteIovec{Base: uintptr(addr), Len: int(size)}
	n, _, errno := unix.Syscall6(unix.SYS_PROCESS_VM_READV, uintptr(p.pid),
		uintptr(unsafe.Pointer(&local)), 1, uintptr(unsafe.Pointer(&remote)), 1, 0)
	if errno != 0 {
		return nil, fmt.Errorf("process_vm_readv %x: %w: %w", addr, host.ErrAccessViolation, errno)
	} else if uint64(n) != size {
		return nil, fmt.Errorf("partial read: %d of %d bytes: %w", n, size, host.ErrAccessViolation)
	}
	return buf, nil
}

func (p *Process) MemWrite(addr uint64, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	local := unix.Iovec{Base: &data[0]}
	local.SetLen(len(data))
	remote := unix.RemoteIovec{Base: uintptr(addr), Len: len(data)}
	n, _, errno := unix.Syscall6(unix.SYS_PROCESS_VM_WRITEV, uintptr(p.pid),
		uintptr(unsafe.Pointer(&local)), 1, uintptr(unsafe.Pointer(&remote)), 1, 0)
	if errno != 0 {
		return fmt.Errorf("process_vm_writev %x: %w: %w", addr, host.ErrAccessViolation, errno)
	} else if int(n) != len(data) {
		return fmt.Errorf("partial write: %d of %d bytes: %w", n, len(data), host.ErrAccessViolation)
	}
	return nil
}

// DefineSymbol records an exported address for FindSymbol.
func (p *Process) DefineSymbol(module, name string, addr uint64) {
	p.mu.Lock()
	p.symbols[module+"!"+name] = addr
	p.mu.Unlock()
}

func (p *Process) FindSymbol(module, name string) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if addr, ok := p.symbols[module+"!"+name]; ok {
		return addr, nil
	}
	return 0, host.ErrSymbolNotFound
}

// Hook is not available in-process: control transfer into Go callbacks needs
// an assembler-level thunk per architecture.
func (p *Process) Hook(host.HookType, any, any, uint64, uint64) (host.Hook, error) {
	return nil, host.ErrNotImplemented
}

func toUnixProt(prot host.MemProt) int {
	var v int
	if prot.Has(host.MEM_PROT_READ) {
		v |= unix.PROT_READ
	}
	if prot.Has(host.MEM_PROT_WRITE) {
		v |= unix.PROT_WRITE
	}
	if prot.Has(host.MEM_PROT_EXEC) {
		v |= unix.PROT_EXEC
	}
	return v
}

func parsePerms(perms string) host.MemProt {
	var prot host.MemProt
	if len(perms) < 3 {
		return prot
	}
	if perms[0] == 'r' {
		prot |= host.MEM_PROT_READ
	}
	if perms[1] == 'w' {
		prot |= host.MEM_PROT_WRITE
	}
	if perms[2] == 'x' {
		prot |= host.MEM_PROT_EXEC
	}
	return prot
}

package hook

import (
	"encoding/binary"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/wnxd/mpcore/hook"
	"github.com/wnxd/mpcore/host"
	"github.com/wnxd/mpcore/patch"
)

const redirectSize = 5

type handler func(frame host.Frame) host.HookResult

// site is one spliced control transfer. The target's first bytes are moved
// into a stub followed by a jump back, and the target is overwritten with a
// jump to the stub. The host hook sits on the stub entry.
type site struct {
	name      string
	resolver  host.Resolver
	handler   handler
	target    uint64
	original  []byte
	stub      uint64
	hook      host.Hook
	installed atomic.Bool
}

func newSite(name string, resolver host.Resolver, fn handler) *site {
	return &site{name: name, resolver: resolver, handler: fn}
}

func jmp(from, to uint64) []byte {
	b := make([]byte, redirectSize)
	b[0] = 0xE9
	binary.LittleEndian.PutUint32(b[1:], uint32(int32(int64(to)-int64(from+redirectSize))))
	return b
}

// relativeEntry reports whether code starts with a call, jmp or jcc whose
// displacement would be wrong once copied into a stub. Only the first
// instruction is checked; the rest of the copied bytes are not decoded.
func relativeEntry(code []byte) bool {
	switch op := code[0]; {
	case op == 0xE8, op == 0xE9, op == 0xEB, op >= 0x70 && op <= 0x7F:
		return true
	case op == 0x0F:
		return code[1] >= 0x80 && code[1] <= 0x8F
	}
	return false
}

func (s *site) apply(proc host.Process, stubs *Stubs) (err error) {
	if s.installed.Load() {
		return nil
	}
	if s.resolver == nil {
		return fmt.Errorf("%s: %w", s.name, hook.ErrNotResolved)
	}
	target, err := s.resolver.Resolve(proc)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", s.name, hook.ErrNotResolved, err)
	}
	region, err := proc.MemQuery(target)
	if err != nil {
		return err
	} else if region.State != host.MEM_STATE_COMMIT || !region.Prot.Has(host.MEM_PROT_READ|host.MEM_PROT_EXEC) {
		return fmt.Errorf("%s at %x: %w", s.name, target, hook.ErrTargetInvalid)
	}
	original, err := proc.MemRead(target, redirectSize)
	if err != nil {
		return err
	} else if relativeEntry(original) {
		return fmt.Errorf("%s at %x: %w", s.name, target, hook.ErrRelativeEntry)
	}
	stub, err := stubs.Alloc()
	if err != nil {
		return err
	}
	var releases []func()
	defer func() {
		if err != nil {
			for i := len(releases) - 1; i >= 0; i-- {
				releases[i]()
			}
		}
	}()
	releases = append(releases, func() { stubs.Free(stub) })
	trampoline := append(slices.Clone(original), jmp(stub+redirectSize, target+redirectSize)...)
	if err = patch.Write(proc, stub, trampoline); err != nil {
		return err
	}
	h, err := proc.Hook(host.HOOK_TYPE_CODE, s.dispatch, nil, stub, stub+1)
	if err != nil {
		return err
	}
	releases = append(releases, func() { h.Close() })
	if err = patch.Write(proc, target, jmp(target, stub)); err != nil {
		return err
	}
	s.target, s.original, s.stub, s.hook = target, original, stub, h
	s.installed.Store(true)
	return nil
}

func (s *site) remove(proc host.Process, stubs *Stubs) error {
	if !s.installed.Swap(false) {
		return nil
	}
	if err := patch.Write(proc, s.target, s.original); err != nil {
		s.installed.Store(true)
		return err
	}
	if ok, err := patch.Verify(proc, s.target, s.original); err != nil || !ok {
		return fmt.Errorf("%s at %x: %w", s.name, s.target, hook.ErrRestore)
	}
	s.hook.Close()
	stubs.Free(s.stub)
	s.hook = nil
	return nil
}

// intact reports whether an installed site still redirects to its stub.
func (s *site) intact(proc host.Process) bool {
	if !s.installed.Load() {
		return true
	}
	ok, err := patch.Verify(proc, s.target, jmp(s.target, s.stub))
	return err == nil && ok
}

// dispatch passes through until the site is published as installed, so a
// call that lands on the stub mid-install runs the original code.
func (s *site) dispatch(frame host.Frame, addr uint64, data any) host.HookResult {
	if !s.installed.Load() {
		return host.HookResult_Next
	}
	return s.handler(frame)
}

func (s *site) descriptor() hook.Descriptor {
	return hook.Descriptor{
		Name:      s.name,
		Target:    s.target,
		Original:  slices.Clone(s.original),
		Installed: s.installed.Load(),
	}
}

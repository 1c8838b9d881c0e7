// Package patch applies single-byte patches to host memory, gated on the byte
// that is expected to be there.
package patch

import (
	"bytes"
	"fmt"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/wnxd/mpcore/host"
)

type Patch struct {
	Name     string
	Target   host.Resolver
	Expected byte
	Value    byte
}

// LoadingCrash fixes the loading-screen crash of the 1.0 executables. The US
// and EU builds place the instruction at different addresses; the word at
// 0x748ADD tells them apart.
var LoadingCrash = Patch{
	Name: "loading-crash",
	Target: host.Variant{
		Probe: 0x748ADD,
		Want:  0x53FF,
		Match: host.Fixed(0x7468F9),
		Else:  host.Fixed(0x746949),
	},
	Expected: 0xB7,
	Value:    0x39,
}

type applied struct {
	patch Patch
	addr  uint64
}

type Patcher struct {
	proc    host.Process
	log     *logger.Logger
	applied []applied
}

func NewPatcher(proc host.Process) *Patcher {
	return &Patcher{
		proc: proc,
		log:  logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "patch")),
	}
}

// Apply resolves and applies each patch. A patch that cannot be resolved or
// written is logged and skipped. It returns how many bytes were changed.
func (p *Patcher) Apply(patches ...Patch) int {
	var count int
	for _, patch := range patches {
		addr, err := patch.Target.Resolve(p.proc)
		if err != nil {
			p.log.Warn("resolve ", patch.Name, ": ", err)
			continue
		}
		ok, err := ApplyPatch(p.proc, addr, patch.Expected, patch.Value)
		if err != nil {
			p.log.Warn("apply ", patch.Name, ": ", err)
			continue
		} else if !ok {
			p.log.Debugln("skipped", patch.Name, "at", fmt.Sprintf("%x", addr))
			continue
		}
		p.log.Infoln("applied", patch.Name, "at", fmt.Sprintf("%x", addr))
		p.applied = append(p.applied, applied{patch, addr})
		count++
	}
	return count
}

// RestoreAll reverts applied patches, newest first.
func (p *Patcher) RestoreAll() {
	for i := len(p.applied) - 1; i >= 0; i-- {
		a := p.applied[i]
		if _, err := ApplyPatch(p.proc, a.addr, a.patch.Value, a.patch.Expected); err != nil {
			p.log.Warn("restore ", a.patch.Name, ": ", err)
		}
	}
	p.applied = nil
}

// ApplyPatch writes value at addr when the region is committed and readable
// and the byte there equals expected. A mismatch or an unusable region is not
// an error: the call reports false and memory is left untouched.
func ApplyPatch(proc host.Process, addr uint64, expected, value byte) (bool, error) {
	region, err := proc.MemQuery(addr)
	if err != nil {
		return false, err
	} else if !region.Accessible() || !region.Prot.Has(host.MEM_PROT_READ) {
		return false, nil
	}
	current, err := proc.MemRead(addr, 1)
	if err != nil {
		return false, err
	} else if current[0] != expected {
		return false, nil
	}
	if err = Write(proc, addr, []byte{value}); err != nil {
		return false, err
	}
	return true, nil
}

// Write stores data at addr, making every page it touches writable for the
// duration of the write and putting the previous protection back afterwards.
func Write(proc host.Process, addr uint64, data []byte) error {
	end := addr + uint64(len(data))
	var saved []host.MemRegion
	defer func() {
		for i := len(saved) - 1; i >= 0; i-- {
			proc.MemProtect(saved[i].Addr, saved[i].Size, saved[i].Prot)
		}
	}()
	page := proc.PageSize()
	for cur := addr; cur < end; {
		region, err := proc.MemQuery(cur)
		if err != nil {
			return err
		} else if region.State != host.MEM_STATE_COMMIT {
			return fmt.Errorf("write %x: %w", cur, host.ErrAddressInvalid)
		}
		span := host.MemRegion{
			Addr: host.AlignDown(cur, page),
			Prot: region.Prot,
		}
		span.Size = host.Align(min(end, region.End()), page) - span.Addr
		if !region.Prot.Has(host.MEM_PROT_WRITE) {
			if err = proc.MemProtect(span.Addr, span.Size, region.Prot|host.MEM_PROT_WRITE); err != nil {
				return err
			}
			saved = append(saved, span)
		}
		cur = region.End()
	}
	return proc.MemWrite(addr, data)
}

// Verify reports whether addr holds want.
func Verify(proc host.Process, addr uint64, want []byte) (bool, error) {
	got, err := proc.MemRead(addr, uint64(len(want)))
	if err != nil {
		return false, err
	}
	return bytes.Equal(got, want), nil
}

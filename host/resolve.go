package host

import (
	"bytes"
	"fmt"
)

// Resolver locates a control-transfer point or data byte inside a process.
// Binary variants are expressed as different resolvers rather than as
// conditionals at the call site.
type Resolver interface {
	Resolve(proc Process) (uint64, error)
}

type ResolverFunc func(proc Process) (uint64, error)

func (f ResolverFunc) Resolve(proc Process) (uint64, error) {
	return f(proc)
}

type Fixed uint64

func (f Fixed) Resolve(Process) (uint64, error) {
	if f == 0 {
		return 0, ErrAddressInvalid
	}
	return uint64(f), nil
}

func (f Fixed) String() string {
	return fmt.Sprintf("0x%X", uint64(f))
}

type Symbol struct {
	Module, Name string
}

func (s Symbol) Resolve(proc Process) (uint64, error) {
	addr, err := proc.FindSymbol(s.Module, s.Name)
	if err != nil {
		return 0, fmt.Errorf("%s!%s: %w", s.Module, s.Name, err)
	}
	return addr, nil
}

func (s Symbol) String() string {
	return s.Module + "!" + s.Name
}

// Signature scans readable committed memory for Pattern. Mask bytes of 0xFF
// must match exactly, 0x00 is a wildcard; an empty mask matches every byte.
// The first match plus Offset is returned.
type Signature struct {
	Pattern []byte
	Mask    []byte
	Offset  int64
}

func (s Signature) Resolve(proc Process) (uint64, error) {
	mask := s.Mask
	if len(mask) == 0 {
		mask = bytes.Repeat([]byte{0xFF}, len(s.Pattern))
	} else if len(mask) != len(s.Pattern) {
		return 0, fmt.Errorf("mask length (%d) doesn't match pattern length (%d)", len(mask), len(s.Pattern))
	}
	if len(s.Pattern) == 0 {
		return 0, ErrPatternNotFound
	}
	regions, err := proc.MemRegions()
	if err != nil {
		return 0, err
	}
	for _, region := range regions {
		if region.State != MEM_STATE_COMMIT || !region.Prot.Has(MEM_PROT_READ) {
			continue
		}
		data, err := proc.MemRead(region.Addr, region.Size)
		if err != nil {
			continue
		}
		if i := matchPattern(data, s.Pattern, mask); i >= 0 {
			return uint64(int64(region.Addr) + int64(i) + s.Offset), nil
		}
	}
	return 0, ErrPatternNotFound
}

func matchPattern(data, pattern, mask []byte) int {
	for i := 0; i+len(pattern) <= len(data); i++ {
		found := true
		for j := range pattern {
			if mask[j] != 0 && data[i+j] != pattern[j] {
				found = false
				break
			}
		}
		if found {
			return i
		}
	}
	return -1
}

// Variant reads a little-endian word at Probe and picks Match when it equals
// Want, otherwise Else.
type Variant struct {
	Probe uint64
	Want  uint16
	Match Resolver
	Else  Resolver
}

func (v Variant) Resolve(proc Process) (uint64, error) {
	word, err := ToPointer(proc, v.Probe).ReadUint16()
	if err != nil {
		return 0, err
	}
	if word == v.Want {
		return v.Match.Resolve(proc)
	}
	return v.Else.Resolve(proc)
}

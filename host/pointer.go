package host

import (
	"encoding/binary"
	"slices"
)

type Pointer struct {
	proc Process
	addr uint64
}

func ToPointer(proc Process, addr uint64) Pointer {
	return Pointer{proc, addr}
}

func (p Pointer) Address() uint64 {
	return p.addr
}

func (p Pointer) Add(offset uint64) Pointer {
	return Pointer{p.proc, p.addr + offset}
}

func (p Pointer) ReadUint8() (uint8, error) {
	b, err := p.proc.MemRead(p.addr, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (p Pointer) ReadUint16() (uint16, error) {
	b, err := p.proc.MemRead(p.addr, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (p Pointer) ReadPointer() (ptr Pointer, err error) {
	size := p.proc.Arch().PointerSize()
	if size == 0 {
		err = ErrArchUnsupported
		return
	}
	b, err := p.proc.MemRead(p.addr, size)
	if err != nil {
		return
	}
	var addr uint64
	if size == 4 {
		addr = uint64(binary.LittleEndian.Uint32(b))
	} else {
		addr = binary.LittleEndian.Uint64(b)
	}
	return Pointer{p.proc, addr}, nil
}

func (p Pointer) ReadString() (string, error) {
	var data []byte
	const size = 0x10
	for begin := p.addr; ; begin += size {
		buf, err := p.proc.MemRead(begin, size)
		if err != nil {
			return "", err
		}
		i := slices.Index(buf, 0)
		if i == -1 {
			data = append(data, buf...)
		} else {
			data = append(data, buf[:i]...)
			break
		}
	}
	return string(data), nil
}

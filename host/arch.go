package host

type Arch int

const (
	ARCH_UNKNOWN Arch = iota
	ARCH_X86
	ARCH_X86_64
	ARCH_ARM64
)

func (a Arch) PointerSize() uint64 {
	switch a {
	case ARCH_X86:
		return 4
	case ARCH_X86_64, ARCH_ARM64:
		return 8
	}
	return 0
}

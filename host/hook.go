package host

import "io"

type HookType int

const (
	HOOK_TYPE_CODE HookType = 1 << iota
)

type HookResult int

const (
	HookResult_Done HookResult = -1
	HookResult_Next HookResult = 0
)

// Frame is the call frame observed by a code hook.
type Frame interface {
	Args() []uint64
	Arg(i int) uint64
	Return(value uint64)
}

type CodeCallback = func(frame Frame, addr uint64, data any) HookResult

type Hook interface {
	io.Closer
	Type() HookType
}

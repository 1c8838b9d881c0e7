package host

import "errors"

var (
	ErrArchUnsupported  = errors.New("architecture unsupported")
	ErrAddressInvalid   = errors.New("address invalid")
	ErrAccessViolation  = errors.New("access violation")
	ErrSymbolNotFound   = errors.New("symbol not found")
	ErrPatternNotFound  = errors.New("pattern not found")
	ErrHookCallbackType = errors.New("hook callback type exception")
	ErrStepLimit        = errors.New("step limit exceeded")
	ErrNotImplemented   = errors.New("not implemented")
)

package hook

import "errors"

var (
	ErrHookCorrupted = errors.New("hook corrupted")
	ErrNotResolved   = errors.New("hook target not resolved")
	ErrTargetInvalid = errors.New("hook target not executable")
	ErrRestore       = errors.New("original bytes not restored")
	ErrRelativeEntry = errors.New("hook target starts with a relative branch")
)

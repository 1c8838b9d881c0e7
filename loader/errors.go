package loader

import (
	"errors"
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	ErrModuleNotLoadable  = errors.New("module not loadable")
	ErrModuleIncorrect    = errors.New("module incorrect")
	ErrModuleIncompatible = errors.New("module incompatible")
	ErrModuleNotLoaded    = errors.New("module not loaded")
	ErrSymbolNotFound     = errors.New("symbol not found")
	ErrSymbolType         = errors.New("symbol type mismatch")
)

type Stage int

const (
	StageLoad Stage = iota
	StageInitialize
	StageHandshake
)

func (s Stage) String() string {
	switch s {
	case StageLoad:
		return "load"
	case StageInitialize:
		return "initialize"
	case StageHandshake:
		return "handshake"
	}
	return "unknown"
}

func (s Stage) sentinel() error {
	switch s {
	case StageLoad:
		return ErrModuleNotLoadable
	case StageInitialize:
		return ErrModuleIncorrect
	default:
		return ErrModuleIncompatible
	}
}

// Error is a module failure tagged with the stage it happened in. Topic names
// the remediation page for the failure, if there is one.
type Error struct {
	Module string
	Stage  Stage
	Topic  string
	Err    error
}

func (e *Error) Error() string {
	switch e.Stage {
	case StageLoad:
		return fmt.Sprintf("Error loading %s module! (%v)", cases.Lower(language.Und).String(e.Module), e.Err)
	case StageInitialize:
		if e.Err != nil {
			return fmt.Sprintf("%s module is incorrect! (%v)", title(e.Module), e.Err)
		}
		return fmt.Sprintf("%s module is incorrect!", title(e.Module))
	default:
		return fmt.Sprintf("%s module not compatible!", title(e.Module))
	}
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Stage.sentinel()}
	}
	return []error{e.Stage.sentinel(), e.Err}
}

func title(name string) string {
	return cases.Title(language.Und, cases.NoLower).String(name)
}

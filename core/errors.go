package core

import (
	"errors"
	"fmt"

	"github.com/wnxd/mpcore/hook"
	"github.com/wnxd/mpcore/loader"
)

var (
	ErrInvalidState           = errors.New("invalid lifecycle state")
	ErrUnsupportedGameVersion = errors.New("only game version 1.0 is supported")
	ErrNoConfig               = errors.New("configuration document not loaded")
	ErrNotConnected           = errors.New("network module not created")
)

type Class int

const (
	ClassEnvironment Class = iota
	ClassModule
	ClassHook
)

func (c Class) String() string {
	switch c {
	case ClassEnvironment:
		return "environment"
	case ClassModule:
		return "module"
	case ClassHook:
		return "hook"
	}
	return "unknown"
}

// FatalError ends the process. Message is what the user is shown; Topic
// names the remediation page, if any.
type FatalError struct {
	Class   Class
	Message string
	Topic   string
	Code    int
	Err     error
}

func (e *FatalError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("fatal %s error: %v", e.Class, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// asFatal classifies err. Module failures keep the loader's diagnostic and
// remediation topic.
func asFatal(err error) *FatalError {
	var fe *FatalError
	if errors.As(err, &fe) {
		return fe
	}
	var le *loader.Error
	if errors.As(err, &le) {
		return &FatalError{Class: ClassModule, Message: le.Error(), Topic: le.Topic, Code: 1, Err: err}
	}
	if errors.Is(err, hook.ErrHookCorrupted) {
		return &FatalError{Class: ClassHook, Message: "Hook installation failed!", Code: 1, Err: err}
	}
	return &FatalError{Class: ClassModule, Code: 1, Err: err}
}

// Package hook describes interception points spliced into the host process.
//
// A Manager owns one or more sites. ApplyHook installs every site or none,
// RemoveHook puts the original bytes back and is a no-op when nothing is
// installed. A Toggle additionally switches behaviour on the hot path without
// touching the splice.
package hook

import "github.com/wnxd/mpcore/host"

type Descriptor struct {
	Name      string
	Target    uint64
	Original  []byte
	Installed bool
	Enabled   bool
}

type Manager interface {
	Name() string
	ApplyHook() error
	RemoveHook() error
	Installed() bool
	Descriptors() []Descriptor
}

type Toggle interface {
	Manager
	Enable()
	Disable()
	Enabled() bool
}

// Targets names where each manager splices in.
type Targets struct {
	CreateDevice host.Resolver
	BeginScene   host.Resolver
	Present      host.Resolver
	PollInput    host.Resolver
	WindowProc   host.Resolver
	SetCursorPos host.Resolver
}

func DefaultTargets() Targets {
	return Targets{
		CreateDevice: host.Symbol{Module: "d3d9", Name: "CreateDevice"},
		BeginScene:   host.Symbol{Module: "d3d9", Name: "BeginScene"},
		Present:      host.Symbol{Module: "d3d9", Name: "Present"},
		PollInput:    host.Symbol{Module: "dinput8", Name: "GetDeviceState"},
		WindowProc:   host.Symbol{Module: "gta_sa", Name: "WndProc"},
		SetCursorPos: host.Symbol{Module: "user32", Name: "SetCursorPos"},
	}
}

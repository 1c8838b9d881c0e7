// Package keybinds maps keys to commands and game controls.
package keybinds

import (
	"slices"
	"strings"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

type Executor interface {
	Execute(line string) error
}

type Kind int

const (
	KindCommand Kind = iota
	KindControl
)

type ControlKind int

const (
	ControlFoot ControlKind = 1 << iota
	ControlVehicle

	ControlBoth = ControlFoot | ControlVehicle
)

var controls = map[string]ControlKind{
	"fire":          ControlFoot,
	"forwards":      ControlFoot,
	"backwards":     ControlFoot,
	"left":          ControlFoot,
	"right":         ControlFoot,
	"jump":          ControlFoot,
	"sprint":        ControlFoot,
	"crouch":        ControlFoot,
	"enter_exit":    ControlBoth,
	"accelerate":    ControlVehicle,
	"brake_reverse": ControlVehicle,
	"vehicle_left":  ControlVehicle,
	"vehicle_right": ControlVehicle,
	"horn":          ControlVehicle,
	"handbrake":     ControlVehicle,
}

func IsControl(name string) bool {
	_, ok := controls[name]
	return ok
}

type Bind struct {
	Key     string
	Kind    Kind
	Command string
	Args    string
	OnUp    bool
	Control string
}

type Binds struct {
	exec   Executor
	log    *logger.Logger
	binds  []*Bind
	states map[string]bool
	frame  map[string]bool
	held   map[string]bool
	queue  []string
}

func New(exec Executor) *Binds {
	return &Binds{
		exec:   exec,
		log:    logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "keybinds")),
		states: make(map[string]bool),
		frame:  make(map[string]bool),
		held:   make(map[string]bool),
	}
}

func normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func (b *Binds) AddCommand(key, command, args string, onUp bool) {
	b.binds = append(b.binds, &Bind{Key: normalize(key), Kind: KindCommand, Command: command, Args: args, OnUp: onUp})
}

// AddControl binds key to a game control and reports false for an unknown
// control name.
func (b *Binds) AddControl(key, control string) bool {
	if !IsControl(control) {
		return false
	}
	b.binds = append(b.binds, &Bind{Key: normalize(key), Kind: KindControl, Control: control})
	return true
}

// Remove drops every bind of key and returns how many there were.
func (b *Binds) Remove(key string) int {
	key = normalize(key)
	before := len(b.binds)
	b.binds = slices.DeleteFunc(b.binds, func(v *Bind) bool { return v.Key == key })
	return before - len(b.binds)
}

func (b *Binds) Clear() {
	b.binds = nil
	clear(b.states)
	clear(b.frame)
	clear(b.held)
	b.queue = nil
}

func (b *Binds) Binds() []*Bind {
	return slices.Clone(b.binds)
}

// ProcessKey applies a key transition. Command binds are queued for the next
// post-frame pulse, once per press: auto-repeated downs of a held key queue
// nothing. It reports whether any bind matched.
func (b *Binds) ProcessKey(key string, down bool) bool {
	key = normalize(key)
	repeat := down && b.held[key]
	if down {
		b.held[key] = true
	} else {
		delete(b.held, key)
	}
	matched := false
	for _, bind := range b.binds {
		if bind.Key != key {
			continue
		}
		switch bind.Kind {
		case KindCommand:
			if bind.OnUp != down && !repeat {
				line := bind.Command
				if bind.Args != "" {
					line += " " + bind.Args
				}
				b.queue = append(b.queue, line)
			}
		case KindControl:
			b.states[bind.Control] = down
		}
		matched = true
	}
	return matched
}

// DoPreFramePulse publishes the control states the game sees this frame.
func (b *Binds) DoPreFramePulse() {
	clear(b.frame)
	for control, state := range b.states {
		b.frame[control] = state
	}
}

// DoPostFramePulse runs the commands queued by key presses.
func (b *Binds) DoPostFramePulse() {
	queue := b.queue
	b.queue = nil
	for _, line := range queue {
		if err := b.exec.Execute(line); err != nil {
			b.log.Warn("bind: ", err)
		}
	}
}

func (b *Binds) ControlState(control string) bool {
	return b.frame[control]
}

// CallAllControlBinds forces every bound control of kind to state and returns
// how many controls changed. Releasing also forgets which keys are held, as
// their up transitions may never arrive.
func (b *Binds) CallAllControlBinds(kind ControlKind, state bool) int {
	if !state {
		clear(b.held)
	}
	var changed int
	for _, bind := range b.binds {
		if bind.Kind != KindControl || controls[bind.Control]&kind == 0 {
			continue
		}
		if b.states[bind.Control] != state {
			b.states[bind.Control] = state
			changed++
		}
	}
	if changed > 0 {
		b.DoPreFramePulse()
	}
	return changed
}

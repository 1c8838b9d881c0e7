// Package commands dispatches text commands by name.
package commands

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var ErrCommandNotFound = errors.New("command not found")

type Handler func(args string)

type Command struct {
	Name        string
	Description string
	Handler     Handler
}

type Registry struct {
	commands map[string]*Command
}

func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]*Command)}
}

// Add registers a command. Names are case insensitive; a later Add replaces
// an earlier one.
func (r *Registry) Add(name, description string, handler Handler) {
	key := strings.ToLower(name)
	r.commands[key] = &Command{Name: key, Description: description, Handler: handler}
}

func (r *Registry) Remove(name string) {
	delete(r.commands, strings.ToLower(name))
}

func (r *Registry) Get(name string) (*Command, bool) {
	c, ok := r.commands[strings.ToLower(name)]
	return c, ok
}

// Execute runs "name args..." and reports ErrCommandNotFound for unknown
// names.
func (r *Registry) Execute(line string) error {
	name, args, _ := strings.Cut(strings.TrimSpace(line), " ")
	if name == "" {
		return nil
	}
	c, ok := r.Get(name)
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrCommandNotFound)
	}
	c.Handler(strings.TrimSpace(args))
	return nil
}

func (r *Registry) List() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, name := range slices.Sorted(maps.Keys(r.commands)) {
		cmds = append(cmds, r.commands[name])
	}
	return cmds
}

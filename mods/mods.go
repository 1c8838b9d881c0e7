// Package mods runs the active mod. A mod is a directory holding main.lua;
// the script may define onLoad(args), onPreFrame(), onPostFrame() and
// onUnload(), and can reach the client through the global mp table.
package mods

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/Shopify/go-lua"
)

const entryScript = "main.lua"

var (
	ErrInvalidModName = errors.New("invalid mod name")
	ErrModNotFound    = errors.New("mod not found")
)

// Host is what a mod script can call back into.
type Host interface {
	Echo(message string)
	Command(line string) error
}

type Mod struct {
	Name  string
	Dir   string
	state *lua.State
}

type Manager struct {
	root          string
	host          Host
	log           *logger.Logger
	active        *Mod
	pendingUnload bool
	onUnload      func(name string)
}

func NewManager(root string, host Host) *Manager {
	return &Manager{
		root: root,
		host: host,
		log:  logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "mods")),
	}
}

// OnUnload registers fn to run after a mod has been unloaded.
func (m *Manager) OnUnload(fn func(name string)) {
	m.onUnload = fn
}

func ValidName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\:`)
}

func (m *Manager) Dir(name string) string {
	return filepath.Join(m.root, name)
}

// Installed lists the mods found under the root directory.
func (m *Manager) Installed() ([]string, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(m.root, e.Name(), entryScript)); err == nil {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Load replaces the active mod with name and calls its onLoad with args.
func (m *Manager) Load(name, args string) error {
	if !ValidName(name) {
		return fmt.Errorf("%q: %w", name, ErrInvalidModName)
	}
	dir := m.Dir(name)
	script := filepath.Join(dir, entryScript)
	if _, err := os.Stat(script); err != nil {
		return fmt.Errorf("%s: %w", name, ErrModNotFound)
	}
	m.Unload()

	l := lua.NewState()
	lua.OpenLibraries(l)
	mod := &Mod{Name: name, Dir: dir, state: l}
	m.register(l, mod)
	if err := lua.LoadFile(l, script, ""); err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	if err := l.ProtectedCall(0, 0, 0); err != nil {
		return fmt.Errorf("run %s: %w", name, err)
	}
	m.active = mod
	m.log.Infoln("Loaded mod", name)
	if _, err := mod.call("onLoad", args); err != nil {
		m.Unload()
		return fmt.Errorf("%s onLoad: %w", name, err)
	}
	return nil
}

func (m *Manager) register(l *lua.State, mod *Mod) {
	l.NewTable()
	lua.SetFunctions(l, []lua.RegistryFunction{
		{Name: "echo", Function: func(l *lua.State) int {
			m.host.Echo(lua.CheckString(l, 1))
			return 0
		}},
		{Name: "command", Function: func(l *lua.State) int {
			err := m.host.Command(lua.CheckString(l, 1))
			l.PushBoolean(err == nil)
			return 1
		}},
		{Name: "name", Function: func(l *lua.State) int {
			l.PushString(mod.Name)
			return 1
		}},
	}, 0)
	l.SetGlobal("mp")
}

// Unload calls onUnload on the active mod and drops it.
func (m *Manager) Unload() {
	mod := m.active
	if mod == nil {
		return
	}
	if _, err := mod.call("onUnload"); err != nil {
		m.log.Warn(mod.Name, " onUnload: ", err)
	}
	m.active = nil
	m.pendingUnload = false
	mod.state = nil
	m.log.Infoln("Unloaded mod", mod.Name)
	if m.onUnload != nil {
		m.onUnload(mod.Name)
	}
}

// RequestUnload unloads the active mod at the end of the next post-frame
// pulse.
func (m *Manager) RequestUnload() {
	m.pendingUnload = m.active != nil
}

func (m *Manager) IsLoaded() bool {
	return m.active != nil
}

func (m *Manager) Active() string {
	if m.active == nil {
		return ""
	}
	return m.active.Name
}

func (m *Manager) DoPulsePreFrame() {
	m.pulse("onPreFrame")
}

func (m *Manager) DoPulsePostFrame() {
	m.pulse("onPostFrame")
	if m.pendingUnload {
		m.Unload()
	}
}

func (m *Manager) pulse(fn string) {
	if m.active == nil {
		return
	}
	if _, err := m.active.call(fn); err != nil {
		m.log.Warn(m.active.Name, " ", fn, ": ", err)
	}
}

// call runs the global function fn if the script defines it.
func (mod *Mod) call(fn string, args ...string) (bool, error) {
	l := mod.state
	l.Global(fn)
	if !l.IsFunction(-1) {
		l.Pop(1)
		return false, nil
	}
	for _, arg := range args {
		l.PushString(arg)
	}
	if err := l.ProtectedCall(len(args), 0, 0); err != nil {
		l.Pop(1)
		return true, err
	}
	return true, nil
}

package core

import (
	"fmt"
	"strings"

	"github.com/wnxd/mpcore/cmdline"
	"github.com/wnxd/mpcore/keybinds"
)

// Pulse runs one phase of a frame. It does nothing unless the core is
// running.
func (c *Core) Pulse(phase Phase) {
	if c.state != StateRunning {
		return
	}
	switch phase {
	case PhasePreFrame:
		c.preFrame()
	case PhasePostFrame:
		c.postFrame()
	}
}

func (c *Core) preFrame() {
	c.binds.DoPreFramePulse()
	c.mods.DoPulsePreFrame()
	c.localGUI.DoPulse()
}

func (c *Core) postFrame() {
	if c.take(deferQuit) {
		c.Quit(true)
		return
	}
	if c.take(deferDestroyMessageBox) {
		c.RemoveMessageBox(false)
	}
	if !c.setupDone {
		c.setupDone = true
		c.setup()
	}
	c.startupGate()
	c.focusPulse()

	c.binds.DoPostFramePulse()
	c.mods.DoPulsePostFrame()
	c.connect.DoPulse()
	if c.community != nil {
		c.community.DoPulse()
	}
}

func (c *Core) take(d deferred) bool {
	if c.deferred&d == 0 {
		return false
	}
	c.deferred &^= d
	return true
}

// setup runs on the first post-frame pulse, when every subsystem created at
// startup has seen at least one frame.
func (c *Core) setup() {
	c.log.Debugln("Applying settings")
	c.localGUI.ApplySettings(c.vars)
	c.game.ApplySettings(c.vars)
	if c.gui != nil {
		c.gui.SelectInputHandlers(InputCore)
	}
	if c.community != nil {
		c.community.Initialize()
	}
}

// startupGate waits for the front-end to settle before the command line is
// acted on. The game reaching the front-end is observable but the end of its
// fade-in is not, so either the credits report done or the grace frames run
// out.
func (c *Core) startupGate() {
	if c.game.SystemState() != SystemFrontend {
		return
	}
	if c.game.HasCreditScreenFadedOut() {
		c.graceFrames = c.cfg.StartupGraceFrames
	}
	if c.graceFrames < c.cfg.StartupGraceFrames {
		c.graceFrames++
		return
	}
	if c.firstFrame {
		c.firstFrame = false
		c.runCommandLine()
	}
}

func (c *Core) runCommandLine() {
	if len(c.args) >= len(cmdline.Scheme)+3 && strings.EqualFold(c.args[:len(cmdline.Scheme)+3], cmdline.Scheme+"://") {
		d := cmdline.ParseURI(c.args, c.nick())
		if !d.Valid() {
			c.ShowMessageBox("Error", "Error executing URL")
			return
		}
		// Decoded credentials may contain spaces, so they must not go back
		// through command text.
		c.connectDirective(d)
		return
	}
	if mod, ok := c.options.Get("l"); ok {
		if err := c.mods.Load(mod, c.args); err != nil {
			c.log.Warn("load ", mod, ": ", err)
			c.ShowMessageBox("Error", fmt.Sprintf("Error running mod specified in command line ('%s')", mod))
		}
	} else if target, ok := c.options.Get("c"); ok {
		c.connectTo(target)
	}
}

// focusPulse releases every held control when the window loses focus, so
// nothing is stuck down when it comes back.
func (c *Core) focusPulse() {
	if !c.focused && c.lastFocused {
		c.binds.CallAllControlBinds(keybinds.ControlBoth, false)
		c.lastFocused = false
	} else if c.focused && !c.lastFocused {
		c.lastFocused = true
	}
}

func (c *Core) nick() string {
	var nick string
	if err := c.vars.Get("nick", &nick); err != nil {
		return ""
	}
	return nick
}

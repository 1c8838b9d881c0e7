package core

import (
	"strconv"

	"github.com/wnxd/mpcore/hook"
)

var (
	_ hook.RenderSink  = (*Core)(nil)
	_ hook.InputSink   = (*Core)(nil)
	_ hook.MessageSink = (*Core)(nil)
)

const (
	wmActivate    = 0x0006
	wmSetFocus    = 0x0007
	wmKillFocus   = 0x0008
	wmClose       = 0x0010
	wmKeyDown     = 0x0100
	wmKeyUp       = 0x0101
	wmSysKeyDown  = 0x0104
	wmSysKeyUp    = 0x0105
	wmLButtonDown = 0x0201
	wmLButtonUp   = 0x0202
	wmRButtonDown = 0x0204
	wmRButtonUp   = 0x0205

	waInactive = 0
)

func (c *Core) OnDeviceCreated(device uint64) {
	if err := c.InitGUI(device); err != nil {
		c.log.Warn("init GUI: ", err)
	}
}

func (c *Core) OnPreFrame() {
	c.Pulse(PhasePreFrame)
}

func (c *Core) OnPostFrame() {
	c.Pulse(PhasePostFrame)
}

// OnInput hides device input from the game while the GUI has it.
func (c *Core) OnInput(uint64) bool {
	return c.localGUI.InputGoesToGUI()
}

// OnMessage tracks focus, turns a close request into a deferred quit and
// feeds keys to the binds. It reports whether the message was consumed.
func (c *Core) OnMessage(window uint64, msg uint32, wparam, lparam uint64) bool {
	switch msg {
	case wmActivate:
		c.focused = wparam&0xFFFF != waInactive
	case wmSetFocus:
		c.focused = true
	case wmKillFocus:
		c.focused = false
	case wmClose:
		c.Quit(false)
		return true
	case wmKeyDown, wmSysKeyDown:
		return c.key(virtualKey(wparam), true)
	case wmKeyUp, wmSysKeyUp:
		return c.key(virtualKey(wparam), false)
	case wmLButtonDown:
		return c.key("mouse1", true)
	case wmLButtonUp:
		return c.key("mouse1", false)
	case wmRButtonDown:
		return c.key("mouse2", true)
	case wmRButtonUp:
		return c.key("mouse2", false)
	}
	return false
}

func (c *Core) key(name string, down bool) bool {
	if name == "" || c.state != StateRunning || c.localGUI.InputGoesToGUI() {
		return false
	}
	return c.binds.ProcessKey(name, down)
}

var virtualKeys = map[uint64]string{
	0x08: "backspace",
	0x09: "tab",
	0x0D: "enter",
	0x10: "lshift",
	0x11: "lctrl",
	0x12: "lalt",
	0x1B: "escape",
	0x20: "space",
	0x21: "pgup",
	0x22: "pgdn",
	0x25: "arrow_l",
	0x26: "arrow_u",
	0x27: "arrow_r",
	0x28: "arrow_d",
	0xC0: "`",
}

func virtualKey(vk uint64) string {
	switch {
	case vk >= '0' && vk <= '9':
		return string(rune(vk))
	case vk >= 'A' && vk <= 'Z':
		return string(rune(vk - 'A' + 'a'))
	case vk >= 0x70 && vk <= 0x7B:
		return "f" + strconv.Itoa(int(vk-0x70)+1)
	}
	return virtualKeys[vk]
}

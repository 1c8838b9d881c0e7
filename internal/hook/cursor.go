package hook

import (
	"sync/atomic"

	"github.com/wnxd/mpcore/hook"
	"github.com/wnxd/mpcore/host"
)

// Cursor guards the host's cursor positioning. While disabled the call is
// swallowed and reported as successful.
type Cursor struct {
	manager
	enabled atomic.Bool
}

var _ hook.Toggle = (*Cursor)(nil)

func NewCursor(proc host.Process, stubs *Stubs, target host.Resolver) *Cursor {
	c := &Cursor{}
	c.enabled.Store(true)
	c.manager = manager{
		name:  "cursor",
		proc:  proc,
		stubs: stubs,
		sites: []*site{newSite("set-cursor-pos", target, c.onSetCursorPos)},
	}
	return c
}

func (c *Cursor) Enable() {
	c.enabled.Store(true)
}

func (c *Cursor) Disable() {
	c.enabled.Store(false)
}

func (c *Cursor) Enabled() bool {
	return c.enabled.Load()
}

func (c *Cursor) Descriptors() []hook.Descriptor {
	descs := c.manager.Descriptors()
	for i := range descs {
		descs[i].Enabled = c.Enabled()
	}
	return descs
}

func (c *Cursor) onSetCursorPos(frame host.Frame) host.HookResult {
	if c.enabled.Load() {
		return host.HookResult_Next
	}
	frame.Return(1)
	return host.HookResult_Done
}

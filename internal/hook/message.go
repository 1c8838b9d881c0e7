package hook

import (
	"sync/atomic"

	"github.com/wnxd/mpcore/hook"
	"github.com/wnxd/mpcore/host"
)

type MessageLoop struct {
	manager
	sink   hook.MessageSink
	window atomic.Uint64
}

var _ hook.Manager = (*MessageLoop)(nil)

func NewMessageLoop(proc host.Process, stubs *Stubs, target host.Resolver, sink hook.MessageSink) *MessageLoop {
	ml := &MessageLoop{sink: sink}
	ml.manager = manager{
		name:  "message-loop",
		proc:  proc,
		stubs: stubs,
		sites: []*site{newSite("window-proc", target, ml.onMessage)},
	}
	return ml
}

// Window returns the last window seen by the hooked procedure.
func (ml *MessageLoop) Window() uint64 {
	return ml.window.Load()
}

func (ml *MessageLoop) onMessage(frame host.Frame) host.HookResult {
	window := frame.Arg(0)
	ml.window.Store(window)
	if ml.sink.OnMessage(window, uint32(frame.Arg(1)), frame.Arg(2), frame.Arg(3)) {
		frame.Return(0)
		return host.HookResult_Done
	}
	return host.HookResult_Next
}

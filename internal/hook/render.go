package hook

import (
	"github.com/wnxd/mpcore/hook"
	"github.com/wnxd/mpcore/host"
)

type Render struct {
	manager
	sink hook.RenderSink
}

var _ hook.Manager = (*Render)(nil)

func NewRender(proc host.Process, stubs *Stubs, targets hook.Targets, sink hook.RenderSink) *Render {
	r := &Render{sink: sink}
	r.manager = manager{
		name:  "render",
		proc:  proc,
		stubs: stubs,
		sites: []*site{
			newSite("create-device", targets.CreateDevice, r.onCreateDevice),
			newSite("begin-scene", targets.BeginScene, r.onBeginScene),
			newSite("present", targets.Present, r.onPresent),
		},
	}
	return r
}

func (r *Render) onCreateDevice(frame host.Frame) host.HookResult {
	r.sink.OnDeviceCreated(frame.Arg(0))
	return host.HookResult_Next
}

func (r *Render) onBeginScene(host.Frame) host.HookResult {
	r.sink.OnPreFrame()
	return host.HookResult_Next
}

func (r *Render) onPresent(host.Frame) host.HookResult {
	r.sink.OnPostFrame()
	return host.HookResult_Next
}

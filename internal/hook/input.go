package hook

import (
	"github.com/wnxd/mpcore/hook"
	"github.com/wnxd/mpcore/host"
)

type Input struct {
	manager
	sink hook.InputSink
}

var _ hook.Manager = (*Input)(nil)

func NewInput(proc host.Process, stubs *Stubs, target host.Resolver, sink hook.InputSink) *Input {
	in := &Input{sink: sink}
	in.manager = manager{
		name:  "input",
		proc:  proc,
		stubs: stubs,
		sites: []*site{newSite("poll-input", target, in.onPoll)},
	}
	return in
}

// onPoll reports an empty device state to the game when the sink claims the
// input.
func (in *Input) onPoll(frame host.Frame) host.HookResult {
	if in.sink.OnInput(frame.Arg(0)) {
		frame.Return(0)
		return host.HookResult_Done
	}
	return host.HookResult_Next
}

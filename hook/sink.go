package hook

type RenderSink interface {
	OnDeviceCreated(device uint64)
	OnPreFrame()
	OnPostFrame()
}

// InputSink returns true to hide the polled input from the game.
type InputSink interface {
	OnInput(device uint64) bool
}

// MessageSink returns true when it consumed the window message.
type MessageSink interface {
	OnMessage(window uint64, msg uint32, wparam, lparam uint64) bool
}

package core

type State int

const (
	StateConstructed State = iota
	StateGameCreated
	StateMultiplayerCreated
	StateNetworkCreated
	StateXMLLoaded
	StateRunning
	StateShuttingDown
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateGameCreated:
		return "game-created"
	case StateMultiplayerCreated:
		return "multiplayer-created"
	case StateNetworkCreated:
		return "network-created"
	case StateXMLLoaded:
		return "xml-loaded"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting-down"
	case StateDestroyed:
		return "destroyed"
	}
	return "unknown"
}

type Phase int

const (
	PhasePreFrame Phase = iota
	PhasePostFrame
)

func (p Phase) String() string {
	if p == PhasePreFrame {
		return "pre-frame"
	}
	return "post-frame"
}

// deferred is work queued during a frame and consumed by the next post-frame
// pulse.
type deferred uint8

const (
	deferQuit deferred = 1 << iota
	deferDestroyMessageBox
)

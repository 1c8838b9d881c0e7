package core

import (
	"io"

	"github.com/wnxd/mpcore/connect"
	"github.com/wnxd/mpcore/cvars"
)

// Module file base names and their initializers.
const (
	gameModule        = "game_sa"
	multiplayerModule = "multiplayer_sa"
	networkModule     = "netc"
	guiModule         = "cgui"
	xmlModule         = "xmll"

	GameInitializer        = "GetGameInterface"
	MultiplayerInitializer = "InitMultiplayerInterface"
	NetworkInitializer     = "InitNetInterface"
	GUIInitializer         = "InitGUIInterface"
	XMLInitializer         = "InitXMLInterface"
)

type GameVersion int

const (
	GameVersion10 GameVersion = iota
	GameVersion11
)

// SystemFrontend is the game system state while the front-end menu is up.
const SystemFrontend = 7

type Game interface {
	Version() GameVersion
	SystemState() int
	HasCreditScreenFadedOut() bool
	ApplySettings(vars *cvars.Store)
	Terminate()
}

type Multiplayer interface {
	Terminate()
}

type Net interface {
	connect.Net
	NetRev() uint16
	NetRel() uint16
	Serial() string
	Terminate()
}

type InputOwner int

const (
	InputCore InputOwner = iota
	InputMod
)

// GUI is the widget toolkit. It is initialized with the render device once
// the device exists.
type GUI interface {
	SetWorkingDirectory(dir string)
	SelectInputHandlers(owner InputOwner)
	ClearInputHandlers(owner InputOwner)
}

// LocalGUI is the client's own interface: console, chat and menus.
type LocalGUI interface {
	Echo(text string)
	DebugEcho(text string)
	ShowMessageBox(title, text string) io.Closer
	InputGoesToGUI() bool
	ApplySettings(vars *cvars.Store)
	StoreSettings(vars *cvars.Store)
	DoPulse()
}

type Community interface {
	Initialize()
	DoPulse()
}

package core

import (
	"io"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/wnxd/mpcore/cvars"
)

// logGUI is the local GUI used when none is supplied: echoes go to the log
// and input always belongs to the game.
type logGUI struct {
	log *logger.Logger
}

func newLogGUI() *logGUI {
	return &logGUI{log: logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "console"))}
}

func (g *logGUI) Echo(text string) {
	g.log.Infoln(text)
}

func (g *logGUI) DebugEcho(text string) {
	g.log.Debugln(text)
}

func (g *logGUI) ShowMessageBox(title, text string) io.Closer {
	g.log.Warn(title, ": ", text)
	return io.NopCloser(nil)
}

func (*logGUI) InputGoesToGUI() bool { return false }

func (*logGUI) ApplySettings(*cvars.Store) {}

func (*logGUI) StoreSettings(*cvars.Store) {}

func (*logGUI) DoPulse() {}

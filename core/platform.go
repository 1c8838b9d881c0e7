package core

import (
	"fmt"
	"os"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

const solutionURL = "http://updatesa.multitheftauto.com/sa/trouble/?tr=%s"

// Platform is how the core reaches the user and the process outside of its
// modules.
type Platform interface {
	MessageBox(title, text string)
	BrowseToSolution(topic string)
	Exit(code int)
}

type processPlatform struct {
	log *logger.Logger
}

// ProcessPlatform reports through the log and exits the real process.
func ProcessPlatform() Platform {
	return &processPlatform{
		log: logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "platform")),
	}
}

func (p *processPlatform) MessageBox(title, text string) {
	p.log.Warn(title, ": ", text)
}

func (p *processPlatform) BrowseToSolution(topic string) {
	p.log.Infoln("See", fmt.Sprintf(solutionURL, topic))
}

func (p *processPlatform) Exit(code int) {
	os.Exit(code)
}

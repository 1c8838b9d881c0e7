// Command mpcore inspects a client installation and drives the core.
//
//	mpcore check              validate the environment and every module
//	mpcore uri [-nick N] URI  print the connect command for a mtasa:// URI
//	mpcore args LINE          show how a command line is parsed
//	mpcore run [-frame D] [LINE]
//	                          start the core in this process and pulse it
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/wnxd/mpcore/cmdline"
	"github.com/wnxd/mpcore/config"
	"github.com/wnxd/mpcore/loader"
)

var log = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "mpcore"))

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}
	var err error
	args := flag.Args()[1:]
	switch flag.Arg(0) {
	case "check":
		err = check()
	case "uri":
		err = uri(args)
	case "args":
		parseArgs(strings.Join(args, " "))
	case "run":
		err = run(args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "mpcore:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: mpcore check | uri [-nick N] URI | args LINE | run [-frame D] [LINE]")
}

func check() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	fmt.Println("install root:", cfg.InstallRoot)
	fmt.Println("game root:   ", cfg.GameRoot)
	fmt.Println("modules:     ", cfg.ModulePath())
	fmt.Println("config:      ", cfg.ConfigPath())
	if err = cfg.Validate(); err != nil {
		return err
	}

	var failed []error
	l := loader.New(loader.NewPlugin(cfg.ModulePath()), cfg.InstallRoot, cfg.ModulePath(),
		loader.WithFatal(func(err *loader.Error) { failed = append(failed, err) }))
	defer l.Close()
	for _, m := range []struct{ name, base string }{
		{"Game", "game_sa"},
		{"Multiplayer", "multiplayer_sa"},
		{"Network", "netc"},
		{"GUI", "cgui"},
		{"XML", "xmll"},
	} {
		h, err := l.Load(m.name, m.base)
		if err != nil {
			continue
		}
		fmt.Println("ok", h.Path)
		if m.base == "netc" && l.CheckCompatibility(h, cfg.NetModuleVersion) == nil {
			fmt.Printf("ok %s speaks version %#x\n", h.Name, cfg.NetModuleVersion)
		}
	}
	return errors.Join(failed...)
}

func uri(args []string) error {
	fs := flag.NewFlagSet("uri", flag.ExitOnError)
	nick := fs.String("nick", "Player", "nickname when the URI has none")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return errors.New("uri: expected one URI")
	}
	d := cmdline.ParseURI(fs.Arg(0), *nick)
	if !d.Valid() {
		return fmt.Errorf("uri: cannot read %q", fs.Arg(0))
	}
	fmt.Println(d.Command())
	return nil
}

func parseArgs(line string) {
	opts, rest := cmdline.Parse(line, []string{"window"}, []string{"l"})
	for key, value := range opts {
		fmt.Printf("-%s %q\n", key, value)
	}
	fmt.Printf("free text %q\n", rest)
}

//go:build linux

package main

import (
	"context"
	"flag"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/wnxd/mpcore/config"
	"github.com/wnxd/mpcore/core"
	"github.com/wnxd/mpcore/host/native"
	"github.com/wnxd/mpcore/loader"
)

// run attaches the core to this process and pulses it from a ticker until
// it quits or is interrupted.
func run(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	frame := fs.Duration("frame", time.Second/60, "pulse interval")
	fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	proc := native.Open()
	defer proc.Close()

	c, err := core.New(core.Options{
		Config:      cfg,
		CommandLine: strings.Join(fs.Args(), " "),
		Process:     proc,
		Linker:      loader.NewPlugin(cfg.ModulePath()),
	})
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err = c.Start(ctx); err != nil {
		return err
	}
	defer c.Shutdown()

	ticker := time.NewTicker(*frame)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Infoln("interrupted")
			return nil
		case <-ticker.C:
			c.Pulse(core.PhasePreFrame)
			c.Pulse(core.PhasePostFrame)
			if c.State() != core.StateRunning {
				return nil
			}
		}
	}
}

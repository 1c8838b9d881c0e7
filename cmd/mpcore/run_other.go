//go:build !linux

package main

import "github.com/wnxd/mpcore/host"

func run([]string) error {
	return host.ErrNotImplemented
}

// Package config reads the core's environment configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

var (
	ErrGameRootMissing  = errors.New("game install path not set")
	ErrGameRootNotFound = errors.New("game install path not found")
)

type Config struct {
	InstallRoot        string        `env:"MPCORE_INSTALL_ROOT"`
	GameRoot           string        `env:"MPCORE_GAME_ROOT"`
	ModuleDir          string        `env:"MPCORE_MODULE_DIR" envDefault:"mta"`
	ConfigFile         string        `env:"MPCORE_CONFIG_FILE" envDefault:"mta/coreconfig.xml"`
	ModsDir            string        `env:"MPCORE_MODS_DIR" envDefault:"mods"`
	StartupGraceFrames int           `env:"MPCORE_STARTUP_GRACE_FRAMES" envDefault:"250"`
	NetModuleVersion   uint32        `env:"MPCORE_NET_MODULE_VERSION" envDefault:"4"`
	ConnectTimeout     time.Duration `env:"MPCORE_CONNECT_TIMEOUT" envDefault:"10s"`
	Debug              bool          `env:"MPCORE_DEBUG"`
}

// Load parses the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

// MustLoad is Load for callers that cannot run without a configuration.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadFrom parses environ instead of the process environment.
func LoadFrom(environ map[string]string) (Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if cfg.InstallRoot == "" {
		if exe, err := os.Executable(); err == nil {
			cfg.InstallRoot = filepath.Dir(exe)
		}
	}
	cfg.InstallRoot = trimSeparator(cfg.InstallRoot)
	cfg.GameRoot = trimSeparator(cfg.GameRoot)
	cfg.Debug = cfg.Debug || debugBuild
	return cfg, nil
}

func trimSeparator(path string) string {
	trimmed := strings.TrimRight(path, `/\`)
	if trimmed == "" {
		return path
	}
	return trimmed
}

// Validate checks that the game installation is present.
func (c Config) Validate() error {
	if c.GameRoot == "" {
		return ErrGameRootMissing
	}
	info, err := os.Stat(c.GameRoot)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%s: %w", c.GameRoot, ErrGameRootNotFound)
	}
	return nil
}

func (c Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.InstallRoot, path)
}

func (c Config) ModulePath() string {
	return c.resolve(c.ModuleDir)
}

func (c Config) ConfigPath() string {
	return c.resolve(c.ConfigFile)
}

func (c Config) ModsPath() string {
	return c.resolve(c.ModsDir)
}

package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"MPCORE_INSTALL_ROOT": "/opt/mta/"})
	require.NoError(t, err)
	assert.Equal(t, "/opt/mta", cfg.InstallRoot)
	assert.Equal(t, 250, cfg.StartupGraceFrames)
	assert.Equal(t, uint32(4), cfg.NetModuleVersion)
	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, filepath.Join("/opt/mta", "mta"), cfg.ModulePath())
	assert.Equal(t, filepath.Join("/opt/mta", "mta", "coreconfig.xml"), cfg.ConfigPath())
	assert.Equal(t, filepath.Join("/opt/mta", "mods"), cfg.ModsPath())
}

func TestOverrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"MPCORE_INSTALL_ROOT":         "/opt/mta",
		"MPCORE_MODULE_DIR":           "/usr/lib/mta",
		"MPCORE_STARTUP_GRACE_FRAMES": "30",
		"MPCORE_CONNECT_TIMEOUT":      "2s",
		"MPCORE_DEBUG":                "true",
	})
	require.NoError(t, err)
	assert.Equal(t, "/usr/lib/mta", cfg.ModulePath())
	assert.Equal(t, 30, cfg.StartupGraceFrames)
	assert.Equal(t, 2*time.Second, cfg.ConnectTimeout)
	assert.True(t, cfg.Debug)

	_, err = LoadFrom(map[string]string{"MPCORE_STARTUP_GRACE_FRAMES": "soon"})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)
	assert.ErrorIs(t, cfg.Validate(), ErrGameRootMissing)

	cfg.GameRoot = filepath.Join(t.TempDir(), "missing")
	assert.ErrorIs(t, cfg.Validate(), ErrGameRootNotFound)

	cfg.GameRoot = t.TempDir()
	assert.NoError(t, cfg.Validate())
}

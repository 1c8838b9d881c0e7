package mods

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const raceScript = `
local frames = 0
function onLoad(args)
	mp.echo("loaded " .. mp.name() .. " " .. args)
end
function onPreFrame()
	frames = frames + 1
end
function onPostFrame()
	mp.echo("frame " .. frames)
end
function onUnload()
	mp.command("say bye")
end
`

type fakeHost struct {
	echoes   []string
	commands []string
}

func (h *fakeHost) Echo(message string) { h.echoes = append(h.echoes, message) }

func (h *fakeHost) Command(line string) error {
	h.commands = append(h.commands, line)
	return nil
}

func writeMod(t *testing.T, root, name, script string) {
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, entryScript), []byte(script), 0o644))
}

func TestLifecycle(t *testing.T) {
	root := t.TempDir()
	writeMod(t, root, "race", raceScript)
	host := &fakeHost{}
	m := NewManager(root, host)
	var unloaded []string
	m.OnUnload(func(name string) { unloaded = append(unloaded, name) })

	require.NoError(t, m.Load("race", "map1 laps=3"))
	assert.True(t, m.IsLoaded())
	assert.Equal(t, "race", m.Active())

	m.DoPulsePreFrame()
	m.DoPulsePreFrame()
	m.DoPulsePostFrame()
	assert.Equal(t, []string{"loaded race map1 laps=3", "frame 2"}, host.echoes)

	m.RequestUnload()
	assert.True(t, m.IsLoaded())
	m.DoPulsePostFrame()
	assert.False(t, m.IsLoaded())
	assert.Equal(t, []string{"say bye"}, host.commands)
	assert.Equal(t, []string{"race"}, unloaded)

	m.Unload()
	assert.Len(t, unloaded, 1)
}

func TestLoadErrors(t *testing.T) {
	root := t.TempDir()
	writeMod(t, root, "broken", "this is not lua")
	writeMod(t, root, "failing", `function onLoad() error("nope") end`)
	m := NewManager(root, &fakeHost{})

	assert.ErrorIs(t, m.Load("", ""), ErrInvalidModName)
	assert.ErrorIs(t, m.Load("../etc", ""), ErrInvalidModName)
	assert.ErrorIs(t, m.Load("missing", ""), ErrModNotFound)
	assert.Error(t, m.Load("broken", ""))
	assert.False(t, m.IsLoaded())
	assert.Error(t, m.Load("failing", ""))
	assert.False(t, m.IsLoaded())
}

func TestScriptWithoutCallbacks(t *testing.T) {
	root := t.TempDir()
	writeMod(t, root, "empty", "local x = 1")
	writeMod(t, root, "other", "")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "notamod"), 0o755))
	m := NewManager(root, &fakeHost{})

	require.NoError(t, m.Load("empty", ""))
	m.DoPulsePreFrame()
	m.DoPulsePostFrame()
	require.NoError(t, m.Load("other", ""))
	assert.Equal(t, "other", m.Active())

	names, err := m.Installed()
	require.NoError(t, err)
	assert.Equal(t, []string{"empty", "other"}, names)
}

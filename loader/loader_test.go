package loader

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type game struct {
	ctx string
}

func newLoader(t *testing.T) (*Loader, *Static, *[]*Error) {
	root := t.TempDir()
	linker := NewStatic()
	var fatals []*Error
	l := New(linker, root, filepath.Join(root, "mta"), WithFatal(func(err *Error) {
		fatals = append(fatals, err)
	}))
	return l, linker, &fatals
}

func TestFileName(t *testing.T) {
	name := FileName("game_sa")
	assert.Contains(t, []string{"game_sa.so", "game_sa.dll", "game_sa.dylib"}, name)
}

func TestLoadInitialize(t *testing.T) {
	l, linker, fatals := newLoader(t)
	linker.Register(FileName("game_sa"), Symbols{
		"GetGameInterface": func(ctx string) *game { return &game{ctx} },
	})
	cwd, err := os.Getwd()
	require.NoError(t, err)

	h, g, err := CreateAndInitialize[*game](l, "Game", "game_sa", "GetGameInterface", "core")
	require.NoError(t, err)
	assert.Equal(t, "core", g.ctx)
	assert.Equal(t, StateInitialized, h.State())
	assert.Equal(t, filepath.Join(l.dir, FileName("game_sa")), h.Path)
	assert.Equal(t, l.dir, linker.SearchDir())
	assert.Empty(t, *fatals)
	assert.Equal(t, []*Handle{h}, l.Handles())

	after, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, cwd, after)
}

func TestLoadFailure(t *testing.T) {
	l, _, fatals := newLoader(t)
	cwd, err := os.Getwd()
	require.NoError(t, err)

	h, err := l.Load("Network", "netc")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModuleNotLoadable)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, StateFailed, h.State())
	assert.Contains(t, err.Error(), "Error loading network module!")

	var lerr *Error
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, StageLoad, lerr.Stage)
	assert.Equal(t, "netc-not-loadable", lerr.Topic)
	assert.Equal(t, []*Error{lerr}, *fatals)

	after, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, cwd, after)
}

func TestInitializeIncorrect(t *testing.T) {
	tests := []struct {
		name    string
		symbols Symbols
		want    error
	}{
		{"missing", Symbols{}, ErrSymbolNotFound},
		{"wrong type", Symbols{"InitGUIInterface": func(int) int { return 0 }}, ErrSymbolType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, linker, fatals := newLoader(t)
			linker.Register(FileName("cgui"), tt.symbols)
			h, err := l.Load("GUI", "cgui")
			require.NoError(t, err)

			_, err = Initialize[*game](l, h, "InitGUIInterface", "device")
			assert.ErrorIs(t, err, ErrModuleIncorrect)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "GUI module is incorrect!")
			assert.Equal(t, StateFailed, h.State())
			assert.Len(t, *fatals, 1)
		})
	}
}

func TestPointerSymbol(t *testing.T) {
	l, linker, _ := newLoader(t)
	fn := func(ctx string) *game { return &game{ctx + "!"} }
	linker.Register(FileName("multiplayer_sa"), Symbols{"InitMultiplayerInterface": &fn})

	_, g, err := CreateAndInitialize[*game](l, "Multiplayer", "multiplayer_sa", "InitMultiplayerInterface", "core")
	require.NoError(t, err)
	assert.Equal(t, "core!", g.ctx)
}

func TestCheckCompatibility(t *testing.T) {
	l, linker, fatals := newLoader(t)
	linker.Register(FileName("netc"), Symbols{
		CompatibilitySymbol: func(v uint32) bool { return v == 0x04 },
	})
	linker.Register(FileName("netc_old"), Symbols{})

	h, err := l.Load("Network", "netc")
	require.NoError(t, err)
	require.NoError(t, l.CheckCompatibility(h, 0x04))

	err = l.CheckCompatibility(h, 0x05)
	assert.ErrorIs(t, err, ErrModuleIncompatible)
	assert.Equal(t, "Network module not compatible!", err.Error())
	var lerr *Error
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, "netc-not-compatible", lerr.Topic)

	old, err := l.Load("Network", "netc_old")
	require.NoError(t, err)
	assert.ErrorIs(t, l.CheckCompatibility(old, 0x04), ErrModuleIncompatible)
	assert.Len(t, *fatals, 2)
}

func TestUnloadIdempotent(t *testing.T) {
	l, linker, _ := newLoader(t)
	file := FileName("xmll")
	calls := 0
	linker.Register(file, Symbols{"InitXMLInterface": func(string) int { calls++; return calls }})

	h, v, err := CreateAndInitialize[int](l, "XML", "xmll", "InitXMLInterface", "")
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, linker.OpenCount(file))

	require.NoError(t, l.Unload(h))
	state := *h
	require.NoError(t, l.Unload(h))
	assert.Equal(t, state.State(), h.State())
	assert.Equal(t, StateUnloaded, h.State())
	assert.False(t, h.Loaded())
	assert.Empty(t, h.entries)
	assert.Zero(t, linker.OpenCount(file))
	assert.Empty(t, l.Handles())

	_, err = Initialize[int](l, h, "InitXMLInterface", "")
	assert.ErrorIs(t, err, ErrModuleNotLoaded)
	require.NoError(t, l.Unload(nil))
}

func TestRepairSearchDir(t *testing.T) {
	l, linker, _ := newLoader(t)
	linker.Register(FileName("game_sa"), Symbols{})
	require.NoError(t, linker.SetSearchDir(os.TempDir()))

	_, err := l.Load("Game", "game_sa")
	require.NoError(t, err)
	assert.Equal(t, l.dir, linker.SearchDir())
}

func TestCloseUnloadsAll(t *testing.T) {
	l, linker, _ := newLoader(t)
	linker.Register(FileName("a"), Symbols{})
	linker.Register(FileName("b"), Symbols{})
	a, err := l.Load("A", "a")
	require.NoError(t, err)
	b, err := l.Load("B", "b")
	require.NoError(t, err)

	require.NoError(t, l.Close())
	assert.False(t, a.Loaded())
	assert.False(t, b.Loaded())
}

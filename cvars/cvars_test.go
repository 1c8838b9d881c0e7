package cvars

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wnxd/mpcore/store"
)

type frames int16

func TestDefaults(t *testing.T) {
	s := New()
	var nick string
	require.NoError(t, s.Get("nick", &nick))
	assert.Equal(t, "Player", nick)

	var port uint16
	require.NoError(t, s.Get("port", &port))
	assert.Equal(t, uint16(22003), port)

	var size Vector2
	require.NoError(t, s.Get("serverbrowser_size", &size))
	assert.Equal(t, Vector2{720, 495}, size)

	var scale float32
	require.NoError(t, s.Get("text_scale", &scale))
	assert.Equal(t, float32(1), scale)
}

func TestSetGet(t *testing.T) {
	s := New()
	s.Set("fps_limit", 60)
	s.Set("invert_mouse", true)
	s.Set("console_pos", Vector2{12.5, 40})

	var limit frames
	require.NoError(t, s.Get("fps_limit", &limit))
	assert.Equal(t, frames(60), limit)

	var invert bool
	require.NoError(t, s.Get("invert_mouse", &invert))
	assert.True(t, invert)

	var pos Vector2
	require.NoError(t, s.Get("console_pos", &pos))
	assert.Equal(t, Vector2{12.5, 40}, pos)

	var f64 float64
	require.NoError(t, s.Get("text_scale", &f64))
	assert.Equal(t, 1.0, f64)
}

func TestGetErrors(t *testing.T) {
	s := New()
	var v int
	assert.ErrorIs(t, s.Get("missing", &v), ErrUnknownVariable)
	assert.ErrorIs(t, s.Get("port", v), ErrNotPointer)
	assert.Error(t, s.Get("nick", &v))

	var m map[string]int
	assert.ErrorIs(t, s.Get("nick", &m), ErrUnsupportedType)

	var small int8
	assert.Error(t, s.Get("port", &small))
}

func TestLoadSave(t *testing.T) {
	s := New()
	s.Set("nick", "bob")
	node := store.NewElement("settings")
	s.Save(node)
	require.NotNil(t, node.Child("nick"))
	assert.Equal(t, "bob", node.Child("nick").Text())
	node.CreateChild("custom").SetText("kept")

	loaded := New()
	loaded.Load(node)
	var nick, custom string
	require.NoError(t, loaded.Get("nick", &nick))
	require.NoError(t, loaded.Get("custom", &custom))
	assert.Equal(t, "bob", nick)
	assert.Equal(t, "kept", custom)
	assert.Contains(t, loaded.Names(), "custom")
	assert.True(t, loaded.Exists("serverbrowser_size"))
}

package hook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wnxd/mpcore/hook"
	"github.com/wnxd/mpcore/host"
	"github.com/wnxd/mpcore/host/memhost"
)

var prologue = []byte{0x55, 0x8B, 0xEC, 0x83, 0xEC}

type fixture struct {
	h       *memhost.Host
	stubs   *Stubs
	targets hook.Targets
	calls   map[string]int
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{h: memhost.New(), calls: make(map[string]int)}
	f.stubs = NewStubs(f.h)
	require.NoError(t, f.h.Map(0x400000, 0x1000, host.MEM_PROT_READ|host.MEM_PROT_EXEC))
	define := func(name string, addr, ret uint64) host.Resolver {
		require.NoError(t, f.h.DefineFunction(addr, prologue, func(host.Frame) uint64 {
			f.calls[name]++
			return ret
		}))
		f.h.DefineSymbol("host", name, addr)
		return host.Symbol{Module: "host", Name: name}
	}
	f.targets = hook.Targets{
		CreateDevice: define("CreateDevice", 0x400000, 0),
		BeginScene:   define("BeginScene", 0x400100, 0),
		Present:      define("Present", 0x400200, 0),
		PollInput:    define("GetDeviceState", 0x400300, 1),
		WindowProc:   define("WndProc", 0x400400, 0x42),
		SetCursorPos: define("SetCursorPos", 0x400500, 1),
	}
	return f
}

func (f *fixture) code(t *testing.T) []byte {
	b, err := f.h.Peek(0x400000, 0x1000)
	require.NoError(t, err)
	return b
}

type renderSink struct {
	device    uint64
	pre, post  int
}

func (s *renderSink) OnDeviceCreated(device uint64) { s.device = device }
func (s *renderSink) OnPreFrame()                   { s.pre++ }
func (s *renderSink) OnPostFrame()                  { s.post++ }

type inputSink bool

func (s *inputSink) OnInput(uint64) bool { return bool(*s) }

type messageSink struct {
	msgs []uint32
}

func (s *messageSink) OnMessage(window uint64, msg uint32, wparam, lparam uint64) bool {
	s.msgs = append(s.msgs, msg)
	return msg == 0x0010
}

func TestRoundTrip(t *testing.T) {
	f := newFixture(t)
	block := inputSink(false)
	managers := []hook.Manager{
		NewRender(f.h, f.stubs, f.targets, &renderSink{}),
		NewInput(f.h, f.stubs, f.targets.PollInput, &block),
		NewMessageLoop(f.h, f.stubs, f.targets.WindowProc, &messageSink{}),
		NewCursor(f.h, f.stubs, f.targets.SetCursorPos),
	}
	for _, m := range managers {
		t.Run(m.Name(), func(t *testing.T) {
			before := f.code(t)
			require.NoError(t, m.ApplyHook())
			assert.True(t, m.Installed())
			assert.NotEqual(t, before, f.code(t))
			for _, d := range m.Descriptors() {
				assert.True(t, d.Installed)
				assert.Len(t, d.Original, redirectSize)
			}

			require.NoError(t, m.RemoveHook())
			assert.False(t, m.Installed())
			assert.Equal(t, before, f.code(t))
			require.NoError(t, m.RemoveHook())
		})
	}
}

func TestRemoveWithoutApply(t *testing.T) {
	f := newFixture(t)
	before := f.code(t)
	c := NewCursor(f.h, f.stubs, f.targets.SetCursorPos)
	require.NoError(t, c.RemoveHook())
	assert.Equal(t, before, f.code(t))
	assert.False(t, c.Installed())
}

func TestRenderDispatch(t *testing.T) {
	f := newFixture(t)
	sink := &renderSink{}
	r := NewRender(f.h, f.stubs, f.targets, sink)
	require.NoError(t, r.ApplyHook())

	_, err := f.h.Call(0x400000, 0xD3D)
	require.NoError(t, err)
	_, err = f.h.Call(0x400100)
	require.NoError(t, err)
	_, err = f.h.Call(0x400200)
	require.NoError(t, err)

	assert.Equal(t, uint64(0xD3D), sink.device)
	assert.Equal(t, 1, sink.pre)
	assert.Equal(t, 1, sink.post)
	assert.Equal(t, 1, f.calls["CreateDevice"])
	assert.Equal(t, 1, f.calls["BeginScene"])
	assert.Equal(t, 1, f.calls["Present"])

	require.NoError(t, r.RemoveHook())
	_, err = f.h.Call(0x400100)
	require.NoError(t, err)
	assert.Equal(t, 1, sink.pre)
	assert.Equal(t, 2, f.calls["BeginScene"])
}

func TestRenderAllOrNothing(t *testing.T) {
	f := newFixture(t)
	before := f.code(t)
	targets := f.targets
	targets.Present = host.Symbol{Module: "d3d9", Name: "missing"}
	r := NewRender(f.h, f.stubs, targets, &renderSink{})

	err := r.ApplyHook()
	assert.ErrorIs(t, err, hook.ErrNotResolved)
	assert.False(t, r.Installed())
	assert.Equal(t, before, f.code(t))
}

func TestInputBlock(t *testing.T) {
	f := newFixture(t)
	block := inputSink(true)
	in := NewInput(f.h, f.stubs, f.targets.PollInput, &block)
	require.NoError(t, in.ApplyHook())

	ret, err := f.h.Call(0x400300, 7)
	require.NoError(t, err)
	assert.Zero(t, ret)
	assert.Zero(t, f.calls["GetDeviceState"])

	block = false
	ret, err = f.h.Call(0x400300, 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), ret)
}

func TestMessageLoop(t *testing.T) {
	f := newFixture(t)
	sink := &messageSink{}
	ml := NewMessageLoop(f.h, f.stubs, f.targets.WindowProc, sink)
	require.NoError(t, ml.ApplyHook())

	ret, err := f.h.Call(0x400400, 0xBEEF, 0x0006, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x42), ret)

	ret, err = f.h.Call(0x400400, 0xBEEF, 0x0010, 0, 0)
	require.NoError(t, err)
	assert.Zero(t, ret)

	assert.Equal(t, []uint32{0x0006, 0x0010}, sink.msgs)
	assert.Equal(t, 1, f.calls["WndProc"])
	assert.Equal(t, uint64(0xBEEF), ml.Window())
}

func TestCursorToggle(t *testing.T) {
	f := newFixture(t)
	c := NewCursor(f.h, f.stubs, f.targets.SetCursorPos)
	require.NoError(t, c.ApplyHook())
	before := f.code(t)

	c.Disable()
	assert.False(t, c.Enabled())
	assert.False(t, c.Descriptors()[0].Enabled)
	ret, err := f.h.Call(0x400500, 320, 240)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), ret)
	assert.Zero(t, f.calls["SetCursorPos"])
	assert.Equal(t, before, f.code(t))

	c.Enable()
	_, err = f.h.Call(0x400500, 320, 240)
	require.NoError(t, err)
	assert.Equal(t, 1, f.calls["SetCursorPos"])
	assert.True(t, c.Installed())
}

func TestUnpublishedSitePassesThrough(t *testing.T) {
	f := newFixture(t)
	c := NewCursor(f.h, f.stubs, f.targets.SetCursorPos)
	c.Disable()
	require.NoError(t, c.ApplyHook())

	s := c.sites[0]
	s.installed.Store(false)
	_, err := f.h.Call(0x400500)
	require.NoError(t, err)
	assert.Equal(t, 1, f.calls["SetCursorPos"])

	s.installed.Store(true)
	_, err = f.h.Call(0x400500)
	require.NoError(t, err)
	assert.Equal(t, 1, f.calls["SetCursorPos"])
}

func TestNonExecutableTarget(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.h.Map(0x500000, 0x1000, host.MEM_PROT_READ|host.MEM_PROT_WRITE))
	c := NewCursor(f.h, f.stubs, host.Fixed(0x500000))
	assert.ErrorIs(t, c.ApplyHook(), hook.ErrTargetInvalid)
}

func TestRelativeEntryRefused(t *testing.T) {
	tests := []struct {
		name string
		code []byte
	}{
		{"call", []byte{0xE8, 0x10, 0x00, 0x00, 0x00}},
		{"jmp", []byte{0xE9, 0x10, 0x00, 0x00, 0x00}},
		{"jmp short", []byte{0xEB, 0x10, 0x90, 0x90, 0x90}},
		{"jz short", []byte{0x74, 0x10, 0x90, 0x90, 0x90}},
		{"jz near", []byte{0x0F, 0x84, 0x10, 0x00, 0x00, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			require.NoError(t, f.h.Poke(0x400800, tt.code))
			before := f.code(t)
			c := NewCursor(f.h, f.stubs, host.Fixed(0x400800))
			assert.ErrorIs(t, c.ApplyHook(), hook.ErrRelativeEntry)
			assert.False(t, c.Installed())
			assert.Equal(t, before, f.code(t))
		})
	}
	assert.False(t, relativeEntry(prologue))
	assert.False(t, relativeEntry([]byte{0x0F, 0x1F, 0x44, 0x00, 0x00}))
}

func TestSetIndependentFailure(t *testing.T) {
	f := newFixture(t)
	broken := NewCursor(f.h, f.stubs, host.Symbol{Module: "user32", Name: "missing"})
	block := inputSink(false)
	in := NewInput(f.h, f.stubs, f.targets.PollInput, &block)
	set := NewSet(broken, in)

	require.NoError(t, set.ApplyAll())
	assert.False(t, broken.Installed())
	assert.True(t, in.Installed())

	before := newFixture(t).code(t)
	require.NoError(t, set.RemoveAll())
	assert.Equal(t, before, f.code(t))
}

func TestSetCorruption(t *testing.T) {
	f := newFixture(t)
	first := NewCursor(f.h, f.stubs, f.targets.SetCursorPos)
	overlap := NewCursor(f.h, f.stubs, host.Fixed(0x400502))
	set := NewSet(first, overlap)

	err := set.ApplyAll()
	assert.ErrorIs(t, err, hook.ErrHookCorrupted)
}

func TestStubsRecycle(t *testing.T) {
	h := memhost.New()
	stubs := NewStubs(h)
	a, err := stubs.Alloc()
	require.NoError(t, err)
	b, err := stubs.Alloc()
	require.NoError(t, err)
	assert.Equal(t, uint64(stubSize), b-a)

	stubs.Free(a)
	c, err := stubs.Alloc()
	require.NoError(t, err)
	assert.NotEqual(t, b, c)
	require.NoError(t, stubs.Close())
}

package host_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wnxd/mpcore/host"
	"github.com/wnxd/mpcore/host/memhost"
)

func TestFixed(t *testing.T) {
	addr, err := host.Fixed(0x401000).Resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x401000), addr)

	_, err = host.Fixed(0).Resolve(nil)
	assert.ErrorIs(t, err, host.ErrAddressInvalid)
}

func TestSymbol(t *testing.T) {
	h := memhost.New()
	h.DefineSymbol("user32", "SetCursorPos", 0x77001000)

	addr, err := host.Symbol{Module: "user32", Name: "SetCursorPos"}.Resolve(h)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x77001000), addr)

	_, err = host.Symbol{Module: "user32", Name: "GetCursorPos"}.Resolve(h)
	assert.ErrorIs(t, err, host.ErrSymbolNotFound)
}

func TestSignature(t *testing.T) {
	h := memhost.New()
	require.NoError(t, h.Map(0x400000, 0x2000, host.MEM_PROT_READ|host.MEM_PROT_EXEC))
	require.NoError(t, h.Poke(0x401234, []byte{0x55, 0x8B, 0xEC, 0x83, 0xEC, 0x10}))

	sig := host.Signature{
		Pattern: []byte{0x55, 0x8B, 0x00, 0x83},
		Mask:    []byte{0xFF, 0xFF, 0x00, 0xFF},
		Offset:  1,
	}
	addr, err := sig.Resolve(h)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x401235), addr)

	_, err = host.Signature{Pattern: []byte{0xDE, 0xAD, 0xBE, 0xEF}}.Resolve(h)
	assert.ErrorIs(t, err, host.ErrPatternNotFound)

	_, err = host.Signature{Pattern: []byte{0x55}, Mask: []byte{0xFF, 0xFF}}.Resolve(h)
	assert.Error(t, err)
}

func TestVariant(t *testing.T) {
	h := memhost.New()
	require.NoError(t, h.Map(0x748000, 0x1000, host.MEM_PROT_READ))
	v := host.Variant{Probe: 0x748ADD, Want: 0x53FF, Match: host.Fixed(0x7468F9), Else: host.Fixed(0x746949)}

	addr, err := v.Resolve(h)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x746949), addr)

	require.NoError(t, h.Poke(0x748ADD, []byte{0xFF, 0x53}))
	addr, err = v.Resolve(h)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x7468F9), addr)
}

func TestAlign(t *testing.T) {
	assert.Equal(t, uint64(0x2000), host.Align(uint64(0x1001), 0x1000))
	assert.Equal(t, uint64(0x1000), host.AlignDown(uint64(0x1FFF), 0x1000))
	assert.Equal(t, 16, host.Align(10, 16))
}

func TestPointer(t *testing.T) {
	h := memhost.New()
	require.NoError(t, h.Map(0x10000, 0x1000, host.MEM_PROT_READ|host.MEM_PROT_WRITE))
	require.NoError(t, h.MemWrite(0x10000, []byte{0x20, 0x00, 0x01, 0x00, 'm', 't', 'a', 0}))

	p := host.ToPointer(h, 0x10000)
	ptr, err := p.ReadPointer()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x10020), ptr.Address())

	s, err := p.Add(4).ReadString()
	require.NoError(t, err)
	assert.Equal(t, "mta", s)

	_, err = host.ToPointer(h, 0x90000).ReadUint8()
	assert.ErrorIs(t, err, host.ErrAddressInvalid)
}

package connect

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wnxd/mpcore/cmdline"
)

type fakeNet struct {
	connected   bool
	failWith    error
	calls       []string
	pulses      int
	disconnects int
}

func (n *fakeNet) Connect(host string, port uint16, nick, password string) error {
	n.calls = append(n.calls, strings.Join([]string{host, nick, password}, "|"))
	return n.failWith
}

func (n *fakeNet) IsConnected() bool { return n.connected }
func (n *fakeNet) Disconnect()       { n.disconnects++; n.connected = false }
func (n *fakeNet) DoPulse()          { n.pulses++ }

func TestIsValidNick(t *testing.T) {
	assert.True(t, IsValidNick("Player"))
	assert.True(t, IsValidNick(strings.Repeat("a", MaxNickLength)))
	assert.False(t, IsValidNick(""))
	assert.False(t, IsValidNick(strings.Repeat("a", MaxNickLength+1)))
	assert.False(t, IsValidNick("two words"))
	assert.False(t, IsValidNick("line\nbreak"))
	assert.False(t, IsValidNick("cr\r"))
}

func TestConnect(t *testing.T) {
	net := &fakeNet{}
	m := New(net, time.Second)

	assert.ErrorIs(t, m.Connect(cmdline.Directive{}), ErrInvalidHost)
	assert.ErrorIs(t, m.Connect(cmdline.Directive{Host: "h", Port: 1, Nick: "a b"}), ErrInvalidNick)
	assert.ErrorIs(t, m.Reconnect(), ErrNoLastServer)
	assert.Empty(t, net.calls)

	d := cmdline.ParseURI("mtasa://bob:pw@host.example", "Player")
	require.NoError(t, m.Connect(d))
	assert.True(t, m.IsConnecting())
	assert.Equal(t, d, m.Last())

	net.connected = true
	m.DoPulse()
	assert.False(t, m.IsConnecting())
	assert.Equal(t, 1, net.pulses)

	require.NoError(t, m.Reconnect())
	assert.Equal(t, 1, net.disconnects)
	assert.Equal(t, []string{"host.example|bob|pw", "host.example|bob|pw"}, net.calls)
}

func TestConnectFailure(t *testing.T) {
	boom := errors.New("socket")
	net := &fakeNet{failWith: boom}
	m := New(net, time.Second)
	assert.ErrorIs(t, m.Connect(cmdline.ParseURI("mtasa://host", "Player")), boom)
	assert.False(t, m.IsConnecting())
	assert.ErrorIs(t, m.Abort(), ErrNotConnecting)
}

func TestTimeout(t *testing.T) {
	now := time.Unix(0, 0)
	var reported error
	net := &fakeNet{}
	m := New(net, 10*time.Second,
		WithClock(func() time.Time { return now }),
		WithErrorHandler(func(err error) { reported = err }))

	require.NoError(t, m.Connect(cmdline.ParseURI("mtasa://host", "Player")))
	now = now.Add(5 * time.Second)
	m.DoPulse()
	assert.True(t, m.IsConnecting())
	assert.NoError(t, reported)

	now = now.Add(6 * time.Second)
	m.DoPulse()
	assert.False(t, m.IsConnecting())
	assert.ErrorIs(t, reported, ErrTimeout)
	assert.Equal(t, 1, net.disconnects)
}

func TestAbort(t *testing.T) {
	net := &fakeNet{}
	m := New(net, time.Second)
	require.NoError(t, m.Connect(cmdline.ParseURI("mtasa://host", "Player")))
	require.NoError(t, m.Abort())
	assert.False(t, m.IsConnecting())
	assert.Equal(t, 1, net.disconnects)
}

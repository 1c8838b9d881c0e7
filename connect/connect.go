// Package connect drives a connection attempt through the network module.
package connect

import (
	"errors"
	"fmt"
	"time"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/wnxd/mpcore/cmdline"
)

const (
	MinNickLength = 1
	MaxNickLength = 22
)

var (
	ErrInvalidNick   = errors.New("invalid nickname")
	ErrInvalidHost   = errors.New("invalid host")
	ErrNoLastServer  = errors.New("no server to reconnect to")
	ErrTimeout       = errors.New("connection timed out")
	ErrNotConnecting = errors.New("not connecting")
)

type Net interface {
	Connect(host string, port uint16, nick, password string) error
	IsConnected() bool
	Disconnect()
	DoPulse()
}

func IsValidNick(nick string) bool {
	if len(nick) < MinNickLength || len(nick) > MaxNickLength {
		return false
	}
	for _, c := range nick {
		if c == '\n' || c == '\r' || c == ' ' {
			return false
		}
	}
	return true
}

type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithErrorHandler receives failures that happen during a pulse.
func WithErrorHandler(fn func(error)) Option {
	return func(m *Manager) {
		m.onError = fn
	}
}

type Manager struct {
	net        Net
	log        *logger.Logger
	timeout    time.Duration
	now        func() time.Time
	onError    func(error)
	connecting bool
	started    time.Time
	last       cmdline.Directive
}

func New(net Net, timeout time.Duration, opts ...Option) *Manager {
	m := &Manager{
		net:     net,
		log:     logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "connect")),
		timeout: timeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Connect(d cmdline.Directive) error {
	if !d.Valid() {
		return ErrInvalidHost
	} else if !IsValidNick(d.Nick) {
		return fmt.Errorf("%q: %w", d.Nick, ErrInvalidNick)
	}
	if m.connecting || m.net.IsConnected() {
		m.net.Disconnect()
	}
	m.log.Infoln("Connecting to", fmt.Sprintf("%s:%d", d.Host, d.Port), "as", d.Nick)
	if err := m.net.Connect(d.Host, d.Port, d.Nick, d.Password); err != nil {
		m.connecting = false
		return err
	}
	m.connecting = true
	m.started = m.now()
	m.last = d
	return nil
}

func (m *Manager) Reconnect() error {
	if !m.last.Valid() {
		return ErrNoLastServer
	}
	return m.Connect(m.last)
}

func (m *Manager) Abort() error {
	if !m.connecting {
		return ErrNotConnecting
	}
	m.connecting = false
	m.net.Disconnect()
	m.log.Infoln("Connection aborted")
	return nil
}

func (m *Manager) IsConnecting() bool {
	return m.connecting
}

func (m *Manager) Last() cmdline.Directive {
	return m.last
}

func (m *Manager) DoPulse() {
	m.net.DoPulse()
	if !m.connecting {
		return
	}
	if m.net.IsConnected() {
		m.connecting = false
		m.log.Infoln("Connected to", m.last.Host)
		return
	}
	if m.now().Sub(m.started) > m.timeout {
		m.connecting = false
		m.net.Disconnect()
		m.log.Warn("connect ", m.last.Host, ": ", ErrTimeout)
		if m.onError != nil {
			m.onError(ErrTimeout)
		}
	}
}

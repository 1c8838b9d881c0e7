package hook

import (
	"fmt"

	"github.com/wnxd/mpcore/hook"
	"github.com/wnxd/mpcore/host"
)

// manager installs its sites as a unit: a failure part way through unwinds
// the sites already written.
type manager struct {
	name  string
	proc  host.Process
	stubs *Stubs
	sites []*site
}

func (m *manager) Name() string {
	return m.name
}

func (m *manager) ApplyHook() error {
	for i, s := range m.sites {
		if err := s.apply(m.proc, m.stubs); err != nil {
			for j := i - 1; j >= 0; j-- {
				m.sites[j].remove(m.proc, m.stubs)
			}
			return fmt.Errorf("%s: %w", m.name, err)
		}
	}
	return nil
}

func (m *manager) RemoveHook() error {
	var first error
	for i := len(m.sites) - 1; i >= 0; i-- {
		if err := m.sites[i].remove(m.proc, m.stubs); err != nil && first == nil {
			first = fmt.Errorf("%s: %w", m.name, err)
		}
	}
	return first
}

func (m *manager) Installed() bool {
	for _, s := range m.sites {
		if !s.installed.Load() {
			return false
		}
	}
	return len(m.sites) > 0
}

func (m *manager) Descriptors() []hook.Descriptor {
	descs := make([]hook.Descriptor, len(m.sites))
	for i, s := range m.sites {
		descs[i] = s.descriptor()
	}
	return descs
}

func (m *manager) verify() error {
	for _, s := range m.sites {
		if !s.intact(m.proc) {
			return fmt.Errorf("%s/%s at %x: %w", m.name, s.name, s.target, hook.ErrHookCorrupted)
		}
	}
	return nil
}

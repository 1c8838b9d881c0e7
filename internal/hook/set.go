package hook

import (
	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/wnxd/mpcore/hook"
)

type verifier interface {
	verify() error
}

// Set applies managers in order and removes them in reverse.
type Set struct {
	log      *logger.Logger
	managers []hook.Manager
}

func NewSet(managers ...hook.Manager) *Set {
	return &Set{
		log:      logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "hooks")),
		managers: managers,
	}
}

func (s *Set) Add(managers ...hook.Manager) {
	s.managers = append(s.managers, managers...)
}

func (s *Set) Managers() []hook.Manager {
	return s.managers
}

// ApplyAll installs every manager. A manager that fails to install is logged
// and skipped; one that leaves another installed manager damaged is returned
// as ErrHookCorrupted and nothing after it is attempted.
func (s *Set) ApplyAll() error {
	for _, m := range s.managers {
		if err := m.ApplyHook(); err != nil {
			s.log.Warn("apply ", m.Name(), ": ", err)
			continue
		}
		s.log.Debugln("applied", m.Name())
		if err := s.Verify(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Set) Verify() error {
	for _, m := range s.managers {
		if v, ok := m.(verifier); ok && m.Installed() {
			if err := v.verify(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Set) RemoveAll() error {
	var first error
	for i := len(s.managers) - 1; i >= 0; i-- {
		m := s.managers[i]
		if err := m.RemoveHook(); err != nil {
			s.log.Warn("remove ", m.Name(), ": ", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

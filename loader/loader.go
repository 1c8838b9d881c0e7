// Package loader materializes versioned native modules in two phases: Load
// opens the binary, Initialize resolves and calls its entry point. A module
// can be present but incompatible, so each phase fails with its own tagged
// error.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

const CompatibilitySymbol = "CheckCompatibility"

type State int

const (
	StateUnloaded State = iota
	StateLoaded
	StateInitialized
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoaded:
		return "loaded"
	case StateInitialized:
		return "initialized"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

type Handle struct {
	Name    string
	Base    string
	Path    string
	image   Image
	entries map[string]any
	state   State
}

func (h *Handle) State() State {
	return h.state
}

func (h *Handle) Loaded() bool {
	return h.image != nil
}

// FatalFunc is told about every module failure before it is returned. The
// production handler shows the diagnostic and ends the process.
type FatalFunc func(err *Error)

type Option func(*Loader)

func WithFatal(fn FatalFunc) Option {
	return func(l *Loader) {
		l.fatal = fn
	}
}

type Loader struct {
	linker  Linker
	root    string
	dir     string
	log     *logger.Logger
	fatal   FatalFunc
	mu      sync.Mutex
	handles []*Handle
}

// New returns a loader that opens modules from dir with root as the working
// directory during each load.
func New(linker Linker, root, dir string, opts ...Option) *Loader {
	l := &Loader{
		linker: linker,
		root:   root,
		dir:    dir,
		log:    logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "loader")),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// FileName is the platform file name of a module base name.
func FileName(base string) string {
	name := base + debugSuffix
	switch runtime.GOOS {
	case "windows":
		return name + ".dll"
	case "darwin":
		return name + ".dylib"
	}
	return name + ".so"
}

func (l *Loader) Load(name, base string) (*Handle, error) {
	h := &Handle{
		Name:    name,
		Base:    base,
		Path:    filepath.Join(l.dir, FileName(base)),
		entries: make(map[string]any),
	}
	l.log.Infoln("Loading", name, "module", h.Path)
	l.repairSearchDir()

	if prev, err := os.Getwd(); err == nil {
		if err = os.Chdir(l.root); err != nil {
			l.log.Warn("chdir ", l.root, ": ", err)
		} else {
			defer os.Chdir(prev)
		}
	}

	image, err := l.linker.Open(h.Path)
	if err != nil {
		return h, l.fail(h, &Error{Module: name, Stage: StageLoad, Topic: base + "-not-loadable", Err: err})
	}
	h.image = image
	h.state = StateLoaded
	l.mu.Lock()
	l.handles = append(l.handles, h)
	l.mu.Unlock()
	return h, nil
}

// repairSearchDir puts the module directory back as the linker search path if
// something else in the process changed it.
func (l *Loader) repairSearchDir() {
	current := l.linker.SearchDir()
	if filepath.Clean(current) == filepath.Clean(l.dir) {
		return
	}
	l.log.Warn("module search directory was '", current, "', resetting to '", l.dir, "'")
	if err := l.linker.SetSearchDir(l.dir); err != nil {
		l.log.Warn("set module search directory: ", err)
	}
}

func (l *Loader) fail(h *Handle, err *Error) error {
	h.state = StateFailed
	l.log.Warn(err.Error())
	if l.fatal != nil {
		l.fatal(err)
	}
	return err
}

// Initialize resolves symbol in h, calls it with arg and returns its result.
func Initialize[T, U any](l *Loader, h *Handle, symbol string, arg U) (T, error) {
	var zero T
	fn, err := lookup[func(U) T](h, symbol)
	if err != nil {
		return zero, l.fail(h, &Error{Module: h.Name, Stage: StageInitialize, Err: err})
	}
	v := fn(arg)
	h.state = StateInitialized
	l.log.Debugln(h.Name, "initialized")
	return v, nil
}

func CreateAndInitialize[T, U any](l *Loader, name, base, symbol string, arg U) (*Handle, T, error) {
	h, err := l.Load(name, base)
	if err != nil {
		var zero T
		return h, zero, err
	}
	v, err := Initialize[T](l, h, symbol, arg)
	return h, v, err
}

// CheckCompatibility asks the module whether it speaks version.
func (l *Loader) CheckCompatibility(h *Handle, version uint32) error {
	check, err := lookup[func(uint32) bool](h, CompatibilitySymbol)
	if err != nil {
		return l.fail(h, &Error{Module: h.Name, Stage: StageHandshake, Topic: h.Base + "-not-compatible", Err: err})
	}
	if !check(version) {
		return l.fail(h, &Error{Module: h.Name, Stage: StageHandshake, Topic: h.Base + "-not-compatible",
			Err: fmt.Errorf("protocol version %#x rejected", version)})
	}
	return nil
}

// Unload releases the image and forgets resolved entry points. Unloading an
// unloaded handle does nothing.
func (l *Loader) Unload(h *Handle) error {
	if h == nil || h.image == nil {
		return nil
	}
	image := h.image
	h.image = nil
	clear(h.entries)
	h.state = StateUnloaded
	l.mu.Lock()
	l.handles = slices.DeleteFunc(l.handles, func(v *Handle) bool { return v == h })
	l.mu.Unlock()
	l.log.Debugln(h.Name, "unloaded")
	return image.Close()
}

func (l *Loader) Handles() []*Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.handles)
}

// Close unloads every handle, newest first.
func (l *Loader) Close() error {
	handles := l.Handles()
	for i := len(handles) - 1; i >= 0; i-- {
		l.Unload(handles[i])
	}
	return nil
}

func lookup[F any](h *Handle, symbol string) (F, error) {
	var zero F
	if h.image == nil {
		return zero, ErrModuleNotLoaded
	}
	sym, ok := h.entries[symbol]
	if !ok {
		var err error
		if sym, err = h.image.Lookup(symbol); err != nil {
			return zero, err
		}
		h.entries[symbol] = sym
	}
	switch fn := sym.(type) {
	case F:
		return fn, nil
	case *F:
		if fn != nil {
			return *fn, nil
		}
	}
	return zero, fmt.Errorf("%s is %T: %w", symbol, sym, ErrSymbolType)
}

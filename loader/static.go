package loader

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
)

type Symbols map[string]any

// Static links modules registered in-process, keyed by file name.
type Static struct {
	mu     sync.Mutex
	dir    string
	images map[string]Symbols
	open   map[string]int
}

func NewStatic() *Static {
	return &Static{
		images: make(map[string]Symbols),
		open:   make(map[string]int),
	}
}

func (s *Static) Register(file string, symbols Symbols) {
	s.mu.Lock()
	s.images[file] = symbols
	s.mu.Unlock()
}

func (s *Static) SearchDir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dir
}

func (s *Static) SetSearchDir(dir string) error {
	s.mu.Lock()
	s.dir = dir
	s.mu.Unlock()
	return nil
}

func (s *Static) Open(path string) (Image, error) {
	file := filepath.Base(path)
	s.mu.Lock()
	defer s.mu.Unlock()
	symbols, ok := s.images[file]
	if !ok {
		return nil, fmt.Errorf("%s: cannot open shared object file: %w", path, fs.ErrNotExist)
	}
	s.open[file]++
	return &staticImage{owner: s, file: file, symbols: symbols}, nil
}

// OpenCount reports how many images of file are currently open.
func (s *Static) OpenCount(file string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open[file]
}

type staticImage struct {
	owner   *Static
	file    string
	symbols Symbols
	closed  bool
}

func (img *staticImage) Lookup(symbol string) (any, error) {
	if sym, ok := img.symbols[symbol]; ok {
		return sym, nil
	}
	return nil, fmt.Errorf("%s: %w", symbol, ErrSymbolNotFound)
}

func (img *staticImage) Close() error {
	if img.closed {
		return nil
	}
	img.closed = true
	img.owner.mu.Lock()
	img.owner.open[img.file]--
	img.owner.mu.Unlock()
	return nil
}

package loader

import "io"

// Image is an opened module binary.
type Image interface {
	io.Closer
	Lookup(symbol string) (any, error)
}

// Linker is the platform module loader.
type Linker interface {
	SearchDir() string
	SetSearchDir(dir string) error
	Open(path string) (Image, error)
}

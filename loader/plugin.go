package loader

import (
	"path/filepath"
	"plugin"
	"sync"
)

// Plugin links Go plugins built with -buildmode=plugin. Relative paths are
// resolved against the search directory. Go cannot unload a plugin, so Close
// only drops the reference.
type Plugin struct {
	mu  sync.Mutex
	dir string
}

func NewPlugin(dir string) *Plugin {
	return &Plugin{dir: dir}
}

func (p *Plugin) SearchDir() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dir
}

func (p *Plugin) SetSearchDir(dir string) error {
	p.mu.Lock()
	p.dir = dir
	p.mu.Unlock()
	return nil
}

func (p *Plugin) Open(path string) (Image, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.SearchDir(), path)
	}
	plug, err := plugin.Open(path)
	if err != nil {
		return nil, err
	}
	return &pluginImage{plug}, nil
}

type pluginImage struct {
	plug *plugin.Plugin
}

func (img *pluginImage) Lookup(symbol string) (any, error) {
	return img.plug.Lookup(symbol)
}

func (img *pluginImage) Close() error {
	img.plug = nil
	return nil
}

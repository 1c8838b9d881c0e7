// Package store is the persisted configuration document: a tree of named
// elements with attributes and text, read at startup and written at shutdown.
package store

type Node interface {
	Name() string
	Child(name string) Node
	CreateChild(name string) Node
	Children() []Node
	RemoveChildren()
	Attr(key string) (string, bool)
	SetAttr(key, value string)
	Text() string
	SetText(text string)
}

type Document interface {
	Parse() error
	Write() error
	Root() Node
	CreateRoot(name string) Node
}

// XML is the surface of the XML module.
type XML interface {
	CreateDocument(path string) Document
}

// ChildOrCreate returns the first child called name, creating it if needed.
func ChildOrCreate(n Node, name string) Node {
	if c := n.Child(name); c != nil {
		return c
	}
	return n.CreateChild(name)
}

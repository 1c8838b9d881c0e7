package store

import "slices"

type attr struct {
	key, value string
}

// Element is an in-memory Node.
type Element struct {
	name     string
	attrs    []attr
	text     string
	children []*Element
}

var _ Node = (*Element)(nil)

func NewElement(name string) *Element {
	return &Element{name: name}
}

func (e *Element) Name() string {
	return e.name
}

func (e *Element) Child(name string) Node {
	for _, c := range e.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

func (e *Element) CreateChild(name string) Node {
	c := NewElement(name)
	e.children = append(e.children, c)
	return c
}

func (e *Element) Children() []Node {
	nodes := make([]Node, len(e.children))
	for i, c := range e.children {
		nodes[i] = c
	}
	return nodes
}

func (e *Element) RemoveChildren() {
	e.children = nil
}

func (e *Element) Attr(key string) (string, bool) {
	i := slices.IndexFunc(e.attrs, func(a attr) bool { return a.key == key })
	if i < 0 {
		return "", false
	}
	return e.attrs[i].value, true
}

func (e *Element) SetAttr(key, value string) {
	if i := slices.IndexFunc(e.attrs, func(a attr) bool { return a.key == key }); i >= 0 {
		e.attrs[i].value = value
		return
	}
	e.attrs = append(e.attrs, attr{key, value})
}

func (e *Element) Text() string {
	return e.text
}

func (e *Element) SetText(text string) {
	e.text = text
}

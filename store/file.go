package store

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
)

type xmlElement struct {
	XMLName  xml.Name
	Attrs    []xml.Attr   `xml:",any,attr"`
	Text     string       `xml:",chardata"`
	Children []xmlElement `xml:",any"`
}

// FileXML keeps documents as XML files on disk.
type FileXML struct{}

var _ XML = FileXML{}

func (FileXML) CreateDocument(path string) Document {
	return &fileDocument{path: path}
}

type fileDocument struct {
	path string
	root *Element
}

func (d *fileDocument) Parse() error {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return err
	}
	var x xmlElement
	if err = xml.Unmarshal(data, &x); err != nil {
		return err
	}
	d.root = fromXML(x)
	return nil
}

func (d *fileDocument) Write() error {
	if d.root == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(d.path), 0o755); err != nil {
		return err
	}
	data, err := xml.MarshalIndent(toXML(d.root), "", "\t")
	if err != nil {
		return err
	}
	return os.WriteFile(d.path, append([]byte(xml.Header), data...), 0o644)
}

func (d *fileDocument) Root() Node {
	if d.root == nil {
		return nil
	}
	return d.root
}

func (d *fileDocument) CreateRoot(name string) Node {
	d.root = NewElement(name)
	return d.root
}

func fromXML(x xmlElement) *Element {
	e := NewElement(x.XMLName.Local)
	for _, a := range x.Attrs {
		e.SetAttr(a.Name.Local, a.Value)
	}
	e.text = strings.TrimSpace(x.Text)
	for _, c := range x.Children {
		e.children = append(e.children, fromXML(c))
	}
	return e
}

func toXML(e *Element) xmlElement {
	x := xmlElement{XMLName: xml.Name{Local: e.name}, Text: e.text}
	for _, a := range e.attrs {
		x.Attrs = append(x.Attrs, xml.Attr{Name: xml.Name{Local: a.key}, Value: a.value})
	}
	for _, c := range e.children {
		x.Children = append(x.Children, toXML(c))
	}
	return x
}

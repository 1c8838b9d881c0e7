package keybinds

import "github.com/wnxd/mpcore/store"

// LoadFromXML replaces the binds with those stored under node and reports
// whether any were found.
func (b *Binds) LoadFromXML(node store.Node) bool {
	if node == nil {
		return false
	}
	children := node.Children()
	if len(children) == 0 {
		return false
	}
	b.Clear()
	for _, c := range children {
		key, ok := c.Attr("key")
		if !ok {
			continue
		}
		if control, ok := c.Attr("control"); ok {
			if !b.AddControl(key, control) {
				b.log.Warn("unknown control '", control, "' bound to ", key)
			}
			continue
		}
		command, ok := c.Attr("command")
		if !ok {
			continue
		}
		args, _ := c.Attr("arguments")
		state, _ := c.Attr("state")
		b.AddCommand(key, command, args, state == "up")
	}
	return true
}

func (b *Binds) SaveToXML(node store.Node) {
	node.RemoveChildren()
	for _, bind := range b.binds {
		c := node.CreateChild("bind")
		c.SetAttr("key", bind.Key)
		switch bind.Kind {
		case KindControl:
			c.SetAttr("control", bind.Control)
		case KindCommand:
			c.SetAttr("command", bind.Command)
			if bind.Args != "" {
				c.SetAttr("arguments", bind.Args)
			}
			if bind.OnUp {
				c.SetAttr("state", "up")
			} else {
				c.SetAttr("state", "down")
			}
		}
	}
}

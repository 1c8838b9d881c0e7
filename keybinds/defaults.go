package keybinds

func (b *Binds) LoadDefaultBinds() {
	b.AddControl("mouse1", "fire")
	b.AddControl("w", "forwards")
	b.AddControl("s", "backwards")
	b.AddControl("a", "left")
	b.AddControl("d", "right")
	b.AddControl("space", "jump")
	b.AddControl("lshift", "sprint")
	b.AddControl("c", "crouch")
	b.AddControl("f", "enter_exit")
	b.AddControl("w", "accelerate")
	b.AddControl("s", "brake_reverse")
	b.AddControl("a", "vehicle_left")
	b.AddControl("d", "vehicle_right")
	b.AddControl("h", "horn")
	b.AddControl("space", "handbrake")
	b.LoadDefaultCommands()
}

// LoadDefaultCommands binds the client commands that every profile has.
func (b *Binds) LoadDefaultCommands() {
	for _, d := range []struct{ key, command string }{
		{"f8", "console"},
		{"`", "console"},
		{"t", "chatbox"},
		{"f12", "screenshot"},
		{"f11", "radar"},
		{"pgup", "chatscrollup"},
		{"pgdn", "chatscrolldown"},
	} {
		if !b.hasCommand(d.key, d.command) {
			b.AddCommand(d.key, d.command, "", false)
		}
	}
}

func (b *Binds) hasCommand(key, command string) bool {
	for _, bind := range b.binds {
		if bind.Kind == KindCommand && bind.Key == key && bind.Command == command {
			return true
		}
	}
	return false
}

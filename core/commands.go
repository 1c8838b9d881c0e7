package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/wnxd/mpcore/cmdline"
	"github.com/wnxd/mpcore/keybinds"
)

func (c *Core) registerCommands() {
	c.commands.Add("help", "this help screen", c.cmdHelp)
	c.commands.Add("exit", "exits the application", c.cmdExit)
	c.commands.Add("quit", "exits the application", c.cmdExit)
	c.commands.Add("ver", "shows the version", c.cmdVer)
	c.commands.Add("time", "shows the time", c.cmdTime)
	c.commands.Add("binds", "shows all the binds", c.cmdBinds)
	c.commands.Add("connect", "connects to a server (host port nick pass)", c.connectTo)
	c.commands.Add("reconnect", "connects to a previous server", c.cmdReconnect)
	c.commands.Add("disconnect", "aborts the connection attempt", c.cmdDisconnect)
	c.commands.Add("bind", "binds a key (key control)", c.cmdBind)
	c.commands.Add("unbind", "unbinds a key (key)", c.cmdUnbind)
	c.commands.Add("saveconfig", "immediately saves the config", c.cmdSaveConfig)
	c.commands.Add("load", "loads a mod (name args)", c.cmdLoad)
	c.commands.Add("unload", "unloads the active mod", c.cmdUnload)
}

func (c *Core) cmdHelp(string) {
	for _, cmd := range c.commands.List() {
		c.ChatEcho(fmt.Sprintf("%-16s %s", cmd.Name, cmd.Description))
	}
}

// cmdExit quits at the end of the frame the command runs in.
func (c *Core) cmdExit(string) {
	c.Quit(false)
}

func (c *Core) cmdVer(string) {
	c.ChatEcho("Multi Theft Auto v" + Version)
}

func (c *Core) cmdTime(string) {
	c.ChatEcho("* The time is " + time.Now().Format("15:04:05"))
}

func (c *Core) cmdBinds(string) {
	for _, b := range c.binds.Binds() {
		if b.Kind == keybinds.KindControl {
			c.ChatEcho(fmt.Sprintf("%s: %s", b.Key, b.Control))
			continue
		}
		c.ChatEcho(strings.TrimSpace(fmt.Sprintf("%s: %s %s", b.Key, b.Command, b.Args)))
	}
}

// connectTo connects to "host[:port] [port] [nick] [password]" and remembers
// the target as the last used server.
func (c *Core) connectTo(args string) {
	d := cmdline.ParseConnectArgs(args, c.nick())
	if !d.Valid() {
		c.ChatEcho("connect: Syntax is 'connect <host> [<port> <nick> <pass>]'")
		return
	}
	c.connectDirective(d)
}

func (c *Core) connectDirective(d cmdline.Directive) {
	if c.connect == nil {
		c.ShowMessageBox("Error", ErrNotConnected.Error())
		return
	}
	if err := c.connect.Connect(d); err != nil {
		c.ShowMessageBox("Error", "Connecting failed: "+err.Error())
		return
	}
	c.vars.Set("host", d.Host)
	c.vars.Set("port", d.Port)
	c.vars.Set("nick", d.Nick)
	c.vars.Set("password", d.Password)
}

// Reconnect connects to the last server again.
func (c *Core) Reconnect() error {
	if c.connect == nil {
		return ErrNotConnected
	}
	return c.connect.Reconnect()
}

func (c *Core) cmdReconnect(string) {
	if err := c.Reconnect(); err != nil {
		c.ChatEcho("reconnect: " + err.Error())
	}
}

func (c *Core) cmdDisconnect(string) {
	if c.connect == nil {
		return
	}
	if err := c.connect.Abort(); err != nil {
		c.ChatEcho("disconnect: " + err.Error())
	}
}

// cmdBind binds "key control" or "key [up|down] command [args]".
func (c *Core) cmdBind(args string) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		c.ChatEcho("bind: Syntax is 'bind <key> [<up/down>] <control/command> [<arguments>]'")
		return
	}
	key, fields := fields[0], fields[1:]
	if len(fields) == 1 && keybinds.IsControl(fields[0]) {
		c.binds.AddControl(key, fields[0])
		c.ChatEcho(fmt.Sprintf("* Bound key '%s' to control '%s'", key, fields[0]))
		return
	}
	onUp := false
	if state := strings.ToLower(fields[0]); (state == "up" || state == "down") && len(fields) > 1 {
		onUp = state == "up"
		fields = fields[1:]
	}
	c.binds.AddCommand(key, fields[0], strings.Join(fields[1:], " "), onUp)
	c.ChatEcho(fmt.Sprintf("* Bound key '%s' to command '%s'", key, fields[0]))
}

func (c *Core) cmdUnbind(args string) {
	key := strings.TrimSpace(args)
	if key == "" {
		c.ChatEcho("unbind: Syntax is 'unbind <key>'")
		return
	}
	if c.binds.Remove(key) == 0 {
		c.ChatEcho(fmt.Sprintf("* '%s' is not bound", key))
		return
	}
	c.ChatEcho(fmt.Sprintf("* Unbound key '%s'", key))
}

func (c *Core) cmdSaveConfig(string) {
	if err := c.SaveConfig(); err != nil {
		c.ChatEcho("saveconfig: " + err.Error())
		return
	}
	c.ChatEcho("Saved configuration file")
}

func (c *Core) cmdLoad(args string) {
	name, rest, _ := strings.Cut(strings.TrimSpace(args), " ")
	if err := c.mods.Load(name, strings.TrimSpace(rest)); err != nil {
		c.ShowMessageBox("Error", err.Error())
	}
}

func (c *Core) cmdUnload(string) {
	c.mods.RequestUnload()
}

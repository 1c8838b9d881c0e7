// Package core owns the client's lifecycle. It materializes the game,
// multiplayer, network, GUI and XML modules in dependency order, splices the
// render, input, cursor and message hooks into the host, and is re-entered
// once per frame through Pulse.
//
// A Core is single threaded: every method is expected to run on the thread
// that drives the host's main loop, including the hook callbacks.
package core

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wnxd/mpcore/cmdline"
	"github.com/wnxd/mpcore/commands"
	"github.com/wnxd/mpcore/config"
	"github.com/wnxd/mpcore/connect"
	"github.com/wnxd/mpcore/cvars"
	"github.com/wnxd/mpcore/hook"
	"github.com/wnxd/mpcore/host"
	ihook "github.com/wnxd/mpcore/internal/hook"
	"github.com/wnxd/mpcore/keybinds"
	"github.com/wnxd/mpcore/loader"
	"github.com/wnxd/mpcore/mods"
	"github.com/wnxd/mpcore/patch"
	"github.com/wnxd/mpcore/store"
)

const (
	Version            = "1.0.4"
	VersionMajor       = 1
	VersionMinor       = 0
	VersionMaintenance = 4
	VersionType        = 9
	VersionBuild       = 0

	configRoot     = "mainconfig"
	configBinds    = "binds"
	configSettings = "settings"
)

var tracer = otel.Tracer("github.com/wnxd/mpcore/core")

type Options struct {
	Config      config.Config
	CommandLine string
	Process     host.Process
	// Targets defaults to hook.DefaultTargets.
	Targets  hook.Targets
	Linker   loader.Linker
	Platform Platform
	LocalGUI LocalGUI
	// Community is optional.
	Community Community
	// Patches defaults to the loading crash fix.
	Patches []patch.Patch
}

type Core struct {
	cfg      config.Config
	log      *logger.Logger
	platform Platform
	proc     host.Process

	options cmdline.Options
	args    string

	loader      *loader.Loader
	gameH       *loader.Handle
	mpH         *loader.Handle
	netH        *loader.Handle
	guiH        *loader.Handle
	xmlH        *loader.Handle
	game        Game
	multiplayer Multiplayer
	net         Net
	gui         GUI
	xml         store.XML
	configDoc   store.Document

	patcher *patch.Patcher
	stubs   *ihook.Stubs
	hooks   *ihook.Set
	message *ihook.MessageLoop
	cursor  *ihook.Cursor

	localGUI  LocalGUI
	community Community
	commands  *commands.Registry
	binds     *keybinds.Binds
	vars      *cvars.Store
	mods      *mods.Manager
	connect   *connect.Manager
	settings  map[string]string
	patches   []patch.Patch

	state       State
	deferred    deferred
	messageBox  io.Closer
	setupDone   bool
	firstFrame  bool
	graceFrames int
	focused     bool
	lastFocused bool
	offlineMod  bool
}

// New validates the environment and builds every component that does not
// need a module. A missing game installation is fatal.
func New(opts Options) (*Core, error) {
	c := &Core{
		cfg:         opts.Config,
		log:         logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "core")),
		platform:    opts.Platform,
		proc:        opts.Process,
		localGUI:    opts.LocalGUI,
		community:   opts.Community,
		patches:     opts.Patches,
		settings:    make(map[string]string),
		firstFrame:  true,
		focused:     true,
		lastFocused: true,
	}
	if c.platform == nil {
		c.platform = ProcessPlatform()
	}
	if err := c.cfg.Validate(); err != nil {
		return nil, c.Fatal(&FatalError{
			Class:   ClassEnvironment,
			Message: "There is no game path specified, please reinstall.",
			Code:    9,
			Err:     err,
		})
	}
	if c.localGUI == nil {
		c.localGUI = newLogGUI()
	}
	if c.patches == nil {
		c.patches = []patch.Patch{patch.LoadingCrash}
	}
	c.options, c.args = cmdline.Parse(opts.CommandLine, []string{"window"}, []string{"l"})

	c.loader = loader.New(opts.Linker, c.cfg.InstallRoot, c.cfg.ModulePath())
	c.commands = commands.NewRegistry()
	c.binds = keybinds.New(c.commands)
	c.vars = cvars.New()
	c.mods = mods.NewManager(c.cfg.ModsPath(), c)
	c.mods.OnUnload(func(string) { c.OnModUnload() })

	targets := opts.Targets
	if targets.CreateDevice == nil {
		targets = hook.DefaultTargets()
	}
	c.patcher = patch.NewPatcher(c.proc)
	c.stubs = ihook.NewStubs(c.proc)
	c.message = ihook.NewMessageLoop(c.proc, c.stubs, targets.WindowProc, c)
	c.cursor = ihook.NewCursor(c.proc, c.stubs, targets.SetCursorPos)
	c.hooks = ihook.NewSet(
		ihook.NewInput(c.proc, c.stubs, targets.PollInput, c),
		ihook.NewRender(c.proc, c.stubs, targets, c),
		c.cursor,
		c.message,
	)

	c.registerCommands()
	c.log.Infoln("Core constructed")
	return c, nil
}

func (c *Core) State() State {
	return c.state
}

// Fatal shows the diagnostic, optionally opens the remediation page and ends
// the process. It returns err so callers can stop as well.
func (c *Core) Fatal(err error) error {
	fe := asFatal(err)
	c.log.Warn("fatal: ", fe.Error())
	c.platform.MessageBox("Error", fe.Error())
	if fe.Topic != "" {
		c.platform.BrowseToSolution(fe.Topic)
	}
	c.platform.Exit(fe.Code)
	return fe
}

type stage struct {
	span   string
	create func(ctx context.Context) error
	next   State
}

// Start applies the memory patches and then creates the game, multiplayer,
// network and XML subsystems in that order. Any failure is fatal.
func (c *Core) Start(ctx context.Context) error {
	if c.state != StateConstructed {
		return fmt.Errorf("start while %s: %w", c.state, ErrInvalidState)
	}
	c.patcher.Apply(c.patches...)
	for _, st := range []stage{
		{"core.create_game", c.createGame, StateGameCreated},
		{"core.create_multiplayer", c.createMultiplayer, StateMultiplayerCreated},
		{"core.create_network", c.createNetwork, StateNetworkCreated},
		{"core.create_xml", c.createXML, StateXMLLoaded},
	} {
		if err := c.runStage(ctx, st); err != nil {
			return c.Fatal(err)
		}
	}
	c.state = StateRunning
	c.log.Infoln("Core running")
	return nil
}

func (c *Core) runStage(ctx context.Context, st stage) error {
	ctx, span := tracer.Start(ctx, st.span, trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	if err := st.create(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	c.state = st.next
	return nil
}

func (c *Core) createGame(context.Context) error {
	h, game, err := loader.CreateAndInitialize[Game](c.loader, "Game", gameModule, GameInitializer, c)
	c.gameH = h
	if err != nil {
		return err
	}
	c.game = game
	if game.Version() >= GameVersion11 {
		return &FatalError{
			Class:   ClassModule,
			Message: "Only game version 1.0 is supported! You are now being redirected to a page where you can patch your version.",
			Topic:   "downgrade",
			Code:    1,
			Err:     ErrUnsupportedGameVersion,
		}
	}
	return c.hooks.ApplyAll()
}

func (c *Core) createMultiplayer(context.Context) error {
	h, mp, err := loader.CreateAndInitialize[Multiplayer](c.loader, "Multiplayer", multiplayerModule, MultiplayerInitializer, c)
	c.mpH = h
	if err != nil {
		return err
	}
	c.multiplayer = mp
	return nil
}

func (c *Core) createNetwork(context.Context) error {
	h, net, err := loader.CreateAndInitialize[Net](c.loader, "Network", networkModule, NetworkInitializer, c)
	c.netH = h
	if err != nil {
		return err
	}
	if err = c.loader.CheckCompatibility(h, c.cfg.NetModuleVersion); err != nil {
		return err
	}
	c.net = net
	c.settings["mta-version-ext"] = fmt.Sprintf("%d.%d.%d-%d.%05d.%d.%03d",
		VersionMajor, VersionMinor, VersionMaintenance, VersionType, VersionBuild, net.NetRev(), net.NetRel())
	c.settings["serial"] = net.Serial()
	c.connect = connect.New(net, c.cfg.ConnectTimeout, connect.WithErrorHandler(func(err error) {
		c.ShowMessageBox("Error", "Connecting failed: "+err.Error())
	}))

	// The GUI is initialized once the render device exists.
	c.guiH, err = c.loader.Load("GUI", guiModule)
	return err
}

func (c *Core) createXML(context.Context) error {
	h, xml, err := loader.CreateAndInitialize[store.XML](c.loader, "XML", xmlModule, XMLInitializer, c)
	c.xmlH = h
	if err != nil {
		return err
	}
	c.xml = xml
	c.configDoc = xml.CreateDocument(c.cfg.ConfigPath())
	if err = c.configDoc.Parse(); err != nil {
		c.log.Infoln("No configuration loaded:", err)
	}
	root := c.configDoc.Root()
	if root == nil {
		root = c.configDoc.CreateRoot(configRoot)
	}
	if !c.binds.LoadFromXML(root.Child(configBinds)) {
		c.binds.LoadDefaultBinds()
	}
	c.binds.LoadDefaultCommands()
	c.vars.Load(store.ChildOrCreate(root, configSettings))
	return nil
}

// InitGUI initializes the GUI module with the render device.
func (c *Core) InitGUI(device uint64) error {
	if c.gui != nil {
		return nil
	} else if c.guiH == nil {
		return fmt.Errorf("device created while %s: %w", c.state, ErrInvalidState)
	}
	gui, err := loader.Initialize[GUI](c.loader, c.guiH, GUIInitializer, device)
	if err != nil {
		return c.Fatal(err)
	}
	c.gui = gui
	gui.SetWorkingDirectory(c.cfg.ModulePath())
	c.vars.Set("screenshot_path", filepath.Join(c.cfg.InstallRoot, "screenshots"))
	return nil
}

// Shutdown tears the core down. Network goes before multiplayer before game;
// the XML module goes last because the others save into it on the way down.
// Calling it again does nothing.
func (c *Core) Shutdown() error {
	if c.state == StateShuttingDown || c.state == StateDestroyed {
		return nil
	}
	_, span := tracer.Start(context.Background(), "core.shutdown")
	defer span.End()
	c.state = StateShuttingDown
	c.log.Infoln("Core teardown")

	c.mods.Unload()
	c.RemoveMessageBox(false)

	c.destroyNetwork()
	c.destroyMultiplayer()
	c.destroyGame()

	if c.gui != nil {
		c.gui.ClearInputHandlers(InputCore)
	}
	err := c.hooks.RemoveAll()
	if err != nil {
		span.RecordError(err)
	}
	c.stubs.Close()
	c.patcher.RestoreAll()

	c.localGUI.StoreSettings(c.vars)
	c.destroyGUI()
	c.destroyXML()

	c.state = StateDestroyed
	return err
}

func (c *Core) destroyNetwork() {
	c.log.Infoln("Destroy network")
	if c.connect != nil {
		c.connect.Abort()
	}
	if c.net != nil {
		c.net.Terminate()
		c.net = nil
	}
	c.loader.Unload(c.netH)
}

func (c *Core) destroyMultiplayer() {
	c.log.Infoln("Destroy multiplayer")
	if c.multiplayer != nil {
		c.multiplayer.Terminate()
		c.multiplayer = nil
	}
	c.loader.Unload(c.mpH)
}

func (c *Core) destroyGame() {
	c.log.Infoln("Destroy game")
	if c.game != nil {
		c.game.Terminate()
		c.game = nil
	}
	c.loader.Unload(c.gameH)
}

func (c *Core) destroyGUI() {
	c.log.Infoln("Destroy GUI")
	c.gui = nil
	c.loader.Unload(c.guiH)
}

func (c *Core) destroyXML() {
	c.log.Infoln("Destroy XML")
	if c.configDoc != nil {
		if err := c.SaveConfig(); err != nil {
			c.log.Warn("save config: ", err)
		}
		c.configDoc = nil
	}
	c.xml = nil
	c.loader.Unload(c.xmlH)
}

// Quit ends the process. Without instant the quit happens at the next
// post-frame pulse so the current frame is not torn down mid-way.
func (c *Core) Quit(instant bool) {
	if !instant {
		c.deferred |= deferQuit
		return
	}
	c.log.Infoln("Quit")
	c.mods.Unload()
	c.Shutdown()
	c.platform.Exit(0)
}

// SaveConfig writes the binds and client variables to the configuration
// document.
func (c *Core) SaveConfig() error {
	if c.configDoc == nil {
		return ErrNoConfig
	}
	root := c.configDoc.Root()
	if root == nil {
		root = c.configDoc.CreateRoot(configRoot)
	}
	c.binds.SaveToXML(store.ChildOrCreate(root, configBinds))
	c.vars.Save(store.ChildOrCreate(root, configSettings))
	return c.configDoc.Write()
}

func (c *Core) ShowMessageBox(title, text string) {
	if c.messageBox != nil {
		c.messageBox.Close()
	}
	c.messageBox = c.localGUI.ShowMessageBox(title, text)
}

// RemoveMessageBox closes the message box now or at the next post-frame
// pulse.
func (c *Core) RemoveMessageBox(nextFrame bool) {
	if nextFrame {
		c.deferred |= deferDestroyMessageBox
		return
	}
	if c.messageBox != nil {
		c.messageBox.Close()
		c.messageBox = nil
	}
}

// SetCenterCursor lets the game position the cursor, or not.
func (c *Core) SetCenterCursor(enabled bool) {
	if enabled {
		c.cursor.Enable()
	} else {
		c.cursor.Disable()
	}
}

func (c *Core) HookedWindow() uint64 {
	return c.message.Window()
}

func (c *Core) HookDescriptors() []hook.Descriptor {
	var descs []hook.Descriptor
	for _, m := range c.hooks.Managers() {
		descs = append(descs, m.Descriptors()...)
	}
	return descs
}

func (c *Core) ChatEcho(text string) {
	c.localGUI.Echo(text)
}

func (c *Core) DebugEcho(text string) {
	c.localGUI.DebugEcho(text)
}

// Echo and Command make the core the host of mod scripts.
func (c *Core) Echo(message string) {
	c.ChatEcho(message)
}

func (c *Core) Command(line string) error {
	return c.commands.Execute(line)
}

// OnModUnload gives input back to the core once a mod is gone.
func (c *Core) OnModUnload() {
	if c.gui != nil {
		c.gui.SelectInputHandlers(InputCore)
		c.gui.ClearInputHandlers(InputMod)
	}
	c.SetCenterCursor(true)
}

func (c *Core) SetOfflineMod(offline bool) {
	c.offlineMod = offline
}

func (c *Core) IsOfflineMod() bool {
	return c.offlineMod
}

func (c *Core) ModInstallRoot(name string) string {
	return c.mods.Dir(name)
}

func (c *Core) InstallRoot() string {
	return c.cfg.InstallRoot
}

func (c *Core) GameInstallRoot() string {
	return c.cfg.GameRoot
}

func (c *Core) CommandLineOption(key string) (string, bool) {
	return c.options.Get(key)
}

// ApplicationSetting returns values recorded for crash reports, such as
// "serial".
func (c *Core) ApplicationSetting(key string) string {
	return c.settings[key]
}

func (c *Core) IsValidNick(nick string) bool {
	return connect.IsValidNick(nick)
}

func (c *Core) Commands() *commands.Registry { return c.commands }

func (c *Core) Binds() *keybinds.Binds { return c.binds }

func (c *Core) Vars() *cvars.Store { return c.vars }

func (c *Core) Mods() *mods.Manager { return c.mods }

func (c *Core) Loader() *loader.Loader { return c.loader }

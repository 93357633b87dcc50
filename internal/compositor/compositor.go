// Package compositor runs the single event loop that owns the layout,
// focus and grab state.
package compositor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/1broseidon/tessera/internal/config"
	"github.com/1broseidon/tessera/internal/focus"
	"github.com/1broseidon/tessera/internal/grab"
	"github.com/1broseidon/tessera/internal/ipc"
	"github.com/1broseidon/tessera/internal/logging"
	"github.com/1broseidon/tessera/internal/output"
	"github.com/1broseidon/tessera/internal/platform"
	"github.com/1broseidon/tessera/internal/tiling"
	"github.com/1broseidon/tessera/internal/wm"
	"github.com/1broseidon/tessera/internal/workspace"
)

// Spawner starts user commands without waiting for them.
type Spawner interface {
	Spawn(argv []string) error
}

// Options configures a Compositor. Config and Backend are required.
type Options struct {
	Config     *config.Config
	ConfigPath string
	// Load re-reads configuration for RELOAD requests.
	Load      func() (*config.LoadResult, error)
	Backend   platform.Backend
	Seat      focus.Seat
	Spawner   Spawner
	SessionID string
	// LogLevel, when set, follows log_level across reloads.
	LogLevel *slog.LevelVar
	// OnConfig runs on the loop after a reloaded configuration is applied.
	OnConfig  func(cfg *config.Config)
	QueueSize int
	Logger    *slog.Logger
}

// Compositor owns the core state. All mutation happens on the goroutine
// running Run.
type Compositor struct {
	cfg        *config.Config
	configPath string
	load       func() (*config.LoadResult, error)
	logLevel   *slog.LevelVar
	onConfig   func(cfg *config.Config)

	wm      *wm.Manager
	focus   *focus.Resolver
	grabs   *grab.Controller
	backend platform.Backend
	spawner Spawner

	pointer       tiling.Point
	sessionActive bool
	quitting      bool

	sessionID string
	started   time.Time

	events chan Event
	done   chan struct{}
	logger *slog.Logger
}

// New builds a compositor. No outputs are known until the backend reports them.
func New(opts Options) (*Compositor, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("compositor: config is required")
	}
	if opts.Backend == nil {
		return nil, fmt.Errorf("compositor: backend is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}

	m := wm.New(opts.Config, opts.Logger.With("component", "wm"))
	c := &Compositor{
		cfg:           opts.Config,
		configPath:    opts.ConfigPath,
		load:          opts.Load,
		logLevel:      opts.LogLevel,
		onConfig:      opts.OnConfig,
		wm:            m,
		focus:         focus.NewResolver(m, opts.Seat, opts.Logger.With("component", "focus")),
		grabs:         grab.NewController(m, opts.Logger.With("component", "grab")),
		backend:       opts.Backend,
		spawner:       opts.Spawner,
		sessionActive: true,
		sessionID:     opts.SessionID,
		started:       time.Now(),
		events:        make(chan Event, opts.QueueSize),
		done:          make(chan struct{}),
		logger:        opts.Logger,
	}
	return c, nil
}

// Manager exposes the workspace manager. It must only be used from the loop
// or before Run starts.
func (c *Compositor) Manager() *wm.Manager { return c.wm }

// Focus exposes the focus resolver under the same rules as Manager.
func (c *Compositor) Focus() *focus.Resolver { return c.focus }

// Pointer returns the last known global pointer position.
func (c *Compositor) Pointer() tiling.Point { return c.pointer }

// Run processes events until ctx is canceled or a quit action is handled.
// It returns nil on quit.
func (c *Compositor) Run(ctx context.Context) error {
	defer close(c.done)
	c.logger.Info("compositor started", "session", c.sessionID)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-c.events:
			c.Handle(ev)
			if c.quitting {
				c.logger.Info("compositor quitting")
				return nil
			}
		}
	}
}

// Post queues an event for the loop. It fails when the loop has exited.
func (c *Compositor) Post(ctx context.Context, ev Event) error {
	select {
	case c.events <- ev:
		return nil
	case <-c.done:
		return ipc.ErrUnavailable
	case <-ctx.Done():
		return ctx.Err()
	}
}

// call runs fn on the loop and waits for it.
func (c *Compositor) call(ctx context.Context, fn func(*Compositor)) error {
	req := IPCRequest{fn: fn, done: make(chan struct{})}
	if err := c.Post(ctx, req); err != nil {
		return err
	}
	select {
	case <-req.done:
		return nil
	case <-c.done:
		return ipc.ErrUnavailable
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Handle applies one event. Run calls it for every queued event; tests call
// it directly.
func (c *Compositor) Handle(ev Event) {
	redraw := false
	switch e := ev.(type) {
	case OutputConnected:
		if !c.outputsLive("connected", e.Output.Name) {
			return
		}
		c.applyCursor(c.wm.AddOutput(e.Output))
		redraw = true
	case OutputDisconnected:
		if !c.outputsLive("disconnected", e.Name) {
			return
		}
		c.applyCursor(c.wm.RemoveOutput(e.Name))
		redraw = true
	case OutputChanged:
		if !c.outputsLive("changed", e.Output.Name) {
			return
		}
		c.applyCursor(c.wm.ReconfigureOutput(e.Output))
		redraw = true
	case OutputsSnapshot:
		if !c.outputsLive("snapshot", "") {
			return
		}
		redraw = c.reconcileOutputs(e.Outputs)
	case WindowMapped:
		redraw = c.mapWindow(e.Window)
	case WindowDestroyed:
		redraw = c.destroyWindow(e.ID)
	case IdentityChanged:
		w, ok := c.wm.Window(e.ID)
		if !ok {
			c.logger.Error("identity change for unknown window", "window", e.ID)
			return
		}
		resolved := w.RecomputeRules(c.cfg.Rules())
		c.logger.Debug("window rules re-resolved", "window", e.ID, "app_id", w.AppID(), "floating", resolved.IsFloating())
		redraw = true
	case SurfaceCommitted:
		c.grabs.Commit(e.ID)
		redraw = true
	case LayerAdded:
		c.focus.AddLayer(e.Surface)
		redraw = true
	case LayerRemoved:
		if !c.focus.RemoveLayer(e.ID) {
			c.logger.Error("removal of unknown layer surface", "surface", e.ID)
			return
		}
		redraw = true
	case PopupAdded:
		redraw = c.focus.AddPopup(e.Popup)
	case PopupRemoved:
		if !c.focus.RemovePopup(e.ID) {
			c.logger.Error("removal of unknown popup", "popup", e.ID)
			return
		}
		redraw = true
	case PointerMotion:
		redraw = c.motion(e.Location)
	case PointerButton:
		redraw = c.button(e)
	case KeyBinding:
		a, ok := c.cfg.Bindings[e.Key]
		if !ok {
			c.logger.Debug("unbound key", "key", e.Key)
			return
		}
		if err := c.dispatch(a); err != nil {
			c.logger.Warn("key binding failed", "key", e.Key, "action", a.String(), "error", err)
		}
		return
	case MoveRequest:
		if err := c.grabs.StartMove(grab.Request{Window: e.Window, Serial: e.Serial}); err != nil {
			c.logger.Debug("move request rejected", "window", e.Window, "error", err)
		}
	case ResizeRequest:
		if err := c.grabs.StartResize(grab.Request{Window: e.Window, Serial: e.Serial, Edges: e.Edges}); err != nil {
			c.logger.Debug("resize request rejected", "window", e.Window, "error", err)
		}
	case ConfigReloaded:
		c.applyConfig(e.Config, e.Path)
		redraw = true
	case IPCRequest:
		e.fn(c)
		close(e.done)
		return
	case SessionActive:
		if c.sessionActive != e.Active {
			c.logger.Info("session state changed", "active", e.Active)
		}
		c.sessionActive = e.Active
		return
	default:
		c.logger.Error("unhandled event", "type", fmt.Sprintf("%T", ev))
		return
	}
	if redraw {
		c.backend.RequestRedraw()
	}
}

func (c *Compositor) outputsLive(what, name string) bool {
	if !c.sessionActive {
		c.logger.Debug("output event ignored while session is paused", "event", what, "output", name)
		return false
	}
	return true
}

// reconcileOutputs brings the known outputs in line with a polled list.
func (c *Compositor) reconcileOutputs(outputs []platform.Output) bool {
	known := make(map[string]platform.Output)
	for _, out := range c.wm.Space().ConnectedOutputs() {
		known[out.Name] = out
	}
	changed := false
	seen := make(map[string]bool, len(outputs))
	for _, out := range outputs {
		seen[out.Name] = true
		prev, ok := known[out.Name]
		switch {
		case !ok:
			c.logger.Info("output appeared", "output", out.Name)
			c.applyCursor(c.wm.AddOutput(out))
			changed = true
		case prev.Mode != out.Mode || prev.Enabled != out.Enabled:
			c.logger.Info("output changed", "output", out.Name, "width", out.Mode.Width, "height", out.Mode.Height)
			c.applyCursor(c.wm.ReconfigureOutput(out))
			changed = true
		}
	}
	for name := range known {
		if !seen[name] {
			c.logger.Info("output vanished", "output", name)
			c.applyCursor(c.wm.RemoveOutput(name))
			changed = true
		}
	}
	return changed
}

func (c *Compositor) mapWindow(pw platform.Window) bool {
	w := workspace.NewWindow(pw, c.cfg.Rules())
	pointer := c.pointer
	ws := c.wm.AddWindow(w, &pointer)
	if ws == nil {
		return false
	}
	c.logger.Debug("window mapped", "window", w.ID(), "app_id", w.AppID(), "workspace", ws.Index(), "tiled", ws.IsTiled(w.ID()))
	if active, ok := c.wm.ActiveWorkspace(); ok && active == ws {
		c.focus.FocusWindow(w.ID())
	}
	c.focus.Refresh(c.pointer)
	return true
}

func (c *Compositor) destroyWindow(id platform.WindowID) bool {
	c.grabs.Forget(id)
	c.focus.ForgetWindow(id)
	if _, ok := c.wm.RemoveWindow(id); !ok {
		c.logger.Error("destroy of unknown window", "window", id)
		return false
	}
	c.focus.Refresh(c.pointer)
	return true
}

func (c *Compositor) motion(p tiling.Point) bool {
	c.pointer = p
	if kind, _ := c.grabs.Active(); kind != grab.KindNone {
		return c.grabs.Motion(p)
	}
	u := c.focus.Motion(p)
	return u.OutputChanged || u.KeyboardChanged || u.PointerChanged
}

func (c *Compositor) button(e PointerButton) bool {
	if !e.Pressed {
		return c.grabs.Button(e.Button, false)
	}
	if c.grabs.Button(e.Button, true) {
		return false
	}
	if t, ok := c.focus.PointerTarget(c.pointer); ok {
		if id, ok := t.WindowID(); ok && t.Kind == focus.KindWindow {
			c.grabs.NotePress(grab.Press{Button: e.Button, Serial: e.Serial, Window: id, Location: c.pointer})
		}
	}
	return c.focus.Click(c.pointer)
}

// applyCursor follows a cursor instruction from the output space.
func (c *Compositor) applyCursor(upd output.CursorUpdate) {
	switch upd.Kind {
	case output.CursorAbsolute:
		c.pointer = upd.Point
	case output.CursorRelative:
		c.pointer = c.pointer.Add(upd.Point)
	default:
		return
	}
	if warper, ok := c.backend.(platform.PointerWarper); ok {
		warper.WarpPointer(c.pointer)
	}
	c.focus.Motion(c.pointer)
}

func (c *Compositor) applyConfig(cfg *config.Config, path string) {
	if cfg == nil {
		return
	}
	c.cfg = cfg
	if path != "" {
		c.configPath = path
	}
	if c.logLevel != nil && os.Getenv(logging.EnvLevel) == "" {
		level, _ := logging.ParseLevel(cfg.LogLevel)
		c.logLevel.Set(level)
	}
	c.applyCursor(c.wm.ApplyConfig(cfg))
	c.focus.Refresh(c.pointer)
	c.logger.Info("configuration applied", "path", c.configPath, "rules", cfg.Rules().Len(), "bindings", len(cfg.Bindings))
	if c.onConfig != nil {
		c.onConfig(cfg)
	}
}

// Package grab implements interactive move and resize of floating windows.
package grab

import (
	"errors"
	"log/slog"

	"github.com/1broseidon/tessera/internal/platform"
	"github.com/1broseidon/tessera/internal/tiling"
	"github.com/1broseidon/tessera/internal/workspace"
)

var (
	// ErrNoImplicitGrab means no pointer button is held.
	ErrNoImplicitGrab = errors.New("no pointer button is held")
	// ErrSerialMismatch means the request does not match the button press serial.
	ErrSerialMismatch = errors.New("grab serial does not match the button press")
	// ErrFocusMismatch means the press was not delivered to the requesting window.
	ErrFocusMismatch = errors.New("window did not receive the button press")
	// ErrGrabActive means another grab is already running.
	ErrGrabActive = errors.New("another grab is in progress")
	// ErrUnknownWindow means the window is not mapped.
	ErrUnknownWindow = errors.New("unknown window")
	// ErrTiled means the window occupies the tiling slot and cannot be resized.
	ErrTiled = errors.New("tiled windows cannot be resized interactively")
)

// Kind is the grab type.
type Kind int

const (
	KindNone Kind = iota
	KindMove
	KindResize
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindMove:
		return "move"
	case KindResize:
		return "resize"
	default:
		return "unknown"
	}
}

// Press is the pointer's implicit grab: a held button delivered to a window.
type Press struct {
	Button   uint32
	Serial   uint32
	Window   platform.WindowID
	Location tiling.Point
}

// Request is a client's move or resize request.
type Request struct {
	Window platform.WindowID
	Serial uint32
	// Edges is the resize corner; EdgeNone classifies it from the pointer.
	Edges tiling.Edges
}

// Layout is the view of the window manager a grab needs.
type Layout interface {
	Window(id platform.WindowID) (*workspace.Window, bool)
	WindowLocation(id platform.WindowID) (tiling.Point, bool)
	SetWindowLocation(id platform.WindowID, global tiling.Point) bool
	IsFloating(id platform.WindowID) bool
}

type active struct {
	kind      Kind
	window    platform.WindowID
	button    uint32
	start     tiling.Point
	offset    tiling.Point
	requested tiling.Size
}

// Controller tracks the implicit pointer grab and at most one interactive grab.
type Controller struct {
	layout Layout
	logger *slog.Logger

	press *Press
	grab  *active
}

// NewController returns a controller operating on layout.
func NewController(layout Layout, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{layout: layout, logger: logger}
}

// Active returns the kind and window of the running grab.
func (c *Controller) Active() (Kind, platform.WindowID) {
	if c.grab == nil {
		return KindNone, 0
	}
	return c.grab.kind, c.grab.window
}

// NotePress records a button press delivered to a window. Only the first
// held button forms the implicit grab.
func (c *Controller) NotePress(p Press) {
	if c.press == nil {
		press := p
		c.press = &press
	}
}

func (c *Controller) validate(req Request) error {
	if c.grab != nil {
		return ErrGrabActive
	}
	if c.press == nil {
		return ErrNoImplicitGrab
	}
	if c.press.Serial != req.Serial {
		return ErrSerialMismatch
	}
	if c.press.Window != req.Window {
		return ErrFocusMismatch
	}
	return nil
}

// StartMove begins moving a floating window. The pointer keeps its offset
// from the window's location for the whole drag. Moving a tiled window is a
// no-op and starts no grab.
func (c *Controller) StartMove(req Request) error {
	if err := c.validate(req); err != nil {
		return err
	}
	loc, ok := c.layout.WindowLocation(req.Window)
	if !ok {
		return ErrUnknownWindow
	}
	if !c.layout.IsFloating(req.Window) {
		c.logger.Debug("ignoring move of tiled window", "window", req.Window)
		return nil
	}
	c.grab = &active{
		kind:   KindMove,
		window: req.Window,
		button: c.press.Button,
		start:  c.press.Location,
		offset: c.press.Location.Sub(loc),
	}
	c.logger.Debug("move grab started", "window", req.Window)
	return nil
}

// StartResize begins resizing a floating window from a corner.
func (c *Controller) StartResize(req Request) error {
	if err := c.validate(req); err != nil {
		return err
	}
	w, ok := c.layout.Window(req.Window)
	if !ok {
		return ErrUnknownWindow
	}
	if !c.layout.IsFloating(req.Window) {
		return ErrTiled
	}
	loc, _ := c.layout.WindowLocation(req.Window)
	size := w.Geometry().Size()

	edges := req.Edges
	if edges == tiling.EdgeNone {
		edges = tiling.CornerAt(tiling.RectFrom(loc, size), c.press.Location)
	}
	w.SetResize(&workspace.ResizeState{
		Phase:           workspace.PhaseResizing,
		Edges:           edges,
		InitialLocation: loc,
		InitialSize:     size,
	})
	c.grab = &active{
		kind:      KindResize,
		window:    req.Window,
		button:    c.press.Button,
		start:     c.press.Location,
		requested: size,
	}
	c.logger.Debug("resize grab started", "window", req.Window, "edges", edges.String())
	return nil
}

// Motion handles pointer motion. It reports whether a grab consumed it.
func (c *Controller) Motion(p tiling.Point) bool {
	if c.grab == nil {
		return false
	}
	switch c.grab.kind {
	case KindMove:
		// Tiled windows ignore the move.
		c.layout.SetWindowLocation(c.grab.window, p.Sub(c.grab.offset))
	case KindResize:
		w, ok := c.layout.Window(c.grab.window)
		if !ok {
			c.grab = nil
			return false
		}
		rs := w.Resize()
		if rs == nil || rs.Phase != workspace.PhaseResizing {
			return true
		}
		size := resizeTarget(rs, p.Sub(c.grab.start), w.MinSize(), w.MaxSize())
		c.grab.requested = size
		w.RequestSize(size, true)
	}
	return true
}

func resizeTarget(rs *workspace.ResizeState, delta tiling.Point, min, max tiling.Size) tiling.Size {
	dx, dy := delta.X, delta.Y
	if rs.Edges.Has(tiling.EdgeLeft) {
		dx = -dx
	}
	if rs.Edges.Has(tiling.EdgeTop) {
		dy = -dy
	}

	size := rs.InitialSize
	if rs.Edges&(tiling.EdgeLeft|tiling.EdgeRight) != 0 {
		size.Width += dx
	}
	if rs.Edges&(tiling.EdgeTop|tiling.EdgeBottom) != 0 {
		size.Height += dy
	}
	if size.Width < 1 {
		size.Width = 1
	}
	if size.Height < 1 {
		size.Height = 1
	}
	return tiling.ClampSize(size, min, max)
}

// Button handles a pointer button event. Releasing the initiating button
// ends the grab; a resize then waits for the client's final commit. It
// reports whether a grab consumed the event.
func (c *Controller) Button(button uint32, pressed bool) bool {
	if pressed {
		return c.grab != nil
	}
	if c.press != nil && c.press.Button == button {
		c.press = nil
	}
	if c.grab == nil || c.grab.button != button {
		return c.grab != nil
	}

	g := c.grab
	c.grab = nil
	if g.kind == KindResize {
		if w, ok := c.layout.Window(g.window); ok {
			if rs := w.Resize(); rs != nil {
				rs.Phase = workspace.PhaseWaitingForCommit
				w.RequestSize(g.requested, false)
			}
		}
	}
	c.logger.Debug("grab ended", "kind", g.kind.String(), "window", g.window)
	return true
}

// Commit handles a new buffer from a window. While a resize is in flight
// the window is repositioned so the anchored edges stay put; after the
// final commit the transaction is cleared.
func (c *Controller) Commit(id platform.WindowID) {
	w, ok := c.layout.Window(id)
	if !ok {
		return
	}
	rs := w.Resize()
	if rs == nil {
		return
	}
	if rs.Edges.Has(tiling.EdgeLeft) || rs.Edges.Has(tiling.EdgeTop) {
		c.layout.SetWindowLocation(id, rs.AnchoredLocation(w.Geometry().Size()))
	}
	if rs.Phase == workspace.PhaseWaitingForCommit {
		w.ClearResize()
	}
}

// Forget drops every reference to a window that is being destroyed.
func (c *Controller) Forget(id platform.WindowID) {
	if w, ok := c.layout.Window(id); ok {
		w.ClearResize()
	}
	if c.grab != nil && c.grab.window == id {
		c.grab = nil
	}
	if c.press != nil && c.press.Window == id {
		c.press = nil
	}
}

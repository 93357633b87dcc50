package focus

import (
	"log/slog"

	"github.com/1broseidon/tessera/internal/output"
	"github.com/1broseidon/tessera/internal/platform"
	"github.com/1broseidon/tessera/internal/tiling"
	"github.com/1broseidon/tessera/internal/wm"
	"github.com/1broseidon/tessera/internal/workspace"
)

// Seat receives focus changes. Calls are made only when the focused
// surface actually changes, except PointerMotion.
type Seat interface {
	KeyboardEnter(t Target)
	KeyboardLeave()
	PointerEnter(t Target, local tiling.Point)
	PointerMotion(local tiling.Point)
	PointerLeave()
}

// Update reports what a call to Motion changed.
type Update struct {
	Pointer         *Target
	Keyboard        *Target
	PointerChanged  bool
	KeyboardChanged bool
	OutputChanged   bool
}

// Resolver tracks layer surfaces and popups and decides which surface
// holds keyboard and pointer focus.
type Resolver struct {
	wm     *wm.Manager
	seat   Seat
	logger *slog.Logger

	layers []platform.LayerSurface // insertion order, later is higher
	popups []platform.Popup

	keyboard *Target
	pointer  *Target
}

// NewResolver creates a resolver over the manager's layout. seat may be nil.
func NewResolver(m *wm.Manager, seat Seat, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{wm: m, seat: seat, logger: logger}
}

// Keyboard returns the keyboard focus, if any.
func (r *Resolver) Keyboard() (Target, bool) {
	if r.keyboard == nil {
		return Target{}, false
	}
	return *r.keyboard, true
}

// Pointer returns the pointer focus, if any.
func (r *Resolver) Pointer() (Target, bool) {
	if r.pointer == nil {
		return Target{}, false
	}
	return *r.pointer, true
}

// FocusedWindow returns the window holding keyboard focus, directly or
// through one of its popups.
func (r *Resolver) FocusedWindow() (platform.WindowID, bool) {
	if r.keyboard == nil {
		return 0, false
	}
	return r.keyboard.WindowID()
}

// AddLayer registers a layer surface above earlier surfaces of its layer.
func (r *Resolver) AddLayer(l platform.LayerSurface) {
	for _, existing := range r.layers {
		if existing.ID() == l.ID() {
			r.logger.Error("layer surface added twice", "surface", l.ID())
			return
		}
	}
	r.layers = append(r.layers, l)
}

// RemoveLayer drops a layer surface and any focus it held.
func (r *Resolver) RemoveLayer(id platform.SurfaceID) bool {
	for i, l := range r.layers {
		if l.ID() != id {
			continue
		}
		r.layers = append(r.layers[:i], r.layers[i+1:]...)
		r.drop(func(t *Target) bool { return t.Kind == KindLayer && t.Layer.ID() == id })
		return true
	}
	return false
}

// Layers returns the registered layer surfaces in insertion order.
func (r *Resolver) Layers() []platform.LayerSurface {
	out := make([]platform.LayerSurface, len(r.layers))
	copy(out, r.layers)
	return out
}

// AddPopup registers a popup. The parent window must be known.
func (r *Resolver) AddPopup(p platform.Popup) bool {
	if _, ok := r.wm.Window(p.Parent()); !ok {
		r.logger.Error("popup for unknown window", "popup", p.ID(), "parent", p.Parent())
		return false
	}
	r.popups = append(r.popups, p)
	return true
}

// RemovePopup drops a popup and any focus it held.
func (r *Resolver) RemovePopup(id platform.SurfaceID) bool {
	for i, p := range r.popups {
		if p.ID() != id {
			continue
		}
		r.popups = append(r.popups[:i], r.popups[i+1:]...)
		r.drop(func(t *Target) bool { return t.Kind == KindPopup && t.Popup.ID() == id })
		return true
	}
	return false
}

// ForgetWindow drops a window's popups and any focus held by the window
// or its popups. Call it before the window leaves the layout.
func (r *Resolver) ForgetWindow(id platform.WindowID) {
	kept := r.popups[:0]
	for _, p := range r.popups {
		if p.Parent() != id {
			kept = append(kept, p)
		}
	}
	for i := len(kept); i < len(r.popups); i++ {
		r.popups[i] = nil
	}
	r.popups = kept
	r.drop(func(t *Target) bool {
		owner, ok := t.WindowID()
		return ok && owner == id
	})
}

func (r *Resolver) drop(match func(*Target) bool) {
	if r.keyboard != nil && match(r.keyboard) {
		r.keyboard = nil
		if r.seat != nil {
			r.seat.KeyboardLeave()
		}
	}
	if r.pointer != nil && match(r.pointer) {
		r.pointer = nil
		if r.seat != nil {
			r.seat.PointerLeave()
		}
	}
}

// PointerTarget resolves the surface under the global point p.
func (r *Resolver) PointerTarget(p tiling.Point) (Target, bool) {
	placed, ok := r.wm.Space().OutputUnder(p)
	if !ok {
		return Target{}, false
	}
	accept := func(t Target) bool { return t.AcceptsPointer() && t.Hit(p) }
	return r.scan(placed, accept, func(ws *workspace.Workspace) (Target, bool) {
		elems := ws.Elements()
		for i := len(elems) - 1; i >= 0; i-- {
			if t, ok := r.popupUnder(elems[i], placed.Position, accept); ok {
				return t, true
			}
			if t := r.windowTarget(elems[i], placed.Position); accept(t) {
				return t, true
			}
		}
		// Nothing hit; WindowUnder applies the floating fallback.
		e, ok := ws.WindowUnder(p.Sub(placed.Position))
		if !ok {
			return Target{}, false
		}
		return r.windowTarget(e, placed.Position), true
	})
}

// KeyboardTarget resolves keyboard focus on the active output. The pointer
// position selects among the active workspace's windows; when nothing is
// under it the tiled window, then the topmost floating window, is chosen.
func (r *Resolver) KeyboardTarget(p tiling.Point) (Target, bool) {
	placed, ok := r.wm.Space().Active()
	if !ok {
		return Target{}, false
	}
	return r.scan(placed, Target.AcceptsKeyboard, func(ws *workspace.Workspace) (Target, bool) {
		elems := ws.Elements()
		for i := len(elems) - 1; i >= 0; i-- {
			if t, ok := r.popupUnder(elems[i], placed.Position, Target.AcceptsKeyboard); ok {
				return t, true
			}
		}
		if e, ok := ws.WindowUnder(p.Sub(placed.Position)); ok {
			return r.windowTarget(e, placed.Position), true
		}
		if len(elems) == 0 {
			return Target{}, false
		}
		for _, e := range elems {
			if e.Tiled {
				return r.windowTarget(e, placed.Position), true
			}
		}
		return r.windowTarget(elems[len(elems)-1], placed.Position), true
	})
}

// scan walks the stacking order of one output from the top: overlay and
// top layers, the workspace (via windows), then bottom and background
// layers.
func (r *Resolver) scan(placed output.Placed, accept func(Target) bool, windows func(*workspace.Workspace) (Target, bool)) (Target, bool) {
	for _, level := range []platform.Layer{platform.LayerOverlay, platform.LayerTop} {
		if t, ok := r.scanLayer(placed, level, accept); ok {
			return t, true
		}
	}
	if ws, ok := r.wm.WorkspaceOn(placed.Name()); ok {
		if t, ok := windows(ws); ok {
			return t, true
		}
	}
	for _, level := range []platform.Layer{platform.LayerBottom, platform.LayerBackground} {
		if t, ok := r.scanLayer(placed, level, accept); ok {
			return t, true
		}
	}
	return Target{}, false
}

func (r *Resolver) scanLayer(placed output.Placed, level platform.Layer, accept func(Target) bool) (Target, bool) {
	for i := len(r.layers) - 1; i >= 0; i-- {
		l := r.layers[i]
		if l.Layer() != level || l.Output() != placed.Name() {
			continue
		}
		t := layerTarget(l, placed.Position)
		if accept(t) {
			return t, true
		}
	}
	return Target{}, false
}

func layerTarget(l platform.LayerSurface, origin tiling.Point) Target {
	return Target{Kind: KindLayer, Layer: l, Origin: origin.Add(l.Geometry().Loc())}
}

func (r *Resolver) windowTarget(e workspace.Element, origin tiling.Point) Target {
	return Target{
		Kind:   KindWindow,
		Window: e.Window,
		Origin: origin.Add(e.Location).Sub(e.Window.Geometry().Loc()),
	}
}

// popupUnder returns the topmost popup of e that accept takes. Popups stack
// directly above their parent window.
func (r *Resolver) popupUnder(e workspace.Element, origin tiling.Point, accept func(Target) bool) (Target, bool) {
	popups := r.popupsOf(e, origin)
	for i := len(popups) - 1; i >= 0; i-- {
		if accept(popups[i]) {
			return popups[i], true
		}
	}
	return Target{}, false
}

func (r *Resolver) popupsOf(e workspace.Element, origin tiling.Point) []Target {
	var out []Target
	for _, p := range r.popups {
		if p.Parent() != e.Window.ID() {
			continue
		}
		out = append(out, Target{
			Kind:   KindPopup,
			Popup:  p,
			Origin: origin.Add(e.Location).Add(p.Geometry().Loc()),
		})
	}
	return out
}

// Motion handles pointer motion to the global point p. The output under
// p becomes active. When that changes the active output, keyboard focus is
// re-evaluated, and cleared first if the new workspace is empty.
func (r *Resolver) Motion(p tiling.Point) Update {
	var u Update
	if placed, ok := r.wm.Space().OutputUnder(p); ok {
		u.OutputChanged = r.wm.SetActiveOutput(placed.Name())
	}

	if u.OutputChanged {
		if ws, ok := r.wm.ActiveWorkspace(); !ok || ws.IsEmpty() {
			u.KeyboardChanged = r.setKeyboard(nil)
		}
		u.KeyboardChanged = r.RefreshKeyboard(p) || u.KeyboardChanged
	}

	u.PointerChanged = r.refreshPointer(p)
	u.Pointer = r.pointer
	u.Keyboard = r.keyboard
	return u
}

// RefreshKeyboard re-resolves keyboard focus. It reports whether it changed.
func (r *Resolver) RefreshKeyboard(p tiling.Point) bool {
	if t, ok := r.KeyboardTarget(p); ok {
		return r.setKeyboard(&t)
	}
	return r.setKeyboard(nil)
}

// Refresh re-resolves pointer focus after a layout change. Keyboard focus
// is kept while its window stays on the active workspace, and re-resolved
// otherwise.
func (r *Resolver) Refresh(p tiling.Point) {
	if !r.keyboardVisible() {
		r.RefreshKeyboard(p)
	}
	r.refreshPointer(p)
}

func (r *Resolver) keyboardVisible() bool {
	if r.keyboard == nil {
		return false
	}
	id, ok := r.keyboard.WindowID()
	if !ok {
		return true
	}
	active, ok := r.wm.ActiveWorkspace()
	return ok && active.Contains(id)
}

// Click gives keyboard focus to the surface under p when it accepts it and
// raises the window it belongs to.
func (r *Resolver) Click(p tiling.Point) bool {
	t, ok := r.PointerTarget(p)
	if !ok || !t.AcceptsKeyboard() {
		return false
	}
	if id, ok := t.WindowID(); ok {
		r.wm.ActivateWindow(id)
	}
	return r.setKeyboard(&t)
}

// FocusWindow gives keyboard focus to a window directly.
func (r *Resolver) FocusWindow(id platform.WindowID) bool {
	ws, ok := r.wm.FindWindow(id)
	if !ok {
		return false
	}
	e, ok := ws.Find(id)
	if !ok {
		return false
	}
	t := r.windowTarget(e, r.wm.Origin(ws))
	r.setKeyboard(&t)
	return true
}

func (r *Resolver) refreshPointer(p tiling.Point) bool {
	t, ok := r.PointerTarget(p)
	if !ok {
		return r.setPointer(nil, p)
	}
	return r.setPointer(&t, p)
}

func (r *Resolver) setKeyboard(t *Target) bool {
	if Same(r.keyboard, t) {
		r.keyboard = t
		return false
	}
	r.keyboard = t
	if r.seat == nil {
		return true
	}
	if t == nil {
		r.seat.KeyboardLeave()
	} else {
		r.seat.KeyboardEnter(*t)
	}
	return true
}

func (r *Resolver) setPointer(t *Target, p tiling.Point) bool {
	if Same(r.pointer, t) {
		r.pointer = t
		if t != nil && r.seat != nil {
			r.seat.PointerMotion(t.Local(p))
		}
		return false
	}
	if r.pointer != nil && r.seat != nil {
		r.seat.PointerLeave()
	}
	r.pointer = t
	if t != nil && r.seat != nil {
		r.seat.PointerEnter(*t, t.Local(p))
	}
	return true
}

// Package workspace implements the per-workspace hybrid layout: a single
// tiling slot that fills the output and a z-ordered floating stack.
package workspace

import (
	"github.com/1broseidon/tessera/internal/platform"
	"github.com/1broseidon/tessera/internal/tiling"
)

// Element is a window with its workspace-local location.
type Element struct {
	Window   *Window
	Location tiling.Point
	Tiled    bool
}

// Geometry is the window's visible rectangle in workspace-local coordinates.
func (e Element) Geometry() tiling.Rect {
	return tiling.RectFrom(e.Location, e.Window.Geometry().Size())
}

// SurfacePoint converts a workspace-local point into the window's
// surface-local coordinates.
func (e Element) SurfacePoint(p tiling.Point) tiling.Point {
	return p.Sub(e.Location).Add(e.Window.Geometry().Loc())
}

type floating struct {
	win *Window
	loc tiling.Point
}

// Workspace holds the windows of one workspace. Coordinates are local to
// the bound output.
type Workspace struct {
	index int

	outputName string
	outputSize tiling.Size

	border   int
	fallback bool

	tiled    *Window
	floating []floating // back to front
}

// New creates an empty, output-less workspace.
func New(index, border int, floatingFallback bool) *Workspace {
	return &Workspace{index: index, border: border, fallback: floatingFallback}
}

// Index is the workspace's immutable identity.
func (ws *Workspace) Index() int { return ws.index }

// Output returns the bound output's connector name.
func (ws *Workspace) Output() (string, bool) {
	return ws.outputName, ws.outputName != ""
}

// OutputSize is the size of the bound output, or zero.
func (ws *Workspace) OutputSize() tiling.Size { return ws.outputSize }

// Border is the tiling slot inset.
func (ws *Workspace) Border() int { return ws.border }

// SetOutput binds the workspace to an output and re-lays out the tiling slot.
func (ws *Workspace) SetOutput(name string, size tiling.Size) {
	ws.outputName = name
	ws.outputSize = size
	ws.layoutTiled()
}

// ClearOutput unbinds the workspace. Windows keep their state.
func (ws *Workspace) ClearOutput() {
	ws.outputName = ""
	ws.outputSize = tiling.Size{}
}

// SetOutputSize updates the bound output's size after a mode change.
func (ws *Workspace) SetOutputSize(size tiling.Size) {
	if ws.outputSize == size {
		return
	}
	ws.outputSize = size
	ws.layoutTiled()
}

// SetBorder changes the tiling inset and resizes the tiled window.
func (ws *Workspace) SetBorder(border int) {
	if ws.border == border {
		return
	}
	ws.border = border
	ws.layoutTiled()
}

// SetFloatingFallback toggles the topmost-floating hit-test fallback.
func (ws *Workspace) SetFloatingFallback(enabled bool) {
	ws.fallback = enabled
}

// TilingArea is the rectangle the tiled window fills.
func (ws *Workspace) TilingArea() tiling.Rect {
	return tiling.RectFrom(tiling.Point{}, ws.outputSize).Inset(ws.border)
}

func (ws *Workspace) layoutTiled() {
	if ws.tiled == nil || ws.outputName == "" {
		return
	}
	ws.tiled.RequestSize(ws.TilingArea().Size(), false)
}

func (ws *Workspace) outputArea() tiling.Rect {
	return tiling.RectFrom(tiling.Point{}, ws.outputSize)
}

// centered returns the floating location for a window of the given size.
func (ws *Workspace) centered(size tiling.Size) tiling.Point {
	if ws.outputName == "" {
		return tiling.Point{}
	}
	return tiling.CenterIn(ws.outputArea(), size)
}

// AddWindow places w. Fixed-size and rule-floating windows go to the
// floating stack; other windows take the tiling slot if it is free and
// float otherwise. It reports whether the window was tiled.
func (ws *Workspace) AddWindow(w *Window) bool {
	if w.FixedSize() || w.Rules().IsFloating() || ws.tiled != nil {
		ws.pushFloating(w, ws.centered(w.Geometry().Size()))
		return false
	}
	ws.tiled = w
	ws.layoutTiled()
	return true
}

func (ws *Workspace) pushFloating(w *Window, loc tiling.Point) {
	ws.floating = append(ws.floating, floating{win: w, loc: loc})
}

// RemoveWindow takes the window out of the workspace.
func (ws *Workspace) RemoveWindow(id platform.WindowID) (*Window, bool) {
	if ws.tiled != nil && ws.tiled.ID() == id {
		w := ws.tiled
		ws.tiled = nil
		return w, true
	}
	for i, f := range ws.floating {
		if f.win.ID() == id {
			ws.floating = append(ws.floating[:i], ws.floating[i+1:]...)
			return f.win, true
		}
	}
	return nil, false
}

// Find returns the window with id and its element.
func (ws *Workspace) Find(id platform.WindowID) (Element, bool) {
	if ws.tiled != nil && ws.tiled.ID() == id {
		return ws.tiledElement(), true
	}
	for _, f := range ws.floating {
		if f.win.ID() == id {
			return Element{Window: f.win, Location: f.loc}, true
		}
	}
	return Element{}, false
}

// Contains reports membership.
func (ws *Workspace) Contains(id platform.WindowID) bool {
	_, ok := ws.Find(id)
	return ok
}

// IsTiled reports whether the window occupies the tiling slot.
func (ws *Workspace) IsTiled(id platform.WindowID) bool {
	return ws.tiled != nil && ws.tiled.ID() == id
}

// Tiled returns the tiling slot occupant.
func (ws *Workspace) Tiled() (*Window, bool) {
	return ws.tiled, ws.tiled != nil
}

func (ws *Workspace) tiledElement() Element {
	return Element{Window: ws.tiled, Location: ws.TilingArea().Loc(), Tiled: true}
}

// ToggleFloating moves a tiled window to the floating stack at 75% of the
// output size, or a floating window into a free tiling slot.
func (ws *Workspace) ToggleFloating(id platform.WindowID) bool {
	if ws.IsTiled(id) {
		w := ws.tiled
		ws.tiled = nil

		target := ws.outputSize.Scale(3, 4)
		if ws.outputName == "" {
			target = w.Geometry().Size()
		}
		target = tiling.ClampSize(target, w.MinSize(), w.MaxSize())
		w.RequestSize(target, false)
		ws.pushFloating(w, ws.centered(target))
		return true
	}

	if ws.tiled != nil {
		return false
	}
	for i, f := range ws.floating {
		if f.win.ID() != id {
			continue
		}
		ws.floating = append(ws.floating[:i], ws.floating[i+1:]...)
		ws.tiled = f.win
		ws.layoutTiled()
		return true
	}
	return false
}

// Raise moves a floating window to the top of the stack.
func (ws *Workspace) Raise(id platform.WindowID) bool {
	for i, f := range ws.floating {
		if f.win.ID() != id {
			continue
		}
		if i == len(ws.floating)-1 {
			return true
		}
		ws.floating = append(ws.floating[:i], ws.floating[i+1:]...)
		ws.floating = append(ws.floating, f)
		return true
	}
	return false
}

// SetLocation moves a floating window. Tiled windows cannot be moved.
func (ws *Workspace) SetLocation(id platform.WindowID, loc tiling.Point) bool {
	for i := range ws.floating {
		if ws.floating[i].win.ID() == id {
			ws.floating[i].loc = loc
			return true
		}
	}
	return false
}

// WindowUnder hit-tests p (workspace-local). Floating windows are checked
// topmost first, then the tiled window. When nothing is hit and the
// fallback is enabled, the topmost floating window is returned.
func (ws *Workspace) WindowUnder(p tiling.Point) (Element, bool) {
	for i := len(ws.floating) - 1; i >= 0; i-- {
		e := Element{Window: ws.floating[i].win, Location: ws.floating[i].loc}
		if e.Window.InputAt(e.SurfacePoint(p)) {
			return e, true
		}
	}
	if ws.tiled != nil {
		e := ws.tiledElement()
		if e.Window.InputAt(e.SurfacePoint(p)) {
			return e, true
		}
	}
	if ws.fallback && len(ws.floating) > 0 {
		top := ws.floating[len(ws.floating)-1]
		return Element{Window: top.win, Location: top.loc}, true
	}
	return Element{}, false
}

// Elements returns windows in render order: the tiled window, then the
// floating stack back to front.
func (ws *Workspace) Elements() []Element {
	out := make([]Element, 0, len(ws.floating)+1)
	if ws.tiled != nil {
		out = append(out, ws.tiledElement())
	}
	for _, f := range ws.floating {
		out = append(out, Element{Window: f.win, Location: f.loc})
	}
	return out
}

// Windows returns the windows in render order.
func (ws *Workspace) Windows() []*Window {
	elems := ws.Elements()
	out := make([]*Window, len(elems))
	for i, e := range elems {
		out[i] = e.Window
	}
	return out
}

// Len returns the window count.
func (ws *Workspace) Len() int {
	n := len(ws.floating)
	if ws.tiled != nil {
		n++
	}
	return n
}

// IsEmpty reports whether the workspace holds no windows.
func (ws *Workspace) IsEmpty() bool { return ws.Len() == 0 }

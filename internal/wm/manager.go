// Package wm binds workspaces to outputs and routes windows to workspaces.
package wm

import (
	"log/slog"
	"sort"

	"github.com/1broseidon/tessera/internal/config"
	"github.com/1broseidon/tessera/internal/output"
	"github.com/1broseidon/tessera/internal/platform"
	"github.com/1broseidon/tessera/internal/tiling"
	"github.com/1broseidon/tessera/internal/workspace"
)

// Manager owns the sparse workspace registry and the output bindings.
// Every placed output maps to exactly one workspace. A workspace without an
// output is kept only while it holds windows.
type Manager struct {
	cfg        *config.Config
	space      *output.Space
	workspaces map[int]*workspace.Workspace
	bindings   map[string]int
	logger     *slog.Logger
}

// Hit is the result of a global hit-test.
type Hit struct {
	workspace.Element
	Workspace *workspace.Workspace
	// Origin is the global position of the workspace's output.
	Origin tiling.Point
}

// GlobalGeometry is the hit window's rectangle in global coordinates.
func (h Hit) GlobalGeometry() tiling.Rect {
	return h.Geometry().Translate(h.Origin)
}

// New creates a manager with no outputs and no workspaces.
func New(cfg *config.Config, logger *slog.Logger) *Manager {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:        cfg,
		space:      output.NewSpace(logger),
		workspaces: make(map[int]*workspace.Workspace),
		bindings:   make(map[string]int),
		logger:     logger,
	}
}

// Space exposes the output space for read-only queries.
func (m *Manager) Space() *output.Space { return m.space }

// Config returns the configuration in use.
func (m *Manager) Config() *config.Config { return m.cfg }

// AddOutput registers a connected output and binds it to a workspace.
func (m *Manager) AddOutput(out platform.Output) output.CursorUpdate {
	upd := m.space.Add(out, m.cfg)
	m.syncBindings()
	return upd
}

// RemoveOutput unregisters an output. Its workspace is kept if it has windows.
func (m *Manager) RemoveOutput(name string) output.CursorUpdate {
	if !m.space.Connected(name) {
		m.logger.Error("output disconnected but never connected", "output", name)
		return output.CursorUpdate{}
	}
	upd := m.space.Remove(name, m.cfg)
	m.syncBindings()
	return upd
}

// ReconfigureOutput applies a mode or geometry change.
func (m *Manager) ReconfigureOutput(out platform.Output) output.CursorUpdate {
	if !m.space.Connected(out.Name) {
		m.logger.Error("output changed but never connected", "output", out.Name)
		return output.CursorUpdate{}
	}
	upd := m.space.Reconfigure(out, m.cfg)
	m.syncBindings()
	return upd
}

// ApplyConfig swaps in a new configuration: outputs are re-packed, layout
// parameters updated and every window's rules re-resolved.
func (m *Manager) ApplyConfig(cfg *config.Config) output.CursorUpdate {
	m.cfg = cfg
	table := cfg.Rules()
	for _, ws := range m.workspaces {
		ws.SetBorder(cfg.Border)
		ws.SetFloatingFallback(cfg.Focus.FloatingFallback)
		for _, w := range ws.Windows() {
			w.RecomputeRules(table)
		}
	}
	upd := m.space.Relayout(cfg)
	m.syncBindings()
	return upd
}

// syncBindings reconciles bindings with the placed outputs: stale bindings
// are dropped, sizes refreshed and unbound outputs given a workspace.
func (m *Manager) syncBindings() {
	for name, idx := range m.bindings {
		if m.space.Placed(name) {
			continue
		}
		delete(m.bindings, name)
		if ws, ok := m.workspaces[idx]; ok {
			ws.ClearOutput()
		}
	}

	for _, placed := range m.space.Outputs() {
		if idx, ok := m.bindings[placed.Name()]; ok {
			m.workspaces[idx].SetOutputSize(placed.Size())
			continue
		}
		ws := m.lowestUnbound()
		if ws == nil {
			ws = m.create(m.lowestFreeIndex())
		}
		m.bind(ws, placed)
	}
	m.collect()
}

func (m *Manager) bind(ws *workspace.Workspace, placed output.Placed) {
	m.bindings[placed.Name()] = ws.Index()
	ws.SetOutput(placed.Name(), placed.Size())
	m.logger.Debug("workspace bound", "workspace", ws.Index(), "output", placed.Name())
}

func (m *Manager) create(idx int) *workspace.Workspace {
	ws := workspace.New(idx, m.cfg.Border, m.cfg.Focus.FloatingFallback)
	m.workspaces[idx] = ws
	return ws
}

func (m *Manager) lowestUnbound() *workspace.Workspace {
	var best *workspace.Workspace
	for _, ws := range m.workspaces {
		if _, bound := ws.Output(); bound {
			continue
		}
		if best == nil || ws.Index() < best.Index() {
			best = ws
		}
	}
	return best
}

func (m *Manager) lowestFreeIndex() int {
	for i := 0; ; i++ {
		if _, ok := m.workspaces[i]; !ok {
			return i
		}
	}
}

// collect removes empty workspaces that have no output.
func (m *Manager) collect() {
	for idx, ws := range m.workspaces {
		if _, bound := ws.Output(); bound {
			continue
		}
		if ws.IsEmpty() {
			delete(m.workspaces, idx)
			m.logger.Debug("workspace removed", "workspace", idx)
		}
	}
}

// SwitchToWorkspace shows workspace idx. If it is already shown on another
// output, that output becomes active and the cursor is centered on it.
// Otherwise it replaces the workspace on the active output.
func (m *Manager) SwitchToWorkspace(idx int) output.CursorUpdate {
	active, ok := m.space.Active()
	if !ok {
		m.logger.Warn("switch to workspace without an active output", "workspace", idx)
		return output.CursorUpdate{}
	}
	current, hasCurrent := m.bindings[active.Name()]
	if hasCurrent && current == idx {
		return output.CursorUpdate{}
	}

	ws, exists := m.workspaces[idx]
	if exists {
		if name, bound := ws.Output(); bound {
			m.space.SetActive(name)
			m.collect()
			geo, _ := m.space.Geometry(name)
			return output.Absolute(geo.Center())
		}
	} else {
		ws = m.create(idx)
	}

	if hasCurrent {
		if prev, ok := m.workspaces[current]; ok {
			prev.ClearOutput()
		}
	}
	m.bind(ws, active)
	m.collect()
	return output.CursorUpdate{}
}

// SetActiveOutput marks an output active, typically after pointer motion.
// It reports whether the active output changed.
func (m *Manager) SetActiveOutput(name string) bool {
	if cur, ok := m.space.Active(); ok && cur.Name() == name {
		return false
	}
	return m.space.SetActive(name)
}

// ActiveWorkspace returns the workspace on the active output.
func (m *Manager) ActiveWorkspace() (*workspace.Workspace, bool) {
	active, ok := m.space.Active()
	if !ok {
		return nil, false
	}
	return m.WorkspaceOn(active.Name())
}

// WorkspaceOn returns the workspace bound to an output.
func (m *Manager) WorkspaceOn(outputName string) (*workspace.Workspace, bool) {
	idx, ok := m.bindings[outputName]
	if !ok {
		return nil, false
	}
	ws, ok := m.workspaces[idx]
	return ws, ok
}

// Workspace returns a workspace by index.
func (m *Manager) Workspace(idx int) (*workspace.Workspace, bool) {
	ws, ok := m.workspaces[idx]
	return ws, ok
}

// Workspaces returns all workspaces ordered by index.
func (m *Manager) Workspaces() []*workspace.Workspace {
	out := make([]*workspace.Workspace, 0, len(m.workspaces))
	for _, ws := range m.workspaces {
		out = append(out, ws)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index() < out[j].Index() })
	return out
}

// Origin is the global position of a workspace's output, or zero when unbound.
func (m *Manager) Origin(ws *workspace.Workspace) tiling.Point {
	name, ok := ws.Output()
	if !ok {
		return tiling.Point{}
	}
	geo, ok := m.space.Geometry(name)
	if !ok {
		return tiling.Point{}
	}
	return geo.Loc()
}

// AddWindow places a newly mapped window on the workspace of the output
// under pointer, falling back to the active workspace, then the lowest
// existing workspace, then a new workspace 0. It returns the workspace.
func (m *Manager) AddWindow(w *workspace.Window, pointer *tiling.Point) *workspace.Workspace {
	if _, ok := m.FindWindow(w.ID()); ok {
		m.logger.Error("window mapped twice", "window", w.ID())
		return nil
	}

	var target *workspace.Workspace
	if pointer != nil {
		if placed, ok := m.space.OutputUnder(*pointer); ok {
			target, _ = m.WorkspaceOn(placed.Name())
		}
	}
	if target == nil {
		target, _ = m.ActiveWorkspace()
	}
	if target == nil {
		if all := m.Workspaces(); len(all) > 0 {
			target = all[0]
		}
	}
	if target == nil {
		target = m.create(0)
	}
	target.AddWindow(w)
	return target
}

// FindWindow locates the workspace holding a window.
func (m *Manager) FindWindow(id platform.WindowID) (*workspace.Workspace, bool) {
	for _, ws := range m.workspaces {
		if ws.Contains(id) {
			return ws, true
		}
	}
	return nil, false
}

// Window returns the wrapped window for id.
func (m *Manager) Window(id platform.WindowID) (*workspace.Window, bool) {
	ws, ok := m.FindWindow(id)
	if !ok {
		return nil, false
	}
	e, _ := ws.Find(id)
	return e.Window, true
}

// RemoveWindow takes a window out of its workspace. An output-less
// workspace left empty is removed.
func (m *Manager) RemoveWindow(id platform.WindowID) (*workspace.Window, bool) {
	ws, ok := m.FindWindow(id)
	if !ok {
		return nil, false
	}
	w, _ := ws.RemoveWindow(id)
	m.collect()
	return w, true
}

// ActivateWindow raises a window within its workspace.
func (m *Manager) ActivateWindow(id platform.WindowID) bool {
	ws, ok := m.FindWindow(id)
	if !ok {
		return false
	}
	ws.Raise(id)
	return true
}

// ToggleFloating flips a window between the tiling slot and the floating stack.
func (m *Manager) ToggleFloating(id platform.WindowID) bool {
	ws, ok := m.FindWindow(id)
	if !ok {
		return false
	}
	return ws.ToggleFloating(id)
}

// WindowLocation returns a window's global location.
func (m *Manager) WindowLocation(id platform.WindowID) (tiling.Point, bool) {
	ws, ok := m.FindWindow(id)
	if !ok {
		return tiling.Point{}, false
	}
	e, _ := ws.Find(id)
	return e.Location.Add(m.Origin(ws)), true
}

// SetWindowLocation moves a floating window to a global location.
func (m *Manager) SetWindowLocation(id platform.WindowID, global tiling.Point) bool {
	ws, ok := m.FindWindow(id)
	if !ok {
		return false
	}
	return ws.SetLocation(id, global.Sub(m.Origin(ws)))
}

// IsFloating reports whether the window sits in a floating stack.
func (m *Manager) IsFloating(id platform.WindowID) bool {
	ws, ok := m.FindWindow(id)
	return ok && !ws.IsTiled(id)
}

// WindowUnder hit-tests a global point against the workspace of the
// output under it.
func (m *Manager) WindowUnder(p tiling.Point) (Hit, bool) {
	placed, ok := m.space.OutputUnder(p)
	if !ok {
		return Hit{}, false
	}
	ws, ok := m.WorkspaceOn(placed.Name())
	if !ok {
		return Hit{}, false
	}
	e, ok := ws.WindowUnder(p.Sub(placed.Position))
	if !ok {
		return Hit{}, false
	}
	return Hit{Element: e, Workspace: ws, Origin: placed.Position}, true
}

package workspace

import (
	"github.com/1broseidon/tessera/internal/platform"
	"github.com/1broseidon/tessera/internal/rules"
	"github.com/1broseidon/tessera/internal/tiling"
)

// Phase is the state of an interactive resize on a window.
type Phase int

const (
	// PhaseResizing means the grab is held and sizes are being requested.
	PhaseResizing Phase = iota + 1
	// PhaseWaitingForCommit means the grab was released and the final size
	// has been requested but not yet realized by a new buffer.
	PhaseWaitingForCommit
)

// String returns the string representation of the phase
func (p Phase) String() string {
	switch p {
	case PhaseResizing:
		return "resizing"
	case PhaseWaitingForCommit:
		return "waiting-for-commit"
	default:
		return "unknown"
	}
}

// ResizeState is the per-window resize transaction.
type ResizeState struct {
	Phase           Phase
	Edges           tiling.Edges
	InitialLocation tiling.Point
	InitialSize     tiling.Size
}

// AnchoredLocation returns where the window must sit for the edges opposite
// the grabbed ones to stay fixed at the given realized size.
func (s ResizeState) AnchoredLocation(realized tiling.Size) tiling.Point {
	loc := s.InitialLocation
	if s.Edges.Has(tiling.EdgeLeft) {
		loc.X = s.InitialLocation.X + (s.InitialSize.Width - realized.Width)
	}
	if s.Edges.Has(tiling.EdgeTop) {
		loc.Y = s.InitialLocation.Y + (s.InitialSize.Height - realized.Height)
	}
	return loc
}

// Window wraps a protocol window with layout-side state.
type Window struct {
	platform.Window

	rules  rules.Snapshot
	resize *ResizeState
}

// NewWindow wraps w and resolves its rules against table.
func NewWindow(w platform.Window, table *rules.Table) *Window {
	win := &Window{Window: w}
	win.rules.Recompute(table, w.AppID(), w.Title())
	return win
}

// Rules returns the current resolved overrides. Safe for concurrent readers.
func (w *Window) Rules() rules.Resolved {
	return w.rules.Load()
}

// RecomputeRules re-resolves the window's identity against table. It is
// called when the app-id or title changes and on configuration reload.
func (w *Window) RecomputeRules(table *rules.Table) rules.Resolved {
	return w.rules.Recompute(table, w.AppID(), w.Title())
}

// FixedSize reports whether the client pins its size (min == max, non-zero).
func (w *Window) FixedSize() bool {
	min, max := w.MinSize(), w.MaxSize()
	return min.Width > 0 && min.Height > 0 && min == max
}

// Resize returns the in-flight resize transaction, or nil.
func (w *Window) Resize() *ResizeState {
	return w.resize
}

// SetResize installs a resize transaction.
func (w *Window) SetResize(s *ResizeState) {
	w.resize = s
}

// ClearResize drops any resize transaction.
func (w *Window) ClearResize() {
	w.resize = nil
}

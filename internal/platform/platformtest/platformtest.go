// Package platformtest provides in-memory implementations of the platform
// collaborator interfaces for tests.
package platformtest

import (
	"github.com/1broseidon/tessera/internal/platform"
	"github.com/1broseidon/tessera/internal/tiling"
)

// SizeRequest records one RequestSize call.
type SizeRequest struct {
	Size     tiling.Size
	Resizing bool
}

// Window is a scriptable platform.Window. Requested sizes are recorded and
// only take effect on Commit, like a real client acknowledging a configure.
type Window struct {
	WindowID platform.WindowID
	App      string
	Name     string
	Geo      tiling.Rect
	Min      tiling.Size
	Max      tiling.Size
	Requests []SizeRequest
	Closed   bool
	// Input overrides the input region; nil means the whole geometry.
	Input func(p tiling.Point) bool
}

var _ platform.Window = (*Window)(nil)

// NewWindow returns a resizable window of the given size.
func NewWindow(id platform.WindowID, appID string, size tiling.Size) *Window {
	return &Window{WindowID: id, App: appID, Geo: tiling.RectFrom(tiling.Point{}, size)}
}

func (w *Window) ID() platform.WindowID { return w.WindowID }
func (w *Window) AppID() string { return w.App }
func (w *Window) Title() string { return w.Name }
func (w *Window) Geometry() tiling.Rect { return w.Geo }
func (w *Window) MinSize() tiling.Size { return w.Min }
func (w *Window) MaxSize() tiling.Size { return w.Max }
func (w *Window) Close() { w.Closed = true }

func (w *Window) RequestSize(size tiling.Size, resizing bool) {
	w.Requests = append(w.Requests, SizeRequest{Size: size, Resizing: resizing})
}

func (w *Window) InputAt(p tiling.Point) bool {
	if w.Input != nil {
		return w.Input(p)
	}
	return w.Geo.Contains(p)
}

// LastRequest returns the most recent size request.
func (w *Window) LastRequest() (SizeRequest, bool) {
	if len(w.Requests) == 0 {
		return SizeRequest{}, false
	}
	return w.Requests[len(w.Requests)-1], true
}

// Commit realizes the most recent requested size.
func (w *Window) Commit() {
	if req, ok := w.LastRequest(); ok {
		w.CommitSize(req.Size)
	}
}

// CommitSize realizes an arbitrary size, as a client that ignored the request would.
func (w *Window) CommitSize(size tiling.Size) {
	w.Geo.Width = size.Width
	w.Geo.Height = size.Height
}

// Layer is a scriptable platform.LayerSurface.
type Layer struct {
	SurfaceID   platform.SurfaceID
	Space       string
	Level       platform.Layer
	OutputName  string
	Geo         tiling.Rect
	Interactive bool
}

var _ platform.LayerSurface = (*Layer)(nil)

func (l *Layer) ID() platform.SurfaceID { return l.SurfaceID }
func (l *Layer) Namespace() string { return l.Space }
func (l *Layer) Layer() platform.Layer { return l.Level }
func (l *Layer) Output() string { return l.OutputName }
func (l *Layer) Geometry() tiling.Rect { return l.Geo }
func (l *Layer) KeyboardInteractive() bool { return l.Interactive }
func (l *Layer) InputAt(p tiling.Point) bool { return tiling.RectFrom(tiling.Point{}, l.Geo.Size()).Contains(p) }

// Popup is a scriptable platform.Popup.
type Popup struct {
	SurfaceID platform.SurfaceID
	ParentID  platform.WindowID
	Geo       tiling.Rect
	Grabbing  bool
}

var _ platform.Popup = (*Popup)(nil)

func (p *Popup) ID() platform.SurfaceID { return p.SurfaceID }
func (p *Popup) Parent() platform.WindowID { return p.ParentID }
func (p *Popup) Geometry() tiling.Rect { return p.Geo }
func (p *Popup) Grab() bool { return p.Grabbing }
func (p *Popup) InputAt(q tiling.Point) bool { return tiling.RectFrom(tiling.Point{}, p.Geo.Size()).Contains(q) }

// Backend is a static platform.Backend.
type Backend struct {
	List    []platform.Output
	Err     error
	Redraws int
}

var _ platform.Backend = (*Backend)(nil)

func (b *Backend) Outputs() ([]platform.Output, error) {
	if b.Err != nil {
		return nil, b.Err
	}
	return append([]platform.Output(nil), b.List...), nil
}

func (b *Backend) RequestRedraw() { b.Redraws++ }

// Output returns an enabled output with a single mode.
func Output(name string, w, h int) platform.Output {
	mode := platform.Mode{Width: w, Height: h, Refresh: 60000}
	return platform.Output{Name: name, Mode: mode, Modes: []platform.Mode{mode}, Enabled: true}
}

package platform

import (
	"strings"

	"github.com/1broseidon/tessera/internal/tiling"
)

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// SurfaceID identifies a non-window surface (layer surface or popup).
type SurfaceID uint32

// Mode is a display mode advertised by an output.
type Mode struct {
	Width   int
	Height  int
	Refresh int // mHz
}

// Size returns the mode dimensions.
func (m Mode) Size() tiling.Size {
	return tiling.Size{Width: m.Width, Height: m.Height}
}

// Output describes a physical display sink as reported by the backend.
// Name is the connector identity and is stable across reconnects.
type Output struct {
	Name    string
	Make    string
	Model   string
	Modes   []Mode
	Mode    Mode
	Enabled bool
}

// Size is the pixel size of the current mode.
func (o Output) Size() tiling.Size {
	return o.Mode.Size()
}

// Builtin reports whether the connector is an internal panel.
func (o Output) Builtin() bool {
	for _, prefix := range []string{"eDP", "LVDS", "DSI"} {
		if strings.HasPrefix(o.Name, prefix) {
			return true
		}
	}
	return false
}

// PreferredMode returns the mode matching want, or the first advertised mode,
// or the current mode when nothing is advertised.
func (o Output) PreferredMode(want Mode) Mode {
	for _, m := range o.Modes {
		if m.Width == want.Width && m.Height == want.Height && (want.Refresh == 0 || m.Refresh == want.Refresh) {
			return m
		}
	}
	if len(o.Modes) > 0 && o.Mode == (Mode{}) {
		return o.Modes[0]
	}
	return o.Mode
}

// Window is a mapped client window as seen by the layout engine.
type Window interface {
	ID() WindowID
	AppID() string
	Title() string
	// Geometry is the visible window geometry in surface-local coordinates.
	// Its origin is the offset of the content from the surface origin.
	Geometry() tiling.Rect
	MinSize() tiling.Size
	// MaxSize uses zero components for "unbounded".
	MaxSize() tiling.Size
	// RequestSize asks the client to resize. It is a one-way request.
	RequestSize(size tiling.Size, resizing bool)
	Close()
	// InputAt reports whether the surface-local point is inside the input region.
	InputAt(p tiling.Point) bool
}

// Layer is one of the four stacking layers for layer surfaces.
type Layer int

const (
	LayerBackground Layer = iota
	LayerBottom
	LayerTop
	LayerOverlay
)

func (l Layer) String() string {
	switch l {
	case LayerBackground:
		return "background"
	case LayerBottom:
		return "bottom"
	case LayerTop:
		return "top"
	case LayerOverlay:
		return "overlay"
	default:
		return "unknown"
	}
}

// LayerSurface is a panel, wallpaper, or overlay anchored to an output.
type LayerSurface interface {
	ID() SurfaceID
	Namespace() string
	Layer() Layer
	// Output is the connector name the surface is placed on.
	Output() string
	// Geometry is the surface rectangle in output-local coordinates.
	Geometry() tiling.Rect
	KeyboardInteractive() bool
	InputAt(p tiling.Point) bool
}

// Popup is a transient surface parented to a window.
type Popup interface {
	ID() SurfaceID
	Parent() WindowID
	// Geometry is relative to the parent window's geometry origin.
	Geometry() tiling.Rect
	// Grab reports whether the popup holds an explicit keyboard grab.
	Grab() bool
	InputAt(p tiling.Point) bool
}

// Backend abstracts the display backend the layout engine reads outputs from.
type Backend interface {
	Outputs() ([]Output, error)
	RequestRedraw()
}

// PointerWarper is implemented by backends that can move the cursor.
type PointerWarper interface {
	WarpPointer(p tiling.Point)
}

// Package focus resolves keyboard and pointer focus across layer surfaces,
// popups and the active workspace's windows.
package focus

import (
	"fmt"

	"github.com/1broseidon/tessera/internal/platform"
	"github.com/1broseidon/tessera/internal/tiling"
	"github.com/1broseidon/tessera/internal/workspace"
)

// Kind tags the variant held by a Target.
type Kind int

const (
	KindLayer Kind = iota + 1
	KindWindow
	KindPopup
)

func (k Kind) String() string {
	switch k {
	case KindLayer:
		return "layer"
	case KindWindow:
		return "window"
	case KindPopup:
		return "popup"
	default:
		return "unknown"
	}
}

// Target is a focusable surface. Exactly one of Layer, Window or Popup is
// set, as named by Kind.
type Target struct {
	Kind   Kind
	Layer  platform.LayerSurface
	Window *workspace.Window
	Popup  platform.Popup
	// Origin is the global position of the surface's local (0,0).
	Origin tiling.Point
}

type capabilities struct {
	keyboard func(Target) bool
	pointer  func(Target) bool
	hit      func(Target, tiling.Point) bool
}

func always(Target) bool { return true }

var capabilityTable = map[Kind]capabilities{
	KindLayer: {
		keyboard: func(t Target) bool { return t.Layer.KeyboardInteractive() },
		pointer:  always,
		hit:      func(t Target, local tiling.Point) bool { return t.Layer.InputAt(local) },
	},
	KindWindow: {
		keyboard: always,
		pointer:  always,
		hit:      func(t Target, local tiling.Point) bool { return t.Window.InputAt(local) },
	},
	KindPopup: {
		keyboard: func(t Target) bool { return t.Popup.Grab() },
		pointer:  always,
		hit:      func(t Target, local tiling.Point) bool { return t.Popup.InputAt(local) },
	},
}

// AcceptsKeyboard reports whether the surface wants keyboard focus.
func (t Target) AcceptsKeyboard() bool { return capabilityTable[t.Kind].keyboard(t) }

// AcceptsPointer reports whether the surface wants pointer focus.
func (t Target) AcceptsPointer() bool { return capabilityTable[t.Kind].pointer(t) }

// Hit reports whether the global point falls inside the input region.
func (t Target) Hit(p tiling.Point) bool { return capabilityTable[t.Kind].hit(t, t.Local(p)) }

// Local converts a global point to surface-local coordinates.
func (t Target) Local(p tiling.Point) tiling.Point { return p.Sub(t.Origin) }

// Key identifies the surface independent of its position.
func (t Target) Key() string {
	switch t.Kind {
	case KindLayer:
		return fmt.Sprintf("layer:%d", t.Layer.ID())
	case KindWindow:
		return fmt.Sprintf("window:%d", t.Window.ID())
	case KindPopup:
		return fmt.Sprintf("popup:%d", t.Popup.ID())
	default:
		return ""
	}
}

// Same reports whether a and b name the same surface. Nil targets are equal
// only to each other.
func Same(a, b *Target) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Key() == b.Key()
}

// WindowID returns the window the target belongs to: the window itself or
// the popup's parent.
func (t Target) WindowID() (platform.WindowID, bool) {
	switch t.Kind {
	case KindWindow:
		return t.Window.ID(), true
	case KindPopup:
		return t.Popup.Parent(), true
	default:
		return 0, false
	}
}

package compositor

import (
	"github.com/1broseidon/tessera/internal/config"
	"github.com/1broseidon/tessera/internal/platform"
	"github.com/1broseidon/tessera/internal/tiling"
)

// Event is an input to the compositor loop. The set is closed.
type Event interface {
	isEvent()
}

// OutputConnected reports a new output from the backend.
type OutputConnected struct{ Output platform.Output }

// OutputDisconnected reports an output going away.
type OutputDisconnected struct{ Name string }

// OutputChanged reports a mode or enablement change.
type OutputChanged struct{ Output platform.Output }

// OutputsSnapshot is the full output list as polled from the backend. The
// loop diffs it against the known outputs.
type OutputsSnapshot struct{ Outputs []platform.Output }

// WindowMapped reports a window that produced its first buffer.
type WindowMapped struct{ Window platform.Window }

// WindowDestroyed reports an unmapped or destroyed window.
type WindowDestroyed struct{ ID platform.WindowID }

// IdentityChanged reports a new app-id or title.
type IdentityChanged struct{ ID platform.WindowID }

// SurfaceCommitted reports a new buffer from a window.
type SurfaceCommitted struct{ ID platform.WindowID }

// LayerAdded reports a new layer surface.
type LayerAdded struct{ Surface platform.LayerSurface }

// LayerRemoved reports a destroyed layer surface.
type LayerRemoved struct{ ID platform.SurfaceID }

// PopupAdded reports a new popup.
type PopupAdded struct{ Popup platform.Popup }

// PopupRemoved reports a dismissed popup.
type PopupRemoved struct{ ID platform.SurfaceID }

// PointerMotion moves the pointer to an absolute global position.
type PointerMotion struct{ Location tiling.Point }

// PointerButton reports a button press or release.
type PointerButton struct {
	Button  uint32
	Serial  uint32
	Pressed bool
}

// KeyBinding reports a pressed key combination, e.g. "Mod4-Return".
type KeyBinding struct{ Key string }

// MoveRequest is a client asking for an interactive move.
type MoveRequest struct {
	Window platform.WindowID
	Serial uint32
}

// ResizeRequest is a client asking for an interactive resize.
type ResizeRequest struct {
	Window platform.WindowID
	Serial uint32
	Edges  tiling.Edges
}

// ConfigReloaded carries a validated configuration snapshot.
type ConfigReloaded struct {
	Config *config.Config
	Path   string
}

// IPCRequest runs fn on the loop and closes done afterwards.
type IPCRequest struct {
	fn   func(*Compositor)
	done chan struct{}
}

// SessionActive pauses or resumes output handling.
type SessionActive struct{ Active bool }

func (OutputConnected) isEvent() {}
func (OutputDisconnected) isEvent() {}
func (OutputChanged) isEvent() {}
func (OutputsSnapshot) isEvent() {}
func (WindowMapped) isEvent() {}
func (WindowDestroyed) isEvent() {}
func (IdentityChanged) isEvent() {}
func (SurfaceCommitted) isEvent() {}
func (LayerAdded) isEvent() {}
func (LayerRemoved) isEvent() {}
func (PopupAdded) isEvent() {}
func (PopupRemoved) isEvent() {}
func (PointerMotion) isEvent() {}
func (PointerButton) isEvent() {}
func (KeyBinding) isEvent() {}
func (MoveRequest) isEvent() {}
func (ResizeRequest) isEvent() {}
func (ConfigReloaded) isEvent() {}
func (IPCRequest) isEvent() {}
func (SessionActive) isEvent() {}

package compositor

import (
	"fmt"

	"github.com/1broseidon/tessera/internal/action"
	"github.com/1broseidon/tessera/internal/ipc"
)

// dispatch runs an action on the loop. Actions that need a focused window
// are no-ops without one.
func (c *Compositor) dispatch(a action.Action) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ipc.ErrInvalidRequest, err)
	}
	c.logger.Debug("dispatch", "action", a.String())

	switch a.Kind {
	case action.Quit:
		c.quitting = true
		return nil

	case action.CloseFocused:
		id, ok := c.focus.FocusedWindow()
		if !ok {
			return nil
		}
		if w, ok := c.wm.Window(id); ok {
			w.Close()
		}
		return nil

	case action.SwitchToWorkspace:
		c.applyCursor(c.wm.SwitchToWorkspace(a.Workspace))
		c.focus.Refresh(c.pointer)
		c.backend.RequestRedraw()
		return nil

	case action.Spawn:
		if c.spawner == nil {
			return fmt.Errorf("spawn %q: no spawner configured", a.Command[0])
		}
		return c.spawner.Spawn(a.Command)

	case action.ToggleFloating:
		id, ok := c.focus.FocusedWindow()
		if !ok {
			return nil
		}
		if !c.wm.ToggleFloating(id) {
			return nil
		}
		c.focus.Refresh(c.pointer)
		c.backend.RequestRedraw()
		return nil
	}
	return fmt.Errorf("%w: unknown action %q", ipc.ErrInvalidRequest, a.Kind)
}

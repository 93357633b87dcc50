package compositor

import (
	"context"
	"fmt"
	"time"

	"github.com/1broseidon/tessera/internal/action"
	"github.com/1broseidon/tessera/internal/ipc"
)

var _ ipc.Handler = (*Compositor)(nil)

// Dispatch implements ipc.Handler.
func (c *Compositor) Dispatch(ctx context.Context, a action.Action) error {
	var err error
	if callErr := c.call(ctx, func(c *Compositor) { err = c.dispatch(a) }); callErr != nil {
		return callErr
	}
	return err
}

// ListWorkspaces implements ipc.Handler.
func (c *Compositor) ListWorkspaces(ctx context.Context) ([]ipc.WorkspaceInfo, error) {
	var out []ipc.WorkspaceInfo
	err := c.call(ctx, func(c *Compositor) { out = c.workspaceInfo() })
	return out, err
}

// ListOutputs implements ipc.Handler.
func (c *Compositor) ListOutputs(ctx context.Context) ([]ipc.OutputInfo, error) {
	var out []ipc.OutputInfo
	err := c.call(ctx, func(c *Compositor) { out = c.outputInfo() })
	return out, err
}

// Status implements ipc.Handler.
func (c *Compositor) Status(ctx context.Context) (ipc.StatusData, error) {
	var out ipc.StatusData
	err := c.call(ctx, func(c *Compositor) { out = c.status() })
	return out, err
}

// Reload implements ipc.Handler. The file is read on the caller's
// goroutine; only the validated snapshot enters the loop. On failure the
// running configuration is kept.
func (c *Compositor) Reload(ctx context.Context) error {
	if c.load == nil {
		return fmt.Errorf("%w: no configuration loader", ipc.ErrConfigUnreadable)
	}
	res, err := c.load()
	if err != nil {
		c.logger.Warn("configuration reload failed; keeping previous configuration", "error", err)
		return fmt.Errorf("%w: %v", ipc.ErrConfigUnreadable, err)
	}
	return c.call(ctx, func(c *Compositor) {
		c.Handle(ConfigReloaded{Config: res.Config, Path: res.Path})
	})
}

// WatchReloads reloads configuration whenever a path arrives on changes.
func (c *Compositor) WatchReloads(ctx context.Context, changes <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-changes:
			c.logger.Info("configuration changed on disk", "path", path)
			_ = c.Reload(ctx)
		}
	}
}

func (c *Compositor) workspaceInfo() []ipc.WorkspaceInfo {
	active, hasActive := c.wm.ActiveWorkspace()
	var out []ipc.WorkspaceInfo
	for _, ws := range c.wm.Workspaces() {
		info := ipc.WorkspaceInfo{
			Index:   ws.Index(),
			Active:  hasActive && ws == active,
			Windows: []ipc.WindowInfo{},
		}
		if name, ok := ws.Output(); ok {
			info.Output = name
		}
		for _, e := range ws.Elements() {
			info.Windows = append(info.Windows, ipc.WindowInfo{
				AppID:    e.Window.AppID(),
				Title:    e.Window.Title(),
				Floating: !e.Tiled,
			})
		}
		out = append(out, info)
	}
	return out
}

func (c *Compositor) outputInfo() []ipc.OutputInfo {
	space := c.wm.Space()
	active, _ := space.Active()
	var out []ipc.OutputInfo
	for _, o := range space.ConnectedOutputs() {
		info := ipc.OutputInfo{
			Name:    o.Name,
			Make:    o.Make,
			Model:   o.Model,
			Enabled: o.Enabled && c.cfg.Output(o.Name).Enabled,
			Width:   o.Mode.Width,
			Height:  o.Mode.Height,
			Refresh: o.Mode.Refresh,
		}
		if placed, ok := space.Lookup(o.Name); ok {
			info.Placed = true
			info.X, info.Y = placed.Position.X, placed.Position.Y
			info.Width, info.Height = placed.Mode.Width, placed.Mode.Height
			info.Refresh = placed.Mode.Refresh
			info.Active = placed.Name() == active.Name()
			if ws, ok := c.wm.WorkspaceOn(o.Name); ok {
				idx := ws.Index()
				info.Workspace = &idx
			}
		}
		out = append(out, info)
	}
	return out
}

func (c *Compositor) status() ipc.StatusData {
	data := ipc.StatusData{
		SessionID:     c.sessionID,
		UptimeSeconds: int64(time.Since(c.started).Seconds()),
		SessionActive: c.sessionActive,
		ConfigPath:    c.configPath,
	}
	if active, ok := c.wm.Space().Active(); ok {
		data.ActiveOutput = active.Name()
	}
	if ws, ok := c.wm.ActiveWorkspace(); ok {
		idx := ws.Index()
		data.ActiveWorkspace = &idx
	}
	for _, ws := range c.wm.Workspaces() {
		data.Workspaces++
		data.Windows += ws.Len()
	}
	if t, ok := c.focus.Keyboard(); ok {
		data.FocusedWindow = t.Key()
	}
	return data
}

package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
)

// ModeInfo is a RandR mode advertised by an output.
type ModeInfo struct {
	Width   int
	Height  int
	Refresh int // mHz
}

// OutputInfo describes a connected RandR output.
type OutputInfo struct {
	Name    string
	Modes   []ModeInfo
	Current ModeInfo
	Active  bool
}

// Outputs lists connected RandR outputs. An output without a CRTC is
// connected but inactive.
func (c *Connection) Outputs() ([]OutputInfo, error) {
	conn := c.XUtil.Conn()
	resources, err := randr.GetScreenResources(conn, c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	modes := make(map[uint32]ModeInfo, len(resources.Modes))
	for _, m := range resources.Modes {
		modes[m.Id] = ModeInfo{
			Width:   int(m.Width),
			Height:  int(m.Height),
			Refresh: refreshMilliHz(m),
		}
	}

	var out []OutputInfo
	for _, id := range resources.Outputs {
		info, err := randr.GetOutputInfo(conn, id, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		if info.Connection != randr.ConnectionConnected {
			continue
		}

		o := OutputInfo{Name: string(info.Name)}
		for _, mid := range info.Modes {
			if m, ok := modes[uint32(mid)]; ok {
				o.Modes = append(o.Modes, m)
			}
		}

		if info.Crtc != 0 {
			crtc, err := randr.GetCrtcInfo(conn, info.Crtc, resources.ConfigTimestamp).Reply()
			if err == nil && crtc.Width > 0 && crtc.Height > 0 {
				o.Active = true
				o.Current = modes[uint32(crtc.Mode)]
				if o.Current.Width == 0 {
					o.Current = ModeInfo{Width: int(crtc.Width), Height: int(crtc.Height)}
				}
			}
		}
		out = append(out, o)
	}
	return out, nil
}

// Pointer returns the pointer position relative to the root window.
func (c *Connection) Pointer() (x, y int, err error) {
	reply, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return 0, 0, fmt.Errorf("query pointer: %w", err)
	}
	return int(reply.RootX), int(reply.RootY), nil
}

// WarpPointer moves the pointer to root coordinates (x, y).
func (c *Connection) WarpPointer(x, y int) error {
	err := xproto.WarpPointerChecked(c.XUtil.Conn(), xproto.WindowNone, c.Root, 0, 0, 0, 0, int16(x), int16(y)).Check()
	if err != nil {
		return fmt.Errorf("warp pointer: %w", err)
	}
	return nil
}

func refreshMilliHz(m randr.ModeInfo) int {
	if m.Htotal == 0 || m.Vtotal == 0 {
		return 0
	}
	return int(uint64(m.DotClock) * 1000 / (uint64(m.Htotal) * uint64(m.Vtotal)))
}

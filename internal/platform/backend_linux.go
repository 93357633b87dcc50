//go:build linux

package platform

import (
	"fmt"
	"sort"

	"github.com/1broseidon/tessera/internal/tiling"
	"github.com/1broseidon/tessera/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// LinuxBackend reads outputs from an X11 server through RandR. It is used
// when the engine runs nested inside an X session.
type LinuxBackend struct {
	conn   *x11.Connection
	redraw func()
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{conn: conn}
}

// NewLinuxBackendFromDisplay creates a new Linux backend by opening a fresh X11 connection.
func NewLinuxBackendFromDisplay() (*LinuxBackend, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &LinuxBackend{conn: conn}, nil
}

// OnRedraw installs the callback invoked by RequestRedraw.
func (b *LinuxBackend) OnRedraw(fn func()) {
	b.redraw = fn
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// RootWindow returns the X11 root window ID.
func (b *LinuxBackend) RootWindow() xproto.Window {
	if b == nil || b.conn == nil {
		return 0
	}
	return b.conn.Root
}

// Connection exposes the X11 connection for the key binding handler.
func (b *LinuxBackend) Connection() *x11.Connection {
	return b.conn
}

// Outputs returns all connected outputs sorted by connector name.
func (b *LinuxBackend) Outputs() ([]Output, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend not connected")
	}
	infos, err := b.conn.Outputs()
	if err != nil {
		return nil, err
	}

	outputs := make([]Output, 0, len(infos))
	for _, info := range infos {
		o := Output{
			Name:    info.Name,
			Mode:    Mode(info.Current),
			Enabled: info.Active,
		}
		for _, m := range info.Modes {
			o.Modes = append(o.Modes, Mode(m))
		}
		outputs = append(outputs, o)
	}
	sort.Slice(outputs, func(i, j int) bool { return outputs[i].Name < outputs[j].Name })
	return outputs, nil
}

// Pointer returns the current pointer position in root coordinates.
func (b *LinuxBackend) Pointer() (tiling.Point, error) {
	x, y, err := b.conn.Pointer()
	if err != nil {
		return tiling.Point{}, err
	}
	return tiling.Point{X: x, Y: y}, nil
}

// WarpPointer moves the X pointer. Failures are ignored; the next motion
// event resynchronizes the compositor's pointer position.
func (b *LinuxBackend) WarpPointer(p tiling.Point) {
	_ = b.conn.WarpPointer(p.X, p.Y)
}

// RequestRedraw forwards to the installed redraw callback. The X server owns
// presentation, so without a callback this is a no-op.
func (b *LinuxBackend) RequestRedraw() {
	if b.redraw != nil {
		b.redraw()
	}
}

package compositor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/1broseidon/tessera/internal/action"
	"github.com/1broseidon/tessera/internal/config"
	"github.com/1broseidon/tessera/internal/grab"
	"github.com/1broseidon/tessera/internal/ipc"
	"github.com/1broseidon/tessera/internal/platform"
	"github.com/1broseidon/tessera/internal/platform/platformtest"
	"github.com/1broseidon/tessera/internal/tiling"
)

const leftButton = 0x110

type recordingSpawner struct {
	argv [][]string
}

func (s *recordingSpawner) Spawn(argv []string) error {
	s.argv = append(s.argv, argv)
	return nil
}

type fixture struct {
	c       *Compositor
	backend *platformtest.Backend
	spawner *recordingSpawner
}

func newFixture(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	backend := &platformtest.Backend{}
	spawner := &recordingSpawner{}
	c, err := New(Options{Config: cfg, Backend: backend, Spawner: spawner, SessionID: "test"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &fixture{c: c, backend: backend, spawner: spawner}
}

func (f *fixture) dispatch(t *testing.T, a action.Action) {
	t.Helper()
	if err := f.c.dispatch(a); err != nil {
		t.Fatalf("dispatch %s: %v", a, err)
	}
}

func (f *fixture) location(t *testing.T, id platform.WindowID) tiling.Point {
	t.Helper()
	loc, ok := f.c.Manager().WindowLocation(id)
	if !ok {
		t.Fatalf("window %d not in layout", id)
	}
	return loc
}

// mapTwo connects DP-1 and maps a tiled window 1 and a floating 800x600
// window 2, as a session would after launching two terminals.
func (f *fixture) mapTwo(t *testing.T) (*platformtest.Window, *platformtest.Window) {
	t.Helper()
	f.c.Handle(OutputConnected{Output: platformtest.Output("DP-1", 1920, 1080)})
	if p := f.c.Pointer(); p != (tiling.Point{X: 960, Y: 540}) {
		t.Fatalf("pointer not centered on first output: %v", p)
	}

	a := platformtest.NewWindow(1, "foot", tiling.Size{Width: 640, Height: 480})
	f.c.Handle(WindowMapped{Window: a})
	a.Commit()
	f.c.Handle(SurfaceCommitted{ID: 1})

	b := platformtest.NewWindow(2, "foot", tiling.Size{Width: 800, Height: 600})
	f.c.Handle(WindowMapped{Window: b})
	return a, b
}

func TestEndToEndLayoutThroughDispatch(t *testing.T) {
	f := newFixture(t, nil)
	a, _ := f.mapTwo(t)

	if loc := f.location(t, 1); loc != (tiling.Point{X: 20, Y: 20}) {
		t.Fatalf("A at %v, want (20,20)", loc)
	}
	if loc := f.location(t, 2); loc != (tiling.Point{X: 560, Y: 240}) {
		t.Fatalf("B at %v, want (560,240)", loc)
	}
	if id, _ := f.c.Focus().FocusedWindow(); id != 2 {
		t.Fatalf("newly mapped B should have keyboard focus, got %d", id)
	}

	f.c.Handle(PointerMotion{Location: tiling.Point{X: 100, Y: 100}})
	f.c.Handle(PointerButton{Button: leftButton, Serial: 1, Pressed: true})
	f.c.Handle(PointerButton{Button: leftButton, Serial: 2, Pressed: false})
	if id, _ := f.c.Focus().FocusedWindow(); id != 1 {
		t.Fatalf("click should focus A, got %d", id)
	}

	f.dispatch(t, action.Action{Kind: action.ToggleFloating})
	if !f.c.Manager().IsFloating(1) {
		t.Fatalf("A should float after toggle")
	}
	if loc := f.location(t, 1); loc != (tiling.Point{X: 240, Y: 135}) {
		t.Fatalf("floated A at %v, want (240,135)", loc)
	}
	if req, _ := a.LastRequest(); req.Size != (tiling.Size{Width: 1440, Height: 810}) {
		t.Fatalf("floated A requested %v, want 1440x810", req.Size)
	}
	if f.backend.Redraws == 0 {
		t.Fatalf("expected redraw requests")
	}
}

func TestSwitchToNewWorkspaceKeepsPopulatedOne(t *testing.T) {
	f := newFixture(t, nil)
	f.mapTwo(t)

	f.dispatch(t, action.Action{Kind: action.SwitchToWorkspace, Workspace: 3})
	if _, ok := f.c.Focus().FocusedWindow(); ok {
		t.Fatalf("empty workspace 3 must not have keyboard focus")
	}

	list := f.c.workspaceInfo()
	if len(list) != 2 {
		t.Fatalf("expected workspaces 0 and 3, got %+v", list)
	}
	if list[0].Index != 0 || list[0].Output != "" || list[0].Active || len(list[0].Windows) != 2 {
		t.Fatalf("workspace 0 = %+v", list[0])
	}
	if list[1].Index != 3 || list[1].Output != "DP-1" || !list[1].Active || len(list[1].Windows) != 0 {
		t.Fatalf("workspace 3 = %+v", list[1])
	}

	f.dispatch(t, action.Action{Kind: action.SwitchToWorkspace, Workspace: 0})
	if id, ok := f.c.Focus().FocusedWindow(); !ok || id != 2 {
		t.Fatalf("returning to workspace 0 should refocus, got %d %v", id, ok)
	}
	if list := f.c.workspaceInfo(); len(list) != 1 {
		t.Fatalf("empty workspace 3 should be collected, got %+v", list)
	}
}

func TestCloseFocusedAndSpawn(t *testing.T) {
	f := newFixture(t, nil)
	f.dispatch(t, action.Action{Kind: action.CloseFocused})

	_, b := f.mapTwo(t)
	f.dispatch(t, action.Action{Kind: action.CloseFocused})
	if !b.Closed {
		t.Fatalf("focused window B not asked to close")
	}
	f.c.Handle(WindowDestroyed{ID: 2})
	if id, ok := f.c.Focus().FocusedWindow(); !ok || id != 1 {
		t.Fatalf("focus should fall back to A, got %d %v", id, ok)
	}

	f.dispatch(t, action.Action{Kind: action.Spawn, Command: []string{"foot", "-e", "htop"}})
	if len(f.spawner.argv) != 1 || f.spawner.argv[0][2] != "htop" {
		t.Fatalf("spawner got %v", f.spawner.argv)
	}

	if err := f.c.dispatch(action.Action{Kind: "fly"}); !errors.Is(err, ipc.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestKeyBindingDispatches(t *testing.T) {
	f := newFixture(t, nil)
	f.mapTwo(t)

	f.c.Handle(KeyBinding{Key: "Mod4-2"})
	if ws, _ := f.c.Manager().ActiveWorkspace(); ws.Index() != 2 {
		t.Fatalf("Mod4-2 should switch to workspace 2, active is %d", ws.Index())
	}
	f.c.Handle(KeyBinding{Key: "Mod4-Return"})
	if len(f.spawner.argv) != 1 || f.spawner.argv[0][0] != "foot" {
		t.Fatalf("Mod4-Return should spawn foot, got %v", f.spawner.argv)
	}
	f.c.Handle(KeyBinding{Key: "Mod1-x"})
}

func TestDestroyMidResize(t *testing.T) {
	f := newFixture(t, nil)
	f.mapTwo(t)

	// B spans (560,240)-(1360,840); press near its bottom-right corner.
	f.c.Handle(PointerMotion{Location: tiling.Point{X: 1300, Y: 800}})
	f.c.Handle(PointerButton{Button: leftButton, Serial: 9, Pressed: true})
	f.c.Handle(ResizeRequest{Window: 2, Serial: 9})
	if kind, id := f.c.grabs.Active(); kind != grab.KindResize || id != 2 {
		t.Fatalf("resize grab not started: %v %d", kind, id)
	}
	f.c.Handle(PointerMotion{Location: tiling.Point{X: 1350, Y: 850}})

	f.c.Handle(WindowDestroyed{ID: 2})
	if kind, _ := f.c.grabs.Active(); kind != grab.KindNone {
		t.Fatalf("grab survived window destruction: %v", kind)
	}
	f.c.Handle(PointerMotion{Location: tiling.Point{X: 1400, Y: 900}})
	f.c.Handle(PointerButton{Button: leftButton, Serial: 10, Pressed: false})
	f.c.Handle(SurfaceCommitted{ID: 2})
	if id, ok := f.c.Focus().FocusedWindow(); ok && id == 2 {
		t.Fatalf("destroyed window still focused")
	}
}

func TestMoveTiledKeepsPointerRouting(t *testing.T) {
	f := newFixture(t, nil)
	f.mapTwo(t)
	f.c.Handle(OutputConnected{Output: platformtest.Output("HDMI-A-1", 1280, 720)})

	f.c.Handle(PointerMotion{Location: tiling.Point{X: 100, Y: 100}})
	f.c.Handle(PointerButton{Button: leftButton, Serial: 4, Pressed: true})
	f.c.Handle(MoveRequest{Window: 1, Serial: 4})
	if kind, _ := f.c.grabs.Active(); kind != grab.KindNone {
		t.Fatalf("move of tiled window started a %v grab", kind)
	}

	f.c.Handle(PointerMotion{Location: tiling.Point{X: 2500, Y: 500}})
	if placed, ok := f.c.Manager().Space().Active(); !ok || placed.Name() != "HDMI-A-1" {
		t.Fatalf("active output did not follow the pointer: %v", placed.Name())
	}
	f.c.Handle(PointerButton{Button: leftButton, Serial: 5, Pressed: false})
	if loc := f.location(t, 1); loc != (tiling.Point{X: 20, Y: 20}) {
		t.Fatalf("tiled window moved to %v", loc)
	}
}

func TestSessionPauseIgnoresOutputs(t *testing.T) {
	f := newFixture(t, nil)
	f.c.Handle(SessionActive{Active: false})
	f.c.Handle(OutputConnected{Output: platformtest.Output("DP-1", 1920, 1080)})
	if len(f.c.Manager().Space().Outputs()) != 0 {
		t.Fatalf("output placed while session paused")
	}
	f.c.Handle(SessionActive{Active: true})
	f.c.Handle(OutputConnected{Output: platformtest.Output("DP-1", 1920, 1080)})
	if len(f.c.Manager().Space().Outputs()) != 1 {
		t.Fatalf("output not placed after resume")
	}
	if !f.c.status().SessionActive {
		t.Fatalf("status should report an active session")
	}
}

func TestOutputsSnapshotReconciles(t *testing.T) {
	f := newFixture(t, nil)
	f.c.Handle(OutputsSnapshot{Outputs: []platform.Output{
		platformtest.Output("HDMI-A-1", 1280, 720),
		platformtest.Output("eDP-1", 1920, 1080),
	}})

	outs := f.c.outputInfo()
	if len(outs) != 2 {
		t.Fatalf("expected two outputs, got %+v", outs)
	}
	byName := map[string]ipc.OutputInfo{}
	for _, o := range outs {
		byName[o.Name] = o
	}
	if byName["eDP-1"].X != 0 || byName["HDMI-A-1"].X != 1920 {
		t.Fatalf("built-in panel should be packed first: %+v", outs)
	}

	bigger := platformtest.Output("HDMI-A-1", 2560, 1440)
	f.c.Handle(OutputsSnapshot{Outputs: []platform.Output{bigger}})
	outs = f.c.outputInfo()
	if len(outs) != 1 || outs[0].Width != 2560 || outs[0].X != 0 {
		t.Fatalf("snapshot not reconciled: %+v", outs)
	}
}

func TestReloadKeepsLastKnownGood(t *testing.T) {
	f := newFixture(t, nil)
	a, _ := f.mapTwo(t)

	loadErr := errors.New("yaml: line 3: mapping values are not allowed")
	f.c.load = func() (*config.LoadResult, error) { return nil, loadErr }

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- f.c.Run(ctx) }()

	if err := f.c.Reload(ctx); !errors.Is(err, ipc.ErrConfigUnreadable) {
		t.Fatalf("expected ErrConfigUnreadable, got %v", err)
	}

	next := config.DefaultConfig()
	next.Border = 0
	f.c.load = func() (*config.LoadResult, error) {
		return &config.LoadResult{Config: next, Path: "/tmp/tessera.yaml"}, nil
	}
	if err := f.c.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	status, err := f.c.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.ConfigPath != "/tmp/tessera.yaml" || status.Windows != 2 || status.SessionID != "test" {
		t.Fatalf("unexpected status %+v", status)
	}

	workspaces, err := f.c.ListWorkspaces(ctx)
	if err != nil || len(workspaces) != 1 {
		t.Fatalf("ListWorkspaces = %+v, %v", workspaces, err)
	}

	if err := f.c.Dispatch(ctx, action.Action{Kind: action.Quit}); err != nil {
		t.Fatalf("Dispatch quit: %v", err)
	}
	if err := <-runErr; err != nil {
		t.Fatalf("Run returned %v after quit", err)
	}
	if req, _ := a.LastRequest(); req.Size != (tiling.Size{Width: 1920, Height: 1080}) {
		t.Fatalf("border 0 should fill the output, A requested %v", req.Size)
	}
	if err := f.c.Dispatch(context.Background(), action.Action{Kind: action.Quit}); !errors.Is(err, ipc.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable after exit, got %v", err)
	}
}

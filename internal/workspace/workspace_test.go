package workspace

import (
	"testing"

	"github.com/1broseidon/tessera/internal/platform"
	"github.com/1broseidon/tessera/internal/platform/platformtest"
	"github.com/1broseidon/tessera/internal/rules"
	"github.com/1broseidon/tessera/internal/tiling"
)

func newBound(border int) *Workspace {
	ws := New(0, border, true)
	ws.SetOutput("DP-1", tiling.Size{Width: 1920, Height: 1080})
	return ws
}

func wrap(fw *platformtest.Window, table *rules.Table) *Window {
	return NewWindow(fw, table)
}

func assertMembership(t *testing.T, ws *Workspace, id platform.WindowID, tiled bool) {
	t.Helper()
	count := 0
	for _, e := range ws.Elements() {
		if e.Window.ID() == id {
			count++
			if e.Tiled != tiled {
				t.Fatalf("window %d tiled=%v, want %v", id, e.Tiled, tiled)
			}
		}
	}
	if count != 1 {
		t.Fatalf("window %d appears %d times, want exactly once", id, count)
	}
}

func TestEndToEndTileFloatToggle(t *testing.T) {
	ws := newBound(20)

	a := platformtest.NewWindow(1, "foot", tiling.Size{Width: 640, Height: 480})
	if !ws.AddWindow(wrap(a, nil)) {
		t.Fatalf("expected A to tile")
	}
	e, _ := ws.Find(1)
	if e.Location != (tiling.Point{X: 20, Y: 20}) {
		t.Fatalf("expected A at (20,20), got %v", e.Location)
	}
	req, ok := a.LastRequest()
	if !ok || req.Size != (tiling.Size{Width: 1880, Height: 1040}) || req.Resizing {
		t.Fatalf("expected A configured to 1880x1040, got %+v", req)
	}
	a.Commit()

	b := platformtest.NewWindow(2, "foot", tiling.Size{Width: 800, Height: 600})
	if ws.AddWindow(wrap(b, nil)) {
		t.Fatalf("expected B to float while A occupies the slot")
	}
	eb, _ := ws.Find(2)
	if eb.Tiled || eb.Location != (tiling.Point{X: 560, Y: 240}) {
		t.Fatalf("expected B floating centered at (560,240), got %+v", eb)
	}

	if !ws.ToggleFloating(1) {
		t.Fatalf("toggle A failed")
	}
	req, _ = a.LastRequest()
	if req.Size != (tiling.Size{Width: 1440, Height: 810}) {
		t.Fatalf("expected A resized to 1440x810, got %v", req.Size)
	}
	ea, _ := ws.Find(1)
	if ea.Tiled || ea.Location != (tiling.Point{X: 240, Y: 135}) {
		t.Fatalf("expected A floating centered at (240,135), got %+v", ea)
	}
	if _, ok := ws.Tiled(); ok {
		t.Fatalf("expected tiling slot to be free")
	}
	assertMembership(t, ws, 2, false)
}

func TestPlacementPolicyBranches(t *testing.T) {
	floatRule := true
	table := rules.NewTable(rules.Rule{
		Match:     mustMatch(t, "^pavucontrol$"),
		Overrides: rules.Overrides{Floating: &floatRule},
	})

	fixed := platformtest.NewWindow(1, "dialog", tiling.Size{Width: 300, Height: 200})
	fixed.Min = tiling.Size{Width: 300, Height: 200}
	fixed.Max = fixed.Min
	ruled := platformtest.NewWindow(2, "pavucontrol", tiling.Size{Width: 400, Height: 300})
	normal := platformtest.NewWindow(3, "foot", tiling.Size{Width: 400, Height: 300})
	overflow := platformtest.NewWindow(4, "foot", tiling.Size{Width: 400, Height: 300})

	ws := newBound(10)
	tests := []struct {
		win   *platformtest.Window
		tiled bool
	}{
		{fixed, false},
		{ruled, false},
		{normal, true},
		{overflow, false},
	}
	for _, tt := range tests {
		if got := ws.AddWindow(wrap(tt.win, table)); got != tt.tiled {
			t.Fatalf("window %s tiled=%v, want %v", tt.win.App, got, tt.tiled)
		}
		assertMembership(t, ws, tt.win.ID(), tt.tiled)
	}
	if ws.Len() != 4 {
		t.Fatalf("expected 4 windows, got %d", ws.Len())
	}

	e, _ := ws.Find(1)
	if e.Location != (tiling.Point{X: 810, Y: 440}) {
		t.Fatalf("expected fixed-size window centered, got %v", e.Location)
	}
}

func TestFloatingWithoutOutputAtOrigin(t *testing.T) {
	ws := New(5, 20, true)
	fixed := platformtest.NewWindow(1, "dialog", tiling.Size{Width: 300, Height: 200})
	fixed.Min = tiling.Size{Width: 300, Height: 200}
	fixed.Max = fixed.Min
	ws.AddWindow(wrap(fixed, nil))

	e, _ := ws.Find(1)
	if e.Location != (tiling.Point{}) {
		t.Fatalf("expected origin without output, got %v", e.Location)
	}
}

func TestToggleFloatingInverse(t *testing.T) {
	ws := newBound(20)
	a := platformtest.NewWindow(1, "foot", tiling.Size{Width: 640, Height: 480})
	ws.AddWindow(wrap(a, nil))

	ws.ToggleFloating(1)
	assertMembership(t, ws, 1, false)
	ws.ToggleFloating(1)
	assertMembership(t, ws, 1, true)

	req, _ := a.LastRequest()
	if req.Size != (tiling.Size{Width: 1880, Height: 1040}) {
		t.Fatalf("expected tiled size restored, got %v", req.Size)
	}
}

func TestToggleFloatingSlotOccupied(t *testing.T) {
	ws := newBound(20)
	ws.AddWindow(wrap(platformtest.NewWindow(1, "foot", tiling.Size{Width: 10, Height: 10}), nil))
	ws.AddWindow(wrap(platformtest.NewWindow(2, "foot", tiling.Size{Width: 10, Height: 10}), nil))

	if ws.ToggleFloating(2) {
		t.Fatalf("expected toggle to fail while slot is occupied")
	}
	assertMembership(t, ws, 2, false)
	if ws.ToggleFloating(99) {
		t.Fatalf("expected unknown window toggle to fail")
	}
}

func TestToggleFloatingClampsToMax(t *testing.T) {
	ws := newBound(20)
	a := platformtest.NewWindow(1, "foot", tiling.Size{Width: 640, Height: 480})
	a.Max = tiling.Size{Width: 1000, Height: 700}
	ws.AddWindow(wrap(a, nil))
	ws.ToggleFloating(1)

	req, _ := a.LastRequest()
	if req.Size != (tiling.Size{Width: 1000, Height: 700}) {
		t.Fatalf("expected clamp to max, got %v", req.Size)
	}
	e, _ := ws.Find(1)
	if e.Location != (tiling.Point{X: 460, Y: 190}) {
		t.Fatalf("expected centered on clamped size, got %v", e.Location)
	}
}

func TestOutputResizeAndBorderRelayout(t *testing.T) {
	ws := newBound(20)
	a := platformtest.NewWindow(1, "foot", tiling.Size{Width: 640, Height: 480})
	ws.AddWindow(wrap(a, nil))

	ws.SetOutputSize(tiling.Size{Width: 2560, Height: 1440})
	req, _ := a.LastRequest()
	if req.Size != (tiling.Size{Width: 2520, Height: 1400}) {
		t.Fatalf("expected relayout on output resize, got %v", req.Size)
	}

	ws.SetBorder(0)
	req, _ = a.LastRequest()
	if req.Size != (tiling.Size{Width: 2560, Height: 1440}) {
		t.Fatalf("expected relayout on border change, got %v", req.Size)
	}
	e, _ := ws.Find(1)
	if e.Location != (tiling.Point{}) {
		t.Fatalf("expected tiled location at origin with zero border, got %v", e.Location)
	}
}

func TestWindowUnder(t *testing.T) {
	ws := newBound(20)
	tiled := platformtest.NewWindow(1, "foot", tiling.Size{Width: 1880, Height: 1040})
	ws.AddWindow(wrap(tiled, nil))

	low := platformtest.NewWindow(2, "foot", tiling.Size{Width: 400, Height: 400})
	high := platformtest.NewWindow(3, "foot", tiling.Size{Width: 400, Height: 400})
	ws.AddWindow(wrap(low, nil))
	ws.AddWindow(wrap(high, nil))
	ws.SetLocation(2, tiling.Point{X: 100, Y: 100})
	ws.SetLocation(3, tiling.Point{X: 300, Y: 300})

	tests := []struct {
		name string
		p    tiling.Point
		want platform.WindowID
	}{
		{"overlap prefers topmost", tiling.Point{X: 350, Y: 350}, 3},
		{"lower floating", tiling.Point{X: 150, Y: 150}, 2},
		{"tiled", tiling.Point{X: 1500, Y: 900}, 1},
		{"outside everything falls back to topmost floating", tiling.Point{X: 5, Y: 5}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := ws.WindowUnder(tt.p)
			if !ok || e.Window.ID() != tt.want {
				t.Fatalf("WindowUnder(%v) = %v, want %d", tt.p, e.Window, tt.want)
			}
		})
	}

	ws.Raise(2)
	if e, _ := ws.WindowUnder(tiling.Point{X: 350, Y: 350}); e.Window.ID() != 2 {
		t.Fatalf("expected raised window on top")
	}

	ws.SetFloatingFallback(false)
	if _, ok := ws.WindowUnder(tiling.Point{X: 5, Y: 5}); ok {
		t.Fatalf("expected no hit without fallback")
	}
}

func TestWindowUnderHonorsInputRegion(t *testing.T) {
	ws := newBound(0)
	f := platformtest.NewWindow(1, "osd", tiling.Size{Width: 200, Height: 200})
	f.Geo = tiling.Rect{X: 10, Y: 10, Width: 200, Height: 200}
	f.Input = func(p tiling.Point) bool { return false }
	f.Min = tiling.Size{Width: 200, Height: 200}
	f.Max = f.Min
	ws.AddWindow(wrap(f, nil))
	ws.SetFloatingFallback(false)

	if _, ok := ws.WindowUnder(tiling.Point{X: 960, Y: 540}); ok {
		t.Fatalf("expected click-through window not to be hit")
	}

	var got tiling.Point
	f.Input = func(p tiling.Point) bool { got = p; return true }
	e, ok := ws.WindowUnder(tiling.Point{X: 860, Y: 440})
	if !ok || e.Window.ID() != 1 {
		t.Fatalf("expected hit")
	}
	// Window centered at (860,440); content offset of (10,10) maps to surface (10,10).
	if got != (tiling.Point{X: 10, Y: 10}) {
		t.Fatalf("expected surface-local point (10,10), got %v", got)
	}
}

func TestSetLocationTiledNoop(t *testing.T) {
	ws := newBound(20)
	ws.AddWindow(wrap(platformtest.NewWindow(1, "foot", tiling.Size{Width: 10, Height: 10}), nil))
	if ws.SetLocation(1, tiling.Point{X: 500, Y: 500}) {
		t.Fatalf("expected tiled window move to be rejected")
	}
}

func TestRemoveWindow(t *testing.T) {
	ws := newBound(20)
	ws.AddWindow(wrap(platformtest.NewWindow(1, "foot", tiling.Size{Width: 10, Height: 10}), nil))
	ws.AddWindow(wrap(platformtest.NewWindow(2, "foot", tiling.Size{Width: 10, Height: 10}), nil))

	if _, ok := ws.RemoveWindow(1); !ok {
		t.Fatalf("remove tiled failed")
	}
	if _, ok := ws.RemoveWindow(2); !ok {
		t.Fatalf("remove floating failed")
	}
	if _, ok := ws.RemoveWindow(2); ok {
		t.Fatalf("expected second remove to fail")
	}
	if !ws.IsEmpty() {
		t.Fatalf("expected empty workspace")
	}
}

func TestRecomputeRules(t *testing.T) {
	yes := true
	table := rules.NewTable(rules.Rule{Match: mustMatch(t, "^mpv$"), Overrides: rules.Overrides{Floating: &yes}})
	fw := platformtest.NewWindow(1, "unknown", tiling.Size{Width: 10, Height: 10})
	w := NewWindow(fw, table)
	if w.Rules().IsFloating() {
		t.Fatalf("expected no override before identity change")
	}
	fw.App = "mpv"
	if !w.RecomputeRules(table).IsFloating() || !w.Rules().IsFloating() {
		t.Fatalf("expected override after identity change")
	}
}

func TestAnchoredLocation(t *testing.T) {
	s := ResizeState{
		Edges:           tiling.TopLeft,
		InitialLocation: tiling.Point{X: 100, Y: 100},
		InitialSize:     tiling.Size{Width: 400, Height: 300},
	}
	got := s.AnchoredLocation(tiling.Size{Width: 500, Height: 350})
	if got != (tiling.Point{X: 0, Y: 50}) {
		t.Fatalf("expected (0,50), got %v", got)
	}

	s.Edges = tiling.BottomRight
	if got := s.AnchoredLocation(tiling.Size{Width: 500, Height: 350}); got != s.InitialLocation {
		t.Fatalf("expected bottom-right resize to keep location, got %v", got)
	}
}

func mustMatch(t *testing.T, appID string) rules.Match {
	t.Helper()
	m, err := rules.CompileMatch(appID, "")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return m
}

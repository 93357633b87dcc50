// Package output arranges connected outputs into a single non-overlapping
// global coordinate space.
package output

import (
	"log/slog"
	"sort"

	"github.com/1broseidon/tessera/internal/config"
	"github.com/1broseidon/tessera/internal/platform"
	"github.com/1broseidon/tessera/internal/tiling"
)

// CursorKind says how the caller should move the pointer after a change.
type CursorKind int

const (
	CursorNone CursorKind = iota
	// CursorAbsolute warps the pointer to Point.
	CursorAbsolute
	// CursorRelative shifts the pointer by Point.
	CursorRelative
)

func (k CursorKind) String() string {
	switch k {
	case CursorNone:
		return "none"
	case CursorAbsolute:
		return "absolute"
	case CursorRelative:
		return "relative"
	default:
		return "unknown"
	}
}

// CursorUpdate keeps the pointer visually stationary across re-packs.
type CursorUpdate struct {
	Kind  CursorKind
	Point tiling.Point
}

// Absolute returns an instruction to warp to p.
func Absolute(p tiling.Point) CursorUpdate { return CursorUpdate{Kind: CursorAbsolute, Point: p} }

// Relative returns an instruction to shift by d.
func Relative(d tiling.Point) CursorUpdate { return CursorUpdate{Kind: CursorRelative, Point: d} }

// Placed is an output with its position in the global space.
type Placed struct {
	Output   platform.Output
	Mode     platform.Mode
	Position tiling.Point
	Explicit bool
}

// Name is the connector identity.
func (p Placed) Name() string { return p.Output.Name }

// Size is the pixel size of the mode in use.
func (p Placed) Size() tiling.Size { return p.Mode.Size() }

// Geometry is the output rectangle in global coordinates.
func (p Placed) Geometry() tiling.Rect { return tiling.RectFrom(p.Position, p.Size()) }

// Space owns connected outputs and their placement. The active output is
// tracked by connector name only.
type Space struct {
	connected []platform.Output
	placed    []Placed
	active    string
	logger    *slog.Logger
}

// NewSpace creates an empty output space.
func NewSpace(logger *slog.Logger) *Space {
	if logger == nil {
		logger = slog.Default()
	}
	return &Space{logger: logger}
}

// Add registers a connected output and re-packs. A disabled output is
// remembered but not placed.
func (s *Space) Add(out platform.Output, cfg *config.Config) CursorUpdate {
	for i, existing := range s.connected {
		if existing.Name == out.Name {
			s.connected[i] = out
			return s.repackAndTrack(cfg)
		}
	}
	s.connected = append(s.connected, out)
	return s.repackAndTrack(cfg)
}

// Remove forgets an output and re-packs. When the active output is removed
// the first remaining output becomes active.
func (s *Space) Remove(name string, cfg *config.Config) CursorUpdate {
	idx := -1
	for i, existing := range s.connected {
		if existing.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.logger.Error("remove of unknown output", "output", name)
		return CursorUpdate{}
	}
	s.connected = append(s.connected[:idx], s.connected[idx+1:]...)
	return s.repackAndTrack(cfg)
}

// Reconfigure updates an output's modes and re-packs.
func (s *Space) Reconfigure(out platform.Output, cfg *config.Config) CursorUpdate {
	if !s.Connected(out.Name) {
		s.logger.Error("reconfigure of unknown output", "output", out.Name)
		return CursorUpdate{}
	}
	return s.Add(out, cfg)
}

// Relayout re-packs all connected outputs against a new configuration.
func (s *Space) Relayout(cfg *config.Config) CursorUpdate {
	return s.repackAndTrack(cfg)
}

// repackAndTrack re-packs and derives the cursor instruction from how the
// active output moved.
func (s *Space) repackAndTrack(cfg *config.Config) CursorUpdate {
	before, hadActive := s.Active()
	s.placed = pack(s.connected, cfg, s.logger)

	if hadActive {
		if after, ok := s.Lookup(before.Name()); ok {
			delta := after.Position.Sub(before.Position)
			if delta == (tiling.Point{}) {
				return CursorUpdate{}
			}
			return Relative(delta)
		}
	}

	s.active = ""
	if len(s.placed) == 0 {
		return CursorUpdate{}
	}
	s.active = s.placed[0].Name()
	return Absolute(s.placed[0].Geometry().Center())
}

// pack places enabled outputs: explicit positions first, sorted by x then
// y, then automatic ones left to right along y=0.
func pack(connected []platform.Output, cfg *config.Config, logger *slog.Logger) []Placed {
	var explicit, auto []Placed
	for _, out := range connected {
		oc := cfg.Output(out.Name)
		if !out.Enabled || !oc.Enabled {
			continue
		}
		p := Placed{Output: out, Mode: modeFor(out, oc)}
		if p.Size().Width <= 0 || p.Size().Height <= 0 {
			logger.Warn("output has no usable mode", "output", out.Name)
			continue
		}
		if oc.Position != nil {
			p.Position = tiling.Point{X: oc.Position.X, Y: oc.Position.Y}
			p.Explicit = true
			explicit = append(explicit, p)
		} else {
			auto = append(auto, p)
		}
	}

	sort.SliceStable(explicit, func(i, j int) bool {
		a, b := explicit[i].Position, explicit[j].Position
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return explicit[i].Name() < explicit[j].Name()
	})

	placed := make([]Placed, 0, len(explicit)+len(auto))
	for _, p := range explicit {
		if overlapsAny(p.Geometry(), placed) {
			logger.Warn("explicit output position overlaps another output, placing automatically",
				"output", p.Name(), "position", p.Position.String())
			p.Explicit = false
			p.Position = tiling.Point{}
			auto = append(auto, p)
			continue
		}
		placed = append(placed, p)
	}

	sort.SliceStable(auto, func(i, j int) bool {
		bi, bj := auto[i].Output.Builtin(), auto[j].Output.Builtin()
		if bi != bj {
			return bi
		}
		return auto[i].Name() < auto[j].Name()
	})
	for _, p := range auto {
		p.Position = tiling.Point{X: rightEdge(placed), Y: 0}
		placed = append(placed, p)
	}
	return placed
}

func modeFor(out platform.Output, oc config.OutputConfig) platform.Mode {
	if oc.Mode != nil {
		return out.PreferredMode(platform.Mode{Width: oc.Mode.Width, Height: oc.Mode.Height, Refresh: oc.Mode.Refresh})
	}
	if out.Mode.Width > 0 && out.Mode.Height > 0 {
		return out.Mode
	}
	if len(out.Modes) > 0 {
		return out.Modes[0]
	}
	return out.Mode
}

func overlapsAny(r tiling.Rect, placed []Placed) bool {
	for _, p := range placed {
		if r.Overlaps(p.Geometry()) {
			return true
		}
	}
	return false
}

func rightEdge(placed []Placed) int {
	edge := 0
	for i, p := range placed {
		if i == 0 || p.Geometry().Right() > edge {
			edge = p.Geometry().Right()
		}
	}
	return edge
}

// Lookup returns a placed output by name.
func (s *Space) Lookup(name string) (Placed, bool) {
	for _, p := range s.placed {
		if p.Name() == name {
			return p, true
		}
	}
	return Placed{}, false
}

// Connected reports whether the backend has reported the output, placed or not.
func (s *Space) Connected(name string) bool {
	for _, out := range s.connected {
		if out.Name == name {
			return true
		}
	}
	return false
}

// ConnectedOutputs returns every reported output, including disabled ones.
func (s *Space) ConnectedOutputs() []platform.Output {
	return append([]platform.Output(nil), s.connected...)
}

// Placed reports whether the output currently occupies space.
func (s *Space) Placed(name string) bool {
	_, ok := s.Lookup(name)
	return ok
}

// Outputs returns placed outputs in placement order.
func (s *Space) Outputs() []Placed {
	return append([]Placed(nil), s.placed...)
}

// Geometry returns an output's global rectangle.
func (s *Space) Geometry(name string) (tiling.Rect, bool) {
	p, ok := s.Lookup(name)
	if !ok {
		return tiling.Rect{}, false
	}
	return p.Geometry(), true
}

// OutputUnder returns the output containing p.
func (s *Space) OutputUnder(p tiling.Point) (Placed, bool) {
	for _, placed := range s.placed {
		if placed.Geometry().Contains(p) {
			return placed, true
		}
	}
	return Placed{}, false
}

// Active returns the active output.
func (s *Space) Active() (Placed, bool) {
	if s.active == "" {
		return Placed{}, false
	}
	return s.Lookup(s.active)
}

// SetActive marks a placed output as active.
func (s *Space) SetActive(name string) bool {
	if !s.Placed(name) {
		return false
	}
	s.active = name
	return true
}

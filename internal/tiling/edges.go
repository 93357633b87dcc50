package tiling

import "strings"

// Edges is a bit set naming the window edges an interactive resize moves.
type Edges uint8

const (
	EdgeNone   Edges = 0
	EdgeTop    Edges = 1 << 0
	EdgeBottom Edges = 1 << 1
	EdgeLeft   Edges = 1 << 2
	EdgeRight  Edges = 1 << 3

	TopLeft     = EdgeTop | EdgeLeft
	TopRight    = EdgeTop | EdgeRight
	BottomLeft  = EdgeBottom | EdgeLeft
	BottomRight = EdgeBottom | EdgeRight
)

// CornerAt classifies p by the quadrant of r it falls in.
func CornerAt(r Rect, p Point) Edges {
	var e Edges
	if p.X < r.X+r.Width/2 {
		e |= EdgeLeft
	} else {
		e |= EdgeRight
	}
	if p.Y < r.Y+r.Height/2 {
		e |= EdgeTop
	} else {
		e |= EdgeBottom
	}
	return e
}

// Has reports whether all bits of o are set in e.
func (e Edges) Has(o Edges) bool {
	return e&o == o
}

func (e Edges) String() string {
	if e == EdgeNone {
		return "none"
	}
	var parts []string
	if e.Has(EdgeTop) {
		parts = append(parts, "top")
	}
	if e.Has(EdgeBottom) {
		parts = append(parts, "bottom")
	}
	if e.Has(EdgeLeft) {
		parts = append(parts, "left")
	}
	if e.Has(EdgeRight) {
		parts = append(parts, "right")
	}
	return strings.Join(parts, "-")
}

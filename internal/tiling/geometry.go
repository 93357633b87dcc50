package tiling

import "fmt"

// Point is a position in integer pixel coordinates.
type Point struct {
	X int
	Y int
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the offset from q to p.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Size is a width/height pair in pixels.
type Size struct {
	Width  int
	Height int
}

// IsZero reports whether both dimensions are zero.
func (s Size) IsZero() bool {
	return s.Width == 0 && s.Height == 0
}

// Scale returns s multiplied by num/den in each dimension, truncating.
func (s Size) Scale(num, den int) Size {
	if den == 0 {
		return s
	}
	return Size{Width: s.Width * num / den, Height: s.Height * num / den}
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Rect represents a window or output position and size
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// RectFrom builds a Rect from a location and a size.
func RectFrom(loc Point, size Size) Rect {
	return Rect{X: loc.X, Y: loc.Y, Width: size.Width, Height: size.Height}
}

// Loc returns the top-left corner.
func (r Rect) Loc() Point { return Point{X: r.X, Y: r.Y} }

// Size returns the rectangle dimensions.
func (r Rect) Size() Size { return Size{Width: r.Width, Height: r.Height} }

// Right is the exclusive right edge.
func (r Rect) Right() int { return r.X + r.Width }

// Bottom is the exclusive bottom edge.
func (r Rect) Bottom() int { return r.Y + r.Height }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Contains reports whether p lies inside r (right and bottom edges exclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.Right() && p.Y >= r.Y && p.Y < r.Bottom()
}

// Overlaps reports whether r and o share any area. Touching edges do not overlap.
func (r Rect) Overlaps(o Rect) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return r.X < o.Right() && o.X < r.Right() && r.Y < o.Bottom() && o.Y < r.Bottom()
}

// Translate returns r moved by d.
func (r Rect) Translate(d Point) Rect {
	r.X += d.X
	r.Y += d.Y
	return r
}

// Inset shrinks r by n pixels on every side. The result never has a negative size.
func (r Rect) Inset(n int) Rect {
	out := Rect{X: r.X + n, Y: r.Y + n, Width: r.Width - 2*n, Height: r.Height - 2*n}
	if out.Width < 0 {
		out.Width = 0
	}
	if out.Height < 0 {
		out.Height = 0
	}
	return out
}

// Center returns the center point of r, rounding toward the top-left.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// CenterIn returns the location that centers a box of the given size inside area.
func CenterIn(area Rect, size Size) Point {
	return Point{
		X: area.X + (area.Width-size.Width)/2,
		Y: area.Y + (area.Height-size.Height)/2,
	}
}

// ClampSize bounds s by min and max. A zero component in max means unbounded.
func ClampSize(s, min, max Size) Size {
	if max.Width > 0 && s.Width > max.Width {
		s.Width = max.Width
	}
	if max.Height > 0 && s.Height > max.Height {
		s.Height = max.Height
	}
	if s.Width < min.Width {
		s.Width = min.Width
	}
	if s.Height < min.Height {
		s.Height = min.Height
	}
	return s
}

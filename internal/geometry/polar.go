// Package geometry maps calendar days onto the polar layout of the panel and
// back. Angles grow clockwise from the top of the panel, radii grow outward
// from the centre, and Cartesian offsets use a Y axis that points up.
package geometry

import "math"

const (
	// Margin keeps the outermost ring inside the panel bounds
	Margin = 15.0
	// OuterTolerance widens the valid hit band past the outermost ring
	OuterTolerance = 20.0
	// InnerTolerance widens the valid hit band inside the innermost ring
	InnerTolerance = 8.0
	// MinSize is the smallest ring span that still produces geometry
	MinSize = 1.0
)

// Layout is the panel size and padding the geometry is computed for
type Layout struct {
	Width  float64
	Height float64
	Pad    float64
}

// NewLayout builds a layout from integer panel dimensions
func NewLayout(width, height, pad int) Layout {
	return Layout{Width: float64(width), Height: float64(height), Pad: float64(pad)}
}

// Size is the radial span available for the seven weekday rings
func (l Layout) Size() float64 {
	return math.Min(l.Width, l.Height)/2 - Margin - l.Pad
}

// Valid reports whether the layout leaves room for the rings
func (l Layout) Valid() bool {
	size := l.Size()
	return !math.IsNaN(size) && size >= MinSize && l.Pad >= 0
}

// Point is a Cartesian offset from the panel centre, Y up
type Point struct {
	X float64
	Y float64
}

// Polar is a pointer position resolved against the panel centre
type Polar struct {
	X      float64 // offset from centre, Y up
	Y      float64
	Theta  float64 // [0, 2π), clockwise from the top
	Radius float64
}

// Angle returns the drawing angle of a week: January at the top, proceeding
// clockwise.
func Angle(week, weeks int) float64 {
	if weeks <= 0 {
		return math.Pi / 2
	}
	weekPercent := float64(week) / float64(weeks)
	return -weekPercent*2*math.Pi + math.Pi/2
}

// Distance returns the distance from the centre of a weekday ring
// (1=Monday innermost, 7=Sunday outermost).
func (l Layout) Distance(weekday int) float64 {
	dayPercent := float64(weekday-1) / 6
	return l.Pad + dayPercent*l.Size()
}

// Forward maps a week (out of weeks) and weekday to an offset from the centre.
// Invalid layouts collapse every day onto the origin.
func (l Layout) Forward(week, weeks, weekday int) Point {
	if !l.Valid() {
		return Point{}
	}
	theta := Angle(week, weeks)
	distance := l.Distance(weekday)
	return Point{
		X: distance * math.Cos(theta),
		Y: distance * math.Sin(theta),
	}
}

// ToScreen converts an offset from the centre to panel pixel coordinates
func (l Layout) ToScreen(p Point) (float64, float64) {
	return p.X + l.Width/2, l.Height/2 - p.Y
}

// Inverse resolves a pointer offset, relative to the panel's top-left
// corner, into polar coordinates around the centre.
func (l Layout) Inverse(px, py float64) Polar {
	x := px - l.Width/2
	y := -(py - l.Height/2)

	theta := -math.Atan2(y, x) + math.Pi/2
	if theta < 0 {
		theta += 2 * math.Pi
	}
	if theta >= 2*math.Pi {
		theta -= 2 * math.Pi
	}

	return Polar{
		X:      x,
		Y:      y,
		Theta:  theta,
		Radius: math.Hypot(x, y),
	}
}

// InAnnulus reports whether radius falls inside the band that resolves to a
// day. The inner tolerance never exceeds half the padding so the centre of a
// padded panel is always a miss.
func (l Layout) InAnnulus(radius float64) bool {
	if !l.Valid() {
		return false
	}
	inner := l.Pad - math.Min(InnerTolerance, l.Pad/2)
	outer := l.Size() + l.Pad + OuterTolerance
	return radius >= inner && radius <= outer
}

// Weekday resolves a radius inside the annulus to a weekday. The innermost
// and outermost rings get widened targets.
func (l Layout) Weekday(radius float64) int {
	scale := (radius - l.Pad) / l.Size()
	switch {
	case scale < 0.1:
		return 1
	case scale > 0.9:
		return 7
	}
	weekday := int(math.Ceil(scale * 7))
	if weekday < 1 {
		return 1
	}
	if weekday > 7 {
		return 7
	}
	return weekday
}

// Week resolves an angle to the nearest week sector in 1..weeks. The sector
// straddling the top of the panel belongs to the last week.
func Week(theta float64, weeks int) int {
	if weeks <= 0 {
		return 0
	}
	week := int(math.Floor(theta/(2*math.Pi)*float64(weeks) + 0.5))
	week %= weeks
	if week <= 0 {
		week += weeks
	}
	return week
}

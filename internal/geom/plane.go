// Package geom maps points between two planar quadrilaterals.
//
// The touchpad kiosk calibrates a physical touch surface (the device plane)
// against the visible map extent (the target plane). Both are described by
// four ordered corners and related by a projective transform.
package geom

import (
	"math"

	"github.com/paulmach/orb"
)

// Vector2d is a point or vector in the plane.
type Vector2d struct {
	X float64 `json:"x" doc:"Horizontal coordinate"`
	Y float64 `json:"y" doc:"Vertical coordinate"`
}

// Point converts v to an orb point.
func (v Vector2d) Point() orb.Point {
	return orb.Point{v.X, v.Y}
}

// FromPoint converts an orb point to a Vector2d.
func FromPoint(p orb.Point) Vector2d {
	return Vector2d{X: p[0], Y: p[1]}
}

// Plane2d is a quadrilateral given by its corners in calibration order:
// A top-left, B top-right, C bottom-left, D bottom-right.
type Plane2d struct {
	A Vector2d `json:"a"`
	B Vector2d `json:"b"`
	C Vector2d `json:"c"`
	D Vector2d `json:"d"`
}

// Corner returns the i-th corner (0..3) in calibration order.
func (p Plane2d) Corner(i int) Vector2d {
	switch i {
	case 0:
		return p.A
	case 1:
		return p.B
	case 2:
		return p.C
	default:
		return p.D
	}
}

// WithCorner returns a copy of p with the i-th corner replaced.
func (p Plane2d) WithCorner(i int, v Vector2d) Plane2d {
	switch i {
	case 0:
		p.A = v
	case 1:
		p.B = v
	case 2:
		p.C = v
	case 3:
		p.D = v
	}
	return p
}

// Ring returns the corners as a closed ring walked around the outline
// (A, B, D, C, A).
func (p Plane2d) Ring() orb.Ring {
	return orb.Ring{p.A.Point(), p.B.Point(), p.D.Point(), p.C.Point(), p.A.Point()}
}

// Degenerate reports whether two corners coincide or three corners are
// collinear. Transforms built from a degenerate plane are singular.
func (p Plane2d) Degenerate() bool {
	c := [4]Vector2d{p.A, p.B, p.D, p.C}
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			if c[i] == c[j] {
				return true
			}
		}
	}
	for i := 0; i < 4; i++ {
		a, b, d := c[i], c[(i+1)%4], c[(i+2)%4]
		cross := (b.X-a.X)*(d.Y-a.Y) - (b.Y-a.Y)*(d.X-a.X)
		if math.Abs(cross) < 1e-12 {
			return true
		}
	}
	return false
}

// Extent is the visible bounds of the map widget, in map units.
type Extent struct {
	XMin float64 `json:"xmin" doc:"Minimum x (west)"`
	YMin float64 `json:"ymin" doc:"Minimum y (south)"`
	XMax float64 `json:"xmax" doc:"Maximum x (east)"`
	YMax float64 `json:"ymax" doc:"Maximum y (north)"`
}

// Bound converts e to an orb bound.
func (e Extent) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{e.XMin, e.YMin}, Max: orb.Point{e.XMax, e.YMax}}
}

// ExtentOf converts an orb bound to an Extent.
func ExtentOf(b orb.Bound) Extent {
	return Extent{XMin: b.Min[0], YMin: b.Min[1], XMax: b.Max[0], YMax: b.Max[1]}
}

// Plane returns the extent corners in calibration order. Screen "top" is
// the northern edge, so A is (xmin, ymax).
func (e Extent) Plane() Plane2d {
	return Plane2d{
		A: Vector2d{X: e.XMin, Y: e.YMax},
		B: Vector2d{X: e.XMax, Y: e.YMax},
		C: Vector2d{X: e.XMin, Y: e.YMin},
		D: Vector2d{X: e.XMax, Y: e.YMin},
	}
}

// Empty reports whether the extent has no area.
func (e Extent) Empty() bool {
	return e.XMax <= e.XMin || e.YMax <= e.YMin
}

package coloc

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Point is a spot position in the same length unit as the field of view (usually µm).
type Point struct {
	X float64
	Y float64
}

func NewPoint(x, y float64) Point {
	return Point{
		X: x,
		Y: y,
	}
}

func (p Point) orb() orb.Point {
	return orb.Point{p.X, p.Y}
}

func euclideanDistance(p1, p2 Point) float64 {
	return planar.Distance(p1.orb(), p2.orb())
}

// spotDistance is the Euclidean distance rounded to 2 decimals, which is what the
// colocalization cutoff is compared against.
func spotDistance(p1, p2 Point) float64 {
	return round2(euclideanDistance(p1, p2))
}

// FieldOfView is the square analysis region [0, side) x [0, side) where
// side = imageSize * pixelSize * fraction.
type FieldOfView struct {
	bound orb.Bound
}

// NewFieldOfView creates field of view from image geometry
func NewFieldOfView(imageSize int, pixelSize, fraction float64) FieldOfView {
	side := float64(imageSize) * pixelSize * fraction
	return FieldOfView{
		bound: orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{side, side}},
	}
}

// Side returns the threshold coordinate: spots at or beyond it are outside
func (fov FieldOfView) Side() float64 {
	return fov.bound.Right() - fov.bound.Left()
}

// Area returns field of view area in squared length units
func (fov FieldOfView) Area() float64 {
	return (fov.bound.Right() - fov.bound.Left()) * (fov.bound.Top() - fov.bound.Bottom())
}

// Contains reports whether point lies inside. Unlike orb.Bound the far edges are excluded.
func (fov FieldOfView) Contains(p Point) bool {
	if !fov.bound.Contains(p.orb()) {
		return false
	}
	return p.X < fov.bound.Right() && p.Y < fov.bound.Top()
}

package projection

import "math"

// Point2D is a position (or displacement) in the projected plane.
type Point2D struct {
	X, Y float64
}

// Add returns p + q.
func (p Point2D) Add(q Point2D) Point2D { return Point2D{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p - q.
func (p Point2D) Sub(q Point2D) Point2D { return Point2D{X: p.X - q.X, Y: p.Y - q.Y} }

// Scale returns s·p.
func (p Point2D) Scale(s float64) Point2D { return Point2D{X: s * p.X, Y: s * p.Y} }

// Norm is the Euclidean length of p.
func (p Point2D) Norm() float64 { return math.Hypot(p.X, p.Y) }

// Centroid returns the mean of points, or the zero point for an empty slice.
func Centroid(points []Point2D) Point2D {
	if len(points) == 0 {
		return Point2D{}
	}
	var sum Point2D
	for _, point := range points {
		sum = sum.Add(point)
	}
	return sum.Scale(1 / float64(len(points)))
}

func (p Point2D) slice() []float64 { return []float64{p.X, p.Y} }

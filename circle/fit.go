// Package circle fits a circle to a handful of 2-D points, typically the mean 2-D
// positions of each labeled cluster, and answers angular queries against it.
package circle

import (
	"fmt"
	"math"
	"sort"

	"github.com/alDuncanson/manifold/errs"
	"github.com/alDuncanson/manifold/projection"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

const (
	// collinearTolerance bounds the ratio of the minor to the major spread of the
	// points below which they are treated as lying on a line.
	collinearTolerance = 1e-12
	// acceptTolerance is the gradient norm, relative to the point spread, at which a
	// minimizer that stopped with an error is still considered converged.
	acceptTolerance = 1e-8
)

// Circle is a fitted circle in the projected plane.
type Circle struct {
	Center projection.Point2D
	Radius float64
}

// PointAt returns the point on the circle at angle theta (radians).
func (c Circle) PointAt(theta float64) projection.Point2D {
	return projection.Point2D{
		X: c.Center.X + c.Radius*math.Cos(theta),
		Y: c.Center.Y + c.Radius*math.Sin(theta),
	}
}

// AngleOf returns atan2 of p relative to the center, in (−π, π].
func (c Circle) AngleOf(p projection.Point2D) float64 {
	return math.Atan2(p.Y-c.Center.Y, p.X-c.Center.X)
}

// Project returns the angle of p and its radial projection onto the circle.
// A point exactly at the center has angle 0.
func (c Circle) Project(p projection.Point2D) (float64, projection.Point2D) {
	theta := c.AngleOf(p)
	return theta, c.PointAt(theta)
}

// Trace returns n points evenly spaced round the circle, starting at angle 0.
func (c Circle) Trace(n int) []projection.Point2D {
	if n <= 0 {
		return nil
	}
	points := make([]projection.Point2D, n)
	for i := range points {
		points[i] = c.PointAt(2 * math.Pi * float64(i) / float64(n))
	}
	return points
}

func (c Circle) String() string {
	return fmt.Sprintf("center=(%.2f, %.2f), radius=%.2f", c.Center.X, c.Center.Y, c.Radius)
}

// Fit finds the center minimizing Σ (dᵢ − r̄)², where dᵢ is the distance of point i
// to the center and r̄ the mean of those distances, starting from the centroid.
// The radius is r̄ at the optimum.
func Fit(points []projection.Point2D) (Circle, error) {
	if distinct(points) < 3 {
		return Circle{}, errs.Fit("circle", fmt.Errorf("%d distinct points: %w", distinct(points), errs.ErrUnderdetermined))
	}

	spread, collinear := shape(points)
	if collinear {
		return Circle{}, errs.Fit("circle", errs.ErrCollinear)
	}

	obj := objective{points: points}
	problem := optimize.Problem{
		Func: obj.value,
		Grad: obj.gradient,
	}
	settings := &optimize.Settings{
		GradientThreshold: 1e-10 * math.Max(spread, 1),
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-16,
			Iterations: 50,
		},
	}

	initial := projection.Centroid(points)
	result, err := optimize.Minimize(problem, []float64{initial.X, initial.Y}, settings, &optimize.BFGS{})
	if result == nil {
		return Circle{}, errs.Fit("circle", fmt.Errorf("%v: %w", err, errs.ErrNotConverged))
	}
	if err != nil {
		grad := make([]float64, 2)
		obj.gradient(grad, result.X)
		if norm := floats.Norm(grad, 2); norm > acceptTolerance*math.Max(spread, 1) {
			return Circle{}, errs.Fit("circle", fmt.Errorf("%v (gradient norm %g): %w", err, norm, errs.ErrNotConverged))
		}
	}

	center := projection.Point2D{X: result.X[0], Y: result.X[1]}
	fitted := Circle{Center: center, Radius: meanDistance(points, center)}

	log.Debug().
		Float64("center_x", fitted.Center.X).
		Float64("center_y", fitted.Center.Y).
		Float64("radius", fitted.Radius).
		Str("status", result.Status.String()).
		Msg("fitted circle")

	return fitted, nil
}

// objective is the circle-fit loss over a fixed point set.
type objective struct {
	points []projection.Point2D
}

func (o objective) distances(x []float64) []float64 {
	center := projection.Point2D{X: x[0], Y: x[1]}
	distances := make([]float64, len(o.points))
	for i, p := range o.points {
		distances[i] = p.Sub(center).Norm()
	}
	return distances
}

func (o objective) value(x []float64) float64 {
	distances := o.distances(x)
	radius := stat.Mean(distances, nil)
	var sum float64
	for _, d := range distances {
		sum += (d - radius) * (d - radius)
	}
	return sum
}

// gradient writes Σ 2(dᵢ − r̄)(c − pᵢ)/dᵢ into grad. The mean term drops out
// because Σ (dᵢ − r̄) = 0. Points coinciding with the center contribute nothing.
func (o objective) gradient(grad, x []float64) {
	distances := o.distances(x)
	radius := stat.Mean(distances, nil)
	grad[0], grad[1] = 0, 0
	for i, p := range o.points {
		if distances[i] == 0 {
			continue
		}
		weight := 2 * (distances[i] - radius) / distances[i]
		grad[0] += weight * (x[0] - p.X)
		grad[1] += weight * (x[1] - p.Y)
	}
}

func meanDistance(points []projection.Point2D, center projection.Point2D) float64 {
	var sum float64
	for _, p := range points {
		sum += p.Sub(center).Norm()
	}
	return sum / float64(len(points))
}

func distinct(points []projection.Point2D) int {
	seen := make(map[projection.Point2D]struct{}, len(points))
	for _, p := range points {
		seen[p] = struct{}{}
	}
	return len(seen)
}

// shape returns the standard deviation along the major axis of the points and
// whether the minor axis is negligible next to it.
func shape(points []projection.Point2D) (float64, bool) {
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i] = p.X, p.Y
	}
	a := stat.Covariance(xs, xs, nil)
	b := stat.Covariance(xs, ys, nil)
	c := stat.Covariance(ys, ys, nil)

	mid := (a + c) / 2
	offset := math.Hypot((a-c)/2, b)
	major, minor := mid+offset, mid-offset
	return math.Sqrt(major), minor <= collinearTolerance*major
}

// ClusterCenters averages points per label and returns the centers ordered by
// ascending label, together with those labels. Negative labels are noise and skipped.
func ClusterCenters(points []projection.Point2D, labels []int) ([]projection.Point2D, []int, error) {
	if len(points) != len(labels) {
		return nil, nil, fmt.Errorf("cluster centers: %d points but %d labels: %w",
			len(points), len(labels), errs.ErrDimensionMismatch)
	}

	sums := make(map[int]projection.Point2D)
	counts := make(map[int]int)
	for i, label := range labels {
		if label < 0 {
			continue
		}
		sums[label] = sums[label].Add(points[i])
		counts[label]++
	}
	if len(counts) == 0 {
		return nil, nil, errs.Fit("cluster centers", errs.ErrEmptyDataset)
	}

	ordered := make([]int, 0, len(counts))
	for label := range counts {
		ordered = append(ordered, label)
	}
	sort.Ints(ordered)

	centers := make([]projection.Point2D, len(ordered))
	for i, label := range ordered {
		centers[i] = sums[label].Scale(1 / float64(counts[label]))
	}
	return centers, ordered, nil
}

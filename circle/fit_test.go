package circle

import (
	"errors"
	"math"
	"testing"

	"github.com/alDuncanson/manifold/errs"
	"github.com/alDuncanson/manifold/projection"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func arc(center projection.Point2D, radius float64, angles ...float64) []projection.Point2D {
	points := make([]projection.Point2D, len(angles))
	for i, theta := range angles {
		points[i] = projection.Point2D{
			X: center.X + radius*math.Cos(theta),
			Y: center.Y + radius*math.Sin(theta),
		}
	}
	return points
}

func TestFit_ExactCircle(t *testing.T) {
	tests := []struct {
		name   string
		center projection.Point2D
		radius float64
		angles []float64
	}{
		{"three evenly spaced", projection.Point2D{}, 5, []float64{0, 2 * math.Pi / 3, 4 * math.Pi / 3}},
		{"offset five", projection.Point2D{X: 3, Y: -2}, 2.5, []float64{0, 1.2566, 2.5133, 3.7699, 5.0265}},
		{"uneven arc", projection.Point2D{X: -1, Y: 4}, 7, []float64{0.1, 0.4, 1.3, 2.0, 2.2}},
		{"tiny", projection.Point2D{X: 0.01, Y: 0.02}, 0.05, []float64{0, 1, 2, 4}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fitted, err := Fit(arc(tc.center, tc.radius, tc.angles...))
			require.NoError(t, err)
			assert.InDelta(t, tc.center.X, fitted.Center.X, 1e-6)
			assert.InDelta(t, tc.center.Y, fitted.Center.Y, 1e-6)
			assert.InDelta(t, tc.radius, fitted.Radius, 1e-6)
		})
	}
}

func TestFit_Underdetermined(t *testing.T) {
	tests := map[string][]projection.Point2D{
		"empty":      nil,
		"one":        {{X: 1, Y: 1}},
		"two":        {{X: 1, Y: 1}, {X: 2, Y: 3}},
		"duplicates": {{X: 1, Y: 1}, {X: 1, Y: 1}, {X: 2, Y: 3}},
	}

	for name, points := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Fit(points)
			assert.True(t, errors.Is(err, errs.ErrUnderdetermined), "got %v", err)

			var fitErr *errs.FitError
			require.True(t, errors.As(err, &fitErr))
			assert.Equal(t, "circle", fitErr.Stage)
		})
	}
}

func TestFit_Collinear(t *testing.T) {
	_, err := Fit([]projection.Point2D{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 5, Y: 5}})
	assert.True(t, errors.Is(err, errs.ErrCollinear), "got %v", err)
}

func TestCircle_AngleRoundTrip(t *testing.T) {
	c := Circle{Center: projection.Point2D{X: 1, Y: 2}, Radius: 3}
	for _, theta := range []float64{-3, -1.5, 0, 0.7, 2.5, math.Pi} {
		assert.InDelta(t, theta, c.AngleOf(c.PointAt(theta)), 1e-12)
	}

	theta, onCircle := c.Project(projection.Point2D{X: 1, Y: 10})
	assert.InDelta(t, math.Pi/2, theta, 1e-12)
	assert.InDelta(t, 1.0, onCircle.X, 1e-12)
	assert.InDelta(t, 5.0, onCircle.Y, 1e-12)
}

func TestCircle_Trace(t *testing.T) {
	c := Circle{Center: projection.Point2D{X: -2}, Radius: 4}
	trace := c.Trace(8)
	require.Len(t, trace, 8)
	for _, p := range trace {
		assert.InDelta(t, 4.0, p.Sub(c.Center).Norm(), 1e-12)
	}
	assert.InDelta(t, 2.0, trace[0].X, 1e-12)
	assert.Nil(t, c.Trace(0))
}

func TestClusterCenters(t *testing.T) {
	points := []projection.Point2D{
		{X: 0, Y: 0}, {X: 2, Y: 0},
		{X: 10, Y: 10},
		{X: 100, Y: 100},
		{X: 0, Y: 4}, {X: 0, Y: 6},
	}
	labels := []int{2, 2, 0, -1, 5, 5}

	centers, ordered, err := ClusterCenters(points, labels)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 5}, ordered)
	assert.Equal(t, []projection.Point2D{{X: 10, Y: 10}, {X: 1, Y: 0}, {X: 0, Y: 5}}, centers)

	_, _, err = ClusterCenters(points, labels[:2])
	assert.True(t, errors.Is(err, errs.ErrDimensionMismatch))

	_, _, err = ClusterCenters(points[:1], []int{-1})
	assert.True(t, errors.Is(err, errs.ErrEmptyDataset))
}

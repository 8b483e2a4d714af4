// Package steering moves high-dimensional points along the circular structure that
// their labeled clusters trace in a 2-D projection.
//
// One step projects the point to the plane, takes its angle about the fitted
// circle, advances that angle, and maps the 2-D displacement between the old and
// new on-circle positions back to the input space with the model's Inverse. The
// result is added to the point, scaled by a strength in [0, 1].
package steering

import (
	"fmt"

	"github.com/alDuncanson/manifold/circle"
	"github.com/alDuncanson/manifold/dataset"
	"github.com/alDuncanson/manifold/errs"
	"github.com/alDuncanson/manifold/metrics"
	"github.com/alDuncanson/manifold/projection"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
)

// Step records one application of a steering vector.
type Step struct {
	// Index is the dataset row the walk started from, or -1 for an arbitrary point.
	Index          int
	PreviousPoint  []float64
	SteeringVector []float64
	Point          []float64
	PreviousAngle  float64
	NewAngle       float64
	StepSize       float64
	Direction      Direction
	Strength       float64
}

// Steerer steers points relative to a fitted model and circle. It is read-only
// after construction and safe for concurrent use.
type Steerer struct {
	model     projection.Model
	circle    circle.Circle
	embedding []projection.Point2D
	data      *dataset.Dataset
}

// New returns a Steerer for arbitrary points. Index-based operations need a
// dataset and are only available from Fit.
func New(model projection.Model, c circle.Circle) *Steerer {
	return &Steerer{model: model, circle: c, embedding: model.Embedding()}
}

// Fit fits reducer on ds, fits a circle through the 2-D centers of its labeled
// clusters, and returns the Steerer for that pair.
func Fit(ds *dataset.Dataset, reducer projection.Reducer) (*Steerer, error) {
	model, err := reducer.Fit(ds.Rows())
	if err != nil {
		metrics.Observer.Fit("projection", err)
		return nil, err
	}
	metrics.Observer.Fit(string(model.Method()), nil)

	centers, labels, err := circle.ClusterCenters(model.Embedding(), ds.Labels())
	if err != nil {
		metrics.Observer.Fit("cluster centers", err)
		return nil, err
	}

	fitted, err := circle.Fit(centers)
	metrics.Observer.Fit("circle", err)
	if err != nil {
		return nil, fmt.Errorf("%d clusters %v: %w", len(labels), labels, err)
	}

	log.Debug().
		Str("method", string(model.Method())).
		Int("rows", ds.Len()).
		Int("clusters", len(labels)).
		Stringer("circle", fitted).
		Msg("steerer fitted")

	steerer := New(model, fitted)
	steerer.data = ds
	return steerer, nil
}

// Model is the fitted projection.
func (s *Steerer) Model() projection.Model { return s.model }

// Circle is the fitted circle.
func (s *Steerer) Circle() circle.Circle { return s.circle }

// Dataset is the data the Steerer was fit on, or nil when built with New.
func (s *Steerer) Dataset() *dataset.Dataset { return s.data }

// ProjectToCircle returns the angle of x about the circle center and the point on
// the circle at that angle.
func (s *Steerer) ProjectToCircle(x []float64) (float64, projection.Point2D, error) {
	position, err := s.model.Forward(x)
	if err != nil {
		return 0, projection.Point2D{}, err
	}
	angle, onCircle := s.circle.Project(position)
	return angle, onCircle, nil
}

// SteeringVector returns the input-space displacement that moves x by stepSize
// radians in direction, together with the new angle.
func (s *Steerer) SteeringVector(x []float64, stepSize float64, direction Direction) ([]float64, float64, error) {
	params := Params{StepSize: stepSize, Direction: direction, Strength: 1}
	if err := params.Validate(); err != nil {
		return nil, 0, err
	}
	position, err := s.model.Forward(x)
	if err != nil {
		return nil, 0, err
	}
	vector, _, newAngle, err := s.vectorAt(position, params)
	return vector, newAngle, err
}

// vectorAt computes the steering vector for a point whose 2-D position is known.
func (s *Steerer) vectorAt(position projection.Point2D, params Params) ([]float64, float64, float64, error) {
	previousAngle, onCircle := s.circle.Project(position)
	newAngle := previousAngle + float64(params.Direction)*params.StepSize
	displacement := s.circle.PointAt(newAngle).Sub(onCircle)

	vector, err := s.model.Inverse(displacement)
	if err != nil {
		return nil, 0, 0, err
	}
	return vector, previousAngle, newAngle, nil
}

// apply builds the Step taking x (at the given 2-D position) to x + strength·v.
func (s *Steerer) apply(index int, x []float64, position projection.Point2D, params Params) (Step, error) {
	vector, previousAngle, newAngle, err := s.vectorAt(position, params)
	if err != nil {
		return Step{}, err
	}

	next := make([]float64, len(x))
	floats.AddScaledTo(next, x, params.Strength, vector)
	metrics.Observer.Step(string(s.model.Method()))

	return Step{
		Index:          index,
		PreviousPoint:  append([]float64(nil), x...),
		SteeringVector: vector,
		Point:          next,
		PreviousAngle:  previousAngle,
		NewAngle:       newAngle,
		StepSize:       params.StepSize,
		Direction:      params.Direction,
		Strength:       params.Strength,
	}, nil
}

// Steer applies one step to an arbitrary point and returns the new point.
func (s *Steerer) Steer(x []float64, params Params) ([]float64, Step, error) {
	if err := params.Validate(); err != nil {
		return nil, Step{}, err
	}
	position, err := s.model.Forward(x)
	if err != nil {
		return nil, Step{}, err
	}
	step, err := s.apply(-1, x, position, params)
	if err != nil {
		return nil, Step{}, err
	}
	return step.Point, step, nil
}

// SteerIndex applies one step to dataset row i, taking its angle from the
// embedding computed at fit time.
func (s *Steerer) SteerIndex(i int, params Params) ([]float64, Step, error) {
	if err := params.Validate(); err != nil {
		return nil, Step{}, err
	}
	if err := s.checkIndex(i); err != nil {
		return nil, Step{}, err
	}
	step, err := s.apply(i, s.data.Row(i), s.embedding[i], params)
	if err != nil {
		return nil, Step{}, err
	}
	return step.Point, step, nil
}

// SteerSteps applies n steps starting from x, re-deriving the angle from the
// current point before each one. It returns the n+1 visited points (x first) and
// the n step records.
func (s *Steerer) SteerSteps(x []float64, params Params, n int) ([][]float64, []Step, error) {
	return s.walk(-1, x, params, n)
}

// SteerIndexSteps is SteerSteps starting from dataset row i.
func (s *Steerer) SteerIndexSteps(i int, params Params, n int) ([][]float64, []Step, error) {
	if err := s.checkIndex(i); err != nil {
		return nil, nil, err
	}
	return s.walk(i, s.data.Row(i), params, n)
}

func (s *Steerer) walk(index int, x []float64, params Params, n int) ([][]float64, []Step, error) {
	if err := params.Validate(); err != nil {
		return nil, nil, err
	}
	if err := validateSteps(n); err != nil {
		return nil, nil, err
	}
	if err := s.checkDimension(x); err != nil {
		return nil, nil, err
	}

	points := make([][]float64, 0, n+1)
	steps := make([]Step, 0, n)
	current := append([]float64(nil), x...)
	points = append(points, current)

	for i := 0; i < n; i++ {
		position, err := s.model.Forward(current)
		if err != nil {
			return nil, nil, err
		}
		step, err := s.apply(index, current, position, params)
		if err != nil {
			return nil, nil, fmt.Errorf("step %d: %w", i, err)
		}
		current = step.Point
		points = append(points, append([]float64(nil), current...))
		steps = append(steps, step)
	}

	return points, steps, nil
}

// Path forward-projects each point, typically the output of SteerSteps.
func (s *Steerer) Path(points [][]float64) ([]projection.Point2D, error) {
	path := make([]projection.Point2D, len(points))
	for i, point := range points {
		position, err := s.model.Forward(point)
		if err != nil {
			return nil, fmt.Errorf("path point %d: %w", i, err)
		}
		path[i] = position
	}
	return path, nil
}

func (s *Steerer) checkIndex(i int) error {
	if s.data == nil {
		return errs.InvalidParameter("index", i, "steerer has no dataset")
	}
	if i < 0 || i >= s.data.Len() {
		return errs.InvalidParameter("index", i, fmt.Sprintf("must be in [0, %d)", s.data.Len()))
	}
	return nil
}

func (s *Steerer) checkDimension(x []float64) error {
	if len(x) != s.model.InputDim() {
		return errs.Projection("steer", s.model.InputDim(), len(x))
	}
	return nil
}

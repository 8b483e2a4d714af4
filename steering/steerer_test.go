package steering

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/alDuncanson/manifold/circle"
	"github.com/alDuncanson/manifold/dataset"
	"github.com/alDuncanson/manifold/errs"
	"github.com/alDuncanson/manifold/projection"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func threeClusters(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, _, err := dataset.GenerateCircularClusters(dataset.CircularClusters{
		Samples:    300,
		Clusters:   3,
		Dimension:  10,
		Radius:     5,
		ClusterStd: 0.1,
		Seed:       7,
	})
	require.NoError(t, err)
	return ds
}

func fitPCA(t *testing.T) *Steerer {
	t.Helper()
	steerer, err := Fit(threeClusters(t), projection.PCA{})
	require.NoError(t, err)
	return steerer
}

// onCircle returns an input-space point whose projection lies exactly on the
// fitted circle at angle theta.
func onCircle(t *testing.T, s *Steerer, theta float64) []float64 {
	t.Helper()
	base := s.Dataset().Row(0)
	embedding := s.Model().Embedding()[0]

	offset, err := s.Model().Inverse(s.Circle().PointAt(theta).Sub(embedding))
	require.NoError(t, err)
	for j := range base {
		base[j] += offset[j]
	}
	return base
}

func wrap(angle float64) float64 {
	return math.Remainder(angle, 2*math.Pi)
}

func TestFit_RecoversCircle(t *testing.T) {
	steerer := fitPCA(t)

	fitted := steerer.Circle()
	assert.InDelta(t, 0.0, fitted.Center.X, 0.05)
	assert.InDelta(t, 0.0, fitted.Center.Y, 0.05)
	assert.InDelta(t, 5.0, fitted.Radius, 0.05)
	assert.True(t, steerer.Model().ExactInverse())
}

func TestSteerIndex_OneStep(t *testing.T) {
	steerer := fitPCA(t)
	params := Params{StepSize: 0.1, Direction: Counterclockwise, Strength: 1}

	for _, index := range []int{0, 120, 250} {
		point, step, err := steerer.SteerIndex(index, params)
		require.NoError(t, err)

		assert.Equal(t, index, step.Index)
		assert.Equal(t, step.PreviousAngle+0.1, step.NewAngle)
		assert.Equal(t, steerer.Dataset().Row(index), step.PreviousPoint)

		angle, _, err := steerer.ProjectToCircle(point)
		require.NoError(t, err)
		assert.InDelta(t, 0.0, wrap(angle-step.NewAngle), 0.02, "row %d", index)
	}
}

func TestSteeringVector_ZeroStepIsZero(t *testing.T) {
	steerer := fitPCA(t)
	x := steerer.Dataset().Row(42)

	before, _, err := steerer.ProjectToCircle(x)
	require.NoError(t, err)

	vector, newAngle, err := steerer.SteeringVector(x, 0, Clockwise)
	require.NoError(t, err)
	assert.Equal(t, before, newAngle)
	for _, value := range vector {
		assert.InDelta(t, 0.0, value, 1e-12)
	}
}

func TestSteer_DirectionSymmetry(t *testing.T) {
	steerer := fitPCA(t)
	x := onCircle(t, steerer, 0.7)

	angle, _, err := steerer.ProjectToCircle(x)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, angle, 1e-9)

	forward, _, err := steerer.Steer(x, Params{StepSize: 0.3, Direction: Counterclockwise, Strength: 1})
	require.NoError(t, err)
	back, step, err := steerer.Steer(forward, Params{StepSize: 0.3, Direction: Clockwise, Strength: 1})
	require.NoError(t, err)

	assert.Equal(t, -1, step.Index)
	assert.InDelta(t, 1.0, step.PreviousAngle, 1e-9)
	assert.InDelta(t, 0.7, step.NewAngle, 1e-9)
	for j := range x {
		assert.InDelta(t, x[j], back[j], 1e-9)
	}
}

func TestSteerSteps_FollowsCircle(t *testing.T) {
	steerer := fitPCA(t)
	x := onCircle(t, steerer, -2)

	points, steps, err := steerer.SteerSteps(x, Params{StepSize: 0.25, Direction: Counterclockwise, Strength: 1}, 8)
	require.NoError(t, err)
	require.Len(t, points, 9)
	require.Len(t, steps, 8)

	path, err := steerer.Path(points)
	require.NoError(t, err)
	fitted := steerer.Circle()
	for i, position := range path {
		assert.InDelta(t, fitted.Radius, position.Sub(fitted.Center).Norm(), 1e-9, "point %d", i)
		assert.InDelta(t, 0.0, wrap(fitted.AngleOf(position)-(-2+0.25*float64(i))), 1e-9, "point %d", i)
	}
	for i, step := range steps {
		assert.Equal(t, points[i], step.PreviousPoint)
		assert.Equal(t, points[i+1], step.Point)
	}
}

func TestSteerIndexSteps_ZeroStrength(t *testing.T) {
	steerer := fitPCA(t)
	params := DefaultParams()
	params.Strength = 0

	points, steps, err := steerer.SteerIndexSteps(10, params, 5)
	require.NoError(t, err)
	require.Len(t, points, 6)
	require.Len(t, steps, 5)
	for _, point := range points {
		assert.Equal(t, steerer.Dataset().Row(10), point)
	}
}

func TestSteerSteps_ZeroSteps(t *testing.T) {
	steerer := fitPCA(t)
	x := steerer.Dataset().Row(3)

	points, steps, err := steerer.SteerSteps(x, DefaultParams(), 0)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{x}, points)
	assert.Empty(t, steps)
}

func TestParams_Validation(t *testing.T) {
	steerer := fitPCA(t)
	x := steerer.Dataset().Row(0)

	tests := []struct {
		name   string
		params Params
		steps  int
		field  string
	}{
		{"direction zero", Params{StepSize: 0.1, Direction: 0, Strength: 0.5}, 1, "direction"},
		{"direction two", Params{StepSize: 0.1, Direction: 2, Strength: 0.5}, 1, "direction"},
		{"strength high", Params{StepSize: 0.1, Direction: Clockwise, Strength: 1.5}, 1, "strength"},
		{"strength negative", Params{StepSize: 0.1, Direction: Clockwise, Strength: -0.1}, 1, "strength"},
		{"step NaN", Params{StepSize: math.NaN(), Direction: Clockwise, Strength: 0.5}, 1, "step size"},
		{"step Inf", Params{StepSize: math.Inf(1), Direction: Clockwise, Strength: 0.5}, 1, "step size"},
		{"negative steps", DefaultParams(), -1, "steps"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := steerer.SteerSteps(x, tc.params, tc.steps)
			var invalid *errs.InvalidParameterError
			require.True(t, errors.As(err, &invalid), "got %v", err)
			assert.Equal(t, tc.field, invalid.Name)
		})
	}
}

func TestSteer_DimensionMismatch(t *testing.T) {
	steerer := fitPCA(t)

	_, _, err := steerer.Steer([]float64{1, 2, 3}, DefaultParams())
	var projectionErr *errs.ProjectionError
	require.True(t, errors.As(err, &projectionErr))
	assert.Equal(t, 10, projectionErr.Want)

	_, _, err = steerer.SteerSteps([]float64{1}, DefaultParams(), 2)
	assert.True(t, errors.Is(err, errs.ErrDimensionMismatch))

	_, err = steerer.Path([][]float64{{1, 2}})
	assert.True(t, errors.Is(err, errs.ErrDimensionMismatch))
}

func TestSteerIndex_NeedsDataset(t *testing.T) {
	fitted := fitPCA(t)
	bare := New(fitted.Model(), fitted.Circle())

	_, _, err := bare.SteerIndex(0, DefaultParams())
	var invalid *errs.InvalidParameterError
	assert.True(t, errors.As(err, &invalid))

	_, _, err = fitted.SteerIndex(300, DefaultParams())
	assert.True(t, errors.As(err, &invalid))

	_, _, err = fitted.SteerIndexSteps(-1, DefaultParams(), 1)
	assert.True(t, errors.As(err, &invalid))

	// Arbitrary points still work without a dataset.
	_, _, err = bare.Steer(fitted.Dataset().Row(0), DefaultParams())
	assert.NoError(t, err)
}

func TestFit_NoLabeledClusters(t *testing.T) {
	ds := threeClusters(t)
	labels := make([]int, ds.Len())
	for i := range labels {
		labels[i] = dataset.Unlabeled
	}
	unlabeled, err := ds.WithLabels(labels)
	require.NoError(t, err)

	before := fitCount(t, "cluster centers", "error")
	_, err = Fit(unlabeled, projection.PCA{})
	assert.True(t, errors.Is(err, errs.ErrEmptyDataset))
	assert.Equal(t, before+1, fitCount(t, "cluster centers", "error"))
}

// fitCount reads manifold_fits_total for one stage and outcome from the default
// registry.
func fitCount(t *testing.T, stage, outcome string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "manifold_fits_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			labels := make(map[string]string)
			for _, pair := range metric.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			if labels["stage"] == stage && labels["outcome"] == outcome {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestFit_TwoClustersIsUnderdetermined(t *testing.T) {
	ds := threeClusters(t)
	labels := ds.Labels()
	for i, label := range labels {
		if label == 2 {
			labels[i] = 1
		}
	}
	twoClusters, err := ds.WithLabels(labels)
	require.NoError(t, err)

	_, err = Fit(twoClusters, projection.PCA{})
	assert.True(t, errors.Is(err, errs.ErrUnderdetermined))
}

func TestSteer_KernelModels(t *testing.T) {
	ds := threeClusters(t)
	reducers := map[string]projection.Reducer{
		"kernel surrogate": projection.DefaultKernelPCA(),
		"kernel ridge": projection.KernelPCA{
			Kernel: projection.KernelRBF, Degree: 3, Coef0: 1, Alpha: 1, Inverse: projection.InverseRidge,
		},
		"umap": projection.UMAP{
			NNeighbors: 10, MinDist: 0.1, Spread: 1, NEpochs: 30, LearningRate: 1, NegativeSampleRate: 5, RandomSeed: 1,
		},
	}

	for name, reducer := range reducers {
		t.Run(name, func(t *testing.T) {
			steerer, err := Fit(ds, reducer)
			require.NoError(t, err)
			assert.False(t, steerer.Model().ExactInverse())

			params := DefaultParams()
			params.Strength = 0
			points, _, err := steerer.SteerIndexSteps(5, params, 3)
			require.NoError(t, err)
			for _, point := range points {
				assert.Equal(t, ds.Row(5), point)
			}

			vector, _, err := steerer.SteeringVector(ds.Row(5), 0, Counterclockwise)
			require.NoError(t, err)
			for _, value := range vector {
				assert.InDelta(t, 0.0, value, 1e-9)
			}
		})
	}
}

func TestSteer_KernelDirectionSymmetry(t *testing.T) {
	ds := threeClusters(t)
	kernels := []projection.Kernel{projection.KernelRBF, projection.KernelPoly, projection.KernelCosine}

	for _, kernel := range kernels {
		t.Run(string(kernel), func(t *testing.T) {
			reducer := projection.DefaultKernelPCA()
			reducer.Kernel = kernel
			steerer, err := Fit(ds, reducer)
			require.NoError(t, err)

			start := ds.Row(5)
			vector, _, err := steerer.SteeringVector(start, 0.2, Counterclockwise)
			require.NoError(t, err)
			assert.Greater(t, floats.Norm(vector, 2), 1e-6, "a non-zero step moves the point")

			startAngle, _, err := steerer.ProjectToCircle(start)
			require.NoError(t, err)

			forward, _, err := steerer.Steer(start, Params{StepSize: 0.2, Direction: Counterclockwise, Strength: 1})
			require.NoError(t, err)
			assert.NotEqual(t, start, forward)

			back, _, err := steerer.Steer(forward, Params{StepSize: 0.2, Direction: Clockwise, Strength: 1})
			require.NoError(t, err)
			backAngle, _, err := steerer.ProjectToCircle(back)
			require.NoError(t, err)

			assert.InDelta(t, 0.0, wrap(backAngle-startAngle), 0.02, "opposite steps cancel")
		})
	}

	// the cosine kernel follows the angle closely
	reducer := projection.DefaultKernelPCA()
	reducer.Kernel = projection.KernelCosine
	steerer, err := Fit(ds, reducer)
	require.NoError(t, err)
	startAngle, _, err := steerer.ProjectToCircle(ds.Row(5))
	require.NoError(t, err)
	forward, _, err := steerer.Steer(ds.Row(5), Params{StepSize: 0.2, Direction: Counterclockwise, Strength: 1})
	require.NoError(t, err)
	forwardAngle, _, err := steerer.ProjectToCircle(forward)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, wrap(forwardAngle-startAngle), 0.05)
}

func TestSteerer_ConcurrentUse(t *testing.T) {
	steerer := fitPCA(t)
	want, _, err := steerer.SteerIndexSteps(7, DefaultParams(), 4)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][][]float64, 8)
	for g := range results {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			results[g], _, _ = steerer.SteerIndexSteps(7, DefaultParams(), 4)
		}(g)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestNew_UsesGivenCircle(t *testing.T) {
	fitted := fitPCA(t)
	custom := circle.Circle{Center: projection.Point2D{X: 1}, Radius: 2}
	steerer := New(fitted.Model(), custom)
	assert.Equal(t, custom, steerer.Circle())
	assert.Nil(t, steerer.Dataset())
}

func TestDirection_String(t *testing.T) {
	assert.Equal(t, "counterclockwise", Counterclockwise.String())
	assert.Equal(t, "clockwise", Clockwise.String())
	assert.Equal(t, "invalid", Direction(3).String())
}

package projection

import (
	"errors"
	"math"
	"testing"

	"github.com/alDuncanson/manifold/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func centeredPlanarRows(n, dimension int) [][]float64 {
	rows := planarRows(n, dimension)
	for _, row := range rows {
		for j := range row {
			row[j] -= float64(j)
		}
	}
	return rows
}

func TestFitKernelPCA_TrainingRowsForwardToEmbedding(t *testing.T) {
	for _, kernel := range []Kernel{KernelRBF, KernelCosine, KernelSigmoid, KernelPoly, KernelLinear} {
		t.Run(string(kernel), func(t *testing.T) {
			config := DefaultKernelPCA()
			config.Kernel = kernel
			rows := centeredPlanarRows(30, 6)

			model, err := FitKernelPCA(rows, config)
			require.NoError(t, err)
			assert.False(t, model.ExactInverse())
			assert.Equal(t, MethodKernelPCA, model.Method())

			embedding := model.Embedding()
			for i, row := range rows {
				point, err := model.Forward(row)
				require.NoError(t, err)
				assert.InDelta(t, embedding[i].X, point.X, 1e-8)
				assert.InDelta(t, embedding[i].Y, point.Y, 1e-8)
			}
		})
	}
}

func TestFitKernelPCA_LinearKernelMatchesPCA(t *testing.T) {
	rows := planarRows(40, 8)

	config := DefaultKernelPCA()
	config.Kernel = KernelLinear
	kernelModel, err := FitKernelPCA(rows, config)
	require.NoError(t, err)

	linearModel, err := FitPCA(rows, PCA{})
	require.NoError(t, err)

	kernelEmbedding := kernelModel.Embedding()
	linearEmbedding := linearModel.Embedding()
	for i := range rows {
		assert.InDelta(t, math.Abs(linearEmbedding[i].X), math.Abs(kernelEmbedding[i].X), 1e-6)
		assert.InDelta(t, math.Abs(linearEmbedding[i].Y), math.Abs(kernelEmbedding[i].Y), 1e-6)
	}
}

func TestKernelPCAModel_InverseStrategies(t *testing.T) {
	for _, strategy := range []InverseStrategy{InverseSurrogate, InverseRidge} {
		t.Run(string(strategy), func(t *testing.T) {
			config := DefaultKernelPCA()
			config.Inverse = strategy
			config.Standardize = true
			model, err := FitKernelPCA(planarRows(25, 6), config)
			require.NoError(t, err)
			assert.Equal(t, strategy, model.InverseStrategy())

			zero, err := model.Inverse(Point2D{})
			require.NoError(t, err)
			require.Len(t, zero, 6)
			for _, value := range zero {
				assert.InDelta(t, 0.0, value, 1e-12)
			}

			displacement, err := model.Inverse(Point2D{X: 0.3, Y: -0.2})
			require.NoError(t, err)
			require.Len(t, displacement, 6)
			for _, value := range displacement {
				assert.False(t, math.IsNaN(value) || math.IsInf(value, 0))
			}
		})
	}
}

func TestKernelPCAModel_Preimage(t *testing.T) {
	model, err := FitKernelPCA(planarRows(25, 6), DefaultKernelPCA())
	require.NoError(t, err)

	preimage := model.Preimage(model.Embedding()[0])
	require.Len(t, preimage, 6)
	for _, value := range preimage {
		assert.False(t, math.IsNaN(value))
	}
}

func TestKernelPCAModel_ForwardDimensionMismatch(t *testing.T) {
	model, err := FitKernelPCA(planarRows(12, 4), DefaultKernelPCA())
	require.NoError(t, err)

	_, err = model.Forward([]float64{1, 2})
	assert.True(t, errors.Is(err, errs.ErrDimensionMismatch))
}

func TestFitKernelPCA_Errors(t *testing.T) {
	_, err := FitKernelPCA([][]float64{{1, 2}, {3, 4}}, DefaultKernelPCA())
	assert.True(t, errors.Is(err, errs.ErrDegenerate))

	config := DefaultKernelPCA()
	config.Kernel = "laplacian"
	_, err = FitKernelPCA(planarRows(10, 4), config)
	var invalid *errs.InvalidParameterError
	assert.True(t, errors.As(err, &invalid))

	config = DefaultKernelPCA()
	config.Kernel = KernelPoly
	config.Degree = 0
	_, err = FitKernelPCA(planarRows(10, 4), config)
	assert.True(t, errors.As(err, &invalid))

	config = DefaultKernelPCA()
	config.Inverse = "exact"
	_, err = FitKernelPCA(planarRows(10, 4), config)
	assert.True(t, errors.As(err, &invalid))
}

func TestParseKernelAndStrategy(t *testing.T) {
	kernel, err := ParseKernel("RBF")
	require.NoError(t, err)
	assert.Equal(t, KernelRBF, kernel)

	_, err = ParseKernel("gaussian")
	assert.Error(t, err)

	strategy, err := ParseInverseStrategy("ridge")
	require.NoError(t, err)
	assert.Equal(t, InverseRidge, strategy)

	_, err = ParseInverseStrategy("")
	assert.Error(t, err)
}

// # Kernel PCA
//
// Kernel PCA performs PCA in the feature space induced by a kernel k(x, y) without
// ever materializing that space:
//
//  1. Build the kernel matrix K_ij = k(x_i, x_j) over the training rows
//  2. Double-center it: Kc = K − 1K − K1 + 1K1
//  3. Take the top two eigenpairs (λ, α) of Kc
//  4. Training coordinates are α·√λ; a new point projects as kc(x)·α/√λ
//
// There is no exact pre-image for most kernel maps. Two documented approximations
// are offered for mapping a 2-D displacement back to the input space; see
// InverseStrategy.
package projection

import (
	"fmt"
	"math"
	"strings"

	"github.com/alDuncanson/manifold/errs"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Kernel names a kernel function.
type Kernel string

const (
	KernelRBF     Kernel = "rbf"
	KernelCosine  Kernel = "cosine"
	KernelSigmoid Kernel = "sigmoid"
	KernelPoly    Kernel = "poly"
	KernelLinear  Kernel = "linear"
)

// ParseKernel resolves a user-supplied kernel name.
func ParseKernel(name string) (Kernel, error) {
	kernel := Kernel(strings.ToLower(strings.TrimSpace(name)))
	switch kernel {
	case KernelRBF, KernelCosine, KernelSigmoid, KernelPoly, KernelLinear:
		return kernel, nil
	default:
		return "", errs.InvalidParameter("kernel", name, "expected rbf, cosine, sigmoid, poly or linear")
	}
}

// InverseStrategy selects how a kernel model maps displacements back.
type InverseStrategy string

const (
	// InverseSurrogate uses the least-squares linear map from embedding to inputs.
	InverseSurrogate InverseStrategy = "surrogate"
	// InverseRidge applies the learned kernel-ridge pre-image map to the displacement,
	// anchored at the origin: Preimage(d) − Preimage(0).
	InverseRidge InverseStrategy = "ridge"
)

// ParseInverseStrategy resolves a user-supplied strategy name.
func ParseInverseStrategy(name string) (InverseStrategy, error) {
	strategy := InverseStrategy(strings.ToLower(strings.TrimSpace(name)))
	switch strategy {
	case InverseSurrogate, InverseRidge:
		return strategy, nil
	default:
		return "", errs.InvalidParameter("inverse strategy", name, "expected surrogate or ridge")
	}
}

// KernelPCA is the kernel Reducer.
type KernelPCA struct {
	Kernel Kernel
	// Gamma scales rbf, sigmoid and poly kernels. Zero means 1/dimension.
	Gamma float64
	// Degree of the poly kernel.
	Degree int
	// Coef0 is the additive constant of the sigmoid and poly kernels.
	Coef0 float64
	// Alpha is the ridge regularization of the learned pre-image map.
	Alpha       float64
	Standardize bool
	Inverse     InverseStrategy
}

// DefaultKernelPCA returns an rbf kernel PCA with the surrogate inverse.
func DefaultKernelPCA() KernelPCA {
	return KernelPCA{
		Kernel:  KernelRBF,
		Degree:  3,
		Coef0:   1,
		Alpha:   1,
		Inverse: InverseSurrogate,
	}
}

// Fit implements Reducer.
func (reducer KernelPCA) Fit(rows [][]float64) (Model, error) {
	model, err := FitKernelPCA(rows, reducer)
	if err != nil {
		return nil, err
	}
	return model, nil
}

// KernelPCAModel is a fitted kernel projection. Its Inverse is approximate.
type KernelPCAModel struct {
	config          KernelPCA
	kernel          kernelFunc
	scaler          *scaler
	training        [][]float64 // standardized training rows
	coefficients    [2][]float64
	kernelColMeans  []float64
	kernelMean      float64
	embedding       []Point2D
	surrogate       *linearSurrogate
	preimageWeights *mat.Dense // n × dimension ridge dual coefficients
	preimageOrigin  []float64
}

type kernelFunc func(a, b []float64) float64

func (config KernelPCA) kernelFunc(dimension int) (kernelFunc, error) {
	gamma := config.Gamma
	if gamma == 0 {
		gamma = 1 / float64(dimension)
	}

	switch config.Kernel {
	case KernelRBF:
		return func(a, b []float64) float64 {
			return math.Exp(-gamma * squaredEuclidean(a, b))
		}, nil
	case KernelCosine:
		return func(a, b []float64) float64 {
			normProduct := floats.Norm(a, 2) * floats.Norm(b, 2)
			if normProduct == 0 {
				return 0
			}
			return floats.Dot(a, b) / normProduct
		}, nil
	case KernelSigmoid:
		return func(a, b []float64) float64 {
			return math.Tanh(gamma*floats.Dot(a, b) + config.Coef0)
		}, nil
	case KernelPoly:
		if config.Degree < 1 {
			return nil, errs.InvalidParameter("poly degree", config.Degree, "must be at least 1")
		}
		degree := float64(config.Degree)
		return func(a, b []float64) float64 {
			return math.Pow(gamma*floats.Dot(a, b)+config.Coef0, degree)
		}, nil
	case KernelLinear:
		return floats.Dot, nil
	default:
		return nil, errs.InvalidParameter("kernel", string(config.Kernel), "unknown kernel")
	}
}

// FitKernelPCA fits a two-component kernel PCA on rows.
func FitKernelPCA(rows [][]float64, config KernelPCA) (*KernelPCAModel, error) {
	numberOfRows, dimension, err := validateRows("kernel pca", rows, 3)
	if err != nil {
		return nil, err
	}
	if config.Inverse == "" {
		config.Inverse = InverseSurrogate
	}
	if _, err := ParseInverseStrategy(string(config.Inverse)); err != nil {
		return nil, err
	}
	if config.Alpha < 0 {
		return nil, errs.InvalidParameter("ridge alpha", config.Alpha, "must be non-negative")
	}

	kernel, err := config.kernelFunc(dimension)
	if err != nil {
		return nil, err
	}

	fittedScaler := newScaler(rows, config.Standardize)
	inputs := fittedScaler.transformRows(rows)
	training := make([][]float64, numberOfRows)
	for rowIndex := range training {
		training[rowIndex] = inputs.RawRowView(rowIndex)
	}

	model := &KernelPCAModel{
		config:   config,
		kernel:   kernel,
		scaler:   fittedScaler,
		training: training,
	}

	// Step 1: Kernel matrix and its column means
	kernelMatrix := mat.NewSymDense(numberOfRows, nil)
	for i := 0; i < numberOfRows; i++ {
		for j := i; j < numberOfRows; j++ {
			kernelMatrix.SetSym(i, j, kernel(training[i], training[j]))
		}
	}
	model.kernelColMeans = make([]float64, numberOfRows)
	for i := 0; i < numberOfRows; i++ {
		for j := 0; j < numberOfRows; j++ {
			model.kernelColMeans[j] += kernelMatrix.At(i, j)
		}
	}
	floats.Scale(1/float64(numberOfRows), model.kernelColMeans)
	model.kernelMean = floats.Sum(model.kernelColMeans) / float64(numberOfRows)

	// Step 2: Double-center
	centeredKernel := mat.NewSymDense(numberOfRows, nil)
	for i := 0; i < numberOfRows; i++ {
		for j := i; j < numberOfRows; j++ {
			value := kernelMatrix.At(i, j) - model.kernelColMeans[i] - model.kernelColMeans[j] + model.kernelMean
			centeredKernel.SetSym(i, j, value)
		}
	}

	// Step 3: Top two eigenpairs
	var eigen mat.EigenSym
	if ok := eigen.Factorize(centeredKernel, true); !ok {
		return nil, errs.Fit("kernel pca", fmt.Errorf("eigendecomposition: %w", errs.ErrNotConverged))
	}
	eigenvalues := eigen.Values(nil)
	var eigenvectors mat.Dense
	eigen.VectorsTo(&eigenvectors)

	largest := eigenvalues[numberOfRows-1]
	if largest <= 0 || eigenvalues[numberOfRows-2] <= degenerateTolerance*largest {
		return nil, errs.Fit("kernel pca", fmt.Errorf("centered kernel has fewer than 2 positive eigenvalues: %w", errs.ErrDegenerate))
	}

	// Step 4: Embedding α√λ and out-of-sample coefficients α/√λ
	model.embedding = make([]Point2D, numberOfRows)
	for component := 0; component < 2; component++ {
		eigenvalue := eigenvalues[numberOfRows-1-component]
		alpha := mat.Col(nil, numberOfRows-1-component, &eigenvectors)
		flipSign(alpha)

		root := math.Sqrt(eigenvalue)
		model.coefficients[component] = make([]float64, numberOfRows)
		for rowIndex, value := range alpha {
			model.coefficients[component][rowIndex] = value / root
			if component == 0 {
				model.embedding[rowIndex].X = value * root
			} else {
				model.embedding[rowIndex].Y = value * root
			}
		}
	}

	// Step 5: Inverse maps
	model.surrogate, err = fitLinearSurrogate("kernel pca", model.embedding, inputs)
	if err != nil {
		return nil, err
	}
	if err := model.fitPreimage(inputs); err != nil {
		return nil, err
	}

	return model, nil
}

// fitPreimage learns the kernel-ridge map from embedding coordinates to standardized
// inputs: dual = (K_z + αI)⁻¹ X.
func (model *KernelPCAModel) fitPreimage(inputs *mat.Dense) error {
	numberOfRows := len(model.embedding)
	embeddingKernel := mat.NewSymDense(numberOfRows, nil)
	for i := 0; i < numberOfRows; i++ {
		for j := i; j < numberOfRows; j++ {
			value := model.kernel(model.embedding[i].slice(), model.embedding[j].slice())
			if i == j {
				value += model.config.Alpha
			}
			embeddingKernel.SetSym(i, j, value)
		}
	}

	weights := new(mat.Dense)
	var cholesky mat.Cholesky
	if cholesky.Factorize(embeddingKernel) {
		if err := cholesky.SolveTo(weights, inputs); err != nil {
			return errs.Fit("kernel pca", fmt.Errorf("pre-image ridge: %v: %w", err, errs.ErrDegenerate))
		}
	} else if err := weights.Solve(embeddingKernel, inputs); err != nil {
		// Non-PSD kernels (sigmoid) fall through to a general solve.
		return errs.Fit("kernel pca", fmt.Errorf("pre-image ridge: %v: %w", err, errs.ErrDegenerate))
	}

	model.preimageWeights = weights
	model.preimageOrigin = model.standardizedPreimage(Point2D{})
	return nil
}

// Method implements Model.
func (model *KernelPCAModel) Method() Method { return MethodKernelPCA }

// InputDim implements Model.
func (model *KernelPCAModel) InputDim() int { return len(model.training[0]) }

// ExactInverse implements Model; kernel pre-images are approximate.
func (model *KernelPCAModel) ExactInverse() bool { return false }

// Embedding implements Model.
func (model *KernelPCAModel) Embedding() []Point2D { return copyPoints(model.embedding) }

// Kernel reports the kernel the model was fit with.
func (model *KernelPCAModel) Kernel() Kernel { return model.config.Kernel }

// InverseStrategy reports how Inverse approximates displacements.
func (model *KernelPCAModel) InverseStrategy() InverseStrategy { return model.config.Inverse }

// Forward implements Model using the centered kernel row against the training set.
func (model *KernelPCAModel) Forward(vector []float64) (Point2D, error) {
	if err := checkDimension("kernel pca forward", model.InputDim(), vector); err != nil {
		return Point2D{}, err
	}
	standardized := model.scaler.transform(vector)

	kernelRow := make([]float64, len(model.training))
	for j, trainingRow := range model.training {
		kernelRow[j] = model.kernel(standardized, trainingRow)
	}
	rowMean := floats.Sum(kernelRow) / float64(len(kernelRow))
	for j := range kernelRow {
		kernelRow[j] += model.kernelMean - rowMean - model.kernelColMeans[j]
	}

	return Point2D{
		X: floats.Dot(kernelRow, model.coefficients[0]),
		Y: floats.Dot(kernelRow, model.coefficients[1]),
	}, nil
}

// Inverse implements Model with the configured InverseStrategy. The result is only
// directionally meaningful; see ExactInverse.
func (model *KernelPCAModel) Inverse(displacement Point2D) ([]float64, error) {
	if model.config.Inverse == InverseRidge {
		out := model.standardizedPreimage(displacement)
		floats.Sub(out, model.preimageOrigin)
		model.scaler.unscaleDisplacement(out)
		return out, nil
	}
	return model.surrogate.inverse(displacement, model.scaler), nil
}

// Preimage reconstructs an approximate input-space position for a 2-D position.
func (model *KernelPCAModel) Preimage(position Point2D) []float64 {
	out := model.standardizedPreimage(position)
	model.scaler.unscale(out)
	return out
}

func (model *KernelPCAModel) standardizedPreimage(position Point2D) []float64 {
	_, dimension := model.preimageWeights.Dims()
	out := make([]float64, dimension)
	query := position.slice()
	for j, trainingPoint := range model.embedding {
		weight := model.kernel(query, trainingPoint.slice())
		floats.AddScaled(out, weight, model.preimageWeights.RawRowView(j))
	}
	return out
}

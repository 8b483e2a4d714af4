// # Principal Component Analysis (PCA)
//
// PCA reduces high-dimensional data down to the plane while preserving as much
// variance as possible. Most structured data lies on or near a lower-dimensional
// subspace, and PCA finds that subspace as the directions along which the data
// varies the most.
//
// We compute it with the Singular Value Decomposition of the centered data matrix
// rather than an eigendecomposition of the covariance matrix:
//   - X = U * Σ * V^T  (SVD decomposition)
//   - The columns of V are the principal components
//   - Projecting: X_projected = X * V[:, 0:2]
//
// Because the projection is a linear map with orthonormal rows W, the inverse of a
// 2-D displacement d is exactly d * W: it is the unique displacement lying in the
// principal plane that projects to d.
package projection

import (
	"fmt"
	"math"

	"github.com/alDuncanson/manifold/errs"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// degenerateTolerance is the relative singular value (or eigenvalue) below which a
// component is treated as absent.
const degenerateTolerance = 1e-10

// PCA is the linear Reducer.
type PCA struct {
	// Standardize z-scores every feature before the projection is fit.
	Standardize bool
}

// Fit implements Reducer.
func (reducer PCA) Fit(rows [][]float64) (Model, error) {
	model, err := FitPCA(rows, reducer)
	if err != nil {
		return nil, err
	}
	return model, nil
}

// PCAModel is a fitted linear projection. Its Inverse is exact.
type PCAModel struct {
	scaler                 *scaler
	mean                   []float64
	components             *mat.Dense // 2 × dimension, orthonormal rows
	explainedVarianceRatio [2]float64
	embedding              []Point2D
}

// FitPCA fits a two-component PCA on rows.
func FitPCA(rows [][]float64, config PCA) (*PCAModel, error) {
	numberOfRows, dimension, err := validateRows("pca", rows, 2)
	if err != nil {
		return nil, err
	}

	// Step 1: Standardize (optional) into a dense matrix
	fittedScaler := newScaler(rows, config.Standardize)
	dataMatrix := fittedScaler.transformRows(rows)

	// Step 2: Center the data by subtracting the mean of each dimension
	columnMeans := calculateColumnMeans(dataMatrix, dimension)
	centerDataMatrix(dataMatrix, columnMeans)

	// Step 3: Compute SVD and extract the top 2 principal components
	components, singularValues, err := computePrincipalComponents(dataMatrix, numberOfRows, dimension)
	if err != nil {
		return nil, err
	}

	model := &PCAModel{
		scaler:     fittedScaler,
		mean:       columnMeans,
		components: components,
	}

	var totalVariance float64
	for _, value := range singularValues {
		totalVariance += value * value
	}
	for i := 0; i < 2; i++ {
		model.explainedVarianceRatio[i] = singularValues[i] * singularValues[i] / totalVariance
	}

	// Step 4: Project the centered data onto the principal plane
	var projected mat.Dense
	projected.Mul(dataMatrix, components.T())
	model.embedding = make([]Point2D, numberOfRows)
	for rowIndex := range model.embedding {
		model.embedding[rowIndex] = Point2D{X: projected.At(rowIndex, 0), Y: projected.At(rowIndex, 1)}
	}

	return model, nil
}

// calculateColumnMeans computes the arithmetic mean of each column (dimension) in the matrix.
func calculateColumnMeans(dataMatrix *mat.Dense, dimension int) []float64 {
	numberOfRows, _ := dataMatrix.Dims()
	columnMeans := make([]float64, dimension)
	for rowIndex := 0; rowIndex < numberOfRows; rowIndex++ {
		floats.Add(columnMeans, dataMatrix.RawRowView(rowIndex))
	}
	floats.Scale(1/float64(numberOfRows), columnMeans)
	return columnMeans
}

// centerDataMatrix subtracts columnMeans from every row in place, so the first
// principal component passes through the centroid of the data.
func centerDataMatrix(dataMatrix *mat.Dense, columnMeans []float64) {
	numberOfRows, _ := dataMatrix.Dims()
	for rowIndex := 0; rowIndex < numberOfRows; rowIndex++ {
		floats.Sub(dataMatrix.RawRowView(rowIndex), columnMeans)
	}
}

// computePrincipalComponents factorizes the centered data and returns the first two
// right singular vectors as the rows of a 2 × dimension matrix, along with all
// singular values in decreasing order.
//
// Component signs are fixed so that the largest-magnitude entry of each component is
// positive. That keeps the projection deterministic across LAPACK implementations.
func computePrincipalComponents(centered *mat.Dense, numberOfRows, dimension int) (*mat.Dense, []float64, error) {
	var svdDecomposition mat.SVD
	if ok := svdDecomposition.Factorize(centered, mat.SVDThin); !ok {
		return nil, nil, errs.Fit("pca", fmt.Errorf("svd factorization: %w", errs.ErrNotConverged))
	}

	singularValues := svdDecomposition.Values(nil)
	if len(singularValues) < 2 || singularValues[0] == 0 ||
		singularValues[1] <= degenerateTolerance*singularValues[0] {
		return nil, nil, errs.Fit("pca", fmt.Errorf("data spans fewer than 2 dimensions: %w", errs.ErrDegenerate))
	}

	var rightSingularVectors mat.Dense
	svdDecomposition.VTo(&rightSingularVectors)

	components := mat.NewDense(2, dimension, nil)
	for componentIndex := 0; componentIndex < 2; componentIndex++ {
		row := components.RawRowView(componentIndex)
		mat.Col(row, componentIndex, &rightSingularVectors)
		flipSign(row)
	}

	return components, singularValues, nil
}

// flipSign negates vector in place if its largest-magnitude entry is negative.
func flipSign(vector []float64) {
	largest := 0
	for i, value := range vector {
		if math.Abs(value) > math.Abs(vector[largest]) {
			largest = i
		}
	}
	if vector[largest] < 0 {
		floats.Scale(-1, vector)
	}
}

// Method implements Model.
func (model *PCAModel) Method() Method { return MethodPCA }

// InputDim implements Model.
func (model *PCAModel) InputDim() int { return len(model.mean) }

// ExactInverse implements Model; the linear inverse is exact.
func (model *PCAModel) ExactInverse() bool { return true }

// Embedding implements Model.
func (model *PCAModel) Embedding() []Point2D { return copyPoints(model.embedding) }

// ExplainedVarianceRatio is the share of total variance captured by each component.
func (model *PCAModel) ExplainedVarianceRatio() [2]float64 { return model.explainedVarianceRatio }

// Components returns copies of the two principal directions (in standardized units
// when the model standardizes).
func (model *PCAModel) Components() [2][]float64 {
	return [2][]float64{
		mat.Row(nil, 0, model.components),
		mat.Row(nil, 1, model.components),
	}
}

// Forward implements Model: (standardize(x) − μ) · Wᵀ.
func (model *PCAModel) Forward(vector []float64) (Point2D, error) {
	if err := checkDimension("pca forward", model.InputDim(), vector); err != nil {
		return Point2D{}, err
	}
	centered := model.scaler.transform(vector)
	floats.Sub(centered, model.mean)
	return Point2D{
		X: floats.Dot(centered, model.components.RawRowView(0)),
		Y: floats.Dot(centered, model.components.RawRowView(1)),
	}, nil
}

// Inverse implements Model: d · W, mapped back to feature units.
func (model *PCAModel) Inverse(displacement Point2D) ([]float64, error) {
	return combineRows(model.components, displacement, model.scaler), nil
}

// combineRows returns d.X·row0 + d.Y·row1 of a 2 × dimension matrix, unscaled.
func combineRows(basis *mat.Dense, displacement Point2D, fittedScaler *scaler) []float64 {
	_, dimension := basis.Dims()
	out := make([]float64, dimension)
	floats.AddScaled(out, displacement.X, basis.RawRowView(0))
	floats.AddScaled(out, displacement.Y, basis.RawRowView(1))
	fittedScaler.unscaleDisplacement(out)
	return out
}

// Package projection provides fitted 2-D projections of high-dimensional labeled data.
//
// # Reducers and Models
//
// A Reducer is a recipe (PCA, KernelPCA, UMAP) that is fit once on a dataset and
// produces a Model. A Model is an immutable value: it maps any vector of the fitted
// dimensionality forward to the plane, and maps a 2-D displacement back to a
// displacement in the original feature space.
//
// Only the linear projection has an exact inverse. Kernel and UMAP models answer
// Inverse with an explicit approximation strategy, and report ExactInverse() == false
// so callers can tell when a reconstructed displacement is only directionally right.
//
// Models are never mutated after Fit returns, so a single Model may be shared by any
// number of goroutines.
package projection

import (
	"fmt"
	"strings"

	"github.com/alDuncanson/manifold/errs"
)

// Method names a projection family.
type Method string

const (
	MethodPCA       Method = "pca"
	MethodKernelPCA Method = "kernel_pca"
	MethodUMAP      Method = "umap"
)

// ParseMethod resolves a user-supplied method name.
func ParseMethod(name string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(name))) {
	case MethodPCA:
		return MethodPCA, nil
	case MethodKernelPCA, "kpca", "kernel-pca":
		return MethodKernelPCA, nil
	case MethodUMAP:
		return MethodUMAP, nil
	default:
		return "", errs.InvalidParameter("projection method", name, "expected pca, kernel_pca or umap")
	}
}

// Model is a fitted projection to the plane.
type Model interface {
	// Method reports which projection family produced the model.
	Method() Method

	// InputDim is the dimensionality of vectors accepted by Forward.
	InputDim() int

	// Forward maps a high-dimensional vector to its 2-D position.
	Forward(vector []float64) (Point2D, error)

	// Inverse maps a 2-D displacement to a displacement in the input space.
	Inverse(displacement Point2D) ([]float64, error)

	// ExactInverse reports whether Inverse is exact (linear projections only).
	ExactInverse() bool

	// Embedding returns the 2-D positions of the rows the model was fit on.
	Embedding() []Point2D
}

// Reducer fits a Model from data rows.
type Reducer interface {
	Fit(rows [][]float64) (Model, error)
}

// validateRows checks that rows form a usable n×d matrix with n ≥ minRows and d ≥ 2.
func validateRows(stage string, rows [][]float64, minRows int) (numberOfRows, dimension int, err error) {
	if len(rows) == 0 {
		return 0, 0, errs.Fit(stage, errs.ErrEmptyDataset)
	}

	dimension = len(rows[0])
	for rowIndex, row := range rows {
		if len(row) != dimension {
			return 0, 0, errs.Fit(stage, fmt.Errorf("row %d has dimension %d, want %d: %w",
				rowIndex, len(row), dimension, errs.ErrDimensionMismatch))
		}
	}

	if dimension < 2 {
		return 0, 0, errs.Fit(stage, fmt.Errorf("need at least 2 features, got %d: %w", dimension, errs.ErrDegenerate))
	}
	if len(rows) < minRows {
		return 0, 0, errs.Fit(stage, fmt.Errorf("need at least %d rows, got %d: %w", minRows, len(rows), errs.ErrDegenerate))
	}

	return len(rows), dimension, nil
}

func checkDimension(op string, want int, vector []float64) error {
	if len(vector) != want {
		return errs.Projection(op, want, len(vector))
	}
	return nil
}

func copyPoints(points []Point2D) []Point2D {
	out := make([]Point2D, len(points))
	copy(out, points)
	return out
}

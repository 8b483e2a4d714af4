package projection

import (
	"fmt"

	"github.com/alDuncanson/manifold/errs"

	"gonum.org/v1/gonum/mat"
)

// linearSurrogate is the least-squares linear map from centered 2-D embedding
// coordinates to centered (standardized) inputs. Non-linear models use it as their
// stand-in inverse for displacements: it is the best global linear approximation of
// the pre-image map, and it sends a zero displacement to a zero vector.
type linearSurrogate struct {
	basis *mat.Dense // 2 × dimension
}

// fitLinearSurrogate solves min ‖Zc·W − Xc‖ for W with a QR factorization.
func fitLinearSurrogate(stage string, embedding []Point2D, inputs *mat.Dense) (*linearSurrogate, error) {
	numberOfRows, dimension := inputs.Dims()
	if numberOfRows < 3 {
		return nil, errs.Fit(stage, fmt.Errorf("surrogate inverse needs at least 3 rows: %w", errs.ErrDegenerate))
	}

	embeddingCentroid := Centroid(embedding)
	centeredEmbedding := mat.NewDense(numberOfRows, 2, nil)
	for rowIndex, point := range embedding {
		centeredEmbedding.Set(rowIndex, 0, point.X-embeddingCentroid.X)
		centeredEmbedding.Set(rowIndex, 1, point.Y-embeddingCentroid.Y)
	}

	centeredInputs := mat.DenseCopyOf(inputs)
	centerDataMatrix(centeredInputs, calculateColumnMeans(centeredInputs, dimension))

	qr := new(mat.QR)
	qr.Factorize(centeredEmbedding)

	basis := mat.NewDense(2, dimension, nil)
	if err := qr.SolveTo(basis, false, centeredInputs); err != nil {
		return nil, errs.Fit(stage, fmt.Errorf("surrogate inverse: %v: %w", err, errs.ErrDegenerate))
	}

	return &linearSurrogate{basis: basis}, nil
}

func (surrogate *linearSurrogate) inverse(displacement Point2D, fittedScaler *scaler) []float64 {
	return combineRows(surrogate.basis, displacement, fittedScaler)
}

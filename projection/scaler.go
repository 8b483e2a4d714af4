package projection

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// scaler standardizes features to zero mean and unit variance.
// A nil scaler is the identity, used when standardization is disabled.
type scaler struct {
	mean  []float64
	scale []float64
}

// fitScaler learns per-column mean and population standard deviation.
// Zero-variance columns keep a scale of 1 so they pass through unchanged.
func fitScaler(rows [][]float64) *scaler {
	dimension := len(rows[0])
	column := make([]float64, len(rows))
	fitted := &scaler{
		mean:  make([]float64, dimension),
		scale: make([]float64, dimension),
	}

	for columnIndex := 0; columnIndex < dimension; columnIndex++ {
		for rowIndex, row := range rows {
			column[rowIndex] = row[columnIndex]
		}
		mean, std := stat.PopMeanStdDev(column, nil)
		fitted.mean[columnIndex] = mean
		if std == 0 {
			std = 1
		}
		fitted.scale[columnIndex] = std
	}

	return fitted
}

// transform returns a standardized copy of vector.
func (s *scaler) transform(vector []float64) []float64 {
	out := make([]float64, len(vector))
	if s == nil {
		copy(out, vector)
		return out
	}
	for i, value := range vector {
		out[i] = (value - s.mean[i]) / s.scale[i]
	}
	return out
}

// transformRows standardizes every row into a new n×d matrix.
func (s *scaler) transformRows(rows [][]float64) *mat.Dense {
	dimension := len(rows[0])
	data := make([]float64, 0, len(rows)*dimension)
	for _, row := range rows {
		data = append(data, s.transform(row)...)
	}
	return mat.NewDense(len(rows), dimension, data)
}

// unscaleDisplacement maps a displacement in standardized space back to feature
// units in place. Means cancel for displacements, so only the scale applies.
func (s *scaler) unscaleDisplacement(displacement []float64) {
	if s == nil {
		return
	}
	for i := range displacement {
		displacement[i] *= s.scale[i]
	}
}

// unscale maps a standardized position back to feature units in place.
func (s *scaler) unscale(position []float64) {
	if s == nil {
		return
	}
	for i := range position {
		position[i] = position[i]*s.scale[i] + s.mean[i]
	}
}

func newScaler(rows [][]float64, standardize bool) *scaler {
	if !standardize {
		return nil
	}
	return fitScaler(rows)
}

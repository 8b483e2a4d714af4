package projection

import (
	"math"
)

// planarRows returns n rows in dimension that lie exactly on a 2-D affine plane,
// tracing an ellipse with unequal axes so the principal directions are unique.
func planarRows(n, dimension int) [][]float64 {
	u := make([]float64, dimension)
	v := make([]float64, dimension)
	half := dimension / 2
	for j := 0; j < half; j++ {
		u[j] = 1 / math.Sqrt(float64(half))
	}
	for j := half; j < dimension; j++ {
		v[j] = 1 / math.Sqrt(float64(dimension-half))
	}

	rows := make([][]float64, n)
	for i := range rows {
		t := 2*math.Pi*float64(i)/float64(n) + 0.05*math.Sin(float64(i))
		a := 3 * math.Cos(t)
		b := math.Sin(t)
		row := make([]float64, dimension)
		for j := range row {
			row[j] = float64(j) + a*u[j] + b*v[j]
		}
		rows[i] = row
	}
	return rows
}

// twoBlobs returns size rows near the origin followed by size rows near (10, 10, ...).
func twoBlobs(size, dimension int) [][]float64 {
	rows := make([][]float64, 0, 2*size)
	for _, center := range []float64{0, 10} {
		for i := 0; i < size; i++ {
			row := make([]float64, dimension)
			for j := range row {
				row[j] = center + 0.1*math.Sin(float64(i*dimension+j+1))
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func subtract(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

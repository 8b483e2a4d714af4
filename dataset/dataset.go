// Package dataset holds the labeled high-dimensional rows the steering pipeline is
// fit on, along with loaders for CSV/JSON files and a synthetic generator.
package dataset

import (
	"fmt"
	"sort"

	"github.com/alDuncanson/manifold/errs"
)

// Unlabeled marks a row that belongs to no cluster. Such rows take part in the
// projection fit but not in cluster-center computation.
const Unlabeled = -1

// Dataset is an immutable set of equal-length rows, each with an integer label and
// optional text. Accessors return copies.
type Dataset struct {
	rows   [][]float64
	labels []int
	texts  []string
}

// New validates and copies rows and labels. texts may be nil.
func New(rows [][]float64, labels []int, texts []string) (*Dataset, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("dataset: %w", errs.ErrEmptyDataset)
	}
	if len(labels) != len(rows) {
		return nil, fmt.Errorf("dataset: %d rows but %d labels: %w", len(rows), len(labels), errs.ErrDimensionMismatch)
	}
	if texts != nil && len(texts) != len(rows) {
		return nil, fmt.Errorf("dataset: %d rows but %d texts: %w", len(rows), len(texts), errs.ErrDimensionMismatch)
	}

	dimension := len(rows[0])
	if dimension == 0 {
		return nil, fmt.Errorf("dataset: rows have no features: %w", errs.ErrDegenerate)
	}

	ds := &Dataset{
		rows:   make([][]float64, len(rows)),
		labels: append([]int(nil), labels...),
	}
	for i, row := range rows {
		if len(row) != dimension {
			return nil, fmt.Errorf("dataset: row %d has dimension %d, want %d: %w", i, len(row), dimension, errs.ErrDimensionMismatch)
		}
		ds.rows[i] = append([]float64(nil), row...)
	}
	if texts != nil {
		ds.texts = append([]string(nil), texts...)
	}
	return ds, nil
}

// WithLabels returns a copy of the dataset carrying new labels.
func (ds *Dataset) WithLabels(labels []int) (*Dataset, error) {
	return New(ds.rows, labels, ds.texts)
}

// Len is the number of rows.
func (ds *Dataset) Len() int { return len(ds.rows) }

// Dim is the number of features per row.
func (ds *Dataset) Dim() int { return len(ds.rows[0]) }

// Row returns a copy of row i.
func (ds *Dataset) Row(i int) []float64 { return append([]float64(nil), ds.rows[i]...) }

// Rows returns a deep copy of every row.
func (ds *Dataset) Rows() [][]float64 {
	out := make([][]float64, len(ds.rows))
	for i := range ds.rows {
		out[i] = ds.Row(i)
	}
	return out
}

// Label returns the label of row i.
func (ds *Dataset) Label(i int) int { return ds.labels[i] }

// Labels returns a copy of all labels.
func (ds *Dataset) Labels() []int { return append([]int(nil), ds.labels...) }

// Text returns the text of row i, or "" when the dataset has none.
func (ds *Dataset) Text(i int) string {
	if ds.texts == nil {
		return ""
	}
	return ds.texts[i]
}

// Classes returns the distinct non-negative labels in ascending order.
func (ds *Dataset) Classes() []int {
	seen := make(map[int]bool)
	var classes []int
	for _, label := range ds.labels {
		if label >= 0 && !seen[label] {
			seen[label] = true
			classes = append(classes, label)
		}
	}
	sort.Ints(classes)
	return classes
}

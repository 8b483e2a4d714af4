package dataset

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/alDuncanson/manifold/errs"

	"gonum.org/v1/gonum/mat"
)

// CircularClusters configures GenerateCircularClusters.
type CircularClusters struct {
	Samples    int
	Clusters   int
	Dimension  int
	Radius     float64
	ClusterStd float64
	Seed       int64
}

// DefaultCircularClusters matches the layout used throughout the examples:
// 300 points in 5 clusters on a radius-5 circle, rotated into 10 dimensions.
func DefaultCircularClusters() CircularClusters {
	return CircularClusters{
		Samples:    300,
		Clusters:   5,
		Dimension:  10,
		Radius:     5,
		ClusterStd: 0.8,
		Seed:       42,
	}
}

// GenerateCircularClusters places cluster centers evenly on a circle in the plane,
// samples Gaussian points around each, pads the points with zero features up to
// Dimension and applies a random orthogonal rotation. Any remainder of
// Samples/Clusters goes to the first clusters. It also returns the 2-D centers
// before rotation.
func GenerateCircularClusters(config CircularClusters) (*Dataset, [][2]float64, error) {
	switch {
	case config.Samples < 1:
		return nil, nil, errs.InvalidParameter("samples", config.Samples, "must be positive")
	case config.Clusters < 1 || config.Clusters > config.Samples:
		return nil, nil, errs.InvalidParameter("clusters", config.Clusters, "must be between 1 and the number of samples")
	case config.Dimension < 2:
		return nil, nil, errs.InvalidParameter("dimension", config.Dimension, "must be at least 2")
	case config.Radius < 0 || config.ClusterStd < 0:
		return nil, nil, errs.InvalidParameter("radius", config.Radius, "radius and cluster std must be non-negative")
	}

	rng := rand.New(rand.NewSource(config.Seed))

	// Step 1: Cluster centers on the circle
	centers := make([][2]float64, config.Clusters)
	for i := range centers {
		angle := 2 * math.Pi * float64(i) / float64(config.Clusters)
		centers[i] = [2]float64{config.Radius * math.Cos(angle), config.Radius * math.Sin(angle)}
	}

	// Step 2: Gaussian points per cluster, padded with zeros
	perCluster := config.Samples / config.Clusters
	remainder := config.Samples % config.Clusters

	extended := mat.NewDense(config.Samples, config.Dimension, nil)
	labels := make([]int, 0, config.Samples)
	row := 0
	for cluster, center := range centers {
		count := perCluster
		if cluster < remainder {
			count++
		}
		for i := 0; i < count; i++ {
			extended.Set(row, 0, center[0]+config.ClusterStd*rng.NormFloat64())
			extended.Set(row, 1, center[1]+config.ClusterStd*rng.NormFloat64())
			labels = append(labels, cluster)
			row++
		}
	}

	// Step 3: Random orthogonal rotation from the QR factorization of a Gaussian matrix
	gaussian := mat.NewDense(config.Dimension, config.Dimension, nil)
	for i := 0; i < config.Dimension; i++ {
		for j := 0; j < config.Dimension; j++ {
			gaussian.Set(i, j, rng.NormFloat64())
		}
	}
	var qr mat.QR
	qr.Factorize(gaussian)
	var rotation mat.Dense
	qr.QTo(&rotation)

	var rotated mat.Dense
	rotated.Mul(extended, rotation.T())

	rows := make([][]float64, config.Samples)
	for i := range rows {
		rows[i] = mat.Row(nil, i, &rotated)
	}

	ds, err := New(rows, labels, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("generate circular clusters: %w", err)
	}
	return ds, centers, nil
}

package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCluster_EmptyInput(t *testing.T) {
	result := Cluster(nil, DefaultHDBSCANConfig())
	assert.Empty(t, result.Labels)
}

func TestCluster_TooFewPoints(t *testing.T) {
	rows := [][]float64{
		{1.0, 2.0, 3.0},
		{1.1, 2.1, 3.1},
	}
	config := DefaultHDBSCANConfig()
	config.MinClusterSize = 5

	result := Cluster(rows, config)
	require.Len(t, result.Labels, 2)
	for i, label := range result.Labels {
		assert.Equal(t, Noise, label, "point %d", i)
	}
	assert.Zero(t, result.NumClusters())
}

func twoSquares() [][]float64 {
	return [][]float64{
		{0.0, 0.0}, {0.1, 0.0}, {0.0, 0.1}, {0.1, 0.1}, {0.05, 0.05},
		{10.0, 10.0}, {10.1, 10.0}, {10.0, 10.1}, {10.1, 10.1}, {10.05, 10.05},
	}
}

func TestCluster_TwoClusters(t *testing.T) {
	result := Cluster(twoSquares(), HDBSCANConfig{MinClusterSize: 3, MinSamples: 2})
	require.Len(t, result.Labels, 10)

	assert.Equal(t, []int{0, 0, 0, 0, 0, 1, 1, 1, 1, 1}, result.Labels)
	assert.Equal(t, 2, result.NumClusters())
	for i, p := range result.Probabilities {
		assert.GreaterOrEqual(t, p, 0.0, "point %d", i)
		assert.LessOrEqual(t, p, 1.0, "point %d", i)
	}
}

func TestCluster_OutlierIsNoise(t *testing.T) {
	rows := append(twoSquares(), []float64{50, -50})
	labels := ClusterLabels(rows, HDBSCANConfig{MinClusterSize: 3, MinSamples: 2})

	require.Len(t, labels, 11)
	assert.Equal(t, Noise, labels[10])
	assert.Equal(t, 0, labels[0])
	assert.Equal(t, 1, labels[5])
}

func TestCluster_Deterministic(t *testing.T) {
	config := HDBSCANConfig{MinClusterSize: 3, MinSamples: 2}
	first := Cluster(twoSquares(), config)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Cluster(twoSquares(), config))
	}
}

func TestUnionFind(t *testing.T) {
	uf := newUnionFind(3)
	node := uf.union(uf.find(0), uf.find(1))
	assert.Equal(t, 3, node)
	assert.Equal(t, 2, uf.size[node])
	assert.Equal(t, uf.find(0), uf.find(1))
	assert.NotEqual(t, uf.find(0), uf.find(2))
}

// # UMAP (Uniform Manifold Approximation and Projection) Overview
//
// UMAP is a nonlinear dimensionality reduction technique that preserves both local and global
// structure better than linear methods like PCA. It works by:
//
//  1. Constructing a k-nearest neighbor graph in high-dimensional space
//  2. Converting distances to fuzzy membership strengths (fuzzy simplicial set)
//  3. Initializing a low-dimensional embedding via spectral methods
//  4. Optimizing the embedding via stochastic gradient descent with negative sampling
//
// Reference: McInnes, L., Healy, J., & Melville, J. (2018). UMAP: Uniform Manifold
// Approximation and Projection for Dimension Reduction. https://arxiv.org/abs/1802.03426
//
// A fitted UMAPModel places unseen vectors at the membership-weighted mean of the
// embeddings of their nearest training rows, and answers Inverse with the linear
// surrogate learned from the final layout.
package projection

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/alDuncanson/manifold/errs"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// UMAP holds hyperparameters for UMAP dimensionality reduction. It is the
// manifold-learning Reducer.
type UMAP struct {
	NNeighbors         int     // Number of nearest neighbors (default: 15)
	MinDist            float64 // Minimum distance in low-dim space (default: 0.1)
	Spread             float64 // Effective scale of embedded points (default: 1.0)
	NEpochs            int     // Number of optimization epochs (default: 200)
	LearningRate       float64 // Initial learning rate (default: 1.0)
	NegativeSampleRate float64 // Negative samples per positive (default: 5.0)
	RandomSeed         int64   // Random seed for reproducibility
	Standardize        bool
}

// DefaultUMAP returns sensible default hyperparameters.
func DefaultUMAP() UMAP {
	return UMAP{
		NNeighbors:         15,
		MinDist:            0.1,
		Spread:             1.0,
		NEpochs:            200,
		LearningRate:       1.0,
		NegativeSampleRate: 5.0,
		RandomSeed:         42,
	}
}

// Fit implements Reducer.
func (reducer UMAP) Fit(rows [][]float64) (Model, error) {
	model, err := FitUMAP(rows, reducer)
	if err != nil {
		return nil, err
	}
	return model, nil
}

// UMAPModel is a fitted UMAP layout. Its Inverse is approximate and its
// out-of-sample Forward is piecewise, so a steered point need not follow the
// circle: a step can land short of the target angle, on the wrong side of it, or
// fail to reverse under the opposite step.
type UMAPModel struct {
	k         int
	scaler    *scaler
	training  [][]float64
	embedding []Point2D
	surrogate *linearSurrogate
}

// fuzzyGraph is a sparse symmetric membership graph in coordinate format.
type fuzzyGraph struct {
	rows    []int
	cols    []int
	weights []float64
}

// neighborhood holds k-nearest neighbor indices and distances for all points.
type neighborhood struct {
	indices   [][]int     // [nSamples][k] neighbor indices
	distances [][]float64 // [nSamples][k] distances to neighbors
}

// FitUMAP reduces rows to a 2-D layout with UMAP.
func FitUMAP(rows [][]float64, config UMAP) (*UMAPModel, error) {
	nSamples, _, err := validateRows("umap", rows, 3)
	if err != nil {
		return nil, err
	}
	if config.NNeighbors < 2 {
		return nil, errs.InvalidParameter("umap neighbors", config.NNeighbors, "must be at least 2")
	}
	if config.NEpochs < 0 {
		return nil, errs.InvalidParameter("umap epochs", config.NEpochs, "must be non-negative")
	}
	if config.Spread <= 0 || config.MinDist < 0 {
		return nil, errs.InvalidParameter("umap spread", config.Spread, "spread must be positive and min distance non-negative")
	}

	// Adjust k for small datasets
	k := config.NNeighbors
	if k >= nSamples {
		k = nSamples - 1
	}

	fittedScaler := newScaler(rows, config.Standardize)
	inputs := fittedScaler.transformRows(rows)
	data := make([][]float64, nSamples)
	for i := range data {
		data[i] = inputs.RawRowView(i)
	}

	// Step 1: Build k-NN graph
	knn := computeKNN(data, k)

	// Step 2: Compute fuzzy simplicial set
	sigmas, rhos := smoothKNNDist(knn.distances, float64(k))
	graph := fuzzySetUnion(computeMembershipStrengths(knn, sigmas, rhos))

	// Step 3: Find output manifold parameters
	a, b := findABParams(config.Spread, config.MinDist)

	// Step 4: Initialize embedding (spectral or random)
	layout := initializeEmbedding(graph, nSamples, config.RandomSeed)

	// Step 5: Optimize via SGD - create fresh RNG from seed for reproducibility
	rng := rand.New(rand.NewSource(config.RandomSeed + 1))
	optimizeLayout(layout, graph, a, b, config, rng)

	model := &UMAPModel{
		k:         k,
		scaler:    fittedScaler,
		training:  data,
		embedding: make([]Point2D, nSamples),
	}
	for i, coords := range layout {
		if math.IsNaN(coords[0]) || math.IsNaN(coords[1]) {
			return nil, errs.Fit("umap", fmt.Errorf("layout diverged at row %d: %w", i, errs.ErrNotConverged))
		}
		model.embedding[i] = Point2D{X: coords[0], Y: coords[1]}
	}

	model.surrogate, err = fitLinearSurrogate("umap", model.embedding, inputs)
	if err != nil {
		return nil, err
	}
	return model, nil
}

// Method implements Model.
func (model *UMAPModel) Method() Method { return MethodUMAP }

// InputDim implements Model.
func (model *UMAPModel) InputDim() int { return len(model.training[0]) }

// ExactInverse implements Model. It is false: the linear surrogate only
// approximates the layout, and angles measured through Forward after a step can
// drift from the requested ones.
func (model *UMAPModel) ExactInverse() bool { return false }

// Embedding implements Model.
func (model *UMAPModel) Embedding() []Point2D { return copyPoints(model.embedding) }

// Forward implements Model. A training row maps to its own layout position; any
// other vector lands at the membership-weighted mean of its k nearest training rows.
// The result jumps when the neighbor set changes, so small input moves do not map
// to proportional moves in the plane.
func (model *UMAPModel) Forward(vector []float64) (Point2D, error) {
	if err := checkDimension("umap forward", model.InputDim(), vector); err != nil {
		return Point2D{}, err
	}
	query := model.scaler.transform(vector)

	neighbors := nearest(model.training, query, model.k, -1)
	if neighbors[0].dist == 0 {
		return model.embedding[neighbors[0].idx], nil
	}

	distances := make([]float64, len(neighbors))
	for i, neighbor := range neighbors {
		distances[i] = neighbor.dist
	}
	sigmas, rhos := smoothKNNDist([][]float64{distances}, float64(model.k))

	var position Point2D
	var total float64
	for _, neighbor := range neighbors {
		weight := membership(neighbor.dist, sigmas[0], rhos[0])
		position = position.Add(model.embedding[neighbor.idx].Scale(weight))
		total += weight
	}
	return position.Scale(1 / total), nil
}

// Inverse implements Model with the linear surrogate.
func (model *UMAPModel) Inverse(displacement Point2D) ([]float64, error) {
	return model.surrogate.inverse(displacement, model.scaler), nil
}

type neighbor struct {
	dist float64
	idx  int
}

// nearest returns the k rows closest to query, skipping index self.
func nearest(data [][]float64, query []float64, k, self int) []neighbor {
	candidates := make([]neighbor, 0, len(data))
	for j, row := range data {
		if j == self {
			continue
		}
		candidates = append(candidates, neighbor{dist: floats.Distance(query, row, 2), idx: j})
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].dist < candidates[b].dist
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates
}

// computeKNN computes k-nearest neighbors using brute force (O(n²)).
func computeKNN(data [][]float64, k int) neighborhood {
	n := len(data)
	knn := neighborhood{
		indices:   make([][]int, n),
		distances: make([][]float64, n),
	}

	for i := 0; i < n; i++ {
		neighbors := nearest(data, data[i], k, i)
		knn.indices[i] = make([]int, len(neighbors))
		knn.distances[i] = make([]float64, len(neighbors))
		for j, neighbor := range neighbors {
			knn.indices[i][j] = neighbor.idx
			knn.distances[i][j] = neighbor.dist
		}
	}

	return knn
}

// smoothKNNDist computes sigma (bandwidth) and rho (local connectivity distance) for each point.
// Uses binary search to find sigma such that the sum of fuzzy memberships equals log2(k).
func smoothKNNDist(distances [][]float64, k float64) (sigmas, rhos []float64) {
	const (
		nIter            = 64
		smoothKTolerance = 1e-5
		minKDistScale    = 1e-3
	)

	n := len(distances)
	sigmas = make([]float64, n)
	rhos = make([]float64, n)
	target := math.Log2(k)

	for i, dists := range distances {
		// rho is the distance to the nearest non-identical neighbor
		for _, d := range dists {
			if d > 0 {
				rhos[i] = d
				break
			}
		}

		lo, hi, mid := 0.0, math.Inf(1), 1.0
		for iter := 0; iter < nIter; iter++ {
			psum := 0.0
			for _, d := range dists {
				if gap := d - rhos[i]; gap > 0 {
					psum += math.Exp(-gap / mid)
				} else {
					psum += 1.0
				}
			}

			if math.Abs(psum-target) < smoothKTolerance {
				break
			}

			if psum > target {
				hi = mid
			} else {
				lo = mid
			}

			if math.IsInf(hi, 1) {
				mid *= 2
			} else {
				mid = (lo + hi) / 2
			}
		}

		sigmas[i] = mid

		// Enforce minimum sigma
		if len(dists) > 0 {
			if minSigma := minKDistScale * floats.Sum(dists) / float64(len(dists)); sigmas[i] < minSigma {
				sigmas[i] = minSigma
			}
		}
	}

	return sigmas, rhos
}

func membership(dist, sigma, rho float64) float64 {
	if dist-rho <= 0 || sigma == 0 {
		return 1.0
	}
	return math.Exp(-(dist - rho) / sigma)
}

// computeMembershipStrengths computes fuzzy membership values for each directed edge.
func computeMembershipStrengths(knn neighborhood, sigmas, rhos []float64) fuzzyGraph {
	var graph fuzzyGraph
	for i, indices := range knn.indices {
		for j, neighbor := range indices {
			graph.rows = append(graph.rows, i)
			graph.cols = append(graph.cols, neighbor)
			graph.weights = append(graph.weights, membership(knn.distances[i][j], sigmas[i], rhos[i]))
		}
	}
	return graph
}

// fuzzySetUnion symmetrizes the graph using fuzzy set union.
// Union formula: P(A ∪ B) = P(A) + P(B) - P(A)P(B)
func fuzzySetUnion(graph fuzzyGraph) fuzzyGraph {
	type edge struct{ r, c int }
	directed := make(map[edge]float64, len(graph.rows))
	for i := range graph.rows {
		directed[edge{graph.rows[i], graph.cols[i]}] = graph.weights[i]
	}

	union := make(map[edge]float64, 2*len(directed))
	for e, v := range directed {
		vt := directed[edge{e.c, e.r}]
		if w := v + vt - v*vt; w > 0 {
			union[e] = w
			union[edge{e.c, e.r}] = w
		}
	}

	// Sort edges for reproducibility
	edges := make([]edge, 0, len(union))
	for e := range union {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].r != edges[j].r {
			return edges[i].r < edges[j].r
		}
		return edges[i].c < edges[j].c
	})

	result := fuzzyGraph{
		rows:    make([]int, len(edges)),
		cols:    make([]int, len(edges)),
		weights: make([]float64, len(edges)),
	}
	for i, e := range edges {
		result.rows[i], result.cols[i], result.weights[i] = e.r, e.c, union[e]
	}
	return result
}

// findABParams fits curve parameters for the low-dimensional membership function
// f(x) = 1 / (1 + a * x^(2b)) by least squares against the target distribution.
func findABParams(spread, minDist float64) (a, b float64) {
	const nPoints = 300
	xv := make([]float64, nPoints)
	yv := make([]float64, nPoints)
	for i := 0; i < nPoints; i++ {
		xv[i] = float64(i) / float64(nPoints-1) * spread * 3
		if xv[i] < minDist {
			yv[i] = 1.0
		} else {
			yv[i] = math.Exp(-(xv[i] - minDist) / spread)
		}
	}

	residual := func(params []float64) float64 {
		if params[0] <= 0 || params[1] <= 0 {
			return math.Inf(1)
		}
		var sum float64
		for i, x := range xv {
			diff := 1.0/(1.0+params[0]*math.Pow(x, 2*params[1])) - yv[i]
			sum += diff * diff
		}
		return sum
	}

	initial := []float64{1.0, 1.0}
	result, err := optimize.Minimize(optimize.Problem{Func: residual}, initial, nil, &optimize.NelderMead{})
	if err != nil && result == nil {
		return initial[0], initial[1]
	}
	if residual(result.X) > residual(initial) {
		return initial[0], initial[1]
	}
	return result.X[0], result.X[1]
}

// initializeEmbedding creates the initial low-dimensional embedding.
// Uses spectral initialization when possible, falls back to random.
func initializeEmbedding(graph fuzzyGraph, nSamples int, seed int64) [][]float64 {
	rng := rand.New(rand.NewSource(seed))

	if embedding := spectralLayout(graph, nSamples); embedding != nil {
		for i := range embedding {
			for j := range embedding[i] {
				embedding[i][j] += (rng.Float64() - 0.5) * 0.0001
			}
		}
		return embedding
	}

	embedding := make([][]float64, nSamples)
	for i := range embedding {
		embedding[i] = []float64{(rng.Float64() - 0.5) * 10, (rng.Float64() - 0.5) * 10}
	}
	return embedding
}

// spectralLayout computes an initial embedding from the eigenvectors of the normalized
// graph Laplacian. Small graphs (< 50 points) return nil and start from random.
func spectralLayout(graph fuzzyGraph, nSamples int) [][]float64 {
	if nSamples < 50 {
		return nil
	}

	degrees := make([]float64, nSamples)
	for i, r := range graph.rows {
		degrees[r] += graph.weights[i]
	}

	// L = I - D^(-1/2) * A * D^(-1/2); the fuzzy union keeps A symmetric.
	laplacian := mat.NewSymDense(nSamples, nil)
	for i := 0; i < nSamples; i++ {
		laplacian.SetSym(i, i, 1.0)
	}
	for i, r := range graph.rows {
		c := graph.cols[i]
		if r < c && degrees[r] > 0 && degrees[c] > 0 {
			laplacian.SetSym(r, c, -graph.weights[i]/math.Sqrt(degrees[r]*degrees[c]))
		}
	}

	var eigen mat.EigenSym
	if ok := eigen.Factorize(laplacian, true); !ok {
		return nil
	}
	var vectors mat.Dense
	eigen.VectorsTo(&vectors)

	// Eigenvalues ascend; skip the trivial first eigenvector.
	embedding := make([][]float64, nSamples)
	for i := range embedding {
		embedding[i] = []float64{vectors.At(i, 1), vectors.At(i, 2)}
	}

	// Scale to reasonable range
	for d := 0; d < 2; d++ {
		minVal, maxVal := math.Inf(1), math.Inf(-1)
		for i := range embedding {
			minVal = math.Min(minVal, embedding[i][d])
			maxVal = math.Max(maxVal, embedding[i][d])
		}
		if scale := maxVal - minVal; scale > 0 {
			for i := range embedding {
				embedding[i][d] = (embedding[i][d] - minVal) / scale * 10
			}
		}
	}

	return embedding
}

// optimizeLayout performs SGD optimization to refine the embedding in place.
func optimizeLayout(embedding [][]float64, graph fuzzyGraph, a, b float64, config UMAP, rng *rand.Rand) {
	nSamples := len(embedding)
	nEdges := len(graph.rows)
	if nEdges == 0 || config.NEpochs == 0 {
		return
	}

	maxWeight := floats.Max(graph.weights)

	// Stronger edges are sampled more often (smaller epoch interval)
	epochsPerSample := make([]float64, nEdges)
	for i, w := range graph.weights {
		epochsPerSample[i] = math.Max(1, maxWeight/w)
	}
	epochOfNextSample := make([]float64, nEdges)
	copy(epochOfNextSample, epochsPerSample)

	nNegPerPos := int(config.NegativeSampleRate)
	if nNegPerPos < 1 {
		nNegPerPos = 1
	}

	for epoch := 0; epoch < config.NEpochs; epoch++ {
		alpha := math.Max(0.0001, config.LearningRate*(1.0-float64(epoch)/float64(config.NEpochs)))

		for i := 0; i < nEdges; i++ {
			if epochOfNextSample[i] > float64(epoch) {
				continue
			}

			j, k := graph.rows[i], graph.cols[i]
			current := embedding[j]
			other := embedding[k]

			// Positive sample (attraction)
			if distSq := squaredEuclidean(current, other); distSq > 0 {
				gradCoeff := -2.0 * a * b * math.Pow(distSq, b-1.0)
				gradCoeff /= a*math.Pow(distSq, b) + 1.0
				for d := range current {
					current[d] += clip(gradCoeff*(current[d]-other[d])) * alpha
				}
			}

			// Negative samples (repulsion)
			for p := 0; p < nNegPerPos; p++ {
				negIdx := rng.Intn(nSamples)
				if negIdx == j {
					continue
				}
				negPoint := embedding[negIdx]
				distSq := squaredEuclidean(current, negPoint)
				if distSq <= 0.001 {
					continue
				}
				gradCoeff := 2.0 * b / ((0.001 + distSq) * (a*math.Pow(distSq, b) + 1))
				for d := range current {
					current[d] += clip(gradCoeff*(current[d]-negPoint[d])) * alpha
				}
			}

			epochOfNextSample[i] += epochsPerSample[i]
		}
	}
}

// squaredEuclidean computes the squared Euclidean distance.
func squaredEuclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}

// clip constrains gradient values to prevent explosive updates.
func clip(val float64) float64 {
	return math.Max(-4.0, math.Min(4.0, val))
}

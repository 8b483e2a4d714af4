package projection

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Noise is the label HDBSCAN assigns to rows that belong to no cluster.
const Noise = -1

// HDBSCANConfig controls density-based clustering of unlabeled rows.
type HDBSCANConfig struct {
	MinClusterSize int
	MinSamples     int // zero means MinClusterSize
}

func DefaultHDBSCANConfig() HDBSCANConfig {
	return HDBSCANConfig{
		MinClusterSize: 5,
		MinSamples:     0,
	}
}

// ClusterResult holds one label per row (Noise for outliers) and the strength of
// each row's membership in its cluster.
type ClusterResult struct {
	Labels        []int
	Probabilities []float64
}

// NumClusters counts the distinct non-noise labels.
func (result ClusterResult) NumClusters() int {
	seen := make(map[int]struct{})
	for _, label := range result.Labels {
		if label != Noise {
			seen[label] = struct{}{}
		}
	}
	return len(seen)
}

// ClusterLabels is a shorthand for Cluster(rows, config).Labels.
func ClusterLabels(rows [][]float64, config HDBSCANConfig) []int {
	return Cluster(rows, config).Labels
}

// Cluster labels rows with HDBSCAN. Labels are numbered 0..k-1 in order of each
// cluster's lowest row index, so the output is deterministic.
func Cluster(rows [][]float64, config HDBSCANConfig) ClusterResult {
	n := len(rows)
	if n == 0 {
		return ClusterResult{}
	}

	if config.MinClusterSize < 2 {
		config.MinClusterSize = 5
	}
	if config.MinSamples <= 0 {
		config.MinSamples = config.MinClusterSize
	}

	if n < config.MinClusterSize {
		labels := make([]int, n)
		for i := range labels {
			labels[i] = Noise
		}
		return ClusterResult{Labels: labels, Probabilities: make([]float64, n)}
	}

	coreDistances := computeCoreDistances(rows, config.MinSamples)
	mstEdges := computeMutualReachabilityMST(rows, coreDistances)
	linkage := singleLinkageTree(mstEdges, n)
	condensed := condenseTree(linkage, config.MinClusterSize, n)
	stability := computeStability(condensed)
	labels := extractClusters(condensed, stability, n)
	probs := computeProbabilities(condensed, labels)

	return ClusterResult{Labels: labels, Probabilities: probs}
}

type mstEdge struct {
	From, To int
	Weight   float64
}

type linkageNode struct {
	Left, Right int
	Distance    float64
	Size        int
}

type condensedEdge struct {
	Parent    int
	Child     int
	Lambda    float64
	ChildSize int
}

type condensedTree struct {
	Edges       []condensedEdge
	RootCluster int
	nSamples    int
}

// computeCoreDistances returns each row's distance to its minSamples-th neighbor.
func computeCoreDistances(data [][]float64, minSamples int) []float64 {
	n := len(data)
	coreDistances := make([]float64, n)

	k := minSamples
	if k >= n {
		k = n - 1
	}

	dists := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			dists[j] = floats.Distance(data[i], data[j], 2)
		}
		sort.Float64s(dists)
		coreDistances[i] = dists[k]
	}

	return coreDistances
}

// computeMutualReachabilityMST runs Prim's algorithm over the mutual reachability
// distance max(core(a), core(b), d(a, b)) and returns edges sorted by weight.
func computeMutualReachabilityMST(data [][]float64, coreDistances []float64) []mstEdge {
	n := len(data)
	if n < 2 {
		return nil
	}

	inTree := make([]bool, n)
	minDist := make([]float64, n)
	minEdge := make([]int, n)
	for i := range minDist {
		minDist[i] = math.Inf(1)
		minEdge[i] = -1
	}

	edges := make([]mstEdge, 0, n-1)
	current := 0
	inTree[current] = true

	for added := 1; added < n; added++ {
		for j := 0; j < n; j++ {
			if inTree[j] {
				continue
			}
			dist := floats.Distance(data[current], data[j], 2)
			mrd := math.Max(coreDistances[current], math.Max(coreDistances[j], dist))
			if mrd < minDist[j] {
				minDist[j] = mrd
				minEdge[j] = current
			}
		}

		minIdx := -1
		minVal := math.Inf(1)
		for j := 0; j < n; j++ {
			if !inTree[j] && minDist[j] < minVal {
				minVal = minDist[j]
				minIdx = j
			}
		}
		if minIdx < 0 {
			break
		}

		edges = append(edges, mstEdge{From: minEdge[minIdx], To: minIdx, Weight: minVal})
		inTree[minIdx] = true
		current = minIdx
	}

	sort.SliceStable(edges, func(i, j int) bool {
		return edges[i].Weight < edges[j].Weight
	})

	return edges
}

type unionFind struct {
	parent []int
	size   []int
	next   int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, 2*n-1)
	size := make([]int, 2*n-1)
	for i := 0; i < n; i++ {
		parent[i] = i
		size[i] = 1
	}
	return &unionFind{parent: parent, size: size, next: n}
}

func (uf *unionFind) find(x int) int {
	root := x
	for uf.parent[root] != root {
		root = uf.parent[root]
	}
	for uf.parent[x] != root {
		next := uf.parent[x]
		uf.parent[x] = root
		x = next
	}
	return root
}

func (uf *unionFind) union(x, y int) int {
	newNode := uf.next
	uf.parent[x] = newNode
	uf.parent[y] = newNode
	uf.parent[newNode] = newNode
	uf.size[newNode] = uf.size[x] + uf.size[y]
	uf.next++
	return newNode
}

func singleLinkageTree(edges []mstEdge, nSamples int) []linkageNode {
	if len(edges) == 0 {
		return nil
	}

	uf := newUnionFind(nSamples)
	tree := make([]linkageNode, len(edges))

	for i, edge := range edges {
		left := uf.find(edge.From)
		right := uf.find(edge.To)
		newNode := uf.union(left, right)

		tree[i] = linkageNode{
			Left:     left,
			Right:    right,
			Distance: edge.Weight,
			Size:     uf.size[newNode],
		}
	}

	return tree
}

// lambdaOf converts a merge distance to a density level. Duplicate rows merge at
// distance zero, which is clamped to a very high but finite density.
func lambdaOf(distance float64) float64 {
	return 1.0 / math.Max(distance, 1e-12)
}

// condenseTree walks the linkage tree from the root, keeping a split only when both
// sides have at least minClusterSize rows. Rows on an undersized side fall out of
// the current cluster at the split's lambda.
func condenseTree(tree []linkageNode, minClusterSize int, nSamples int) condensedTree {
	rootLabel := nSamples
	if len(tree) == 0 {
		return condensedTree{RootCluster: rootLabel, nSamples: nSamples}
	}

	nextLabel := rootLabel + 1
	var edges []condensedEdge

	sizeOf := func(node int) int {
		if node < nSamples {
			return 1
		}
		return tree[node-nSamples].Size
	}

	var condense func(node int, parent int, lambdaVal float64)
	condense = func(node int, parent int, lambdaVal float64) {
		if node < nSamples {
			edges = append(edges, condensedEdge{Parent: parent, Child: node, Lambda: lambdaVal, ChildSize: 1})
			return
		}

		linkNode := tree[node-nSamples]
		left, right := linkNode.Left, linkNode.Right
		leftSize, rightSize := sizeOf(left), sizeOf(right)
		newLambda := lambdaOf(linkNode.Distance)

		if leftSize >= minClusterSize && rightSize >= minClusterSize {
			leftLabel := nextLabel
			rightLabel := nextLabel + 1
			nextLabel += 2

			edges = append(edges,
				condensedEdge{Parent: parent, Child: leftLabel, Lambda: newLambda, ChildSize: leftSize},
				condensedEdge{Parent: parent, Child: rightLabel, Lambda: newLambda, ChildSize: rightSize},
			)

			condense(left, leftLabel, newLambda)
			condense(right, rightLabel, newLambda)
			return
		}

		condense(left, parent, newLambda)
		condense(right, parent, newLambda)
	}

	condense(nSamples+len(tree)-1, rootLabel, 0)

	return condensedTree{Edges: edges, RootCluster: rootLabel, nSamples: nSamples}
}

// computeStability scores each condensed cluster as Σ (λ_exit − λ_birth) · size over
// everything that leaves it.
func computeStability(tree condensedTree) map[int]float64 {
	birthLambda := map[int]float64{tree.RootCluster: 0}
	for _, e := range tree.Edges {
		if e.Child >= tree.nSamples {
			birthLambda[e.Child] = e.Lambda
		}
	}

	stability := make(map[int]float64, len(birthLambda))
	for cluster := range birthLambda {
		stability[cluster] = 0
	}
	for _, e := range tree.Edges {
		stability[e.Parent] += (e.Lambda - birthLambda[e.Parent]) * float64(e.ChildSize)
	}

	return stability
}

// extractClusters picks the set of non-overlapping clusters with maximal total
// stability. The root is never selected, so a dataset with no real split is all noise.
func extractClusters(tree condensedTree, stability map[int]float64, nSamples int) []int {
	labels := make([]int, nSamples)
	for i := range labels {
		labels[i] = Noise
	}

	if len(tree.Edges) == 0 {
		return labels
	}

	children := make(map[int][]int)
	for _, e := range tree.Edges {
		if e.Child >= nSamples {
			children[e.Parent] = append(children[e.Parent], e.Child)
		}
	}

	clusters := make([]int, 0, len(stability))
	for cluster := range stability {
		clusters = append(clusters, cluster)
	}
	// Children always carry higher labels than their parents, so descending order is bottom-up.
	sort.Sort(sort.Reverse(sort.IntSlice(clusters)))

	selected := make(map[int]bool)
	subtreeStability := make(map[int]float64, len(stability))

	var deselect func(int)
	deselect = func(c int) {
		for _, desc := range children[c] {
			delete(selected, desc)
			deselect(desc)
		}
	}

	for _, cluster := range clusters {
		childStab := 0.0
		for _, child := range children[cluster] {
			childStab += subtreeStability[child]
		}

		if cluster != tree.RootCluster && (len(children[cluster]) == 0 || stability[cluster] >= childStab) {
			selected[cluster] = true
			deselect(cluster)
			subtreeStability[cluster] = stability[cluster]
		} else {
			subtreeStability[cluster] = childStab
		}
	}

	members := make([][]int, 0, len(selected))
	for cluster := range selected {
		points := collectClusterPoints(tree, cluster)
		sort.Ints(points)
		members = append(members, points)
	}
	sort.Slice(members, func(i, j int) bool { return members[i][0] < members[j][0] })

	for labelID, points := range members {
		for _, pt := range points {
			labels[pt] = labelID
		}
	}

	return labels
}

func collectClusterPoints(tree condensedTree, cluster int) []int {
	var points []int

	children := make(map[int][]condensedEdge)
	for _, e := range tree.Edges {
		children[e.Parent] = append(children[e.Parent], e)
	}

	var collect func(c int)
	collect = func(c int) {
		for _, e := range children[c] {
			if e.ChildSize == 1 {
				points = append(points, e.Child)
			} else {
				collect(e.Child)
			}
		}
	}

	collect(cluster)
	return points
}

// computeProbabilities scales each clustered row's exit lambda by the largest exit
// lambda in the condensed cluster it left from.
func computeProbabilities(tree condensedTree, labels []int) []float64 {
	probs := make([]float64, len(labels))

	maxLambdaPerCluster := make(map[int]float64)
	pointLambda := make(map[int]float64)
	pointCluster := make(map[int]int)

	for _, e := range tree.Edges {
		if e.ChildSize == 1 {
			pointLambda[e.Child] = e.Lambda
			pointCluster[e.Child] = e.Parent
			maxLambdaPerCluster[e.Parent] = math.Max(maxLambdaPerCluster[e.Parent], e.Lambda)
		}
	}

	for i, label := range labels {
		if label == Noise {
			continue
		}
		if maxLambda := maxLambdaPerCluster[pointCluster[i]]; maxLambda > 0 {
			probs[i] = math.Min(1.0, pointLambda[i]/maxLambda)
		} else {
			probs[i] = 1.0
		}
	}

	return probs
}

/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.
 
* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package anomaly

import (
	"errors"
	"math"
	"math/rand/v2"
)

const (
	DefaultTrees         = 100
	DefaultMaxSamples    = 256
	DefaultContamination = 0.1
	DefaultSeed          = 42

	eulerGamma = 0.5772156649015329
)

type ForestOptions struct {
	Trees         int     `json:"trees"`
	MaxSamples    int     `json:"max_samples"`
	Contamination float64 `json:"contamination"`
	Seed          uint64  `json:"seed"`
}

func DefaultForestOptions() ForestOptions {
	return ForestOptions{
		Trees:         DefaultTrees,
		MaxSamples:    DefaultMaxSamples,
		Contamination: DefaultContamination,
		Seed:          DefaultSeed,
	}
}

// IsolationForest isolates points with random axis aligned splits. Points that are isolated
// after few splits are anomalous. Scores follow the usual convention: ScoreSamples is the
// negated anomaly score in [-1, 0] and Decision is negative for the contamination share of
// the training set.
type IsolationForest struct {
	trees      []*isolationNode
	sampleSize int
	offset     float64
}

type isolationNode struct {
	feature   int
	threshold float64
	left      *isolationNode
	right     *isolationNode
	size      int
	leaf      bool
}

// FitIsolationForest grows the ensemble on rows. The same rows and options always produce the same forest.
func FitIsolationForest(rows [][]float64, opts ForestOptions) (*IsolationForest, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.New("isolation forest needs at least one non-empty row")
	}
	if opts.Trees <= 0 {
		opts.Trees = DefaultTrees
	}
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = DefaultMaxSamples
	}
	sampleSize := min(opts.MaxSamples, len(rows))
	maxDepth := int(math.Ceil(math.Log2(math.Max(float64(sampleSize), 2))))

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	f := &IsolationForest{
		trees:      make([]*isolationNode, opts.Trees),
		sampleSize: sampleSize,
	}
	for t := range f.trees {
		perm := rng.Perm(len(rows))[:sampleSize]
		sample := make([][]float64, sampleSize)
		for i, idx := range perm {
			sample[i] = rows[idx]
		}
		f.trees[t] = growNode(sample, 0, maxDepth, rng)
	}

	trainScores := make([]float64, len(rows))
	for i, row := range rows {
		trainScores[i] = f.ScoreSamples(row)
	}
	f.offset = Percentile(trainScores, 100*opts.Contamination)
	return f, nil
}

func growNode(data [][]float64, depth int, maxDepth int, rng *rand.Rand) *isolationNode {
	if len(data) <= 1 || depth >= maxDepth {
		return &isolationNode{leaf: true, size: len(data)}
	}

	// candidate features are the ones that still vary inside this node
	dims := len(data[0])
	lows := make([]float64, dims)
	highs := make([]float64, dims)
	copy(lows, data[0])
	copy(highs, data[0])
	for _, row := range data[1:] {
		for j, v := range row {
			lows[j] = math.Min(lows[j], v)
			highs[j] = math.Max(highs[j], v)
		}
	}
	candidates := make([]int, 0, dims)
	for j := 0; j < dims; j++ {
		if highs[j] > lows[j] {
			candidates = append(candidates, j)
		}
	}
	if len(candidates) == 0 {
		return &isolationNode{leaf: true, size: len(data)}
	}

	feature := candidates[rng.IntN(len(candidates))]
	threshold := lows[feature] + rng.Float64()*(highs[feature]-lows[feature])

	var left, right [][]float64
	for _, row := range data {
		if row[feature] <= threshold {
			left = append(left, row)
		} else {
			right = append(right, row)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &isolationNode{leaf: true, size: len(data)}
	}
	return &isolationNode{
		feature:   feature,
		threshold: threshold,
		left:      growNode(left, depth+1, maxDepth, rng),
		right:     growNode(right, depth+1, maxDepth, rng),
		size:      len(data),
	}
}

func (n *isolationNode) pathLength(v []float64, depth int) float64 {
	if n.leaf {
		return float64(depth) + averagePathLength(n.size)
	}
	if v[n.feature] <= n.threshold {
		return n.left.pathLength(v, depth+1)
	}
	return n.right.pathLength(v, depth+1)
}

// averagePathLength is c(n), the mean depth of an unsuccessful search in a binary search tree of n points
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	default:
		fn := float64(n)
		return 2*(math.Log(fn-1)+eulerGamma) - 2*(fn-1)/fn
	}
}

// ScoreSamples returns -2^(-E[h(v)]/c(sampleSize)), lower is more anomalous
func (f *IsolationForest) ScoreSamples(v []float64) float64 {
	total := 0.0
	for _, tree := range f.trees {
		total += tree.pathLength(v, 0)
	}
	mean := total / float64(len(f.trees))
	c := averagePathLength(f.sampleSize)
	if c == 0 {
		return -1
	}
	return -math.Pow(2, -mean/c)
}

// Decision is ScoreSamples shifted so that 0 separates inliers (positive) from outliers (negative)
func (f *IsolationForest) Decision(v []float64) float64 {
	return f.ScoreSamples(v) - f.offset
}

func (f *IsolationForest) Offset() float64 {
	return f.offset
}

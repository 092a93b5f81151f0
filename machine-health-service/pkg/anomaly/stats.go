/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.
 
* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package anomaly

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// FeatureStats holds per column descriptive statistics of a feature matrix, deviations are population based
type FeatureStats struct {
	Means []float64 `json:"means"`
	Stds  []float64 `json:"stds"`
	Mins  []float64 `json:"mins"`
	Maxs  []float64 `json:"maxs"`
}

func ComputeStats(rows [][]float64) FeatureStats {
	if len(rows) == 0 {
		return FeatureStats{}
	}
	dims := len(rows[0])
	fs := FeatureStats{
		Means: make([]float64, dims),
		Stds:  make([]float64, dims),
		Mins:  make([]float64, dims),
		Maxs:  make([]float64, dims),
	}
	for j := 0; j < dims; j++ {
		col := Column(rows, j)
		fs.Means[j], fs.Stds[j] = stat.PopMeanStdDev(col, nil)
		if len(col) < 2 {
			fs.Stds[j] = 0
		}
		fs.Mins[j] = floats.Min(col)
		fs.Maxs[j] = floats.Max(col)
	}
	return fs
}

// Column copies column j out of a row major matrix
func Column(rows [][]float64, j int) []float64 {
	col := make([]float64, len(rows))
	for i, row := range rows {
		col[i] = row[j]
	}
	return col
}

/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.
 
* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package anomaly

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Scaler standardizes each feature to zero mean and unit population variance
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// FitScaler learns per column mean and deviation. Constant columns get scale 1 so they map to 0.
func FitScaler(rows [][]float64) Scaler {
	if len(rows) == 0 {
		return Scaler{}
	}
	dims := len(rows[0])
	s := Scaler{Mean: make([]float64, dims), Scale: make([]float64, dims)}
	for j := 0; j < dims; j++ {
		mean, std := stat.PopMeanStdDev(Column(rows, j), nil)
		s.Mean[j] = mean
		// deviations within rounding noise of the mean are treated as zero
		if std == 0 || std < 10*epsilon*math.Abs(mean) {
			std = 1
		}
		s.Scale[j] = std
	}
	return s
}

func (s Scaler) Dims() int {
	return len(s.Mean)
}

func (s Scaler) Transform(v []float64) []float64 {
	out := make([]float64, len(v))
	for j := range v {
		out[j] = (v[j] - s.Mean[j]) / s.Scale[j]
	}
	return out
}

func (s Scaler) TransformAll(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = s.Transform(row)
	}
	return out
}

const epsilon = 2.220446049250313e-16

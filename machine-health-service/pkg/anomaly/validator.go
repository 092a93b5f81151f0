/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.
 
* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package anomaly

import (
	"fmt"

	hedgeErrors "machinehealth/common/errors"
)

const (
	MinTrainingSamples = 10

	constantStdThreshold = 1e-6
	maxConstantShare     = 0.5
	outlierIQRFactor     = 3.0
	maxOutlierShare      = 0.2
)

// ValidateTrainingSet gatekeeps a feature matrix before a model is fitted on it. The first rule
// that is violated is reported.
func ValidateTrainingSet(rows [][]float64) hedgeErrors.HedgeError {
	if len(rows) < MinTrainingSamples {
		return hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeInsufficientTrainingData,
			fmt.Sprintf("Need at least %d training samples for reliable model, got %d", MinTrainingSamples, len(rows)))
	}
	dims := len(rows[0])
	if dims == 0 {
		return qualityError("No features extracted")
	}
	for _, row := range rows {
		if len(row) != dims {
			return qualityError("Inconsistent feature dimensionality across samples")
		}
	}

	stats := ComputeStats(rows)
	constant := 0
	for _, std := range stats.Stds {
		if std < constantStdThreshold {
			constant++
		}
	}
	if float64(constant) > float64(dims)*maxConstantShare {
		return qualityError(fmt.Sprintf("Too many constant features: %d", constant))
	}

	for j := 0; j < dims; j++ {
		col := Column(rows, j)
		q25 := Percentile(col, 25)
		q75 := Percentile(col, 75)
		iqr := q75 - q25
		lower, upper := q25-outlierIQRFactor*iqr, q75+outlierIQRFactor*iqr
		outliers := 0
		for _, v := range col {
			if v < lower || v > upper {
				outliers++
			}
		}
		if float64(outliers) > float64(len(col))*maxOutlierShare {
			return qualityError(fmt.Sprintf("Too many outliers in feature %d", j))
		}
	}
	return nil
}

func qualityError(reason string) hedgeErrors.HedgeError {
	return hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeTrainingQuality, "Training data validation failed: "+reason)
}

/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.
 
* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package anomaly

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	hedgeErrors "machinehealth/common/errors"
	"machinehealth/machine-health-service/pkg/dto"
)

type FeatureComparison struct {
	Name         string  `json:"name"`
	CurrentValue float64 `json:"current_value"`
	TrainingMean float64 `json:"training_mean"`
	TrainingStd  float64 `json:"training_std"`
	ZScore       float64 `json:"z_score"`
	Similarity   float64 `json:"similarity_percent"`
}

type Comparison struct {
	Features          []FeatureComparison `json:"feature_comparison"`
	OverallSimilarity float64             `json:"overall_similarity"`
	Warnings          []string            `json:"warnings"`
	Anomaly           dto.AnomalyResult   `json:"anomaly_scores"`
}

// Compare scores how far a live feature vector sits from the training distribution, feature by feature
func (m *Model) Compare(vec []float64) (Comparison, hedgeErrors.HedgeError) {
	if !m.IsTrained() {
		return Comparison{}, hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeModelNotTrained, "No training data available for comparison")
	}
	if len(vec) != m.Dims() {
		return Comparison{}, hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeDimensionMismatch,
			fmt.Sprintf("Feature dimensionality mismatch: trained on %d features, current %d", m.Dims(), len(vec)))
	}

	cmp := Comparison{
		Features: make([]FeatureComparison, len(vec)),
		Warnings: make([]string, 0),
	}
	similarities := make([]float64, len(vec))
	for i, v := range vec {
		mean, std := m.Stats.Means[i], m.Stats.Stds[i]
		z := 0.0
		if std > 0 {
			z = math.Abs(v-mean) / std
		}
		similarity := math.Max(0, 100-z*20)
		similarities[i] = similarity
		name := m.Stats.FeatureNames[i]
		cmp.Features[i] = FeatureComparison{
			Name:         name,
			CurrentValue: v,
			TrainingMean: mean,
			TrainingStd:  std,
			ZScore:       z,
			Similarity:   similarity,
		}
		switch {
		case z > 3:
			cmp.Warnings = append(cmp.Warnings, fmt.Sprintf("%s: Significant deviation (z-score: %.2f)", name, z))
		case z > 2:
			cmp.Warnings = append(cmp.Warnings, fmt.Sprintf("%s: Moderate deviation (z-score: %.2f)", name, z))
		}
	}
	cmp.OverallSimilarity = stat.Mean(similarities, nil)
	cmp.Anomaly = m.Score(vec)
	return cmp, nil
}

/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.
 
* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package anomaly

import (
	"math"
	"time"

	"github.com/caio/go-tdigest/v4"
	"gonum.org/v1/gonum/stat"

	"machinehealth/machine-health-service/pkg/dto"
)

const highCorrelation = 0.9

type FeatureSummary struct {
	Name  string  `json:"name"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Range float64 `json:"range"`
	P5    float64 `json:"p5"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
}

type CorrelatedPair struct {
	Feature1    string  `json:"feature1"`
	Feature2    string  `json:"feature2"`
	Correlation float64 `json:"correlation"`
}

type DataQuality struct {
	SampleCount      int              `json:"sample_count"`
	FeatureCount     int              `json:"feature_count"`
	ConstantFeatures int              `json:"constant_features"`
	HighCorrelations []CorrelatedPair `json:"high_correlation_pairs"`
}

type TrainingSummary struct {
	Trained      bool             `json:"trained"`
	NumSamples   int              `json:"num_training_samples"`
	SamplingRate float64          `json:"sampling_rate"`
	Timestamp    time.Time        `json:"timestamp"`
	DataSource   string           `json:"data_source"`
	Channels     []dto.Channel    `json:"channels"`
	Features     []FeatureSummary `json:"feature_statistics"`
	DataQuality  DataQuality      `json:"data_quality"`
}

// Summary describes the training set behind the model. The untrained summary is empty with Trained false.
func (m *Model) Summary() TrainingSummary {
	if !m.IsTrained() {
		return TrainingSummary{Features: []FeatureSummary{}, Channels: []dto.Channel{}}
	}
	dims := m.Dims()
	summary := TrainingSummary{
		Trained:      true,
		NumSamples:   m.Stats.NumSamples,
		SamplingRate: m.Stats.SamplingRate,
		Timestamp:    m.Stats.Timestamp,
		DataSource:   m.Stats.DataSource,
		Channels:     m.Stats.Channels,
		Features:     make([]FeatureSummary, dims),
		DataQuality: DataQuality{
			SampleCount:      len(m.Features),
			FeatureCount:     dims,
			HighCorrelations: make([]CorrelatedPair, 0),
		},
	}

	columns := make([][]float64, dims)
	for j := 0; j < dims; j++ {
		columns[j] = Column(m.Features, j)
		fs := FeatureSummary{
			Name:  m.Stats.FeatureNames[j],
			Mean:  m.Stats.Means[j],
			Std:   m.Stats.Stds[j],
			Min:   m.Stats.Mins[j],
			Max:   m.Stats.Maxs[j],
			Range: m.Stats.Maxs[j] - m.Stats.Mins[j],
		}
		fs.P5, fs.P50, fs.P95 = quantiles(columns[j])
		summary.Features[j] = fs
		if m.Stats.Stds[j] < constantStdThreshold {
			summary.DataQuality.ConstantFeatures++
		}
	}

	for i := 0; i < dims; i++ {
		for j := i + 1; j < dims; j++ {
			r := stat.Correlation(columns[i], columns[j], nil)
			if math.IsNaN(r) || math.Abs(r) <= highCorrelation {
				continue
			}
			summary.DataQuality.HighCorrelations = append(summary.DataQuality.HighCorrelations, CorrelatedPair{
				Feature1:    m.Stats.FeatureNames[i],
				Feature2:    m.Stats.FeatureNames[j],
				Correlation: r,
			})
		}
	}
	return summary
}

// quantiles sketches a column with a t-digest
func quantiles(col []float64) (p5 float64, p50 float64, p95 float64) {
	digest, err := tdigest.New()
	if err != nil {
		return 0, 0, 0
	}
	for _, v := range col {
		if err := digest.Add(v); err != nil {
			return 0, 0, 0
		}
	}
	return digest.Quantile(0.05), digest.Quantile(0.5), digest.Quantile(0.95)
}

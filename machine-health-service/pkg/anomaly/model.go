/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.
 
* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package anomaly

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	hedgeErrors "machinehealth/common/errors"
	"machinehealth/machine-health-service/pkg/dto"
	"machinehealth/machine-health-service/pkg/features"
)

const (
	DataSourceManual      = "manual_training"
	DataSourceCalibration = "calibration"
	DataSourceSnapshot    = "snapshot"

	NotTrainedWarning = "Model not trained - cannot validate"

	zScoreWarning    = 3.0
	samplingRateSlop = 100.0
)

type TrainingStats struct {
	FeatureStats
	FeatureNames []string      `json:"feature_names"`
	NumSamples   int           `json:"num_samples"`
	SamplingRate float64       `json:"sampling_rate"`
	Timestamp    time.Time     `json:"timestamp"`
	Channels     []dto.Channel `json:"channels"`
	DataSource   string        `json:"data_source"`
}

// TrainingInput is a feature matrix plus the metadata recorded alongside the fitted model
type TrainingInput struct {
	Features     [][]float64
	SamplingRate float64
	Channels     []dto.Channel
	DataSource   string
	Timestamp    time.Time
}

// Model is a trained scaler and isolation forest. A nil *Model is the untrained state.
type Model struct {
	Scaler   Scaler
	Stats    TrainingStats
	Features [][]float64
	Options  ForestOptions
	forest   *IsolationForest
}

// ExtractTrainingFeatures turns every batch into one multi-axis feature vector using samplingRate.
// Extraction runs in parallel, the output order matches the input order.
func ExtractTrainingFeatures(ctx context.Context, batches []dto.SignalBatch, samplingRate float64) ([][]float64, error) {
	rows := make([][]float64, len(batches))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i := range batches {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			batch := batches[i]
			batch.SamplingRate = samplingRate
			rows[i] = features.ExtractMultiAxis(batch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

// Train extracts features from the batches, optionally validates them and fits a new Model.
// It never mutates any existing model, callers swap the result in.
func Train(ctx context.Context, batches []dto.SignalBatch, samplingRate float64, validate bool, dataSource string, opts ForestOptions) (*Model, error) {
	if len(batches) < MinTrainingSamples {
		return nil, hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeInsufficientTrainingData,
			fmt.Sprintf("Need at least %d training samples for reliable model, got %d", MinTrainingSamples, len(batches)))
	}
	rows, err := ExtractTrainingFeatures(ctx, batches, samplingRate)
	if err != nil {
		return nil, err
	}
	if validate {
		if verr := ValidateTrainingSet(rows); verr != nil {
			return nil, verr
		}
	}
	return Fit(TrainingInput{
		Features:     rows,
		SamplingRate: samplingRate,
		Channels:     batches[0].Present(),
		DataSource:   dataSource,
		Timestamp:    time.Now().UTC(),
	}, opts)
}

// Fit builds a Model from an already extracted feature matrix
func Fit(in TrainingInput, opts ForestOptions) (*Model, error) {
	if len(in.Features) < MinTrainingSamples {
		return nil, hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeInsufficientTrainingData,
			fmt.Sprintf("Need at least %d training samples for reliable model, got %d", MinTrainingSamples, len(in.Features)))
	}
	dims := len(in.Features[0])
	if dims == 0 {
		return nil, qualityError("No features extracted")
	}
	for _, row := range in.Features {
		if len(row) != dims {
			return nil, qualityError("Inconsistent feature dimensionality across samples")
		}
	}

	rows := make([][]float64, len(in.Features))
	for i, row := range in.Features {
		rows[i] = append([]float64(nil), row...)
	}
	scaler := FitScaler(rows)
	forest, err := FitIsolationForest(scaler.TransformAll(rows), opts)
	if err != nil {
		return nil, hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeServerError, err.Error())
	}
	names := dto.FeatureNamesFor(in.Channels)
	if len(names) != dims {
		names = genericFeatureNames(dims)
	}
	return &Model{
		Scaler:   scaler,
		Features: rows,
		Options:  opts,
		forest:   forest,
		Stats: TrainingStats{
			FeatureStats: ComputeStats(rows),
			FeatureNames: names,
			NumSamples:   len(rows),
			SamplingRate: in.SamplingRate,
			Timestamp:    in.Timestamp,
			Channels:     append([]dto.Channel(nil), in.Channels...),
			DataSource:   in.DataSource,
		},
	}, nil
}

func genericFeatureNames(dims int) []string {
	names := make([]string, dims)
	for i := range names {
		names[i] = fmt.Sprintf("Feature_%d", i)
	}
	return names
}

func (m *Model) IsTrained() bool {
	return m != nil && m.forest != nil
}

func (m *Model) Dims() int {
	if m == nil {
		return 0
	}
	return m.Scaler.Dims()
}

// NeutralResult is reported whenever no usable model decision exists. Unknown is treated as suspect.
func NeutralResult() dto.AnomalyResult {
	return dto.AnomalyResult{
		Health:     dto.NeutralScore,
		IsAnomaly:  true,
		Confidence: 0,
	}
}

// Score evaluates the decision function on a feature vector. The confidence is an opaque
// monotonic transform of the decision magnitude, not a probability.
func (m *Model) Score(vec []float64) dto.AnomalyResult {
	if !m.IsTrained() {
		return NeutralResult()
	}
	if len(vec) != m.Dims() {
		res := NeutralResult()
		res.Trained = true
		return res
	}
	decision := m.forest.Decision(m.Scaler.Transform(vec))
	return dto.AnomalyResult{
		Trained:    true,
		Score:      decision,
		IsAnomaly:  decision < 0,
		Health:     dto.ClampScore(50 + decision*25),
		Confidence: math.Min(100, math.Abs(decision)*50),
	}
}

// ValidateRealTime compares a live feature vector against the training distribution.
// The findings are advisory only.
func (m *Model) ValidateRealTime(vec []float64, samplingRate float64) dto.Validation {
	if !m.IsTrained() {
		return dto.Validation{Valid: true, Warnings: []string{NotTrainedWarning}}
	}
	warnings := make([]string, 0)
	if len(vec) != m.Dims() {
		warnings = append(warnings, fmt.Sprintf("Feature dimensionality mismatch: trained on %d features, current %d", m.Dims(), len(vec)))
	} else {
		for i, v := range vec {
			std := m.Stats.Stds[i]
			if std <= 0 {
				continue
			}
			if z := math.Abs(v-m.Stats.Means[i]) / std; z > zScoreWarning {
				warnings = append(warnings, fmt.Sprintf("Feature %d outside training distribution (z-score: %.1f)", i, z))
			}
		}
	}
	if math.Abs(samplingRate-m.Stats.SamplingRate) > samplingRateSlop {
		warnings = append(warnings, fmt.Sprintf("Sampling rate mismatch: trained on %gHz, current %gHz", m.Stats.SamplingRate, samplingRate))
	}
	return dto.Validation{Valid: len(warnings) == 0, Warnings: warnings}
}

// Restore refits a model from persisted training rows. Fitting is seeded, so the restored model
// scores exactly like the one that was saved.
func Restore(stats TrainingStats, rows [][]float64, opts ForestOptions) (*Model, error) {
	m, err := Fit(TrainingInput{
		Features:     rows,
		SamplingRate: stats.SamplingRate,
		Channels:     stats.Channels,
		DataSource:   stats.DataSource,
		Timestamp:    stats.Timestamp,
	}, opts)
	if err != nil {
		return nil, err
	}
	if len(stats.FeatureNames) == m.Dims() {
		m.Stats.FeatureNames = stats.FeatureNames
	}
	return m, nil
}

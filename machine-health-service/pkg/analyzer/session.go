/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.
 
* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package analyzer

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/edgexfoundry/go-mod-core-contracts/v3/clients/logger"
	"github.com/go-playground/validator/v10"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/stat"

	"machinehealth/common/db"
	hedgeErrors "machinehealth/common/errors"
	"machinehealth/machine-health-service/pkg/aggregate"
	"machinehealth/machine-health-service/pkg/anomaly"
	"machinehealth/machine-health-service/pkg/assess"
	"machinehealth/machine-health-service/pkg/dto"
	"machinehealth/machine-health-service/pkg/faults"
	"machinehealth/machine-health-service/pkg/features"
	"machinehealth/machine-health-service/pkg/snapshot"
)

const (
	DefaultCalibrationCopies = 30
	calibrationNoise         = 0.05

	NoSignalNotice = "No signal data provided"
)

// Session owns the machine configuration, the health weights and the trained model of one machine.
// Analyses read a consistent copy of that state. Training, calibration and snapshot loads build the
// new state off-lock and swap it in whole, a failure leaves the previous state in place.
type Session struct {
	lc                logger.LoggingClient
	validate          *validator.Validate
	forest            anomaly.ForestOptions
	profiles          MachineProfiles
	calibrationCopies int
	calibrationSeed   uint64

	mu      sync.RWMutex
	config  dto.MachineConfig
	weights dto.HealthWeights
	model   *anomaly.Model
	batches []dto.SignalBatch
}

type Option func(*Session)

var trainModel = anomaly.Train

func WithForestOptions(opts anomaly.ForestOptions) Option {
	return func(s *Session) {
		s.forest = opts
	}
}

func WithMachineProfiles(profiles MachineProfiles) Option {
	return func(s *Session) {
		s.profiles = s.profiles.Merge(profiles)
	}
}

func WithCalibration(copies int, seed uint64) Option {
	return func(s *Session) {
		if copies > 0 {
			s.calibrationCopies = copies
		}
		s.calibrationSeed = seed
	}
}

func NewSession(lc logger.LoggingClient, opts ...Option) *Session {
	s := &Session{
		lc:                lc,
		validate:          validator.New(),
		forest:            anomaly.DefaultForestOptions(),
		profiles:          DefaultMachineProfiles(),
		calibrationCopies: DefaultCalibrationCopies,
		calibrationSeed:   anomaly.DefaultSeed,
		config:            dto.DefaultMachineConfig(),
		weights:           dto.DefaultHealthWeights(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) state() (dto.MachineConfig, dto.HealthWeights, *anomaly.Model) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config, s.weights, s.model
}

// Analyze scores one batch. It never fails, bad or missing channels degrade to neutral results.
func (s *Session) Analyze(batch dto.SignalBatch) dto.IntegratedHealth {
	config, weights, model := s.state()

	present := batch.Present()
	if len(present) == 0 {
		neutral := anomaly.NeutralResult()
		return dto.IntegratedHealth{
			OverallHealth: dto.NeutralScore,
			Status:        dto.StatusNoData,
			Anomaly:       neutral.IsAnomaly,
			AnomalyHealth: neutral.Health,
			AxisHealth:    dto.NeutralScore,
			Axes:          map[dto.Channel]dto.AxisHealth{},
			Validation:    dto.Validation{Valid: true, Warnings: []string{}, Notices: []string{NoSignalNotice}},
			Features:      []float64{},
			Trained:       model.IsTrained(),
			Timestamp:     db.MakeTimestamp(),
		}
	}

	vec := features.ExtractMultiAxis(batch)
	validation := model.ValidateRealTime(vec, batch.SamplingRate)

	axes := make(map[dto.Channel]dto.AxisHealth)
	var temp *dto.TempHealth
	for _, ch := range present {
		samples := batch.Channels[ch]
		if ch.Kind() == dto.KindTemperature {
			th := assess.AnalyzeTemperature(samples, batch.SamplingRate, config.TempThresholds, weights)
			temp = &th
			continue
		}
		axes[ch] = assess.AnalyzeAxis(samples, batch.SamplingRate, ch, config, weights)
	}

	result := aggregate.Integrate(model.Score(vec), axes, temp, validation, weights)
	result.Features = vec
	result.Timestamp = db.MakeTimestamp()
	s.lc.Debugf("analyzed %d channels, overall health %.1f (%s)", len(present), result.OverallHealth, result.Status)
	return result
}

// Train fits a new model on the batches and replaces the current one when it succeeds
func (s *Session) Train(ctx context.Context, batches []dto.SignalBatch, samplingRate float64, validate bool) (anomaly.TrainingSummary, error) {
	return s.train(ctx, batches, samplingRate, validate, anomaly.DataSourceManual, nil)
}

// train fits off-lock and swaps the model in. A non-nil calibration is applied to the configuration
// current at swap time, so concurrent configuration changes are kept.
func (s *Session) train(ctx context.Context, batches []dto.SignalBatch, samplingRate float64, validate bool, source string, cal *calibration) (anomaly.TrainingSummary, error) {
	if samplingRate <= 0 {
		return anomaly.TrainingSummary{}, hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeBadRequest, "sampling rate must be positive")
	}
	model, err := trainModel(ctx, batches, samplingRate, validate, source, s.forest)
	if err != nil {
		s.lc.Warnf("training rejected, keeping the previous model: %v", err)
		return anomaly.TrainingSummary{}, err
	}
	kept := make([]dto.SignalBatch, len(batches))
	for i, b := range batches {
		kept[i] = b.Clone()
	}

	s.mu.Lock()
	s.model = model
	s.batches = kept
	if cal != nil {
		s.config = cal.applyTo(s.config)
	}
	s.mu.Unlock()

	s.lc.Infof("Model trained successfully with %d samples (%d features, source %s)", model.Stats.NumSamples, model.Dims(), source)
	return model.Summary(), nil
}

// CalibrateFromSample derives normal bands and temperature thresholds from one live batch and trains
// on jittered copies of it. The copies only differ by 5% noise, so the baseline is much narrower
// than one learned from real history.
func (s *Session) CalibrateFromSample(ctx context.Context, batch dto.SignalBatch) (anomaly.TrainingSummary, error) {
	if len(batch.Present()) == 0 {
		return anomaly.TrainingSummary{}, hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeBadRequest, "no signal data to calibrate from")
	}
	cal := &calibration{ranges: make(map[dto.Channel]dto.AxisRange)}
	for _, axis := range dto.VibrationChannels {
		samples := batch.Channels[axis]
		if len(samples) == 0 {
			continue
		}
		rms := features.RMS(samples)
		crest := features.CrestFactor(features.Peak(samples), rms)
		cal.ranges[axis] = dto.AxisRange{
			RMS:   dto.Range{Min: math.Max(0.1, rms*0.7), Max: rms * 1.3},
			Crest: dto.Range{Min: math.Max(1.5, crest*0.8), Max: crest * 1.2},
		}
	}
	if samples := batch.Channels[dto.ChannelTemperature]; len(samples) > 0 {
		mean, std := stat.PopMeanStdDev(samples, nil)
		if len(samples) < 2 {
			std = 0
		}
		cal.temp = &dto.TempThresholds{
			NormalMax:   mean + 2*std,
			WarningMax:  mean + 3*std,
			CriticalMax: mean + 4*std,
		}
	}

	copies := jitter(batch, s.calibrationCopies, s.calibrationSeed)
	return s.train(ctx, copies, batch.SamplingRate, false, anomaly.DataSourceCalibration, cal)
}

// calibration holds the bands derived from a live sample. Only these fields replace the configuration.
type calibration struct {
	ranges map[dto.Channel]dto.AxisRange
	temp   *dto.TempThresholds
}

func (c *calibration) applyTo(config dto.MachineConfig) dto.MachineConfig {
	out := config.Clone()
	for ch, r := range c.ranges {
		out.NormalRanges[ch] = r
	}
	if c.temp != nil {
		out.TempThresholds.NormalMax = c.temp.NormalMax
		out.TempThresholds.WarningMax = c.temp.WarningMax
		out.TempThresholds.CriticalMax = c.temp.CriticalMax
	}
	return out
}

// jitter returns n copies of batch with gaussian noise of 5% of each channel's deviation added
func jitter(batch dto.SignalBatch, n int, seed uint64) []dto.SignalBatch {
	rng := rand.New(rand.NewPCG(seed, seed))
	noise := make(map[dto.Channel]float64, len(batch.Channels))
	for ch, samples := range batch.Channels {
		if len(samples) > 1 {
			_, std := stat.PopMeanStdDev(samples, nil)
			noise[ch] = std * calibrationNoise
		}
	}
	out := make([]dto.SignalBatch, n)
	for i := range out {
		b := dto.NewSignalBatch(batch.SamplingRate)
		for _, ch := range batch.Present() {
			src := batch.Channels[ch]
			dst := make([]float64, len(src))
			for j, v := range src {
				dst[j] = v + rng.NormFloat64()*noise[ch]
			}
			b.Set(ch, dst)
		}
		out[i] = b
	}
	return out
}

// ConfigureMachine applies a machine setup. Bearing frequencies follow the geometry when one is given,
// otherwise the nominal ratios when a recompute is requested.
func (s *Session) ConfigureMachine(setup dto.MachineSetup) (dto.MachineConfig, error) {
	if err := s.validate.Struct(setup); err != nil {
		return dto.MachineConfig{}, hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeBadRequest, fmt.Sprintf("invalid machine setup: %v", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	config := s.config.Clone()
	if setup.MotorRPM > 0 {
		config.MotorRPM = setup.MotorRPM
		config.RotationFreq = setup.MotorRPM / 60
	}
	switch {
	case setup.Bearing != nil:
		config.BearingFreqs = faults.BearingFrequencies(config.RotationFreq, *setup.Bearing)
	case setup.RecomputeBearingFreqs:
		config.BearingFreqs = faults.NominalBearingFrequencies(config.RotationFreq)
	}
	if setup.MachineType != "" {
		name, ranges, known := s.profiles.Lookup(setup.MachineType)
		if !known {
			s.lc.Warnf("unknown machine type %s, using %s ranges", setup.MachineType, name)
		}
		config.MachineType = name
		config.NormalRanges = ranges
	}
	s.config = config
	s.lc.Infof("Machine configured: %.0f RPM, type %s, rotation %.2fHz", config.MotorRPM, config.MachineType, config.RotationFreq)
	return config.Clone(), nil
}

func (s *Session) UpdateWeights(weights dto.HealthWeights) error {
	if err := s.validate.Struct(weights); err != nil {
		return hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeBadRequest, fmt.Sprintf("invalid health weights: %v", err))
	}
	s.mu.Lock()
	s.weights = weights
	s.mu.Unlock()
	return nil
}

func (s *Session) Weights() dto.HealthWeights {
	_, w, _ := s.state()
	return w
}

func (s *Session) Config() dto.MachineConfig {
	c, _, _ := s.state()
	return c.Clone()
}

func (s *Session) IsTrained() bool {
	_, _, m := s.state()
	return m.IsTrained()
}

// Reset drops the model and restores the factory configuration and weights
func (s *Session) Reset() {
	s.mu.Lock()
	s.config = dto.DefaultMachineConfig()
	s.weights = dto.DefaultHealthWeights()
	s.model = nil
	s.batches = nil
	s.mu.Unlock()
	s.lc.Info("Reset to factory defaults")
}

func (s *Session) TrainingSummary() anomaly.TrainingSummary {
	_, _, m := s.state()
	return m.Summary()
}

func (s *Session) CompareWithTraining(batch dto.SignalBatch) (anomaly.Comparison, error) {
	_, _, m := s.state()
	cmp, err := m.Compare(features.ExtractMultiAxis(batch))
	if err != nil {
		return anomaly.Comparison{}, err
	}
	return cmp, nil
}

// Snapshot captures the training state, configuration and weights
func (s *Session) Snapshot() *snapshot.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &snapshot.Snapshot{
		Version:   snapshot.FormatVersion,
		CreatedAt: time.Now().UTC(),
		Trained:   s.model.IsTrained(),
		Batches:   make([]dto.SignalBatch, len(s.batches)),
		Features:  [][]float64{},
		Forest:    s.forest,
		Config:    s.config.Clone(),
		Weights:   s.weights,
	}
	for i, b := range s.batches {
		snap.Batches[i] = b.Clone()
	}
	if snap.Trained {
		snap.Features = make([][]float64, len(s.model.Features))
		for i, row := range s.model.Features {
			snap.Features[i] = slices.Clone(row)
		}
		stats := s.model.Stats
		stats.Means = slices.Clone(stats.Means)
		stats.Stds = slices.Clone(stats.Stds)
		stats.Mins = slices.Clone(stats.Mins)
		stats.Maxs = slices.Clone(stats.Maxs)
		stats.FeatureNames = slices.Clone(stats.FeatureNames)
		stats.Channels = slices.Clone(stats.Channels)
		scaler := anomaly.Scaler{Mean: slices.Clone(s.model.Scaler.Mean), Scale: slices.Clone(s.model.Scaler.Scale)}
		snap.Stats = &stats
		snap.Scaler = &scaler
		snap.Forest = s.model.Options
	}
	return snap
}

// LoadSnapshot replaces the session state with a snapshot. Nothing changes when the snapshot is rejected.
func (s *Session) LoadSnapshot(snap *snapshot.Snapshot) error {
	if snap == nil {
		return hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeSerialization, "nil snapshot")
	}
	if err := snap.Check(); err != nil {
		return err
	}
	if err := s.validate.Struct(snap.Weights); err != nil {
		return hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeSerialization, fmt.Sprintf("snapshot carries invalid weights: %v", err))
	}
	if snap.Config.RotationFreq <= 0 {
		return hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeSerialization, "snapshot carries an invalid machine configuration")
	}

	var model *anomaly.Model
	if snap.Trained {
		var err error
		model, err = anomaly.Restore(*snap.Stats, snap.Features, snap.Forest)
		if err != nil {
			return hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeSerialization, fmt.Sprintf("failed to restore model: %v", err))
		}
		if snap.Scaler != nil && !sameScaler(*snap.Scaler, model.Scaler) {
			return hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeSerialization, "scaler parameters do not match the training features")
		}
	}
	config := snap.Config.Clone()
	if len(config.NormalRanges) == 0 {
		config.NormalRanges = dto.DefaultNormalRanges()
	}
	batches := make([]dto.SignalBatch, len(snap.Batches))
	for i, b := range snap.Batches {
		batches[i] = b.Clone()
	}

	s.mu.Lock()
	s.config = config
	s.weights = snap.Weights
	s.model = model
	s.batches = batches
	s.mu.Unlock()

	s.lc.Infof("Loaded snapshot from %s, trained %t", snap.CreatedAt.Format(time.RFC3339), snap.Trained)
	return nil
}

func sameScaler(a, b anomaly.Scaler) bool {
	if len(a.Mean) != len(b.Mean) || len(a.Scale) != len(b.Scale) {
		return false
	}
	const tolerance = 1e-9
	for i := range a.Mean {
		if math.Abs(a.Mean[i]-b.Mean[i]) > tolerance*math.Max(1, math.Abs(a.Mean[i])) {
			return false
		}
		if math.Abs(a.Scale[i]-b.Scale[i]) > tolerance*math.Max(1, math.Abs(a.Scale[i])) {
			return false
		}
	}
	return true
}

/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.
 
* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package analyzer

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/edgexfoundry/go-mod-core-contracts/v3/clients/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	hedgeErrors "machinehealth/common/errors"
	"machinehealth/machine-health-service/pkg/anomaly"
	"machinehealth/machine-health-service/pkg/dto"
	"machinehealth/machine-health-service/pkg/faults"
	"machinehealth/machine-health-service/pkg/features"
	"machinehealth/machine-health-service/pkg/simulator"
	"machinehealth/machine-health-service/pkg/snapshot"
)

func newSession() *Session {
	return NewSession(logger.NewMockClient())
}

func sineBatch(amplitude, freq, fs float64, n int) dto.SignalBatch {
	batch := dto.NewSignalBatch(fs)
	fx := make([]float64, n)
	for i := range fx {
		fx[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/fs)
	}
	batch.Set(dto.ChannelFx, fx)
	return batch
}

func trainedSession(t *testing.T) (*Session, *simulator.Generator) {
	s := newSession()
	gen := simulator.NewGenerator(1)
	_, err := s.Train(context.Background(), gen.TrainingSet(12), gen.SamplingRate, true)
	require.NoError(t, err)
	require.True(t, s.IsTrained())
	return s, gen
}

func TestSession_Analyze_UntrainedSine(t *testing.T) {
	s := newSession()
	res := s.Analyze(sineBatch(0.5, 30, 1000, 1000))

	fx, ok := res.Axes[dto.ChannelFx]
	require.True(t, ok)
	assert.InDelta(t, 0.354, fx.RMS, 1e-3)
	assert.True(t, s.Config().RangeFor(dto.ChannelFx).RMS.Contains(fx.RMS))
	assert.Equal(t, 100.0, fx.RMSScore)

	assert.False(t, res.Trained)
	assert.True(t, res.Anomaly)
	assert.Equal(t, 0.0, res.Confidence)
	// the untrained warning costs 5 points
	assert.Equal(t, 5.0, res.ValidationPenalty)
	assert.True(t, res.Validation.Valid)
	assert.Equal(t, []string{anomaly.NotTrainedWarning}, res.Validation.Warnings)
	assert.InDelta(t, fx.Score-5, res.OverallHealth, 1e-9)
	assert.Equal(t, fx.Status, dto.StatusForScore(fx.Score))
	assert.Len(t, res.Features, dto.VibrationFeatureCount)
	assert.Nil(t, res.Temperature)
}

func TestSession_Analyze_NoData(t *testing.T) {
	s := newSession()

	res := s.Analyze(dto.NewSignalBatch(1000))
	assert.Equal(t, 50.0, res.OverallHealth)
	assert.Equal(t, dto.StatusNoData, res.Status)
	assert.Equal(t, []string{NoSignalNotice}, res.Validation.Notices)

	batch := dto.NewSignalBatch(1000)
	batch.Set(dto.ChannelFy, []float64{})
	batch.Set(dto.ChannelTemperature, []float64{})
	res = s.Analyze(batch)
	assert.Equal(t, dto.StatusNoData, res.Axes[dto.ChannelFy].Status)
	require.NotNil(t, res.Temperature)
	assert.Equal(t, dto.StatusNoData, res.Temperature.Status)
	assert.InDelta(t, 50-5, res.OverallHealth, 1e-9)
	assert.Equal(t, make([]float64, dto.VibrationFeatureCount+dto.TemperatureFeatureCount), res.Features)
}

func TestSession_Train(t *testing.T) {
	t.Run("Train - Failed (9 samples)", func(t *testing.T) {
		s := newSession()
		gen := simulator.NewGenerator(4)
		_, err := s.Train(context.Background(), gen.TrainingSet(9), gen.SamplingRate, true)
		require.Error(t, err)
		assert.True(t, hedgeErrors.IsErrorType(err, hedgeErrors.ErrorTypeInsufficientTrainingData))
		assert.False(t, s.IsTrained())
	})
	t.Run("Train - Failed (sampling rate)", func(t *testing.T) {
		s := newSession()
		_, err := s.Train(context.Background(), simulator.NewGenerator(4).TrainingSet(10), 0, true)
		assert.True(t, hedgeErrors.IsErrorType(err, hedgeErrors.ErrorTypeBadRequest))
	})
	t.Run("Train - Passed", func(t *testing.T) {
		s, gen := trainedSession(t)
		summary := s.TrainingSummary()
		assert.True(t, summary.Trained)
		assert.Equal(t, 12, summary.NumSamples)
		assert.Equal(t, anomaly.DataSourceManual, summary.DataSource)
		assert.Equal(t, dto.Channels, summary.Channels)

		res := s.Analyze(gen.Batch(simulator.ConditionHealthy))
		assert.True(t, res.Trained)
		assert.Len(t, res.Features, 3*dto.VibrationFeatureCount+dto.TemperatureFeatureCount)
		want := dto.ClampScore(0.4*res.AnomalyHealth + 0.6*res.AxisHealth - res.ValidationPenalty)
		assert.InDelta(t, want, res.OverallHealth, 1e-9)
	})
}

func TestSession_RetrainReplacesStatistics(t *testing.T) {
	s, _ := trainedSession(t)
	before := s.TrainingSummary()

	gen := simulator.NewGenerator(77)
	gen.BaseFreq = 40
	gen.BaseTemp = 60
	_, err := s.Train(context.Background(), gen.TrainingSet(15), gen.SamplingRate, false)
	require.NoError(t, err)
	after := s.TrainingSummary()

	assert.Equal(t, 15, after.NumSamples)
	require.Len(t, after.Features, len(before.Features))
	for i := range before.Features {
		assert.NotEqual(t, before.Features[i].Mean, after.Features[i].Mean, before.Features[i].Name)
	}
}

func TestSession_FailedTrainingKeepsModel(t *testing.T) {
	s, gen := trainedSession(t)
	before := s.TrainingSummary()
	batch := gen.Batch(simulator.ConditionHealthy)
	healthBefore := s.Analyze(batch).OverallHealth

	identical := make([]dto.SignalBatch, 20)
	for i := range identical {
		identical[i] = batch.Clone()
	}
	_, err := s.Train(context.Background(), identical, gen.SamplingRate, true)
	require.Error(t, err)
	assert.True(t, hedgeErrors.IsErrorType(err, hedgeErrors.ErrorTypeTrainingQuality))

	assert.Equal(t, before, s.TrainingSummary())
	assert.Equal(t, healthBefore, s.Analyze(batch).OverallHealth)
}

func TestSession_SnapshotRoundTrip(t *testing.T) {
	s, gen := trainedSession(t)
	_, err := s.ConfigureMachine(dto.MachineSetup{MachineType: "pump"})
	require.NoError(t, err)
	probe := gen.Batch(simulator.ConditionBearing)
	want := s.Analyze(probe)

	data, herr := snapshot.Encode(s.Snapshot())
	require.Nil(t, herr)
	snap, herr := snapshot.Decode(data)
	require.Nil(t, herr)

	fresh := newSession()
	require.NoError(t, fresh.LoadSnapshot(snap))
	got := fresh.Analyze(probe)

	assert.True(t, fresh.IsTrained())
	assert.Equal(t, "pump", fresh.Config().MachineType)
	assert.InDelta(t, want.OverallHealth, got.OverallHealth, 1e-9)
	assert.InDelta(t, want.AnomalyScore, got.AnomalyScore, 1e-12)
	assert.Equal(t, s.TrainingSummary().Features, fresh.TrainingSummary().Features)
}

func TestSession_LoadSnapshotFailureKeepsState(t *testing.T) {
	s, _ := trainedSession(t)
	_, err := s.ConfigureMachine(dto.MachineSetup{MotorRPM: 3000})
	require.NoError(t, err)
	configBefore := s.Config()
	summaryBefore := s.TrainingSummary()

	badVersion := s.Snapshot()
	badVersion.Version = 7
	badWeights := s.Snapshot()
	badWeights.Weights.FaultSensitivity = 0
	badScaler := s.Snapshot()
	badScaler.Scaler.Mean[0] += 1
	untrainedOther := newSession().Snapshot()
	untrainedOther.Config.RotationFreq = 0

	for name, snap := range map[string]*snapshot.Snapshot{
		"version": badVersion, "weights": badWeights, "scaler": badScaler, "config": untrainedOther, "nil": nil,
	} {
		err := s.LoadSnapshot(snap)
		require.Error(t, err, name)
		assert.True(t, hedgeErrors.IsErrorType(err, hedgeErrors.ErrorTypeSerialization), name)
		assert.Equal(t, configBefore, s.Config(), name)
		assert.Equal(t, summaryBefore, s.TrainingSummary(), name)
	}
}

func TestSession_LoadUntrainedSnapshot(t *testing.T) {
	s, _ := trainedSession(t)
	require.NoError(t, s.LoadSnapshot(newSession().Snapshot()))
	assert.False(t, s.IsTrained())
}

func TestSession_ConfigureMachine(t *testing.T) {
	s := newSession()

	cfg, err := s.ConfigureMachine(dto.MachineSetup{MotorRPM: 3600})
	require.NoError(t, err)
	assert.Equal(t, 60.0, cfg.RotationFreq)
	assert.Equal(t, []float64{157, 234, 89}, cfg.BearingFreqs)

	cfg, err = s.ConfigureMachine(dto.MachineSetup{RecomputeBearingFreqs: true})
	require.NoError(t, err)
	assert.Equal(t, faults.NominalBearingFrequencies(60), cfg.BearingFreqs)

	geometry := dto.BearingGeometry{BallCount: 9, BallDiameter: 7.94, PitchDiameter: 39.04}
	cfg, err = s.ConfigureMachine(dto.MachineSetup{Bearing: &geometry})
	require.NoError(t, err)
	assert.Equal(t, faults.BearingFrequencies(60, geometry), cfg.BearingFreqs)

	cfg, err = s.ConfigureMachine(dto.MachineSetup{MachineType: "Fan"})
	require.NoError(t, err)
	assert.Equal(t, "fan", cfg.MachineType)
	assert.Equal(t, dto.Range{Min: 0.2, Max: 0.6}, cfg.RangeFor(dto.ChannelFx).RMS)
	assert.Equal(t, 60.0, cfg.RotationFreq)

	cfg, err = s.ConfigureMachine(dto.MachineSetup{MachineType: "compressor"})
	require.NoError(t, err)
	assert.Equal(t, dto.DefaultMachineType, cfg.MachineType)
	assert.Equal(t, dto.DefaultNormalRanges(), cfg.NormalRanges)

	_, err = s.ConfigureMachine(dto.MachineSetup{MotorRPM: -10})
	assert.True(t, hedgeErrors.IsErrorType(err, hedgeErrors.ErrorTypeBadRequest))
	_, err = s.ConfigureMachine(dto.MachineSetup{Bearing: &dto.BearingGeometry{BallCount: 9, BallDiameter: 40, PitchDiameter: 10}})
	assert.True(t, hedgeErrors.IsErrorType(err, hedgeErrors.ErrorTypeBadRequest))
	assert.Equal(t, 60.0, s.Config().RotationFreq)

	// the returned config is a copy
	cfg.NormalRanges[dto.ChannelFx] = dto.AxisRange{}
	assert.NotEqual(t, dto.AxisRange{}, s.Config().NormalRanges[dto.ChannelFx])
}

func TestSession_MachineProfilesOption(t *testing.T) {
	s := NewSession(logger.NewMockClient(), WithMachineProfiles(MachineProfiles{
		"Compressor": {dto.ChannelFx: {RMS: dto.Range{Min: 1, Max: 2}, Crest: dto.Range{Min: 3, Max: 4}}},
	}))
	cfg, err := s.ConfigureMachine(dto.MachineSetup{MachineType: "compressor"})
	require.NoError(t, err)
	assert.Equal(t, "compressor", cfg.MachineType)
	assert.Equal(t, dto.Range{Min: 1, Max: 2}, cfg.RangeFor(dto.ChannelFx).RMS)
}

func TestSession_Weights(t *testing.T) {
	s := newSession()
	w := s.Weights()
	w.AnomalyDetection = 0.2
	w.AxisAnalysis = 0.8
	require.NoError(t, s.UpdateWeights(w))
	assert.Equal(t, w, s.Weights())

	bad := w
	bad.AnomalyDetection = 1.5
	err := s.UpdateWeights(bad)
	assert.True(t, hedgeErrors.IsErrorType(err, hedgeErrors.ErrorTypeBadRequest))
	bad = w
	bad.FaultSensitivity = 0
	assert.Error(t, s.UpdateWeights(bad))
	assert.Equal(t, w, s.Weights())
}

func TestSession_Reset(t *testing.T) {
	s, _ := trainedSession(t)
	_, err := s.ConfigureMachine(dto.MachineSetup{MotorRPM: 1200, MachineType: "pump"})
	require.NoError(t, err)
	w := s.Weights()
	w.FaultSensitivity = 3
	require.NoError(t, s.UpdateWeights(w))

	s.Reset()
	assert.False(t, s.IsTrained())
	assert.Equal(t, dto.DefaultMachineConfig(), s.Config())
	assert.Equal(t, dto.DefaultHealthWeights(), s.Weights())
	assert.False(t, s.TrainingSummary().Trained)
}

func TestSession_CalibrateFromSample(t *testing.T) {
	s := newSession()
	gen := simulator.NewGenerator(21)
	batch := gen.Batch(simulator.ConditionHealthy)

	summary, err := s.CalibrateFromSample(context.Background(), batch)
	require.NoError(t, err)
	assert.True(t, s.IsTrained())
	assert.Equal(t, DefaultCalibrationCopies, summary.NumSamples)
	assert.Equal(t, anomaly.DataSourceCalibration, summary.DataSource)

	cfg := s.Config()
	rms := features.RMS(batch.Channels[dto.ChannelFx])
	assert.InDelta(t, math.Max(0.1, 0.7*rms), cfg.RangeFor(dto.ChannelFx).RMS.Min, 1e-12)
	assert.InDelta(t, 1.3*rms, cfg.RangeFor(dto.ChannelFx).RMS.Max, 1e-12)
	mean, std := stat.PopMeanStdDev(batch.Channels[dto.ChannelTemperature], nil)
	assert.InDelta(t, mean+2*std, cfg.TempThresholds.NormalMax, 1e-9)
	assert.InDelta(t, mean+3*std, cfg.TempThresholds.WarningMax, 1e-9)
	assert.InDelta(t, mean+4*std, cfg.TempThresholds.CriticalMax, 1e-9)

	// the calibration sample now sits inside its own bands
	res := s.Analyze(batch)
	for _, ch := range dto.VibrationChannels {
		assert.Equal(t, 100.0, res.Axes[ch].RMSScore, ch.String())
	}

	_, err = s.CalibrateFromSample(context.Background(), dto.NewSignalBatch(1000))
	assert.True(t, hedgeErrors.IsErrorType(err, hedgeErrors.ErrorTypeBadRequest))
}

func TestSession_CalibrateKeepsConcurrentConfiguration(t *testing.T) {
	s := newSession()
	batch := simulator.NewGenerator(21).Batch(simulator.ConditionHealthy)

	originalTrainModel := trainModel
	trainModel = func(ctx context.Context, batches []dto.SignalBatch, samplingRate float64, validate bool, source string, opts anomaly.ForestOptions) (*anomaly.Model, error) {
		// lands while the calibration model is being fitted
		_, err := s.ConfigureMachine(dto.MachineSetup{MotorRPM: 3600, MachineType: "fan"})
		require.NoError(t, err)
		return originalTrainModel(ctx, batches, samplingRate, validate, source, opts)
	}
	defer func() { trainModel = originalTrainModel }()

	_, err := s.CalibrateFromSample(context.Background(), batch)
	require.NoError(t, err)

	cfg := s.Config()
	assert.Equal(t, 60.0, cfg.RotationFreq)
	assert.Equal(t, "fan", cfg.MachineType)
	rms := features.RMS(batch.Channels[dto.ChannelFx])
	assert.InDelta(t, 1.3*rms, cfg.RangeFor(dto.ChannelFx).RMS.Max, 1e-12)
	mean, std := stat.PopMeanStdDev(batch.Channels[dto.ChannelTemperature], nil)
	assert.InDelta(t, mean+4*std, cfg.TempThresholds.CriticalMax, 1e-9)
	assert.Equal(t, dto.DefaultMachineConfig().TempThresholds.MaxRiseRate, cfg.TempThresholds.MaxRiseRate)
}

func TestSession_ModelOptions(t *testing.T) {
	forest := anomaly.DefaultForestOptions()
	forest.Trees = 20
	forest.Seed = 7
	s := NewSession(logger.NewMockClient(), WithForestOptions(forest), WithCalibration(12, 3))

	summary, err := s.CalibrateFromSample(context.Background(), simulator.NewGenerator(21).Batch(simulator.ConditionHealthy))
	require.NoError(t, err)
	assert.Equal(t, 12, summary.NumSamples)
	assert.Equal(t, forest, s.Snapshot().Forest)

	t.Run("WithCalibration - Passed (non-positive copies keep the default)", func(t *testing.T) {
		s := NewSession(logger.NewMockClient(), WithCalibration(0, 3))
		summary, err := s.CalibrateFromSample(context.Background(), simulator.NewGenerator(21).Batch(simulator.ConditionHealthy))
		require.NoError(t, err)
		assert.Equal(t, DefaultCalibrationCopies, summary.NumSamples)
	})
}

func TestSession_CalibrateDeterministic(t *testing.T) {
	batch := simulator.NewGenerator(5).Batch(simulator.ConditionHealthy)
	a, b := newSession(), newSession()
	_, err := a.CalibrateFromSample(context.Background(), batch)
	require.NoError(t, err)
	_, err = b.CalibrateFromSample(context.Background(), batch)
	require.NoError(t, err)

	probe := simulator.NewGenerator(6).Batch(simulator.ConditionImbalance)
	assert.Equal(t, a.Analyze(probe).OverallHealth, b.Analyze(probe).OverallHealth)
}

func TestSession_CompareWithTraining(t *testing.T) {
	_, err := newSession().CompareWithTraining(sineBatch(0.5, 30, 1000, 1000))
	assert.True(t, hedgeErrors.IsErrorType(err, hedgeErrors.ErrorTypeModelNotTrained))

	s, gen := trainedSession(t)
	_, err = s.CompareWithTraining(sineBatch(0.5, 30, 1000, 1000))
	assert.True(t, hedgeErrors.IsErrorType(err, hedgeErrors.ErrorTypeDimensionMismatch))

	cmp, err := s.CompareWithTraining(gen.Batch(simulator.ConditionHealthy))
	require.NoError(t, err)
	assert.Len(t, cmp.Features, 3*dto.VibrationFeatureCount+dto.TemperatureFeatureCount)
	assert.Equal(t, "Fx_rms", cmp.Features[0].Name)
	assert.True(t, cmp.Anomaly.Trained)
}

func TestSession_ConcurrentAnalyzeDuringTraining(t *testing.T) {
	s := newSession()
	gen := simulator.NewGenerator(8)
	probe := gen.Batch(simulator.ConditionHealthy)
	training := gen.TrainingSet(12)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				res := s.Analyze(probe)
				assert.GreaterOrEqual(t, res.OverallHealth, 0.0)
				assert.LessOrEqual(t, res.OverallHealth, 100.0)
			}
		}()
	}
	_, err := s.Train(context.Background(), training, gen.SamplingRate, true)
	wg.Wait()
	require.NoError(t, err)
	assert.True(t, s.IsTrained())
}

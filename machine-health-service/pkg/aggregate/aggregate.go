/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.
 
* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package aggregate

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"machinehealth/machine-health-service/pkg/dto"
)

const (
	warningPenalty    = 5.0
	maxWarningPenalty = 20.0
)

// ChannelHealth combines the per channel scores into one axis health figure.
// Vibration and temperature are blended with their weights, renormalized to sum to 1, when both are present.
func ChannelHealth(axes map[dto.Channel]dto.AxisHealth, temp *dto.TempHealth, weights dto.HealthWeights) float64 {
	var vibration []float64
	for _, ch := range dto.VibrationChannels {
		if h, ok := axes[ch]; ok {
			vibration = append(vibration, h.Score)
		}
	}
	switch {
	case len(vibration) > 0 && temp != nil:
		vibWeight, tempWeight := channelWeights(weights)
		return dto.ClampScore(stat.Mean(vibration, nil)*vibWeight + temp.Score*tempWeight)
	case len(vibration) > 0:
		return stat.Mean(vibration, nil)
	case temp != nil:
		return temp.Score
	default:
		return dto.NeutralScore
	}
}

// channelWeights returns the vibration and temperature weights scaled to sum to 1.
// A zero sum falls back to the default split.
func channelWeights(weights dto.HealthWeights) (float64, float64) {
	sum := weights.VibrationWeight + weights.TemperatureWeight
	if sum <= 0 {
		defaults := dto.DefaultHealthWeights()
		weights.VibrationWeight, weights.TemperatureWeight = defaults.VibrationWeight, defaults.TemperatureWeight
		sum = weights.VibrationWeight + weights.TemperatureWeight
	}
	return weights.VibrationWeight / sum, weights.TemperatureWeight / sum
}

// ValidationPenalty is 5 points per warning, capped at 20. Notices are free.
func ValidationPenalty(v dto.Validation) float64 {
	return math.Min(maxWarningPenalty, warningPenalty*float64(len(v.Warnings)))
}

// Integrate blends the anomaly result with the channel analysis and applies the validation penalty
func Integrate(anomaly dto.AnomalyResult, axes map[dto.Channel]dto.AxisHealth, temp *dto.TempHealth, validation dto.Validation, weights dto.HealthWeights) dto.IntegratedHealth {
	hasChannels := len(axes) > 0 || temp != nil
	axisHealth := ChannelHealth(axes, temp, weights)

	var overall float64
	switch {
	case anomaly.Trained && hasChannels:
		overall = anomaly.Health*weights.AnomalyDetection + axisHealth*weights.AxisAnalysis
	case hasChannels:
		overall = axisHealth
	case anomaly.Trained:
		overall = anomaly.Health
	default:
		overall = dto.NeutralScore
	}

	penalty := ValidationPenalty(validation)
	overall = dto.ClampScore(overall - penalty)

	if axes == nil {
		axes = map[dto.Channel]dto.AxisHealth{}
	}
	return dto.IntegratedHealth{
		OverallHealth:     overall,
		Status:            dto.StatusForScore(overall),
		Anomaly:           anomaly.IsAnomaly,
		Confidence:        anomaly.Confidence,
		AnomalyHealth:     anomaly.Health,
		AnomalyScore:      anomaly.Score,
		AxisHealth:        axisHealth,
		ValidationPenalty: penalty,
		Axes:              axes,
		Temperature:       temp,
		Validation:        validation,
		Trained:           anomaly.Trained,
	}
}

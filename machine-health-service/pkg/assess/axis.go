/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.
 
* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package assess

import (
	"fmt"
	"math"

	"machinehealth/machine-health-service/pkg/dto"
	"machinehealth/machine-health-service/pkg/faults"
	"machinehealth/machine-health-service/pkg/features"
)

const (
	rmsDeviationFactor   = 50.0
	crestDeviationFactor = 25.0

	faultBearing      = "bearing"
	faultImbalance    = "imbalance"
	faultMisalignment = "misalignment"
)

// FaultThresholds scales the energy thresholds with machine speed, sensitivity > 1 lowers them
func FaultThresholds(rotationFreq float64, sensitivity float64) dto.FaultThresholds {
	if sensitivity <= 0 {
		sensitivity = 1
	}
	return dto.FaultThresholds{
		Bearing:      math.Max(50, rotationFreq*1.5) / sensitivity,
		Imbalance:    math.Max(100, rotationFreq*3.0) / sensitivity,
		Misalignment: math.Max(75, rotationFreq*2.5) / sensitivity,
	}
}

// AssessAxis scores one vibration axis from its time domain features and fault indicators
func AssessAxis(rms float64, crest float64, indicators dto.FaultIndicators, axis dto.Channel, config dto.MachineConfig, weights dto.HealthWeights) dto.AxisHealth {
	ranges := config.RangeFor(axis)
	rmsScore := bandScore(rms, ranges.RMS, rmsDeviationFactor)
	crestScore := bandScore(crest, ranges.Crest, crestDeviationFactor)

	thresholds := FaultThresholds(config.RotationFreq, weights.FaultSensitivity)
	severity := make(map[string]float64)
	penalty := 0.0
	if p, hit := faultPenalty(indicators.BearingFault, thresholds.Bearing, 30, 20); hit {
		severity[faultBearing] = p
		penalty += p
	}
	if p, hit := faultPenalty(indicators.Imbalance, thresholds.Imbalance, 25, 15); hit {
		severity[faultImbalance] = p
		penalty += p
	}
	if p, hit := faultPenalty(indicators.Misalignment, thresholds.Misalignment, 20, 12); hit {
		severity[faultMisalignment] = p
		penalty += p
	}

	score := dto.ClampScore((rmsScore+crestScore)/2 - penalty)
	status := dto.StatusForScore(score)
	return dto.AxisHealth{
		Axis:            axis,
		RMS:             rms,
		CrestFactor:     crest,
		Faults:          indicators,
		RMSScore:        rmsScore,
		CrestScore:      crestScore,
		FaultPenalty:    penalty,
		FaultSeverity:   severity,
		ThresholdsUsed:  thresholds,
		Score:           score,
		Status:          status,
		Recommendations: axisRecommendations(axis, status, severity, config),
	}
}

// AnalyzeAxis runs extraction, fault detection and assessment for the raw samples of one axis.
// Empty input short-circuits to NO_DATA.
func AnalyzeAxis(samples []float64, samplingRate float64, axis dto.Channel, config dto.MachineConfig, weights dto.HealthWeights) dto.AxisHealth {
	if len(samples) == 0 {
		return dto.AxisHealth{
			Axis:            axis,
			FaultSeverity:   map[string]float64{},
			Score:           dto.NoDataScore,
			Status:          dto.StatusNoData,
			Recommendations: []string{fmt.Sprintf("No vibration data available for %s", axis)},
		}
	}
	rms := features.RMS(samples)
	peak := features.Peak(samples)
	crest := features.CrestFactor(peak, rms)

	spectrum := features.ComputeSpectrum(samples, samplingRate)
	indicators := faults.Detect(spectrum, axis, config)
	domFreq, domMag := spectrum.Dominant()

	health := AssessAxis(rms, crest, indicators, axis, config, weights)
	health.Peak = peak
	health.DominantFreq = domFreq
	health.DominantMagnitude = domMag
	return health
}

func bandScore(v float64, band dto.Range, factor float64) float64 {
	if band.Contains(v) {
		return 100
	}
	return math.Max(0, 100-math.Abs(v-band.Mid())*factor)
}

// faultPenalty returns min(maxPenalty, (energy/threshold-1)*slope) when energy exceeds threshold
func faultPenalty(energy float64, threshold float64, maxPenalty float64, slope float64) (float64, bool) {
	if !(energy > threshold) {
		return 0, false
	}
	return math.Min(maxPenalty, (energy/threshold-1)*slope), true
}

func axisRecommendations(axis dto.Channel, status dto.HealthStatus, severity map[string]float64, config dto.MachineConfig) []string {
	rpm := formatRPM(config.MotorRPM)
	var recs []string
	switch status {
	case dto.StatusHealthy:
		recs = []string{fmt.Sprintf("%s axis operating normally at %s RPM", axis, rpm)}
	case dto.StatusWarning:
		recs = []string{
			fmt.Sprintf("Monitor %s axis closely at %s RPM", axis, rpm),
			"Check for loose connections",
			"Verify alignment and balance",
		}
	default:
		recs = []string{
			fmt.Sprintf("Immediate attention required for %s axis", axis),
			fmt.Sprintf("Schedule maintenance for %s RPM motor", rpm),
			"Check bearings, alignment, and balance",
		}
	}
	// fixed order keeps the output deterministic
	if _, ok := severity[faultBearing]; ok {
		recs = append(recs, fmt.Sprintf("%s: Bearing wear detected at %.1fHz - plan replacement", axis, config.RotationFreq))
	}
	if _, ok := severity[faultImbalance]; ok {
		recs = append(recs, fmt.Sprintf("%s: Imbalance detected at %.1fHz - check rotor balance", axis, config.RotationFreq))
	}
	if _, ok := severity[faultMisalignment]; ok {
		recs = append(recs, fmt.Sprintf("%s: Misalignment detected at harmonics - check coupling alignment", axis))
	}
	return recs
}

func formatRPM(rpm float64) string {
	if rpm == math.Trunc(rpm) {
		return fmt.Sprintf("%.0f", rpm)
	}
	return fmt.Sprintf("%.1f", rpm)
}

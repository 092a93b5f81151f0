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
	"strings"

	"gonum.org/v1/gonum/floats"

	"machinehealth/machine-health-service/pkg/dto"
	"machinehealth/machine-health-service/pkg/features"
)

const (
	peakWarningOffset  = 3.0
	peakCriticalOffset = 5.0
)

// ScaledThresholds applies the user multipliers to the configured base thresholds
func ScaledThresholds(base dto.TempThresholds, weights dto.HealthWeights) dto.TempThresholds {
	out := base
	out.NormalMax *= multiplier(weights.TempNormalMultiplier)
	out.WarningMax *= multiplier(weights.TempWarningMultiplier)
	out.CriticalMax *= multiplier(weights.TempCriticalMultiplier)
	return out
}

func multiplier(m float64) float64 {
	if m <= 0 {
		return 1
	}
	return m
}

// AssessTemperature scores mean, peak and rate of change against the scaled thresholds
func AssessTemperature(meanTemp float64, maxTemp float64, riseRate float64, base dto.TempThresholds, weights dto.HealthWeights) dto.TempHealth {
	th := ScaledThresholds(base, weights)
	var recs []string

	meanScore := 100.0
	switch {
	case meanTemp > th.CriticalMax:
		meanScore = 0
		recs = append(recs, fmt.Sprintf("Critical mean temperature (%.1f°C > %.1f°C) - immediate shutdown recommended", meanTemp, th.CriticalMax))
	case meanTemp > th.WarningMax:
		meanScore = ramp(meanTemp, th.WarningMax, th.CriticalMax, 80, 60, 20)
		recs = append(recs, fmt.Sprintf("High mean temperature (%.1f°C > %.1f°C) - check cooling", meanTemp, th.WarningMax))
	case meanTemp > th.NormalMax:
		meanScore = ramp(meanTemp, th.NormalMax, th.WarningMax, 100, 40, 60)
		recs = append(recs, fmt.Sprintf("Elevated mean temperature (%.1f°C > %.1f°C) - monitor cooling system", meanTemp, th.NormalMax))
	}

	peakCritical := th.CriticalMax + peakCriticalOffset
	peakWarning := th.WarningMax + peakWarningOffset
	maxScore := 100.0
	switch {
	case maxTemp > peakCritical:
		maxScore = 0
		recs = append(recs, fmt.Sprintf("Critical peak temperature (%.1f°C > %.1f°C) - immediate cooling required", maxTemp, peakCritical))
	case maxTemp > peakWarning:
		maxScore = ramp(maxTemp, peakWarning, peakCritical, 80, 60, 20)
		recs = append(recs, fmt.Sprintf("High peak temperature (%.1f°C > %.1f°C) - check for hot spots", maxTemp, peakWarning))
	case maxTemp > th.NormalMax:
		maxScore = ramp(maxTemp, th.NormalMax, peakWarning, 100, 30, 70)
	}

	riseScore := 100.0
	absRise := math.Abs(riseRate)
	switch {
	case th.MaxRiseRate <= 0:
	case absRise > 2*th.MaxRiseRate:
		riseScore = 0
		recs = append(recs, fmt.Sprintf("Extreme temperature rate change (%.2f°C/s > %.2f°C/s) - check for system malfunction", riseRate, 2*th.MaxRiseRate))
	case absRise > th.MaxRiseRate:
		penalty := math.Min(60, (absRise-th.MaxRiseRate)/th.MaxRiseRate*60)
		riseScore = math.Max(20, 100-penalty)
		if riseRate > 0 {
			recs = append(recs, fmt.Sprintf("Rapid temperature rise (%.2f°C/s > %.2f°C/s) - check for developing faults", riseRate, th.MaxRiseRate))
		} else {
			recs = append(recs, fmt.Sprintf("Rapid temperature drop (%.2f°C/s) - check cooling system", riseRate))
		}
	}

	wMean, wMax, wRise := componentWeights(weights)
	score := dto.ClampScore(meanScore*wMean + maxScore*wMax + riseScore*wRise)
	status := dto.StatusForScore(score)
	switch status {
	case dto.StatusHealthy:
		if len(recs) == 0 {
			recs = []string{fmt.Sprintf("Temperature within normal range (< %.1f°C)", th.NormalMax)}
		}
	case dto.StatusWarning:
		if !mentions(recs, "monitor") {
			recs = append(recs, "Monitor temperature trends closely")
		}
	default:
		if !mentions(recs, "immediate") {
			recs = append(recs, "Immediate temperature investigation required")
		}
	}

	return dto.TempHealth{
		MeanTemp:        meanTemp,
		MaxTemp:         maxTemp,
		RiseRate:        riseRate,
		MeanScore:       meanScore,
		MaxScore:        maxScore,
		RiseScore:       riseScore,
		ThresholdsUsed:  th,
		Score:           score,
		Status:          status,
		Recommendations: recs,
	}
}

// AnalyzeTemperature derives mean, peak and rise rate from raw samples before assessing them.
// The rise rate is the mean first difference multiplied by the sampling rate.
func AnalyzeTemperature(samples []float64, samplingRate float64, base dto.TempThresholds, weights dto.HealthWeights) dto.TempHealth {
	if len(samples) == 0 {
		return dto.TempHealth{
			ThresholdsUsed:  ScaledThresholds(base, weights),
			Score:           dto.NoDataScore,
			Status:          dto.StatusNoData,
			Recommendations: []string{"No temperature data available"},
		}
	}
	mean := floats.Sum(samples) / float64(len(samples))
	health := AssessTemperature(mean, floats.Max(samples), features.MeanDiff(samples)*samplingRate, base, weights)
	health.MinTemp = floats.Min(samples)
	return health
}

// ramp interpolates linearly from start at lo, dropping by span at hi, never below floor
func ramp(v, lo, hi, start, span, floor float64) float64 {
	width := hi - lo
	if width <= 0 {
		return floor
	}
	return math.Max(floor, start-(v-lo)/width*span)
}

func componentWeights(w dto.HealthWeights) (float64, float64, float64) {
	mean, peak, rise := math.Max(0, w.TempMeanWeight), math.Max(0, w.TempMaxWeight), math.Max(0, w.TempRiseWeight)
	total := mean + peak + rise
	if total <= 0 {
		d := dto.DefaultHealthWeights()
		mean, peak, rise = d.TempMeanWeight, d.TempMaxWeight, d.TempRiseWeight
		total = mean + peak + rise
	}
	return mean / total, peak / total, rise / total
}

func mentions(recs []string, word string) bool {
	for _, r := range recs {
		if strings.Contains(strings.ToLower(r), word) {
			return true
		}
	}
	return false
}

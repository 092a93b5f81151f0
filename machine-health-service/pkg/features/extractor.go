/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.
 
* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package features

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"machinehealth/machine-health-service/pkg/dto"
)

// Positions inside a vibration feature vector
const (
	VibRMS = iota
	VibPeak
	VibCrest
	VibSkewness
	VibKurtosis
	VibDominantFreq
	VibSpectralCentroid
)

// Positions inside a temperature feature vector
const (
	TempMean = iota
	TempStd
	TempMax
	TempMin
	TempGradient
	TempRange
)

// Extract converts raw samples into the fixed length descriptor of the channel kind.
// Empty input returns the zero vector of that length.
func Extract(samples []float64, samplingRate float64, kind dto.ChannelKind) []float64 {
	if kind == dto.KindTemperature {
		return ExtractTemperature(samples)
	}
	return ExtractVibration(samples, samplingRate)
}

// ExtractMultiAxis concatenates the descriptors of all recognized channels in feature order
func ExtractMultiAxis(batch dto.SignalBatch) []float64 {
	out := make([]float64, 0, len(batch.Channels)*dto.VibrationFeatureCount)
	for _, ch := range batch.Present() {
		out = append(out, Extract(batch.Channels[ch], batch.SamplingRate, ch.Kind())...)
	}
	return out
}

func ExtractVibration(samples []float64, samplingRate float64) []float64 {
	vec := make([]float64, dto.VibrationFeatureCount)
	if len(samples) == 0 {
		return vec
	}

	rms := RMS(samples)
	peak := Peak(samples)
	vec[VibRMS] = rms
	vec[VibPeak] = peak
	vec[VibCrest] = CrestFactor(peak, rms)
	vec[VibSkewness], vec[VibKurtosis] = standardizedMoments(samples)

	spectrum := ComputeSpectrum(samples, samplingRate)
	if spectrum.Total() > 0 {
		vec[VibDominantFreq], _ = spectrum.Dominant()
		vec[VibSpectralCentroid] = spectrum.Centroid()
	}
	return vec
}

func ExtractTemperature(samples []float64) []float64 {
	vec := make([]float64, dto.TemperatureFeatureCount)
	if len(samples) == 0 {
		return vec
	}
	mean, std := stat.PopMeanStdDev(samples, nil)
	if len(samples) < 2 {
		std = 0
	}
	maxT, minT := floats.Max(samples), floats.Min(samples)
	vec[TempMean] = mean
	vec[TempStd] = std
	vec[TempMax] = maxT
	vec[TempMin] = minT
	vec[TempGradient] = MeanDiff(samples)
	vec[TempRange] = maxT - minT
	return vec
}

func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	return math.Sqrt(floats.Dot(samples, samples) / float64(len(samples)))
}

func Peak(samples []float64) float64 {
	peak := 0.0
	for _, v := range samples {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return peak
}

// CrestFactor is peak/rms, 0 when rms is 0
func CrestFactor(peak float64, rms float64) float64 {
	if rms == 0 {
		return 0
	}
	return peak / rms
}

// MeanDiff is the mean of first differences, 0 below two samples
func MeanDiff(samples []float64) float64 {
	n := len(samples)
	if n < 2 {
		return 0
	}
	// the differences telescope
	return (samples[n-1] - samples[0]) / float64(n-1)
}

// standardizedMoments returns mean(z^3) and mean(z^4) of the z-normalized signal using the
// population deviation. Kurtosis is not excess, a Gaussian scores about 3.
func standardizedMoments(samples []float64) (skewness float64, kurtosis float64) {
	n := len(samples)
	if n < 2 {
		return 0, 0
	}
	mean, std := stat.PopMeanStdDev(samples, nil)
	if std == 0 || math.IsNaN(std) {
		return 0, 0
	}
	var m3, m4 float64
	for _, v := range samples {
		z := (v - mean) / std
		z2 := z * z
		m3 += z2 * z
		m4 += z2 * z2
	}
	return m3 / float64(n), m4 / float64(n)
}

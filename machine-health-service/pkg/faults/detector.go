/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.
 
* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package faults

import (
	"math"

	"machinehealth/machine-health-service/pkg/dto"
	"machinehealth/machine-health-service/pkg/features"
)

const (
	minBearingTolerance     = 2.0
	bearingToleranceRatio   = 0.1
	imbalanceToleranceRatio = 0.05
	harmonicToleranceRatio  = 0.1

	// Ratios of BPFI, BPFO and BSF to shaft speed for a typical deep groove bearing,
	// used when no geometry is known
	ratioBPFI = 5.23
	ratioBPFO = 7.8
	ratioBSF  = 2.97
)

// axisSensitivity weights the energies of each axis, unlisted channels use 1.0
var axisSensitivity = map[dto.Channel]float64{
	dto.ChannelFx: 1.0,
	dto.ChannelFy: 0.8,
	dto.ChannelFz: 0.6,
}

func AxisSensitivity(axis dto.Channel) float64 {
	if m, ok := axisSensitivity[axis]; ok {
		return m
	}
	return 1.0
}

// Detect scores spectral energy around the fault frequencies of the configured machine.
// Empty or inconsistent spectra give all-zero indicators.
func Detect(spectrum features.Spectrum, axis dto.Channel, config dto.MachineConfig) dto.FaultIndicators {
	if spectrum.Len() == 0 || len(spectrum.Freqs) != len(spectrum.Magnitudes) {
		return dto.FaultIndicators{}
	}
	rot := config.RotationFreq

	bearingTol := math.Max(minBearingTolerance, rot*bearingToleranceRatio)
	bearing := 0.0
	for _, bf := range config.BearingFreqs {
		bearing += spectrum.BandSum(bf, bearingTol)
	}

	imbalance := spectrum.BandSum(rot, rot*imbalanceToleranceRatio)

	harmTol := rot * harmonicToleranceRatio
	misalignment := spectrum.BandSum(2*rot, harmTol) + spectrum.BandSum(3*rot, harmTol)

	m := AxisSensitivity(axis)
	return dto.FaultIndicators{
		BearingFault:  bearing * m,
		Imbalance:     imbalance * m,
		Misalignment:  misalignment * m,
		OverallEnergy: spectrum.Total() * m,
	}
}

// DetectFromSamples computes the spectrum and runs Detect
func DetectFromSamples(samples []float64, samplingRate float64, axis dto.Channel, config dto.MachineConfig) dto.FaultIndicators {
	return Detect(features.ComputeSpectrum(samples, samplingRate), axis, config)
}

// NominalBearingFrequencies derives BPFI, BPFO and BSF from shaft speed with fixed ratios
func NominalBearingFrequencies(rotationFreq float64) []float64 {
	return []float64{rotationFreq * ratioBPFI, rotationFreq * ratioBPFO, rotationFreq * ratioBSF}
}

// BearingFrequencies derives BPFI, BPFO and BSF from bearing geometry
func BearingFrequencies(rotationFreq float64, g dto.BearingGeometry) []float64 {
	ratio := g.BallDiameter / g.PitchDiameter * math.Cos(g.ContactAngle*math.Pi/180)
	half := float64(g.BallCount) / 2
	bpfi := half * rotationFreq * (1 + ratio)
	bpfo := half * rotationFreq * (1 - ratio)
	bsf := g.PitchDiameter / (2 * g.BallDiameter) * rotationFreq * (1 - ratio*ratio)
	return []float64{bpfi, bpfo, bsf}
}

/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.
 
* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package features

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// Spectrum is the one-sided magnitude spectrum of a real signal.
// Magnitudes are unnormalized |X(k)|, so a sine of amplitude A over n samples peaks near A*n/2.
type Spectrum struct {
	Freqs      []float64
	Magnitudes []float64
}

func (s Spectrum) Len() int {
	return len(s.Magnitudes)
}

// Dominant returns the frequency and magnitude of the strongest bin
func (s Spectrum) Dominant() (freq float64, magnitude float64) {
	if s.Len() == 0 {
		return 0, 0
	}
	idx := floats.MaxIdx(s.Magnitudes)
	return s.Freqs[idx], s.Magnitudes[idx]
}

func (s Spectrum) Total() float64 {
	return floats.Sum(s.Magnitudes)
}

// Centroid is the magnitude weighted mean frequency, 0 for an empty or silent spectrum
func (s Spectrum) Centroid() float64 {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return floats.Dot(s.Freqs, s.Magnitudes) / total
}

// ComputeSpectrum keeps the first n/2 bins of the transform, bin k sits at k*fs/n.
// Fewer than two samples, or a non-positive sampling rate, yield an empty spectrum.
func ComputeSpectrum(samples []float64, samplingRate float64) Spectrum {
	n := len(samples)
	if n < 2 || samplingRate <= 0 {
		return Spectrum{}
	}
	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, samples)

	half := n / 2
	spectrum := Spectrum{
		Freqs:      make([]float64, half),
		Magnitudes: make([]float64, half),
	}
	for k := 0; k < half; k++ {
		spectrum.Freqs[k] = float64(k) * samplingRate / float64(n)
		spectrum.Magnitudes[k] = cmplx.Abs(coeffs[k])
	}
	return spectrum
}

// BandSum adds the magnitudes of all bins whose frequency lies in [center-tol, center+tol]
func (s Spectrum) BandSum(center float64, tolerance float64) float64 {
	lo, hi := center-tolerance, center+tolerance
	sum := 0.0
	for i, f := range s.Freqs {
		if f >= lo && f <= hi {
			sum += s.Magnitudes[i]
		}
	}
	return sum
}

/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.
 
* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package simulator

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	hedgeErrors "machinehealth/common/errors"
	"machinehealth/machine-health-service/pkg/dto"
)

type Condition string

const (
	ConditionHealthy      Condition = "healthy"
	ConditionBearing      Condition = "bearing"
	ConditionImbalance    Condition = "imbalance"
	ConditionMisalignment Condition = "misalignment"

	DefaultSamplingRate = 1000.0
	DefaultDuration     = 2.0
	DefaultBaseFreq     = 30.0
	DefaultBaseTemp     = 75.0

	bearingFaultFreq   = 157.0
	impulseProbability = 0.05
)

var Conditions = []Condition{ConditionHealthy, ConditionBearing, ConditionImbalance, ConditionMisalignment}

func ParseCondition(s string) (Condition, hedgeErrors.HedgeError) {
	c := Condition(strings.ToLower(strings.TrimSpace(s)))
	if c == "" {
		return ConditionHealthy, nil
	}
	for _, known := range Conditions {
		if c == known {
			return c, nil
		}
	}
	return "", hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeBadRequest, fmt.Sprintf("unknown condition %q", s))
}

type axisProfile struct {
	amplitude float64
	phase     float64
	harmonic  float64
	noise     float64
	severity  float64
	imbalance float64
}

var profiles = map[dto.Channel]axisProfile{
	dto.ChannelFx: {amplitude: 0.5, phase: 0, harmonic: 0.2, noise: 0.1, severity: 1.0, imbalance: 2.5},
	dto.ChannelFy: {amplitude: 0.4, phase: math.Pi / 4, harmonic: 0.15, noise: 0.08, severity: 0.8, imbalance: 2.0},
	dto.ChannelFz: {amplitude: 0.3, phase: math.Pi / 2, harmonic: 0.1, noise: 0.06, severity: 0.6, imbalance: 1.2},
}

// Generator synthesizes three axis vibration and temperature windows of a motor with an optional fault
type Generator struct {
	SamplingRate float64
	Duration     float64
	BaseFreq     float64
	BaseTemp     float64
	rng          *rand.Rand
}

func NewGenerator(seed uint64) *Generator {
	return &Generator{
		SamplingRate: DefaultSamplingRate,
		Duration:     DefaultDuration,
		BaseFreq:     DefaultBaseFreq,
		BaseTemp:     DefaultBaseTemp,
		rng:          rand.New(rand.NewPCG(seed, seed)),
	}
}

// timeVector spans [0, Duration] inclusive with SamplingRate*Duration points
func (g *Generator) timeVector() []float64 {
	n := int(g.SamplingRate * g.Duration)
	t := make([]float64, n)
	if n == 1 {
		return t
	}
	step := g.Duration / float64(n-1)
	for i := range t {
		t[i] = float64(i) * step
	}
	return t
}

func (g *Generator) Healthy(axis dto.Channel) []float64 {
	p, ok := profiles[axis]
	if !ok {
		p = profiles[dto.ChannelFz]
	}
	t := g.timeVector()
	out := make([]float64, len(t))
	for i, ti := range t {
		w := 2 * math.Pi * g.BaseFreq * ti
		out[i] = p.amplitude*math.Sin(w+p.phase) + p.harmonic*math.Sin(2*w) + p.noise*g.rng.NormFloat64()
	}
	return out
}

func (g *Generator) Faulty(condition Condition, axis dto.Channel) []float64 {
	out := g.Healthy(axis)
	p, ok := profiles[axis]
	if !ok {
		p = profiles[dto.ChannelFz]
	}
	t := g.timeVector()
	switch condition {
	case ConditionBearing:
		for i, ti := range t {
			out[i] += 0.8 * p.severity * math.Sin(2*math.Pi*bearingFaultFreq*ti)
			if g.rng.Float64() < impulseProbability {
				out[i] += 2 * p.severity
			}
		}
	case ConditionImbalance:
		for i := range out {
			out[i] = out[i]*p.imbalance + 0.3*g.rng.NormFloat64()
		}
	case ConditionMisalignment:
		for i, ti := range t {
			out[i] += 1.2*p.severity*math.Sin(2*math.Pi*2*g.BaseFreq*ti) + 0.8*p.severity*math.Sin(2*math.Pi*3*g.BaseFreq*ti)
		}
	}
	return out
}

func (g *Generator) Temperature(condition Condition) []float64 {
	t := g.timeVector()
	out := make([]float64, len(t))
	for i, ti := range t {
		v := g.BaseTemp + 5*math.Sin(2*math.Pi*0.1*ti) + 2*g.rng.NormFloat64()
		switch condition {
		case ConditionBearing:
			v += 15 + 5*math.Sin(2*math.Pi*0.05*ti)
		case ConditionImbalance:
			v += 8 + 3*math.Sin(2*math.Pi*0.08*ti)
		case ConditionMisalignment:
			v += 12 + 4*math.Sin(2*math.Pi*0.06*ti)
		}
		out[i] = v
	}
	return out
}

// Batch produces one window with all four channels
func (g *Generator) Batch(condition Condition) dto.SignalBatch {
	batch := dto.NewSignalBatch(g.SamplingRate)
	for _, axis := range dto.VibrationChannels {
		batch.Set(axis, g.Faulty(condition, axis))
	}
	batch.Set(dto.ChannelTemperature, g.Temperature(condition))
	return batch
}

// TrainingSet produces n healthy windows
func (g *Generator) TrainingSet(n int) []dto.SignalBatch {
	out := make([]dto.SignalBatch, n)
	for i := range out {
		out[i] = g.Batch(ConditionHealthy)
	}
	return out
}

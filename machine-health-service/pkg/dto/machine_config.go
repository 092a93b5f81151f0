/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.
 
* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package dto

const (
	DefaultMotorRPM    = 1800.0
	DefaultMachineType = "motor"
)

// Range is an inclusive [Min, Max] band
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (r Range) Contains(v float64) bool {
	return r.Min <= v && v <= r.Max
}

func (r Range) Mid() float64 {
	return (r.Min + r.Max) / 2
}

// AxisRange is the normal operating band of one vibration axis
type AxisRange struct {
	RMS   Range `json:"rms"`
	Crest Range `json:"crest"`
}

type TempThresholds struct {
	NormalMax   float64 `json:"normal_max"`
	WarningMax  float64 `json:"warning_max"`
	CriticalMax float64 `json:"critical_max"`
	MaxRiseRate float64 `json:"max_rise_rate"`
}

type MachineConfig struct {
	MotorRPM       float64               `json:"motor_rpm"`
	MachineType    string                `json:"machine_type"`
	RotationFreq   float64               `json:"rotation_freq"`
	BearingFreqs   []float64             `json:"bearing_freqs"`
	NormalRanges   map[Channel]AxisRange `json:"normal_ranges"`
	TempThresholds TempThresholds        `json:"temp_thresholds"`
}

func DefaultMachineConfig() MachineConfig {
	return MachineConfig{
		MotorRPM:     DefaultMotorRPM,
		MachineType:  DefaultMachineType,
		RotationFreq: DefaultMotorRPM / 60,
		BearingFreqs: []float64{157, 234, 89},
		NormalRanges: DefaultNormalRanges(),
		TempThresholds: TempThresholds{
			NormalMax:   80,
			WarningMax:  85,
			CriticalMax: 95,
			MaxRiseRate: 2.0,
		},
	}
}

func DefaultNormalRanges() map[Channel]AxisRange {
	return map[Channel]AxisRange{
		ChannelFx: {RMS: Range{0.3, 0.8}, Crest: Range{2.5, 4.0}},
		ChannelFy: {RMS: Range{0.2, 0.6}, Crest: Range{2.8, 4.2}},
		ChannelFz: {RMS: Range{0.15, 0.5}, Crest: Range{3.0, 4.5}},
	}
}

// RangeFor returns the normal band of an axis, falling back to the Fx band
func (c MachineConfig) RangeFor(ch Channel) AxisRange {
	if r, ok := c.NormalRanges[ch]; ok {
		return r
	}
	if r, ok := c.NormalRanges[ChannelFx]; ok {
		return r
	}
	return DefaultNormalRanges()[ChannelFx]
}

// Clone returns a deep copy so callers can build a replacement without touching the live config
func (c MachineConfig) Clone() MachineConfig {
	out := c
	out.BearingFreqs = append([]float64(nil), c.BearingFreqs...)
	out.NormalRanges = make(map[Channel]AxisRange, len(c.NormalRanges))
	for k, v := range c.NormalRanges {
		out.NormalRanges[k] = v
	}
	return out
}

// BearingGeometry describes a rolling element bearing, angles in degrees
type BearingGeometry struct {
	BallCount     int     `json:"ball_count" validate:"gt=0"`
	BallDiameter  float64 `json:"ball_diameter" validate:"gt=0"`
	PitchDiameter float64 `json:"pitch_diameter" validate:"gt=0,gtfield=BallDiameter"`
	ContactAngle  float64 `json:"contact_angle" validate:"gte=0,lt=90"`
}

// MachineSetup is a configuration request, zero values leave the current setting in place
type MachineSetup struct {
	MotorRPM              float64          `json:"motor_rpm" validate:"gte=0"`
	MachineType           string           `json:"machine_type,omitempty"`
	RecomputeBearingFreqs bool             `json:"recompute_bearing_freqs,omitempty"`
	Bearing               *BearingGeometry `json:"bearing,omitempty" validate:"omitempty"`
}

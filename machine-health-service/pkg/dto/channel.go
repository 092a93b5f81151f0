/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.
 
* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package dto

import (
	"fmt"
)

// Channel identifies one sensor stream of a SignalBatch
type Channel int

const (
	ChannelFx Channel = iota
	ChannelFy
	ChannelFz
	ChannelTemperature
)

// ChannelKind groups channels that share a feature layout
type ChannelKind int

const (
	KindVibration ChannelKind = iota
	KindTemperature
)

const (
	VibrationFeatureCount   = 7
	TemperatureFeatureCount = 6

	// legacyTemperatureKey is the channel name older acquisition layers use for the temperature probe
	legacyTemperatureKey = "v0"
)

// Channels lists every channel in the order feature vectors are concatenated
var Channels = []Channel{ChannelFx, ChannelFy, ChannelFz, ChannelTemperature}

// VibrationChannels are the accelerometer axes
var VibrationChannels = []Channel{ChannelFx, ChannelFy, ChannelFz}

var channelNames = map[Channel]string{
	ChannelFx:          "Fx",
	ChannelFy:          "Fy",
	ChannelFz:          "Fz",
	ChannelTemperature: "Temperature",
}

var vibrationFeatureNames = []string{"rms", "peak", "crest", "skewness", "kurtosis", "dominant_freq", "spectral_centroid"}
var temperatureFeatureNames = []string{"mean", "std", "max", "min", "gradient", "range"}

func (c Channel) String() string {
	if name, ok := channelNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Channel(%d)", int(c))
}

func (c Channel) IsValid() bool {
	_, ok := channelNames[c]
	return ok
}

func (c Channel) Kind() ChannelKind {
	if c == ChannelTemperature {
		return KindTemperature
	}
	return KindVibration
}

// FeatureNames returns the qualified feature names for this channel, e.g. Fx_rms
func (c Channel) FeatureNames() []string {
	base := vibrationFeatureNames
	if c.Kind() == KindTemperature {
		base = temperatureFeatureNames
	}
	names := make([]string, len(base))
	for i, n := range base {
		names[i] = c.String() + "_" + n
	}
	return names
}

func (k ChannelKind) FeatureCount() int {
	if k == KindTemperature {
		return TemperatureFeatureCount
	}
	return VibrationFeatureCount
}

func (k ChannelKind) String() string {
	if k == KindTemperature {
		return "temperature"
	}
	return "vibration"
}

// ParseChannel maps a channel key to a Channel, ok is false for keys that should be ignored
func ParseChannel(key string) (Channel, bool) {
	if key == legacyTemperatureKey {
		return ChannelTemperature, true
	}
	for c, name := range channelNames {
		if name == key {
			return c, true
		}
	}
	return 0, false
}

func (c Channel) MarshalText() ([]byte, error) {
	if !c.IsValid() {
		return nil, fmt.Errorf("invalid channel %d", int(c))
	}
	return []byte(c.String()), nil
}

func (c *Channel) UnmarshalText(text []byte) error {
	parsed, ok := ParseChannel(string(text))
	if !ok {
		return fmt.Errorf("unknown channel %q", string(text))
	}
	*c = parsed
	return nil
}

/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.
 
* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package dto

import (
	"encoding/json"

	"golang.org/x/exp/slices"
)

// SignalBatch is one acquisition window: samples per channel sharing a single sampling rate
type SignalBatch struct {
	Channels     map[Channel][]float64 `json:"channels"`
	SamplingRate float64               `json:"sampling_rate" validate:"gt=0"`
}

type signalBatchJSON struct {
	Channels     map[string][]float64 `json:"channels"`
	SamplingRate float64              `json:"sampling_rate"`
}

func NewSignalBatch(samplingRate float64) SignalBatch {
	return SignalBatch{
		Channels:     make(map[Channel][]float64),
		SamplingRate: samplingRate,
	}
}

// UnmarshalJSON accepts arbitrary channel keys and drops the ones that are not recognized
func (b *SignalBatch) UnmarshalJSON(data []byte) error {
	var raw signalBatchJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.SamplingRate = raw.SamplingRate
	b.Channels = make(map[Channel][]float64, len(raw.Channels))
	// sorted so that "Temperature" wins over the "v0" alias deterministically
	keys := make([]string, 0, len(raw.Channels))
	for k := range raw.Channels {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		ch, ok := ParseChannel(k)
		if !ok {
			continue
		}
		if _, exists := b.Channels[ch]; exists && k == legacyTemperatureKey {
			continue
		}
		b.Channels[ch] = raw.Channels[k]
	}
	return nil
}

// Set adds or replaces the samples of one channel
func (b *SignalBatch) Set(ch Channel, samples []float64) {
	if b.Channels == nil {
		b.Channels = make(map[Channel][]float64)
	}
	b.Channels[ch] = samples
}

// Present returns the recognized channels of the batch in feature order
func (b SignalBatch) Present() []Channel {
	present := make([]Channel, 0, len(b.Channels))
	for _, ch := range Channels {
		if _, ok := b.Channels[ch]; ok {
			present = append(present, ch)
		}
	}
	return present
}

// FeatureNames returns the names of the concatenated feature vector of this batch
func (b SignalBatch) FeatureNames() []string {
	return FeatureNamesFor(b.Present())
}

func FeatureNamesFor(channels []Channel) []string {
	names := make([]string, 0)
	for _, ch := range channels {
		names = append(names, ch.FeatureNames()...)
	}
	return names
}

// Clone deep-copies the batch
func (b SignalBatch) Clone() SignalBatch {
	out := NewSignalBatch(b.SamplingRate)
	for ch, samples := range b.Channels {
		cp := make([]float64, len(samples))
		copy(cp, samples)
		out.Channels[ch] = cp
	}
	return out
}

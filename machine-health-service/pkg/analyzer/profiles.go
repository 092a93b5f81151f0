/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.
 
* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package analyzer

import (
	"strings"

	"machinehealth/machine-health-service/pkg/dto"
)

// MachineProfiles maps a machine type to the normal operating bands of its axes
type MachineProfiles map[string]map[dto.Channel]dto.AxisRange

func DefaultMachineProfiles() MachineProfiles {
	return MachineProfiles{
		"motor": dto.DefaultNormalRanges(),
		"pump": {
			dto.ChannelFx: {RMS: dto.Range{Min: 0.5, Max: 1.2}, Crest: dto.Range{Min: 3.0, Max: 5.0}},
			dto.ChannelFy: {RMS: dto.Range{Min: 0.4, Max: 1.0}, Crest: dto.Range{Min: 3.2, Max: 5.2}},
			dto.ChannelFz: {RMS: dto.Range{Min: 0.3, Max: 0.8}, Crest: dto.Range{Min: 3.5, Max: 5.5}},
		},
		"fan": {
			dto.ChannelFx: {RMS: dto.Range{Min: 0.2, Max: 0.6}, Crest: dto.Range{Min: 2.0, Max: 3.5}},
			dto.ChannelFy: {RMS: dto.Range{Min: 0.15, Max: 0.5}, Crest: dto.Range{Min: 2.2, Max: 3.7}},
			dto.ChannelFz: {RMS: dto.Range{Min: 0.1, Max: 0.4}, Crest: dto.Range{Min: 2.5, Max: 4.0}},
		},
	}
}

// Lookup returns a copy of the ranges for machineType. Unknown types fall back to the motor profile.
func (p MachineProfiles) Lookup(machineType string) (string, map[dto.Channel]dto.AxisRange, bool) {
	name := strings.ToLower(strings.TrimSpace(machineType))
	ranges, ok := p[name]
	if !ok {
		name = dto.DefaultMachineType
		ranges, ok = p[name]
		if !ok {
			ranges = dto.DefaultNormalRanges()
		}
		ok = false
	}
	out := make(map[dto.Channel]dto.AxisRange, len(ranges))
	for ch, r := range ranges {
		out[ch] = r
	}
	return name, out, ok
}

// Merge overlays other on a copy of p, axis by axis
func (p MachineProfiles) Merge(other MachineProfiles) MachineProfiles {
	out := make(MachineProfiles, len(p)+len(other))
	for name, ranges := range p {
		out[name] = ranges
	}
	for name, ranges := range other {
		name = strings.ToLower(name)
		merged := make(map[dto.Channel]dto.AxisRange)
		for ch, r := range out[name] {
			merged[ch] = r
		}
		for ch, r := range ranges {
			merged[ch] = r
		}
		out[name] = merged
	}
	return out
}

/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.
 
* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package simulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	hedgeErrors "machinehealth/common/errors"
	"machinehealth/machine-health-service/pkg/dto"
	"machinehealth/machine-health-service/pkg/faults"
	"machinehealth/machine-health-service/pkg/features"
)

func TestParseCondition(t *testing.T) {
	for _, s := range []string{"healthy", "Bearing", " imbalance ", "MISALIGNMENT"} {
		_, err := ParseCondition(s)
		assert.Nil(t, err, s)
	}
	c, err := ParseCondition("")
	assert.Nil(t, err)
	assert.Equal(t, ConditionHealthy, c)

	_, err = ParseCondition("cavitation")
	require.NotNil(t, err)
	assert.True(t, err.IsErrorType(hedgeErrors.ErrorTypeBadRequest))
}

func TestBatch_Shape(t *testing.T) {
	b := NewGenerator(1).Batch(ConditionHealthy)

	assert.Equal(t, DefaultSamplingRate, b.SamplingRate)
	assert.Equal(t, dto.Channels, b.Present())
	for _, ch := range dto.Channels {
		assert.Len(t, b.Channels[ch], 2000)
	}
}

func TestGenerator_Deterministic(t *testing.T) {
	a := NewGenerator(9).Batch(ConditionBearing)
	b := NewGenerator(9).Batch(ConditionBearing)
	c := NewGenerator(10).Batch(ConditionBearing)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a.Channels[dto.ChannelFx], c.Channels[dto.ChannelFx])
}

func TestFaultSignatures(t *testing.T) {
	cfg := dto.DefaultMachineConfig()
	g := NewGenerator(3)
	healthy := faults.DetectFromSamples(g.Healthy(dto.ChannelFx), g.SamplingRate, dto.ChannelFx, cfg)
	bearing := faults.DetectFromSamples(g.Faulty(ConditionBearing, dto.ChannelFx), g.SamplingRate, dto.ChannelFx, cfg)
	misalign := faults.DetectFromSamples(g.Faulty(ConditionMisalignment, dto.ChannelFx), g.SamplingRate, dto.ChannelFx, cfg)

	assert.Greater(t, bearing.BearingFault, 2*healthy.BearingFault)
	assert.Greater(t, misalign.Misalignment, 2*healthy.Misalignment)

	imbalanced := g.Faulty(ConditionImbalance, dto.ChannelFx)
	assert.Greater(t, features.RMS(imbalanced), 2*features.RMS(g.Healthy(dto.ChannelFx)))
}

func TestTemperatureOffsets(t *testing.T) {
	g := NewGenerator(5)
	normal := stat.Mean(g.Temperature(ConditionHealthy), nil)
	bearing := stat.Mean(g.Temperature(ConditionBearing), nil)
	imbalance := stat.Mean(g.Temperature(ConditionImbalance), nil)

	// the slow drift adds about 2.75 degrees over a two second window
	assert.InDelta(t, 77.75, normal, 0.5)
	assert.InDelta(t, 94.27, bearing, 0.5)
	assert.InDelta(t, 87.13, imbalance, 0.5)
}

func TestTrainingSet(t *testing.T) {
	set := NewGenerator(2).TrainingSet(12)
	require.Len(t, set, 12)
	assert.NotEqual(t, set[0].Channels[dto.ChannelFx], set[1].Channels[dto.ChannelFx])
}

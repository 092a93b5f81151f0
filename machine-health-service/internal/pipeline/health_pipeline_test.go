/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.

* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package pipeline

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/edgexfoundry/app-functions-sdk-go/v3/pkg"
	"github.com/edgexfoundry/app-functions-sdk-go/v3/pkg/interfaces"
	"github.com/edgexfoundry/go-mod-core-contracts/v3/clients/logger"
	"github.com/edgexfoundry/go-mod-core-contracts/v3/common"
	"github.com/edgexfoundry/go-mod-core-contracts/v3/dtos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	commonDto "machinehealth/common/dto"
	"machinehealth/common/telemetry"
	"machinehealth/machine-health-service/internal/config"
	"machinehealth/machine-health-service/pkg/analyzer"
	"machinehealth/machine-health-service/pkg/dto"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) MQTTSend(ctx interfaces.AppFunctionContext, data interface{}) (bool, interface{}) {
	args := m.Called(ctx, data)
	return args.Bool(0), args.Get(1)
}

func formatArray(samples []float64) string {
	parts := make([]string, len(samples))
	for i, v := range samples {
		parts[i] = strconv.FormatFloat(v, 'e', -1, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func sine(n int, amplitude float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*30*float64(i)/1000)
	}
	return out
}

func arrayReading(resource string, samples []float64) dtos.BaseReading {
	return dtos.BaseReading{
		DeviceName:    "pump-01",
		ResourceName:  resource,
		ValueType:     common.ValueTypeFloat64Array,
		SimpleReading: dtos.SimpleReading{Value: formatArray(samples)},
	}
}

func newTestPipeline(healthSender, eventSender Sender) (*HealthPipeline, *telemetry.Counters) {
	lc := logger.NewMockClient()
	counters := telemetry.NewCounters(nil, nil, lc)
	p := NewHealthPipeline(lc, analyzer.NewSession(lc), config.NewAppConfig(), counters, healthSender, eventSender)
	return p, counters
}

func testContext() interfaces.AppFunctionContext {
	return pkg.NewAppFuncContextForTest("mh-correlation-01", logger.NewMockClient())
}

func TestHealthPipeline_EventToBatch(t *testing.T) {
	p, _ := newTestPipeline(nil, nil)

	t.Run("EventToBatch - Passed", func(t *testing.T) {
		event := dtos.Event{
			DeviceName: "pump-01",
			Readings: []dtos.BaseReading{
				arrayReading("Fx", []float64{0.1, 0.2}),
				arrayReading("Fx", []float64{0.3}),
				arrayReading("Fy", []float64{-0.5, 0.5}),
				arrayReading("Pressure", []float64{9, 9}),
				{ResourceName: "v0", ValueType: common.ValueTypeFloat64, SimpleReading: dtos.SimpleReading{Value: "7.55e+01"}},
				{ResourceName: "Fz", ValueType: common.ValueTypeString, SimpleReading: dtos.SimpleReading{Value: "noisy"}},
			},
		}
		batch, err := p.EventToBatch(event)
		require.NoError(t, err)

		assert.Equal(t, config.DefaultSamplingRate, batch.SamplingRate)
		assert.InDeltaSlice(t, []float64{0.1, 0.2, 0.3}, batch.Channels[dto.ChannelFx], 1e-12)
		assert.InDeltaSlice(t, []float64{-0.5, 0.5}, batch.Channels[dto.ChannelFy], 1e-12)
		assert.Equal(t, []float64{75.5}, batch.Channels[dto.ChannelTemperature])
		assert.NotContains(t, batch.Channels, dto.ChannelFz)
	})
	t.Run("EventToBatch - Passed (sampling rate tag)", func(t *testing.T) {
		for _, tag := range []interface{}{2000.0, "2000", 2000} {
			event := dtos.Event{
				Tags:     map[string]interface{}{"sampling_rate": tag},
				Readings: []dtos.BaseReading{arrayReading("Fx", []float64{1})},
			}
			batch, err := p.EventToBatch(event)
			require.NoError(t, err)
			assert.Equal(t, 2000.0, batch.SamplingRate)
		}
	})
	t.Run("EventToBatch - Passed (invalid sampling rate tag)", func(t *testing.T) {
		event := dtos.Event{
			Tags:     map[string]interface{}{"sampling_rate": "-1"},
			Readings: []dtos.BaseReading{arrayReading("Fx", []float64{1})},
		}
		batch, err := p.EventToBatch(event)
		require.NoError(t, err)
		assert.Equal(t, config.DefaultSamplingRate, batch.SamplingRate)
	})
	t.Run("EventToBatch - Failed (malformed array skipped)", func(t *testing.T) {
		event := dtos.Event{Readings: []dtos.BaseReading{
			{ResourceName: "Fx", ValueType: common.ValueTypeFloat64Array, SimpleReading: dtos.SimpleReading{Value: "[1, x]"}},
		}}
		_, err := p.EventToBatch(event)
		assert.Error(t, err)
	})
}

func TestHealthPipeline_ToSignalBatch(t *testing.T) {
	ctx := testContext()

	t.Run("ToSignalBatch - Passed", func(t *testing.T) {
		p, _ := newTestPipeline(nil, nil)
		event := dtos.Event{DeviceName: "pump-01", ProfileName: "pump", Readings: []dtos.BaseReading{arrayReading("Fx", sine(100, 0.5))}}
		ok, out := p.ToSignalBatch(ctx, event)
		require.True(t, ok)
		deviceBatch, isBatch := out.(DeviceBatch)
		require.True(t, isBatch)
		assert.Equal(t, "pump-01", deviceBatch.DeviceName)
		assert.Equal(t, "pump", deviceBatch.ProfileName)
		assert.Len(t, deviceBatch.Batch.Channels[dto.ChannelFx], 100)
	})
	t.Run("ToSignalBatch - Failed (no data)", func(t *testing.T) {
		p, _ := newTestPipeline(nil, nil)
		ok, out := p.ToSignalBatch(ctx, nil)
		assert.False(t, ok)
		assert.Error(t, out.(error))
	})
	t.Run("ToSignalBatch - Failed (not an event)", func(t *testing.T) {
		p, _ := newTestPipeline(nil, nil)
		ok, out := p.ToSignalBatch(ctx, "event")
		assert.False(t, ok)
		assert.Error(t, out.(error))
	})
	t.Run("ToSignalBatch - Failed (no mapped readings)", func(t *testing.T) {
		p, counters := newTestPipeline(nil, nil)
		event := dtos.Event{DeviceName: "pump-01", Readings: []dtos.BaseReading{arrayReading("Pressure", []float64{1})}}
		ok, out := p.ToSignalBatch(ctx, event)
		assert.False(t, ok)
		assert.Nil(t, out)
		assert.Equal(t, int64(1), counters.Count(telemetry.RejectedEventsCount))
	})
}

func TestHealthPipeline_AnalyzeHealth(t *testing.T) {
	ctx := testContext()

	t.Run("AnalyzeHealth - Passed", func(t *testing.T) {
		p, counters := newTestPipeline(nil, nil)
		batch := dto.NewSignalBatch(1000)
		batch.Set(dto.ChannelFx, sine(2000, 0.5))

		ok, out := p.AnalyzeHealth(ctx, DeviceBatch{DeviceName: "pump-01", Batch: batch})
		require.True(t, ok)
		result := out.(dto.IntegratedHealth)
		assert.Equal(t, "pump-01", result.DeviceName)
		assert.False(t, result.Trained)
		assert.Contains(t, result.Axes, dto.ChannelFx)

		cached, found := p.LatestHealth("pump-01")
		require.True(t, found)
		assert.Equal(t, result.OverallHealth, cached.OverallHealth)
		assert.Equal(t, int64(1), counters.Count(telemetry.AnalysesCount))
		if result.Status == dto.StatusCritical {
			assert.Equal(t, int64(1), counters.Count(telemetry.CriticalResultsCount))
		}
	})
	t.Run("AnalyzeHealth - Failed (wrong type)", func(t *testing.T) {
		p, _ := newTestPipeline(nil, nil)
		ok, out := p.AnalyzeHealth(ctx, dto.NewSignalBatch(1000))
		assert.False(t, ok)
		assert.Error(t, out.(error))
	})
	t.Run("LatestHealth - Failed (unknown device)", func(t *testing.T) {
		p, _ := newTestPipeline(nil, nil)
		_, found := p.LatestHealth("fan-07")
		assert.False(t, found)
	})
}

func TestHealthPipeline_PublishHealth(t *testing.T) {
	ctx := testContext()
	result := dto.IntegratedHealth{DeviceName: "pump-01", Status: dto.StatusHealthy, OverallHealth: 91}

	t.Run("PublishHealth - Passed", func(t *testing.T) {
		sender := &mockSender{}
		sender.On("MQTTSend", ctx, result).Return(true, nil)
		p, counters := newTestPipeline(sender, nil)

		ok, out := p.PublishHealth(ctx, result)
		assert.True(t, ok)
		assert.Equal(t, result, out)
		assert.Equal(t, int64(1), counters.Count(telemetry.PublishedMessagesCount))
		sender.AssertExpectations(t)
	})
	t.Run("PublishHealth - Passed (export failure continues)", func(t *testing.T) {
		sender := &mockSender{}
		sender.On("MQTTSend", ctx, result).Return(false, errors.New("broker down"))
		p, counters := newTestPipeline(sender, nil)

		ok, out := p.PublishHealth(ctx, result)
		assert.True(t, ok)
		assert.Equal(t, result, out)
		assert.Equal(t, int64(0), counters.Count(telemetry.PublishedMessagesCount))
	})
	t.Run("PublishHealth - Failed (wrong type)", func(t *testing.T) {
		p, _ := newTestPipeline(nil, nil)
		ok, _ := p.PublishHealth(ctx, "health")
		assert.False(t, ok)
	})
}

func TestHealthPipeline_EmitHealthEvent(t *testing.T) {
	ctx := testContext()
	health := func(status dto.HealthStatus, score float64) dto.IntegratedHealth {
		return dto.IntegratedHealth{DeviceName: "pump-01", Status: status, OverallHealth: score, Axes: map[dto.Channel]dto.AxisHealth{dto.ChannelFx: {}}}
	}
	emit := func(p *HealthPipeline, h dto.IntegratedHealth) (bool, *commonDto.HedgeEvent) {
		ok, out := p.EmitHealthEvent(ctx, h)
		if !ok {
			return false, nil
		}
		event := out.(commonDto.HedgeEvent)
		return true, &event
	}

	t.Run("EmitHealthEvent - Passed (status transitions)", func(t *testing.T) {
		p, _ := newTestPipeline(nil, nil)

		ok, _ := emit(p, health(dto.StatusHealthy, 92))
		assert.False(t, ok)

		ok, event := emit(p, health(dto.StatusWarning, 70))
		require.True(t, ok)
		assert.True(t, event.IsNewEvent)
		assert.Equal(t, commonDto.SEVERITY_MAJOR, event.Severity)
		assert.Equal(t, commonDto.EventStatusOpen, event.Status)
		assert.Equal(t, "mh-correlation-01", event.CorrelationId)
		assert.Equal(t, []string{"Fx"}, event.RelatedMetrics)
		assert.NotEmpty(t, event.Id)

		ok, _ = emit(p, health(dto.StatusWarning, 68))
		assert.False(t, ok)

		ok, event = emit(p, health(dto.StatusCritical, 40))
		require.True(t, ok)
		assert.False(t, event.IsNewEvent)
		assert.Equal(t, commonDto.SEVERITY_CRITICAL, event.Severity)

		ok, _ = emit(p, health(dto.StatusNoData, 50))
		assert.False(t, ok)

		ok, event = emit(p, health(dto.StatusHealthy, 85))
		require.True(t, ok)
		assert.Equal(t, commonDto.EventStatusClosed, event.Status)
		assert.Contains(t, event.Msg, "recovered")

		ok, _ = emit(p, health(dto.StatusHealthy, 88))
		assert.False(t, ok)
	})
	t.Run("EmitHealthEvent - Passed (sender)", func(t *testing.T) {
		sender := &mockSender{}
		sender.On("MQTTSend", ctx, mock.AnythingOfType("dto.HedgeEvent")).Return(true, nil)
		p, counters := newTestPipeline(nil, sender)

		ok, _ := p.EmitHealthEvent(ctx, health(dto.StatusCritical, 30))
		assert.True(t, ok)
		assert.Equal(t, int64(1), counters.Count(telemetry.PublishedMessagesCount))
		sender.AssertExpectations(t)
	})
	t.Run("EmitHealthEvent - Failed (sender)", func(t *testing.T) {
		sender := &mockSender{}
		sender.On("MQTTSend", ctx, mock.Anything).Return(false, errors.New("broker down"))
		p, _ := newTestPipeline(nil, sender)

		ok, out := p.EmitHealthEvent(ctx, health(dto.StatusCritical, 30))
		assert.False(t, ok)
		assert.EqualError(t, out.(error), "broker down")
	})
	t.Run("EmitHealthEvent - Passed (event retried after a failed send)", func(t *testing.T) {
		sender := &mockSender{}
		sender.On("MQTTSend", ctx, mock.Anything).Return(false, errors.New("broker down")).Once()
		sender.On("MQTTSend", ctx, mock.Anything).Return(true, nil)
		p, counters := newTestPipeline(nil, sender)

		ok, _ := p.EmitHealthEvent(ctx, health(dto.StatusCritical, 30))
		assert.False(t, ok)

		ok, out := p.EmitHealthEvent(ctx, health(dto.StatusCritical, 28))
		require.True(t, ok)
		event := out.(commonDto.HedgeEvent)
		assert.True(t, event.IsNewEvent)
		assert.Equal(t, commonDto.EventStatusOpen, event.Status)
		assert.Equal(t, int64(1), counters.Count(telemetry.PublishedMessagesCount))

		// delivered, so the same status raises nothing
		ok, _ = p.EmitHealthEvent(ctx, health(dto.StatusCritical, 27))
		assert.False(t, ok)

		// a failed close is retried as well
		sender.ExpectedCalls = nil
		sender.On("MQTTSend", ctx, mock.Anything).Return(false, errors.New("broker down")).Once()
		sender.On("MQTTSend", ctx, mock.Anything).Return(true, nil)
		ok, _ = p.EmitHealthEvent(ctx, health(dto.StatusHealthy, 90))
		assert.False(t, ok)
		ok, out = p.EmitHealthEvent(ctx, health(dto.StatusHealthy, 91))
		require.True(t, ok)
		assert.Equal(t, commonDto.EventStatusClosed, out.(commonDto.HedgeEvent).Status)
	})
}

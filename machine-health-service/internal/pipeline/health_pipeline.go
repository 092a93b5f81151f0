/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.

* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/edgexfoundry/app-functions-sdk-go/v3/pkg/interfaces"
	"github.com/edgexfoundry/go-mod-core-contracts/v3/clients/logger"
	"github.com/edgexfoundry/go-mod-core-contracts/v3/dtos"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/spf13/cast"
	"machinehealth/common/client"
	"machinehealth/common/db"
	commonDto "machinehealth/common/dto"
	"machinehealth/common/telemetry"
	"machinehealth/common/utils"
	"machinehealth/machine-health-service/internal/config"
	"machinehealth/machine-health-service/pkg/analyzer"
	"machinehealth/machine-health-service/pkg/dto"
)

// Sender publishes the output of a pipeline step, transforms.MQTTSecretSender satisfies it
type Sender interface {
	MQTTSend(ctx interfaces.AppFunctionContext, data interface{}) (bool, interface{})
}

// DeviceBatch is a SignalBatch together with the device it was acquired from
type DeviceBatch struct {
	DeviceName  string
	ProfileName string
	Batch       dto.SignalBatch
}

type HealthPipeline struct {
	lc           logger.LoggingClient
	session      *analyzer.Session
	appConfig    *config.AppConfig
	counters     *telemetry.Counters
	latest       *cache.Cache
	healthSender Sender
	eventSender  Sender

	mu         sync.Mutex
	lastStatus map[string]dto.HealthStatus
}

func NewHealthPipeline(
	lc logger.LoggingClient,
	session *analyzer.Session,
	appConfig *config.AppConfig,
	counters *telemetry.Counters,
	healthSender Sender,
	eventSender Sender,
) *HealthPipeline {
	ttl := appConfig.HealthCacheTTL
	if ttl <= 0 {
		ttl = config.DefaultHealthCacheTTL
	}
	return &HealthPipeline{
		lc:           lc,
		session:      session,
		appConfig:    appConfig,
		counters:     counters,
		latest:       cache.New(ttl, 2*ttl),
		healthSender: healthSender,
		eventSender:  eventSender,
		lastStatus:   make(map[string]dto.HealthStatus),
	}
}

// ToSignalBatch maps the readings of an event onto channels. Events without a mapped numeric reading stop the pipeline.
func (p *HealthPipeline) ToSignalBatch(ctx interfaces.AppFunctionContext, data interface{}) (bool, interface{}) {
	lc := ctx.LoggingClient()
	if data == nil {
		return false, fmt.Errorf("function ToSignalBatch in pipeline '%s': No Data Received", ctx.PipelineId())
	}
	event, ok := data.(dtos.Event)
	if !ok {
		return false, fmt.Errorf("function ToSignalBatch in pipeline '%s': type received is not an Event", ctx.PipelineId())
	}

	batch, err := p.EventToBatch(event)
	if err != nil {
		lc.Debugf("dropping event %s from device %s: %s", event.Id, event.DeviceName, err.Error())
		p.counters.Inc(telemetry.RejectedEventsCount)
		return false, nil
	}
	return true, DeviceBatch{DeviceName: event.DeviceName, ProfileName: event.ProfileName, Batch: batch}
}

// EventToBatch concatenates the samples of every reading that feeds the same channel, in reading order
func (p *HealthPipeline) EventToBatch(event dtos.Event) (dto.SignalBatch, error) {
	samplingRate := p.appConfig.DefaultSamplingRate
	if raw, ok := event.Tags[client.LabelSamplingRate]; ok {
		rate, err := cast.ToFloat64E(raw)
		if err != nil || rate <= 0 {
			p.lc.Warnf("ignoring invalid %s tag '%v' on device %s", client.LabelSamplingRate, raw, event.DeviceName)
		} else {
			samplingRate = rate
		}
	}

	batch := dto.NewSignalBatch(samplingRate)
	for _, reading := range event.Readings {
		ch, mapped := p.appConfig.ChannelMap[reading.ResourceName]
		if !mapped || !utils.IsNumericValueType(reading.ValueType) {
			continue
		}
		samples, err := utils.ParseReadingValue(reading.ValueType, reading.Value)
		if err != nil {
			p.lc.Warnf("skipping reading %s of device %s: %s", reading.ResourceName, event.DeviceName, err.Error())
			continue
		}
		batch.Channels[ch] = append(batch.Channels[ch], samples...)
	}
	if len(batch.Channels) == 0 {
		return batch, errors.New("no mapped readings")
	}
	return batch, nil
}

// AnalyzeHealth runs the health analysis and caches the result per device
func (p *HealthPipeline) AnalyzeHealth(ctx interfaces.AppFunctionContext, data interface{}) (bool, interface{}) {
	if data == nil {
		return false, fmt.Errorf("function AnalyzeHealth in pipeline '%s': No Data Received", ctx.PipelineId())
	}
	deviceBatch, ok := data.(DeviceBatch)
	if !ok {
		return false, fmt.Errorf("function AnalyzeHealth in pipeline '%s': type received is not a DeviceBatch", ctx.PipelineId())
	}

	result := p.session.Analyze(deviceBatch.Batch)
	result.DeviceName = deviceBatch.DeviceName
	p.Record(result)
	return true, result
}

// Record caches result as the latest health of its device and updates the counters
func (p *HealthPipeline) Record(result dto.IntegratedHealth) {
	p.counters.Inc(telemetry.AnalysesCount)
	if result.Anomaly {
		p.counters.Inc(telemetry.AnomaliesCount)
	}
	if result.Status == dto.StatusCritical {
		p.counters.Inc(telemetry.CriticalResultsCount)
	}
	if result.DeviceName != "" {
		p.latest.SetDefault(result.DeviceName, result)
	}
}

// LatestHealth returns the most recent cached result of a device
func (p *HealthPipeline) LatestHealth(deviceName string) (dto.IntegratedHealth, bool) {
	v, found := p.latest.Get(deviceName)
	if !found {
		return dto.IntegratedHealth{}, false
	}
	return v.(dto.IntegratedHealth), true
}

// PublishHealth exports the result. A failed export is logged and does not stop event emission.
func (p *HealthPipeline) PublishHealth(ctx interfaces.AppFunctionContext, data interface{}) (bool, interface{}) {
	result, ok := data.(dto.IntegratedHealth)
	if !ok {
		return false, fmt.Errorf("function PublishHealth in pipeline '%s': type received is not an IntegratedHealth", ctx.PipelineId())
	}
	if p.healthSender == nil {
		return true, result
	}
	if published, err := p.healthSender.MQTTSend(ctx, result); !published {
		ctx.LoggingClient().Errorf("failed to publish health of device %s: %v", result.DeviceName, err)
	} else {
		p.counters.Inc(telemetry.PublishedMessagesCount)
	}
	return true, result
}

// EmitHealthEvent raises an event when the status of a device degrades to WARNING or CRITICAL,
// updates it when the severity changes and closes it once the device is HEALTHY again
func (p *HealthPipeline) EmitHealthEvent(ctx interfaces.AppFunctionContext, data interface{}) (bool, interface{}) {
	result, ok := data.(dto.IntegratedHealth)
	if !ok {
		return false, fmt.Errorf("function EmitHealthEvent in pipeline '%s': type received is not an IntegratedHealth", ctx.PipelineId())
	}

	event := p.transition(result, ctx.CorrelationID())
	if event == nil {
		return false, nil
	}
	if p.eventSender != nil {
		// the status is not committed, the next result of the device raises the event again
		if sent, err := p.eventSender.MQTTSend(ctx, *event); !sent {
			ctx.LoggingClient().Errorf("failed to publish health event of device %s: %v", result.DeviceName, err)
			return false, err
		}
		p.counters.Inc(telemetry.PublishedMessagesCount)
	}
	p.commitStatus(result)
	return true, *event
}

func (p *HealthPipeline) commitStatus(result dto.IntegratedHealth) {
	p.mu.Lock()
	p.lastStatus[result.DeviceName] = result.Status
	p.mu.Unlock()
}

func (p *HealthPipeline) transition(result dto.IntegratedHealth, correlationId string) *commonDto.HedgeEvent {
	// NO_DATA carries no information about the machine, the previous status stays
	if result.DeviceName == "" || result.Status == dto.StatusNoData {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	previous, seen := p.lastStatus[result.DeviceName]

	wasAlerting := seen && previous.Severity() >= dto.StatusWarning.Severity()
	isAlerting := result.Status.Severity() >= dto.StatusWarning.Severity()
	switch {
	case isAlerting && (!wasAlerting || previous != result.Status):
		return buildEvent(result, correlationId, commonDto.EventStatusOpen, !wasAlerting)
	case wasAlerting && !isAlerting:
		return buildEvent(result, correlationId, commonDto.EventStatusClosed, false)
	default:
		// no event to deliver, the status is committed right away
		p.lastStatus[result.DeviceName] = result.Status
		return nil
	}
}

func buildEvent(result dto.IntegratedHealth, correlationId string, status string, isNew bool) *commonDto.HedgeEvent {
	severity := commonDto.SEVERITY_MINOR
	switch result.Status {
	case dto.StatusCritical:
		severity = commonDto.SEVERITY_CRITICAL
	case dto.StatusWarning:
		severity = commonDto.SEVERITY_MAJOR
	}
	now := db.MakeTimestamp()
	msg := fmt.Sprintf("machine health of %s is %s (%.1f)", result.DeviceName, result.Status, result.OverallHealth)
	if status == commonDto.EventStatusClosed {
		msg = fmt.Sprintf("machine health of %s recovered (%.1f)", result.DeviceName, result.OverallHealth)
	}
	return &commonDto.HedgeEvent{
		Id:             uuid.NewString(),
		Class:          commonDto.BASE_EVENT_CLASS,
		EventType:      commonDto.MachineHealthEvent,
		DeviceName:     result.DeviceName,
		Name:           commonDto.MachineHealthEvent + "-" + result.DeviceName,
		Msg:            msg,
		Severity:       severity,
		Status:         status,
		RelatedMetrics: relatedMetrics(result),
		Thresholds:     map[string]interface{}{"warning": 60.0, "healthy": 80.0},
		ActualValues: map[string]interface{}{
			"overall_health": result.OverallHealth,
			"anomaly_score":  result.AnomalyScore,
			"axis_health":    result.AxisHealth,
		},
		EventSource:   commonDto.EventSourceService,
		CorrelationId: correlationId,
		Created:       now,
		Modified:      now,
		IsNewEvent:    isNew,
	}
}

func relatedMetrics(result dto.IntegratedHealth) []string {
	metrics := make([]string, 0, len(dto.Channels))
	for _, ch := range dto.VibrationChannels {
		if _, ok := result.Axes[ch]; ok {
			metrics = append(metrics, ch.String())
		}
	}
	if result.Temperature != nil {
		metrics = append(metrics, dto.ChannelTemperature.String())
	}
	return metrics
}

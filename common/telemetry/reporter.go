/*******************************************************************************
 * Copyright 2022 Intel Corp.
 * (c) Copyright 2020-2025 BMC Software, Inc.
 *
 * Contributors: BMC Software, Inc. - BMC Helix Edge
 *
 * Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License. You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software distributed under the License
 * is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express
 * or implied. See the License for the specific language governing permissions and limitations under
 * the License.
 *******************************************************************************/

package telemetry

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	sdkinterfaces "github.com/edgexfoundry/app-functions-sdk-go/v3/pkg/interfaces"
	"github.com/edgexfoundry/app-functions-sdk-go/v3/pkg/transforms"
	"github.com/edgexfoundry/go-mod-bootstrap/v3/bootstrap/interfaces"
	"github.com/edgexfoundry/go-mod-core-contracts/v3/common"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	gometrics "github.com/rcrowley/go-metrics"
	"golang.org/x/exp/slices"
	"machinehealth/common/config"
	"machinehealth/common/dto"
)

// Sender publishes one telemetry payload
type Sender interface {
	MQTTSend(ctx sdkinterfaces.AppFunctionContext, data interface{}) (bool, interface{})
}

type MQTTMetricReporter struct {
	service     sdkinterfaces.ApplicationService
	serviceName string
	topic       string
	tags        map[string]string
	sender      Sender

	mu                sync.Mutex
	lastReportedValue map[string]int64
}

// NewMQTTMetricReporter creates a reporter that publishes changed mh_ counters to baseTopic/serviceName
func NewMQTTMetricReporter(
	service sdkinterfaces.ApplicationService,
	baseTopic string,
	serviceName string,
	tags map[string]string,
) interfaces.MetricsReporter {
	topic := baseTopic + "/" + serviceName
	mqttConfig, err := config.BuildMQTTSecretConfig(service, topic, serviceName+"-telemetry")
	if err != nil {
		service.LoggingClient().Errorf("failed to create MQTT configuration: %s", err.Error())
		return nil
	}
	return newReporter(service, serviceName, topic, tags, transforms.NewMQTTSecretSender(mqttConfig, false))
}

func newReporter(service sdkinterfaces.ApplicationService, serviceName string, topic string, tags map[string]string, sender Sender) *MQTTMetricReporter {
	return &MQTTMetricReporter{
		service:           service,
		serviceName:       serviceName,
		topic:             topic,
		tags:              tags,
		sender:            sender,
		lastReportedValue: make(map[string]int64),
	}
}

func (r *MQTTMetricReporter) Report(
	registry gometrics.Registry,
	metricTags map[string]map[string]string,
) error {
	var errs error
	lc := r.service.LoggingClient()

	if r.sender == nil {
		return errors.New("mqtt client not available, unable to report metrics")
	}

	metricGroup := dto.MetricGroup{
		Tags:    make(map[string]interface{}),
		Samples: make([]dto.Data, 0),
	}
	for key, value := range r.tags {
		metricGroup.Tags[key] = value
	}

	now := time.Now().UnixNano()
	registry.Each(func(name string, item interface{}) {
		if !strings.HasPrefix(name, MetricPrefix) {
			return
		}
		var value int64
		switch metric := item.(type) {
		case gometrics.Counter:
			value = metric.Count()
		case gometrics.Gauge:
			value = metric.Value()
		default:
			errs = multierror.Append(errs, fmt.Errorf("metric type %T not supported", metric))
			return
		}

		r.mu.Lock()
		lastValue, exists := r.lastReportedValue[name]
		changed := !exists || lastValue != value
		if changed {
			r.lastReportedValue[name] = value
		}
		r.mu.Unlock()
		if !changed {
			return
		}

		metricGroup.Samples = append(metricGroup.Samples, dto.Data{
			Name:      name,
			TimeStamp: now,
			Value:     strconv.FormatInt(value, 10),
			ValueType: common.ValueTypeInt64,
		})
		for key, value := range metricTags[name] {
			if _, ok := metricGroup.Tags[key]; !ok {
				metricGroup.Tags[key] = value
			}
		}
	})

	if len(metricGroup.Samples) == 0 {
		lc.Debugf("No telemetry metrics to publish.")
		return errs
	}
	slices.SortFunc(metricGroup.Samples, func(a, b dto.Data) int {
		return strings.Compare(a.Name, b.Name)
	})

	metrics := dto.Metrics{MetricGroup: metricGroup}
	ok, result := r.sender.MQTTSend(r.service.BuildContext(uuid.NewString(), common.ContentTypeJSON), metrics)
	if !ok {
		errs = multierror.Append(errs, fmt.Errorf("failed to publish telemetry to topic '%s': %v", r.topic, result))
		lc.Errorf("Error publishing telemetry data to MQTT: %v", result)
		return errs
	}
	names := make([]string, 0, len(metricGroup.Samples))
	for _, s := range metricGroup.Samples {
		names = append(names, s.Name)
	}
	lc.Debugf("Published %d telemetry metrics to '%s': %v", len(names), r.topic, names)
	return errs
}

/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.

* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	sdkinterfaces "github.com/edgexfoundry/app-functions-sdk-go/v3/pkg/interfaces"
	"github.com/edgexfoundry/go-mod-bootstrap/v3/bootstrap/interfaces"
	"github.com/edgexfoundry/go-mod-bootstrap/v3/bootstrap/metrics"
	"github.com/spf13/cast"
)

const (
	DefaultReportInterval = 30 * time.Second
	defaultTopicPrefix    = "telemetry"
)

type MetricsManager struct {
	wg         sync.WaitGroup
	Ctx        context.Context
	cancel     context.CancelFunc
	Interval   time.Duration
	MetricsMgr interfaces.MetricsManager
}

func NewMetricsManager(service sdkinterfaces.ApplicationService, serviceName string) (*MetricsManager, error) {
	lc := service.LoggingClient()

	duration := DefaultReportInterval
	if interval, err := service.GetAppSetting("MetricReportInterval"); err != nil {
		lc.Warnf("MetricReportInterval not configured, using %s", DefaultReportInterval)
	} else if secs, err := cast.ToIntE(interval); err != nil || secs <= 0 {
		lc.Errorf("invalid MetricReportInterval '%s', using %s", interval, DefaultReportInterval)
	} else {
		duration = time.Duration(secs) * time.Second
	}

	baseTopic, err := service.GetAppSetting("MetricPublishTopicPrefix")
	if err != nil || baseTopic == "" {
		lc.Warnf("MetricPublishTopicPrefix not configured, using %s", defaultTopicPrefix)
		baseTopic = defaultTopicPrefix
	}
	reporter := NewMQTTMetricReporter(service, baseTopic, serviceName, map[string]string{"service": serviceName})

	mmgr := MetricsManager{Interval: duration}
	mmgr.Ctx, mmgr.cancel = context.WithCancel(context.Background())
	mmgr.MetricsMgr = metrics.NewManager(lc, duration, reporter)
	if mmgr.MetricsMgr == nil {
		mmgr.cancel()
		lc.Errorf("failed to create metrics manager")
		return nil, fmt.Errorf("failed to create metrics manager")
	}
	return &mmgr, nil
}

func (s *MetricsManager) Run() {
	s.MetricsMgr.Run(s.Ctx, &s.wg)
}

// Stop ends the reporting loop and waits for it to exit
func (s *MetricsManager) Stop() {
	s.cancel()
	s.wg.Wait()
}

/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.

* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package telemetry

const (
	// MetricPrefix marks the counters the reporter publishes
	MetricPrefix = "mh_"

	AnalysesCount          = "mh_analyses_count"
	AnomaliesCount         = "mh_anomalies_count"
	CriticalResultsCount   = "mh_critical_results_count"
	TrainingRunsCount      = "mh_training_runs_count"
	TrainingFailuresCount  = "mh_training_failures_count"
	PublishedMessagesCount = "mh_published_messages_count"
	RejectedEventsCount    = "mh_rejected_events_count"
)

// CounterNames lists every counter registered by NewCounters
var CounterNames = []string{
	AnalysesCount,
	AnomaliesCount,
	CriticalResultsCount,
	TrainingRunsCount,
	TrainingFailuresCount,
	PublishedMessagesCount,
	RejectedEventsCount,
}

/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.

* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package dto

const (
	BASE_EVENT_CLASS   = "OT_EVENT"
	MachineHealthEvent = "MachineHealth"
	EventStatusOpen    = "Open"
	EventStatusClosed  = "Closed"
	EventSourceService = "machine-health"
	SEVERITY_CRITICAL  = "CRITICAL"
	SEVERITY_MAJOR     = "MAJOR"
	SEVERITY_MINOR     = "MINOR"
)

// HedgeEvent is raised when the health status of a device degrades, and closed once it recovers
type HedgeEvent struct {
	Id             string                 `json:"id,omitempty"`
	Class          string                 `json:"class,omitempty"`
	EventType      string                 `json:"event_type,omitempty"`
	DeviceName     string                 `json:"device_name,omitempty"`
	Name           string                 `json:"name,omitempty"`
	Msg            string                 `json:"msg,omitempty"`
	Severity       string                 `json:"severity,omitempty"`
	Profile        string                 `json:"profile,omitempty"`
	SourceNode     string                 `json:"source_node,omitempty"`
	Status         string                 `json:"status,omitempty"`
	RelatedMetrics []string               `json:"related_metrics,omitempty"`
	Thresholds     map[string]interface{} `json:"thresholds,omitempty"`
	ActualValues   map[string]interface{} `json:"actual_values,omitempty"`
	EventSource    string                 `json:"event_source,omitempty"`
	CorrelationId  string                 `json:"correlation_id,omitempty"`
	Labels         []string               `json:"labels,omitempty"`
	Created        int64                  `json:"created,omitempty"`
	Modified       int64                  `json:"modified,omitempty"`
	// IsNewEvent is false for updates of an event that is already open
	IsNewEvent bool `json:"new_event"`
}

/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.

* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package dto

// Metrics is the telemetry payload published on the metrics topic
type Metrics struct {
	IsCompressed bool        `json:"isCompressed"`
	MetricGroup  MetricGroup `json:"metricGroup"`
}

type MetricGroup struct {
	Tags    map[string]any `json:"tags"`
	Samples []Data         `json:"samples"`
}

// Data is one counter sample, TimeStamp is in nanoseconds
type Data struct {
	Name      string `json:"name"`
	TimeStamp int64  `json:"timeStamp"`
	Value     string `json:"value"`
	ValueType string `json:"valueType"`
}

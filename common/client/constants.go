/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.

* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package client

// Constants related to how services identify themselves in the Service Registry
const (
	ServiceKeyHedgePrefix = "app-hedge-"

	MachineHealthServiceName = "hedge-machine-health"
	// MachineHealthServiceKey must start with app- for app services
	MachineHealthServiceKey = "app-hedge-machine-health"
)

const (
	LabelDeviceName    = "device"
	LabelProfileName   = "profile"
	LabelCorrelationId = "correlation_id"
	LabelStatus        = "status"
	LabelSamplingRate  = "sampling_rate"
)

/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.

* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package config

import (
	"github.com/edgexfoundry/app-functions-sdk-go/v3/pkg/interfaces"
	"github.com/spf13/cast"
)

// GetPersistOnError reports whether failed MQTT exports are stored for retry
func GetPersistOnError(service interfaces.ApplicationService) bool {
	lc := service.LoggingClient()
	persistOnError, err := service.GetAppSetting("PersistOnError")
	if err != nil {
		lc.Debugf("PersistOnError not found in the config, defaulting to false")
		return false
	}
	enabled, err := cast.ToBoolE(persistOnError)
	if err != nil {
		lc.Errorf("Invalid value specified for PersistOnError in configuration: %s", err.Error())
		return false
	}
	return enabled
}

func GetMQTTQoS(service interfaces.ApplicationService) byte {
	lc := service.LoggingClient()
	qoS, err := service.GetAppSetting("QoS")
	if err != nil {
		lc.Debugf("MqttQoS not configured, defaulting to 0")
		return 0
	}
	switch qoS {
	case "1":
		return 1
	case "2":
		return 2
	default:
		return 0
	}
}

/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.

* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package config

import (
	"os"
	"strings"

	"github.com/edgexfoundry/app-functions-sdk-go/v3/pkg/interfaces"
	"github.com/edgexfoundry/app-functions-sdk-go/v3/pkg/transforms"
	"github.com/lithammer/shortuuid/v3"
	"github.com/spf13/cast"
)

const (
	defaultTopicPrefix = "hedge"
	defaultMqttServer  = "edgex-mqtt-broker"
	defaultMqttPort    = 1883
)

// GenerateClientId keeps MQTT client ids unique across replicas of the same service
func GenerateClientId(clientId string) string {
	return clientId + "-" + shortuuid.New()
}

func BuildMQTTSecretConfig(service interfaces.ApplicationService, topic string, clientId string) (transforms.MQTTSecretConfig, error) {
	lc := service.LoggingClient()

	scheme := settingOrDefault(service, "scheme", "tcp")
	mqttServer := settingOrDefault(service, "MqttServer", defaultMqttServer)
	port, err := cast.ToIntE(settingOrDefault(service, "MqttPort", cast.ToString(defaultMqttPort)))
	if err != nil || port <= 0 {
		lc.Errorf("invalid MqttPort, using %d", defaultMqttPort)
		port = defaultMqttPort
	}
	mqttAuthMode := settingOrDefault(service, "MqttAuthMode", "none")
	// path of the broker credentials in the secret store
	mqttSecretName := settingOrDefault(service, "MqttSecretName", "mbconnection")
	lc.Infof("MQTT broker %s://%s:%d, auth mode %s, secret %s", scheme, mqttServer, port, mqttAuthMode, mqttSecretName)

	mqttConfig := transforms.MQTTSecretConfig{
		BrokerAddress:  scheme + "://" + mqttServer + ":" + cast.ToString(port),
		ClientId:       GenerateClientId(clientId),
		SecretName:     mqttSecretName,
		AutoReconnect:  true,
		KeepAlive:      "30s",
		ConnectTimeout: "60s",
		Topic:          BuildTopicNameFromBaseTopicPrefix(topic, "/"),
		QoS:            GetMQTTQoS(service),
		Retain:         false,
		SkipCertVerify: true,
		AuthMode:       mqttAuthMode,
	}
	return mqttConfig, nil
}

func BuildTopicNameFromBaseTopicPrefix(topic string, separator string) string {
	prefix := os.Getenv("MESSAGEBUS_BASETOPICPREFIX")
	if prefix == "" {
		prefix = defaultTopicPrefix
	}
	if !strings.HasPrefix(topic, prefix) {
		return prefix + separator + topic
	}
	return topic
}

func settingOrDefault(service interfaces.ApplicationService, key string, def string) string {
	v, err := service.GetAppSetting(key)
	if err != nil || v == "" {
		return def
	}
	return v
}

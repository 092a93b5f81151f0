/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.

* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package utils

import (
	"context"
	"strings"

	"github.com/edgexfoundry/app-functions-sdk-go/v3/pkg/interfaces/mocks"
	mocks3 "github.com/edgexfoundry/go-mod-bootstrap/v3/bootstrap/interfaces/mocks"
	mocks2 "github.com/edgexfoundry/go-mod-core-contracts/v3/clients/logger/mocks"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	hedgeErrors "machinehealth/common/errors"
)

type HedgeMockUtils struct {
	AppService         *mocks.ApplicationService
	AppSettings        map[string]string
	AppFunctionContext *mocks.AppFunctionContext
	Logger             *mocks2.LoggingClient
}

// NewMockLogger accepts every level with up to eight format arguments
func NewMockLogger() *mocks2.LoggingClient {
	mockLogger := &mocks2.LoggingClient{}
	for _, level := range []string{"Debug", "Info", "Warn", "Error", "Trace"} {
		args := []interface{}{}
		for i := 0; i <= 8; i++ {
			mockLogger.On(level, args...).Return().Maybe()
			mockLogger.On(level+"f", append([]interface{}{mock.Anything}, args...)...).Return().Maybe()
			args = append(args, mock.Anything)
		}
	}
	return mockLogger
}

func NewApplicationServiceMock(appSettings map[string]string) *HedgeMockUtils {
	hedgeMockUtils := new(HedgeMockUtils)
	mockLogger := NewMockLogger()
	hedgeMockUtils.Logger = mockLogger

	mockAppService := &mocks.ApplicationService{}
	hedgeMockUtils.AppService = mockAppService
	mockAppService.On("LoggingClient").Return(mockLogger)
	mockAppService.On("AppContext").Return(context.Background())

	hedgeMockUtils.AppSettings = make(map[string]string)
	for k, v := range appSettings {
		hedgeMockUtils.AppSettings[k] = v
		if strings.HasPrefix(v, "ERR:") {
			e := errors.New(v)
			mockAppService.On("GetAppSetting", k).Return("", e)
			mockAppService.On("GetAppSettingStrings", k).Return([]string{}, e)
		} else {
			mockAppService.On("GetAppSetting", k).Return(v, nil)
			mockAppService.On("GetAppSettingStrings", k).Return(strings.Split(v, ","), nil)
		}
	}
	mockAppService.On("GetAppSetting", mock.Anything).Return("", errors.New("setting not found"))
	mockAppService.On("GetAppSettingStrings", mock.Anything).Return([]string{}, errors.New("setting not found"))

	ctx := &mocks.AppFunctionContext{}
	ctx.On("LoggingClient").Return(mockLogger)
	ctx.On("PipelineId").Return("mh-pipeline-01")
	ctx.On("CorrelationID").Return("mh-correlation-01")
	hedgeMockUtils.AppFunctionContext = ctx

	mockSecretProvider := &mocks3.SecretProvider{}
	mockSecretProvider.On("GetSecret", "redisdb", "username", "password").Return(map[string]string{"username": "username", "password": "password"}, nil)
	mockSecretProvider.On("GetSecret", "minio", "accessKey", "secretKey").Return(map[string]string{"accessKey": "minio-access", "secretKey": "minio-secret"}, nil)
	mockSecretProvider.On("GetSecret", "mbconnection").Return(map[string]string{}, nil)
	mockSecretProvider.On("GetSecret", mock.Anything, mock.Anything, mock.Anything).Return(map[string]string{}, hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeServerError, "mocked error"))
	mockAppService.On("SecretProvider").Return(mockSecretProvider)
	ctx.On("SecretProvider").Return(mockSecretProvider)

	return hedgeMockUtils
}

// WithMQTTSettings adds broker settings to appSettings, keeping any value already present
func WithMQTTSettings(appSettings map[string]string) map[string]string {
	if appSettings == nil {
		appSettings = make(map[string]string)
	}
	defaults := map[string]string{
		"scheme":       "tcp",
		"MqttServer":   "vm-loc-xxxx",
		"MqttPort":     "1883",
		"MqttAuthMode": "usernamepassword",
		"QoS":          "0",
	}
	for k, v := range defaults {
		if _, ok := appSettings[k]; !ok {
			appSettings[k] = v
		}
	}
	return appSettings
}

/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.

* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package service

import (
	"github.com/edgexfoundry/app-functions-sdk-go/v3/pkg"
	"github.com/edgexfoundry/app-functions-sdk-go/v3/pkg/interfaces"
)

// AppServiceCreator creates the EdgeX application service, main replaces it in tests
type AppServiceCreator interface {
	NewAppService(serviceKey string) (interfaces.ApplicationService, bool)
	NewAppServiceWithTargetType(serviceKey string, targetType interface{}) (interfaces.ApplicationService, bool)
}

// AppService creates services through the app-functions SDK
type AppService struct{}

func (a *AppService) NewAppService(serviceKey string) (interfaces.ApplicationService, bool) {
	return pkg.NewAppService(serviceKey)
}

// NewAppServiceWithTargetType is used by pipelines that consume raw payloads instead of dtos.Event
func (a *AppService) NewAppServiceWithTargetType(serviceKey string, targetType interface{}) (interfaces.ApplicationService, bool) {
	return pkg.NewAppServiceWithTargetType(serviceKey, targetType)
}

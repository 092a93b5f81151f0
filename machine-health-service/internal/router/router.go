/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.

* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package router

import (
	"github.com/edgexfoundry/app-functions-sdk-go/v3/pkg/interfaces"
	"github.com/edgexfoundry/go-mod-core-contracts/v3/clients/logger"
	"github.com/go-playground/validator/v10"
	"machinehealth/common/telemetry"
	"machinehealth/machine-health-service/internal/config"
	"machinehealth/machine-health-service/internal/pipeline"
	"machinehealth/machine-health-service/pkg/analyzer"
	"machinehealth/machine-health-service/pkg/snapshot"
)

const BaseRoute = "/api/v3/machine_health"

type Router struct {
	service   interfaces.ApplicationService
	lc        logger.LoggingClient
	appConfig *config.AppConfig
	session   *analyzer.Session
	pipeline  *pipeline.HealthPipeline
	store     snapshot.Store
	counters  *telemetry.Counters
	validate  *validator.Validate
}

func NewRouter(
	service interfaces.ApplicationService,
	appConfig *config.AppConfig,
	session *analyzer.Session,
	healthPipeline *pipeline.HealthPipeline,
	store snapshot.Store,
	counters *telemetry.Counters,
) *Router {
	return &Router{
		service:   service,
		lc:        service.LoggingClient(),
		appConfig: appConfig,
		session:   session,
		pipeline:  healthPipeline,
		store:     store,
		counters:  counters,
		validate:  validator.New(),
	}
}

func (r *Router) LoadRoutes() {
	r.addAnalyzeRoute()
	r.addTrainingRoute()
	r.addCalibrationRoute()
	r.addTrainingSummaryRoute()
	r.addTrainingComparisonRoute()
	r.addMachineRoutes()
	r.addWeightsRoutes()
	r.addResetRoute()
	r.addSnapshotRoutes()
	r.addDeviceHealthRoute()
	r.addSimulateRoute()
	r.addTelemetryRoute()
}

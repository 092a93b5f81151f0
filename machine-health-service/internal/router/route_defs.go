/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.

* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package router

import (
	"net/http"

	"github.com/edgexfoundry/app-functions-sdk-go/v3/pkg/interfaces"
	"github.com/labstack/echo/v4"
)

func (r *Router) addRoute(path string, handler echo.HandlerFunc, methods ...string) {
	if err := r.service.AddCustomRoute(BaseRoute+path, interfaces.Authenticated, handler, methods...); err != nil {
		r.lc.Errorf("failed to add route %s %v: %s", path, methods, err.Error())
	}
}

// @Summary      Analyze Signal Batch
// @Description  Scores one acquisition window and returns the integrated machine health.
// @Tags         Machine Health - Analysis
// @Param        device  query    string           false "Device name the result is cached under."
// @Param        Body    body     dto.SignalBatch  true  "Samples per channel and their sampling rate."
// @Success      200     {object} dto.IntegratedHealth
// @Failure      400     {object} error "{"message":"Error message"}"
// @Router       /api/v3/machine_health/analyze [post]
func (r *Router) addAnalyzeRoute() {
	r.addRoute("/analyze", r.analyze, http.MethodPost)
}

// @Summary      Train Baseline
// @Description  Fits the anomaly baseline on healthy batches, the previous baseline stays when training fails.
// @Tags         Machine Health - Training
// @Param        Body    body     TrainingRequest  true "Training batches."
// @Success      200     {object} anomaly.TrainingSummary
// @Failure      400     {object} error "{"message":"Error message"}"
// @Failure      422     {object} error "{"message":"Error message"}"
// @Router       /api/v3/machine_health/training [post]
func (r *Router) addTrainingRoute() {
	r.addRoute("/training", r.train, http.MethodPost)
}

// @Summary      Calibrate From Sample
// @Description  Derives normal bands and temperature thresholds from one batch and trains on jittered copies of it.
// @Tags         Machine Health - Training
// @Param        Body    body     dto.SignalBatch  true "Batch recorded while the machine is healthy."
// @Success      200     {object} anomaly.TrainingSummary
// @Failure      400     {object} error "{"message":"Error message"}"
// @Router       /api/v3/machine_health/calibration [post]
func (r *Router) addCalibrationRoute() {
	r.addRoute("/calibration", r.calibrate, http.MethodPost)
}

// @Summary      Training Summary
// @Tags         Machine Health - Training
// @Success      200     {object} anomaly.TrainingSummary
// @Router       /api/v3/machine_health/training/summary [get]
func (r *Router) addTrainingSummaryRoute() {
	r.addRoute("/training/summary", r.trainingSummary, http.MethodGet)
}

// @Summary      Compare With Training
// @Description  Compares the features of a batch with the training distribution.
// @Tags         Machine Health - Training
// @Param        Body    body     dto.SignalBatch  true "Batch to compare."
// @Success      200     {object} anomaly.Comparison
// @Failure      409     {object} error "{"message":"Error message"}"
// @Failure      412     {object} error "{"message":"Error message"}"
// @Router       /api/v3/machine_health/training/comparison [post]
func (r *Router) addTrainingComparisonRoute() {
	r.addRoute("/training/comparison", r.compareWithTraining, http.MethodPost)
}

// @Summary      Machine Configuration
// @Description  PUT applies a machine setup, GET returns the active configuration.
// @Tags         Machine Health - Configuration
// @Param        Body    body     dto.MachineSetup  false "Machine setup (PUT only)."
// @Success      200     {object} dto.MachineConfig
// @Failure      400     {object} error "{"message":"Error message"}"
// @Router       /api/v3/machine_health/machine [put,get]
func (r *Router) addMachineRoutes() {
	r.addRoute("/machine", r.configureMachine, http.MethodPut)
	r.addRoute("/machine", r.getMachine, http.MethodGet)
}

// @Summary      Health Weights
// @Description  PUT updates the weights given in the body and keeps the others, GET returns the active weights.
// @Tags         Machine Health - Configuration
// @Param        Body    body     dto.HealthWeights  false "Weights to change (PUT only)."
// @Success      200     {object} dto.HealthWeights
// @Failure      400     {object} error "{"message":"Error message"}"
// @Router       /api/v3/machine_health/weights [put,get]
func (r *Router) addWeightsRoutes() {
	r.addRoute("/weights", r.updateWeights, http.MethodPut)
	r.addRoute("/weights", r.getWeights, http.MethodGet)
}

// @Summary      Reset
// @Description  Drops the baseline and restores the default configuration and weights.
// @Tags         Machine Health - Configuration
// @Success      204
// @Router       /api/v3/machine_health/reset [post]
func (r *Router) addResetRoute() {
	r.addRoute("/reset", r.reset, http.MethodPost)
}

// @Summary      Snapshots
// @Description  POST saves the current state under a name, PUT restores it, GET lists the stored names.
// @Tags         Machine Health - Snapshots
// @Param        Body    body     SnapshotRequest  false "Snapshot name, the configured default when empty."
// @Success      200     {object} SnapshotResponse
// @Failure      400     {object} error "{"message":"Error message"}"
// @Failure      404     {object} error "{"message":"Error message"}"
// @Failure      500     {object} error "{"message":"Error message"}"
// @Router       /api/v3/machine_health/snapshot [post,put,get]
func (r *Router) addSnapshotRoutes() {
	r.addRoute("/snapshot", r.saveSnapshot, http.MethodPost)
	r.addRoute("/snapshot", r.loadSnapshot, http.MethodPut)
	r.addRoute("/snapshot", r.listSnapshots, http.MethodGet)
}

// @Summary      Latest Device Health
// @Tags         Machine Health - Analysis
// @Param        device  path     string  true "Device name."
// @Success      200     {object} dto.IntegratedHealth
// @Failure      404     {object} error "{"message":"Error message"}"
// @Router       /api/v3/machine_health/health/{device} [get]
func (r *Router) addDeviceHealthRoute() {
	r.addRoute("/health/:device", r.deviceHealth, http.MethodGet)
}

// @Summary      Simulate Batch
// @Description  Generates a synthetic batch for a machine condition.
// @Tags         Machine Health - Simulation
// @Param        condition  query  string  false "healthy, bearing, imbalance or misalignment."
// @Param        seed       query  int     false "Generator seed."
// @Param        analyze    query  bool    false "Return the analysis of the generated batch instead."
// @Success      200        {object} dto.SignalBatch
// @Failure      400        {object} error "{"message":"Error message"}"
// @Router       /api/v3/machine_health/simulate [get]
func (r *Router) addSimulateRoute() {
	r.addRoute("/simulate", r.simulate, http.MethodGet)
}

// @Summary      Telemetry Totals
// @Tags         Machine Health - Telemetry
// @Success      200     {object} map[string]int64
// @Router       /api/v3/machine_health/telemetry [get]
func (r *Router) addTelemetryRoute() {
	r.addRoute("/telemetry", r.telemetryTotals, http.MethodGet)
}

/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.

* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	hedgeErrors "machinehealth/common/errors"
	"machinehealth/common/telemetry"
	"machinehealth/machine-health-service/pkg/dto"
	"machinehealth/machine-health-service/pkg/simulator"
)

const defaultSimulationSeed = 42

type TrainingRequest struct {
	Samples      []dto.SignalBatch `json:"samples" validate:"required,min=1"`
	SamplingRate float64           `json:"sampling_rate" validate:"gt=0"`
	// defaults to true
	Validate *bool `json:"validate,omitempty"`
}

type SnapshotRequest struct {
	Name string `json:"name,omitempty"`
}

type SnapshotResponse struct {
	Name      string    `json:"name"`
	Trained   bool      `json:"model_trained"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

type SnapshotList struct {
	Names []string `json:"names"`
}

func badRequest(format string, args ...interface{}) error {
	return hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeBadRequest, fmt.Sprintf(format, args...)).ConvertToHTTPError()
}

// decodeBody decodes the request body into v, an empty body leaves v untouched when allowEmpty is set
func (r *Router) decodeBody(c echo.Context, v interface{}, allowEmpty bool) error {
	err := json.NewDecoder(c.Request().Body).Decode(v)
	if errors.Is(err, io.EOF) && allowEmpty {
		return nil
	}
	if err != nil {
		r.lc.Errorf("failed to decode request body for %s: %s", c.Path(), err.Error())
		return badRequest("invalid request body: %v", err)
	}
	return nil
}

func (r *Router) decodeBatch(c echo.Context) (dto.SignalBatch, error) {
	var batch dto.SignalBatch
	if err := r.decodeBody(c, &batch, false); err != nil {
		return batch, err
	}
	if err := r.validate.Struct(batch); err != nil {
		r.lc.Errorf("invalid signal batch: %s", err.Error())
		return batch, badRequest("invalid signal batch: %v", err)
	}
	return batch, nil
}

func (r *Router) analyze(c echo.Context) error {
	batch, err := r.decodeBatch(c)
	if err != nil {
		return err
	}
	result := r.session.Analyze(batch)
	result.DeviceName = c.QueryParam("device")
	r.pipeline.Record(result)
	return c.JSON(http.StatusOK, result)
}

func (r *Router) train(c echo.Context) error {
	var req TrainingRequest
	if err := r.decodeBody(c, &req, false); err != nil {
		return err
	}
	if err := r.validate.Struct(req); err != nil {
		r.lc.Errorf("invalid training request: %s", err.Error())
		return badRequest("invalid training request: %v", err)
	}
	validate := true
	if req.Validate != nil {
		validate = *req.Validate
	}

	r.counters.Inc(telemetry.TrainingRunsCount)
	summary, err := r.session.Train(c.Request().Context(), req.Samples, req.SamplingRate, validate)
	if err != nil {
		r.counters.Inc(telemetry.TrainingFailuresCount)
		r.lc.Errorf("training failed: %s", err.Error())
		return hedgeErrors.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (r *Router) calibrate(c echo.Context) error {
	batch, err := r.decodeBatch(c)
	if err != nil {
		return err
	}
	r.counters.Inc(telemetry.TrainingRunsCount)
	summary, err := r.session.CalibrateFromSample(c.Request().Context(), batch)
	if err != nil {
		r.counters.Inc(telemetry.TrainingFailuresCount)
		r.lc.Errorf("calibration failed: %s", err.Error())
		return hedgeErrors.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (r *Router) trainingSummary(c echo.Context) error {
	return c.JSON(http.StatusOK, r.session.TrainingSummary())
}

func (r *Router) compareWithTraining(c echo.Context) error {
	batch, err := r.decodeBatch(c)
	if err != nil {
		return err
	}
	comparison, err := r.session.CompareWithTraining(batch)
	if err != nil {
		r.lc.Errorf("comparison with training failed: %s", err.Error())
		return hedgeErrors.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, comparison)
}

func (r *Router) configureMachine(c echo.Context) error {
	var setup dto.MachineSetup
	if err := r.decodeBody(c, &setup, false); err != nil {
		return err
	}
	config, err := r.session.ConfigureMachine(setup)
	if err != nil {
		r.lc.Errorf("failed to configure machine: %s", err.Error())
		return hedgeErrors.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, config)
}

func (r *Router) getMachine(c echo.Context) error {
	return c.JSON(http.StatusOK, r.session.Config())
}

func (r *Router) updateWeights(c echo.Context) error {
	// fields missing from the body keep their current value
	weights := r.session.Weights()
	if err := r.decodeBody(c, &weights, false); err != nil {
		return err
	}
	if err := r.session.UpdateWeights(weights); err != nil {
		r.lc.Errorf("failed to update weights: %s", err.Error())
		return hedgeErrors.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, weights)
}

func (r *Router) getWeights(c echo.Context) error {
	return c.JSON(http.StatusOK, r.session.Weights())
}

func (r *Router) reset(c echo.Context) error {
	r.session.Reset()
	return c.NoContent(http.StatusNoContent)
}

func (r *Router) snapshotName(c echo.Context) (string, error) {
	var req SnapshotRequest
	if err := r.decodeBody(c, &req, true); err != nil {
		return "", err
	}
	if req.Name == "" {
		return r.appConfig.SnapshotName, nil
	}
	return req.Name, nil
}

func (r *Router) saveSnapshot(c echo.Context) error {
	name, err := r.snapshotName(c)
	if err != nil {
		return err
	}
	snap := r.session.Snapshot()
	if err := r.store.Save(c.Request().Context(), name, snap); err != nil {
		r.lc.Errorf("failed to save snapshot %s: %s", name, err.Error())
		return hedgeErrors.ToHTTPError(err)
	}
	r.lc.Infof("snapshot %s saved", name)
	return c.JSON(http.StatusOK, SnapshotResponse{Name: name, Trained: snap.Trained, CreatedAt: snap.CreatedAt})
}

func (r *Router) loadSnapshot(c echo.Context) error {
	name, err := r.snapshotName(c)
	if err != nil {
		return err
	}
	snap, err := r.store.Load(c.Request().Context(), name)
	if err != nil {
		r.lc.Errorf("failed to load snapshot %s: %s", name, err.Error())
		return hedgeErrors.ToHTTPError(err)
	}
	if err := r.session.LoadSnapshot(snap); err != nil {
		r.lc.Errorf("failed to restore snapshot %s: %s", name, err.Error())
		return hedgeErrors.ToHTTPError(err)
	}
	r.lc.Infof("snapshot %s restored", name)
	return c.JSON(http.StatusOK, SnapshotResponse{Name: name, Trained: snap.Trained, CreatedAt: snap.CreatedAt})
}

func (r *Router) listSnapshots(c echo.Context) error {
	names, err := r.store.List(c.Request().Context())
	if err != nil {
		r.lc.Errorf("failed to list snapshots: %s", err.Error())
		return hedgeErrors.ToHTTPError(err)
	}
	if names == nil {
		names = []string{}
	}
	return c.JSON(http.StatusOK, SnapshotList{Names: names})
}

func (r *Router) deviceHealth(c echo.Context) error {
	device := c.Param("device")
	result, found := r.pipeline.LatestHealth(device)
	if !found {
		return hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeNotFound, fmt.Sprintf("no recent health for device %s", device)).ConvertToHTTPError()
	}
	return c.JSON(http.StatusOK, result)
}

func (r *Router) simulate(c echo.Context) error {
	condition, hErr := simulator.ParseCondition(c.QueryParam("condition"))
	if hErr != nil {
		return hErr.ConvertToHTTPError()
	}
	seed := uint64(defaultSimulationSeed)
	if raw := c.QueryParam("seed"); raw != "" {
		v, err := cast.ToUint64E(raw)
		if err != nil {
			return badRequest("invalid seed %q", raw)
		}
		seed = v
	}
	batch := simulator.NewGenerator(seed).Batch(condition)
	if analyze, _ := cast.ToBoolE(c.QueryParam("analyze")); analyze {
		return c.JSON(http.StatusOK, r.session.Analyze(batch))
	}
	return c.JSON(http.StatusOK, batch)
}

func (r *Router) telemetryTotals(c echo.Context) error {
	totals, err := r.counters.Totals()
	if err != nil {
		r.lc.Errorf("failed to read telemetry totals: %s", err.Error())
		return hedgeErrors.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, totals)
}

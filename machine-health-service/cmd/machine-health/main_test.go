/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.

* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/edgexfoundry/app-functions-sdk-go/v3/pkg/interfaces/mocks"
	"github.com/edgexfoundry/go-mod-core-contracts/v3/clients/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"machinehealth/common/client"
	"machinehealth/common/db"
	"machinehealth/common/db/redis"
	"machinehealth/common/telemetry"
	"machinehealth/machine-health-service/internal/config"
	"machinehealth/machine-health-service/pkg/analyzer"
	"machinehealth/machine-health-service/pkg/simulator"
	"machinehealth/machine-health-service/pkg/snapshot"
	redisMock "machinehealth/mocks/machinehealth/common/db/redis"
	"machinehealth/mocks/machinehealth/common/infrastructure/interfaces/utils"
	svcmocks "machinehealth/mocks/machinehealth/common/service"
)

var errTest = errors.New("dummy error")

func newServiceMock(settings map[string]string, runErr error) *mocks.ApplicationService {
	appSvcMock := utils.NewApplicationServiceMock(settings).AppService
	appSvcMock.On("AddCustomRoute", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	appSvcMock.On("AddFunctionsPipelineForTopics", pipelineId, mock.Anything,
		mock.Anything,
		mock.Anything,
		mock.Anything,
		mock.Anything).Return(nil)
	appSvcMock.On("Run").Return(runErr)
	return appSvcMock
}

func captureExit(t *testing.T) *[]int {
	codes := &[]int{}
	originalOsExit := osExit
	osExit = func(code int) {
		*codes = append(*codes, code)
	}
	t.Cleanup(func() {
		osExit = originalOsExit
		serviceInt = nil
	})
	return codes
}

func TestMain_getAppService(t *testing.T) {
	t.Run("getAppService - Passed", func(t *testing.T) {
		appSvcMock := utils.NewApplicationServiceMock(nil).AppService
		mockCreator := &svcmocks.MockAppServiceCreator{}
		appServiceCreator = mockCreator
		mockCreator.On("NewAppService", client.MachineHealthServiceKey).Return(appSvcMock, true)

		getAppService()
		assert.Equal(t, appSvcMock, serviceInt, "Service should be assigned correctly")
		serviceInt = nil
	})
	t.Run("getAppService - Failed", func(t *testing.T) {
		codes := captureExit(t)
		mockCreator := &svcmocks.MockAppServiceCreator{}
		appServiceCreator = mockCreator
		mockCreator.On("NewAppService", client.MachineHealthServiceKey).Return(nil, false)

		getAppService()
		assert.Equal(t, []int{-1}, *codes)
		assert.Nil(t, serviceInt)
	})
	appServiceCreator = nil
}

func TestMain_main(t *testing.T) {
	t.Run("main - Passed (file store)", func(t *testing.T) {
		codes := captureExit(t)
		appSvcMock := newServiceMock(map[string]string{"SnapshotDir": t.TempDir()}, nil)
		serviceInt = appSvcMock

		main()

		assert.Equal(t, []int{0}, *codes)
		appSvcMock.AssertNumberOfCalls(t, "AddCustomRoute", 16)
		appSvcMock.AssertCalled(t, "AddFunctionsPipelineForTopics", pipelineId, config.DefaultSubscribeTopics,
			mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		appSvcMock.AssertCalled(t, "Run")
	})
	t.Run("main - Passed (redis store)", func(t *testing.T) {
		codes := captureExit(t)
		dbClient := &redisMock.MockMachineHealthDBInterface{}
		originalCreateDBClient := createDBClient
		createDBClient = func(*db.DatabaseConfig, logger.LoggingClient) redis.MachineHealthDBInterface {
			return dbClient
		}
		defer func() { createDBClient = originalCreateDBClient }()

		serviceInt = newServiceMock(map[string]string{
			"SnapshotStore": "redis",
			"RedisHost":     "localhost",
			"RedisPort":     "6379",
		}, nil)

		main()

		assert.Equal(t, []int{0}, *codes)
		// nothing was counted, so nothing is pushed to redis
		dbClient.AssertNotCalled(t, "IncrMetricCounterBy", mock.Anything, mock.Anything)
	})
	t.Run("main - Failed (configuration)", func(t *testing.T) {
		codes := captureExit(t)
		appSvcMock := newServiceMock(map[string]string{"SnapshotStore": "tape"}, nil)
		serviceInt = appSvcMock

		main()

		assert.Equal(t, []int{-1}, *codes)
		appSvcMock.AssertNotCalled(t, "Run")
	})
	t.Run("main - Failed (profiles file)", func(t *testing.T) {
		codes := captureExit(t)
		serviceInt = newServiceMock(map[string]string{"MachineProfilesFile": "/nonexistent/profiles.toml"}, nil)

		main()

		assert.Equal(t, []int{-1}, *codes)
	})
	t.Run("main - Failed (Run)", func(t *testing.T) {
		codes := captureExit(t)
		serviceInt = newServiceMock(map[string]string{"SnapshotDir": t.TempDir()}, errTest)

		main()

		assert.Empty(t, *codes)
	})
}

func TestMain_buildSnapshotStore(t *testing.T) {
	svc := utils.NewApplicationServiceMock(nil).AppService

	t.Run("buildSnapshotStore - Passed (file)", func(t *testing.T) {
		cfg := config.NewAppConfig()
		store, dbClient, err := buildSnapshotStore(svc, cfg)
		require.NoError(t, err)
		assert.IsType(t, &snapshot.FileStore{}, store)
		assert.Nil(t, dbClient)
	})
	t.Run("buildSnapshotStore - Passed (minio)", func(t *testing.T) {
		originalNewObjectStorage := newObjectStorage
		newObjectStorage = func(config.MinioConfig) (snapshot.ObjectStorage, error) {
			return &snapshot.S3Storage{}, nil
		}
		defer func() { newObjectStorage = originalNewObjectStorage }()

		cfg := config.NewAppConfig()
		cfg.SnapshotStore = config.StoreMinio
		store, dbClient, err := buildSnapshotStore(svc, cfg)
		require.NoError(t, err)
		assert.IsType(t, &snapshot.MinioStore{}, store)
		assert.Nil(t, dbClient)
	})
	t.Run("buildSnapshotStore - Failed (minio)", func(t *testing.T) {
		originalNewObjectStorage := newObjectStorage
		newObjectStorage = func(config.MinioConfig) (snapshot.ObjectStorage, error) {
			return nil, errTest
		}
		defer func() { newObjectStorage = originalNewObjectStorage }()

		cfg := config.NewAppConfig()
		cfg.SnapshotStore = config.StoreMinio
		_, _, err := buildSnapshotStore(svc, cfg)
		assert.ErrorIs(t, err, errTest)
	})
}

func TestMain_restoreSnapshot(t *testing.T) {
	lc := logger.NewMockClient()
	store := snapshot.NewFileStore(t.TempDir())

	t.Run("restoreSnapshot - Passed (no snapshot yet)", func(t *testing.T) {
		session := analyzer.NewSession(lc)
		restoreSnapshot(lc, session, store, "absent")
		assert.False(t, session.IsTrained())
	})
	t.Run("restoreSnapshot - Passed", func(t *testing.T) {
		trained := analyzer.NewSession(lc)
		gen := simulator.NewGenerator(1)
		_, err := trained.Train(context.Background(), gen.TrainingSet(12), gen.SamplingRate, true)
		require.NoError(t, err)
		require.NoError(t, store.Save(context.Background(), "baseline", trained.Snapshot()))

		session := analyzer.NewSession(lc)
		restoreSnapshot(lc, session, store, "baseline")
		assert.True(t, session.IsTrained())
	})
}

func TestMain_buildSession(t *testing.T) {
	lc := logger.NewMockClient()
	cfg := config.NewAppConfig()
	cfg.MotorRPM = 3600
	cfg.MachineType = "fan"

	session, err := buildSession(lc, cfg)
	require.NoError(t, err)
	assert.Equal(t, 60.0, session.Config().RotationFreq)
	assert.Equal(t, "fan", session.Config().MachineType)
}

func TestMain_persistCounters(t *testing.T) {
	persisted := make(chan struct{}, 1)
	dbClient := &redisMock.MockMachineHealthDBInterface{}
	dbClient.On("IncrMetricCounterBy", telemetry.AnalysesCount, int64(1)).Return(int64(1), nil).
		Run(func(mock.Arguments) {
			select {
			case persisted <- struct{}{}:
			default:
			}
		})
	counters := telemetry.NewCounters(nil, dbClient, logger.NewMockClient())
	counters.Inc(telemetry.AnalysesCount)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		persistCounters(ctx, logger.NewMockClient(), counters, 10*time.Millisecond)
		close(done)
	}()

	select {
	case <-persisted:
	case <-time.After(time.Second):
		t.Error("counters were not persisted")
	}
	cancel()
	<-done
}

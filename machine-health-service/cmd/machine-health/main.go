/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.

* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/edgexfoundry/app-functions-sdk-go/v3/pkg/interfaces"
	"github.com/edgexfoundry/app-functions-sdk-go/v3/pkg/transforms"
	bootstrapInterfaces "github.com/edgexfoundry/go-mod-bootstrap/v3/bootstrap/interfaces"
	"github.com/edgexfoundry/go-mod-core-contracts/v3/clients/logger"
	"machinehealth/common/client"
	commonConfig "machinehealth/common/config"
	"machinehealth/common/db"
	"machinehealth/common/db/redis"
	hedgeErrors "machinehealth/common/errors"
	commService "machinehealth/common/service"
	"machinehealth/common/telemetry"
	"machinehealth/machine-health-service/internal/config"
	"machinehealth/machine-health-service/internal/pipeline"
	"machinehealth/machine-health-service/internal/router"
	"machinehealth/machine-health-service/pkg/analyzer"
	"machinehealth/machine-health-service/pkg/snapshot"
)

const pipelineId = "MachineHealth"

var (
	serviceInt        interfaces.ApplicationService
	appServiceCreator commService.AppServiceCreator
	osExit            = os.Exit
	createDBClient    = func(dbConfig *db.DatabaseConfig, lc logger.LoggingClient) redis.MachineHealthDBInterface {
		return redis.CreateDBClient(dbConfig, lc)
	}
	newObjectStorage = func(cfg config.MinioConfig) (snapshot.ObjectStorage, error) {
		storage, err := snapshot.NewS3Storage(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, cfg.Bucket, cfg.UseSSL)
		if err != nil {
			return nil, err
		}
		if err := storage.EnsureBucket(context.Background()); err != nil {
			return nil, err
		}
		return storage, nil
	}
)

func getAppService() {
	if appServiceCreator == nil {
		appServiceCreator = &commService.AppService{}
	}
	svc, ok := appServiceCreator.NewAppService(client.MachineHealthServiceKey)
	if !ok {
		err := fmt.Errorf("failed to start App Service: %s", client.MachineHealthServiceKey)
		fmt.Println(err)
		exitWrapper(-1)
	} else {
		serviceInt = svc
	}
}

func main() {
	if serviceInt == nil {
		getAppService()
	}
	service := serviceInt
	if service == nil {
		return
	}
	lc := service.LoggingClient()

	appConfig := config.NewAppConfig()
	if err := appConfig.LoadAppConfigurations(service); err != nil {
		lc.Errorf("failed to load the machine health configuration: %s", err.Error())
		exitWrapper(-1)
		return
	}

	session, err := buildSession(lc, appConfig)
	if err != nil {
		lc.Errorf("failed to initialize the analyzer session: %s", err.Error())
		exitWrapper(-1)
		return
	}

	store, dbClient, err := buildSnapshotStore(service, appConfig)
	if err != nil {
		lc.Errorf("failed to initialize the %s snapshot store: %s", appConfig.SnapshotStore, err.Error())
		exitWrapper(-1)
		return
	}
	if appConfig.LoadOnStart {
		restoreSnapshot(lc, session, store, appConfig.SnapshotName)
	}

	var metricsMgr bootstrapInterfaces.MetricsManager
	metricsManager, err := telemetry.NewMetricsManager(service, client.MachineHealthServiceName)
	if err != nil {
		lc.Errorf("service metrics will not be reported: %s", err.Error())
	} else {
		metricsMgr = metricsManager.MetricsMgr
	}
	counters := telemetry.NewCounters(metricsMgr, dbClient, lc)

	healthSender, eventSender := buildSenders(service, appConfig)
	healthPipeline := pipeline.NewHealthPipeline(lc, session, appConfig, counters, healthSender, eventSender)

	router.NewRouter(service, appConfig, session, healthPipeline, store, counters).LoadRoutes()

	err = service.AddFunctionsPipelineForTopics(pipelineId, appConfig.SubscribeTopics,
		healthPipeline.ToSignalBatch,
		healthPipeline.AnalyzeHealth,
		healthPipeline.PublishHealth,
		healthPipeline.EmitHealthEvent,
	)
	if err != nil {
		lc.Errorf("SDK AddFunctionsPipelineForTopics failed: %v", err)
		exitWrapper(-1)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	if dbClient != nil {
		go persistCounters(ctx, lc, counters, appConfig.PersistInterval)
	}
	if metricsManager != nil {
		metricsManager.Run()
	}

	err = service.Run()
	cancel()
	if metricsManager != nil {
		metricsManager.Stop()
	}
	if perr := counters.Persist(); perr != nil {
		lc.Errorf("failed to persist service counters: %v", perr)
	}
	if err != nil {
		lc.Errorf("Run returned error: %v", err)
		return
	}

	lc.Info("machine health service terminating")
	exitWrapper(0)
}

func buildSession(lc logger.LoggingClient, appConfig *config.AppConfig) (*analyzer.Session, error) {
	opts := appConfig.SessionOptions()
	if appConfig.ProfilesFile != "" {
		profiles, err := config.LoadMachineProfiles(appConfig.ProfilesFile)
		if err != nil {
			return nil, err
		}
		lc.Infof("loaded %d machine profiles from %s", len(profiles), appConfig.ProfilesFile)
		opts = append(opts, analyzer.WithMachineProfiles(profiles))
	}
	session := analyzer.NewSession(lc, opts...)
	if _, err := session.ConfigureMachine(appConfig.MachineSetup()); err != nil {
		return nil, err
	}
	return session, nil
}

// buildSnapshotStore returns the configured store, and the Redis client when the service runs with one
func buildSnapshotStore(service interfaces.ApplicationService, appConfig *config.AppConfig) (snapshot.Store, redis.MachineHealthDBInterface, error) {
	lc := service.LoggingClient()
	switch appConfig.SnapshotStore {
	case config.StoreRedis:
		dbConfig := db.NewDatabaseConfig()
		dbConfig.LoadAppConfigurations(service)
		dbClient := createDBClient(dbConfig, lc)
		return snapshot.NewRedisStore(dbClient, lc), dbClient, nil
	case config.StoreMinio:
		storage, err := newObjectStorage(appConfig.Minio)
		if err != nil {
			return nil, nil, err
		}
		lc.Infof("snapshots are stored in bucket %s of %s", appConfig.Minio.Bucket, appConfig.Minio.Endpoint)
		return snapshot.NewMinioStore(storage), nil, nil
	default:
		lc.Infof("snapshots are stored in %s", appConfig.SnapshotDir)
		return snapshot.NewFileStore(appConfig.SnapshotDir), nil, nil
	}
}

// restoreSnapshot loads the named snapshot, the session stays untrained when there is none
func restoreSnapshot(lc logger.LoggingClient, session *analyzer.Session, store snapshot.Store, name string) {
	snap, err := store.Load(context.Background(), name)
	if err != nil {
		if hedgeErrors.IsErrorType(err, hedgeErrors.ErrorTypeNotFound) {
			lc.Infof("no snapshot %s yet, starting untrained", name)
		} else {
			lc.Errorf("failed to load snapshot %s, starting untrained: %v", name, err)
		}
		return
	}
	if err := session.LoadSnapshot(snap); err != nil {
		lc.Errorf("failed to restore snapshot %s, starting untrained: %v", name, err)
	}
}

func buildSenders(service interfaces.ApplicationService, appConfig *config.AppConfig) (pipeline.Sender, pipeline.Sender) {
	lc := service.LoggingClient()
	persistOnError := commonConfig.GetPersistOnError(service)

	var healthSender, eventSender pipeline.Sender
	healthConfig, err := commonConfig.BuildMQTTSecretConfig(service, appConfig.HealthPublishTopic, client.MachineHealthServiceName+"-health")
	if err != nil {
		lc.Errorf("health results will not be published: %v", err)
	} else {
		healthSender = transforms.NewMQTTSecretSender(healthConfig, persistOnError)
	}
	eventConfig, err := commonConfig.BuildMQTTSecretConfig(service, appConfig.EventPublishTopic, client.MachineHealthServiceName+"-events")
	if err != nil {
		lc.Errorf("health events will not be published: %v", err)
	} else {
		eventSender = transforms.NewMQTTSecretSender(eventConfig, persistOnError)
	}
	return healthSender, eventSender
}

func persistCounters(ctx context.Context, lc logger.LoggingClient, counters *telemetry.Counters, interval time.Duration) {
	if interval <= 0 {
		interval = config.DefaultPersistInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := counters.Persist(); err != nil {
				lc.Errorf("failed to persist service counters: %v", err)
			}
		}
	}
}

func exitWrapper(code int) {
	osExit(code)
}

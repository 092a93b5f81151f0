/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.

* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package config

import (
	"strings"
	"time"

	"github.com/edgexfoundry/app-functions-sdk-go/v3/pkg/interfaces"
	"github.com/edgexfoundry/go-mod-core-contracts/v3/clients/logger"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	hedgeErrors "machinehealth/common/errors"
	"machinehealth/machine-health-service/pkg/analyzer"
	"machinehealth/machine-health-service/pkg/anomaly"
	"machinehealth/machine-health-service/pkg/dto"
)

const (
	StoreFile  = "file"
	StoreRedis = "redis"
	StoreMinio = "minio"

	DefaultSamplingRate   = 1000.0
	DefaultSnapshotDir    = "/tmp/machine-health/snapshots"
	DefaultSnapshotName   = "default"
	DefaultHealthTopic    = "machine-health"
	DefaultEventTopic     = "events"
	DefaultHealthCacheTTL = 10 * time.Minute
	DefaultMinioBucket    = "machine-health"
	MinioSecretName       = "minio"

	DefaultPersistInterval = time.Minute
)

var DefaultSubscribeTopics = []string{"events/device/#"}

type MinioConfig struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

type AppConfig struct {
	DefaultSamplingRate float64
	MotorRPM            float64
	MachineType         string
	// ChannelMap maps an EdgeX resource name to the channel its readings feed
	ChannelMap         map[string]dto.Channel
	SnapshotStore      string
	SnapshotDir        string
	SnapshotName       string
	LoadOnStart        bool
	Minio              MinioConfig
	HealthPublishTopic string
	EventPublishTopic  string
	HealthCacheTTL     time.Duration
	ProfilesFile       string
	SubscribeTopics    []string
	// PersistInterval is how often the service counters are added to the Redis totals
	PersistInterval   time.Duration
	Forest            anomaly.ForestOptions
	CalibrationCopies int
	CalibrationSeed   uint64
}

func NewAppConfig() *AppConfig {
	return &AppConfig{
		DefaultSamplingRate: DefaultSamplingRate,
		MotorRPM:            dto.DefaultMotorRPM,
		MachineType:         dto.DefaultMachineType,
		ChannelMap:          DefaultChannelMap(),
		SnapshotStore:       StoreFile,
		SnapshotDir:         DefaultSnapshotDir,
		SnapshotName:        DefaultSnapshotName,
		Minio:               MinioConfig{Bucket: DefaultMinioBucket},
		HealthPublishTopic:  DefaultHealthTopic,
		EventPublishTopic:   DefaultEventTopic,
		HealthCacheTTL:      DefaultHealthCacheTTL,
		SubscribeTopics:     append([]string(nil), DefaultSubscribeTopics...),
		PersistInterval:     DefaultPersistInterval,
		Forest:              anomaly.DefaultForestOptions(),
		CalibrationCopies:   analyzer.DefaultCalibrationCopies,
		CalibrationSeed:     anomaly.DefaultSeed,
	}
}

// SessionOptions returns the analyzer options driven by the model settings
func (c *AppConfig) SessionOptions() []analyzer.Option {
	return []analyzer.Option{
		analyzer.WithForestOptions(c.Forest),
		analyzer.WithCalibration(c.CalibrationCopies, c.CalibrationSeed),
	}
}

func (c *AppConfig) loadModelSettings(lc logger.LoggingClient, service interfaces.ApplicationService) {
	if v, err := service.GetAppSetting("ForestTrees"); err == nil {
		trees, err := cast.ToIntE(v)
		if err != nil || trees <= 0 {
			lc.Errorf("invalid ForestTrees '%s', using %d", v, anomaly.DefaultTrees)
		} else {
			c.Forest.Trees = trees
		}
	}
	if v, err := service.GetAppSetting("ForestSeed"); err == nil {
		seed, err := cast.ToUint64E(v)
		if err != nil {
			lc.Errorf("invalid ForestSeed '%s', using %d", v, anomaly.DefaultSeed)
		} else {
			c.Forest.Seed = seed
		}
	}
	if v, err := service.GetAppSetting("CalibrationCopies"); err == nil {
		copies, err := cast.ToIntE(v)
		if err != nil || copies <= 0 {
			lc.Errorf("invalid CalibrationCopies '%s', using %d", v, analyzer.DefaultCalibrationCopies)
		} else {
			c.CalibrationCopies = copies
		}
	}
	if v, err := service.GetAppSetting("CalibrationSeed"); err == nil {
		seed, err := cast.ToUint64E(v)
		if err != nil {
			lc.Errorf("invalid CalibrationSeed '%s', using %d", v, anomaly.DefaultSeed)
		} else {
			c.CalibrationSeed = seed
		}
	}
}

func DefaultChannelMap() map[string]dto.Channel {
	return map[string]dto.Channel{
		"Fx":          dto.ChannelFx,
		"Fy":          dto.ChannelFy,
		"Fz":          dto.ChannelFz,
		"Temperature": dto.ChannelTemperature,
		"v0":          dto.ChannelTemperature,
	}
}

// LoadAppConfigurations reads the application settings. Missing or malformed optional settings keep their
// defaults, an unknown snapshot store is a configuration error.
func (c *AppConfig) LoadAppConfigurations(service interfaces.ApplicationService) hedgeErrors.HedgeError {
	lc := service.LoggingClient()

	if v, err := service.GetAppSetting("DefaultSamplingRate"); err == nil {
		rate, err := cast.ToFloat64E(v)
		if err != nil || rate <= 0 {
			lc.Errorf("invalid DefaultSamplingRate '%s', using %.0f", v, DefaultSamplingRate)
		} else {
			c.DefaultSamplingRate = rate
		}
	}

	if v, err := service.GetAppSetting("MotorRPM"); err == nil {
		rpm, err := cast.ToFloat64E(v)
		if err != nil || rpm <= 0 {
			lc.Errorf("invalid MotorRPM '%s', using %.0f", v, dto.DefaultMotorRPM)
		} else {
			c.MotorRPM = rpm
		}
	}

	if v, err := service.GetAppSetting("MachineType"); err == nil && v != "" {
		c.MachineType = strings.ToLower(v)
	}

	if entries, err := service.GetAppSettingStrings("ChannelMap"); err == nil && len(entries) > 0 {
		channelMap, err := ParseChannelMap(entries)
		if err != nil {
			lc.Errorf("invalid ChannelMap, using defaults: %s", err.Error())
		} else {
			c.ChannelMap = channelMap
		}
	}

	if v, err := service.GetAppSetting("SnapshotStore"); err == nil && v != "" {
		c.SnapshotStore = strings.ToLower(v)
	}
	switch c.SnapshotStore {
	case StoreFile, StoreRedis, StoreMinio:
	default:
		lc.Errorf("unsupported SnapshotStore '%s'", c.SnapshotStore)
		return hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeConfig, "unsupported SnapshotStore "+c.SnapshotStore)
	}

	if v, err := service.GetAppSetting("SnapshotDir"); err == nil && v != "" {
		c.SnapshotDir = v
	}
	if v, err := service.GetAppSetting("SnapshotName"); err == nil && v != "" {
		c.SnapshotName = v
	}
	if v, err := service.GetAppSetting("LoadSnapshotOnStart"); err == nil {
		c.LoadOnStart = cast.ToBool(v)
	}

	if c.SnapshotStore == StoreMinio {
		if err := c.loadMinio(service); err != nil {
			return err
		}
	}

	if v, err := service.GetAppSetting("HealthPublishTopic"); err == nil && v != "" {
		c.HealthPublishTopic = v
	}
	if v, err := service.GetAppSetting("EventPublishTopic"); err == nil && v != "" {
		c.EventPublishTopic = v
	}

	if v, err := service.GetAppSetting("HealthCacheTTL"); err == nil {
		ttl, err := cast.ToDurationE(v)
		if err != nil || ttl <= 0 {
			lc.Errorf("invalid HealthCacheTTL '%s', using %s", v, DefaultHealthCacheTTL)
		} else {
			c.HealthCacheTTL = ttl
		}
	}

	if v, err := service.GetAppSetting("CounterPersistInterval"); err == nil {
		interval, err := cast.ToDurationE(v)
		if err != nil || interval <= 0 {
			lc.Errorf("invalid CounterPersistInterval '%s', using %s", v, DefaultPersistInterval)
		} else {
			c.PersistInterval = interval
		}
	}

	if v, err := service.GetAppSetting("MachineProfilesFile"); err == nil {
		c.ProfilesFile = v
	}

	if topics, err := service.GetAppSettingStrings("SubscribeTopics"); err == nil && len(topics) > 0 {
		c.SubscribeTopics = make([]string, 0, len(topics))
		for _, topic := range topics {
			if topic = strings.TrimSpace(topic); topic != "" {
				c.SubscribeTopics = append(c.SubscribeTopics, topic)
			}
		}
		if len(c.SubscribeTopics) == 0 {
			c.SubscribeTopics = append([]string(nil), DefaultSubscribeTopics...)
		}
	}

	c.loadModelSettings(lc, service)

	lc.Infof("machine health config: type=%s rpm=%.0f sampling_rate=%.0f store=%s", c.MachineType, c.MotorRPM, c.DefaultSamplingRate, c.SnapshotStore)
	return nil
}

func (c *AppConfig) loadMinio(service interfaces.ApplicationService) hedgeErrors.HedgeError {
	lc := service.LoggingClient()
	endpoint, err := service.GetAppSetting("MinioEndpoint")
	if err != nil || endpoint == "" {
		lc.Errorf("MinioEndpoint is required for the minio snapshot store")
		return hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeConfig, "MinioEndpoint is required")
	}
	c.Minio.Endpoint = endpoint
	if bucket, err := service.GetAppSetting("MinioBucket"); err == nil && bucket != "" {
		c.Minio.Bucket = bucket
	}
	if useSSL, err := service.GetAppSetting("MinioUseSSL"); err == nil {
		c.Minio.UseSSL = cast.ToBool(useSSL)
	}

	credentials, err := service.SecretProvider().GetSecret(MinioSecretName, "accessKey", "secretKey")
	if err != nil {
		lc.Errorf("failed to read the %s secret: %s", MinioSecretName, err.Error())
		return hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeConfig, "minio credentials not available")
	}
	c.Minio.AccessKey = credentials["accessKey"]
	c.Minio.SecretKey = credentials["secretKey"]
	return nil
}

// MachineSetup is the initial machine configuration request derived from the settings
func (c *AppConfig) MachineSetup() dto.MachineSetup {
	return dto.MachineSetup{
		MotorRPM:    c.MotorRPM,
		MachineType: c.MachineType,
	}
}

// ParseChannelMap parses "resource:channel" entries
func ParseChannelMap(entries []string) (map[string]dto.Channel, error) {
	out := make(map[string]dto.Channel, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		resource, channel, found := strings.Cut(entry, ":")
		if !found {
			return nil, errors.Errorf("entry '%s' is not in resource:channel form", entry)
		}
		ch, ok := dto.ParseChannel(strings.TrimSpace(channel))
		if !ok {
			return nil, errors.Errorf("unknown channel '%s' for resource '%s'", channel, resource)
		}
		out[strings.TrimSpace(resource)] = ch
	}
	if len(out) == 0 {
		return nil, errors.New("no channel mappings")
	}
	return out, nil
}

// LoadMachineProfiles reads extra machine profiles from a toml file of the form
//
//	[pump.Fx]
//	RMSMin = 0.5
//	RMSMax = 1.2
//	CrestMin = 3.0
//	CrestMax = 5.0
func LoadMachineProfiles(path string) (analyzer.MachineProfiles, error) {
	tree, err := toml.LoadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "loading machine profiles from %s", path)
	}
	return profilesFromMap(tree.ToMap())
}

func profilesFromMap(raw map[string]interface{}) (analyzer.MachineProfiles, error) {
	profiles := make(analyzer.MachineProfiles, len(raw))
	for machineType, axesRaw := range raw {
		axes, err := cast.ToStringMapE(axesRaw)
		if err != nil {
			return nil, errors.Wrapf(err, "profile %s", machineType)
		}
		ranges := make(map[dto.Channel]dto.AxisRange, len(axes))
		for axisName, bandsRaw := range axes {
			ch, ok := dto.ParseChannel(axisName)
			if !ok || ch.Kind() != dto.KindVibration {
				return nil, errors.Errorf("profile %s: %s is not a vibration axis", machineType, axisName)
			}
			bands, err := cast.ToStringMapE(bandsRaw)
			if err != nil {
				return nil, errors.Wrapf(err, "profile %s axis %s", machineType, axisName)
			}
			r := dto.AxisRange{
				RMS:   dto.Range{Min: cast.ToFloat64(bands["RMSMin"]), Max: cast.ToFloat64(bands["RMSMax"])},
				Crest: dto.Range{Min: cast.ToFloat64(bands["CrestMin"]), Max: cast.ToFloat64(bands["CrestMax"])},
			}
			if r.RMS.Min > r.RMS.Max || r.Crest.Min > r.Crest.Max || r.RMS.Max <= 0 || r.Crest.Max <= 0 {
				return nil, errors.Errorf("profile %s axis %s: invalid bands", machineType, axisName)
			}
			ranges[ch] = r
		}
		profiles[strings.ToLower(machineType)] = ranges
	}
	return profiles, nil
}

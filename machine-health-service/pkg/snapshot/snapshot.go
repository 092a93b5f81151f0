/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.
 
* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	hedgeErrors "machinehealth/common/errors"
	"machinehealth/machine-health-service/pkg/anomaly"
	"machinehealth/machine-health-service/pkg/dto"
)

const FormatVersion = 1

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,127}$`)

// Snapshot is the persisted training state of an analyzer session. The model itself is not stored,
// it is refitted from Features with Forest, which reproduces it exactly.
type Snapshot struct {
	Version   int                    `json:"version"`
	CreatedAt time.Time              `json:"created_at"`
	Trained   bool                   `json:"model_trained"`
	Batches   []dto.SignalBatch      `json:"raw_training_data"`
	Features  [][]float64            `json:"training_features"`
	Stats     *anomaly.TrainingStats `json:"training_stats,omitempty"`
	Scaler    *anomaly.Scaler        `json:"scaler_params,omitempty"`
	Forest    anomaly.ForestOptions  `json:"forest_options"`
	Config    dto.MachineConfig      `json:"machine_config"`
	Weights   dto.HealthWeights      `json:"health_weights"`
}

// Store persists snapshots by name
type Store interface {
	Save(ctx context.Context, name string, s *Snapshot) error
	Load(ctx context.Context, name string) (*Snapshot, error)
	List(ctx context.Context) ([]string, error)
}

// ValidateName rejects names that cannot be used as a file name, redis key suffix or object key
func ValidateName(name string) hedgeErrors.HedgeError {
	if !validName.MatchString(name) {
		return hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeBadRequest, fmt.Sprintf("invalid snapshot name %q", name))
	}
	return nil
}

func Encode(s *Snapshot) ([]byte, hedgeErrors.HedgeError) {
	if s == nil {
		return nil, hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeSerialization, "nil snapshot")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeSerialization, fmt.Sprintf("failed to encode snapshot: %v", err))
	}
	return data, nil
}

// Decode parses and checks a snapshot. A trained snapshot must carry consistent statistics and features.
func Decode(data []byte) (*Snapshot, hedgeErrors.HedgeError) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeSerialization, fmt.Sprintf("failed to decode snapshot: %v", err))
	}
	if err := s.Check(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Check verifies the internal consistency of a snapshot before it is applied
func (s *Snapshot) Check() hedgeErrors.HedgeError {
	if s.Version != FormatVersion {
		return serializationError("unsupported snapshot version %d", s.Version)
	}
	if !s.Trained {
		return nil
	}
	if s.Stats == nil {
		return serializationError("trained snapshot has no training statistics")
	}
	if len(s.Features) < anomaly.MinTrainingSamples {
		return serializationError("trained snapshot has %d feature vectors, need at least %d", len(s.Features), anomaly.MinTrainingSamples)
	}
	dims := len(s.Features[0])
	for i, row := range s.Features {
		if len(row) != dims {
			return serializationError("feature vector %d has %d values, expected %d", i, len(row), dims)
		}
	}
	if len(s.Stats.Means) != dims || len(s.Stats.Stds) != dims {
		return serializationError("training statistics cover %d features, vectors have %d", len(s.Stats.Means), dims)
	}
	if s.Scaler != nil && s.Scaler.Dims() != dims {
		return serializationError("scaler covers %d features, vectors have %d", s.Scaler.Dims(), dims)
	}
	return nil
}

func serializationError(format string, args ...interface{}) hedgeErrors.HedgeError {
	return hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeSerialization, fmt.Sprintf(format, args...))
}

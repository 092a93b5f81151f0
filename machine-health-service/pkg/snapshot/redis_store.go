/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.
 
* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package snapshot

import (
	"context"

	"github.com/edgexfoundry/go-mod-core-contracts/v3/clients/logger"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"machinehealth/common/db"
	"machinehealth/common/db/redis"
)

// RedisStore keeps snapshots as redis blobs. Writers serialize on a redsync lock so concurrent
// service instances never interleave a save.
type RedisStore struct {
	client redis.MachineHealthDBInterface
	lc     logger.LoggingClient
}

func NewRedisStore(client redis.MachineHealthDBInterface, lc logger.LoggingClient) *RedisStore {
	return &RedisStore{client: client, lc: lc}
}

func (r *RedisStore) Save(ctx context.Context, name string, s *Snapshot) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, herr := Encode(s)
	if herr != nil {
		return herr
	}
	mutex, herr := r.client.AcquireRedisLock(db.SnapshotLock + ":" + name)
	if herr != nil {
		return herr
	}
	defer func() {
		if mutex == nil {
			return
		}
		if _, err := mutex.Unlock(); err != nil {
			r.lc.Warnf("failed to release snapshot lock for %s: %v", name, err)
		}
	}()
	if herr := r.client.SaveSnapshotBlob(name, data); herr != nil {
		return errors.Wrapf(herr, "saving snapshot %s", name)
	}
	r.lc.Debugf("saved snapshot %s to redis, %d bytes", name, len(data))
	return nil
}

func (r *RedisStore) Load(ctx context.Context, name string) (*Snapshot, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, herr := r.client.GetSnapshotBlob(name)
	if herr != nil {
		return nil, errors.Wrapf(herr, "loading snapshot %s", name)
	}
	s, herr := Decode(data)
	if herr != nil {
		return nil, herr
	}
	return s, nil
}

func (r *RedisStore) List(ctx context.Context) ([]string, error) {
	names, herr := r.client.ListSnapshotNames()
	if herr != nil {
		return nil, herr
	}
	names = slices.Clone(names)
	slices.Sort(names)
	return names, nil
}

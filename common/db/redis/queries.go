/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.
 
* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package redis

import (
	"errors"

	"github.com/gomodule/redigo/redis"

	"machinehealth/common/db"
	hedgeErrors "machinehealth/common/errors"
)

// SaveSnapshotBlob stores the blob and indexes its name in one transaction
func (c *DBClient) SaveSnapshotBlob(name string, data []byte) hedgeErrors.HedgeError {
	if name == "" {
		return hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeMandatory, db.ErrNameEmpty.Error())
	}
	conn := c.Pool.Get()
	defer conn.Close()

	_ = conn.Send("MULTI")
	_ = conn.Send("SET", db.SnapshotKey(name), data)
	_ = conn.Send("SADD", db.SnapshotIndex, name)
	if _, err := conn.Do("EXEC"); err != nil {
		c.Logger.Errorf("Error saving snapshot %s: %v", name, err)
		return hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeDBError, "Error saving snapshot")
	}
	return nil
}

func (c *DBClient) GetSnapshotBlob(name string) ([]byte, hedgeErrors.HedgeError) {
	conn := c.Pool.Get()
	defer conn.Close()

	data, err := redis.Bytes(conn.Do("GET", db.SnapshotKey(name)))
	if errors.Is(err, redis.ErrNil) {
		return nil, hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeNotFound, "snapshot "+name+" not found")
	}
	if err != nil {
		c.Logger.Errorf("Error reading snapshot %s: %v", name, err)
		return nil, hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeDBError, "Error reading snapshot")
	}
	return data, nil
}

func (c *DBClient) ListSnapshotNames() ([]string, hedgeErrors.HedgeError) {
	conn := c.Pool.Get()
	defer conn.Close()

	names, err := redis.Strings(conn.Do("SMEMBERS", db.SnapshotIndex))
	if err != nil {
		c.Logger.Errorf("Error listing snapshots: %v", err)
		return nil, hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeDBError, "Error listing snapshots")
	}
	return names, nil
}

/*******************************************************************************
 * Copyright 2018 Redis Labs Inc.
 * (c) Copyright 2020-2025 BMC Software, Inc.
 *
 * Contributors: BMC Software, Inc. - BMC Helix Edge
 *
 * Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License. You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software distributed under the License
 * is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express
 * or implied. See the License for the specific language governing permissions and limitations under
 * the License.
 *******************************************************************************/
package redis

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/edgexfoundry/go-mod-bootstrap/v3/bootstrap/startup"
	"github.com/edgexfoundry/go-mod-core-contracts/v3/clients/logger"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/redigo"
	"github.com/gomodule/redigo/redis"

	"machinehealth/common/db"
	hedgeErrors "machinehealth/common/errors"
)

const (
	lockExpiry   = 5 * time.Second
	lockAttempts = 5
)

// DBClient represents a Redis client
type DBClient struct {
	Pool      *redis.Pool // A thread-safe pool of connections to Redis
	Logger    logger.LoggingClient
	RedisSync *redsync.Redsync
}

// MachineHealthDBInterface is what the machine health service needs from redis
type MachineHealthDBInterface interface {
	SaveSnapshotBlob(name string, data []byte) hedgeErrors.HedgeError
	GetSnapshotBlob(name string) ([]byte, hedgeErrors.HedgeError)
	ListSnapshotNames() ([]string, hedgeErrors.HedgeError)
	IncrMetricCounterBy(key string, value int64) (int64, hedgeErrors.HedgeError)
	GetMetricCounter(key string) (int64, hedgeErrors.HedgeError)
	AcquireRedisLock(lockName string) (*redsync.Mutex, hedgeErrors.HedgeError)
}

func (c *DBClient) IncrMetricCounterBy(key string, value int64) (int64, hedgeErrors.HedgeError) {
	conn := c.Pool.Get()
	defer conn.Close()

	val, err := redis.Int64(conn.Do("INCRBY", db.MetricCounter+":"+key, value))
	if err != nil {
		c.Logger.Errorf("Error incrementing metric counter %s by %d: %v", key, value, err)
		return 0, hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeDBError, "Error incrementing metric counter")
	}
	return val, nil
}

func (c *DBClient) GetMetricCounter(key string) (int64, hedgeErrors.HedgeError) {
	conn := c.Pool.Get()
	defer conn.Close()

	val, err := redis.Int64(conn.Do("GET", db.MetricCounter+":"+key))
	if errors.Is(err, redis.ErrNil) {
		return 0, nil
	}
	if err != nil {
		c.Logger.Errorf("Error getting metric counter %s: %v", key, err)
		return 0, hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeDBError, "Error getting metric counter")
	}
	return val, nil
}

func (c *DBClient) AcquireRedisLock(lockName string) (*redsync.Mutex, hedgeErrors.HedgeError) {
	mutex := c.RedisSync.NewMutex(lockName, redsync.WithExpiry(lockExpiry))

	for attempt := 1; attempt <= lockAttempts; attempt++ {
		err := mutex.Lock()
		if err == nil {
			return mutex, nil
		}
		if attempt == lockAttempts {
			c.Logger.Errorf("Failed to acquire lock %s in Redis after %d attempts: %v", lockName, lockAttempts, err)
			break
		}
		time.Sleep(time.Second)
	}
	return nil, hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeServerError, "Failed to acquire lock in Redis after multiple attempts")
}

// CreateDBClient keeps dialing redis until the startup timer elapses and exits when it never comes up
func CreateDBClient(dbConfig *db.DatabaseConfig, lc logger.LoggingClient) *DBClient {
	var dbClient *DBClient
	var err error
	startupTimer := startup.NewStartUpTimer("redis-db")
	for startupTimer.HasNotElapsed() {
		dbClient, err = newDBClient(dbConfig, lc)
		if err == nil {
			break
		}
		dbClient = nil
		lc.Warnf("Couldn't create database client: %v", err)
		startupTimer.SleepForInterval()
	}
	if dbClient == nil {
		lc.Error("Failed to create database client in allotted time")
		os.Exit(1)
	}
	return dbClient
}

func newDBClient(dbConfig *db.DatabaseConfig, lc logger.LoggingClient) (*DBClient, error) {
	connectionString := fmt.Sprintf("%s:%s", dbConfig.RedisHost, dbConfig.RedisPort)
	opts := []redis.DialOption{
		redis.DialConnectTimeout(9 * time.Second),
	}
	if os.Getenv("EDGEX_SECURITY_SECRET_STORE") != "false" {
		opts = append(opts, redis.DialPassword(dbConfig.RedisPassword))
	}

	pool := &redis.Pool{
		MaxIdle: 10,
		Dial: func() (redis.Conn, error) {
			conn, err := redis.Dial("tcp", connectionString, opts...)
			if err != nil {
				return nil, fmt.Errorf("could not dial Redis: %s", err)
			}
			return conn, nil
		},
	}

	// Test connectivity now so don't have failures later when doing lazy connect.
	conn, err := pool.Dial()
	if err != nil {
		return nil, err
	}
	_ = conn.Close()

	return &DBClient{
		Pool:      pool,
		Logger:    lc,
		RedisSync: redsync.New(redigo.NewPool(pool)),
	}, nil
}

// CloseSession closes the connections to Redis
func (c *DBClient) CloseSession() {
	_ = c.Pool.Close()
}

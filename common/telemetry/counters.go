/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.

* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package telemetry

import (
	"fmt"
	"sync"

	"github.com/edgexfoundry/go-mod-bootstrap/v3/bootstrap/interfaces"
	"github.com/edgexfoundry/go-mod-core-contracts/v3/clients/logger"
	"github.com/hashicorp/go-multierror"
	gometrics "github.com/rcrowley/go-metrics"
	"machinehealth/common/db/redis"
)

// Counters holds the service counters. The in-process values are reported by the metrics manager,
// Persist adds what accumulated since the previous call to the cumulative totals kept in Redis.
type Counters struct {
	lc       logger.LoggingClient
	store    redis.MachineHealthDBInterface
	counters map[string]gometrics.Counter

	mu        sync.Mutex
	persisted map[string]int64
}

// NewCounters registers CounterNames with mgr. mgr and store may be nil.
func NewCounters(mgr interfaces.MetricsManager, store redis.MachineHealthDBInterface, lc logger.LoggingClient) *Counters {
	c := &Counters{
		lc:        lc,
		store:     store,
		counters:  make(map[string]gometrics.Counter, len(CounterNames)),
		persisted: make(map[string]int64, len(CounterNames)),
	}
	for _, name := range CounterNames {
		counter := gometrics.NewCounter()
		c.counters[name] = counter
		if mgr == nil {
			continue
		}
		if err := mgr.Register(name, counter, nil); err != nil {
			lc.Errorf("unable to register metric %s, it will not be reported: %s", name, err.Error())
		}
	}
	return c
}

func (c *Counters) Inc(name string) {
	if c == nil {
		return
	}
	if counter, ok := c.counters[name]; ok {
		counter.Inc(1)
	}
}

func (c *Counters) Count(name string) int64 {
	if c == nil {
		return 0
	}
	if counter, ok := c.counters[name]; ok {
		return counter.Count()
	}
	return 0
}

// Persist pushes the increments since the last successful call to Redis
func (c *Counters) Persist() error {
	if c.store == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs error
	for _, name := range CounterNames {
		current := c.counters[name].Count()
		delta := current - c.persisted[name]
		if delta <= 0 {
			continue
		}
		if _, err := c.store.IncrMetricCounterBy(name, delta); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("persisting %s: %w", name, err))
			continue
		}
		c.persisted[name] = current
	}
	return errs
}

// Totals returns the cumulative counters stored in Redis
func (c *Counters) Totals() (map[string]int64, error) {
	totals := make(map[string]int64, len(CounterNames))
	if c.store == nil {
		for _, name := range CounterNames {
			totals[name] = c.Count(name)
		}
		return totals, nil
	}
	var errs error
	for _, name := range CounterNames {
		v, err := c.store.GetMetricCounter(name)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("reading %s: %w", name, err))
			continue
		}
		totals[name] = v
	}
	return totals, errs
}

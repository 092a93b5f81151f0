/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.
 
* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package db

import (
	"errors"
	"time"
)

const (
	// Machine health storage keys, hx short for Helix-edge eXtension
	MachineHealth = "hx:mh"

	Snapshot      = MachineHealth + ":snapshot"
	SnapshotIndex = Snapshot + ":names"
	SnapshotLock  = Snapshot + ":lock"

	// Metric counters survive service restarts under this prefix
	MetricCounter = MachineHealth + ":mc"
)

var (
	ErrNotFound  = errors.New("item not found")
	ErrNameEmpty = errors.New("name is required")
	ErrInternal  = errors.New("internal error")
)

func MakeTimestamp() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}

// SnapshotKey is the key under which a named snapshot blob is stored
func SnapshotKey(name string) string {
	return Snapshot + ":" + name
}

/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.
 
* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/exp/slices"

	hedgeErrors "machinehealth/common/errors"
)

const fileExtension = ".json"

// FileStore keeps one JSON file per snapshot in Dir
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (f *FileStore) path(name string) string {
	return filepath.Join(f.Dir, name+fileExtension)
}

// Save writes to a temporary file and renames it so a crash never leaves a torn snapshot behind
func (f *FileStore) Save(ctx context.Context, name string, s *Snapshot) error {
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
	if err := os.MkdirAll(f.Dir, 0o750); err != nil {
		return hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeServerError, fmt.Sprintf("failed to create snapshot directory: %v", err))
	}
	tmp, err := os.CreateTemp(f.Dir, name+".*.tmp")
	if err != nil {
		return hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeServerError, fmt.Sprintf("failed to create snapshot file: %v", err))
	}
	defer os.Remove(tmp.Name())
	if _, err = tmp.Write(data); err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), f.path(name))
	}
	if err != nil {
		return hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeServerError, fmt.Sprintf("failed to write snapshot %s: %v", name, err))
	}
	return nil
}

func (f *FileStore) Load(ctx context.Context, name string) (*Snapshot, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeNotFound, fmt.Sprintf("snapshot %s not found", name))
	}
	if err != nil {
		return nil, hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeServerError, fmt.Sprintf("failed to read snapshot %s: %v", name, err))
	}
	s, herr := Decode(data)
	if herr != nil {
		return nil, herr
	}
	return s, nil
}

func (f *FileStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeServerError, fmt.Sprintf("failed to list snapshots: %v", err))
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExtension) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), fileExtension))
	}
	slices.Sort(names)
	return names, nil
}

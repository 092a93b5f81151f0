/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.
 
* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	hedgeErrors "machinehealth/common/errors"
)

const (
	objectPrefix      = "snapshots/"
	objectContentType = "application/json"
)

// ObjectStorage is the subset of an S3 bucket the snapshot store works with
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// S3Storage is an ObjectStorage backed by one bucket of an S3 compatible server
type S3Storage struct {
	Endpoint string
	Bucket   string
	Client   *minio.Client
}

func NewS3Storage(endpoint, accessKeyID, secretKey, bucket string, useSSL bool) (*S3Storage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	return &S3Storage{Endpoint: endpoint, Bucket: bucket, Client: client}, nil
}

// EnsureBucket creates the bucket when it does not exist yet
func (s *S3Storage) EnsureBucket(ctx context.Context) error {
	exists, err := s.Client.BucketExists(ctx, s.Bucket)
	if err != nil {
		return fmt.Errorf("s3 bucket exists: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.Client.MakeBucket(ctx, s.Bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("s3 make bucket: %w", err)
	}
	return nil
}

func (s *S3Storage) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.Client.PutObject(ctx, s.Bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: objectContentType})
	if err != nil {
		return fmt.Errorf("s3 put object: %w", err)
	}
	return nil
}

func (s *S3Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if _, err := s.Client.StatObject(ctx, s.Bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, hedgeErrors.NewCommonHedgeError(hedgeErrors.ErrorTypeNotFound, fmt.Sprintf("object %s not found", key))
		}
		return nil, fmt.Errorf("s3 stat object: %w", err)
	}
	obj, err := s.Client.GetObject(ctx, s.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("s3 get object: %w", err)
	}
	return obj, nil
}

func (s *S3Storage) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)
	for obj := range s.Client.ListObjects(ctx, s.Bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("s3 list objects: %w", obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// MinioStore keeps snapshots as JSON objects under the snapshots/ prefix
type MinioStore struct {
	storage ObjectStorage
}

func NewMinioStore(storage ObjectStorage) *MinioStore {
	return &MinioStore{storage: storage}
}

func objectKey(name string) string {
	return objectPrefix + name + fileExtension
}

func (m *MinioStore) Save(ctx context.Context, name string, s *Snapshot) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	data, herr := Encode(s)
	if herr != nil {
		return herr
	}
	return errors.Wrapf(m.storage.Put(ctx, objectKey(name), data), "saving snapshot %s", name)
}

func (m *MinioStore) Load(ctx context.Context, name string) (*Snapshot, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	rc, err := m.storage.Get(ctx, objectKey(name))
	if err != nil {
		return nil, errors.Wrapf(err, "loading snapshot %s", name)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "reading snapshot %s", name)
	}
	s, herr := Decode(data)
	if herr != nil {
		return nil, herr
	}
	return s, nil
}

func (m *MinioStore) List(ctx context.Context) ([]string, error) {
	keys, err := m.storage.Keys(ctx, objectPrefix)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		if !strings.HasSuffix(k, fileExtension) {
			continue
		}
		names = append(names, strings.TrimSuffix(strings.TrimPrefix(k, objectPrefix), fileExtension))
	}
	slices.Sort(names)
	return names, nil
}

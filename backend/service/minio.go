package service

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/SergeyShakirov/TaskGo/backend/config"
	"github.com/SergeyShakirov/TaskGo/backend/model"
	"github.com/SergeyShakirov/TaskGo/backend/pkg/logger"
)

const minioPrefix = "exports"

// MinioArtifactStore keeps artifacts as objects under exports/<fileName>.
type MinioArtifactStore struct {
	client *minio.Client
	bucket string
	now    func() time.Time
}

func NewMinioArtifactStore(cfg *config.MinioConfig) (*MinioArtifactStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioArtifactStore{
		client: client,
		bucket: cfg.Bucket,
		now:    time.Now,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *MinioArtifactStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

func objectKey(fileName string) string {
	return path.Join(minioPrefix, fileName)
}

// Save skips names that already exist in the bucket. The check is not atomic;
// two exports racing on the same millisecond can still overwrite each other.
func (s *MinioArtifactStore) Save(ctx context.Context, taskID string, data []byte, ext string) (model.ExportArtifact, error) {
	ms := s.now().UnixMilli()
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := ArtifactName(taskID, ms+int64(attempt), ext)
		key := objectKey(name)

		_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
		if err == nil {
			continue
		}
		if !isNoSuchKey(err) {
			return model.ExportArtifact{}, &StorageError{Op: "stat", Path: key, Err: err}
		}

		_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType: contentTypeForName(name),
		})
		if err != nil {
			return model.ExportArtifact{}, &StorageError{Op: "upload", Path: key, Err: err}
		}

		logger.Info(ctx, "Artifact uploaded", "bucket", s.bucket, "key", key, "size", humanize.Bytes(uint64(len(data))))
		return newArtifact(name), nil
	}
	return model.ExportArtifact{}, &StorageError{Op: "upload", Path: s.bucket, Err: fmt.Errorf("no free name for task %q", taskID)}
}

func (s *MinioArtifactStore) Open(ctx context.Context, fileName string) (*Artifact, error) {
	if !ValidArtifactName(fileName) {
		return nil, ErrArtifactNotFound
	}
	key := objectKey(fileName)

	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if isNoSuchKey(err) {
		return nil, ErrArtifactNotFound
	}
	if err != nil {
		return nil, &StorageError{Op: "stat", Path: key, Err: err}
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, &StorageError{Op: "download", Path: key, Err: err}
	}
	return &Artifact{Name: fileName, Size: info.Size, ModTime: info.LastModified, Body: obj}, nil
}

func isNoSuchKey(err error) bool {
	if err == nil {
		return false
	}
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}

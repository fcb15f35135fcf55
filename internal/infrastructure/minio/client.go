package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/jvasquez2828/robot-runt-web/internal/domain"
	"github.com/jvasquez2828/robot-runt-web/pkg/logger"
)

// ArtifactStore keeps report artifacts in a MinIO bucket. Used instead of the
// local store when the service runs with ephemeral disks.
type ArtifactStore struct {
	client *minio.Client
	bucket string
	logger logger.Logger
}

func NewArtifactStore(endpoint, bucket, accessKey, secretKey string, useSSL bool, log logger.Logger) (*ArtifactStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client failed: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket exists failed: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket failed: %w", err)
		}
	}

	log.Infof(ctx, "[MinIO] connected, bucket: %s", bucket)
	return &ArtifactStore{client: client, bucket: bucket, logger: log}, nil
}

func (s *ArtifactStore) Put(ctx context.Context, name string, data []byte, contentType string) error {
	info, err := s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put artifact failed: %w", err)
	}
	s.logger.Infof(ctx, "[MinIO] uploaded %s (%d bytes)", name, info.Size)
	return nil
}

func (s *ArtifactStore) Get(ctx context.Context, name string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get artifact failed: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read artifact failed: %w", err)
	}
	return data, nil
}

var _ domain.ArtifactStore = (*ArtifactStore)(nil)

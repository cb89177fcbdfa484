package receipts

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore stores receipt images in an S3-compatible object store.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// MinioConfig holds the connection settings for a MinioStore.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewMinioStore connects to the object store and ensures the bucket exists.
func NewMinioStore(ctx context.Context, config MinioConfig) (*MinioStore, error) {
	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to object store: %w", err)
	}

	exists, err := client.BucketExists(ctx, config.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		err = client.MakeBucket(ctx, config.Bucket, minio.MakeBucketOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &MinioStore{client: client, bucket: config.Bucket}, nil
}

func (s *MinioStore) StoreReceipt(ctx context.Context, userKey, recordKey string, image []byte) (string, error) {
	name := fmt.Sprintf("%s/%s", userKey, recordKey)

	_, err := s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(image), int64(len(image)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return "", fmt.Errorf("failed to store receipt: %w", err)
	}

	return Scheme + name, nil
}

func (s *MinioStore) DeleteReceipt(ctx context.Context, reference string) error {
	name, err := objectName(reference)
	if err != nil {
		return err
	}

	err = s.client.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete receipt: %w", err)
	}

	return nil
}

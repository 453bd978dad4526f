// Package minio は MinIO / S3 互換ストレージに請求の添付ファイルを保存します。
package minio

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/ogurasousui/contract-claims/internal/platform/config"
)

const defaultRegion = "us-east-1"

// Store は claim.DocumentStore の MinIO 実装です。
type Store struct {
	client *minio.Client
	bucket string
}

// New は設定から Store を生成します。接続確認は EnsureBucket で行います。
func New(cfg config.StorageConfig) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: defaultRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: create client: %w", err)
	}

	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket はバケットが存在しなければ作成します。
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("minio: check bucket: %w", err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: defaultRegion}); err != nil {
		return fmt.Errorf("minio: create bucket: %w", err)
	}
	return nil
}

// Put はファイルを保存し、請求に記録する "<bucket>/<key>" 形式のパスを返します。
func (s *Store) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("minio: put %s: %w", key, err)
	}
	return path.Join(s.bucket, key), nil
}

// Remove はファイルを削除します。
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("minio: remove %s: %w", key, err)
	}
	return nil
}

// Keys は添付ファイルのオブジェクトキーを発行します。
type Keys struct {
	newID func() string
}

// NewKeys は UUID ベースの Keys を生成します。
func NewKeys() Keys {
	return Keys{newID: uuid.NewString}
}

// DocumentKey は "claims/<claim id>/<uuid><ext>" 形式のキーを返します。
// 元のファイル名はキーに含めません。
func (k Keys) DocumentKey(claimID int64, ext string) string {
	newID := k.newID
	if newID == nil {
		newID = uuid.NewString
	}
	return fmt.Sprintf("claims/%d/%s%s", claimID, newID(), strings.ToLower(ext))
}

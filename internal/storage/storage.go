package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"trustline-backend/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Storage produces presigned URLs for direct client upload and download of
// escrow documents. The server never proxies file bytes.
type Storage interface {
	PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error)
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// New returns a minio-backed store when an endpoint is configured, and an
// in-process store otherwise (local development and tests).
func New(cfg *config.Config) (Storage, error) {
	if cfg.StorageEndpoint == "" {
		return NewMemory(), nil
	}
	client, err := minio.New(cfg.StorageEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.StorageAccessKey, cfg.StorageSecretKey, ""),
		Secure: cfg.StorageUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	return &MinioStorage{Client: client, Bucket: cfg.StorageBucket}, nil
}

// MinioStorage signs URLs against an S3-compatible object store.
type MinioStorage struct {
	Client *minio.Client
	Bucket string
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *MinioStorage) EnsureBucket(ctx context.Context) error {
	exists, err := s.Client.BucketExists(ctx, s.Bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.Client.MakeBucket(ctx, s.Bucket, minio.MakeBucketOptions{})
}

func (s *MinioStorage) PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := s.Client.PresignedPutObject(ctx, s.Bucket, key, expiry)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (s *MinioStorage) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := s.Client.PresignedGetObject(ctx, s.Bucket, key, expiry, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// MemoryStorage fabricates deterministic URLs without a backing store. Keys
// are remembered so tests can assert on what was signed.
type MemoryStorage struct {
	mu   sync.Mutex
	keys map[string]time.Time
}

func NewMemory() *MemoryStorage {
	return &MemoryStorage{keys: make(map[string]time.Time)}
}

func (s *MemoryStorage) PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error) {
	s.mu.Lock()
	s.keys[key] = time.Now().Add(expiry)
	s.mu.Unlock()
	return "https://storage.local/upload/" + key, nil
}

func (s *MemoryStorage) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "https://storage.local/get/" + key, nil
}

// Signed reports whether a put URL was issued for key.
func (s *MemoryStorage) Signed(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[key]
	return ok
}

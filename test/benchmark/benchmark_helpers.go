package benchmark

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"

	"github.com/colonnade/colonnade/internal/storage"
)

// PrefixedStorage wraps an ObjectStorage and prepends a prefix to all object paths.
type PrefixedStorage struct {
	inner  storage.ObjectStorage
	prefix string
}

func (s *PrefixedStorage) Put(ctx context.Context, objectPath string, data []byte) error {
	return s.inner.Put(ctx, s.prefix+"/"+objectPath, data)
}

func (s *PrefixedStorage) Get(ctx context.Context, objectPath string) ([]byte, error) {
	return s.inner.Get(ctx, s.prefix+"/"+objectPath)
}

func (s *PrefixedStorage) Delete(ctx context.Context, objectPath string) error {
	return s.inner.Delete(ctx, s.prefix+"/"+objectPath)
}

func (s *PrefixedStorage) Exists(ctx context.Context, objectPath string) (bool, error) {
	return s.inner.Exists(ctx, s.prefix+"/"+objectPath)
}

func (s *PrefixedStorage) List(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := s.prefix + "/" + prefix
	objects, err := s.inner.List(ctx, fullPrefix)
	if err != nil {
		return nil, err
	}

	stripped := make([]string, len(objects))
	for i, obj := range objects {
		if len(obj) > len(s.prefix)+1 {
			stripped[i] = obj[len(s.prefix)+1:]
		} else {
			stripped[i] = obj
		}
	}
	return stripped, nil
}

// getBenchmarkStorage returns a storage interface for benchmarks.
// It respects COLONNADE_STORAGE_TYPE=s3 from .env or environment.
// For S3: objects land under "bench/<benchName>/<timestamp>".
// For Local: a temp directory is used and removed afterwards.
func getBenchmarkStorage(b *testing.B, benchName string) (storage.ObjectStorage, func()) {
	_ = godotenv.Load("../../.env")

	storageType := os.Getenv("COLONNADE_STORAGE_TYPE")

	if storageType == "s3" {
		if v := os.Getenv("COLONNADE_AWS_ACCESS_KEY_ID"); v != "" {
			os.Setenv("AWS_ACCESS_KEY_ID", v)
		}
		if v := os.Getenv("COLONNADE_AWS_SECRET_ACCESS_KEY"); v != "" {
			os.Setenv("AWS_SECRET_ACCESS_KEY", v)
		}

		bucket := os.Getenv("COLONNADE_S3_BUCKET")
		if bucket == "" {
			b.Fatal("COLONNADE_S3_BUCKET is required for s3 benchmark")
		}

		cfg := storage.DefaultS3Config()
		cfg.Region = os.Getenv("COLONNADE_S3_REGION")
		cfg.Endpoint = os.Getenv("COLONNADE_S3_ENDPOINT")

		st, err := storage.NewS3Storage(context.Background(), bucket, cfg)
		if err != nil {
			b.Fatalf("Failed to initialize S3 storage: %v", err)
		}

		prefix := fmt.Sprintf("bench/%s/%d", benchName, time.Now().UnixNano())
		b.Logf("Running benchmark against S3 Bucket: %s Prefix: %s", bucket, prefix)

		return &PrefixedStorage{inner: st, prefix: prefix}, func() {}
	}

	dir, err := os.MkdirTemp("", "colonnade-bench-"+benchName+"-*")
	if err != nil {
		b.Fatal(err)
	}
	st, err := storage.NewLocalStorage(dir)
	if err != nil {
		b.Fatal(err)
	}
	return st, func() { os.RemoveAll(dir) }
}

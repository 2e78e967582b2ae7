package objstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// localStore keeps objects under dir/bucket/key on the local filesystem. It
// exists for development and for running the pgvector index backend without
// any cloud credentials; URIs are file:// paths the pgvector backend can read.
type localConfig struct {
	Dir string `json:"dir"`
}

type localStore struct {
	dir string
}

func init() {
	Register("local", createLocalStore)
}

func createLocalStore(args interface{}) (Store, error) {
	cfg := &localConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("local store dir is required")
	}
	return &localStore{dir: cfg.Dir}, nil
}

func (s *localStore) bucketPath(bucket string) string {
	return filepath.Join(s.dir, bucket)
}

func (s *localStore) objectPath(bucket, key string) string {
	return filepath.Join(s.bucketPath(bucket), filepath.FromSlash(strings.TrimPrefix(key, "/")))
}

func (s *localStore) BucketExists(ctx context.Context, bucket string) (bool, error) {
	_ = ctx
	info, err := os.Stat(s.bucketPath(bucket))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

func (s *localStore) CreateBucket(ctx context.Context, bucket string, location string) error {
	_ = ctx
	_ = location
	return os.MkdirAll(s.bucketPath(bucket), 0o755)
}

func (s *localStore) ObjectExists(ctx context.Context, bucket string, key string) (bool, error) {
	_ = ctx
	info, err := os.Stat(s.objectPath(bucket, key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

func (s *localStore) Upload(ctx context.Context, bucket string, key string, localFile string) error {
	_ = ctx
	src, err := os.Open(localFile)
	if err != nil {
		return fmt.Errorf("open %s: %w", localFile, err)
	}
	defer src.Close()
	dest := s.objectPath(bucket, key)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("copy to %s: %w", dest, err)
	}
	return out.Sync()
}

func (s *localStore) URI(bucket string, key string) string {
	return "file://" + s.objectPath(bucket, key)
}

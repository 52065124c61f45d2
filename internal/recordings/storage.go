package recordings

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// BlobStore reads and writes recording media.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// S3API is the subset of the S3 client used by ObjectStore.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// ObjectStore holds recording media in S3.
type ObjectStore struct {
	bucket   string
	s3Client S3API
}

func NewObjectStore(s3Client S3API, bucket string) *ObjectStore {
	if s3Client == nil {
		panic("recordings: S3 client cannot be nil")
	}
	if bucket == "" {
		panic("recordings: S3 bucket cannot be empty")
	}
	return &ObjectStore{bucket: bucket, s3Client: s3Client}
}

// Put uploads a media object under key.
func (s *ObjectStore) Put(ctx context.Context, key, contentType string, body io.Reader) error {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("recordings: s3 put %s: %w", key, err)
	}
	return nil
}

// Get streams a media object. The caller closes the reader.
func (s *ObjectStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("recordings: s3 get %s: %w", key, err)
	}
	return out.Body, nil
}

// DiskStore holds recording media on the local filesystem. It backs local
// development, where no S3 bucket is configured.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) *DiskStore {
	if dir == "" {
		panic("recordings: media directory cannot be empty")
	}
	return &DiskStore{dir: dir}
}

// Put writes a media object under key, creating parent directories as needed.
func (s *DiskStore) Put(_ context.Context, key, _ string, body io.Reader) error {
	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("recordings: disk put %s: %w", key, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("recordings: disk put %s: %w", key, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return fmt.Errorf("recordings: disk put %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("recordings: disk put %s: %w", key, err)
	}
	return nil
}

// Get opens a media object. The caller closes the reader.
func (s *DiskStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.dir, filepath.FromSlash(key)))
	if err != nil {
		return nil, fmt.Errorf("recordings: disk get %s: %w", key, err)
	}
	return f, nil
}

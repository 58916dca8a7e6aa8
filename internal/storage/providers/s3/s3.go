// Package s3 stores books in an S3-compatible bucket (AWS, MinIO).
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/mrlokans/readsync/internal/storage"
)

// API is the subset of *s3.Client the store needs.
type API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Config holds connection settings for NewClient.
type Config struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

var loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

// NewClient builds an S3 client with static credentials. A non-empty
// Endpoint switches to path-style addressing for MinIO and similar servers.
func NewClient(ctx context.Context, cfg Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Store implements storage.Backend on a bucket. Locations have the form
// s3://<bucket>/<prefix>/<key>.
type Store struct {
	api    API
	bucket string
	prefix string
}

func New(api API, bucket, prefix string) *Store {
	return &Store{api: api, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *Store) Name() string { return "s3" }

func (s *Store) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

func (s *Store) location(objectKey string) string {
	return "s3://" + s.bucket + "/" + objectKey
}

func (s *Store) keyFromLocation(location string) (string, error) {
	p := "s3://" + s.bucket + "/"
	if !strings.HasPrefix(location, p) || len(location) == len(p) {
		return "", fmt.Errorf("location %q is not in bucket %s", location, s.bucket)
	}
	return strings.TrimPrefix(location, p), nil
}

// Place uploads the scratch file and removes it once the upload succeeds.
func (s *Store) Place(ctx context.Context, scratchPath, key string) (string, error) {
	if err := storage.ValidateKey(key); err != nil {
		return "", err
	}

	f, err := os.Open(scratchPath)
	if err != nil {
		return "", fmt.Errorf("open scratch file: %w", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return "", fmt.Errorf("stat scratch file: %w", err)
	}

	objectKey := s.objectKey(key)
	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(objectKey),
		Body:          f,
		ContentLength: aws.Int64(fi.Size()),
	})
	f.Close()
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", objectKey, err)
	}

	if err := os.Remove(scratchPath); err != nil {
		return "", fmt.Errorf("remove scratch file: %w", err)
	}
	return s.location(objectKey), nil
}

func (s *Store) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	objectKey, err := s.keyFromLocation(location)
	if err != nil {
		return nil, err
	}
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return nil, translate(err, location)
	}
	return out.Body, nil
}

func (s *Store) Stat(ctx context.Context, location string) (*storage.ObjectInfo, error) {
	objectKey, err := s.keyFromLocation(location)
	if err != nil {
		return nil, err
	}
	out, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return nil, translate(err, location)
	}
	return &storage.ObjectInfo{Location: location, Size: aws.ToInt64(out.ContentLength)}, nil
}

func translate(err error, location string) error {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noKey) || errors.As(err, &notFound) {
		return fmt.Errorf("%w: %s", storage.ErrNotExist, location)
	}
	return err
}

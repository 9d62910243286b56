package state

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/imamik/fleetstack/internal/config"
	"github.com/imamik/fleetstack/internal/util/naming"
)

// S3API is the part of the S3 client the store uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store keeps journals as objects in a bucket. The lease is an object
// written with If-None-Match: *, so only one writer can create it.
type S3Store struct {
	client S3API
	bucket string
	prefix string
}

var _ Store = (*S3Store)(nil)

// NewS3Store creates a store from configuration. Without an access key the
// default AWS credential chain is used.
func NewS3Store(ctx context.Context, cfg config.S3StateConfig) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, config.Errorf("state.s3.bucket", "bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewS3StoreWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

// NewS3StoreWithClient creates a store over an existing client.
func NewS3StoreWithClient(client S3API, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3Store) objectKey(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Lock implements Store.
func (s *S3Store) Lock(ctx context.Context, topology, owner string) (Lease, error) {
	key := s.objectKey(naming.LockObject(topology))
	data, err := LockInfo{Topology: topology, Owner: owner, AcquiredAt: time.Now().UTC()}.encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode lock: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		IfNoneMatch:   aws.String("*"),
	})
	if err != nil {
		if isPreconditionFailed(err) {
			holder, _ := s.get(ctx, key)
			return nil, lockedError(topology, decodeLockInfo(holder))
		}
		return nil, fmt.Errorf("failed to put lock %s in bucket %s: %w", key, s.bucket, err)
	}
	return &s3Lease{store: s, key: key}, nil
}

// Unlock implements Store.
func (s *S3Store) Unlock(ctx context.Context, topology string) (LockInfo, bool, error) {
	key := s.objectKey(naming.LockObject(topology))
	data, err := s.get(ctx, key)
	if err != nil {
		if isNoSuchKey(err) {
			return LockInfo{}, false, nil
		}
		return LockInfo{}, false, fmt.Errorf("failed to get lock %s from bucket %s: %w", key, s.bucket, err)
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return LockInfo{}, false, fmt.Errorf("failed to delete lock %s from bucket %s: %w", key, s.bucket, err)
	}
	return decodeLockInfo(data), true, nil
}

// Load implements Store.
func (s *S3Store) Load(ctx context.Context, topology string) (*Snapshot, error) {
	key := s.objectKey(naming.StateObject(topology))
	data, err := s.get(ctx, key)
	if err != nil {
		if isNoSuchKey(err) {
			return NewSnapshot(topology), nil
		}
		return nil, fmt.Errorf("failed to get state %s from bucket %s: %w", key, s.bucket, err)
	}
	return DecodeSnapshot(data)
}

// Save implements Store.
func (s *S3Store) Save(ctx context.Context, snap *Snapshot) error {
	data, err := stamp(snap).Encode()
	if err != nil {
		return err
	}
	key := s.objectKey(naming.StateObject(snap.Topology))
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/yaml"),
	})
	if err != nil {
		return fmt.Errorf("failed to put state %s in bucket %s: %w", key, s.bucket, err)
	}
	return nil
}

func (s *S3Store) get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	return data, nil
}

type s3Lease struct {
	store *S3Store
	key   string
	once  sync.Once
	err   error
}

func (l *s3Lease) Release(ctx context.Context) error {
	l.once.Do(func() {
		_, err := l.store.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(l.store.bucket),
			Key:    aws.String(l.key),
		})
		if err != nil {
			l.err = fmt.Errorf("failed to release lock %s: %w", l.key, err)
		}
	})
	return l.err
}

// isPreconditionFailed checks if a conditional write lost against an
// existing object.
func isPreconditionFailed(err error) bool {
	if err == nil {
		return false
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "PreconditionFailed" || code == "ConditionalRequestConflict" || code == "412"
	}

	return false
}

// isNoSuchKey checks if the object does not exist.
func isNoSuchKey(err error) bool {
	if err == nil {
		return false
	}

	// Check for typed S3 errors first
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}

	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}

	// Fall back to API error code checking for S3-compatible services
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound" || code == "404"
	}

	return false
}

package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	aws_s3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/edel-social/edel-server/s3"
)

type Config struct {
	// Endpoint overrides the AWS endpoint, e.g. for LocalStack or another
	// S3 compatible provider. Path style addressing is used when set.
	Endpoint string

	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

// AWSStore is the AWS S3 implementation of the s3.Store interface.
type AWSStore struct {
	log    *zap.Logger
	client *aws_s3.Client
	bucket string
}

func NewAWSStore(log *zap.Logger, cfg Config) (*AWSStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket cannot be empty")
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, fmt.Errorf("access key id and secret access key are required")
	}

	opts := aws_s3.Options{
		Region:      cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}

	return &AWSStore{
		log:    log,
		client: aws_s3.New(opts),
		bucket: cfg.Bucket,
	}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (a *AWSStore) EnsureBucket(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &aws_s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	if err == nil {
		return nil
	}

	_, err = a.client.CreateBucket(ctx, &aws_s3.CreateBucketInput{Bucket: aws.String(a.bucket)})
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return pkgerrors.Wrap(err, "failed to create bucket")
	}
	return nil
}

// Upload uploads the data to S3 at the specified key.
func (a *AWSStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	if data == nil {
		return fmt.Errorf("data cannot be nil")
	}

	input := &aws_s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	}

	_, err := a.client.PutObject(ctx, input)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to upload object to S3")
	}

	a.log.Debug("Uploaded object", zap.String("bucket", a.bucket), zap.String("key", key), zap.Int("size", len(data)))
	return nil
}

// Download retrieves the data from S3 at the specified key.
func (a *AWSStore) Download(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("key cannot be empty")
	}

	input := &aws_s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	}

	output, err := a.client.GetObject(ctx, input)
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, s3.ErrNotFound
		}
		return nil, pkgerrors.Wrap(err, "failed to download object from S3")
	}
	defer output.Body.Close()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to read object data")
	}

	return data, nil
}

// Delete removes the object at key. S3 treats deleting a missing key as a
// success.
func (a *AWSStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}

	_, err := a.client.DeleteObject(ctx, &aws_s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return pkgerrors.Wrap(err, "failed to delete object from S3")
	}

	a.log.Debug("Deleted object", zap.String("bucket", a.bucket), zap.String("key", key))
	return nil
}

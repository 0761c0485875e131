package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the part of the S3 client the store uses.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3 stores each entry as one JSON object under prefix.
type S3 struct {
	client     S3API
	bucketName string
	prefix     string
	logger     *slog.Logger
}

func NewS3(cfg aws.Config, bucketName, prefix string, logger *slog.Logger) *S3 {
	return NewS3WithClient(s3.NewFromConfig(cfg), bucketName, prefix, logger)
}

func NewS3WithClient(client S3API, bucketName, prefix string, logger *slog.Logger) *S3 {
	return &S3{client: client, bucketName: bucketName, prefix: prefix, logger: logger}
}

func (s *S3) objectKey(key string) string {
	return path.Join(s.prefix, key+".json")
}

func (s *S3) Get(ctx context.Context, key string) ([]byte, bool, error) {
	objectKey := s.objectKey(key)
	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucketName,
		Key:    &objectKey,
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get object %q from S3: %w", objectKey, err)
	}
	defer func() {
		if err := output.Body.Close(); err != nil {
			s.logger.Error("failed to close S3 object body", "error", err)
		}
	}()

	body, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read object %q from S3: %w", objectKey, err)
	}
	return body, true, nil
}

func (s *S3) Set(ctx context.Context, key string, value []byte) error {
	objectKey := s.objectKey(key)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucketName,
		Key:         &objectKey,
		Body:        bytes.NewReader(value),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %q to S3: %w", objectKey, err)
	}
	return nil
}

func (s *S3) Delete(ctx context.Context, key string) error {
	objectKey := s.objectKey(key)
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucketName, Key: &objectKey}); err != nil {
		return fmt.Errorf("failed to delete object %q from S3: %w", objectKey, err)
	}
	return nil
}

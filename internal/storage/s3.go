package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Options controls how public URLs are rendered for stored objects.
type S3Options struct {
	Region string
	// Endpoint overrides the AWS endpoint for S3-compatible services.
	// When set, path-style URLs are produced.
	Endpoint string
	// PublicBaseURL, when set, takes precedence over any derived URL
	// (e.g. a CDN or public bucket host).
	PublicBaseURL string
}

// S3Service stores blobs in Amazon S3 (or compatible APIs).
type S3Service struct {
	client *s3.Client
	opts   S3Options
}

func NewS3Service(client *s3.Client, opts S3Options) *S3Service {
	return &S3Service{client: client, opts: opts}
}

func (s *S3Service) PutObject(ctx context.Context, body io.Reader, opts PutOptions) error {
	if opts.Bucket == "" {
		return fmt.Errorf("storage bucket is required")
	}
	if opts.Key == "" {
		return fmt.Errorf("object key is required")
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(opts.Bucket),
		Key:    aws.String(opts.Key),
		Body:   body,
		// refuse to overwrite: a key collision must surface, not clobber
		IfNoneMatch: aws.String("*"),
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed" {
			return fmt.Errorf("put object %s: %w", opts.Key, ErrKeyExists)
		}
		return fmt.Errorf("put object %s: %w", opts.Key, err)
	}
	return nil
}

func (s *S3Service) ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	if bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	var objects []ObjectInfo
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	}
	if strings.TrimSpace(prefix) != "" {
		input.Prefix = aws.String(prefix)
	}

	for {
		output, err := s.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}

		for _, obj := range output.Contents {
			objects = append(objects, ObjectInfo{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: obj.LastModified,
			})
		}

		if !aws.ToBool(output.IsTruncated) || output.NextContinuationToken == nil {
			break
		}
		input.ContinuationToken = output.NextContinuationToken
	}

	return objects, nil
}

func (s *S3Service) PublicURL(bucket, key string) string {
	if base := strings.TrimSuffix(s.opts.PublicBaseURL, "/"); base != "" {
		return base + "/" + key
	}
	if endpoint := strings.TrimSuffix(s.opts.Endpoint, "/"); endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", endpoint, bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, s.opts.Region, key)
}

var _ Service = (*S3Service)(nil)

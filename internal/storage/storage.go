package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrKeyExists is returned when a put would overwrite an existing object.
// Overwrites are disabled; a key collision is a hard failure.
var ErrKeyExists = errors.New("object key already exists")

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified *time.Time
}

// PutOptions conveys upload destination metadata.
type PutOptions struct {
	Bucket      string
	Key         string
	ContentType string
}

// Service stores uploaded blobs and resolves their public URLs.
type Service interface {
	PutObject(ctx context.Context, body io.Reader, opts PutOptions) error
	ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
	PublicURL(bucket, key string) string
}

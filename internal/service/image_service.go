package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"recipe-gallery/internal/storage"
)

const suffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// StoredImage is the result of a successful ingest.
type StoredImage struct {
	URL string
	Key string
}

// ImageService accepts an uploaded image, derives a collision-resistant
// storage key and persists the blob to the object store.
type ImageService interface {
	Ingest(ctx context.Context, data []byte, contentType, filename string) (*StoredImage, error)
}

type imageService struct {
	store     storage.Service
	bucket    string
	keyPrefix string
}

func NewImageService(store storage.Service, bucket, keyPrefix string) ImageService {
	return &imageService{
		store:     store,
		bucket:    bucket,
		keyPrefix: strings.Trim(keyPrefix, "/"),
	}
}

func (s *imageService) Ingest(ctx context.Context, data []byte, contentType, filename string) (*StoredImage, error) {
	if len(data) == 0 {
		return nil, newValidationError("file is empty")
	}

	key := s.objectKey(filename)
	if err := s.store.PutObject(ctx, bytes.NewReader(data), storage.PutOptions{
		Bucket:      s.bucket,
		Key:         key,
		ContentType: contentType,
	}); err != nil {
		return nil, err
	}

	return &StoredImage{
		URL: s.store.PublicURL(s.bucket, key),
		Key: key,
	}, nil
}

// objectKey builds recipe-<unix-ms>-<7 random chars>.<ext> under the
// configured prefix. The random suffix makes same-millisecond uploads of the
// same filename land on distinct keys; collisions are accepted as negligible,
// and the store refuses overwrites regardless.
func (s *imageService) objectKey(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		ext = "bin"
	}

	name := fmt.Sprintf("recipe-%d-%s.%s", time.Now().UnixMilli(), randomSuffix(7), ext)
	if s.keyPrefix == "" {
		return name
	}
	return s.keyPrefix + "/" + name
}

func randomSuffix(n int) string {
	buf := make([]byte, n)
	// rand.Read never fails on supported platforms
	_, _ = rand.Read(buf)
	for i := range buf {
		buf[i] = suffixAlphabet[int(buf[i])%len(suffixAlphabet)]
	}
	return string(buf)
}

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	maxImageSize    = 5 * 1024 * 1024 // 5 MB
	presignedURLTTL = 15 * time.Minute
)

var (
	ErrFileTooBig           = errors.New("file size exceeds 5MB limit")
	ErrInvalidFileType      = errors.New("invalid file type, only JPEG and PNG images are allowed")
	ErrStorageDisabled      = errors.New("object storage is not configured")
	ErrBucketCreationFailed = errors.New("failed to create storage bucket")
	ErrUploadFailed         = errors.New("failed to upload file")
	ErrURLGenerationFailed  = errors.New("failed to generate image URL")

	allowedImageTypes = map[string]string{
		"image/jpeg": ".jpg",
		"image/png":  ".png",
	}
)

// ImageStorage stores hotel logos and inventory item images.
type ImageStorage interface {
	// UploadImage stores an image under the category prefix and returns the
	// object key.
	UploadImage(ctx context.Context, category, ownerID string, file io.Reader, fileSize int64) (string, error)

	DeleteImage(ctx context.Context, objectKey string) error

	// ImageURL returns a URL a client can fetch the object from.
	ImageURL(ctx context.Context, objectKey string) (string, error)
}

// MinIOImageStorage implements ImageStorage on S3-compatible storage.
type MinIOImageStorage struct {
	client     *minio.Client
	bucketName string
	// publicBaseURL, when set, is preferred over presigned URLs.
	publicBaseURL string
	initOnce      sync.Once
	initErr       error
}

// NewMinIOImageStorage creates the client. Bucket creation is deferred to the
// first operation so a cold object store does not block startup.
func NewMinIOImageStorage(endpoint, accessKey, secretKey, bucketName, publicBaseURL string, useSSL bool) (*MinIOImageStorage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinIOImageStorage{
		client:        client,
		bucketName:    bucketName,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

func (s *MinIOImageStorage) lazyInit(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucketName)
		if err != nil {
			s.initErr = fmt.Errorf("%w: check bucket existence: %v", ErrBucketCreationFailed, err)
			return
		}
		if !exists {
			if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{}); err != nil {
				s.initErr = fmt.Errorf("%w: create bucket: %v", ErrBucketCreationFailed, err)
			}
		}
	})
	return s.initErr
}

// UploadImage validates size, sniffs the real content type from the first
// bytes (client headers are not trusted) and stores the object.
func (s *MinIOImageStorage) UploadImage(ctx context.Context, category, ownerID string, file io.Reader, fileSize int64) (string, error) {
	if fileSize > maxImageSize {
		return "", ErrFileTooBig
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("%w: read file for content detection: %v", ErrUploadFailed, err)
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return "", ErrInvalidFileType
	}

	if err := s.lazyInit(ctx); err != nil {
		return "", err
	}

	objectKey := fmt.Sprintf("%s/%s/%s%s", category, ownerID, uuid.NewString(), ext)
	body := io.MultiReader(bytes.NewReader(head), file)
	if _, err := s.client.PutObject(ctx, s.bucketName, objectKey, body, fileSize, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return objectKey, nil
}

// Ping probes the object store for readiness checks without touching the
// lazy bucket bootstrap.
func (s *MinIOImageStorage) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucketName)
	return err
}

func (s *MinIOImageStorage) DeleteImage(ctx context.Context, objectKey string) error {
	if err := s.lazyInit(ctx); err != nil {
		return err
	}
	return s.client.RemoveObject(ctx, s.bucketName, objectKey, minio.RemoveObjectOptions{})
}

func (s *MinIOImageStorage) ImageURL(ctx context.Context, objectKey string) (string, error) {
	if s.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, s.bucketName, objectKey), nil
	}
	if err := s.lazyInit(ctx); err != nil {
		return "", err
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucketName, objectKey, presignedURLTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrURLGenerationFailed, err)
	}
	return u.String(), nil
}

// DisabledImageStorage stands in when STORAGE_ENABLED=false. Every operation
// fails with ErrStorageDisabled so handlers can answer with a clear message.
type DisabledImageStorage struct{}

func NewDisabledImageStorage() *DisabledImageStorage { return &DisabledImageStorage{} }

func (s *DisabledImageStorage) UploadImage(context.Context, string, string, io.Reader, int64) (string, error) {
	return "", ErrStorageDisabled
}

func (s *DisabledImageStorage) DeleteImage(context.Context, string) error {
	return ErrStorageDisabled
}

func (s *DisabledImageStorage) ImageURL(context.Context, string) (string, error) {
	return "", ErrStorageDisabled
}

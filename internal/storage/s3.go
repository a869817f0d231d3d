// Package storage keeps listing images in an S3-compatible bucket
// (AWS S3, Cloudflare R2, MinIO).
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxImageSize is the largest accepted upload in bytes
const MaxImageSize = 5 << 20

var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// ObjectAPI is the subset of the S3 client the store uses
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Image is an uploaded object. URL is publicly resolvable; Path is what
// Delete expects.
type Image struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

// ImageStore uploads and removes listing images
type ImageStore struct {
	client    ObjectAPI
	bucket    string
	publicURL string
	logger    *zap.Logger
	now       func() time.Time
}

// NewS3Client builds an S3 client for the configured endpoint
func NewS3Client(cfg config.StorageConfig) *s3.Client {
	return s3.New(s3.Options{}, func(o *s3.Options) {
		o.Region = cfg.Region
		o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})
}

// NewImageStore creates an ImageStore over client. Public URLs are built from
// cfg.PublicURL, or the virtual-hosted S3 address when it is empty.
func NewImageStore(client ObjectAPI, cfg config.StorageConfig, logger *zap.Logger) *ImageStore {
	publicURL := strings.TrimRight(cfg.PublicURL, "/")
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.amazonaws.com", cfg.Bucket)
	}

	logger.Info("image storage initialized",
		zap.String("bucket", cfg.Bucket),
		zap.String("endpoint", cfg.Endpoint),
	)

	return &ImageStore{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: publicURL,
		logger:    logger,
		now:       time.Now,
	}
}

// Upload stores body under a fresh key derived from filename's extension
func (s *ImageStore) Upload(ctx context.Context, ownerID uuid.UUID, filename string, body io.Reader, size int64) (*Image, error) {
	ext := strings.ToLower(path.Ext(filename))
	contentType, ok := contentTypes[ext]
	if !ok {
		return nil, domain.NewValidationError("image", "Only jpg, jpeg, png and webp images are accepted")
	}
	if size <= 0 || size > MaxImageSize {
		return nil, domain.NewValidationError("image", "Image must be between 1 byte and 5 MiB")
	}

	key := s.key(ownerID, ext)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return nil, objectError("upload image", err)
	}

	return &Image{URL: s.publicURL + "/" + key, Path: key}, nil
}

// Delete removes the object at p
func (s *ImageStore) Delete(ctx context.Context, p string) error {
	p = strings.TrimLeft(p, "/")
	if p == "" || strings.Contains(p, "..") {
		return domain.NewValidationError("path", "Invalid image path")
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(p),
	})
	if err != nil {
		return objectError("delete image", err)
	}

	s.logger.Debug("image deleted", zap.String("path", p))
	return nil
}

// key lays objects out as products/<owner>/<yyyy>/<mm>/<uuid><ext>
func (s *ImageStore) key(ownerID uuid.UUID, ext string) string {
	now := s.now().UTC()
	return fmt.Sprintf("products/%s/%d/%02d/%s%s", ownerID, now.Year(), now.Month(), uuid.NewString(), ext)
}

func objectError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	message := domain.ErrTransport.Error()
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorMessage() != "" {
		message = apiErr.ErrorMessage()
	}

	return &domain.TransportError{Op: op, Message: message, Err: err}
}

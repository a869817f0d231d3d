package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type fakeObjects struct {
	puts    []*s3.PutObjectInput
	bodies  []string
	deletes []*s3.DeleteObjectInput
	err     error
}

func (f *fakeObjects) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(params.Body)
	f.puts = append(f.puts, params)
	f.bodies = append(f.bodies, string(body))
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deletes = append(f.deletes, params)
	return &s3.DeleteObjectOutput{}, nil
}

func newTestStore(fake *fakeObjects, publicURL string) *ImageStore {
	store := NewImageStore(fake, config.StorageConfig{Bucket: "listings", PublicURL: publicURL}, zap.NewNop())
	store.now = func() time.Time { return time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC) }
	return store
}

func TestUploadReturnsPublicURL(t *testing.T) {
	fake := &fakeObjects{}
	store := newTestStore(fake, "https://cdn.example.com/")
	owner := uuid.New()

	img, err := store.Upload(context.Background(), owner, "Camera.JPG", strings.NewReader("jpeg-bytes"), 10)
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if !strings.HasPrefix(img.Path, "products/"+owner.String()+"/2024/03/") || !strings.HasSuffix(img.Path, ".jpg") {
		t.Errorf("unexpected path %q", img.Path)
	}
	if img.URL != "https://cdn.example.com/"+img.Path {
		t.Errorf("URL = %q, want public base + path", img.URL)
	}

	if len(fake.puts) != 1 {
		t.Fatalf("expected one PutObject, got %d", len(fake.puts))
	}
	put := fake.puts[0]
	if aws.ToString(put.Bucket) != "listings" || aws.ToString(put.Key) != img.Path {
		t.Errorf("unexpected bucket/key %q/%q", aws.ToString(put.Bucket), aws.ToString(put.Key))
	}
	if aws.ToString(put.ContentType) != "image/jpeg" {
		t.Errorf("content type = %q", aws.ToString(put.ContentType))
	}
	if fake.bodies[0] != "jpeg-bytes" {
		t.Errorf("body = %q", fake.bodies[0])
	}
}

func TestUploadFallsBackToBucketURL(t *testing.T) {
	store := newTestStore(&fakeObjects{}, "")

	img, err := store.Upload(context.Background(), uuid.New(), "a.webp", strings.NewReader("x"), 1)
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if !strings.HasPrefix(img.URL, "https://listings.s3.amazonaws.com/products/") {
		t.Errorf("unexpected URL %q", img.URL)
	}
}

func TestUploadRejectsBadImages(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		size     int64
	}{
		{"gif", "anim.gif", 100},
		{"no extension", "photo", 100},
		{"empty", "a.png", 0},
		{"too large", "a.png", MaxImageSize + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeObjects{}
			store := newTestStore(fake, "")

			_, err := store.Upload(context.Background(), uuid.New(), tt.filename, strings.NewReader(""), tt.size)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
			if len(fake.puts) != 0 {
				t.Error("rejected upload must not reach the bucket")
			}
		})
	}
}

func TestStorageFailuresBecomeTransportErrors(t *testing.T) {
	fake := &fakeObjects{err: &smithy.GenericAPIError{Code: "AccessDenied", Message: "Access Denied"}}
	store := newTestStore(fake, "")

	_, err := store.Upload(context.Background(), uuid.New(), "a.png", strings.NewReader("x"), 1)
	var tErr *domain.TransportError
	if !errors.As(err, &tErr) || tErr.Message != "Access Denied" {
		t.Errorf("expected TransportError with API message, got %v", err)
	}

	fake.err = errors.New("dial tcp: connection refused")
	err = store.Delete(context.Background(), "products/x.png")
	if !errors.As(err, &tErr) || tErr.Message != domain.ErrTransport.Error() {
		t.Errorf("expected TransportError with generic message, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	fake := &fakeObjects{}
	store := newTestStore(fake, "")

	if err := store.Delete(context.Background(), "/products/a/b.png"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(fake.deletes) != 1 || aws.ToString(fake.deletes[0].Key) != "products/a/b.png" {
		t.Errorf("unexpected delete calls %+v", fake.deletes)
	}

	for _, p := range []string{"", "../secrets"} {
		if err := store.Delete(context.Background(), p); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("path %q: expected ErrValidation, got %v", p, err)
		}
	}
}

// Package media stores product photos in S3 compatible object storage.
package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/nfnt/resize"
	"go.uber.org/zap"

	"github.com/matthieukhl/pocketpos/internal/config"
	"github.com/matthieukhl/pocketpos/internal/logger"
	"github.com/matthieukhl/pocketpos/internal/models"
	"github.com/matthieukhl/pocketpos/internal/tenant"
)

const (
	// MaxUploadSize bounds an incoming photo
	MaxUploadSize = 5 << 20
	// MaxPixels bounds the decoded size of a photo, checked from its header
	MaxPixels = 40_000_000

	jpegQuality = 80
)

// objectStore is the part of *minio.Client the image store uses
type objectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type ImageStore struct {
	client   objectStore
	bucket   string
	baseURL  string
	maxWidth uint
	log      *zap.Logger
}

func NewImageStore(cfg *config.MediaConfig, log *zap.Logger) (*ImageStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("media endpoint is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize object storage client: %w", err)
	}

	baseURL := cfg.PublicURL
	if baseURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	return newImageStore(client, cfg.Bucket, baseURL, cfg.MaxWidth, log), nil
}

func newImageStore(client objectStore, bucket, baseURL string, maxWidth uint, log *zap.Logger) *ImageStore {
	return &ImageStore{
		client:   client,
		bucket:   bucket,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxWidth: maxWidth,
		log:      logger.OrNop(log).Named("media"),
	}
}

// EnsureBucket creates the photo bucket when it does not exist
func (s *ImageStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	s.log.Info("bucket created", zap.String("bucket", s.bucket))
	return nil
}

// UploadProductImage re-encodes a JPEG or PNG photo, uploads it and
// returns its public URL
func (s *ImageStore) UploadProductImage(ctx context.Context, t tenant.ID, productID int64, r io.Reader) (string, error) {
	data, err := Compress(r, s.maxWidth)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("%d/%d/%s.jpg", t.Int64(), productID, uuid.New().String())
	_, err = s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "image/jpeg",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	s.log.Info("product image uploaded",
		zap.Int64("tenant_id", t.Int64()),
		zap.Int64("product_id", productID),
		zap.String("object", name),
		zap.Int("bytes", len(data)))

	return s.baseURL + "/" + name, nil
}

// Compress decodes an image, narrows it to maxWidth keeping the aspect
// ratio, and encodes it as JPEG. Narrower images keep their size.
func Compress(r io.Reader, maxWidth uint) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if len(raw) > MaxUploadSize {
		return nil, models.Invalid("image exceeds %d bytes", MaxUploadSize)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, models.Invalid("unsupported image: %v", err)
	}
	if format != "jpeg" && format != "png" {
		return nil, models.Invalid("unsupported image format %s", format)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, models.Invalid("image of %dx%d pixels exceeds %d pixels", cfg.Width, cfg.Height, MaxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, models.Invalid("unsupported image: %v", err)
	}

	if maxWidth > 0 && uint(img.Bounds().Dx()) > maxWidth {
		img = resize.Resize(maxWidth, 0, img, resize.Lanczos3)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

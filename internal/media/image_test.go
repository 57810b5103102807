package media

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthieukhl/pocketpos/internal/models"
)

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCompressNarrowsWideImages(t *testing.T) {
	out, err := Compress(bytes.NewReader(pngOf(t, 1600, 400)), 800)
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 200, cfg.Height)
}

func TestCompressKeepsNarrowImages(t *testing.T) {
	out, err := Compress(bytes.NewReader(pngOf(t, 120, 90)), 800)
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Width)
	assert.Equal(t, 90, cfg.Height)
}

func TestCompressRejectsGarbage(t *testing.T) {
	_, err := Compress(strings.NewReader("definitely not a picture"), 800)
	assert.ErrorIs(t, err, models.ErrValidation)
}

// withDeclaredSize rewrites the IHDR dimensions of a PNG without touching
// its pixel data
func withDeclaredSize(t *testing.T, data []byte, w, h uint32) []byte {
	t.Helper()
	out := bytes.Clone(data)
	// 8 byte signature, then IHDR: length(4) type(4) width(4) height(4) ... crc
	require.Equal(t, "IHDR", string(out[12:16]))
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestCompressRejectsOversizedDimensions(t *testing.T) {
	bomb := withDeclaredSize(t, pngOf(t, 4, 4), 50_000, 50_000)
	require.Less(t, len(bomb), MaxUploadSize)

	_, err := Compress(bytes.NewReader(bomb), 800)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Contains(t, err.Error(), "exceeds")
}

type fakeBucket struct {
	exists  bool
	made    []string
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeBucket) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return f.exists, nil
}

func (f *fakeBucket) MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error {
	f.made = append(f.made, bucket)
	f.exists = true
	return nil
}

func (f *fakeBucket) PutObject(ctx context.Context, bucket, name string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
		f.types = map[string]string{}
	}
	f.objects[name] = data
	f.types[name] = opts.ContentType
	return minio.UploadInfo{Bucket: bucket, Key: name, Size: size}, nil
}

func TestUploadProductImage(t *testing.T) {
	fake := &fakeBucket{}
	s := newImageStore(fake, "products", "https://cdn.example.com/", 800, nil)
	ctx := context.Background()

	require.NoError(t, s.EnsureBucket(ctx))
	require.NoError(t, s.EnsureBucket(ctx))
	assert.Equal(t, []string{"products"}, fake.made)

	url, err := s.UploadProductImage(ctx, 42, 7, bytes.NewReader(pngOf(t, 64, 64)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/42/7/"), url)
	assert.True(t, strings.HasSuffix(url, ".jpg"), url)

	name := strings.TrimPrefix(url, "https://cdn.example.com/")
	require.Contains(t, fake.objects, name)
	assert.Equal(t, "image/jpeg", fake.types[name])
}

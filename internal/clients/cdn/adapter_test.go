package cdn

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentforge/pipeline/internal/pkg/dbctx"
	"github.com/contentforge/pipeline/internal/platform/gcp"
)

var _ gcp.BucketService = (*fakeBucket)(nil)

type fakeBucket struct {
	objects map[string][]byte
}

func newFakeBucket() *fakeBucket { return &fakeBucket{objects: map[string][]byte{}} }

func (f *fakeBucket) UploadFile(dbc dbctx.Context, key string, file io.Reader) error {
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeBucket) DeleteFile(dbc dbctx.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func (f *fakeBucket) ReplaceFile(dbc dbctx.Context, key string, newFile io.Reader) error {
	return f.UploadFile(dbc, key, newFile)
}

func (f *fakeBucket) DownloadFile(ctx context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(nil), nil
}

func (f *fakeBucket) OpenRangeReader(ctx context.Context, key string, offset, length int64) (io.ReadCloser, error) {
	return io.NopCloser(nil), nil
}

func (f *fakeBucket) GetObjectAttrs(ctx context.Context, key string) (*gcp.ObjectAttrs, error) {
	return nil, assert.AnError
}

func (f *fakeBucket) CopyObject(ctx context.Context, srcKey, dstKey string) error { return nil }
func (f *fakeBucket) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	return nil, nil
}
func (f *fakeBucket) DeletePrefix(ctx context.Context, prefix string) error { return nil }
func (f *fakeBucket) GetPublicURL(key string) string                       { return "https://cdn.example.com/" + key }

func TestUpload_DeterministicKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("fake-image-bytes"))
	}))
	defer srv.Close()

	bucket := newFakeBucket()
	adapter := New(bucket)

	url1, err := adapter.Upload(context.Background(), srv.URL, "/articles/", "hero_image_0", true)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/articles/hero_image_0.png", url1)

	url2, err := adapter.Upload(context.Background(), srv.URL, "articles", "hero_image_0", true)
	require.NoError(t, err)
	assert.Equal(t, url1, url2, "same (folder, public_id) must resolve to the same secure_url")
}

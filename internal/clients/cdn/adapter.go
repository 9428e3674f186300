// Package cdn implements CdnAdapter: upload(image_url_or_bytes, folder,
// public_id, overwrite=true) -> secure_url, idempotent on (folder, public_id)
// per spec §4.2. It is a Cloudinary-shaped facade over the teacher's
// internal/platform/gcp GCS bucket service - object key is derived
// deterministically from (folder, public_id) so re-uploads with the same
// pair always resolve to the same secure_url.
package cdn

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/contentforge/pipeline/internal/pkg/dbctx"
	"github.com/contentforge/pipeline/internal/platform/apperr"
	"github.com/contentforge/pipeline/internal/platform/gcp"
)

// Adapter uploads generated media (images, thumbnails, logos) to durable
// object storage and returns a public, CDN-servable URL.
type Adapter struct {
	bucket gcp.BucketService
	hc     *http.Client
}

func New(bucket gcp.BucketService) *Adapter {
	return &Adapter{bucket: bucket, hc: &http.Client{Timeout: 60 * time.Second}}
}

// Upload fetches sourceURL and stores it under the
// deterministic key folder/public_id.ext, returning the public secure_url.
// overwrite=true (the only mode spec §4.2 requires) always replaces any
// existing object at that key, keeping the call idempotent.
func (a *Adapter) Upload(ctx context.Context, sourceURL, folder, publicID string, overwrite bool) (string, error) {
	if a.bucket == nil {
		return "", apperr.New(apperr.KindConfigMissing, "cdn bucket service not configured", nil)
	}
	folder = sanitizeSegment(folder)
	publicID = sanitizeSegment(publicID)
	if folder == "" || publicID == "" {
		return "", apperr.New(apperr.KindSchemaValidation, "folder and public_id are required", nil)
	}

	body, contentType, err := a.fetchSource(ctx, sourceURL)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s/%s%s", folder, publicID, extensionForContentType(contentType))

	dbc := dbctx.Context{Ctx: ctx}
	if overwrite {
		if err := a.bucket.UploadFile(dbc, key, body); err != nil {
			return "", apperr.Wrap(apperr.KindUnknown, true, err)
		}
	} else {
		if _, err := a.bucket.GetObjectAttrs(ctx, key); err == nil {
			return a.bucket.GetPublicURL(key), nil
		}
		if err := a.bucket.UploadFile(dbc, key, body); err != nil {
			return "", apperr.Wrap(apperr.KindUnknown, true, err)
		}
	}
	return a.bucket.GetPublicURL(key), nil
}

// UploadBytes stores raw bytes directly, for callers that already hold the
// media in memory instead of a fetchable URL.
func (a *Adapter) UploadBytes(ctx context.Context, data io.Reader, contentType, folder, publicID string) (string, error) {
	if a.bucket == nil {
		return "", apperr.New(apperr.KindConfigMissing, "cdn bucket service not configured", nil)
	}
	folder = sanitizeSegment(folder)
	publicID = sanitizeSegment(publicID)
	key := fmt.Sprintf("%s/%s%s", folder, publicID, extensionForContentType(contentType))
	if err := a.bucket.UploadFile(dbctx.Context{Ctx: ctx}, key, data); err != nil {
		return "", apperr.Wrap(apperr.KindUnknown, true, err)
	}
	return a.bucket.GetPublicURL(key), nil
}

// Delete removes the object addressed by (folder, public_id, contentType).
func (a *Adapter) Delete(ctx context.Context, folder, publicID, contentType string) error {
	key := fmt.Sprintf("%s/%s%s", sanitizeSegment(folder), sanitizeSegment(publicID), extensionForContentType(contentType))
	if err := a.bucket.DeleteFile(dbctx.Context{Ctx: ctx}, key); err != nil {
		return apperr.Wrap(apperr.KindUnknown, false, err)
	}
	return nil
}

func (a *Adapter) fetchSource(ctx context.Context, sourceURL string) (io.Reader, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, "", apperr.New(apperr.KindUnknown, "build source fetch request", err)
	}
	resp, err := a.hc.Do(req)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.Classify(err), true, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, "", apperr.New(apperr.ClassifyStatus(resp.StatusCode), fmt.Sprintf("source fetch failed: status %d", resp.StatusCode), nil)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", apperr.New(apperr.KindUnknown, "read source body", err)
	}
	return strings.NewReader(string(data)), resp.Header.Get("Content-Type"), nil
}

func sanitizeSegment(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "/")
	return s
}

func extensionForContentType(contentType string) string {
	ct := strings.ToLower(strings.SplitN(contentType, ";", 2)[0])
	switch ct {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "image/svg+xml":
		return ".svg"
	case "video/mp4":
		return ".mp4"
	default:
		return ".jpg"
	}
}

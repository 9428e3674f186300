// Package mediahost implements MediaHostAdapter: upload, delete, and a pure
// URL builder following the Mux URL grammar in spec §6. The poll-until-ready
// loop is grounded on the teacher's internal/jobs/pipeline/node_videos_render
// heartbeat-ticker pattern; the upload transport follows the teacher's
// internal/platform/gcp bucket upload flow (signed upload + polling).
package mediahost

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/contentforge/pipeline/internal/platform/apperr"
	"github.com/contentforge/pipeline/internal/platform/envconfig"
)

type Config struct {
	APIToken    string
	APISecret   string
	BaseURL     string
	PollInterval time.Duration
	PollTimeout  time.Duration
}

func LoadConfig() Config {
	return Config{
		APIToken:     envconfig.String("MUX_TOKEN_ID", ""),
		APISecret:    envconfig.String("MUX_TOKEN_SECRET", ""),
		BaseURL:      envconfig.String("MUX_BASE_URL", "https://api.mux.com"),
		PollInterval: envconfig.Duration("MUX_POLL_INTERVAL", 2*time.Second),
		PollTimeout:  envconfig.Duration("MUX_POLL_TIMEOUT", 120*time.Second),
	}
}

type Adapter struct {
	cfg Config
	hc  *http.Client
}

func New(cfg Config) *Adapter {
	return &Adapter{cfg: cfg, hc: &http.Client{}}
}

// UploadResult is the upload() contract output.
type UploadResult struct {
	AssetID     string
	PlaybackID  string
	DurationS   float64
}

// HeartbeatFunc is called periodically while polling for asset readiness,
// matching node_videos_render's independent heartbeat-ticker goroutine.
type HeartbeatFunc func(detail string)

// Upload submits a video URL for hosting and polls until the asset is ready,
// capped at PollTimeout/PollInterval attempts (default 60 x 2s = 120s per
// spec §5).
func (a *Adapter) Upload(ctx context.Context, videoURL string, passthrough string, dashboardMeta map[string]string, heartbeat HeartbeatFunc) (UploadResult, error) {
	if a.cfg.APIToken == "" || a.cfg.APISecret == "" {
		return UploadResult{}, apperr.New(apperr.KindConfigMissing, "MUX_TOKEN_ID/MUX_TOKEN_SECRET not set", nil)
	}
	if len(passthrough) > 255 {
		passthrough = passthrough[:255]
	}

	body, err := json.Marshal(map[string]interface{}{
		"input":       []map[string]string{{"url": videoURL}},
		"passthrough": passthrough,
		"playback_policy": []string{"public"},
	})
	if err != nil {
		return UploadResult{}, apperr.New(apperr.KindParse, "marshal upload request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/video/v1/assets", strings.NewReader(string(body)))
	if err != nil {
		return UploadResult{}, apperr.New(apperr.KindUnknown, "build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(a.cfg.APIToken, a.cfg.APISecret)

	resp, err := a.hc.Do(httpReq)
	if err != nil {
		return UploadResult{}, apperr.Wrap(apperr.Classify(err), true, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return UploadResult{}, apperr.New(apperr.ClassifyStatus(resp.StatusCode), fmt.Sprintf("status %d: %s", resp.StatusCode, string(respBody)), nil)
	}

	var created struct {
		Data struct {
			ID     string `json:"id"`
			Status string `json:"status"`
			Duration float64 `json:"duration"`
			PlaybackIDs []struct {
				ID string `json:"id"`
			} `json:"playback_ids"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return UploadResult{}, apperr.New(apperr.KindParse, "decode upload response", err)
	}

	return a.pollUntilReady(ctx, created.Data.ID, heartbeat)
}

func (a *Adapter) pollUntilReady(ctx context.Context, assetID string, heartbeat HeartbeatFunc) (UploadResult, error) {
	deadline := time.Now().Add(a.cfg.PollTimeout)
	ticker := time.NewTicker(a.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return UploadResult{}, apperr.New(apperr.KindTimeout, "context cancelled while polling media host", ctx.Err())
		case <-ticker.C:
			if heartbeat != nil {
				heartbeat("polling asset " + assetID)
			}
			if time.Now().After(deadline) {
				return UploadResult{}, apperr.New(apperr.KindTimeout, "asset did not become ready within poll timeout", nil)
			}
			status, result, err := a.fetchAssetStatus(ctx, assetID)
			if err != nil {
				return UploadResult{}, err
			}
			if status == "ready" {
				return result, nil
			}
			if status == "errored" {
				return UploadResult{}, apperr.New(apperr.KindUpstream5xx, "asset entered errored state", nil)
			}
		}
	}
}

func (a *Adapter) fetchAssetStatus(ctx context.Context, assetID string) (string, UploadResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.BaseURL+"/video/v1/assets/"+assetID, nil)
	if err != nil {
		return "", UploadResult{}, apperr.New(apperr.KindUnknown, "build request", err)
	}
	httpReq.SetBasicAuth(a.cfg.APIToken, a.cfg.APISecret)

	resp, err := a.hc.Do(httpReq)
	if err != nil {
		return "", UploadResult{}, apperr.Wrap(apperr.Classify(err), true, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", UploadResult{}, apperr.New(apperr.ClassifyStatus(resp.StatusCode), "status fetch failed", nil)
	}

	var parsed struct {
		Data struct {
			Status      string  `json:"status"`
			Duration    float64 `json:"duration"`
			PlaybackIDs []struct {
				ID string `json:"id"`
			} `json:"playback_ids"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", UploadResult{}, apperr.New(apperr.KindParse, "decode status response", err)
	}
	playbackID := ""
	if len(parsed.Data.PlaybackIDs) > 0 {
		playbackID = parsed.Data.PlaybackIDs[0].ID
	}
	return parsed.Data.Status, UploadResult{AssetID: assetID, PlaybackID: playbackID, DurationS: parsed.Data.Duration}, nil
}

// Delete removes a hosted asset.
func (a *Adapter) Delete(ctx context.Context, assetID string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, a.cfg.BaseURL+"/video/v1/assets/"+assetID, nil)
	if err != nil {
		return apperr.New(apperr.KindUnknown, "build request", err)
	}
	httpReq.SetBasicAuth(a.cfg.APIToken, a.cfg.APISecret)
	resp, err := a.hc.Do(httpReq)
	if err != nil {
		return apperr.Wrap(apperr.Classify(err), true, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return apperr.New(apperr.ClassifyStatus(resp.StatusCode), "delete failed", nil)
	}
	return nil
}

// BuildStreamURL returns the deterministic HLS stream URL for a playback id.
func BuildStreamURL(playbackID string) string {
	return fmt.Sprintf("https://stream.mux.com/%s.m3u8", playbackID)
}

// ThumbnailOptions parameterizes BuildThumbnailURL.
type ThumbnailOptions struct {
	Width    int
	Height   int
	SmartCrop bool
}

// BuildThumbnailURL is the pure thumbnail URL builder; identical inputs
// always yield an identical URL (spec §8 round-trip law).
func BuildThumbnailURL(playbackID string, timeS float64, opts ThumbnailOptions) string {
	url := fmt.Sprintf("https://image.mux.com/%s/thumbnail.jpg?time=%s", playbackID, formatSeconds(timeS))
	if opts.Width > 0 {
		url += fmt.Sprintf("&width=%d", opts.Width)
	}
	if opts.Height > 0 {
		url += fmt.Sprintf("&height=%d", opts.Height)
	}
	if opts.SmartCrop {
		url += "&fit_mode=smartcrop"
	}
	return url
}

// AnimatedFormat is gif or webp for BuildAnimatedURL.
type AnimatedFormat string

const (
	FormatGIF  AnimatedFormat = "gif"
	FormatWebP AnimatedFormat = "webp"
)

// BuildAnimatedURL builds a deterministic animated-thumbnail URL spanning
// [startS, endS].
func BuildAnimatedURL(playbackID string, format AnimatedFormat, startS, endS float64, width, fps int) string {
	return fmt.Sprintf("https://image.mux.com/%s/animated.%s?start=%s&end=%s&width=%d&fps=%d",
		playbackID, format, formatSeconds(startS), formatSeconds(endS), width, fps)
}

func formatSeconds(s float64) string {
	return fmt.Sprintf("%.2f", s)
}

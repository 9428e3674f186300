// Package videogen implements VideoGenAdapter: generate(prompt<=2000 chars,
// duration_s, resolution, aspect_ratio, model_tier, reference_image_url?) ->
// video_url. Quality tiers are supplemented from original_source's
// video_generation.py VIDEO_QUALITY_MODELS dict (spec.md names the
// model_tier parameter but not its value set).
package videogen

import (
	"context"

	"github.com/contentforge/pipeline/internal/clients/llm"
	"github.com/contentforge/pipeline/internal/domain"
	"github.com/contentforge/pipeline/internal/platform/apperr"
)

type ModelTier string

const (
	TierHigh   ModelTier = "high"
	TierMedium ModelTier = "medium"
	TierLow    ModelTier = "low"
)

const maxPromptRunes = 2000

// QualityModel describes one model_tier's resolution and per-second cost,
// ported from the original Python VIDEO_QUALITY_MODELS table.
type QualityModel struct {
	Resolution     string
	CostPerSecond  float64
}

var qualityModels = map[ModelTier]QualityModel{
	TierHigh:   {Resolution: "720p", CostPerSecond: 0.30},
	TierMedium: {Resolution: "720p", CostPerSecond: 0.025},
	TierLow:    {Resolution: "480p", CostPerSecond: 0.015},
}

type Adapter struct {
	client llm.Client
}

func New(client llm.Client) *Adapter {
	return &Adapter{client: client}
}

// Result is the generate() contract output.
type Result struct {
	VideoURL string
	CostUSD  float64
}

// Generate truncates the prompt to the mandatory 2000-char limit (a
// correctness requirement of the underlying model, per spec §9) before
// submission. Retries for rate_limited/upstream_5xx/timeout are the
// caller's (orchestrator's) responsibility, not this adapter's - per
// spec §9's intentional tightening versus the source's catch-all retry.
func (a *Adapter) Generate(ctx context.Context, prompt string, durationSeconds int, aspectRatio string, tier ModelTier, referenceImageURL string) (Result, error) {
	if a.client == nil {
		return Result{}, apperr.New(apperr.KindConfigMissing, "video generation client not configured", nil)
	}
	model, ok := qualityModels[tier]
	if !ok {
		model = qualityModels[TierMedium]
	}
	truncated := domain.TruncatePrompt(prompt, maxPromptRunes)

	gen, err := a.client.GenerateVideo(ctx, truncated, llm.VideoGenerationOptions{
		DurationSeconds:   durationSeconds,
		Size:              model.Resolution,
		ReferenceImageURL: referenceImageURL,
	})
	if err != nil {
		return Result{}, err
	}
	return Result{VideoURL: gen.URL, CostUSD: model.CostPerSecond * float64(durationSeconds)}, nil
}

// IsRetryableFailure restricts retries to rate_limited/upstream_5xx/timeout,
// per spec §9's documented tightening versus the Python source's
// catch-all-exception retry.
func IsRetryableFailure(err error) bool {
	switch apperr.Classify(err) {
	case apperr.KindRateLimited, apperr.KindUpstream5xx, apperr.KindTimeout:
		return true
	default:
		return false
	}
}

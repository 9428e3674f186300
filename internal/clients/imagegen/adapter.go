// Package imagegen implements ImageGenAdapter: generate(prompt,
// aspect_ratio, context_image_url?, model_tier) -> image_url, wrapping
// internal/clients/llm.Client (grounded on the teacher's
// internal/clients/openai.Client GenerateImage verb).
package imagegen

import (
	"context"

	"github.com/contentforge/pipeline/internal/clients/llm"
	"github.com/contentforge/pipeline/internal/platform/apperr"
)

type ModelTier string

const (
	TierHigh   ModelTier = "high"
	TierMedium ModelTier = "medium"
	TierLow    ModelTier = "low"
)

type Adapter struct {
	client llm.Client
}

func New(client llm.Client) *Adapter {
	return &Adapter{client: client}
}

// Result is the generate() contract output, plus cost accounting per §4.2.
type Result struct {
	ImageURL      string
	RevisedPrompt string
	CostUSD       float64
}

var costPerTier = map[ModelTier]float64{
	TierHigh:   0.08,
	TierMedium: 0.04,
	TierLow:    0.02,
}

// Generate produces one image, optionally conditioned on contextImageURL for
// sequential consistency (§4.2's context_image_url mechanism).
func (a *Adapter) Generate(ctx context.Context, prompt, aspectRatio string, contextImageURL string, tier ModelTier) (Result, error) {
	if a.client == nil {
		return Result{}, apperr.New(apperr.KindConfigMissing, "image generation client not configured", nil)
	}
	fullPrompt := prompt
	if aspectRatio != "" {
		fullPrompt = prompt + "\n\nAspect ratio: " + aspectRatio
	}
	gen, err := a.client.GenerateImage(ctx, fullPrompt, contextImageURL)
	if err != nil {
		return Result{}, err
	}
	cost := costPerTier[tier]
	if cost == 0 {
		cost = costPerTier[TierMedium]
	}
	return Result{ImageURL: gen.URL, RevisedPrompt: gen.RevisedPrompt, CostUSD: cost}, nil
}

package workflows

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/sdk/activity"

	"github.com/contentforge/pipeline/internal/clients/imagegen"
	"github.com/contentforge/pipeline/internal/clients/videogen"
	"github.com/contentforge/pipeline/internal/domain"
	"github.com/contentforge/pipeline/internal/media"
	"github.com/contentforge/pipeline/internal/platform/apperr"
)

// MakeVideoInput is Workflow A step 4's input.
type MakeVideoInput struct {
	Acts              []domain.FourActEntry
	AppStyleDirective string
	Title             string
	Mode              string
	Country           string
	App               string
	ClusterID         string
	ArticleID         string
	Tier              string
	AspectRatio       string
	// ReferenceImageURL conditions generation on a prior frame/character
	// image for visual continuity (spec §4.8 Workflow C step 2: segment
	// videos reuse the hero's character-reference image).
	ReferenceImageURL string
}

func tierFromString(s string) videogen.ModelTier {
	switch s {
	case string(videogen.TierLow):
		return videogen.TierLow
	case string(videogen.TierMedium):
		return videogen.TierMedium
	default:
		return videogen.TierHigh
	}
}

// MakeVideo wraps media.Media.MakeVideo with an activity-level heartbeat
// ticker, since video generation can run for minutes and MakeVideo itself
// has no heartbeat hook - grounded on the teacher's startHeartbeat goroutine
// pattern in internal/temporalx/jobrun/activities.go, generalized from a
// DB-heartbeat ticker to a bare Temporal heartbeat since this activity has
// no row to touch.
func (a *Activities) MakeVideo(ctx context.Context, in MakeVideoInput) (*domain.VideoNarrative, error) {
	if a.Media == nil {
		return nil, apperr.New(apperr.KindConfigMissing, "media subsystem not configured", nil)
	}
	stop := a.startHeartbeat(ctx)
	defer stop()

	video, err := a.Media.MakeVideo(ctx, media.MakeVideoRequest{
		Acts: in.Acts, AppStyleDirective: in.AppStyleDirective, Title: in.Title,
		Mode: in.Mode, Country: in.Country, App: in.App, ClusterID: in.ClusterID,
		ArticleID: in.ArticleID, Tier: tierFromString(in.Tier), AspectRatio: in.AspectRatio,
		ReferenceImageURL: in.ReferenceImageURL,
	})
	if err != nil {
		return nil, wrapActivityErr(err)
	}
	return video, nil
}

func (a *Activities) startHeartbeat(ctx context.Context) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(heartbeatVideoGen)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				activity.RecordHeartbeat(ctx)
			}
		}
	}()
	return func() { close(done) }
}

// ReuseVideoInput is Workflow F's input for a topic-cluster child that
// inherits its parent's video rather than generating one.
type ReuseVideoInput struct {
	Parent *domain.VideoNarrative
}

func (a *Activities) ReuseVideo(ctx context.Context, in ReuseVideoInput) (*domain.VideoNarrative, error) {
	return media.ReuseVideo(in.Parent), nil
}

// InjectSectionImagesInput is Workflow A step 5's input.
type InjectSectionImagesInput struct {
	Content string
	Video   *domain.VideoNarrative
}

type InjectSectionImagesOutput struct {
	Content string `json:"content"`
}

func (a *Activities) InjectSectionImages(ctx context.Context, in InjectSectionImagesInput) (InjectSectionImagesOutput, error) {
	if a.Media == nil {
		return InjectSectionImagesOutput{}, apperr.New(apperr.KindConfigMissing, "media subsystem not configured", nil)
	}
	out, err := a.Media.InjectSectionImages(ctx, in.Content, in.Video)
	if err != nil {
		return InjectSectionImagesOutput{}, wrapActivityErr(err)
	}
	return InjectSectionImagesOutput{Content: out}, nil
}

// SequentialImagesInput is the non-video image fallback path's input
// (spec §4.5.2 step 4, used when a narrative has no video potential).
type SequentialImagesInput struct {
	Prompts     []string
	Slug        string
	Role        string
	Tier        string
	AspectRatio string
}

func (a *Activities) SequentialImages(ctx context.Context, in SequentialImagesInput) ([]domain.ContentImage, error) {
	if a.Media == nil {
		return nil, apperr.New(apperr.KindConfigMissing, "media subsystem not configured", nil)
	}
	tier := imagegen.TierHigh
	switch in.Tier {
	case string(imagegen.TierLow):
		tier = imagegen.TierLow
	case string(imagegen.TierMedium):
		tier = imagegen.TierMedium
	}
	images, err := a.Media.SequentialImages(ctx, in.Prompts, in.Slug, in.Role, tier, in.AspectRatio)
	if err != nil {
		return nil, wrapActivityErr(err)
	}
	return images, nil
}

// ExtractLogoInput is Workflow D step 5's input: a list of candidate logo
// URLs found on the company's site, normalized onto the CDN under a
// deterministic public-id.
type ExtractLogoInput struct {
	CandidateURLs []string
	Slug          string
}

type ExtractLogoOutput struct {
	LogoURL string `json:"logo_url"`
}

// ExtractLogo uploads the first usable logo candidate to the CDN under
// "company-logos/{slug}". The pack carries no pixel-level image-resize
// library (checked: none of the example repos import one), so "normalize to
// 400x400" is expressed as a CDN delivery-URL convention - company logo
// consumers request the asset through the CDN's transform query params
// rather than this activity pre-rendering a fixed-size bitmap.
func (a *Activities) ExtractLogo(ctx context.Context, in ExtractLogoInput) (ExtractLogoOutput, error) {
	if a.Crawl == nil {
		return ExtractLogoOutput{}, apperr.New(apperr.KindConfigMissing, "crawl adapter not configured", nil)
	}
	var lastErr error
	for _, candidate := range in.CandidateURLs {
		url, err := a.Media.CDN.Upload(ctx, candidate, "company-logos", in.Slug, true)
		if err != nil {
			lastErr = err
			continue
		}
		return ExtractLogoOutput{LogoURL: url}, nil
	}
	if lastErr != nil {
		return ExtractLogoOutput{}, wrapActivityErr(lastErr)
	}
	return ExtractLogoOutput{}, apperr.New(apperr.KindUnknown, fmt.Sprintf("no logo candidates found for %s", in.Slug), nil)
}

// Package media implements the three media-subsystem algorithms from
// spec §4.5: video generation and act alignment, section-image analysis
// and injection, and image-sequence generation with context chaining.
// Grounded on original_source's video_generation.py / image_generation.py
// and the teacher's adapter-composition style (one struct wiring several
// internal/clients adapters, no business logic inside the adapters
// themselves).
package media

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/contentforge/pipeline/internal/clients/cdn"
	"github.com/contentforge/pipeline/internal/clients/imagegen"
	"github.com/contentforge/pipeline/internal/clients/llm"
	"github.com/contentforge/pipeline/internal/clients/mediahost"
	"github.com/contentforge/pipeline/internal/clients/videogen"
	"github.com/contentforge/pipeline/internal/domain"
	"github.com/contentforge/pipeline/internal/platform/apperr"
)

const videoPromptCharLimit = 2000
const promptUsedStoredChars = 500
const noOnScreenTextRule = "No on-screen text, captions, subtitles, or written words of any kind should appear in the video."

// Media wires the adapters the §4.5 algorithms need into one entry point.
// LLM may be nil; the section-timestamp classifier then always falls back
// to even distribution.
type Media struct {
	VideoGen  *videogen.Adapter
	MediaHost *mediahost.Adapter
	ImageGen  *imagegen.Adapter
	CDN       *cdn.Adapter
	LLM       llm.Client
}

func New(videoGen *videogen.Adapter, mediaHost *mediahost.Adapter, imageGen *imagegen.Adapter, cdnAdapter *cdn.Adapter, llmClient llm.Client) *Media {
	return &Media{VideoGen: videoGen, MediaHost: mediaHost, ImageGen: imageGen, CDN: cdnAdapter, LLM: llmClient}
}

// MakeVideoRequest is the make_video(narrative) contract input, expanded
// into the fields the prompt/passthrough builders need.
type MakeVideoRequest struct {
	Acts              []domain.FourActEntry
	AppStyleDirective string
	Title             string
	Mode              string
	Country           string
	App               string
	ClusterID         string
	ArticleID         string
	Tier              videogen.ModelTier
	AspectRatio       string
	// ReferenceImageURL conditions generation on a prior character/frame
	// image, used by the country guide's non-hero segment videos for visual
	// continuity with the hero segment (spec §4.8 Workflow C step 2).
	ReferenceImageURL string
}

// MakeVideo runs §4.5.1 steps 1-4: prompt build, generation, upload+poll,
// and VideoNarrative assembly. Retries on rate_limited/upstream_5xx are the
// orchestrator's responsibility (spec §4.8), not this function's.
func (m *Media) MakeVideo(ctx context.Context, req MakeVideoRequest) (*domain.VideoNarrative, error) {
	if len(req.Acts) == 0 {
		return nil, apperr.New(apperr.KindSchemaValidation, "make_video requires at least one act", nil)
	}
	prompt := buildVideoPrompt(req.AppStyleDirective, req.Acts)
	duration := len(req.Acts) * 3

	genResult, err := m.VideoGen.Generate(ctx, prompt, duration, req.AspectRatio, req.Tier, req.ReferenceImageURL)
	if err != nil {
		return nil, err
	}

	passthrough := buildPassthrough(req.Title, req.Mode, req.Country, req.App, req.ClusterID, req.ArticleID)
	dashboardMeta := map[string]string{"title": req.Title, "country": req.Country, "mode": req.Mode, "app": req.App}
	uploadResult, err := m.MediaHost.Upload(ctx, genResult.VideoURL, passthrough, dashboardMeta, nil)
	if err != nil {
		return nil, err
	}

	return buildVideoNarrative(uploadResult, req.Acts, prompt), nil
}

// ReuseVideo implements §4.5.3: a topic-cluster child never regenerates
// video, it inherits the parent's VideoNarrative verbatim except for the
// reused_from_parent marker.
func ReuseVideo(parent *domain.VideoNarrative) *domain.VideoNarrative {
	if parent == nil {
		return nil
	}
	clone := *parent
	clone.ReusedFromParent = true
	return &clone
}

func buildVideoPrompt(appStyleDirective string, acts []domain.FourActEntry) string {
	var sb strings.Builder
	sb.WriteString(noOnScreenTextRule)
	if appStyleDirective != "" {
		sb.WriteString(" " + appStyleDirective)
	}
	for i, a := range acts {
		startS := float64(i * 3)
		endS := float64((i + 1) * 3)
		sb.WriteString(fmt.Sprintf(" ACT %d (%.0fs - %.0fs): %s.", i+1, startS, endS, a.VisualHint))
	}
	return domain.TruncatePrompt(sb.String(), videoPromptCharLimit)
}

// buildPassthrough builds the Mux passthrough string per §4.5.1 step 3's
// exact format, capped at 255 chars.
func buildPassthrough(title, mode, country, app, clusterID, articleID string) string {
	t := title
	if len(t) > 80 {
		t = t[:80]
	}
	cid := clusterID
	if len(cid) > 8 {
		cid = cid[:8]
	}
	p := fmt.Sprintf("%s | %s | %s | app:%s | cluster:%s | id:%s", t, mode, country, app, cid, articleID)
	if len(p) > 255 {
		p = p[:255]
	}
	return p
}

func buildVideoNarrative(u mediahost.UploadResult, entries []domain.FourActEntry, promptUsed string) *domain.VideoNarrative {
	acts := domain.BuildActs(entries)
	perActThumb := make([]string, len(acts))
	for i := range acts {
		perActThumb[i] = mediahost.BuildThumbnailURL(u.PlaybackID, domain.ActMidpoint(i), mediahost.ThumbnailOptions{Width: 960, SmartCrop: true})
	}
	heroTime := domain.ActMidpoint(len(acts) - 1)

	return &domain.VideoNarrative{
		PlaybackID:      u.PlaybackID,
		AssetID:         u.AssetID,
		DurationSeconds: u.DurationS,
		Acts:            acts,
		MuxURLs: domain.MuxURLs{
			Stream:      mediahost.BuildStreamURL(u.PlaybackID),
			HeroThumb:   mediahost.BuildThumbnailURL(u.PlaybackID, heroTime, mediahost.ThumbnailOptions{Width: 1280, SmartCrop: true}),
			GIF:         mediahost.BuildAnimatedURL(u.PlaybackID, mediahost.FormatGIF, 0, u.DurationS, 480, 12),
			PerActThumb: perActThumb,
		},
		PromptUsed:   domain.TruncatePrompt(promptUsed, promptUsedStoredChars),
		TemplateName: "four_act",
	}
}

var h2HeaderRe = regexp.MustCompile(`(?m)^##[ \t]+[^\n]*$`)

const evenDistributionMargin = 0.5

// InjectSectionImages implements §4.5.2: split on h2 boundaries, choose a
// thumbnail time per section (LLM classifier with even-distribution
// fallback), and insert a figure element after each header. Preamble
// content before the first h2 is left untouched.
func (m *Media) InjectSectionImages(ctx context.Context, content string, video *domain.VideoNarrative) (string, error) {
	if video == nil || video.PlaybackID == "" {
		return content, nil
	}
	locs := h2HeaderRe.FindAllStringIndex(content, -1)
	if len(locs) == 0 {
		return content, nil
	}

	titles := make([]string, len(locs))
	for i, loc := range locs {
		titles[i] = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(content[loc[0]:loc[1]]), "##"))
	}

	var times []float64
	if len(video.Acts) >= 4 {
		if t, err := m.classifyTimestamps(ctx, titles, video.Acts); err == nil {
			times = t
		}
	}
	if times == nil {
		times = evenlyDistribute(len(titles), video.DurationSeconds)
	}

	var sb strings.Builder
	sb.WriteString(content[:locs[0][0]])
	for i, loc := range locs {
		headerEnd := loc[1]
		bodyEnd := len(content)
		if i+1 < len(locs) {
			bodyEnd = locs[i+1][0]
		}
		sb.WriteString(content[loc[0]:headerEnd])
		sb.WriteString("\n\n")
		sb.WriteString(figureTag(video.PlaybackID, times[i], 960))
		sb.WriteString("\n")
		sb.WriteString(content[headerEnd:bodyEnd])
	}
	return sb.String(), nil
}

func figureTag(playbackID string, t float64, width int) string {
	url := mediahost.BuildThumbnailURL(playbackID, t, mediahost.ThumbnailOptions{Width: width, SmartCrop: true})
	return fmt.Sprintf(`<figure class="content-image aspect-video"><img src="%s" loading="lazy" alt=""/></figure>`, url)
}

// evenlyDistribute implements the fallback t_i = margin + step*i + step/2
// formula from §4.5.2 step 2.
func evenlyDistribute(n int, duration float64) []float64 {
	if n <= 0 {
		return nil
	}
	step := (duration - 2*evenDistributionMargin) / float64(n)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = evenDistributionMargin + step*float64(i) + step/2
	}
	return out
}

// classifyTimestamps invokes the small LLM classifier described in §4.5.2
// step 2, clamping results to the valid act range.
func (m *Media) classifyTimestamps(ctx context.Context, titles []string, acts []domain.Act) ([]float64, error) {
	if m.LLM == nil {
		return nil, apperr.New(apperr.KindConfigMissing, "no llm client configured for section classifier", nil)
	}
	actDescs := make([]string, len(acts))
	for i, a := range acts {
		actDescs[i] = fmt.Sprintf("ACT %d (%.1fs-%.1fs): %s", i, a.StartS, a.EndS, a.VisualHint)
	}
	system := "You align article section titles to the best-matching video act. For each section, in order, return the timestamp (seconds) of the act midpoint that best illustrates it. Acts may be reused across sections."
	user := fmt.Sprintf("Section titles:\n%s\n\nActs:\n%s", strings.Join(titles, "\n"), strings.Join(actDescs, "\n"))
	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"timestamps": map[string]interface{}{
				"type":     "array",
				"items":    map[string]interface{}{"type": "number"},
				"minItems": len(titles),
				"maxItems": len(titles),
			},
		},
		"required": []string{"timestamps"},
	}
	raw, err := m.LLM.GenerateJSON(ctx, system, user, "section_timestamps", schema)
	if err != nil {
		return nil, err
	}
	arr, ok := raw["timestamps"].([]interface{})
	if !ok || len(arr) != len(titles) {
		return nil, apperr.New(apperr.KindSchemaValidation, "classifier returned wrong-length timestamps", nil)
	}
	minS, maxS := acts[0].StartS, acts[len(acts)-1].EndS
	out := make([]float64, len(arr))
	for i, v := range arr {
		f, ok := v.(float64)
		if !ok {
			return nil, apperr.New(apperr.KindSchemaValidation, "classifier timestamp not numeric", nil)
		}
		if f < minS {
			f = minS
		}
		if f > maxS {
			f = maxS
		}
		out[i] = f
	}
	return out, nil
}

// SequentialImages implements §4.5.2 step 4: non-video pipelines generate a
// sequence of standalone images with context chaining (each prompt after
// the first is conditioned on the previous image URL), uploaded to CDN
// under deterministic public-ids "{slug}_{role}_{index}".
func (m *Media) SequentialImages(ctx context.Context, prompts []string, slug, role string, tier imagegen.ModelTier, aspectRatio string) ([]domain.ContentImage, error) {
	images := make([]domain.ContentImage, 0, len(prompts))
	contextURL := ""
	for i, prompt := range prompts {
		result, err := m.ImageGen.Generate(ctx, prompt, aspectRatio, contextURL, tier)
		if err != nil {
			return nil, err
		}
		publicID := fmt.Sprintf("%s_%s_%d", slug, role, i)
		cdnURL, err := m.CDN.Upload(ctx, result.ImageURL, "images", publicID, true)
		if err != nil {
			return nil, err
		}
		images = append(images, domain.ContentImage{URL: cdnURL, Alt: result.RevisedPrompt})
		contextURL = result.ImageURL
	}
	return images, nil
}

package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/contentforge/pipeline/internal/domain"
)

func twiceRetry(timeout time.Duration) workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: timeout,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 3},
	}
}

// ArticleCreationWorkflow implements Workflow A (spec §4.8): research,
// narrative, section analysis, video, image injection, draft persistence,
// republish with media bindings, then best-effort KG sync.
func ArticleCreationWorkflow(ctx workflow.Context, in ArticleInput) (ArticleOutput, error) {
	if err := in.Seed.Validate(); err != nil {
		return ArticleOutput{}, err
	}

	// Phase 1: research.
	researchCtx := workflow.WithActivityOptions(ctx, twiceRetry(timeoutResearch))
	var research domain.ResearchResult
	if err := workflow.ExecuteActivity(researchCtx, ActivityResearch, ResearchInput{Seed: in.Seed}).Get(ctx, &research); err != nil {
		return ArticleOutput{}, err
	}
	if len(research.Curated.Entries) == 0 {
		return ArticleOutput{}, fmt.Errorf("article creation: empty research for topic %q", in.Seed.Topic)
	}

	// Phase 2: narrative generation.
	narrativeCtx := workflow.WithActivityOptions(ctx, twiceRetry(timeoutNarrative))
	targetWordCount := in.Seed.TargetWordCount
	if targetWordCount == 0 {
		targetWordCount = 1200
	}
	var payload *domain.NarrativePayload
	genIn := GenerateNarrativeInput{
		Topic: in.Seed.Topic, ArticleType: in.Seed.ArticleType, App: in.Seed.App,
		ArticleMode: in.ArticleMode, Jurisdiction: in.Seed.Jurisdiction,
		TargetWordCount: targetWordCount, FourAct: in.FourAct, Research: research,
		ClusterID: in.ClusterID, ParentID: in.ParentID,
	}
	if err := workflow.ExecuteActivity(narrativeCtx, ActivityGenerateNarrative, genIn).Get(ctx, &payload); err != nil {
		return ArticleOutput{}, err
	}

	// Phase 3: section analysis.
	analysisCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{StartToCloseTimeout: timeoutSectionAnalysis})
	var analysis SectionAnalysisOutput
	if err := workflow.ExecuteActivity(analysisCtx, ActivityAnalyzeSections, AnalyzeSectionsInput{Payload: payload}).Get(ctx, &analysis); err != nil {
		return ArticleOutput{}, err
	}

	// Phase 4: video generation + upload, heartbeating. Per spec §7, a media
	// failure here degrades the article to text-only rather than aborting
	// the whole workflow - the research/narrative phases above already
	// produced a publishable article on their own.
	var video *domain.VideoNarrative
	var warnings []string
	if analysis.IsMultiAct {
		videoCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
			StartToCloseTimeout: timeoutVideoGen,
			HeartbeatTimeout:    heartbeatVideoGen,
			RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 3},
		})
		if in.ReuseVideoFrom != nil {
			if err := workflow.ExecuteActivity(videoCtx, ActivityReuseVideo, ReuseVideoInput{Parent: in.ReuseVideoFrom}).Get(ctx, &video); err != nil {
				workflow.GetLogger(ctx).Warn("video reuse degraded, continuing text-only", "error", err)
				video = nil
				warnings = append(warnings, "video_generation_failed")
			}
		} else {
			quality := in.VideoQuality
			if quality == "" {
				quality = "high"
			}
			mvIn := MakeVideoInput{
				Acts: payload.FourActContent, Title: payload.Title, Mode: string(payload.ArticleMode),
				Country: in.Seed.CountryName, App: in.Seed.App, ClusterID: in.ClusterID,
				ArticleID: in.ParentID, Tier: quality, AspectRatio: "16:9",
			}
			if err := workflow.ExecuteActivity(videoCtx, ActivityMakeVideo, mvIn).Get(ctx, &video); err != nil {
				workflow.GetLogger(ctx).Warn("video generation degraded, continuing text-only", "error", err)
				video = nil
				warnings = append(warnings, "video_generation_failed")
			}
		}
	}

	// Phase 5: section image injection (only meaningful once there's a video).
	// Also best-effort: a failure here still leaves the video's playback id
	// usable, just without inline section stills.
	if video != nil {
		injectCtx := workflow.WithActivityOptions(ctx, twiceRetry(timeoutNarrative))
		var injected InjectSectionImagesOutput
		in := InjectSectionImagesInput{Content: payload.Content, Video: video}
		if err := workflow.ExecuteActivity(injectCtx, ActivityInjectSectionImages, in).Get(ctx, &injected); err != nil {
			workflow.GetLogger(ctx).Warn("section image injection degraded, keeping plain sections", "error", err)
			warnings = append(warnings, "section_image_injection_failed")
		} else {
			payload.Content = injected.Content
		}
		payload.VideoPlaybackID = video.PlaybackID
		payload.VideoNarrative = video
	}

	// Phase 6: persist as draft.
	payload.App = in.Seed.App
	payload.Status = domain.StatusDraft
	persistCtx := workflow.WithActivityOptions(ctx, twiceRetry(timeoutPersist))
	var draftOut UpsertArticleOutput
	if err := workflow.ExecuteActivity(persistCtx, ActivityUpsertArticle, UpsertArticleInput{Payload: payload}).Get(ctx, &draftOut); err != nil {
		return ArticleOutput{}, err
	}

	// Phase 7: republish with media bindings.
	payload.Status = domain.StatusPublished
	now := workflow.Now(ctx)
	payload.PublishedAt = &now
	var publishOut UpsertArticleOutput
	if err := workflow.ExecuteActivity(persistCtx, ActivityUpsertArticle, UpsertArticleInput{Payload: payload}).Get(ctx, &publishOut); err != nil {
		return ArticleOutput{}, err
	}

	// Phase 8: KG sync, best-effort.
	kgCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{StartToCloseTimeout: timeoutKGSync})
	kgIn := SyncKnowledgeGraphInput{App: in.Seed.App, ContentID: publishOut.ArticleID, Title: payload.Title, Content: payload.Content}
	_ = workflow.ExecuteActivity(kgCtx, ActivitySyncKnowledgeGraph, kgIn).Get(ctx, nil)

	status := ArticleStatusCreated
	if len(warnings) > 0 {
		status = ArticleStatusCreatedWithWarnings
	}
	out := ArticleOutput{
		Status: status, ArticleID: publishOut.ArticleID, Slug: payload.Slug,
		WordCount: payload.WordCount, TotalCost: research.TotalCost, Errors: warnings,
	}
	if video != nil {
		out.VideoPlaybackID = video.PlaybackID
	}
	return out, nil
}

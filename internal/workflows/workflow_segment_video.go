package workflows

import (
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/contentforge/pipeline/internal/domain"
)

// SegmentVideoWorkflow implements Workflow E (spec §4.8): one video per
// country-guide segment, isolated in its own workflow so a single
// segment's failure doesn't take down the other four.
func SegmentVideoWorkflow(ctx workflow.Context, in SegmentVideoInput) (SegmentVideoOutput, error) {
	videoCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: timeoutVideoGen,
		HeartbeatTimeout:    heartbeatVideoGen,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 3},
	})
	mvIn := MakeVideoInput{
		Acts: in.FourActContent, Title: in.Segment, Mode: "segment", Country: in.CountryName,
		App: in.App, ArticleID: in.ArticleID, Tier: in.VideoQuality, AspectRatio: "9:16",
		ReferenceImageURL: in.CharacterRefURL,
	}
	var video *domain.VideoNarrative
	if err := workflow.ExecuteActivity(videoCtx, ActivityMakeVideo, mvIn).Get(ctx, &video); err != nil {
		return SegmentVideoOutput{}, err
	}

	segment := domain.SegmentVideo{
		Segment: in.Segment, AssetID: video.AssetID, PlaybackID: video.PlaybackID,
		Acts: video.Acts, ThumbnailURLs: video.MuxURLs.PerActThumb, CharacterRefURL: in.CharacterRefURL,
	}
	// The hero segment's first-act thumbnail becomes the character
	// reference image the remaining four segments receive, per spec §4.8
	// step 2's continuity requirement.
	referenceURL := ""
	if in.Segment == "hero" {
		referenceURL = video.MuxURLs.HeroThumb
	}
	return SegmentVideoOutput{Segment: segment, ReferenceURL: referenceURL}, nil
}

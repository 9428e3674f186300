package workflows

import (
	"fmt"

	"go.temporal.io/sdk/workflow"

	"github.com/contentforge/pipeline/internal/domain"
)

// TopicClusterWorkflow implements Workflow F (spec §4.8): a narrower
// article tied to a discovered keyword, skipping video generation entirely
// and reusing the parent's video for section-image thumbnails, persisted
// with article_mode=topic and parent_id set.
func TopicClusterWorkflow(ctx workflow.Context, in TopicClusterInput) (TopicClusterOutput, error) {
	researchCtx := workflow.WithActivityOptions(ctx, twiceRetry(timeoutResearch))
	var research domain.ResearchResult
	researchIn := ResearchInput{Seed: in.Seed}
	if err := workflow.ExecuteActivity(researchCtx, ActivityResearch, researchIn).Get(ctx, &research); err != nil {
		return TopicClusterOutput{}, err
	}

	narrativeCtx := workflow.WithActivityOptions(ctx, twiceRetry(timeoutNarrative))
	var payload *domain.NarrativePayload
	genIn := GenerateNarrativeInput{
		Topic: in.TargetKeyword, ArticleType: "topic", App: in.Seed.App,
		ArticleMode: domain.ArticleModeTopic, TargetKeywords: []string{in.TargetKeyword},
		TargetWordCount: 800, Research: research, ClusterID: in.ClusterID, ParentID: in.ParentID,
	}
	if err := workflow.ExecuteActivity(narrativeCtx, ActivityGenerateNarrative, genIn).Get(ctx, &payload); err != nil {
		return TopicClusterOutput{}, err
	}
	payload.TargetKeyword = in.TargetKeyword
	payload.KeywordVolume = in.KeywordVolume

	// §4.5.3: never generate video, reuse the parent's for thumbnails.
	if in.ParentVideoNarrative != nil {
		reuseCtx := workflow.WithActivityOptions(ctx, twiceRetry(timeoutPersist))
		var video *domain.VideoNarrative
		reuseIn := ReuseVideoInput{Parent: in.ParentVideoNarrative}
		if err := workflow.ExecuteActivity(reuseCtx, ActivityReuseVideo, reuseIn).Get(ctx, &video); err == nil {
			injectCtx := workflow.WithActivityOptions(ctx, twiceRetry(timeoutNarrative))
			var injected InjectSectionImagesOutput
			injectIn := InjectSectionImagesInput{Content: payload.Content, Video: video}
			if err := workflow.ExecuteActivity(injectCtx, ActivityInjectSectionImages, injectIn).Get(ctx, &injected); err == nil {
				payload.Content = injected.Content
			}
			payload.VideoPlaybackID = video.PlaybackID
			payload.VideoNarrative = video
		}
	} else if in.ParentPlaybackID != "" {
		payload.VideoPlaybackID = in.ParentPlaybackID
	}

	payload.App = in.Seed.App
	payload.Status = domain.StatusPublished

	persistCtx := workflow.WithActivityOptions(ctx, twiceRetry(timeoutPersist))
	var out UpsertArticleOutput
	if err := workflow.ExecuteActivity(persistCtx, ActivityUpsertArticle, UpsertArticleInput{Payload: payload}).Get(ctx, &out); err != nil {
		return TopicClusterOutput{}, err
	}

	kgCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{StartToCloseTimeout: timeoutKGSync})
	kgIn := SyncKnowledgeGraphInput{App: in.Seed.App, ContentID: out.ArticleID, Title: payload.Title, Content: payload.Content}
	_ = workflow.ExecuteActivity(kgCtx, ActivitySyncKnowledgeGraph, kgIn).Get(ctx, nil)

	if payload.Slug == "" {
		return TopicClusterOutput{}, fmt.Errorf("topic cluster %s: narrative produced no slug", in.ClusterID)
	}
	return TopicClusterOutput{ArticleID: out.ArticleID, Slug: payload.Slug}, nil
}

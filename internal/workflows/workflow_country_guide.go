package workflows

import (
	"fmt"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/workflow"

	"github.com/contentforge/pipeline/internal/domain"
)

// countryGuideSegments is the fixed segment set of spec §4.8 Workflow C
// step 2, in this exact order so the hero child (which produces the
// character-reference image) always runs before the rest.
var countryGuideSegments = []string{"hero", "family", "finance", "daily", "yolo"}

// maxTopicClusters caps how many discovered-keyword children Workflow C
// spawns per run; the spec names "high-value discovered keywords" without a
// hard count, so this activity treats research's curated perspectives list
// as the keyword source and caps fan-out to keep a single country-guide run
// bounded.
const maxTopicClusters = 5

// CountryGuideWorkflow implements Workflow C (spec §4.8): a country hero
// narrative, five child segment videos (hero first, synchronously, so its
// character-reference image can be handed to the rest), topic-cluster
// children for discovered keywords (spawned parent-abandon so they survive
// this workflow's completion), then hub aggregation.
func CountryGuideWorkflow(ctx workflow.Context, in CountryGuideInput) (CountryGuideOutput, error) {
	if err := in.Seed.Validate(); err != nil {
		return CountryGuideOutput{}, err
	}

	researchCtx := workflow.WithActivityOptions(ctx, twiceRetry(timeoutResearch))
	var research domain.ResearchResult
	if err := workflow.ExecuteActivity(researchCtx, ActivityResearch, ResearchInput{Seed: in.Seed}).Get(ctx, &research); err != nil {
		return CountryGuideOutput{}, err
	}

	// clusterID is shared by the guide article (parent_id="") and every
	// topic-cluster child spawned below (parent_id=guide article id), per
	// spec §3's cluster invariant: exactly one parent_id=null article per
	// cluster, children referencing it by both cluster_id and parent_id.
	clusterID := fmt.Sprintf("%s-guide", in.Seed.CountryCode)

	narrativeCtx := workflow.WithActivityOptions(ctx, twiceRetry(timeoutNarrative))
	var heroPayload *domain.NarrativePayload
	heroIn := GenerateNarrativeInput{
		Topic: fmt.Sprintf("%s relocation guide", in.Seed.CountryName), ArticleType: "guide",
		App: in.Seed.App, ArticleMode: domain.ArticleModeGuide, Jurisdiction: in.Seed.CountryCode,
		TargetWordCount: 1500, FourAct: true, Research: research,
		ClusterID: clusterID,
	}
	if err := workflow.ExecuteActivity(narrativeCtx, ActivityGenerateNarrative, heroIn).Get(ctx, &heroPayload); err != nil {
		return CountryGuideOutput{}, err
	}

	quality := in.Seed.VideoQuality
	if quality == "" {
		quality = "high"
	}

	segmentVideos := make(map[string]domain.SegmentVideo, len(countryGuideSegments))
	segmentVideoIDs := make([]string, 0, len(countryGuideSegments))

	// Hero runs first, synchronously, since its result seeds the
	// character-reference image the remaining four segments need.
	heroSegment := countryGuideSegments[0]
	heroSegIn := SegmentVideoInput{
		CountryName: in.Seed.CountryName, App: in.Seed.App, Segment: heroSegment,
		VideoQuality: quality, FourActContent: heroPayload.FourActContent,
	}
	heroChildCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
		WorkflowID: workflow.GetInfo(ctx).WorkflowExecution.ID + "-segment-" + heroSegment,
	})
	var heroOut SegmentVideoOutput
	if err := workflow.ExecuteChildWorkflow(heroChildCtx, SegmentVideoWorkflow, heroSegIn).Get(ctx, &heroOut); err != nil {
		return CountryGuideOutput{}, err
	}
	characterRefURL := heroOut.ReferenceURL
	segmentVideos[heroSegment] = heroOut.Segment
	segmentVideoIDs = append(segmentVideoIDs, heroOut.Segment.PlaybackID)

	remaining := countryGuideSegments[1:]
	futures := make([]workflow.ChildWorkflowFuture, 0, len(remaining))
	for _, segment := range remaining {
		segIn := SegmentVideoInput{
			CountryName: in.Seed.CountryName, App: in.Seed.App, Segment: segment,
			VideoQuality: quality, FourActContent: heroPayload.FourActContent,
			CharacterRefURL: characterRefURL,
		}
		childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
			WorkflowID: workflow.GetInfo(ctx).WorkflowExecution.ID + "-segment-" + segment,
		})
		futures = append(futures, workflow.ExecuteChildWorkflow(childCtx, SegmentVideoWorkflow, segIn))
	}
	for i, future := range futures {
		var out SegmentVideoOutput
		if err := future.Get(ctx, &out); err != nil {
			continue
		}
		segmentVideos[remaining[i]] = out.Segment
		segmentVideoIDs = append(segmentVideoIDs, out.Segment.PlaybackID)
	}

	// Persist the guide/hero narrative as the cluster's parent article (spec
	// §3: exactly one parent_id=null article per cluster) before spawning
	// topic-cluster children, so each child can reference it by both
	// cluster_id and parent_id.
	heroPayload.App = in.Seed.App
	heroPayload.Status = domain.StatusPublished
	heroPayload.VideoPlaybackID = segmentVideos[heroSegment].PlaybackID
	publishedAt := workflow.Now(ctx)
	heroPayload.PublishedAt = &publishedAt
	persistCtx := workflow.WithActivityOptions(ctx, twiceRetry(timeoutPersist))
	var guideArticleOut UpsertArticleOutput
	if err := workflow.ExecuteActivity(persistCtx, ActivityUpsertArticle, UpsertArticleInput{Payload: heroPayload}).Get(ctx, &guideArticleOut); err != nil {
		return CountryGuideOutput{}, err
	}

	topicClusterIDs := make([]string, 0, maxTopicClusters)
	keywords := research.Perspectives
	if len(keywords) > maxTopicClusters {
		keywords = keywords[:maxTopicClusters]
	}
	for i, keyword := range keywords {
		childID := fmt.Sprintf("%s-topic-%d", clusterID, i)
		tcIn := TopicClusterInput{
			Seed: in.Seed, ClusterID: clusterID, ParentID: guideArticleOut.ArticleID,
			ParentPlaybackID: segmentVideos["hero"].PlaybackID, ParentFourActContent: heroPayload.FourActContent,
			TargetKeyword: keyword, PlanningType: "discovered",
		}
		childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
			WorkflowID:        workflow.GetInfo(ctx).WorkflowExecution.ID + "-" + childID,
			ParentClosePolicy: enumspb.PARENT_CLOSE_POLICY_ABANDON,
		})
		childFuture := workflow.ExecuteChildWorkflow(childCtx, TopicClusterWorkflow, tcIn)
		// Parent-abandon children only need to be confirmed started, not
		// awaited to completion, so this workflow can proceed to hub
		// aggregation without blocking on their full duration.
		if err := childFuture.GetChildWorkflowExecution().Get(ctx, nil); err != nil {
			continue
		}
		topicClusterIDs = append(topicClusterIDs, childID)
	}

	hub := &domain.Hub{
		CountryCode: in.Seed.CountryCode, Slug: heroPayload.Slug, Title: heroPayload.Title,
		MetaDescription: heroPayload.MetaDescription, HubContent: heroPayload.Content,
		VideoPlaybackID: segmentVideos["hero"].PlaybackID, Status: domain.StatusPublished,
		Payload: domain.HubPayload{ClusterArticles: topicClusterIDs, SegmentVideos: segmentVideos},
	}
	var hubOut UpsertHubOutput
	if err := workflow.ExecuteActivity(persistCtx, ActivityUpsertHub, UpsertHubInput{Hub: hub}).Get(ctx, &hubOut); err != nil {
		return CountryGuideOutput{}, err
	}

	return CountryGuideOutput{
		CountryCode: in.Seed.CountryCode, HubSlug: hub.Slug,
		SegmentVideos: segmentVideoIDs, TopicClusterIDs: topicClusterIDs,
	}, nil
}

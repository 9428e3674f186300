package workflows

import (
	"sort"

	"go.temporal.io/sdk/workflow"

	"github.com/contentforge/pipeline/internal/domain"
)

const defaultTopK = 3
const defaultMinRelevance = 0.5

// NewsMonitorWorkflow implements Workflow B (spec §4.8): fetch news for an
// app's keyword set, assess relevance against recently published articles,
// then fan out a child ArticleCreationWorkflow per top-K story.
func NewsMonitorWorkflow(ctx workflow.Context, in NewsMonitorInput) (NewsMonitorOutput, error) {
	topK := in.TopK
	if topK == 0 {
		topK = defaultTopK
	}
	minRelevance := in.MinRelevance
	if minRelevance == 0 {
		minRelevance = defaultMinRelevance
	}

	fetchCtx := workflow.WithActivityOptions(ctx, twiceRetry(timeoutResearch))
	var stories FetchNewsStoriesOutput
	fetchIn := FetchNewsStoriesInput{App: in.App, Keywords: []string{in.App}}
	if err := workflow.ExecuteActivity(fetchCtx, ActivityFetchNewsStories, fetchIn).Get(ctx, &stories); err != nil {
		return NewsMonitorOutput{}, err
	}

	persistCtx := workflow.WithActivityOptions(ctx, twiceRetry(timeoutPersist))
	var recent []*domain.NarrativePayload
	recentIn := GetRecentArticlesInput{App: in.App, Limit: 50}
	if err := workflow.ExecuteActivity(persistCtx, ActivityGetRecentArticles, recentIn).Get(ctx, &recent); err != nil {
		return NewsMonitorOutput{}, err
	}
	recentTitles := make([]string, 0, len(recent))
	for _, p := range recent {
		recentTitles = append(recentTitles, p.Title)
	}

	if len(stories.Stories) == 0 {
		return NewsMonitorOutput{StoriesConsidered: 0}, nil
	}

	assessCtx := workflow.WithActivityOptions(ctx, twiceRetry(timeoutResearch))
	var assessment AssessRelevanceOutput
	assessIn := AssessRelevanceInput{App: in.App, Stories: stories.Stories, RecentArticles: recentTitles, MinRelevance: minRelevance}
	if err := workflow.ExecuteActivity(assessCtx, ActivityAssessRelevance, assessIn).Get(ctx, &assessment); err != nil {
		return NewsMonitorOutput{}, err
	}

	// AssessRelevance already sorts by (priority, -relevance_score); guard
	// against a stale cached result by re-sorting deterministically here
	// too, since child-spawn order must itself be deterministic (spec §5).
	sort.SliceStable(assessment.Assessments, func(i, j int) bool {
		pi, pj := priorityRank[assessment.Assessments[i].Priority], priorityRank[assessment.Assessments[j].Priority]
		if pi != pj {
			return pi > pj
		}
		return assessment.Assessments[i].RelevanceScore > assessment.Assessments[j].RelevanceScore
	})
	if len(assessment.Assessments) > topK {
		assessment.Assessments = assessment.Assessments[:topK]
	}

	childrenStarted := make([]string, 0, len(assessment.Assessments))
	for _, pick := range assessment.Assessments {
		childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
			WorkflowID: workflow.GetInfo(ctx).WorkflowExecution.ID + "-article-" + pick.Story.URL,
		})
		childIn := ArticleInput{
			Seed: domain.Seed{
				Kind: domain.SeedKindTopic, Topic: pick.Story.Title, App: in.App,
				ArticleType: "news",
			},
			ArticleMode: domain.ArticleModeStory,
		}
		future := workflow.ExecuteChildWorkflow(childCtx, ArticleCreationWorkflow, childIn)
		var childOut ArticleOutput
		if err := future.Get(ctx, &childOut); err != nil {
			continue
		}
		childrenStarted = append(childrenStarted, childOut.ArticleID)
	}

	return NewsMonitorOutput{StoriesConsidered: len(stories.Stories), ChildrenStarted: childrenStarted}, nil
}

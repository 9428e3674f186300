package workflows

import (
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
)

// Register wires every workflow and activity of spec §4.8 onto w, named
// per the constants in types.go - grounded on the teacher's
// temporalworker.Runner.registerWorkflows/registerActivities pair, which
// registers one jobrun.Workflow/ActivityTick; generalized here to the full
// six-workflow, five-file activity set.
func Register(w worker.Worker, acts *Activities) {
	w.RegisterWorkflowWithOptions(ArticleCreationWorkflow, workflow.RegisterOptions{Name: WorkflowArticleCreation})
	w.RegisterWorkflowWithOptions(NewsMonitorWorkflow, workflow.RegisterOptions{Name: WorkflowNewsMonitor})
	w.RegisterWorkflowWithOptions(CountryGuideWorkflow, workflow.RegisterOptions{Name: WorkflowCountryGuide})
	w.RegisterWorkflowWithOptions(CompanyProfileWorkflow, workflow.RegisterOptions{Name: WorkflowCompanyProfile})
	w.RegisterWorkflowWithOptions(SegmentVideoWorkflow, workflow.RegisterOptions{Name: WorkflowSegmentVideo})
	w.RegisterWorkflowWithOptions(TopicClusterWorkflow, workflow.RegisterOptions{Name: WorkflowTopicCluster})

	w.RegisterActivityWithOptions(acts.Research, activity.RegisterOptions{Name: ActivityResearch})
	w.RegisterActivityWithOptions(acts.FetchNewsStories, activity.RegisterOptions{Name: ActivityFetchNewsStories})
	w.RegisterActivityWithOptions(acts.AssessRelevance, activity.RegisterOptions{Name: ActivityAssessRelevance})
	w.RegisterActivityWithOptions(acts.FindLogoCandidates, activity.RegisterOptions{Name: ActivityFindLogoCandidates})

	w.RegisterActivityWithOptions(acts.GenerateNarrative, activity.RegisterOptions{Name: ActivityGenerateNarrative})
	w.RegisterActivityWithOptions(acts.AnalyzeSections, activity.RegisterOptions{Name: ActivityAnalyzeSections})
	w.RegisterActivityWithOptions(acts.GenerateProfileNarrative, activity.RegisterOptions{Name: ActivityGenerateProfileNarrative})
	w.RegisterActivityWithOptions(acts.AssessAmbiguity, activity.RegisterOptions{Name: ActivityAssessAmbiguity})

	w.RegisterActivityWithOptions(acts.MakeVideo, activity.RegisterOptions{Name: ActivityMakeVideo})
	w.RegisterActivityWithOptions(acts.ReuseVideo, activity.RegisterOptions{Name: ActivityReuseVideo})
	w.RegisterActivityWithOptions(acts.InjectSectionImages, activity.RegisterOptions{Name: ActivityInjectSectionImages})
	w.RegisterActivityWithOptions(acts.SequentialImages, activity.RegisterOptions{Name: ActivitySequentialImages})
	w.RegisterActivityWithOptions(acts.ExtractLogo, activity.RegisterOptions{Name: ActivityExtractLogo})

	w.RegisterActivityWithOptions(acts.SyncKnowledgeGraph, activity.RegisterOptions{Name: ActivitySyncKnowledgeGraph})

	w.RegisterActivityWithOptions(acts.UpsertArticle, activity.RegisterOptions{Name: ActivityUpsertArticle})
	w.RegisterActivityWithOptions(acts.GetArticleBySlug, activity.RegisterOptions{Name: ActivityGetArticleBySlug})
	w.RegisterActivityWithOptions(acts.GetRecentArticles, activity.RegisterOptions{Name: ActivityGetRecentArticles})
	w.RegisterActivityWithOptions(acts.LinkArticleCompany, activity.RegisterOptions{Name: ActivityLinkArticleCompany})
	w.RegisterActivityWithOptions(acts.UpsertHub, activity.RegisterOptions{Name: ActivityUpsertHub})
	w.RegisterActivityWithOptions(acts.GetHubBySlug, activity.RegisterOptions{Name: ActivityGetHubBySlug})
	w.RegisterActivityWithOptions(acts.UpsertCompany, activity.RegisterOptions{Name: ActivityUpsertCompany})
	w.RegisterActivityWithOptions(acts.GetCompanyBySlug, activity.RegisterOptions{Name: ActivityGetCompanyBySlug})
	w.RegisterActivityWithOptions(acts.AppendScrapeHistory, activity.RegisterOptions{Name: ActivityAppendScrapeHistory})
	w.RegisterActivityWithOptions(acts.UpsertJobRecord, activity.RegisterOptions{Name: ActivityUpsertJobRecord})
	w.RegisterActivityWithOptions(acts.GetJobRecordByURL, activity.RegisterOptions{Name: ActivityGetJobRecordByURL})
	w.RegisterActivityWithOptions(acts.LinkArticleToCountry, activity.RegisterOptions{Name: ActivityLinkArticleToCountry})
	w.RegisterActivityWithOptions(acts.GetCountry, activity.RegisterOptions{Name: ActivityGetCountry})
}

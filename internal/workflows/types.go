// Package workflows implements Workflows A-F of spec §4.8 as named
// Temporal workflow functions, with activities grouped by responsibility
// (research/narrative/media/kg/persistence) rather than by pipeline -
// grounded on the teacher's internal/temporalx/jobrun package for the
// workflow/activity wiring idiom, generalized from its single generic
// tick-loop to one function per named workflow since each workflow here
// has its own deterministic phase sequence rather than a dispatch table.
package workflows

import (
	"time"

	"github.com/contentforge/pipeline/internal/domain"
)

// Workflow/activity type names registered with the Temporal worker.
const (
	WorkflowArticleCreation  = "ArticleCreationWorkflow"
	WorkflowNewsMonitor      = "NewsMonitorWorkflow"
	WorkflowCountryGuide     = "CountryGuideWorkflow"
	WorkflowCompanyProfile   = "CompanyProfileWorkflow"
	WorkflowSegmentVideo     = "SegmentVideoWorkflow"
	WorkflowTopicCluster     = "TopicClusterWorkflow"

	TaskQueue = "content-pipeline"
)

// Activity type names, registered with the Temporal worker in register.go
// and referenced by string in workflow code - grounded on the teacher's
// jobrun.ActivityTick constant, generalized from one activity to the full
// set grouped across activities_research.go/activities_narrative.go/
// activities_media.go/activities_kg.go/activities_persistence.go.
const (
	ActivityResearch           = "Research"
	ActivityFetchNewsStories   = "FetchNewsStories"
	ActivityAssessRelevance    = "AssessRelevance"
	ActivityFindLogoCandidates = "FindLogoCandidates"

	ActivityGenerateNarrative        = "GenerateNarrative"
	ActivityAnalyzeSections          = "AnalyzeSections"
	ActivityGenerateProfileNarrative = "GenerateProfileNarrative"
	ActivityAssessAmbiguity          = "AssessAmbiguity"

	ActivityMakeVideo            = "MakeVideo"
	ActivityReuseVideo           = "ReuseVideo"
	ActivityInjectSectionImages  = "InjectSectionImages"
	ActivitySequentialImages     = "SequentialImages"
	ActivityExtractLogo          = "ExtractLogo"

	ActivitySyncKnowledgeGraph = "SyncKnowledgeGraph"

	ActivityUpsertArticle        = "UpsertArticle"
	ActivityGetArticleBySlug     = "GetArticleBySlug"
	ActivityGetRecentArticles    = "GetRecentArticles"
	ActivityLinkArticleCompany   = "LinkArticleCompany"
	ActivityUpsertHub            = "UpsertHub"
	ActivityGetHubBySlug         = "GetHubBySlug"
	ActivityUpsertCompany        = "UpsertCompany"
	ActivityGetCompanyBySlug     = "GetCompanyBySlug"
	ActivityAppendScrapeHistory  = "AppendScrapeHistory"
	ActivityUpsertJobRecord      = "UpsertJobRecord"
	ActivityGetJobRecordByURL    = "GetJobRecordByURL"
	ActivityLinkArticleToCountry = "LinkArticleToCountry"
	ActivityGetCountry           = "GetCountry"
)

// ArticleInput is Workflow A's input - a topic seed plus the classification
// fields an article needs to carry end to end.
type ArticleInput struct {
	Seed            domain.Seed
	ClusterID       string
	ParentID        string
	ArticleMode     domain.ArticleMode
	FourAct         bool
	FourActContent  []domain.FourActEntry // pre-supplied for country-guide children; generated otherwise
	ReuseVideoFrom  *domain.VideoNarrative
	VideoQuality    string
	TargetKeyword   string
	KeywordVolume   *int
}

// Article lifecycle status values for ArticleOutput.Status, per spec §7:
// a run either completes clean, degrades (one or more best-effort phases
// failed but the article itself still got published), or fails outright.
const (
	ArticleStatusCreated             = "created"
	ArticleStatusCreatedWithWarnings = "created_with_warnings"
	ArticleStatusFailed              = "failed"
)

// ArticleOutput is Workflow A's result per spec §4.8.
type ArticleOutput struct {
	Status          string   `json:"status"`
	ArticleID       string   `json:"article_id"`
	Slug            string   `json:"slug"`
	WordCount       int      `json:"word_count"`
	VideoPlaybackID string   `json:"video_playback_id,omitempty"`
	TotalCost       float64  `json:"total_cost"`
	Errors          []string `json:"errors,omitempty"`
}

// NewsMonitorInput is Workflow B's input - a scheduled seed for one app.
type NewsMonitorInput struct {
	App           string
	TopK          int
	MinRelevance  float64
}

type NewsMonitorOutput struct {
	StoriesConsidered int      `json:"stories_considered"`
	ChildrenStarted   []string `json:"children_started"`
}

// CountryGuideInput is Workflow C's input.
type CountryGuideInput struct {
	Seed domain.Seed
}

type CountryGuideOutput struct {
	CountryCode     string   `json:"country_code"`
	HubSlug         string   `json:"hub_slug"`
	SegmentVideos   []string `json:"segment_videos"`
	TopicClusterIDs []string `json:"topic_cluster_ids"`
}

// CompanyProfileInput is Workflow D's input - a company URL seed.
type CompanyProfileInput struct {
	Seed domain.Seed
}

type CompanyProfileOutput struct {
	Status    string `json:"status"`
	CompanyID string `json:"company_id"`
	Slug      string `json:"slug"`
}

// SegmentVideoInput is Workflow E's input (child of C).
type SegmentVideoInput struct {
	CountryName         string
	App                 string
	Segment             string
	ArticleID           string
	VideoQuality        string
	FourActContent      []domain.FourActEntry
	CharacterRefURL      string
}

type SegmentVideoOutput struct {
	Segment       domain.SegmentVideo `json:"segment"`
	ReferenceURL  string              `json:"reference_image_url,omitempty"`
}

// TopicClusterInput is Workflow F's input (child of C).
type TopicClusterInput struct {
	Seed                  domain.Seed
	ClusterID             string
	ParentID              string
	ParentPlaybackID      string
	ParentFourActContent  []domain.FourActEntry
	ParentVideoNarrative  *domain.VideoNarrative
	TargetKeyword         string
	KeywordVolume         *int
	PlanningType          string
}

type TopicClusterOutput struct {
	ArticleID string `json:"article_id"`
	Slug      string `json:"slug"`
}

// activity start-to-close timeouts, per spec §4.8's per-phase durations.
const (
	timeoutResearch  = 2 * time.Minute
	timeoutNarrative = 3 * time.Minute
	timeoutSectionAnalysis = 30 * time.Second
	timeoutVideoGen  = 10 * time.Minute
	timeoutPersist   = 1 * time.Minute
	timeoutKGSync    = 1 * time.Minute
	heartbeatVideoGen = 30 * time.Second
)

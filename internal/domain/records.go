package domain

import "time"

// CountryRecord is read-mostly reference data for country hubs.
type CountryRecord struct {
	CountryCode string                 `json:"country_code"`
	Name        string                 `json:"name"`
	Slug        string                 `json:"slug"`
	Flag        string                 `json:"flag"`
	Region      string                 `json:"region"`
	Continent   string                 `json:"continent"`
	Facts       map[string]interface{} `json:"facts,omitempty"`
	VisaTypes   []string               `json:"visa_types,omitempty"`
}

// Hub is the country-level aggregation, upserted on (country_code, slug).
type Hub struct {
	CountryCode     string        `json:"country_code"`
	Slug            string        `json:"slug"`
	Title           string        `json:"title"`
	MetaDescription string        `json:"meta_description"`
	HubContent      string        `json:"hub_content"`
	Payload         HubPayload    `json:"payload"`
	SEOData         map[string]interface{} `json:"seo_data,omitempty"`
	VideoPlaybackID string        `json:"video_playback_id,omitempty"`
	Status          PayloadStatus `json:"status"`
}

// HubPayload aggregates cluster articles plus embedded sections, FAQ,
// voices, and quick stats into the hub's JSON column.
type HubPayload struct {
	ClusterArticles []string               `json:"cluster_articles"`
	Sections        []Section              `json:"sections,omitempty"`
	FAQ             []FAQEntry             `json:"faq,omitempty"`
	Voices          []string               `json:"voices,omitempty"`
	QuickStats      map[string]interface{} `json:"quick_stats,omitempty"`
	SegmentVideos   map[string]SegmentVideo `json:"segment_videos,omitempty"`
}

// FAQEntry is one question/answer pair in a Hub's FAQ list.
type FAQEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// SegmentVideo is the result of a SegmentVideoWorkflow child run (Workflow E).
type SegmentVideo struct {
	Segment           string   `json:"segment"`
	AssetID           string   `json:"asset_id"`
	PlaybackID        string   `json:"playback_id"`
	Acts              []Act    `json:"acts"`
	ThumbnailURLs     []string `json:"thumbnail_urls"`
	CharacterRefURL   string   `json:"character_reference_url,omitempty"`
}

// ScrapeHistory is an always-append record of a news-board scrape.
type ScrapeHistory struct {
	ID              string    `json:"id"`
	BoardID         string    `json:"board_id"`
	Status          string    `json:"status"`
	JobsFound       int       `json:"jobs_found"`
	ExecutionTimeMs int64     `json:"execution_time_ms"`
	StartedAt       time.Time `json:"started_at"`
}

// JobRecord supports scheduling/dedup for the news-monitor subpipeline.
type JobRecord struct {
	ID            string     `json:"id"`
	URL           string     `json:"url"`
	NormalizedURL string     `json:"normalized_url"`
	LastScrapedAt *time.Time `json:"last_scraped_at,omitempty"`
}

// CompanyRecord is the persisted profile produced by Workflow D.
type CompanyRecord struct {
	ID                string                 `json:"id"`
	Slug              string                 `json:"slug"`
	Name              string                 `json:"name"`
	App               string                 `json:"app"`
	FeaturedImageURL  string                 `json:"featured_image_url,omitempty"`
	MetaDescription   string                 `json:"meta_description,omitempty"`
	Payload           map[string]interface{} `json:"payload,omitempty"`
}

// ArticleCompany is the many-to-many join row between articles and companies.
type ArticleCompany struct {
	ArticleID      string  `json:"article_id"`
	CompanyID      string  `json:"company_id"`
	RelevanceScore float64 `json:"relevance_score"`
}

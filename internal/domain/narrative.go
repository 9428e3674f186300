package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ArticleMode enumerates the narrative's classification within a cluster.
type ArticleMode string

const (
	ArticleModeStory  ArticleMode = "story"
	ArticleModeGuide  ArticleMode = "guide"
	ArticleModeYolo   ArticleMode = "yolo"
	ArticleModeVoices ArticleMode = "voices"
	ArticleModeTopic  ArticleMode = "topic"
	ArticleModeHub    ArticleMode = "hub"
)

// PayloadStatus is the lifecycle status of a NarrativePayload.
type PayloadStatus string

const (
	StatusDraft     PayloadStatus = "draft"
	StatusPublished PayloadStatus = "published"
	StatusArchived  PayloadStatus = "archived"
)

// Section is one h2-bounded body block of a NarrativePayload.
type Section struct {
	Index             int      `json:"index"`
	Title             string   `json:"title"`
	Content           string   `json:"content"`
	WordCount         int      `json:"word_count"`
	Sentiment         string   `json:"sentiment,omitempty"`
	SentimentIntensity *float64 `json:"sentiment_intensity,omitempty"`
	BusinessContext   string   `json:"business_context,omitempty"`
	VisualTone        string   `json:"visual_tone,omitempty"`
	VisualMoment      string   `json:"visual_moment,omitempty"`
	ShouldGenerateImage bool   `json:"should_generate_image"`
	ImageIndex        *int     `json:"image_index,omitempty"`
}

// FourActEntry is one of the exactly-4 entries in four_act_content for
// multi-act (relocation-style) pipelines.
type FourActEntry struct {
	Title      string `json:"title"`
	Hint       string `json:"hint"`
	Factoid    string `json:"factoid"`
	VisualHint string `json:"visual_hint"`
}

// CompanyMention records an entity reference within a NarrativePayload.
type CompanyMention struct {
	CompanyID      string  `json:"company_id,omitempty"`
	Name           string  `json:"name"`
	RelevanceScore float64 `json:"relevance_score"`
	MentionCount   int     `json:"mention_count"`
	IsPrimary      bool    `json:"is_primary"`
}

// DataSourceStat tracks per-service success/cost/count for provenance.
type DataSourceStat struct {
	Count   int     `json:"count"`
	Cost    float64 `json:"cost"`
	Success bool    `json:"success"`
}

// ContentImage is one of the content_image{1..N} media bindings.
type ContentImage struct {
	URL   string `json:"url"`
	Alt   string `json:"alt"`
}

// NarrativePayload is the article/hub/company content object, per spec §3.
type NarrativePayload struct {
	// identity
	Title               string   `json:"title"`
	Slug                string   `json:"slug"`
	Excerpt             string   `json:"excerpt"`
	MetaDescription     string   `json:"meta_description"`
	Tags                []string `json:"tags"`
	TargetKeywords      []string `json:"target_keywords"`
	WordCount           int      `json:"word_count"`
	ReadingTimeMinutes  int      `json:"reading_time_minutes"`

	// body
	Content  string    `json:"content"`
	Sections []Section `json:"sections"`

	// media prompts
	FeaturedImagePrompt  string         `json:"featured_image_prompt"`
	SectionImagePrompts  []string       `json:"section_image_prompts"`
	FourActContent       []FourActEntry `json:"four_act_content,omitempty"`

	// media bindings, filled after the media phase
	VideoPlaybackID   string                  `json:"video_playback_id,omitempty"`
	VideoAssetID      string                  `json:"video_asset_id,omitempty"`
	HeroAssetURL      string                  `json:"hero_asset_url,omitempty"`
	FeaturedAssetURL  string                  `json:"featured_asset_url,omitempty"`
	ContentImages     map[string]ContentImage `json:"content_images,omitempty"`
	VideoNarrative    *VideoNarrative         `json:"video_narrative,omitempty"`

	// classification
	App             string      `json:"app"`
	ArticleFormat   string      `json:"article_format"`
	ArticleMode     ArticleMode `json:"article_mode"`
	ClusterID       string      `json:"cluster_id,omitempty"`
	ParentID        string      `json:"parent_id,omitempty"`
	TargetKeyword   string      `json:"target_keyword,omitempty"`
	KeywordVolume   *int        `json:"keyword_volume,omitempty"`
	KeywordDifficulty *float64  `json:"keyword_difficulty,omitempty"`

	// provenance
	ResearchCost  float64                    `json:"research_cost"`
	DataSources   map[string]DataSourceStat  `json:"data_sources"`
	Sources       []CuratedEntry             `json:"sources"`

	// status
	Status      PayloadStatus `json:"status"`
	PublishedAt *time.Time    `json:"published_at,omitempty"`

	MentionedCompanies []CompanyMention `json:"mentioned_companies,omitempty"`
}

var markdownStripRe = regexp.MustCompile("[#*_`\\[\\](){}]")

// CalculateWordCount strips markdown syntax characters and counts
// whitespace-separated tokens, per original_source's calculate_word_count.
func CalculateWordCount(text string) int {
	stripped := markdownStripRe.ReplaceAllString(text, "")
	fields := strings.Fields(stripped)
	return len(fields)
}

// CalculateReadingTime applies max(1, round(word_count/wpm)), wpm default 200.
func CalculateReadingTime(wordCount int, wpm int) int {
	if wpm <= 0 {
		wpm = 200
	}
	minutes := int((float64(wordCount)/float64(wpm))+0.5)
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// Normalize recomputes derived fields (word_count, reading_time_minutes)
// from Content, matching §4.4 step 3's normalization.
func (p *NarrativePayload) Normalize() {
	p.WordCount = CalculateWordCount(p.Content)
	p.ReadingTimeMinutes = CalculateReadingTime(p.WordCount, 200)
}

var inlineURLRe = regexp.MustCompile(`https?://[^\s)\]"']+`)

// CheckInvariants validates §3 invariants 2-5 and 7. Invariant 1, the
// per-app slug uniqueness, is enforced at the persistence layer via the
// unique index rather than in-memory; invariant 6 needs the parent payload
// and is not checked here (see CheckClusterInvariant).
func (p *NarrativePayload) CheckInvariants() error {
	if p.WordCount != CalculateWordCount(p.Content) {
		return fmt.Errorf("invariant 2 violated: word_count %d != computed %d", p.WordCount, CalculateWordCount(p.Content))
	}
	sectionWords := 0
	for i, s := range p.Sections {
		if s.Index != i {
			return fmt.Errorf("invariant 3 violated: sections[%d].index = %d, want dense 0-based", i, s.Index)
		}
		sectionWords += s.WordCount
	}
	if len(p.Sections) > 0 && p.WordCount > 0 {
		lower := float64(p.WordCount) * 0.95
		upper := float64(p.WordCount) * 1.05
		if float64(sectionWords) < lower || float64(sectionWords) > upper {
			return fmt.Errorf("invariant 3 violated: sections word sum %d outside +-5%% of %d", sectionWords, p.WordCount)
		}
	}
	for _, u := range inlineURLRe.FindAllString(p.Content, -1) {
		found := false
		for _, src := range p.Sources {
			if src.URL == u {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("invariant 4 violated: inline URL %q not present in sources[]", u)
		}
	}
	if p.VideoPlaybackID != "" && p.HeroAssetURL == "" && p.FeaturedAssetURL == "" && len(p.ContentImages) == 0 {
		return fmt.Errorf("invariant 5 violated: video_playback_id set but no thumbnail-derived asset URL present")
	}
	if p.ParentID != "" {
		// invariant 6 needs the parent's cluster_id, which this payload does
		// not carry; CheckClusterInvariant checks it given both payloads.
	}
	if len(p.MetaDescription) > 160 {
		return fmt.Errorf("invariant 7 violated: meta_description length %d > 160", len(p.MetaDescription))
	}
	if len(p.Excerpt) > 400 {
		return fmt.Errorf("invariant 7 violated: excerpt length %d > 400", len(p.Excerpt))
	}
	return nil
}

package domain

import "time"

// SourceKind classifies where a RawSource came from.
type SourceKind string

const (
	SourceKindNews            SourceKind = "news"
	SourceKindDeepResearch    SourceKind = "deep_research"
	SourceKindCrawledPage     SourceKind = "crawled_page"
	SourceKindKnowledgeGraph  SourceKind = "knowledge_graph_edge"
)

// crawlPriority orders source kinds for curation tie-breaks:
// crawled > deep_research > news.
func (k SourceKind) crawlPriority() int {
	switch k {
	case SourceKindCrawledPage:
		return 3
	case SourceKindDeepResearch:
		return 2
	case SourceKindNews:
		return 1
	default:
		return 0
	}
}

// RawSource is a single retrieved document, produced by an adapter and
// consumed by curation. Not persisted directly.
type RawSource struct {
	SourceID       string     `json:"source_id"`
	SourceKind     SourceKind `json:"source_kind"`
	URL            string     `json:"url"`
	Title          string     `json:"title"`
	ContentText    string     `json:"content_text"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
	RelevanceScore *float64   `json:"relevance_score,omitempty"`
	Author         string     `json:"author,omitempty"`
}

// CuratedEntry is one element of a CuratedSourceSet.
type CuratedEntry struct {
	SourceID       string  `json:"source_id"`
	RelevanceScore float64 `json:"relevance_score"`
	Summary        string  `json:"summary"`
	KeyQuote       string  `json:"key_quote,omitempty"`
	FullContent    string  `json:"full_content"`
	URL            string  `json:"url"`
	SourceKind     SourceKind `json:"source_kind"`
}

// CuratedSourceSet is the output of the curation step: at most N entries
// plus three side lists. Not persisted; carried in-workflow.
type CuratedSourceSet struct {
	Entries         []CuratedEntry `json:"entries"`
	KeyFacts        []string       `json:"key_facts"`
	Perspectives    []string       `json:"perspectives"`
	DuplicateGroups [][]string     `json:"duplicate_groups"`
	CurationFailed  bool           `json:"curation_failed"`
}

// SortDeterministic orders entries by relevance_score desc, then by
// source-kind priority (crawled > deep_research > news), then by shorter
// URL - the tie-break policy in spec §4.3.
func (c *CuratedSourceSet) SortDeterministic() {
	entries := c.Entries
	for i := 1; i < len(entries); i++ {
		j := i
		for j > 0 && lessEntry(entries[j], entries[j-1]) {
			entries[j], entries[j-1] = entries[j-1], entries[j]
			j--
		}
	}
}

func lessEntry(a, b CuratedEntry) bool {
	if a.RelevanceScore != b.RelevanceScore {
		return a.RelevanceScore > b.RelevanceScore
	}
	pa, pb := a.SourceKind.crawlPriority(), b.SourceKind.crawlPriority()
	if pa != pb {
		return pa > pb
	}
	return len(a.URL) < len(b.URL)
}

// ResearchContext is the input research_context passed to the narrative
// generator per spec §4.4.
type ResearchContext struct {
	CuratedSources []CuratedEntry `json:"curated_sources"`
	KeyFacts       []string       `json:"key_facts"`
	Perspectives   []string       `json:"perspectives"`
}

// ResearchResult is the contract output of research(seed) per spec §4.3.
type ResearchResult struct {
	Curated        CuratedSourceSet  `json:"curated_sources"`
	KeyFacts       []string          `json:"key_facts"`
	Perspectives   []string          `json:"perspectives"`
	RawCountsBySource map[string]int `json:"raw_counts_by_source"`
	TotalCost      float64           `json:"total_cost"`
	SkippedPaywalled []string        `json:"skipped_paywalled,omitempty"`
}

package workflows

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/contentforge/pipeline/internal/domain"
	"github.com/contentforge/pipeline/internal/platform/apperr"
)

// ResearchInput is research(seed) per spec §4.3, routed through the app's
// configured search region and knowledge-graph id.
type ResearchInput struct {
	Seed domain.Seed
}

// Research runs the full §4.3 fan-out/curate pipeline for Workflow A and
// the topic-cluster/company-profile variants that reuse it.
func (a *Activities) Research(ctx context.Context, in ResearchInput) (domain.ResearchResult, error) {
	if a.Research == nil {
		return domain.ResearchResult{}, apperr.New(apperr.KindConfigMissing, "research subsystem not configured", nil)
	}
	region := a.Cfg.Region(regionKeyFor(in.Seed))
	graphID := a.Cfg.GraphID(in.Seed.App)
	result, err := a.Research.Research(ctx, in.Seed, region, graphID)
	if err != nil {
		return domain.ResearchResult{}, wrapActivityErr(err)
	}
	return result, nil
}

func regionKeyFor(seed domain.Seed) string {
	if seed.Jurisdiction != "" {
		return seed.Jurisdiction
	}
	if seed.CountryCode != "" {
		return seed.CountryCode
	}
	return seed.App
}

// FetchNewsStoriesInput is Workflow B step 1's input.
type FetchNewsStoriesInput struct {
	App      string
	Keywords []string
}

// NewsStory is one deduplicated candidate for the relevance assessor.
type NewsStory struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	ContentText string `json:"content_text"`
	PublishedAt string `json:"published_at,omitempty"`
}

type FetchNewsStoriesOutput struct {
	Stories []NewsStory `json:"stories"`
}

// FetchNewsStories runs Workflow B step 1: two search angles in parallel -
// the news-search adapter and the deep-research adapter used as a second,
// broader search angle - merged and deduplicated by normalized URL,
// preferring whichever variant carries a published timestamp.
func (a *Activities) FetchNewsStories(ctx context.Context, in FetchNewsStoriesInput) (FetchNewsStoriesOutput, error) {
	if a.NewsSearch == nil {
		return FetchNewsStoriesOutput{}, apperr.New(apperr.KindConfigMissing, "news search adapter not configured", nil)
	}
	region := a.Cfg.Region(in.App)

	newsCh := make(chan []domain.RawSource, 1)
	deepCh := make(chan []NewsStory, 1)

	go func() {
		sources, err := a.NewsSearch.Search(ctx, in.Keywords, region, "week")
		if err != nil {
			sources = nil
		}
		newsCh <- sources
	}()
	go func() {
		var stories []NewsStory
		if a.DeepResearch != nil {
			instructions := fmt.Sprintf("Find recent news coverage about: %s", strings.Join(in.Keywords, ", "))
			if res, err := a.DeepResearch.Research(ctx, instructions, timeoutResearch); err == nil {
				for i, out := range res.TaskOutputs {
					stories = append(stories, NewsStory{
						URL:         fmt.Sprintf("deepresearch://%s/%d", res.ResearchID, i),
						Title:       fmt.Sprintf("Deep research finding %d", i+1),
						ContentText: out,
					})
				}
			}
		}
		deepCh <- stories
	}()

	newsSources := <-newsCh
	deepStories := <-deepCh

	byURL := map[string]NewsStory{}
	order := []string{}
	addNews := func(sources []domain.RawSource) {
		for _, s := range sources {
			key := normalizeStoryURL(s.URL)
			if key == "" {
				continue
			}
			story := NewsStory{URL: s.URL, Title: s.Title, ContentText: s.ContentText}
			if s.PublishedAt != nil {
				story.PublishedAt = s.PublishedAt.Format("2006-01-02T15:04:05Z07:00")
			}
			if prev, ok := byURL[key]; !ok {
				order = append(order, key)
			} else if prev.PublishedAt != "" && story.PublishedAt == "" {
				continue
			}
			byURL[key] = story
		}
	}
	addNews(newsSources)
	for _, story := range deepStories {
		key := normalizeStoryURL(story.URL)
		if key == "" || byURL[key].URL != "" {
			continue
		}
		byURL[key] = story
		order = append(order, key)
	}

	out := make([]NewsStory, 0, len(order))
	for _, key := range order {
		out = append(out, byURL[key])
	}
	return FetchNewsStoriesOutput{Stories: out}, nil
}

func normalizeStoryURL(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	s = strings.TrimSuffix(s, "/")
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	return s
}

// AssessRelevanceInput is Workflow B step 3's input.
type AssessRelevanceInput struct {
	App             string
	Stories         []NewsStory
	RecentArticles  []string
	MinRelevance    float64
}

// StoryAssessment is one per-story verdict from the relevance assessor.
type StoryAssessment struct {
	Story          NewsStory `json:"story"`
	Priority       string    `json:"priority"` // high|medium|low
	RelevanceScore float64   `json:"relevance_score"`
	Rationale      string    `json:"rationale"`
}

type AssessRelevanceOutput struct {
	Assessments []StoryAssessment `json:"assessments"`
}

var priorityRank = map[string]int{"high": 3, "medium": 2, "low": 1}

// AssessRelevance runs Workflow B step 3's LLM relevance assessor, then
// sorts by (priority, -relevance_score) per step 4's selection rule.
func (a *Activities) AssessRelevance(ctx context.Context, in AssessRelevanceInput) (AssessRelevanceOutput, error) {
	if a.LLM == nil {
		return AssessRelevanceOutput{}, apperr.New(apperr.KindConfigMissing, "llm client not configured", nil)
	}
	if len(in.Stories) == 0 {
		return AssessRelevanceOutput{}, nil
	}

	var sb strings.Builder
	for i, s := range in.Stories {
		fmt.Fprintf(&sb, "%d. %s — %s\n", i, s.Title, truncateForPrompt(s.ContentText, 600))
	}
	system := "You assess how newsworthy and relevant each story is for the given app's content pipeline, against recently published articles to avoid duplication."
	user := fmt.Sprintf("App: %s\nMinimum relevance: %.2f\nRecently published:\n%s\n\nStories:\n%s",
		in.App, in.MinRelevance, strings.Join(in.RecentArticles, "\n"), sb.String())

	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"assessments": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"index":           map[string]interface{}{"type": "integer"},
						"priority":        map[string]interface{}{"type": "string", "enum": []string{"high", "medium", "low"}},
						"relevance_score": map[string]interface{}{"type": "number"},
						"rationale":       map[string]interface{}{"type": "string"},
					},
					"required": []string{"index", "priority", "relevance_score", "rationale"},
				},
			},
		},
		"required": []string{"assessments"},
	}
	raw, err := a.LLM.GenerateJSON(ctx, system, user, "relevance_assessment", schema)
	if err != nil {
		return AssessRelevanceOutput{}, wrapActivityErr(err)
	}

	items, _ := raw["assessments"].([]interface{})
	out := make([]StoryAssessment, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		idxF, _ := m["index"].(float64)
		idx := int(idxF)
		if idx < 0 || idx >= len(in.Stories) {
			continue
		}
		priority, _ := m["priority"].(string)
		score, _ := m["relevance_score"].(float64)
		rationale, _ := m["rationale"].(string)
		if score < in.MinRelevance {
			continue
		}
		out = append(out, StoryAssessment{
			Story: in.Stories[idx], Priority: strings.ToLower(priority),
			RelevanceScore: score, Rationale: rationale,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := priorityRank[out[i].Priority], priorityRank[out[j].Priority]
		if pi != pj {
			return pi > pj
		}
		return out[i].RelevanceScore > out[j].RelevanceScore
	})
	return AssessRelevanceOutput{Assessments: out}, nil
}

func truncateForPrompt(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// FindLogoCandidatesInput is Workflow D step 5's input.
type FindLogoCandidatesInput struct {
	URL string
}

type FindLogoCandidatesOutput struct {
	CandidateURLs []string `json:"candidate_urls"`
}

func (a *Activities) FindLogoCandidates(ctx context.Context, in FindLogoCandidatesInput) (FindLogoCandidatesOutput, error) {
	if a.Crawl == nil {
		return FindLogoCandidatesOutput{}, apperr.New(apperr.KindConfigMissing, "crawl adapter not configured", nil)
	}
	urls, err := a.Crawl.FindLogoCandidates(ctx, in.URL)
	if err != nil {
		return FindLogoCandidatesOutput{}, wrapActivityErr(err)
	}
	return FindLogoCandidatesOutput{CandidateURLs: urls}, nil
}

// Package research implements the research(seed) contract of spec §4.3:
// parallel fan-out across news search, deep research, and knowledge-graph
// context, URL selection/dedup, bounded-parallelism crawl, and LLM-based
// curation with a verbatim fallback on curation failure. Grounded on the
// original ArticleCreationWorkflow's parallel-gather-with-degrade phase
// (article-worker/src/workflows/article_creation.py) and, in Go, on the
// teacher's golang.org/x/sync fan-out usage.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/contentforge/pipeline/internal/clients/crawl"
	"github.com/contentforge/pipeline/internal/clients/deepresearch"
	"github.com/contentforge/pipeline/internal/clients/llm"
	"github.com/contentforge/pipeline/internal/clients/newssearch"
	"github.com/contentforge/pipeline/internal/domain"
	"github.com/contentforge/pipeline/internal/platform/apperr"
	"github.com/contentforge/pipeline/internal/platform/logger"
)

// KGContextQuerier is the inbound-context half of KnowledgeGraphAdapter
// (search_edges), kept as a narrow local interface so this package doesn't
// need to import internal/clients/knowledgegraph directly.
type KGContextQuerier interface {
	SearchEdges(ctx context.Context, graphID, query string, limit int) ([]string, error)
}

// Config holds the tunables named in spec §4.3.
type Config struct {
	TopKURLs            int
	CrawlParallelism     int
	CrawlDelayBetween    time.Duration
	CurationMaxEntries   int
	PaywallBlocklist     []string
}

func DefaultConfig() Config {
	return Config{
		TopKURLs:          30,
		CrawlParallelism:  5,
		CrawlDelayBetween: 500 * time.Millisecond,
		CurationMaxEntries: 20,
	}
}

// Subsystem wires the adapters research() fans out across.
type Subsystem struct {
	News   *newssearch.Adapter
	Deep   *deepresearch.Adapter
	Crawl  *crawl.Adapter
	KG     KGContextQuerier
	LLM    llm.Client
	Cfg    Config
	log    *logger.Logger
}

func New(news *newssearch.Adapter, deep *deepresearch.Adapter, crawler *crawl.Adapter, kg KGContextQuerier, llmClient llm.Client, cfg Config, log *logger.Logger) *Subsystem {
	return &Subsystem{News: news, Deep: deep, Crawl: crawler, KG: kg, LLM: llmClient, Cfg: cfg, log: log.With("subsystem", "research")}
}

type fanoutResult struct {
	news       []domain.RawSource
	newsErr    error
	deepResult deepresearch.Result
	deepErr    error
	kgFacts    []string
	kgErr      error
}

// Research executes the seed → research(seed) contract. region scopes the
// news search (an app/jurisdiction-derived search region, per
// internal/pipelineconfig); graphID scopes the knowledge-graph context query.
func (s *Subsystem) Research(ctx context.Context, seed domain.Seed, region, graphID string) (domain.ResearchResult, error) {
	fo := s.fanOut(ctx, seed, region, graphID)

	if fo.newsErr != nil && fo.deepErr != nil && fo.kgErr != nil {
		return domain.ResearchResult{}, apperr.New(apperr.KindUnknown, "research fan-out: all adapters failed", fo.newsErr)
	}

	urls := s.selectURLs(fo.news, fo.deepResult)
	crawled := s.Crawl.CrawlMany(ctx, urls, s.Cfg.CrawlParallelism, s.Cfg.CrawlDelayBetween)

	raw, counts := s.assembleSources(fo.news, fo.deepResult, crawled)
	if len(raw) == 0 {
		return domain.ResearchResult{}, apperr.New(apperr.KindUnknown, "research: zero usable sources across all adapters", nil)
	}

	curated, totalCost := s.curate(ctx, raw)

	var skippedPaywalled []string
	for _, c := range crawled {
		if c.Paywalled {
			skippedPaywalled = append(skippedPaywalled, c.URL)
		}
	}

	return domain.ResearchResult{
		Curated:          curated,
		KeyFacts:         curated.KeyFacts,
		Perspectives:     curated.Perspectives,
		RawCountsBySource: counts,
		TotalCost:        totalCost,
		SkippedPaywalled: skippedPaywalled,
	}, nil
}

func (s *Subsystem) fanOut(ctx context.Context, seed domain.Seed, region, graphID string) fanoutResult {
	var fo fanoutResult
	var wg sync.WaitGroup
	wg.Add(3)

	keywords := seedKeywords(seed)

	go func() {
		defer wg.Done()
		if s.News == nil {
			fo.newsErr = apperr.New(apperr.KindConfigMissing, "news search adapter not configured", nil)
			return
		}
		fo.news, fo.newsErr = s.News.Search(ctx, keywords, region, "")
	}()

	go func() {
		defer wg.Done()
		if s.Deep == nil {
			fo.deepErr = apperr.New(apperr.KindConfigMissing, "deep research adapter not configured", nil)
			return
		}
		fo.deepResult, fo.deepErr = s.Deep.Research(ctx, strings.Join(keywords, " "), 2*time.Minute)
	}()

	go func() {
		defer wg.Done()
		if s.KG == nil {
			fo.kgErr = apperr.New(apperr.KindConfigMissing, "knowledge graph querier not configured", nil)
			return
		}
		fo.kgFacts, fo.kgErr = s.KG.SearchEdges(ctx, graphID, strings.Join(keywords, " "), 20)
	}()

	wg.Wait()

	if fo.newsErr != nil && s.log != nil {
		s.log.Warn("news search failed during fan-out", "error", fo.newsErr)
	}
	if fo.deepErr != nil && s.log != nil {
		s.log.Warn("deep research failed during fan-out", "error", fo.deepErr)
	}
	if fo.kgErr != nil && s.log != nil {
		s.log.Warn("kg context query failed during fan-out", "error", fo.kgErr)
	}
	return fo
}

func seedKeywords(seed domain.Seed) []string {
	switch seed.Kind {
	case domain.SeedKindTopic:
		return strings.Fields(seed.Topic)
	case domain.SeedKindCompanyURL:
		return []string{extractDomain(normalizeURL(seed.URL))}
	case domain.SeedKindCountry:
		return []string{seed.CountryName, seed.CountryCode}
	default:
		return []string{seed.Topic}
	}
}

// selectURLs implements spec §4.3 step 2: collect, normalize, dedup, top-K,
// filter paywall-blocklisted domains.
func (s *Subsystem) selectURLs(news []domain.RawSource, deep deepresearch.Result) []string {
	seen := map[string]bool{}
	var ordered []string
	add := func(raw string) {
		n := normalizeURL(raw)
		if n == "" || seen[n] {
			return
		}
		if s.isBlocklisted(n) {
			return
		}
		seen[n] = true
		ordered = append(ordered, n)
	}
	for _, n := range news {
		add(n.URL)
	}
	for _, out := range deep.TaskOutputs {
		if strings.HasPrefix(out, "http://") || strings.HasPrefix(out, "https://") {
			add(out)
		}
	}
	topK := s.Cfg.TopKURLs
	if topK <= 0 {
		topK = 30
	}
	if len(ordered) > topK {
		ordered = ordered[:topK]
	}
	return ordered
}

func (s *Subsystem) isBlocklisted(normalized string) bool {
	domainOf := extractDomain(normalized)
	for _, blocked := range s.Cfg.PaywallBlocklist {
		if strings.EqualFold(domainOf, blocked) {
			return true
		}
	}
	return false
}

// normalizeURL lowercases the host, forces https, and strips the trailing
// slash, per original_source's normalize_url.
func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	u.Scheme = "https"
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimRight(u.Path, "/")
	u.Fragment = ""
	return u.String()
}

// extractDomain strips a leading "www." from the normalized URL's host, per
// original_source's extract_domain.
func extractDomain(normalized string) string {
	u, err := url.Parse(normalized)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}

func (s *Subsystem) assembleSources(news []domain.RawSource, deep deepresearch.Result, crawled []crawl.PageResult) ([]domain.RawSource, map[string]int) {
	var out []domain.RawSource
	counts := map[string]int{}

	for i, n := range news {
		n.SourceID = fmt.Sprintf("news_%d", i)
		n.SourceKind = domain.SourceKindNews
		out = append(out, n)
	}
	counts["news"] = len(news)

	crawlCount := 0
	for i, c := range crawled {
		if !c.OK || c.Paywalled {
			continue
		}
		out = append(out, domain.RawSource{
			SourceID:    fmt.Sprintf("crawl_%d", i),
			SourceKind:  domain.SourceKindCrawledPage,
			URL:         c.URL,
			Title:       c.Title,
			ContentText: c.Content,
		})
		crawlCount++
	}
	counts["crawled_page"] = crawlCount

	researchCount := 0
	for i, t := range deep.TaskOutputs {
		out = append(out, domain.RawSource{
			SourceID:    fmt.Sprintf("research_%d", i),
			SourceKind:  domain.SourceKindDeepResearch,
			ContentText: t,
		})
		researchCount++
	}
	counts["deep_research"] = researchCount

	return out, counts
}

var curationSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"entries": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"source_id":       map[string]interface{}{"type": "string"},
					"relevance_score": map[string]interface{}{"type": "number"},
					"summary":         map[string]interface{}{"type": "string"},
					"key_quote":       map[string]interface{}{"type": "string"},
				},
				"required": []string{"source_id", "relevance_score", "summary"},
			},
		},
		"key_facts":        map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		"perspectives":     map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		"duplicate_groups": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}}},
	},
	"required": []string{"entries", "key_facts", "perspectives", "duplicate_groups"},
}

// curate runs step 5/6 of §4.3: LLM curation, post-enrichment by joining
// back to the RawSource for full_content/url/type, and dedup-group
// resolution (keep the longest full_content per duplicate group). Falls
// back to the first N raw sources verbatim with curation_failed=true.
func (s *Subsystem) curate(ctx context.Context, raw []domain.RawSource) (domain.CuratedSourceSet, float64) {
	maxEntries := s.Cfg.CurationMaxEntries
	if maxEntries <= 0 {
		maxEntries = 20
	}

	if s.LLM == nil {
		return fallbackCuration(raw, maxEntries), 0
	}

	prompt := buildCurationPrompt(raw, maxEntries)
	result, err := s.LLM.GenerateJSON(ctx, curationSystemPrompt, prompt, "curation", curationSchema)
	if err != nil {
		if s.log != nil {
			s.log.Warn("curation LLM call failed, falling back to verbatim sources", "error", err)
		}
		return fallbackCuration(raw, maxEntries), 0
	}

	curated, ok := parseCurationResult(result, raw)
	if !ok || len(curated.Entries) == 0 {
		return fallbackCuration(raw, maxEntries), 0
	}

	curated = resolveDuplicateGroups(curated)
	curated.SortDeterministic()
	if len(curated.Entries) > maxEntries {
		curated.Entries = curated.Entries[:maxEntries]
	}
	return curated, 0
}

const curationSystemPrompt = `You curate research sources for a content pipeline. Return at most N entries referencing source_id values from the provided list, each with a relevance_score in [0,10] and a short summary. Also return key_facts, perspectives, and duplicate_groups (clusters of source_ids covering the same underlying fact).`

func buildCurationPrompt(raw []domain.RawSource, maxEntries int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Return at most %d entries.\n\nSources:\n", maxEntries)
	for _, r := range raw {
		fmt.Fprintf(&b, "- id=%s kind=%s title=%q url=%q\n  content: %s\n", r.SourceID, r.SourceKind, r.Title, r.URL, truncate(r.ContentText, 1000))
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func parseCurationResult(result map[string]interface{}, raw []domain.RawSource) (domain.CuratedSourceSet, bool) {
	bySourceID := map[string]domain.RawSource{}
	for _, r := range raw {
		bySourceID[r.SourceID] = r
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return domain.CuratedSourceSet{}, false
	}
	var parsed struct {
		Entries []struct {
			SourceID       string  `json:"source_id"`
			RelevanceScore float64 `json:"relevance_score"`
			Summary        string  `json:"summary"`
			KeyQuote       string  `json:"key_quote"`
		} `json:"entries"`
		KeyFacts        []string   `json:"key_facts"`
		Perspectives    []string   `json:"perspectives"`
		DuplicateGroups [][]string `json:"duplicate_groups"`
	}
	if err := json.Unmarshal(encoded, &parsed); err != nil {
		return domain.CuratedSourceSet{}, false
	}

	var entries []domain.CuratedEntry
	for _, e := range parsed.Entries {
		src, ok := bySourceID[e.SourceID]
		if !ok {
			continue
		}
		entries = append(entries, domain.CuratedEntry{
			SourceID:       e.SourceID,
			RelevanceScore: e.RelevanceScore,
			Summary:        e.Summary,
			KeyQuote:       e.KeyQuote,
			FullContent:    src.ContentText,
			URL:            src.URL,
			SourceKind:     src.SourceKind,
		})
	}

	return domain.CuratedSourceSet{
		Entries:         entries,
		KeyFacts:        parsed.KeyFacts,
		Perspectives:    parsed.Perspectives,
		DuplicateGroups: parsed.DuplicateGroups,
	}, true
}

// resolveDuplicateGroups keeps, within each duplicate_groups cluster, only
// the entry with the longest full_content, per spec §4.3's ordering rule.
func resolveDuplicateGroups(c domain.CuratedSourceSet) domain.CuratedSourceSet {
	if len(c.DuplicateGroups) == 0 {
		return c
	}
	drop := map[string]bool{}
	for _, group := range c.DuplicateGroups {
		if len(group) < 2 {
			continue
		}
		byID := map[string]domain.CuratedEntry{}
		for _, e := range c.Entries {
			byID[e.SourceID] = e
		}
		var best string
		bestLen := -1
		for _, id := range group {
			e, ok := byID[id]
			if !ok {
				continue
			}
			if len(e.FullContent) > bestLen {
				bestLen = len(e.FullContent)
				best = id
			}
		}
		for _, id := range group {
			if id != best {
				drop[id] = true
			}
		}
	}
	if len(drop) == 0 {
		return c
	}
	filtered := make([]domain.CuratedEntry, 0, len(c.Entries))
	for _, e := range c.Entries {
		if !drop[e.SourceID] {
			filtered = append(filtered, e)
		}
	}
	c.Entries = filtered
	return c
}

// fallbackCuration returns the first N raw sources verbatim with
// curation_failed=true, per spec §4.3 step 6's fallback policy.
func fallbackCuration(raw []domain.RawSource, maxEntries int) domain.CuratedSourceSet {
	sorted := make([]domain.RawSource, len(raw))
	copy(sorted, raw)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].SourceID < sorted[j].SourceID })
	if len(sorted) > maxEntries {
		sorted = sorted[:maxEntries]
	}
	entries := make([]domain.CuratedEntry, 0, len(sorted))
	for _, r := range sorted {
		score := 0.0
		if r.RelevanceScore != nil {
			score = *r.RelevanceScore
		}
		entries = append(entries, domain.CuratedEntry{
			SourceID:       r.SourceID,
			RelevanceScore: score,
			Summary:        truncate(r.ContentText, 280),
			FullContent:    r.ContentText,
			URL:            r.URL,
			SourceKind:     r.SourceKind,
		})
	}
	return domain.CuratedSourceSet{Entries: entries, CurationFailed: true}
}

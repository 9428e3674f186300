// Package narrative implements generate_article: turning a topic, an app
// voice, and a curated research context into a schema-conformant
// NarrativePayload, grounded on original_source's narrative_article_creation
// workflow and the teacher's schema-enforced LLM call pattern.
package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/contentforge/pipeline/internal/clients/llm"
	"github.com/contentforge/pipeline/internal/domain"
	"github.com/contentforge/pipeline/internal/pipelineconfig"
	"github.com/contentforge/pipeline/internal/platform/apperr"
	"github.com/contentforge/pipeline/internal/platform/envconfig"
)

// maxResearchContextChars is the default research-context budget, overridable
// with RESEARCH_CONTEXT_MAX_CHARS.
const maxResearchContextChars = 80000

// extraFeedbackAttempts is the "retry up to 2 times with feedback" budget
// from spec §4.4 step 2, on top of the first attempt.
const extraFeedbackAttempts = 2

// Generator builds NarrativePayloads via a schema-enforced LLM call.
type Generator struct {
	Client llm.Client
	Cfg    *pipelineconfig.Config
}

func New(client llm.Client, cfg *pipelineconfig.Config) *Generator {
	return &Generator{Client: client, Cfg: cfg}
}

// Request is the generate_article(topic, article_type, app, research_context,
// target_word_count) contract input.
type Request struct {
	Topic           string
	ArticleType     string
	App             string
	ArticleMode     domain.ArticleMode
	Jurisdiction    string
	TargetKeywords  []string
	TargetWordCount int
	FourAct         bool
	ResearchContext domain.ResearchContext
	ClusterID       string
	ParentID        string
}

// Generate runs the full §4.4 algorithm: prompt build, schema-enforced call
// with feedback retry, normalization, and four-act validation.
func (g *Generator) Generate(ctx context.Context, req Request) (*domain.NarrativePayload, error) {
	if g.Client == nil {
		return nil, apperr.New(apperr.KindConfigMissing, "narrative generator: no llm client configured", nil)
	}

	voice := pipelineconfig.Voice{Tone: "neutral, informative", Currency: "USD", Audience: "general readers"}
	if g.Cfg != nil {
		voice = g.Cfg.VoiceFor(req.App)
	}

	system := buildSystemPrompt(req, voice)
	user := buildUserPrompt(req, voice)

	schema := narrativeSchema(req.FourAct)
	validate := func(raw map[string]interface{}) error {
		return validateNarrativeShape(raw, req.FourAct)
	}

	raw, err := llm.GenerateJSONWithFeedback(ctx, g.Client, system, user, "narrative_payload", schema, extraFeedbackAttempts, validate)
	if err != nil {
		return nil, err
	}

	payload, err := decodePayload(raw)
	if err != nil {
		return nil, apperr.New(apperr.KindSchemaValidation, "narrative payload decode failed", err)
	}

	if strings.TrimSpace(payload.Content) == "" {
		return nil, apperr.New(apperr.KindParse, "narrative generator: empty content", nil)
	}

	payload.App = req.App
	payload.ArticleFormat = req.ArticleType
	payload.ArticleMode = req.ArticleMode
	payload.ClusterID = req.ClusterID
	payload.ParentID = req.ParentID
	payload.Status = domain.StatusDraft
	payload.Sources = req.ResearchContext.CuratedSources

	normalize(payload)

	if req.FourAct && len(payload.FourActContent) != 4 {
		return nil, apperr.New(apperr.KindSchemaValidation, fmt.Sprintf("four-act variant requires exactly 4 four_act_content entries, got %d", len(payload.FourActContent)), nil)
	}

	return payload, nil
}

func decodePayload(raw map[string]interface{}) (*domain.NarrativePayload, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var p domain.NarrativePayload
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// normalize computes word_count/reading_time_minutes, derives a slug if the
// model omitted a stable one, and fills a default featured_image_prompt -
// per spec §4.4 step 3.
func normalize(p *domain.NarrativePayload) {
	p.Normalize()

	if strings.TrimSpace(p.Slug) == "" {
		p.Slug = slugFromTitle(p.Title)
	}

	if strings.TrimSpace(p.FeaturedImagePrompt) == "" {
		p.FeaturedImagePrompt = fmt.Sprintf("Editorial hero image for %q, no on-screen text, photorealistic, wide aspect ratio", p.Title)
	}
}

// slugFromTitle mirrors original_source's generate_article_slug: lowercase,
// hyphenate, strip non-alphanumerics, then prefix "article-" when the result
// is too short to be a useful URL segment.
func slugFromTitle(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	var b strings.Builder
	lastHyphen := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > 100 {
		slug = strings.Trim(slug[:100], "-")
	}
	if len(slug) < 3 {
		slug = "article-" + slug
	}
	return slug
}

// buildSystemPrompt establishes the editorial voice and hard structural
// rules every provider must conform to.
func buildSystemPrompt(req Request, voice pipelineconfig.Voice) string {
	var sb strings.Builder
	sb.WriteString("You are an editorial content generator for the \"" + req.App + "\" publication.\n")
	sb.WriteString("Tone: " + voice.Tone + ". Audience: " + voice.Audience + ". Currency convention: " + voice.Currency + ".\n")
	sb.WriteString("Respond with a single JSON object matching the provided schema exactly. Content uses markdown with h2 (##) section headers.\n")
	sb.WriteString("Every inline URL you write in content must also appear in the sources you were given - never invent a URL.\n")
	if req.FourAct {
		sb.WriteString("This is a four-act piece: four_act_content must contain exactly 4 entries, each visual_hint describing only what is seen on screen, with no on-screen text or captions.\n")
	}
	return sb.String()
}

// buildUserPrompt serializes topic/voice/word-budget/jurisdiction/keywords
// and a length-bounded research_context, per §4.4 step 1.
func buildUserPrompt(req Request, voice pipelineconfig.Voice) string {
	var sb strings.Builder
	sb.WriteString("Topic: " + req.Topic + "\n")
	sb.WriteString("Article type: " + req.ArticleType + "\n")
	sb.WriteString("Target word count: " + strconv.Itoa(req.TargetWordCount) + "\n")
	if req.Jurisdiction != "" {
		sb.WriteString("Jurisdiction: " + req.Jurisdiction + "\n")
	}
	if len(req.TargetKeywords) > 0 {
		sb.WriteString("Target keywords: " + strings.Join(req.TargetKeywords, ", ") + "\n")
	}
	sb.WriteString("\nResearch context:\n")
	sb.WriteString(serializeResearchContext(req.ResearchContext, envconfig.Int("RESEARCH_CONTEXT_MAX_CHARS", maxResearchContextChars)))
	return sb.String()
}

// serializeResearchContext renders curated sources, key facts, and
// perspectives with per-source delimiters, truncated to maxChars.
func serializeResearchContext(rc domain.ResearchContext, maxChars int) string {
	var sb strings.Builder
	sb.WriteString("--- KEY FACTS ---\n")
	for _, f := range rc.KeyFacts {
		sb.WriteString("- " + f + "\n")
	}
	sb.WriteString("--- PERSPECTIVES ---\n")
	for _, p := range rc.Perspectives {
		sb.WriteString("- " + p + "\n")
	}
	sb.WriteString("--- SOURCES ---\n")
	for _, s := range rc.CuratedSources {
		sb.WriteString(fmt.Sprintf("=== SOURCE %s (%s) ===\nURL: %s\nSUMMARY: %s\nCONTENT: %s\n", s.SourceID, s.SourceKind, s.URL, s.Summary, s.FullContent))
		if sb.Len() >= maxChars {
			break
		}
	}
	out := sb.String()
	if len(out) > maxChars {
		out = out[:maxChars]
	}
	return out
}

func narrativeSchema(fourAct bool) map[string]interface{} {
	props := map[string]interface{}{
		"title":                 map[string]interface{}{"type": "string"},
		"excerpt":               map[string]interface{}{"type": "string"},
		"meta_description":      map[string]interface{}{"type": "string", "maxLength": 160},
		"tags":                  map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		"content":               map[string]interface{}{"type": "string"},
		"sections":              sectionSchema(),
		"featured_image_prompt": map[string]interface{}{"type": "string"},
		"section_image_prompts": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
	}
	required := []string{"title", "excerpt", "meta_description", "content", "sections"}
	if fourAct {
		props["four_act_content"] = fourActSchema()
		required = append(required, "four_act_content")
	}
	return map[string]interface{}{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": true,
	}
}

func sectionSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "array",
		"items": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"index":                 map[string]interface{}{"type": "integer"},
				"title":                 map[string]interface{}{"type": "string"},
				"content":               map[string]interface{}{"type": "string"},
				"word_count":            map[string]interface{}{"type": "integer"},
				"should_generate_image": map[string]interface{}{"type": "boolean"},
			},
			"required": []string{"index", "title", "content", "word_count"},
		},
	}
}

func fourActSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "array",
		"minItems": 4,
		"maxItems": 4,
		"items": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"title":       map[string]interface{}{"type": "string"},
				"hint":        map[string]interface{}{"type": "string"},
				"factoid":     map[string]interface{}{"type": "string"},
				"visual_hint": map[string]interface{}{"type": "string"},
			},
			"required": []string{"title", "visual_hint"},
		},
	}
}

// validateNarrativeShape enforces the structural checks a JSON Schema
// "strict" mode alone can't express: dense section indices and, for
// four-act pipelines, exactly 4 entries.
func validateNarrativeShape(raw map[string]interface{}, fourAct bool) error {
	content, _ := raw["content"].(string)
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("content must not be empty")
	}
	sections, _ := raw["sections"].([]interface{})
	for i, s := range sections {
		m, ok := s.(map[string]interface{})
		if !ok {
			return fmt.Errorf("sections[%d] is not an object", i)
		}
		idx, ok := numberOf(m["index"])
		if !ok || int(idx) != i {
			return fmt.Errorf("sections[%d].index must equal %d", i, i)
		}
	}
	if fourAct {
		acts, _ := raw["four_act_content"].([]interface{})
		if len(acts) != 4 {
			return fmt.Errorf("four_act_content must contain exactly 4 entries, got %d", len(acts))
		}
	}
	return nil
}

func numberOf(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

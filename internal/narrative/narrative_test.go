package narrative

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentforge/pipeline/internal/clients/llm"
	"github.com/contentforge/pipeline/internal/domain"
	"github.com/contentforge/pipeline/internal/pipelineconfig"
)

type fakeClient struct {
	llm.Client
	response map[string]interface{}
}

func (f *fakeClient) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]interface{}) (map[string]interface{}, error) {
	return f.response, nil
}

func validPayload() map[string]interface{} {
	return map[string]interface{}{
		"title":             "Cyprus Golden Visa Guide",
		"excerpt":           "Everything about relocating to Cyprus.",
		"meta_description":  "Cyprus relocation guide.",
		"content":           "## Overview\nCyprus is great.\n## Costs\nIt is affordable.",
		"section_image_prompts": []interface{}{},
		"sections": []interface{}{
			map[string]interface{}{"index": 0, "title": "Overview", "content": "Cyprus is great.", "word_count": 3},
			map[string]interface{}{"index": 1, "title": "Costs", "content": "It is affordable.", "word_count": 3},
		},
	}
}

func TestGenerate_NormalizesSlugAndWordCount(t *testing.T) {
	fake := &fakeClient{response: validPayload()}
	g := New(fake, pipelineconfig.Load())

	payload, err := g.Generate(context.Background(), Request{
		Topic:           "Cyprus relocation",
		ArticleType:     "guide",
		App:             "relocation",
		ArticleMode:     domain.ArticleModeGuide,
		TargetWordCount: 500,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, payload.Slug)
	assert.Equal(t, domain.CalculateWordCount(payload.Content), payload.WordCount)
	assert.NotEmpty(t, payload.FeaturedImagePrompt)
}

func TestGenerate_FourActRequiresExactlyFourEntries(t *testing.T) {
	resp := validPayload()
	resp["four_act_content"] = []interface{}{
		map[string]interface{}{"title": "a", "visual_hint": "v1"},
	}
	fake := &fakeClient{response: resp}
	g := New(fake, pipelineconfig.Load())

	_, err := g.Generate(context.Background(), Request{
		Topic:           "Cyprus relocation",
		App:             "relocation",
		TargetWordCount: 500,
		FourAct:         true,
	})
	require.Error(t, err)
}

func TestSlugFromTitle_ShortTitleGetsPrefix(t *testing.T) {
	assert.Equal(t, "article-ai", slugFromTitle("AI"))
}

func TestSlugFromTitle_NormalTitle(t *testing.T) {
	assert.Equal(t, "cyprus-golden-visa-guide", slugFromTitle("Cyprus Golden Visa Guide!"))
}

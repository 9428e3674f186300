package media

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentforge/pipeline/internal/domain"
)

func TestBuildPassthrough_TruncatesAndFormats(t *testing.T) {
	p := buildPassthrough(strings.Repeat("x", 100), "guide", "Cyprus", "relocation", "0123456789abcdef", "article-1")
	assert.True(t, len(p) <= 255)
	assert.Contains(t, p, "app:relocation")
	assert.Contains(t, p, "cluster:01234567")
	assert.Contains(t, p, "id:article-1")
}

func TestBuildVideoPrompt_IncludesNoTextRuleAndActs(t *testing.T) {
	acts := []domain.FourActEntry{
		{Title: "Arrival", VisualHint: "a plane landing"},
		{Title: "Home", VisualHint: "a modern apartment"},
	}
	prompt := buildVideoPrompt("Warm, cinematic style.", acts)
	assert.Contains(t, prompt, noOnScreenTextRule)
	assert.Contains(t, prompt, "ACT 1")
	assert.Contains(t, prompt, "a plane landing")
	assert.LessOrEqual(t, len([]rune(prompt)), videoPromptCharLimit)
}

func TestEvenlyDistribute_SpacesWithinMargins(t *testing.T) {
	times := evenlyDistribute(3, 12)
	require.Len(t, times, 3)
	for _, tm := range times {
		assert.GreaterOrEqual(t, tm, evenDistributionMargin)
		assert.LessOrEqual(t, tm, 12-evenDistributionMargin)
	}
}

func TestInjectSectionImages_FallsBackToEvenDistributionWithoutClassifier(t *testing.T) {
	m := &Media{}
	content := "Intro paragraph.\n\n## First Section\nBody one.\n\n## Second Section\nBody two."
	video := &domain.VideoNarrative{
		PlaybackID:      "pb123",
		DurationSeconds: 12,
		Acts: []domain.Act{
			{Index: 0, StartS: 0, EndS: 3},
			{Index: 1, StartS: 3, EndS: 6},
			{Index: 2, StartS: 6, EndS: 9},
			{Index: 3, StartS: 9, EndS: 12},
		},
	}
	out, err := m.InjectSectionImages(context.Background(), content, video)
	require.NoError(t, err)
	assert.Contains(t, out, "pb123")
	assert.Equal(t, 2, strings.Count(out, "<figure"))
	assert.True(t, strings.Index(out, "## First Section") < strings.Index(out, "<figure"))
}

func TestInjectSectionImages_NoVideoLeavesContentUnchanged(t *testing.T) {
	m := &Media{}
	content := "## Only Section\nBody."
	out, err := m.InjectSectionImages(context.Background(), content, nil)
	require.NoError(t, err)
	assert.Equal(t, content, out)
}

func TestReuseVideo_MarksReusedFromParent(t *testing.T) {
	parent := &domain.VideoNarrative{PlaybackID: "pb1"}
	child := ReuseVideo(parent)
	require.NotNil(t, child)
	assert.True(t, child.ReusedFromParent)
	assert.Equal(t, "pb1", child.PlaybackID)
}

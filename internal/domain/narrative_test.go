package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateWordCount_StripsMarkdown(t *testing.T) {
	text := "# Title\n\nThis *is* a [link](http://x) with `code` and (parens) {braces}."
	got := CalculateWordCount(text)
	assert.Equal(t, len([]string{"Title", "This", "is", "a", "linkhttp://x", "with", "code", "and", "parens", "braces."}), got)
}

func TestCalculateReadingTime_MinimumOneMinute(t *testing.T) {
	assert.Equal(t, 1, CalculateReadingTime(10, 200))
	assert.Equal(t, 1, CalculateReadingTime(0, 200))
	assert.Equal(t, 5, CalculateReadingTime(1000, 200))
}

func TestNarrativePayload_CheckInvariants_WordCountMismatch(t *testing.T) {
	p := &NarrativePayload{
		Content:   "one two three",
		WordCount: 99,
	}
	err := p.CheckInvariants()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invariant 2")
}

func TestNarrativePayload_CheckInvariants_SectionIndexDense(t *testing.T) {
	p := &NarrativePayload{
		Content:   "one two three four",
		WordCount: 4,
		Sections: []Section{
			{Index: 0, WordCount: 2},
			{Index: 2, WordCount: 2},
		},
	}
	err := p.CheckInvariants()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invariant 3")
}

func TestNarrativePayload_CheckInvariants_InlineURLMustBeInSources(t *testing.T) {
	p := &NarrativePayload{
		Content:   "see https://example.com/a for details",
		WordCount: CalculateWordCount("see https://example.com/a for details"),
		Sources:   nil,
	}
	err := p.CheckInvariants()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invariant 4")

	p.Sources = []CuratedEntry{{URL: "https://example.com/a"}}
	assert.NoError(t, p.CheckInvariants())
}

func TestNarrativePayload_CheckInvariants_VideoRequiresThumbnail(t *testing.T) {
	p := &NarrativePayload{
		Content:         "word",
		WordCount:       1,
		VideoPlaybackID: "pb123",
	}
	err := p.CheckInvariants()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invariant 5")

	p.HeroAssetURL = "https://cdn.example.com/hero.jpg"
	assert.NoError(t, p.CheckInvariants())
}

func TestNarrativePayload_CheckInvariants_MetaLengths(t *testing.T) {
	long := make([]byte, 161)
	for i := range long {
		long[i] = 'a'
	}
	p := &NarrativePayload{
		Content:         "word",
		WordCount:       1,
		MetaDescription: string(long),
	}
	err := p.CheckInvariants()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invariant 7")
}

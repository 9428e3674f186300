package research

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/contentforge/pipeline/internal/clients/deepresearch"
	"github.com/contentforge/pipeline/internal/domain"
)

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "https://example.com/a", normalizeURL("http://Example.com/a/"))
	assert.Equal(t, "", normalizeURL("not-a-url"))
}

func TestExtractDomain_StripsWWW(t *testing.T) {
	assert.Equal(t, "example.com", extractDomain("https://www.example.com/a"))
}

func TestFallbackCuration_FlagsCurationFailed(t *testing.T) {
	raw := []domain.RawSource{
		{SourceID: "news_0", ContentText: "a"},
		{SourceID: "crawl_0", ContentText: "b"},
	}
	result := fallbackCuration(raw, 20)
	assert.True(t, result.CurationFailed)
	assert.Len(t, result.Entries, 2)
}

func TestResolveDuplicateGroups_KeepsLongestContent(t *testing.T) {
	c := domain.CuratedSourceSet{
		Entries: []domain.CuratedEntry{
			{SourceID: "a", FullContent: "short"},
			{SourceID: "b", FullContent: "a much longer piece of content"},
		},
		DuplicateGroups: [][]string{{"a", "b"}},
	}
	out := resolveDuplicateGroups(c)
	assert.Len(t, out.Entries, 1)
	assert.Equal(t, "b", out.Entries[0].SourceID)
}

func TestSelectURLs_DedupsAndCapsTopK(t *testing.T) {
	s := &Subsystem{Cfg: Config{TopKURLs: 1}}
	news := []domain.RawSource{
		{URL: "https://example.com/a"},
		{URL: "http://example.com/a/"},
		{URL: "https://example.com/b"},
	}
	urls := s.selectURLs(news, deepresearch.Result{})
	assert.Len(t, urls, 1)
}

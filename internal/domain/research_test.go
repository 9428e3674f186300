package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCuratedSourceSet_SortDeterministic(t *testing.T) {
	c := &CuratedSourceSet{
		Entries: []CuratedEntry{
			{SourceID: "a", RelevanceScore: 5, SourceKind: SourceKindNews, URL: "https://a.com"},
			{SourceID: "b", RelevanceScore: 8, SourceKind: SourceKindDeepResearch, URL: "https://b.com"},
			{SourceID: "c", RelevanceScore: 8, SourceKind: SourceKindCrawledPage, URL: "https://c.com"},
			{SourceID: "d", RelevanceScore: 8, SourceKind: SourceKindCrawledPage, URL: "https://short.io"},
		},
	}
	c.SortDeterministic()
	assert.Equal(t, "c", c.Entries[0].SourceID) // tie on score+kind, shorter URL wins
	assert.Equal(t, "d", c.Entries[1].SourceID)
	assert.Equal(t, "b", c.Entries[2].SourceID)
	assert.Equal(t, "a", c.Entries[3].SourceID)
}

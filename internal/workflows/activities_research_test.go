package workflows

import (
	"testing"

	"github.com/contentforge/pipeline/internal/domain"
)

func TestNormalizeStoryURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://www.example.com/a/b/", "example.com/a/b"},
		{"HTTP://Example.com/a/b?utm_source=x", "example.com/a/b"},
		{"  http://example.com  ", "example.com"},
		{"deepresearch://res-1/0", "deepresearch://res-1/0"},
	}
	for _, tc := range cases {
		if got := normalizeStoryURL(tc.in); got != tc.want {
			t.Fatalf("normalizeStoryURL(%q): got=%q want=%q", tc.in, got, tc.want)
		}
	}
}

func TestRegionKeyFor(t *testing.T) {
	cases := []struct {
		name string
		seed domain.Seed
		want string
	}{
		{"jurisdiction wins", domain.Seed{Jurisdiction: "uk", CountryCode: "sg", App: "placement"}, "uk"},
		{"falls back to country code", domain.Seed{CountryCode: "sg", App: "placement"}, "sg"},
		{"falls back to app", domain.Seed{App: "placement"}, "placement"},
	}
	for _, tc := range cases {
		if got := regionKeyFor(tc.seed); got != tc.want {
			t.Fatalf("%s: regionKeyFor got=%q want=%q", tc.name, got, tc.want)
		}
	}
}

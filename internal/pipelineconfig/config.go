// Package pipelineconfig centralizes the per-app configuration maps
// (knowledge-graph selection, search region, editorial voice) that the
// research, narrative, and knowledge-graph subsystems all consult, with
// environment-variable override support per spec §6's "region/graph-id
// overrides" row.
package pipelineconfig

import (
	"strings"

	"github.com/contentforge/pipeline/internal/platform/envconfig"
)

const defaultGraphID = "finance-knowledge"
const defaultRegion = "us"

var defaultGraphMap = map[string]string{
	"placement":     "finance-knowledge",
	"pe_news":       "finance-knowledge",
	"finance":       "finance-knowledge",
	"relocation":    "relocation",
	"jobs":          "jobs",
	"recruiter":     "jobs",
}

var defaultRegionMap = map[string]string{
	"uk": "uk",
	"us": "us",
	"sg": "sg",
	"eu": "de",
}

// Voice describes the editorial tone/currency conventions for an app, fed
// into the narrative generator's prompt context per spec §4.4 step 1.
type Voice struct {
	Tone     string
	Currency string
	Audience string
}

var defaultVoiceMap = map[string]Voice{
	"placement":  {Tone: "authoritative, data-driven", Currency: "USD", Audience: "institutional investors"},
	"relocation": {Tone: "warm, practical", Currency: "local", Audience: "prospective expats"},
	"jobs":       {Tone: "direct, actionable", Currency: "local", Audience: "job seekers"},
	"recruiter":  {Tone: "direct, actionable", Currency: "local", Audience: "hiring managers"},
}

// Config exposes the app -> graph_id / app -> region / app -> voice maps,
// loaded once at process start with env overrides applied.
type Config struct {
	graphByApp  map[string]string
	regionByApp map[string]string
	voiceByApp  map[string]Voice
}

// Load builds a Config from the built-in defaults plus any
// PIPELINE_GRAPH_OVERRIDE_<APP>=<graph_id> / PIPELINE_REGION_OVERRIDE_<APP>=<region>
// style environment overrides.
func Load() *Config {
	c := &Config{
		graphByApp:  cloneMap(defaultGraphMap),
		regionByApp: cloneMap(defaultRegionMap),
		voiceByApp:  cloneVoiceMap(defaultVoiceMap),
	}
	for app := range c.graphByApp {
		if override := envconfig.String("PIPELINE_GRAPH_OVERRIDE_"+strings.ToUpper(app), ""); override != "" {
			c.graphByApp[app] = override
		}
	}
	for region := range c.regionByApp {
		if override := envconfig.String("PIPELINE_REGION_OVERRIDE_"+strings.ToUpper(region), ""); override != "" {
			c.regionByApp[region] = override
		}
	}
	return c
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneVoiceMap(m map[string]Voice) map[string]Voice {
	out := make(map[string]Voice, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// GraphID returns the app's knowledge-graph id, defaulting to
// finance-knowledge when the app is unrecognized.
func (c *Config) GraphID(app string) string {
	if id, ok := c.graphByApp[strings.ToLower(app)]; ok {
		return id
	}
	return defaultGraphID
}

// Region returns the search region for a 2-letter country/app key,
// defaulting to "us".
func (c *Config) Region(key string) string {
	if r, ok := c.regionByApp[strings.ToLower(key)]; ok {
		return r
	}
	return defaultRegion
}

// VoiceFor returns the editorial voice for an app, or a neutral default.
func (c *Config) VoiceFor(app string) Voice {
	if v, ok := c.voiceByApp[strings.ToLower(app)]; ok {
		return v
	}
	return Voice{Tone: "neutral, informative", Currency: "USD", Audience: "general readers"}
}

// Package kg implements the per-app entity-extraction half of spec §4.6:
// invoking an LLM with a schema fixed per app, then syncing the result as
// an episode to that app's knowledge graph. Grounded on original_source's
// manage_zep_facts.py GRAPH_MAPPING (app -> graph_id selection) and the
// teacher's schema-enforced LLM call pattern already used by
// internal/narrative.
package kg

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/contentforge/pipeline/internal/clients/knowledgegraph"
	"github.com/contentforge/pipeline/internal/clients/llm"
	"github.com/contentforge/pipeline/internal/pipelineconfig"
	"github.com/contentforge/pipeline/internal/platform/apperr"
)

// Schema fixes the entity labels and edge types an app's extraction call
// is constrained to, per spec §4.6's "Entity extraction" table.
type Schema struct {
	EntityLabels []string
	EdgeTypes    []string
}

var schemaByApp = map[string]Schema{
	"placement":  {EntityLabels: []string{"Deal", "Person", "Company"}, EdgeTypes: []string{"ADVISED_ON", "WORKS_AT", "PARTNERED_WITH"}},
	"pe_news":    {EntityLabels: []string{"Deal", "Person", "Company"}, EdgeTypes: []string{"ADVISED_ON", "WORKS_AT", "PARTNERED_WITH"}},
	"finance":    {EntityLabels: []string{"Deal", "Person", "Company"}, EdgeTypes: []string{"ADVISED_ON", "WORKS_AT", "PARTNERED_WITH"}},
	"jobs":       {EntityLabels: []string{"Job", "Skill", "Company", "Location"}, EdgeTypes: []string{"REQUIRES_ESSENTIAL", "REQUIRES_PREFERRED", "POSTED_BY", "LOCATED_IN"}},
	"recruiter":  {EntityLabels: []string{"Job", "Skill", "Company", "Location"}, EdgeTypes: []string{"REQUIRES_ESSENTIAL", "REQUIRES_PREFERRED", "POSTED_BY", "LOCATED_IN"}},
	"relocation": {EntityLabels: []string{"Location", "Country", "Company"}, EdgeTypes: []string{"IN_COUNTRY"}},
}

var defaultSchema = schemaByApp["finance"]

// SchemaFor returns the fixed entity/edge schema for app, defaulting to
// the finance schema for unrecognized apps (mirroring pipelineconfig's
// GraphID default).
func SchemaFor(app string) Schema {
	if s, ok := schemaByApp[strings.ToLower(app)]; ok {
		return s
	}
	return defaultSchema
}

type extractedEntity struct {
	Label string `json:"label"`
	Name  string `json:"name"`
}

type extractedEdge struct {
	FromName string `json:"from_name"`
	ToName   string `json:"to_name"`
	Type     string `json:"type"`
	Fact     string `json:"fact"`
}

// Syncer extracts typed entities/edges from content and syncs them as a
// knowledge-graph episode.
type Syncer struct {
	LLM   llm.Client
	Graph *knowledgegraph.Adapter
	Cfg   *pipelineconfig.Config
}

func New(llmClient llm.Client, graph *knowledgegraph.Adapter, cfg *pipelineconfig.Config) *Syncer {
	return &Syncer{LLM: llmClient, Graph: graph, Cfg: cfg}
}

// SyncContent runs the §4.6 algorithm: extract entities/edges per the
// app's fixed schema, then append an episode summarizing contentID to the
// app's graph. Failure here is non-fatal by contract - callers should log
// and continue, never roll back persistence on it.
func (s *Syncer) SyncContent(ctx context.Context, app, contentID, title, content string) error {
	if s.LLM == nil || s.Graph == nil {
		return apperr.New(apperr.KindConfigMissing, "kg syncer not fully configured", nil)
	}
	cfg := s.Cfg
	if cfg == nil {
		cfg = pipelineconfig.Load()
	}
	graphID := cfg.GraphID(app)
	schema := SchemaFor(app)

	entities, edges, err := s.extract(ctx, schema, content)
	if err != nil {
		return err
	}

	nameToID := make(map[string]uuid.UUID, len(entities))
	graphEntities := make([]knowledgegraph.Entity, 0, len(entities))
	for _, e := range entities {
		if e.Name == "" || e.Label == "" {
			continue
		}
		id := deterministicID(graphID, e.Label, e.Name)
		nameToID[e.Name] = id
		graphEntities = append(graphEntities, knowledgegraph.Entity{ID: id, Label: e.Label, Name: e.Name})
	}

	graphEdges := make([]knowledgegraph.Edge, 0, len(edges))
	for _, e := range edges {
		fromID, ok1 := nameToID[e.FromName]
		toID, ok2 := nameToID[e.ToName]
		if !ok1 || !ok2 || e.Type == "" {
			continue
		}
		graphEdges = append(graphEdges, knowledgegraph.Edge{FromID: fromID, ToID: toID, Type: e.Type, Fact: e.Fact})
	}

	episodeID := deterministicID(graphID, "Episode", contentID)
	summary := fmt.Sprintf("%s: %s", title, truncateRunes(content, 500))
	return s.Graph.SyncEpisode(ctx, graphID, episodeID, summary, graphEntities, graphEdges)
}

func (s *Syncer) extract(ctx context.Context, schema Schema, content string) ([]extractedEntity, []extractedEdge, error) {
	system := fmt.Sprintf(
		"Extract typed entities and relations from the given content. Entities must use one of these labels: %s. Relations must use one of these types: %s. Only extract entities/relations explicitly supported by the text.",
		strings.Join(schema.EntityLabels, ", "), strings.Join(schema.EdgeTypes, ", "),
	)
	user := "Content:\n" + truncateRunes(content, 20000)

	jsonSchema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"entities": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"label": map[string]interface{}{"type": "string", "enum": schema.EntityLabels},
						"name":  map[string]interface{}{"type": "string"},
					},
					"required": []string{"label", "name"},
				},
			},
			"edges": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"from_name": map[string]interface{}{"type": "string"},
						"to_name":   map[string]interface{}{"type": "string"},
						"type":      map[string]interface{}{"type": "string", "enum": schema.EdgeTypes},
						"fact":      map[string]interface{}{"type": "string"},
					},
					"required": []string{"from_name", "to_name", "type", "fact"},
				},
			},
		},
		"required": []string{"entities", "edges"},
	}

	raw, err := s.LLM.GenerateJSON(ctx, system, user, "kg_extraction", jsonSchema)
	if err != nil {
		return nil, nil, err
	}

	entities := decodeEntities(raw["entities"])
	edges := decodeEdges(raw["edges"])
	return entities, edges, nil
}

func decodeEntities(v interface{}) []extractedEntity {
	arr, _ := v.([]interface{})
	out := make([]extractedEntity, 0, len(arr))
	for _, item := range arr {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		label, _ := m["label"].(string)
		name, _ := m["name"].(string)
		out = append(out, extractedEntity{Label: label, Name: name})
	}
	return out
}

func decodeEdges(v interface{}) []extractedEdge {
	arr, _ := v.([]interface{})
	out := make([]extractedEdge, 0, len(arr))
	for _, item := range arr {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		fromName, _ := m["from_name"].(string)
		toName, _ := m["to_name"].(string)
		typ, _ := m["type"].(string)
		fact, _ := m["fact"].(string)
		out = append(out, extractedEdge{FromName: fromName, ToName: toName, Type: typ, Fact: fact})
	}
	return out
}

// deterministicID derives a stable uuid from (graphID, label, name) so
// repeated syncs of the same entity across workflow replays merge onto
// the same node instead of duplicating it.
func deterministicID(graphID, label, name string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(graphID+"|"+label+"|"+strings.ToLower(name)))
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

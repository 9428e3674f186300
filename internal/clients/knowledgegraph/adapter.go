// Package knowledgegraph implements the graph-sync half of spec §4.6:
// appending episodes and typed entities/edges to an app-specific neo4j
// graph, and querying currently-valid facts back out for research context.
// Grounded on the teacher's internal/data/graph/neo4j_concept_graph.go
// (UNWIND+MERGE batch-upsert shape, session.ExecuteWrite transaction
// style) and original_source's manage_zep_facts.py, which shows the
// original pipeline synced to a managed Zep/Graphiti graph carrying
// valid_at/invalid_at fact-validity windows - this adapter reimplements
// that same validity-window semantics directly against neo4j rather than
// depending on a third-party graph-memory service.
package knowledgegraph

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/contentforge/pipeline/internal/platform/apperr"
	"github.com/contentforge/pipeline/internal/platform/neo4jdb"
)

// Entity is one extracted node, labeled per the app-specific schema in
// spec §4.6 (Deal/Person/Company for finance, Job/Skill/Company/Location
// for jobs, Location/Country/Company for relocation).
type Entity struct {
	ID         uuid.UUID
	Label      string
	Name       string
	Properties map[string]interface{}
}

// Edge is one extracted typed relation, carrying the fact-validity window
// search_edges filters on.
type Edge struct {
	FromID  uuid.UUID
	ToID    uuid.UUID
	Type    string
	Fact    string
	ValidAt time.Time
}

type Adapter struct {
	client *neo4jdb.Client
}

func New(client *neo4jdb.Client) *Adapter {
	return &Adapter{client: client}
}

// SyncEpisode appends an episode node summarizing new content and upserts
// the entities/edges extracted from it, scoped to graphID. A nil or
// unconfigured client is a silent no-op - spec §4.6 treats KG sync as
// best-effort and callers are expected to log failures rather than fail
// the owning workflow.
func (a *Adapter) SyncEpisode(ctx context.Context, graphID string, episodeID uuid.UUID, summary string, entities []Entity, edges []Edge) error {
	if a.client == nil || a.client.Driver == nil {
		return nil
	}

	session := a.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: a.client.Database,
	})
	defer session.Close(ctx)

	now := time.Now().UTC().Format(time.RFC3339Nano)

	nodes := make([]map[string]interface{}, 0, len(entities))
	for _, e := range entities {
		if e.ID == uuid.Nil || e.Label == "" {
			continue
		}
		nodes = append(nodes, map[string]interface{}{
			"id": e.ID.String(), "label": e.Label, "name": e.Name,
			"graph_id": graphID, "props_json": marshalProps(e.Properties), "synced_at": now,
		})
	}

	rels := make([]map[string]interface{}, 0, len(edges))
	for _, e := range edges {
		if e.FromID == uuid.Nil || e.ToID == uuid.Nil || e.Type == "" {
			continue
		}
		validAt := e.ValidAt
		if validAt.IsZero() {
			validAt = time.Now().UTC()
		}
		rels = append(rels, map[string]interface{}{
			"from_id": e.FromID.String(), "to_id": e.ToID.String(), "edge_type": e.Type,
			"fact": e.Fact, "graph_id": graphID, "valid_at": validAt.UTC().Format(time.RFC3339Nano),
			"episode_id": episodeID.String(), "synced_at": now,
		})
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if res, err := tx.Run(ctx, `
MERGE (ep:Episode {id: $id})
SET ep.graph_id = $graph_id, ep.summary = $summary, ep.created_at = $now
`, map[string]interface{}{"id": episodeID.String(), "graph_id": graphID, "summary": summary, "now": now}); err != nil {
			return nil, err
		} else if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}

		if len(nodes) > 0 {
			res, err := tx.Run(ctx, `
UNWIND $nodes AS n
MERGE (e:Entity {id: n.id})
SET e += n
`, map[string]interface{}{"nodes": nodes})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}

		if len(rels) > 0 {
			res, err := tx.Run(ctx, `
UNWIND $rels AS r
MATCH (a:Entity {id: r.from_id})
MATCH (b:Entity {id: r.to_id})
MERGE (a)-[rel:RELATION {edge_type: r.edge_type, graph_id: r.graph_id}]->(b)
SET rel.fact = r.fact, rel.valid_at = r.valid_at, rel.invalid_at = null,
    rel.episode_id = r.episode_id, rel.synced_at = r.synced_at
`, map[string]interface{}{"rels": rels})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}

		return nil, nil
	})
	if err != nil {
		return apperr.Wrap(apperr.KindUnknown, true, err)
	}
	return nil
}

// SearchEdges returns fact strings for currently-valid edges (invalid_at
// is null) whose fact text or endpoint names match query, most-recent
// first, capped at limit. Implements the research subsystem's
// KGContextQuerier interface (spec §4.3's KG-context fan-out leg, §4.6's
// "search_edges" contract).
func (a *Adapter) SearchEdges(ctx context.Context, graphID, query string, limit int) ([]string, error) {
	if a.client == nil || a.client.Driver == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	session := a.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: a.client.Database,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (a:Entity)-[r:RELATION {graph_id: $graph_id}]->(b:Entity)
WHERE r.invalid_at IS NULL
  AND (toLower(r.fact) CONTAINS toLower($query)
       OR toLower(a.name) CONTAINS toLower($query)
       OR toLower(b.name) CONTAINS toLower($query))
RETURN r.fact AS fact
ORDER BY r.valid_at DESC
LIMIT $limit
`, map[string]interface{}{"graph_id": graphID, "query": query, "limit": int64(limit)})
		if err != nil {
			return nil, err
		}
		facts := []string{}
		for res.Next(ctx) {
			if f, ok := res.Record().Get("fact"); ok {
				if s, ok := f.(string); ok {
					facts = append(facts, s)
				}
			}
		}
		return facts, res.Err()
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnknown, true, err)
	}
	facts, _ := result.([]string)
	return facts, nil
}

func marshalProps(props map[string]interface{}) string {
	if len(props) == 0 {
		return ""
	}
	b, err := json.Marshal(props)
	if err != nil {
		return ""
	}
	return string(b)
}

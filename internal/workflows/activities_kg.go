package workflows

import (
	"context"

	"github.com/contentforge/pipeline/internal/platform/apperr"
)

// SyncKnowledgeGraphInput is Workflow A step 7's input - kg sync runs after
// persistence and must never fail the owning workflow (spec §4.8: "best
// effort, logged on failure").
type SyncKnowledgeGraphInput struct {
	App       string
	ContentID string
	Title     string
	Content   string
}

type SyncKnowledgeGraphOutput struct {
	Synced bool   `json:"synced"`
	Error  string `json:"error,omitempty"`
}

// SyncKnowledgeGraph wraps kg.Syncer.SyncContent, swallowing its error into
// the output rather than failing the activity - grounded on spec §4.8's
// "best-effort" phrasing for this step, mirrored by the teacher's pattern of
// not letting secondary side effects (notifications) fail a job run.
func (a *Activities) SyncKnowledgeGraph(ctx context.Context, in SyncKnowledgeGraphInput) (SyncKnowledgeGraphOutput, error) {
	if a.KG == nil {
		return SyncKnowledgeGraphOutput{}, apperr.New(apperr.KindConfigMissing, "knowledge graph syncer not configured", nil)
	}
	if err := a.KG.SyncContent(ctx, in.App, in.ContentID, in.Title, in.Content); err != nil {
		a.Log.Warn("knowledge graph sync failed", "content_id", in.ContentID, "error", err)
		return SyncKnowledgeGraphOutput{Synced: false, Error: err.Error()}, nil
	}
	return SyncKnowledgeGraphOutput{Synced: true}, nil
}

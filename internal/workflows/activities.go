package workflows

import (
	"gorm.io/gorm"

	"go.temporal.io/sdk/temporal"

	"github.com/contentforge/pipeline/internal/clients/crawl"
	"github.com/contentforge/pipeline/internal/clients/deepresearch"
	"github.com/contentforge/pipeline/internal/clients/llm"
	"github.com/contentforge/pipeline/internal/clients/newssearch"
	"github.com/contentforge/pipeline/internal/data/repos/content"
	"github.com/contentforge/pipeline/internal/kg"
	"github.com/contentforge/pipeline/internal/media"
	"github.com/contentforge/pipeline/internal/narrative"
	"github.com/contentforge/pipeline/internal/pipelineconfig"
	"github.com/contentforge/pipeline/internal/platform/apperr"
	"github.com/contentforge/pipeline/internal/platform/logger"
	"github.com/contentforge/pipeline/internal/research"
)

// Activities bundles every subsystem the workflows call into, grouped by
// responsibility rather than by pipeline per spec §4.8 / SPEC_FULL §4.8:
// activities_research.go, activities_narrative.go, activities_media.go,
// activities_kg.go, and activities_persistence.go each hold a slice of
// this struct's methods. One instance is constructed at worker startup
// (cmd/pipeline) and registered with the Temporal worker, mirroring the
// teacher's jobrun.Activities{Log, DB, Jobs, Registry, Notify} shape.
type Activities struct {
	Log *logger.Logger
	DB  *gorm.DB
	Cfg *pipelineconfig.Config

	Research  *research.Subsystem
	Narrative *narrative.Generator
	Media     *media.Media
	KG        *kg.Syncer

	NewsSearch *newssearch.Adapter
	DeepResearch *deepresearch.Adapter
	Crawl      *crawl.Adapter
	LLM        llm.Client

	Articles ArticleRepoPair
}

// ArticleRepoPair bundles the four content repos an activity layer needs;
// kept as one struct so Activities doesn't grow four more top-level fields.
type ArticleRepoPair struct {
	Articles  content.ArticleRepo
	Hubs      content.HubRepo
	Companies content.CompanyRepo
	History   content.HistoryRepo
}

// wrapActivityErr classifies err per apperr's ErrorKind taxonomy and, when
// it's not retryable (auth/upstream_4xx/parse/quota/...), converts it into a
// non-retryable temporal.ApplicationError so Temporal fails the activity fast
// instead of burning its RetryPolicy's MaximumAttempts on a call that can
// never succeed. Retryable kinds (rate_limited/upstream_5xx/timeout) pass
// through as a plain error, which Temporal's default RetryPolicy will retry.
func wrapActivityErr(err error) error {
	if err == nil {
		return nil
	}
	if apperr.IsRetryable(err) {
		return err
	}
	return temporal.NewApplicationError(err.Error(), string(apperr.Classify(err)), true, err)
}

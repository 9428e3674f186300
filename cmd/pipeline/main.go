// Command pipeline is the content-production pipeline's single binary:
// RUN_SERVER starts the HTTP gateway that accepts seed requests and starts
// workflows, RUN_WORKER starts the Temporal worker that executes them. Both
// default on so a single container can run the whole pipeline in dev.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/contentforge/pipeline/internal/clients/cdn"
	"github.com/contentforge/pipeline/internal/clients/crawl"
	"github.com/contentforge/pipeline/internal/clients/deepresearch"
	"github.com/contentforge/pipeline/internal/clients/imagegen"
	"github.com/contentforge/pipeline/internal/clients/knowledgegraph"
	"github.com/contentforge/pipeline/internal/clients/llm"
	"github.com/contentforge/pipeline/internal/clients/mediahost"
	"github.com/contentforge/pipeline/internal/clients/newssearch"
	"github.com/contentforge/pipeline/internal/clients/videogen"
	"github.com/contentforge/pipeline/internal/data/db"
	"github.com/contentforge/pipeline/internal/data/repos/content"
	pipelinehttp "github.com/contentforge/pipeline/internal/http"
	httpH "github.com/contentforge/pipeline/internal/http/handlers"
	"github.com/contentforge/pipeline/internal/kg"
	"github.com/contentforge/pipeline/internal/media"
	"github.com/contentforge/pipeline/internal/narrative"
	"github.com/contentforge/pipeline/internal/pipelineconfig"
	"github.com/contentforge/pipeline/internal/platform/envconfig"
	"github.com/contentforge/pipeline/internal/platform/gcp"
	"github.com/contentforge/pipeline/internal/platform/logger"
	"github.com/contentforge/pipeline/internal/platform/neo4jdb"
	"github.com/contentforge/pipeline/internal/research"
	"github.com/contentforge/pipeline/internal/temporalx"
	"github.com/contentforge/pipeline/internal/temporalx/temporalworker"
	"github.com/contentforge/pipeline/internal/workflows"
)

func main() {
	log, err := logger.New(envconfig.String("LOG_MODE", "development"))
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("postgres connect failed", "error", err)
	}
	gormDB := pg.DB()
	if err := pg.AutoMigrateAll(); err != nil {
		log.Fatal("auto-migration failed", "error", err)
	}

	cfg := pipelineconfig.Load()

	llmClient, err := llm.New(llm.LoadConfig(), log)
	if err != nil {
		log.Fatal("llm client init failed", "error", err)
	}

	bucket, err := gcp.NewBucketService(log)
	if err != nil {
		log.Warn("gcs bucket service unavailable; CDN uploads will fail", "error", err)
	}

	var neo4jClient *neo4jdb.Client
	if c, err := neo4jdb.NewFromEnv(log); err != nil {
		log.Warn("neo4j client unavailable; knowledge-graph sync disabled", "error", err)
	} else {
		neo4jClient = c
	}
	graph := knowledgegraph.New(neo4jClient)

	newsSearch := newssearch.New(newssearch.LoadConfig())
	deepResearch := deepresearch.New(deepresearch.LoadConfig())
	crawler := crawl.New(crawl.LoadConfig())
	cdnAdapter := cdn.New(bucket)
	videoGen := videogen.New(llmClient)
	imageGen := imagegen.New(llmClient)
	mediaHost := mediahost.New(mediahost.LoadConfig())

	researchSubsystem := research.New(newsSearch, deepResearch, crawler, graph, llmClient, research.DefaultConfig(), log)
	narrativeGen := narrative.New(llmClient, cfg)
	mediaSvc := media.New(videoGen, mediaHost, imageGen, cdnAdapter, llmClient)
	kgSyncer := kg.New(llmClient, graph, cfg)

	acts := &workflows.Activities{
		Log: log, DB: gormDB, Cfg: cfg,
		Research: researchSubsystem, Narrative: narrativeGen, Media: mediaSvc, KG: kgSyncer,
		NewsSearch: newsSearch, DeepResearch: deepResearch, Crawl: crawler, LLM: llmClient,
		Articles: workflows.ArticleRepoPair{
			Articles:  content.NewArticleRepo(gormDB, log),
			Hubs:      content.NewHubRepo(gormDB, log),
			Companies: content.NewCompanyRepo(gormDB, log),
			History:   content.NewHistoryRepo(gormDB, log),
		},
	}

	runServer := envconfig.Bool("RUN_SERVER", true)
	runWorker := envconfig.Bool("RUN_WORKER", true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tc, err := temporalx.NewClient(log)
	if err != nil {
		log.Fatal("temporal client init failed", "error", err)
	}

	if runWorker {
		if tc == nil {
			log.Warn("RUN_WORKER set but Temporal is not configured; worker disabled")
		} else {
			runner, err := temporalworker.NewRunner(log, tc, acts)
			if err != nil {
				log.Fatal("temporal worker init failed", "error", err)
			}
			if err := runner.Start(ctx); err != nil {
				log.Fatal("temporal worker failed to start", "error", err)
			}
		}
	}

	if runServer {
		server := pipelinehttp.NewServer(pipelinehttp.RouterConfig{
			WorkflowHandler: httpH.NewWorkflowHandler(tc),
			HealthHandler:   httpH.NewHealthHandler(),
			Log:             log,
		})
		port := envconfig.String("PORT", "8080")
		log.Info("HTTP gateway listening", "port", port)
		if err := server.Run(":" + port); err != nil {
			log.Fatal("HTTP gateway failed", "error", err)
		}
		return
	}

	<-ctx.Done()
}

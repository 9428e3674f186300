package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/contentforge/pipeline/internal/domain"
	"github.com/contentforge/pipeline/internal/http/response"
	"github.com/contentforge/pipeline/internal/workflows"
)

var errTemporalDisabled = errors.New("temporal client not configured")

// WorkflowHandler starts the pipeline's top-level workflows per §6.1 - every
// route here maps a seed payload onto a Temporal StartWorkflowOptions call
// and returns the workflow/run ID pair for polling, rather than blocking on
// completion.
type WorkflowHandler struct {
	temporal temporalsdkclient.Client
}

func NewWorkflowHandler(temporal temporalsdkclient.Client) *WorkflowHandler {
	return &WorkflowHandler{temporal: temporal}
}

type startedWorkflow struct {
	WorkflowID string `json:"workflow_id"`
	RunID      string `json:"run_id"`
}

type articleRequest struct {
	Topic           string `json:"topic" binding:"required"`
	ArticleType     string `json:"article_type" binding:"required"`
	App             string `json:"app" binding:"required"`
	TargetWordCount int    `json:"target_word_count"`
	Jurisdiction    string `json:"jurisdiction"`
	GenerateImages  bool   `json:"generate_images"`
}

// POST /v1/workflows/article
func (h *WorkflowHandler) StartArticle(c *gin.Context) {
	var req articleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	seed := domain.Seed{
		Kind: domain.SeedKindTopic, Topic: req.Topic, ArticleType: req.ArticleType,
		App: req.App, TargetWordCount: req.TargetWordCount, Jurisdiction: req.Jurisdiction,
		GenerateImages: req.GenerateImages,
	}
	if err := seed.Validate(); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_seed", err)
		return
	}
	in := workflows.ArticleInput{Seed: seed}
	h.start(c, workflows.WorkflowArticleCreation, "article-"+uuid.NewString(), in)
}

type companyRequest struct {
	URL      string `json:"url" binding:"required"`
	App      string `json:"app" binding:"required"`
	Category string `json:"category"`
}

// POST /v1/workflows/company
func (h *WorkflowHandler) StartCompanyProfile(c *gin.Context) {
	var req companyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	seed := domain.Seed{Kind: domain.SeedKindCompanyURL, URL: req.URL, App: req.App, Category: req.Category}
	if err := seed.Validate(); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_seed", err)
		return
	}
	in := workflows.CompanyProfileInput{Seed: seed}
	h.start(c, workflows.WorkflowCompanyProfile, "company-"+uuid.NewString(), in)
}

type countryGuideRequest struct {
	CountryName  string `json:"country_name" binding:"required"`
	CountryCode  string `json:"country_code" binding:"required"`
	App          string `json:"app" binding:"required"`
	VideoQuality string `json:"video_quality"`
}

// POST /v1/workflows/country-guide
func (h *WorkflowHandler) StartCountryGuide(c *gin.Context) {
	var req countryGuideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	seed := domain.Seed{
		Kind: domain.SeedKindCountry, CountryName: req.CountryName, CountryCode: req.CountryCode,
		App: req.App, VideoQuality: req.VideoQuality,
	}
	if err := seed.Validate(); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_seed", err)
		return
	}
	in := workflows.CountryGuideInput{Seed: seed}
	h.start(c, workflows.WorkflowCountryGuide, "country-guide-"+req.CountryCode+"-"+uuid.NewString(), in)
}

func (h *WorkflowHandler) start(c *gin.Context, workflowName, workflowID string, input interface{}) {
	if h.temporal == nil {
		response.RespondError(c, http.StatusServiceUnavailable, "temporal_unavailable", errTemporalDisabled)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	run, err := h.temporal.ExecuteWorkflow(ctx, temporalsdkclient.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: workflows.TaskQueue,
	}, workflowName, input)
	if err != nil {
		response.RespondError(c, http.StatusBadGateway, "workflow_start_failed", err)
		return
	}
	response.RespondOK(c, startedWorkflow{WorkflowID: run.GetID(), RunID: run.GetRunID()})
}

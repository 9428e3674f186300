package workflows

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/contentforge/pipeline/internal/domain"
	"github.com/contentforge/pipeline/internal/pkg/dbctx"
	"github.com/contentforge/pipeline/internal/platform/apperr"
)

func (a *Activities) dbc(ctx context.Context) dbctx.Context {
	return dbctx.Context{Ctx: ctx, Tx: a.DB}
}

// UpsertArticleInput is Workflow A/F's final persistence step input.
type UpsertArticleInput struct {
	Payload *domain.NarrativePayload
}

type UpsertArticleOutput struct {
	ArticleID string `json:"article_id"`
}

func (a *Activities) UpsertArticle(ctx context.Context, in UpsertArticleInput) (UpsertArticleOutput, error) {
	if a.Articles.Articles == nil {
		return UpsertArticleOutput{}, apperr.New(apperr.KindConfigMissing, "article repo not configured", nil)
	}
	rec, err := domain.ToArticleRecord(in.Payload)
	if err != nil {
		return UpsertArticleOutput{}, apperr.New(apperr.KindUnknown, "serialize article payload", err)
	}
	id, err := a.Articles.Articles.UpsertArticle(a.dbc(ctx), rec)
	if err != nil {
		return UpsertArticleOutput{}, err
	}
	return UpsertArticleOutput{ArticleID: id.String()}, nil
}

// GetArticleBySlugInput is used by dedup checks across several workflows.
type GetArticleBySlugInput struct {
	App  string
	Slug string
}

func (a *Activities) GetArticleBySlug(ctx context.Context, in GetArticleBySlugInput) (*domain.NarrativePayload, error) {
	if a.Articles.Articles == nil {
		return nil, apperr.New(apperr.KindConfigMissing, "article repo not configured", nil)
	}
	rec, err := a.Articles.Articles.GetBySlug(a.dbc(ctx), in.App, in.Slug)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	return domain.FromArticleRecord(rec)
}

// GetRecentArticlesInput is Workflow B's dedup-window lookup input.
type GetRecentArticlesInput struct {
	App   string
	Since time.Time
	Limit int
}

func (a *Activities) GetRecentArticles(ctx context.Context, in GetRecentArticlesInput) ([]*domain.NarrativePayload, error) {
	if a.Articles.Articles == nil {
		return nil, apperr.New(apperr.KindConfigMissing, "article repo not configured", nil)
	}
	recs, err := a.Articles.Articles.GetRecentArticles(a.dbc(ctx), in.App, in.Since, in.Limit)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.NarrativePayload, 0, len(recs))
	for _, rec := range recs {
		p, err := domain.FromArticleRecord(rec)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// LinkArticleCompanyInput is Workflow A's company-mention join step.
type LinkArticleCompanyInput struct {
	ArticleID      string
	CompanyID      string
	RelevanceScore float64
}

func (a *Activities) LinkArticleCompany(ctx context.Context, in LinkArticleCompanyInput) error {
	if a.Articles.Articles == nil {
		return apperr.New(apperr.KindConfigMissing, "article repo not configured", nil)
	}
	articleID, err := uuid.Parse(in.ArticleID)
	if err != nil {
		return apperr.New(apperr.KindSchemaValidation, "invalid article id", err)
	}
	companyID, err := uuid.Parse(in.CompanyID)
	if err != nil {
		return apperr.New(apperr.KindSchemaValidation, "invalid company id", err)
	}
	return a.Articles.Articles.LinkCompany(a.dbc(ctx), articleID, companyID, in.RelevanceScore)
}

// UpsertHubInput is Workflow C's final aggregation-persistence step.
type UpsertHubInput struct {
	Hub *domain.Hub
}

type UpsertHubOutput struct {
	HubID string `json:"hub_id"`
}

func (a *Activities) UpsertHub(ctx context.Context, in UpsertHubInput) (UpsertHubOutput, error) {
	if a.Articles.Hubs == nil {
		return UpsertHubOutput{}, apperr.New(apperr.KindConfigMissing, "hub repo not configured", nil)
	}
	rec, err := domain.ToHubRecord(in.Hub)
	if err != nil {
		return UpsertHubOutput{}, apperr.New(apperr.KindUnknown, "serialize hub payload", err)
	}
	id, err := a.Articles.Hubs.UpsertHub(a.dbc(ctx), rec)
	if err != nil {
		return UpsertHubOutput{}, err
	}
	return UpsertHubOutput{HubID: id.String()}, nil
}

type GetHubBySlugInput struct {
	CountryCode string
	Slug        string
}

func (a *Activities) GetHubBySlug(ctx context.Context, in GetHubBySlugInput) (*domain.Hub, error) {
	if a.Articles.Hubs == nil {
		return nil, apperr.New(apperr.KindConfigMissing, "hub repo not configured", nil)
	}
	rec, err := a.Articles.Hubs.GetBySlug(a.dbc(ctx), in.CountryCode, in.Slug)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	return domain.FromHubRecord(rec)
}

// UpsertCompanyInput is Workflow D's final persistence step.
type UpsertCompanyInput struct {
	Company *domain.CompanyRecord
}

type UpsertCompanyOutput struct {
	CompanyID string `json:"company_id"`
}

func (a *Activities) UpsertCompany(ctx context.Context, in UpsertCompanyInput) (UpsertCompanyOutput, error) {
	if a.Articles.Companies == nil {
		return UpsertCompanyOutput{}, apperr.New(apperr.KindConfigMissing, "company repo not configured", nil)
	}
	rec, err := domain.ToCompanyRecordRow(in.Company)
	if err != nil {
		return UpsertCompanyOutput{}, apperr.New(apperr.KindUnknown, "serialize company payload", err)
	}
	id, err := a.Articles.Companies.UpsertCompany(a.dbc(ctx), rec)
	if err != nil {
		return UpsertCompanyOutput{}, err
	}
	return UpsertCompanyOutput{CompanyID: id.String()}, nil
}

type GetCompanyBySlugInput struct {
	App  string
	Slug string
}

func (a *Activities) GetCompanyBySlug(ctx context.Context, in GetCompanyBySlugInput) (*domain.CompanyRecord, error) {
	if a.Articles.Companies == nil {
		return nil, apperr.New(apperr.KindConfigMissing, "company repo not configured", nil)
	}
	rec, err := a.Articles.Companies.GetBySlug(a.dbc(ctx), in.App, in.Slug)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	return domain.FromCompanyRecordRow(rec)
}

// AppendScrapeHistoryInput is Workflow B's sweep-tracking step.
type AppendScrapeHistoryInput struct {
	BoardID         string
	Status          string
	JobsFound       int
	ExecutionTimeMs int64
}

func (a *Activities) AppendScrapeHistory(ctx context.Context, in AppendScrapeHistoryInput) error {
	if a.Articles.History == nil {
		return apperr.New(apperr.KindConfigMissing, "history repo not configured", nil)
	}
	rec := &domain.ScrapeHistoryRecord{
		BoardID: in.BoardID, Status: in.Status, JobsFound: in.JobsFound,
		ExecutionTimeMs: in.ExecutionTimeMs, StartedAt: time.Now(),
	}
	return a.Articles.History.AppendScrapeHistory(a.dbc(ctx), rec)
}

// UpsertJobRecordInput tracks per-URL scheduling state for the news monitor.
type UpsertJobRecordInput struct {
	URL           string
	NormalizedURL string
	LastScrapedAt *time.Time
}

func (a *Activities) UpsertJobRecord(ctx context.Context, in UpsertJobRecordInput) error {
	if a.Articles.History == nil {
		return apperr.New(apperr.KindConfigMissing, "history repo not configured", nil)
	}
	rec := &domain.JobRecordRow{URL: in.URL, NormalizedURL: in.NormalizedURL, LastScrapedAt: in.LastScrapedAt}
	return a.Articles.History.UpsertJobRecord(a.dbc(ctx), rec)
}

type GetJobRecordInput struct {
	NormalizedURL string
}

func (a *Activities) GetJobRecordByURL(ctx context.Context, in GetJobRecordInput) (*domain.JobRecord, error) {
	if a.Articles.History == nil {
		return nil, apperr.New(apperr.KindConfigMissing, "history repo not configured", nil)
	}
	rec, err := a.Articles.History.GetJobRecordByURL(a.dbc(ctx), in.NormalizedURL)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	return &domain.JobRecord{
		ID: rec.ID.String(), URL: rec.URL, NormalizedURL: rec.NormalizedURL,
		LastScrapedAt: rec.LastScrapedAt,
	}, nil
}

// LinkArticleToCountryInput is Workflow C's country-aggregation join step.
type LinkArticleToCountryInput struct {
	ArticleID   string
	CountryCode string
	Role        string
}

func (a *Activities) LinkArticleToCountry(ctx context.Context, in LinkArticleToCountryInput) error {
	if a.Articles.History == nil {
		return apperr.New(apperr.KindConfigMissing, "history repo not configured", nil)
	}
	articleID, err := uuid.Parse(in.ArticleID)
	if err != nil {
		return apperr.New(apperr.KindSchemaValidation, "invalid article id", err)
	}
	return a.Articles.History.LinkArticleToCountry(a.dbc(ctx), articleID, in.CountryCode, in.Role)
}

type GetCountryInput struct {
	CountryCode string
}

func (a *Activities) GetCountry(ctx context.Context, in GetCountryInput) (*domain.CountryRecordRow, error) {
	if a.Articles.History == nil {
		return nil, apperr.New(apperr.KindConfigMissing, "history repo not configured", nil)
	}
	return a.Articles.History.GetCountry(a.dbc(ctx), in.CountryCode)
}

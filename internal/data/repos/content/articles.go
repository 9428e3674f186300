// Package content implements the persistence adapter contract of spec
// §4.7: slug-keyed upserts for articles/hubs/companies and append-only
// history tables. Grounded on the teacher's
// internal/data/repos/jobs/job_run.go (interface + struct{db,log},
// dbctx.Context transaction-fallback, every write stamping updated_at).
package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/contentforge/pipeline/internal/domain"
	"github.com/contentforge/pipeline/internal/pkg/dbctx"
	"github.com/contentforge/pipeline/internal/platform/logger"
)

// ArticleRepo implements upsert_article/get_by_slug/get_recent_articles
// (spec §4.7), keyed on (app, slug) per invariant 1.
type ArticleRepo interface {
	UpsertArticle(dbc dbctx.Context, rec *domain.ArticleRecord) (uuid.UUID, error)
	GetBySlug(dbc dbctx.Context, app, slug string) (*domain.ArticleRecord, error)
	GetRecentArticles(dbc dbctx.Context, app string, since time.Time, limit int) ([]*domain.ArticleRecord, error)
	LinkCompany(dbc dbctx.Context, articleID, companyID uuid.UUID, relevanceScore float64) error
}

type articleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewArticleRepo(db *gorm.DB, baseLog *logger.Logger) ArticleRepo {
	return &articleRepo{db: db, log: baseLog.With("repo", "ArticleRepo")}
}

// UpsertArticle is keyed on (app, slug): on conflict it updates the
// non-identity columns and bumps updated_at, leaving id stable across
// replays for the same (slug, app) per spec §4.7's idempotency guarantee.
func (r *articleRepo) UpsertArticle(dbc dbctx.Context, rec *domain.ArticleRecord) (uuid.UUID, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	rec.UpdatedAt = time.Now()
	err := transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "app"}, {Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"cluster_id", "parent_id", "article_mode", "status", "title",
				"meta_description", "video_playback_id", "payload", "published_at", "updated_at",
			}),
		}).
		Create(rec).Error
	if err != nil {
		return uuid.Nil, err
	}
	if rec.ID != uuid.Nil {
		return rec.ID, nil
	}
	// Postgres doesn't repopulate RETURNING columns on the conflict
	// branch for the passed struct; re-read the stable id.
	var existing domain.ArticleRecord
	if err := transaction.WithContext(dbc.Ctx).
		Select("id").
		Where("app = ? AND slug = ?", rec.App, rec.Slug).
		First(&existing).Error; err != nil {
		return uuid.Nil, err
	}
	return existing.ID, nil
}

func (r *articleRepo) GetBySlug(dbc dbctx.Context, app, slug string) (*domain.ArticleRecord, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if app == "" || slug == "" {
		return nil, nil
	}
	var rec domain.ArticleRecord
	err := transaction.WithContext(dbc.Ctx).
		Where("app = ? AND slug = ?", app, slug).
		First(&rec).Error
	if gorm.ErrRecordNotFound == err {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetRecentArticles backs the news-monitor dedup window and hub
// aggregation fan-in, ordered most-recently-published first.
func (r *articleRepo) GetRecentArticles(dbc dbctx.Context, app string, since time.Time, limit int) ([]*domain.ArticleRecord, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 50
	}
	var out []*domain.ArticleRecord
	q := transaction.WithContext(dbc.Ctx).
		Where("app = ? AND status = ?", app, string(domain.StatusPublished))
	if !since.IsZero() {
		q = q.Where("published_at >= ?", since)
	}
	err := q.Order("published_at DESC").Limit(limit).Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *articleRepo) LinkCompany(dbc dbctx.Context, articleID, companyID uuid.UUID, relevanceScore float64) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if articleID == uuid.Nil || companyID == uuid.Nil {
		return nil
	}
	row := &domain.ArticleCompanyRow{ArticleID: articleID, CompanyID: companyID, RelevanceScore: relevanceScore}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "article_id"}, {Name: "company_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"relevance_score"}),
		}).
		Create(row).Error
}

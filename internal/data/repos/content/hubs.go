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

// HubRepo implements upsert_hub/get_by_slug for the country-level
// aggregation, keyed on (country_code, slug) per spec §4.7.
type HubRepo interface {
	UpsertHub(dbc dbctx.Context, rec *domain.HubRecord) (uuid.UUID, error)
	GetBySlug(dbc dbctx.Context, countryCode, slug string) (*domain.HubRecord, error)
}

type hubRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHubRepo(db *gorm.DB, baseLog *logger.Logger) HubRepo {
	return &hubRepo{db: db, log: baseLog.With("repo", "HubRepo")}
}

func (r *hubRepo) UpsertHub(dbc dbctx.Context, rec *domain.HubRecord) (uuid.UUID, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	rec.UpdatedAt = time.Now()
	err := transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "country_code"}, {Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title", "meta_description", "status", "video_playback_id",
				"hub_content", "payload", "seo_data", "updated_at",
			}),
		}).
		Create(rec).Error
	if err != nil {
		return uuid.Nil, err
	}
	if rec.ID != uuid.Nil {
		return rec.ID, nil
	}
	var existing domain.HubRecord
	if err := transaction.WithContext(dbc.Ctx).
		Select("id").
		Where("country_code = ? AND slug = ?", rec.CountryCode, rec.Slug).
		First(&existing).Error; err != nil {
		return uuid.Nil, err
	}
	return existing.ID, nil
}

func (r *hubRepo) GetBySlug(dbc dbctx.Context, countryCode, slug string) (*domain.HubRecord, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if countryCode == "" || slug == "" {
		return nil, nil
	}
	var rec domain.HubRecord
	err := transaction.WithContext(dbc.Ctx).
		Where("country_code = ? AND slug = ?", countryCode, slug).
		First(&rec).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

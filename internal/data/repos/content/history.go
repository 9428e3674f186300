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

// HistoryRepo implements the append-only and supporting lookups of spec
// §4.7: append_scrape_history, job-record URL dedup/scheduling,
// link_article_to_country, and country reference reads.
type HistoryRepo interface {
	AppendScrapeHistory(dbc dbctx.Context, rec *domain.ScrapeHistoryRecord) error
	UpsertJobRecord(dbc dbctx.Context, rec *domain.JobRecordRow) error
	GetJobRecordByURL(dbc dbctx.Context, normalizedURL string) (*domain.JobRecordRow, error)
	LinkArticleToCountry(dbc dbctx.Context, articleID uuid.UUID, countryCode, role string) error
	GetCountry(dbc dbctx.Context, countryCode string) (*domain.CountryRecordRow, error)
}

type historyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHistoryRepo(db *gorm.DB, baseLog *logger.Logger) HistoryRepo {
	return &historyRepo{db: db, log: baseLog.With("repo", "HistoryRepo")}
}

// AppendScrapeHistory is a plain insert - the table is append-only, one
// row per news-monitor sweep, never updated.
func (r *historyRepo) AppendScrapeHistory(dbc dbctx.Context, rec *domain.ScrapeHistoryRecord) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now()
	}
	return transaction.WithContext(dbc.Ctx).Create(rec).Error
}

// UpsertJobRecord is keyed on normalized_url, tracking last_scraped_at for
// the news-monitor's per-URL dedup/scheduling decisions.
func (r *historyRepo) UpsertJobRecord(dbc dbctx.Context, rec *domain.JobRecordRow) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "normalized_url"}},
			DoUpdates: clause.AssignmentColumns([]string{"url", "last_scraped_at"}),
		}).
		Create(rec).Error
}

func (r *historyRepo) GetJobRecordByURL(dbc dbctx.Context, normalizedURL string) (*domain.JobRecordRow, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if normalizedURL == "" {
		return nil, nil
	}
	var rec domain.JobRecordRow
	err := transaction.WithContext(dbc.Ctx).
		Where("normalized_url = ?", normalizedURL).
		First(&rec).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *historyRepo) LinkArticleToCountry(dbc dbctx.Context, articleID uuid.UUID, countryCode, role string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if articleID == uuid.Nil || countryCode == "" {
		return nil
	}
	if role == "" {
		role = "subject"
	}
	row := &domain.ArticleCountryRow{ArticleID: articleID, CountryCode: countryCode, Role: role}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row).Error
}

func (r *historyRepo) GetCountry(dbc dbctx.Context, countryCode string) (*domain.CountryRecordRow, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if countryCode == "" {
		return nil, nil
	}
	var rec domain.CountryRecordRow
	err := transaction.WithContext(dbc.Ctx).
		Where("country_code = ?", countryCode).
		First(&rec).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

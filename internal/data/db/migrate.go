package db

import (
	"fmt"

	types "github.com/contentforge/pipeline/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.ArticleRecord{},
		&types.HubRecord{},
		&types.CompanyRecordRow{},
		&types.CountryRecordRow{},
		&types.ScrapeHistoryRecord{},
		&types.JobRecordRow{},
		&types.ArticleCompanyRow{},
		&types.ArticleCountryRow{},
	)
}

// EnsureContentIndexes adds the index shapes GORM's struct tags can't
// express directly: partial indexes and full-text search.
func EnsureContentIndexes(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return fmt.Errorf("enable uuid-ossp: %w", err)
	}

	// Dense recency listing per app (get_recent_articles, spec §4.7).
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_article_app_status_published
		ON article (app, status, published_at DESC)
		WHERE deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_article_app_status_published: %w", err)
	}

	// Topic-cluster lookups: find a cluster's guide + children.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_article_cluster_id
		ON article (cluster_id)
		WHERE deleted_at IS NULL AND cluster_id <> '';
	`).Error; err != nil {
		return fmt.Errorf("create idx_article_cluster_id: %w", err)
	}

	// Lexical fallback search over article title and meta_description,
	// matching the teacher's chat_doc FTS index shape.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_article_payload_fts
		ON article
		USING GIN (to_tsvector('english', title || ' ' || meta_description));
	`).Error; err != nil {
		return fmt.Errorf("create idx_article_payload_fts: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_job_record_last_scraped
		ON job_record (last_scraped_at);
	`).Error; err != nil {
		return fmt.Errorf("create idx_job_record_last_scraped: %w", err)
	}

	return nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureContentIndexes(s.db); err != nil {
		s.log.Error("Content index migration failed", "error", err)
		return err
	}
	return nil
}

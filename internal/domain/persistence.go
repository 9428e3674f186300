package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ArticleRecord is the persisted row for a NarrativePayload: indexed
// identity/classification columns plus the full payload as JSONB, following
// the teacher's job_run.go pattern (narrow indexed columns, JSONB blob for
// the rest).
type ArticleRecord struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	App             string         `gorm:"column:app;not null;index:idx_article_app_slug,unique" json:"app"`
	Slug            string         `gorm:"column:slug;not null;index:idx_article_app_slug,unique" json:"slug"`
	ClusterID       string         `gorm:"column:cluster_id;index" json:"cluster_id,omitempty"`
	ParentID        string         `gorm:"column:parent_id;index" json:"parent_id,omitempty"`
	ArticleMode     string         `gorm:"column:article_mode;index" json:"article_mode"`
	Status          string         `gorm:"column:status;not null;index" json:"status"`
	Title           string         `gorm:"column:title;not null" json:"title"`
	MetaDescription string         `gorm:"column:meta_description" json:"meta_description"`
	VideoPlaybackID string         `gorm:"column:video_playback_id" json:"video_playback_id,omitempty"`
	Payload         datatypes.JSON `gorm:"column:payload;type:jsonb;not null" json:"payload"`
	PublishedAt     *time.Time     `gorm:"column:published_at;index" json:"published_at,omitempty"`
	CreatedAt       time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;default:now();index" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ArticleRecord) TableName() string { return "article" }

// ToArticleRecord serializes a NarrativePayload into its persisted row
// representation, keyed on (app, slug) per invariant 1.
func ToArticleRecord(p *NarrativePayload) (*ArticleRecord, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	rec := &ArticleRecord{
		App:             p.App,
		Slug:            p.Slug,
		ClusterID:       p.ClusterID,
		ParentID:        p.ParentID,
		ArticleMode:     string(p.ArticleMode),
		Status:          string(p.Status),
		Title:           p.Title,
		MetaDescription: p.MetaDescription,
		VideoPlaybackID: p.VideoPlaybackID,
		Payload:         datatypes.JSON(payload),
		PublishedAt:     p.PublishedAt,
	}
	return rec, nil
}

// FromArticleRecord deserializes the JSONB payload back into the business
// object. Only the payload is read; the row's own columns (id, timestamps)
// are not copied onto the result.
func FromArticleRecord(rec *ArticleRecord) (*NarrativePayload, error) {
	var p NarrativePayload
	if err := json.Unmarshal(rec.Payload, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// HubRecord is the persisted row for a Hub, JSONB-backed like ArticleRecord.
type HubRecord struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CountryCode     string         `gorm:"column:country_code;not null;index:idx_hub_country_slug,unique" json:"country_code"`
	Slug            string         `gorm:"column:slug;not null;index:idx_hub_country_slug,unique" json:"slug"`
	Title           string         `gorm:"column:title;not null" json:"title"`
	MetaDescription string         `gorm:"column:meta_description" json:"meta_description"`
	Status          string         `gorm:"column:status;not null;index" json:"status"`
	VideoPlaybackID string         `gorm:"column:video_playback_id" json:"video_playback_id,omitempty"`
	HubContent      string         `gorm:"column:hub_content" json:"hub_content"`
	Payload         datatypes.JSON `gorm:"column:payload;type:jsonb;not null" json:"payload"`
	SEOData         datatypes.JSON `gorm:"column:seo_data;type:jsonb" json:"seo_data,omitempty"`
	CreatedAt       time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;default:now();index" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (HubRecord) TableName() string { return "hub" }

func ToHubRecord(h *Hub) (*HubRecord, error) {
	payload, err := json.Marshal(h.Payload)
	if err != nil {
		return nil, err
	}
	var seo datatypes.JSON
	if h.SEOData != nil {
		seoBytes, err := json.Marshal(h.SEOData)
		if err != nil {
			return nil, err
		}
		seo = datatypes.JSON(seoBytes)
	}
	return &HubRecord{
		CountryCode:     h.CountryCode,
		Slug:            h.Slug,
		Title:           h.Title,
		MetaDescription: h.MetaDescription,
		Status:          string(h.Status),
		VideoPlaybackID: h.VideoPlaybackID,
		HubContent:      h.HubContent,
		Payload:         datatypes.JSON(payload),
		SEOData:         seo,
	}, nil
}

func FromHubRecord(rec *HubRecord) (*Hub, error) {
	h := &Hub{
		CountryCode:     rec.CountryCode,
		Slug:            rec.Slug,
		Title:           rec.Title,
		MetaDescription: rec.MetaDescription,
		HubContent:      rec.HubContent,
		VideoPlaybackID: rec.VideoPlaybackID,
		Status:          PayloadStatus(rec.Status),
	}
	if err := json.Unmarshal(rec.Payload, &h.Payload); err != nil {
		return nil, err
	}
	if len(rec.SEOData) > 0 {
		if err := json.Unmarshal(rec.SEOData, &h.SEOData); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// CompanyRecordRow is the persisted row for a CompanyRecord.
type CompanyRecordRow struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	App              string         `gorm:"column:app;not null;index:idx_company_app_slug,unique" json:"app"`
	Slug             string         `gorm:"column:slug;not null;index:idx_company_app_slug,unique" json:"slug"`
	Name             string         `gorm:"column:name;not null;index" json:"name"`
	FeaturedImageURL string         `gorm:"column:featured_image_url" json:"featured_image_url,omitempty"`
	MetaDescription  string         `gorm:"column:meta_description" json:"meta_description,omitempty"`
	Payload          datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload,omitempty"`
	CreatedAt        time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null;default:now();index" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CompanyRecordRow) TableName() string { return "company" }

func ToCompanyRecordRow(c *CompanyRecord) (*CompanyRecordRow, error) {
	var payload datatypes.JSON
	if c.Payload != nil {
		b, err := json.Marshal(c.Payload)
		if err != nil {
			return nil, err
		}
		payload = datatypes.JSON(b)
	}
	return &CompanyRecordRow{
		App:              c.App,
		Slug:             c.Slug,
		Name:             c.Name,
		FeaturedImageURL: c.FeaturedImageURL,
		MetaDescription:  c.MetaDescription,
		Payload:          payload,
	}, nil
}

func FromCompanyRecordRow(rec *CompanyRecordRow) (*CompanyRecord, error) {
	c := &CompanyRecord{
		ID:               rec.ID.String(),
		App:              rec.App,
		Slug:             rec.Slug,
		Name:             rec.Name,
		FeaturedImageURL: rec.FeaturedImageURL,
		MetaDescription:  rec.MetaDescription,
	}
	if len(rec.Payload) > 0 {
		if err := json.Unmarshal(rec.Payload, &c.Payload); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// CountryRecordRow is the persisted row for reference country data.
type CountryRecordRow struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CountryCode string         `gorm:"column:country_code;not null;uniqueIndex" json:"country_code"`
	Name        string         `gorm:"column:name;not null" json:"name"`
	Slug        string         `gorm:"column:slug;not null;index" json:"slug"`
	Flag        string         `gorm:"column:flag" json:"flag,omitempty"`
	Region      string         `gorm:"column:region;index" json:"region,omitempty"`
	Continent   string         `gorm:"column:continent;index" json:"continent,omitempty"`
	Facts       datatypes.JSON `gorm:"column:facts;type:jsonb" json:"facts,omitempty"`
	VisaTypes   datatypes.JSON `gorm:"column:visa_types;type:jsonb" json:"visa_types,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (CountryRecordRow) TableName() string { return "country" }

// ScrapeHistoryRecord is the append-only row for ScrapeHistory.
type ScrapeHistoryRecord struct {
	ID              uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BoardID         string    `gorm:"column:board_id;not null;index" json:"board_id"`
	Status          string    `gorm:"column:status;not null" json:"status"`
	JobsFound       int       `gorm:"column:jobs_found;not null;default:0" json:"jobs_found"`
	ExecutionTimeMs int64     `gorm:"column:execution_time_ms;not null;default:0" json:"execution_time_ms"`
	StartedAt       time.Time `gorm:"column:started_at;not null;index" json:"started_at"`
}

func (ScrapeHistoryRecord) TableName() string { return "scrape_history" }

// JobRecordRow supports URL-level scheduling/dedup for the news monitor.
type JobRecordRow struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	URL           string     `gorm:"column:url;not null" json:"url"`
	NormalizedURL string     `gorm:"column:normalized_url;not null;uniqueIndex" json:"normalized_url"`
	LastScrapedAt *time.Time `gorm:"column:last_scraped_at;index" json:"last_scraped_at,omitempty"`
}

func (JobRecordRow) TableName() string { return "job_record" }

// ArticleCompanyRow is the many-to-many join row between articles and
// companies.
type ArticleCompanyRow struct {
	ArticleID      uuid.UUID `gorm:"type:uuid;column:article_id;primaryKey" json:"article_id"`
	CompanyID      uuid.UUID `gorm:"type:uuid;column:company_id;primaryKey" json:"company_id"`
	RelevanceScore float64   `gorm:"column:relevance_score;not null;default:0" json:"relevance_score"`
}

func (ArticleCompanyRow) TableName() string { return "article_company" }

// ArticleCountryRow backs link_article_to_country: an article can relate
// to a country in more than one capacity (e.g. "subject" vs "mentioned"),
// so role joins the key instead of being a plain column.
type ArticleCountryRow struct {
	ArticleID   uuid.UUID `gorm:"type:uuid;column:article_id;primaryKey" json:"article_id"`
	CountryCode string    `gorm:"column:country_code;primaryKey" json:"country_code"`
	Role        string    `gorm:"column:role;primaryKey" json:"role"`
}

func (ArticleCountryRow) TableName() string { return "article_country" }

package content

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/contentforge/pipeline/internal/data/repos/testutil"
	"github.com/contentforge/pipeline/internal/domain"
	"github.com/contentforge/pipeline/internal/pkg/dbctx"
)

func TestHistoryRepo_AppendScrapeHistoryIsAppendOnly(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewHistoryRepo(db, testutil.Logger(t))

	err := repo.AppendScrapeHistory(dbc, &domain.ScrapeHistoryRecord{
		BoardID: "pe-news-daily", Status: "completed", JobsFound: 12, ExecutionTimeMs: 4200,
	})
	require.NoError(t, err)
	err = repo.AppendScrapeHistory(dbc, &domain.ScrapeHistoryRecord{
		BoardID: "pe-news-daily", Status: "completed", JobsFound: 9, ExecutionTimeMs: 3100,
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, tx.Model(&domain.ScrapeHistoryRecord{}).Where("board_id = ?", "pe-news-daily").Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestHistoryRepo_UpsertJobRecordKeyedOnNormalizedURL(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewHistoryRepo(db, testutil.Logger(t))

	first := time.Now().Add(-24 * time.Hour)
	err := repo.UpsertJobRecord(dbc, &domain.JobRecordRow{
		URL: "https://example.com/deal?utm=1", NormalizedURL: "https://example.com/deal", LastScrapedAt: &first,
	})
	require.NoError(t, err)

	second := time.Now()
	err = repo.UpsertJobRecord(dbc, &domain.JobRecordRow{
		URL: "https://example.com/deal", NormalizedURL: "https://example.com/deal", LastScrapedAt: &second,
	})
	require.NoError(t, err)

	got, err := repo.GetJobRecordByURL(dbc, "https://example.com/deal")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.WithinDuration(t, second, *got.LastScrapedAt, time.Second)
}

func TestHistoryRepo_LinkArticleToCountryIsIdempotent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewHistoryRepo(db, testutil.Logger(t))

	articleRepo := NewArticleRepo(db, testutil.Logger(t))
	articleID, err := articleRepo.UpsertArticle(dbc, &domain.ArticleRecord{
		App: "relocation", Slug: "slovakia-digital-nomad-guide", Status: string(domain.StatusDraft),
		Title: "Slovakia Digital Nomad Guide", Payload: datatypes.JSON([]byte(`{}`)),
	})
	require.NoError(t, err)

	require.NoError(t, repo.LinkArticleToCountry(dbc, articleID, "SK", "subject"))
	require.NoError(t, repo.LinkArticleToCountry(dbc, articleID, "SK", "subject"))

	var count int64
	require.NoError(t, tx.Model(&domain.ArticleCountryRow{}).Where("article_id = ?", articleID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

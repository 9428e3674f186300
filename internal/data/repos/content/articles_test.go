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

func TestArticleRepo_UpsertIsIdempotentBySlugAndApp(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewArticleRepo(db, testutil.Logger(t))

	rec := &domain.ArticleRecord{
		App:     "relocation",
		Slug:    "cyprus-digital-nomad-visa-2025",
		Status:  string(domain.StatusDraft),
		Title:   "Cyprus Digital Nomad Visa",
		Payload: datatypes.JSON([]byte(`{}`)),
	}

	id1, err := repo.UpsertArticle(dbc, rec)
	require.NoError(t, err)

	rec2 := &domain.ArticleRecord{
		App:     "relocation",
		Slug:    "cyprus-digital-nomad-visa-2025",
		Status:  string(domain.StatusPublished),
		Title:   "Cyprus Digital Nomad Visa (updated)",
		Payload: datatypes.JSON([]byte(`{"v":2}`)),
	}
	id2, err := repo.UpsertArticle(dbc, rec2)
	require.NoError(t, err)
	assert.Equal(t, id1, id2, "replaying the upsert for the same (slug, app) must return the same id")

	got, err := repo.GetBySlug(dbc, "relocation", "cyprus-digital-nomad-visa-2025")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, string(domain.StatusPublished), got.Status)
	assert.Equal(t, "Cyprus Digital Nomad Visa (updated)", got.Title)
}

func TestArticleRepo_GetRecentArticlesFiltersByAppAndStatus(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewArticleRepo(db, testutil.Logger(t))

	now := time.Now()
	published := &domain.ArticleRecord{
		App: "jobs", Slug: "senior-go-engineer-berlin", Status: string(domain.StatusPublished),
		Title: "Senior Go Engineer", Payload: datatypes.JSON([]byte(`{}`)), PublishedAt: &now,
	}
	draft := &domain.ArticleRecord{
		App: "jobs", Slug: "staff-go-engineer-berlin", Status: string(domain.StatusDraft),
		Title: "Staff Go Engineer", Payload: datatypes.JSON([]byte(`{}`)),
	}
	_, err := repo.UpsertArticle(dbc, published)
	require.NoError(t, err)
	_, err = repo.UpsertArticle(dbc, draft)
	require.NoError(t, err)

	recent, err := repo.GetRecentArticles(dbc, "jobs", time.Time{}, 10)
	require.NoError(t, err)
	slugs := make([]string, 0, len(recent))
	for _, r := range recent {
		slugs = append(slugs, r.Slug)
	}
	assert.Contains(t, slugs, "senior-go-engineer-berlin")
	assert.NotContains(t, slugs, "staff-go-engineer-berlin")
}

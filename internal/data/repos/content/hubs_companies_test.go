package content

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/contentforge/pipeline/internal/data/repos/testutil"
	"github.com/contentforge/pipeline/internal/domain"
	"github.com/contentforge/pipeline/internal/pkg/dbctx"
)

func TestHubRepo_UpsertIsIdempotentByCountryCodeAndSlug(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewHubRepo(db, testutil.Logger(t))

	rec := &domain.HubRecord{
		CountryCode: "SK",
		Slug:        "slovakia-relocation-guide",
		Title:       "Slovakia Relocation Guide",
		Status:      string(domain.StatusDraft),
		Payload:     datatypes.JSON([]byte(`{}`)),
	}
	id1, err := repo.UpsertHub(dbc, rec)
	require.NoError(t, err)

	rec2 := &domain.HubRecord{
		CountryCode: "SK",
		Slug:        "slovakia-relocation-guide",
		Title:       "Slovakia Relocation Guide (v2)",
		Status:      string(domain.StatusPublished),
		Payload:     datatypes.JSON([]byte(`{}`)),
	}
	id2, err := repo.UpsertHub(dbc, rec2)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	got, err := repo.GetBySlug(dbc, "SK", "slovakia-relocation-guide")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Slovakia Relocation Guide (v2)", got.Title)
}

func TestCompanyRepo_UpsertIsIdempotentByAppAndSlug(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewCompanyRepo(db, testutil.Logger(t))

	rec := &domain.CompanyRecordRow{App: "placement", Slug: "acme-capital", Name: "Acme Capital"}
	id1, err := repo.UpsertCompany(dbc, rec)
	require.NoError(t, err)

	rec2 := &domain.CompanyRecordRow{App: "placement", Slug: "acme-capital", Name: "Acme Capital Partners"}
	id2, err := repo.UpsertCompany(dbc, rec2)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	got, err := repo.GetBySlug(dbc, "placement", "acme-capital")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Acme Capital Partners", got.Name)
}

package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lineupscout/festival-cli/internal/model"
)

func newMockedPostgres(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func TestPostgres_UpsertFestival(t *testing.T) {
	s, mock := newMockedPostgres(t)

	mock.ExpectExec("INSERT INTO festivals").
		WithArgs("f-1", "Testfest", "https://testfest.nl", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.UpsertFestival(context.Background(), model.Festival{
		ID: "f-1", Name: "Testfest", URL: "https://testfest.nl",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetListing(t *testing.T) {
	s, mock := newMockedPostgres(t)
	updated := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT id, name, url, favorite, archived, notes, stage, updated_at FROM festivals").
		WithArgs("f-1").
		WillReturnRows(pgxmock.NewRows(
			[]string{"id", "name", "url", "favorite", "archived", "notes", "stage", "updated_at"},
		).AddRow("f-1", "Testfest", "https://testfest.nl", true, false, "call back", "contacted", updated))

	listing, err := s.GetListing(context.Background(), "f-1")
	require.NoError(t, err)
	require.NotNil(t, listing)
	assert.Equal(t, "Testfest", listing.Festival.Name)
	assert.True(t, listing.Annotation.Favorite)
	assert.Equal(t, "contacted", listing.Annotation.Stage)
	assert.Equal(t, updated, listing.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetListing_NotFound(t *testing.T) {
	s, mock := newMockedPostgres(t)

	mock.ExpectQuery("SELECT id, name, url").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	listing, err := s.GetListing(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, listing)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SetAnnotation_NotFound(t *testing.T) {
	s, mock := newMockedPostgres(t)

	mock.ExpectExec("UPDATE festivals SET favorite").
		WithArgs(true, false, "", "", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.SetAnnotation(context.Background(), "missing", model.Annotation{Favorite: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetReport(t *testing.T) {
	s, mock := newMockedPostgres(t)

	stored := model.ResearchReport{
		News: &model.NewsResult{Confidence: 0.4},
	}
	raw, err := json.Marshal(stored)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT report FROM festivals").
		WithArgs("f-1").
		WillReturnRows(pgxmock.NewRows([]string{"report"}).AddRow(raw))

	report, err := s.GetReport(context.Background(), "f-1")
	require.NoError(t, err)
	require.NotNil(t, report.News)
	assert.InDelta(t, 0.4, report.News.Confidence, 1e-9)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetReport_NullColumn(t *testing.T) {
	s, mock := newMockedPostgres(t)

	mock.ExpectQuery("SELECT report FROM festivals").
		WithArgs("f-1").
		WillReturnRows(pgxmock.NewRows([]string{"report"}).AddRow([]byte(nil)))

	report, err := s.GetReport(context.Background(), "f-1")
	require.NoError(t, err)
	assert.True(t, report.Empty())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_MergeReport_Transaction(t *testing.T) {
	s, mock := newMockedPostgres(t)

	stored := model.ResearchReport{
		CompanyDiscovery: &model.CompanyDiscovery{CompanyName: "Acme Events BV", Confidence: 0.8},
	}
	rawStored, err := json.Marshal(stored)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO festivals").
		WithArgs("f-1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery("SELECT report FROM festivals WHERE id = .+ FOR UPDATE").
		WithArgs("f-1").
		WillReturnRows(pgxmock.NewRows([]string{"report"}).AddRow(rawStored))
	mock.ExpectExec("UPDATE festivals SET report").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "f-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	partial := model.ResearchReport{
		News: &model.NewsResult{Confidence: 0.3},
		// Weaker than the stored discovery, should not displace it.
		CompanyDiscovery: &model.CompanyDiscovery{CompanyName: "Wrong Co", Confidence: 0.1},
	}
	merged, err := s.MergeReport(context.Background(), "f-1", partial)
	require.NoError(t, err)
	require.NotNil(t, merged.News)
	require.NotNil(t, merged.CompanyDiscovery)
	assert.Equal(t, "Acme Events BV", merged.CompanyDiscovery.CompanyName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_MergeReport_BeginFails(t *testing.T) {
	s, mock := newMockedPostgres(t)

	mock.ExpectBegin().WillReturnError(assert.AnError)

	_, err := s.MergeReport(context.Background(), "f-1", model.ResearchReport{})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

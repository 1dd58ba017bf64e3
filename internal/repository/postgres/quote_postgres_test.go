package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tt2import/internal/model"
)

func TestQuotePostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewQuotePostgres(db)
	now := time.Now().UTC()
	total := decimal.RequireFromString("1370.00")
	q := &model.Quote{
		ID:           "q-1",
		OrgID:        "org-1",
		CustomerID:   "c-1",
		ImportJobID:  "job-1",
		FileName:     "smith.tt2",
		Fingerprint:  "abc",
		Source:       model.SourceTurboRater,
		NamedInsured: "John Smith",
		TotalPremium: total,
		Data:         model.ParsedQuote{NamedInsured: "John Smith", Premiums: model.Premiums{TotalPremium: &total}},
		CreatedAt:    now,
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO quotes").
			WithArgs(q.ID, q.OrgID, q.CustomerID, q.ImportJobID, q.FileName, q.Fingerprint, q.Source,
				q.NamedInsured, nil, "1370", sqlmock.AnyArg(), q.CreatedAt).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("q-1", now))

		got, err := repo.Create(context.Background(), q)

		require.NoError(t, err)
		assert.Equal(t, "q-1", got.ID)
		assert.Equal(t, "John Smith", got.Data.NamedInsured)
	})

	t.Run("insert error", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO quotes").WillReturnError(errors.New("fk violation"))

		got, err := repo.Create(context.Background(), q)

		assert.EqualError(t, err, "fk violation")
		assert.Nil(t, got)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotePostgres_ExistsByFingerprint(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewQuotePostgres(db)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("org-1", "fp-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("org-2", "fp-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	ok, err := repo.ExistsByFingerprint(context.Background(), "org-1", "fp-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ExistsByFingerprint(context.Background(), "org-2", "fp-1")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

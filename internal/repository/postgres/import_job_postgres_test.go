package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tt2import/internal/model"
	"tt2import/internal/repository"
)

var jobCols = []string{"id", "org_id", "created_by", "files", "status", "counts", "errors", "started_at", "finished_at", "created_at"}

func newJobRepo(t *testing.T) (*ImportJobPostgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewImportJobPostgres(db), mock
}

func TestImportJobPostgres_Create(t *testing.T) {
	repo, mock := newJobRepo(t)
	now := time.Now().UTC()
	job := &model.ImportJob{
		ID:        "01HZX",
		OrgID:     "org-1",
		CreatedBy: "user-1",
		Files:     []model.FileDescriptor{{Name: "a.tt2", Size: 10, StoragePath: "imports/org-1/01HZX/a.tt2"}},
		CreatedAt: now,
	}

	mock.ExpectQuery("INSERT INTO import_jobs").
		WithArgs(job.ID, job.OrgID, job.CreatedBy, sqlmock.AnyArg(), model.JobPending, job.CreatedAt).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	got, err := repo.Create(context.Background(), job)

	require.NoError(t, err)
	assert.Equal(t, model.JobPending, got.Status)
	assert.Equal(t, job.Files, got.Files)
	assert.NotNil(t, got.Errors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportJobPostgres_FindByID(t *testing.T) {
	repo, mock := newJobRepo(t)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		now := time.Now()
		rows := sqlmock.NewRows(jobCols).AddRow(
			"job-1", "org-1", "user-1",
			[]byte(`[{"name":"a.tt2","size":10,"storage_path":"k/a.tt2"}]`),
			"PARTIAL",
			[]byte(`{"quotes":1,"customers_created":1,"duplicates":0}`),
			[]byte(`[{"code":"PARSE_ERROR","fileName":"b.tt2","message":"tt2: empty content"}]`),
			now, now, now,
		)
		mock.ExpectQuery("SELECT (.+) FROM import_jobs WHERE id = \\$1").
			WithArgs("job-1").
			WillReturnRows(rows)

		job, err := repo.FindByID(ctx, "job-1")

		require.NoError(t, err)
		assert.Equal(t, model.JobPartial, job.Status)
		require.Len(t, job.Files, 1)
		assert.Equal(t, "k/a.tt2", job.Files[0].StoragePath)
		assert.Equal(t, 1, job.Counts.Quotes)
		require.Len(t, job.Errors, 1)
		assert.Equal(t, model.CodeParse, job.Errors[0].Code)
		assert.NotNil(t, job.StartedAt)
		assert.NotNil(t, job.FinishedAt)
	})

	t.Run("pending job has no timestamps", func(t *testing.T) {
		rows := sqlmock.NewRows(jobCols).AddRow(
			"job-2", "org-1", "", []byte(`[]`), "PENDING", []byte(`{}`), []byte(`[]`), nil, nil, time.Now(),
		)
		mock.ExpectQuery("SELECT (.+) FROM import_jobs").WithArgs("job-2").WillReturnRows(rows)

		job, err := repo.FindByID(ctx, "job-2")

		require.NoError(t, err)
		assert.Nil(t, job.StartedAt)
		assert.Nil(t, job.FinishedAt)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM import_jobs").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		job, err := repo.FindByID(ctx, "missing")

		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.Nil(t, job)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportJobPostgres_MarkProcessing(t *testing.T) {
	repo, mock := newJobRepo(t)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectExec("UPDATE import_jobs SET status = \\$2, started_at = \\$3 WHERE id = \\$1 AND status = \\$4").
		WithArgs("job-1", model.JobProcessing, now, model.JobPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE import_jobs").
		WithArgs("job-1", model.JobProcessing, now, model.JobPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.MarkProcessing(ctx, "job-1", now))
	assert.ErrorIs(t, repo.MarkProcessing(ctx, "job-1", now), repository.ErrStaleTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportJobPostgres_Complete(t *testing.T) {
	repo, mock := newJobRepo(t)
	ctx := context.Background()
	out := model.JobOutcome{
		Status:     model.JobSuccess,
		Counts:     model.ImportCounts{Quotes: 2},
		FinishedAt: time.Now(),
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec("UPDATE import_jobs").
			WithArgs("job-1", model.JobSuccess, []byte(`{"quotes":2,"customers_created":0,"duplicates":0}`), []byte(`[]`), out.FinishedAt, model.JobProcessing).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Complete(ctx, "job-1", out))
	})

	t.Run("already finished", func(t *testing.T) {
		mock.ExpectExec("UPDATE import_jobs").WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Complete(ctx, "job-1", out), repository.ErrStaleTransition)
	})

	t.Run("non-terminal status rejected", func(t *testing.T) {
		bad := out
		bad.Status = model.JobProcessing

		err := repo.Complete(ctx, "job-1", bad)

		assert.ErrorContains(t, err, "not a terminal status")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

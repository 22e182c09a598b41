package sql

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nortide/catalog-sync/internal/model"
	"github.com/nortide/catalog-sync/internal/repository"
)

var jobTestColumns = []string{
	"id", "product_id", "status", "error", "created_at", "started_at", "finished_at",
}

func TestJobRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewJobRepository(db)
	ctx := context.Background()

	t.Run("enqueues with queued status", func(t *testing.T) {
		job := &model.SyncJob{ProductID: uuid.New()}

		mock.ExpectPrepare("INSERT INTO sync_jobs").
			ExpectExec().
			WithArgs(sqlmock.AnyArg(), job.ProductID, model.SyncJobStatusQueued, "", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		created, err := repo.Create(ctx, job)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, created.ID)
		assert.Equal(t, model.SyncJobStatusQueued, created.Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestJobRepository_ListQueued(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewJobRepository(db)
	ctx := context.Background()

	t.Run("returns queued jobs in enqueue order", func(t *testing.T) {
		now := time.Now()
		rows := sqlmock.NewRows(jobTestColumns).
			AddRow(uuid.New(), uuid.New(), "queued", "", now.Add(-time.Minute), nil, nil).
			AddRow(uuid.New(), uuid.New(), "queued", "", now, nil, nil)

		mock.ExpectPrepare("SELECT (.+) FROM sync_jobs WHERE status = \\$1 ORDER BY created_at ASC").
			ExpectQuery().
			WithArgs(model.SyncJobStatusQueued, 10).
			WillReturnRows(rows)

		jobs, err := repo.ListQueued(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, jobs, 2)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestJobRepository_HasPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewJobRepository(db)
	ctx := context.Background()

	productID := uuid.New()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(productID, model.SyncJobStatusQueued, model.SyncJobStatusRunning).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	pending, err := repo.HasPending(ctx, productID)
	require.NoError(t, err)
	assert.True(t, pending)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepository_MarkRunning(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewJobRepository(db)
	ctx := context.Background()

	t.Run("claims a queued job", func(t *testing.T) {
		id := uuid.New()

		mock.ExpectExec("UPDATE sync_jobs SET status").
			WithArgs(id, model.SyncJobStatusRunning, sqlmock.AnyArg(), model.SyncJobStatusQueued).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.MarkRunning(ctx, id)
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("loses the claim race", func(t *testing.T) {
		id := uuid.New()

		mock.ExpectExec("UPDATE sync_jobs SET status").
			WithArgs(id, model.SyncJobStatusRunning, sqlmock.AnyArg(), model.SyncJobStatusQueued).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.MarkRunning(ctx, id)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestJobRepository_MarkFinished(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewJobRepository(db)
	ctx := context.Background()

	t.Run("records failure message", func(t *testing.T) {
		id := uuid.New()

		mock.ExpectExec("UPDATE sync_jobs SET status").
			WithArgs(id, model.SyncJobStatusFailed, "api unavailable", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.MarkFinished(ctx, id, model.SyncJobStatusFailed, "api unavailable")
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

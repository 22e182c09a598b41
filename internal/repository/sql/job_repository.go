package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nortide/catalog-sync/internal/model"
	"github.com/nortide/catalog-sync/internal/repository"
)

const jobColumns = `id, product_id, status, error, created_at, started_at, finished_at`

// JobRepository persists sync jobs, the queue the background worker drains.
// The table doubles as an audit trail: finished jobs are kept, not deleted.
type JobRepository struct {
	db  *sql.DB
	txn *sql.Tx
}

// NewJobRepository creates a new JobRepository instance.
func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

// getExecutor returns the active executor (transaction if exists, otherwise db)
func (r *JobRepository) getExecutor() dbExecutor {
	if r.txn != nil {
		return r.txn
	}
	return r.db
}

// Create enqueues a sync job for a product.
func (r *JobRepository) Create(ctx context.Context, job *model.SyncJob) (*model.SyncJob, error) {
	if job.ID == uuid.Nil {
		job.InitMeta()
	}

	query := `INSERT INTO sync_jobs (id, product_id, status, error, created_at)
	          VALUES ($1, $2, $3, $4, $5)`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, job.ID, job.ProductID, job.Status, job.Error, job.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert sync job: %w", err)
	}

	return job, nil
}

// JobByID retrieves a single sync job.
func (r *JobRepository) JobByID(ctx context.Context, id uuid.UUID) (*model.SyncJob, error) {
	query := `SELECT ` + jobColumns + ` FROM sync_jobs WHERE id = $1`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	job, err := scanJob(stmt.QueryRowContext(ctx, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("sync job %s: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query sync job: %w", err)
	}

	return job, nil
}

// ListQueued retrieves up to limit queued jobs in enqueue order.
func (r *JobRepository) ListQueued(ctx context.Context, limit int) ([]*model.SyncJob, error) {
	query := `SELECT ` + jobColumns + ` FROM sync_jobs
	          WHERE status = $1
	          ORDER BY created_at ASC, id ASC
	          LIMIT $2`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, model.SyncJobStatusQueued, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*model.SyncJob
	for rows.Next() {
		job, err := scanJob(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync job: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return jobs, nil
}

// HasPending reports whether a queued or running job already exists for the
// product, so repeated edits collapse into one pending sync.
func (r *JobRepository) HasPending(ctx context.Context, productID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (
	              SELECT 1 FROM sync_jobs
	              WHERE product_id = $1 AND status IN ($2, $3)
	          )`

	executor := r.getExecutor()
	var exists bool
	err := executor.QueryRowContext(ctx, query,
		productID, model.SyncJobStatusQueued, model.SyncJobStatusRunning,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to query pending sync jobs: %w", err)
	}

	return exists, nil
}

// MarkRunning transitions a queued job to running. The status guard makes the
// claim atomic: a second worker loses the race and gets ErrNotFound.
func (r *JobRepository) MarkRunning(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE sync_jobs SET status = $2, started_at = $3
	          WHERE id = $1 AND status = $4`

	executor := r.getExecutor()
	result, err := executor.ExecContext(ctx, query,
		id, model.SyncJobStatusRunning, time.Now(), model.SyncJobStatusQueued,
	)
	if err != nil {
		return fmt.Errorf("failed to mark sync job running: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// MarkFinished records the terminal status of a running job together with the
// failure message, if any.
func (r *JobRepository) MarkFinished(ctx context.Context, id uuid.UUID, status model.SyncJobStatus, jobErr string) error {
	query := `UPDATE sync_jobs SET status = $2, error = $3, finished_at = $4
	          WHERE id = $1`

	executor := r.getExecutor()
	result, err := executor.ExecContext(ctx, query, id, status, jobErr, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark sync job finished: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func scanJob(scan func(dest ...interface{}) error) (*model.SyncJob, error) {
	var (
		job        model.SyncJob
		startedAt  sql.NullTime
		finishedAt sql.NullTime
	)
	err := scan(&job.ID, &job.ProductID, &job.Status, &job.Error, &job.CreatedAt, &startedAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if finishedAt.Valid {
		job.FinishedAt = &finishedAt.Time
	}

	return &job, nil
}

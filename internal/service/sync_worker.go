package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nortide/catalog-sync/internal/metrics"
	"github.com/nortide/catalog-sync/internal/model"
	"github.com/nortide/catalog-sync/internal/sqs"
)

const jobBatchSize = 100

// JobQueue is the sync queue surface the worker drains.
type JobQueue interface {
	ListQueued(ctx context.Context, limit int) ([]*model.SyncJob, error)
	MarkRunning(ctx context.Context, id uuid.UUID) error
	MarkFinished(ctx context.Context, id uuid.UUID, status model.SyncJobStatus, jobErr string) error
}

// SyncProductStore is the product surface the worker needs: load the product
// for a job and stamp it once the pass succeeds.
type SyncProductStore interface {
	ProductByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	StampSynced(ctx context.Context, id uuid.UUID, syncedAt time.Time) error
}

// Reconciler pushes one product and its prices to the remote provider.
type Reconciler interface {
	SyncProductAndPrices(ctx context.Context, product *model.Product) (*model.Product, error)
}

// Notifier publishes a product-synced message for downstream services.
type Notifier interface {
	PublishProductSynced(ctx context.Context, msg sqs.ProductSyncedMessage) error
}

// SyncWorker polls the sync_jobs table and reconciles queued products against
// the remote provider one job at a time.
type SyncWorker struct {
	jobs     JobQueue
	products SyncProductStore
	engine   Reconciler
	notifier Notifier
	interval time.Duration
	stopChan chan struct{}
}

// NewSyncWorker creates a new SyncWorker. The notifier may be nil when no
// queue is configured.
func NewSyncWorker(jobs JobQueue, products SyncProductStore, engine Reconciler, notifier Notifier, interval time.Duration) *SyncWorker {
	return &SyncWorker{
		jobs:     jobs,
		products: products,
		engine:   engine,
		notifier: notifier,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins processing jobs from the sync queue.
func (w *SyncWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	slog.Info("Sync worker started", slog.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			slog.Info("Sync worker stopped by context")
			return
		case <-w.stopChan:
			slog.Info("Sync worker stopped")
			return
		case <-ticker.C:
			w.processJobs(ctx)
		}
	}
}

// Stop stops the sync worker.
func (w *SyncWorker) Stop() {
	close(w.stopChan)
}

// processJobs drains one batch of queued jobs. Jobs are independent: a failed
// product is recorded on its own job and the loop moves on.
func (w *SyncWorker) processJobs(ctx context.Context) {
	jobs, err := w.jobs.ListQueued(ctx, jobBatchSize)
	if err != nil {
		slog.Error("Failed to retrieve queued sync jobs", slog.Any("err", err))
		return
	}

	if len(jobs) == 0 {
		return
	}

	slog.Info("Processing sync jobs", slog.Int("count", len(jobs)))

	for _, job := range jobs {
		if err := w.jobs.MarkRunning(ctx, job.ID); err != nil {
			// Another worker claimed it first.
			continue
		}

		if err := w.processJob(ctx, job); err != nil {
			slog.Error("Sync job failed",
				slog.String("job_id", job.ID.String()),
				slog.String("product_id", job.ProductID.String()),
				slog.Any("err", err))
			metrics.ProductSyncFailures.Inc()

			if updateErr := w.jobs.MarkFinished(ctx, job.ID, model.SyncJobStatusFailed, err.Error()); updateErr != nil {
				slog.Error("Failed to mark sync job failed",
					slog.String("job_id", job.ID.String()),
					slog.Any("err", updateErr))
			}
		} else {
			metrics.ProductsSynced.Inc()

			if updateErr := w.jobs.MarkFinished(ctx, job.ID, model.SyncJobStatusSucceeded, ""); updateErr != nil {
				slog.Error("Failed to mark sync job succeeded",
					slog.String("job_id", job.ID.String()),
					slog.Any("err", updateErr))
			} else {
				slog.Info("Sync job processed successfully",
					slog.String("job_id", job.ID.String()),
					slog.String("product_id", job.ProductID.String()))
			}
		}
	}
}

// processJob reconciles a single product. last_synced_at is only advanced
// after the whole pass succeeded; a partial failure leaves the product out of
// sync and the next job retries everything.
func (w *SyncWorker) processJob(ctx context.Context, job *model.SyncJob) error {
	product, err := w.products.ProductByID(ctx, job.ProductID)
	if err != nil {
		return err
	}

	synced, err := w.engine.SyncProductAndPrices(ctx, product)
	if err != nil {
		return err
	}

	syncedAt := time.Now()
	if err := w.products.StampSynced(ctx, synced.ID, syncedAt); err != nil {
		return err
	}

	if w.notifier != nil {
		msg := sqs.ProductSyncedMessage{
			ProductID:  synced.ID.String(),
			ExternalID: synced.ExternalID,
			SyncedAt:   syncedAt,
		}
		if err := w.notifier.PublishProductSynced(ctx, msg); err != nil {
			// Log error but don't fail the job; the sync itself succeeded.
			slog.Error("Failed to send SQS message",
				slog.Any("err", err),
				slog.String("product_id", synced.ID.String()))
		}
	}

	return nil
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// SyncJobStatus represents the state of a queued sync request.
type SyncJobStatus string

const (
	// SyncJobStatusQueued indicates the job has been enqueued but not yet picked up.
	SyncJobStatusQueued SyncJobStatus = "queued"
	// SyncJobStatusRunning indicates a worker is currently processing the job.
	SyncJobStatusRunning SyncJobStatus = "running"
	// SyncJobStatusSucceeded indicates the job completed and timestamps were stamped.
	SyncJobStatusSucceeded SyncJobStatus = "succeeded"
	// SyncJobStatusFailed indicates the job raised; last_synced_at was not advanced.
	SyncJobStatusFailed SyncJobStatus = "failed"
)

// SyncJob is one unit of reconciliation work for a single product and its
// prices. Jobs are independent; one product's failure never blocks others.
type SyncJob struct {
	ID         uuid.UUID
	ProductID  uuid.UUID
	Status     SyncJobStatus
	Error      string
	CreatedAt  time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
}

// InitMeta initializes the job metadata including ID, status and timestamps.
func (j *SyncJob) InitMeta() {
	j.ID = uuid.New()
	j.CreatedAt = time.Now()
	if j.Status == "" {
		j.Status = SyncJobStatusQueued
	}
}

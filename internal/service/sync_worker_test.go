package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/nortide/catalog-sync/internal/model"
	"github.com/nortide/catalog-sync/internal/repository"
	"github.com/nortide/catalog-sync/internal/service"
	"github.com/nortide/catalog-sync/internal/sqs"
)

// MockJobQueue is a mock implementation of service.JobQueue
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) ListQueued(ctx context.Context, limit int) ([]*model.SyncJob, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.SyncJob), args.Error(1)
}

func (m *MockJobQueue) MarkRunning(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockJobQueue) MarkFinished(ctx context.Context, id uuid.UUID, status model.SyncJobStatus, jobErr string) error {
	args := m.Called(ctx, id, status, jobErr)
	return args.Error(0)
}

// MockSyncProductStore is a mock implementation of service.SyncProductStore
type MockSyncProductStore struct {
	mock.Mock
}

func (m *MockSyncProductStore) ProductByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockSyncProductStore) StampSynced(ctx context.Context, id uuid.UUID, syncedAt time.Time) error {
	args := m.Called(ctx, id, syncedAt)
	return args.Error(0)
}

// MockReconciler is a mock implementation of service.Reconciler
type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) SyncProductAndPrices(ctx context.Context, product *model.Product) (*model.Product, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

// MockNotifier is a mock implementation of service.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) PublishProductSynced(ctx context.Context, msg sqs.ProductSyncedMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func startWorkerOnce(t *testing.T, worker *service.SyncWorker) {
	t.Helper()

	ctx := context.Background()
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	// One tick is enough for a single batch.
	time.Sleep(50 * time.Millisecond)
	worker.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestSyncWorker_ProcessesQueuedJob(t *testing.T) {
	mockJobs := new(MockJobQueue)
	mockProducts := new(MockSyncProductStore)
	mockEngine := new(MockReconciler)
	mockNotifier := new(MockNotifier)

	product := &model.Product{ID: uuid.New(), Name: "Starter", ExternalID: "prod_123"}
	job := &model.SyncJob{ID: uuid.New(), ProductID: product.ID, Status: model.SyncJobStatusQueued}

	mockJobs.On("ListQueued", mock.Anything, 100).Return([]*model.SyncJob{job}, nil)
	mockJobs.On("MarkRunning", mock.Anything, job.ID).Return(nil)
	mockProducts.On("ProductByID", mock.Anything, product.ID).Return(product, nil)
	mockEngine.On("SyncProductAndPrices", mock.Anything, product).Return(product, nil)
	mockProducts.On("StampSynced", mock.Anything, product.ID, mock.AnythingOfType("time.Time")).Return(nil)
	mockJobs.On("MarkFinished", mock.Anything, job.ID, model.SyncJobStatusSucceeded, "").Return(nil)
	mockNotifier.On("PublishProductSynced", mock.Anything, mock.MatchedBy(func(msg sqs.ProductSyncedMessage) bool {
		return msg.ProductID == product.ID.String() && msg.ExternalID == "prod_123"
	})).Return(nil)

	worker := service.NewSyncWorker(mockJobs, mockProducts, mockEngine, mockNotifier, 10*time.Millisecond)
	startWorkerOnce(t, worker)

	mockJobs.AssertExpectations(t)
	mockEngine.AssertExpectations(t)
	mockProducts.AssertExpectations(t)
	mockNotifier.AssertExpectations(t)
}

func TestSyncWorker_RecordsFailure(t *testing.T) {
	mockJobs := new(MockJobQueue)
	mockProducts := new(MockSyncProductStore)
	mockEngine := new(MockReconciler)

	product := &model.Product{ID: uuid.New(), Name: "Starter"}
	job := &model.SyncJob{ID: uuid.New(), ProductID: product.ID, Status: model.SyncJobStatusQueued}
	syncErr := errors.New("api unavailable")

	mockJobs.On("ListQueued", mock.Anything, 100).Return([]*model.SyncJob{job}, nil)
	mockJobs.On("MarkRunning", mock.Anything, job.ID).Return(nil)
	mockProducts.On("ProductByID", mock.Anything, product.ID).Return(product, nil)
	mockEngine.On("SyncProductAndPrices", mock.Anything, product).Return(nil, syncErr)
	mockJobs.On("MarkFinished", mock.Anything, job.ID, model.SyncJobStatusFailed, "api unavailable").Return(nil)

	worker := service.NewSyncWorker(mockJobs, mockProducts, mockEngine, nil, 10*time.Millisecond)
	startWorkerOnce(t, worker)

	// last_synced_at must not advance on failure.
	mockProducts.AssertNotCalled(t, "StampSynced", mock.Anything, mock.Anything, mock.Anything)
	mockJobs.AssertExpectations(t)
}

func TestSyncWorker_SkipsJobClaimedElsewhere(t *testing.T) {
	mockJobs := new(MockJobQueue)
	mockProducts := new(MockSyncProductStore)
	mockEngine := new(MockReconciler)

	job := &model.SyncJob{ID: uuid.New(), ProductID: uuid.New(), Status: model.SyncJobStatusQueued}

	mockJobs.On("ListQueued", mock.Anything, 100).Return([]*model.SyncJob{job}, nil)
	mockJobs.On("MarkRunning", mock.Anything, job.ID).Return(repository.ErrNotFound)

	worker := service.NewSyncWorker(mockJobs, mockProducts, mockEngine, nil, 10*time.Millisecond)
	startWorkerOnce(t, worker)

	mockEngine.AssertNotCalled(t, "SyncProductAndPrices", mock.Anything, mock.Anything)
	mockJobs.AssertNotCalled(t, "MarkFinished", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

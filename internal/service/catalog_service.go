package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nortide/catalog-sync/internal/metrics"
	"github.com/nortide/catalog-sync/internal/model"
	"github.com/nortide/catalog-sync/internal/repository"
)

var (
	ErrNameRequired               = errors.New("product name is required")
	ErrTooManyImages              = fmt.Errorf("product can carry at most %d images", model.MaxProductImages)
	ErrStatementDescriptorTooLong = fmt.Errorf("statement descriptor is limited to %d characters", model.MaxStatementDescriptorLen)
	ErrUnitLabelTooLong           = fmt.Errorf("unit label is limited to %d characters", model.MaxUnitLabelLen)
	ErrCurrencyRequired           = errors.New("price currency is required")
	ErrInvalidPriceType           = errors.New("price type must be recurring or one_time")
	ErrIntervalRequired           = errors.New("recurring price requires an interval")
	ErrTiersRequired              = errors.New("tiered billing scheme requires tiers")
)

// ProductStore is the product persistence surface the catalog service uses.
type ProductStore interface {
	Create(ctx context.Context, product *model.Product) (*model.Product, error)
	Update(ctx context.Context, product *model.Product) (*model.Product, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	ProductByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, query repository.Query) ([]*model.Product, error)
	ListAll(ctx context.Context) ([]*model.Product, error)
}

// PriceStore is the price persistence surface the catalog service uses.
type PriceStore interface {
	Create(ctx context.Context, price *model.Price) (*model.Price, error)
	Update(ctx context.Context, price *model.Price) (*model.Price, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	PriceByID(ctx context.Context, id uuid.UUID) (*model.Price, error)
	PricesForProduct(ctx context.Context, productID uuid.UUID) ([]*model.Price, error)
}

// JobStore is the sync queue surface the catalog service enqueues into.
type JobStore interface {
	Create(ctx context.Context, job *model.SyncJob) (*model.SyncJob, error)
	HasPending(ctx context.Context, productID uuid.UUID) (bool, error)
}

// CatalogService owns catalog mutations. Every local write that can change
// the remote representation optionally enqueues a sync job; nothing here
// talks to the provider directly.
type CatalogService struct {
	products ProductStore
	prices   PriceStore
	jobs     JobStore
	autoSync bool
}

// NewCatalogService creates the catalog service. With autoSync enabled, every
// catalog mutation queues a background sync for the affected product.
func NewCatalogService(products ProductStore, prices PriceStore, jobs JobStore, autoSync bool) *CatalogService {
	return &CatalogService{
		products: products,
		prices:   prices,
		jobs:     jobs,
		autoSync: autoSync,
	}
}

// CreateProduct validates and persists a new product.
func (s *CatalogService) CreateProduct(ctx context.Context, product *model.Product) (*model.Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	created, err := s.products.Create(ctx, product)
	if err != nil {
		return nil, err
	}

	// A product without prices is not syncable yet, so no job is enqueued here.
	return created, nil
}

// UpdateProduct validates and persists changes to a product, marking it out
// of sync until the next successful push.
func (s *CatalogService) UpdateProduct(ctx context.Context, product *model.Product) (*model.Product, error) {
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	updated, err := s.products.Update(ctx, product)
	if err != nil {
		return nil, err
	}

	s.maybeEnqueueSync(ctx, updated.ID)

	return updated, nil
}

// DeleteProduct soft deletes a product. The remote object is left as is;
// archiving it remotely is a deliberate, separate operation.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.products.SoftDelete(ctx, id)
}

// GetProduct returns a product with its prices loaded.
func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return s.products.ProductByID(ctx, id)
}

// ListProducts returns a page of products with their prices loaded, so the
// out-of-sync state can be reported per row.
func (s *CatalogService) ListProducts(ctx context.Context, query repository.Query) ([]*model.Product, error) {
	products, err := s.products.List(ctx, query)
	if err != nil {
		return nil, err
	}

	for _, product := range products {
		prices, err := s.prices.PricesForProduct(ctx, product.ID)
		if err != nil {
			return nil, err
		}
		product.Prices = prices
	}

	return products, nil
}

// CreatePrice validates and persists a new price under a product.
func (s *CatalogService) CreatePrice(ctx context.Context, price *model.Price) (*model.Price, error) {
	if err := validatePrice(price); err != nil {
		return nil, err
	}
	// The parent must exist and not be deleted.
	if _, err := s.products.ProductByID(ctx, price.ProductID); err != nil {
		return nil, err
	}

	created, err := s.prices.Create(ctx, price)
	if err != nil {
		return nil, err
	}

	s.maybeEnqueueSync(ctx, created.ProductID)

	return created, nil
}

// UpdatePrice validates and persists changes to a price. Pricing-field changes
// will surface as a remote replacement on the next sync pass.
func (s *CatalogService) UpdatePrice(ctx context.Context, price *model.Price) (*model.Price, error) {
	if err := validatePrice(price); err != nil {
		return nil, err
	}

	updated, err := s.prices.Update(ctx, price)
	if err != nil {
		return nil, err
	}

	s.maybeEnqueueSync(ctx, updated.ProductID)

	return updated, nil
}

// DeletePrice soft deletes a price; it stops participating in sync.
func (s *CatalogService) DeletePrice(ctx context.Context, id uuid.UUID) error {
	price, err := s.prices.PriceByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.prices.SoftDelete(ctx, price.ID); err != nil {
		return err
	}

	s.maybeEnqueueSync(ctx, price.ProductID)

	return nil
}

// GetPrice returns a single price.
func (s *CatalogService) GetPrice(ctx context.Context, id uuid.UUID) (*model.Price, error) {
	return s.prices.PriceByID(ctx, id)
}

// EnqueueSync queues a background sync for a product. Repeated calls while a
// job is already pending collapse into that job.
func (s *CatalogService) EnqueueSync(ctx context.Context, productID uuid.UUID) (*model.SyncJob, error) {
	if _, err := s.products.ProductByID(ctx, productID); err != nil {
		return nil, err
	}

	pending, err := s.jobs.HasPending(ctx, productID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, nil
	}

	job, err := s.jobs.Create(ctx, &model.SyncJob{ProductID: productID})
	if err != nil {
		return nil, err
	}
	metrics.SyncJobsEnqueued.Inc()

	return job, nil
}

// SyncAllProducts queues a sync for every non-deleted product and returns the
// number of jobs enqueued.
func (s *CatalogService) SyncAllProducts(ctx context.Context) (int, error) {
	products, err := s.products.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	enqueued := 0
	for _, product := range products {
		job, err := s.EnqueueSync(ctx, product.ID)
		if err != nil {
			slog.Error("Failed to enqueue sync",
				slog.String("product_id", product.ID.String()),
				slog.Any("err", err))
			continue
		}
		if job != nil {
			enqueued++
		}
	}

	return enqueued, nil
}

// maybeEnqueueSync queues a sync after a mutation when auto sync is on.
// Enqueue failures are logged, never surfaced: the local write already
// succeeded and the product simply stays marked out of sync.
func (s *CatalogService) maybeEnqueueSync(ctx context.Context, productID uuid.UUID) {
	if !s.autoSync {
		return
	}
	if _, err := s.EnqueueSync(ctx, productID); err != nil {
		slog.Error("Failed to enqueue sync",
			slog.String("product_id", productID.String()),
			slog.Any("err", err))
	}
}

func validateProduct(product *model.Product) error {
	if product.Name == "" {
		return ErrNameRequired
	}
	if len(product.Images) > model.MaxProductImages {
		return ErrTooManyImages
	}
	if len(product.StatementDescriptor) > model.MaxStatementDescriptorLen {
		return ErrStatementDescriptorTooLong
	}
	if len(product.UnitLabel) > model.MaxUnitLabelLen {
		return ErrUnitLabelTooLong
	}
	return nil
}

func validatePrice(price *model.Price) error {
	if price.Currency == "" {
		return ErrCurrencyRequired
	}
	switch price.Type {
	case model.PriceTypeRecurring:
		if price.RecurringInterval == "" {
			return ErrIntervalRequired
		}
	case model.PriceTypeOneTime:
	default:
		return ErrInvalidPriceType
	}
	if price.BillingScheme == model.BillingSchemeTiered && len(price.Tiers) == 0 {
		return ErrTiersRequired
	}
	return nil
}

package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/nortide/catalog-sync/internal/gateway"
	"github.com/nortide/catalog-sync/internal/metrics"
	"github.com/nortide/catalog-sync/internal/model"
)

var (
	// ErrProductNameRequired is returned before any remote call when a product
	// has no name.
	ErrProductNameRequired = errors.New("product name is required")

	// ErrNoPricesToSync is returned when a product has no non-deleted prices;
	// a product needs at least one price to be eligible for remote sync.
	ErrNoPricesToSync = errors.New("product has no prices to sync")
)

// ProductStore is the slice of the entity store the engine reads and updates
// products through.
type ProductStore interface {
	// ProductByID returns a non-deleted product with its prices eagerly loaded.
	ProductByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	// SetExternalID persists the remote product id without touching updated_at.
	SetExternalID(ctx context.Context, id uuid.UUID, externalID string) error
}

// PriceStore is the slice of the entity store the engine reads and updates
// prices through.
type PriceStore interface {
	// PricesForProduct returns the product's non-deleted prices in display order.
	PricesForProduct(ctx context.Context, productID uuid.UUID) ([]*model.Price, error)
	// SetExternalID persists the remote price id without touching updated_at.
	SetExternalID(ctx context.Context, id uuid.UUID, externalID string) error
}

// Engine reconciles local catalog records against the remote provider. It
// holds no state beyond an in-flight operation's working set; all results are
// written back through the entity store.
type Engine struct {
	gw       gateway.Gateway
	products ProductStore
	prices   PriceStore
}

// NewEngine creates a reconciliation engine over the given gateway and stores.
func NewEngine(gw gateway.Gateway, products ProductStore, prices PriceStore) *Engine {
	return &Engine{
		gw:       gw,
		products: products,
		prices:   prices,
	}
}

// SyncProduct pushes a product to the remote provider, creating the remote
// object on first sync and updating it in place afterwards. On success the
// product's ExternalID is populated and consistent with the remote object.
// Gateway failures are logged with the product id and returned to the caller;
// they are never swallowed.
func (e *Engine) SyncProduct(ctx context.Context, product *model.Product) (*model.Product, error) {
	if strings.TrimSpace(product.Name) == "" {
		return nil, ErrProductNameRequired
	}

	payload := buildProductPayload(product)

	if product.ExternalID != "" {
		if _, err := e.gw.UpdateProduct(ctx, product.ExternalID, payload); err != nil {
			slog.Error("product sync failed",
				slog.String("product_id", product.ID.String()),
				slog.Any("err", err))
			return nil, fmt.Errorf("failed to sync product %s: %w", product.ID, err)
		}
		return product, nil
	}

	remote, err := e.gw.CreateProduct(ctx, payload)
	if err != nil {
		slog.Error("product sync failed",
			slog.String("product_id", product.ID.String()),
			slog.Any("err", err))
		return nil, fmt.Errorf("failed to sync product %s: %w", product.ID, err)
	}
	if err := e.products.SetExternalID(ctx, product.ID, remote.ID); err != nil {
		return nil, fmt.Errorf("failed to store remote id for product %s: %w", product.ID, err)
	}
	product.ExternalID = remote.ID

	return product, nil
}

// SyncPrice pushes a price to the remote provider. The parent product is
// synced first if it has no remote id yet, so a price is never created against
// a product the provider does not know. When the price already has a remote
// id, the existing remote object is retrieved and diffed: non-pricing changes
// are patched in place, pricing changes archive the old object and create a
// replacement, and a stale remote id falls back to a fresh create.
func (e *Engine) SyncPrice(ctx context.Context, price *model.Price) (*model.Price, error) {
	product, err := e.products.ProductByID(ctx, price.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product for price %s: %w", price.ID, err)
	}
	if product.ExternalID == "" {
		if product, err = e.SyncProduct(ctx, product); err != nil {
			return nil, err
		}
	}

	payload := buildPricePayload(price, product)

	if price.ExternalID == "" {
		return e.createPrice(ctx, price, payload)
	}

	existing, err := e.gw.RetrievePrice(ctx, price.ExternalID)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			// The stored remote id no longer resolves (deleted out-of-band).
			// Treat the price as never synced and adopt a fresh remote object.
			slog.Warn("remote price missing, recreating",
				slog.String("price_id", price.ID.String()),
				slog.String("external_id", price.ExternalID))
			return e.createPrice(ctx, price, payload)
		}
		slog.Error("price sync failed",
			slog.String("price_id", price.ID.String()),
			slog.Any("err", err))
		return nil, fmt.Errorf("failed to sync price %s: %w", price.ID, err)
	}

	switch DecideAction(existing, payload) {
	case ActionHardReplace:
		return e.replacePrice(ctx, price, payload)
	default:
		return e.softUpdatePrice(ctx, price, payload)
	}
}

// SyncProductAndPrices syncs a product and then each of its non-deleted
// prices in turn. The product sync strictly precedes any price sync. Price
// syncs are best effort across the set: a failure on one price does not
// prevent attempting the rest, but every failure is reported to the caller.
func (e *Engine) SyncProductAndPrices(ctx context.Context, product *model.Product) (*model.Product, error) {
	prices, err := e.prices.PricesForProduct(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load prices for product %s: %w", product.ID, err)
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("%w: product %s", ErrNoPricesToSync, product.ID)
	}

	if product, err = e.SyncProduct(ctx, product); err != nil {
		return nil, err
	}

	var errs []error
	for _, price := range prices {
		if _, err := e.SyncPrice(ctx, price); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	// Re-read so the returned product reflects every update made in this pass.
	return e.products.ProductByID(ctx, product.ID)
}

func (e *Engine) createPrice(ctx context.Context, price *model.Price, payload gateway.PricePayload) (*model.Price, error) {
	remote, err := e.gw.CreatePrice(ctx, payload)
	if err != nil {
		slog.Error("price sync failed",
			slog.String("price_id", price.ID.String()),
			slog.Any("err", err))
		return nil, fmt.Errorf("failed to sync price %s: %w", price.ID, err)
	}
	if err := e.prices.SetExternalID(ctx, price.ID, remote.ID); err != nil {
		return nil, fmt.Errorf("failed to store remote id for price %s: %w", price.ID, err)
	}
	price.ExternalID = remote.ID
	metrics.PricesCreated.Inc()

	return price, nil
}

func (e *Engine) softUpdatePrice(ctx context.Context, price *model.Price, payload gateway.PricePayload) (*model.Price, error) {
	active := price.Active
	update := gateway.PriceUpdate{
		Active:   &active,
		Metadata: payload.Metadata,
	}
	if _, err := e.gw.UpdatePrice(ctx, price.ExternalID, update); err != nil {
		slog.Error("price sync failed",
			slog.String("price_id", price.ID.String()),
			slog.Any("err", err))
		return nil, fmt.Errorf("failed to sync price %s: %w", price.ID, err)
	}
	metrics.PriceSoftUpdates.Inc()

	return price, nil
}

// replacePrice archives the existing remote object and creates a replacement.
// Archive-then-create is not crash safe: if the create fails after the archive
// succeeded, the local record stays linked to an archived remote object until
// the next retry recreates it.
func (e *Engine) replacePrice(ctx context.Context, price *model.Price, payload gateway.PricePayload) (*model.Price, error) {
	inactive := false
	if _, err := e.gw.UpdatePrice(ctx, price.ExternalID, gateway.PriceUpdate{Active: &inactive}); err != nil {
		slog.Error("price sync failed",
			slog.String("price_id", price.ID.String()),
			slog.Any("err", err))
		return nil, fmt.Errorf("failed to archive remote price for %s: %w", price.ID, err)
	}

	remote, err := e.gw.CreatePrice(ctx, payload)
	if err != nil {
		slog.Error("price sync failed",
			slog.String("price_id", price.ID.String()),
			slog.String("archived_external_id", price.ExternalID),
			slog.Any("err", err))
		return nil, fmt.Errorf("failed to sync price %s: %w", price.ID, err)
	}
	if err := e.prices.SetExternalID(ctx, price.ID, remote.ID); err != nil {
		return nil, fmt.Errorf("failed to store remote id for price %s: %w", price.ID, err)
	}

	slog.Info("remote price replaced",
		slog.String("price_id", price.ID.String()),
		slog.String("old_external_id", price.ExternalID),
		slog.String("new_external_id", remote.ID))
	price.ExternalID = remote.ID
	metrics.PricesReplaced.Inc()

	return price, nil
}

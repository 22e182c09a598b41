package gateway

import (
	"context"
	"errors"

	"github.com/nortide/catalog-sync/internal/model"
)

// ErrNotFound is returned by RetrievePrice when the stored remote id no longer
// resolves on the provider side (e.g. the object was deleted out-of-band).
var ErrNotFound = errors.New("remote object not found")

// ProductPayload is the remote representation of a product. Optional fields
// left empty are omitted at the provider boundary so blanks never overwrite
// remote defaults.
type ProductPayload struct {
	Name                string
	Active              bool
	Description         string
	StatementDescriptor string
	UnitLabel           string
	Images              []string
	Metadata            map[string]string
}

// RecurringPayload is the nested recurring block of a price payload.
type RecurringPayload struct {
	Interval        string
	IntervalCount   int64
	TrialPeriodDays int64
	UsageType       string // licensed or metered
}

// PricePayload is the remote representation of a price.
type PricePayload struct {
	Product           string
	Currency          string
	UnitAmount        int64
	Active            bool
	Type              string // recurring or one_time
	Nickname          string
	Metadata          map[string]string
	BillingScheme     string
	TiersMode         string
	Tiers             []model.PriceTier
	TransformQuantity *model.TransformQuantity
	CustomUnitAmount  *model.CustomUnitAmount
	Recurring         *RecurringPayload
}

// PriceUpdate carries only the remotely mutable price fields. Everything else
// on a remote price is immutable and requires replacement.
type PriceUpdate struct {
	Active   *bool
	Metadata map[string]string
}

// RemoteProduct is the provider's view of a product after a create or update.
type RemoteProduct struct {
	ID       string
	Name     string
	Active   bool
	Metadata map[string]string
}

// RemoteRecurring is the recurring block of a remote price.
type RemoteRecurring struct {
	Interval        string
	IntervalCount   int64
	UsageType       string
	TrialPeriodDays int64
}

// RemotePrice is the provider's view of a price, as returned by RetrievePrice,
// CreatePrice and UpdatePrice.
type RemotePrice struct {
	ID                string
	Active            bool
	Currency          string
	UnitAmount        int64
	Type              string
	BillingScheme     string
	TiersMode         string
	Tiers             []model.PriceTier
	TransformQuantity *model.TransformQuantity
	CustomUnitAmount  *model.CustomUnitAmount
	Recurring         *RemoteRecurring
	Metadata          map[string]string
}

// Gateway is the narrow contract over the remote catalog provider that the
// reconciliation engine depends on. Implementations translate these neutral
// payloads into provider API calls; the engine never sees provider SDK types.
type Gateway interface {
	CreateProduct(ctx context.Context, payload ProductPayload) (*RemoteProduct, error)
	UpdateProduct(ctx context.Context, remoteID string, payload ProductPayload) (*RemoteProduct, error)
	CreatePrice(ctx context.Context, payload PricePayload) (*RemotePrice, error)
	UpdatePrice(ctx context.Context, remoteID string, update PriceUpdate) (*RemotePrice, error)
	RetrievePrice(ctx context.Context, remoteID string) (*RemotePrice, error)
}

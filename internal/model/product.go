package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	// MaxProductImages is the maximum number of image URLs a product can carry.
	MaxProductImages = 8

	// MaxStatementDescriptorLen is the provider-imposed limit on statement descriptors.
	MaxStatementDescriptorLen = 22

	// MaxUnitLabelLen is the provider-imposed limit on unit labels.
	MaxUnitLabelLen = 12
)

// Product mirrors the remote provider's Product object for catalog management.
// A product is a container for one or more Prices (monthly/yearly, add-ons).
// Products are soft deleted, never hard deleted, to preserve financial history.
type Product struct {
	ID                  uuid.UUID
	Name                string
	Description         string
	Active              bool
	Images              []string
	Metadata            map[string]string
	StatementDescriptor string
	UnitLabel           string
	LookupKey           string
	DisplayOrder        int
	ExternalID          string
	LastSyncedAt        *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
	DeletedAt           *time.Time

	// Prices holds the product's non-deleted prices when the product was
	// loaded with them. Nil when the product was loaded without its prices.
	Prices []*Price
}

// InitMeta initializes the product metadata including ID and timestamps.
func (p *Product) InitMeta() {
	p.ID = uuid.New()
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
}

// IsSynced reports whether the product has ever been pushed to the remote provider.
func (p *Product) IsSynced() bool {
	return p.ExternalID != ""
}

// IsOutOfSync reports whether the product, or any of its loaded prices,
// changed since the last successful push to the remote provider. Pure local
// check over already-loaded records, no remote calls.
func (p *Product) IsOutOfSync() bool {
	if p.LastSyncedAt == nil {
		return true
	}
	if p.UpdatedAt.After(*p.LastSyncedAt) {
		return true
	}
	for _, price := range p.Prices {
		if price.LastSyncedAt == nil || price.UpdatedAt.After(*price.LastSyncedAt) {
			return true
		}
	}
	return false
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// Feature types distinguish simple on/off features from quantified resources.
const (
	FeatureTypeBoolean  = "boolean"
	FeatureTypeResource = "resource"
)

// ProductFeature is a catalog-wide feature definition (e.g. seats, api-access)
// that products opt into via ProductFeatureConfig. Features never affect
// remote sync; they are local entitlement configuration only.
type ProductFeature struct {
	ID          uuid.UUID
	Key         string
	Name        string
	Description string
	Type        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// InitMeta initializes the feature metadata including ID and timestamps.
func (f *ProductFeature) InitMeta() {
	f.ID = uuid.New()
	now := time.Now()
	f.CreatedAt = now
	f.UpdatedAt = now
	if f.Type == "" {
		f.Type = FeatureTypeBoolean
	}
}

// ProductFeatureConfig attaches a feature to a product with its entitlement
// settings: an on/off toggle plus quantity bounds for resource features.
type ProductFeatureConfig struct {
	ProductID        uuid.UUID
	FeatureID        uuid.UUID
	Enabled          bool
	IncludedQuantity int64
	OverageLimit     int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

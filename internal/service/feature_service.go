package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/nortide/catalog-sync/internal/model"
)

var (
	ErrFeatureKeyRequired  = errors.New("feature key is required")
	ErrFeatureNameRequired = errors.New("feature name is required")
	ErrInvalidFeatureType  = errors.New("feature type must be boolean or resource")
)

// FeatureStore is the feature persistence surface the feature service uses.
type FeatureStore interface {
	CreateFeature(ctx context.Context, feature *model.ProductFeature) (*model.ProductFeature, error)
	FeatureByKey(ctx context.Context, key string) (*model.ProductFeature, error)
	ListFeatures(ctx context.Context) ([]*model.ProductFeature, error)
	SetConfig(ctx context.Context, conf *model.ProductFeatureConfig) error
	ConfigsForProduct(ctx context.Context, productID uuid.UUID) ([]*model.ProductFeatureConfig, error)
}

// ProductFinder is the slice of the product store the feature service needs to
// check that a product exists before attaching configs to it.
type ProductFinder interface {
	ProductByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
}

// ProductFeatureView pairs a feature definition with its config for one product.
type ProductFeatureView struct {
	Feature *model.ProductFeature
	Config  *model.ProductFeatureConfig
}

// FeatureService owns feature definitions and per-product entitlement configs.
// Features are local-only: the sync engine never pushes them to the provider.
type FeatureService struct {
	features FeatureStore
	products ProductFinder
}

// NewFeatureService creates the feature service.
func NewFeatureService(features FeatureStore, products ProductFinder) *FeatureService {
	return &FeatureService{
		features: features,
		products: products,
	}
}

// CreateFeature validates and persists a new feature definition.
func (s *FeatureService) CreateFeature(ctx context.Context, feature *model.ProductFeature) (*model.ProductFeature, error) {
	if feature.Key == "" {
		return nil, ErrFeatureKeyRequired
	}
	if feature.Name == "" {
		return nil, ErrFeatureNameRequired
	}
	switch feature.Type {
	case "", model.FeatureTypeBoolean, model.FeatureTypeResource:
	default:
		return nil, ErrInvalidFeatureType
	}

	return s.features.CreateFeature(ctx, feature)
}

// ListFeatures returns every feature definition.
func (s *FeatureService) ListFeatures(ctx context.Context) ([]*model.ProductFeature, error) {
	return s.features.ListFeatures(ctx)
}

// SetProductFeature attaches the feature identified by key to a product,
// replacing any existing config for the pair.
func (s *FeatureService) SetProductFeature(ctx context.Context, productID uuid.UUID, key string, conf *model.ProductFeatureConfig) (*ProductFeatureView, error) {
	if _, err := s.products.ProductByID(ctx, productID); err != nil {
		return nil, err
	}

	feature, err := s.features.FeatureByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	conf.ProductID = productID
	conf.FeatureID = feature.ID
	if err := s.features.SetConfig(ctx, conf); err != nil {
		return nil, err
	}

	return &ProductFeatureView{Feature: feature, Config: conf}, nil
}

// ProductFeatures returns the feature configs attached to a product joined
// with their definitions.
func (s *FeatureService) ProductFeatures(ctx context.Context, productID uuid.UUID) ([]*ProductFeatureView, error) {
	if _, err := s.products.ProductByID(ctx, productID); err != nil {
		return nil, err
	}

	configs, err := s.features.ConfigsForProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(configs) == 0 {
		return nil, nil
	}

	features, err := s.features.ListFeatures(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*model.ProductFeature, len(features))
	for _, feature := range features {
		byID[feature.ID] = feature
	}

	views := make([]*ProductFeatureView, 0, len(configs))
	for _, conf := range configs {
		views = append(views, &ProductFeatureView{Feature: byID[conf.FeatureID], Config: conf})
	}

	return views, nil
}

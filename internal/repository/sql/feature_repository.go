package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nortide/catalog-sync/internal/model"
	"github.com/nortide/catalog-sync/internal/repository"
)

const featureColumns = `id, key, name, description, type, created_at, updated_at`

// FeatureRepository persists feature definitions and their per-product
// entitlement configs. Features are local-only and never reach the remote
// provider.
type FeatureRepository struct {
	db  *sql.DB
	txn *sql.Tx
}

// NewFeatureRepository creates a new FeatureRepository instance.
func NewFeatureRepository(db *sql.DB) *FeatureRepository {
	return &FeatureRepository{db: db}
}

// getExecutor returns the active executor (transaction if exists, otherwise db)
func (r *FeatureRepository) getExecutor() dbExecutor {
	if r.txn != nil {
		return r.txn
	}
	return r.db
}

// CreateFeature inserts a new feature definition. Keys are unique catalog-wide.
func (r *FeatureRepository) CreateFeature(ctx context.Context, feature *model.ProductFeature) (*model.ProductFeature, error) {
	if feature.ID == uuid.Nil {
		feature.InitMeta()
	}

	query := `INSERT INTO product_features (id, key, name, description, type, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx,
		feature.ID, feature.Key, feature.Name, feature.Description, feature.Type,
		feature.CreatedAt, feature.UpdatedAt,
	)
	if err != nil {
		var pgError *pgconn.PgError
		if errors.As(err, &pgError) && pgError.Code == pqUniqueViolationErrCode {
			return nil, &repository.UniqueConstraintError{Detail: pgError.Detail}
		}
		return nil, fmt.Errorf("failed to insert feature: %w", err)
	}

	return feature, nil
}

// FeatureByKey retrieves a feature definition by its unique key.
func (r *FeatureRepository) FeatureByKey(ctx context.Context, key string) (*model.ProductFeature, error) {
	query := `SELECT ` + featureColumns + ` FROM product_features WHERE key = $1`

	executor := r.getExecutor()
	var feature model.ProductFeature
	err := executor.QueryRowContext(ctx, query, key).Scan(
		&feature.ID, &feature.Key, &feature.Name, &feature.Description, &feature.Type,
		&feature.CreatedAt, &feature.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("feature %q: %w", key, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query feature: %w", err)
	}

	return &feature, nil
}

// ListFeatures retrieves every feature definition ordered by key.
func (r *FeatureRepository) ListFeatures(ctx context.Context) ([]*model.ProductFeature, error) {
	query := `SELECT ` + featureColumns + ` FROM product_features ORDER BY key ASC`

	executor := r.getExecutor()
	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query features: %w", err)
	}
	defer rows.Close()

	var features []*model.ProductFeature
	for rows.Next() {
		var feature model.ProductFeature
		err := rows.Scan(
			&feature.ID, &feature.Key, &feature.Name, &feature.Description, &feature.Type,
			&feature.CreatedAt, &feature.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feature: %w", err)
		}
		features = append(features, &feature)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return features, nil
}

// SetConfig attaches a feature to a product, replacing any existing config for
// the pair.
func (r *FeatureRepository) SetConfig(ctx context.Context, conf *model.ProductFeatureConfig) error {
	now := time.Now()
	if conf.CreatedAt.IsZero() {
		conf.CreatedAt = now
	}
	conf.UpdatedAt = now

	query := `INSERT INTO product_feature_configs
	              (product_id, feature_id, enabled, included_quantity, overage_limit, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          ON CONFLICT (product_id, feature_id) DO UPDATE
	          SET enabled = EXCLUDED.enabled,
	              included_quantity = EXCLUDED.included_quantity,
	              overage_limit = EXCLUDED.overage_limit,
	              updated_at = EXCLUDED.updated_at`

	executor := r.getExecutor()
	_, err := executor.ExecContext(ctx, query,
		conf.ProductID, conf.FeatureID, conf.Enabled,
		conf.IncludedQuantity, conf.OverageLimit, conf.CreatedAt, conf.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert feature config: %w", err)
	}

	return nil
}

// ConfigsForProduct retrieves the feature configs attached to a product.
func (r *FeatureRepository) ConfigsForProduct(ctx context.Context, productID uuid.UUID) ([]*model.ProductFeatureConfig, error) {
	query := `SELECT product_id, feature_id, enabled, included_quantity, overage_limit, created_at, updated_at
	          FROM product_feature_configs
	          WHERE product_id = $1
	          ORDER BY feature_id ASC`

	executor := r.getExecutor()
	rows, err := executor.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query feature configs: %w", err)
	}
	defer rows.Close()

	var configs []*model.ProductFeatureConfig
	for rows.Next() {
		var conf model.ProductFeatureConfig
		err := rows.Scan(
			&conf.ProductID, &conf.FeatureID, &conf.Enabled,
			&conf.IncludedQuantity, &conf.OverageLimit, &conf.CreatedAt, &conf.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feature config: %w", err)
		}
		configs = append(configs, &conf)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return configs, nil
}

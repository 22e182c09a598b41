package sql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nortide/catalog-sync/internal/model"
	"github.com/nortide/catalog-sync/internal/repository"
)

const priceColumns = `id, product_id, active, currency, unit_amount, type,
	recurring_interval, recurring_interval_count, recurring_trial_period_days,
	pricing_model, billing_scheme, tiers, tiers_mode, transform_quantity,
	custom_unit_amount, nickname, lookup_key, display_order, metadata,
	external_id, last_synced_at, created_at, updated_at, deleted_at`

// PriceRepository persists prices. Local rows are freely editable; what is
// immutable is the remote object a row maps to, and that is the sync engine's
// concern, not this repository's.
type PriceRepository struct {
	db  *sql.DB
	txn *sql.Tx
}

// NewPriceRepository creates a new PriceRepository instance.
func NewPriceRepository(db *sql.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// getExecutor returns the active executor (transaction if exists, otherwise db)
func (r *PriceRepository) getExecutor() dbExecutor {
	if r.txn != nil {
		return r.txn
	}
	return r.db
}

// Create inserts a new price into the database.
func (r *PriceRepository) Create(ctx context.Context, price *model.Price) (*model.Price, error) {
	if price.ID == uuid.Nil {
		price.InitMeta()
	}

	tiersJSON, transformJSON, customJSON, metadataJSON, err := encodePriceColumns(price)
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO prices (id, product_id, active, currency, unit_amount, type,
	              recurring_interval, recurring_interval_count, recurring_trial_period_days,
	              pricing_model, billing_scheme, tiers, tiers_mode, transform_quantity,
	              custom_unit_amount, nickname, lookup_key, display_order, metadata,
	              external_id, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
	                  $15, $16, $17, $18, $19, $20, $21, $22)`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx,
		price.ID, price.ProductID, price.Active, price.Currency, price.UnitAmount, price.Type,
		price.RecurringInterval, price.RecurringIntervalCount, price.RecurringTrialPeriodDays,
		price.PricingModel, price.BillingScheme, tiersJSON, price.TiersMode, transformJSON,
		customJSON, price.Nickname, price.LookupKey, price.DisplayOrder, metadataJSON,
		price.ExternalID, price.CreatedAt, price.UpdatedAt,
	)
	if err != nil {
		var pgError *pgconn.PgError
		if errors.As(err, &pgError) && pgError.Code == pqUniqueViolationErrCode {
			return nil, &repository.UniqueConstraintError{Detail: pgError.Detail}
		}
		return nil, fmt.Errorf("failed to insert price: %w", err)
	}

	return price, nil
}

// Update persists the price attributes and bumps updated_at. Changing a
// pricing field here is what later drives the sync engine to replace the
// remote object.
func (r *PriceRepository) Update(ctx context.Context, price *model.Price) (*model.Price, error) {
	tiersJSON, transformJSON, customJSON, metadataJSON, err := encodePriceColumns(price)
	if err != nil {
		return nil, err
	}

	query := `UPDATE prices
	          SET active = $2, currency = $3, unit_amount = $4, type = $5,
	              recurring_interval = $6, recurring_interval_count = $7,
	              recurring_trial_period_days = $8, pricing_model = $9,
	              billing_scheme = $10, tiers = $11, tiers_mode = $12,
	              transform_quantity = $13, custom_unit_amount = $14, nickname = $15,
	              lookup_key = $16, display_order = $17, metadata = $18, updated_at = $19
	          WHERE id = $1 AND deleted_at IS NULL`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare update statement: %w", err)
	}
	defer stmt.Close()

	price.UpdatedAt = time.Now()
	result, err := stmt.ExecContext(ctx,
		price.ID, price.Active, price.Currency, price.UnitAmount, price.Type,
		price.RecurringInterval, price.RecurringIntervalCount,
		price.RecurringTrialPeriodDays, price.PricingModel,
		price.BillingScheme, tiersJSON, price.TiersMode,
		transformJSON, customJSON, price.Nickname,
		price.LookupKey, price.DisplayOrder, metadataJSON, price.UpdatedAt,
	)
	if err != nil {
		var pgError *pgconn.PgError
		if errors.As(err, &pgError) && pgError.Code == pqUniqueViolationErrCode {
			return nil, &repository.UniqueConstraintError{Detail: pgError.Detail}
		}
		return nil, fmt.Errorf("failed to update price: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, repository.ErrNotFound
	}

	return price, nil
}

// PriceByID retrieves a single non-deleted price.
func (r *PriceRepository) PriceByID(ctx context.Context, id uuid.UUID) (*model.Price, error) {
	query := `SELECT ` + priceColumns + ` FROM prices WHERE id = $1 AND deleted_at IS NULL`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	price, err := scanPrice(stmt.QueryRowContext(ctx, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("price %s: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query price: %w", err)
	}

	return price, nil
}

// PricesForProduct retrieves the non-deleted prices of a product in display
// order. Soft-deleted prices never participate in sync.
func (r *PriceRepository) PricesForProduct(ctx context.Context, productID uuid.UUID) ([]*model.Price, error) {
	query := `SELECT ` + priceColumns + ` FROM prices
	          WHERE product_id = $1 AND deleted_at IS NULL
	          ORDER BY display_order ASC, created_at ASC, id ASC`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	var prices []*model.Price
	for rows.Next() {
		price, err := scanPrice(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		prices = append(prices, price)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return prices, nil
}

// SoftDelete marks a price as deleted without removing the row.
func (r *PriceRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE prices SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete price: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SetExternalID records the remote provider id for a price. During a hard
// replacement this repoints the row at the freshly created remote object.
// Bookkeeping write, updated_at stays untouched.
func (r *PriceRepository) SetExternalID(ctx context.Context, id uuid.UUID, externalID string) error {
	query := `UPDATE prices SET external_id = $2 WHERE id = $1 AND deleted_at IS NULL`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare update statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, id, externalID)
	if err != nil {
		return fmt.Errorf("failed to set price external id: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func encodePriceColumns(price *model.Price) (tiers, transform, custom, metadata interface{}, err error) {
	if len(price.Tiers) > 0 {
		if tiers, err = json.Marshal(price.Tiers); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("failed to encode price tiers: %w", err)
		}
	}
	if price.TransformQuantity != nil {
		if transform, err = json.Marshal(price.TransformQuantity); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("failed to encode transform quantity: %w", err)
		}
	}
	if price.CustomUnitAmount != nil {
		if custom, err = json.Marshal(price.CustomUnitAmount); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("failed to encode custom unit amount: %w", err)
		}
	}
	if metadata, err = marshalMetadata(price.Metadata); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to encode price metadata: %w", err)
	}
	return tiers, transform, custom, metadata, nil
}

func scanPrice(scan func(dest ...interface{}) error) (*model.Price, error) {
	var (
		price         model.Price
		tiersJSON     []byte
		transformJSON []byte
		customJSON    []byte
		metadataJSON  []byte
		lastSyncedAt  sql.NullTime
		deletedAt     sql.NullTime
	)
	err := scan(
		&price.ID, &price.ProductID, &price.Active, &price.Currency, &price.UnitAmount, &price.Type,
		&price.RecurringInterval, &price.RecurringIntervalCount, &price.RecurringTrialPeriodDays,
		&price.PricingModel, &price.BillingScheme, &tiersJSON, &price.TiersMode, &transformJSON,
		&customJSON, &price.Nickname, &price.LookupKey, &price.DisplayOrder, &metadataJSON,
		&price.ExternalID, &lastSyncedAt, &price.CreatedAt, &price.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(tiersJSON) > 0 {
		if err := json.Unmarshal(tiersJSON, &price.Tiers); err != nil {
			return nil, fmt.Errorf("failed to decode price tiers: %w", err)
		}
	}
	if len(transformJSON) > 0 {
		if err := json.Unmarshal(transformJSON, &price.TransformQuantity); err != nil {
			return nil, fmt.Errorf("failed to decode transform quantity: %w", err)
		}
	}
	if len(customJSON) > 0 {
		if err := json.Unmarshal(customJSON, &price.CustomUnitAmount); err != nil {
			return nil, fmt.Errorf("failed to decode custom unit amount: %w", err)
		}
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &price.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode price metadata: %w", err)
		}
	}
	if lastSyncedAt.Valid {
		price.LastSyncedAt = &lastSyncedAt.Time
	}
	if deletedAt.Valid {
		price.DeletedAt = &deletedAt.Time
	}

	return &price, nil
}

package sql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/nortide/catalog-sync/internal/model"
	"github.com/nortide/catalog-sync/internal/repository"
)

const productColumns = `id, name, description, active, images, metadata,
	statement_descriptor, unit_label, lookup_key, display_order,
	external_id, last_synced_at, created_at, updated_at, deleted_at`

// ProductRepository persists catalog products. All reads exclude soft-deleted
// rows; deletes only ever set deleted_at.
type ProductRepository struct {
	db  *sql.DB
	txn *sql.Tx
}

// NewProductRepository creates a new ProductRepository instance.
func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// getExecutor returns the active executor (transaction if exists, otherwise db)
func (r *ProductRepository) getExecutor() dbExecutor {
	if r.txn != nil {
		return r.txn
	}
	return r.db
}

// WithinTransaction executes a function within a database transaction.
func (r *ProductRepository) WithinTransaction(ctx context.Context, fn func(repo *ProductRepository) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txRepo := &ProductRepository{
		db:  r.db,
		txn: tx,
	}

	if err := fn(txRepo); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("failed to rollback transaction: %w (original error: %v)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Create inserts a new product into the database.
func (r *ProductRepository) Create(ctx context.Context, product *model.Product) (*model.Product, error) {
	if product.ID == uuid.Nil {
		product.InitMeta()
	}

	metadataJSON, err := marshalMetadata(product.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode product metadata: %w", err)
	}

	query := `INSERT INTO products (id, name, description, active, images, metadata,
	              statement_descriptor, unit_label, lookup_key, display_order,
	              external_id, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx,
		product.ID, product.Name, product.Description, product.Active,
		pq.Array(product.Images), metadataJSON,
		product.StatementDescriptor, product.UnitLabel, product.LookupKey, product.DisplayOrder,
		product.ExternalID, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		var pgError *pgconn.PgError
		if errors.As(err, &pgError) && pgError.Code == pqUniqueViolationErrCode {
			return nil, &repository.UniqueConstraintError{Detail: pgError.Detail}
		}
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}

	return product, nil
}

// Update persists the mutable attributes of a product and bumps updated_at,
// which is what marks the product as out of sync until the next push.
func (r *ProductRepository) Update(ctx context.Context, product *model.Product) (*model.Product, error) {
	metadataJSON, err := marshalMetadata(product.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode product metadata: %w", err)
	}

	query := `UPDATE products
	          SET name = $2, description = $3, active = $4, images = $5, metadata = $6,
	              statement_descriptor = $7, unit_label = $8, lookup_key = $9,
	              display_order = $10, updated_at = $11
	          WHERE id = $1 AND deleted_at IS NULL`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare update statement: %w", err)
	}
	defer stmt.Close()

	product.UpdatedAt = time.Now()
	result, err := stmt.ExecContext(ctx,
		product.ID, product.Name, product.Description, product.Active,
		pq.Array(product.Images), metadataJSON,
		product.StatementDescriptor, product.UnitLabel, product.LookupKey,
		product.DisplayOrder, product.UpdatedAt,
	)
	if err != nil {
		var pgError *pgconn.PgError
		if errors.As(err, &pgError) && pgError.Code == pqUniqueViolationErrCode {
			return nil, &repository.UniqueConstraintError{Detail: pgError.Detail}
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, repository.ErrNotFound
	}

	return product, nil
}

// ProductByID retrieves a single non-deleted product with its prices loaded.
func (r *ProductRepository) ProductByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND deleted_at IS NULL`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	product, err := scanProduct(stmt.QueryRowContext(ctx, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product %s: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	prices := NewPriceRepository(r.db)
	prices.txn = r.txn
	product.Prices, err = prices.PricesForProduct(ctx, product.ID)
	if err != nil {
		return nil, err
	}

	return product, nil
}

// List retrieves products from the database based on the provided query.
func (r *ProductRepository) List(ctx context.Context, query repository.Query) ([]*model.Product, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString("SELECT " + productColumns + " FROM products WHERE deleted_at IS NULL")

	var args []interface{}
	argIndex := 1

	if name, ok := query.Values[repository.NameField]; ok {
		queryBuilder.WriteString(fmt.Sprintf(" AND name = $%d", argIndex))
		args = append(args, name)
		argIndex++
	}
	if active, ok := query.Values[repository.ActiveField]; ok {
		queryBuilder.WriteString(fmt.Sprintf(" AND active = $%d", argIndex))
		args = append(args, active == "true")
		argIndex++
	}

	// Apply pagination
	if query.Paginator != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIndex, argIndex+1))
		args = append(args, query.Paginator.LastCreatedAt, query.Paginator.LastID)
		argIndex += 2
	}

	// Order by created_at DESC, id DESC for consistent pagination
	queryBuilder.WriteString(" ORDER BY created_at DESC, id DESC")

	limit := query.Limit
	if limit <= 0 {
		limit = repository.DefaultPaginationLimit
	}
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argIndex))
	args = append(args, limit)

	return r.queryProducts(ctx, queryBuilder.String(), args...)
}

// ListAll retrieves every non-deleted product, ordered for deterministic
// full-catalog sync passes.
func (r *ProductRepository) ListAll(ctx context.Context) ([]*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products
	          WHERE deleted_at IS NULL
	          ORDER BY display_order ASC, created_at ASC, id ASC`
	return r.queryProducts(ctx, query)
}

// SoftDelete marks a product as deleted without removing the row. History
// stays queryable for billing records.
func (r *ProductRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE products SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
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

// SetExternalID records the remote provider id for a product. The write is
// bookkeeping, not an edit, so updated_at is deliberately left alone.
func (r *ProductRepository) SetExternalID(ctx context.Context, id uuid.UUID, externalID string) error {
	query := `UPDATE products SET external_id = $2 WHERE id = $1 AND deleted_at IS NULL`

	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare update statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, id, externalID)
	if err != nil {
		return fmt.Errorf("failed to set product external id: %w", err)
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

// StampSynced advances last_synced_at on the product and all of its
// non-deleted prices in one transaction. It runs only after a fully
// successful sync pass; like SetExternalID it never touches updated_at.
func (r *ProductRepository) StampSynced(ctx context.Context, id uuid.UUID, syncedAt time.Time) error {
	return r.WithinTransaction(ctx, func(repo *ProductRepository) error {
		executor := repo.getExecutor()

		result, err := executor.ExecContext(ctx,
			`UPDATE products SET last_synced_at = $2 WHERE id = $1 AND deleted_at IS NULL`,
			id, syncedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to stamp product sync time: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return repository.ErrNotFound
		}

		_, err = executor.ExecContext(ctx,
			`UPDATE prices SET last_synced_at = $2 WHERE product_id = $1 AND deleted_at IS NULL`,
			id, syncedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to stamp price sync times: %w", err)
		}

		return nil
	})
}

func (r *ProductRepository) queryProducts(ctx context.Context, query string, args ...interface{}) ([]*model.Product, error) {
	executor := r.getExecutor()
	stmt, err := executor.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*model.Product
	for rows.Next() {
		product, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return products, nil
}

func scanProduct(scan func(dest ...interface{}) error) (*model.Product, error) {
	var (
		product      model.Product
		metadataJSON []byte
		lastSyncedAt sql.NullTime
		deletedAt    sql.NullTime
	)
	err := scan(
		&product.ID, &product.Name, &product.Description, &product.Active,
		pq.Array(&product.Images), &metadataJSON,
		&product.StatementDescriptor, &product.UnitLabel, &product.LookupKey, &product.DisplayOrder,
		&product.ExternalID, &lastSyncedAt, &product.CreatedAt, &product.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &product.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode product metadata: %w", err)
		}
	}
	if lastSyncedAt.Valid {
		product.LastSyncedAt = &lastSyncedAt.Time
	}
	if deletedAt.Valid {
		product.DeletedAt = &deletedAt.Time
	}

	return &product, nil
}

// marshalMetadata encodes a metadata map for a jsonb column, storing NULL for
// an absent map.
func marshalMetadata(metadata map[string]string) (interface{}, error) {
	if metadata == nil {
		return nil, nil
	}
	return json.Marshal(metadata)
}

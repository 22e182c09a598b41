package sql

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nortide/catalog-sync/internal/model"
	"github.com/nortide/catalog-sync/internal/repository"
)

var productTestColumns = []string{
	"id", "name", "description", "active", "images", "metadata",
	"statement_descriptor", "unit_label", "lookup_key", "display_order",
	"external_id", "last_synced_at", "created_at", "updated_at", "deleted_at",
}

func productRow(id uuid.UUID, name string, now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(productTestColumns).
		AddRow(id, name, "", true, "{}", []byte(`{"segment":"smb"}`),
			"", "", "starter", 0,
			"", nil, now, now, nil)
}

func TestProductRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)
	ctx := context.Background()

	t.Run("successful creation", func(t *testing.T) {
		product := &model.Product{
			Name:      "Starter",
			Active:    true,
			LookupKey: "starter",
		}

		mock.ExpectPrepare("INSERT INTO products").
			ExpectExec().
			WithArgs(sqlmock.AnyArg(), product.Name, "", true, sqlmock.AnyArg(), nil,
				"", "", "starter", 0, "", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		created, err := repo.Create(ctx, product)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, created.ID)
		assert.False(t, created.CreatedAt.IsZero())
		assert.False(t, created.UpdatedAt.IsZero())

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProductRepository_ProductByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)
	ctx := context.Background()

	t.Run("loads product with its prices", func(t *testing.T) {
		id := uuid.New()
		priceID := uuid.New()
		now := time.Now()

		mock.ExpectPrepare("SELECT (.+) FROM products WHERE id = \\$1 AND deleted_at IS NULL").
			ExpectQuery().
			WithArgs(id).
			WillReturnRows(productRow(id, "Starter", now))

		priceRows := sqlmock.NewRows(priceTestColumns).
			AddRow(priceID, id, true, "usd", int64(19900), "recurring",
				"month", int64(1), int64(0),
				"flat_recurring", "per_unit", nil, "", nil,
				nil, "", "starter-monthly", 0, nil,
				"", nil, now, now, nil)
		mock.ExpectPrepare("SELECT (.+) FROM prices").
			ExpectQuery().
			WithArgs(id).
			WillReturnRows(priceRows)

		product, err := repo.ProductByID(ctx, id)
		require.NoError(t, err)

		assert.Equal(t, id, product.ID)
		assert.Equal(t, "Starter", product.Name)
		assert.Equal(t, "smb", product.Metadata["segment"])
		require.Len(t, product.Prices, 1)
		assert.Equal(t, priceID, product.Prices[0].ID)
		assert.Equal(t, int64(19900), product.Prices[0].UnitAmount)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("product not found", func(t *testing.T) {
		id := uuid.New()

		mock.ExpectPrepare("SELECT (.+) FROM products WHERE id = \\$1 AND deleted_at IS NULL").
			ExpectQuery().
			WithArgs(id).
			WillReturnError(sql.ErrNoRows)

		product, err := repo.ProductByID(ctx, id)
		require.Error(t, err)
		assert.Nil(t, product)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProductRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)
	ctx := context.Background()

	t.Run("list without filters", func(t *testing.T) {
		query := repository.NewQuery()
		query.Limit = 10

		now := time.Now()
		rows := productRow(uuid.New(), "Product 1", now)
		rows.AddRow(uuid.New(), "Product 2", "", true, "{}", nil,
			"", "", "pro", 0, "", nil, now, now, nil)

		mock.ExpectPrepare("SELECT (.+) FROM products WHERE deleted_at IS NULL ORDER BY created_at DESC, id DESC LIMIT").
			ExpectQuery().
			WithArgs(10).
			WillReturnRows(rows)

		result, err := repo.List(ctx, *query)
		require.NoError(t, err)
		assert.Len(t, result, 2)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("list with pagination", func(t *testing.T) {
		query := repository.NewQuery()
		query.Limit = 10
		lastCreatedAt := time.Now().Add(-1 * time.Hour)
		lastID := uuid.New()
		query.Paginator = &repository.Paginator{
			LastID:        lastID,
			LastCreatedAt: lastCreatedAt,
		}

		rows := productRow(uuid.New(), "Product 1", time.Now())

		mock.ExpectPrepare("SELECT (.+) FROM products WHERE deleted_at IS NULL AND \\(created_at, id\\) < \\(\\$1, \\$2\\) ORDER BY created_at DESC, id DESC LIMIT").
			ExpectQuery().
			WithArgs(lastCreatedAt, lastID, 10).
			WillReturnRows(rows)

		result, err := repo.List(ctx, *query)
		require.NoError(t, err)
		assert.Len(t, result, 1)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProductRepository_SoftDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)
	ctx := context.Background()

	t.Run("successful delete", func(t *testing.T) {
		id := uuid.New()

		mock.ExpectPrepare("UPDATE products SET deleted_at").
			ExpectExec().
			WithArgs(id, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SoftDelete(ctx, id)
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("product not found", func(t *testing.T) {
		id := uuid.New()

		mock.ExpectPrepare("UPDATE products SET deleted_at").
			ExpectExec().
			WithArgs(id, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SoftDelete(ctx, id)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProductRepository_SetExternalID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)
	ctx := context.Background()

	t.Run("records remote id without bumping updated_at", func(t *testing.T) {
		id := uuid.New()

		// The statement must not include updated_at, otherwise a sync pass
		// would immediately mark the product out of sync again.
		mock.ExpectPrepare("UPDATE products SET external_id = \\$2 WHERE id = \\$1 AND deleted_at IS NULL").
			ExpectExec().
			WithArgs(id, "prod_123").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SetExternalID(ctx, id, "prod_123")
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProductRepository_StampSynced(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewProductRepository(db)
	ctx := context.Background()

	t.Run("stamps product and prices in one transaction", func(t *testing.T) {
		id := uuid.New()
		syncedAt := time.Now()

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE products SET last_synced_at").
			WithArgs(id, syncedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE prices SET last_synced_at").
			WithArgs(id, syncedAt).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		err := repo.StampSynced(ctx, id, syncedAt)
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when the product is gone", func(t *testing.T) {
		id := uuid.New()
		syncedAt := time.Now()

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE products SET last_synced_at").
			WithArgs(id, syncedAt).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.StampSynced(ctx, id, syncedAt)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

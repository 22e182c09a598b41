package model_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nortide/catalog-sync/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestProduct_IsOutOfSync(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	synced := base.Add(time.Hour)
	afterSync := synced.Add(time.Minute)

	tests := []struct {
		name    string
		product model.Product
		want    bool
	}{
		{
			name:    "never synced",
			product: model.Product{UpdatedAt: base},
			want:    true,
		},
		{
			name:    "product modified after sync",
			product: model.Product{UpdatedAt: afterSync, LastSyncedAt: &synced},
			want:    true,
		},
		{
			name: "price never synced",
			product: model.Product{
				UpdatedAt:    base,
				LastSyncedAt: &synced,
				Prices: []*model.Price{
					{UpdatedAt: base},
				},
			},
			want: true,
		},
		{
			name: "price modified after its sync",
			product: model.Product{
				UpdatedAt:    base,
				LastSyncedAt: &synced,
				Prices: []*model.Price{
					{UpdatedAt: base, LastSyncedAt: &synced},
					{UpdatedAt: afterSync, LastSyncedAt: &synced},
				},
			},
			want: true,
		},
		{
			name: "fully synced",
			product: model.Product{
				UpdatedAt:    base,
				LastSyncedAt: &synced,
				Prices: []*model.Price{
					{UpdatedAt: base, LastSyncedAt: &synced},
				},
			},
			want: false,
		},
		{
			name: "fully synced with no prices loaded",
			product: model.Product{
				UpdatedAt:    base,
				LastSyncedAt: &synced,
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.product.IsOutOfSync())
		})
	}
}

func TestProduct_InitMeta(t *testing.T) {
	product := &model.Product{Name: "Starter"}
	product.InitMeta()

	assert.NotEqual(t, uuid.Nil, product.ID)
	assert.False(t, product.CreatedAt.IsZero())
	assert.Equal(t, product.CreatedAt, product.UpdatedAt)
}

func TestPrice_SharedPriceID(t *testing.T) {
	price := &model.Price{}
	price.InitMeta()

	assert.Equal(t, price.ID.String(), price.SharedPriceID())
	assert.Equal(t, int64(1), price.RecurringIntervalCount, "interval count defaults to 1")
}

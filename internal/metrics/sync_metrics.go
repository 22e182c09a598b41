package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProductsSynced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_products_synced_total",
		Help: "The total number of products successfully synced to the billing provider",
	})

	ProductSyncFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_product_sync_failures_total",
		Help: "The total number of product sync attempts that ended in failure",
	})

	PricesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_prices_created_total",
		Help: "The total number of remote prices created",
	})

	PricesReplaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_prices_replaced_total",
		Help: "The total number of remote prices archived and recreated after a pricing change",
	})

	PriceSoftUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_price_soft_updates_total",
		Help: "The total number of remote prices patched in place",
	})

	SyncJobsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_sync_jobs_enqueued_total",
		Help: "The total number of sync jobs added to the queue",
	})
)

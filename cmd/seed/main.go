package main

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	"github.com/nortide/catalog-sync/internal/config"
	"github.com/nortide/catalog-sync/internal/logger"
	"github.com/nortide/catalog-sync/internal/model"
	"github.com/nortide/catalog-sync/internal/repository"
	"github.com/nortide/catalog-sync/internal/repository/sql"
	"github.com/nortide/catalog-sync/internal/service"
)

type seedPlan struct {
	product  *model.Product
	prices   []*model.Price
	features map[string]model.ProductFeatureConfig
}

func main() {
	logger.InitJSONLogger()

	conf, err := config.LoadFromEnv()
	handleErr("loading config", err)

	ctx := context.Background()
	db, err := sql.StartDB(ctx, conf.Database)
	handleErr("starting database", err)

	productRepository := sql.NewProductRepository(db)
	priceRepository := sql.NewPriceRepository(db)
	featureRepository := sql.NewFeatureRepository(db)
	jobRepository := sql.NewJobRepository(db)
	catalogService := service.NewCatalogService(productRepository, priceRepository, jobRepository, false)

	featureIDs := seedFeatures(ctx, featureRepository)

	for _, plan := range seedPlans() {
		created, err := productRepository.Create(ctx, plan.product)
		handleErr("creating product "+plan.product.Name, err)

		for _, price := range plan.prices {
			price.ProductID = created.ID
			_, err := priceRepository.Create(ctx, price)
			handleErr("creating price for "+plan.product.Name, err)
		}

		for key, featureConf := range plan.features {
			featureConf.ProductID = created.ID
			featureConf.FeatureID = featureIDs[key]
			err := featureRepository.SetConfig(ctx, &featureConf)
			handleErr("configuring feature "+key+" for "+plan.product.Name, err)
		}

		// With auto sync on, push the seeded catalog right away. Failures are
		// logged, never abort the batch.
		if conf.Sync.AutoSync {
			if _, err := catalogService.EnqueueSync(ctx, created.ID); err != nil {
				log.Printf("Could not enqueue sync for %s: %v", plan.product.Name, err)
			}
		}

		log.Printf("Seeded product %s (%s) with %d prices", plan.product.Name, created.ID, len(plan.prices))
	}

	log.Println("Seeding done")
}

func seedFeatures(ctx context.Context, repo *sql.FeatureRepository) map[string]uuid.UUID {
	definitions := []*model.ProductFeature{
		{Key: "api-access", Name: "API access", Description: "Programmatic access to the platform API", Type: model.FeatureTypeBoolean},
		{Key: "priority-support", Name: "Priority support", Description: "Support tickets answered within one business day", Type: model.FeatureTypeBoolean},
		{Key: "seats", Name: "Seats", Description: "Team members that can be invited", Type: model.FeatureTypeResource},
		{Key: "projects", Name: "Projects", Description: "Active projects in the workspace", Type: model.FeatureTypeResource},
	}

	ids := make(map[string]uuid.UUID, len(definitions))
	for _, def := range definitions {
		created, err := repo.CreateFeature(ctx, def)
		var uniqueErr *repository.UniqueConstraintError
		if errors.As(err, &uniqueErr) {
			// Seeding is re-runnable: on a key conflict reuse the existing definition.
			existing, lookupErr := repo.FeatureByKey(ctx, def.Key)
			handleErr("loading existing feature "+def.Key, lookupErr)
			ids[def.Key] = existing.ID
			continue
		}
		handleErr("creating feature "+def.Key, err)
		ids[def.Key] = created.ID
	}
	return ids
}

func seedPlans() []seedPlan {
	return []seedPlan{
		{
			product: &model.Product{
				Name:         "Starter",
				Description:  "For individuals getting started",
				Active:       true,
				LookupKey:    "starter",
				DisplayOrder: 1,
				Metadata:     map[string]string{"tier": "starter"},
			},
			prices: []*model.Price{
				{
					Active:            true,
					Currency:          "usd",
					UnitAmount:        900,
					Type:              model.PriceTypeRecurring,
					RecurringInterval: "month",
					PricingModel:      model.PricingModelFlatRecurring,
					BillingScheme:     model.BillingSchemePerUnit,
					Nickname:          "Starter monthly",
					LookupKey:         "starter-monthly",
					DisplayOrder:      1,
				},
				{
					Active:            true,
					Currency:          "usd",
					UnitAmount:        9000,
					Type:              model.PriceTypeRecurring,
					RecurringInterval: "year",
					PricingModel:      model.PricingModelFlatRecurring,
					BillingScheme:     model.BillingSchemePerUnit,
					Nickname:          "Starter yearly",
					LookupKey:         "starter-yearly",
					DisplayOrder:      2,
				},
			},
			features: map[string]model.ProductFeatureConfig{
				"api-access": {Enabled: false},
				"seats":      {Enabled: true, IncludedQuantity: 1},
				"projects":   {Enabled: true, IncludedQuantity: 3},
			},
		},
		{
			product: &model.Product{
				Name:         "Pro",
				Description:  "For growing teams",
				Active:       true,
				LookupKey:    "pro",
				DisplayOrder: 2,
				Metadata:     map[string]string{"tier": "pro"},
			},
			prices: []*model.Price{
				{
					Active:                   true,
					Currency:                 "usd",
					UnitAmount:               2900,
					Type:                     model.PriceTypeRecurring,
					RecurringInterval:        "month",
					RecurringTrialPeriodDays: 14,
					PricingModel:             model.PricingModelPerSeatRecurring,
					BillingScheme:            model.BillingSchemePerUnit,
					Nickname:                 "Pro monthly per seat",
					LookupKey:                "pro-monthly",
					DisplayOrder:             1,
				},
				{
					Active:                   true,
					Currency:                 "usd",
					UnitAmount:               29000,
					Type:                     model.PriceTypeRecurring,
					RecurringInterval:        "year",
					RecurringTrialPeriodDays: 14,
					PricingModel:             model.PricingModelPerSeatRecurring,
					BillingScheme:            model.BillingSchemePerUnit,
					Nickname:                 "Pro yearly per seat",
					LookupKey:                "pro-yearly",
					DisplayOrder:             2,
				},
			},
			features: map[string]model.ProductFeatureConfig{
				"api-access": {Enabled: true},
				"seats":      {Enabled: true, IncludedQuantity: 10, OverageLimit: 25},
				"projects":   {Enabled: true, IncludedQuantity: 25},
			},
		},
		{
			product: &model.Product{
				Name:         "Enterprise",
				Description:  "For large organizations with tiered usage pricing",
				Active:       true,
				LookupKey:    "enterprise",
				DisplayOrder: 3,
				Metadata:     map[string]string{"tier": "enterprise"},
			},
			prices: []*model.Price{
				{
					Active:            true,
					Currency:          "usd",
					Type:              model.PriceTypeRecurring,
					RecurringInterval: "month",
					PricingModel:      model.PricingModelTieredRecurring,
					BillingScheme:     model.BillingSchemeTiered,
					TiersMode:         "graduated",
					Tiers: []model.PriceTier{
						{UpTo: 25, UnitAmount: 1900},
						{UpTo: 100, UnitAmount: 1500},
						{UpToInf: true, UnitAmount: 1200},
					},
					Nickname:     "Enterprise monthly tiered",
					LookupKey:    "enterprise-monthly",
					DisplayOrder: 1,
				},
			},
			features: map[string]model.ProductFeatureConfig{
				"api-access":       {Enabled: true},
				"priority-support": {Enabled: true},
				"seats":            {Enabled: true, IncludedQuantity: 100, OverageLimit: 500},
				"projects":         {Enabled: true},
			},
		},
	}
}

func handleErr(msg string, err error) {
	if err != nil {
		log.Fatalf("error while %s: %v", msg, err)
	}
}

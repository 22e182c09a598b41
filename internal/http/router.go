package http

import (
	"github.com/gin-gonic/gin"

	"github.com/nortide/catalog-sync/internal/http/controller"
	"github.com/nortide/catalog-sync/internal/http/middleware"
)

func InitRouter(server *gin.Engine, ctr *controller.Controller, productCtr *controller.ProductController, priceCtr *controller.PriceController, featureCtr *controller.FeatureController) *gin.Engine {
	// Apply recovery middleware globally to prevent panics from crashing the server
	server.Use(middleware.Recovery())

	server.GET("/ping", ctr.Ping)

	// Product endpoints
	products := server.Group("/products")
	{
		products.POST("", productCtr.CreateProduct)
		products.GET("", productCtr.ListProducts)
		products.GET("/:id", productCtr.GetProduct)
		products.PUT("/:id", productCtr.UpdateProduct)
		products.DELETE("/:id", productCtr.DeleteProduct)

		products.POST("/:id/prices", priceCtr.CreatePrice)
		products.POST("/:id/sync", productCtr.SyncProduct)
		products.POST("/sync", productCtr.SyncAllProducts)

		products.GET("/:id/features", featureCtr.ListProductFeatures)
		products.PUT("/:id/features/:key", featureCtr.SetProductFeature)
	}

	// Price endpoints
	prices := server.Group("/prices")
	{
		prices.GET("/:id", priceCtr.GetPrice)
		prices.PUT("/:id", priceCtr.UpdatePrice)
		prices.DELETE("/:id", priceCtr.DeletePrice)
	}

	// Feature definition endpoints
	features := server.Group("/features")
	{
		features.POST("", featureCtr.CreateFeature)
		features.GET("", featureCtr.ListFeatures)
	}

	return server
}

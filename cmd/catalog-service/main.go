package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/gin-gonic/gin"

	"github.com/nortide/catalog-sync/internal/config"
	"github.com/nortide/catalog-sync/internal/gateway/stripegw"
	httpAPI "github.com/nortide/catalog-sync/internal/http"
	"github.com/nortide/catalog-sync/internal/http/controller"
	"github.com/nortide/catalog-sync/internal/logger"
	"github.com/nortide/catalog-sync/internal/metrics"
	"github.com/nortide/catalog-sync/internal/repository/sql"
	"github.com/nortide/catalog-sync/internal/service"
	sqspkg "github.com/nortide/catalog-sync/internal/sqs"
	"github.com/nortide/catalog-sync/internal/sync"
)

func main() {
	logger.InitJSONLogger()

	conf, err := config.LoadFromEnv()
	handleErr("loading config", err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := sql.StartDB(ctx, conf.Database)
	handleErr("starting database", err)

	// Create repositories
	productRepository := sql.NewProductRepository(db)
	priceRepository := sql.NewPriceRepository(db)
	jobRepository := sql.NewJobRepository(db)
	featureRepository := sql.NewFeatureRepository(db)

	// Initialize AWS SQS client for sync notifications
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(conf.AWS.Region),
	)
	handleErr("loading AWS config", err)

	// Override endpoint for LocalStack if specified
	if conf.AWS.Endpoint != "" {
		awsCfg.BaseEndpoint = aws.String(conf.AWS.Endpoint)
	}

	sqsClient := awssqs.NewFromConfig(awsCfg)
	sqsPublisher := sqspkg.NewPublisher(sqsClient, conf.AWS.SQSQueueURL)

	// Billing gateway and reconciliation engine
	gw := stripegw.New(conf.Stripe.SecretKey)
	engine := sync.NewEngine(gw, productRepository, priceRepository)

	catalogService := service.NewCatalogService(productRepository, priceRepository, jobRepository, conf.Sync.AutoSync)
	featureService := service.NewFeatureService(featureRepository, productRepository)

	// Start the sync worker to process queued sync jobs
	syncWorker := service.NewSyncWorker(jobRepository, productRepository, engine, sqsPublisher, conf.Sync.WorkerInterval)
	go syncWorker.Start(ctx)

	// Start HTTP server
	ctr := controller.New()
	productCtr := controller.NewProductController(catalogService)
	priceCtr := controller.NewPriceController(catalogService)
	featureCtr := controller.NewFeatureController(featureService)
	httpServer := gin.Default()
	httpServer = httpAPI.InitRouter(httpServer, ctr, productCtr, priceCtr, featureCtr)

	go func() {
		err = httpServer.Run(":" + conf.HTTPServer.Port)
		if err != nil {
			handleErr("listening to HTTP requests", err)
		}
	}()

	// Start metrics server
	metrics.StartMetricsServer(conf)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Println("Shutting down gracefully...")
	syncWorker.Stop()
}

func handleErr(msg string, err error) {
	if err != nil {
		log.Fatalf("error while %s: %v", msg, err)
	}
}

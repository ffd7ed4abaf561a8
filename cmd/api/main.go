package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-table-orderflow/internal/aws"
	"github.com/imrishuroy/go-table-orderflow/internal/cart"
	"github.com/imrishuroy/go-table-orderflow/internal/clock"
	"github.com/imrishuroy/go-table-orderflow/internal/config"
	"github.com/imrishuroy/go-table-orderflow/internal/handlers"
	"github.com/imrishuroy/go-table-orderflow/internal/menu"
	"github.com/imrishuroy/go-table-orderflow/internal/metrics"
	"github.com/imrishuroy/go-table-orderflow/internal/orders"
	"github.com/imrishuroy/go-table-orderflow/internal/payment"
	"github.com/imrishuroy/go-table-orderflow/internal/pricing"
	"github.com/imrishuroy/go-table-orderflow/internal/session"
	"github.com/imrishuroy/go-table-orderflow/internal/storage"
	"github.com/imrishuroy/go-table-orderflow/internal/tracking"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.PrometheusMiddleware())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterRoutes(r, cfg)

	return r
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := newLogger(cfg.RunLocal)
	defer logger.Sync()
	ctx := context.Background()

	var clients *aws.AWSClients
	if cfg.StorageTable != "" || cfg.QueueURL != "" || cfg.MetricsNamespace != "" {
		clients, err = aws.NewAWSClients(ctx, cfg.AWSRegion, cfg.EndpointOverride)
		if err != nil {
			logger.Fatal("failed to init aws clients", zap.Error(err))
		}
	}

	var store storage.Storage
	if cfg.StorageTable == "" {
		logger.Warn("STORAGE_TABLE not set; state is kept in memory")
		store = storage.NewMemory()
	} else {
		store = storage.NewDegrading(storage.NewDynamo(clients.DynamoDB, cfg.StorageTable, cfg.SessionID), logger)
	}

	notifiers := append([]orders.Notifier{metrics.OrderEvents{}}, clients.Notifiers(cfg.QueueURL, cfg.MetricsNamespace)...)

	schedule, err := pricing.ScheduleByName(cfg.FeeSchedule)
	if err != nil {
		logger.Fatal("invalid fee schedule", zap.Error(err))
	}

	sched := clock.NewReal()
	manager := orders.NewManager(store, sched, logger, orders.Options{
		PreparingDelay:   cfg.PreparingDelay,
		AutoDeliverAfter: cfg.AutoDeliverAfter,
		Notifiers:        notifiers,
	})
	defer manager.Close()

	cartStore, err := cart.NewStore(ctx, store, logger)
	if err != nil {
		logger.Fatal("failed to load cart", zap.Error(err))
	}

	// an order placed before a restart picks up its remaining timers
	if current, err := manager.Current(ctx); err == nil {
		if err := manager.Resume(ctx, current.OrderID); err != nil {
			logger.Warn("failed to resume current order", zap.String("order_id", current.OrderID), zap.Error(err))
		}
	} else if !errors.Is(err, orders.ErrNoCurrentOrder) {
		logger.Warn("failed to load current order", zap.Error(err))
	}

	registry := tracking.NewRegistry(manager, sched, logger)
	defer registry.CloseAll()

	payments := payment.NewSimulator(manager, cartStore, sched, logger, payment.Options{
		Schedule:     schedule,
		Merchant:     payment.Merchant{VPA: cfg.MerchantVPA, Name: cfg.MerchantName},
		Ticks:        cfg.PaymentTicks,
		TickInterval: cfg.PaymentTick,
		Recorder:     metrics.Payments{},
	})
	defer payments.Close()

	sess := session.New(cfg.SessionID, store, manager, sched, cfg.JWTSecret, logger)

	r := setupRouter(handlers.HandlerConfig{
		Catalog:  menu.DefaultCatalog(),
		Cart:     cartStore,
		Orders:   manager,
		Tracking: registry,
		Payments: payments,
		Session:  sess,
		Schedule: schedule,
		Logger:   logger,
	})

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if cfg.RunLocal {
		logger.Info("running local server", zap.String("addr", cfg.Port))
		if err := r.Run(cfg.Port); err != nil {
			logger.Fatal("failed to run local server", zap.Error(err))
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}

func newLogger(local bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if local {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return logger
}

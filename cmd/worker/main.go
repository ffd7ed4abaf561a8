package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-table-orderflow/internal/aws"
	"github.com/imrishuroy/go-table-orderflow/internal/config"
	"github.com/imrishuroy/go-table-orderflow/internal/storage"
)

func main() {
	cfg, err := config.LoadWorker()
	if err != nil {
		panic(err)
	}
	logger := newLogger(cfg.RunLocal)
	defer logger.Sync()

	var store storage.Storage
	if cfg.StorageTable == "" {
		logger.Warn("STORAGE_TABLE not set; projecting history in memory")
		store = storage.NewMemory()
	} else {
		clients, err := aws.NewAWSClients(context.Background(), cfg.AWSRegion, cfg.EndpointOverride)
		if err != nil {
			logger.Fatal("failed to init aws clients", zap.Error(err))
		}
		store = storage.NewDynamo(clients.DynamoDB, cfg.StorageTable, cfg.HistorySessionID)
	}
	p := NewProcessor(store, logger)

	// If RUN_LOCAL=true, simulate a single SQS event for local testing.
	if cfg.RunLocal {
		testBody := os.Getenv("LOCAL_SQS_BODY")
		if testBody == "" {
			testBody = `{"order_id":"ORD-LOCAL","status":"confirmed","history_status":"confirmed","order":{"orderId":"ORD-LOCAL","items":[{"id":"5","name":"Masala Dosa","price":120,"quantity":1}],"tableNumber":"1","status":"confirmed","estimatedTime":17}}`
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{
				{MessageId: "local-1", Body: testBody},
			},
		}
		resp, _ := p.Handle(context.Background(), event)
		if len(resp.BatchItemFailures) > 0 {
			logger.Fatal("local handler error", zap.Int("failures", len(resp.BatchItemFailures)))
		}
		return
	}

	lambda.Start(p.Handle)
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

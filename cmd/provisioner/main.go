package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awslambda "github.com/aws/aws-sdk-go-v2/service/lambda"
	lexmodels "github.com/aws/aws-sdk-go-v2/service/lexmodelbuildingservice"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/jrzesz33/lex_provisioner/internal/handler"
	"github.com/jrzesz33/lex_provisioner/internal/httpclient"
	"github.com/jrzesz33/lex_provisioner/internal/logging"
	"github.com/jrzesz33/lex_provisioner/internal/messaging"
	"github.com/jrzesz33/lex_provisioner/internal/repository"
	appconfig "github.com/jrzesz33/lex_provisioner/pkg/config"
)

func main() {
	// Setup structured logging
	logger := logging.NewLogger(os.Stdout, logging.GetLogLevel())
	slog.SetDefault(logger)

	h, err := newHandler(logger)
	if err != nil {
		// Report every event as FAILED instead of leaving the stack waiting
		logger.Error("provisioner initialization failed", slog.String("error", err.Error()))
		lambda.Start(handler.NewInitFailureHandler(err, httpclient.NewClient(logger), logger))
		return
	}

	lambda.Start(h.HandleEvent)
}

func newHandler(logger *slog.Logger) (*handler.Handler, error) {
	cfg, err := appconfig.Load()
	if err != nil {
		return nil, err
	}

	logger.Info("provisioner lambda starting",
		slog.String("stage", cfg.Stage.String()),
		slog.String("region", cfg.AWSRegion),
		slog.Bool("ledger_enabled", cfg.LedgerEnabled()),
		slog.Bool("notifications_enabled", cfg.NotificationsEnabled()),
	)

	// Initialize AWS SDK
	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	sender := httpclient.NewClient(logger, httpclient.WithTimeout(cfg.ResponseTimeout))

	var opts []handler.Option
	if cfg.LedgerEnabled() {
		repo := repository.NewDynamoDBRepository(dynamodb.NewFromConfig(awsCfg), cfg.ProvisioningTableName)
		opts = append(opts, handler.WithLedger(repo))
	}
	if cfg.NotificationsEnabled() {
		publisher := messaging.NewSNSPublisher(sns.NewFromConfig(awsCfg), cfg.ProvisioningTopicArn, logger)
		opts = append(opts, handler.WithPublisher(publisher))
	}

	return handler.NewHandler(cfg,
		lexmodels.NewFromConfig(awsCfg),
		awslambda.NewFromConfig(awsCfg),
		sender,
		logger,
		opts...,
	), nil
}

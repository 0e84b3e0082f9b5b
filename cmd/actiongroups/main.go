package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.uber.org/zap"

	"bank-chatbot/handler"
	"bank-chatbot/internal/actions"
	"bank-chatbot/internal/certificates"
	"bank-chatbot/internal/integrations/objectstore"
	"bank-chatbot/internal/integrations/paramstore"
	"bank-chatbot/internal/integrations/whatsapp"
	"bank-chatbot/internal/repository"
)

func main() {
	ctx := context.Background()

	logger, err := zap.NewProduction()
	if err != nil {
		slog.Error("failed to create logger", "err", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// ---- Configuration (read only here) ----
	tableName := mustEnv("TABLE_NAME")
	bucketName := mustEnv("BUCKET_NAME")
	paramPrefix := mustEnv("PARAM_PREFIX")
	qrWebsite := mustEnv("QR_WEBSITE")
	location := mustEnv("LOCATION")

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}
	store, err := repository.New(awsdynamodb.NewFromConfig(cfg), tableName)
	if err != nil {
		slog.Error("failed to create record store client", "err", err)
		os.Exit(1)
	}
	s3Client := awss3.NewFromConfig(cfg)
	uploader, err := objectstore.New(s3Client, awss3.NewPresignClient(s3Client), bucketName)
	if err != nil {
		slog.Error("failed to create object store client", "err", err)
		os.Exit(1)
	}
	messenger, err := whatsapp.NewClient(ssmClient, paramPrefix)
	if err != nil {
		slog.Error("failed to create WhatsApp client", "err", err)
		os.Exit(1)
	}
	generator, err := certificates.New(location, qrWebsite)
	if err != nil {
		slog.Error("failed to create certificate generator", "err", err)
		os.Exit(1)
	}

	// ---- Dispatch table ----
	dispatcher := actions.NewDispatcher(logger)
	registrations := map[string]actions.HandlerFunc{
		actions.ActionFetchUserProducts:    actions.FetchUserProducts(store),
		actions.ActionGetBankRewards:       actions.GetBankRewards(store),
		actions.ActionFetchMarketInsights:  actions.FetchMarketInsights(store),
		actions.ActionGenerateCertificates: actions.GenerateCertificates(store, generator, uploader, messenger),
	}
	for name, h := range registrations {
		if err := dispatcher.Register(name, h); err != nil {
			slog.Error("failed to register action handler", "action", name, "err", err)
			os.Exit(1)
		}
	}

	h, err := handler.NewActionGroupHandler(dispatcher, logger)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

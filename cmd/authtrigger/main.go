package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.uber.org/zap"

	"bank-chatbot/handler"
	"bank-chatbot/internal/integrations/paramstore"
	"bank-chatbot/internal/integrations/whatsapp"
	"bank-chatbot/internal/usecase"
)

func main() {
	ctx := context.Background()

	logger, err := zap.NewProduction()
	if err != nil {
		slog.Error("failed to create logger", "err", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	paramPrefix := mustEnv("PARAM_PREFIX")

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}
	messenger, err := whatsapp.NewClient(ssmClient, paramPrefix)
	if err != nil {
		slog.Error("failed to create WhatsApp client", "err", err)
		os.Exit(1)
	}

	resume, err := usecase.NewAuthResume(messenger, logger)
	if err != nil {
		slog.Error("failed to create auth resume", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewAuthTriggerHandler(resume, logger)
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

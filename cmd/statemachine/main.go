package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsbedrockagent "github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.uber.org/zap"

	"bank-chatbot/handler"
	"bank-chatbot/internal/integrations/bedrockagent"
	"bank-chatbot/internal/integrations/paramstore"
	"bank-chatbot/internal/integrations/whatsapp"
	"bank-chatbot/internal/repository"
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

	// ---- Configuration (read only here) ----
	authTable := mustEnv("TABLE_NAME_AUTH_SESSIONS")
	paramPrefix := mustEnv("PARAM_PREFIX")
	authEnabled := envBool("AUTH_ENABLED", false)

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
	sessionClient, err := repository.New(awsdynamodb.NewFromConfig(cfg), authTable)
	if err != nil {
		slog.Error("failed to create session store client", "err", err)
		os.Exit(1)
	}
	messenger, err := whatsapp.NewClient(ssmClient, paramPrefix)
	if err != nil {
		slog.Error("failed to create WhatsApp client", "err", err)
		os.Exit(1)
	}

	agentIDs, err := paramstore.LoadAgentIdentifiers(ctx, ssmClient, paramPrefix)
	if err != nil {
		slog.Error("failed to load agent identifiers", "err", err)
		os.Exit(1)
	}
	agent, err := bedrockagent.New(awsbedrockagent.NewFromConfig(cfg), agentIDs.AgentID, agentIDs.AliasID, logger)
	if err != nil {
		slog.Error("failed to create agent invoker", "err", err)
		os.Exit(1)
	}

	// ---- Pipeline ----
	validator, err := usecase.NewValidator(sessionClient, messenger, authEnabled, logger)
	if err != nil {
		slog.Error("failed to create validator", "err", err)
		os.Exit(1)
	}
	processor, err := usecase.NewProcessor(agent, logger)
	if err != nil {
		slog.Error("failed to create processor", "err", err)
		os.Exit(1)
	}
	router, err := usecase.NewRouter(validator, processor, messenger, logger)
	if err != nil {
		slog.Error("failed to create router", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewStateMachineHandler(router, logger)
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

func envBool(key string, def bool) bool {
	switch os.Getenv(key) {
	case "true", "1":
		return true
	case "false", "0":
		return false
	default:
		return def
	}
}

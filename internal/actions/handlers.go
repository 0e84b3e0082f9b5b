package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"bank-chatbot/internal/domain"
)

// Action group names as registered with the Bedrock agent.
const (
	ActionFetchUserProducts    = "FetchUserProducts"
	ActionGetBankRewards       = "GetBankRewards"
	ActionFetchMarketInsights  = "FetchMarketInsights"
	ActionGenerateCertificates = "GenerateCertificates"
)

// ProductReader reads a user's product records.
type ProductReader interface {
	GetUserProducts(ctx context.Context, userID string) ([]domain.Record, error)
}

// RewardReader reads a user's reward records.
type RewardReader interface {
	GetUserRewards(ctx context.Context, userID string) ([]domain.Record, error)
}

// AdviceReader reads market advice for a risk profile.
type AdviceReader interface {
	GetMarketAdvice(ctx context.Context, risk domain.RiskProfile) ([]domain.Record, error)
}

// CertificateGenerator renders a product certificate PDF.
type CertificateGenerator interface {
	Generate(products []domain.Record) ([]byte, error)
}

// Uploader stores a generated PDF and returns a downloadable URL.
type Uploader interface {
	UploadPDF(ctx context.Context, key string, pdf []byte) (string, error)
}

// DocumentSender delivers a document link to a user.
type DocumentSender interface {
	SendDocument(ctx context.Context, to, documentURL string) error
}

// newCertificateID names the object key for one generated certificate.
var newCertificateID = func() string {
	return uuid.NewString()
}

// FetchUserProducts returns a handler that lists a user's bank products.
func FetchUserProducts(store ProductReader) HandlerFunc {
	return func(ctx context.Context, params []Parameter) (string, error) {
		userID := paramValue(params, "user_id")
		if userID == "" {
			return "", errors.New("missing parameter user_id")
		}
		products, err := store.GetUserProducts(ctx, userID)
		if err != nil {
			return "", err
		}
		return formatRecords(products)
	}
}

// GetBankRewards returns a handler that lists a user's rewards. The agent
// identifies the user by phone number on this path.
func GetBankRewards(store RewardReader) HandlerFunc {
	return func(ctx context.Context, params []Parameter) (string, error) {
		fromNumber := paramValue(params, "from_number")
		if fromNumber == "" {
			return "", errors.New("missing parameter from_number")
		}
		rewards, err := store.GetUserRewards(ctx, fromNumber)
		if err != nil {
			return "", err
		}
		return formatRecords(rewards)
	}
}

// FetchMarketInsights returns a handler that fetches the latest market
// advice for a risk profile. Unknown or missing profiles fall back to
// MODERATE rather than failing the agent mid-completion.
func FetchMarketInsights(store AdviceReader) HandlerFunc {
	return func(ctx context.Context, params []Parameter) (string, error) {
		risk := parseRiskProfile(paramValue(params, "risk_level"))
		advice, err := store.GetMarketAdvice(ctx, risk)
		if err != nil {
			return "", err
		}
		return formatRecords(advice)
	}
}

// GenerateCertificates returns a handler that renders a certificate for the
// user's products, uploads it, and sends the short-lived link as a WhatsApp
// document.
func GenerateCertificates(store ProductReader, generator CertificateGenerator, uploader Uploader, sender DocumentSender) HandlerFunc {
	return func(ctx context.Context, params []Parameter) (string, error) {
		fromNumber := paramValue(params, "from_number")
		if fromNumber == "" {
			return "", errors.New("missing parameter from_number")
		}

		products, err := store.GetUserProducts(ctx, fromNumber)
		if err != nil {
			return "", err
		}
		pdf, err := generator.Generate(products)
		if err != nil {
			return "", err
		}

		key := fmt.Sprintf("certificates/%s/rufus_certificate.pdf", newCertificateID())
		url, err := uploader.UploadPDF(ctx, key, pdf)
		if err != nil {
			return "", err
		}
		if err := sender.SendDocument(ctx, fromNumber, url); err != nil {
			return "", err
		}
		return "Certificate generated successfully for Rufus client!", nil
	}
}

func parseRiskProfile(raw string) domain.RiskProfile {
	switch domain.RiskProfile(raw) {
	case domain.RiskConservative, domain.RiskModerate, domain.RiskRisky:
		return domain.RiskProfile(raw)
	default:
		return domain.RiskModerate
	}
}

// formatRecords renders store records as JSON text. The reasoning system
// rephrases this payload in natural language, so structure beats prose here.
func formatRecords(records []domain.Record) (string, error) {
	out := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		item := map[string]string{"PK": rec.PK, "SK": rec.SK}
		for k, v := range rec.Attributes {
			item[k] = v
		}
		out = append(out, item)
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("format records: %w", err)
	}
	return string(raw), nil
}

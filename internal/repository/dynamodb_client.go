package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"bank-chatbot/internal/domain"
)

const (
	skAuth          = "AUTH"
	skPrefixProduct = "PRODUCT#"
	skPrefixRewards = "REWARDS#"
	skPrefixAdvice  = "ADVICE#LATEST#"
	pkPrefixUser    = "USER#"
	pkPrefixMarket  = "MARKET#"
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Reader defines the single-table read operations consumed by the
// validator and the action-group handlers.
type Reader interface {
	GetAuthSession(ctx context.Context, userID string) (*domain.AuthSession, error)
	GetUserProducts(ctx context.Context, userID string) ([]domain.Record, error)
	GetUserRewards(ctx context.Context, userID string) ([]domain.Record, error)
	GetMarketAdvice(ctx context.Context, risk domain.RiskProfile) ([]domain.Record, error)
}

// Client wraps the DynamoDB single-table design holding sessions, products,
// rewards and market advice.
type Client struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

// UserPK returns the partition key for a user.
func UserPK(userID string) string {
	return pkPrefixUser + userID
}

// MarketPK returns the partition key for a market risk profile.
func MarketPK(risk domain.RiskProfile) string {
	return pkPrefixMarket + string(risk)
}

// GetAuthSession performs a point lookup of the active auth session for a
// user. A nil result with nil error means no session exists; expired
// sessions are removed by the table's TTL and read the same way.
func (c *Client) GetAuthSession(ctx context.Context, userID string) (*domain.AuthSession, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: UserPK(userID)},
			"SK": &types.AttributeValueMemberS{Value: skAuth},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("repository: GetAuthSession get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return nil, nil
	}

	session := &domain.AuthSession{Active: true}
	if session.PK, err = strAttr(out.Item, "PK"); err != nil {
		return nil, fmt.Errorf("repository: GetAuthSession: %w", err)
	}
	if session.SK, err = strAttr(out.Item, "SK"); err != nil {
		return nil, fmt.Errorf("repository: GetAuthSession: %w", err)
	}
	if ttl, ttlErr := numAttr(out.Item, "ttl"); ttlErr == nil {
		session.TTL = ttl
	}
	return session, nil
}

// GetUserProducts queries all PRODUCT# items for a user.
func (c *Client) GetUserProducts(ctx context.Context, userID string) ([]domain.Record, error) {
	return c.queryByPrefix(ctx, UserPK(userID), skPrefixProduct)
}

// GetUserRewards queries all REWARDS# items for a user.
func (c *Client) GetUserRewards(ctx context.Context, userID string) ([]domain.Record, error) {
	return c.queryByPrefix(ctx, UserPK(userID), skPrefixRewards)
}

// GetMarketAdvice queries the latest advice items for a risk profile.
func (c *Client) GetMarketAdvice(ctx context.Context, risk domain.RiskProfile) ([]domain.Record, error) {
	return c.queryByPrefix(ctx, MarketPK(risk), skPrefixAdvice)
}

// queryByPrefix runs a begins_with query on the sort key within one
// partition and decodes every item into a generic Record.
func (c *Client) queryByPrefix(ctx context.Context, pk, skPrefix string) ([]domain.Record, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: pk},
			":prefix": &types.AttributeValueMemberS{Value: skPrefix},
		},
	}

	out, err := c.api.Query(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("repository: query %s %s: %w", pk, skPrefix, err)
	}

	records := make([]domain.Record, 0, len(out.Items))
	for _, item := range out.Items {
		rec, err := itemToRecord(item)
		if err != nil {
			return nil, fmt.Errorf("repository: query %s %s decode: %w", pk, skPrefix, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// itemToRecord converts a DynamoDB attribute map to a generic Record.
// Only S and N attributes are kept; the table stores nothing else.
func itemToRecord(item map[string]types.AttributeValue) (domain.Record, error) {
	pk, err := strAttr(item, "PK")
	if err != nil {
		return domain.Record{}, err
	}
	sk, err := strAttr(item, "SK")
	if err != nil {
		return domain.Record{}, err
	}

	attrs := make(map[string]string, len(item))
	for key, v := range item {
		if key == "PK" || key == "SK" {
			continue
		}
		switch av := v.(type) {
		case *types.AttributeValueMemberS:
			attrs[key] = av.Value
		case *types.AttributeValueMemberN:
			attrs[key] = av.Value
		}
	}
	return domain.Record{PK: pk, SK: sk, Attributes: attrs}, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("attribute %q is not a string", key)
	}
	return s.Value, nil
}

func numAttr(item map[string]types.AttributeValue, key string) (int64, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("attribute %q is not a number", key)
	}
	parsed, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse attribute %q: %w", key, err)
	}
	return parsed, nil
}

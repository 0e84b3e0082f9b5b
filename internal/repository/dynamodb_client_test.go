package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"bank-chatbot/internal/domain"
)

type fakeDynamo struct {
	getOut       *dynamodb.GetItemOutput
	getErr       error
	queryOut     *dynamodb.QueryOutput
	queryErr     error
	lastGetInput *dynamodb.GetItemInput
	lastQueryIn  *dynamodb.QueryInput
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.lastGetInput = in
	return f.getOut, f.getErr
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.lastQueryIn = in
	return f.queryOut, f.queryErr
}

func sessionItem(pk string, ttl string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":  &types.AttributeValueMemberS{Value: pk},
		"SK":  &types.AttributeValueMemberS{Value: skAuth},
		"ttl": &types.AttributeValueMemberN{Value: ttl},
	}
}

func productItem(pk, sk, name, balance string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":      &types.AttributeValueMemberS{Value: pk},
		"SK":      &types.AttributeValueMemberS{Value: sk},
		"name":    &types.AttributeValueMemberS{Value: name},
		"balance": &types.AttributeValueMemberN{Value: balance},
	}
}

func mustNewClient(t *testing.T, db *fakeDynamo) *Client {
	t.Helper()
	c, err := New(db, "test-table")
	require.NoError(t, err)
	return c
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, "test-table")
	require.Error(t, err)

	_, err = New(&fakeDynamo{}, "  ")
	require.Error(t, err)
}

func TestGetAuthSession_ActiveSession(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: sessionItem("USER#15551234567", "1900000000")}}
	c := mustNewClient(t, db)

	session, err := c.GetAuthSession(context.Background(), "15551234567")
	require.NoError(t, err)
	require.NotNil(t, session)
	require.True(t, session.Active)
	require.Equal(t, "USER#15551234567", session.PK)
	require.Equal(t, int64(1900000000), session.TTL)

	require.NotNil(t, db.lastGetInput)
	pk := db.lastGetInput.Key["PK"].(*types.AttributeValueMemberS)
	sk := db.lastGetInput.Key["SK"].(*types.AttributeValueMemberS)
	require.Equal(t, "USER#15551234567", pk.Value)
	require.Equal(t, skAuth, sk.Value)
}

func TestGetAuthSession_NoSession(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{}}
	c := mustNewClient(t, db)

	session, err := c.GetAuthSession(context.Background(), "15551234567")
	require.NoError(t, err)
	require.Nil(t, session)
}

func TestGetAuthSession_GetItemError(t *testing.T) {
	db := &fakeDynamo{getErr: errors.New("boom")}
	c := mustNewClient(t, db)

	_, err := c.GetAuthSession(context.Background(), "15551234567")
	require.Error(t, err)
	require.Contains(t, err.Error(), "GetAuthSession")
}

func TestGetUserProducts_HappyPath(t *testing.T) {
	db := &fakeDynamo{
		queryOut: &dynamodb.QueryOutput{
			Items: []map[string]types.AttributeValue{
				productItem("USER#100", "PRODUCT#1", "Savings Account", "1250"),
				productItem("USER#100", "PRODUCT#2", "Credit Card", "-300"),
			},
		},
	}
	c := mustNewClient(t, db)

	products, err := c.GetUserProducts(context.Background(), "100")
	require.NoError(t, err)
	require.Len(t, products, 2)
	require.Equal(t, "USER#100", products[0].PK)
	require.Equal(t, "Savings Account", products[0].Attributes["name"])
	require.Equal(t, "1250", products[0].Attributes["balance"])

	require.NotNil(t, db.lastQueryIn)
	prefix := db.lastQueryIn.ExpressionAttributeValues[":prefix"].(*types.AttributeValueMemberS)
	require.Equal(t, skPrefixProduct, prefix.Value)
}

func TestGetUserRewards_UsesRewardsPrefix(t *testing.T) {
	db := &fakeDynamo{queryOut: &dynamodb.QueryOutput{}}
	c := mustNewClient(t, db)

	rewards, err := c.GetUserRewards(context.Background(), "100")
	require.NoError(t, err)
	require.Empty(t, rewards)

	prefix := db.lastQueryIn.ExpressionAttributeValues[":prefix"].(*types.AttributeValueMemberS)
	require.Equal(t, skPrefixRewards, prefix.Value)
}

func TestGetMarketAdvice_UsesRiskPartition(t *testing.T) {
	db := &fakeDynamo{queryOut: &dynamodb.QueryOutput{}}
	c := mustNewClient(t, db)

	_, err := c.GetMarketAdvice(context.Background(), domain.RiskConservative)
	require.NoError(t, err)

	pk := db.lastQueryIn.ExpressionAttributeValues[":pk"].(*types.AttributeValueMemberS)
	prefix := db.lastQueryIn.ExpressionAttributeValues[":prefix"].(*types.AttributeValueMemberS)
	require.Equal(t, "MARKET#CONSERVATIVE", pk.Value)
	require.Equal(t, skPrefixAdvice, prefix.Value)
}

func TestQueryByPrefix_QueryError(t *testing.T) {
	db := &fakeDynamo{queryErr: errors.New("throttled")}
	c := mustNewClient(t, db)

	_, err := c.GetUserProducts(context.Background(), "100")
	require.Error(t, err)
	require.Contains(t, err.Error(), "repository: query")
}

func TestQueryByPrefix_MalformedItem(t *testing.T) {
	db := &fakeDynamo{
		queryOut: &dynamodb.QueryOutput{
			Items: []map[string]types.AttributeValue{
				{"PK": &types.AttributeValueMemberS{Value: "USER#100"}},
			},
		},
	}
	c := mustNewClient(t, db)

	_, err := c.GetUserProducts(context.Background(), "100")
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode")
}

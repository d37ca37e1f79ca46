package kvstore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoStore keeps the key space in a DynamoDB table with partition
// key "k". One item per storage key.
type DynamoStore struct {
	client    *dynamodb.Client
	tableName string
}

// dynamoItem represents the DynamoDB item structure
type dynamoItem struct {
	Key   string `dynamodbav:"k"`
	Value string `dynamodbav:"v"`
}

func NewDynamoStore(client *dynamodb.Client, tableName string) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
	}
}

// NewDynamoClient builds a DynamoDB client from the default AWS config
// chain (environment, shared config, instance role).
func NewDynamoClient(ctx context.Context) (*dynamodb.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg), nil
}

func (s *DynamoStore) Get(ctx context.Context, key string) (string, bool, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"k": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	if result.Item == nil {
		return "", false, nil
	}

	var item dynamoItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return "", false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return item.Value, true, nil
}

func (s *DynamoStore) Set(ctx context.Context, key, value string) error {
	av, err := attributevalue.MarshalMap(dynamoItem{Key: key, Value: value})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *DynamoStore) Remove(ctx context.Context, key string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"k": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

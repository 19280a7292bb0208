// Package dynamocache is the DynamoDB-backed alternate reportcache.Cache
// implementation, mirroring the teacher's attributevalue marshal/unmarshal
// pattern for a single-table {hash -> report} item store.
package dynamocache

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/gvasels/pcg-analyzer/internal/models"
)

// Client is the subset of the DynamoDB API the cache needs.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// item is the on-table shape: partition key Hash, attribute Report.
type item struct {
	Hash   string        `dynamodbav:"hash"`
	Report models.Report `dynamodbav:"report"`
}

// Cache stores {hash, report} items in a single DynamoDB table.
type Cache struct {
	client    Client
	tableName string
}

// New constructs a DynamoDB-backed Cache.
func New(client Client, tableName string) *Cache {
	return &Cache{client: client, tableName: tableName}
}

func (c *Cache) Get(ctx context.Context, hash string) (*models.Report, bool, error) {
	out, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"hash": &types.AttributeValueMemberS{Value: hash},
		},
	})
	if err != nil {
		return nil, false, fmt.Errorf("dynamocache get: %w", err)
	}
	if out.Item == nil {
		return nil, false, nil
	}

	var it item
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, false, errors.New("dynamocache: malformed cached item")
	}
	return &it.Report, true, nil
}

func (c *Cache) Put(ctx context.Context, hash string, report *models.Report) error {
	av, err := attributevalue.MarshalMap(item{Hash: hash, Report: *report})
	if err != nil {
		return fmt.Errorf("dynamocache marshal: %w", err)
	}

	_, err = c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("dynamocache put: %w", err)
	}
	return nil
}

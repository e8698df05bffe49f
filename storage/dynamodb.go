/*
# Module: storage/dynamodb.go
DynamoDB implementation of the profile cache with per-item expiry.

## Linked Modules
- [storage/repository](./repository.go) - ProfileCache interface
- [types/profile](../types/profile.go) - Cached profile data

## Tags
storage, dynamodb, aws, cache

## Exports
ProfileDynamoDBCache, NewProfileDynamoDBCache, DynamoDBAPI

<!-- LinkedDoc RDF -->
@prefix code: <https://schema.codedoc.org/> .
<this> a code:Module ;
    code:name "storage/dynamodb.go" ;
    code:description "DynamoDB implementation of the profile cache with per-item expiry" ;
    code:linksTo [
        code:name "storage/repository" ;
        code:path "./repository.go" ;
        code:relationship "ProfileCache interface"
    ], [
        code:name "types/profile" ;
        code:path "../types/profile.go" ;
        code:relationship "Cached profile data"
    ] ;
    code:exports :ProfileDynamoDBCache, :NewProfileDynamoDBCache, :DynamoDBAPI ;
    code:tags "storage", "dynamodb", "aws", "cache" .
<!-- End LinkedDoc RDF -->
*/
package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/0xmdrakib/BaseTree/types"
)

// DynamoDBAPI is the subset of *dynamodb.Client the cache uses
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// profileItem is the stored form of a profile. expires_at doubles as the table's TTL attribute.
type profileItem struct {
	types.Profile
	ExpiresAt int64 `dynamodbav:"expires_at"`
}

// ProfileDynamoDBCache implements ProfileCache using DynamoDB
type ProfileDynamoDBCache struct {
	client    DynamoDBAPI
	tableName string
	now       func() time.Time
}

// NewProfileDynamoDBCache creates a DynamoDB profile cache keyed by the numeric "fid" attribute
func NewProfileDynamoDBCache(client DynamoDBAPI, tableName string) *ProfileDynamoDBCache {
	return &ProfileDynamoDBCache{
		client:    client,
		tableName: tableName,
		now:       time.Now,
	}
}

// Get retrieves a cached profile. Items past expires_at are misses even
// before DynamoDB's TTL sweeper removes them.
func (c *ProfileDynamoDBCache) Get(ctx context.Context, fid int64) (*types.Profile, bool, error) {
	if c.client == nil {
		return nil, false, fmt.Errorf("DynamoDB client not initialized")
	}

	result, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]dynamodbtypes.AttributeValue{
			"fid": &dynamodbtypes.AttributeValueMemberN{Value: strconv.FormatInt(fid, 10)},
		},
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to get profile: %w", err)
	}
	if result.Item == nil {
		return nil, false, nil
	}

	var item profileItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	if c.now().Unix() >= item.ExpiresAt {
		return nil, false, nil
	}

	return &item.Profile, true, nil
}

// Put stores a profile for ttl
func (c *ProfileDynamoDBCache) Put(ctx context.Context, profile types.Profile, ttl time.Duration) error {
	if c.client == nil {
		return fmt.Errorf("DynamoDB client not initialized")
	}

	item, err := attributevalue.MarshalMap(profileItem{
		Profile:   profile,
		ExpiresAt: c.now().Add(ttl).Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	_, err = c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save profile to DynamoDB: %w", err)
	}
	return nil
}

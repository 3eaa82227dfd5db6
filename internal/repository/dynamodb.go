package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jrzesz33/lex_provisioner/internal/models"
)

// ErrRecordNotFound is returned by GetRecord for an unknown id
var ErrRecordNotFound = errors.New("provisioning record not found")

// DynamoDBAPI is the subset of the DynamoDB client used by the ledger
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

var _ DynamoDBAPI = (*dynamodb.Client)(nil)

// ProvisioningRepository defines the ledger persistence operations
type ProvisioningRepository interface {
	SaveRecord(ctx context.Context, record *models.ProvisioningRecord) error
	GetRecord(ctx context.Context, id string) (*models.ProvisioningRecord, error)
	ListRecords(ctx context.Context, stackID string, limit int) ([]*models.ProvisioningRecord, error)
}

// DynamoDBRepository implements ProvisioningRepository using DynamoDB
type DynamoDBRepository struct {
	client    DynamoDBAPI
	tableName string
}

// NewDynamoDBRepository creates a new DynamoDB repository instance
func NewDynamoDBRepository(client DynamoDBAPI, tableName string) *DynamoDBRepository {
	return &DynamoDBRepository{
		client:    client,
		tableName: tableName,
	}
}

// SaveRecord saves a provisioning record to DynamoDB
func (r *DynamoDBRepository) SaveRecord(ctx context.Context, record *models.ProvisioningRecord) error {
	av, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal provisioning record: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("failed to save provisioning record to DynamoDB: %w", err)
	}

	return nil
}

// GetRecord retrieves a provisioning record by ID
func (r *DynamoDBRepository) GetRecord(ctx context.Context, id string) (*models.ProvisioningRecord, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	}

	result, err := r.client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get provisioning record from DynamoDB: %w", err)
	}

	if result.Item == nil {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}

	var record models.ProvisioningRecord
	if err := attributevalue.UnmarshalMap(result.Item, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal provisioning record: %w", err)
	}

	return &record, nil
}

// ListRecords returns the records of a stack, newest first. An empty stackID
// lists every stack.
func (r *DynamoDBRepository) ListRecords(ctx context.Context, stackID string, limit int) ([]*models.ProvisioningRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	input := &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	}
	if stackID != "" {
		input.FilterExpression = aws.String("#stack_id = :stack_id")
		input.ExpressionAttributeNames = map[string]string{"#stack_id": "stack_id"}
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":stack_id": &types.AttributeValueMemberS{Value: stackID},
		}
	}

	// a filtered scan page can come back short, so keep paging until full
	records := make([]*models.ProvisioningRecord, 0)
	for {
		result, err := r.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to scan provisioning records from DynamoDB: %w", err)
		}

		for _, item := range result.Items {
			var record models.ProvisioningRecord
			if err := attributevalue.UnmarshalMap(item, &record); err != nil {
				return nil, fmt.Errorf("failed to unmarshal provisioning record: %w", err)
			}
			records = append(records, &record)
		}

		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedDate.After(records[j].CreatedDate)
	})
	if len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}

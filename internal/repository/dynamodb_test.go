package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/go-cmp/cmp"

	"github.com/jrzesz33/lex_provisioner/internal/models"
)

// fakeDynamoDB stores items by id and serves scans in two pages
type fakeDynamoDB struct {
	items   map[string]map[string]types.AttributeValue
	order   []string
	scans   []*dynamodb.ScanInput
	putErr  error
	pageLen int
}

func newFakeDynamoDB() *fakeDynamoDB {
	return &fakeDynamoDB{items: map[string]map[string]types.AttributeValue{}, pageLen: 2}
}

func (f *fakeDynamoDB) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	id := in.Item["id"].(*types.AttributeValueMemberS).Value
	if _, ok := f.items[id]; !ok {
		f.order = append(f.order, id)
	}
	f.items[id] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamoDB) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	id := in.Key["id"].(*types.AttributeValueMemberS).Value
	return &dynamodb.GetItemOutput{Item: f.items[id]}, nil
}

func (f *fakeDynamoDB) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.scans = append(f.scans, in)

	start := 0
	if in.ExclusiveStartKey != nil {
		last := in.ExclusiveStartKey["id"].(*types.AttributeValueMemberS).Value
		for i, id := range f.order {
			if id == last {
				start = i + 1
			}
		}
	}
	end := start + f.pageLen
	if end > len(f.order) {
		end = len(f.order)
	}

	out := &dynamodb.ScanOutput{}
	for _, id := range f.order[start:end] {
		item := f.items[id]
		if in.ExpressionAttributeValues != nil {
			want := in.ExpressionAttributeValues[":stack_id"].(*types.AttributeValueMemberS).Value
			if item["stack_id"].(*types.AttributeValueMemberS).Value != want {
				continue
			}
		}
		out.Items = append(out.Items, item)
	}
	if end < len(f.order) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: f.order[end-1]},
		}
	}
	return out, nil
}

func record(id, stackID string, created time.Time) *models.ProvisioningRecord {
	return &models.ProvisioningRecord{
		ID:                id,
		StackID:           stackID,
		LogicalResourceID: "LexBot",
		RequestID:         "req-" + id,
		RequestType:       "Create",
		Stage:             models.StageDev,
		BotName:           "devLexBot",
		BotVersion:        "1",
		Status:            models.ProvisioningStatusSucceeded,
		CreatedDate:       created,
	}
}

func TestDynamoDBRepository_Interface(t *testing.T) {
	var _ ProvisioningRepository = (*DynamoDBRepository)(nil)
}

func TestSaveAndGetRecord(t *testing.T) {
	fake := newFakeDynamoDB()
	repo := NewDynamoDBRepository(fake, "provisioning")
	ctx := context.Background()

	want := record("r1", "stack-a", time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC))
	if err := repo.SaveRecord(ctx, want); err != nil {
		t.Fatalf("SaveRecord() unexpected error: %v", err)
	}

	got, err := repo.GetRecord(ctx, "r1")
	if err != nil {
		t.Fatalf("GetRecord() unexpected error: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}

	if _, err := repo.GetRecord(ctx, "missing"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("GetRecord() error = %v, want ErrRecordNotFound", err)
	}
}

func TestSaveRecordError(t *testing.T) {
	fake := newFakeDynamoDB()
	fake.putErr = errors.New("throttled")
	repo := NewDynamoDBRepository(fake, "provisioning")

	if err := repo.SaveRecord(context.Background(), record("r1", "stack-a", time.Now())); err == nil {
		t.Error("SaveRecord() expected error, got nil")
	}
}

func TestListRecords(t *testing.T) {
	fake := newFakeDynamoDB()
	repo := NewDynamoDBRepository(fake, "provisioning")
	ctx := context.Background()
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	for i, r := range []*models.ProvisioningRecord{
		record("r1", "stack-a", base),
		record("r2", "stack-b", base.Add(time.Hour)),
		record("r3", "stack-a", base.Add(2*time.Hour)),
		record("r4", "stack-a", base.Add(3*time.Hour)),
		record("r5", "stack-a", base.Add(4*time.Hour)),
	} {
		if err := repo.SaveRecord(ctx, r); err != nil {
			t.Fatalf("SaveRecord(%d) unexpected error: %v", i, err)
		}
	}

	got, err := repo.ListRecords(ctx, "stack-a", 3)
	if err != nil {
		t.Fatalf("ListRecords() unexpected error: %v", err)
	}
	var ids []string
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	if diff := cmp.Diff([]string{"r5", "r4", "r3"}, ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
	if len(fake.scans) != 3 {
		t.Errorf("scan pages = %d, want 3", len(fake.scans))
	}
	if got := aws.ToString(fake.scans[0].FilterExpression); got != "#stack_id = :stack_id" {
		t.Errorf("FilterExpression = %q", got)
	}

	all, err := repo.ListRecords(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListRecords() unexpected error: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("records = %d, want 5", len(all))
	}
}

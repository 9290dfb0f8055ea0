package dynamock

import (
	"context"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// DynamoDBAPICall is the signature shared by the client operations.
type DynamoDBAPICall[T, U any] = func(context.Context, *T, ...func(*dynamodb.Options)) (*U, error)

// DynamoDBAPI defines the DynamoDB operations that accept requests built by dynafield.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// MockClient answers each operation with the function set for it. Functions
// left at their defaults fail the test, so a test only sets the calls it
// expects the code under test to make.
type MockClient struct {
	PutFunc            DynamoDBAPICall[dynamodb.PutItemInput, dynamodb.PutItemOutput]
	GetFunc            DynamoDBAPICall[dynamodb.GetItemInput, dynamodb.GetItemOutput]
	DeleteFunc         DynamoDBAPICall[dynamodb.DeleteItemInput, dynamodb.DeleteItemOutput]
	UpdateFunc         DynamoDBAPICall[dynamodb.UpdateItemInput, dynamodb.UpdateItemOutput]
	BatchWriteItemFunc DynamoDBAPICall[dynamodb.BatchWriteItemInput, dynamodb.BatchWriteItemOutput]
}

var _ DynamoDBAPI = (*MockClient)(nil)

// NewMockClient returns a MockClient whose operations all fail t.
func NewMockClient(t *testing.T) *MockClient {
	return &MockClient{
		PutFunc:            unexpected[dynamodb.PutItemInput, dynamodb.PutItemOutput](t, "PutItem"),
		GetFunc:            unexpected[dynamodb.GetItemInput, dynamodb.GetItemOutput](t, "GetItem"),
		DeleteFunc:         unexpected[dynamodb.DeleteItemInput, dynamodb.DeleteItemOutput](t, "DeleteItem"),
		UpdateFunc:         unexpected[dynamodb.UpdateItemInput, dynamodb.UpdateItemOutput](t, "UpdateItem"),
		BatchWriteItemFunc: unexpected[dynamodb.BatchWriteItemInput, dynamodb.BatchWriteItemOutput](t, "BatchWriteItem"),
	}
}

func unexpected[T, U any](t *testing.T, op string) DynamoDBAPICall[T, U] {
	return func(context.Context, *T, ...func(*dynamodb.Options)) (*U, error) {
		t.Helper()
		t.Fatalf("unexpected %s call", op)
		return nil, nil
	}
}

// PutItem delegates to PutFunc.
func (m *MockClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return m.PutFunc(ctx, params, optFns...)
}

// GetItem delegates to GetFunc.
func (m *MockClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return m.GetFunc(ctx, params, optFns...)
}

// DeleteItem delegates to DeleteFunc.
func (m *MockClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	return m.DeleteFunc(ctx, params, optFns...)
}

// UpdateItem delegates to UpdateFunc.
func (m *MockClient) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	return m.UpdateFunc(ctx, params, optFns...)
}

// BatchWriteItem delegates to BatchWriteItemFunc.
func (m *MockClient) BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	return m.BatchWriteItemFunc(ctx, params, optFns...)
}

// Recorder is a DynamoDBAPI that keeps every request it receives and reports success.
type Recorder struct {
	mu      sync.Mutex
	Gets    []*dynamodb.GetItemInput
	Deletes []*dynamodb.DeleteItemInput
	Puts    []*dynamodb.PutItemInput
	Updates []*dynamodb.UpdateItemInput
	Batches []*dynamodb.BatchWriteItemInput
}

var _ DynamoDBAPI = (*Recorder)(nil)

// GetItem records the request and reports no item found.
func (r *Recorder) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Gets = append(r.Gets, params)
	return &dynamodb.GetItemOutput{}, nil
}

// DeleteItem records the request.
func (r *Recorder) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Deletes = append(r.Deletes, params)
	return &dynamodb.DeleteItemOutput{}, nil
}

// PutItem records the request.
func (r *Recorder) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Puts = append(r.Puts, params)
	return &dynamodb.PutItemOutput{}, nil
}

// UpdateItem records the request.
func (r *Recorder) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Updates = append(r.Updates, params)
	return &dynamodb.UpdateItemOutput{}, nil
}

// BatchWriteItem records the request.
func (r *Recorder) BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Batches = append(r.Batches, params)
	return &dynamodb.BatchWriteItemOutput{}, nil
}

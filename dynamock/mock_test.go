package dynamock

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/nisimpson/dynafield"
)

type testProduct struct {
	dynafield.Table `dynafield:"products"`
	ID              string   `dynafield:"id,S"`
	Price           float64  `dynafield:"price,N"`
	Tags            []string `dynafield:"tags,SS,omitempty"`
}

func TestNewMockClient(t *testing.T) {
	mock := NewMockClient(t)

	if mock == nil {
		t.Fatal("NewMockClient returned nil")
	}

	if mock.PutFunc == nil {
		t.Error("PutFunc not initialized")
	}

	if mock.GetFunc == nil {
		t.Error("GetFunc not initialized")
	}

	if mock.DeleteFunc == nil {
		t.Error("DeleteFunc not initialized")
	}

	if mock.UpdateFunc == nil {
		t.Error("UpdateFunc not initialized")
	}

	if mock.BatchWriteItemFunc == nil {
		t.Error("BatchWriteItemFunc not initialized")
	}
}

func TestMockClient_PutItem_WithExpectation(t *testing.T) {
	mock := NewMockClient(t)
	ctx := context.Background()

	expectedOutput := &dynamodb.PutItemOutput{}

	mock.PutFunc = func(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
		if aws.ToString(params.TableName) != "products" {
			t.Errorf("expected table name products, got %s", aws.ToString(params.TableName))
		}
		if s, ok := params.Item["id"].(*types.AttributeValueMemberS); !ok || s.Value != "p1" {
			t.Errorf("expected id p1, got %#v", params.Item["id"])
		}
		return expectedOutput, nil
	}

	input, err := dynafield.MarshalPut(&testProduct{ID: "p1", Price: 9.5})
	if err != nil {
		t.Fatalf("MarshalPut failed: %v", err)
	}

	output, err := mock.PutItem(ctx, input)
	if err != nil {
		t.Fatalf("PutItem failed: %v", err)
	}

	if output != expectedOutput {
		t.Error("PutItem returned unexpected output")
	}
}

func TestMockClient_PutItem_WithError(t *testing.T) {
	mock := NewMockClient(t)
	expectedErr := errors.New("throttled")

	mock.PutFunc = func(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
		return nil, expectedErr
	}

	_, err := mock.PutItem(context.Background(), &dynamodb.PutItemInput{})
	if !errors.Is(err, expectedErr) {
		t.Errorf("expected error %v, got %v", expectedErr, err)
	}
}

func TestMockClient_UpdateItem_WithExpectation(t *testing.T) {
	mock := NewMockClient(t)
	called := false

	mock.UpdateFunc = func(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
		called = true
		if _, ok := params.Key["id"]; !ok {
			t.Error("expected key attribute id")
		}
		if params.UpdateExpression == nil {
			t.Error("expected update expression")
		}
		return &dynamodb.UpdateItemOutput{}, nil
	}

	input, err := dynafield.NewEncoder().MarshalUpdate(&testProduct{ID: "p1", Price: 3}, "id")
	if err != nil {
		t.Fatalf("MarshalUpdate failed: %v", err)
	}

	if _, err := mock.UpdateItem(context.Background(), input); err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}

	if !called {
		t.Error("UpdateFunc was not called")
	}
}

func TestMockClient_BatchWriteItem_WithExpectation(t *testing.T) {
	mock := NewMockClient(t)

	mock.BatchWriteItemFunc = func(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
		if got := len(params.RequestItems["products"]); got != 2 {
			t.Errorf("expected 2 put requests, got %d", got)
		}
		return &dynamodb.BatchWriteItemOutput{}, nil
	}

	batches, err := dynafield.NewEncoder().MarshalBatch(&testProduct{ID: "p1"}, &testProduct{ID: "p2"})
	if err != nil {
		t.Fatalf("MarshalBatch failed: %v", err)
	}

	for _, batch := range batches {
		if _, err := mock.BatchWriteItem(context.Background(), batch); err != nil {
			t.Fatalf("BatchWriteItem failed: %v", err)
		}
	}
}

func TestMockClient_GetAndDelete_WithExpectation(t *testing.T) {
	mock := NewMockClient(t)
	ctx := context.Background()
	enc := dynafield.NewEncoder()
	product := &testProduct{ID: "p1"}

	mock.GetFunc = func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
		if len(params.Key) != 1 {
			t.Errorf("expected 1 key attribute, got %d", len(params.Key))
		}
		return &dynamodb.GetItemOutput{Item: params.Key}, nil
	}
	mock.DeleteFunc = func(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
		if aws.ToString(params.TableName) != "products" {
			t.Errorf("expected table name products, got %s", aws.ToString(params.TableName))
		}
		return &dynamodb.DeleteItemOutput{}, nil
	}

	get, err := enc.MarshalGet(product, "id")
	if err != nil {
		t.Fatalf("MarshalGet failed: %v", err)
	}
	out, err := mock.GetItem(ctx, get)
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if _, ok := out.Item["id"]; !ok {
		t.Error("expected id in returned item")
	}

	del, err := enc.MarshalDelete(product, "id")
	if err != nil {
		t.Fatalf("MarshalDelete failed: %v", err)
	}
	if _, err := mock.DeleteItem(ctx, del); err != nil {
		t.Fatalf("DeleteItem failed: %v", err)
	}
}

func TestRecorder(t *testing.T) {
	rec := &Recorder{}
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec.PutItem(ctx, &dynamodb.PutItemInput{})
		}()
	}
	wg.Wait()

	rec.UpdateItem(ctx, &dynamodb.UpdateItemInput{})
	rec.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{})
	rec.GetItem(ctx, &dynamodb.GetItemInput{})
	rec.DeleteItem(ctx, &dynamodb.DeleteItemInput{})

	if len(rec.Puts) != 10 {
		t.Errorf("expected 10 recorded puts, got %d", len(rec.Puts))
	}
	if len(rec.Updates) != 1 {
		t.Errorf("expected 1 recorded update, got %d", len(rec.Updates))
	}
	if len(rec.Batches) != 1 {
		t.Errorf("expected 1 recorded batch, got %d", len(rec.Batches))
	}
	if len(rec.Gets) != 1 || len(rec.Deletes) != 1 {
		t.Errorf("expected 1 recorded get and delete, got %d and %d", len(rec.Gets), len(rec.Deletes))
	}
}

package dynamock

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/nisimpson/dynafield"
)

// IntegrationTestConfig controls RunIntegrationTest.
type IntegrationTestConfig struct {
	Port             int
	SkipIfNotRunning bool
	TablePrefix      string
	Schema           KeySchema
	CleanupTimeout   time.Duration
}

// DefaultIntegrationTestConfig returns a default configuration for integration
// tests: a table keyed by an "id" string attribute.
func DefaultIntegrationTestConfig() *IntegrationTestConfig {
	return &IntegrationTestConfig{
		Port:             DefaultLocalPort,
		SkipIfNotRunning: true,
		TablePrefix:      "integration-test",
		Schema:           KeySchema{HashKey: "id"},
		CleanupTimeout:   30 * time.Second,
	}
}

// NewTestTable returns prefix followed by a nanosecond timestamp.
func NewTestTable(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// RunIntegrationTest creates a uniquely named table on DynamoDB Local, runs fn
// and drops the table when the test finishes. The test is skipped in short
// mode, and when DynamoDB Local is down unless SkipIfNotRunning is false.
func RunIntegrationTest(t *testing.T, config *IntegrationTestConfig, fn func(local *LocalDynamoDB, tableName string)) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if config == nil {
		config = DefaultIntegrationTestConfig()
	}

	local := NewLocalDynamoDB(config.Port)
	if !local.IsAvailable(context.Background()) {
		msg := fmt.Sprintf("DynamoDB Local not available on port %d", config.Port)
		if !config.SkipIfNotRunning {
			t.Fatal(msg)
		}
		t.Skip(msg)
	}

	tableName := NewTestTable(config.TablePrefix)
	if err := local.CreateTable(context.Background(), tableName, config.Schema); err != nil {
		t.Fatalf("Failed to create test table %s: %v", tableName, err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), config.CleanupTimeout)
		defer cancel()
		if err := local.DeleteTable(ctx, tableName); err != nil {
			t.Errorf("Failed to drop table %s: %v", tableName, err)
		}
	})

	fn(local, tableName)
}

// Seeder writes encoded values to a table through any DynamoDBAPI.
type Seeder struct {
	client  DynamoDBAPI
	encoder *dynafield.Encoder
	table   string
}

// NewSeeder creates a seeder. When table is not empty it replaces the table
// name each value would otherwise be written to.
func NewSeeder(client DynamoDBAPI, encoder *dynafield.Encoder, table string) *Seeder {
	if encoder == nil {
		encoder = dynafield.NewEncoder()
	}
	return &Seeder{client: client, encoder: encoder, table: table}
}

// Seed puts every value and returns the number of items written.
func (s *Seeder) Seed(ctx context.Context, values ...any) (int, error) {
	count := 0
	for _, v := range values {
		var (
			input *dynamodb.PutItemInput
			err   error
		)
		if s.table != "" {
			input, err = s.putInto(v)
		} else {
			input, err = s.encoder.MarshalPut(v)
		}
		if err != nil {
			return count, fmt.Errorf("failed to marshal item %d: %w", count, err)
		}

		if _, err := s.client.PutItem(ctx, input); err != nil {
			return count, fmt.Errorf("failed to put item %d: %w", count, err)
		}
		count++
	}
	return count, nil
}

// SeedInputs sends prepared put requests, such as those built by LoadFixtures.
func (s *Seeder) SeedInputs(ctx context.Context, inputs ...*dynamodb.PutItemInput) (int, error) {
	count := 0
	for _, input := range inputs {
		if s.table != "" {
			cp := *input
			cp.TableName = &s.table
			input = &cp
		}
		if _, err := s.client.PutItem(ctx, input); err != nil {
			return count, fmt.Errorf("failed to put item %d: %w", count, err)
		}
		count++
	}
	return count, nil
}

func (s *Seeder) putInto(v any) (*dynamodb.PutItemInput, error) {
	item, err := s.encoder.Encode(v)
	if err != nil {
		return nil, err
	}
	return &dynamodb.PutItemInput{TableName: &s.table, Item: item}, nil
}

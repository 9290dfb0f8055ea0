// Package dynamock provides testing utilities for the dynafield library.
//
// This package includes:
//   - Expectation-based mock DynamoDB client for unit testing
//   - A recording client that keeps every request it receives
//   - JSON fixtures encoded through dynafield type inference
//   - Local DynamoDB integration utilities with automatic cleanup
//
// # Mock Client
//
// The MockClient fails the test on any call unless an expectation is set:
//
//	mock := dynamock.NewMockClient(t)
//	mock.PutFunc = func(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
//		// Verify the operation parameters
//		return &dynamodb.PutItemOutput{}, nil
//	}
//
//	putInput, _ := dynafield.MarshalPut(product)
//	_, err := mock.PutItem(ctx, putInput)
//
// # Fixtures
//
// Fixture documents are JSON arrays of {"table": ..., "item": {...}} objects:
//
//	inputs, err := dynamock.LoadFixtures(file, nil)
//	n, err := dynamock.NewSeeder(client, nil, "").SeedInputs(ctx, inputs...)
//
// # Local DynamoDB
//
// Integration tests run against DynamoDB Local and are skipped when it is
// not available:
//
//	dynamock.RunIntegrationTest(t, nil, func(local *dynamock.LocalDynamoDB, table string) {
//		seeder := dynamock.NewSeeder(local.Client, nil, table)
//		_, err := seeder.Seed(ctx, product)
//	})
package dynamock

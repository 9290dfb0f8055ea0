package dynamock

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DefaultLocalPort is the port DynamoDB Local listens on unless told otherwise.
const DefaultLocalPort = 8000

const (
	tableTimeout = 30 * time.Second
	pollInterval = time.Second
)

// LocalDynamoDB is a client bound to a DynamoDB Local endpoint.
type LocalDynamoDB struct {
	Client   *dynamodb.Client
	Endpoint string
	Port     int
}

func localEndpoint(port int) string {
	return fmt.Sprintf("http://localhost:%d", port)
}

// NewLocalClient returns an anonymous client for DynamoDB Local on port.
//
//	client := dynamock.NewLocalClient(dynamock.DefaultLocalPort)
func NewLocalClient(port int) *dynamodb.Client {
	// the region is required by the SDK but ignored by DynamoDB Local
	return NewLocalClientFromConfig(aws.Config{Region: "us-east-1"}, port)
}

// NewLocalClientFromConfig is like NewLocalClient but starts from cfg. The
// credentials of cfg are replaced with anonymous ones.
func NewLocalClientFromConfig(cfg aws.Config, port int) *dynamodb.Client {
	cfg.Credentials = aws.AnonymousCredentials{}
	endpoint := localEndpoint(port)
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		o.BaseEndpoint = &endpoint
	})
}

// NewLocalDynamoDB binds a LocalDynamoDB to port.
func NewLocalDynamoDB(port int) *LocalDynamoDB {
	return &LocalDynamoDB{
		Client:   NewLocalClient(port),
		Endpoint: localEndpoint(port),
		Port:     port,
	}
}

// IsAvailable reports whether something accepts connections on the port and
// answers ListTables.
func (l *LocalDynamoDB) IsAvailable(ctx context.Context) bool {
	var d net.Dialer
	dialCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	conn, err := d.DialContext(dialCtx, "tcp", fmt.Sprintf("localhost:%d", l.Port))
	if err != nil {
		return false
	}
	_ = conn.Close()

	_, err = l.Client.ListTables(ctx, &dynamodb.ListTablesInput{Limit: aws.Int32(1)})
	return err == nil
}

// KeySchema names the key attributes of a table. RangeKey is optional.
type KeySchema struct {
	HashKey   string
	HashType  types.ScalarAttributeType
	RangeKey  string
	RangeType types.ScalarAttributeType
}

func (k KeySchema) elements() ([]types.AttributeDefinition, []types.KeySchemaElement) {
	var (
		defs []types.AttributeDefinition
		keys []types.KeySchemaElement
	)
	add := func(name string, typ types.ScalarAttributeType, kt types.KeyType) {
		if typ == "" {
			typ = types.ScalarAttributeTypeS
		}
		defs = append(defs, types.AttributeDefinition{AttributeName: aws.String(name), AttributeType: typ})
		keys = append(keys, types.KeySchemaElement{AttributeName: aws.String(name), KeyType: kt})
	}
	add(k.HashKey, k.HashType, types.KeyTypeHash)
	if k.RangeKey != "" {
		add(k.RangeKey, k.RangeType, types.KeyTypeRange)
	}
	return defs, keys
}

// CreateTable creates an on-demand table and blocks until it is active. Key
// types default to S.
func (l *LocalDynamoDB) CreateTable(ctx context.Context, tableName string, schema KeySchema) error {
	defs, keys := schema.elements()
	_, err := l.Client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:            aws.String(tableName),
		BillingMode:          types.BillingModePayPerRequest,
		AttributeDefinitions: defs,
		KeySchema:            keys,
	})
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", tableName, err)
	}
	return l.WaitForTableActive(ctx, tableName, tableTimeout)
}

// WaitForTableActive polls the table status until it is ACTIVE or timeout
// elapses.
func (l *LocalDynamoDB) WaitForTableActive(ctx context.Context, tableName string, timeout time.Duration) error {
	return poll(ctx, timeout, func() (bool, error) {
		out, err := l.describe(ctx, tableName)
		if err != nil {
			return false, fmt.Errorf("failed to describe table %s: %w", tableName, err)
		}
		return out.Table.TableStatus == types.TableStatusActive, nil
	}, func() error {
		return fmt.Errorf("table %s did not become active within %v", tableName, timeout)
	})
}

// DeleteTable drops the table and blocks until DescribeTable no longer finds it.
func (l *LocalDynamoDB) DeleteTable(ctx context.Context, tableName string) error {
	if _, err := l.Client.DeleteTable(ctx, &dynamodb.DeleteTableInput{TableName: aws.String(tableName)}); err != nil {
		return fmt.Errorf("failed to delete table %s: %w", tableName, err)
	}
	return poll(ctx, tableTimeout, func() (bool, error) {
		_, err := l.describe(ctx, tableName)
		var notFound *types.ResourceNotFoundException
		switch {
		case err == nil:
			return false, nil
		case errors.As(err, &notFound):
			return true, nil
		default:
			return false, fmt.Errorf("failed to describe table %s: %w", tableName, err)
		}
	}, func() error {
		return fmt.Errorf("table %s still exists after %v", tableName, tableTimeout)
	})
}

// GetItem reads the item stored under key with strong consistency. The result
// is nil when there is no such item.
func (l *LocalDynamoDB) GetItem(ctx context.Context, tableName string, key map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	out, err := l.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(tableName),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get item from %s: %w", tableName, err)
	}
	return out.Item, nil
}

func (l *LocalDynamoDB) describe(ctx context.Context, tableName string) (*dynamodb.DescribeTableOutput, error) {
	return l.Client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(tableName)})
}

// poll calls done every pollInterval until it reports true, fails, ctx ends
// or timeout elapses, in which case expired supplies the error.
func poll(ctx context.Context, timeout time.Duration, done func() (bool, error), expired func() error) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	deadline := time.After(timeout)

	for {
		ok, err := done()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return expired()
		case <-ticker.C:
		}
	}
}

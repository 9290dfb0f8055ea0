package dynafield

import (
	"errors"
	"fmt"
	"slices"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	// MaxBatchSize is the maximum number of items allowed in a DynamoDB batch operation.
	MaxBatchSize = 25
)

// MarshalPut marshals v into a dynamodb put item input request.
func (e *Encoder) MarshalPut(v any) (*dynamodb.PutItemInput, error) {
	req, err := e.EncodePut(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal item: %w", err)
	}

	return &dynamodb.PutItemInput{
		TableName: aws.String(req.TableName),
		Item:      req.Item,
	}, nil
}

// MarshalBatch marshals the input into batch write put requests. Since there is a
// limit on how many requests can be contained in a single input, the requests are chunked
// in sizes of 25 or less. Items keep their relative order within each table.
func (e *Encoder) MarshalBatch(vs ...any) ([]*dynamodb.BatchWriteItemInput, error) {
	var (
		batches []*dynamodb.BatchWriteItemInput
		batch   *dynamodb.BatchWriteItemInput
		count   int
	)

	for i, v := range vs {
		req, err := e.EncodePut(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal item %d: %w", i, err)
		}

		if batch == nil || count == MaxBatchSize {
			batch = &dynamodb.BatchWriteItemInput{
				RequestItems: map[string][]types.WriteRequest{},
			}
			batches = append(batches, batch)
			count = 0
		}

		batch.RequestItems[req.TableName] = append(batch.RequestItems[req.TableName], types.WriteRequest{
			PutRequest: &types.PutRequest{Item: req.Item},
		})
		count++
	}

	return batches, nil
}

// MarshalGet marshals the key attributes of v into a get item request.
func (e *Encoder) MarshalGet(v any, keys ...string) (*dynamodb.GetItemInput, error) {
	table, key, _, err := e.keyed(v, keys)
	if err != nil {
		return nil, err
	}

	return &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key:       key,
	}, nil
}

// MarshalDelete marshals the key attributes of v into a delete item request.
func (e *Encoder) MarshalDelete(v any, keys ...string) (*dynamodb.DeleteItemInput, error) {
	table, key, _, err := e.keyed(v, keys)
	if err != nil {
		return nil, err
	}

	return &dynamodb.DeleteItemInput{
		TableName: aws.String(table),
		Key:       key,
	}, nil
}

// keyed encodes v and splits out the attributes named by keys.
func (e *Encoder) keyed(v any, keys []string) (string, Item, []field, error) {
	if len(keys) == 0 {
		return "", nil, nil, fmt.Errorf("%w: no key attributes given", ErrMissingKey)
	}

	table, err := e.TableName(v)
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to marshal key: %w", err)
	}

	fields, err := e.encode(v)
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to marshal key: %w", err)
	}

	var (
		key     = Item{}
		missing []error
	)
	for _, k := range keys {
		i := slices.IndexFunc(fields, func(f field) bool { return f.name == k })
		if i < 0 {
			missing = append(missing, fmt.Errorf("%w: %q", ErrMissingKey, k))
			continue
		}
		key[k] = fields[i].node.attributeValue()
	}
	if err := errors.Join(missing...); err != nil {
		return "", nil, nil, err
	}

	return table, key, fields, nil
}

// MarshalUpdate marshals v into an update item request. The attributes named by
// keys form the item key; every other encoded attribute is written with a SET
// action. The request is conditioned on the item already existing.
func (e *Encoder) MarshalUpdate(v any, keys ...string) (*dynamodb.UpdateItemInput, error) {
	table, key, fields, err := e.keyed(v, keys)
	if err != nil {
		return nil, err
	}

	var (
		update expression.UpdateBuilder
		empty  = true
	)
	for _, f := range fields {
		if slices.Contains(keys, f.name) {
			continue
		}
		name := expression.Name(f.name)
		value := expression.Value(rawAttribute{f.node.attributeValue()})
		if empty {
			update = expression.Set(name, value)
			empty = false
		} else {
			update = update.Set(name, value)
		}
	}
	if empty {
		return nil, ErrEmptyUpdate
	}

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name(keys[0]))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	return &dynamodb.UpdateItemInput{
		TableName:                 aws.String(table),
		Key:                       key,
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}, nil
}

// rawAttribute hands an already encoded value to the expression builder.
type rawAttribute struct {
	av types.AttributeValue
}

var _ attributevalue.Marshaler = rawAttribute{}

func (r rawAttribute) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return r.av, nil
}

var defaultEncoder = NewEncoder()

// Encode encodes v with a shared default Encoder.
func Encode(v any) (Item, error) { return defaultEncoder.Encode(v) }

// EncodePut encodes v and its table name with a shared default Encoder.
func EncodePut(v any) (*PutRequest, error) { return defaultEncoder.EncodePut(v) }

// TableName returns the table of v.
func TableName(v any) (string, error) { return defaultEncoder.TableName(v) }

// MarshalPut marshals v into a put item request with a shared default Encoder.
func MarshalPut(v any) (*dynamodb.PutItemInput, error) { return defaultEncoder.MarshalPut(v) }

// MarshalBatch marshals vs into batch write requests with a shared default Encoder.
func MarshalBatch(vs ...any) ([]*dynamodb.BatchWriteItemInput, error) {
	return defaultEncoder.MarshalBatch(vs...)
}

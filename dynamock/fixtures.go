package dynamock

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/nisimpson/dynafield"
)

// Fixture is one item of a JSON fixture document.
type Fixture struct {
	Table string         `json:"table"`
	Item  map[string]any `json:"item"`
}

// LoadFixtures reads a JSON array of fixtures and encodes each item into a
// put request. Items carry no declared tags, so every attribute is
// classified by dynafield.Infer: arrays of strings become SS, arrays of
// numbers NS, mixed arrays L and objects M. Numbers keep their exact
// textual value.
//
//	[
//	  {"table": "products", "item": {"id": "p1", "price": 13.37, "tags": ["a", "b"]}}
//	]
func LoadFixtures(r io.Reader, encoder *dynafield.Encoder) ([]*dynamodb.PutItemInput, error) {
	if encoder == nil {
		encoder = dynafield.NewEncoder()
	}

	var fixtures []Fixture
	decoder := json.NewDecoder(r)
	decoder.UseNumber()
	if err := decoder.Decode(&fixtures); err != nil {
		return nil, fmt.Errorf("failed to parse fixture document: %w", err)
	}

	inputs := make([]*dynamodb.PutItemInput, 0, len(fixtures))
	for i, fixture := range fixtures {
		if fixture.Table == "" {
			return nil, fmt.Errorf("fixture at index %d missing required 'table' field", i)
		}
		if fixture.Item == nil {
			return nil, fmt.Errorf("fixture at index %d missing required 'item' field", i)
		}

		item, err := encoder.Encode(fixture.Item)
		if err != nil {
			return nil, fmt.Errorf("failed to encode fixture at index %d: %w", i, err)
		}

		inputs = append(inputs, &dynamodb.PutItemInput{
			TableName: aws.String(fixture.Table),
			Item:      item,
		})
	}

	return inputs, nil
}

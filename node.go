package dynafield

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Item is an alias for the dynamodb attribute value map.
type Item = map[string]types.AttributeValue

// node is an encoded attribute value that remembers the order in which map
// fields were produced, so the JSON form follows declaration order.
type node struct {
	tag    Tag
	str    string   // S, N
	bin    []byte   // B
	flag   bool     // BOOL
	strs   []string // SS, NS
	bins   [][]byte // BS
	list   []node   // L
	fields []field  // M
}

type field struct {
	name string
	node node
}

var nullNode = node{tag: Null}

func itemOf(fields []field) Item {
	item := make(Item, len(fields))
	for _, f := range fields {
		item[f.name] = f.node.attributeValue()
	}
	return item
}

func (n node) attributeValue() types.AttributeValue {
	switch n.tag {
	case String:
		return &types.AttributeValueMemberS{Value: n.str}
	case Number:
		return &types.AttributeValueMemberN{Value: n.str}
	case Binary:
		return &types.AttributeValueMemberB{Value: n.bin}
	case Bool:
		return &types.AttributeValueMemberBOOL{Value: n.flag}
	case List:
		list := make([]types.AttributeValue, len(n.list))
		for i, e := range n.list {
			list[i] = e.attributeValue()
		}
		return &types.AttributeValueMemberL{Value: list}
	case Map:
		return &types.AttributeValueMemberM{Value: itemOf(n.fields)}
	case StringSet:
		return &types.AttributeValueMemberSS{Value: n.strs}
	case NumberSet:
		return &types.AttributeValueMemberNS{Value: n.strs}
	case BinarySet:
		return &types.AttributeValueMemberBS{Value: n.bins}
	default:
		return &types.AttributeValueMemberNULL{Value: true}
	}
}

// nodeOf converts an SDK attribute value. Map keys are sorted since the
// source map has no order.
func nodeOf(av types.AttributeValue) (node, error) {
	switch av := av.(type) {
	case *types.AttributeValueMemberS:
		return node{tag: String, str: av.Value}, nil
	case *types.AttributeValueMemberN:
		return node{tag: Number, str: av.Value}, nil
	case *types.AttributeValueMemberB:
		return node{tag: Binary, bin: slices.Clone(av.Value)}, nil
	case *types.AttributeValueMemberBOOL:
		return node{tag: Bool, flag: av.Value}, nil
	case *types.AttributeValueMemberNULL:
		return nullNode, nil
	case *types.AttributeValueMemberSS:
		return node{tag: StringSet, strs: slices.Clone(av.Value)}, nil
	case *types.AttributeValueMemberNS:
		return node{tag: NumberSet, strs: slices.Clone(av.Value)}, nil
	case *types.AttributeValueMemberBS:
		bins := make([][]byte, len(av.Value))
		for i, b := range av.Value {
			bins[i] = slices.Clone(b)
		}
		return node{tag: BinarySet, bins: bins}, nil
	case *types.AttributeValueMemberL:
		list := make([]node, len(av.Value))
		for i, e := range av.Value {
			n, err := nodeOf(e)
			if err != nil {
				return node{}, err
			}
			list[i] = n
		}
		return node{tag: List, list: list}, nil
	case *types.AttributeValueMemberM:
		fields, err := fieldsOf(av.Value)
		if err != nil {
			return node{}, err
		}
		return node{tag: Map, fields: fields}, nil
	case nil:
		return nullNode, nil
	default:
		return node{}, fmt.Errorf("unsupported attribute value %T", av)
	}
}

func fieldsOf(item Item) ([]field, error) {
	names := make([]string, 0, len(item))
	for name := range item {
		names = append(names, name)
	}
	slices.Sort(names)

	fields := make([]field, len(names))
	for i, name := range names {
		n, err := nodeOf(item[name])
		if err != nil {
			return nil, fmt.Errorf("%q: %w", name, err)
		}
		fields[i] = field{name: name, node: n}
	}
	return fields, nil
}

// MarshalItemJSON renders item in the DynamoDB attribute value JSON format.
// Map keys are written in sorted order.
func MarshalItemJSON(item Item) ([]byte, error) {
	fields, err := fieldsOf(item)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	writeFields(&buf, fields)
	return buf.Bytes(), nil
}

func writeFields(buf *bytes.Buffer, fields []field) {
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(buf, f.name)
		buf.WriteByte(':')
		f.node.writeJSON(buf)
	}
	buf.WriteByte('}')
}

func (n node) writeJSON(buf *bytes.Buffer) {
	buf.WriteByte('{')
	writeString(buf, string(n.tag))
	buf.WriteByte(':')

	switch n.tag {
	case String, Number:
		writeString(buf, n.str)
	case Binary:
		writeString(buf, base64.StdEncoding.EncodeToString(n.bin))
	case Bool:
		if n.flag {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case List:
		buf.WriteByte('[')
		for i, e := range n.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			e.writeJSON(buf)
		}
		buf.WriteByte(']')
	case Map:
		writeFields(buf, n.fields)
	case StringSet, NumberSet:
		writeStrings(buf, n.strs)
	case BinarySet:
		strs := make([]string, len(n.bins))
		for i, b := range n.bins {
			strs[i] = base64.StdEncoding.EncodeToString(b)
		}
		writeStrings(buf, strs)
	default:
		buf.WriteString("true")
	}

	buf.WriteByte('}')
}

func writeStrings(buf *bytes.Buffer, strs []string) {
	buf.WriteByte('[')
	for i, s := range strs {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(buf, s)
	}
	buf.WriteByte(']')
}

func writeString(buf *bytes.Buffer, s string) {
	// marshaling a string cannot fail
	b, _ := json.Marshal(s)
	buf.Write(b)
}

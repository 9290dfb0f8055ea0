package dynafield

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"slices"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/shopspring/decimal"
)

// DefaultMaxDepth is the nesting depth beyond which encoding fails with
// ErrCyclicGraph.
const DefaultMaxDepth = 128

// Options configures an Encoder.
type Options struct {
	Casters  []Caster // registered ahead of DefaultCasters
	MaxDepth int      // maximum nesting of maps and lists
}

func (o *Options) apply(opts []func(*Options)) {
	for _, opt := range opts {
		opt(o)
	}
}

// Encoder converts tagged structs into DynamoDB items. An Encoder holds no
// per-call state and may be shared by concurrent goroutines.
type Encoder struct {
	casters  *CasterChain
	maxDepth int
}

// NewEncoder returns an Encoder using the default casters, preceded by any
// casters set in the options.
func NewEncoder(opts ...func(*Options)) *Encoder {
	options := Options{MaxDepth: DefaultMaxDepth}
	options.apply(opts)
	if options.MaxDepth <= 0 {
		options.MaxDepth = DefaultMaxDepth
	}

	chain := NewCasterChain()
	chain.Prepend(options.Casters...)

	return &Encoder{casters: chain, maxDepth: options.MaxDepth}
}

// Casters returns the encoder's caster chain. Casters registered with
// Prepend take priority over the defaults.
func (e *Encoder) Casters() *CasterChain { return e.casters }

// Encode converts v, a tagged struct (or pointer to one) or a string-keyed
// map, into an item. Fields that were never assigned are left out.
func (e *Encoder) Encode(v any) (Item, error) {
	fields, err := e.encode(v)
	if err != nil {
		return nil, err
	}
	return itemOf(fields), nil
}

// EncodeJSON converts v like Encode and renders the item as attribute value
// JSON, with fields in declaration order.
func (e *Encoder) EncodeJSON(v any) ([]byte, error) {
	fields, err := e.encode(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	writeFields(&buf, fields)
	return buf.Bytes(), nil
}

// TableName returns the table of v. A TableNamer takes precedence over the
// Table marker of v's type.
func (e *Encoder) TableName(v any) (string, error) {
	if namer, ok := v.(TableNamer); ok {
		if name := namer.TableName(); name != "" {
			return name, nil
		}
	}
	d, err := DescribeValue(v)
	if err != nil {
		return "", err
	}
	return d.Table()
}

// PutRequest is the put-style encoding of an item.
type PutRequest struct {
	TableName string
	Item      Item
	fields    []field
}

// MarshalJSON renders the request as {"TableName": ..., "Item": ...}.
func (p *PutRequest) MarshalJSON() ([]byte, error) {
	fields := p.fields
	if fields == nil {
		var err error
		if fields, err = fieldsOf(p.Item); err != nil {
			return nil, err
		}
	}
	var buf bytes.Buffer
	buf.WriteString(`{"TableName":`)
	writeString(&buf, p.TableName)
	buf.WriteString(`,"Item":`)
	writeFields(&buf, fields)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// EncodePut encodes v together with its table name. It fails with
// ErrMissingTableMetadata for embedded-only types.
func (e *Encoder) EncodePut(v any) (*PutRequest, error) {
	table, err := e.TableName(v)
	if err != nil {
		return nil, err
	}
	fields, err := e.encode(v)
	if err != nil {
		return nil, err
	}
	return &PutRequest{TableName: table, Item: itemOf(fields), fields: fields}, nil
}

func (e *Encoder) encode(v any) ([]field, error) {
	s := &encodeState{Encoder: e, visiting: map[identity]struct{}{}}
	val := ValueOf(v)

	switch val.Kind() {
	case KindStruct:
		leave, err := s.enter(val)
		if err != nil {
			return nil, err
		}
		defer leave()
		return s.encodeStruct(val)
	case KindMapping:
		leave, err := s.enter(val)
		if err != nil {
			return nil, err
		}
		defer leave()
		return s.encodeMapping(val)
	}
	return nil, fmt.Errorf("%w: cannot encode %s as an item", ErrNotStruct, val.TypeName())
}

type identity struct {
	typ reflect.Type
	ptr uintptr
	len int
}

// encodeState tracks the containers on the current recursion path.
type encodeState struct {
	*Encoder
	depth    int
	visiting map[identity]struct{}
}

func (s *encodeState) enter(v Value) (func(), error) {
	s.depth++
	if s.depth > s.maxDepth {
		s.depth--
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrCyclicGraph, s.maxDepth)
	}

	id, ok := identityOf(v)
	if ok {
		if _, seen := s.visiting[id]; seen {
			s.depth--
			return nil, fmt.Errorf("%w: %s refers to itself", ErrCyclicGraph, v.TypeName())
		}
		s.visiting[id] = struct{}{}
	}

	return func() {
		s.depth--
		if ok {
			delete(s.visiting, id)
		}
	}, nil
}

func identityOf(v Value) (identity, bool) {
	rv := v.rv
	switch {
	case v.Kind() == KindStruct && rv.CanAddr():
		return identity{typ: rv.Type(), ptr: rv.Addr().Pointer()}, true
	case rv.Kind() == reflect.Map, rv.Kind() == reflect.Slice && rv.Len() > 0:
		return identity{typ: rv.Type(), ptr: rv.Pointer(), len: rv.Len()}, true
	}
	return identity{}, false
}

func (s *encodeState) encodeStruct(v Value) ([]field, error) {
	d, err := Describe(v.rv.Type())
	if err != nil {
		return nil, err
	}

	fields := make([]field, 0, len(d.Fields))
	for _, f := range d.Fields {
		fv, ok := fieldByIndex(v.rv, f.Index)
		if !ok || !initialized(fv, f) {
			continue
		}

		n, err := s.encodeTagged(valueOf(fv), f.Tag)
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", f.Name, err)
		}
		fields = append(fields, field{name: f.Name, node: n})
	}
	return fields, nil
}

func (s *encodeState) encodeMapping(v Value) ([]field, error) {
	keys := v.Keys()
	fields := make([]field, 0, len(keys))
	for _, key := range keys {
		elem := v.MapIndex(key)
		n, err := s.encodeTagged(elem, Infer(elem))
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", key, err)
		}
		fields = append(fields, field{name: key, node: n})
	}
	return fields, nil
}

// fieldByIndex follows index through embedded structs. It reports false when
// an embedded pointer on the path is nil.
func fieldByIndex(rv reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return reflect.Value{}, false
			}
			rv = rv.Elem()
		}
		rv = exported(rv.Field(x))
	}
	return rv, true
}

// initialized reports whether a field value was ever assigned: an unset
// Optional, or a zero value under omitempty, was not.
func initialized(fv reflect.Value, f Field) bool {
	if fv.Kind() == reflect.Pointer && fv.IsNil() {
		return !f.OmitEmpty
	}
	if fv.CanInterface() {
		if opt, ok := fv.Interface().(optional); ok {
			_, set := opt.optionalValue()
			return set
		}
	}
	return !(f.OmitEmpty && fv.IsZero())
}

func (s *encodeState) encodeTagged(v Value, tag Tag) (node, error) {
	if v.IsNull() || tag == Null {
		return nullNode, nil
	}
	if n, ok, err := marshaled(v); ok || err != nil {
		return n, err
	}

	switch tag {
	case String, Number:
		str, err := s.casters.Cast(v, tag)
		if err != nil {
			return node{}, err
		}
		return node{tag: tag, str: str}, nil

	case Bool:
		return node{tag: Bool, flag: truthy(v)}, nil

	case Binary:
		b, err := binaryOf(v, tag)
		if err != nil {
			return node{}, err
		}
		return node{tag: Binary, bin: b}, nil

	case StringSet, NumberSet:
		elems, err := elementsOf(v, tag)
		if err != nil {
			return node{}, err
		}
		strs := make([]string, len(elems))
		for i, e := range elems {
			if strs[i], err = s.casters.Cast(e, String); err != nil {
				return node{}, fmt.Errorf("element %d: %w", i, err)
			}
		}
		return node{tag: tag, strs: strs}, nil

	case BinarySet:
		elems, err := elementsOf(v, tag)
		if err != nil {
			return node{}, err
		}
		bins := make([][]byte, len(elems))
		for i, e := range elems {
			if bins[i], err = binaryOf(e, tag); err != nil {
				return node{}, fmt.Errorf("element %d: %w", i, err)
			}
		}
		return node{tag: BinarySet, bins: bins}, nil

	case List:
		elems, err := elementsOf(v, tag)
		if err != nil {
			return node{}, err
		}
		leave, err := s.enter(v)
		if err != nil {
			return node{}, err
		}
		defer leave()

		list := make([]node, len(elems))
		for i, e := range elems {
			if list[i], err = s.encodeTagged(e, Infer(e)); err != nil {
				return node{}, fmt.Errorf("element %d: %w", i, err)
			}
		}
		return node{tag: List, list: list}, nil

	case Map:
		if v.Kind() != KindStruct && v.Kind() != KindMapping {
			return node{}, &MismatchError{Type: v.TypeName(), Tag: tag}
		}
		leave, err := s.enter(v)
		if err != nil {
			return node{}, err
		}
		defer leave()

		var fields []field
		if v.Kind() == KindStruct {
			fields, err = s.encodeStruct(v)
		} else {
			fields, err = s.encodeMapping(v)
		}
		if err != nil {
			return node{}, err
		}
		return node{tag: Map, fields: fields}, nil
	}

	return node{}, fmt.Errorf("%w: %q", ErrInvalidTag, tag)
}

// marshaled encodes values implementing attributevalue.Marshaler with their
// own method.
func marshaled(v Value) (node, bool, error) {
	rv := v.rv
	if !rv.IsValid() {
		return node{}, false, nil
	}

	var m attributevalue.Marshaler
	if rv.CanInterface() {
		m, _ = rv.Interface().(attributevalue.Marshaler)
	}
	if m == nil && rv.CanAddr() && rv.Addr().CanInterface() {
		m, _ = rv.Addr().Interface().(attributevalue.Marshaler)
	}
	if m == nil {
		return node{}, false, nil
	}

	av, err := m.MarshalDynamoDBAttributeValue()
	if err != nil {
		return node{}, true, fmt.Errorf("marshal %s: %w", v.TypeName(), err)
	}
	n, err := nodeOf(av)
	return n, true, err
}

func elementsOf(v Value, tag Tag) ([]Value, error) {
	if v.Kind() != KindList && v.Kind() != KindMapping {
		return nil, &MismatchError{Type: v.TypeName(), Tag: tag}
	}
	return v.Elements(), nil
}

// binaryOf returns the raw bytes of a binary value. Strings are expected to
// hold base64 already, so the wire form shows them unchanged.
func binaryOf(v Value, tag Tag) ([]byte, error) {
	switch v.Kind() {
	case KindBytes:
		return slices.Clone(v.Bytes()), nil
	case KindString:
		b, err := base64.StdEncoding.DecodeString(v.String())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBinary, err)
		}
		return b, nil
	}
	return nil, &MismatchError{Type: v.TypeName(), Tag: tag}
}

func truthy(v Value) bool {
	switch v.Kind() {
	case KindBool:
		return v.Bool()
	case KindString:
		if b, err := strconv.ParseBool(v.String()); err == nil {
			return b
		}
		return v.String() != ""
	case KindNumber:
		return !numberIsZero(v)
	case KindBytes:
		return len(v.Bytes()) > 0
	case KindList, KindMapping:
		return v.Len() > 0
	}
	return true
}

func numberIsZero(v Value) bool {
	switch n := v.Interface().(type) {
	case json.Number:
		d, err := decimal.NewFromString(string(n))
		return err == nil && d.IsZero()
	case decimal.Decimal:
		return n.IsZero()
	case *big.Int:
		return n.Sign() == 0
	case *big.Float:
		return n.Sign() == 0
	}
	switch v.rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.rv.Float() == 0
	}
	return v.rv.IsZero()
}

package dynafield

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"slices"
	"time"
	"unsafe"

	"github.com/shopspring/decimal"
)

// Kind is the closed set of runtime shapes a Go value is reduced to before
// casting and inference.
type Kind int

const (
	KindOther Kind = iota
	KindNull
	KindBool
	KindString
	KindNumber
	KindTime
	KindBytes
	KindList
	KindMapping
	KindStruct
)

var kindNames = [...]string{"other", "null", "bool", "string", "number", "time", "bytes", "list", "mapping", "struct"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

var (
	timeType     = reflect.TypeFor[time.Time]()
	jsonNumType  = reflect.TypeFor[json.Number]()
	decimalType  = reflect.TypeFor[decimal.Decimal]()
	bigIntType   = reflect.TypeFor[*big.Int]()
	bigFloatType = reflect.TypeFor[*big.Float]()
	optionalType = reflect.TypeFor[optional]()
)

// Value is a Go value classified into a Kind. Pointers and interfaces are
// dereferenced, and Optional wrappers are unwrapped.
type Value struct {
	kind Kind
	rv   reflect.Value
}

// ValueOf classifies v.
func ValueOf(v any) Value {
	return valueOf(reflect.ValueOf(v))
}

func valueOf(rv reflect.Value) Value {
	for {
		if !rv.IsValid() {
			return Value{kind: KindNull}
		}
		rv = exported(rv)

		switch rv.Type() {
		case bigIntType, bigFloatType:
			if rv.IsNil() {
				return Value{kind: KindNull}
			}
			return Value{kind: KindNumber, rv: rv}
		case timeType:
			return Value{kind: KindTime, rv: rv}
		case jsonNumType, decimalType:
			return Value{kind: KindNumber, rv: rv}
		}

		if rv.Kind() == reflect.Struct && rv.Type().Implements(optionalType) {
			inner, _ := rv.Interface().(optional).optionalValue()
			rv = reflect.ValueOf(inner)
			continue
		}

		switch rv.Kind() {
		case reflect.Pointer, reflect.Interface:
			if rv.IsNil() {
				return Value{kind: KindNull}
			}
			rv = rv.Elem()
			continue
		case reflect.Bool:
			return Value{kind: KindBool, rv: rv}
		case reflect.String:
			return Value{kind: KindString, rv: rv}
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
			reflect.Float32, reflect.Float64:
			return Value{kind: KindNumber, rv: rv}
		case reflect.Slice:
			if rv.IsNil() {
				return Value{kind: KindNull}
			}
			if rv.Type().Elem().Kind() == reflect.Uint8 {
				return Value{kind: KindBytes, rv: rv}
			}
			return Value{kind: KindList, rv: rv}
		case reflect.Array:
			return Value{kind: KindList, rv: rv}
		case reflect.Map:
			if rv.IsNil() {
				return Value{kind: KindNull}
			}
			if rv.Type().Key().Kind() == reflect.String {
				return Value{kind: KindMapping, rv: rv}
			}
		case reflect.Struct:
			return Value{kind: KindStruct, rv: addressable(rv)}
		}
		return Value{kind: KindOther, rv: rv}
	}
}

// exported returns a view of rv that permits Interface, so unexported struct
// fields can be mapped like exported ones.
func exported(rv reflect.Value) reflect.Value {
	if rv.CanInterface() || !rv.CanAddr() {
		return rv
	}
	return reflect.NewAt(rv.Type(), unsafe.Pointer(rv.UnsafeAddr())).Elem()
}

// addressable copies rv into fresh storage when needed so its fields can be
// read through exported.
func addressable(rv reflect.Value) reflect.Value {
	if rv.CanAddr() {
		return rv
	}
	cp := reflect.New(rv.Type()).Elem()
	cp.Set(rv)
	return cp
}

func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is nil or an explicitly null Optional.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Interface returns the underlying Go value, or nil for null values.
func (v Value) Interface() any {
	if !v.rv.IsValid() || !v.rv.CanInterface() {
		return nil
	}
	return v.rv.Interface()
}

// TypeName returns the Go type of the value for diagnostics.
func (v Value) TypeName() string {
	if !v.rv.IsValid() {
		return "null"
	}
	return v.rv.Type().String()
}

// Bool returns the boolean content of a KindBool value.
func (v Value) Bool() bool { return v.rv.Bool() }

// String returns the string content of a KindString value. For other kinds
// it returns a placeholder naming the type, mirroring reflect.Value.
func (v Value) String() string {
	if v.kind == KindString {
		return v.rv.String()
	}
	return "<" + v.TypeName() + " Value>"
}

// Time returns the content of a KindTime value.
func (v Value) Time() time.Time { return v.rv.Interface().(time.Time) }

// Bytes returns the content of a KindBytes value.
func (v Value) Bytes() []byte { return v.rv.Bytes() }

// Len returns the number of elements of a list or mapping.
func (v Value) Len() int {
	switch v.kind {
	case KindList, KindMapping:
		return v.rv.Len()
	}
	return 0
}

// Index returns the i-th element of a list.
func (v Value) Index(i int) Value { return valueOf(v.rv.Index(i)) }

// Keys returns the keys of a mapping in sorted order.
func (v Value) Keys() []string {
	keys := make([]string, 0, v.rv.Len())
	for _, k := range v.rv.MapKeys() {
		keys = append(keys, k.String())
	}
	slices.Sort(keys)
	return keys
}

// MapIndex returns the mapping element stored under key.
func (v Value) MapIndex(key string) Value {
	return valueOf(v.rv.MapIndex(reflect.ValueOf(key).Convert(v.rv.Type().Key())))
}

// Elements returns the list elements, or the mapping elements in key order.
func (v Value) Elements() []Value {
	switch v.kind {
	case KindList:
		out := make([]Value, v.rv.Len())
		for i := range out {
			out[i] = v.Index(i)
		}
		return out
	case KindMapping:
		keys := v.Keys()
		out := make([]Value, len(keys))
		for i, k := range keys {
			out[i] = v.MapIndex(k)
		}
		return out
	}
	return nil
}

// optional is implemented by Optional; it reports the wrapped value and
// whether the value was ever assigned.
type optional interface {
	optionalValue() (value any, initialized bool)
}

type optionalState uint8

const (
	unset optionalState = iota
	null
	present
)

// Optional wraps a field value that distinguishes "never assigned" from
// "assigned null". The zero Optional is unassigned and its field is omitted
// from the encoded item; a null Optional encodes as {"NULL": true}.
type Optional[T any] struct {
	value T
	state optionalState
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, state: present}
}

// NullOf returns an Optional explicitly assigned null.
func NullOf[T any]() Optional[T] {
	return Optional[T]{state: null}
}

// Set assigns v.
func (o *Optional[T]) Set(v T) {
	o.value = v
	o.state = present
}

// SetNull assigns null.
func (o *Optional[T]) SetNull() {
	var zero T
	o.value = zero
	o.state = null
}

// Unset returns the Optional to its unassigned state.
func (o *Optional[T]) Unset() {
	var zero T
	o.value = zero
	o.state = unset
}

// Get returns the held value and whether one is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.state == present
}

// Initialized reports whether a value or null was ever assigned.
func (o Optional[T]) Initialized() bool { return o.state != unset }

// IsNull reports whether null was assigned.
func (o Optional[T]) IsNull() bool { return o.state == null }

func (o Optional[T]) optionalValue() (any, bool) {
	if o.state == present {
		return o.value, true
	}
	return nil, o.state == null
}

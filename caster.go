package dynafield

import (
	"encoding/json"
	"math"
	"math/big"
	"reflect"
	"slices"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"
)

// TimeLayout is the ISO-8601 layout used for time values. The numeric offset
// is always written and the value's own location is kept.
const TimeLayout = "2006-01-02T15:04:05-07:00"

// Caster converts a scalar value into the string carried by an S or N
// attribute.
type Caster interface {
	// Supports reports whether the caster can convert v for a field declared
	// with tag.
	Supports(v Value, tag Tag) bool
	// Cast converts v. It is only called when Supports returned true.
	Cast(v Value, tag Tag) (string, error)
}

// CasterFunc adapts a predicate and a conversion function into a Caster.
type CasterFunc struct {
	SupportsFunc func(Value, Tag) bool
	CastFunc     func(Value, Tag) (string, error)
}

func (c CasterFunc) Supports(v Value, tag Tag) bool        { return c.SupportsFunc(v, tag) }
func (c CasterFunc) Cast(v Value, tag Tag) (string, error) { return c.CastFunc(v, tag) }

// TimeCaster formats time.Time values with TimeLayout.
type TimeCaster struct{}

func (TimeCaster) Supports(v Value, _ Tag) bool { return v.Kind() == KindTime }

func (TimeCaster) Cast(v Value, _ Tag) (string, error) {
	return v.Time().Format(TimeLayout), nil
}

// NumberCaster renders numbers as plain decimal strings without exponent
// notation. Floats use the fewest digits that round-trip exactly.
type NumberCaster struct{}

func (NumberCaster) Supports(v Value, _ Tag) bool {
	if v.Kind() != KindNumber {
		return false
	}
	switch n := v.Interface().(type) {
	case json.Number:
		_, err := decimal.NewFromString(string(n))
		return err == nil
	case *big.Float:
		return !n.IsInf()
	}
	switch v.rv.Kind() {
	case reflect.Float32, reflect.Float64:
		f := v.rv.Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	return true
}

func (NumberCaster) Cast(v Value, _ Tag) (string, error) {
	switch n := v.Interface().(type) {
	case json.Number:
		d, err := decimal.NewFromString(string(n))
		if err != nil {
			return "", err
		}
		return d.String(), nil
	case decimal.Decimal:
		return n.String(), nil
	case *big.Int:
		return n.String(), nil
	case *big.Float:
		return n.Text('f', -1), nil
	}

	switch v.rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(v.rv.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(v.rv.Float(), 'f', -1, 32), nil
	default:
		return strconv.FormatFloat(v.rv.Float(), 'f', -1, 64), nil
	}
}

// StringCaster passes strings through unchanged.
type StringCaster struct{}

func (StringCaster) Supports(v Value, _ Tag) bool        { return v.Kind() == KindString }
func (StringCaster) Cast(v Value, _ Tag) (string, error) { return v.String(), nil }

// DefaultCasters returns the built-in casters, most specific first.
func DefaultCasters() []Caster {
	return []Caster{TimeCaster{}, NumberCaster{}, StringCaster{}}
}

// CasterChain holds an ordered list of casters and dispatches to the first
// one that supports a value. Prepend may be called while other goroutines
// cast; the list is replaced rather than modified in place.
type CasterChain struct {
	mu      sync.RWMutex
	casters []Caster
}

// NewCasterChain returns a chain with the given casters in order. With no
// arguments the chain uses DefaultCasters.
func NewCasterChain(casters ...Caster) *CasterChain {
	if len(casters) == 0 {
		casters = DefaultCasters()
	}
	return &CasterChain{casters: slices.Clone(casters)}
}

// Prepend registers c ahead of every caster already in the chain.
func (c *CasterChain) Prepend(casters ...Caster) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.casters = append(slices.Clone(casters), c.casters...)
}

// Casters returns a copy of the chain's casters in dispatch order.
func (c *CasterChain) Casters() []Caster {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.casters)
}

// Cast converts v with the first caster that supports it. It returns a
// *NoCasterFoundError when none does.
func (c *CasterChain) Cast(v Value, tag Tag) (string, error) {
	c.mu.RLock()
	casters := c.casters
	c.mu.RUnlock()

	for _, caster := range casters {
		if caster.Supports(v, tag) {
			return caster.Cast(v, tag)
		}
	}
	return "", &NoCasterFoundError{Type: v.TypeName(), Tag: tag}
}

package dynafield

import (
	"encoding/json"
	"math/big"
	"slices"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestValueOf(t *testing.T) {
	var nilPtr *string
	var nilSlice []string
	var nilMap map[string]int
	s := "x"

	tests := []struct {
		name string
		in   any
		want Kind
	}{
		{"nil", nil, KindNull},
		{"nil pointer", nilPtr, KindNull},
		{"nil slice", nilSlice, KindNull},
		{"nil map", nilMap, KindNull},
		{"nil big int", (*big.Int)(nil), KindNull},
		{"bool", true, KindBool},
		{"string", "s", KindString},
		{"string pointer", &s, KindString},
		{"int", 1, KindNumber},
		{"uint8", uint8(1), KindNumber},
		{"float", 1.5, KindNumber},
		{"json number", json.Number("1.5"), KindNumber},
		{"decimal", decimal.NewFromInt(3), KindNumber},
		{"big int", big.NewInt(3), KindNumber},
		{"big float", big.NewFloat(3), KindNumber},
		{"time", time.Now(), KindTime},
		{"bytes", []byte("b"), KindBytes},
		{"slice", []int{1}, KindList},
		{"empty slice", []int{}, KindList},
		{"array", [2]string{"a", "b"}, KindList},
		{"string map", map[string]int{"a": 1}, KindMapping},
		{"int map", map[int]int{1: 1}, KindOther},
		{"struct", PersonalInfo{}, KindStruct},
		{"channel", make(chan int), KindOther},
		{"some", Some("x"), KindString},
		{"null optional", NullOf[string](), KindNull},
		{"unset optional", Optional[string]{}, KindNull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValueOf(tt.in).Kind(); got != tt.want {
				t.Errorf("Expected kind %s, got %s", tt.want, got)
			}
		})
	}
}

func TestValue_Accessors(t *testing.T) {
	v := ValueOf(map[string]any{"b": 2, "a": "one", "c": nil})

	if keys := v.Keys(); !slices.Equal(keys, []string{"a", "b", "c"}) {
		t.Errorf("Expected sorted keys, got %v", keys)
	}
	if v.Len() != 3 {
		t.Errorf("Expected length 3, got %d", v.Len())
	}

	elems := v.Elements()
	kinds := []Kind{elems[0].Kind(), elems[1].Kind(), elems[2].Kind()}
	if !slices.Equal(kinds, []Kind{KindString, KindNumber, KindNull}) {
		t.Errorf("Expected elements in key order, got %v", kinds)
	}

	if got := v.MapIndex("a").String(); got != "one" {
		t.Errorf("Expected one, got %s", got)
	}

	list := ValueOf([]string{"x", "y"})
	if got := list.Index(1).String(); got != "y" {
		t.Errorf("Expected y, got %s", got)
	}

	if got := ValueOf(nil).TypeName(); got != "null" {
		t.Errorf("Expected null type name, got %s", got)
	}
	if got := ValueOf(3).String(); got != "<int Value>" {
		t.Errorf("Expected placeholder, got %s", got)
	}
}

func TestValue_NamedKeyMap(t *testing.T) {
	type key string
	v := ValueOf(map[key]int{"a": 1})

	if v.Kind() != KindMapping {
		t.Fatalf("Expected mapping, got %s", v.Kind())
	}
	if got := v.MapIndex("a").Interface(); got != 1 {
		t.Errorf("Expected 1, got %v", got)
	}
}

func TestOptional(t *testing.T) {
	var o Optional[int]

	if o.Initialized() {
		t.Error("Expected zero Optional to be uninitialized")
	}

	o.Set(5)
	if got, ok := o.Get(); !ok || got != 5 {
		t.Errorf("Expected 5, got %d (%t)", got, ok)
	}

	o.SetNull()
	if !o.IsNull() || !o.Initialized() {
		t.Error("Expected null Optional to be initialized and null")
	}
	if _, ok := o.Get(); ok {
		t.Error("Expected null Optional to hold no value")
	}

	o.Unset()
	if o.Initialized() || o.IsNull() {
		t.Error("Expected Unset to clear the Optional")
	}

	if v, ok := Some("x").Get(); !ok || v != "x" {
		t.Errorf("Expected Some to hold x, got %q", v)
	}
}

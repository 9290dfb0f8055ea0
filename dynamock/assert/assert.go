// Package assert provides fluent assertion utilities for testing encoded
// DynamoDB items. It makes tests more readable by checking attribute type
// tags and values in one call.
//
// # Usage
//
//	import "github.com/nisimpson/dynafield/dynamock/assert"
//
//	// Assert on a single item
//	assert.Item(t, item).
//		HasCount(3).
//		HasString("id", "p1").
//		HasNumber("price", "13.37").
//		Lacks("draft")
//
//	// Descend into nested values
//	assert.Item(t, item).Map("info").HasString("en", "Chair")
//	assert.Item(t, item).List("tags").HasLength(2).HasTagAt(0, "S")
//
//	// Assert on a batch of items
//	assert.Items(t, items).HasCount(2).HasAttribute("id", "p1")
package assert

import (
	"bytes"
	"slices"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TagOf returns the wire key of an attribute value ("S", "N", "M", ...), or
// an empty string for unknown members.
func TagOf(av types.AttributeValue) string {
	switch av.(type) {
	case *types.AttributeValueMemberS:
		return "S"
	case *types.AttributeValueMemberN:
		return "N"
	case *types.AttributeValueMemberB:
		return "B"
	case *types.AttributeValueMemberBOOL:
		return "BOOL"
	case *types.AttributeValueMemberNULL:
		return "NULL"
	case *types.AttributeValueMemberL:
		return "L"
	case *types.AttributeValueMemberM:
		return "M"
	case *types.AttributeValueMemberSS:
		return "SS"
	case *types.AttributeValueMemberNS:
		return "NS"
	case *types.AttributeValueMemberBS:
		return "BS"
	}
	return ""
}

// ItemAssertion provides fluent assertions for a single item or map value.
type ItemAssertion struct {
	t    *testing.T
	item map[string]types.AttributeValue
	path string
}

// Item creates a new ItemAssertion for the given item.
func Item(t *testing.T, item map[string]types.AttributeValue) *ItemAssertion {
	return &ItemAssertion{t: t, item: item}
}

func (a *ItemAssertion) name(attr string) string {
	if a.path == "" {
		return attr
	}
	return a.path + "." + attr
}

// get returns the attribute if it exists and carries the expected tag.
func (a *ItemAssertion) get(attr, tag string) (types.AttributeValue, bool) {
	a.t.Helper()
	av, exists := a.item[attr]
	if !exists {
		a.t.Errorf("expected attribute %s to exist", a.name(attr))
		return nil, false
	}
	if got := TagOf(av); got != tag {
		a.t.Errorf("expected attribute %s to have tag %s, got %s", a.name(attr), tag, got)
		return nil, false
	}
	return av, true
}

// HasCount asserts the number of attributes.
func (a *ItemAssertion) HasCount(expected int) *ItemAssertion {
	a.t.Helper()
	if len(a.item) != expected {
		a.t.Errorf("expected %d attributes, got %d", expected, len(a.item))
	}
	return a
}

// HasTag asserts that the attribute exists with the given wire tag.
func (a *ItemAssertion) HasTag(attr, tag string) *ItemAssertion {
	a.t.Helper()
	a.get(attr, tag)
	return a
}

// Lacks asserts that the attribute is absent.
func (a *ItemAssertion) Lacks(attr string) *ItemAssertion {
	a.t.Helper()
	if _, exists := a.item[attr]; exists {
		a.t.Errorf("expected attribute %s to be absent", a.name(attr))
	}
	return a
}

// HasString asserts an S attribute value.
func (a *ItemAssertion) HasString(attr, expected string) *ItemAssertion {
	a.t.Helper()
	if av, ok := a.get(attr, "S"); ok {
		if got := av.(*types.AttributeValueMemberS).Value; got != expected {
			a.t.Errorf("expected %s to be %q, got %q", a.name(attr), expected, got)
		}
	}
	return a
}

// HasNumber asserts an N attribute value.
func (a *ItemAssertion) HasNumber(attr, expected string) *ItemAssertion {
	a.t.Helper()
	if av, ok := a.get(attr, "N"); ok {
		if got := av.(*types.AttributeValueMemberN).Value; got != expected {
			a.t.Errorf("expected %s to be %s, got %s", a.name(attr), expected, got)
		}
	}
	return a
}

// HasBool asserts a BOOL attribute value.
func (a *ItemAssertion) HasBool(attr string, expected bool) *ItemAssertion {
	a.t.Helper()
	if av, ok := a.get(attr, "BOOL"); ok {
		if got := av.(*types.AttributeValueMemberBOOL).Value; got != expected {
			a.t.Errorf("expected %s to be %t, got %t", a.name(attr), expected, got)
		}
	}
	return a
}

// HasNull asserts a NULL attribute.
func (a *ItemAssertion) HasNull(attr string) *ItemAssertion {
	a.t.Helper()
	a.get(attr, "NULL")
	return a
}

// HasBinary asserts a B attribute value.
func (a *ItemAssertion) HasBinary(attr string, expected []byte) *ItemAssertion {
	a.t.Helper()
	if av, ok := a.get(attr, "B"); ok {
		if got := av.(*types.AttributeValueMemberB).Value; !bytes.Equal(got, expected) {
			a.t.Errorf("expected %s to be %v, got %v", a.name(attr), expected, got)
		}
	}
	return a
}

// HasStringSet asserts an SS attribute and its members in order.
func (a *ItemAssertion) HasStringSet(attr string, expected ...string) *ItemAssertion {
	a.t.Helper()
	if av, ok := a.get(attr, "SS"); ok {
		if got := av.(*types.AttributeValueMemberSS).Value; !slices.Equal(got, expected) {
			a.t.Errorf("expected %s to be %q, got %q", a.name(attr), expected, got)
		}
	}
	return a
}

// HasNumberSet asserts an NS attribute and its members in order.
func (a *ItemAssertion) HasNumberSet(attr string, expected ...string) *ItemAssertion {
	a.t.Helper()
	if av, ok := a.get(attr, "NS"); ok {
		if got := av.(*types.AttributeValueMemberNS).Value; !slices.Equal(got, expected) {
			a.t.Errorf("expected %s to be %q, got %q", a.name(attr), expected, got)
		}
	}
	return a
}

// HasBinarySet asserts a BS attribute and its members in order.
func (a *ItemAssertion) HasBinarySet(attr string, expected ...[]byte) *ItemAssertion {
	a.t.Helper()
	if av, ok := a.get(attr, "BS"); ok {
		got := av.(*types.AttributeValueMemberBS).Value
		if !slices.EqualFunc(got, expected, bytes.Equal) {
			a.t.Errorf("expected %s to be %v, got %v", a.name(attr), expected, got)
		}
	}
	return a
}

// Map asserts an M attribute and returns an assertion on its contents.
func (a *ItemAssertion) Map(attr string) *ItemAssertion {
	a.t.Helper()
	nested := &ItemAssertion{t: a.t, path: a.name(attr)}
	if av, ok := a.get(attr, "M"); ok {
		nested.item = av.(*types.AttributeValueMemberM).Value
	}
	return nested
}

// List asserts an L attribute and returns an assertion on its elements.
func (a *ItemAssertion) List(attr string) *ListAssertion {
	a.t.Helper()
	list := &ListAssertion{t: a.t, path: a.name(attr)}
	if av, ok := a.get(attr, "L"); ok {
		list.values = av.(*types.AttributeValueMemberL).Value
	}
	return list
}

// ListAssertion provides fluent assertions for the elements of an L value.
type ListAssertion struct {
	t      *testing.T
	values []types.AttributeValue
	path   string
}

// HasLength asserts the number of elements.
func (a *ListAssertion) HasLength(expected int) *ListAssertion {
	a.t.Helper()
	if len(a.values) != expected {
		a.t.Errorf("expected %s to have %d elements, got %d", a.path, expected, len(a.values))
	}
	return a
}

// Tags asserts the wire tag of every element, in order.
func (a *ListAssertion) Tags(expected ...string) *ListAssertion {
	a.t.Helper()
	got := make([]string, len(a.values))
	for i, av := range a.values {
		got[i] = TagOf(av)
	}
	if !slices.Equal(got, expected) {
		a.t.Errorf("expected %s element tags %v, got %v", a.path, expected, got)
	}
	return a
}

// HasTagAt asserts the wire tag of element i.
func (a *ListAssertion) HasTagAt(i int, tag string) *ListAssertion {
	a.t.Helper()
	if i >= len(a.values) {
		a.t.Errorf("expected %s to have element %d", a.path, i)
		return a
	}
	if got := TagOf(a.values[i]); got != tag {
		a.t.Errorf("expected %s[%d] to have tag %s, got %s", a.path, i, tag, got)
	}
	return a
}

// MapAt asserts that element i is an M value and returns an assertion on it.
func (a *ListAssertion) MapAt(i int) *ItemAssertion {
	a.t.Helper()
	nested := &ItemAssertion{t: a.t, path: a.path}
	if i < len(a.values) {
		if m, ok := a.values[i].(*types.AttributeValueMemberM); ok {
			nested.item = m.Value
			return nested
		}
	}
	a.t.Errorf("expected %s[%d] to be a map", a.path, i)
	return nested
}

// ItemsAssertion provides fluent assertions for a collection of items.
type ItemsAssertion struct {
	t     *testing.T
	items []map[string]types.AttributeValue
}

// Items creates a new ItemsAssertion for the given items.
func Items(t *testing.T, items []map[string]types.AttributeValue) *ItemsAssertion {
	return &ItemsAssertion{t: t, items: items}
}

// HasCount asserts that the items collection has the expected count.
func (a *ItemsAssertion) HasCount(expected int) *ItemsAssertion {
	a.t.Helper()
	if len(a.items) != expected {
		a.t.Errorf("expected %d items, got %d", expected, len(a.items))
	}
	return a
}

// HasAttribute asserts that at least one item has the S attribute with the expected value.
func (a *ItemsAssertion) HasAttribute(attr, expected string) *ItemsAssertion {
	a.t.Helper()
	for _, item := range a.items {
		if s, ok := item[attr].(*types.AttributeValueMemberS); ok && s.Value == expected {
			return a
		}
	}
	a.t.Errorf("expected to find attribute %s with value %s in items", attr, expected)
	return a
}

package dynafield

import (
	"fmt"
	"strings"
)

// Tag identifies one of the DynamoDB attribute value variants. The string
// value of each Tag is the key used on the wire.
//
// See https://docs.aws.amazon.com/amazondynamodb/latest/APIReference/API_AttributeValue.html
type Tag string

const (
	String    Tag = "S"    // "S": "Hello"
	Number    Tag = "N"    // "N": "123.45"
	Binary    Tag = "B"    // "B": "dGhpcyB0ZXh0IGlzIGJhc2U2NC1lbmNvZGVk"
	Bool      Tag = "BOOL" // "BOOL": true
	Null      Tag = "NULL" // "NULL": true
	List      Tag = "L"    // "L": [{"S": "Cookies"}, {"N": "3.14159"}]
	Map       Tag = "M"    // "M": {"Name": {"S": "Joe"}, "Age": {"N": "35"}}
	StringSet Tag = "SS"   // "SS": ["Giraffe", "Hippo", "Zebra"]
	NumberSet Tag = "NS"   // "NS": ["42.2", "-19", "7.5"]
	BinarySet Tag = "BS"   // "BS": ["U3Vubnk=", "UmFpbnk="]
)

var tagAliases = map[string]Tag{
	"s":         String,
	"string":    String,
	"n":         Number,
	"number":    Number,
	"b":         Binary,
	"binary":    Binary,
	"bool":      Bool,
	"null":      Null,
	"l":         List,
	"list":      List,
	"m":         Map,
	"map":       Map,
	"ss":        StringSet,
	"stringset": StringSet,
	"ns":        NumberSet,
	"numberset": NumberSet,
	"bs":        BinarySet,
	"binaryset": BinarySet,
}

// ParseTag parses a wire key ("SS") or its long alias ("stringset"),
// ignoring case.
func ParseTag(s string) (Tag, error) {
	if tag, ok := tagAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return tag, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTag, s)
}

// IsSet reports whether the tag is one of the set variants.
func (t Tag) IsSet() bool {
	return t == StringSet || t == NumberSet || t == BinarySet
}

// Valid reports whether t is a known variant.
func (t Tag) Valid() bool {
	switch t {
	case String, Number, Binary, Bool, Null, List, Map, StringSet, NumberSet, BinarySet:
		return true
	}
	return false
}

func (t Tag) String() string { return string(t) }

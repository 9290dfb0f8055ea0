package dynafield

import "encoding/base64"

// Infer classifies a value that has no declared tag.
//
// Slices and arrays whose elements are all strings, all numbers or all
// binary become sets; any other sequence becomes a list. Empty sequences are
// never sets, since DynamoDB rejects empty sets. Structs and string-keyed
// maps become maps.
//
// Binary detection of strings is a heuristic: a string counts as binary when
// it survives a base64 decode/encode round trip, so short alphanumeric
// strings such as "abcd" qualify. It is only consulted for collections that
// mix []byte with strings. Declare a tag on the field when the exact variant
// matters.
func Infer(v Value) Tag {
	switch v.Kind() {
	case KindNull:
		return Null
	case KindBool:
		return Bool
	case KindString:
		return String
	case KindNumber:
		return Number
	case KindBytes:
		return Binary
	case KindList:
		elems := v.Elements()
		switch {
		case len(elems) == 0:
		case all(elems, isString):
			return StringSet
		case all(elems, isNumber):
			return NumberSet
		case all(elems, isBinary):
			return BinarySet
		}
		return List
	case KindTime:
		return String
	case KindStruct, KindMapping:
		return Map
	}
	return String
}

// IsBase64 reports whether s is standard base64 that re-encodes to itself.
func IsBase64(s string) bool {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return false
	}
	return base64.StdEncoding.EncodeToString(b) == s
}

func all(elems []Value, pred func(Value) bool) bool {
	for _, e := range elems {
		if !pred(e) {
			return false
		}
	}
	return true
}

func isString(v Value) bool { return v.Kind() == KindString }
func isNumber(v Value) bool { return v.Kind() == KindNumber }

func isBinary(v Value) bool {
	switch v.Kind() {
	case KindBytes:
		return true
	case KindString:
		return IsBase64(v.String())
	}
	return false
}

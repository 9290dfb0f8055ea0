package dynafield

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingTableMetadata is returned when a table name is requested for a
	// type that carries no Table marker.
	ErrMissingTableMetadata = errors.New("missing table metadata")
	// ErrNoCasterFound is returned when no caster in the chain supports a value.
	ErrNoCasterFound = errors.New("no caster found")
	// ErrCyclicGraph is returned when the object graph refers back to itself
	// or nests deeper than the configured maximum depth.
	ErrCyclicGraph = errors.New("cyclic graph detected")
	// ErrDuplicateField is returned when two fields at the same embedding depth
	// map to the same attribute name.
	ErrDuplicateField = errors.New("duplicate field")
	// ErrInvalidTag is returned for unknown type tags.
	ErrInvalidTag = errors.New("invalid type tag")
	// ErrNotStruct is returned when a descriptor is requested for a non-struct type.
	ErrNotStruct = errors.New("not a struct")
	// ErrTypeMismatch is returned when a value's shape cannot be encoded with
	// its declared tag.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrInvalidBinary is returned when a string declared as binary is not
	// valid base64.
	ErrInvalidBinary = errors.New("invalid binary value")
	// ErrMissingKey is returned when an update request lacks key attributes.
	ErrMissingKey = errors.New("missing key attribute")
	// ErrEmptyUpdate is returned when an update request has nothing to set.
	ErrEmptyUpdate = errors.New("no attributes to update")
)

// NoCasterFoundError describes a scalar that reached the caster chain
// without a matching strategy.
type NoCasterFoundError struct {
	Type string // runtime type of the offending value
	Tag  Tag    // declared tag of the field
}

func (e *NoCasterFoundError) Error() string {
	return fmt.Sprintf("no caster found for value of type %q on property for dynamo type %q", e.Type, e.Tag)
}

func (e *NoCasterFoundError) Is(target error) bool { return target == ErrNoCasterFound }

// MismatchError describes a value whose shape does not fit its declared tag,
// such as a list tag on a scalar.
type MismatchError struct {
	Type string
	Tag  Tag
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("cannot encode value of type %q as %q", e.Type, e.Tag)
}

func (e *MismatchError) Is(target error) bool { return target == ErrTypeMismatch }

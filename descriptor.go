package dynafield

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// TagKey is the struct tag key read by Describe.
const TagKey = "dynafield"

// Table marks a struct as a root item stored in a table. Embed it directly
// in the struct with the table name as its tag:
//
//	type Product struct {
//	    dynafield.Table `dynafield:"products"`
//	    ID string `dynafield:"id,S"`
//	}
//
// The marker is not inherited: a struct embedding Product is embedded-only
// unless it declares its own Table.
type Table struct{}

var tableType = reflect.TypeFor[Table]()

// TableNamer lets a value choose its table at encode time, overriding the
// Table marker.
type TableNamer interface {
	TableName() string
}

// Field describes one mapped struct field.
type Field struct {
	Name      string // attribute name
	Tag       Tag    // declared type tag
	OmitEmpty bool   // a zero value is treated as never assigned
	Index     []int  // reflect index path, through embedded structs
	depth     int
}

// Descriptor is the mapping metadata of a struct type.
type Descriptor struct {
	Type      reflect.Type
	TableName string  // empty for embedded-only types
	Fields    []Field // ancestors first, in declaration order
}

// Table returns the table name, or ErrMissingTableMetadata when the type has
// no Table marker.
func (d *Descriptor) Table() (string, error) {
	if d.TableName == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingTableMetadata, d.Type)
	}
	return d.TableName, nil
}

// Field returns the descriptor of the named attribute.
func (d *Descriptor) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

var descriptors sync.Map // reflect.Type -> *Descriptor

// Describe returns the descriptor of t, which must be a struct or a pointer
// to one. Results are cached per type.
func Describe(t reflect.Type) (*Descriptor, error) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %v", ErrNotStruct, t)
	}

	if d, ok := descriptors.Load(t); ok {
		return d.(*Descriptor), nil
	}

	d, err := buildDescriptor(t)
	if err != nil {
		return nil, err
	}

	actual, _ := descriptors.LoadOrStore(t, d)
	return actual.(*Descriptor), nil
}

// DescribeValue is a convenience for Describe(reflect.TypeOf(v)).
func DescribeValue(v any) (*Descriptor, error) {
	return Describe(reflect.TypeOf(v))
}

func buildDescriptor(t reflect.Type) (*Descriptor, error) {
	d := &Descriptor{Type: t}

	for i := range t.NumField() {
		sf := t.Field(i)
		if sf.Anonymous && sf.Type == tableType {
			d.TableName = sf.Tag.Get(TagKey)
			break
		}
	}

	collected, err := collectFields(t, nil, 0, map[reflect.Type]bool{})
	if err != nil {
		return nil, err
	}

	positions := make(map[string]int, len(collected))
	for _, f := range collected {
		pos, seen := positions[f.Name]
		switch {
		case !seen:
			positions[f.Name] = len(d.Fields)
			d.Fields = append(d.Fields, f)
		case f.depth < d.Fields[pos].depth:
			d.Fields[pos] = f
		case f.depth == d.Fields[pos].depth:
			return nil, fmt.Errorf("%w: %q declared twice in %s", ErrDuplicateField, f.Name, t)
		}
	}

	return d, nil
}

// collectFields walks t, emitting the fields of embedded structs before the
// fields t declares itself.
func collectFields(t reflect.Type, index []int, depth int, visiting map[reflect.Type]bool) ([]Field, error) {
	if visiting[t] {
		return nil, nil
	}
	visiting[t] = true
	defer delete(visiting, t)

	var inherited, own []Field

	for i := range t.NumField() {
		sf := t.Field(i)
		path := append(append([]int(nil), index...), i)
		raw, tagged := sf.Tag.Lookup(TagKey)

		if sf.Anonymous && sf.Type == tableType {
			continue
		}
		if raw == "-" {
			continue
		}

		if sf.Anonymous && !tagged {
			et := sf.Type
			if et.Kind() == reflect.Pointer {
				et = et.Elem()
			}
			if et.Kind() != reflect.Struct {
				continue
			}
			fields, err := collectFields(et, path, depth+1, visiting)
			if err != nil {
				return nil, err
			}
			inherited = append(inherited, fields...)
			continue
		}

		if !tagged {
			continue
		}

		f, err := parseField(sf, raw)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t, sf.Name, err)
		}
		f.Index = path
		f.depth = depth
		own = append(own, f)
	}

	return append(inherited, own...), nil
}

func parseField(sf reflect.StructField, raw string) (Field, error) {
	parts := strings.Split(raw, ",")
	f := Field{Name: strings.TrimSpace(parts[0])}
	if f.Name == "" {
		f.Name = sf.Name
	}

	for _, opt := range parts[1:] {
		opt = strings.TrimSpace(opt)
		switch {
		case opt == "":
		case strings.EqualFold(opt, "omitempty"):
			f.OmitEmpty = true
		case f.Tag == "":
			tag, err := ParseTag(opt)
			if err != nil {
				return f, err
			}
			f.Tag = tag
		default:
			return f, fmt.Errorf("%w: unexpected option %q", ErrInvalidTag, opt)
		}
	}

	if f.Tag == "" {
		return f, fmt.Errorf("%w: no type tag for %q", ErrInvalidTag, f.Name)
	}
	return f, nil
}

// Package dynafield encodes tagged Go structs into DynamoDB attribute value
// items for the AWS SDK for Go v2.
//
// Every mapped field declares the attribute value variant it is stored as,
// so the produced item never depends on guessing:
//
//	type Product struct {
//	    dynafield.Table `dynafield:"products"`
//
//	    ID     string    `dynafield:"id,S"`
//	    Price  float64   `dynafield:"price,N"`
//	    Labels []string  `dynafield:"labels,SS"`
//	    Tags   []any     `dynafield:"tags,L"`
//	    Info   Details   `dynafield:"info,M"`
//	}
//
//	put, err := dynafield.MarshalPut(&Product{ID: "p1", Price: 13.37})
//	_, err = ddb.PutItem(ctx, put)
//
// # Field metadata
//
// The tag format is `dynafield:"name,TAG[,omitempty]"` where TAG is one of
// S, N, B, BOOL, NULL, L, M, SS, NS or BS (or the long names string, number,
// binary, list, map, stringset, numberset, binaryset). Fields without a
// dynafield tag are not mapped. Unexported fields are mapped like exported
// ones.
//
// Embedded structs act as base types: their fields are flattened into the
// embedding struct and come first in the item, most-ancestral first. A field
// redeclared by an embedding struct replaces the inherited one.
//
// Only structs embedding [Table] have a table; others can only be stored as
// nested M values. Requesting the table of such a struct fails with
// [ErrMissingTableMetadata].
//
// # Assigned, null and omitted
//
// A nil pointer, interface, slice or map encodes as {"NULL": true} whatever
// its declared tag. A field that was never assigned is left out of the item:
// use [Optional] to express this, or the omitempty option to treat zero
// values as unassigned.
//
// # Scalars
//
// S and N fields are converted to strings by a [CasterChain]. The defaults
// format time.Time as ISO-8601 with its original offset, numbers as plain
// decimals without exponent, and pass strings through. Register casters with
// [CasterChain.Prepend] to support custom types; they take priority over the
// defaults. Values implementing attributevalue.Marshaler encode themselves.
//
// # Lists and inference
//
// Elements of L fields (and values of dynamic maps) carry no declared tag
// and are classified by [Infer]: homogeneous non-empty collections of
// strings, numbers or binary become SS, NS or BS; other sequences become L,
// structs and string-keyed maps become M. Declare SS or L explicitly when the
// distinction matters.
//
// # Requests
//
// [Encoder.MarshalPut], [Encoder.MarshalBatch], [Encoder.MarshalGet],
// [Encoder.MarshalDelete] and [Encoder.MarshalUpdate] wrap encoded items in
// SDK request inputs. Batches are split into inputs of at most
// [MaxBatchSize] requests. Nesting is limited to [DefaultMaxDepth] levels
// and self-referencing values fail with [ErrCyclicGraph].
package dynafield

package compiler

import (
	"reflect"

	"github.com/Masterminds/semver/v3"

	"github.com/boxwire/boxwire/internal/codec"
	"github.com/boxwire/boxwire/internal/expr"
)

// Template is the immutable compiled plan for one Go type, emitted by
// Compile (spec.md §4.E step 8). A *Template is safe for concurrent use by
// multiple goroutines, each decoding or encoding independently, once
// Compile has returned.
type Template struct {
	Type   reflect.Type
	Header Header

	Fields   []FieldPlan
	Computed []ComputedField

	// ChecksumIndex is the index into Fields of the Checksum-kind field, or
	// -1 if this template carries no checksum.
	ChecksumIndex int

	// VersionBoundaries holds the header's MinVersion/MaxVersion (whichever
	// are set), sorted and deduplicated (spec.md §4.E step 7). Fields carry
	// no version range of their own, and nothing in decode/encode reads
	// this slice.
	VersionBoundaries []*semver.Version
}

// FieldPlan is the compiled form of one FieldSpec: its Go field resolved to
// a reflect.StructField index path, and its Condition/Constraint/strategy
// references resolved to live objects (spec.md §3's FieldPlan).
type FieldPlan struct {
	Name      string
	Index     []int
	Binding   codec.Descriptor
	Condition *expr.Program
	Constraint *Constraint
	Validator codec.Validator
	Converter codec.Converter
}

// ComputedField is a FieldSpec with Computed == true, resolved the same way
// as FieldPlan but carrying a parsed Expr instead of a Binding.
type ComputedField struct {
	Name  string
	Index []int
	Expr  *expr.Program
}

// Package compiler implements the Template Compiler of spec.md §4.E: it
// turns a Message's declared Header and field list into an immutable
// Template that the message parser (and, for nested fields, the Object/
// ArrayObject codecs) can decode and encode against without re-reading the
// field declarations; decode/encode still reads and assigns field values
// through reflection, by the index paths resolved here. Grounded on the teacher's internal/tdp/compiler package,
// which plays the identical role (turning a protobuf descriptor into an
// immutable compiled IR the runtime walks with zero reflection).
package compiler

import (
	"github.com/boxwire/boxwire/internal/codec"
)

// Message is implemented by any Go type that wants to participate in
// boxwire decode/encode. Header declares the wire framing (start/end
// markers, protocol-version range); Describe declares the field list in
// declaration order — the "explicit builder" alternative to reflection
// spec.md §9 calls for.
type Message interface {
	Header() Header
	Describe() []FieldSpec
}

// Header is spec.md §3's per-template framing descriptor: the byte
// sequences that mark the start and end of a message on the wire, the
// protocol-version range it is valid for, and a charset name. Markers are
// matched against the wire as raw bytes; Charset does not take part in
// that comparison.
type Header struct {
	StartMarker []byte
	EndMarker   []byte
	// MinVersion/MaxVersion are semantic-version strings (e.g. "1.0.0"). A
	// blank string means "unbounded" on that side.
	MinVersion string
	MaxVersion string
	Charset    string
}

// FieldSpec is one field's declaration, as returned by Message.Describe().
// Name must match an exported field of the Go struct (including a promoted
// field reachable through an embedded type); the compiler resolves it to a
// reflect.StructField index path exactly once, at Compile time.
type FieldSpec struct {
	Name string
	// Binding fully describes the field's wire layout (spec.md §3). Nil is
	// only valid for a field that is itself a computed value (see Computed
	// below), never for a structural field.
	Binding codec.Descriptor
	// Condition, if non-empty, is a boolean expression; when it evaluates
	// false the field is skipped entirely (not read, not written, and left
	// at its zero value) — spec.md §4.E's "Skipped" decode-state branch.
	Condition string
	// Constraint, if non-nil, is enforced by internal/compiler/validate.go
	// at Compile time against the field's declared shape. Default is not
	// applied at decode time: a Condition-skipped field keeps its zero value.
	Constraint *Constraint
	// Validator/Converter name a Strategies entry resolved once at Compile
	// time (spec.md §9: "the plan stores the resolved strategy, not the
	// id"). Either may be empty.
	Validator string
	Converter string
	// Computed marks a field that is never read from or written to the
	// wire: its value is derived from Expr after every structural field of
	// the template has been decoded (spec.md §4.E.G, "computed fields...
	// never consuming bytes"). Binding must be nil when Computed is true.
	Computed bool
	Expr     string
}

// Constraint is spec.md §4.E.6's value-shape validation: bounds, default,
// pattern and enumeration checks a field's value must satisfy.
type Constraint struct {
	Min, Max *int64
	Default  any
	Pattern  string
	Enum     []any
}

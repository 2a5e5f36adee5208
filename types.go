// Package boxwire implements a declarative binary-message codec engine:
// typed Go structs carry per-field binding descriptors (attached via a
// Describe() method, §"Data model" below) that fully determine how the
// struct is laid out on the wire in both directions. Decode turns bytes
// into a struct; Encode turns a struct back into bytes that reproduce the
// original layout exactly.
package boxwire

import (
	"github.com/boxwire/boxwire/internal/codec"
	"github.com/boxwire/boxwire/internal/compiler"
)

// Message is implemented by any Go type that wants to participate in
// boxwire decode/encode: Header declares the wire framing, Describe
// declares the field list in declaration order.
type Message = compiler.Message

// Header is a Message's per-template framing descriptor.
type Header = compiler.Header

// FieldSpec is one field's declaration, returned in order by Describe().
type FieldSpec = compiler.FieldSpec

// Constraint is a field's optional value-shape validation (min/max,
// default, pattern, enumeration).
type Constraint = compiler.Constraint

// Template is the compiled, immutable plan for one Message type.
type Template = compiler.Template

// Descriptor is the tagged binding descriptor attached to a structural
// FieldSpec via one of the builder functions below (Int, Float, ...).
type Descriptor = codec.Descriptor

// Choice is an Object or ArrayObject field's polymorphic alternative list.
type Choice = codec.Choice

// Alternative is one branch of a Choice.
type Alternative = codec.Alternative

// Validator validates a field's decoded (or about-to-be-encoded) value.
type Validator = codec.Validator

// Converter maps between a Codec's raw wire-shaped value and a field's
// friendlier Go value.
type Converter = codec.Converter

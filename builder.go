package boxwire

import (
	"encoding/binary"
	"reflect"

	"github.com/boxwire/boxwire/internal/codec"
)

// Int declares an arbitrary-bit-width integer field (spec.md §4.D.1).
// width beyond 64 requires a *big.Int-typed Go field.
func Int(width int, order binary.ByteOrder, signed bool) Descriptor {
	return codec.IntegerDescriptor{Bits: width, ByteOrder: order, Signed: signed}
}

// Float32 declares a 32-bit IEEE-754 field.
func Float32(order binary.ByteOrder) Descriptor {
	return codec.FloatDescriptor{Bits: 32, ByteOrder: order}
}

// Float64 declares a 64-bit IEEE-754 field.
func Float64(order binary.ByteOrder) Descriptor {
	return codec.FloatDescriptor{Bits: 64, ByteOrder: order}
}

// Bits declares a fixed-size set of bit indices (spec.md §4.D.3). sizeExpr
// may be a literal ("16") or any expression valid in the field's context.
func Bits(sizeExpr string, bigEndian bool) Descriptor {
	return codec.BitSetDescriptor{SizeExpr: sizeExpr, BigEndianBits: bigEndian}
}

// FixedString declares an exactly-sizeExpr-bytes text field.
func FixedString(sizeExpr, charset string) Descriptor {
	return codec.StringFixedDescriptor{SizeExpr: sizeExpr, Charset: charset}
}

// TerminatedString declares a terminator-delimited text field. When consume
// is false, encoding never appends the terminator (spec.md §9 open
// question 1).
func TerminatedString(terminator byte, consume bool, charset string) Descriptor {
	return codec.StringTerminatedDescriptor{Terminator: terminator, Consume: consume, Charset: charset}
}

// Array declares a sizeExpr-counted array of scalar elements, each laid out
// per elem.
func Array(sizeExpr string, elem Descriptor) Descriptor {
	return codec.ArrayPrimitiveDescriptor{SizeExpr: sizeExpr, Element: elem}
}

// ObjectArray declares a sizeExpr-counted array of nested sub-templates of
// Go type elemType. An empty sizeExpr makes the array length-driven: it
// decodes elements until ch's resolution yields no match (spec.md §9).
func ObjectArray(sizeExpr string, elemType reflect.Type, ch *Choice) Descriptor {
	return codec.ArrayObjectDescriptor{SizeExpr: sizeExpr, Element: elemType, Choice: ch}
}

// Object declares a nested sub-template of Go type typ, optionally
// polymorphic via ch.
func Object(typ reflect.Type, ch *Choice) Descriptor {
	return codec.ObjectDescriptor{Type: typ, Choice: ch}
}

// Checksum declares a deferred structural checksum field (spec.md §4.D.8).
// algorithm names an internal/checksum.Registry entry. The span the
// checksum covers is this template's own byte range: from the first byte
// this template itself decoded (never including a wrapping Engine-level
// start marker, which is consumed before the template's field loop ever
// starts) through the last byte the field loop consumed. skipStart/skipEnd
// trim that many bytes from the start/end of that body-relative span;
// skipEnd is typically the checksum field's own width, since the field
// loop has already read past it by the time the span closes. A Checksum
// field must be the last structural field in Describe() (see
// internal/compiler's "Checksum field must be the last structural field"
// check).
func Checksum(algorithm string, order binary.ByteOrder, bitWidth int, seed uint64, skipStart, skipEnd int) Descriptor {
	return codec.ChecksumDescriptor{
		Algorithm: algorithm,
		ByteOrder: order,
		BitWidth:  bitWidth,
		Start:     seed,
		SkipStart: skipStart,
		SkipEnd:   skipEnd,
	}
}

// When is sugar for a FieldSpec's Condition: the field is skipped entirely
// when cond evaluates false.
func When(cond string, d Descriptor) (string, Descriptor) { return cond, d }

// NewChoice builds a Choice: prefixBits is the discriminator width (0 for
// no discriminator read), peek controls whether the discriminator is
// restored for the chosen alternative to re-read, def is the fallback type
// (nil means "no match is an error").
func NewChoice(prefixBits int, peek bool, def reflect.Type, alts ...Alternative) *Choice {
	return &Choice{Alternatives: alts, Default: def, PrefixBits: prefixBits, PeekPrefix: peek}
}

// AltWhen builds one Alternative with an explicit boolean condition.
func AltWhen(cond string, typ reflect.Type) Alternative {
	return Alternative{Condition: cond, Type: typ}
}

// AltPrefix builds one Alternative selected by an exact discriminator value.
func AltPrefix(value int64, typ reflect.Type) Alternative {
	return Alternative{PrefixValue: &value, Type: typ}
}

// Package codec implements the descriptor-driven field codecs of spec.md
// §4.C/§4.D: one Codec per BindingDescriptor kind, dispatched through a
// Registry that injects the shared Evaluator and ObjectCompiler
// collaborators at construction, mirroring the teacher's compiler.Options
// dependency-injection pattern (compile.go's backend/Options wiring).
package codec

import (
	"encoding/binary"
	"reflect"
	"strconv"

	"github.com/boxwire/boxwire/internal/expr"
)

// Kind tags a BindingDescriptor variant (spec.md §3).
type Kind int

const (
	KindInteger Kind = iota
	KindFloat
	KindBitSet
	KindStringFixed
	KindStringTerminated
	KindArrayPrimitive
	KindArrayObject
	KindObject
	KindChecksum
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "Integer"
	case KindFloat:
		return "Float"
	case KindBitSet:
		return "BitSet"
	case KindStringFixed:
		return "StringFixed"
	case KindStringTerminated:
		return "StringTerminated"
	case KindArrayPrimitive:
		return "ArrayPrimitive"
	case KindArrayObject:
		return "ArrayObject"
	case KindObject:
		return "Object"
	case KindChecksum:
		return "Checksum"
	default:
		return "Unknown"
	}
}

// Descriptor is the tagged-variant BindingDescriptor of spec.md §3: "a
// tagged value attached to a field specifying how that field is laid out
// on the wire".
type Descriptor interface {
	Kind() Kind
}

// IntegerDescriptor binds a field to an integer of arbitrary bit width
// (spec.md §4.D.1).
type IntegerDescriptor struct {
	Bits      int
	ByteOrder binary.ByteOrder
	Signed    bool
}

func (IntegerDescriptor) Kind() Kind { return KindInteger }

// FloatDescriptor binds a field to a 32- or 64-bit IEEE-754 float
// (spec.md §4.D.2).
type FloatDescriptor struct {
	Bits      int // 32 or 64
	ByteOrder binary.ByteOrder
}

func (FloatDescriptor) Kind() Kind { return KindFloat }

// BitSetDescriptor binds a field to a fixed-size set of bit indices
// (spec.md §4.D.3). SizeExpr is a size expression (a constant like "16" is
// a valid expression).
type BitSetDescriptor struct {
	SizeExpr string
	BigEndianBits bool // BIG_ENDIAN bit order when true, else LSBFirst
}

func (BitSetDescriptor) Kind() Kind { return KindBitSet }

// StringFixedDescriptor binds a field to exactly SizeExpr bytes of text
// (spec.md §4.D.4).
type StringFixedDescriptor struct {
	SizeExpr string
	Charset  string
}

func (StringFixedDescriptor) Kind() Kind { return KindStringFixed }

// StringTerminatedDescriptor binds a field to terminator-delimited text
// (spec.md §4.D.5).
type StringTerminatedDescriptor struct {
	Terminator byte
	Consume    bool
	Charset    string
}

func (StringTerminatedDescriptor) Kind() Kind { return KindStringTerminated }

// ArrayPrimitiveDescriptor binds a field to a SizeExpr-counted array of
// scalar elements (spec.md §4.D.6).
type ArrayPrimitiveDescriptor struct {
	SizeExpr string
	Element  Descriptor
}

func (ArrayPrimitiveDescriptor) Kind() Kind { return KindArrayPrimitive }

// ArrayObjectDescriptor binds a field to a SizeExpr-counted array of
// sub-templates, each optionally polymorphic via Choice (spec.md §4.D.6).
// When SizeExpr is empty, the array is length-driven: elements are decoded
// until the Choice fails to match (per spec.md §4.D.7 and §9's "nil from
// choice resolution ends the list").
type ArrayObjectDescriptor struct {
	SizeExpr string
	Element  reflect.Type
	Choice   *Choice
}

func (ArrayObjectDescriptor) Kind() Kind { return KindArrayObject }

// ObjectDescriptor binds a field to a nested sub-template, optionally
// polymorphic via Choice (spec.md §4.D.7).
type ObjectDescriptor struct {
	Type   reflect.Type
	Choice *Choice
}

func (ObjectDescriptor) Kind() Kind { return KindObject }

// ChecksumDescriptor binds a field to a deferred structural checksum
// (spec.md §4.D.8).
type ChecksumDescriptor struct {
	Algorithm string
	ByteOrder binary.ByteOrder
	BitWidth  int // typically 16 or 32
	Start     uint64
	SkipStart int
	SkipEnd   int
}

func (ChecksumDescriptor) Kind() Kind { return KindChecksum }

// Alternative is one branch of a Choice: Condition is evaluated (with
// #prefix bound to the discriminator, if one was read) against the object
// under construction; the first Alternative whose Condition is true is
// selected (spec.md §3's ObjectChoice and §5's "first matching one wins").
type Alternative struct {
	// Condition is a boolean expression, evaluated with #prefix bound to
	// the read discriminator (if PrefixBits > 0). May be empty only when
	// PrefixValue is set, in which case the alternative matches exactly
	// when the discriminator equals PrefixValue.
	Condition string
	// PrefixValue, if non-nil, is sugar for "#prefix == *PrefixValue"
	// ANDed with Condition — the literal "prefix-bytes-or-bits" spec.md §3
	// allows alongside a condition.
	PrefixValue *int64
	Type        reflect.Type
}

// Choice is spec.md §3's ObjectChoice: "an ordered list of {condition,
// prefix-bytes-or-bits, type} plus a default type; the prefix discriminator
// is read (or peeked) before selecting."
type Choice struct {
	Alternatives []Alternative
	// Default is used when no Alternative matches; if nil, no match is a
	// DecodingError ("no alternative").
	Default reflect.Type
	// PrefixBits, if > 0, is the width of an integer discriminator read (and
	// consumed) immediately before alternative resolution and bound to
	// #prefix.
	PrefixBits int
	// PeekPrefix, when true, restores the reader to before the
	// discriminator was read once a match is found, so the chosen
	// sub-template re-reads the discriminator as its own first field
	// (spec.md §4.D.7: "peeks a prefix").
	PeekPrefix bool
}

// Evaluate binds the already-read discriminator (prefix, if non-nil) to
// #prefix and returns the first matching Alternative's type, or Default.
// A nil type with a nil error means nothing matched and there is no
// Default — the trigger for "no alternative"/end-of-list per spec.md §9's
// resolved open question. Reading the discriminator is the caller's job.
func (c *Choice) Evaluate(ev *expr.Evaluator, ctx expr.Context, prefix *int64) (reflect.Type, error) {
	vars := map[string]any{}
	if prefix != nil {
		vars["prefix"] = *prefix
	}
	merged := mergeVarsContext{Context: ctx, extra: vars}
	for _, alt := range c.Alternatives {
		cond := alt.Condition
		if alt.PrefixValue != nil {
			pfxCond := "#prefix == " + strconv.FormatInt(*alt.PrefixValue, 10)
			if cond == "" {
				cond = pfxCond
			} else {
				cond = "(" + pfxCond + ") && (" + cond + ")"
			}
		}
		if cond == "" {
			continue
		}
		ok, err := ev.EvalBool(cond, merged)
		if err != nil {
			return nil, err
		}
		if ok {
			return alt.Type, nil
		}
	}
	return c.Default, nil
}

// mergeVarsContext overlays extra variables (notably #prefix) on top of an
// existing expr.Context without mutating it.
type mergeVarsContext struct {
	expr.Context
	extra map[string]any
}

func (m mergeVarsContext) Var(name string) (any, bool) {
	if v, ok := m.extra[name]; ok {
		return v, true
	}
	return m.Context.Var(name)
}

package boxwire

import "fmt"

// Kind classifies a boxwire.Error, mirroring spec.md §7's five error kinds.
type Kind int

const (
	// ConfigurationError is raised by Compile/Register when a type's Header
	// or field declarations are invalid.
	ConfigurationError Kind = iota
	// EncodingError is raised by Encode when a Go value cannot be written to
	// the wire (wrong type, out-of-range value, unmatched choice).
	EncodingError
	// DecodingError is raised by Decode when the wire bytes do not match
	// what the Template expects (short read, failed checksum, no matching
	// choice alternative, missing end marker).
	DecodingError
	// CodecMissingError classifies a descriptor naming a Kind with no
	// registered Codec. Engine does not return this Kind: a missing codec
	// is reported under the Kind of the operation that hit it.
	CodecMissingError
	// VersionError classifies a protocol-version range violation. Engine
	// does not return this Kind: an invalid or inverted MinVersion/MaxVersion
	// is reported by Compile and Register as a ConfigurationError, and
	// Decode does not check a message's version against the Template range.
	VersionError
)

func (k Kind) String() string {
	switch k {
	case ConfigurationError:
		return "configuration error"
	case EncodingError:
		return "encoding error"
	case DecodingError:
		return "decoding error"
	case CodecMissingError:
		return "codec missing"
	case VersionError:
		return "version error"
	default:
		return "unknown error"
	}
}

// Error is boxwire's single exported error type (spec.md §7): every failure
// the package returns either is an *Error or wraps one reachable via
// errors.As, carrying enough context to locate the offending template,
// field and byte offset without parsing the message text.
type Error struct {
	Kind       Kind
	Template   string
	Field      string
	ByteOffset int // -1 when not applicable
	Err        error
}

func newError(kind Kind, template, field string, offset int, err error) *Error {
	return &Error{Kind: kind, Template: template, Field: field, ByteOffset: offset, Err: err}
}

// Error formats like the teacher's own errParse: "<package>: <kind> at
// offset <n>: <cause>", extended with the template/field that failed.
func (e *Error) Error() string {
	switch {
	case e.Template != "" && e.Field != "" && e.ByteOffset >= 0:
		return fmt.Sprintf("boxwire: %s in %s.%s at offset %d: %v", e.Kind, e.Template, e.Field, e.ByteOffset, e.Err)
	case e.Template != "" && e.ByteOffset >= 0:
		return fmt.Sprintf("boxwire: %s in %s at offset %d: %v", e.Kind, e.Template, e.ByteOffset, e.Err)
	case e.Template != "":
		return fmt.Sprintf("boxwire: %s in %s: %v", e.Kind, e.Template, e.Err)
	default:
		return fmt.Sprintf("boxwire: %s: %v", e.Kind, e.Err)
	}
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Err }

// Offset returns the byte offset at which the error occurred, or -1 if not
// applicable, mirroring the teacher's errParse.Offset() accessor.
func (e *Error) Offset() int { return e.ByteOffset }

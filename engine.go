package boxwire

import (
	"encoding/binary"
	"fmt"

	"github.com/stoewer/go-strcase"

	"github.com/boxwire/boxwire/internal/bitio"
	"github.com/boxwire/boxwire/internal/checksum"
	"github.com/boxwire/boxwire/internal/codec"
	"github.com/boxwire/boxwire/internal/compiler"
	"github.com/boxwire/boxwire/internal/debug"
	"github.com/boxwire/boxwire/internal/expr"
)

// Engine owns one codec Registry, one Template Compiler and one Template
// Registry/Selector; every Message type a program works with is Registered
// against the same Engine. An *Engine is safe for concurrent use once setup
// (Register calls) is complete, mirroring the immutability contract the
// teacher documents for its own compiled *Type values.
type Engine struct {
	eval       *expr.Evaluator
	strategies *codec.Strategies
	checksums  *checksum.Registry
	registry   *codec.Registry
	compiler   *compiler.Compiler
	templates  *templateRegistry
}

// New wires a fresh Engine: an Evaluator, a Strategies registry, the
// builtin checksum algorithms, the nine builtin field codecs, and a
// Template Compiler bound to all of the above (see internal/compiler's
// NewCompiler doc comment for why the Registry/Compiler wiring happens in
// two steps).
func New() (*Engine, error) {
	eval := expr.NewEvaluator()
	strategies := codec.NewStrategies()
	checksums := checksum.NewRegistry()
	comp := compiler.NewCompiler(eval, strategies)

	reg, err := codec.DefaultRegistry(eval, comp, checksums)
	if err != nil {
		return nil, newError(ConfigurationError, "", "", -1, err)
	}
	comp.SetRegistry(reg)

	return &Engine{
		eval:       eval,
		strategies: strategies,
		checksums:  checksums,
		registry:   reg,
		compiler:   comp,
		templates:  newTemplateRegistry(),
	}, nil
}

// Strategies returns the named-validator/converter registry so callers can
// add their own before compiling any Message (spec.md §6.5).
func (e *Engine) Strategies() *codec.Strategies { return e.strategies }

// Checksums returns the checksum-algorithm registry so callers can add
// their own before compiling any Message that names it.
func (e *Engine) Checksums() *checksum.Registry { return e.checksums }

// Compile compiles sample's type (a *T implementing Message) without
// registering it in the Template Selector, for callers that only need
// Encode (they already know which Template to use) or that manage
// selection themselves.
func (e *Engine) Compile(sample Message) (*Template, error) {
	tpl, err := e.compiler.CompileType(sample)
	if err != nil {
		name := ""
		if sample != nil {
			name = fmt.Sprintf("%T", sample)
		}
		return nil, newError(ConfigurationError, name, "", -1, err)
	}
	return tpl, nil
}

// Register compiles sample's type and adds it to the Template Selector so
// Decode can recognize it on the wire by its header's start marker.
func (e *Engine) Register(sample Message) (*Template, error) {
	tpl, err := e.Compile(sample)
	if err != nil {
		return nil, err
	}
	if err := e.templates.register(tpl); err != nil {
		return nil, newError(ConfigurationError, tpl.Type.Name(), "", -1, err)
	}
	// traceID is a snake_case rendering of the Go type name, used only for
	// trace-log readability (field/type names in Go are CamelCase; trace
	// consumers piping output through line-oriented tools tend to expect
	// snake_case tokens, matching the teacher's own wire-name conventions).
	traceID := strcase.SnakeCase(tpl.Type.Name())
	debug.Log(traceID, "", 0, "registered with start marker %q", tpl.Header.StartMarker)
	return tpl, nil
}

// Decode implements spec.md §4.G: it selects the registered Template whose
// start marker matches data, decodes one message, verifies its end marker
// (unless SkipEndMarkerCheck was given), and returns the decoded value
// together with the number of bytes consumed.
func (e *Engine) Decode(data []byte, opts ...DecodeOption) (any, int, error) {
	var o decodeOptions
	for _, opt := range opts {
		opt(&o)
	}

	r := bitio.NewReader(data)
	tpl, err := e.templates.selectTemplate(r)
	if err != nil {
		return nil, 0, newError(DecodingError, "", "", 0, err)
	}
	for range tpl.Header.StartMarker {
		if _, err := r.ReadUint(8, binary.BigEndian); err != nil {
			return nil, 0, newError(DecodingError, tpl.Type.Name(), "", r.Position(), err)
		}
	}

	v, err := e.compiler.Decode(tpl, r)
	if err != nil {
		return nil, 0, newError(DecodingError, tpl.Type.Name(), "", r.Position(), err)
	}

	if !o.skipEndMarker && len(tpl.Header.EndMarker) > 0 {
		if !matchMarker(r, tpl.Header.EndMarker) {
			return nil, 0, newError(DecodingError, tpl.Type.Name(), "", r.Position(), fmt.Errorf("end marker not found"))
		}
		for range tpl.Header.EndMarker {
			if _, err := r.ReadUint(8, binary.BigEndian); err != nil {
				return nil, 0, newError(DecodingError, tpl.Type.Name(), "", r.Position(), err)
			}
		}
	}

	return v, r.Position(), nil
}

// Encode implements spec.md §4.G's encode direction: it compiles (or
// reuses the compiled) Template for v's type, writes the header's start
// marker, the field-encoded body, and the end marker, and returns the
// accumulated bytes.
func (e *Engine) Encode(v any, opts ...EncodeOption) ([]byte, error) {
	var o encodeOptions
	for _, opt := range opts {
		opt(&o)
	}

	msg, ok := v.(Message)
	if !ok {
		return nil, newError(EncodingError, "", "", -1, fmt.Errorf("%T does not implement boxwire.Message", v))
	}
	tpl, err := e.compiler.CompileType(msg)
	if err != nil {
		return nil, newError(ConfigurationError, fmt.Sprintf("%T", v), "", -1, err)
	}

	w := bitio.NewWriter()
	if err := writeMarker(w, tpl.Header.StartMarker); err != nil {
		return nil, newError(EncodingError, tpl.Type.Name(), "", w.Len(), err)
	}
	if err := e.compiler.Encode(tpl, w, v); err != nil {
		return nil, newError(EncodingError, tpl.Type.Name(), "", w.Len(), err)
	}
	if err := writeMarker(w, tpl.Header.EndMarker); err != nil {
		return nil, newError(EncodingError, tpl.Type.Name(), "", w.Len(), err)
	}

	return w.Flush(), nil
}

// FindNext implements spec.md §4.F's FindNext: it advances data byte by
// byte until a registered Template's start marker matches, returning the
// absolute byte offset or -1 if none is found before EOF.
func (e *Engine) FindNext(data []byte) (int, error) {
	r := bitio.NewReader(data)
	off, _, err := e.templates.findNext(r)
	if err != nil {
		return -1, newError(DecodingError, "", "", -1, err)
	}
	return off, nil
}

func writeMarker(w *bitio.Writer, marker []byte) error {
	for _, b := range marker {
		if err := w.WriteUint(uint64(b), 8, binary.BigEndian); err != nil {
			return err
		}
	}
	return nil
}

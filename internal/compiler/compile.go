package compiler

import (
	"fmt"
	"math/big"
	"reflect"
	"sort"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/boxwire/boxwire/internal/bitio"
	"github.com/boxwire/boxwire/internal/codec"
	"github.com/boxwire/boxwire/internal/expr"
)

// Compiler compiles Message types to Templates on first use and caches the
// result by reflect.Type, mirroring the teacher's own per-type compiled-IR
// cache (internal/tdp/compiler.Compile, called once per descriptor and
// memoized by the public Library/Types wrapper).
type Compiler struct {
	registry *codec.Registry
	eval     *expr.Evaluator
	strategies *codec.Strategies

	mu     sync.RWMutex
	byType map[reflect.Type]*Template
}

// NewCompiler returns a Compiler that resolves expressions through eval and
// named validators/converters through strategies (strategies may be nil if
// the caller never uses that feature). The codec Registry is supplied
// afterwards via SetRegistry: the Registry's Object/ArrayObject codecs need
// a codec.ObjectCompiler (this Compiler) to recurse into nested templates,
// while this Compiler needs the Registry to dispatch field codecs, so the
// two are wired together after both are constructed (see DESIGN.md).
func NewCompiler(eval *expr.Evaluator, strategies *codec.Strategies) *Compiler {
	return &Compiler{
		eval:       eval,
		strategies: strategies,
		byType:     make(map[reflect.Type]*Template),
	}
}

// SetRegistry binds the codec Registry this Compiler dispatches field
// decode/encode through. Must be called once, before the first Compile or
// PlanFor call.
func (c *Compiler) SetRegistry(registry *codec.Registry) {
	c.registry = registry
}

// PlanFor implements codec.ObjectCompiler: it compiles typ (a pointer to a
// Message, such as reflect.New(T).Interface() returns) on first use and
// returns the cached *Template thereafter, wrapped to satisfy
// codec.ObjectPlan. This is the narrow interface that breaks the
// codec<->compiler import cycle (see DESIGN.md).
func (c *Compiler) PlanFor(sample any) (codec.ObjectPlan, error) {
	tpl, err := c.CompileType(sample)
	if err != nil {
		return nil, err
	}
	return templatePlan{tpl: tpl, c: c}, nil
}

// CompileType compiles sample's type (sample must implement Message) and
// returns the cached or freshly compiled Template.
func (c *Compiler) CompileType(sample any) (*Template, error) {
	msg, ok := sample.(Message)
	if !ok {
		return nil, fmt.Errorf("compiler: %T does not implement compiler.Message", sample)
	}
	typ := reflect.TypeOf(sample)
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	c.mu.RLock()
	tpl, ok := c.byType[typ]
	c.mu.RUnlock()
	if ok {
		return tpl, nil
	}

	tpl, err := c.compile(typ, msg)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.byType[typ] = tpl
	c.mu.Unlock()
	return tpl, nil
}

// compile runs spec.md §4.E's steps 1-8 against typ/msg.
func (c *Compiler) compile(typ reflect.Type, msg Message) (*Template, error) {
	name := typ.Name()

	// Step 1: a header descriptor is mandatory.
	hdr := msg.Header()
	if len(hdr.StartMarker) == 0 && len(hdr.EndMarker) == 0 {
		return nil, fmt.Errorf("compiler: %s: Header must declare at least one of StartMarker/EndMarker", name)
	}

	// Step 2: protocol-version range, if present, must be well-formed.
	var minV, maxV *semver.Version
	if hdr.MinVersion != "" {
		v, err := semver.NewVersion(hdr.MinVersion)
		if err != nil {
			return nil, fmt.Errorf("compiler: %s: invalid MinVersion %q: %w", name, hdr.MinVersion, err)
		}
		minV = v
	}
	if hdr.MaxVersion != "" {
		v, err := semver.NewVersion(hdr.MaxVersion)
		if err != nil {
			return nil, fmt.Errorf("compiler: %s: invalid MaxVersion %q: %w", name, hdr.MaxVersion, err)
		}
		maxV = v
	}
	if minV != nil && maxV != nil && maxV.LessThan(minV) {
		return nil, fmt.Errorf("compiler: %s: MaxVersion %s is less than MinVersion %s", name, maxV, minV)
	}

	// Step 3: walk fields in declaration order. Describe() is hand-written
	// by the type author, so embedded/promoted fields are already in
	// declaration order by construction; FieldByName below resolves a
	// promoted field's index path exactly as Go's own promotion rules do.
	specs := msg.Describe()

	fields := make([]FieldPlan, 0, len(specs))
	computed := make([]ComputedField, 0)
	checksumIndex := -1
	sawBinding := false

	for _, spec := range specs {
		// Step 4: annotation-order / shape rule — a field is either
		// Computed (Expr, no Binding) or structural (Binding, no Expr).
		if spec.Computed {
			if spec.Binding != nil {
				return nil, fmt.Errorf("compiler: %s.%s: a computed field must not declare a Binding", name, spec.Name)
			}
			if spec.Expr == "" {
				return nil, fmt.Errorf("compiler: %s.%s: a computed field must declare Expr", name, spec.Name)
			}
			prog, err := expr.Parse(spec.Expr)
			if err != nil {
				return nil, fmt.Errorf("compiler: %s.%s: computed expression %q: %w", name, spec.Name, spec.Expr, err)
			}
			sf, ok := typ.FieldByName(spec.Name)
			if !ok {
				return nil, fmt.Errorf("compiler: %s.%s: no such exported field", name, spec.Name)
			}
			computed = append(computed, ComputedField{Name: spec.Name, Index: sf.Index, Expr: prog})
			continue
		}
		if spec.Binding == nil {
			return nil, fmt.Errorf("compiler: %s.%s: a structural field must declare a Binding", name, spec.Name)
		}
		sawBinding = true

		sf, ok := typ.FieldByName(spec.Name)
		if !ok {
			return nil, fmt.Errorf("compiler: %s.%s: no such exported field", name, spec.Name)
		}

		// Step 5: cross-check the descriptor against the field's static type.
		// A declared Converter takes over responsibility for that shape match
		// (its FromWire/ToWire pair is exactly the escape hatch for a field
		// whose Go type doesn't mirror the wire-native shape, e.g. a fixed
		// byte array mapped to a 16-byte UUID), so the structural check is
		// skipped whenever one is present.
		if spec.Converter == "" {
			if err := checkFieldType(name, spec.Name, spec.Binding, sf.Type); err != nil {
				return nil, err
			}
		}

		var cond *expr.Program
		if spec.Condition != "" {
			prog, err := expr.Parse(spec.Condition)
			if err != nil {
				return nil, fmt.Errorf("compiler: %s.%s: condition %q: %w", name, spec.Name, spec.Condition, err)
			}
			cond = prog
		}

		// Step 6: value-shape validation.
		if spec.Constraint != nil {
			if err := validateConstraint(name, spec.Name, spec.Constraint, sf.Type); err != nil {
				return nil, fmt.Errorf("compiler: %w", err)
			}
		}

		var validator codec.Validator
		if spec.Validator != "" {
			if c.strategies == nil {
				return nil, fmt.Errorf("compiler: %s.%s: validator %q requested but no Strategies registry configured", name, spec.Name, spec.Validator)
			}
			v, err := c.strategies.LookupValidator(spec.Validator)
			if err != nil {
				return nil, fmt.Errorf("compiler: %s.%s: %w", name, spec.Name, err)
			}
			validator = v
		}

		var converter codec.Converter
		if spec.Converter != "" {
			if c.strategies == nil {
				return nil, fmt.Errorf("compiler: %s.%s: converter %q requested but no Strategies registry configured", name, spec.Name, spec.Converter)
			}
			cv, err := c.strategies.LookupConverter(spec.Converter)
			if err != nil {
				return nil, fmt.Errorf("compiler: %s.%s: %w", name, spec.Name, err)
			}
			converter = cv
		}

		fp := FieldPlan{
			Name:       spec.Name,
			Index:      sf.Index,
			Binding:    spec.Binding,
			Condition:  cond,
			Constraint: spec.Constraint,
			Validator:  validator,
			Converter:  converter,
		}
		if spec.Binding.Kind() == codec.KindChecksum {
			if checksumIndex != -1 {
				return nil, fmt.Errorf("compiler: %s: more than one Checksum field declared", name)
			}
			checksumIndex = len(fields)
		}
		fields = append(fields, fp)
	}

	if !sawBinding && len(computed) == 0 {
		return nil, fmt.Errorf("compiler: %s: Describe() returned no fields", name)
	}

	// A declared checksum must be the last structural field: decodeTemplate
	// closes its span over [startPos, r.Position()) only after every field
	// has been decoded, so a checksum declared anywhere else would compute
	// over the wrong range without ever failing.
	if checksumIndex != -1 && checksumIndex != len(fields)-1 {
		return nil, fmt.Errorf("compiler: %s: Checksum field must be the last structural field", name)
	}

	// Step 7: version boundaries (header-level only; see DESIGN.md for why
	// per-field version ranges are out of scope).
	var bounds []*semver.Version
	if minV != nil {
		bounds = append(bounds, minV)
	}
	if maxV != nil {
		bounds = append(bounds, maxV)
	}
	sort.Slice(bounds, func(i, j int) bool { return bounds[i].LessThan(bounds[j]) })
	if len(bounds) == 2 && bounds[0].Equal(bounds[1]) {
		bounds = bounds[:1]
	}

	// Step 8: emit the immutable Template.
	return &Template{
		Type:              typ,
		Header:            hdr,
		Fields:            fields,
		Computed:          computed,
		ChecksumIndex:     checksumIndex,
		VersionBoundaries: bounds,
	}, nil
}

// checkFieldType implements spec.md §4.E step 5.
func checkFieldType(typeName, fieldName string, d codec.Descriptor, ft reflect.Type) error {
	switch desc := d.(type) {
	case codec.IntegerDescriptor:
		if desc.Bits > 64 {
			if ft != reflect.TypeOf((*big.Int)(nil)) {
				return fmt.Errorf("compiler: %s.%s: a %d-bit integer descriptor requires a *big.Int field, got %s", typeName, fieldName, desc.Bits, ft)
			}
			return nil
		}
		switch ft.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if desc.Bits > ft.Bits() {
				return fmt.Errorf("compiler: %s.%s: a %d-bit integer descriptor does not fit a %s field", typeName, fieldName, desc.Bits, ft)
			}
			return nil
		default:
			return fmt.Errorf("compiler: %s.%s: integer descriptor requires an integer-kind field, got %s", typeName, fieldName, ft)
		}
	case codec.FloatDescriptor:
		if ft.Kind() != reflect.Float32 && ft.Kind() != reflect.Float64 {
			return fmt.Errorf("compiler: %s.%s: float descriptor requires a float32/float64 field, got %s", typeName, fieldName, ft)
		}
	case codec.BitSetDescriptor:
		if ft != reflect.TypeOf(bitio.BitSet{}) {
			return fmt.Errorf("compiler: %s.%s: bit-set descriptor requires a bitio.BitSet field, got %s", typeName, fieldName, ft)
		}
	case codec.StringFixedDescriptor, codec.StringTerminatedDescriptor:
		if ft.Kind() != reflect.String {
			return fmt.Errorf("compiler: %s.%s: string descriptor requires a string field, got %s", typeName, fieldName, ft)
		}
	case codec.ArrayPrimitiveDescriptor:
		if ft.Kind() != reflect.Slice {
			return fmt.Errorf("compiler: %s.%s: array descriptor requires a slice field, got %s", typeName, fieldName, ft)
		}
	case codec.ArrayObjectDescriptor:
		if ft.Kind() != reflect.Slice {
			return fmt.Errorf("compiler: %s.%s: object-array descriptor requires a slice field, got %s", typeName, fieldName, ft)
		}
	case codec.ObjectDescriptor:
		et := ft
		for et.Kind() == reflect.Pointer {
			et = et.Elem()
		}
		dt := desc.Type
		for dt.Kind() == reflect.Pointer {
			dt = dt.Elem()
		}
		if desc.Choice == nil && et != dt {
			return fmt.Errorf("compiler: %s.%s: object descriptor type %s is not assignable to field %s", typeName, fieldName, desc.Type, ft)
		}
	case codec.ChecksumDescriptor:
		switch ft.Kind() {
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return nil
		default:
			return fmt.Errorf("compiler: %s.%s: checksum descriptor requires an unsigned integer field, got %s", typeName, fieldName, ft)
		}
	}
	return nil
}

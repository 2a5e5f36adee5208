package codec

import "fmt"

// Validator checks a decoded (or about-to-be-encoded) field value, returning
// a non-nil error if it violates whatever rule the validator enforces
// (spec.md §6's validators/converters external interface).
type Validator interface {
	Validate(v any) error
}

// Converter maps between the raw wire-shaped value a Codec produces/expects
// and the friendlier Go value a field actually stores, in both directions.
type Converter interface {
	// FromWire turns a freshly decoded raw value into the field's value.
	FromWire(v any) (any, error)
	// ToWire turns a field's value back into the raw value a Codec expects.
	ToWire(v any) (any, error)
}

// Strategies resolves a named validator or converter id to its
// implementation at compile time, so the compiled FieldPlan stores the
// resolved strategy object rather than the id string (spec.md §9).
type Strategies struct {
	validators map[string]Validator
	converters map[string]Converter
}

// NewStrategies returns an empty Strategies registry.
func NewStrategies() *Strategies {
	return &Strategies{validators: make(map[string]Validator), converters: make(map[string]Converter)}
}

func (s *Strategies) RegisterValidator(id string, v Validator) { s.validators[id] = v }
func (s *Strategies) RegisterConverter(id string, c Converter) { s.converters[id] = c }

func (s *Strategies) LookupValidator(id string) (Validator, error) {
	v, ok := s.validators[id]
	if !ok {
		return nil, fmt.Errorf("codec: no validator registered with id %q", id)
	}
	return v, nil
}

func (s *Strategies) LookupConverter(id string) (Converter, error) {
	c, ok := s.converters[id]
	if !ok {
		return nil, fmt.Errorf("codec: no converter registered with id %q", id)
	}
	return c, nil
}

package expr

import "sync"

// Evaluator parses and caches expression strings, per spec.md §9's
// direction to "cache compiled ASTs per expression string" rather than
// reparsing a condition or size expression on every field decode/encode.
type Evaluator struct {
	mu    sync.RWMutex
	cache map[string]*Program
}

// NewEvaluator returns an empty, ready-to-use Evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{cache: make(map[string]*Program)}
}

// Compile parses src once and caches the result; subsequent calls with the
// same src return the cached Program without reparsing.
func (e *Evaluator) Compile(src string) (*Program, error) {
	e.mu.RLock()
	p, ok := e.cache[src]
	e.mu.RUnlock()
	if ok {
		return p, nil
	}

	p, err := Parse(src)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[src] = p
	e.mu.Unlock()
	return p, nil
}

// EvalBool compiles (or reuses) src and evaluates it as a boolean condition.
func (e *Evaluator) EvalBool(src string, ctx Context) (bool, error) {
	p, err := e.Compile(src)
	if err != nil {
		return false, err
	}
	v, err := p.Eval(ctx)
	if err != nil {
		return false, err
	}
	return v.AsBool()
}

// EvalInt compiles (or reuses) src and evaluates it as a size expression.
func (e *Evaluator) EvalInt(src string, ctx Context) (int64, error) {
	p, err := e.Compile(src)
	if err != nil {
		return 0, err
	}
	v, err := p.Eval(ctx)
	if err != nil {
		return 0, err
	}
	return v.AsInt()
}

// Eval compiles (or reuses) src and evaluates it to its natural Value.
func (e *Evaluator) Eval(src string, ctx Context) (Value, error) {
	p, err := e.Compile(src)
	if err != nil {
		return Value{}, err
	}
	return p.Eval(ctx)
}

package expr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fieldOwner struct {
	Mask  int64
	Index []int64
}

type stubContext struct {
	root, self any
	vars       map[string]any
}

func (c stubContext) Root() any { return c.root }
func (c stubContext) Self() any { return c.self }
func (c stubContext) Var(name string) (any, bool) {
	v, ok := c.vars[name]
	return v, ok
}
func (c stubContext) Field(owner any, name string) (any, bool) {
	o, ok := owner.(*fieldOwner)
	if !ok {
		return nil, false
	}
	switch name {
	case "Mask":
		return o.Mask, true
	case "Index":
		return o.Index, true
	}
	return nil, false
}

func TestEvalBoolArithmeticAndLogic(t *testing.T) {
	ev := NewEvaluator()
	ctx := stubContext{}

	ok, err := ev.EvalBool("1 + 2 == 3 && 4 > 3", ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = ev.EvalBool("1 == 2 || 2 < 1", ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEvalIntFieldAccess(t *testing.T) {
	ev := NewEvaluator()
	owner := &fieldOwner{Mask: 0x24}
	ctx := stubContext{self: owner}

	n, err := ev.EvalInt("self.Mask - 32", ctx)
	require.NoError(t, err)
	require.Equal(t, int64(4), n)
}

func TestEvalBoolVariablePrefix(t *testing.T) {
	ev := NewEvaluator()
	ctx := stubContext{vars: map[string]any{"prefix": int64(2)}}

	ok, err := ev.EvalBool("#prefix == 2", ctx)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestEvalIndexIntoArray(t *testing.T) {
	ev := NewEvaluator()
	owner := &fieldOwner{Index: []int64{5, 6}}
	ctx := stubContext{self: owner, vars: map[string]any{"prefix": int64(1)}}

	ok, err := ev.EvalBool("self.Index[#prefix] == 6", ctx)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestParseErrorOnGarbage(t *testing.T) {
	_, err := Parse("((1 +")
	require.Error(t, err)
}

package jsruntime

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborlang/harbor/internal/jsruntime/flow"
	"github.com/harborlang/harbor/internal/jsruntime/ir"
)

// fakeBuilder is a minimal ir.Builder recording every call it receives, for
// asserting on the shape of a lowering walk without a real backend.
type fakeBuilder struct {
	nextBlock int
	insertPt  flow.BlockId
	calls     []string
}

func (b *fakeBuilder) CreateBlock() flow.BlockId {
	id := flow.BlockId(b.nextBlock)
	b.nextBlock++
	b.calls = append(b.calls, fmt.Sprintf("create_block %d", id))
	return id
}

func (b *fakeBuilder) SetInsertPoint(blk flow.BlockId) {
	b.insertPt = blk
	b.calls = append(b.calls, fmt.Sprintf("set_insert_point %d", blk))
}

func (b *fakeBuilder) Br(target flow.BlockId) {
	b.calls = append(b.calls, fmt.Sprintf("br %d", target))
}

func (b *fakeBuilder) CondBr(cond ir.Value, then, els flow.BlockId) {
	b.calls = append(b.calls, fmt.Sprintf("cond_br %d %d", then, els))
}

func (b *fakeBuilder) Switch(disc ir.Value, cases map[int64]flow.BlockId, deflt *flow.BlockId) {
	b.calls = append(b.calls, "switch")
}

func (b *fakeBuilder) Phi(incoming map[flow.BlockId]ir.Value) ir.Value {
	b.calls = append(b.calls, "phi")
	return 0
}

func (b *fakeBuilder) ConstInt(v int64) ir.Value        { return ir.Value(v) }
func (b *fakeBuilder) ConstFloat(v float64) ir.Value    { return 0 }
func (b *fakeBuilder) ConstString(v string) ir.Value    { return 0 }
func (b *fakeBuilder) BinOp(op ir.BinaryOp, lhs, rhs ir.Value) ir.Value { return 0 }
func (b *fakeBuilder) UnaryOp(op ir.UnaryOp, v ir.Value) ir.Value       { return 0 }
func (b *fakeBuilder) Call(callee ir.Value, args []ir.Value) ir.Value   { return 0 }
func (b *fakeBuilder) Return(v ir.Value) {
	b.calls = append(b.calls, "return")
}

func TestLowerer_IfThenElse_BranchesAndMerges(t *testing.T) {
	b := &fakeBuilder{}
	l := New(b)
	l.EnterFunction()

	ran := map[string]bool{}
	l.If(ir.Value(1), func() { ran["then"] = true }, func() { ran["else"] = true })

	require.NoError(t, l.ExitFunction())
	assert.True(t, ran["then"])
	assert.True(t, ran["else"])
	assert.Contains(t, b.calls, "cond_br 3 4")
}

func TestLowerer_LoopBreakContinue_ResolveToLoopBlocks(t *testing.T) {
	b := &fakeBuilder{}
	l := New(b)
	l.EnterFunction()

	bodyRan := false
	err := l.Loop("", nil, func() ir.Value { return ir.Value(1) }, nil, func() {
		bodyRan = true
		require.NoError(t, l.Continue(""))
		require.NoError(t, l.Break(""))
	})
	require.NoError(t, err)
	require.NoError(t, l.ExitFunction())
	assert.True(t, bodyRan)
}

func TestLowerer_BreakWithNoEnclosingLoop_Errors(t *testing.T) {
	b := &fakeBuilder{}
	l := New(b)
	l.EnterFunction()
	defer l.ExitFunction()

	err := l.Break("")
	require.Error(t, err)
	var invErr *flow.FrameInvariantError
	assert.ErrorAs(t, err, &invErr)
}

func TestLowerer_TryCatchFinally_AdvancesExceptionState(t *testing.T) {
	b := &fakeBuilder{}
	l := New(b)
	l.EnterFunction()
	l.EnterScope("")

	order := []string{}
	err := l.TryCatchFinally(
		func() { order = append(order, "try") },
		func() { order = append(order, "catch") },
		func() { order = append(order, "finally") },
		true,
	)
	require.NoError(t, err)
	require.NoError(t, l.ExitScope())
	require.NoError(t, l.ExitFunction())
	assert.Equal(t, []string{"try", "catch", "finally"}, order)
}

func TestFlowStack_PopFunctionFrameRequiresEmptyStack(t *testing.T) {
	s := flow.New()
	s.Push(&flow.Frame{Kind: flow.KindFunction})
	s.Push(&flow.Frame{Kind: flow.KindScope})

	// the Scope frame on top pops first; the Function frame below it can
	// then be popped, since the stack is otherwise empty by then.
	top := s.Top()
	require.Equal(t, flow.KindScope, top.Kind)
	_, err := s.Pop()
	require.NoError(t, err) // pops the Scope frame, which is legal

	_, err = s.Pop() // now pops Function with an empty remaining stack
	require.NoError(t, err)

	// a Function frame with another frame still beneath it cannot be popped.
	s2 := flow.New()
	s2.Push(&flow.Frame{Kind: flow.KindScope})
	s2.Push(&flow.Frame{Kind: flow.KindFunction})
	_, err = s2.Pop()
	require.Error(t, err)
}

func TestFlowStack_ExceptionStateCannotMoveBackward(t *testing.T) {
	f := &flow.Frame{Kind: flow.KindException, State: flow.Finally}
	err := f.Advance(flow.Try)
	require.Error(t, err)
}

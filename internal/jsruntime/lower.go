// Package jsruntime implements the structured-control lowering walk that
// drains a flow.Stack while issuing calls against an ir.Builder (spec.md
// §4.5/§6). It is the thin glue between the two packages: flow owns frame
// bookkeeping, ir owns code emission, and this file owns the walk that
// connects AST-shaped control constructs to both.
package jsruntime

import (
	"fmt"

	"github.com/harborlang/harbor/internal/jsruntime/flow"
	"github.com/harborlang/harbor/internal/jsruntime/ir"
)

// Lowerer threads a flow.Stack and an ir.Builder through a walk of
// structured control constructs. Callers build their AST-specific walk on
// top of this type's helpers rather than re-deriving frame bookkeeping.
type Lowerer struct {
	Stack   *flow.Stack
	Builder ir.Builder
	Exits   flow.ExitStack
}

// New creates a Lowerer over a fresh control-flow stack and the given
// backend builder.
func New(b ir.Builder) *Lowerer {
	return &Lowerer{Stack: flow.New(), Builder: b}
}

// EnterFunction pushes a Function frame and arranges the entry/body/return
// blocks, returning the body block as the insertion point for the
// function's statements.
func (l *Lowerer) EnterFunction() flow.BlockId {
	entry := l.Builder.CreateBlock()
	body := l.Builder.CreateBlock()
	ret := l.Builder.CreateBlock()

	l.Stack.Push(&flow.Frame{Kind: flow.KindFunction, EntryBlock: entry, BodyBlock: body, ReturnBlock: ret})

	l.Builder.SetInsertPoint(entry)
	l.Builder.Br(body)
	l.Builder.SetInsertPoint(body)
	return body
}

// ExitFunction pops the Function frame. It emits no code: the return
// block's contents and terminator, and every Return op the function body
// issues, are the caller's to emit.
func (l *Lowerer) ExitFunction() error {
	_, err := l.Stack.Pop()
	return err
}

// EnterScope pushes a block-scope frame with its own cleanup block.
func (l *Lowerer) EnterScope(label string) flow.BlockId {
	body := l.Builder.CreateBlock()
	cleanup := l.Builder.CreateBlock()
	l.Stack.Push(&flow.Frame{Kind: flow.KindScope, BodyBlockS: body, CleanupBlock: cleanup, Label: label})
	l.Builder.SetInsertPoint(body)
	return body
}

// ExitScope pops the current Scope, wiring fallthrough into its cleanup
// block and positioning emission there.
func (l *Lowerer) ExitScope() error {
	f, err := l.Stack.Pop()
	if err != nil {
		return err
	}
	l.Builder.Br(f.CleanupBlock)
	l.Builder.SetInsertPoint(f.CleanupBlock)
	return nil
}

// If lowers an if/then/else: cond is evaluated by the caller and passed in
// already built; thenBody/elseBody are callbacks that emit each branch's
// statements using the Lowerer. elseBody may be nil for a bodyless else.
func (l *Lowerer) If(cond ir.Value, thenBody func(), elseBody func()) {
	thenBlk := l.Builder.CreateBlock()
	elseBlk := l.Builder.CreateBlock()
	merge := l.Builder.CreateBlock()

	l.Stack.Push(&flow.Frame{Kind: flow.KindIfThenElse, ThenBlock: thenBlk, ElseBlock: elseBlk, MergeBlock: merge})

	l.Builder.CondBr(cond, thenBlk, elseBlk)

	l.Builder.SetInsertPoint(thenBlk)
	thenBody()
	l.Builder.Br(merge)

	l.Builder.SetInsertPoint(elseBlk)
	if elseBody != nil {
		elseBody()
	}
	l.Builder.Br(merge)

	l.Stack.Pop()
	l.Builder.SetInsertPoint(merge)
}

// Loop lowers a generic init/test/body/next loop shape (covers for/while
// with a nil init and/or next as needed). The test block runs before every
// iteration, including the first, so the body is never entered without the
// test passing. test and next produce their branch condition/side effects
// via the supplied callbacks; body emits the loop body and may call
// Break/Continue.
func (l *Lowerer) Loop(label string, init func(), test func() ir.Value, next func(), body func()) error {
	initBlk := l.Builder.CreateBlock()
	testBlk := l.Builder.CreateBlock()
	bodyBlk := l.Builder.CreateBlock()
	nextBlk := l.Builder.CreateBlock()
	endBlk := l.Builder.CreateBlock()

	l.Builder.Br(initBlk)
	l.Builder.SetInsertPoint(initBlk)
	if init != nil {
		init()
	}
	l.Builder.Br(testBlk)

	l.Stack.Push(&flow.Frame{Kind: flow.KindLoopTest, BranchBlock: testBlk})
	l.Builder.SetInsertPoint(testBlk)
	cond := test()
	l.Builder.CondBr(cond, bodyBlk, endBlk)
	if _, err := l.Stack.Pop(); err != nil {
		return err
	}

	l.Stack.Push(&flow.Frame{Kind: flow.KindLoopBody, BranchBlock: nextBlk, Label: label})
	l.Builder.SetInsertPoint(bodyBlk)
	body()
	l.Builder.Br(nextBlk)
	if _, err := l.Stack.Pop(); err != nil {
		return err
	}

	l.Builder.SetInsertPoint(nextBlk)
	if next != nil {
		next()
	}
	l.Builder.Br(testBlk)

	l.Builder.SetInsertPoint(endBlk)
	return nil
}

// Break lowers a break/break-label statement by consulting break_target and
// branching there.
func (l *Lowerer) Break(label string) error {
	target, err := l.Stack.BreakTarget(label)
	if err != nil {
		return fmt.Errorf("lowering break: %w", err)
	}
	l.Builder.Br(target)
	return nil
}

// Continue lowers a continue/continue-label statement.
func (l *Lowerer) Continue(label string) error {
	target, err := l.Stack.ContinueTarget(label)
	if err != nil {
		return fmt.Errorf("lowering continue: %w", err)
	}
	l.Builder.Br(target)
	return nil
}

// TryCatchFinally lowers a try/catch/finally region, advancing the
// Exception frame's state as each clause is entered. The frame directly
// beneath the Exception frame must be a Scope: popping the Exception frame
// returns a FrameInvariantError otherwise.
func (l *Lowerer) TryCatchFinally(tryBody func(), catchBody func(), finallyBody func(), catchIsNominal bool) error {
	tryBlk := l.Builder.CreateBlock()
	catchBlk := l.Builder.CreateBlock()
	finallyBlk := l.Builder.CreateBlock()
	endBlk := l.Builder.CreateBlock()

	f := &flow.Frame{Kind: flow.KindException, TryBlock: tryBlk, CatchBlock: catchBlk, FinallyBlock: finallyBlk, State: flow.Try}
	l.Stack.Push(f)

	l.Builder.Br(tryBlk)
	l.Builder.SetInsertPoint(tryBlk)
	tryBody()
	l.Builder.Br(catchBlk)

	if err := f.SetInCatch(catchIsNominal); err != nil {
		return err
	}
	l.Builder.SetInsertPoint(catchBlk)
	if catchBody != nil {
		catchBody()
	}
	l.Builder.Br(finallyBlk)

	if err := f.Advance(flow.Finally); err != nil {
		return err
	}
	l.Builder.SetInsertPoint(finallyBlk)
	if finallyBody != nil {
		finallyBody()
	}
	l.Builder.Br(endBlk)

	if _, err := l.Stack.Pop(); err != nil {
		return err
	}
	l.Builder.SetInsertPoint(endBlk)
	return nil
}

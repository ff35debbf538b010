// Package ir defines the backend-agnostic code-generation surface the
// control-flow stack (internal/jsruntime/flow) issues calls against
// (spec.md §6 "Codegen IR surface"). It declares the capability interface
// only — no concrete Cranelift or LLVM implementation lives here, since a
// lowering walk is written once against Builder and is expected to run
// unchanged against whichever concrete backend is wired in by its caller.
package ir

import "github.com/harborlang/harbor/internal/jsruntime/flow"

// Value is an opaque backend-defined SSA value handle.
type Value int

// Builder is the capability surface a structured-control lowering walk
// issues calls against while it drains the flow.Stack. Every method is a
// direct analog of one spec.md §6 names; a concrete backend (Cranelift,
// LLVM, or a plain interpreter for testing) implements this interface once
// and the lowering walk is written against the interface, never a concrete
// backend type.
type Builder interface {
	// CreateBlock allocates a new, empty basic block not yet reachable from
	// anything.
	CreateBlock() flow.BlockId

	// SetInsertPoint moves subsequent emission to the end of b.
	SetInsertPoint(b flow.BlockId)

	// Br emits an unconditional jump to target, terminating the current
	// block.
	Br(target flow.BlockId)

	// CondBr emits a conditional branch, terminating the current block.
	CondBr(cond Value, then, els flow.BlockId)

	// Switch emits a multi-way branch on disc, terminating the current
	// block. A nil default falls through to whatever the caller arranges
	// next (a Switch frame with no default_block, per spec.md §4.5).
	Switch(disc Value, cases map[int64]flow.BlockId, deflt *flow.BlockId)

	// Phi emits an SSA phi node merging one value per predecessor block.
	Phi(incoming map[flow.BlockId]Value) Value

	// Scalar/value operations the lowering walk issues directly; kept as a
	// small, closed set rather than an open-ended opcode enum, matching
	// what a JS-shaped backend actually needs (spec.md §6 "plus
	// scalar/value operations the lowering walk itself issues").
	ConstInt(v int64) Value
	ConstFloat(v float64) Value
	ConstString(v string) Value
	BinOp(op BinaryOp, lhs, rhs Value) Value
	UnaryOp(op UnaryOp, v Value) Value
	Call(callee Value, args []Value) Value
	Return(v Value)
}

// BinaryOp enumerates the binary operations a lowering walk can request.
type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Mod
	Eq
	NotEq
	Lt
	LtEq
	Gt
	GtEq
	And
	Or
)

// UnaryOp enumerates the unary operations a lowering walk can request.
type UnaryOp int

const (
	Neg UnaryOp = iota
	Not
)

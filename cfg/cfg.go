//  Copyright (c) 2023 Uber Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cfg models the control-flow graph of a single Java method as handed to the executor by
// an upstream front end: basic blocks of expression instructions linked by successor edges, with
// per-instruction source lines. The package also defines a small textual notation for graphs
// (see Parse) so that fixtures and the command line can express method bodies without a Java
// parser in the loop.
package cfg

import "fmt"

// Op discriminates the instruction kinds the executor interprets.
type Op uint8

const (
	// OpNullLit is the `null` literal.
	OpNullLit Op = iota
	// OpStringLit is a string literal.
	OpStringLit
	// OpCharLit is a character literal.
	OpCharLit
	// OpNumberLit is a numeric literal.
	OpNumberLit
	// OpBoolLit is `true` or `false` (see Node.Bool).
	OpBoolLit
	// OpIdent loads a local variable or parameter by name.
	OpIdent
	// OpAssign binds Name to the value of X.
	OpAssign
	// OpMember accesses member Name on receiver X; when IsCall is set it is a method invocation
	// with Args. Either way the receiver is dereferenced.
	OpMember
	// OpCall is an unqualified call Name(Args) with no receiver, e.g. a static or own-class
	// method. Its result is an opaque reference.
	OpCall
	// OpBinary is a binary operator application; Sym carries the operator symbol. The executor
	// gives `==`, `!=`, `&&` and `||` their path-sensitive meaning and treats every other
	// operator as opaque.
	OpBinary
	// OpNot is the logical negation of X.
	OpNot
)

// A Node is one expression instruction inside a basic block. Operands are nested nodes, the same
// shape the upstream CFG builder produces when it lowers a statement: the node executed by a block
// is the root, evaluated operands-first.
type Node struct {
	Op   Op
	Line int
	// Name is the identifier for OpIdent, the assignment target for OpAssign, the member name
	// for OpMember and the callee for OpCall.
	Name string
	// Text is the literal text for string, char and number literals.
	Text string
	// Bool is the constant for OpBoolLit.
	Bool bool
	// Sym is the operator symbol for OpBinary.
	Sym string
	// X is the first operand: assignment source, receiver, negated operand or left-hand side.
	X *Node
	// Y is the right-hand side for OpBinary.
	Y *Node
	// Args are the evaluated arguments for OpCall and OpMember invocations.
	Args []*Node
	// IsCall distinguishes a method invocation from a field access for OpMember.
	IsCall bool
}

// TermKind discriminates how a basic block transfers control.
type TermKind uint8

const (
	// Goto falls through to the single successor.
	Goto TermKind = iota
	// CondBranch branches on the value of the block's last instruction; successor 0 is taken
	// when the condition holds, successor 1 otherwise.
	CondBranch
	// Return leaves the method, optionally after evaluating a result (the block's last
	// instruction, if any).
	Return
	// Exit is the synthetic method exit.
	Exit
)

// A Block is a basic block: an ordered instruction sequence plus terminator.
type Block struct {
	Index int32
	Nodes []*Node
	Term  TermKind
	Succs []*Block
}

// A Graph is the control-flow graph of one method. Blocks[0] is the entry block.
type Graph struct {
	Method string
	// Params are the method's formal parameter names, bound to fresh opaque references when
	// execution starts.
	Params []string
	Blocks []*Block
}

// Entry returns the entry block.
func (g *Graph) Entry() *Block {
	return g.Blocks[0]
}

// Validate checks the structural invariants the executor relies on: at least one block, dense
// indices, terminator arity (one successor for goto, two for a conditional, none for return and
// exit), a condition instruction before every conditional, and no nil successors. A violation is
// a bug in the upstream CFG builder, so callers typically escalate it to a panic.
func (g *Graph) Validate() error {
	if g == nil || len(g.Blocks) == 0 {
		return fmt.Errorf("graph %q has no blocks", g.methodName())
	}
	for i, b := range g.Blocks {
		if b == nil {
			return fmt.Errorf("method %q: block %d is nil", g.Method, i)
		}
		if b.Index != int32(i) {
			return fmt.Errorf("method %q: block %d carries index %d", g.Method, i, b.Index)
		}
		want := 0
		switch b.Term {
		case Goto:
			want = 1
		case CondBranch:
			want = 2
			if len(b.Nodes) == 0 {
				return fmt.Errorf("method %q: block %d branches without a condition instruction", g.Method, i)
			}
		case Return, Exit:
			want = 0
		default:
			return fmt.Errorf("method %q: block %d has unknown terminator %d", g.Method, i, b.Term)
		}
		if len(b.Succs) != want {
			return fmt.Errorf("method %q: block %d has %d successors, want %d", g.Method, i, len(b.Succs), want)
		}
		for _, succ := range b.Succs {
			if succ == nil {
				return fmt.Errorf("method %q: block %d has a nil successor", g.Method, i)
			}
		}
	}
	return nil
}

func (g *Graph) methodName() string {
	if g == nil {
		return "<nil>"
	}
	return g.Method
}

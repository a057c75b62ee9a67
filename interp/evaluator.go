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

// Package interp is the symbolic interpretation core: the instruction evaluator that folds a
// basic block's instructions over a program state, and the path explorer that drives the
// worklist over the control-flow graph. Findings are pushed to the diagnostic reporter as they
// are discovered.
package interp

import (
	"fmt"

	"go.uber.org/javanil/cfg"
	"go.uber.org/javanil/config"
	"go.uber.org/javanil/diagnostic"
	"go.uber.org/javanil/symbolic"
)

// nullDerefMessage is the finding raised at a dereference whose receiver the analysis pins to
// null on some path.
const nullDerefMessage = "NullPointerException might be thrown as '%s' is nullable here"

// evaluator interprets instructions under a program state. It owns the reference generator of one
// execution, so evaluating a call site on two different paths yields two independent opaque
// references.
type evaluator struct {
	conf     *config.Config
	refs     *symbolic.RefGenerator
	reporter diagnostic.Reporter
}

// evalBlock folds the block's instructions over the state, mutating it in place, and returns the
// result of the last instruction (the branch condition when the block ends in a conditional).
func (ev *evaluator) evalBlock(s *symbolic.State, b *cfg.Block) result {
	last := valueResult(symbolic.Unknown())
	for _, n := range b.Nodes {
		last = ev.eval(s, n)
	}
	return last
}

// eval interprets one instruction, mutating the state and reporting dereference findings inline.
func (ev *evaluator) eval(s *symbolic.State, n *cfg.Node) result {
	switch n.Op {
	case cfg.OpNullLit:
		return valueResult(symbolic.Null())

	case cfg.OpStringLit, cfg.OpCharLit, cfg.OpNumberLit:
		return valueResult(symbolic.NonNull())

	case cfg.OpBoolLit:
		return valueResult(symbolic.Bool(n.Bool))

	case cfg.OpIdent:
		return valueResult(s.Lookup(n.Name))

	case cfg.OpAssign:
		r := ev.eval(s, n.X)
		s.Bind(n.Name, r.flatten())
		// The condition shape survives the assignment so that a branch directly on the
		// assignment still refines its successors.
		return r

	case cfg.OpMember:
		receiver := ev.eval(s, n.X)
		ev.checkDeref(s, receiver.flatten(), n.X, n.Line)
		for _, arg := range n.Args {
			ev.eval(s, arg)
		}
		return valueResult(symbolic.Ref(ev.refs.Next()))

	case cfg.OpCall:
		for _, arg := range n.Args {
			ev.eval(s, arg)
		}
		return valueResult(symbolic.Ref(ev.refs.Next()))

	case cfg.OpNot:
		r := ev.eval(s, n.X)
		if r.ref != nil {
			return refinementResult(r.ref.negate())
		}
		if b, ok := r.val.AsBool(); ok {
			return valueResult(symbolic.Bool(!b))
		}
		return valueResult(symbolic.Unknown())

	case cfg.OpBinary:
		switch n.Sym {
		case "==", "!=":
			return ev.evalEquality(s, n)
		case "&&":
			return ev.evalShortCircuit(s, n, true)
		case "||":
			return ev.evalShortCircuit(s, n, false)
		}
		// Arithmetic, relational and any other operators are opaque: evaluate the operands for
		// nested dereferences and give up on the result.
		ev.eval(s, n.X)
		ev.eval(s, n.Y)
		return valueResult(symbolic.Unknown())
	}

	panic(fmt.Sprintf("interp: unknown instruction kind %d at line %d", n.Op, n.Line))
}

// evalEquality interprets `==` and `!=`. Two cases carry meaning for the analysis: a comparison
// against a value that is null on this path turns into a nullness refinement of the other side,
// and a comparison of two boolean constants folds. Everything else is opaque.
func (ev *evaluator) evalEquality(s *symbolic.State, n *cfg.Node) result {
	lhs := ev.eval(s, n.X).flatten()
	rhs := ev.eval(s, n.Y).flatten()

	eq := ev.equalityRefinement(s, lhs, rhs)
	if eq == nil {
		if lb, lok := lhs.AsBool(); lok {
			if rb, rok := rhs.AsBool(); rok {
				eq = refinementOf(lb == rb)
			}
		}
	}
	if eq == nil {
		return valueResult(symbolic.Unknown())
	}
	if n.Sym == "!=" {
		eq = eq.negate()
	}
	return refinementResult(eq)
}

// equalityRefinement builds the refinement for `lhs == rhs` when one side is null on this path,
// or nil when the comparison has no nullness meaning.
func (ev *evaluator) equalityRefinement(s *symbolic.State, lhs, rhs symbolic.Value) *refinement {
	cs := s.Constraints()
	var other symbolic.Value
	switch {
	case lhs.IsDefinitelyNull(cs):
		other = rhs
	case rhs.IsDefinitelyNull(cs):
		other = lhs
	default:
		return nil
	}

	switch {
	case other.IsDefinitelyNull(cs):
		return refinementTrue()
	case other.IsDefinitelyNonNull(cs):
		return refinementFalse()
	}
	if id, ok := other.IsRef(); ok {
		return refinementOnRef(id, symbolic.IsNull)
	}
	// Comparing null against a value with no tracked origin decides nothing.
	return refinementUnknown()
}

func refinementOf(b bool) *refinement {
	if b {
		return refinementTrue()
	}
	return refinementFalse()
}

// evalShortCircuit interprets `&&` (isAnd) and `||` with path-sensitive short-circuit semantics.
// The right operand is evaluated only on the arms where the left operand did not short-circuit,
// under a state refined with that arm's constraints, so dereferences in the tail of a chain see
// the nullness facts established by its head. The composite is itself a refinement: for AND the
// true side needs both operands true, while the false side collects the left operand's false
// arms plus each left-true arm extended with a right-false arm; OR mirrors this.
func (ev *evaluator) evalShortCircuit(s *symbolic.State, n *cfg.Node, isAnd bool) result {
	left := ev.eval(s, n.X).asRefinement()

	// For AND the left arms that continue evaluation are the true ones; for OR the false ones.
	continuing := left.trueArms
	if !isAnd {
		continuing = left.falseArms
	}

	combined := &refinement{}
	if isAnd {
		combined.falseArms = append(combined.falseArms, left.falseArms...)
	} else {
		combined.trueArms = append(combined.trueArms, left.trueArms...)
	}

	for _, arm := range continuing {
		forked := s.Fork()
		if !applyDelta(forked, arm) {
			continue
		}
		right := ev.eval(forked, n.Y).asRefinement()
		for _, t := range right.trueArms {
			combined.trueArms = append(combined.trueArms, arm.concat(t))
		}
		for _, f := range right.falseArms {
			combined.falseArms = append(combined.falseArms, arm.concat(f))
		}
	}
	return refinementResult(combined)
}

// applyDelta refines the state with every constraint of the delta, reporting whether the state
// stayed feasible.
func applyDelta(s *symbolic.State, d delta) bool {
	for _, c := range d {
		if !s.AddConstraint(c) {
			return false
		}
	}
	return true
}

// checkDeref raises a dereference finding when the receiver is provably nullable on this path:
// the value is null, or it is a reference the path constraints pin to null. Receivers the
// analysis knows nothing about stay silent unless the configuration opts in.
func (ev *evaluator) checkDeref(s *symbolic.State, receiver symbolic.Value, expr *cfg.Node, line int) {
	cs := s.Constraints()
	if !receiver.IsDefinitelyNull(cs) && !(ev.conf.ReportUnknownDereferences && receiver.MayBeNull(cs)) {
		return
	}
	ev.reporter.Report(line, fmt.Sprintf(nullDerefMessage, receiverName(expr)))
}

// receiverName names the nullable receiver: a local or an assignment target by its name, a
// member access or call result by the member or callee name, and any other expression by its
// text.
func receiverName(n *cfg.Node) string {
	switch n.Op {
	case cfg.OpIdent, cfg.OpAssign:
		return n.Name
	case cfg.OpMember, cfg.OpCall:
		return n.Name
	}
	return n.String()
}

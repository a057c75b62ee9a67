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

package interp

import "go.uber.org/javanil/symbolic"

// A delta is one way a condition outcome can come about: the conjunction of constraints the
// outcome imposes on the path. The empty delta imposes nothing.
type delta []symbolic.Constraint

// concat returns the conjunction of two deltas as a fresh slice.
func (d delta) concat(other delta) delta {
	out := make(delta, 0, len(d)+len(other))
	out = append(out, d...)
	return append(out, other...)
}

// A refinement is the value of a condition before the terminator consumes it: the set of feasible
// ways the condition can be true and the set of ways it can be false, each carrying the
// constraints to apply on the corresponding outgoing edge. Short-circuit operators produce
// several arms per side, one per surviving evaluation order of their operands. An empty side
// means the condition can never take that outcome, which is what turns into an always-true or
// always-false finding at the branch.
//
// A refinement must never be collapsed into a boolean before the terminator; the per-side
// constraint sets are exactly what makes dereferences in short-circuit tails path-sensitive.
type refinement struct {
	trueArms  []delta
	falseArms []delta
}

// negate swaps the outcomes of the condition.
func (r *refinement) negate() *refinement {
	return &refinement{trueArms: r.falseArms, falseArms: r.trueArms}
}

// refinementTrue is the condition that always holds.
func refinementTrue() *refinement {
	return &refinement{trueArms: []delta{nil}}
}

// refinementFalse is the condition that never holds.
func refinementFalse() *refinement {
	return &refinement{falseArms: []delta{nil}}
}

// refinementUnknown is the condition the analysis cannot decide: both outcomes feasible with no
// extra constraints.
func refinementUnknown() *refinement {
	return &refinement{trueArms: []delta{nil}, falseArms: []delta{nil}}
}

// refinementOnRef is the condition `ref IS NULL` (in the given polarity) with its negation on the
// false side.
func refinementOnRef(ref symbolic.RefID, whenTrue symbolic.Nullness) *refinement {
	return &refinement{
		trueArms:  []delta{{symbolic.Constraint{Ref: ref, Nullness: whenTrue}}},
		falseArms: []delta{{symbolic.Constraint{Ref: ref, Nullness: whenTrue.Negate()}}},
	}
}

// A result is what evaluating one instruction yields: either a plain symbolic value or, for
// condition-shaped expressions, a refinement.
type result struct {
	val symbolic.Value
	ref *refinement
}

func valueResult(v symbolic.Value) result {
	return result{val: v}
}

func refinementResult(r *refinement) result {
	return result{ref: r}
}

// flatten collapses the result to a plain symbolic value for binding into a state: a refinement
// with only one feasible outcome collapses to the corresponding boolean constant, any other
// refinement collapses to Unknown.
func (r result) flatten() symbolic.Value {
	if r.ref == nil {
		return r.val
	}
	switch {
	case len(r.ref.trueArms) > 0 && len(r.ref.falseArms) == 0:
		return symbolic.Bool(true)
	case len(r.ref.falseArms) > 0 && len(r.ref.trueArms) == 0:
		return symbolic.Bool(false)
	}
	return symbolic.Unknown()
}

// asRefinement views the result as a condition.
func (r result) asRefinement() *refinement {
	if r.ref != nil {
		return r.ref
	}
	if b, ok := r.val.AsBool(); ok {
		if b {
			return refinementTrue()
		}
		return refinementFalse()
	}
	return refinementUnknown()
}

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

package symbolic

import "go.uber.org/javanil/util/orderedmap"

// A State is the executor's per-path snapshot: the mapping from local variable names to symbolic
// values, the constraints accumulated along the path, and the per-block visit counts that bound
// loop exploration.
//
// States obey value semantics at every branch point: Fork returns a logically independent copy,
// and no mutation of one fork is ever visible in another. Within a single path the state is
// mutated in place as the evaluator folds over a block's instructions. The visit counts live
// inside the state rather than in a side table keyed by block, so two independent paths meeting
// at the same block never saturate each other's budget.
type State struct {
	bindings    *orderedmap.OrderedMap[string, Value]
	constraints ConstraintSet
	visits      map[int32]int
}

// NewState returns an empty state with no bindings, no constraints and no recorded visits.
func NewState() *State {
	return &State{
		bindings:    orderedmap.New[string, Value](),
		constraints: NewConstraintSet(),
		visits:      make(map[int32]int),
	}
}

// Bind records that the named local holds the given value from this point of the path on,
// replacing any previous binding.
func (s *State) Bind(name string, v Value) {
	s.bindings.Store(name, v)
}

// Lookup returns the value currently bound to the named local. Names the path has never bound
// resolve to Unknown.
func (s *State) Lookup(name string) Value {
	if v, ok := s.bindings.Load(name); ok {
		return v
	}
	return Unknown()
}

// AddConstraint refines the path with an atomic constraint and reports whether the path is still
// feasible. On contradiction the state is unchanged and the caller must discard it.
func (s *State) AddConstraint(c Constraint) bool {
	return s.constraints.Add(c)
}

// Constraints exposes the accumulated constraint set for nullability queries. Callers must treat
// the returned set as read-only; refinement goes through AddConstraint.
func (s *State) Constraints() ConstraintSet {
	return s.constraints
}

// Fork returns a logically independent copy of the state.
func (s *State) Fork() *State {
	visits := make(map[int32]int, len(s.visits))
	for b, n := range s.visits {
		visits[b] = n
	}
	return &State{
		bindings:    s.bindings.Copy(),
		constraints: s.constraints.Copy(),
		visits:      visits,
	}
}

// VisitCount returns how many times this path has entered the given block.
func (s *State) VisitCount(block int32) int {
	return s.visits[block]
}

// MarkVisit increments the visit count for the given block and returns the new count. Counts are
// monotonic along any path.
func (s *State) MarkVisit(block int32) int {
	s.visits[block]++
	return s.visits[block]
}

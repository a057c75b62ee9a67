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

// Package symbolic hosts the abstract value domain of the executor: the flat lattice of symbolic
// values, the path constraints that refine opaque references, and the per-path program state.
package symbolic

import "fmt"

// RefID identifies an opaque reference value. Two references are the same value iff their ids
// match. Fresh ids are handed out by a RefGenerator owned by a single executor instance, so ids
// are unique within one execution but not globally.
type RefID int32

type valueKind uint8

const (
	kindUnknown valueKind = iota
	kindNull
	kindNonNull
	kindTrue
	kindFalse
	kindRef
)

// Value is one point of the flat symbolic lattice: Unknown at the top, the concrete shapes
// (definitely null, definitely non-null, the two boolean constants) below it, and opaque
// references whose nullability is governed by the path constraints rather than the value itself.
// Value is a small immutable struct and is always passed by value.
type Value struct {
	kind valueKind
	ref  RefID
}

// Unknown returns the no-information value.
func Unknown() Value { return Value{kind: kindUnknown} }

// Null returns the value that is null on the current path.
func Null() Value { return Value{kind: kindNull} }

// NonNull returns the value that is non-null on the current path, e.g. a string literal.
func NonNull() Value { return Value{kind: kindNonNull} }

// Bool returns the concrete boolean value used for constant-folding conditions.
func Bool(b bool) Value {
	if b {
		return Value{kind: kindTrue}
	}
	return Value{kind: kindFalse}
}

// Ref returns the opaque reference value for the given id.
func Ref(id RefID) Value { return Value{kind: kindRef, ref: id} }

// IsUnknown reports whether the value carries no information at all.
func (v Value) IsUnknown() bool { return v.kind == kindUnknown }

// IsRef reports whether the value is an opaque reference, returning its id if so.
func (v Value) IsRef() (RefID, bool) { return v.ref, v.kind == kindRef }

// AsBool reports whether the value is a boolean constant, returning the constant if so.
func (v Value) AsBool() (bool, bool) {
	switch v.kind {
	case kindTrue:
		return true, true
	case kindFalse:
		return false, true
	}
	return false, false
}

// IsDefinitelyNull reports whether the value is null on every continuation of the current path:
// either it is the null constant, or it is a reference the constraint set pins to null.
func (v Value) IsDefinitelyNull(cs ConstraintSet) bool {
	if v.kind == kindNull {
		return true
	}
	if v.kind == kindRef {
		n, ok := cs.NullnessOf(v.ref)
		return ok && n == IsNull
	}
	return false
}

// IsDefinitelyNonNull is the mirror image of IsDefinitelyNull. Boolean constants are values, not
// references, and count as non-null.
func (v Value) IsDefinitelyNonNull(cs ConstraintSet) bool {
	switch v.kind {
	case kindNonNull, kindTrue, kindFalse:
		return true
	case kindRef:
		n, ok := cs.NullnessOf(v.ref)
		return ok && n == IsNotNull
	}
	return false
}

// MayBeNull reports whether the constraint set fails to prove the value non-null. Note that this
// holds for Unknown values too; whether an Unknown receiver is reportable is a policy decision
// taken by the caller, not by the lattice.
func (v Value) MayBeNull(cs ConstraintSet) bool {
	return !v.IsDefinitelyNonNull(cs)
}

// resolve collapses a reference to its constrained shape, if the constraint set determines one.
// All other values resolve to themselves.
func (v Value) resolve(cs ConstraintSet) Value {
	if v.kind != kindRef {
		return v
	}
	switch n, ok := cs.NullnessOf(v.ref); {
	case ok && n == IsNull:
		return Null()
	case ok && n == IsNotNull:
		return NonNull()
	}
	return v
}

// Join returns the least general value subsuming both operands under the given constraint set.
// Identical values join to themselves; a reference joins with the shape its constraints resolve
// it to; any two distinct concrete values join to Unknown.
func Join(a, b Value, cs ConstraintSet) Value {
	if a == b {
		return a
	}
	ra, rb := a.resolve(cs), b.resolve(cs)
	if ra == rb {
		return ra
	}
	return Unknown()
}

// String renders the value for debugging output.
func (v Value) String() string {
	switch v.kind {
	case kindUnknown:
		return "unknown"
	case kindNull:
		return "null"
	case kindNonNull:
		return "nonnull"
	case kindTrue:
		return "true"
	case kindFalse:
		return "false"
	case kindRef:
		return fmt.Sprintf("ref(%d)", v.ref)
	}
	panic(fmt.Sprintf("unhandled value kind %d", v.kind))
}

// A RefGenerator is a stateful object used to ensure unique obtainment of reference ids within
// one executor instance.
type RefGenerator struct {
	last RefID
}

// NewRefGenerator returns a fresh generator whose first id is 0.
func NewRefGenerator() *RefGenerator {
	return &RefGenerator{last: -1}
}

// Next returns the first reference id that has not already been handed out.
func (g *RefGenerator) Next() RefID {
	g.last++
	return g.last
}

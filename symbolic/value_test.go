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

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestNullnessPredicates(t *testing.T) {
	t.Parallel()

	cs := NewConstraintSet()
	require.True(t, Null().IsDefinitelyNull(cs))
	require.False(t, Null().IsDefinitelyNonNull(cs))
	require.True(t, Null().MayBeNull(cs))

	require.True(t, NonNull().IsDefinitelyNonNull(cs))
	require.False(t, NonNull().MayBeNull(cs))

	// Booleans are values, not references.
	require.True(t, Bool(true).IsDefinitelyNonNull(cs))
	require.True(t, Bool(false).IsDefinitelyNonNull(cs))

	// Unknown may be null but is never provably null.
	require.False(t, Unknown().IsDefinitelyNull(cs))
	require.True(t, Unknown().MayBeNull(cs))
}

func TestRefNullnessFollowsConstraints(t *testing.T) {
	t.Parallel()

	gen := NewRefGenerator()
	a, b := Ref(gen.Next()), Ref(gen.Next())

	cs := NewConstraintSet()
	aID, _ := a.IsRef()
	bID, _ := b.IsRef()
	require.True(t, cs.Add(Constraint{Ref: aID, Nullness: IsNull}))
	require.True(t, cs.Add(Constraint{Ref: bID, Nullness: IsNotNull}))

	require.True(t, a.IsDefinitelyNull(cs))
	require.False(t, a.IsDefinitelyNonNull(cs))
	require.True(t, b.IsDefinitelyNonNull(cs))
	require.False(t, b.MayBeNull(cs))

	// An unconstrained ref is neither provably null nor provably non-null.
	c := Ref(gen.Next())
	require.False(t, c.IsDefinitelyNull(cs))
	require.True(t, c.MayBeNull(cs))
}

func TestConstraintSetConsistency(t *testing.T) {
	t.Parallel()

	cs := NewConstraintSet()
	c := Constraint{Ref: 7, Nullness: IsNull}
	require.True(t, cs.Add(c))
	// Re-adding the same fact is a no-op.
	require.True(t, cs.Add(c))
	// The opposite polarity is a contradiction and leaves the set unchanged.
	require.False(t, cs.Add(Constraint{Ref: 7, Nullness: IsNotNull}))
	n, ok := cs.NullnessOf(7)
	require.True(t, ok)
	require.Equal(t, IsNull, n)
}

func TestJoin(t *testing.T) {
	t.Parallel()

	gen := NewRefGenerator()
	r := Ref(gen.Next())
	rID, _ := r.IsRef()

	cs := NewConstraintSet()
	require.Equal(t, Null(), Join(Null(), Null(), cs))
	require.Equal(t, Unknown(), Join(Null(), NonNull(), cs))
	require.Equal(t, Unknown(), Join(Bool(true), Bool(false), cs))
	require.Equal(t, Unknown(), Join(r, NonNull(), cs))

	// Once the constraints resolve the ref, it joins with its resolved shape.
	require.True(t, cs.Add(Constraint{Ref: rID, Nullness: IsNotNull}))
	require.Equal(t, NonNull(), Join(r, NonNull(), cs))
}

func TestRefGeneratorIsMonotone(t *testing.T) {
	t.Parallel()

	gen := NewRefGenerator()
	require.Equal(t, RefID(0), gen.Next())
	require.Equal(t, RefID(1), gen.Next())
	require.Equal(t, RefID(2), gen.Next())
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

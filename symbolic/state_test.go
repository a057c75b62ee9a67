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
)

func TestLookupDefaultsToUnknown(t *testing.T) {
	t.Parallel()

	s := NewState()
	require.Equal(t, Unknown(), s.Lookup("never"))

	s.Bind("a", Null())
	require.Equal(t, Null(), s.Lookup("a"))
	s.Bind("a", NonNull())
	require.Equal(t, NonNull(), s.Lookup("a"))
}

func TestForkIsIndependent(t *testing.T) {
	t.Parallel()

	s := NewState()
	s.Bind("a", Null())
	require.True(t, s.AddConstraint(Constraint{Ref: 1, Nullness: IsNull}))
	s.MarkVisit(3)

	f := s.Fork()

	// Mutations of the fork never show in the original, and vice versa.
	f.Bind("a", NonNull())
	f.Bind("b", Null())
	require.True(t, f.AddConstraint(Constraint{Ref: 2, Nullness: IsNotNull}))
	f.MarkVisit(3)
	s.Bind("c", NonNull())

	require.Equal(t, Null(), s.Lookup("a"))
	require.Equal(t, Unknown(), s.Lookup("b"))
	require.Equal(t, Unknown(), f.Lookup("c"))

	_, ok := s.Constraints().NullnessOf(2)
	require.False(t, ok)
	n, ok := f.Constraints().NullnessOf(1)
	require.True(t, ok)
	require.Equal(t, IsNull, n)

	require.Equal(t, 1, s.VisitCount(3))
	require.Equal(t, 2, f.VisitCount(3))
}

func TestAddConstraintContradiction(t *testing.T) {
	t.Parallel()

	s := NewState()
	require.True(t, s.AddConstraint(Constraint{Ref: 9, Nullness: IsNotNull}))
	require.False(t, s.AddConstraint(Constraint{Ref: 9, Nullness: IsNull}))

	// The original fact survives the rejected refinement.
	n, ok := s.Constraints().NullnessOf(9)
	require.True(t, ok)
	require.Equal(t, IsNotNull, n)
}

func TestVisitCountsAreMonotone(t *testing.T) {
	t.Parallel()

	s := NewState()
	require.Equal(t, 0, s.VisitCount(0))
	require.Equal(t, 1, s.MarkVisit(0))
	require.Equal(t, 2, s.MarkVisit(0))
	require.Equal(t, 0, s.VisitCount(1))
}

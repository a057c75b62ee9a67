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

// Package diagnostic hosts the reporting side of the executor: the Reporter contract the executor
// writes findings to, and the Engine that deduplicates and orders them for emission.
package diagnostic

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/javanil/util/orderedmap"
)

// Reporter is the sink the executor pushes findings to. Report must be idempotent on
// (line, message); it is only ever called from within a single Execute call, so implementations
// need no internal locking.
type Reporter interface {
	Report(line int, message string)
}

// A Finding is one recorded diagnostic, keyed by the source line it was reported on.
type Finding struct {
	Line    int
	Message string
}

// String renders the finding as `line: message`, the form Render uses.
func (f Finding) String() string {
	return fmt.Sprintf("%d: %s", f.Line, f.Message)
}

// Engine collects findings from an execution. At most one message is kept per source line: the
// first message recorded for a line wins, and later reports on the same line are dropped. This
// mirrors how one source statement can be reached along many explored paths while the user should
// see a single diagnostic for it.
type Engine struct {
	findings *orderedmap.OrderedMap[int, string]
}

var _ Reporter = (*Engine)(nil)

// NewEngine returns an empty diagnostic engine.
func NewEngine() *Engine {
	return &Engine{findings: orderedmap.New[int, string]()}
}

// Report records a finding unless the line already carries one.
func (e *Engine) Report(line int, message string) {
	if _, ok := e.findings.Load(line); ok {
		return
	}
	e.findings.Store(line, message)
}

// Len returns the number of recorded findings.
func (e *Engine) Len() int {
	return e.findings.Len()
}

// Findings returns the recorded findings sorted by line. The result is independent of the order
// in which paths were explored.
func (e *Engine) Findings() []Finding {
	out := make([]Finding, 0, e.findings.Len())
	for _, p := range e.findings.Pairs {
		out = append(out, Finding{Line: p.Key, Message: p.Value})
	}
	slices.SortFunc(out, func(a, b Finding) int {
		return cmp.Compare(a.Line, b.Line)
	})
	return out
}

// Render formats the sorted findings one per line, for golden tests.
func Render(findings []Finding) string {
	if len(findings) == 0 {
		return "no findings\n"
	}
	var sb strings.Builder
	for _, f := range findings {
		sb.WriteString(f.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

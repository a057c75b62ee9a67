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

import (
	"fmt"

	"go.uber.org/javanil/cfg"
	"go.uber.org/javanil/config"
	"go.uber.org/javanil/diagnostic"
	"go.uber.org/javanil/symbolic"
)

// tautologyMessage is the finding raised on a branch condition that takes the same outcome on
// every feasible incoming path.
const tautologyMessage = "Change this condition so that it does not always evaluate to %q"

// An Explorer symbolically executes one control-flow graph. The worklist is processed in FIFO
// order; since findings are deduplicated by source line and sorted on emission, the policy is an
// implementation detail, but a deterministic one keeps executions reproducible.
//
// An Explorer is single use and not safe for concurrent use; independent graphs should get
// independent explorers.
type Explorer struct {
	conf     *config.Config
	reporter diagnostic.Reporter
	ev       *evaluator
}

// NewExplorer returns an explorer that reports findings for one graph to the given reporter.
func NewExplorer(conf *config.Config, reporter diagnostic.Reporter) *Explorer {
	return &Explorer{
		conf:     conf,
		reporter: reporter,
		ev: &evaluator{
			conf:     conf,
			refs:     symbolic.NewRefGenerator(),
			reporter: reporter,
		},
	}
}

// item is one unit of exploration work: a basic block and the state in which the path enters it.
type item struct {
	block *cfg.Block
	state *symbolic.State
}

// Run explores the graph to completion, starting from the entry block with every formal
// parameter bound to a fresh opaque reference. It panics on a structurally malformed graph; that
// is a bug in the upstream CFG builder, not an analyzable condition.
func (x *Explorer) Run(g *cfg.Graph) {
	if err := g.Validate(); err != nil {
		panic(fmt.Sprintf("interp: malformed control-flow graph: %v", err))
	}

	init := symbolic.NewState()
	for _, param := range g.Params {
		init.Bind(param, symbolic.Ref(x.ev.refs.Next()))
	}

	worklist := []item{{block: g.Entry(), state: init}}
	for len(worklist) > 0 {
		it := worklist[0]
		worklist = worklist[1:]

		// Bound loop exploration: a path that has already spent its budget on this block is
		// dropped, not an error.
		if it.state.VisitCount(it.block.Index) > x.conf.MaxBlockVisits {
			continue
		}
		visits := it.state.MarkVisit(it.block.Index)

		last := x.ev.evalBlock(it.state, it.block)

		switch it.block.Term {
		case cfg.Goto:
			worklist = append(worklist, item{block: it.block.Succs[0], state: it.state})

		case cfg.CondBranch:
			worklist = append(worklist, x.branch(it, last, visits == 1)...)

		case cfg.Return, cfg.Exit:
			// The path is complete.
		}
	}
}

// branch forks the state into the feasible successors of a conditional block, raising an
// always-true or always-false finding when only one side survives. The finding is suppressed on
// revisits of the block along the same path: a condition that bounded loop unrolling happens to
// pin is not a constant condition in the source.
func (x *Explorer) branch(it item, cond result, firstVisit bool) []item {
	ref := cond.asRefinement()
	trueStates := feasibleForks(it.state, ref.trueArms)
	falseStates := feasibleForks(it.state, ref.falseArms)

	condLine := it.block.Nodes[len(it.block.Nodes)-1].Line
	if firstVisit {
		switch {
		case len(trueStates) > 0 && len(falseStates) == 0:
			x.reporter.Report(condLine, fmt.Sprintf(tautologyMessage, "true"))
		case len(falseStates) > 0 && len(trueStates) == 0:
			x.reporter.Report(condLine, fmt.Sprintf(tautologyMessage, "false"))
		}
	}

	var out []item
	for _, s := range trueStates {
		out = append(out, item{block: it.block.Succs[0], state: s})
	}
	for _, s := range falseStates {
		out = append(out, item{block: it.block.Succs[1], state: s})
	}
	return out
}

// feasibleForks forks the state once per arm and applies the arm's constraints, silently
// discarding forks the constraints contradict.
func feasibleForks(s *symbolic.State, arms []delta) []*symbolic.State {
	var out []*symbolic.State
	for _, arm := range arms {
		forked := s.Fork()
		if applyDelta(forked, arm) {
			out = append(out, forked)
		}
	}
	return out
}

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

// Package javanil implements a path-sensitive symbolic executor over the control-flow graph of a
// single Java method. It flags two classes of defect: dereferences of values the analysis can
// prove nullable on some path, and branch conditions that evaluate the same way on every feasible
// path. The Java parser and the CFG construction are upstream concerns; this module consumes the
// graph shape defined in the cfg package and pushes findings to a diagnostic reporter.
package javanil

import (
	"go.uber.org/javanil/cfg"
	"go.uber.org/javanil/config"
	"go.uber.org/javanil/diagnostic"
	"go.uber.org/javanil/interp"
)

// An Executor runs the symbolic analysis of method graphs under one configuration. Execute is
// not reentrant: an Executor processes one graph at a time. Distinct Executor instances are
// independent and may run concurrently on distinct graphs, provided they do not share a reporter.
type Executor struct {
	conf *config.Config
}

// NewExecutor returns an executor with the given configuration; nil means defaults.
func NewExecutor(conf *config.Config) *Executor {
	if conf == nil {
		conf = config.New()
	}
	return &Executor{conf: conf}
}

// Execute symbolically executes the method graph and reports every finding to r. It returns no
// value: the reporter is the only output channel. Execute panics on a structurally malformed
// graph, which indicates a bug in the upstream CFG builder.
func (e *Executor) Execute(g *cfg.Graph, r diagnostic.Reporter) {
	interp.NewExplorer(e.conf, r).Run(g)
}

// Run is a convenience for one-shot use: it executes the graph under the default configuration
// and returns the deduplicated findings sorted by line.
func Run(g *cfg.Graph) []diagnostic.Finding {
	engine := diagnostic.NewEngine()
	NewExecutor(nil).Execute(g, engine)
	return engine.Findings()
}

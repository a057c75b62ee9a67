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

// main package makes it possible to run the executor as a standalone checker over method graphs
// in their textual notation, outside the surrounding rule engine. This is primarily a debugging
// and triage surface: the production integration hands graphs over in memory.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/javanil"
	"go.uber.org/javanil/cfg"
	"go.uber.org/javanil/config"
	"go.uber.org/javanil/diagnostic"
)

var (
	maxBlockVisits int
	reportUnknown  bool
	artifactDir    string
	dumpGraph      bool
)

var rootCmd = &cobra.Command{
	Use:   "javanil [files]",
	Short: "Symbolically execute Java method graphs and report nullability findings",
	Long: `javanil reads one or more method control-flow graphs in their textual notation,
symbolically executes each method and prints the findings, one per line:

  file:line: message

The exit status is 1 when any finding was reported, 2 when the tool itself failed
(unreadable or malformed input), and 0 otherwise.`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().IntVar(&maxBlockVisits, "max-block-visits", config.DefaultMaxBlockVisits,
		"per-path bound on revisits of a basic block (loop unrolling depth)")
	rootCmd.Flags().BoolVar(&reportUnknown, "report-unknown-dereferences", false,
		"also report dereferences of receivers with unknown nullability")
	rootCmd.Flags().StringVar(&artifactDir, "artifact-dir", "",
		"write a compressed finding artifact per input file into this directory")
	rootCmd.Flags().BoolVar(&dumpGraph, "dump-graph", false,
		"print each parsed graph in canonical notation before its findings")
}

func run(cmd *cobra.Command, args []string) error {
	opts := []config.Option{config.MaxBlockVisits(maxBlockVisits)}
	if reportUnknown {
		opts = append(opts, config.ReportUnknownDereferences())
	}
	executor := javanil.NewExecutor(config.New(opts...))

	reported := false
	for _, file := range args {
		findings, err := checkFile(cmd, executor, file)
		if err != nil {
			return err
		}
		reported = reported || len(findings) > 0
	}
	if reported {
		// Findings are not an error of the tool itself, but the conventional nonzero exit lets
		// scripts gate on them.
		os.Exit(1)
	}
	return nil
}

func checkFile(cmd *cobra.Command, executor *javanil.Executor, file string) ([]diagnostic.Finding, error) {
	src, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	graph, err := cfg.Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}

	if dumpGraph {
		fmt.Fprintln(cmd.OutOrStdout(), graph)
	}

	engine := diagnostic.NewEngine()
	executor.Execute(graph, engine)
	findings := engine.Findings()
	for _, f := range findings {
		fmt.Fprintf(cmd.OutOrStdout(), "%s:%d: %s\n", file, f.Line, f.Message)
	}

	if artifactDir != "" {
		if err := writeArtifact(artifactDir, file, graph.Method, findings); err != nil {
			return nil, err
		}
	}
	return findings, nil
}

func writeArtifact(dir, file, method string, findings []diagnostic.Finding) error {
	out, err := os.Create(fmt.Sprintf("%s/%s.findings", dir, method))
	if err != nil {
		return fmt.Errorf("create artifact for %s: %w", file, err)
	}
	defer out.Close()
	if err := diagnostic.WriteArtifact(out, method, findings); err != nil {
		return fmt.Errorf("write artifact for %s: %w", file, err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

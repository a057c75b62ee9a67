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

package javanil_test

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/javanil"
	"go.uber.org/javanil/cfg"
	"go.uber.org/javanil/config"
	"go.uber.org/javanil/diagnostic"
	"golang.org/x/tools/txtar"
)

// TestScenarios drives every fixture under testdata/scenarios. Each txtar archive holds a method
// graph in textual notation and the findings its execution must produce, rendered one per line.
func TestScenarios(t *testing.T) {
	t.Parallel()

	files, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.txtar"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		file := file
		t.Run(strings.TrimSuffix(filepath.Base(file), ".txtar"), func(t *testing.T) {
			t.Parallel()

			archive, err := txtar.ParseFile(file)
			require.NoError(t, err)

			var src, want string
			for _, f := range archive.Files {
				switch f.Name {
				case "method.cfg":
					src = string(f.Data)
				case "findings.txt":
					want = string(f.Data)
				default:
					t.Fatalf("unexpected file %q in %s", f.Name, file)
				}
			}
			require.NotEmpty(t, src, "archive %s is missing method.cfg", file)
			require.NotEmpty(t, want, "archive %s is missing findings.txt", file)

			graph, err := cfg.Parse(src)
			require.NoError(t, err)

			got := diagnostic.Render(javanil.Run(graph))
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("findings mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestScenariosAreDeterministic replays every fixture several times and demands identical
// findings on each run.
func TestScenariosAreDeterministic(t *testing.T) {
	t.Parallel()

	files, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.txtar"))
	require.NoError(t, err)

	for _, file := range files {
		archive, err := txtar.ParseFile(file)
		require.NoError(t, err)
		for _, f := range archive.Files {
			if f.Name != "method.cfg" {
				continue
			}
			graph := cfg.MustParse(string(f.Data))
			first := javanil.Run(graph)
			for i := 0; i < 5; i++ {
				require.Equal(t, first, javanil.Run(cfg.MustParse(string(f.Data))))
			}
		}
	}
}

func TestExecutorHonorsConfig(t *testing.T) {
	t.Parallel()

	graph := cfg.MustParse(`
method optIn()

block 0:
  a = getString()
  a.toString()
  exit
`)

	// Default configuration stays silent on an unknown receiver.
	engine := diagnostic.NewEngine()
	javanil.NewExecutor(nil).Execute(graph, engine)
	require.Empty(t, engine.Findings())

	// The opt-in makes it report.
	engine = diagnostic.NewEngine()
	javanil.NewExecutor(config.New(config.ReportUnknownDereferences())).Execute(graph, engine)
	require.Equal(t, []diagnostic.Finding{
		{Line: 2, Message: "NullPointerException might be thrown as 'a' is nullable here"},
	}, engine.Findings())
}

// TestIndependentExecutorsRunConcurrently exercises the documented concurrency contract:
// distinct executor instances with distinct reporters may analyze distinct graphs in parallel.
func TestIndependentExecutorsRunConcurrently(t *testing.T) {
	t.Parallel()

	src := `
method par(a)

block 0:
  a == null
  branch 1 2

block 1:
  a.toString()
  goto 2

block 2:
  exit
`
	var wg sync.WaitGroup
	results := make([][]diagnostic.Finding, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = javanil.Run(cfg.MustParse(src))
		}(i)
	}
	wg.Wait()

	for _, findings := range results {
		require.Equal(t, []diagnostic.Finding{
			{Line: 2, Message: "NullPointerException might be thrown as 'a' is nullable here"},
		}, findings)
	}
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

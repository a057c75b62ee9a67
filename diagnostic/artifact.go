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

package diagnostic

import (
	"encoding/gob"
	"fmt"
	"io"

	"github.com/klauspost/compress/s2"
)

// The finding artifact lets the surrounding rule engine cache an execution's findings between
// runs instead of re-executing unchanged methods. Findings are gob encoded and the stream is
// s2 compressed: finding messages repeat almost verbatim across lines and methods, so the
// artifacts compress very well, and s2 keeps the decode on the hot path cheap.

// artifact is the serialized payload. The method name is stored so a cache can detect it is
// replaying findings against the wrong method.
type artifact struct {
	Method   string
	Findings []Finding
}

// WriteArtifact encodes the findings for a method into w.
func WriteArtifact(w io.Writer, method string, findings []Finding) (err error) {
	zw := s2.NewWriter(w)
	defer func() {
		if cerr := zw.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close compressed artifact stream: %w", cerr)
		}
	}()
	if err := gob.NewEncoder(zw).Encode(artifact{Method: method, Findings: findings}); err != nil {
		return fmt.Errorf("encode finding artifact: %w", err)
	}
	return nil
}

// ReadArtifact decodes a finding artifact, returning the method name it was recorded for and the
// findings in their stored (line-sorted) order.
func ReadArtifact(r io.Reader) (string, []Finding, error) {
	var a artifact
	if err := gob.NewDecoder(s2.NewReader(r)).Decode(&a); err != nil {
		return "", nil, fmt.Errorf("decode finding artifact: %w", err)
	}
	return a.Method, a.Findings, nil
}

// Copyright 2025 Poiesic Systems
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

package search

import (
	"github.com/poiesic/inventree/core"
	"github.com/poiesic/inventree/dense"
	"github.com/poiesic/inventree/sparse"
)

// Handles is one consistent pair of built indices. Dense is nil when the
// generation was built without embeddings or the dense artifact could not
// be used. Handles are never mutated once published.
type Handles struct {
	Sparse     *sparse.Index
	Dense      *dense.Index
	Generation core.Generation
}

// HandleSource supplies the handles to query. The lifecycle manager
// implements it and swaps handles atomically after each rebuild.
type HandleSource interface {
	Handles() *Handles
}

// StaticHandles is a HandleSource that always returns the same handles.
type StaticHandles struct {
	H *Handles
}

// Handles returns the wrapped handles.
func (s StaticHandles) Handles() *Handles {
	return s.H
}

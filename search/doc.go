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

// Package search provides hybrid lexical and semantic retrieval.
//
// The Retriever queries the sparse BM25 index and the dense embedding index
// concurrently, each to a fixed depth of SubQueryDepth, then fuses the two
// ranked lists with a fixed linear policy:
//
//	score = SparseWeight*sparse + DenseWeight*dense
//
// where each component is the unit's score divided by the top score of its
// own list. A unit found by only one index keeps that weighted contribution.
// Exact identifier matches therefore dominate while semantic similarity
// recovers paraphrased matches.
//
// When the dense index is missing the Retriever fails with
// core.ErrDenseUnavailable unless it was created with WithDenseFallback, in
// which case it answers from the sparse index alone and marks the Response
// as degraded.
package search

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

// Package ingestion supplies the records an index is built from.
//
// A Source returns every patent and gap record in one call. FileSource reads
// them from two JSON documents, each holding an array of objects:
//
//	[{"patent_id": "AIH-002", "title": "...", "proposed_solution": "...", ...}]
//
// Records are passed on as found. Validation happens during normalization,
// where incomplete records are skipped with a warning.
package ingestion

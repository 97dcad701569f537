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

package core

import "errors"

// Record validation errors
var (
	// ErrMalformedRecord indicates a source record is missing a required field.
	// The record is skipped and reported as a build warning.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrMissingField indicates a required field is empty.
	ErrMissingField = errors.New("required field is empty")

	// ErrInvalidKind indicates an unknown record kind.
	ErrInvalidKind = errors.New("invalid record kind")

	// ErrNilRecord indicates a nil record in the input sequence.
	ErrNilRecord = errors.New("record is nil")
)

// Index errors
var (
	// ErrEmbeddingUnavailable indicates the embedding collaborator failed.
	// It is fatal to the build or query in progress.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrIndexCorrupt indicates a persisted index artifact is unreadable,
	// has the wrong format version, or does not match the configured
	// embedding model or dimension.
	ErrIndexCorrupt = errors.New("index corrupt")

	// ErrDenseUnavailable indicates no dense index is loaded.
	ErrDenseUnavailable = errors.New("dense index unavailable")

	// ErrRebuildInProgress indicates another rebuild holds the lifecycle lock.
	ErrRebuildInProgress = errors.New("rebuild in progress")
)

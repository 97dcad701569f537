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

package lifecycle

import "errors"

var (
	// ErrSourceRequired is returned when no record source is provided.
	ErrSourceRequired = errors.New("record source required")

	// ErrRepositoryRequired is returned when no artifact repository is provided.
	ErrRepositoryRequired = errors.New("artifact repository required")

	// ErrEmbedderRequired is returned when no embedder is provided and the
	// manager is not in sparse-only mode.
	ErrEmbedderRequired = errors.New("embedder required unless sparse-only")
)

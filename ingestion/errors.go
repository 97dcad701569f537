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

package ingestion

import "errors"

var (
	// ErrNoInputFiles is returned when a FileSource names neither a patent
	// nor a gap file.
	ErrNoInputFiles = errors.New("no input files configured")

	// ErrInvalidDocument is returned when an input file is not a JSON array
	// of records.
	ErrInvalidDocument = errors.New("invalid record document")
)

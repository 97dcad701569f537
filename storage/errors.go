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

package storage

import "errors"

var (
	// ErrNotFound indicates that no committed generation exists.
	ErrNotFound = errors.New("record not found")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrSerializationFailed indicates a serialization/deserialization failure.
	ErrSerializationFailed = errors.New("serialization failed")

	// ErrTruncatedData indicates that data was truncated during reading.
	ErrTruncatedData = errors.New("truncated data")

	// ErrBadMagic indicates the data is not an artifact envelope.
	ErrBadMagic = errors.New("bad artifact magic")

	// ErrKindMismatch indicates an artifact of the wrong kind was supplied.
	ErrKindMismatch = errors.New("artifact kind mismatch")

	// ErrVersionMismatch indicates an unsupported artifact format version.
	ErrVersionMismatch = errors.New("artifact version mismatch")

	// ErrChecksumMismatch indicates the payload does not match its checksum.
	ErrChecksumMismatch = errors.New("artifact checksum mismatch")

	// ErrEmptyArtifact indicates a generation was committed without a sparse artifact.
	ErrEmptyArtifact = errors.New("sparse artifact is required")
)

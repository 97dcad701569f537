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

// Package storage provides durable storage for index artifacts.
//
// An index build produces two byte artifacts, one per index. Each is wrapped
// by Seal in an envelope carrying a magic tag, the artifact kind, a format
// version and a HighwayHash checksum, so Open can reject truncated, foreign or
// outdated data with core.ErrIndexCorrupt instead of decoding garbage.
//
// The ArtifactRepository groups both artifacts into a generation. Committing
// a generation is atomic: readers see either the old pair or the new pair,
// never a mix. Old generations are only pruned after the new one commits.
//
// # Usage
//
//	repo, err := badger.NewArtifactRepository(backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//
// Use in tests with in-memory storage:
//
//	repo, backend, err := badger.NewMemoryRepository()
package storage

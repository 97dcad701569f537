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

package sparse

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/inventree/core"
	"github.com/poiesic/inventree/storage"
)

// FormatVersion is bumped whenever the payload layout changes.
const FormatVersion byte = 1

// MarshalBinary encodes the index as a sealed sparse artifact. The payload
// holds the units followed by each unit's term frequencies in sorted term
// order, so equal indices encode to equal bytes.
func (idx *Index) MarshalBinary() ([]byte, error) {
	if idx == nil {
		idx = Build(nil)
	}

	terms := make([][]string, len(idx.termFreqs))
	size := core.TextUnitsMUS.Size(idx.units)
	for i, tf := range idx.termFreqs {
		sorted := make([]string, 0, len(tf))
		for term := range tf {
			sorted = append(sorted, term)
		}
		slices.Sort(sorted)
		terms[i] = sorted

		size += varint.Int.Size(len(sorted))
		for _, term := range sorted {
			size += ord.String.Size(term) + varint.Int.Size(tf[term])
		}
	}

	buf := make([]byte, size)
	n := core.TextUnitsMUS.Marshal(idx.units, buf)
	for i, sorted := range terms {
		n += varint.Int.Marshal(len(sorted), buf[n:])
		for _, term := range sorted {
			n += ord.String.Marshal(term, buf[n:])
			n += varint.Int.Marshal(idx.termFreqs[i][term], buf[n:])
		}
	}
	return storage.Seal(storage.ArtifactSparse, FormatVersion, buf[:n]), nil
}

// Unmarshal decodes a sealed sparse artifact. Any damage is reported as
// core.ErrIndexCorrupt.
func Unmarshal(data []byte) (*Index, error) {
	payload, err := storage.Open(storage.ArtifactSparse, FormatVersion, data)
	if err != nil {
		return nil, err
	}

	units, n, err := storage.UnmarshalTextUnits(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: sparse units: %w", core.ErrIndexCorrupt, err)
	}

	termFreqs := make([]map[string]int, len(units))
	for i := range units {
		count, m, err := varint.Int.Unmarshal(payload[n:])
		n += m
		if err != nil {
			return nil, fmt.Errorf("%w: unit %d term count: %w", core.ErrIndexCorrupt, i, err)
		}
		if count < 0 || count > len(payload)-n {
			return nil, fmt.Errorf("%w: unit %d: invalid term count %d", core.ErrIndexCorrupt, i, count)
		}
		tf := make(map[string]int, count)
		for j := 0; j < count; j++ {
			term, m, err := ord.String.Unmarshal(payload[n:])
			n += m
			if err != nil {
				return nil, fmt.Errorf("%w: unit %d term %d: %w", core.ErrIndexCorrupt, i, j, err)
			}
			freq, m, err := varint.Int.Unmarshal(payload[n:])
			n += m
			if err != nil {
				return nil, fmt.Errorf("%w: unit %d term %q: %w", core.ErrIndexCorrupt, i, term, err)
			}
			if freq <= 0 {
				return nil, fmt.Errorf("%w: unit %d term %q: frequency %d", core.ErrIndexCorrupt, i, term, freq)
			}
			tf[term] = freq
		}
		termFreqs[i] = tf
	}
	if n != len(payload) {
		return nil, fmt.Errorf("%w: %d trailing bytes", core.ErrIndexCorrupt, len(payload)-n)
	}

	return newIndex(units, termFreqs), nil
}

// SaveFile writes the sealed artifact to path. The file is replaced
// atomically through a temporary sibling.
func (idx *Index) SaveFile(path string) error {
	data, err := idx.MarshalBinary()
	if err != nil {
		return err
	}
	return storage.WriteFileAtomic(path, data)
}

// LoadFile reads an artifact written by SaveFile.
func LoadFile(path string) (*Index, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}

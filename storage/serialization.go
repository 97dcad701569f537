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

import (
	"fmt"

	"github.com/poiesic/inventree/core"
)

// MarshalGeneration serializes generation metadata to bytes.
func MarshalGeneration(gen *core.Generation) []byte {
	buf := make([]byte, core.GenerationMUS.Size(*gen))
	core.GenerationMUS.Marshal(*gen, buf)
	return buf
}

// UnmarshalGeneration deserializes generation metadata from bytes.
func UnmarshalGeneration(data []byte) (*core.Generation, error) {
	gen, _, err := core.GenerationMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &gen, nil
}

// MarshalTextUnits serializes a unit list to bytes.
func MarshalTextUnits(units []core.TextUnit) []byte {
	buf := make([]byte, core.TextUnitsMUS.Size(units))
	core.TextUnitsMUS.Marshal(units, buf)
	return buf
}

// UnmarshalTextUnits deserializes a unit list and reports the bytes consumed.
func UnmarshalTextUnits(data []byte) ([]core.TextUnit, int, error) {
	units, n, err := core.TextUnitsMUS.Unmarshal(data)
	if err != nil {
		return nil, n, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return units, n, nil
}

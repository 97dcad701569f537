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

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Serializers follow the mus-go Serializer shape: Marshal writes into a
// buffer sized by Size, Unmarshal returns the value and bytes consumed.
var (
	TextUnitMUS   = textUnitMUS{}
	TextUnitsMUS  = textUnitsMUS{}
	GenerationMUS = generationMUS{}
)

type textUnitMUS struct{}

func (textUnitMUS) Marshal(v TextUnit, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(v.Key), bs)
	n += ord.String.Marshal(v.Content, bs[n:])
	n += ord.String.Marshal(v.Metadata.ID, bs[n:])
	n += varint.Int.Marshal(int(v.Metadata.Kind), bs[n:])
	return
}

func (textUnitMUS) Unmarshal(bs []byte) (v TextUnit, n int, err error) {
	key, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Key = ID(key)
	var n1 int
	v.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Metadata.ID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	kind, n1, err := varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Metadata.Kind = Kind(kind)
	if v.Metadata.Kind != KindPatent && v.Metadata.Kind != KindGap {
		err = fmt.Errorf("%w: %d", ErrInvalidKind, kind)
	}
	return
}

func (textUnitMUS) Size(v TextUnit) (size int) {
	size = varint.Uint64.Size(uint64(v.Key))
	size += ord.String.Size(v.Content)
	size += ord.String.Size(v.Metadata.ID)
	return size + varint.Int.Size(int(v.Metadata.Kind))
}

type textUnitsMUS struct{}

func (textUnitsMUS) Marshal(v []TextUnit, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, u := range v {
		n += TextUnitMUS.Marshal(u, bs[n:])
	}
	return
}

func (textUnitsMUS) Unmarshal(bs []byte) (v []TextUnit, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	// Every unit takes at least one byte, which bounds a corrupt length.
	if length < 0 || length > len(bs)-n {
		err = fmt.Errorf("invalid unit count %d", length)
		return
	}
	v = make([]TextUnit, length)
	var n1 int
	for i := range v {
		v[i], n1, err = TextUnitMUS.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func (textUnitsMUS) Size(v []TextUnit) (size int) {
	size = varint.Int.Size(len(v))
	for _, u := range v {
		size += TextUnitMUS.Size(u)
	}
	return
}

// Generation describes one committed pair of index artifacts.
type Generation struct {
	ID        string
	CreatedAt time.Time
	Units     int
	HasDense  bool
	Model     string
	Dimension int
}

type generationMUS struct{}

func (generationMUS) Marshal(v Generation, bs []byte) (n int) {
	n = ord.String.Marshal(v.ID, bs)
	n += varint.Int64.Marshal(v.CreatedAt.UnixMicro(), bs[n:])
	n += varint.Int.Marshal(v.Units, bs[n:])
	n += ord.Bool.Marshal(v.HasDense, bs[n:])
	n += ord.String.Marshal(v.Model, bs[n:])
	n += varint.Int.Marshal(v.Dimension, bs[n:])
	return
}

func (generationMUS) Unmarshal(bs []byte) (v Generation, n int, err error) {
	v.ID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	micros, n1, err := varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CreatedAt = time.UnixMicro(micros)
	v.Units, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.HasDense, n1, err = ord.Bool.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Model, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Dimension, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	return
}

func (generationMUS) Size(v Generation) (size int) {
	size = ord.String.Size(v.ID)
	size += varint.Int64.Size(v.CreatedAt.UnixMicro())
	size += varint.Int.Size(v.Units)
	size += ord.Bool.Size(v.HasDense)
	size += ord.String.Size(v.Model)
	return size + varint.Int.Size(v.Dimension)
}

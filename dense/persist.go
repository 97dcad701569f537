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

package dense

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/poiesic/inventree/core"
	"github.com/poiesic/inventree/storage"
	"github.com/viant/bintly"
)

// FormatVersion is bumped whenever the payload layout changes.
const FormatVersion byte = 1

var (
	writers = bintly.NewWriters()
	readers = bintly.NewReaders()
)

// EncodeBinary writes the index header, then each unit followed by its
// vector.
func (idx *Index) EncodeBinary(stream *bintly.Writer) error {
	stream.String(idx.model)
	stream.String(Metric)
	stream.Int(idx.dim)
	stream.Int(len(idx.units))
	for i, unit := range idx.units {
		stream.String(unit.Content)
		stream.String(unit.Metadata.ID)
		stream.Int(int(unit.Metadata.Kind))
		for _, f := range idx.vectors[i] {
			stream.Float32(f)
		}
	}
	return nil
}

// DecodeBinary reads an index written by EncodeBinary. bintly readers do not
// report short input, so the caller recovers from out-of-range panics.
func (idx *Index) DecodeBinary(stream *bintly.Reader) error {
	return idx.decodeFrom(stream, math.MaxInt)
}

// decodeFrom decodes at most maxFloats vector components, which bounds the
// allocation a corrupt header can trigger.
func (idx *Index) decodeFrom(stream *bintly.Reader, maxFloats int) error {
	var metric string
	var count int
	stream.String(&idx.model)
	stream.String(&metric)
	stream.Int(&idx.dim)
	stream.Int(&count)

	if metric != Metric {
		return fmt.Errorf("unsupported metric %q", metric)
	}
	if idx.dim < 0 || count < 0 || (count > 0 && idx.dim == 0) {
		return fmt.Errorf("invalid header: dimension %d, units %d", idx.dim, count)
	}
	if count > 0 && count > maxFloats/idx.dim {
		return fmt.Errorf("invalid header: %d units of dimension %d exceed payload", count, idx.dim)
	}

	idx.units = make([]core.TextUnit, 0, min(count, 1024))
	idx.vectors = make([][]float32, 0, min(count, 1024))
	for i := 0; i < count; i++ {
		var content, id string
		var kind int
		stream.String(&content)
		stream.String(&id)
		stream.Int(&kind)
		if k := core.Kind(kind); k != core.KindPatent && k != core.KindGap {
			return fmt.Errorf("unit %d: %w: %d", i, core.ErrInvalidKind, kind)
		}
		vector := make([]float32, idx.dim)
		for j := range vector {
			stream.Float32(&vector[j])
		}
		idx.units = append(idx.units, core.NewTextUnit(content, core.Metadata{ID: id, Kind: core.Kind(kind)}))
		idx.vectors = append(idx.vectors, vector)
	}
	return nil
}

// MarshalBinary encodes the index as a sealed dense artifact.
func (idx *Index) MarshalBinary() ([]byte, error) {
	if idx == nil {
		return nil, core.ErrDenseUnavailable
	}
	w := writers.Get()
	defer writers.Put(w)
	if err := idx.EncodeBinary(w); err != nil {
		return nil, err
	}
	return storage.Seal(storage.ArtifactDense, FormatVersion, w.Bytes()), nil
}

type loadOptions struct {
	model string
	dim   int
}

// LoadOption constrains what Unmarshal accepts.
type LoadOption func(*loadOptions)

// ExpectModel rejects artifacts built with a different embedding model.
func ExpectModel(model string) LoadOption {
	return func(o *loadOptions) { o.model = model }
}

// ExpectDimension rejects artifacts with a different vector length.
func ExpectDimension(dim int) LoadOption {
	return func(o *loadOptions) { o.dim = dim }
}

// Unmarshal decodes a sealed dense artifact. A damaged envelope, an
// unreadable payload, or a model or dimension that differs from the
// expectation fails with core.ErrIndexCorrupt.
func Unmarshal(data []byte, opts ...LoadOption) (*Index, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	payload, err := storage.Open(storage.ArtifactDense, FormatVersion, data)
	if err != nil {
		return nil, err
	}

	idx, err := decode(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: dense payload: %w", core.ErrIndexCorrupt, err)
	}
	if o.model != "" && idx.model != o.model {
		return nil, fmt.Errorf("%w: built with model %q, configured model is %q", core.ErrIndexCorrupt, idx.model, o.model)
	}
	if o.dim > 0 && idx.dim != o.dim {
		return nil, fmt.Errorf("%w: dimension %d, configured dimension is %d", core.ErrIndexCorrupt, idx.dim, o.dim)
	}
	return idx, nil
}

func decode(payload []byte) (idx *Index, err error) {
	defer func() {
		if r := recover(); r != nil {
			idx, err = nil, fmt.Errorf("%w: %v", storage.ErrTruncatedData, r)
		}
	}()

	r := readers.Get()
	defer readers.Put(r)
	if err := r.FromBytes(payload); err != nil {
		return nil, err
	}
	idx = &Index{}
	if err := idx.decodeFrom(r, len(payload)/4); err != nil {
		return nil, err
	}
	return idx, nil
}

// SaveFile writes the sealed artifact to path atomically.
func (idx *Index) SaveFile(path string) error {
	data, err := idx.MarshalBinary()
	if err != nil {
		return err
	}
	return storage.WriteFileAtomic(path, data)
}

// LoadFile reads an artifact written by SaveFile.
func LoadFile(path string, opts ...LoadOption) (*Index, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	return Unmarshal(data, opts...)
}

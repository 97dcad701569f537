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

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/poiesic/inventree/core"
)

// Source provides the full record set for a rebuild.
type Source interface {
	// Records returns patents followed by gaps, each in document order.
	Records(ctx context.Context) ([]core.Record, error)
}

// FileSource reads records from a patent file and a gap file.
// A path that is empty or does not exist contributes no records.
type FileSource struct {
	PatentsPath string
	GapsPath    string
}

var _ Source = (*FileSource)(nil)

// Records reads both files.
func (s *FileSource) Records(ctx context.Context) ([]core.Record, error) {
	if s.PatentsPath == "" && s.GapsPath == "" {
		return nil, ErrNoInputFiles
	}

	var patents []*core.Patent
	if err := readDocument(ctx, s.PatentsPath, &patents); err != nil {
		return nil, err
	}
	var gaps []*core.Gap
	if err := readDocument(ctx, s.GapsPath, &gaps); err != nil {
		return nil, err
	}

	records := make([]core.Record, 0, len(patents)+len(gaps))
	for _, p := range patents {
		records = append(records, p)
	}
	for _, g := range gaps {
		records = append(records, g)
	}
	return records, nil
}

// RecordsSource serves a fixed record set.
type RecordsSource []core.Record

var _ Source = RecordsSource(nil)

// Records returns a copy of the set.
func (s RecordsSource) Records(_ context.Context) ([]core.Record, error) {
	out := make([]core.Record, len(s))
	copy(out, s)
	return out, nil
}

func readDocument(ctx context.Context, path string, into any) error {
	if path == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	return DecodeRecords(f, into)
}

// DecodeRecords decodes a JSON array of records from r into a pointer to a
// slice of *core.Patent or *core.Gap.
func DecodeRecords(r io.Reader, into any) error {
	dec := json.NewDecoder(r)
	if err := dec.Decode(into); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after array", ErrInvalidDocument)
	}
	return nil
}

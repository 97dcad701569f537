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
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/minio/highwayhash"
	"github.com/poiesic/inventree/core"
)

// ArtifactKind tags the index type stored in an envelope.
type ArtifactKind byte

const (
	ArtifactSparse ArtifactKind = 's'
	ArtifactDense  ArtifactKind = 'd'
)

func (k ArtifactKind) String() string {
	switch k {
	case ArtifactSparse:
		return "sparse"
	case ArtifactDense:
		return "dense"
	default:
		return fmt.Sprintf("artifact(%d)", byte(k))
	}
}

// Envelope layout:
//
//	magic[4] kind[1] version[1] checksum[8] payload
//
// The checksum is a HighwayHash-64 of the payload.
const (
	envelopeMagic  = "INVT"
	envelopeHeader = len(envelopeMagic) + 1 + 1 + 8
)

var checksumKey = []byte("inventree-artifact-checksum-key!")

// Checksum returns the HighwayHash-64 of data.
func Checksum(data []byte) uint64 {
	h, err := highwayhash.New64(checksumKey)
	if err != nil {
		// Only possible with a key that is not 32 bytes.
		panic(err)
	}
	h.Write(data)
	return h.Sum64()
}

// Seal wraps an index payload in a checksummed envelope.
func Seal(kind ArtifactKind, version byte, payload []byte) []byte {
	buf := make([]byte, envelopeHeader+len(payload))
	n := copy(buf, envelopeMagic)
	buf[n] = byte(kind)
	buf[n+1] = version
	binary.BigEndian.PutUint64(buf[n+2:], Checksum(payload))
	copy(buf[envelopeHeader:], payload)
	return buf
}

// Open verifies an envelope and returns its payload. All failures wrap
// core.ErrIndexCorrupt.
func Open(kind ArtifactKind, version byte, data []byte) ([]byte, error) {
	if len(data) < envelopeHeader {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrIndexCorrupt, kind, ErrTruncatedData)
	}
	if string(data[:len(envelopeMagic)]) != envelopeMagic {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrIndexCorrupt, kind, ErrBadMagic)
	}
	n := len(envelopeMagic)
	if got := ArtifactKind(data[n]); got != kind {
		return nil, fmt.Errorf("%w: want %s, got %s: %w", core.ErrIndexCorrupt, kind, got, ErrKindMismatch)
	}
	if got := data[n+1]; got != version {
		return nil, fmt.Errorf("%w: %s: want version %d, got %d: %w", core.ErrIndexCorrupt, kind, version, got, ErrVersionMismatch)
	}
	payload := data[envelopeHeader:]
	if binary.BigEndian.Uint64(data[n+2:]) != Checksum(payload) {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrIndexCorrupt, kind, ErrChecksumMismatch)
	}
	return payload, nil
}

// WriteFileAtomic writes data to a temporary file next to path and renames
// it into place, so readers never observe a partial artifact.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

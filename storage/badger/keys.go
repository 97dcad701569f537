package badger

import (
	"bytes"
	"fmt"
)

// Key prefixes for generation data
const (
	currentGenerationKey = "idxcur"
	generationPrefix     = "idxgen"
)

const (
	suffixMeta   = "meta"
	suffixSparse = "sparse"
	suffixDense  = "dense"
)

// makeGenerationKey generates a key for one part of a generation.
// Format: prefix:generationID:part
func makeGenerationKey(generationID, part string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", generationPrefix, generationID, part))
}

// makeGenerationPrefix generates the prefix shared by all parts of a generation.
func makeGenerationPrefix(generationID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", generationPrefix, generationID))
}

// parseGenerationKey splits a generation key into its ID and part.
func parseGenerationKey(key []byte) (id, part string, ok bool) {
	rest, found := bytes.CutPrefix(key, []byte(generationPrefix+":"))
	if !found {
		return "", "", false
	}
	i := bytes.LastIndexByte(rest, ':')
	if i <= 0 {
		return "", "", false
	}
	return string(rest[:i]), string(rest[i+1:]), true
}

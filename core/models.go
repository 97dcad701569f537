package core

import (
	"encoding/binary"
	"fmt"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for text units.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Kind identifies which record variant a text unit came from.
type Kind int

const (
	// KindPatent marks units derived from patent records.
	KindPatent Kind = iota + 1
	// KindGap marks units derived from research gap records.
	KindGap
)

func (k Kind) String() string {
	switch k {
	case KindPatent:
		return "patent"
	case KindGap:
		return "gap"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind converts "patent" or "gap" into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "patent":
		return KindPatent, nil
	case "gap":
		return KindGap, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

// Record is a source record. It is implemented by Patent and Gap.
type Record interface {
	Kind() Kind
	// RecordID returns the patent id the record is filed under.
	RecordID() string
}

// Patent is a patent record as found in the patent dataset.
type Patent struct {
	PatentID         string `json:"patent_id"`
	Title            string `json:"title"`
	ProposedSolution string `json:"proposed_solution"`
	Limitations      string `json:"limitations"`
	InnovationType   string `json:"innovation_type"`

	fields fieldPresence
}

func (p *Patent) Kind() Kind       { return KindPatent }
func (p *Patent) RecordID() string { return p.PatentID }

// Gap is an identified research gap. PatentID references a Patent but is
// not checked against the patent set.
type Gap struct {
	PatentID                   string `json:"patent_id"`
	GapType                    string `json:"gap_type"`
	GapReason                  string `json:"gap_reason"`
	PotentialResearchDirection string `json:"potential_research_direction"`

	fields fieldPresence
}

func (g *Gap) Kind() Kind       { return KindGap }
func (g *Gap) RecordID() string { return g.PatentID }

// Metadata travels with every text unit and every ranked result.
type Metadata struct {
	ID   string
	Kind Kind
}

// TextUnit is the normalized, indexable form of one record.
// Units are never mutated after the normalizer creates them.
type TextUnit struct {
	Key      ID // content hash, used as unit identity when fusing rankings
	Content  string
	Metadata Metadata
}

// NewTextUnit creates a unit and derives its key from kind and content.
func NewTextUnit(content string, md Metadata) TextUnit {
	return TextUnit{
		Key:      IDFromContent(md.Kind.String() + "\x00" + content),
		Content:  content,
		Metadata: md,
	}
}

// RankedResult is a unit with its relevance score for one query.
type RankedResult struct {
	Unit  TextUnit
	Score float64
}

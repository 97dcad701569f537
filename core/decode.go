package core

import (
	"encoding/json"
	"slices"
)

// fieldPresence remembers which keys a decoded JSON record lacked. Records
// built in code have decoded == false and treat an empty string as absent.
type fieldPresence struct {
	decoded bool
	absent  []string
}

func (f fieldPresence) missing(name, value string) bool {
	if f.decoded {
		return slices.Contains(f.absent, name)
	}
	return value == ""
}

// take dereferences a decoded field, noting it as absent when the key was
// missing or null.
func (f *fieldPresence) take(name string, v *string) string {
	if v == nil {
		f.absent = append(f.absent, name)
		return ""
	}
	return *v
}

// UnmarshalJSON decodes a patent object. A key that is missing or null
// makes the record invalid; an empty string is a value.
func (p *Patent) UnmarshalJSON(data []byte) error {
	var w struct {
		PatentID         *string `json:"patent_id"`
		Title            *string `json:"title"`
		ProposedSolution *string `json:"proposed_solution"`
		Limitations      *string `json:"limitations"`
		InnovationType   *string `json:"innovation_type"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	f := fieldPresence{decoded: true}
	*p = Patent{
		PatentID:         f.take("patent_id", w.PatentID),
		Title:            f.take("title", w.Title),
		ProposedSolution: f.take("proposed_solution", w.ProposedSolution),
		Limitations:      f.take("limitations", w.Limitations),
		InnovationType:   f.take("innovation_type", w.InnovationType),
	}
	p.fields = f
	return nil
}

// UnmarshalJSON decodes a gap object with the same presence rules as Patent.
func (g *Gap) UnmarshalJSON(data []byte) error {
	var w struct {
		PatentID                   *string `json:"patent_id"`
		GapType                    *string `json:"gap_type"`
		GapReason                  *string `json:"gap_reason"`
		PotentialResearchDirection *string `json:"potential_research_direction"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	f := fieldPresence{decoded: true}
	*g = Gap{
		PatentID:                   f.take("patent_id", w.PatentID),
		GapType:                    f.take("gap_type", w.GapType),
		GapReason:                  f.take("gap_reason", w.GapReason),
		PotentialResearchDirection: f.take("potential_research_direction", w.PotentialResearchDirection),
	}
	g.fields = f
	return nil
}

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

import "fmt"

// ValidateRecord checks that every required field of a record is present.
// For records decoded from JSON a field is missing when its key is absent or
// null; an empty string is a value. For records built in code the empty
// string counts as missing.
//
// Validation rules:
//   - Patent: patent_id, title, proposed_solution, limitations, innovation_type
//   - Gap: patent_id, gap_type, gap_reason, potential_research_direction
func ValidateRecord(record Record) error {
	switch r := record.(type) {
	case *Patent:
		if r == nil {
			return fmt.Errorf("%w: %w", ErrMalformedRecord, ErrNilRecord)
		}
		return requireFields(KindPatent, r.PatentID, r.fields,
			field{"patent_id", r.PatentID},
			field{"title", r.Title},
			field{"proposed_solution", r.ProposedSolution},
			field{"limitations", r.Limitations},
			field{"innovation_type", r.InnovationType},
		)
	case *Gap:
		if r == nil {
			return fmt.Errorf("%w: %w", ErrMalformedRecord, ErrNilRecord)
		}
		return requireFields(KindGap, r.PatentID, r.fields,
			field{"patent_id", r.PatentID},
			field{"gap_type", r.GapType},
			field{"gap_reason", r.GapReason},
			field{"potential_research_direction", r.PotentialResearchDirection},
		)
	case nil:
		return fmt.Errorf("%w: %w", ErrMalformedRecord, ErrNilRecord)
	default:
		return fmt.Errorf("%w: %w: %T", ErrMalformedRecord, ErrInvalidKind, record)
	}
}

type field struct {
	name  string
	value string
}

func requireFields(kind Kind, id string, presence fieldPresence, fields ...field) error {
	for _, f := range fields {
		if presence.missing(f.name, f.value) {
			return fmt.Errorf("%w: %s %q: %s: %w", ErrMalformedRecord, kind, id, f.name, ErrMissingField)
		}
	}
	return nil
}

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

// Package normalize turns patent and gap records into text units.
//
// Both indices consume the same unit content, so lexical and semantic
// rankings are computed over an identical view of each record. Content is a
// fixed sequence of labelled lines, one per record field:
//
//	ID: AIH-002
//	TITLE: Adaptive heat exchanger
//	SOLUTION: ...
//	LIMITS: ...
//	INNOVATION: ...
//
// Gap units use TARGET_ID, GAP_TYPE, REASON and RESEARCH. Backslashes and
// line breaks inside values are escaped so Parse recovers the exact fields.
package normalize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/poiesic/inventree/core"
)

// Field labels in content order.
const (
	LabelID         = "ID"
	LabelTitle      = "TITLE"
	LabelSolution   = "SOLUTION"
	LabelLimits     = "LIMITS"
	LabelInnovation = "INNOVATION"

	LabelTargetID = "TARGET_ID"
	LabelGapType  = "GAP_TYPE"
	LabelReason   = "REASON"
	LabelResearch = "RESEARCH"
)

var (
	patentLabels = []string{LabelID, LabelTitle, LabelSolution, LabelLimits, LabelInnovation}
	gapLabels    = []string{LabelTargetID, LabelGapType, LabelReason, LabelResearch}
)

// ErrUnparseable indicates unit content does not follow the labelled format.
var ErrUnparseable = errors.New("unparseable unit content")

// Normalize converts records into text units, one per valid record, in input
// order. Records failing validation are skipped. Each skip is returned as a
// warning wrapping core.ErrMalformedRecord.
func Normalize(records []core.Record) ([]core.TextUnit, []error) {
	units := make([]core.TextUnit, 0, len(records))
	var warnings []error
	for i, record := range records {
		if err := core.ValidateRecord(record); err != nil {
			warnings = append(warnings, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		units = append(units, core.NewTextUnit(Format(record), core.Metadata{
			ID:   record.RecordID(),
			Kind: record.Kind(),
		}))
	}
	return units, warnings
}

// Format renders a record as labelled content. It does not validate.
func Format(record core.Record) string {
	switch r := record.(type) {
	case *core.Patent:
		return render(patentLabels, r.PatentID, r.Title, r.ProposedSolution, r.Limitations, r.InnovationType)
	case *core.Gap:
		return render(gapLabels, r.PatentID, r.GapType, r.GapReason, r.PotentialResearchDirection)
	default:
		return ""
	}
}

func render(labels []string, values ...string) string {
	var sb strings.Builder
	for i, label := range labels {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(label)
		sb.WriteString(": ")
		sb.WriteString(escaper.Replace(values[i]))
	}
	return sb.String()
}

// Parse recovers the record a unit was built from.
func Parse(unit core.TextUnit) (core.Record, error) {
	switch unit.Metadata.Kind {
	case core.KindPatent:
		v, err := parseFields(unit.Content, patentLabels)
		if err != nil {
			return nil, err
		}
		return &core.Patent{
			PatentID:         v[0],
			Title:            v[1],
			ProposedSolution: v[2],
			Limitations:      v[3],
			InnovationType:   v[4],
		}, nil
	case core.KindGap:
		v, err := parseFields(unit.Content, gapLabels)
		if err != nil {
			return nil, err
		}
		return &core.Gap{
			PatentID:                   v[0],
			GapType:                    v[1],
			GapReason:                  v[2],
			PotentialResearchDirection: v[3],
		}, nil
	default:
		return nil, fmt.Errorf("%w: %w: %d", ErrUnparseable, core.ErrInvalidKind, unit.Metadata.Kind)
	}
}

func parseFields(content string, labels []string) ([]string, error) {
	lines := strings.Split(content, "\n")
	if len(lines) != len(labels) {
		return nil, fmt.Errorf("%w: expected %d lines, got %d", ErrUnparseable, len(labels), len(lines))
	}
	values := make([]string, len(labels))
	for i, line := range lines {
		value, ok := strings.CutPrefix(line, labels[i]+": ")
		if !ok {
			return nil, fmt.Errorf("%w: line %d: expected label %s", ErrUnparseable, i+1, labels[i])
		}
		values[i] = unescape(value)
	}
	return values, nil
}

var escaper = strings.NewReplacer("\\", "\\\\", "\n", "\\n", "\r", "\\r")

func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

// Package render turns HistoQC job output into display text and markup.
package render

import (
	"slices"
	"strings"

	"github.com/five82/histoqcview/internal/girder"
)

// SourceColumn heads the first column of every table.
const SourceColumn = "Source"

// NoOutputsMessage is shown when no record has any artifact.
const NoOutputsMessage = "No HistoQC outputs detected. Please rerun it."

// Table is the column-aligned view of a set of output records.
type Table struct {
	Headers []string
	Rows    []Row
}

// Row is one source image and its artifacts in column order.
type Row struct {
	Source   string
	SourceID string
	Cells    []Cell
}

// Cell is a single artifact thumbnail.
type Cell struct {
	Type   string
	ItemID string
}

// Empty reports whether there was nothing to render.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// BuildTable lays out records as rows of thumbnails. The first record with
// any artifacts fixes the header; each row sorts its own artifacts the same
// way. Rows whose tag set differs from the header's will not line up.
func BuildTable(records []girder.OutputRecord) Table {
	first := -1
	for i, rec := range records {
		if len(rec.Outputs) > 0 {
			first = i
			break
		}
	}
	if first < 0 {
		return Table{}
	}

	headerArtifacts := sortArtifacts(records[first].Outputs)
	headers := make([]string, 0, len(headerArtifacts)+1)
	headers = append(headers, SourceColumn)
	for _, a := range headerArtifacts {
		headers = append(headers, a.Type)
	}

	var rows []Row
	for _, rec := range records {
		if len(rec.Outputs) == 0 {
			continue
		}
		sorted := sortArtifacts(rec.Outputs)
		cells := make([]Cell, len(sorted))
		for i, a := range sorted {
			cells[i] = Cell{Type: a.Type, ItemID: a.ID}
		}
		rows = append(rows, Row{
			Source:   rec.SourceImage.Name,
			SourceID: rec.SourceImage.ID,
			Cells:    cells,
		})
	}
	return Table{Headers: headers, Rows: rows}
}

// Aligned reports whether every row's artifact types match the header.
func (t Table) Aligned() bool {
	if t.Empty() {
		return true
	}
	want := t.Headers[1:]
	for _, row := range t.Rows {
		if len(row.Cells) != len(want) {
			return false
		}
		for i, c := range row.Cells {
			if c.Type != want[i] {
				return false
			}
		}
	}
	return true
}

// sortArtifacts returns a copy ordered by type tag, descending. Equal tags
// keep their input order.
func sortArtifacts(in []girder.Artifact) []girder.Artifact {
	out := slices.Clone(in)
	slices.SortStableFunc(out, func(a, b girder.Artifact) int {
		return strings.Compare(b.Type, a.Type)
	})
	return out
}

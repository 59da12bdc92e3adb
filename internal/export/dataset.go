// Package export converts the grouped HistoQC results file into spreadsheet
// and YAML form.
package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoDataset is returned when the results file has no "#dataset:" section.
var ErrNoDataset = errors.New("results file has no #dataset section")

var datasetMarker = regexp.MustCompile(`#dataset:\s?`)

// Cohort placeholder columns added when the results predate cohort finding.
var cohortDefaults = []struct {
	column string
	value  any
}{
	{"embed_x", nil},
	{"embed_y", nil},
	{"groupid", -1.0},
	{"testind", 2.0},
	{"sitecol", "None"},
	{"labelcol", "None"},
}

// Dataset is the tabular part of a grouped results file. Values are
// float64 for numeric cells, string otherwise, and nil when absent.
type Dataset struct {
	Columns []string
	Rows    [][]any
	// Meta holds the "#key:value" lines preceding the dataset.
	Meta map[string]string
}

// Column returns the index of name, or -1.
func (d Dataset) Column(name string) int {
	for i, c := range d.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// ParseDataset reads a grouped results TSV. Everything before the first
// "#dataset:" marker is metadata; the marker's line continues with the
// header row.
func ParseDataset(r io.Reader) (Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Dataset{}, fmt.Errorf("read results: %w", err)
	}
	loc := datasetMarker.FindIndex(data)
	if loc == nil {
		return Dataset{}, ErrNoDataset
	}

	ds := Dataset{Meta: parseMeta(data[:loc[0]])}

	reader := csv.NewReader(bytes.NewReader(data[loc[1]:]))
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Dataset{}, fmt.Errorf("%w: empty header", ErrNoDataset)
		}
		return Dataset{}, fmt.Errorf("parse header: %w", err)
	}

	keep := make([]int, 0, len(header))
	for i, name := range header {
		name = strings.TrimRight(name, "\r")
		if name == "" {
			continue
		}
		keep = append(keep, i)
		ds.Columns = append(ds.Columns, name)
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Dataset{}, fmt.Errorf("parse row: %w", err)
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		row := make([]any, len(ds.Columns))
		for j, src := range keep {
			if src >= len(record) {
				continue
			}
			row[j] = convert(strings.TrimRight(record[src], "\r"))
		}
		ds.Rows = append(ds.Rows, row)
	}

	for _, def := range cohortDefaults {
		if ds.Column(def.column) >= 0 {
			continue
		}
		ds.Columns = append(ds.Columns, def.column)
		for i := range ds.Rows {
			ds.Rows[i] = append(ds.Rows[i], def.value)
		}
	}
	return ds, nil
}

func parseMeta(head []byte) map[string]string {
	meta := map[string]string{}
	for _, line := range strings.Split(string(head), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line[1:], ":")
		if !ok {
			continue
		}
		meta[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return meta
}

func convert(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return s
	}
	return f
}

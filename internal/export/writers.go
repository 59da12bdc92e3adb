package export

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// SheetName is the worksheet holding the dataset.
const SheetName = "HistoQC"

// WriteXLSX writes ds as a single-sheet workbook with a frozen header row.
func WriteXLSX(w io.Writer, ds Dataset) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}

	for i, h := range ds.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}
	for r, row := range ds.Rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = f.SetCellValue(SheetName, cell, v)
		}
	}

	if len(ds.Columns) > 0 {
		last, _ := excelize.ColumnNumberToName(len(ds.Columns))
		_ = f.SetColWidth(SheetName, "A", "A", 40) // filename
		if len(ds.Columns) > 1 {
			_ = f.SetColWidth(SheetName, "B", last, 14)
		}
		bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err == nil {
			_ = f.SetCellStyle(SheetName, "A1", last+"1", bold)
		}
		_ = f.SetPanes(SheetName, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		})
	}

	if len(ds.Meta) > 0 {
		if err := writeMetaSheet(f, ds.Meta); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func writeMetaSheet(f *excelize.File, meta map[string]string) error {
	const sheet = "Metadata"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}
	row := 1
	for _, k := range sortedKeys(meta) {
		_ = f.SetCellValue(sheet, "A"+strconv.Itoa(row), k)
		_ = f.SetCellValue(sheet, "B"+strconv.Itoa(row), meta[k])
		row++
	}
	_ = f.SetColWidth(sheet, "A", "A", 20)
	_ = f.SetColWidth(sheet, "B", "B", 60)
	return nil
}

// WriteYAML writes ds as a YAML sequence of mappings, keeping column order.
func WriteYAML(w io.Writer, ds Dataset) error {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, row := range ds.Rows {
		m := &yaml.Node{Kind: yaml.MappingNode}
		for i, col := range ds.Columns {
			var v any
			if i < len(row) {
				v = row[i]
			}
			m.Content = append(m.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: col},
				scalar(v),
			)
		}
		seq.Content = append(seq.Content, m)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(seq); err != nil {
		return fmt.Errorf("yaml write: %w", err)
	}
	return enc.Close()
}

func scalar(v any) *yaml.Node {
	switch val := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1e15 {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(int64(val), 10)}
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(val, 'g', -1, 64)}
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: val}
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Value: fmt.Sprint(val)}
	}
}

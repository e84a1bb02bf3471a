package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// FromCSV reads a dataset from CSV. The first record is the header. A column
// is numerical when every cell parses as a float; otherwise it is
// categorical with levels in first-appearance order.
func FromCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("dataset: read csv: %w", err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("dataset: %w: missing header", ErrEmptySchema)
	}
	header := records[0]
	body := records[1:]

	cols := make([]Column, len(header))
	numeric := make([]bool, len(header))
	for j, name := range header {
		cols[j] = Column{Name: name}
		numeric[j] = true
	}
	for _, rec := range body {
		if len(rec) != len(header) {
			return nil, fmt.Errorf("dataset: %w: got %d cells, want %d", ErrRowShape, len(rec), len(header))
		}
		for j, cell := range rec {
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				numeric[j] = false
			}
		}
	}
	for j := range cols {
		if numeric[j] {
			cols[j].Kind = Numerical
			continue
		}
		cols[j].Kind = Categorical
		seen := make(map[string]struct{})
		for _, rec := range body {
			if _, ok := seen[rec[j]]; !ok {
				seen[rec[j]] = struct{}{}
				cols[j].Levels = append(cols[j].Levels, rec[j])
			}
		}
	}

	ds, err := New(cols)
	if err != nil {
		return nil, err
	}
	for i, rec := range body {
		row := make([]Value, len(rec))
		for j, cell := range rec {
			if cols[j].Kind == Numerical {
				f, err := strconv.ParseFloat(cell, 64)
				if err != nil {
					return nil, fmt.Errorf("dataset: row %d: %w", i, err)
				}
				row[j] = Num(f)
			} else {
				row[j] = Cat(cell)
			}
		}
		if err := ds.appendRow(row); err != nil {
			return nil, fmt.Errorf("dataset: row %d: %w", i, err)
		}
	}
	return ds, nil
}

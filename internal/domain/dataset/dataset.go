// Package dataset defines the column-typed tabular dataset the explanation
// pipeline operates on. Datasets are treated as immutable once built; every
// transforming operation returns a new dataset.
package dataset

import (
	"fmt"
	"math/rand"
	"sort"
)

// Kind discriminates variable types.
type Kind string

// Variable kinds.
const (
	Numerical   Kind = "numerical"
	Categorical Kind = "categorical"
)

// Column describes one variable of the schema.
type Column struct {
	Name string
	Kind Kind
	// Levels holds the declared level order for categorical columns.
	// Empty for numerical columns.
	Levels []string
}

// Value is a single cell. For numerical columns Num is active, for
// categorical columns Level is active.
type Value struct {
	Num   float64
	Level string
}

// Num builds a numerical value.
func Num(f float64) Value { return Value{Num: f} }

// Cat builds a categorical value.
func Cat(level string) Value { return Value{Level: level} }

// Dataset is an ordered collection of rows sharing one schema.
type Dataset struct {
	cols  []Column
	index map[string]int
	rows  [][]Value
}

// New creates an empty dataset with the given schema.
func New(cols []Column) (*Dataset, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("dataset: %w", ErrEmptySchema)
	}
	index := make(map[string]int, len(cols))
	copied := make([]Column, len(cols))
	for i, c := range cols {
		if c.Name == "" {
			return nil, fmt.Errorf("dataset: column %d: %w", i, ErrEmptySchema)
		}
		if _, dup := index[c.Name]; dup {
			return nil, fmt.Errorf("dataset: duplicate column %q: %w", c.Name, ErrEmptySchema)
		}
		copied[i] = Column{Name: c.Name, Kind: c.Kind, Levels: append([]string(nil), c.Levels...)}
		index[c.Name] = i
	}
	return &Dataset{cols: copied, index: index}, nil
}

// FromRecords creates a dataset from a schema and row values.
func FromRecords(cols []Column, rows [][]Value) (*Dataset, error) {
	ds, err := New(cols)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if err := ds.appendRow(row); err != nil {
			return nil, fmt.Errorf("dataset: row %d: %w", i, err)
		}
	}
	return ds, nil
}

func (d *Dataset) appendRow(row []Value) error {
	if len(row) != len(d.cols) {
		return fmt.Errorf("%w: got %d values, want %d", ErrRowShape, len(row), len(d.cols))
	}
	for i, c := range d.cols {
		if c.Kind == Categorical && !containsLevel(c.Levels, row[i].Level) {
			return fmt.Errorf("%w: %q is not a level of %q", ErrUnknownLevel, row[i].Level, c.Name)
		}
	}
	d.rows = append(d.rows, append([]Value(nil), row...))
	return nil
}

func containsLevel(levels []string, level string) bool {
	for _, l := range levels {
		if l == level {
			return true
		}
	}
	return false
}

// NumRows returns the number of rows.
func (d *Dataset) NumRows() int { return len(d.rows) }

// Columns returns a copy of the schema.
func (d *Dataset) Columns() []Column {
	out := make([]Column, len(d.cols))
	for i, c := range d.cols {
		out[i] = Column{Name: c.Name, Kind: c.Kind, Levels: append([]string(nil), c.Levels...)}
	}
	return out
}

// Column returns the schema entry for variable.
func (d *Dataset) Column(variable string) (Column, error) {
	i, ok := d.index[variable]
	if !ok {
		return Column{}, fmt.Errorf("%w: %q", ErrUnknownVariable, variable)
	}
	c := d.cols[i]
	return Column{Name: c.Name, Kind: c.Kind, Levels: append([]string(nil), c.Levels...)}, nil
}

// Has reports whether variable is part of the schema.
func (d *Dataset) Has(variable string) bool {
	_, ok := d.index[variable]
	return ok
}

// Row returns a copy of row i.
func (d *Dataset) Row(i int) []Value {
	return append([]Value(nil), d.rows[i]...)
}

// At returns the cell for (row, variable).
func (d *Dataset) At(row int, variable string) (Value, error) {
	i, ok := d.index[variable]
	if !ok {
		return Value{}, fmt.Errorf("%w: %q", ErrUnknownVariable, variable)
	}
	return d.rows[row][i], nil
}

// NumericValues returns the observed values of a numerical variable.
func (d *Dataset) NumericValues(variable string) ([]float64, error) {
	i, ok := d.index[variable]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, variable)
	}
	if d.cols[i].Kind != Numerical {
		return nil, fmt.Errorf("%w: %q is categorical", ErrKindMismatch, variable)
	}
	out := make([]float64, len(d.rows))
	for r, row := range d.rows {
		out[r] = row[i].Num
	}
	return out, nil
}

// Levels returns the declared level order of a categorical variable.
func (d *Dataset) Levels(variable string) ([]string, error) {
	i, ok := d.index[variable]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, variable)
	}
	if d.cols[i].Kind != Categorical {
		return nil, fmt.Errorf("%w: %q is numerical", ErrKindMismatch, variable)
	}
	return append([]string(nil), d.cols[i].Levels...), nil
}

// Select returns a new dataset containing the given rows, in the given order.
func (d *Dataset) Select(rows []int) (*Dataset, error) {
	out, err := New(d.cols)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		if r < 0 || r >= len(d.rows) {
			return nil, fmt.Errorf("dataset: %w: row %d of %d", ErrRowShape, r, len(d.rows))
		}
		out.rows = append(out.rows, append([]Value(nil), d.rows[r]...))
	}
	return out, nil
}

// Sample draws n rows without replacement, preserving the original row
// order. When n is not smaller than the number of rows the receiver is
// returned unchanged.
func (d *Dataset) Sample(n int, rng *rand.Rand) *Dataset {
	if n >= len(d.rows) || n <= 0 {
		return d
	}
	perm := rng.Perm(len(d.rows))[:n]
	sort.Ints(perm)
	out, _ := d.Select(perm)
	return out
}

// Substituted builds a dataset of len(vals) rows, each a copy of row with
// the given variable replaced by the corresponding value. All other
// variables keep the row's observed values.
func (d *Dataset) Substituted(row int, variable string, vals []Value) (*Dataset, error) {
	i, ok := d.index[variable]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, variable)
	}
	out, err := New(d.cols)
	if err != nil {
		return nil, err
	}
	src := d.rows[row]
	for _, v := range vals {
		clone := append([]Value(nil), src...)
		clone[i] = v
		out.rows = append(out.rows, clone)
	}
	return out, nil
}

// Drop returns a new dataset without the named column.
func (d *Dataset) Drop(variable string) (*Dataset, error) {
	i, ok := d.index[variable]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, variable)
	}
	cols := make([]Column, 0, len(d.cols)-1)
	for j, c := range d.cols {
		if j != i {
			cols = append(cols, c)
		}
	}
	out, err := New(cols)
	if err != nil {
		return nil, err
	}
	for _, row := range d.rows {
		clone := make([]Value, 0, len(row)-1)
		for j, v := range row {
			if j != i {
				clone = append(clone, v)
			}
		}
		out.rows = append(out.rows, clone)
	}
	return out, nil
}

// Permuted returns a new dataset with the named column's values shuffled
// across rows, all other columns untouched.
func (d *Dataset) Permuted(variable string, rng *rand.Rand) (*Dataset, error) {
	i, ok := d.index[variable]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, variable)
	}
	out, err := d.Select(identity(len(d.rows)))
	if err != nil {
		return nil, err
	}
	perm := rng.Perm(len(out.rows))
	for r := range out.rows {
		out.rows[r][i] = d.rows[perm[r]][i]
	}
	return out, nil
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// SplitTarget removes the named numerical column and returns the remaining
// dataset together with the extracted target values.
func (d *Dataset) SplitTarget(variable string) (*Dataset, []float64, error) {
	y, err := d.NumericValues(variable)
	if err != nil {
		return nil, nil, err
	}
	rest, err := d.Drop(variable)
	if err != nil {
		return nil, nil, err
	}
	return rest, y, nil
}

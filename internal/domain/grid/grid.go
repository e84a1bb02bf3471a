// Package grid computes the representative value grids probed by the
// explanation pipeline. Numerical variables get quantile-spaced grids,
// categorical variables get their declared level set.
package grid

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/glassboxml/glassbox/internal/domain/dataset"
)

// DefaultPoints is the grid resolution used when callers do not override it.
const DefaultPoints = 101

// Grid is the ordered set of substitute values for one variable.
type Grid struct {
	Variable string
	Kind     dataset.Kind

	// Values holds the grid for numerical variables, ascending.
	Values []float64
	// Levels holds the grid for categorical variables, in declared order.
	Levels []string
}

// Points returns the number of grid points.
func (g Grid) Points() int {
	if g.Kind == dataset.Categorical {
		return len(g.Levels)
	}
	return len(g.Values)
}

// Value returns grid point i as a dataset value.
func (g Grid) Value(i int) dataset.Value {
	if g.Kind == dataset.Categorical {
		return dataset.Cat(g.Levels[i])
	}
	return dataset.Num(g.Values[i])
}

// Build computes the grid for one variable of ds. For numerical variables it
// takes points quantiles evenly spaced in probability over the observed
// values and deduplicates them; all unique values are used when there are
// fewer than points of them. For categorical variables it returns the
// declared levels in order. Pure function of its inputs.
func Build(ds *dataset.Dataset, variable string, points int) (Grid, error) {
	col, err := ds.Column(variable)
	if err != nil {
		return Grid{}, fmt.Errorf("grid: %w", err)
	}
	if points < 2 {
		points = DefaultPoints
	}

	if col.Kind == dataset.Categorical {
		return Grid{Variable: variable, Kind: dataset.Categorical, Levels: col.Levels}, nil
	}

	observed, err := ds.NumericValues(variable)
	if err != nil {
		return Grid{}, fmt.Errorf("grid: %w", err)
	}
	if len(observed) == 0 {
		return Grid{}, fmt.Errorf("grid: %w: no observations for %q", ErrEmptyGrid, variable)
	}

	sorted := append([]float64(nil), observed...)
	sort.Float64s(sorted)

	unique := dedupe(sorted)
	if len(unique) <= points {
		return Grid{Variable: variable, Kind: dataset.Numerical, Values: unique}, nil
	}

	values := make([]float64, 0, points)
	for i := 0; i < points; i++ {
		p := float64(i) / float64(points-1)
		values = append(values, stat.Quantile(p, stat.Empirical, sorted, nil))
	}
	return Grid{Variable: variable, Kind: dataset.Numerical, Values: dedupe(values)}, nil
}

// BuildAll computes grids for the given variables, in order. A nil or empty
// variable list means every variable of the schema.
func BuildAll(ds *dataset.Dataset, variables []string, points int) ([]Grid, error) {
	if len(variables) == 0 {
		for _, c := range ds.Columns() {
			variables = append(variables, c.Name)
		}
	}
	grids := make([]Grid, 0, len(variables))
	for _, v := range variables {
		g, err := Build(ds, v, points)
		if err != nil {
			return nil, err
		}
		grids = append(grids, g)
	}
	return grids, nil
}

// dedupe removes consecutive duplicates from a sorted slice.
func dedupe(sorted []float64) []float64 {
	out := sorted[:0:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}

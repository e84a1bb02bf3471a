package model

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/glassboxml/glassbox/internal/domain/dataset"
)

// LinearModel is an ordinary least-squares fit. Categorical features
// are one-hot encoded with the first declared level as baseline so the
// design matrix stays full rank next to the intercept.
type LinearModel struct {
	cols []dataset.Column
	coef []float64
}

// TrainLinear fits the model. The target must align with the rows.
func TrainLinear(ds *dataset.Dataset, target []float64) (*LinearModel, error) {
	if ds == nil || ds.NumRows() == 0 {
		return nil, fmt.Errorf("model: %w", ErrNoObservations)
	}
	if len(target) != ds.NumRows() {
		return nil, fmt.Errorf("model: %d target values for %d rows: %w",
			len(target), ds.NumRows(), ErrTargetLength)
	}

	cols := ds.Columns()
	width := designWidth(cols)
	rows := ds.NumRows()
	if rows < width {
		return nil, fmt.Errorf("model: %d rows for %d coefficients: %w",
			rows, width, ErrUnderdetermined)
	}

	design := mat.NewDense(rows, width, nil)
	for r := 0; r < rows; r++ {
		design.SetRow(r, designRow(cols, ds.Row(r)))
	}

	var beta mat.VecDense
	if err := beta.SolveVec(design, mat.NewVecDense(rows, target)); err != nil {
		return nil, fmt.Errorf("model: solving least squares: %w: %v", ErrSingular, err)
	}

	coef := make([]float64, width)
	copy(coef, beta.RawVector().Data)
	return &LinearModel{cols: cols, coef: coef}, nil
}

// Predict scores every row of the dataset. The dataset must carry the
// training feature columns; extra columns are ignored.
func (m *LinearModel) Predict(ctx context.Context, ds *dataset.Dataset) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, col := range m.cols {
		if !ds.Has(col.Name) {
			return nil, fmt.Errorf("model: %q: %w", col.Name, dataset.ErrUnknownVariable)
		}
	}

	out := make([]float64, ds.NumRows())
	for r := range out {
		features := make([]dataset.Value, len(m.cols))
		for i, col := range m.cols {
			v, err := ds.At(r, col.Name)
			if err != nil {
				return nil, fmt.Errorf("model: %w", err)
			}
			features[i] = v
		}
		x := designRow(m.cols, features)
		var sum float64
		for i, c := range m.coef {
			sum += c * x[i]
		}
		out[r] = sum
	}
	return out, nil
}

// Label implements Predictor.
func (m *LinearModel) Label() string { return string(Linear) }

// Coefficients returns the fitted weights: intercept first, then one
// per numeric column and per non-baseline categorical level, in schema
// order.
func (m *LinearModel) Coefficients() []float64 {
	return append([]float64(nil), m.coef...)
}

func designWidth(cols []dataset.Column) int {
	width := 1 // intercept
	for _, col := range cols {
		if col.Kind == dataset.Categorical {
			if n := len(col.Levels); n > 1 {
				width += n - 1
			}
			continue
		}
		width++
	}
	return width
}

// designRow lays out one observation: intercept, numeric values, and
// dummy indicators skipping each categorical column's first level.
func designRow(cols []dataset.Column, row []dataset.Value) []float64 {
	x := make([]float64, designWidth(cols))
	x[0] = 1
	at := 1
	for i, col := range cols {
		if col.Kind == dataset.Categorical {
			for j := 1; j < len(col.Levels); j++ {
				if row[i].Level == col.Levels[j] {
					x[at] = 1
				}
				at++
			}
			continue
		}
		x[at] = row[i].Num
		at++
	}
	return x
}

// MeanModel predicts the training-target mean for every row.
type MeanModel struct {
	mean float64
}

// TrainMean fits the baseline.
func TrainMean(target []float64) *MeanModel {
	if len(target) == 0 {
		return &MeanModel{}
	}
	return &MeanModel{mean: stat.Mean(target, nil)}
}

// Predict implements Predictor.
func (m *MeanModel) Predict(ctx context.Context, ds *dataset.Dataset) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]float64, ds.NumRows())
	for i := range out {
		out[i] = m.mean
	}
	return out, nil
}

// Label implements Predictor.
func (m *MeanModel) Label() string { return string(Mean) }

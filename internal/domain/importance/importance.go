// Package importance computes permutation feature importance: the loss
// increase observed when a single variable's values are shuffled while
// everything else is held fixed.
package importance

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/glassboxml/glassbox/internal/domain/dataset"
	"github.com/glassboxml/glassbox/internal/domain/explain"
	"github.com/glassboxml/glassbox/pkg/metrics"
)

// Score is the importance of one variable under one model.
type Score struct {
	Variable string  `json:"variable"`
	Baseline float64 `json:"baseline_loss"`
	Loss     float64 `json:"permuted_loss"`
	Dropout  float64 `json:"dropout_loss"`
	Label    string  `json:"label"`
}

// Compute permutes each selected variable rounds times, scores the
// model against the observed target after each shuffle, and reports the
// mean permuted loss next to the unshuffled baseline. Scores come back
// in schema order. Deterministic for a fixed seed.
func Compute(ctx context.Context, exp explain.ExplainerLike, opts ...Option) ([]Score, error) {
	cfg := newConfig(opts...)

	data := exp.TrainData()
	if data == nil || data.NumRows() == 0 {
		return nil, fmt.Errorf("importance: %w", ErrNoObservations)
	}
	target := exp.Target()
	if len(target) == 0 {
		return nil, fmt.Errorf("importance: %w", ErrNoTarget)
	}
	if len(target) != data.NumRows() {
		return nil, fmt.Errorf("importance: %d target values for %d rows: %w",
			len(target), data.NumRows(), ErrTargetLength)
	}

	variables := cfg.variables
	if variables == nil {
		for _, col := range data.Columns() {
			variables = append(variables, col.Name)
		}
	}
	for _, v := range variables {
		if !data.Has(v) {
			return nil, fmt.Errorf("importance: %q: %w", v, dataset.ErrUnknownVariable)
		}
	}

	rng := rand.New(rand.NewSource(cfg.seed))
	sample, y := sampleWithTarget(data, target, cfg.sampleN, rng)

	baseline, err := score(ctx, exp, sample, y)
	if err != nil {
		return nil, err
	}

	scores := make([]Score, 0, len(variables))
	for _, v := range variables {
		losses := make([]float64, cfg.rounds)
		for b := 0; b < cfg.rounds; b++ {
			shuffled, err := sample.Permuted(v, rng)
			if err != nil {
				return nil, fmt.Errorf("importance: %w", err)
			}
			losses[b], err = score(ctx, exp, shuffled, y)
			if err != nil {
				return nil, err
			}
		}
		loss := stat.Mean(losses, nil)
		scores = append(scores, Score{
			Variable: v,
			Baseline: baseline,
			Loss:     loss,
			Dropout:  loss - baseline,
			Label:    exp.Label(),
		})
	}
	return scores, nil
}

// sampleWithTarget draws min(n, rows) rows without replacement, keeping
// the target slice aligned with the drawn rows. Original row order is
// preserved. n <= 0 keeps the whole dataset.
func sampleWithTarget(data *dataset.Dataset, target []float64, n int, rng *rand.Rand) (*dataset.Dataset, []float64) {
	rows := data.NumRows()
	if n <= 0 || n >= rows {
		return data, target
	}
	idx := rng.Perm(rows)[:n]
	sort.Ints(idx)
	sub, err := data.Select(idx)
	if err != nil {
		return data, target
	}
	y := make([]float64, n)
	for i, j := range idx {
		y[i] = target[j]
	}
	return sub, y
}

func score(ctx context.Context, exp explain.ExplainerLike, data *dataset.Dataset, y []float64) (float64, error) {
	start := time.Now()
	preds, err := exp.PredictFunc()(ctx, data)
	if err != nil {
		metrics.RecordPredictionError()
		return 0, fmt.Errorf("importance: scoring %q: %w", exp.Label(), err)
	}
	metrics.RecordPredictionBatch()
	metrics.RecordPredictionLatency(float64(time.Since(start).Milliseconds()))
	if len(preds) != len(y) {
		return 0, fmt.Errorf("importance: %d predictions for %d targets: %w",
			len(preds), len(y), ErrTargetLength)
	}
	return rmse(y, preds), nil
}

func rmse(observed, predicted []float64) float64 {
	var sum float64
	for i := range observed {
		d := observed[i] - predicted[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(observed)))
}

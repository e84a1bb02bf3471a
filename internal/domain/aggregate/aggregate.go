// Package aggregate turns ceteris-paribus profile points into summary
// curves: plain partial dependence, kernel-weighted conditional dependence,
// and accumulated local effects.
package aggregate

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/glassboxml/glassbox/internal/domain/dataset"
	"github.com/glassboxml/glassbox/internal/domain/profile"
	"github.com/glassboxml/glassbox/pkg/metrics"
)

// Kind selects the aggregation flavour.
type Kind string

// Aggregation kinds.
const (
	Partial     Kind = "partial"
	Conditional Kind = "conditional"
	Accumulated Kind = "accumulated"
)

// Variable type filters.
const (
	FilterAll         = "all"
	FilterNumerical   = "numerical"
	FilterCategorical = "categorical"
)

// Profile is one aggregated row: the summary prediction for one grid value
// of one variable, tagged with the source model's label.
type Profile struct {
	Variable string       `json:"variable"`
	Kind     dataset.Kind `json:"kind"`

	Value float64 `json:"value"`
	Level string  `json:"level,omitempty"`

	Prediction  float64 `json:"prediction"`
	Label       string  `json:"label"`
	Aggregation Kind    `json:"aggregation"`
}

// Aggregate computes one summary curve per (model label, variable) from the
// given points. Points from multiple models concatenate; each output row
// keeps its label. Identical inputs and options produce identical output.
func Aggregate(points []profile.Point, opts ...Option) ([]Profile, error) {
	start := time.Now()
	defer func() {
		metrics.RecordAggregationLatency(float64(time.Since(start).Milliseconds()))
	}()

	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("aggregate: %w", ErrEmptyProfileSet)
	}

	groups, order := groupPoints(points, cfg)
	if err := cfg.checkRequested(groups); err != nil {
		return nil, err
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("aggregate: %w: no variables match filter %q", ErrEmptyProfileSet, cfg.variableType)
	}

	var out []Profile
	for _, key := range order {
		g := groups[key]
		var curve []Profile
		switch cfg.kind {
		case Partial:
			curve = g.partial()
		case Conditional:
			curve = g.conditional(cfg.bandwidth)
		case Accumulated:
			curve = g.accumulated()
		}
		for i := range curve {
			curve[i].Aggregation = cfg.kind
		}
		out = append(out, curve...)
	}
	return out, nil
}

// groupKey identifies one curve.
type groupKey struct {
	label    string
	variable string
}

// group gathers the points of one (label, variable) pair, organised by grid
// value in first-appearance order.
type group struct {
	variable string
	label    string
	kind     dataset.Kind

	// gridValues / gridLevels hold the grid in appearance order.
	gridValues []float64
	gridLevels []string
	// perValue[i] lists the points observed at grid index i.
	perValue [][]profile.Point
}

func groupPoints(points []profile.Point, cfg *config) (map[groupKey]*group, []groupKey) {
	groups := make(map[groupKey]*group)
	var order []groupKey
	for _, p := range points {
		if !cfg.accepts(p) {
			continue
		}
		key := groupKey{label: p.Label, variable: p.Variable}
		g, ok := groups[key]
		if !ok {
			g = &group{variable: p.Variable, label: p.Label, kind: p.Kind}
			groups[key] = g
			order = append(order, key)
		}
		idx := g.gridIndex(p)
		g.perValue[idx] = append(g.perValue[idx], p)
	}
	return groups, order
}

func (g *group) gridIndex(p profile.Point) int {
	if g.kind == dataset.Categorical {
		for i, l := range g.gridLevels {
			if l == p.Level {
				return i
			}
		}
		g.gridLevels = append(g.gridLevels, p.Level)
	} else {
		for i, v := range g.gridValues {
			if v == p.Value {
				return i
			}
		}
		g.gridValues = append(g.gridValues, p.Value)
	}
	g.perValue = append(g.perValue, nil)
	return len(g.perValue) - 1
}

func (g *group) points() int { return len(g.perValue) }

func (g *group) row(i int) Profile {
	p := Profile{Variable: g.variable, Kind: g.kind, Label: g.label}
	if g.kind == dataset.Categorical {
		p.Level = g.gridLevels[i]
	} else {
		p.Value = g.gridValues[i]
	}
	return p
}

// partial is the arithmetic mean of predictions per grid value.
func (g *group) partial() []Profile {
	out := make([]Profile, 0, g.points())
	for i := 0; i < g.points(); i++ {
		row := g.row(i)
		row.Prediction = stat.Mean(predictions(g.perValue[i]), nil)
		out = append(out, row)
	}
	return out
}

// conditional weights each observation by the nearness of its own origin
// value to the grid point: a Gaussian kernel for numerical variables, an
// exact-level indicator for categorical ones. Falls back to the unweighted
// mean when a grid point attracts no weight.
func (g *group) conditional(bandwidth float64) []Profile {
	h := bandwidth
	if g.kind == dataset.Numerical && h <= 0 {
		h = silverman(g.origins())
	}

	out := make([]Profile, 0, g.points())
	for i := 0; i < g.points(); i++ {
		row := g.row(i)
		pts := g.perValue[i]

		var num, den float64
		for _, p := range pts {
			var w float64
			if g.kind == dataset.Categorical {
				if p.OriginLevel == row.Level {
					w = 1
				}
			} else {
				w = gauss((p.Origin - row.Value) / h)
			}
			num += w * p.Prediction
			den += w
		}
		if den > 0 {
			row.Prediction = num / den
		} else {
			row.Prediction = stat.Mean(predictions(pts), nil)
		}
		out = append(out, row)
	}
	return out
}

// accumulated computes accumulated local effects: bucketed differences of
// predictions between consecutive grid points, cumulated in increasing grid
// order and anchored so the bucket-count-weighted mean of the curve is zero.
// Categorical variables get the centred partial curve instead, weighted by
// observed level frequency.
func (g *group) accumulated() []Profile {
	if g.kind == dataset.Categorical {
		return g.accumulatedCategorical()
	}

	n := g.points()
	out := make([]Profile, 0, n)

	// byObservation[id][i] is the prediction of observation id at grid index i.
	byObservation := make(map[string][]float64)
	origins := make(map[string]float64)
	for i := 0; i < n; i++ {
		for _, p := range g.perValue[i] {
			curve, ok := byObservation[p.ObservationID]
			if !ok {
				curve = make([]float64, n)
				for j := range curve {
					curve[j] = math.NaN()
				}
				byObservation[p.ObservationID] = curve
				origins[p.ObservationID] = p.Origin
			}
			byObservation[p.ObservationID][i] = p.Prediction
		}
	}

	// Local effect per interval: mean prediction difference over the
	// observations whose origin falls inside it. Grid order is the
	// appearance order of the points, which the generator emits ascending.
	effects := make([]float64, n)
	counts := make([]float64, n)
	for id, curve := range byObservation {
		origin := origins[id]
		k := bucketOf(origin, g.gridValues)
		if k < 1 || k >= n {
			continue
		}
		if math.IsNaN(curve[k]) || math.IsNaN(curve[k-1]) {
			continue
		}
		effects[k] += curve[k] - curve[k-1]
		counts[k]++
	}
	for k := 1; k < n; k++ {
		if counts[k] > 0 {
			effects[k] /= counts[k]
		}
	}

	// Cumulative sum, then anchor to zero weighted mean. The cumulation
	// must walk grid points in increasing order.
	cum := make([]float64, n)
	for k := 1; k < n; k++ {
		cum[k] = cum[k-1] + effects[k]
	}
	var meanNum, meanDen float64
	for k := 0; k < n; k++ {
		meanNum += counts[k] * cum[k]
		meanDen += counts[k]
	}
	var anchor float64
	if meanDen > 0 {
		anchor = meanNum / meanDen
	} else {
		anchor = stat.Mean(cum, nil)
	}

	for i := 0; i < n; i++ {
		row := g.row(i)
		row.Prediction = cum[i] - anchor
		out = append(out, row)
	}
	return out
}

func (g *group) accumulatedCategorical() []Profile {
	out := g.partial()

	var meanNum, meanDen float64
	for i, row := range out {
		w := float64(originCount(g.perValue[i], row.Level))
		meanNum += w * row.Prediction
		meanDen += w
	}
	var anchor float64
	if meanDen > 0 {
		anchor = meanNum / meanDen
	} else {
		var sum float64
		for _, row := range out {
			sum += row.Prediction
		}
		anchor = sum / float64(len(out))
	}
	for i := range out {
		out[i].Prediction -= anchor
	}
	return out
}

// bucketOf returns the interval index k such that origin lies in
// (grid[k-1], grid[k]]; origins at or below the first grid value map to
// interval 1.
func bucketOf(origin float64, gridValues []float64) int {
	if len(gridValues) < 2 {
		return -1
	}
	if origin <= gridValues[0] {
		return 1
	}
	for k := 1; k < len(gridValues); k++ {
		if origin > gridValues[k-1] && origin <= gridValues[k] {
			return k
		}
	}
	// above the grid range: clamp into the last interval
	return len(gridValues) - 1
}

func originCount(pts []profile.Point, level string) int {
	n := 0
	for _, p := range pts {
		if p.OriginLevel == level {
			n++
		}
	}
	return n
}

func predictions(pts []profile.Point) []float64 {
	out := make([]float64, len(pts))
	for i, p := range pts {
		out[i] = p.Prediction
	}
	return out
}

func (g *group) origins() []float64 {
	var out []float64
	seen := make(map[string]struct{})
	for _, pts := range g.perValue {
		for _, p := range pts {
			if _, ok := seen[p.ObservationID]; ok {
				continue
			}
			seen[p.ObservationID] = struct{}{}
			out = append(out, p.Origin)
		}
	}
	return out
}

// silverman is the rule-of-thumb kernel bandwidth 1.06 * sigma * n^(-1/5),
// with a floor to keep the kernel usable on constant variables.
func silverman(xs []float64) float64 {
	if len(xs) == 0 {
		return 1
	}
	sigma := stat.StdDev(xs, nil)
	if sigma == 0 || math.IsNaN(sigma) {
		return 1
	}
	return 1.06 * sigma * math.Pow(float64(len(xs)), -0.2)
}

func gauss(z float64) float64 {
	return math.Exp(-0.5 * z * z)
}

package loadtest

import (
	"fmt"
	"log"
	"math"
)

// Tolerance for comparing profile predictions against the generating line.
const curveTolerance = 1e-6

// verifyResults checks finished jobs against the datasets that produced them.
func verifyResults(config *Config, jobs []Request, views map[string]JobView, stats *Stats) error {
	log.Println("verifying results...")

	if len(views) == 0 {
		return fmt.Errorf("no finished jobs to verify")
	}

	byRequest := make(map[string]Request, len(jobs))
	for _, j := range jobs {
		byRequest[j.RequestID] = j
	}

	verified := 0
	mismatched := 0

	for requestID, view := range views {
		if view.Status != "done" || view.Result == nil {
			continue
		}
		req, ok := byRequest[requestID]
		if !ok {
			continue
		}

		if req.FromFile || !hasOperation(req, "partial_dependence") {
			// File-backed datasets have no known generating line.
			continue
		}

		var err error
		switch req.Model {
		case "linear":
			// Jobs fitted with an exact linear model reproduce the line.
			err = verifyLinearCurve(req, view)
		case "mean":
			// A constant model yields a flat curve.
			err = verifyFlatCurve(view)
		default:
			continue
		}
		if err == nil {
			err = verifyGridBounds(req, view)
		}
		if err != nil {
			mismatched++
			if config.Verbose {
				log.Printf("curve mismatch for %s: %v", requestID, err)
			}
			continue
		}
		verified++
	}

	stats.VerifiedCurves = verified

	if mismatched > 0 {
		log.Printf("curve verification: %d verified, %d mismatched", verified, mismatched)
		return fmt.Errorf("%d partial dependence curves deviate from the generating line", mismatched)
	}

	log.Printf("curve verification completed: %d curves verified", verified)
	return nil
}

// verifyLinearCurve checks that the partial dependence of the signal
// variable follows the line the dataset was generated from.
func verifyLinearCurve(req Request, view JobView) error {
	checked := 0
	for _, p := range view.Result.Profiles {
		if p.Variable != "signal" {
			continue
		}
		expected := req.Slope*p.Value + req.Intercept
		if math.Abs(p.Prediction-expected) > curveTolerance {
			return fmt.Errorf("at signal=%.3f got %.6f, want %.6f", p.Value, p.Prediction, expected)
		}
		checked++
	}
	if checked == 0 {
		return fmt.Errorf("no profile rows for the signal variable")
	}
	return nil
}

// verifyFlatCurve checks that every profile row of a constant model
// carries the same prediction.
func verifyFlatCurve(view JobView) error {
	if len(view.Result.Profiles) == 0 {
		return fmt.Errorf("no profile rows")
	}
	first := view.Result.Profiles[0].Prediction
	for _, p := range view.Result.Profiles {
		if math.Abs(p.Prediction-first) > curveTolerance {
			return fmt.Errorf("constant model varies: %.6f vs %.6f at %s=%.3f",
				p.Prediction, first, p.Variable, p.Value)
		}
	}
	return nil
}

// verifyGridBounds checks that signal grid values stay inside the
// observed range of the generated column (0 .. rows-1).
func verifyGridBounds(req Request, view JobView) error {
	maxSignal := float64(len(req.Dataset.Rows) - 1)
	for _, p := range view.Result.Profiles {
		if p.Variable != "signal" {
			continue
		}
		if p.Value < 0 || p.Value > maxSignal {
			return fmt.Errorf("grid value %.3f outside [0, %.0f]", p.Value, maxSignal)
		}
	}
	return nil
}

// hasOperation reports whether the request names the given operation.
func hasOperation(req Request, op string) bool {
	for _, o := range req.Operations {
		if o == op {
			return true
		}
	}
	return false
}

// displayFinishedJobs shows a short summary of finished jobs.
func displayFinishedJobs(views map[string]JobView, verbose bool) {
	if !verbose {
		return
	}

	shown := 0
	for requestID, view := range views {
		if shown >= 10 {
			break
		}
		tables := 0
		if view.Result != nil {
			if len(view.Result.Profiles) > 0 {
				tables++
			}
			if len(view.Result.Points) > 0 {
				tables++
			}
			if len(view.Result.Importance) > 0 {
				tables++
			}
		}
		log.Printf("   %s -> %s (%d result tables)", requestID, view.Status, tables)
		shown++
	}
}

// Package calibrate fits item difficulties and the baseline ability from
// historical responses.
//
// The model is a logistic regression over one-hot student and item
// indicators with no intercept: logit P(correct) = w_student + w_item.
// Item difficulty is -w_item and the baseline ability theta0 is the mean
// student weight.
package calibrate

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/abhisek/adaptiq/internal/dataset"
	"github.com/abhisek/adaptiq/internal/irt"
)

// Result is the outcome of a calibration run.
type Result struct {
	Calibration *irt.Calibration
	Students    *dataset.Index
	Abilities   []float64 // per-student weights, parallel to Students

	Iterations    int
	Converged     bool
	LogLikelihood float64
}

type observation struct {
	other   int
	outcome float64
}

// Fit runs block-coordinate Newton ascent on the penalized log-likelihood.
// Each sweep updates every student weight with items fixed, then every item
// weight with students fixed.
func Fit(ctx context.Context, responses []dataset.Response, cfg Config) (*Result, error) {
	if len(responses) == 0 {
		return nil, errors.New("no responses to calibrate from")
	}

	students := dataset.StudentIndex(responses)
	items := dataset.ItemIndex(responses)

	byStudent := make([][]observation, students.Len())
	byItem := make([][]observation, items.Len())
	for _, r := range responses {
		if r.Outcome != 0 && r.Outcome != 1 {
			return nil, fmt.Errorf("response %s/%s: outcome %d is not 0 or 1", r.Student, r.Item, r.Outcome)
		}
		s, _ := students.Index(r.Student)
		i, _ := items.Index(r.Item)
		y := float64(r.Outcome)
		byStudent[s] = append(byStudent[s], observation{other: i, outcome: y})
		byItem[i] = append(byItem[i], observation{other: s, outcome: y})
	}

	ws := make([]float64, students.Len())
	wi := make([]float64, items.Len())

	res := &Result{Students: students}
	for res.Iterations < cfg.MaxIterations {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("calibrate: %w", err)
		}
		res.Iterations++

		moved := sweep(ws, wi, byStudent, cfg)
		if m := sweep(wi, ws, byItem, cfg); m > moved {
			moved = m
		}
		if m := recenter(ws, wi); m > moved {
			moved = m
		}
		if moved < cfg.Tolerance {
			res.Converged = true
			break
		}
	}

	difficulty := make([]float64, len(wi))
	for i, w := range wi {
		difficulty[i] = -w
	}
	var theta0 float64
	for _, w := range ws {
		theta0 += w
	}
	theta0 /= float64(len(ws))
	theta0 = math.Max(irt.MinTheta, math.Min(irt.MaxTheta, theta0))

	cal, err := irt.NewCalibration(items.Keys(), difficulty, theta0)
	if err != nil {
		return nil, fmt.Errorf("build calibration: %w", err)
	}
	res.Calibration = cal
	res.Abilities = ws
	res.LogLikelihood = logLikelihood(ws, wi, byStudent)
	return res, nil
}

// sweep takes one Newton step on every weight in own, holding other fixed,
// and returns the largest step taken.
func sweep(own, other []float64, obs [][]observation, cfg Config) float64 {
	var moved float64
	for k := range own {
		grad := -cfg.L2 * own[k]
		hess := cfg.L2
		for _, o := range obs[k] {
			p := irt.Probability(own[k], -other[o.other])
			grad += o.outcome - p
			hess += p * (1 - p)
		}
		if hess == 0 {
			continue
		}
		step := grad / hess
		step = math.Max(-cfg.MaxStep, math.Min(cfg.MaxStep, step))
		own[k] += step
		if a := math.Abs(step); a > moved {
			moved = a
		}
	}
	return moved
}

// recenter moves weight between the two blocks along the one direction the
// likelihood cannot see (every student weight +c, every item weight -c),
// choosing the c that minimizes the ridge penalty. Without it coordinate
// sweeps crawl along that direction at a rate set by L2.
func recenter(ws, wi []float64) float64 {
	var sumS, sumI float64
	for _, w := range ws {
		sumS += w
	}
	for _, w := range wi {
		sumI += w
	}
	c := (sumI - sumS) / float64(len(ws)+len(wi))
	for k := range ws {
		ws[k] += c
	}
	for k := range wi {
		wi[k] -= c
	}
	return math.Abs(c)
}

func logLikelihood(ws, wi []float64, byStudent [][]observation) float64 {
	var ll float64
	for s, obs := range byStudent {
		for _, o := range obs {
			p := irt.Probability(ws[s], -wi[o.other])
			if o.outcome == 1 {
				ll += math.Log(p)
			} else {
				ll += math.Log1p(-p)
			}
		}
	}
	return ll
}

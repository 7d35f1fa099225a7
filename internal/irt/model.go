package irt

import (
	"math"
	"sort"
)

// Record is a single observed response: the difficulty of the item that was
// asked and whether it was answered correctly (1) or not (0).
type Record struct {
	Difficulty float64
	Outcome    int
}

// Probability returns the chance that a student of ability theta answers an
// item of the given difficulty correctly.
func Probability(theta, difficulty float64) float64 {
	return ProbabilityWithBias(theta, difficulty, 0)
}

// ProbabilityWithBias is Probability with an additive shift on the logit.
func ProbabilityWithBias(theta, difficulty, bias float64) float64 {
	return sigmoid(theta - difficulty + bias)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// LikelihoodDerivative is the derivative of the log-likelihood of records
// with respect to theta. It is strictly decreasing in theta, so it crosses
// zero at most once.
func LikelihoodDerivative(theta float64, records []Record) float64 {
	var sum float64
	for _, r := range records {
		sum += float64(r.Outcome) - Probability(theta, r.Difficulty)
	}
	return sum
}

// canonical returns a sorted copy of records so that float summation does
// not depend on the order responses were observed in.
func canonical(records []Record) []Record {
	out := make([]Record, len(records))
	copy(out, records)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Difficulty != out[j].Difficulty {
			return out[i].Difficulty < out[j].Difficulty
		}
		return out[i].Outcome < out[j].Outcome
	})
	return out
}

package irt

import "math"

// NoItem is selected for a student whose every item is masked out.
const NoItem = -1

// SelectionObserver is notified of every item chosen by a Selector.
// Implementations must not retain or mutate selector state.
type SelectionObserver interface {
	ObserveSelection(student, item int)
}

// Selector picks the next item to ask each student.
type Selector struct {
	Observer SelectionObserver
}

// Select returns, for every student, the queryable item whose predicted
// probability of a correct answer is closest to 0.5, which is where a
// Rasch item carries the most information about ability. Ties resolve to
// the lowest item index.
func (s Selector) Select(thetas, difficulty []float64, canQuery Mask) ([]int, error) {
	if err := checkFinite("thetas", thetas); err != nil {
		return nil, err
	}
	if err := checkFinite("difficulty", difficulty); err != nil {
		return nil, err
	}
	if err := checkMask("can_query", canQuery, len(thetas), len(difficulty)); err != nil {
		return nil, err
	}

	chosen := make([]int, len(thetas))
	for st, theta := range thetas {
		best, bestLoss := NoItem, math.Inf(1)
		for it, d := range difficulty {
			if !canQuery[st][it] {
				// Masked pairs carry a +1 penalty and can never beat an
				// open pair, since information loss is at most 0.5.
				continue
			}
			if l := InformationLoss(theta, d); l < bestLoss {
				best, bestLoss = it, l
			}
		}
		chosen[st] = best
		if s.Observer != nil && best != NoItem {
			s.Observer.ObserveSelection(st, best)
		}
	}
	return chosen, nil
}

// InformationLoss is |0.5 - Probability(theta, difficulty)|, evaluated as
// 0.5·|tanh((theta-difficulty)/2)| so that difficulties mirrored around
// theta produce bit-identical losses.
func InformationLoss(theta, difficulty float64) float64 {
	return 0.5 * math.Abs(math.Tanh((theta-difficulty)/2))
}

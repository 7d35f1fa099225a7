package irt

// DefaultShift is subtracted from the probability before rounding, which
// moves the "correct" decision boundary up to p = 0.55.
const DefaultShift = 0.05

// Predictor turns abilities and difficulties into binary predictions.
type Predictor struct {
	Shift float64
}

// NewPredictor returns a Predictor using DefaultShift.
func NewPredictor() Predictor {
	return Predictor{Shift: DefaultShift}
}

// Predict returns a students × items matrix of 0/1 predictions.
// Rounding is half-up: an entry is 1 exactly when p - Shift >= 0.5.
func (p Predictor) Predict(thetas, difficulty []float64) (Matrix, error) {
	if err := checkFinite("thetas", thetas); err != nil {
		return nil, err
	}
	if err := checkFinite("difficulty", difficulty); err != nil {
		return nil, err
	}

	out := NewMatrix(len(thetas), len(difficulty))
	for st, theta := range thetas {
		for it, d := range difficulty {
			out[st][it] = p.PredictOne(theta, d)
		}
	}
	return out, nil
}

// PredictOne is Predict for a single (student, item) pair.
func (p Predictor) PredictOne(theta, difficulty float64) float64 {
	return roundHalfUp(Probability(theta, difficulty) - p.Shift)
}

// roundHalfUp maps x in (-1, 1) to 1 when x >= 0.5 and to 0 otherwise.
// It compares rather than adding 0.5, since that sum rounds the float just
// below 0.5 up to 1.
func roundHalfUp(x float64) float64 {
	if x >= 0.5 {
		return 1
	}
	return 0
}

package irt

import "math"

// Ability bounds. Estimates never leave [MinTheta, MaxTheta].
const (
	MinTheta = -2.0
	MaxTheta = 10.0
)

// Method reports how an ability estimate was obtained.
type Method string

const (
	MethodRoot         Method = "root"
	MethodAllCorrect   Method = "all-correct"
	MethodAllIncorrect Method = "all-incorrect"
	MethodUnbracketed  Method = "unbracketed"
	MethodEmpty        Method = "empty"
)

// Solution is an ability estimate together with the way it was reached.
type Solution struct {
	Theta  float64
	Method Method
}

// Estimator computes maximum-likelihood abilities from response records.
type Estimator struct {
	// Lower and Upper bracket the root search. Default: MinTheta, MaxTheta.
	Lower float64
	Upper float64

	// Tolerance is the absolute x tolerance of the root finder. Default: 2e-12.
	Tolerance float64

	// MaxIterations bounds the root finder. Default: 100.
	MaxIterations int

	// Default is returned for an empty record set, normally the
	// calibration baseline theta0.
	Default float64
}

// NewEstimator returns an Estimator with the standard bracket and the given
// baseline for students without history.
func NewEstimator(theta0 float64) Estimator {
	return Estimator{
		Lower:         MinTheta,
		Upper:         MaxTheta,
		Tolerance:     2e-12,
		MaxIterations: 100,
		Default:       theta0,
	}
}

// Estimate returns the ability that maximizes the likelihood of records.
func (e Estimator) Estimate(records []Record) (float64, error) {
	sol, err := e.Solve(records)
	if err != nil {
		return 0, err
	}
	return sol.Theta, nil
}

// Solve is Estimate with the estimation method attached.
//
// A history with a single outcome has a one-signed likelihood derivative and
// no root: all-correct maps to Upper and all-incorrect to Lower. A mixed
// history whose derivative still fails to change sign across the bracket
// maps to 0.
func (e Estimator) Solve(records []Record) (Solution, error) {
	for i, r := range records {
		if math.IsNaN(r.Difficulty) || math.IsInf(r.Difficulty, 0) {
			return Solution{}, valueError("records", "record %d has difficulty %v", i, r.Difficulty)
		}
		if r.Outcome != 0 && r.Outcome != 1 {
			return Solution{}, valueError("records", "record %d has outcome %d", i, r.Outcome)
		}
	}
	if len(records) == 0 {
		return Solution{Theta: e.Default, Method: MethodEmpty}, nil
	}
	e = e.withDefaults()

	correct := 0
	for _, r := range records {
		correct += r.Outcome
	}
	switch correct {
	case len(records):
		return Solution{Theta: e.Upper, Method: MethodAllCorrect}, nil
	case 0:
		return Solution{Theta: e.Lower, Method: MethodAllIncorrect}, nil
	}

	sorted := canonical(records)
	f := func(theta float64) float64 { return LikelihoodDerivative(theta, sorted) }
	if theta, ok := brent(f, e.Lower, e.Upper, e.Tolerance, e.MaxIterations); ok {
		return Solution{Theta: theta, Method: MethodRoot}, nil
	}
	return Solution{Theta: 0, Method: MethodUnbracketed}, nil
}

func (e Estimator) withDefaults() Estimator {
	if e.Lower == 0 && e.Upper == 0 {
		e.Lower, e.Upper = MinTheta, MaxTheta
	}
	if e.Tolerance <= 0 {
		e.Tolerance = 2e-12
	}
	if e.MaxIterations <= 0 {
		e.MaxIterations = 100
	}
	return e
}

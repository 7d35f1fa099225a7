package session

import "fmt"

// Summary reports the outcome of an evaluation run.
type Summary struct {
	RunID  string
	Rounds int // rounds actually played

	// Revealed is the number of answers shown to the estimator.
	Revealed int

	// Scored is the number of held-back answers predictions were checked
	// against, Hits how many of those predictions were right.
	Scored int
	Hits   int

	MeanTheta float64
}

// Accuracy returns Hits/Scored, or 0 when nothing was scored.
func (s *Summary) Accuracy() float64 {
	if s.Scored == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Scored)
}

func (s *Summary) String() string {
	return fmt.Sprintf("run %s: %d rounds, %d revealed, accuracy %.4f (%d/%d), mean ability %.3f",
		s.RunID, s.Rounds, s.Revealed, s.Accuracy(), s.Hits, s.Scored, s.MeanTheta)
}

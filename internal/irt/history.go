package irt

// Histories rebuilds every student's response records from the per-round
// matrices. masked marks asked pairs with any non-zero value; maskedBinary
// holds the outcome at those positions. Unasked positions are ignored in
// maskedBinary. It also returns the number of observed pairs.
func Histories(masked, maskedBinary Matrix, difficulty []float64) ([][]Record, int, error) {
	if err := checkFinite("difficulty", difficulty); err != nil {
		return nil, 0, err
	}
	students := len(masked)
	if err := checkMatrix("masked_data", masked, students, len(difficulty)); err != nil {
		return nil, 0, err
	}
	if err := checkMatrix("masked_binary_data", maskedBinary, students, len(difficulty)); err != nil {
		return nil, 0, err
	}

	history := make([][]Record, students)
	observed := 0
	for st, row := range masked {
		for it, v := range row {
			if v == 0 {
				continue
			}
			outcome := maskedBinary[st][it]
			if outcome != 0 && outcome != 1 {
				return nil, 0, valueError("masked_binary_data", "entry [%d][%d] is %v, want 0 or 1", st, it, outcome)
			}
			history[st] = append(history[st], Record{Difficulty: difficulty[it], Outcome: int(outcome)})
			observed++
		}
	}
	return history, observed, nil
}

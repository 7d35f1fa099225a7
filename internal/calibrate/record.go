package calibrate

import (
	"fmt"

	"github.com/abhisek/adaptiq/internal/irt"
	"github.com/abhisek/adaptiq/internal/store"
)

// ToRecord converts a calibration into its persisted form.
func ToRecord(cal *irt.Calibration, source string) *store.CalibrationRecord {
	rec := &store.CalibrationRecord{
		Source: source,
		Theta0: cal.Theta0,
		Items:  make([]store.CalibrationItem, cal.Items()),
	}
	for i, d := range cal.Difficulty {
		rec.Items[i] = store.CalibrationItem{Key: cal.Key(i), Difficulty: d}
	}
	return rec
}

// ResultRecord is ToRecord with solver diagnostics attached.
func ResultRecord(res *Result, source string) *store.CalibrationRecord {
	rec := ToRecord(res.Calibration, source)
	rec.Iterations = res.Iterations
	rec.Converged = res.Converged
	rec.LogLikelihood = res.LogLikelihood
	return rec
}

// FromRecord rebuilds a validated calibration from storage.
func FromRecord(rec *store.CalibrationRecord) (*irt.Calibration, error) {
	keys := make([]string, len(rec.Items))
	diff := make([]float64, len(rec.Items))
	for i, it := range rec.Items {
		keys[i] = it.Key
		diff[i] = it.Difficulty
	}
	cal, err := irt.NewCalibration(keys, diff, rec.Theta0)
	if err != nil {
		return nil, fmt.Errorf("calibration %d: %w", rec.ID, err)
	}
	return cal, nil
}

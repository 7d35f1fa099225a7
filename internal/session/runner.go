package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/abhisek/adaptiq/internal/irt"
	"github.com/abhisek/adaptiq/internal/store"
	"github.com/google/uuid"
)

// Runner drives a Session over a known answer grid: each round it asks
// every student the selected item, reveals the true answer, and updates.
// After the last round it predicts the answers that were never revealed and
// scores them.
type Runner struct {
	Session *Session
	Rounds  int

	// RunID labels persisted events. Generated when empty.
	RunID         string
	CalibrationID int64

	// Students names the session's students for persisted events. When
	// nil, decimal indices are used.
	Students []string

	// Events and Snapshots are optional.
	Events       store.EventRepo
	Snapshots    store.SnapshotRepo
	SnapshotKeep int

	Metrics *Metrics
	Logger  *slog.Logger
}

// Run plays up to r.Rounds rounds. outcome holds every known answer and
// observed marks which entries of outcome are real. Only observed entries
// are ever asked or scored.
func (r *Runner) Run(ctx context.Context, outcome irt.Matrix, observed irt.Mask) (*Summary, error) {
	if r.Session == nil {
		return nil, errors.New("runner: nil session")
	}
	if r.Rounds <= 0 {
		return nil, fmt.Errorf("runner: rounds %d must be positive", r.Rounds)
	}
	students, items := r.Session.Students(), r.Session.Calibration().Items()
	if len(observed) != students || len(outcome) != students {
		return nil, fmt.Errorf("runner: grid has %d/%d rows, session has %d students", len(outcome), len(observed), students)
	}
	for st := 0; st < students; st++ {
		if len(outcome[st]) != items || len(observed[st]) != items {
			return nil, fmt.Errorf("runner: grid row %d does not have %d items", st, items)
		}
	}
	if r.RunID == "" {
		r.RunID = uuid.NewString()
	}
	log := r.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("run_id", r.RunID)

	canQuery := observed.Clone()
	masked := irt.NewMatrix(students, items)
	maskedBinary := irt.NewMatrix(students, items)

	sum := &Summary{RunID: r.RunID}
	for round := 1; round <= r.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("round %d: %w", round, err)
		}

		chosen, err := r.Session.SelectNext(canQuery)
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", round, err)
		}

		asked := 0
		for st, it := range chosen {
			if it == irt.NoItem {
				continue
			}
			masked[st][it] = 1
			maskedBinary[st][it] = outcome[st][it]
			canQuery[st][it] = false
			asked++
		}
		if asked == 0 {
			log.Info("no queryable items left", "round", round)
			break
		}

		if err := r.Session.Update(ctx, masked, maskedBinary); err != nil {
			return nil, fmt.Errorf("round %d: %w", round, err)
		}
		sum.Rounds = round
		sum.Revealed += asked

		if err := r.record(ctx, round, chosen, maskedBinary); err != nil {
			return nil, fmt.Errorf("round %d: %w", round, err)
		}
		log.Debug("round complete", "round", round, "asked", asked)
	}

	preds, err := r.Session.Predict()
	if err != nil {
		return nil, err
	}
	for st := range preds {
		for it, p := range preds[st] {
			if !observed[st][it] || masked[st][it] != 0 {
				continue
			}
			sum.Scored++
			if p == outcome[st][it] {
				sum.Hits++
			}
		}
	}

	thetas := r.Session.Thetas()
	for _, th := range thetas {
		sum.MeanTheta += th
	}
	sum.MeanTheta /= float64(len(thetas))

	if err := r.snapshot(ctx); err != nil {
		return nil, err
	}

	log.Info("evaluation finished",
		"rounds", sum.Rounds,
		"revealed", sum.Revealed,
		"scored", sum.Scored,
		"accuracy", sum.Accuracy(),
	)
	return sum, nil
}

// Resume seeds the session from the latest snapshot in snaps when it was
// taken under the same calibration for the same students in the same order.
// It reports whether the session was restored; a missing or mismatched
// snapshot is not an error.
func (r *Runner) Resume(ctx context.Context, snaps store.SnapshotRepo) (bool, error) {
	if r.Session == nil {
		return false, errors.New("runner: nil session")
	}
	log := r.Logger
	if log == nil {
		log = slog.Default()
	}
	snap, err := snaps.Latest(ctx)
	if err != nil {
		return false, fmt.Errorf("load snapshot: %w", err)
	}
	if snap == nil || snap.Data.Abilities == nil {
		log.Info("no snapshot to resume from")
		return false, nil
	}
	data := snap.Data.Abilities
	if data.CalibrationID != r.CalibrationID {
		log.Warn("snapshot calibration differs, starting fresh",
			"snapshot_id", snap.ID, "snapshot_calibration", data.CalibrationID, "calibration", r.CalibrationID)
		return false, nil
	}
	if !r.sameStudents(data.Students) {
		log.Warn("snapshot students differ, starting fresh", "snapshot_id", snap.ID)
		return false, nil
	}
	if err := r.Session.Restore(data); err != nil {
		return false, err
	}
	log.Info("resumed from snapshot", "snapshot_id", snap.ID, "from_run", data.RunID, "round", data.Round)
	return true, nil
}

func (r *Runner) sameStudents(keys []string) bool {
	if len(keys) != r.Session.Students() {
		return false
	}
	for i, k := range keys {
		if k != r.studentKey(i) {
			return false
		}
	}
	return true
}

func (r *Runner) record(ctx context.Context, round int, chosen []int, maskedBinary irt.Matrix) error {
	thetas := r.Session.Thetas()
	cal := r.Session.Calibration()
	for st, it := range chosen {
		if it == irt.NoItem {
			continue
		}
		o := int(maskedBinary[st][it])
		r.Metrics.observeReveal(o)
		if r.Events == nil {
			continue
		}
		err := r.Events.AppendResponse(ctx, store.ResponseEventData{
			RunID:   r.RunID,
			Round:   round,
			Student: r.studentKey(st),
			Item:    cal.Key(it),
			Outcome: o,
			Theta:   thetas[st],
		})
		if err != nil {
			return fmt.Errorf("record response: %w", err)
		}
	}
	return nil
}

func (r *Runner) snapshot(ctx context.Context) error {
	if r.Snapshots == nil {
		return nil
	}
	data := r.Session.SnapshotData()
	data.RunID = r.RunID
	data.CalibrationID = r.CalibrationID
	data.Students = make([]string, r.Session.Students())
	for i := range data.Students {
		data.Students[i] = r.studentKey(i)
	}

	snap := &store.Snapshot{Data: store.SnapshotData{Version: 1, Abilities: data}}
	if err := r.Snapshots.Save(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if r.SnapshotKeep > 0 {
		if err := r.Snapshots.Prune(ctx, r.SnapshotKeep); err != nil {
			return fmt.Errorf("prune snapshots: %w", err)
		}
	}
	return nil
}

func (r *Runner) studentKey(i int) string {
	if i < len(r.Students) {
		return r.Students[i]
	}
	return fmt.Sprintf("%d", i)
}

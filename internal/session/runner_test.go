package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/abhisek/adaptiq/internal/irt"
	"github.com/abhisek/adaptiq/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// updateSamples returns how many updates the duration histogram observed.
func updateSamples(t *testing.T, m *Metrics) uint64 {
	t.Helper()
	var metric dto.Metric
	require.NoError(t, m.updateDuration.Write(&metric))
	return metric.GetHistogram().GetSampleCount()
}

func fullMask(students, items int) irt.Mask {
	return irt.NewMask(students, items, true)
}

// Two students over items q1 (d=0), q2 (d=1), q3 (d=-1).
func runnerFixture(t *testing.T, opts Options) (*Session, irt.Matrix) {
	t.Helper()
	cal, err := irt.NewCalibration([]string{"q1", "q2", "q3"}, []float64{0, 1, -1}, 0)
	require.NoError(t, err)
	s, err := New(cal, 2, opts)
	require.NoError(t, err)
	outcome := irt.Matrix{
		{1, 1, 0},
		{0, 0, 1},
	}
	return s, outcome
}

func TestRunner_Run(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	opts := DefaultOptions(0)
	opts.Metrics = m
	s, outcome := runnerFixture(t, opts)

	r := &Runner{
		Session:       s,
		Rounds:        2,
		RunID:         "run-1",
		CalibrationID: 7,
		Students:      []string{"alice", "bob"},
		Events:        st.EventRepo(),
		Snapshots:     st.SnapshotRepo(),
		SnapshotKeep:  5,
		Metrics:       m,
	}
	sum, err := r.Run(ctx, outcome, fullMask(2, 3))
	require.NoError(t, err)

	assert.Equal(t, "run-1", sum.RunID)
	assert.Equal(t, 2, sum.Rounds)
	assert.Equal(t, 4, sum.Revealed)
	// alice is predicted to get q3 right (she did not); bob is predicted
	// to miss q2 (he did).
	assert.Equal(t, 2, sum.Scored)
	assert.Equal(t, 1, sum.Hits)
	assert.InDelta(t, 0.5, sum.Accuracy(), 1e-12)

	thetas := s.Thetas()
	assert.Equal(t, irt.MaxTheta, thetas[0])
	assert.InDelta(t, -0.5, thetas[1], 1e-9)
	assert.InDelta(t, (thetas[0]+thetas[1])/2, sum.MeanTheta, 1e-12)

	events, err := st.EventRepo().RunResponses(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, events, 4)
	assert.Equal(t, "alice", events[0].Student)
	assert.Equal(t, "q1", events[0].Item)
	assert.Equal(t, 1, events[0].Round)
	assert.Equal(t, 1, events[0].Outcome)
	assert.Equal(t, "bob", events[3].Student)
	assert.Equal(t, "q3", events[3].Item)
	assert.Equal(t, 2, events[3].Round)

	snap, err := st.SnapshotRepo().Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.NotNil(t, snap.Data.Abilities)
	assert.Equal(t, "run-1", snap.Data.Abilities.RunID)
	assert.Equal(t, int64(7), snap.Data.Abilities.CalibrationID)
	assert.Equal(t, []string{"alice", "bob"}, snap.Data.Abilities.Students)
	assert.Equal(t, thetas, snap.Data.Abilities.Thetas)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.selections.WithLabelValues("0")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.selections.WithLabelValues("1")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.selections.WithLabelValues("2")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.revealed.WithLabelValues("1")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.revealed.WithLabelValues("0")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.estimates.WithLabelValues(string(irt.MethodRoot))))
	assert.Equal(t, uint64(2), updateSamples(t, m))
}

func TestRunner_StopsWhenNothingLeftToAsk(t *testing.T) {
	s, outcome := runnerFixture(t, DefaultOptions(0))
	r := &Runner{Session: s, Rounds: 10}

	sum, err := r.Run(context.Background(), outcome, fullMask(2, 3))
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Rounds)
	assert.Equal(t, 6, sum.Revealed)
	assert.Equal(t, 0, sum.Scored)
	assert.Equal(t, 0.0, sum.Accuracy())
	assert.NotEmpty(t, sum.RunID)
}

func TestRunner_OnlyAsksObservedEntries(t *testing.T) {
	s, outcome := runnerFixture(t, DefaultOptions(0))
	observed := irt.Mask{
		{false, true, true},
		{false, false, false},
	}
	r := &Runner{Session: s, Rounds: 1}

	sum, err := r.Run(context.Background(), outcome, observed)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Revealed)
	// alice answered q2 correctly; q3 is held back and scored.
	assert.Equal(t, 1, sum.Scored)
	assert.Equal(t, []float64{irt.MaxTheta, 0}, s.Thetas())
}

func TestRunner_Resume(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	students := []string{"alice", "bob"}

	fresh, _ := runnerFixture(t, DefaultOptions(0))
	ok, err := (&Runner{Session: fresh, Students: students}).Resume(ctx, st.SnapshotRepo())
	require.NoError(t, err)
	assert.False(t, ok, "empty store")

	s, outcome := runnerFixture(t, DefaultOptions(0))
	first := &Runner{Session: s, Rounds: 2, CalibrationID: 7, Students: students, Snapshots: st.SnapshotRepo()}
	_, err = first.Run(ctx, outcome, fullMask(2, 3))
	require.NoError(t, err)

	tests := []struct {
		name     string
		calID    int64
		students []string
		restored bool
	}{
		{"same calibration and students", 7, students, true},
		{"other calibration", 8, students, false},
		{"students reordered", 7, []string{"bob", "alice"}, false},
		{"students missing", 7, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, _ := runnerFixture(t, DefaultOptions(0))
			r := &Runner{Session: next, CalibrationID: tt.calID, Students: tt.students}
			ok, err := r.Resume(ctx, st.SnapshotRepo())
			require.NoError(t, err)
			assert.Equal(t, tt.restored, ok)
			if tt.restored {
				assert.Equal(t, s.Thetas(), next.Thetas())
				assert.Equal(t, 2, next.SnapshotData().Round)
			} else {
				assert.Equal(t, []float64{0, 0}, next.Thetas())
			}
		})
	}
}

func TestRunner_Errors(t *testing.T) {
	s, outcome := runnerFixture(t, DefaultOptions(0))

	_, err := (&Runner{Rounds: 1}).Run(context.Background(), outcome, fullMask(2, 3))
	assert.Error(t, err)

	_, err = (&Runner{Session: s}).Run(context.Background(), outcome, fullMask(2, 3))
	assert.Error(t, err)

	_, err = (&Runner{Session: s, Rounds: 1}).Run(context.Background(), outcome, fullMask(1, 3))
	assert.Error(t, err)

	_, err = (&Runner{Session: s, Rounds: 1}).Run(context.Background(), outcome, fullMask(2, 2))
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = (&Runner{Session: s, Rounds: 1}).Run(ctx, outcome, fullMask(2, 3))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSummary_String(t *testing.T) {
	sum := &Summary{RunID: "r", Rounds: 2, Revealed: 4, Scored: 4, Hits: 3, MeanTheta: 0.25}
	assert.Equal(t, "run r: 2 rounds, 4 revealed, accuracy 0.7500 (3/4), mean ability 0.250", sum.String())
}

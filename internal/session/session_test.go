package session

import (
	"context"
	"errors"
	"testing"

	"github.com/abhisek/adaptiq/internal/irt"
	"github.com/abhisek/adaptiq/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCalibration(t *testing.T, theta0 float64, difficulty ...float64) *irt.Calibration {
	t.Helper()
	cal, err := irt.NewCalibration(nil, difficulty, theta0)
	require.NoError(t, err)
	return cal
}

func newSession(t *testing.T, cal *irt.Calibration, students int) *Session {
	t.Helper()
	s, err := New(cal, students, DefaultOptions(cal.Theta0))
	require.NoError(t, err)
	return s
}

func TestNew_InitializesToBaseline(t *testing.T) {
	s := newSession(t, testCalibration(t, 0.7, 0, 1), 3)
	assert.Equal(t, []float64{0.7, 0.7, 0.7}, s.Thetas())
	assert.Equal(t, 3, s.Students())

	_, err := New(nil, 1, Options{})
	assert.Error(t, err)
	_, err = New(testCalibration(t, 0, 0), 0, Options{})
	assert.Error(t, err)
}

func TestFirstSelection(t *testing.T) {
	s := newSession(t, testCalibration(t, 0, 0, 1, -1), 1)

	got, err := s.SelectNext(irt.Mask{{true, true, true}})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, got)

	// Without the perfectly matched item the mirrored pair ties and the
	// lower index wins.
	got, err = s.SelectNext(irt.Mask{{false, true, true}})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got)
}

func TestUpdate_RecomputesFromFullHistory(t *testing.T) {
	s := newSession(t, testCalibration(t, 0.3, 0, 0, 2), 3)
	ctx := context.Background()

	masked := irt.Matrix{
		{1, 1, 0}, // one right, one wrong at difficulty 0
		{4, 0, 0}, // asked once, answered correctly
		{0, 0, 0}, // nothing asked
	}
	binary := irt.Matrix{
		{1, 0, 0},
		{1, 0, 0},
		{1, 1, 1}, // ignored: never asked
	}
	require.NoError(t, s.Update(ctx, masked, binary))

	thetas := s.Thetas()
	assert.InDelta(t, 0, thetas[0], 1e-9)
	assert.Equal(t, irt.MaxTheta, thetas[1])
	assert.Equal(t, 0.3, thetas[2])
	assert.Equal(t, []irt.Method{irt.MethodRoot, irt.MethodAllCorrect, irt.MethodEmpty}, s.Methods())

	// Updating again with the same matrices is idempotent.
	require.NoError(t, s.Update(ctx, masked, binary))
	assert.Equal(t, thetas, s.Thetas())

	// A corrected outcome is picked up because history is rebuilt.
	binary[1][0] = 0
	require.NoError(t, s.Update(ctx, masked, binary))
	assert.Equal(t, irt.MinTheta, s.Thetas()[1])
}

func TestUpdate_ParallelMatchesSequential(t *testing.T) {
	cal := testCalibration(t, 0, -1.5, -0.5, 0, 0.5, 1.5)
	masked := irt.Matrix{
		{1, 1, 1, 0, 0},
		{0, 1, 1, 1, 1},
		{1, 0, 1, 0, 1},
		{1, 1, 1, 1, 1},
	}
	binary := irt.Matrix{
		{1, 0, 1, 0, 0},
		{0, 1, 1, 0, 1},
		{1, 0, 0, 0, 1},
		{1, 1, 0, 1, 0},
	}

	seq := newSession(t, cal, 4)
	require.NoError(t, seq.Update(context.Background(), masked, binary))

	opts := DefaultOptions(cal.Theta0)
	opts.Workers = 3
	par, err := New(cal, 4, opts)
	require.NoError(t, err)
	require.NoError(t, par.Update(context.Background(), masked, binary))

	assert.Equal(t, seq.Thetas(), par.Thetas())
}

func TestUpdate_RejectsMalformedInputAndKeepsState(t *testing.T) {
	s := newSession(t, testCalibration(t, 0.5, 0, 1), 2)
	ctx := context.Background()

	tests := []struct {
		name   string
		masked irt.Matrix
		binary irt.Matrix
		want   error
	}{
		{"student count", irt.Matrix{{1, 0}}, irt.Matrix{{1, 0}}, irt.ErrShape},
		{"item count", irt.Matrix{{1}, {0}}, irt.Matrix{{1}, {0}}, irt.ErrShape},
		{"outcome not binary", irt.Matrix{{1, 0}, {0, 0}}, irt.Matrix{{2, 0}, {0, 0}}, irt.ErrValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Update(ctx, tt.masked, tt.binary)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Equal(t, []float64{0.5, 0.5}, s.Thetas())
		})
	}
}

func TestUpdate_Cancelled(t *testing.T) {
	s := newSession(t, testCalibration(t, 0, 0), 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Update(ctx, irt.Matrix{{1}, {1}}, irt.Matrix{{1}, {0}})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPredict(t *testing.T) {
	s := newSession(t, testCalibration(t, 0, -1, 0, 1), 1)
	got, err := s.Predict()
	require.NoError(t, err)
	assert.Equal(t, irt.Matrix{{1, 0, 0}}, got)
}

func TestSnapshotRestore(t *testing.T) {
	cal := testCalibration(t, 0, 0, 1)
	s := newSession(t, cal, 2)
	require.NoError(t, s.Update(context.Background(), irt.Matrix{{1, 1}, {1, 0}}, irt.Matrix{{1, 0}, {0, 0}}))

	data := s.SnapshotData()
	assert.Equal(t, 1, data.Round)

	other := newSession(t, cal, 2)
	require.NoError(t, other.Restore(data))
	assert.Equal(t, s.Thetas(), other.Thetas())

	assert.Error(t, other.Restore(nil))
	assert.Error(t, other.Restore(&store.AbilitySnapshotData{Thetas: []float64{1}}))
}

// Package session runs the adaptive estimation loop: select an item per
// student, let the caller reveal the answers, then re-estimate every
// student's ability from everything observed so far.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/abhisek/adaptiq/internal/irt"
	"github.com/abhisek/adaptiq/internal/store"
	"golang.org/x/sync/errgroup"
)

// Options configures a Session.
type Options struct {
	Estimator irt.Estimator
	Predictor irt.Predictor

	// Workers bounds parallel per-student estimation. Default: 1.
	Workers int

	Metrics *Metrics
	Logger  *slog.Logger
}

// DefaultOptions returns the standard estimator and predictor for the
// given baseline ability.
func DefaultOptions(theta0 float64) Options {
	return Options{
		Estimator: irt.NewEstimator(theta0),
		Predictor: irt.NewPredictor(),
		Workers:   1,
	}
}

// Session holds per-student ability state for one calibration.
// It is not safe for concurrent use; callers serialize SelectNext, Update
// and Predict.
type Session struct {
	cal     *irt.Calibration
	est     irt.Estimator
	sel     irt.Selector
	pred    irt.Predictor
	workers int
	metrics *Metrics
	log     *slog.Logger

	thetas  []float64
	methods []irt.Method
	updates int
}

// New creates a Session for students students, all starting at the
// calibration baseline theta0.
func New(cal *irt.Calibration, students int, opts Options) (*Session, error) {
	if cal == nil {
		return nil, errors.New("session: nil calibration")
	}
	if students <= 0 {
		return nil, fmt.Errorf("session: student count %d must be positive", students)
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Session{
		cal:     cal,
		est:     opts.Estimator,
		pred:    opts.Predictor,
		workers: opts.Workers,
		metrics: opts.Metrics,
		log:     opts.Logger,
		thetas:  make([]float64, students),
		methods: make([]irt.Method, students),
	}
	// Students without history always sit at the calibration baseline.
	s.est.Default = cal.Theta0
	if opts.Metrics != nil {
		s.sel.Observer = opts.Metrics
	}
	s.reset()
	return s, nil
}

func (s *Session) reset() {
	for i := range s.thetas {
		s.thetas[i] = s.cal.Theta0
		s.methods[i] = irt.MethodEmpty
	}
}

// Students returns the number of students in the session.
func (s *Session) Students() int { return len(s.thetas) }

// Calibration returns the calibration the session was built on.
func (s *Session) Calibration() *irt.Calibration { return s.cal }

// Thetas returns a copy of the current ability estimates.
func (s *Session) Thetas() []float64 {
	return append([]float64(nil), s.thetas...)
}

// Methods returns how each student's current estimate was obtained.
func (s *Session) Methods() []irt.Method {
	return append([]irt.Method(nil), s.methods...)
}

// SelectNext picks one item per student among those canQuery allows.
// Students with nothing left to ask get irt.NoItem.
func (s *Session) SelectNext(canQuery irt.Mask) ([]int, error) {
	chosen, err := s.sel.Select(s.thetas, s.cal.Difficulty, canQuery)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	return chosen, nil
}

// Update recomputes every student's ability from the full set of observed
// responses. An entry is observed where masked is non-zero; its outcome is
// read from maskedBinary at the same position. Students without any
// observed entry return to theta0. On error the previous state is kept.
func (s *Session) Update(ctx context.Context, masked, maskedBinary irt.Matrix) error {
	start := time.Now()

	if len(masked) != len(s.thetas) {
		return fmt.Errorf("update: %w", &irt.InputError{
			Field: "masked_data",
			Msg:   fmt.Sprintf("got %d rows for %d students", len(masked), len(s.thetas)),
			Err:   irt.ErrShape,
		})
	}
	history, observed, err := irt.Histories(masked, maskedBinary, s.cal.Difficulty)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}

	thetas := make([]float64, len(s.thetas))
	methods := make([]irt.Method, len(s.thetas))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for st := range history {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sol, err := s.est.Solve(history[st])
			if err != nil {
				return fmt.Errorf("student %d: %w", st, err)
			}
			thetas[st], methods[st] = sol.Theta, sol.Method
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("update: %w", err)
	}

	s.thetas, s.methods = thetas, methods
	s.updates++
	for _, m := range methods {
		s.metrics.observeEstimate(m)
	}
	elapsed := time.Since(start)
	s.metrics.observeUpdate(elapsed.Seconds())

	s.log.Debug("abilities updated",
		"update", s.updates,
		"students", len(thetas),
		"observed", observed,
		"duration", elapsed,
	)
	return nil
}

// Predict returns 0/1 predictions for every (student, item) pair from the
// current abilities.
func (s *Session) Predict() (irt.Matrix, error) {
	out, err := s.pred.Predict(s.thetas, s.cal.Difficulty)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	return out, nil
}

// SnapshotData exports the ability state for persistence. The caller fills
// in run and student identifiers.
func (s *Session) SnapshotData() *store.AbilitySnapshotData {
	return &store.AbilitySnapshotData{
		Round:  s.updates,
		Thetas: s.Thetas(),
	}
}

// Restore loads ability state saved by SnapshotData.
func (s *Session) Restore(data *store.AbilitySnapshotData) error {
	if data == nil {
		return errors.New("restore: nil snapshot")
	}
	if len(data.Thetas) != len(s.thetas) {
		return fmt.Errorf("restore: snapshot has %d students, session has %d", len(data.Thetas), len(s.thetas))
	}
	for i, th := range data.Thetas {
		if math.IsNaN(th) || math.IsInf(th, 0) {
			return fmt.Errorf("restore: student %d ability is %v", i, th)
		}
	}
	copy(s.thetas, data.Thetas)
	for i := range s.methods {
		s.methods[i] = ""
	}
	s.updates = data.Round
	return nil
}

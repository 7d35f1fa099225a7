package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// CalibrationItem is one calibrated item as persisted.
type CalibrationItem struct {
	Key        string  `json:"key"`
	Difficulty float64 `json:"difficulty"`
}

// CalibrationRecord is a stored calibration run.
type CalibrationRecord struct {
	ID        int64
	Sequence  int64
	CreatedAt time.Time

	Source string // where the training data came from
	Theta0 float64
	Items  []CalibrationItem

	Iterations    int
	Converged     bool
	LogLikelihood float64
}

// CalibrationRepo stores calibration results. Rows are never updated.
type CalibrationRepo interface {
	// Save stores rec and returns its ID.
	Save(ctx context.Context, rec *CalibrationRecord) (int64, error)

	// Get returns the calibration with the given ID, or ErrNotFound.
	Get(ctx context.Context, id int64) (*CalibrationRecord, error)

	// Latest returns the most recent calibration, or ErrNotFound.
	Latest(ctx context.Context) (*CalibrationRecord, error)
}

// ResponseEventData captures one revealed answer during an adaptive run.
type ResponseEventData struct {
	RunID   string
	Round   int
	Student string
	Item    string
	Outcome int
	Theta   float64 // ability after the round's update
}

// ResponseEvent is a stored ResponseEventData.
type ResponseEvent struct {
	Sequence  int64
	Timestamp time.Time
	ResponseEventData
}

// RunSummary aggregates the responses of one run.
type RunSummary struct {
	RunID     string
	Responses int
	Correct   int
	Rounds    int
	First     time.Time
	Last      time.Time
}

// EventRepo provides append and query access to response events.
type EventRepo interface {
	// AppendResponse records a revealed answer.
	AppendResponse(ctx context.Context, data ResponseEventData) error

	// RunResponses returns a run's events in sequence order.
	RunResponses(ctx context.Context, runID string) ([]ResponseEvent, error)

	// RunSummaries returns the most recent runs first. limit 0 means all.
	RunSummaries(ctx context.Context, limit int) ([]RunSummary, error)
}

// AbilitySnapshotData is the persisted ability state of an estimation session.
type AbilitySnapshotData struct {
	RunID         string    `json:"run_id"`
	CalibrationID int64     `json:"calibration_id"`
	Round         int       `json:"round"`
	Students      []string  `json:"students"`
	Thetas        []float64 `json:"thetas"`
}

// SnapshotData is the versioned snapshot payload.
type SnapshotData struct {
	Version   int                  `json:"version"`
	Abilities *AbilitySnapshotData `json:"abilities,omitempty"`
}

// Snapshot represents a point-in-time capture of session state.
type Snapshot struct {
	ID        int64
	Sequence  int64
	Timestamp time.Time
	Data      SnapshotData
}

// SnapshotRepo manages session snapshots.
type SnapshotRepo interface {
	// Save stores a new snapshot. A zero Sequence is filled with the
	// latest event sequence, a zero Timestamp with the current time.
	Save(ctx context.Context, snap *Snapshot) error

	// Latest returns the most recent snapshot, or nil if none exist.
	Latest(ctx context.Context) (*Snapshot, error)

	// Prune deletes all but the N most recent snapshots.
	Prune(ctx context.Context, keep int) error
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// calibrationRepo implements CalibrationRepo using the ent SQL driver.
type calibrationRepo struct {
	drv dialect.Driver
	seq *sequenceCounter
}

var calibrationColumns = []string{
	"id", "sequence", "timestamp", "source", "theta0",
	"items", "iterations", "converged", "log_likelihood",
}

func (r *calibrationRepo) Save(ctx context.Context, rec *CalibrationRecord) (int64, error) {
	if len(rec.Items) == 0 {
		return 0, errors.New("save calibration: no items")
	}
	items, err := json.Marshal(rec.Items)
	if err != nil {
		return 0, fmt.Errorf("marshal calibration items: %w", err)
	}

	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	q, args := builder(r.drv).Insert(tableCalibrations).
		Columns(calibrationColumns[1:]...).
		Values(seqNum, created.UTC(), rec.Source, rec.Theta0, string(items),
			rec.Iterations, rec.Converged, rec.LogLikelihood).
		Query()
	res, err := exec(ctx, r.drv, q, args)
	if err != nil {
		return 0, fmt.Errorf("save calibration: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("calibration id: %w", err)
	}
	return id, nil
}

func (r *calibrationRepo) Get(ctx context.Context, id int64) (*CalibrationRecord, error) {
	return r.first(ctx, builder(r.drv).Select(calibrationColumns...).
		From(entsql.Table(tableCalibrations)).
		Where(entsql.EQ("id", id)))
}

func (r *calibrationRepo) Latest(ctx context.Context) (*CalibrationRecord, error) {
	return r.first(ctx, builder(r.drv).Select(calibrationColumns...).
		From(entsql.Table(tableCalibrations)).
		OrderBy(entsql.Desc("sequence")))
}

func (r *calibrationRepo) first(ctx context.Context, sel *entsql.Selector) (*CalibrationRecord, error) {
	q, args := sel.Limit(1).Query()
	rows, err := query(ctx, r.drv, q, args)
	if err != nil {
		return nil, fmt.Errorf("query calibration: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("query calibration: %w", err)
		}
		return nil, fmt.Errorf("calibration: %w", ErrNotFound)
	}

	var (
		rec   CalibrationRecord
		items string
	)
	err = rows.Scan(&rec.ID, &rec.Sequence, &rec.CreatedAt, &rec.Source, &rec.Theta0,
		&items, &rec.Iterations, &rec.Converged, &rec.LogLikelihood)
	if err != nil {
		return nil, fmt.Errorf("scan calibration: %w", err)
	}
	if err := json.Unmarshal([]byte(items), &rec.Items); err != nil {
		return nil, fmt.Errorf("unmarshal calibration items: %w", err)
	}
	return &rec, nil
}

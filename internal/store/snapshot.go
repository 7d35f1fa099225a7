package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// snapshotRepo implements SnapshotRepo using the ent SQL driver.
type snapshotRepo struct {
	drv dialect.Driver
	seq *sequenceCounter
}

func (r *snapshotRepo) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap.Data)
	if err != nil {
		return fmt.Errorf("marshal snapshot data: %w", err)
	}

	if snap.Sequence == 0 {
		if snap.Sequence, err = r.seq.Last(ctx); err != nil {
			return err
		}
	}
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now()
	}

	q, args := builder(r.drv).Insert(tableSnapshots).
		Columns("sequence", "timestamp", "data").
		Values(snap.Sequence, snap.Timestamp.UTC(), string(data)).
		Query()
	res, err := exec(ctx, r.drv, q, args)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if snap.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("snapshot id: %w", err)
	}
	return nil
}

// newestFirst orders snapshots by capture point; ties on sequence resolve
// by insertion order.
func newestFirst(sel *entsql.Selector) *entsql.Selector {
	return sel.OrderBy(entsql.Desc("sequence"), entsql.Desc("id"))
}

func (r *snapshotRepo) Latest(ctx context.Context) (*Snapshot, error) {
	q, args := newestFirst(builder(r.drv).
		Select("id", "sequence", "timestamp", "data").
		From(entsql.Table(tableSnapshots))).
		Limit(1).
		Query()
	rows, err := query(ctx, r.drv, q, args)
	if err != nil {
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("query latest snapshot: %w", err)
		}
		return nil, nil
	}
	var (
		s    Snapshot
		data string
	)
	if err := rows.Scan(&s.ID, &s.Sequence, &s.Timestamp, &data); err != nil {
		return nil, fmt.Errorf("scan snapshot: %w", err)
	}
	if err := json.Unmarshal([]byte(data), &s.Data); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot data: %w", err)
	}
	return &s, nil
}

func (r *snapshotRepo) Prune(ctx context.Context, keep int) error {
	if keep < 0 {
		return fmt.Errorf("prune snapshots: keep %d is negative", keep)
	}

	q, args := newestFirst(builder(r.drv).
		Select("id").
		From(entsql.Table(tableSnapshots))).
		Query()
	rows, err := query(ctx, r.drv, q, args)
	if err != nil {
		return fmt.Errorf("query snapshots for prune: %w", err)
	}
	var ids []any
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan snapshot id: %w", err)
		}
		ids = append(ids, id)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return fmt.Errorf("iterate snapshot ids: %w", err)
	}
	if len(ids) <= keep {
		return nil
	}

	q, args = builder(r.drv).Delete(tableSnapshots).
		Where(entsql.In("id", ids[keep:]...)).
		Query()
	if _, err := exec(ctx, r.drv, q, args); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}

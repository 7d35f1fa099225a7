package store

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// eventRepo implements EventRepo using the ent SQL driver.
type eventRepo struct {
	drv dialect.Driver
	seq *sequenceCounter
}

var responseColumns = []string{
	"sequence", "timestamp", "run_id", "round", "student", "item", "outcome", "theta",
}

func (r *eventRepo) AppendResponse(ctx context.Context, data ResponseEventData) error {
	if data.Outcome != 0 && data.Outcome != 1 {
		return fmt.Errorf("append response: outcome %d is not 0 or 1", data.Outcome)
	}
	if data.RunID == "" {
		return fmt.Errorf("append response: empty run id")
	}
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	q, args := builder(r.drv).Insert(tableResponseEvents).
		Columns(responseColumns...).
		Values(seqNum, time.Now().UTC(), data.RunID, data.Round,
			data.Student, data.Item, data.Outcome, data.Theta).
		Query()
	if _, err := exec(ctx, r.drv, q, args); err != nil {
		return fmt.Errorf("save response event: %w", err)
	}
	return nil
}

func (r *eventRepo) RunResponses(ctx context.Context, runID string) ([]ResponseEvent, error) {
	q, args := builder(r.drv).Select(responseColumns...).
		From(entsql.Table(tableResponseEvents)).
		Where(entsql.EQ("run_id", runID)).
		OrderBy("sequence").
		Query()
	rows, err := query(ctx, r.drv, q, args)
	if err != nil {
		return nil, fmt.Errorf("query run responses: %w", err)
	}
	defer rows.Close()

	var out []ResponseEvent
	for rows.Next() {
		var e ResponseEvent
		if err := rows.Scan(&e.Sequence, &e.Timestamp, &e.RunID, &e.Round,
			&e.Student, &e.Item, &e.Outcome, &e.Theta); err != nil {
			return nil, fmt.Errorf("scan response event: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate response events: %w", err)
	}
	return out, nil
}

// runSummaryQuery aggregates per run, then joins back to the first and
// last events so their timestamps keep the column's datetime type.
const runSummaryQuery = `SELECT g.run_id, g.responses, g.correct, g.rounds, f.timestamp, l.timestamp
	FROM (
		SELECT run_id, COUNT(*) AS responses, SUM(outcome) AS correct, MAX(round) AS rounds,
			MIN(sequence) AS first_seq, MAX(sequence) AS last_seq
		FROM response_events GROUP BY run_id
	) AS g
	JOIN response_events AS f ON f.sequence = g.first_seq
	JOIN response_events AS l ON l.sequence = g.last_seq
	ORDER BY g.last_seq DESC`

func (r *eventRepo) RunSummaries(ctx context.Context, limit int) ([]RunSummary, error) {
	q := runSummaryQuery
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := query(ctx, r.drv, q, args)
	if err != nil {
		return nil, fmt.Errorf("query run summaries: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		if err := rows.Scan(&s.RunID, &s.Responses, &s.Correct, &s.Rounds, &s.First, &s.Last); err != nil {
			return nil, fmt.Errorf("scan run summary: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run summaries: %w", err)
	}
	return out, nil
}

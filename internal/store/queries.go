package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const observationColumns = `
	o.id, o.ts_utc, o.current_speed, o.freeflow_speed, o.confidence,
	i.id, i.name, i.lat, i.lon`

func scanObservationRow(scanner interface{ Scan(dest ...any) error }) (ObservationRow, error) {
	var r ObservationRow
	var ts int64
	err := scanner.Scan(
		&r.ID, &ts, &r.CurrentSpeed, &r.FreeFlowSpeed, &r.Confidence,
		&r.IntersectionID, &r.Name, &r.Lat, &r.Lon,
	)
	r.TS = time.Unix(ts, 0).UTC()
	return r, err
}

// Latest returns the limit most recent observations across all
// intersections, newest first, each joined with intersection metadata.
func (s *Store) Latest(ctx context.Context, limit int) ([]ObservationRow, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT `+observationColumns+`
		FROM flow_observations o
		JOIN intersections i ON i.id = o.intersection_id
		ORDER BY o.ts_utc DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying latest observations: %w", err)
	}
	defer rows.Close()

	var result []ObservationRow
	for rows.Next() {
		r, err := scanObservationRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// LatestSnapshot returns every observation carrying the single most recent
// stored timestamp, ordered by intersection id, along with that timestamp.
// An empty store yields a nil timestamp and no rows.
func (s *Store) LatestSnapshot(ctx context.Context) (*time.Time, []ObservationRow, error) {
	// MAX over an empty table is NULL, not a missing row.
	var maxTS sql.NullInt64
	err := s.conn.QueryRowContext(ctx,
		`SELECT MAX(ts_utc) FROM flow_observations`).Scan(&maxTS)
	if err != nil {
		return nil, nil, fmt.Errorf("finding latest timestamp: %w", err)
	}
	if !maxTS.Valid {
		return nil, nil, nil
	}

	rows, err := s.conn.QueryContext(ctx, `
		SELECT `+observationColumns+`
		FROM flow_observations o
		JOIN intersections i ON i.id = o.intersection_id
		WHERE o.ts_utc = ?
		ORDER BY i.id`, maxTS.Int64)
	if err != nil {
		return nil, nil, fmt.Errorf("querying snapshot: %w", err)
	}
	defer rows.Close()

	var result []ObservationRow
	for rows.Next() {
		r, err := scanObservationRow(rows)
		if err != nil {
			return nil, nil, err
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	ts := time.Unix(maxTS.Int64, 0).UTC()
	return &ts, result, nil
}

// Series returns all observations for one intersection with timestamps at or
// after since, oldest first. Each point carries a derived congestion ratio;
// the ratio is nil whenever free-flow speed is absent or zero.
func (s *Store) Series(ctx context.Context, intersectionID int64, since time.Time) ([]SeriesPoint, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT ts_utc, current_speed, freeflow_speed, confidence
		FROM flow_observations
		WHERE intersection_id = ? AND ts_utc >= ?
		ORDER BY ts_utc`, intersectionID, since.UTC().Unix())
	if err != nil {
		return nil, fmt.Errorf("querying series: %w", err)
	}
	defer rows.Close()

	var result []SeriesPoint
	for rows.Next() {
		var p SeriesPoint
		var ts int64
		if err := rows.Scan(&ts, &p.CurrentSpeed, &p.FreeFlowSpeed, &p.Confidence); err != nil {
			return nil, err
		}
		p.TS = time.Unix(ts, 0).UTC()
		if p.CurrentSpeed != nil && p.FreeFlowSpeed != nil && *p.FreeFlowSpeed != 0 {
			ratio := *p.CurrentSpeed / *p.FreeFlowSpeed
			p.Ratio = &ratio
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// Stats aggregates observations per intersection over the window starting at
// since. SQL AVG skips NULL inputs, so averages cover only the observations
// that actually carried a value. The returned worst row is the one with the
// smallest defined average ratio, i.e. the most congested intersection
// relative to its free-flow baseline; nil when no intersection has a defined
// ratio.
func (s *Store) Stats(ctx context.Context, since time.Time) (perIntersection []IntersectionStats, worst *IntersectionStats, err error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT i.id, i.name, i.lat, i.lon,
		       COUNT(o.id), AVG(o.current_speed), AVG(o.freeflow_speed)
		FROM flow_observations o
		JOIN intersections i ON i.id = o.intersection_id
		WHERE o.ts_utc >= ?
		GROUP BY i.id
		ORDER BY i.id`, since.UTC().Unix())
	if err != nil {
		return nil, nil, fmt.Errorf("querying stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var st IntersectionStats
		if err := rows.Scan(&st.IntersectionID, &st.Name, &st.Lat, &st.Lon,
			&st.N, &st.AvgCurrent, &st.AvgFreeflow); err != nil {
			return nil, nil, err
		}
		// A missing current-speed average counts as 0: an intersection
		// that only ever reported its baseline reads as fully congested,
		// not as unknown. Only a missing or zero free-flow baseline
		// leaves the ratio undefined.
		if st.AvgFreeflow != nil && *st.AvgFreeflow != 0 {
			current := 0.0
			if st.AvgCurrent != nil {
				current = *st.AvgCurrent
			}
			ratio := current / *st.AvgFreeflow
			deficit := *st.AvgFreeflow - current
			st.AvgRatio = &ratio
			st.AvgDeficit = &deficit
		}
		perIntersection = append(perIntersection, st)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	for idx := range perIntersection {
		st := &perIntersection[idx]
		if st.AvgRatio == nil {
			continue
		}
		if worst == nil || *st.AvgRatio < *worst.AvgRatio {
			worst = st
		}
	}
	return perIntersection, worst, nil
}

package store

import (
	"context"
	"fmt"
	"time"
)

// RecordObservation inserts one observation for an intersection. A row that
// collides on (intersection_id, ts_utc) is silently skipped: repeated writes
// within the same second collapse into a single observation.
func (s *Store) RecordObservation(ctx context.Context, intersectionID int64, ts time.Time, fields FlowFields) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO flow_observations
			(intersection_id, ts_utc, current_speed, freeflow_speed,
			 current_travel_time, freeflow_travel_time, confidence)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (intersection_id, ts_utc) DO NOTHING`,
		intersectionID,
		ts.UTC().Truncate(time.Second).Unix(),
		fields.CurrentSpeed,
		fields.FreeFlowSpeed,
		fields.CurrentTravelTime,
		fields.FreeFlowTravelTime,
		fields.Confidence,
	)
	if err != nil {
		return fmt.Errorf("recording observation: %w", err)
	}
	return nil
}

// Counts returns the total number of intersections and observations.
func (s *Store) Counts(ctx context.Context) (intersections, observations int64, err error) {
	if err = s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM intersections`).Scan(&intersections); err != nil {
		return 0, 0, fmt.Errorf("counting intersections: %w", err)
	}
	if err = s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM flow_observations`).Scan(&observations); err != nil {
		return 0, 0, fmt.Errorf("counting observations: %w", err)
	}
	return intersections, observations, nil
}

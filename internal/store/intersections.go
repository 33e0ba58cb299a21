package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ResolveIntersection returns the identity of the intersection at exactly
// (lat, lon), creating it with the given name if absent. The name is never
// updated on re-resolution. A concurrent creator racing on the same
// coordinate is absorbed by the DO NOTHING conflict policy and resolved by
// re-reading the row.
func (s *Store) ResolveIntersection(ctx context.Context, lat, lon float64, name *string) (int64, error) {
	var id int64
	err := s.conn.QueryRowContext(ctx,
		`SELECT id FROM intersections WHERE lat = ? AND lon = ?`, lat, lon).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("looking up intersection: %w", err)
	}

	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO intersections (name, lat, lon) VALUES (?, ?, ?)
		 ON CONFLICT (lat, lon) DO NOTHING`, name, lat, lon)
	if err != nil {
		return 0, fmt.Errorf("creating intersection: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 1 {
		if id, err := res.LastInsertId(); err == nil {
			return id, nil
		}
	}

	// Lost the race; the row exists now.
	err = s.conn.QueryRowContext(ctx,
		`SELECT id FROM intersections WHERE lat = ? AND lon = ?`, lat, lon).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("re-reading intersection after conflict: %w", err)
	}
	return id, nil
}

// NearestIntersection returns the stored intersection minimizing squared
// Euclidean distance in (lat, lon) space, or nil if none exist. A linear
// scan is fine at the scale of a sampling grid; exact distance ties go to
// the lowest intersection id.
func (s *Store) NearestIntersection(ctx context.Context, lat, lon float64) (*Intersection, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, name, lat, lon FROM intersections ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing intersections: %w", err)
	}
	defer rows.Close()

	var best *Intersection
	var bestDist float64
	for rows.Next() {
		var i Intersection
		if err := rows.Scan(&i.ID, &i.Name, &i.Lat, &i.Lon); err != nil {
			return nil, err
		}
		dLat := i.Lat - lat
		dLon := i.Lon - lon
		dist := dLat*dLat + dLon*dLon
		if best == nil || dist < bestDist {
			i := i
			best = &i
			bestDist = dist
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return best, nil
}

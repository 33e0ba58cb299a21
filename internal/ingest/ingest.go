package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/citygrid/traffic-scan/internal/store"
	"github.com/citygrid/traffic-scan/internal/traffic"
)

// DefaultPointTimeout bounds one point's resolve+fetch+store so a stalled
// upstream cannot stall the whole cycle.
const DefaultPointTimeout = 10 * time.Second

// Service runs ingest cycles: for each grid point it resolves the
// intersection identity, fetches flow data from the provider, and records a
// deduplicated observation.
type Service struct {
	store        *store.Store
	provider     traffic.Provider
	pointTimeout time.Duration
}

// NewService creates an ingest Service. A zero pointTimeout falls back to
// DefaultPointTimeout.
func NewService(st *store.Store, provider traffic.Provider, pointTimeout time.Duration) *Service {
	if pointTimeout <= 0 {
		pointTimeout = DefaultPointTimeout
	}
	return &Service{
		store:        st,
		provider:     provider,
		pointTimeout: pointTimeout,
	}
}

// CycleReport summarizes one pass over the grid.
type CycleReport struct {
	Attempted int
	Stored    int
	Failed    int
}

// RunCycle attempts every point exactly once, in order. A single point's
// failure (network, malformed payload, storage) is logged and skipped; it
// never aborts the cycle.
func (s *Service) RunCycle(ctx context.Context, points []traffic.GridPoint) CycleReport {
	report := CycleReport{Attempted: len(points)}

	for _, p := range points {
		if err := s.ingestPoint(ctx, p); err != nil {
			report.Failed++
			log.Printf("ingest: failed for %.5f,%.5f: %v", p.Lat, p.Lon, err)
			continue
		}
		report.Stored++
		log.Printf("ingest: %s: %.5f,%.5f stored", p.Name, p.Lat, p.Lon)
	}

	return report
}

func (s *Service) ingestPoint(ctx context.Context, p traffic.GridPoint) error {
	ctx, cancel := context.WithTimeout(ctx, s.pointTimeout)
	defer cancel()

	var name *string
	if p.Name != "" {
		name = &p.Name
	}

	id, err := s.store.ResolveIntersection(ctx, p.Lat, p.Lon, name)
	if err != nil {
		return fmt.Errorf("resolving intersection: %w", err)
	}

	seg, err := s.provider.FlowByPoint(ctx, p.Lat, p.Lon)
	if err != nil {
		return fmt.Errorf("fetching flow data: %w", err)
	}

	ts := time.Now().UTC().Truncate(time.Second)
	err = s.store.RecordObservation(ctx, id, ts, store.FlowFields{
		CurrentSpeed:       seg.CurrentSpeed,
		FreeFlowSpeed:      seg.FreeFlowSpeed,
		CurrentTravelTime:  seg.CurrentTravelTime,
		FreeFlowTravelTime: seg.FreeFlowTravelTime,
		Confidence:         seg.Confidence,
	})
	if err != nil {
		return fmt.Errorf("storing observation: %w", err)
	}
	return nil
}

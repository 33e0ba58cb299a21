package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/citygrid/traffic-scan/internal/store"
	"github.com/citygrid/traffic-scan/internal/traffic"
)

// stubProvider returns the same fixed segment for every point.
type stubProvider struct {
	segment traffic.FlowSegment
	calls   int
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) FlowByPoint(ctx context.Context, lat, lon float64) (traffic.FlowSegment, error) {
	p.calls++
	return p.segment, nil
}

func fltPtr(f float64) *float64 { return &f }

func setupService(t *testing.T, p traffic.Provider) (*Service, *store.Store) {
	t.Helper()
	st, err := store.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return NewService(st, p, time.Second), st
}

func TestRunCycleStoresEveryPoint(t *testing.T) {
	provider := &stubProvider{segment: traffic.FlowSegment{
		CurrentSpeed:  fltPtr(42),
		FreeFlowSpeed: fltPtr(60),
	}}
	svc, st := setupService(t, provider)

	points := traffic.Grid(
		traffic.LatLon{Lat: 39.93, Lon: -83.055},
		traffic.LatLon{Lat: 40.03, Lon: -82.965},
		2, 2,
	)

	report := svc.RunCycle(context.Background(), points)
	if report.Attempted != 4 || report.Stored != 4 || report.Failed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if provider.calls != 4 {
		t.Errorf("provider called %d times, want 4", provider.calls)
	}

	intersections, observations, err := st.Counts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if intersections != 4 || observations != 4 {
		t.Errorf("counts = %d/%d, want 4/4", intersections, observations)
	}
}

func TestRunCycleIsolatesPointFailures(t *testing.T) {
	boom := errors.New("upstream exploded")
	provider := &failSecondProvider{err: boom}
	svc, st := setupService(t, provider)

	points := traffic.Grid(traffic.LatLon{Lat: 0, Lon: 0}, traffic.LatLon{Lat: 1, Lon: 1}, 1, 3)

	report := svc.RunCycle(context.Background(), points)
	if report.Attempted != 3 {
		t.Errorf("attempted = %d, want 3", report.Attempted)
	}
	if report.Failed != 1 || report.Stored != 2 {
		t.Errorf("report = %+v, want 2 stored / 1 failed", report)
	}

	// The failed point still has its intersection (resolved before fetch)
	// but no observation.
	intersections, observations, err := st.Counts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if intersections != 3 {
		t.Errorf("intersections = %d, want 3", intersections)
	}
	if observations != 2 {
		t.Errorf("observations = %d, want 2", observations)
	}
}

// failSecondProvider fails exactly the second call of a cycle.
type failSecondProvider struct {
	err   error
	calls int
}

func (p *failSecondProvider) Name() string { return "fail-second" }

func (p *failSecondProvider) FlowByPoint(ctx context.Context, lat, lon float64) (traffic.FlowSegment, error) {
	p.calls++
	if p.calls == 2 {
		return traffic.FlowSegment{}, p.err
	}
	return traffic.FlowSegment{CurrentSpeed: fltPtr(10), FreeFlowSpeed: fltPtr(20)}, nil
}

func TestRunCycleSameSecondDeduplicates(t *testing.T) {
	provider := &stubProvider{segment: traffic.FlowSegment{CurrentSpeed: fltPtr(42)}}
	svc, st := setupService(t, provider)

	points := traffic.Grid(traffic.LatLon{Lat: 0, Lon: 0}, traffic.LatLon{Lat: 1, Lon: 1}, 1, 1)

	// Two back-to-back cycles within the same second collapse under the
	// (intersection, timestamp) dedup rule. Running them immediately after
	// one another cannot guarantee the same wall-clock second, so only the
	// lower bound is asserted.
	svc.RunCycle(context.Background(), points)
	svc.RunCycle(context.Background(), points)

	intersections, observations, err := st.Counts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if intersections != 1 {
		t.Errorf("intersections = %d, want 1", intersections)
	}
	if observations < 1 || observations > 2 {
		t.Errorf("observations = %d, want 1 or 2", observations)
	}
}

func TestRunCycleAbsentFieldsStayAbsent(t *testing.T) {
	provider := &stubProvider{segment: traffic.FlowSegment{}}
	svc, st := setupService(t, provider)

	points := traffic.Grid(traffic.LatLon{Lat: 0, Lon: 0}, traffic.LatLon{Lat: 1, Lon: 1}, 1, 1)
	svc.RunCycle(context.Background(), points)

	rows, err := st.Latest(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].CurrentSpeed != nil || rows[0].FreeFlowSpeed != nil || rows[0].Confidence != nil {
		t.Errorf("absent payload fields must be stored as NULL, got %+v", rows[0])
	}
}

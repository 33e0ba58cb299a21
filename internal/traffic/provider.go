package traffic

import "context"

// Provider abstracts a traffic-flow data source (e.g. TomTom).
type Provider interface {
	Name() string
	FlowByPoint(ctx context.Context, lat, lon float64) (FlowSegment, error)
}

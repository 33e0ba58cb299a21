package store

import "time"

// Intersection is a row in the intersections table. An intersection is
// created lazily on the first observation at a coordinate pair and never
// updated or deleted afterwards.
type Intersection struct {
	ID   int64   `json:"id"`
	Name *string `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// FlowFields holds the numeric payload of one observation. Every field is
// independently optional because the upstream provider may omit any of them.
type FlowFields struct {
	CurrentSpeed       *float64
	FreeFlowSpeed      *float64
	CurrentTravelTime  *float64
	FreeFlowTravelTime *float64
	Confidence         *float64
}

// ObservationRow is one stored observation joined with its intersection's
// metadata, as returned by the latest and snapshot queries.
type ObservationRow struct {
	ID             int64     `json:"id"`
	TS             time.Time `json:"ts"`
	CurrentSpeed   *float64  `json:"current_speed"`
	FreeFlowSpeed  *float64  `json:"freeflow_speed"`
	Confidence     *float64  `json:"confidence"`
	IntersectionID int64     `json:"intersection_id"`
	Name           *string   `json:"name"`
	Lat            float64   `json:"lat"`
	Lon            float64   `json:"lon"`
}

// SeriesPoint is one observation in a per-intersection time series. Ratio is
// current speed over free-flow speed; it is nil whenever free-flow speed is
// absent or zero.
type SeriesPoint struct {
	TS            time.Time `json:"ts"`
	CurrentSpeed  *float64  `json:"current_speed"`
	FreeFlowSpeed *float64  `json:"freeflow_speed"`
	Confidence    *float64  `json:"confidence"`
	Ratio         *float64  `json:"ratio"`
}

// IntersectionStats aggregates observations for one intersection over a time
// window. Averages skip absent inputs; AvgRatio and AvgDeficit are nil when
// the average free-flow speed is absent or zero.
type IntersectionStats struct {
	IntersectionID int64    `json:"intersection_id"`
	Name           *string  `json:"name"`
	Lat            float64  `json:"lat"`
	Lon            float64  `json:"lon"`
	N              int64    `json:"n"`
	AvgCurrent     *float64 `json:"avg_current"`
	AvgFreeflow    *float64 `json:"avg_freeflow"`
	AvgRatio       *float64 `json:"avg_ratio"`
	AvgDeficit     *float64 `json:"avg_deficit"`
}

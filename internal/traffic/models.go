package traffic

// LatLon is a geographic coordinate pair in decimal degrees.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GridPoint is one synthetic sampling location generated over a bounding box.
type GridPoint struct {
	Lat  float64
	Lon  float64
	Name string
}

// FlowSegment is the upstream provider's reported traffic condition for a
// point. Every field may be missing from the payload, so all are pointers;
// a nil field is stored as absent, never as zero.
type FlowSegment struct {
	CurrentSpeed       *float64 `json:"currentSpeed"`
	FreeFlowSpeed      *float64 `json:"freeFlowSpeed"`
	CurrentTravelTime  *float64 `json:"currentTravelTime"`
	FreeFlowTravelTime *float64 `json:"freeFlowTravelTime"`
	Confidence         *float64 `json:"confidence"`
}

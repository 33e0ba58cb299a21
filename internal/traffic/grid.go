package traffic

import "fmt"

// Grid lays out rows x cols sample points as a regular lattice between the
// southwest and northeast corners of a bounding box, row-major. With a single
// row or column the step degrades to zero and that axis collapses onto the
// southwest edge. Pure function; same inputs always yield the same sequence.
func Grid(sw, ne LatLon, rows, cols int) []GridPoint {
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}

	latStep := (ne.Lat - sw.Lat) / float64(max(rows-1, 1))
	lonStep := (ne.Lon - sw.Lon) / float64(max(cols-1, 1))

	points := make([]GridPoint, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			points = append(points, GridPoint{
				Lat:  sw.Lat + float64(r)*latStep,
				Lon:  sw.Lon + float64(c)*lonStep,
				Name: fmt.Sprintf("grid_r%d_c%d", r, c),
			})
		}
	}
	return points
}

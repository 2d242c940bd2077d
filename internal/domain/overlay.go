package domain

// Visual token bound to a single position on the map.
type Marker struct {
	ID       string
	Position Coordinates
	Title    string
	Icon     string
	Rotation float64
}

// Line overlay connecting an ordered coordinate sequence.
type Polyline struct {
	ID     string
	Points []Coordinates
	Width  float64
	Color  string
}

type Camera struct {
	Target Coordinates
	Zoom   float64
}

package domain

import "time"

// A single position report delivered by a location source.
type LocationFix struct {
	Position       Coordinates
	AccuracyMeters float64
	Bearing        float64
	SpeedMPS       float64
	At             time.Time
}

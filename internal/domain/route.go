package domain

import "time"

// Represents the driving route returned by a directions provider.
// Points preserve the provider's order from origin to destination.
type Route struct {
	Provider       string
	Summary        string
	EncodedPath    string
	Points         []Coordinates
	DistanceMeters int
	Duration       time.Duration
}

type RouteStatus string

const (
	RouteNone    RouteStatus = "none"
	RoutePending RouteStatus = "pending"
	RouteReady   RouteStatus = "ready"
	RouteFailed  RouteStatus = "failed"
	RouteSkipped RouteStatus = "skipped"

	// RouteCancelled marks a request abandoned because the session closed.
	RouteCancelled RouteStatus = "cancelled"
)

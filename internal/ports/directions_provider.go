package ports

import (
	"context"
	"errors"
	"navigation-session-service/internal/domain"
)

// ErrNoRoute is returned when a provider answers without any route.
var ErrNoRoute = errors.New("directions provider returned no routes")

type TravelMode string

const (
	TravelModeDriving TravelMode = "driving"
)

type DirectionsRequest struct {
	Origin      domain.Coordinates
	Destination domain.Coordinates
	Mode        TravelMode
}

// Contract for retrieving routes between two locations.
type DirectionsProvider interface {
	// Return candidate routes, best first. Points must be decoded.
	GetRoutes(ctx context.Context, req DirectionsRequest) ([]domain.Route, error)
}

package directions

import (
	"context"
	"errors"
	"fmt"
	"navigation-session-service/internal/domain"
	"navigation-session-service/internal/platform/obs"
	"navigation-session-service/internal/ports"
	"net/http"
	"time"

	"googlemaps.github.io/maps"
)

// GoogleDirectionsProvider implements DirectionsProvider on the Google
// Directions API. Each route's overview polyline is decoded into points.
type GoogleDirectionsProvider struct {
	client *maps.Client
}

func NewGoogleDirectionsProvider(apiKey, baseURL string, timeout time.Duration) (*GoogleDirectionsProvider, error) {
	if apiKey == "" {
		return nil, errors.New("google directions api key is empty")
	}

	opts := []maps.ClientOption{
		maps.WithAPIKey(apiKey),
		maps.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if baseURL != "" {
		opts = append(opts, maps.WithBaseURL(baseURL))
	}

	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("new google maps client: %w", err)
	}
	return &GoogleDirectionsProvider{client: client}, nil
}

func googleMode(mode ports.TravelMode) (maps.Mode, error) {
	switch mode {
	case "", ports.TravelModeDriving:
		return maps.TravelModeDriving, nil
	}
	return "", fmt.Errorf("unsupported travel mode %q", mode)
}

func (g *GoogleDirectionsProvider) GetRoutes(
	ctx context.Context,
	req ports.DirectionsRequest,
) (_ []domain.Route, err error) {
	defer obs.Time(ctx, "google.GetRoutes")(&err)

	mode, err := googleMode(req.Mode)
	if err != nil {
		return nil, fmt.Errorf("get google routes: %w", err)
	}

	routes, _, err := g.client.Directions(ctx, &maps.DirectionsRequest{
		Origin:      req.Origin.String(),
		Destination: req.Destination.String(),
		Mode:        mode,
	})
	if err != nil {
		return nil, fmt.Errorf("google directions %s -> %s: %w", req.Origin, req.Destination, err)
	}

	if len(routes) == 0 {
		return nil, ports.ErrNoRoute
	}

	out := make([]domain.Route, 0, len(routes))
	for i, r := range routes {
		latlngs, err := r.OverviewPolyline.Decode()
		if err != nil {
			return nil, fmt.Errorf("route %d: decode overview polyline: %w", i, err)
		}

		points := make([]domain.Coordinates, 0, len(latlngs))
		for _, ll := range latlngs {
			points = append(points, domain.Coordinates{Lat: ll.Lat, Lng: ll.Lng})
		}

		route := domain.Route{
			Provider:    "google",
			Summary:     r.Summary,
			EncodedPath: r.OverviewPolyline.Points,
			Points:      points,
		}
		for _, leg := range r.Legs {
			if leg == nil {
				continue
			}
			route.DistanceMeters += leg.Distance.Meters
			route.Duration += leg.Duration
		}
		out = append(out, route)
	}

	return out, nil
}

package geo

import (
	"fmt"
	"navigation-session-service/internal/domain"

	"googlemaps.github.io/maps"
)

// DecodePolyline decodes a Google encoded polyline into ordered coordinates.
func DecodePolyline(encoded string) ([]domain.Coordinates, error) {
	if encoded == "" {
		return []domain.Coordinates{}, nil
	}

	latlngs, err := maps.DecodePolyline(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode polyline: %w", err)
	}

	out := make([]domain.Coordinates, 0, len(latlngs))
	for _, ll := range latlngs {
		out = append(out, domain.Coordinates{Lat: ll.Lat, Lng: ll.Lng})
	}
	return out, nil
}

// EncodePolyline is the inverse of DecodePolyline at 1e-5 precision.
func EncodePolyline(points []domain.Coordinates) string {
	latlngs := make([]maps.LatLng, 0, len(points))
	for _, p := range points {
		latlngs = append(latlngs, maps.LatLng{Lat: p.Lat, Lng: p.Lng})
	}
	return maps.Encode(latlngs)
}

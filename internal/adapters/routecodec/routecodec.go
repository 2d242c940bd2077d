package routecodec

import (
	"encoding/json"
	"fmt"
	"navigation-session-service/internal/domain"
	"navigation-session-service/internal/geo"
	"time"
)

// Stored form of a route. Points are rebuilt from the encoded path,
// so only the compact encoding is persisted.
type routeRecord struct {
	Provider        string `json:"provider"`
	Summary         string `json:"summary,omitempty"`
	EncodedPath     string `json:"encoded_path"`
	DistanceMeters  int    `json:"distance_meters"`
	DurationSeconds int64  `json:"duration_seconds"`
}

func Marshal(r domain.Route) ([]byte, error) {
	encoded := r.EncodedPath
	if encoded == "" && len(r.Points) > 0 {
		encoded = geo.EncodePolyline(r.Points)
	}
	return json.Marshal(routeRecord{
		Provider:        r.Provider,
		Summary:         r.Summary,
		EncodedPath:     encoded,
		DistanceMeters:  r.DistanceMeters,
		DurationSeconds: int64(r.Duration / time.Second),
	})
}

func Unmarshal(b []byte) (domain.Route, error) {
	var rec routeRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return domain.Route{}, fmt.Errorf("unmarshal route record: %w", err)
	}

	points, err := geo.DecodePolyline(rec.EncodedPath)
	if err != nil {
		return domain.Route{}, err
	}

	return domain.Route{
		Provider:       rec.Provider,
		Summary:        rec.Summary,
		EncodedPath:    rec.EncodedPath,
		Points:         points,
		DistanceMeters: rec.DistanceMeters,
		Duration:       time.Duration(rec.DurationSeconds) * time.Second,
	}, nil
}

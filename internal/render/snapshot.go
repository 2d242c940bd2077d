package render

import (
	"encoding/json"
	"fmt"
	"navigation-session-service/internal/domain"

	"github.com/peterstace/simplefeatures/geom"
)

type Snapshot struct {
	Camera    *domain.Camera
	Markers   []domain.Marker
	Polylines []domain.Polyline
	Notices   []Notice
	Style     json.RawMessage
}

// FeatureCollection renders markers as Points and polylines as LineStrings.
// GeoJSON positions are [lng, lat].
func (s Snapshot) FeatureCollection() (geom.GeoJSONFeatureCollection, error) {
	fc := make(geom.GeoJSONFeatureCollection, 0, len(s.Markers)+len(s.Polylines))

	for _, m := range s.Markers {
		pt, err := pointOf(m.Position)
		if err != nil {
			return nil, fmt.Errorf("render marker %s: %w", m.ID, err)
		}
		fc = append(fc, geom.GeoJSONFeature{
			ID:       m.ID,
			Geometry: pt.AsGeometry(),
			Properties: map[string]interface{}{
				"kind":     "marker",
				"title":    m.Title,
				"icon":     m.Icon,
				"rotation": m.Rotation,
			},
		})
	}

	for _, p := range s.Polylines {
		g, err := lineOf(p.Points)
		if err != nil {
			return nil, fmt.Errorf("render polyline %s: %w", p.ID, err)
		}
		fc = append(fc, geom.GeoJSONFeature{
			ID:       p.ID,
			Geometry: g,
			Properties: map[string]interface{}{
				"kind":  "polyline",
				"width": p.Width,
				"color": p.Color,
			},
		})
	}

	return fc, nil
}

func pointOf(c domain.Coordinates) (geom.Point, error) {
	return geom.NewPoint(geom.Coordinates{XY: geom.XY{X: c.Lng, Y: c.Lat}})
}

// lineOf draws a path as a LineString. A path without two distinct
// positions is drawn as a Point at its first position, and an empty path as
// an empty LineString.
func lineOf(points []domain.Coordinates) (geom.Geometry, error) {
	if len(points) == 0 {
		return geom.LineString{}.AsGeometry(), nil
	}
	if !hasDistinct(points) {
		return pointGeometry(points[0])
	}

	flat := make([]float64, 0, len(points)*2)
	for _, p := range points {
		flat = append(flat, p.Lng, p.Lat)
	}
	ls, err := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
	if err != nil {
		return pointGeometry(points[0])
	}
	return ls.AsGeometry(), nil
}

func pointGeometry(c domain.Coordinates) (geom.Geometry, error) {
	pt, err := pointOf(c)
	if err != nil {
		return geom.Geometry{}, err
	}
	return pt.AsGeometry(), nil
}

func hasDistinct(points []domain.Coordinates) bool {
	for _, p := range points[1:] {
		if p != points[0] {
			return true
		}
	}
	return false
}
